package handlers

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripe "github.com/stripe/stripe-go/v74"

	"charter_backoffice/internal/models"
)

func sessionEvent(t *testing.T, eventType string, payload map[string]interface{}) stripe.Event {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return stripe.Event{
		Type:    eventType,
		Created: time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC).Unix(),
		Data:    &stripe.EventData{Raw: raw},
	}
}

func TestExtractTransitionCompletedSession(t *testing.T) {
	event := sessionEvent(t, "checkout.session.completed", map[string]interface{}{
		"id":             "cs_1",
		"payment_status": "paid",
		"payment_link":   map[string]interface{}{"id": "plink_1"},
		"payment_intent": map[string]interface{}{"id": "pi_1"},
	})

	linkID, status, snap, ok, err := extractTransition(event)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "plink_1", linkID)
	assert.Equal(t, models.PaymentStatusPaid, status)
	assert.Equal(t, "cs_1", snap.SessionID)
	assert.Equal(t, "pi_1", snap.PaymentIntentID)
	assert.Equal(t, time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC), snap.OccurredAt.UTC())
}

func TestExtractTransitionUnpaidCompletedSessionStaysPending(t *testing.T) {
	event := sessionEvent(t, "checkout.session.completed", map[string]interface{}{
		"id":             "cs_2",
		"payment_status": "unpaid",
		"payment_link":   map[string]interface{}{"id": "plink_2"},
	})

	_, status, _, ok, err := extractTransition(event)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.PaymentStatusPending, status)
}

func TestExtractTransitionAsyncFailure(t *testing.T) {
	event := sessionEvent(t, "checkout.session.async_payment_failed", map[string]interface{}{
		"id":           "cs_3",
		"payment_link": map[string]interface{}{"id": "plink_3"},
	})

	linkID, status, _, ok, err := extractTransition(event)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "plink_3", linkID)
	assert.Equal(t, models.PaymentStatusFailed, status)
}

func TestExtractTransitionMetadataFallback(t *testing.T) {
	// Session without a direct link reference falls back to the
	// metadata-embedded identifier.
	event := sessionEvent(t, "checkout.session.completed", map[string]interface{}{
		"id":             "cs_4",
		"payment_status": "paid",
		"metadata":       map[string]string{"payment_link_id": "plink_meta"},
	})

	linkID, _, _, ok, err := extractTransition(event)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "plink_meta", linkID)
}

func TestExtractTransitionPaymentIntentEvents(t *testing.T) {
	succeeded := sessionEvent(t, "payment_intent.succeeded", map[string]interface{}{
		"id":       "pi_5",
		"metadata": map[string]string{"payment_link_id": "plink_5"},
	})
	linkID, status, snap, ok, err := extractTransition(succeeded)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "plink_5", linkID)
	assert.Equal(t, models.PaymentStatusPaid, status)
	assert.Equal(t, "pi_5", snap.PaymentIntentID)

	failed := sessionEvent(t, "payment_intent.payment_failed", map[string]interface{}{
		"id":       "pi_6",
		"metadata": map[string]string{"payment_link_id": "plink_6"},
	})
	_, status, _, ok, err = extractTransition(failed)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, models.PaymentStatusFailed, status)
}

func TestExtractTransitionIgnoresUnhandledTypes(t *testing.T) {
	event := sessionEvent(t, "customer.created", map[string]interface{}{"id": "cus_1"})

	_, _, _, ok, err := extractTransition(event)
	require.NoError(t, err)
	assert.False(t, ok)
}
