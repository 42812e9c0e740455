package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	stripe "github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
	"gorm.io/gorm"

	"charter_backoffice/internal/config"
	"charter_backoffice/internal/models"
	"charter_backoffice/internal/services"
)

// maxWebhookBody bounds how much of an event payload is read.
const maxWebhookBody = 65536

type WebhookHandler struct {
	db    *gorm.DB
	links *services.PaymentLinkService
	cfg   config.Config
}

func NewWebhookHandler(db *gorm.DB, links *services.PaymentLinkService, cfg config.Config) *WebhookHandler {
	return &WebhookHandler{db: db, links: links, cfg: cfg}
}

// StripeWebhook ingests signed payment events. Once an event is
// authenticated it always returns 200, whether it was processed or
// safely ignored; the provider should only retry on signature failure
// or a genuine outage on this side.
func (h *WebhookHandler) StripeWebhook(c echo.Context) error {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Response(), c.Request().Body, maxWebhookBody))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}

	event, err := webhook.ConstructEvent(payload, c.Request().Header.Get("Stripe-Signature"), h.cfg.StripeWebhookSecret)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "webhook signature verification failed")
	}

	linkID, newStatus, snap, ok, err := extractTransition(event)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to parse event payload")
	}

	h.recordCallback(event, linkID)

	if !ok {
		// Unhandled event types are ignored, not errors.
		return c.JSON(http.StatusOK, map[string]bool{"received": true})
	}
	if linkID == "" {
		logrus.WithField("event_type", string(event.Type)).Info("payment event without a link reference, ignoring")
		return c.JSON(http.StatusOK, map[string]bool{"received": true})
	}

	if err := h.links.ApplyPaymentStatus(c.Request().Context(), linkID, newStatus, snap); err != nil {
		// Processing failures are logged but still acknowledged: a retry
		// from the provider would hit the same condition.
		logrus.WithField("link_id", linkID).Errorf("failed to apply payment event: %v", err)
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}

// extractTransition maps a provider event onto the transition function's
// inputs. The link id is taken from the direct link reference when
// present, falling back to the metadata-embedded identifier. ok=false
// with a nil error means the event type is not one we act on.
func extractTransition(event stripe.Event) (linkID string, newStatus models.PaymentStatus, snap models.EventSnapshot, ok bool, err error) {
	occurredAt := time.Unix(event.Created, 0)

	switch event.Type {
	case "checkout.session.completed", "checkout.session.async_payment_succeeded", "checkout.session.async_payment_failed":
		var session stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
			logrus.Warnf("failed to parse checkout session event: %v", err)
			return "", "", models.EventSnapshot{}, false, err
		}

		if session.PaymentLink != nil {
			linkID = session.PaymentLink.ID
		}
		if linkID == "" {
			linkID = session.Metadata["payment_link_id"]
		}

		snap = models.EventSnapshot{SessionID: session.ID, OccurredAt: occurredAt}
		if session.PaymentIntent != nil {
			snap.PaymentIntentID = session.PaymentIntent.ID
		}

		switch event.Type {
		case "checkout.session.async_payment_failed":
			newStatus = models.PaymentStatusFailed
		default:
			newStatus = services.MapSessionStatus(&session)
		}
		return linkID, newStatus, snap, true, nil

	case "payment_intent.succeeded", "payment_intent.payment_failed":
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			logrus.Warnf("failed to parse payment intent event: %v", err)
			return "", "", models.EventSnapshot{}, false, err
		}

		linkID = intent.Metadata["payment_link_id"]
		snap = models.EventSnapshot{PaymentIntentID: intent.ID, OccurredAt: occurredAt}

		if event.Type == "payment_intent.succeeded" {
			newStatus = models.PaymentStatusPaid
		} else {
			newStatus = models.PaymentStatusFailed
		}
		return linkID, newStatus, snap, true, nil
	}

	return "", "", models.EventSnapshot{}, false, nil
}

// recordCallback appends the raw event to the callback audit history.
func (h *WebhookHandler) recordCallback(event stripe.Event, linkID string) {
	history := models.PaymentCallbackHistory{
		Provider:  "stripe",
		EventType: string(event.Type),
		LinkID:    linkID,
		Metadata:  json.RawMessage(event.Data.Raw),
	}
	if err := h.db.Create(&history).Error; err != nil {
		logrus.Warnf("failed to record callback history: %v", err)
	}
}
