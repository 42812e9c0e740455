package models

import (
	"testing"
	"time"
)

func TestComputeTransitionPendingToPaid(t *testing.T) {
	paidAt := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	link := PaymentLink{
		ID:            "plink_123",
		PaymentStatus: PaymentStatusPending,
		Active:        true,
	}
	snap := EventSnapshot{SessionID: "cs_1", PaymentIntentID: "pi_1", OccurredAt: paidAt}

	tr := ComputeTransition(link, PaymentStatusPaid, snap)

	if !tr.Changed || !tr.BecamePaid {
		t.Fatalf("expected a paid transition, got %+v", tr)
	}
	if tr.Updates["payment_status"] != PaymentStatusPaid {
		t.Errorf("payment_status = %v; want paid", tr.Updates["payment_status"])
	}
	if tr.Updates["paid_at"] != paidAt {
		t.Errorf("paid_at = %v; want %v", tr.Updates["paid_at"], paidAt)
	}
	if tr.Updates["active"] != false {
		t.Errorf("active = %v; want false", tr.Updates["active"])
	}
	if tr.Updates["last_session_id"] != "cs_1" || tr.Updates["last_payment_intent_id"] != "pi_1" {
		t.Errorf("event ids not merged: %+v", tr.Updates)
	}
}

func TestComputeTransitionPaidIsTerminal(t *testing.T) {
	paidAt := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	paid := PaymentLink{
		ID:            "plink_123",
		PaymentStatus: PaymentStatusPaid,
		PaidAt:        &paidAt,
		LastSessionID: "cs_1",
	}

	tests := []struct {
		name     string
		incoming PaymentStatus
		snap     EventSnapshot
	}{
		{
			name:     "duplicate paid delivery",
			incoming: PaymentStatusPaid,
			snap:     EventSnapshot{SessionID: "cs_1", OccurredAt: paidAt},
		},
		{
			name:     "late failed event cannot revert",
			incoming: PaymentStatusFailed,
			snap:     EventSnapshot{SessionID: "cs_2", OccurredAt: paidAt.Add(time.Hour)},
		},
		{
			name:     "late pending event cannot revert",
			incoming: PaymentStatusPending,
			snap:     EventSnapshot{SessionID: "cs_0", OccurredAt: paidAt.Add(-time.Hour)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := ComputeTransition(paid, tt.incoming, tt.snap)
			if tr.Changed || tr.BecamePaid {
				t.Errorf("paid record must stay untouched, got %+v", tr)
			}
		})
	}
}

func TestComputeTransitionPaidRefreshesNewerIDsOnly(t *testing.T) {
	paidAt := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)
	paid := PaymentLink{
		ID:            "plink_123",
		PaymentStatus: PaymentStatusPaid,
		PaidAt:        &paidAt,
		LastSessionID: "cs_1",
	}

	tr := ComputeTransition(paid, PaymentStatusPaid, EventSnapshot{
		SessionID:  "cs_2",
		OccurredAt: paidAt.Add(time.Minute),
	})

	if !tr.Changed {
		t.Fatal("genuinely newer paid event should refresh ordering hints")
	}
	if tr.BecamePaid {
		t.Error("refresh must not count as a new paid transition")
	}
	if _, ok := tr.Updates["payment_status"]; ok {
		t.Error("status must not change on a paid record")
	}
	if _, ok := tr.Updates["paid_at"]; ok {
		t.Error("paid_at must not change on a paid record")
	}
	if tr.Updates["last_session_id"] != "cs_2" {
		t.Errorf("last_session_id = %v; want cs_2", tr.Updates["last_session_id"])
	}
}

func TestComputeTransitionPendingToFailed(t *testing.T) {
	link := PaymentLink{ID: "plink_123", PaymentStatus: PaymentStatusPending, Active: true}

	tr := ComputeTransition(link, PaymentStatusFailed, EventSnapshot{SessionID: "cs_1"})

	if !tr.Changed || tr.BecamePaid {
		t.Fatalf("expected a failed transition, got %+v", tr)
	}
	if tr.Updates["payment_status"] != PaymentStatusFailed {
		t.Errorf("payment_status = %v; want failed", tr.Updates["payment_status"])
	}
	if _, ok := tr.Updates["paid_at"]; ok {
		t.Error("failed transition must not stamp paid_at")
	}
	if _, ok := tr.Updates["active"]; ok {
		t.Error("failed transition must not deactivate the link")
	}
}

func TestComputeTransitionFailedToPaid(t *testing.T) {
	// failed is not terminal: a retried checkout can still succeed
	link := PaymentLink{ID: "plink_123", PaymentStatus: PaymentStatusFailed, Active: true}

	tr := ComputeTransition(link, PaymentStatusPaid, EventSnapshot{SessionID: "cs_2", OccurredAt: time.Now()})
	if !tr.BecamePaid {
		t.Fatalf("failed link should still be able to become paid, got %+v", tr)
	}
}

func TestComputeTransitionDuplicateNonTerminalEvent(t *testing.T) {
	link := PaymentLink{ID: "plink_123", PaymentStatus: PaymentStatusPending, LastSessionID: "cs_1"}

	tr := ComputeTransition(link, PaymentStatusPending, EventSnapshot{SessionID: "cs_1"})
	if tr.Changed {
		t.Errorf("identical pending event should be a no-op, got %+v", tr)
	}
}

func TestComputeTransitionZeroTimestampFallsBackToNow(t *testing.T) {
	link := PaymentLink{ID: "plink_123", PaymentStatus: PaymentStatusPending}

	before := time.Now()
	tr := ComputeTransition(link, PaymentStatusPaid, EventSnapshot{SessionID: "cs_1"})
	after := time.Now()

	paidAt, ok := tr.Updates["paid_at"].(time.Time)
	if !ok {
		t.Fatalf("paid_at missing from updates: %+v", tr.Updates)
	}
	if paidAt.Before(before) || paidAt.After(after) {
		t.Errorf("paid_at %v not within [%v, %v]", paidAt, before, after)
	}
}
