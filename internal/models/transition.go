package models

import "time"

// EventSnapshot carries the identifying fields of a provider event into
// the transition function, regardless of whether the event arrived via
// webhook or via the reconciliation sweep.
type EventSnapshot struct {
	SessionID       string
	PaymentIntentID string
	OccurredAt      time.Time
}

// Transition is the outcome of applying an event to a PaymentLink.
// Updates holds the column-level changes to persist; an empty map with
// Changed=false means the event was a safe no-op (duplicate delivery).
type Transition struct {
	Changed    bool
	BecamePaid bool
	Updates    map[string]interface{}
}

// ComputeTransition merges a new payment status and event snapshot into
// the current record state. It is pure: the webhook path and the
// reconciliation sweep must converge to identical outcomes, so both call
// this with whatever they observed.
//
// Invariant: paid is terminal. Once a link is paid, no later event may
// move it back to pending or failed, and paid_at never changes. A
// genuinely newer event may still refresh the last-seen session and
// intent ids.
func ComputeTransition(link PaymentLink, newStatus PaymentStatus, snap EventSnapshot) Transition {
	if link.PaymentStatus == PaymentStatusPaid {
		// Duplicate or late delivery. Refresh ordering hints only when
		// the event is newer than the recorded payment and actually
		// carries different identifiers.
		if newStatus == PaymentStatusPaid && link.PaidAt != nil && snap.OccurredAt.After(*link.PaidAt) {
			updates := map[string]interface{}{}
			if snap.SessionID != "" && snap.SessionID != link.LastSessionID {
				updates["last_session_id"] = snap.SessionID
			}
			if snap.PaymentIntentID != "" && snap.PaymentIntentID != link.LastPaymentIntentID {
				updates["last_payment_intent_id"] = snap.PaymentIntentID
			}
			if len(updates) > 0 {
				return Transition{Changed: true, Updates: updates}
			}
		}
		return Transition{}
	}

	if newStatus == link.PaymentStatus && snap.SessionID == link.LastSessionID && snap.PaymentIntentID == link.LastPaymentIntentID {
		return Transition{}
	}

	updates := map[string]interface{}{
		"payment_status": newStatus,
	}
	if snap.SessionID != "" {
		updates["last_session_id"] = snap.SessionID
	}
	if snap.PaymentIntentID != "" {
		updates["last_payment_intent_id"] = snap.PaymentIntentID
	}

	becamePaid := newStatus == PaymentStatusPaid
	if becamePaid {
		paidAt := snap.OccurredAt
		if paidAt.IsZero() {
			paidAt = time.Now()
		}
		updates["paid_at"] = paidAt
		updates["active"] = false
	}

	return Transition{Changed: true, BecamePaid: becamePaid, Updates: updates}
}
