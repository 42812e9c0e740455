package models

import (
	"encoding/json"
	"time"
)

// PaymentEventKind classifies ledger entries.
type PaymentEventKind string

const (
	PaymentEventLinkIssued  PaymentEventKind = "link_issued"
	PaymentEventLinkPaid    PaymentEventKind = "link_paid"
	PaymentEventManualEntry PaymentEventKind = "manual_entry"
)

// PaymentEvent is an append-only ledger row recording every payment
// mutation (link issued, link paid, manual entry added), regardless of
// which trigger produced it. Audit-only projection source; the stored
// PaymentLink and Booking fields remain the serving projections.
type PaymentEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	Kind      PaymentEventKind `gorm:"type:varchar(50);index" json:"kind"`
	BookingID *uint            `gorm:"index" json:"booking_id,omitempty"`
	LinkID    string           `gorm:"type:varchar(255);index" json:"link_id,omitempty"`
	Amount    float64          `gorm:"type:decimal(15,2)" json:"amount"`
	Currency  string           `gorm:"type:varchar(10)" json:"currency"`
	Metadata  json.RawMessage  `gorm:"type:jsonb" json:"metadata,omitempty"`
}
