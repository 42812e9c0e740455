package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentStatus is the derived payment state of a payment link.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

// Terminal reports whether the status can no longer change. Paid is the
// one-way latch that makes out-of-order webhook delivery safe.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentStatusPaid
}

// PaymentLink is the local record of a provider-hosted payment link.
// The primary key is the provider's link identifier, so webhook
// correlation is a keyed lookup instead of a search. Records are never
// deleted, only soft-retained for audit.
type PaymentLink struct {
	ID        string         `gorm:"primaryKey;type:varchar(255)" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Amount    float64 `gorm:"type:decimal(15,2)" json:"amount"`
	Currency  string  `gorm:"type:varchar(10)" json:"currency"`
	BookingID *uint   `gorm:"index" json:"booking_id,omitempty"`

	URL string `gorm:"type:text" json:"url"`

	// Active mirrors the provider-side link status. It flips to false
	// exactly once, together with the first transition into paid.
	Active        bool          `gorm:"default:true" json:"active"`
	PaymentStatus PaymentStatus `gorm:"type:varchar(20);index" json:"payment_status"`

	// Last event observed, kept as ordering hints for duplicate delivery.
	LastSessionID       string `gorm:"type:varchar(255)" json:"last_session_id"`
	LastPaymentIntentID string `gorm:"type:varchar(255)" json:"last_payment_intent_id"`

	PaidAt    *time.Time `json:"paid_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`

	// LegacyOrderRef supports records created before the provider link id
	// became the primary key. Secondary lookup only.
	LegacyOrderRef string `gorm:"type:varchar(255);index" json:"legacy_order_ref,omitempty"`

	CreatedBy string `gorm:"type:varchar(255)" json:"created_by"`
}
