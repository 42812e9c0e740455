package models

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
)

// BookingPaymentStatus is the closed set of booking-level payment states.
// Legacy free-form strings from older records are normalized through
// NormalizePaymentStatus at the data-access boundary.
type BookingPaymentStatus string

const (
	BookingPaymentNone      BookingPaymentStatus = "No Payment"
	BookingPaymentPartial   BookingPaymentStatus = "Partial"
	BookingPaymentCompleted BookingPaymentStatus = "Completed"
)

// legacyStatusMapping maps every historical status string to its
// canonical value.
var legacyStatusMapping = map[string]BookingPaymentStatus{
	"no payment":  BookingPaymentNone,
	"none":        BookingPaymentNone,
	"pending":     BookingPaymentNone,
	"partial":     BookingPaymentPartial,
	"deposit":     BookingPaymentPartial,
	"outstanding": BookingPaymentPartial,
	"completed":   BookingPaymentCompleted,
	"paid":        BookingPaymentCompleted,
}

// NormalizePaymentStatus resolves a stored status string into the
// canonical enumeration.
func NormalizePaymentStatus(raw string) (BookingPaymentStatus, error) {
	status, ok := legacyStatusMapping[strings.ToLower(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("unknown payment status %q", raw)
	}
	return status, nil
}

// PaymentEntryType distinguishes the deposit from the balance payment.
type PaymentEntryType string

const (
	PaymentEntryFirst  PaymentEntryType = "first"
	PaymentEntrySecond PaymentEntryType = "second"
)

// PaymentEntry is one itemized payment on a booking.
type PaymentEntry struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	BookingID uint             `gorm:"index" json:"booking_id"`
	Type      PaymentEntryType `gorm:"type:varchar(20)" json:"type"`
	Amount    float64          `gorm:"type:decimal(15,2)" json:"amount"`
	Method    string           `gorm:"type:varchar(100)" json:"method"`
	Received  bool             `gorm:"default:false" json:"received"`
	Date      time.Time        `json:"date"`
}

// Booking is a charter reservation document.
type Booking struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	ClientName  string `gorm:"type:varchar(255)" json:"client_name"`
	ClientEmail string `gorm:"type:varchar(255)" json:"client_email"`
	ClientPhone string `gorm:"type:varchar(50)" json:"client_phone"`

	BoatName    string    `gorm:"type:varchar(255)" json:"boat_name"`
	BookingDate time.Time `gorm:"index" json:"booking_date"`

	AgreedPrice float64 `gorm:"type:decimal(15,2)" json:"agreed_price"`
	// TotalPaid and PaymentStatus are derived from Payments through
	// AggregatePayments on every mutation path; never hand-edited.
	TotalPaid     float64              `gorm:"type:decimal(15,2)" json:"total_paid"`
	PaymentStatus BookingPaymentStatus `gorm:"type:varchar(50);index" json:"payment_status"`

	Payments []PaymentEntry `gorm:"foreignKey:BookingID" json:"payments,omitempty"`

	// Multi-boat bookings are stored as sibling documents sharing one
	// group id; the confirmation email covers the whole group once.
	MultiBoatGroupID         *string `gorm:"type:varchar(64);index" json:"multi_boat_group_id,omitempty"`
	IsPartOfMultiBoatBooking bool    `gorm:"default:false" json:"is_part_of_multi_boat_booking"`

	EmailSent        bool `gorm:"default:false" json:"email_sent"`
	EmailSentInGroup bool `gorm:"default:false" json:"email_sent_in_group"`

	LastReminderSentAt *time.Time `json:"last_reminder_sent_at,omitempty"`
	LastReminderStatus string     `gorm:"type:varchar(50)" json:"last_reminder_status"`
}

// BalanceDue is the remaining amount owed, floored at zero.
func (b Booking) BalanceDue() float64 {
	due := b.AgreedPrice - b.TotalPaid
	if due < 0 {
		return 0
	}
	return due
}

// AggregatePayments derives the booking-level payment totals from its
// itemized entries. Pure and total: no I/O, identical output for every
// caller (UI edits, linked-order updates, webhook-owned updates).
//
// An agreed price of zero or less degenerates to No Payment unless money
// was actually received, which counts as Completed.
func AggregatePayments(entries []PaymentEntry, agreedPrice float64) (float64, BookingPaymentStatus) {
	var totalPaid float64
	for _, e := range entries {
		if e.Received {
			totalPaid += e.Amount
		}
	}

	switch {
	case totalPaid == 0:
		return 0, BookingPaymentNone
	case agreedPrice <= 0:
		return totalPaid, BookingPaymentCompleted
	case totalPaid >= agreedPrice:
		return totalPaid, BookingPaymentCompleted
	default:
		return totalPaid, BookingPaymentPartial
	}
}
