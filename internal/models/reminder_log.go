package models

import "time"

// Reminder outcome values recorded per attempt.
const (
	ReminderStatusSent            = "sent"
	ReminderStatusSkipped         = "skipped"
	ReminderStatusError           = "error"
	ReminderStatusTemplateMissing = "template_missing"
)

// ReminderLog is an append-only audit record of each reminder attempt.
// Gating uses Booking.LastReminderSentAt, not this table.
type ReminderLog struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	BookingID uint   `gorm:"index" json:"booking_id"`
	Status    string `gorm:"type:varchar(50)" json:"status"`
	Detail    string `gorm:"type:text" json:"detail"`
}
