package models

import "time"

// GroupEmailMarker is the exactly-once gate for the combined confirmation
// email of a multi-boat booking group. The row is claimed with an atomic
// create-if-absent write; whichever creation trigger wins the claim sends
// the email. Created once, never updated. The only delete is the
// compensating one after a failed send, so a transient failure does not
// permanently block the group.
type GroupEmailMarker struct {
	GroupID   string    `gorm:"primaryKey;type:varchar(64)" json:"group_id"`
	CreatedAt time.Time `json:"created_at"`
	SentBy    uint      `json:"sent_by"` // booking document that won the claim
}
