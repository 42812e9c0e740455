package models

import "time"

// DeadLetter records a sweep item that keeps failing, so an operator can
// inspect it instead of digging through per-run log lines. One row per
// (scope, item); the failure counter grows until the item succeeds and
// the row is cleared.
type DeadLetter struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Scope     string `gorm:"type:varchar(100);uniqueIndex:idx_dead_letters_scope_item" json:"scope"`
	ItemKey   string `gorm:"type:varchar(255);uniqueIndex:idx_dead_letters_scope_item" json:"item_key"`
	Failures  int    `json:"failures"`
	LastError string `gorm:"type:text" json:"last_error"`
}
