package models

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// PaymentCallbackHistory stores every authenticated webhook event as
// received, for audit and replay investigation. Processing outcome lives
// on the PaymentLink record itself.
type PaymentCallbackHistory struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`

	Provider  string          `gorm:"type:varchar(50);not null" json:"provider"`
	EventType string          `gorm:"type:varchar(100)" json:"event_type"`
	LinkID    string          `gorm:"type:varchar(255);index" json:"link_id"`
	Metadata  json.RawMessage `gorm:"type:jsonb" json:"metadata"`
}
