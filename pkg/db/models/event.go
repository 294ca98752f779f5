package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a single row of the behavioral log. One row per user action;
// the acquisition channel, device and experiment group ride on every row
// so analytics never needs a join.
type Event struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey"`
	UserID     string    `gorm:"column:user_id;type:text;not null;index:idx_events_user_occurred"`
	EventType  string    `gorm:"column:event_type;type:text;not null;index"`
	OccurredOn time.Time `gorm:"column:occurred_on;type:date;not null;index:idx_events_user_occurred"`
	Revenue    float64   `gorm:"column:revenue;type:numeric(12,2);not null;default:0"`
	Device     string    `gorm:"column:device;type:text;not null"`
	Channel    string    `gorm:"column:channel;type:text;not null"`
	ABGroup    string    `gorm:"column:ab_group;type:text;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

// TableName pins the table name used by the goose migrations.
func (Event) TableName() string {
	return "events"
}
