package models

import (
	"encoding/json"
	"github.com/google/uuid"
	"time"
)

// NotificationRecord is a relay event as it was pushed to websocket
// clients. The event itself is stored serialized so that records of
// every event type share one table.
type NotificationRecord struct {
	ID           string          `gorm:"primary_key" json:"id"`
	Timestamp    time.Time       `gorm:"index" json:"timestamp"`
	Type         string          `json:"type"`
	Account      string          `gorm:"index" json:"account"`
	Notification json.RawMessage `json:"notification"`
}

// NewNotificationRecord serializes the event into a new record with a
// fresh ID and timestamp.
func NewNotificationRecord(typ, account string, event interface{}) (*NotificationRecord, error) {
	out, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return &NotificationRecord{
		ID:           uuid.New().String(),
		Timestamp:    time.Now(),
		Type:         typ,
		Account:      account,
		Notification: out,
	}, nil
}
