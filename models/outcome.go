package models

import (
	"time"
)

const (
	// OutcomeReceive is the message type of a ReceiveOutcome.
	OutcomeReceive = "receive"

	// OutcomeSend is the message type of a SendOutcome.
	OutcomeSend = "send"
)

// ReceiveOutcome records one attempt to find and receive a pending
// block for an account. The result fields are only set once the stage
// that produced them validated. The record is stored in the database.
type ReceiveOutcome struct {
	ID             string    `gorm:"primary_key" json:"id"`
	Message        string    `json:"message"`
	Wallet         string    `json:"wallet"`
	Destination    string    `gorm:"index" json:"destination"`
	Threshold      string    `json:"threshold"`
	SendBlockID    string    `json:"sendBlockID,omitempty"`
	Source         string    `json:"source,omitempty"`
	Amount         string    `json:"amount,omitempty"`
	ReceiveBlockID string    `json:"receiveBlockID,omitempty"`
	PendingSuccess bool      `json:"pendingSuccess"`
	ReceiveSuccess bool      `json:"receiveSuccess"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `gorm:"index" json:"createdAt"`

	err error
}

// Fail records the cause of a failed stage.
func (o *ReceiveOutcome) Fail(err error) {
	o.err = err
	if err != nil {
		o.Error = err.Error()
	}
}

// Err returns the cause of the failure, if any. A nil error with both
// success flags false means no transfer was pending.
func (o *ReceiveOutcome) Err() error {
	return o.err
}

// SendOutcome records one attempt to create a send block. The amount
// is always the requested amount even if the send failed. Retries of
// the same forward share a RequestID which the node uses to avoid
// creating a second block.
type SendOutcome struct {
	ID          string    `gorm:"primary_key" json:"id"`
	Message     string    `json:"message"`
	Wallet      string    `json:"wallet"`
	Source      string    `gorm:"index" json:"source"`
	Destination string    `json:"destination"`
	RequestID   string    `gorm:"index" json:"requestID"`
	SendBlockID string    `json:"sendBlockID,omitempty"`
	Amount      string    `json:"amount"`
	SendSuccess bool      `json:"sendSuccess"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`

	err error
}

// Fail records the cause of a failed send.
func (o *SendOutcome) Fail(err error) {
	o.err = err
	if err != nil {
		o.Error = err.Error()
	}
}

// Err returns the cause of the failure, if any.
func (o *SendOutcome) Err() error {
	return o.err
}
