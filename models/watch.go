package models

import "time"

// WatchStatus is the position of a watcher in the relay cycle.
type WatchStatus string

const (
	WatchStatusWatching         WatchStatus = "WATCHING"
	WatchStatusTransferDetected WatchStatus = "TRANSFER_DETECTED"
	WatchStatusReceived         WatchStatus = "RECEIVED"
	WatchStatusForwarded        WatchStatus = "FORWARDED"
	WatchStatusStopping         WatchStatus = "STOPPING"
)

// WatchState is the state held by the watch loop of a single account.
// It lives for as long as the loop runs.
type WatchState struct {
	Account   string      `json:"account"`
	Wallet    string      `json:"wallet"`
	Status    WatchStatus `json:"status"`
	Started   time.Time   `json:"started"`
	LastAlive time.Time   `json:"lastAlive"`
	Received  int         `json:"received"`
	Forwarded int         `json:"forwarded"`
}
