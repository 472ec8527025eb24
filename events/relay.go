package events

import "time"

// WatcherStarted fires when a watch loop starts for an account.
type WatcherStarted struct {
	Account string
	Wallet  string
}

// WatcherAlive is the periodic liveness signal of a watch loop.
type WatcherAlive struct {
	Account string
	Time    time.Time
}

// WatcherStopped fires when a watch loop returns.
type WatcherStopped struct {
	Account string
	Reason  string
}

// TransferDetected fires when a valid pending block was found.
type TransferDetected struct {
	Account string
	BlockID string
	Source  string
	Amount  string
}

// TransferReceived fires once the node accepted the receive.
type TransferReceived struct {
	Account        string
	SendBlockID    string
	ReceiveBlockID string
	Amount         string
}

// SendAttempt fires right before a send is submitted to the node.
type SendAttempt struct {
	Account     string
	Destination string
	Amount      string
}

// TransferSent fires when the node returned a valid send block.
type TransferSent struct {
	Account     string
	Destination string
	BlockID     string
	Amount      string
}

// TransferFailed fires when a receive or send stage failed after a
// transfer had been detected.
type TransferFailed struct {
	Account string
	Stage   string
	Reason  string
}

// BalanceUpdated fires whenever a balance snapshot was taken.
type BalanceUpdated struct {
	Account string
	Balance string
	Pending string
}
