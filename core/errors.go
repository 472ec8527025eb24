package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidPassword is returned when the wallet rejects the configured
	// password. Retrying cannot fix it so it stops the relay.
	ErrInvalidPassword = errors.New("wallet rejected the configured password")

	// ErrWalletLocked is returned when a privileged call could not be made
	// because the wallet did not end up unlocked.
	ErrWalletLocked = errors.New("wallet is locked")

	// ErrNoAccounts is returned by Run when no account is configured.
	ErrNoAccounts = errors.New("no accounts to watch")

	// ErrInvalidConfig wraps configuration values rejected at construction.
	ErrInvalidConfig = errors.New("invalid config")

	// ErrInvalidAccount is returned when an account argument is not a
	// valid account id.
	ErrInvalidAccount = errors.New("invalid account")

	// ErrNotFound is returned when a requested watcher or record does not
	// exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyRunning is returned if Run is called twice.
	ErrAlreadyRunning = errors.New("bouncer already running")
)

// ErrInvalidBlock is the failure recorded when a node reply carries a
// block field that is not a valid block id.
type ErrInvalidBlock struct {
	Stage string
	Block string
}

func (e ErrInvalidBlock) Error() string {
	return fmt.Sprintf("invalid %s block %q", e.Stage, e.Block)
}
