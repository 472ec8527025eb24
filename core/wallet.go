package core

import (
	"context"
	"github.com/cpacia/bouncer/repo"
)

// The node encodes booleans as strings.
const (
	nodeTrue  = "1"
	nodeFalse = "0"
)

// UnlockWallet makes sure the wallet is unlocked, submitting the
// configured password if it is locked. It returns true if the wallet
// ends up unlocked. Transport and node errors return false. The only
// error returned is ErrInvalidPassword.
func (b *Bouncer) UnlockWallet(ctx context.Context, wallet string) (bool, error) {
	locked, ok := b.walletLocked(ctx, wallet)
	if !ok {
		b.metrics.WalletLockEvents.WithLabelValues("unlock", "fail").Inc()
		return false, nil
	}
	if !locked {
		log.Debugf("Wallet %s already unlocked", wallet)
		b.metrics.WalletLockEvents.WithLabelValues("unlock", "success").Inc()
		return true, nil
	}

	resp, err := b.node.PasswordEnter(ctx, wallet, b.cfg.WalletPassword)
	if err != nil {
		log.Errorf("Error unlocking wallet %s: %s", wallet, err)
		b.metrics.WalletLockEvents.WithLabelValues("unlock", "fail").Inc()
		return false, nil
	}
	if err := resp.Err(); err != nil {
		log.Errorf("Error unlocking wallet %s: %s %+v", wallet, err, resp)
		b.metrics.WalletLockEvents.WithLabelValues("unlock", "fail").Inc()
		return false, nil
	}
	if resp.Valid != nodeTrue {
		log.Criticalf("Wallet %s rejected the configured password", wallet)
		b.metrics.WalletLockEvents.WithLabelValues("unlock", "rejected").Inc()
		return false, ErrInvalidPassword
	}

	locked, ok = b.walletLocked(ctx, wallet)
	unlocked := ok && !locked
	if unlocked {
		log.Infof("Wallet %s unlocked", wallet)
	} else {
		log.Errorf("Wallet %s still locked after password was accepted", wallet)
	}
	b.metrics.WalletLockEvents.WithLabelValues("unlock", statusLabel(unlocked)).Inc()
	return unlocked, nil
}

// LockWallet locks the wallet by submitting an empty password. It
// returns true if the wallet ends up locked.
func (b *Bouncer) LockWallet(ctx context.Context, wallet string) bool {
	resp, err := b.node.PasswordEnter(ctx, wallet, "")
	if err != nil {
		log.Errorf("Error locking wallet %s: %s", wallet, err)
		b.metrics.WalletLockEvents.WithLabelValues("lock", "fail").Inc()
		return false
	}
	if err := resp.Err(); err != nil {
		log.Errorf("Error locking wallet %s: %s %+v", wallet, err, resp)
		b.metrics.WalletLockEvents.WithLabelValues("lock", "fail").Inc()
		return false
	}

	locked, ok := b.walletLocked(ctx, wallet)
	locked = ok && locked
	if locked {
		log.Infof("Wallet %s locked", wallet)
	} else {
		log.Errorf("Wallet %s still unlocked after lock attempt", wallet)
	}
	b.metrics.WalletLockEvents.WithLabelValues("lock", statusLabel(locked)).Inc()
	return locked
}

// StartSession unlocks the wallet when the lock policy is session. The
// returned function locks it again and must be called when the session
// ends. For the other policies both are no-ops.
func (b *Bouncer) StartSession(ctx context.Context) (func(), error) {
	if b.cfg.LockPolicy != repo.LockPolicySession {
		return func() {}, nil
	}
	unlocked, err := b.UnlockWallet(ctx, b.cfg.Wallet)
	if err != nil {
		return nil, err
	}
	if !unlocked {
		log.Warningf("Wallet %s is not unlocked. Receives and sends will fail until it is.", b.cfg.Wallet)
	}
	return func() {
		// The session context may already be cancelled.
		lctx, cancel := context.WithTimeout(context.Background(), b.cfg.RPCTimeout)
		defer cancel()
		b.LockWallet(lctx, b.cfg.Wallet)
	}, nil
}

// privileged runs fn with the wallet unlocked when the lock policy is
// bracket, locking it again afterwards. Other policies run fn directly.
//
// Watchers of the same wallet share one unlock. The wallet is unlocked
// when the first privileged call starts and locked when the last one
// in flight returns.
func (b *Bouncer) privileged(ctx context.Context, wallet string, fn func() error) error {
	if b.cfg.LockPolicy != repo.LockPolicyBracket {
		return fn()
	}
	if err := b.acquireWallet(ctx, wallet); err != nil {
		return err
	}
	defer b.releaseWallet(wallet)
	return fn()
}

// acquireWallet takes a reference on the unlocked wallet, unlocking it
// if no other call holds one.
func (b *Bouncer) acquireWallet(ctx context.Context, wallet string) error {
	b.leaseMtx.Lock()
	defer b.leaseMtx.Unlock()

	if b.leases[wallet] > 0 {
		b.leases[wallet]++
		return nil
	}
	unlocked, err := b.UnlockWallet(ctx, wallet)
	if err != nil {
		return err
	}
	if !unlocked {
		return ErrWalletLocked
	}
	b.leases[wallet] = 1
	return nil
}

// releaseWallet drops a reference and locks the wallet once the last
// one is gone.
func (b *Bouncer) releaseWallet(wallet string) {
	b.leaseMtx.Lock()
	defer b.leaseMtx.Unlock()

	b.leases[wallet]--
	if b.leases[wallet] > 0 {
		return
	}
	delete(b.leases, wallet)

	// The caller's context may already be cancelled.
	ctx, cancel := context.WithTimeout(context.Background(), b.cfg.RPCTimeout)
	defer cancel()
	b.LockWallet(ctx, wallet)
}

// walletLocked returns the lock state of the wallet. The second return
// value is false if the state could not be determined.
func (b *Bouncer) walletLocked(ctx context.Context, wallet string) (locked bool, ok bool) {
	resp, err := b.node.WalletLocked(ctx, wallet)
	if err != nil {
		log.Errorf("Error querying lock state of wallet %s: %s", wallet, err)
		return false, false
	}
	if err := resp.Err(); err != nil {
		log.Errorf("Error querying lock state of wallet %s: %s %+v", wallet, err, resp)
		return false, false
	}
	switch resp.Locked {
	case nodeTrue:
		return true, true
	case nodeFalse:
		return false, true
	default:
		log.Errorf("Invalid lock state for wallet %s: %+v", wallet, resp)
		return false, false
	}
}
