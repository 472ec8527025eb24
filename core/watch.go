package core

import (
	"context"
	"github.com/avast/retry-go/v4"
	"github.com/cpacia/bouncer/events"
	"github.com/cpacia/bouncer/models"
	iwallet "github.com/cpacia/wallet-interface"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"time"
)

// Watch runs the relay loop for one account. Each iteration it checks
// for the stop signal, emits a liveness signal when the alive interval
// has elapsed and tries to receive a pending transfer. A received
// transfer is forwarded in full to the configured destination, or back
// to its source if none is configured.
//
// In single-shot mode Watch returns after the first successful forward.
// In continuous mode it goes back to watching. It also returns, with a
// nil error, when the context is cancelled or the stop signal fires. The
// only error returned is ErrInvalidPassword.
func (b *Bouncer) Watch(ctx context.Context, account, wallet string) error {
	b.newWatchState(account, wallet)
	b.metrics.Watchers.Inc()
	log.Infof("Watching account %s in wallet %s", account, wallet)
	b.eventBus.Emit(&events.WatcherStarted{Account: account, Wallet: wallet})

	reason := "stopped"
	defer func() {
		b.metrics.Watchers.Dec()
		log.Infof("Stopped watching account %s: %s", account, reason)
		b.eventBus.Emit(&events.WatcherStopped{Account: account, Reason: reason})
	}()

	var lastAlive time.Time
	for {
		if ctx.Err() != nil || b.stop.Check() {
			b.setStatus(account, models.WatchStatusStopping)
			return nil
		}

		if now := time.Now(); lastAlive.IsZero() || now.Sub(lastAlive) >= b.cfg.AliveInterval {
			lastAlive = now
			b.alive(account, now)
		}

		received := b.ReceivePending(ctx, wallet, account, b.threshold)
		if errors.Is(received.Err(), ErrInvalidPassword) {
			reason = received.Err().Error()
			return received.Err()
		}
		if !received.ReceiveSuccess {
			b.setStatus(account, models.WatchStatusWatching)
			b.sleep(ctx)
			continue
		}
		b.updateWatchState(account, func(state *models.WatchState) {
			state.Status = models.WatchStatusReceived
			state.Received++
		})
		b.GetBalance(ctx, account)

		destination := b.cfg.Destination
		if destination == "" {
			destination = received.Source
		}
		amount, _ := models.ParseTransferAmount(received.Amount)

		if _, err := b.forward(ctx, wallet, account, destination, amount); err != nil {
			if errors.Is(err, ErrInvalidPassword) {
				reason = err.Error()
				return err
			}
			log.Errorf("Giving up forwarding %s raw from %s to %s: %s", received.Amount, account, destination, err)
			b.setStatus(account, models.WatchStatusWatching)
			b.sleep(ctx)
			continue
		}
		b.updateWatchState(account, func(state *models.WatchState) {
			state.Status = models.WatchStatusForwarded
			state.Forwarded++
		})
		b.GetBalance(ctx, account)

		if !b.cfg.Continuous {
			reason = "forwarded"
			return nil
		}
		b.setStatus(account, models.WatchStatusWatching)
	}
}

// forward sends amount from source to destination, retrying failed sends.
// Every attempt uses the same request id so a send which reached the node
// but whose reply was lost is not duplicated.
func (b *Bouncer) forward(ctx context.Context, wallet, source, destination string, amount iwallet.Amount) (*models.SendOutcome, error) {
	requestID := uuid.New().String()

	var sent *models.SendOutcome
	err := retry.Do(
		func() error {
			sent = b.sendTransfer(ctx, wallet, source, destination, amount, requestID)
			if sent.SendSuccess {
				return nil
			}
			if errors.Is(sent.Err(), ErrInvalidPassword) {
				return retry.Unrecoverable(sent.Err())
			}
			return sent.Err()
		},
		retry.Context(ctx),
		retry.Attempts(b.cfg.ForwardRetries),
		retry.Delay(b.cfg.PollInterval),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Warningf("Forward attempt %d from %s failed: %s", n+1, source, err)
		}),
	)
	return sent, err
}

func (b *Bouncer) alive(account string, now time.Time) {
	log.Infof("ALIVE %s", account)
	b.metrics.AliveSignals.WithLabelValues(account).Inc()
	b.updateWatchState(account, func(state *models.WatchState) {
		state.LastAlive = now
	})
	b.eventBus.Emit(&events.WatcherAlive{Account: account, Time: now})
}

// sleep waits for the poll interval. It returns early if the context is
// cancelled or the stop signal fires.
func (b *Bouncer) sleep(ctx context.Context) {
	t := time.NewTimer(b.cfg.PollInterval)
	defer t.Stop()

	select {
	case <-t.C:
	case <-ctx.Done():
	case <-b.stop.Done():
	}
}
