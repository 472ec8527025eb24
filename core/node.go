package core

import (
	"context"
	"github.com/cpacia/bouncer/database"
	"github.com/cpacia/bouncer/events"
	"github.com/cpacia/bouncer/models"
	"github.com/cpacia/bouncer/repo"
	"github.com/cpacia/bouncer/rpc"
	iwallet "github.com/cpacia/wallet-interface"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
	"sort"
	"sync"
	"time"
)

var log = logging.MustGetLogger("CORE")

// Bouncer holds all the components that make up the relay. It watches
// the configured accounts for pending transfers, receives them and
// forwards the funds. It also exposes an exported API which can be used
// to control the relay.
type Bouncer struct {
	cfg *repo.Config

	// node is the wallet node RPC client. It is shared by every watcher.
	node *rpc.Client

	// db stores the outcome of every relay stage.
	db database.Database

	// eventBus publishes the relay events to the API and notifier.
	eventBus events.Bus

	metrics  *Metrics
	registry *prometheus.Registry

	// stop is fired by the stop file or an API request and ends every
	// watch loop.
	stop *StopSignal

	threshold iwallet.Amount

	mtx      sync.RWMutex
	watchers map[string]*models.WatchState
	running  bool

	// leases counts the bracketed calls in flight per wallet.
	leaseMtx sync.Mutex
	leases   map[string]int
}

// NewBouncer validates the config and builds a Bouncer. Nothing is sent
// to the node until Run or one of the relay macros is called.
func NewBouncer(cfg *repo.Config, client *rpc.Client, db database.Database, bus events.Bus) (*Bouncer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(ErrInvalidConfig, err.Error())
	}
	threshold, ok := models.ParseTransferAmount(cfg.Threshold)
	if !ok {
		return nil, errors.Wrapf(ErrInvalidConfig, "threshold %q", cfg.Threshold)
	}

	registry := newRegistry()
	return &Bouncer{
		cfg:       cfg,
		node:      client,
		db:        db,
		eventBus:  bus,
		metrics:   NewMetricsWithRegistry(registry),
		registry:  registry,
		stop:      NewStopSignal(cfg.StopFile()),
		threshold: threshold,
		watchers:  make(map[string]*models.WatchState),
		leases:    make(map[string]int),
	}, nil
}

// Config returns the config the bouncer was built with.
func (b *Bouncer) Config() *repo.Config {
	return b.cfg
}

// SubscribeEvent returns a subscription to the provided event. The event
// type must be a pointer.
func (b *Bouncer) SubscribeEvent(event interface{}) (events.Subscription, error) {
	return b.eventBus.Subscribe(event)
}

// MetricsGatherer returns the registry holding the relay metrics.
func (b *Bouncer) MetricsGatherer() prometheus.Gatherer {
	return b.registry
}

// Stop fires the stop signal. Every watcher returns at the start of its
// next iteration and sleeping watchers wake up immediately.
func (b *Bouncer) Stop() {
	log.Info("Stop requested")
	b.stop.Trigger()
}

// Run starts one watcher per configured account and blocks until all of
// them return. A fatal error in one watcher cancels the others and is
// returned.
func (b *Bouncer) Run(ctx context.Context) error {
	accounts := uniqueAccounts(b.cfg.Accounts)
	if len(accounts) == 0 {
		return ErrNoAccounts
	}

	b.mtx.Lock()
	if b.running {
		b.mtx.Unlock()
		return ErrAlreadyRunning
	}
	b.running = true
	b.mtx.Unlock()

	defer func() {
		b.mtx.Lock()
		b.running = false
		b.mtx.Unlock()
	}()

	endSession, err := b.StartSession(ctx)
	if err != nil {
		return err
	}
	defer endSession()

	g, gctx := errgroup.WithContext(ctx)
	for _, account := range accounts {
		account := account
		g.Go(func() error {
			return b.Watch(gctx, account, b.cfg.Wallet)
		})
	}
	return g.Wait()
}

// Watchers returns a snapshot of every watcher's state sorted by account.
func (b *Bouncer) Watchers() []models.WatchState {
	b.mtx.RLock()
	defer b.mtx.RUnlock()

	ret := make([]models.WatchState, 0, len(b.watchers))
	for _, state := range b.watchers {
		ret = append(ret, *state)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].Account < ret[j].Account
	})
	return ret
}

// Watcher returns a snapshot of the state of the watcher for account.
func (b *Bouncer) Watcher(account string) (models.WatchState, error) {
	b.mtx.RLock()
	defer b.mtx.RUnlock()

	state, ok := b.watchers[account]
	if !ok {
		return models.WatchState{}, ErrNotFound
	}
	return *state, nil
}

// newWatchState registers a watcher for the account. A previous state for
// the same account is replaced.
func (b *Bouncer) newWatchState(account, wallet string) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	if old, ok := b.watchers[account]; ok {
		b.metrics.WatcherStatus.WithLabelValues(account, string(old.Status)).Set(0)
	}
	b.watchers[account] = &models.WatchState{
		Account: account,
		Wallet:  wallet,
		Status:  models.WatchStatusWatching,
		Started: time.Now(),
	}
	b.metrics.WatcherStatus.WithLabelValues(account, string(models.WatchStatusWatching)).Set(1)
}

// updateWatchState applies fn to the state of the watcher for account. It
// is a no-op if no watcher runs for the account, such as when a macro is
// called directly.
func (b *Bouncer) updateWatchState(account string, fn func(state *models.WatchState)) {
	b.mtx.Lock()
	defer b.mtx.Unlock()

	state, ok := b.watchers[account]
	if !ok {
		return
	}
	before := state.Status
	fn(state)
	if state.Status != before {
		log.Debugf("Watcher %s: %s -> %s", account, before, state.Status)
		b.metrics.WatcherStatus.WithLabelValues(account, string(before)).Set(0)
		b.metrics.WatcherStatus.WithLabelValues(account, string(state.Status)).Set(1)
	}
}

func (b *Bouncer) setStatus(account string, status models.WatchStatus) {
	b.updateWatchState(account, func(state *models.WatchState) {
		state.Status = status
	})
}

func uniqueAccounts(accounts []string) []string {
	seen := make(map[string]bool)
	var ret []string
	for _, account := range accounts {
		if seen[account] {
			log.Warningf("Account %s configured more than once", account)
			continue
		}
		seen[account] = true
		ret = append(ret, account)
	}
	return ret
}
