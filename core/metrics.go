package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics contains the Prometheus metrics of the relay.
type Metrics struct {
	// Watcher metrics
	Watchers      prometheus.Gauge
	AliveSignals  *prometheus.CounterVec
	WatcherStatus *prometheus.GaugeVec

	// Relay metrics
	PendingChecks    *prometheus.CounterVec
	TransfersFound   *prometheus.CounterVec
	ReceiveAttempts  *prometheus.CounterVec
	SendAttempts     *prometheus.CounterVec
	ForwardedAmount  *prometheus.CounterVec
	AccountBalance   *prometheus.GaugeVec
	WalletLockEvents *prometheus.CounterVec
}

// NewMetricsWithRegistry initializes and registers the relay metrics with
// the given registry.
func NewMetricsWithRegistry(registry prometheus.Registerer) *Metrics {
	factory := promauto.With(registry)

	return &Metrics{
		Watchers: factory.NewGauge(prometheus.GaugeOpts{
			Name: "bouncer_watchers",
			Help: "The number of running watch loops",
		}),
		AliveSignals: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bouncer_alive_total",
			Help: "The total number of liveness signals emitted",
		},
			[]string{"account"},
		),
		WatcherStatus: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bouncer_watcher_status",
			Help: "Set to one for the current status of each watcher",
		},
			[]string{"account", "status"},
		),
		PendingChecks: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bouncer_pending_checks_total",
			Help: "The total number of pending queries by result",
		},
			[]string{"result"},
		),
		TransfersFound: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bouncer_transfers_detected_total",
			Help: "The total number of valid pending transfers detected",
		},
			[]string{"account"},
		),
		ReceiveAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bouncer_receive_attempts_total",
			Help: "The total number of receive attempts by status",
		},
			[]string{"status"},
		),
		SendAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bouncer_send_attempts_total",
			Help: "The total number of send attempts by status",
		},
			[]string{"status"},
		),
		ForwardedAmount: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bouncer_forwarded_raw_total",
			Help: "The total amount forwarded per account, as a float of raw",
		},
			[]string{"account"},
		),
		AccountBalance: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "bouncer_account_balance_raw",
			Help: "The last observed balance of an account, as a float of raw",
		},
			[]string{"account", "kind"},
		),
		WalletLockEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "bouncer_wallet_lock_total",
			Help: "The total number of lock and unlock attempts by result",
		},
			[]string{"op", "result"},
		),
	}
}

// newRegistry returns a registry holding the Go runtime and process
// collectors.
func newRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

func statusLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "fail"
}
