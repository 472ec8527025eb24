package api

import (
	"context"
	"github.com/cpacia/bouncer/events"
	"github.com/cpacia/bouncer/models"
	"github.com/cpacia/bouncer/rpc"
	"github.com/prometheus/client_golang/prometheus"
)

// CoreIface is the part of the bouncer the API serves. It lets the
// handlers be tested without a wallet node.
type CoreIface interface {
	Watchers() []models.WatchState
	Watcher(account string) (models.WatchState, error)
	ReceiveOutcomes(account string, limit int) ([]models.ReceiveOutcome, error)
	SendOutcomes(account string, limit int) ([]models.SendOutcome, error)
	Notifications(account string, limit int) ([]models.NotificationRecord, error)
	GetBalance(ctx context.Context, account string) *models.AccountBalance
	AccountHistory(ctx context.Context, account string, count int) ([]rpc.HistoryEntry, error)
	Stop()
	SubscribeEvent(event interface{}) (events.Subscription, error)
	MetricsGatherer() prometheus.Gatherer
}
