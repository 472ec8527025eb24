package api

import (
	"context"
	"github.com/cpacia/bouncer/events"
	"github.com/cpacia/bouncer/models"
	"github.com/cpacia/bouncer/rpc"
	"github.com/prometheus/client_golang/prometheus"
)

type mockNode struct {
	watchersFunc        func() []models.WatchState
	watcherFunc         func(account string) (models.WatchState, error)
	receiveOutcomesFunc func(account string, limit int) ([]models.ReceiveOutcome, error)
	sendOutcomesFunc    func(account string, limit int) ([]models.SendOutcome, error)
	notificationsFunc   func(account string, limit int) ([]models.NotificationRecord, error)
	getBalanceFunc      func(ctx context.Context, account string) *models.AccountBalance
	accountHistoryFunc  func(ctx context.Context, account string, count int) ([]rpc.HistoryEntry, error)
	stopFunc            func()
	subscribeEventFunc  func(event interface{}) (events.Subscription, error)
	metricsGathererFunc func() prometheus.Gatherer
}

func (m *mockNode) Watchers() []models.WatchState {
	return m.watchersFunc()
}
func (m *mockNode) Watcher(account string) (models.WatchState, error) {
	return m.watcherFunc(account)
}
func (m *mockNode) ReceiveOutcomes(account string, limit int) ([]models.ReceiveOutcome, error) {
	return m.receiveOutcomesFunc(account, limit)
}
func (m *mockNode) SendOutcomes(account string, limit int) ([]models.SendOutcome, error) {
	return m.sendOutcomesFunc(account, limit)
}
func (m *mockNode) Notifications(account string, limit int) ([]models.NotificationRecord, error) {
	return m.notificationsFunc(account, limit)
}
func (m *mockNode) GetBalance(ctx context.Context, account string) *models.AccountBalance {
	return m.getBalanceFunc(ctx, account)
}
func (m *mockNode) AccountHistory(ctx context.Context, account string, count int) ([]rpc.HistoryEntry, error) {
	return m.accountHistoryFunc(ctx, account, count)
}
func (m *mockNode) Stop() {
	m.stopFunc()
}
func (m *mockNode) SubscribeEvent(event interface{}) (events.Subscription, error) {
	return m.subscribeEventFunc(event)
}
func (m *mockNode) MetricsGatherer() prometheus.Gatherer {
	if m.metricsGathererFunc == nil {
		return prometheus.NewRegistry()
	}
	return m.metricsGathererFunc()
}
