package api

import (
	"context"
	"errors"
	"github.com/cpacia/bouncer/core"
	"github.com/cpacia/bouncer/models"
	"github.com/cpacia/bouncer/rpc"
	iwallet "github.com/cpacia/wallet-interface"
	"net/http"
	"testing"
	"time"
)

const (
	testAccount = "xrb_3t6k35gi95xu6tergt6p69ck76ogmitsa8mnijtpxm9fkcm736xtoncuohr3"
	testBlock   = "991CF190094C00F0B68E2E5F75F6BEE95A2E0BD93CEAA4A6734DB9F19B728948"
)

func TestRelayHandlers(t *testing.T) {
	started := time.Date(2020, 6, 1, 12, 0, 0, 0, time.UTC)
	watchers := []models.WatchState{
		{
			Account:   testAccount,
			Status:    models.WatchStatusWatching,
			Started:   started,
			LastAlive: started,
			Received:  1,
			Forwarded: 1,
		},
	}
	receives := []models.ReceiveOutcome{
		{
			ID:             "1",
			Message:        models.OutcomeReceive,
			Destination:    testAccount,
			Threshold:      "0",
			SendBlockID:    testBlock,
			Amount:         "1000",
			PendingSuccess: true,
			ReceiveSuccess: true,
			CreatedAt:      started,
		},
	}
	sends := []models.SendOutcome{
		{
			ID:        "2",
			Message:   models.OutcomeSend,
			Source:    testAccount,
			Amount:    "1000",
			Error:     "<b>Insufficient balance</b>",
			CreatedAt: started,
		},
	}

	var (
		stopped      bool
		gotLimit     int
		gotCount     int
		gotNotifAcct string
	)

	runAPITests(t, apiTests{
		{
			name:   "Get watchers",
			path:   "/v1/relay/watchers",
			method: http.MethodGet,
			setNodeMethods: func(n *mockNode) {
				n.watchersFunc = func() []models.WatchState {
					return watchers
				}
			},
			statusCode: http.StatusOK,
			expectedResponse: func() ([]byte, error) {
				return marshalAndSanitizeJSON(watchers)
			},
		},
		{
			name:   "Get watcher",
			path:   "/v1/relay/watchers/" + testAccount,
			method: http.MethodGet,
			setNodeMethods: func(n *mockNode) {
				n.watcherFunc = func(account string) (models.WatchState, error) {
					return watchers[0], nil
				}
			},
			statusCode: http.StatusOK,
			expectedResponse: func() ([]byte, error) {
				return marshalAndSanitizeJSON(watchers[0])
			},
		},
		{
			name:   "Get unknown watcher",
			path:   "/v1/relay/watchers/" + testAccount,
			method: http.MethodGet,
			setNodeMethods: func(n *mockNode) {
				n.watcherFunc = func(account string) (models.WatchState, error) {
					return models.WatchState{}, core.ErrNotFound
				}
			},
			statusCode: http.StatusNotFound,
			expectedResponse: func() ([]byte, error) {
				return []byte(wrapError(core.ErrNotFound) + "\n"), nil
			},
		},
		{
			name:   "Get outcomes",
			path:   "/v1/relay/outcomes?limit=5",
			method: http.MethodGet,
			setNodeMethods: func(n *mockNode) {
				n.receiveOutcomesFunc = func(account string, limit int) ([]models.ReceiveOutcome, error) {
					gotLimit = limit
					return receives, nil
				}
				n.sendOutcomesFunc = func(account string, limit int) ([]models.SendOutcome, error) {
					return sends, nil
				}
			},
			statusCode: http.StatusOK,
			expectedResponse: func() ([]byte, error) {
				if gotLimit != 5 {
					return nil, errors.New("limit not passed through")
				}
				return marshalAndSanitizeJSON(outcomesResponse{Receives: receives, Sends: sends})
			},
		},
		{
			name:           "Get outcomes bad limit",
			path:           "/v1/relay/outcomes?limit=abc",
			method:         http.MethodGet,
			setNodeMethods: func(n *mockNode) {},
			statusCode:     http.StatusBadRequest,
			expectedResponse: func() ([]byte, error) {
				return []byte(wrapError(errors.New(`invalid limit "abc"`)) + "\n"), nil
			},
		},
		{
			name:           "Get outcomes invalid account",
			path:           "/v1/relay/outcomes/xrb_123",
			method:         http.MethodGet,
			setNodeMethods: func(n *mockNode) {},
			statusCode:     http.StatusBadRequest,
			expectedResponse: func() ([]byte, error) {
				return []byte(wrapError(errors.New("invalid account xrb_123")) + "\n"), nil
			},
		},
		{
			name:   "Get notifications",
			path:   "/v1/relay/notifications?account=" + testAccount,
			method: http.MethodGet,
			setNodeMethods: func(n *mockNode) {
				n.notificationsFunc = func(account string, limit int) ([]models.NotificationRecord, error) {
					gotNotifAcct = account
					return []models.NotificationRecord{}, nil
				}
			},
			statusCode: http.StatusOK,
			expectedResponse: func() ([]byte, error) {
				if gotNotifAcct != testAccount {
					return nil, errors.New("account not passed through")
				}
				return marshalAndSanitizeJSON([]models.NotificationRecord{})
			},
		},
		{
			name:   "Get balance",
			path:   "/v1/relay/balance/" + testAccount,
			method: http.MethodGet,
			setNodeMethods: func(n *mockNode) {
				n.getBalanceFunc = func(ctx context.Context, account string) *models.AccountBalance {
					return &models.AccountBalance{
						Account: account,
						Balance: iwallet.NewAmount("123456789012345678901234567890"),
						Pending: iwallet.NewAmount(0),
					}
				}
			},
			statusCode: http.StatusOK,
			expectedResponse: func() ([]byte, error) {
				return marshalAndSanitizeJSON(balanceResponse{
					Account: testAccount,
					Balance: "123456789012345678901234567890",
					Pending: "0",
				})
			},
		},
		{
			name:   "Get balance unavailable",
			path:   "/v1/relay/balance/" + testAccount,
			method: http.MethodGet,
			setNodeMethods: func(n *mockNode) {
				n.getBalanceFunc = func(ctx context.Context, account string) *models.AccountBalance {
					return nil
				}
			},
			statusCode: http.StatusBadGateway,
			expectedResponse: func() ([]byte, error) {
				return []byte(wrapError(errors.New("balance unavailable")) + "\n"), nil
			},
		},
		{
			name:           "Get balance invalid account",
			path:           "/v1/relay/balance/abc",
			method:         http.MethodGet,
			setNodeMethods: func(n *mockNode) {},
			statusCode:     http.StatusBadRequest,
			expectedResponse: func() ([]byte, error) {
				return []byte(wrapError(errors.New("invalid account abc")) + "\n"), nil
			},
		},
		{
			name:   "Get history",
			path:   "/v1/relay/history/" + testAccount,
			method: http.MethodGet,
			setNodeMethods: func(n *mockNode) {
				n.accountHistoryFunc = func(ctx context.Context, account string, count int) ([]rpc.HistoryEntry, error) {
					gotCount = count
					return []rpc.HistoryEntry{{Type: "send", Account: testAccount, Amount: "1", Hash: testBlock}}, nil
				}
			},
			statusCode: http.StatusOK,
			expectedResponse: func() ([]byte, error) {
				if gotCount != defaultHistoryCount {
					return nil, errors.New("default count not used")
				}
				return marshalAndSanitizeJSON([]rpc.HistoryEntry{{Type: "send", Account: testAccount, Amount: "1", Hash: testBlock}})
			},
		},
		{
			name:   "Get history invalid account",
			path:   "/v1/relay/history/abc",
			method: http.MethodGet,
			setNodeMethods: func(n *mockNode) {
				n.accountHistoryFunc = func(ctx context.Context, account string, count int) ([]rpc.HistoryEntry, error) {
					return nil, core.ErrInvalidAccount
				}
			},
			statusCode: http.StatusBadRequest,
			expectedResponse: func() ([]byte, error) {
				return []byte(wrapError(core.ErrInvalidAccount) + "\n"), nil
			},
		},
		{
			name:   "Stop",
			path:   "/v1/relay/stop",
			method: http.MethodPost,
			setNodeMethods: func(n *mockNode) {
				n.stopFunc = func() {
					stopped = true
				}
			},
			statusCode: http.StatusAccepted,
			expectedResponse: func() ([]byte, error) {
				if !stopped {
					return nil, errors.New("stop not called")
				}
				return []byte{}, nil
			},
		},
	})
}
