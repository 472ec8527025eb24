package api

import (
	"errors"
	"fmt"
	"github.com/cpacia/bouncer/core"
	"github.com/cpacia/bouncer/models"
	"github.com/gorilla/mux"
	"net/http"
	"strconv"
)

const defaultHistoryCount = 10

type outcomesResponse struct {
	Receives []models.ReceiveOutcome `json:"receives"`
	Sends    []models.SendOutcome    `json:"sends"`
}

type balanceResponse struct {
	Account string `json:"account"`
	Balance string `json:"balance"`
	Pending string `json:"pending"`
}

func (g *Gateway) handleGETWatchers(w http.ResponseWriter, r *http.Request) {
	sanitizedJSONResponse(w, g.node.Watchers())
}

func (g *Gateway) handleGETWatcher(w http.ResponseWriter, r *http.Request) {
	state, err := g.node.Watcher(mux.Vars(r)["account"])
	if errors.Is(err, core.ErrNotFound) {
		http.Error(w, wrapError(err), http.StatusNotFound)
		return
	} else if err != nil {
		http.Error(w, wrapError(err), http.StatusInternalServerError)
		return
	}
	sanitizedJSONResponse(w, state)
}

func (g *Gateway) handleGETOutcomes(w http.ResponseWriter, r *http.Request) {
	account := mux.Vars(r)["account"]
	if account != "" && !models.IsValidAccountID(account) {
		http.Error(w, wrapError(fmt.Errorf("invalid account %s", account)), http.StatusBadRequest)
		return
	}
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		http.Error(w, wrapError(err), http.StatusBadRequest)
		return
	}

	receives, err := g.node.ReceiveOutcomes(account, limit)
	if err != nil {
		http.Error(w, wrapError(err), http.StatusInternalServerError)
		return
	}
	sends, err := g.node.SendOutcomes(account, limit)
	if err != nil {
		http.Error(w, wrapError(err), http.StatusInternalServerError)
		return
	}
	sanitizedJSONResponse(w, outcomesResponse{
		Receives: receives,
		Sends:    sends,
	})
}

func (g *Gateway) handleGETNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 0)
	if err != nil {
		http.Error(w, wrapError(err), http.StatusBadRequest)
		return
	}
	notifications, err := g.node.Notifications(r.URL.Query().Get("account"), limit)
	if err != nil {
		http.Error(w, wrapError(err), http.StatusInternalServerError)
		return
	}
	sanitizedJSONResponse(w, notifications)
}

func (g *Gateway) handleGETBalance(w http.ResponseWriter, r *http.Request) {
	account := mux.Vars(r)["account"]
	if !models.IsValidAccountID(account) {
		http.Error(w, wrapError(fmt.Errorf("invalid account %s", account)), http.StatusBadRequest)
		return
	}

	balance := g.node.GetBalance(r.Context(), account)
	if balance == nil {
		http.Error(w, wrapError(errors.New("balance unavailable")), http.StatusBadGateway)
		return
	}
	sanitizedJSONResponse(w, balanceResponse{
		Account: balance.Account,
		Balance: balance.Balance.String(),
		Pending: balance.Pending.String(),
	})
}

func (g *Gateway) handleGETHistory(w http.ResponseWriter, r *http.Request) {
	count, err := intParam(r, "count", defaultHistoryCount)
	if err != nil {
		http.Error(w, wrapError(err), http.StatusBadRequest)
		return
	}

	history, err := g.node.AccountHistory(r.Context(), mux.Vars(r)["account"], count)
	if errors.Is(err, core.ErrInvalidAccount) {
		http.Error(w, wrapError(err), http.StatusBadRequest)
		return
	} else if err != nil {
		http.Error(w, wrapError(err), http.StatusBadGateway)
		return
	}
	sanitizedJSONResponse(w, history)
}

func (g *Gateway) handlePOSTStop(w http.ResponseWriter, r *http.Request) {
	g.node.Stop()
	w.WriteHeader(http.StatusAccepted)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		return def, nil
	}
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 {
		return 0, fmt.Errorf("invalid %s %q", name, s)
	}
	return i, nil
}
