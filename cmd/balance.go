package cmd

import (
	"context"
	"errors"
	"fmt"
	"github.com/cpacia/bouncer/core"
	"github.com/cpacia/bouncer/events"
	"github.com/cpacia/bouncer/repo"
	"github.com/cpacia/bouncer/rpc"
)

// Balance logs the balance of the accounts given as arguments, or of the
// configured accounts if there are none.
type Balance struct {
	repo.Config
}

// Execute queries and logs every balance. It fails if any balance could
// not be retrieved.
func (x *Balance) Execute(args []string) (err error) {
	defer func() { logExit(err) }()

	cfg, _, err := repo.LoadConfig()
	if err != nil {
		return err
	}
	accounts := args
	if len(accounts) == 0 {
		accounts = cfg.Accounts
	}
	if len(accounts) == 0 {
		return core.ErrNoAccounts
	}

	r, err := repo.NewRepo(cfg.DataDir)
	if err != nil {
		return err
	}
	defer r.Close()

	b, err := core.NewBouncer(cfg, rpc.NewClient(cfg.RPCEndpoint(), cfg.RPCTimeout), r.DB(), events.NewBus())
	if err != nil {
		return err
	}

	failed := 0
	for _, account := range accounts {
		balance := b.GetBalance(context.Background(), account)
		if balance == nil {
			failed++
			continue
		}
		fmt.Printf("%s\tbalance: %s\tpending: %s\n", account, balance.Balance, balance.Pending)
	}
	if failed > 0 {
		return errors.New("some balances could not be retrieved")
	}
	return nil
}
