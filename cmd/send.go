package cmd

import (
	"errors"
	"fmt"
	"github.com/cpacia/bouncer/core"
	"github.com/cpacia/bouncer/events"
	"github.com/cpacia/bouncer/models"
	"github.com/cpacia/bouncer/repo"
	"github.com/cpacia/bouncer/rpc"
	iwallet "github.com/cpacia/wallet-interface"
)

// Send creates one send block from the source account to the configured
// destination.
type Send struct {
	repo.Config
	Source string `long:"source" description:"Account to send from" required:"true"`
	Amount string `long:"amount" description:"Amount to send in raw" required:"true"`
}

// Execute sends the transfer, unlocking the wallet around it unless the
// lock policy is external.
func (x *Send) Execute(args []string) (err error) {
	defer func() { logExit(err) }()

	cfg, _, err := repo.LoadConfig()
	if err != nil {
		return err
	}
	if cfg.Destination == "" {
		return errors.New("a destination is required")
	}
	amount, ok := models.ParseTransferAmount(x.Amount)
	if !ok || amount.Cmp(iwallet.NewAmount(0)) <= 0 {
		return fmt.Errorf("invalid amount %q", x.Amount)
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

	ctx, cancel := interruptContext()
	defer cancel()

	endSession, err := b.StartSession(ctx)
	if err != nil {
		return err
	}
	defer endSession()

	outcome := b.SendTransfer(ctx, cfg.Wallet, x.Source, cfg.Destination, amount)
	if !outcome.SendSuccess {
		return outcome.Err()
	}
	fmt.Printf("Sent %s raw from %s to %s in block %s\n", outcome.Amount, x.Source, cfg.Destination, outcome.SendBlockID)
	return nil
}
