package core

import (
	"context"
	"github.com/cpacia/bouncer/events"
	"github.com/cpacia/bouncer/models"
	"github.com/cpacia/bouncer/rpc"
	iwallet "github.com/cpacia/wallet-interface"
	"github.com/pkg/errors"
	"math/big"
)

// GetBalance returns the balance and pending sum of the account. It
// returns nil if the query fails or either value is not an integer.
func (b *Bouncer) GetBalance(ctx context.Context, account string) *models.AccountBalance {
	resp, err := b.node.AccountBalance(ctx, account)
	if err != nil {
		log.Errorf("Error retrieving balance of %s: %s", account, err)
		return nil
	}
	if err := resp.Err(); err != nil {
		log.Errorf("Error retrieving balance of %s: %+v", account, resp)
		return nil
	}
	balance, ok := models.ParseTransferAmount(resp.Balance)
	if !ok {
		log.Errorf("Error retrieving balance of %s: invalid balance %+v", account, resp)
		return nil
	}
	pending, ok := models.ParseTransferAmount(resp.Pending)
	if !ok {
		log.Errorf("Error retrieving balance of %s: invalid pending %+v", account, resp)
		return nil
	}

	log.Infof("Account %s balance: %s pending: %s", account, balance, pending)
	b.metrics.AccountBalance.WithLabelValues(account, "balance").Set(amountToFloat(balance))
	b.metrics.AccountBalance.WithLabelValues(account, "pending").Set(amountToFloat(pending))
	b.eventBus.Emit(&events.BalanceUpdated{
		Account: account,
		Balance: balance.String(),
		Pending: pending.String(),
	})
	return &models.AccountBalance{
		Account: account,
		Balance: balance,
		Pending: pending,
	}
}

// AccountHistory returns the count most recent blocks of the account.
// Entries which fail validation are dropped.
func (b *Bouncer) AccountHistory(ctx context.Context, account string, count int) ([]rpc.HistoryEntry, error) {
	if !models.IsValidAccountID(account) {
		return nil, errors.Wrap(ErrInvalidAccount, account)
	}
	resp, err := b.node.AccountHistory(ctx, account, count)
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, err
	}

	history := make([]rpc.HistoryEntry, 0, len(resp.History))
	for _, entry := range resp.History {
		if !models.IsValidBlockID(entry.Hash) || !models.IsValidTransferAmount(entry.Amount) {
			log.Warningf("Dropping invalid history entry %+v", entry)
			continue
		}
		history = append(history, entry)
	}
	return history, nil
}

func amountToFloat(amount iwallet.Amount) float64 {
	i := big.Int(amount)
	f, _ := new(big.Float).SetInt(&i).Float64()
	return f
}
