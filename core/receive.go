package core

import (
	"context"
	"fmt"
	"github.com/cpacia/bouncer/events"
	"github.com/cpacia/bouncer/models"
	iwallet "github.com/cpacia/wallet-interface"
	"github.com/google/uuid"
	"time"
)

// ReceivePending looks for the most recent pending block of the account
// with an amount of at least threshold and, if one is found and every
// field of it validates, receives it into the account.
//
// A missing or invalid pending block returns an outcome with both success
// flags false and does not call receive. Only the invalid block records
// an error. A failed receive leaves the block
// pending so it is safe to call ReceivePending again.
func (b *Bouncer) ReceivePending(ctx context.Context, wallet, account string, threshold iwallet.Amount) *models.ReceiveOutcome {
	outcome := &models.ReceiveOutcome{
		ID:          uuid.New().String(),
		Message:     models.OutcomeReceive,
		Wallet:      wallet,
		Destination: account,
		Threshold:   threshold.String(),
		CreatedAt:   time.Now(),
	}

	transfer, err := b.pendingTransfer(ctx, account, threshold)
	if err != nil {
		b.metrics.PendingChecks.WithLabelValues("error").Inc()
		outcome.Fail(err)
		b.saveReceiveOutcome(outcome)
		return outcome
	}
	if transfer == nil {
		b.metrics.PendingChecks.WithLabelValues("empty").Inc()
		return outcome
	}
	b.metrics.PendingChecks.WithLabelValues("found").Inc()
	b.metrics.TransfersFound.WithLabelValues(account).Inc()

	outcome.SendBlockID = transfer.BlockID
	outcome.Source = transfer.Source
	outcome.Amount = transfer.Amount.String()
	outcome.PendingSuccess = true
	log.Infof("Pending send block found: Hash: %s Source: %s Amount: %s", transfer.BlockID, transfer.Source, outcome.Amount)
	b.setStatus(account, models.WatchStatusTransferDetected)
	b.eventBus.Emit(&events.TransferDetected{
		Account: account,
		BlockID: transfer.BlockID,
		Source:  transfer.Source,
		Amount:  outcome.Amount,
	})

	var receiveBlock string
	err = b.privileged(ctx, wallet, func() error {
		resp, err := b.node.Receive(ctx, wallet, account, transfer.BlockID)
		if err != nil {
			return err
		}
		if err := resp.Err(); err != nil {
			log.Errorf("Error receiving block %s: %+v", transfer.BlockID, resp)
			return err
		}
		if !models.IsValidBlockID(resp.Block) {
			log.Errorf("Invalid receive block %+v", resp)
			return ErrInvalidBlock{Stage: models.OutcomeReceive, Block: resp.Block}
		}
		receiveBlock = resp.Block
		return nil
	})
	if err != nil {
		log.Errorf("Receive of %s into %s failed: %s", transfer.BlockID, account, err)
		b.metrics.ReceiveAttempts.WithLabelValues("fail").Inc()
		outcome.Fail(err)
		b.eventBus.Emit(&events.TransferFailed{
			Account: account,
			Stage:   models.OutcomeReceive,
			Reason:  err.Error(),
		})
		b.saveReceiveOutcome(outcome)
		return outcome
	}

	outcome.ReceiveBlockID = receiveBlock
	outcome.ReceiveSuccess = true
	b.metrics.ReceiveAttempts.WithLabelValues("success").Inc()
	log.Infof("Receive block processed: Hash: %s", receiveBlock)
	b.eventBus.Emit(&events.TransferReceived{
		Account:        account,
		SendBlockID:    transfer.BlockID,
		ReceiveBlockID: receiveBlock,
		Amount:         outcome.Amount,
	})
	b.saveReceiveOutcome(outcome)
	return outcome
}

// pendingTransfer returns the most recent pending transfer of the
// account. It returns nil, nil if nothing is pending.
func (b *Bouncer) pendingTransfer(ctx context.Context, account string, threshold iwallet.Amount) (*models.PendingTransfer, error) {
	resp, err := b.node.Pending(ctx, account, 1, threshold)
	if err != nil {
		log.Errorf("Error querying pending blocks of %s: %s", account, err)
		return nil, err
	}
	if err := resp.Err(); err != nil {
		log.Errorf("Error querying pending blocks of %s: %+v", account, resp)
		return nil, err
	}
	if len(resp.Blocks) == 0 {
		return nil, nil
	}

	block := resp.Blocks[0]
	if !models.IsValidBlockID(block.Hash) ||
		!models.IsValidAccountID(block.Source) ||
		!models.IsValidTransferAmount(block.Amount) {
		log.Warningf("Invalid pending block %+v", block)
		return nil, invalidPendingBlock(block)
	}
	amount, _ := models.ParseTransferAmount(block.Amount)
	if amount.Cmp(iwallet.NewAmount(0)) < 0 {
		log.Warningf("Invalid pending block %+v", block)
		return nil, invalidPendingBlock(block)
	}
	return &models.PendingTransfer{
		BlockID: block.Hash,
		Source:  block.Source,
		Amount:  amount,
	}, nil
}

func invalidPendingBlock(block interface{}) error {
	return fmt.Errorf("invalid pending block %+v", block)
}
