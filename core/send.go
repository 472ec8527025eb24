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

// SendTransfer creates a send block moving amount from source to
// destination. The outcome's amount is always the requested amount.
func (b *Bouncer) SendTransfer(ctx context.Context, wallet, source, destination string, amount iwallet.Amount) *models.SendOutcome {
	return b.sendTransfer(ctx, wallet, source, destination, amount, uuid.New().String())
}

// sendTransfer is SendTransfer with a caller provided request id. The
// node creates at most one block per request id so retries of the same
// forward must reuse it.
func (b *Bouncer) sendTransfer(ctx context.Context, wallet, source, destination string, amount iwallet.Amount, requestID string) *models.SendOutcome {
	outcome := &models.SendOutcome{
		ID:          uuid.New().String(),
		Message:     models.OutcomeSend,
		Wallet:      wallet,
		Source:      source,
		Destination: destination,
		RequestID:   requestID,
		Amount:      amount.String(),
		CreatedAt:   time.Now(),
	}
	defer b.saveSendOutcome(outcome)

	if !models.IsValidAccountID(source) || !models.IsValidAccountID(destination) {
		err := fmt.Errorf("invalid send accounts %q -> %q", source, destination)
		log.Errorf("Not sending: %s", err)
		b.metrics.SendAttempts.WithLabelValues("fail").Inc()
		outcome.Fail(err)
		return outcome
	}

	log.Infof("Creating send block: Wallet: %s Source: %s Destination: %s Amount: %s", wallet, source, destination, outcome.Amount)
	b.eventBus.Emit(&events.SendAttempt{
		Account:     source,
		Destination: destination,
		Amount:      outcome.Amount,
	})

	var sendBlock string
	err := b.privileged(ctx, wallet, func() error {
		resp, err := b.node.Send(ctx, wallet, source, destination, amount, requestID)
		if err != nil {
			return err
		}
		if err := resp.Err(); err != nil {
			log.Errorf("Error sending block %+v", resp)
			return err
		}
		if !models.IsValidBlockID(resp.Block) {
			log.Errorf("Invalid send block %+v", resp)
			return ErrInvalidBlock{Stage: models.OutcomeSend, Block: resp.Block}
		}
		sendBlock = resp.Block
		return nil
	})
	if err != nil {
		log.Errorf("Send of %s raw from %s to %s failed: %s", outcome.Amount, source, destination, err)
		b.metrics.SendAttempts.WithLabelValues("fail").Inc()
		outcome.Fail(err)
		b.eventBus.Emit(&events.TransferFailed{
			Account: source,
			Stage:   models.OutcomeSend,
			Reason:  err.Error(),
		})
		return outcome
	}

	outcome.SendBlockID = sendBlock
	outcome.SendSuccess = true
	b.metrics.SendAttempts.WithLabelValues("success").Inc()
	b.metrics.ForwardedAmount.WithLabelValues(source).Add(amountToFloat(amount))
	log.Infof("Send block processed: Hash: %s", sendBlock)
	b.eventBus.Emit(&events.TransferSent{
		Account:     source,
		Destination: destination,
		BlockID:     sendBlock,
		Amount:      outcome.Amount,
	})
	return outcome
}
