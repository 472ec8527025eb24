package rpc

import (
	"context"
	iwallet "github.com/cpacia/wallet-interface"
	"strconv"
)

// WalletLocked asks the node whether the wallet is locked.
func (c *Client) WalletLocked(ctx context.Context, wallet string) (*WalletLockedResponse, error) {
	var resp WalletLockedResponse
	err := c.Call(ctx, WalletLockedRequest{
		action: action{ActionWalletLocked},
		Wallet: wallet,
	}, &resp)
	return &resp, err
}

// PasswordEnter submits the wallet password. Submitting an empty
// password locks the wallet again.
func (c *Client) PasswordEnter(ctx context.Context, wallet, password string) (*PasswordEnterResponse, error) {
	var resp PasswordEnterResponse
	err := c.Call(ctx, PasswordEnterRequest{
		action:   action{ActionPasswordEnter},
		Wallet:   wallet,
		Password: password,
	}, &resp)
	return &resp, err
}

// AccountHistory returns the count most recent blocks of the account.
func (c *Client) AccountHistory(ctx context.Context, account string, count int) (*AccountHistoryResponse, error) {
	var resp AccountHistoryResponse
	err := c.Call(ctx, AccountHistoryRequest{
		action:  action{ActionAccountHistory},
		Account: account,
		Count:   strconv.Itoa(count),
	}, &resp)
	return &resp, err
}

// Pending returns up to count unreceived blocks for the account along
// with their source. The node lists the most recent block first so a
// count of one returns the newest pending block, not the oldest. The
// threshold is only sent when it is greater than zero.
func (c *Client) Pending(ctx context.Context, account string, count int, threshold iwallet.Amount) (*PendingResponse, error) {
	req := PendingRequest{
		action:  action{ActionPending},
		Account: account,
		Count:   strconv.Itoa(count),
		Source:  "true",
	}
	if threshold.Cmp(iwallet.NewAmount(0)) > 0 {
		req.Threshold = threshold.String()
	}

	var resp PendingResponse
	err := c.Call(ctx, req, &resp)
	return &resp, err
}

// Receive creates a receive block in account for the pending block.
func (c *Client) Receive(ctx context.Context, wallet, account, block string) (*BlockResponse, error) {
	var resp BlockResponse
	err := c.Call(ctx, ReceiveRequest{
		action:  action{ActionReceive},
		Wallet:  wallet,
		Account: account,
		Block:   block,
	}, &resp)
	return &resp, err
}

// Send creates a send block moving amount from source to destination.
// If id is not empty it is passed to the node for idempotency.
func (c *Client) Send(ctx context.Context, wallet, source, destination string, amount iwallet.Amount, id string) (*BlockResponse, error) {
	var resp BlockResponse
	err := c.Call(ctx, SendRequest{
		action:      action{ActionSend},
		Wallet:      wallet,
		Source:      source,
		Destination: destination,
		Amount:      amount.String(),
		ID:          id,
	}, &resp)
	return &resp, err
}

// AccountBalance returns the balance and pending sum of the account.
func (c *Client) AccountBalance(ctx context.Context, account string) (*AccountBalanceResponse, error) {
	var resp AccountBalanceResponse
	err := c.Call(ctx, AccountBalanceRequest{
		action:  action{ActionAccountBalance},
		Account: account,
	}, &resp)
	return &resp, err
}
