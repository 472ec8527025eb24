package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Actions understood by the wallet node.
const (
	ActionWalletLocked   = "wallet_locked"
	ActionPasswordEnter  = "password_enter"
	ActionAccountHistory = "account_history"
	ActionPending        = "pending"
	ActionReceive        = "receive"
	ActionSend           = "send"
	ActionAccountBalance = "account_balance"
)

type action struct {
	Action string `json:"action"`
}

// RPCAction returns the action selector of the request.
func (a action) RPCAction() string {
	return a.Action
}

// WalletLockedRequest asks whether the wallet is locked.
type WalletLockedRequest struct {
	action
	Wallet string `json:"wallet"`
}

// PasswordEnterRequest unlocks the wallet. An empty password locks it.
type PasswordEnterRequest struct {
	action
	Wallet   string `json:"wallet"`
	Password string `json:"password"`
}

// AccountHistoryRequest lists the most recent blocks of an account.
type AccountHistoryRequest struct {
	action
	Account string `json:"account"`
	Count   string `json:"count"`
}

// PendingRequest lists blocks sent to the account which it has not yet
// received. Most recent blocks are returned first.
type PendingRequest struct {
	action
	Account   string `json:"account"`
	Count     string `json:"count"`
	Source    string `json:"source"`
	Threshold string `json:"threshold,omitempty"`
}

// ReceiveRequest creates a receive block for a pending send block.
type ReceiveRequest struct {
	action
	Wallet  string `json:"wallet"`
	Account string `json:"account"`
	Block   string `json:"block"`
}

// SendRequest creates a send block. The optional ID makes the request
// idempotent: the node returns the original block for a repeated ID.
type SendRequest struct {
	action
	Wallet      string `json:"wallet"`
	Source      string `json:"source"`
	Destination string `json:"destination"`
	Amount      string `json:"amount"`
	ID          string `json:"id,omitempty"`
}

// AccountBalanceRequest asks for the balance of an account.
type AccountBalanceRequest struct {
	action
	Account string `json:"account"`
}

// NodeResponse holds the fields common to every reply.
type NodeResponse struct {
	Error string `json:"error,omitempty"`
}

// Err returns a *NodeError if the node rejected the request.
func (r NodeResponse) Err() error {
	if r.Error == "" {
		return nil
	}
	return &NodeError{Message: r.Error}
}

// WalletLockedResponse is the reply to wallet_locked. Locked is "1"
// when the wallet is locked and "0" when it is not.
type WalletLockedResponse struct {
	NodeResponse
	Locked string `json:"locked"`
}

// PasswordEnterResponse is the reply to password_enter. Valid is "1"
// when the password was accepted.
type PasswordEnterResponse struct {
	NodeResponse
	Valid string `json:"valid"`
}

// HistoryEntry is one block in an account's history.
type HistoryEntry struct {
	Type    string `json:"type"`
	Account string `json:"account"`
	Amount  string `json:"amount"`
	Hash    string `json:"hash"`
}

// AccountHistoryResponse is the reply to account_history.
type AccountHistoryResponse struct {
	NodeResponse
	History  []HistoryEntry `json:"history"`
	Previous string         `json:"previous"`
}

// PendingBlock is one unreceived send block.
type PendingBlock struct {
	Hash   string `json:"-"`
	Amount string `json:"amount"`
	Source string `json:"source"`
}

// PendingBlocks holds pending blocks in the order the node listed them.
type PendingBlocks []PendingBlock

// UnmarshalJSON decodes the node's hash keyed object while keeping the
// key order. The node replies with an empty string when nothing is
// pending, and with bare amounts when the source was not requested.
func (p *PendingBlocks) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte(`""`)) || bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("pending blocks: unexpected token %v", tok)
	}

	var blocks PendingBlocks
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		hash, ok := tok.(string)
		if !ok {
			return fmt.Errorf("pending blocks: unexpected key %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return err
		}

		block := PendingBlock{Hash: hash}
		if len(raw) > 0 && raw[0] == '"' {
			if err := json.Unmarshal(raw, &block.Amount); err != nil {
				return err
			}
		} else if err := json.Unmarshal(raw, &block); err != nil {
			return err
		}
		blocks = append(blocks, block)
	}
	*p = blocks
	return nil
}

// PendingResponse is the reply to pending.
type PendingResponse struct {
	NodeResponse
	Blocks PendingBlocks `json:"blocks"`
}

// BlockResponse is the reply to receive and send.
type BlockResponse struct {
	NodeResponse
	Block string `json:"block"`
}

// AccountBalanceResponse is the reply to account_balance.
type AccountBalanceResponse struct {
	NodeResponse
	Balance string `json:"balance"`
	Pending string `json:"pending"`
}
