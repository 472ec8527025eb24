package wallet

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"github.com/cpacia/bouncer/models"
	"github.com/cpacia/bouncer/rpc"
	iwallet "github.com/cpacia/wallet-interface"
	"github.com/op/go-logging"
	"io/ioutil"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

var log = logging.MustGetLogger("MOCK")

// accountAlphabet is the base32 alphabet used by node account addresses.
const accountAlphabet = "13456789abcdefghijkmnopqrstuwxyz"

var (
	errWalletNotFound  = errors.New("Wallet not found")
	errAccountNotFound = errors.New("Account not found in wallet")
	errWalletLocked    = errors.New("Wallet locked")
	errBlockNotFound   = errors.New("Block not found")
	errUnreceivable    = errors.New("Block is not available to receive")
	errInsufficient    = errors.New("Insufficient balance")
	errBadAmount       = errors.New("Bad amount format")
	errUnknownCommand  = errors.New("Unknown command")
)

type mockWallet struct {
	password string
	locked   bool
	accounts map[string]bool
}

type mockPending struct {
	hash   string
	source string
	amount iwallet.Amount
}

type mockAccount struct {
	balance iwallet.Amount
	// pending is ordered oldest first.
	pending []*mockPending
	// history is ordered oldest first.
	history []rpc.HistoryEntry
}

// MockNode is an in-memory wallet node which serves the node RPC over
// HTTP. It keeps balances, pending blocks and wallet locks so a relay can
// run against it end to end. It is safe for concurrent use.
type MockNode struct {
	mtx      sync.Mutex
	wallets  map[string]*mockWallet
	accounts map[string]*mockAccount
	sends    map[string]string
	calls    map[string]int
	replies  map[string][]string
}

// NewMockNode returns a node without wallets.
func NewMockNode() *MockNode {
	return &MockNode{
		wallets:  make(map[string]*mockWallet),
		accounts: make(map[string]*mockAccount),
		sends:    make(map[string]string),
		calls:    make(map[string]int),
		replies:  make(map[string][]string),
	}
}

// CreateWallet creates a locked wallet protected by password and returns
// its id.
func (n *MockNode) CreateWallet(password string) string {
	n.mtx.Lock()
	defer n.mtx.Unlock()

	id := strings.ToUpper(randomHash())
	n.wallets[id] = &mockWallet{
		password: password,
		locked:   true,
		accounts: make(map[string]bool),
	}
	return id
}

// NewAccount creates a new empty account in the wallet.
func (n *MockNode) NewAccount(wallet string) (string, error) {
	n.mtx.Lock()
	defer n.mtx.Unlock()

	w, ok := n.wallets[wallet]
	if !ok {
		return "", errWalletNotFound
	}
	account := randomAccount()
	w.accounts[account] = true
	n.account(account)
	return account, nil
}

// SetLocked sets the lock state of the wallet.
func (n *MockNode) SetLocked(wallet string, locked bool) error {
	n.mtx.Lock()
	defer n.mtx.Unlock()

	w, ok := n.wallets[wallet]
	if !ok {
		return errWalletNotFound
	}
	w.locked = locked
	return nil
}

// Locked returns whether the wallet is locked.
func (n *MockNode) Locked(wallet string) bool {
	n.mtx.Lock()
	defer n.mtx.Unlock()

	w, ok := n.wallets[wallet]
	return ok && w.locked
}

// GenerateToAccount creates a pending send block of amount from a new
// external account to account. It returns the hash and source of the
// block.
func (n *MockNode) GenerateToAccount(account string, amount iwallet.Amount) (hash, source string) {
	n.mtx.Lock()
	defer n.mtx.Unlock()

	source = randomAccount()
	hash = strings.ToUpper(randomHash())
	acct := n.account(account)
	acct.pending = append(acct.pending, &mockPending{
		hash:   hash,
		source: source,
		amount: amount,
	})
	return hash, source
}

// Balance returns the confirmed balance and the pending sum of account.
func (n *MockNode) Balance(account string) (balance, pending iwallet.Amount) {
	n.mtx.Lock()
	defer n.mtx.Unlock()

	return n.balance(account)
}

// Calls returns how many times the action was requested.
func (n *MockNode) Calls(action string) int {
	n.mtx.Lock()
	defer n.mtx.Unlock()

	return n.calls[action]
}

// InjectReply queues a raw reply which is returned, unprocessed, the next
// time the action is requested.
func (n *MockNode) InjectReply(action, reply string) {
	n.mtx.Lock()
	defer n.mtx.Unlock()

	n.replies[action] = append(n.replies[action], reply)
}

// ServeHTTP decodes one RPC request and writes the reply.
func (n *MockNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	req := make(map[string]string)
	if err := json.Unmarshal(body, &req); err != nil {
		writeReply(w, errorReply(errors.New("Unable to parse JSON")))
		return
	}

	n.mtx.Lock()
	defer n.mtx.Unlock()

	action := req["action"]
	n.calls[action]++
	log.Debugf("Mock node request %s", body)

	if queued := n.replies[action]; len(queued) > 0 {
		n.replies[action] = queued[1:]
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(queued[0]))
		return
	}

	var reply interface{}
	switch action {
	case rpc.ActionWalletLocked:
		reply, err = n.walletLocked(req)
	case rpc.ActionPasswordEnter:
		reply, err = n.passwordEnter(req)
	case rpc.ActionPending:
		reply, err = n.pending(req)
	case rpc.ActionReceive:
		reply, err = n.receive(req)
	case rpc.ActionSend:
		reply, err = n.send(req)
	case rpc.ActionAccountBalance:
		reply, err = n.accountBalance(req)
	case rpc.ActionAccountHistory:
		reply, err = n.accountHistory(req)
	default:
		err = errUnknownCommand
	}
	if err != nil {
		reply = errorReply(err)
	}
	writeReply(w, reply)
}

func (n *MockNode) walletLocked(req map[string]string) (interface{}, error) {
	w, ok := n.wallets[req["wallet"]]
	if !ok {
		return nil, errWalletNotFound
	}
	return map[string]string{"locked": boolString(w.locked)}, nil
}

func (n *MockNode) passwordEnter(req map[string]string) (interface{}, error) {
	w, ok := n.wallets[req["wallet"]]
	if !ok {
		return nil, errWalletNotFound
	}
	valid := req["password"] != "" && req["password"] == w.password
	w.locked = !valid
	return map[string]string{"valid": boolString(valid)}, nil
}

func (n *MockNode) pending(req map[string]string) (interface{}, error) {
	count, err := strconv.Atoi(req["count"])
	if err != nil || count <= 0 {
		count = 1
	}
	threshold := iwallet.NewAmount(0)
	if t, ok := req["threshold"]; ok {
		if threshold, ok = models.ParseTransferAmount(t); !ok {
			return nil, errBadAmount
		}
	}

	acct, ok := n.accounts[req["account"]]
	if !ok || len(acct.pending) == 0 {
		return map[string]string{"blocks": ""}, nil
	}

	// Objects keep insertion order once marshalled so the reply is
	// written by hand, newest first.
	var entries []string
	for i := len(acct.pending) - 1; i >= 0 && len(entries) < count; i-- {
		p := acct.pending[i]
		if p.amount.Cmp(threshold) < 0 {
			continue
		}
		var value []byte
		if req["source"] == "true" {
			value, _ = json.Marshal(map[string]string{"amount": p.amount.String(), "source": p.source})
		} else {
			value, _ = json.Marshal(p.amount.String())
		}
		entries = append(entries, strconv.Quote(p.hash)+":"+string(value))
	}
	if len(entries) == 0 {
		return map[string]string{"blocks": ""}, nil
	}
	return json.RawMessage(`{"blocks":{` + strings.Join(entries, ",") + `}}`), nil
}

func (n *MockNode) receive(req map[string]string) (interface{}, error) {
	account, err := n.walletAccount(req["wallet"], req["account"])
	if err != nil {
		return nil, err
	}
	acct := n.account(account)
	for i, p := range acct.pending {
		if !strings.EqualFold(p.hash, req["block"]) {
			continue
		}
		acct.pending = append(acct.pending[:i], acct.pending[i+1:]...)
		acct.balance = acct.balance.Add(p.amount)
		hash := strings.ToUpper(randomHash())
		acct.history = append(acct.history, rpc.HistoryEntry{
			Type:    "receive",
			Account: p.source,
			Amount:  p.amount.String(),
			Hash:    hash,
		})
		return map[string]string{"block": hash}, nil
	}
	if !models.IsValidBlockID(req["block"]) {
		return nil, errBlockNotFound
	}
	return nil, errUnreceivable
}

func (n *MockNode) send(req map[string]string) (interface{}, error) {
	source, err := n.walletAccount(req["wallet"], req["source"])
	if err != nil {
		return nil, err
	}
	if id := req["id"]; id != "" {
		if hash, ok := n.sends[id]; ok {
			return map[string]string{"block": hash}, nil
		}
	}
	amount, ok := models.ParseTransferAmount(req["amount"])
	if !ok || amount.Cmp(iwallet.NewAmount(0)) < 0 {
		return nil, errBadAmount
	}
	acct := n.account(source)
	if acct.balance.Cmp(amount) < 0 {
		return nil, errInsufficient
	}

	hash := strings.ToUpper(randomHash())
	acct.balance = acct.balance.Sub(amount)
	acct.history = append(acct.history, rpc.HistoryEntry{
		Type:    "send",
		Account: req["destination"],
		Amount:  amount.String(),
		Hash:    hash,
	})
	dest := n.account(req["destination"])
	dest.pending = append(dest.pending, &mockPending{
		hash:   hash,
		source: source,
		amount: amount,
	})
	if id := req["id"]; id != "" {
		n.sends[id] = hash
	}
	return map[string]string{"block": hash}, nil
}

func (n *MockNode) accountBalance(req map[string]string) (interface{}, error) {
	b, p := n.balance(req["account"])
	return map[string]string{
		"balance": b.String(),
		"pending": p.String(),
	}, nil
}

func (n *MockNode) accountHistory(req map[string]string) (interface{}, error) {
	count, err := strconv.Atoi(req["count"])
	if err != nil || count <= 0 {
		count = 1
	}
	history := []rpc.HistoryEntry{}
	if acct, ok := n.accounts[req["account"]]; ok {
		for i := len(acct.history) - 1; i >= 0 && len(history) < count; i-- {
			history = append(history, acct.history[i])
		}
	}
	var previous string
	if len(history) > 0 {
		previous = history[len(history)-1].Hash
	}
	return map[string]interface{}{
		"history":  history,
		"previous": previous,
	}, nil
}

// walletAccount checks that the wallet exists, is unlocked and holds
// the account.
func (n *MockNode) walletAccount(wallet, account string) (string, error) {
	w, ok := n.wallets[wallet]
	if !ok {
		return "", errWalletNotFound
	}
	if !w.accounts[account] {
		return "", errAccountNotFound
	}
	if w.locked {
		return "", errWalletLocked
	}
	return account, nil
}

func (n *MockNode) account(account string) *mockAccount {
	acct, ok := n.accounts[account]
	if !ok {
		acct = &mockAccount{balance: iwallet.NewAmount(0)}
		n.accounts[account] = acct
	}
	return acct
}

func (n *MockNode) balance(account string) (balance, pending iwallet.Amount) {
	balance, pending = iwallet.NewAmount(0), iwallet.NewAmount(0)
	acct, ok := n.accounts[account]
	if !ok {
		return balance, pending
	}
	for _, p := range acct.pending {
		pending = pending.Add(p.amount)
	}
	return acct.balance, pending
}

func errorReply(err error) interface{} {
	return rpc.NodeResponse{Error: err.Error()}
}

func writeReply(w http.ResponseWriter, reply interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(reply); err != nil {
		log.Errorf("Error writing mock reply: %s", err)
	}
}

func boolString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func randomHash() string {
	b := make([]byte, 32)
	rand.Read(b)
	return hex.EncodeToString(b)
}

func randomAccount() string {
	b := make([]byte, 60)
	rand.Read(b)
	for i := range b {
		b[i] = accountAlphabet[int(b[i])%len(accountAlphabet)]
	}
	return "xrb_" + string(b)
}
