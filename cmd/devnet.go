package cmd

import (
	"context"
	"errors"
	"fmt"
	"github.com/cpacia/bouncer/models"
	"github.com/cpacia/bouncer/repo"
	"github.com/cpacia/bouncer/rpc"
	"github.com/cpacia/bouncer/wallet"
	iwallet "github.com/cpacia/wallet-interface"
	"io/ioutil"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"
)

const devnetPassword = "devnet"

// DevNet runs the bouncer against an in-process mock wallet node.
type DevNet struct {
	Accounts  int           `long:"accounts" description:"Number of relay accounts to create" default:"2"`
	Interval  time.Duration `long:"interval" description:"How often a pending transfer is generated" default:"30s"`
	Amount    string        `long:"amount" description:"Amount of each generated transfer in raw" default:"1000000000000000000000000"`
	NodeAddr  string        `long:"nodeaddr" description:"Address the mock node RPC listens on" default:"127.0.0.1:7076"`
	APIAddr   string        `long:"apiaddr" description:"Address of the status API. Empty disables it." default:"127.0.0.1:7080"`
	LogLevel  string        `short:"l" long:"loglevel" description:"set the logging level [debug, info, notice, warning, error, critical]" default:"info"`
	KeepFiles bool          `long:"keepfiles" description:"Keep the temporary data directory on exit"`
}

// Execute starts the mock node and the bouncer and blocks until
// interrupted.
func (x *DevNet) Execute(args []string) (err error) {
	defer func() { logExit(err) }()

	amount, ok := models.ParseTransferAmount(x.Amount)
	if !ok || x.Accounts < 1 || x.Interval <= 0 {
		return errors.New("invalid devnet options")
	}

	dataDir, err := ioutil.TempDir("", "bouncer-devnet")
	if err != nil {
		return err
	}
	if !x.KeepFiles {
		defer os.RemoveAll(dataDir)
	}
	repo.SetupLogging(filepath.Join(dataDir, "logs"), x.LogLevel)

	node := wallet.NewMockNode()
	walletID := node.CreateWallet(devnetPassword)
	accounts := make([]string, 0, x.Accounts)
	for i := 0; i < x.Accounts; i++ {
		account, err := node.NewAccount(walletID)
		if err != nil {
			return err
		}
		accounts = append(accounts, account)
	}
	destination, err := node.NewAccount(walletID)
	if err != nil {
		return err
	}

	listener, err := net.Listen("tcp", x.NodeAddr)
	if err != nil {
		return err
	}
	server := &http.Server{Handler: node}
	go server.Serve(listener)
	defer server.Close()

	host, port, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		return err
	}
	cfg := &repo.Config{
		DataDir:        dataDir,
		LogLevel:       x.LogLevel,
		RPCProtocol:    "http",
		RPCHost:        host,
		RPCPort:        port,
		RPCTimeout:     time.Second * 30,
		Wallet:         walletID,
		WalletPassword: devnetPassword,
		Accounts:       accounts,
		Destination:    destination,
		Threshold:      "0",
		AliveInterval:  time.Minute,
		PollInterval:   time.Second,
		LockPolicy:     repo.LockPolicySession,
		Continuous:     true,
		ForwardRetries: 3,
		APIAddr:        x.APIAddr,
	}

	r, err := repo.NewRepo(dataDir)
	if err != nil {
		return err
	}
	defer r.Close()

	fmt.Printf("Devnet data directory: %s\n", dataDir)
	fmt.Printf("Mock node RPC: %s\n", cfg.RPCEndpoint())
	fmt.Printf("Wallet: %s (password %q)\n", walletID, devnetPassword)
	for _, account := range accounts {
		fmt.Printf("Relay account: %s\n", account)
	}
	fmt.Printf("Destination: %s\n", destination)

	ctx, cancel := interruptContext()
	defer cancel()

	go generateTransfers(ctx, node, accounts, amount, x.Interval)

	return runBouncer(ctx, cfg, r.DB(), rpc.NewClient(cfg.RPCEndpoint(), cfg.RPCTimeout))
}

// generateTransfers creates a pending transfer to each account in turn
// every interval until ctx is cancelled.
func generateTransfers(ctx context.Context, node *wallet.MockNode, accounts []string, amount iwallet.Amount, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for i := 0; ; i++ {
		select {
		case <-ticker.C:
			account := accounts[i%len(accounts)]
			hash, source := node.GenerateToAccount(account, amount)
			log.Infof("Devnet: generated %s raw from %s to %s in block %s", amount, source, account, hash)
		case <-ctx.Done():
			return
		}
	}
}
