package cmd

import (
	"github.com/cpacia/bouncer/core"
	"github.com/cpacia/bouncer/repo"
	"github.com/cpacia/bouncer/wallet"
	iwallet "github.com/cpacia/wallet-interface"
	"github.com/op/go-logging"
	"io/ioutil"
	"net"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

// capturedLog is a logging backend which keeps every message in memory.
type capturedLog struct {
	mtx      sync.Mutex
	messages []string
}

func (c *capturedLog) Log(level logging.Level, calldepth int, rec *logging.Record) error {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	c.messages = append(c.messages, rec.Message())
	return nil
}

func (c *capturedLog) exitLines() []string {
	c.mtx.Lock()
	defer c.mtx.Unlock()
	var lines []string
	for _, m := range c.messages {
		if strings.HasPrefix(m, "EXITING") {
			lines = append(lines, m)
		}
	}
	return lines
}

func captureLogs(t *testing.T) *capturedLog {
	c := &capturedLog{}
	logging.SetBackend(c)
	t.Cleanup(func() {
		logging.SetBackend(logging.NewLogBackend(os.Stderr, "", 0))
	})
	return c
}

func TestStart_LogsExitOnce(t *testing.T) {
	node := wallet.NewMockNode()
	server := httptest.NewServer(node)
	defer server.Close()

	u, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil {
		t.Fatal(err)
	}

	walletID := node.CreateWallet("password")
	if err := node.SetLocked(walletID, false); err != nil {
		t.Fatal(err)
	}
	var accounts []string
	for i := 0; i < 2; i++ {
		account, err := node.NewAccount(walletID)
		if err != nil {
			t.Fatal(err)
		}
		accounts = append(accounts, account)
	}
	node.GenerateToAccount(accounts[0], iwallet.NewAmount(1000))

	notDir, err := ioutil.TempFile("", "bouncer")
	if err != nil {
		t.Fatal(err)
	}
	notDir.Close()
	defer os.Remove(notDir.Name())

	tests := []struct {
		name     string
		dataDir  func(dir string) string
		setup    func(cfg *repo.Config)
		wantErr  bool
		wantLine string
	}{
		{
			name:    "unusable data directory",
			dataDir: func(string) string { return filepath.Join(notDir.Name(), "data") },
			setup: func(cfg *repo.Config) {
				cfg.Accounts = accounts[:1]
			},
			wantErr:  true,
			wantLine: "EXITING: ",
		},
		{
			name: "invalid config",
			setup: func(cfg *repo.Config) {
				cfg.Accounts = accounts[:1]
				cfg.Threshold = "abc"
			},
			wantErr:  true,
			wantLine: "EXITING: ",
		},
		{
			name:     "no accounts",
			setup:    func(cfg *repo.Config) {},
			wantErr:  true,
			wantLine: "EXITING: " + core.ErrNoAccounts.Error(),
		},
		{
			name: "forwarded",
			setup: func(cfg *repo.Config) {
				cfg.Accounts = accounts[:1]
				cfg.Destination = accounts[1]
				cfg.APIAddr = "127.0.0.1:0"
			},
			wantLine: "EXITING",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			dir, err := ioutil.TempDir("", "bouncer")
			if err != nil {
				t.Fatal(err)
			}
			defer os.RemoveAll(dir)

			dataDir := dir
			if test.dataDir != nil {
				dataDir = test.dataDir(dir)
			}
			cfg := repo.MockConfig(dataDir)
			cfg.RPCHost = host
			cfg.RPCPort = port
			cfg.Wallet = walletID
			test.setup(cfg)

			logs := captureLogs(t)
			err = start(cfg)
			if test.wantErr && err == nil {
				t.Fatal("Expected an error")
			}
			if !test.wantErr && err != nil {
				t.Fatalf("Unexpected error: %s", err)
			}

			lines := logs.exitLines()
			if len(lines) != 1 {
				t.Fatalf("Expected exactly one EXITING line, got %q", lines)
			}
			if test.wantErr && !strings.HasPrefix(lines[0], test.wantLine) {
				t.Errorf("Expected line starting with %q, got %q", test.wantLine, lines[0])
			}
			if !test.wantErr && lines[0] != test.wantLine {
				t.Errorf("Expected %q, got %q", test.wantLine, lines[0])
			}
		})
	}

	if _, pending := node.Balance(accounts[1]); pending.Cmp(iwallet.NewAmount(1000)) != 0 {
		t.Errorf("Expected 1000 pending at the destination, got %s", pending)
	}
}
