package repo

import (
	"github.com/cpacia/bouncer/database"
	"github.com/cpacia/bouncer/database/sqlitedb"
	"math/rand"
	"os"
	"path"
	"strconv"
	"time"
)

// MockDB returns an in-memory sqlite db.
func MockDB() (database.Database, error) {
	db, err := sqlitedb.NewMemoryDB()
	if err != nil {
		return nil, err
	}
	if err := autoMigrateDatabase(db); err != nil {
		return nil, err
	}
	return db, nil
}

// MockRepo returns a repo which uses a tmp data directory
// and in-memory database.
func MockRepo() (*Repo, error) {
	n := rand.Intn(1000000)
	dataDir := path.Join(os.TempDir(), "bouncer-test", strconv.Itoa(n))
	return newRepo(dataDir, true)
}

// MockConfig returns a config using the given data directory with short
// intervals suitable for tests.
func MockConfig(dataDir string) *Config {
	return &Config{
		DataDir:        dataDir,
		LogLevel:       "debug",
		RPCProtocol:    "http",
		RPCHost:        "localhost",
		RPCPort:        "7076",
		RPCTimeout:     time.Second * 5,
		Wallet:         "000D1BAEC8EC208142C99059B393051BAC8380F9B5A2E6B2489A277D81789F3F",
		WalletPassword: "password",
		Threshold:      "0",
		AliveInterval:  time.Minute,
		PollInterval:   time.Millisecond * 10,
		LockPolicy:     LockPolicyExternal,
		ForwardRetries: 3,
	}
}
