package cmd

import (
	"errors"
	"fmt"
	"github.com/cpacia/bouncer/repo"
	"os"
	"path/filepath"
)

// Init initializes a new data directory at the provided path.
type Init struct {
	DataDir string `short:"b" long:"datadir" description:"Directory to store data"`
	Force   bool   `short:"f" long:"force" description:"Force overwrite existing repo (dangerous!)"`
}

// Execute creates the data directory, database and default config file.
func (x *Init) Execute(args []string) error {
	if x.DataDir == "" {
		x.DataDir = repo.DefaultHomeDir
	}

	if repo.IsInitialized(x.DataDir) && !x.Force {
		return errors.New("bouncer is already initialized")
	}
	if x.Force {
		if err := os.RemoveAll(x.DataDir); err != nil {
			return err
		}
	}

	r, err := repo.NewRepo(x.DataDir)
	if err != nil {
		return err
	}
	r.Close()

	configFile := filepath.Join(x.DataDir, repo.DefaultConfigFilename)
	if _, err := os.Stat(configFile); os.IsNotExist(err) {
		if err := repo.CreateDefaultConfigFile(configFile); err != nil {
			return err
		}
	}
	fmt.Printf("Initialized bouncer data directory at %s\n", x.DataDir)
	return nil
}
