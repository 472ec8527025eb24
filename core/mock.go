package core

import (
	"github.com/cpacia/bouncer/events"
	"github.com/cpacia/bouncer/repo"
	"github.com/cpacia/bouncer/rpc"
	"net/http"
)

// MockBouncer builds a bouncer with a temp data directory and in-memory
// database which talks to the node at endpoint using client. The config
// can be adjusted through setup before the bouncer is built.
func MockBouncer(endpoint string, client *http.Client, setup func(cfg *repo.Config)) (*Bouncer, *repo.Repo, error) {
	r, err := repo.MockRepo()
	if err != nil {
		return nil, nil, err
	}

	cfg := repo.MockConfig(r.DataDir())
	if setup != nil {
		setup(cfg)
	}

	b, err := NewBouncer(cfg, rpc.NewClientWithHTTPClient(endpoint, client), r.DB(), events.NewBus())
	if err != nil {
		r.DestroyRepo()
		return nil, nil, err
	}
	return b, r, nil
}
