package cmd

import (
	"context"
	"fmt"
	"github.com/cpacia/bouncer/api"
	"github.com/cpacia/bouncer/core"
	"github.com/cpacia/bouncer/database"
	"github.com/cpacia/bouncer/events"
	"github.com/cpacia/bouncer/notifications"
	"github.com/cpacia/bouncer/repo"
	"github.com/cpacia/bouncer/rpc"
	"github.com/cpacia/bouncer/version"
	"github.com/fatih/color"
	"github.com/op/go-logging"
	"github.com/pkg/errors"
	"net"
	"os"
	"os/signal"
	"syscall"
)

var log = logging.MustGetLogger("CMD")

// Start is the main entry point for the bouncer. The options to this
// command are the same as the config options.
type Start struct {
	repo.Config
}

// Execute starts the bouncer and blocks until every watcher returned.
func (x *Start) Execute(args []string) error {
	cfg, _, err := repo.LoadConfig()
	if err != nil {
		logExit(err)
		return err
	}
	return start(cfg)
}

// start runs the bouncer for cfg. The EXITING line is logged exactly once
// on every return path.
func start(cfg *repo.Config) (err error) {
	defer func() { logExit(err) }()

	printSplashScreen()

	r, err := repo.NewRepo(cfg.DataDir)
	if err != nil {
		return err
	}
	defer r.Close()

	ctx, cancel := interruptContext()
	defer cancel()

	return runBouncer(ctx, cfg, r.DB(), rpc.NewClient(cfg.RPCEndpoint(), cfg.RPCTimeout))
}

// runBouncer builds the bouncer along with its status API and runs it
// until every watcher returned or ctx is cancelled.
func runBouncer(ctx context.Context, cfg *repo.Config, db database.Database, client *rpc.Client) error {
	bus := events.NewBus()
	b, err := core.NewBouncer(cfg, client, db, bus)
	if err != nil {
		return err
	}

	if cfg.APIAddr != "" {
		gateway, err := newGateway(cfg, b)
		if err != nil {
			return err
		}
		defer gateway.Close()
		go func() {
			if err := gateway.Serve(); err != nil {
				log.Debugf("Status API stopped: %s", err)
			}
		}()

		notifier := notifications.NewNotifier(bus, db, gateway.NotifyWebsockets)
		if err := notifier.Start(); err != nil {
			return err
		}
		defer notifier.Stop()
	}

	log.Infof("Node RPC at %s", client.Endpoint())
	if cfg.Destination != "" {
		log.Infof("Forwarding %d account(s) to %s", len(cfg.Accounts), cfg.Destination)
	} else {
		log.Infof("Returning transfers to %d account(s) to their source", len(cfg.Accounts))
	}
	return b.Run(ctx)
}

func newGateway(cfg *repo.Config, b *core.Bouncer) (*api.Gateway, error) {
	listener, err := net.Listen("tcp", cfg.APIAddr)
	if err != nil {
		return nil, errors.Wrap(err, "status API")
	}

	allowedIPs := make(map[string]bool)
	for _, ip := range cfg.APIAllowedIPs {
		allowedIPs[ip] = true
	}
	return api.NewGateway(b, &api.GatewayConfig{
		Listener:   listener,
		AllowedIPs: allowedIPs,
		Username:   cfg.APIUser,
		Password:   cfg.APIPass,
	})
}

// interruptContext returns a context which is cancelled on the first
// interrupt. A second interrupt exits immediately.
func interruptContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case <-c:
		case <-ctx.Done():
			signal.Stop(c)
			return
		}
		log.Info("Bouncer shutting down. Press ctl +c again to force shutdown.")
		cancel()
		<-c
		log.Info("EXITING (forced)")
		os.Exit(1)
	}()
	return ctx, cancel
}

// logExit emits the final log line of a command.
func logExit(err error) {
	switch {
	case errors.Is(err, core.ErrInvalidPassword):
		log.Criticalf("EXITING: %s. Check the configured wallet password.", err)
	case err != nil:
		log.Errorf("EXITING: %s", err)
	default:
		log.Info("EXITING")
	}
}

func printSplashScreen() {
	blue := color.New(color.FgBlue)
	white := color.New(color.FgWhite)

	for i, l := range []string{
		`__________                                             `,
		`\______   \ ____  __ __  ____   ____  ___________ `,
		` |    |  _//  _ \|  |  \/    \_/ ___\/ __ \_  __ \`,
		` |    |   (  <_> )  |  /   |  \  \__\  ___/|  | \/`,
		` |______  /\____/|____/|___|  /\___  >___  >__|   `,
		`        \/                  \/     \/    \/       `,
	} {
		if i%2 == 0 {
			if _, err := white.Println(l); err != nil {
				log.Debug(err)
				return
			}
			continue
		}
		if _, err := blue.Println(l); err != nil {
			log.Debug(err)
			return
		}
	}

	blue.DisableColor()
	white.DisableColor()
	fmt.Printf("\nbouncer v%s\n", version.String())
}
