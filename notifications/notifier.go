package notifications

import (
	"github.com/cpacia/bouncer/database"
	"github.com/cpacia/bouncer/events"
	"github.com/cpacia/bouncer/models"
	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("NOTIF")

type notificationWrapper struct {
	Notification *models.NotificationRecord `json:"notification"`
}

type statusWrapper struct {
	Type   string      `json:"type"`
	Status interface{} `json:"status"`
}

// Notifier manages translating relay events into notifications and
// sending them to websockets.
type Notifier struct {
	notifyFunc func(interface{}) error
	bus        events.Bus
	db         database.Database
	shutdown   chan struct{}
	done       chan struct{}
}

// NewNotifier returns a new notifier.
func NewNotifier(bus events.Bus, db database.Database, notifyFunc func(interface{}) error) *Notifier {
	return &Notifier{
		bus:        bus,
		db:         db,
		notifyFunc: notifyFunc,
		shutdown:   make(chan struct{}),
	}
}

// Start subscribes to the relay events and then translates them in its
// own goroutine. Events emitted after Start returns are never missed.
//
// Transfer and watcher lifecycle events are stored before they are sent.
// Liveness and balance events are only sent.
func (n *Notifier) Start() error {
	notificationSub, err := n.bus.Subscribe([]interface{}{
		&events.WatcherStarted{},
		&events.WatcherStopped{},
		&events.TransferDetected{},
		&events.TransferReceived{},
		&events.TransferSent{},
		&events.TransferFailed{},
	})
	if err != nil {
		return err
	}

	statusSub, err := n.bus.Subscribe([]interface{}{
		&events.WatcherAlive{},
		&events.SendAttempt{},
		&events.BalanceUpdated{},
	})
	if err != nil {
		notificationSub.Close()
		return err
	}

	n.done = make(chan struct{})
	go n.run(notificationSub, statusSub)
	return nil
}

func (n *Notifier) run(notificationSub, statusSub events.Subscription) {
	defer close(n.done)
	defer notificationSub.Close()
	defer statusSub.Close()

	for {
		select {
		case event := <-notificationSub.Out():
			n.notify(event)
		case event := <-statusSub.Out():
			n.status(event)
		case <-n.shutdown:
			// The last watcher events are usually still buffered.
			for {
				select {
				case event := <-notificationSub.Out():
					n.notify(event)
				case event := <-statusSub.Out():
					n.status(event)
				default:
					return
				}
			}
		}
	}
}

func (n *Notifier) notify(event interface{}) {
	typ, account := describe(event)
	record, err := models.NewNotificationRecord(typ, account, event)
	if err != nil {
		log.Errorf("Error serializing notification: %s", err)
		return
	}

	err = n.db.Update(func(tx database.Tx) error {
		return tx.Save(record)
	})
	if err != nil {
		log.Errorf("Error saving notification to the database: %s", err)
		return
	}

	if err := n.notifyFunc(notificationWrapper{record}); err != nil {
		log.Errorf("Error sending notification: %s", err)
	}
}

func (n *Notifier) status(event interface{}) {
	typ, _ := describe(event)
	if err := n.notifyFunc(statusWrapper{Type: typ, Status: event}); err != nil {
		log.Errorf("Error sending notification: %s", err)
	}
}

// Stop shuts down the notifier once the events already emitted have been
// handled.
func (n *Notifier) Stop() {
	close(n.shutdown)
	if n.done != nil {
		<-n.done
	}
}

func describe(event interface{}) (typ, account string) {
	switch e := event.(type) {
	case *events.WatcherStarted:
		return "WatcherStarted", e.Account
	case *events.WatcherStopped:
		return "WatcherStopped", e.Account
	case *events.WatcherAlive:
		return "WatcherAlive", e.Account
	case *events.TransferDetected:
		return "TransferDetected", e.Account
	case *events.TransferReceived:
		return "TransferReceived", e.Account
	case *events.SendAttempt:
		return "SendAttempt", e.Account
	case *events.TransferSent:
		return "TransferSent", e.Account
	case *events.TransferFailed:
		return "TransferFailed", e.Account
	case *events.BalanceUpdated:
		return "BalanceUpdated", e.Account
	}
	return "Unknown", ""
}
