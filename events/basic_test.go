package events

import (
	"testing"
	"time"
)

func TestSubscribeAndEmit(t *testing.T) {
	type TestNotif1 struct{}
	type TestNotif2 struct{}

	bus := NewBus()

	sub1, err := bus.Subscribe(&TestNotif1{})
	if err != nil {
		t.Fatal(err)
	}

	sub2, err := bus.Subscribe(&TestNotif2{})
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		bus.Emit(&TestNotif1{})
		bus.Emit(&TestNotif2{})
	}()

	notif1 := <-sub1.Out()
	_, ok := notif1.(*TestNotif1)
	if !ok {
		t.Error("Notification is wrong type")
	}

	notif2 := <-sub2.Out()
	_, ok = notif2.(*TestNotif2)
	if !ok {
		t.Error("Notification is wrong type")
	}

	if err := sub1.Close(); err != nil {
		t.Error(err)
	}

	if err := sub2.Close(); err != nil {
		t.Error(err)
	}
}

func TestSubscribeMultipleTypesKeepsOrder(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe([]interface{}{&TransferDetected{}, &TransferReceived{}, &SendAttempt{}, &TransferSent{}})
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	bus.Emit(&TransferDetected{Account: "a"})
	bus.Emit(&TransferReceived{Account: "a"})
	bus.Emit(&SendAttempt{Account: "a"})
	bus.Emit(&TransferSent{Account: "a"})

	expected := []string{"detected", "received", "attempt", "sent"}
	for _, name := range expected {
		var got string
		switch (<-sub.Out()).(type) {
		case *TransferDetected:
			got = "detected"
		case *TransferReceived:
			got = "received"
		case *SendAttempt:
			got = "attempt"
		case *TransferSent:
			got = "sent"
		}
		if got != name {
			t.Errorf("Expected %s, got %s", name, got)
		}
	}
}

func TestSubscribeNonPointer(t *testing.T) {
	bus := NewBus()
	if _, err := bus.Subscribe(WatcherAlive{}); err == nil {
		t.Error("Expected error subscribing with non-pointer type")
	}
}

func TestMatchField(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe(&WatcherAlive{}, MatchField("Account", "b"))
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	bus.Emit(&WatcherAlive{Account: "a"})
	bus.Emit(&WatcherAlive{Account: "b"})

	select {
	case e := <-sub.Out():
		if e.(*WatcherAlive).Account != "b" {
			t.Errorf("Expected event for account b, got %s", e.(*WatcherAlive).Account)
		}
	case <-time.After(time.Second):
		t.Fatal("Timed out waiting for event")
	}

	select {
	case e := <-sub.Out():
		t.Errorf("Unexpected event %v", e)
	default:
	}
}

func TestDropWhenFull(t *testing.T) {
	bus := NewBus()

	sub, err := bus.Subscribe(&WatcherAlive{}, BufSize(1), DropWhenFull())
	if err != nil {
		t.Fatal(err)
	}
	defer sub.Close()

	done := make(chan struct{})
	go func() {
		bus.Emit(&WatcherAlive{Account: "1"})
		bus.Emit(&WatcherAlive{Account: "2"})
		bus.Emit(&WatcherAlive{Account: "3"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked on a full subscriber")
	}

	e := <-sub.Out()
	if e.(*WatcherAlive).Account != "1" {
		t.Errorf("Expected first event to be kept, got %s", e.(*WatcherAlive).Account)
	}
}
