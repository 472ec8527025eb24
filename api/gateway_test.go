package api

import (
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"io/ioutil"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

func newTestGateway(t *testing.T, node *mockNode) (*Gateway, string) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	gateway, err := NewGateway(node, &GatewayConfig{Listener: listener})
	if err != nil {
		t.Fatal(err)
	}
	go gateway.Serve()
	return gateway, listener.Addr().String()
}

func TestGateway_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_relay_total",
		Help: "Test counter",
	})
	reg.MustRegister(counter)
	counter.Inc()

	gateway, addr := newTestGateway(t, &mockNode{
		metricsGathererFunc: func() prometheus.Gatherer { return reg },
	})
	defer gateway.Close()

	resp, err := http.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	body, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "test_relay_total 1") {
		t.Errorf("Expected counter in metrics output, got %s", string(body))
	}
}

func TestGateway_NotifyWebsockets(t *testing.T) {
	gateway, addr := newTestGateway(t, &mockNode{})
	defer gateway.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	// The hub registers the connection asynchronously.
	var message []byte
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, message, err = conn.ReadMessage()
	}()

	type notification struct {
		Type string `json:"type"`
	}
	ticker := time.NewTicker(time.Millisecond * 50)
	defer ticker.Stop()
	timeout := time.After(time.Second * 10)
	for {
		if err := gateway.NotifyWebsockets(notification{Type: "<b>TransferSent</b>"}); err != nil {
			t.Fatal(err)
		}
		select {
		case <-done:
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(message), "TransferSent") || strings.Contains(string(message), "<b>") {
				t.Errorf("Unexpected message %s", string(message))
			}
			return
		case <-ticker.C:
		case <-timeout:
			t.Fatal("Timed out waiting for websocket message")
		}
	}
}

func TestGateway_NotifyWebsocketsAccountFilter(t *testing.T) {
	gateway, addr := newTestGateway(t, &mockNode{})
	defer gateway.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+addr+"/ws?account=xrb_watched", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	var message []byte
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, message, err = conn.ReadMessage()
	}()

	type status struct {
		Account string `json:"account"`
		Balance string `json:"balance"`
	}
	ticker := time.NewTicker(time.Millisecond * 50)
	defer ticker.Stop()
	timeout := time.After(time.Second * 10)
	for {
		if err := gateway.NotifyWebsockets(status{Account: "xrb_other", Balance: "1"}); err != nil {
			t.Fatal(err)
		}
		if err := gateway.NotifyWebsockets(status{Account: "xrb_watched", Balance: "2"}); err != nil {
			t.Fatal(err)
		}
		select {
		case <-done:
			if err != nil {
				t.Fatal(err)
			}
			if !strings.Contains(string(message), "xrb_watched") {
				t.Errorf("Received event of another account: %s", string(message))
			}
			return
		case <-ticker.C:
		case <-timeout:
			t.Fatal("Timed out waiting for websocket message")
		}
	}
}

func TestGateway_NotifyAfterClose(t *testing.T) {
	gateway, _ := newTestGateway(t, &mockNode{})
	gateway.Close()

	if err := gateway.NotifyWebsockets(map[string]string{"type": "WatcherAlive"}); err != errGatewayClosed {
		t.Errorf("Expected errGatewayClosed, got %v", err)
	}
}

func TestNewStreamMessage(t *testing.T) {
	tests := []struct {
		data    string
		account string
	}{
		{`{"Account":"xrb_a"}`, "xrb_a"},
		{`{"notification":{"id":"1","account":"xrb_b"}}`, "xrb_b"},
		{`{"type":"BalanceUpdated","status":{"Account":"xrb_c"}}`, "xrb_c"},
		{`{"type":"WatcherAlive","status":{}}`, ""},
		{`not json`, ""},
	}
	for i, test := range tests {
		m := newStreamMessage([]byte(test.data))
		if m.account != test.account {
			t.Errorf("Test %d: expected account %q, got %q", i, test.account, m.account)
		}
	}
}
