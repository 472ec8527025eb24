package api

import (
	"encoding/json"
	"errors"
	"github.com/gorilla/mux"
	"github.com/op/go-logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net"
	"net/http"
)

var log = logging.MustGetLogger("API")

var errGatewayClosed = errors.New("gateway closed")

type GatewayConfig struct {
	Listener   net.Listener
	NoCors     bool
	AllowedIPs map[string]bool
	Username   string
	Password   string
}

// Gateway represents the HTTP status API of the relay.
type Gateway struct {
	listener net.Listener
	node     CoreIface
	handler  http.Handler
	config   *GatewayConfig
	hub      *hub
}

// NewGateway instantiates a new gateway. The v1 API, the websocket event
// stream and the metrics endpoint share the listener and authentication.
func NewGateway(node CoreIface, config *GatewayConfig) (*Gateway, error) {
	var (
		g = &Gateway{
			node:     node,
			config:   config,
			listener: config.Listener,
			hub:      newHub(),
		}
		topMux = http.NewServeMux()
	)

	r := g.newV1Router()

	if !config.NoCors {
		r.Use(mux.CORSMethodMiddleware(r))
		r.Use(g.CORSAllowAllOriginsMiddleware)
	}
	r.Use(g.AuthenticationMiddleware)

	topMux.Handle("/v1/relay/", r)
	topMux.Handle("/ws", g.AuthenticationMiddleware(streamHandler{hub: g.hub}))
	topMux.Handle("/metrics", g.AuthenticationMiddleware(promhttp.HandlerFor(node.MetricsGatherer(), promhttp.HandlerOpts{})))

	go g.hub.run()

	g.handler = topMux
	return g, nil
}

// Close shuts down the listener and disconnects every event stream
// subscriber.
func (g *Gateway) Close() error {
	g.hub.close()
	return g.listener.Close()
}

// Serve begins listening on the configured address.
func (g *Gateway) Serve() error {
	log.Infof("Status API listening on %s", g.listener.Addr())
	return http.Serve(g.listener, g.handler)
}

// NotifyWebsockets sends the JSON encoded message to every event stream
// subscriber interested in the account it concerns.
func (g *Gateway) NotifyWebsockets(message interface{}) error {
	out, err := marshalAndSanitizeJSON(message)
	if err != nil {
		return err
	}
	if !g.hub.publish(newStreamMessage(out)) {
		return errGatewayClosed
	}
	return nil
}

func (g *Gateway) newV1Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/v1/relay/watchers", g.handleGETWatchers).Methods("GET")
	r.HandleFunc("/v1/relay/watchers/{account}", g.handleGETWatcher).Methods("GET")
	r.HandleFunc("/v1/relay/outcomes", g.handleGETOutcomes).Methods("GET")
	r.HandleFunc("/v1/relay/outcomes/{account}", g.handleGETOutcomes).Methods("GET")
	r.HandleFunc("/v1/relay/notifications", g.handleGETNotifications).Methods("GET")
	r.HandleFunc("/v1/relay/balance/{account}", g.handleGETBalance).Methods("GET")
	r.HandleFunc("/v1/relay/history/{account}", g.handleGETHistory).Methods("GET")
	r.HandleFunc("/v1/relay/stop", g.handlePOSTStop).Methods("POST")
	return r
}

func wrapError(err error) string {
	out, _ := json.Marshal(struct {
		Error string `json:"error"`
	}{err.Error()})
	return string(out)
}
