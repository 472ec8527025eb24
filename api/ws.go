package api

import (
	"encoding/json"
	"github.com/gorilla/websocket"
	"net/http"
	"time"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

var upgrader = &websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// streamMessage is one encoded event together with the account it
// concerns. An empty account means the message is relay wide.
type streamMessage struct {
	account string
	data    []byte
}

func newStreamMessage(data []byte) streamMessage {
	var scoped struct {
		Account      string
		Notification struct {
			Account string
		}
		Status struct {
			Account string
		}
	}
	json.Unmarshal(data, &scoped)

	account := scoped.Account
	if account == "" {
		account = scoped.Notification.Account
	}
	if account == "" {
		account = scoped.Status.Account
	}
	return streamMessage{account: account, data: data}
}

// subscriber is a single websocket client of the event stream. A client
// connecting with ?account=xrb_... only receives events of that account.
type subscriber struct {
	ws      *websocket.Conn
	account string
	send    chan []byte
	h       *hub
}

func (s *subscriber) wants(m streamMessage) bool {
	return s.account == "" || m.account == "" || m.account == s.account
}

// readPump only services control frames. The stream is one way so
// anything the client sends is discarded.
func (s *subscriber) readPump() {
	defer func() {
		select {
		case s.h.unregister <- s:
		case <-s.h.quit:
		}
		s.ws.Close()
	}()
	s.ws.SetReadDeadline(time.Now().Add(pongWait))
	s.ws.SetPongHandler(func(string) error {
		return s.ws.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := s.ws.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debugf("Event stream read error: %s", err)
			}
			return
		}
	}
}

func (s *subscriber) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.ws.Close()
	}()
	for {
		select {
		case message, ok := <-s.send:
			s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				s.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.ws.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Errorf("Event stream write error: %s", err)
				return
			}
		case <-ticker.C:
			s.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// hub fans encoded relay events out to the stream subscribers.
type hub struct {
	subscribers map[*subscriber]struct{}

	broadcast  chan streamMessage
	register   chan *subscriber
	unregister chan *subscriber
	quit       chan struct{}
}

func newHub() *hub {
	return &hub{
		subscribers: make(map[*subscriber]struct{}),
		broadcast:   make(chan streamMessage),
		register:    make(chan *subscriber),
		unregister:  make(chan *subscriber),
		quit:        make(chan struct{}),
	}
}

func (h *hub) run() {
	for {
		select {
		case s := <-h.register:
			h.subscribers[s] = struct{}{}
			log.Debugf("Event stream subscriber connected (account=%q)", s.account)
		case s := <-h.unregister:
			if _, ok := h.subscribers[s]; ok {
				delete(h.subscribers, s)
				close(s.send)
				log.Debug("Event stream subscriber disconnected")
			}
		case m := <-h.broadcast:
			for s := range h.subscribers {
				if !s.wants(m) {
					continue
				}
				select {
				case s.send <- m.data:
				default:
					// Slow consumer.
					delete(h.subscribers, s)
					close(s.send)
				}
			}
		case <-h.quit:
			for s := range h.subscribers {
				delete(h.subscribers, s)
				close(s.send)
			}
			return
		}
	}
}

// publish hands the message to the hub unless it has been shut down.
func (h *hub) publish(m streamMessage) bool {
	select {
	case <-h.quit:
		return false
	default:
	}
	select {
	case h.broadcast <- m:
		return true
	case <-h.quit:
		return false
	}
}

func (h *hub) close() {
	select {
	case <-h.quit:
	default:
		close(h.quit)
	}
}

type streamHandler struct {
	hub *hub
}

func (sh streamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Errorf("Error upgrading event stream: %s", err)
		return
	}
	s := &subscriber{
		ws:      ws,
		account: r.URL.Query().Get("account"),
		send:    make(chan []byte, 256),
		h:       sh.hub,
	}
	select {
	case sh.hub.register <- s:
	case <-sh.hub.quit:
		ws.Close()
		return
	}
	go s.writePump()
	s.readPump()
}
