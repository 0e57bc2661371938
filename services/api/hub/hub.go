package hub

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// SnapshotSource serializes the current dashboard state.
type SnapshotSource interface {
	SnapshotJSON() ([]byte, error)
}

// Upstream reports the sensor transport's connectivity.
type Upstream interface {
	Connected() bool
	Status() string
}

// Observer is told how many viewers are connected after every change.
type Observer interface {
	ViewersChanged(n int)
}

// Status is the payload of the status query surface.
type Status struct {
	UpstreamConnected bool   `json:"upstreamConnected"`
	UpstreamState     string `json:"upstreamState"`
	ViewerCount       int    `json:"viewerCount"`
}

// Hub keeps the set of connected viewers and pushes the full snapshot to all
// of them whenever it changes.
type Hub struct {
	source   SnapshotSource
	upstream Upstream
	observer Observer
	log      *logrus.Entry
	upgrader websocket.Upgrader

	mu      sync.RWMutex
	clients map[*client]struct{}

	register   chan *client
	unregister chan *client
	changed    chan struct{}
	done       chan struct{}
}

// New creates a hub. Call Run before accepting connections.
func New(source SnapshotSource, upstream Upstream, observer Observer, log *logrus.Entry) *Hub {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Hub{
		source:   source,
		upstream: upstream,
		observer: observer,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// the dashboard is public; any origin may watch
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients:    make(map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		changed:    make(chan struct{}, 1),
		done:       make(chan struct{}),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every viewer.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				h.dropLocked(c)
			}
			h.mu.Unlock()
			h.countChanged()
			return

		case c := <-h.register:
			payload, err := h.source.SnapshotJSON()
			h.mu.Lock()
			h.clients[c] = struct{}{}
			if err != nil {
				h.log.WithError(err).Error("failed to serialize snapshot for new viewer")
			} else {
				// send is empty at this point
				c.send <- payload
			}
			h.mu.Unlock()
			c.log.Info("viewer connected")
			h.countChanged()

		case c := <-h.unregister:
			h.mu.Lock()
			_, ok := h.clients[c]
			if ok {
				h.dropLocked(c)
			}
			h.mu.Unlock()
			if ok {
				c.log.Info("viewer disconnected")
				h.countChanged()
			}

		case <-h.changed:
			h.broadcast()
		}
	}
}

func (h *Hub) broadcast() {
	payload, err := h.source.SnapshotJSON()
	if err != nil {
		h.log.WithError(err).Error("failed to serialize snapshot")
		return
	}
	dropped := false
	h.mu.Lock()
	for c := range h.clients {
		select {
		case c.send <- payload:
		default:
			c.log.Warn("viewer is not keeping up, dropping it")
			h.dropLocked(c)
			dropped = true
		}
	}
	h.mu.Unlock()
	if dropped {
		h.countChanged()
	}
}

func (h *Hub) dropLocked(c *client) {
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) countChanged() {
	if h.observer != nil {
		h.observer.ViewersChanged(h.ConnectedCount())
	}
}

// NotifyChanged schedules a broadcast of the current snapshot. It never
// blocks; changes arriving before the broadcast runs are folded into it.
func (h *Hub) NotifyChanged() {
	select {
	case h.changed <- struct{}{}:
	default:
	}
}

// ConnectedCount returns the number of registered viewers.
func (h *Hub) ConnectedCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UpstreamConnected reports whether the sensor transport is connected.
func (h *Hub) UpstreamConnected() bool {
	return h.upstream != nil && h.upstream.Connected()
}

// Status bundles viewer count and upstream state.
func (h *Hub) Status() Status {
	st := Status{
		UpstreamConnected: h.UpstreamConnected(),
		UpstreamState:     "disconnected",
		ViewerCount:       h.ConnectedCount(),
	}
	if h.upstream != nil {
		st.UpstreamState = h.upstream.Status()
	}
	return st
}

// HandleConnect upgrades the request and registers the viewer.
func (h *Hub) HandleConnect(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	id := uuid.NewString()
	c := &client{
		id:   id,
		conn: conn,
		send: make(chan []byte, sendBuffer),
		log:  h.log.WithFields(logrus.Fields{"viewer": id, "remote": conn.RemoteAddr().String()}),
	}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump(h)
}

func (h *Hub) remove(c *client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
