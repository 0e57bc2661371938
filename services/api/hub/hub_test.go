package hub

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	payload string
}

func (s *fakeSource) SnapshotJSON() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return []byte(s.payload), nil
}

func (s *fakeSource) set(p string) {
	s.mu.Lock()
	s.payload = p
	s.mu.Unlock()
}

type fakeUpstream struct{ connected bool }

func (u fakeUpstream) Connected() bool { return u.connected }
func (u fakeUpstream) Status() string {
	if u.connected {
		return "connected"
	}
	return "disconnected"
}

type countObserver struct {
	mu   sync.Mutex
	last int
}

func (o *countObserver) ViewersChanged(n int) {
	o.mu.Lock()
	o.last = n
	o.mu.Unlock()
}

func startHub(t *testing.T, src *fakeSource) (*Hub, *httptest.Server) {
	t.Helper()
	h := New(src, fakeUpstream{connected: true}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	go h.Run(ctx)

	srv := httptest.NewServer(http.HandlerFunc(h.HandleConnect))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return h, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(msg)
}

func TestNewViewerReceivesCurrentSnapshot(t *testing.T) {
	src := &fakeSource{payload: `{"temperature":"N/A"}`}
	h, srv := startHub(t, src)

	conn := dial(t, srv)
	assert.Equal(t, `{"temperature":"N/A"}`, readText(t, conn))
	assert.Eventually(t, func() bool { return h.ConnectedCount() == 1 }, time.Second, 10*time.Millisecond)
}

func TestNotifyChangedReachesEveryViewer(t *testing.T) {
	src := &fakeSource{payload: `{"v":1}`}
	h, srv := startHub(t, src)

	a := dial(t, srv)
	b := dial(t, srv)
	readText(t, a)
	readText(t, b)
	require.Eventually(t, func() bool { return h.ConnectedCount() == 2 }, time.Second, 10*time.Millisecond)

	src.set(`{"v":2}`)
	h.NotifyChanged()

	assert.Equal(t, `{"v":2}`, readText(t, a))
	assert.Equal(t, `{"v":2}`, readText(t, b))
}

func TestClosedViewerIsRemoved(t *testing.T) {
	src := &fakeSource{payload: `{}`}
	obs := &countObserver{}
	h := New(src, fakeUpstream{}, obs, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)
	srv := httptest.NewServer(http.HandlerFunc(h.HandleConnect))
	defer srv.Close()

	stay := dial(t, srv)
	leave := dial(t, srv)
	readText(t, stay)
	readText(t, leave)
	require.Eventually(t, func() bool { return h.ConnectedCount() == 2 }, time.Second, 10*time.Millisecond)

	require.NoError(t, leave.Close())
	require.Eventually(t, func() bool { return h.ConnectedCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	src.set(`{"after":true}`)
	h.NotifyChanged()
	assert.Equal(t, `{"after":true}`, readText(t, stay))

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Equal(t, 1, obs.last)
}

func TestStatus(t *testing.T) {
	h := New(&fakeSource{}, fakeUpstream{connected: true}, nil, nil)
	assert.Equal(t, Status{UpstreamConnected: true, UpstreamState: "connected", ViewerCount: 0}, h.Status())
	assert.True(t, h.UpstreamConnected())

	h = New(&fakeSource{}, fakeUpstream{}, nil, nil)
	assert.Equal(t, Status{UpstreamConnected: false, UpstreamState: "disconnected"}, h.Status())

	h = New(&fakeSource{}, nil, nil, nil)
	assert.False(t, h.UpstreamConnected())
	assert.Equal(t, "disconnected", h.Status().UpstreamState)
}

func TestSlowViewerIsDropped(t *testing.T) {
	src := &fakeSource{payload: `{"v":1}`}
	h, srv := startHub(t, src)

	fast := dial(t, srv)
	assert.Equal(t, `{"v":1}`, readText(t, fast))
	require.Eventually(t, func() bool { return h.ConnectedCount() == 1 }, time.Second, 10*time.Millisecond)

	// a viewer whose writer stopped draining its buffer
	slow := &client{id: "slow", send: make(chan []byte, 1), log: h.log.WithField("viewer", "slow")}
	slow.send <- []byte(`{"v":1}`)
	h.mu.Lock()
	h.clients[slow] = struct{}{}
	h.mu.Unlock()
	require.Equal(t, 2, h.ConnectedCount())

	src.set(`{"v":2}`)
	h.NotifyChanged()

	assert.Equal(t, `{"v":2}`, readText(t, fast))
	require.Eventually(t, func() bool { return h.ConnectedCount() == 1 }, time.Second, 10*time.Millisecond)

	assert.Equal(t, `{"v":1}`, string(<-slow.send))
	_, open := <-slow.send
	assert.False(t, open, "send channel of a dropped viewer is closed")
}

func TestNotifyChangedNeverBlocks(t *testing.T) {
	h := New(&fakeSource{}, nil, nil, nil)
	done := make(chan struct{})
	go func() {
		// nothing is running the hub; repeated calls must still return
		for i := 0; i < 100; i++ {
			h.NotifyChanged()
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("NotifyChanged blocked")
	}
}
