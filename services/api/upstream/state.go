package upstream

import (
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// State is the connection state of the upstream transport.
type State int

const (
	Disconnected State = iota
	Connecting
	Connected
)

func (s State) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Connected:
		return "connected"
	default:
		return "disconnected"
	}
}

// Tracker is the connection state machine. Transport events drive it;
// readers poll State.
//
// Errors are logged once per outage: the first failure after a successful
// connection is logged, repeats are not, until the next successful connect.
type Tracker struct {
	log      *logrus.Entry
	onChange func(State)

	mu        sync.Mutex
	state     State
	errLogged bool
}

// NewTracker starts in Disconnected. onChange may be nil.
func NewTracker(log *logrus.Entry, onChange func(State)) *Tracker {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Tracker{log: log, onChange: onChange}
}

// State returns the current state.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Connecting records a (re)connection attempt.
func (t *Tracker) Connecting() {
	t.set(Connecting)
}

// Connected records a successful connection and re-arms error logging.
func (t *Tracker) Connected() {
	t.mu.Lock()
	t.errLogged = false
	t.mu.Unlock()
	t.log.Info("connected to MQTT broker")
	t.set(Connected)
}

// Failed records a failed connection attempt. It returns whether the error
// was logged.
func (t *Tracker) Failed(err error) bool {
	t.mu.Lock()
	logIt := !t.errLogged
	t.errLogged = true
	t.mu.Unlock()

	if logIt {
		entry := t.log.WithError(err)
		entry.Error("MQTT connection error")
		if isAuthError(err) {
			entry.Error("check MQTT_USERNAME and MQTT_PASSWORD")
		}
	}
	t.set(Disconnected)
	return logIt
}

// Lost records that an established connection dropped. The transport
// reconnects on its own.
func (t *Tracker) Lost(err error) {
	t.mu.Lock()
	wasConnected := t.state == Connected
	t.mu.Unlock()
	if wasConnected {
		t.log.WithError(err).Warn("disconnected from MQTT broker, reconnecting")
	}
	t.set(Disconnected)
}

// Closed records a deliberate disconnect.
func (t *Tracker) Closed() {
	t.set(Disconnected)
}

func (t *Tracker) set(s State) {
	t.mu.Lock()
	changed := t.state != s
	t.state = s
	t.mu.Unlock()
	if changed && t.onChange != nil {
		t.onChange(s)
	}
}

func isAuthError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not authori") || strings.Contains(msg, "bad user name or password")
}
