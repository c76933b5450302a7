package session

import (
	"sync"
	"time"
)

// Connection records a user's last successful /connect. The password is
// never kept.
type Connection struct {
	Database    string
	Host        string
	Port        string
	User        string
	ConnectedAt time.Time
}

// Tracker records which users have connected.
type Tracker struct {
	mu    sync.RWMutex
	conns map[string]Connection
}

func NewTracker() *Tracker {
	return &Tracker{conns: make(map[string]Connection)}
}

func (t *Tracker) MarkConnected(userID string, conn Connection) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.conns[userID] = conn
}

func (t *Tracker) Forget(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.conns, userID)
}

func (t *Tracker) IsConnected(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.conns[userID]
	return ok
}

func (t *Tracker) Get(userID string) (Connection, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.conns[userID]
	return c, ok
}

// Clear forgets every user, e.g. after the gateway connection is closed.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	clear(t.conns)
}
