// Package presence tracks per-(room,player) liveness in memory.
// A heartbeat is a plain time.Time per (room, user) key compared
// against now; there is no persistence and no cleanup goroutine.
package presence

import (
	"sync"
	"time"

	"github.com/vctt94/holdemcore/pkg/engine"
)

// ActiveThreshold is how recent a heartbeat must be for IsActive to
// report true.
const ActiveThreshold = 15 * time.Second

type key struct {
	roomID engine.ID
	userID engine.ID
}

// Tracker is a process-local map of (roomID, userID) to the instant of
// its last heartbeat. It is never persisted: losing it on restart only
// shortens turn timers to the no-heartbeat (AFK) timeout, never
// corrupts hand state.
type Tracker struct {
	mu   sync.Mutex
	seen map[key]time.Time
	now  func() time.Time
}

// New creates an empty tracker using the real clock.
func New() *Tracker {
	return &Tracker{seen: make(map[key]time.Time), now: time.Now}
}

// NewWithClock creates a tracker using a substitutable clock, for tests.
func NewWithClock(now func() time.Time) *Tracker {
	return &Tracker{seen: make(map[key]time.Time), now: now}
}

// RecordHeartbeat marks userID as active in roomID as of now.
func (t *Tracker) RecordHeartbeat(roomID, userID engine.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seen[key{roomID, userID}] = t.now()
}

// IsActive reports whether userID has a heartbeat in roomID within
// ActiveThreshold. A user with no recorded heartbeat is not active.
func (t *Tracker) IsActive(roomID, userID engine.ID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	last, ok := t.seen[key{roomID, userID}]
	if !ok {
		return false
	}
	return t.now().Sub(last) < ActiveThreshold
}

// Remove clears a (room, user) entry, e.g. on leave.
func (t *Tracker) Remove(roomID, userID engine.ID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.seen, key{roomID, userID})
}
