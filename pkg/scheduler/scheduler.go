// Package scheduler drives two timers: a per-hand turn timer that
// auto-folds a player who does not respond, and a per-room auto-start
// timer that deals the next hand once a prior one settles. Each armed
// deadline is a real time.AfterFunc callback, so a turn expires
// without any polling loop.
package scheduler

import (
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/vctt94/holdemcore/pkg/engine"
	"github.com/vctt94/holdemcore/pkg/presence"
)

// TurnTimeoutActive is how long a present player gets to act.
const TurnTimeoutActive = 10 * time.Second

// TurnTimeoutAFK is how long an absent player gets to act before being
// auto-folded.
const TurnTimeoutAFK = 2 * time.Second

// ActionExecutor is the capability the scheduler needs from the Hand
// Manager, kept abstract to avoid a scheduler<->manager import cycle
//.
type ActionExecutor interface {
	// AutoActOnTimeout is invoked when a player's turn timer expires. The
	// implementation calls processAction(handId, playerId, FOLD, 0).
	AutoActOnTimeout(roomID, handID, userID engine.ID) error
	// StartNewHand is invoked when a room's auto-start timer expires.
	StartNewHand(roomID engine.ID) error
}

// Scheduler owns the live turn and auto-start timers. All methods are
// safe for concurrent use.
type Scheduler struct {
	mu sync.Mutex

	turnTimers      map[engine.ID]*time.Timer // by hand id
	autoStartTimers map[engine.ID]*time.Timer // by room id

	activeTimeout time.Duration
	afkTimeout    time.Duration

	presence *presence.Tracker
	exec     ActionExecutor
	log      slog.Logger
}

// New builds a Scheduler. presence supplies the liveness check that
// decides between TurnTimeoutActive and TurnTimeoutAFK; exec is the
// Hand Manager, used only through the ActionExecutor interface.
func New(presenceTracker *presence.Tracker, exec ActionExecutor, log slog.Logger) *Scheduler {
	return &Scheduler{
		turnTimers:      make(map[engine.ID]*time.Timer),
		autoStartTimers: make(map[engine.ID]*time.Timer),
		activeTimeout:   TurnTimeoutActive,
		afkTimeout:      TurnTimeoutAFK,
		presence:        presenceTracker,
		exec:            exec,
		log:             log,
	}
}

// SetTurnTimeouts overrides the active/AFK turn timeouts; tests use
// this to run the timer paths without waiting out the real deadlines.
func (s *Scheduler) SetTurnTimeouts(active, afk time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeTimeout = active
	s.afkTimeout = afk
}

// ScheduleTurn (re)starts handID's turn timer for userID. Any existing
// timer for the hand is cancelled first, so a fresh action or a street
// change always replaces rather than stacks timers.
func (s *Scheduler) ScheduleTurn(roomID, handID, userID engine.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelTurnLocked(handID)

	timeout := s.afkTimeout
	if s.presence.IsActive(roomID, userID) {
		timeout = s.activeTimeout
	}

	s.turnTimers[handID] = time.AfterFunc(timeout, func() {
		if err := s.exec.AutoActOnTimeout(roomID, handID, userID); err != nil {
			s.log.Warnf("scheduler: auto-act on timeout for hand %s user %s: %v", handID, userID, err)
		}
	})
}

// CancelTurn stops handID's turn timer, if any. Safe to call when none
// is pending.
func (s *Scheduler) CancelTurn(handID engine.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelTurnLocked(handID)
}

func (s *Scheduler) cancelTurnLocked(handID engine.ID) {
	if t, ok := s.turnTimers[handID]; ok {
		t.Stop()
		delete(s.turnTimers, handID)
	}
}

// ScheduleAutoStart (re)starts roomID's auto-start timer, firing
// StartNewHand after delay once it expires.
// A failure to start (e.g. too few players still seated) is logged and
// not retried; the timer is armed again only when another hand of the
// room settles.
func (s *Scheduler) ScheduleAutoStart(roomID engine.ID, delay time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelAutoStartLocked(roomID)

	s.autoStartTimers[roomID] = time.AfterFunc(delay, func() {
		if err := s.exec.StartNewHand(roomID); err != nil {
			s.log.Debugf("scheduler: auto-start for room %s: %v", roomID, err)
		}
	})
}

// CancelAutoStart stops roomID's auto-start timer, if any.
func (s *Scheduler) CancelAutoStart(roomID engine.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelAutoStartLocked(roomID)
}

func (s *Scheduler) cancelAutoStartLocked(roomID engine.ID) {
	if t, ok := s.autoStartTimers[roomID]; ok {
		t.Stop()
		delete(s.autoStartTimers, roomID)
	}
}

// Stop cancels every pending timer, for server shutdown.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.turnTimers {
		t.Stop()
		delete(s.turnTimers, id)
	}
	for id, t := range s.autoStartTimers {
		t.Stop()
		delete(s.autoStartTimers, id)
	}
}
