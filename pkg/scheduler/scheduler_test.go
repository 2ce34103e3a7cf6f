package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vctt94/holdemcore/pkg/engine"
	"github.com/vctt94/holdemcore/pkg/logging"
	"github.com/vctt94/holdemcore/pkg/presence"
)

// Short stand-ins for the real production deadlines so the timer paths run in
// milliseconds instead of tens of seconds.
const (
	testActiveTimeout = 60 * time.Millisecond
	testAFKTimeout    = 15 * time.Millisecond
)

// fakeExecutor records calls instead of touching a real Hand Manager,
// so these tests exercise only the scheduler's timer bookkeeping.
type fakeExecutor struct {
	mu         sync.Mutex
	autoActs   []engine.ID // handID per call
	starts     []engine.ID // roomID per call
	autoActErr error
	startErr   error
	fired      chan struct{}
}

func newFakeExecutor() *fakeExecutor {
	return &fakeExecutor{fired: make(chan struct{}, 16)}
}

func (f *fakeExecutor) AutoActOnTimeout(roomID, handID, userID engine.ID) error {
	f.mu.Lock()
	f.autoActs = append(f.autoActs, handID)
	f.mu.Unlock()
	f.fired <- struct{}{}
	return f.autoActErr
}

func (f *fakeExecutor) StartNewHand(roomID engine.ID) error {
	f.mu.Lock()
	f.starts = append(f.starts, roomID)
	f.mu.Unlock()
	f.fired <- struct{}{}
	return f.startErr
}

func (f *fakeExecutor) autoActCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.autoActs)
}

func (f *fakeExecutor) startCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.starts)
}

func newTestScheduler(exec *fakeExecutor) (*Scheduler, *presence.Tracker) {
	pres := presence.New()
	s := New(pres, exec, logging.Disabled())
	s.SetTurnTimeouts(testActiveTimeout, testAFKTimeout)
	return s, pres
}

func waitFired(t *testing.T, f *fakeExecutor) {
	t.Helper()
	select {
	case <-f.fired:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for scheduler callback")
	}
}

// TestScheduleTurnActiveVsAFK covers the active one of the two timeout
// tiers: a player with a recent heartbeat gets the long timeout. The
// short AFK tier is covered by TestScheduleTurnAFKFoldsFast.
func TestScheduleTurnActiveVsAFK(t *testing.T) {
	exec := newFakeExecutor()
	s, pres := newTestScheduler(exec)

	roomID, handID, userID := engine.ID("room1"), engine.ID("hand1"), engine.ID("alice")
	pres.RecordHeartbeat(roomID, userID)

	start := time.Now()
	s.ScheduleTurn(roomID, handID, userID)
	waitFired(t, exec)
	elapsed := time.Since(start)

	require.GreaterOrEqual(t, elapsed, testActiveTimeout)
	require.Equal(t, 1, exec.autoActCount())
}

func TestScheduleTurnAFKFoldsFast(t *testing.T) {
	exec := newFakeExecutor()
	s, _ := newTestScheduler(exec)

	roomID, handID, userID := engine.ID("room1"), engine.ID("hand1"), engine.ID("bob")
	// No heartbeat recorded: AFK path.
	start := time.Now()
	s.ScheduleTurn(roomID, handID, userID)
	waitFired(t, exec)
	elapsed := time.Since(start)

	require.Less(t, elapsed, testActiveTimeout)
	require.GreaterOrEqual(t, elapsed, testAFKTimeout)
	require.Equal(t, 1, exec.autoActCount())
}

// TestScheduleTurnIsIdempotentAndReplaces checks that rescheduling
// is idempotent: a second ScheduleTurn for the same hand cancels the
// first timer rather than stacking a second one.
func TestScheduleTurnIsIdempotentAndReplaces(t *testing.T) {
	exec := newFakeExecutor()
	s, _ := newTestScheduler(exec)

	roomID, handID, userID := engine.ID("room1"), engine.ID("hand1"), engine.ID("carol")

	s.ScheduleTurn(roomID, handID, userID)
	// Immediately reschedule before the AFK timeout fires; only the
	// second timer should ever fire.
	s.ScheduleTurn(roomID, handID, userID)

	waitFired(t, exec)
	// Give a cancelled-but-not-quite-stopped first timer a chance to
	// misfire before asserting it didn't.
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, exec.autoActCount())
}

// TestCancelTurnPreventsFire checks cancellation: a timer
// cancelled before it fires never invokes the executor.
func TestCancelTurnPreventsFire(t *testing.T) {
	exec := newFakeExecutor()
	s, _ := newTestScheduler(exec)

	roomID, handID, userID := engine.ID("room1"), engine.ID("hand1"), engine.ID("dave")
	s.ScheduleTurn(roomID, handID, userID)
	s.CancelTurn(handID)

	select {
	case <-exec.fired:
		t.Fatal("executor fired after cancellation")
	case <-time.After(testAFKTimeout + 100*time.Millisecond):
	}
	require.Equal(t, 0, exec.autoActCount())
}

// TestCancelTurnIsIdempotent checks cancel idempotence:
// cancelling twice, or cancelling a hand with no pending timer, must
// not panic.
func TestCancelTurnIsIdempotent(t *testing.T) {
	exec := newFakeExecutor()
	s, _ := newTestScheduler(exec)

	handID := engine.ID("never-scheduled")
	require.NotPanics(t, func() {
		s.CancelTurn(handID)
		s.CancelTurn(handID)
	})
}

// TestScheduleAutoStart checks that a room's auto-start
// timer fires StartNewHand after its configured delay.
func TestScheduleAutoStart(t *testing.T) {
	exec := newFakeExecutor()
	s, _ := newTestScheduler(exec)

	roomID := engine.ID("room1")
	s.ScheduleAutoStart(roomID, 50*time.Millisecond)
	waitFired(t, exec)
	require.Equal(t, 1, exec.startCount())
}

// TestScheduleAutoStartFailureIsNotRescheduled checks that a failed
// auto-start (e.g. too few players) is logged and not retried by the
// scheduler itself.
func TestScheduleAutoStartFailureIsNotRescheduled(t *testing.T) {
	exec := newFakeExecutor()
	exec.startErr = engine.NewError(engine.CodeInsufficientPlayers, "not enough players")
	s, _ := newTestScheduler(exec)

	roomID := engine.ID("room1")
	s.ScheduleAutoStart(roomID, 20*time.Millisecond)
	waitFired(t, exec)

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 1, exec.startCount(), "a failed auto-start must not self-reschedule")
}

// TestCancelAutoStartIsIdempotent mirrors TestCancelTurnIsIdempotent
// for the room-level timer.
func TestCancelAutoStartIsIdempotent(t *testing.T) {
	exec := newFakeExecutor()
	s, _ := newTestScheduler(exec)

	roomID := engine.ID("never-scheduled")
	require.NotPanics(t, func() {
		s.CancelAutoStart(roomID)
		s.CancelAutoStart(roomID)
	})
}

// TestStopCancelsAllTimers covers shutdown: Stop
// cancels every pending timer so none fire afterward.
func TestStopCancelsAllTimers(t *testing.T) {
	exec := newFakeExecutor()
	s, _ := newTestScheduler(exec)

	s.ScheduleTurn(engine.ID("room1"), engine.ID("hand1"), engine.ID("eve"))
	s.ScheduleAutoStart(engine.ID("room1"), testAFKTimeout)
	s.Stop()

	select {
	case <-exec.fired:
		t.Fatal("executor fired after Stop")
	case <-time.After(testActiveTimeout + 100*time.Millisecond):
	}
	require.Equal(t, 0, exec.autoActCount())
	require.Equal(t, 0, exec.startCount())
}
