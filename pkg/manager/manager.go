// Package manager orchestrates hand and room lifecycle: it starts
// hands, applies player actions through the engine, persists the
// results, publishes events, and seats players into rooms.
//
// Every hand and room mutation is serialized by an in-process mutex
// keyed by the entity's id, standing in for a pessimistic row lock
// (`SELECT ... FOR UPDATE`) against a shared relational store in a
// single-process deployment.
package manager

import (
	"context"
	"sync"
	"time"

	"github.com/decred/slog"
	"golang.org/x/sync/errgroup"

	"github.com/vctt94/holdemcore/pkg/cards"
	"github.com/vctt94/holdemcore/pkg/engine"
	"github.com/vctt94/holdemcore/pkg/events"
	"github.com/vctt94/holdemcore/pkg/presence"
	"github.com/vctt94/holdemcore/pkg/scheduler"
	"github.com/vctt94/holdemcore/pkg/store"
)

// lockTable hands out one *sync.Mutex per entity id, created on first
// use and kept for the process lifetime. It is the in-process stand-in
// for per-row locks.
type lockTable struct {
	mu    sync.Mutex
	locks map[engine.ID]*sync.Mutex
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[engine.ID]*sync.Mutex)}
}

// Lock acquires the lock for id and returns the function to release it.
func (t *lockTable) Lock(id engine.ID) func() {
	t.mu.Lock()
	l, ok := t.locks[id]
	if !ok {
		l = &sync.Mutex{}
		t.locks[id] = l
	}
	t.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// Manager is the Hand Manager and Room lifecycle orchestrator. It owns
// the only in-memory state that is not reconstructable from the store:
// the live HandRuntime of every hand currently in play (deck order and
// betting-round bookkeeping are process-local; the store only carries
// the cards already dealt).
type Manager struct {
	store    *store.Store
	bus      *events.Bus
	presence *presence.Tracker
	clock    func() time.Time
	log      slog.Logger

	roomLocks *lockTable
	handLocks *lockTable

	mu             sync.Mutex
	hands          map[engine.ID]*engine.HandRuntime
	roomActiveHand map[engine.ID]engine.ID // roomID -> handID while non-terminal

	scheduler   *scheduler.Scheduler
	deckFactory func() (*cards.Deck, error)
}

// New builds a Manager, dealing every hand from a freshly-shuffled,
// cryptographically-seeded deck by default. Call SetScheduler
// once the Scheduler has been constructed with this Manager as its
// ActionExecutor, and SetDeckFactory to reproduce a session deterministically
// (cards.NewDeck's doc comment: "for operators who pass --seed").
func New(st *store.Store, bus *events.Bus, pres *presence.Tracker, clock func() time.Time, log slog.Logger) *Manager {
	return &Manager{
		store:          st,
		bus:            bus,
		presence:       pres,
		clock:          clock,
		log:            log,
		roomLocks:      newLockTable(),
		handLocks:      newLockTable(),
		hands:          make(map[engine.ID]*engine.HandRuntime),
		roomActiveHand: make(map[engine.ID]engine.ID),
		deckFactory:    func() (*cards.Deck, error) { return cards.NewSecureDeck() },
	}
}

// SetScheduler wires the Turn & Auto-Start Scheduler in after
// construction, breaking the Manager<->Scheduler initialization cycle.
func (m *Manager) SetScheduler(s *scheduler.Scheduler) {
	m.scheduler = s
}

// SetDeckFactory overrides how each hand's deck is built, e.g. to a
// deterministic seed sequence for reproducing a session.
func (m *Manager) SetDeckFactory(f func() (*cards.Deck, error)) {
	m.deckFactory = f
}

// --- Room lifecycle: seats players so StartHand/ProcessAction have
// something to act on. ---

// CreateRoom validates and persists a new Room, owned by ownerID.
func (m *Manager) CreateRoom(ownerID engine.ID, name string, maxSeats int, smallBlind, minBuyIn, maxBuyIn int64, autoStartDelay time.Duration, inviteCode string) (*engine.Room, error) {
	room := &engine.Room{
		ID:             engine.NewID(),
		Name:           name,
		OwnerID:        ownerID,
		MaxSeats:       maxSeats,
		SmallBlind:     smallBlind,
		BigBlind:       2 * smallBlind,
		MinBuyIn:       minBuyIn,
		MaxBuyIn:       maxBuyIn,
		Status:         engine.RoomWaiting,
		InviteCode:     inviteCode,
		AutoStartDelay: autoStartDelay,
		CreatedAt:      m.clock(),
	}
	if err := room.Validate(); err != nil {
		return nil, err
	}
	if err := m.store.CreateRoom(room); err != nil {
		return nil, err
	}
	return room, nil
}

// JoinRoom seats userID at roomID. seat of -1 auto-assigns the lowest
// free seat; a non-negative seat requests that specific seat.
func (m *Manager) JoinRoom(roomID, userID engine.ID, seat int, buyIn int64) (*engine.RoomPlayer, error) {
	unlock := m.roomLocks.Lock(roomID)
	defer unlock()

	room, err := m.store.GetRoom(roomID)
	if err != nil {
		return nil, err
	}
	if room.Status == engine.RoomClosed {
		return nil, engine.NewError(engine.CodeRoomNotJoinable, "room %s is closed", roomID)
	}
	if buyIn < room.MinBuyIn || buyIn > room.MaxBuyIn {
		return nil, engine.NewError(engine.CodeInvalidBuyIn, "buy-in %d outside room range [%d,%d]", buyIn, room.MinBuyIn, room.MaxBuyIn)
	}

	existing, err := m.store.GetRoomPlayer(roomID, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.Status == engine.RoomPlayerActive {
		if m.userInActiveHand(roomID, userID) {
			return nil, engine.NewError(engine.CodeActiveHandInProgress, "user %s is in an active hand at room %s", userID, roomID)
		}
		return nil, engine.NewError(engine.CodeAlreadyInRoom, "user %s is already seated at room %s", userID, roomID)
	}

	players, err := m.store.ListRoomPlayers(roomID)
	if err != nil {
		return nil, err
	}
	taken := make(map[int]bool, len(players))
	for _, p := range players {
		if p.Status == engine.RoomPlayerActive {
			taken[p.Seat] = true
		}
	}

	if seat < 0 {
		seat = -1
		for s := 0; s < room.MaxSeats; s++ {
			if !taken[s] {
				seat = s
				break
			}
		}
		if seat < 0 {
			return nil, engine.NewError(engine.CodeRoomFull, "room %s has no free seat", roomID)
		}
	} else {
		if seat >= room.MaxSeats {
			return nil, engine.NewError(engine.CodeNoSeats, "seat %d does not exist in a %d-seat room", seat, room.MaxSeats)
		}
		if taken[seat] {
			return nil, engine.NewError(engine.CodeSeatTaken, "seat %d is occupied", seat)
		}
	}

	rp := &engine.RoomPlayer{RoomID: roomID, UserID: userID, Seat: seat, Status: engine.RoomPlayerActive, Stack: buyIn}
	if err := m.store.UpsertRoomPlayer(rp); err != nil {
		return nil, err
	}

	m.bus.PublishRoom(events.Event{
		Type: events.TypePlayerJoined, RoomID: roomID, Timestamp: m.clock(),
		Payload: events.PayloadPlayerPresence{UserID: userID, Seat: seat},
	})
	return rp, nil
}

// LeaveRoom marks userID's membership LEFT, refusing while they are
// seated in the room's currently active hand.
func (m *Manager) LeaveRoom(roomID, userID engine.ID) error {
	unlock := m.roomLocks.Lock(roomID)
	defer unlock()

	rp, err := m.store.GetRoomPlayer(roomID, userID)
	if err != nil {
		return err
	}
	if rp == nil || rp.Status != engine.RoomPlayerActive {
		return engine.NewError(engine.CodeNotInRoom, "user %s is not seated at room %s", userID, roomID)
	}
	if m.userInActiveHand(roomID, userID) {
		return engine.NewError(engine.CodeActiveHandInProgress, "user %s is in an active hand at room %s", userID, roomID)
	}

	tx, err := m.store.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if err := m.store.SetRoomPlayerStatus(tx, roomID, userID, engine.RoomPlayerLeft); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	m.presence.Remove(roomID, userID)
	m.bus.PublishRoom(events.Event{
		Type: events.TypePlayerLeft, RoomID: roomID, Timestamp: m.clock(),
		Payload: events.PayloadPlayerPresence{UserID: userID, Seat: rp.Seat},
	})
	return nil
}

func (m *Manager) userInActiveHand(roomID, userID engine.ID) bool {
	m.mu.Lock()
	handID, ok := m.roomActiveHand[roomID]
	runtime := m.hands[handID]
	m.mu.Unlock()
	if !ok || runtime == nil {
		return false
	}
	return runtime.PlayerByUserID(userID) != nil
}

// --- Hand Manager ---

// StartHand is the external startHand operation: requestingUserID
// must be an ACTIVE member of roomID.
func (m *Manager) StartHand(roomID, requestingUserID engine.ID) (*HandView, error) {
	rp, err := m.store.GetRoomPlayer(roomID, requestingUserID)
	if err != nil {
		return nil, err
	}
	if rp == nil || rp.Status != engine.RoomPlayerActive {
		return nil, engine.NewError(engine.CodeNotInRoom, "user %s is not seated at room %s", requestingUserID, roomID)
	}
	return m.startHandLocked(roomID)
}

// StartNewHand implements scheduler.ActionExecutor: the scheduler-
// triggered auto-start after settlement, with no specific requester.
func (m *Manager) StartNewHand(roomID engine.ID) error {
	_, err := m.startHandLocked(roomID)
	return err
}

func (m *Manager) startHandLocked(roomID engine.ID) (*HandView, error) {
	unlock := m.roomLocks.Lock(roomID)
	defer unlock()

	players, err := m.store.ListRoomPlayers(roomID)
	if err != nil {
		return nil, err
	}
	var active []*engine.RoomPlayer
	for _, p := range players {
		if p.Status == engine.RoomPlayerActive {
			active = append(active, p)
		}
	}

	room, err := m.store.GetRoom(roomID)
	if err != nil {
		return nil, err
	}

	var eligible []*engine.RoomPlayer
	for _, p := range active {
		if p.Stack >= room.BigBlind {
			eligible = append(eligible, p)
		}
	}
	if len(eligible) < 2 {
		return nil, engine.NewError(engine.CodeInsufficientPlayers, "room %s has %d players with stack >= BB, need 2", roomID, len(eligible))
	}

	prevHand, err := m.store.LatestHandForRoom(roomID)
	if err != nil {
		return nil, err
	}

	// Only seats with a nonzero stack are dealer candidates: skip a
	// zero-stack seat rather than hand it the button.
	var dealerCandidates []*engine.RoomPlayer
	for _, p := range active {
		if p.Stack > 0 {
			dealerCandidates = append(dealerCandidates, p)
		}
	}
	if len(dealerCandidates) == 0 {
		dealerCandidates = active
	}

	dealerSeat := dealerCandidates[0].Seat
	for _, p := range dealerCandidates {
		if p.Seat < dealerSeat {
			dealerSeat = p.Seat
		}
	}
	if prevHand != nil {
		dealerSeat = nextActiveSeatAfter(dealerCandidates, prevHand.DealerSeat)
	}

	handNumber, err := m.store.NextHandNumber(roomID)
	if err != nil {
		return nil, err
	}

	deck, err := m.deckFactory()
	if err != nil {
		return nil, err
	}

	hand := &engine.Hand{
		ID:         engine.NewID(),
		RoomID:     roomID,
		HandNumber: handNumber,
		DealerSeat: dealerSeat,
		SmallBlind: room.SmallBlind,
		BigBlind:   room.BigBlind,
		State:      engine.HandWaiting,
		CreatedAt:  m.clock(),
	}

	handPlayers := make([]*engine.HandPlayer, len(active))
	for i, p := range active {
		handPlayers[i] = &engine.HandPlayer{
			HandID: hand.ID,
			UserID: p.UserID,
			Seat:   p.Seat,
			Status: engine.HandPlayerActive,
			Stack:  p.Stack,
		}
	}

	var seq int64
	runtime := engine.NewHandRuntime(hand, handPlayers, deck, dealerSeat, room.MaxSeats, m.clock, func() int64 {
		seq++
		return seq
	})
	if err := runtime.StartPreFlop(); err != nil {
		return nil, err
	}

	actions := runtime.DrainPending()
	if err := m.store.CreateHand(hand, handPlayers, actions); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.hands[hand.ID] = runtime
	m.roomActiveHand[roomID] = hand.ID
	m.mu.Unlock()

	if err := m.store.SetRoomStatus(roomID, engine.RoomPlaying); err != nil {
		m.log.Warnf("manager: set room %s to PLAYING: %v", roomID, err)
	}

	view := m.buildLiveHandView(runtime, "")
	m.bus.PublishRoom(events.Event{
		Type: events.TypeHandStarted, HandID: hand.ID, RoomID: roomID, Timestamp: m.clock(),
		Payload: events.PayloadHandView{HandView: view},
	})
	for _, hp := range handPlayers {
		m.bus.PublishHoleCards(hp.UserID, events.Event{
			Type: events.TypeHandStarted, HandID: hand.ID, RoomID: roomID, Timestamp: m.clock(),
			Payload: events.PayloadHoleCards{HandID: hand.ID, Cards: cards.Codes(hp.HoleCards[:])},
		})
	}
	m.armSchedulerFor(runtime)

	return view, nil
}

// nextActiveSeatAfter returns the lowest active seat strictly greater
// than fromSeat, wrapping to the lowest active seat if none is
// greater.
func nextActiveSeatAfter(active []*engine.RoomPlayer, fromSeat int) int {
	best := -1
	min := -1
	for _, p := range active {
		if min < 0 || p.Seat < min {
			min = p.Seat
		}
		if p.Seat > fromSeat && (best < 0 || p.Seat < best) {
			best = p.Seat
		}
	}
	if best >= 0 {
		return best
	}
	return min
}

// ProcessAction is the external processAction operation.
func (m *Manager) ProcessAction(handID, playerID engine.ID, actionType engine.ActionType, amount int64) (*HandView, error) {
	unlock := m.handLocks.Lock(handID)
	defer unlock()

	m.mu.Lock()
	runtime := m.hands[handID]
	m.mu.Unlock()
	if runtime == nil {
		return nil, engine.NewError(engine.CodeHandNotFound, "hand %s has no active runtime", handID)
	}

	if _, err := runtime.ProcessAction(engine.ActionRequest{UserID: playerID, Type: actionType, Amount: amount}); err != nil {
		return nil, err
	}
	if m.scheduler != nil {
		m.scheduler.CancelTurn(handID)
	}

	reachedSettlement := false
	for runtime.RoundEnded() && !runtime.Hand.State.IsTerminal() {
		runtime.Advance()
		if runtime.Hand.State.IsTerminal() {
			reachedSettlement = true
		}
	}

	actions := runtime.DrainPending()

	var settleDeltas map[engine.ID]int64
	var sittingOut []engine.ID
	if reachedSettlement {
		settleDeltas = make(map[engine.ID]int64, len(runtime.Players))
		for _, p := range runtime.Players {
			settleDeltas[p.UserID] = p.WonAmount - p.BetTotal
			if p.Stack+p.WonAmount == 0 {
				sittingOut = append(sittingOut, p.UserID)
			}
		}
	}

	if err := m.store.SaveHandProgress(runtime.Hand, runtime.Players, actions, settleDeltas, sittingOut); err != nil {
		return nil, err
	}

	view := m.buildLiveHandView(runtime, "")
	m.publishActionEvents(runtime, playerID, actionType, amount, actions, reachedSettlement, view)

	if reachedSettlement {
		m.finishHand(runtime)
	} else {
		m.armSchedulerFor(runtime)
	}

	return view, nil
}

func (m *Manager) publishActionEvents(runtime *engine.HandRuntime, playerID engine.ID, actionType engine.ActionType, amount int64, drained []*engine.HandAction, settled bool, view *HandView) {
	hand := runtime.Hand
	now := m.clock()

	m.bus.PublishRoom(events.Event{
		Type: events.TypePlayerAction, HandID: hand.ID, RoomID: hand.RoomID, Timestamp: now,
		Payload: events.PayloadPlayerAction{UserID: playerID, ActionType: actionType, Amount: amount, HandView: view},
	})

	for _, a := range drained {
		switch a.ActionType {
		case engine.ActionDealFlop, engine.ActionDealTurn, engine.ActionDealRiver:
			m.bus.PublishRoom(events.Event{
				Type: events.TypeCommunityCards, HandID: hand.ID, RoomID: hand.RoomID, Timestamp: now,
				Payload: events.PayloadCommunityCards{Cards: cards.Codes(hand.CommunityCards)},
			})
			m.bus.PublishRoom(events.Event{
				Type: events.TypeStateChanged, HandID: hand.ID, RoomID: hand.RoomID, Timestamp: now,
				Payload: events.PayloadHandView{HandView: view},
			})
		case engine.ActionShowdown:
			m.bus.PublishRoom(events.Event{
				Type: events.TypeShowdown, HandID: hand.ID, RoomID: hand.RoomID, Timestamp: now,
				Payload: events.PayloadHandView{HandView: view},
			})
		}
	}

	if settled {
		m.bus.PublishRoom(events.Event{
			Type: events.TypeHandSettled, HandID: hand.ID, RoomID: hand.RoomID, Timestamp: now,
			Payload: events.PayloadHandView{HandView: view},
		})
	}
}

// finishHand retires a settled hand's live runtime and arms the room's
// auto-start timer.
func (m *Manager) finishHand(runtime *engine.HandRuntime) {
	roomID := runtime.Hand.RoomID

	m.mu.Lock()
	delete(m.hands, runtime.Hand.ID)
	delete(m.roomActiveHand, roomID)
	m.mu.Unlock()

	if err := m.store.SetRoomStatus(roomID, engine.RoomWaiting); err != nil {
		m.log.Warnf("manager: set room %s to WAITING: %v", roomID, err)
	}

	if m.scheduler == nil {
		return
	}
	room, err := m.store.GetRoom(roomID)
	if err != nil {
		m.log.Warnf("manager: load room %s for auto-start: %v", roomID, err)
		return
	}
	m.scheduler.ScheduleAutoStart(roomID, room.AutoStartDelay)
}

// armSchedulerFor arms the turn timer for whoever must act next, or
// cancels it if no one does (terminal or auto-run state).
func (m *Manager) armSchedulerFor(runtime *engine.HandRuntime) {
	if m.scheduler == nil {
		return
	}
	current := runtime.CurrentUserID()
	if current.Empty() {
		m.scheduler.CancelTurn(runtime.Hand.ID)
		return
	}
	m.scheduler.ScheduleTurn(runtime.Hand.RoomID, runtime.Hand.ID, current)
	m.bus.PublishNotification(current, events.Event{
		Type: events.TypeYourTurn, HandID: runtime.Hand.ID, RoomID: runtime.Hand.RoomID, Timestamp: m.clock(),
		Payload: events.PayloadYourTurn{UserID: current},
	})
}

// AutoActOnTimeout implements scheduler.ActionExecutor: on a
// turn timer's expiry, always auto-fold. A rejection because the
// player already acted (the human beat the timer) is swallowed and
// logged.
func (m *Manager) AutoActOnTimeout(roomID, handID, userID engine.ID) error {
	_, err := m.ProcessAction(handID, userID, engine.ActionFold, 0)
	if err == nil {
		return nil
	}
	if _, ok := engine.AsError(err); ok {
		m.log.Infof("scheduler: auto-fold for %s on hand %s swallowed: %v", userID, handID, err)
		return nil
	}
	return err
}

// GetCurrentPlayerId returns whose turn it is on handID, or "" if no
// one needs to act.
func (m *Manager) GetCurrentPlayerId(handID engine.ID) (engine.ID, error) {
	m.mu.Lock()
	runtime := m.hands[handID]
	m.mu.Unlock()
	if runtime == nil {
		return "", nil
	}
	return runtime.CurrentUserID(), nil
}

// GetHand is the external getHand operation: a card-visibility-
// filtered HandView for requestingUserID, built from the live runtime
// if the hand is still in play, or from the three-query store path
// (hand, hand players, room players) once it has settled.
func (m *Manager) GetHand(handID, requestingUserID engine.ID) (*HandView, error) {
	m.mu.Lock()
	runtime := m.hands[handID]
	m.mu.Unlock()
	if runtime != nil {
		return m.buildLiveHandView(runtime, requestingUserID), nil
	}

	hand, err := m.store.GetHand(handID)
	if err != nil {
		return nil, err
	}

	var players []*engine.HandPlayer
	var roomPlayers []*engine.RoomPlayer
	g, _ := errgroup.WithContext(context.Background())
	g.Go(func() error {
		var err error
		players, err = m.store.ListHandPlayers(handID)
		return err
	})
	g.Go(func() error {
		var err error
		roomPlayers, err = m.store.ListRoomPlayers(hand.RoomID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byUser := make(map[engine.ID]*engine.RoomPlayer, len(roomPlayers))
	for _, rp := range roomPlayers {
		byUser[rp.UserID] = rp
	}
	return m.buildPersistedHandView(requestingUserID, hand, players, byUser), nil
}

// RecordHeartbeat is the external recordHeartbeat operation.
func (m *Manager) RecordHeartbeat(roomID, userID engine.ID) {
	m.presence.RecordHeartbeat(roomID, userID)
}

// GetActions is the external getActions operation.
func (m *Manager) GetActions(handID engine.ID) ([]ActionView, error) {
	actions, err := m.store.ListHandActions(handID)
	if err != nil {
		return nil, err
	}
	out := make([]ActionView, len(actions))
	for i, a := range actions {
		out[i] = ActionView{
			UserID:      a.UserID,
			ActionType:  a.ActionType,
			Amount:      a.Amount,
			HandState:   a.HandState,
			SequenceNum: a.SequenceNum,
			CreatedAt:   a.CreatedAt,
		}
	}
	return out, nil
}
