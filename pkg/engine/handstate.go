package engine

import (
	"time"

	"github.com/vctt94/holdemcore/pkg/cards"
	"github.com/vctt94/holdemcore/pkg/evaluator"
	"github.com/vctt94/holdemcore/pkg/statemachine"
)

// StateFn is one step of the hand's street sequence: each entry
// function acts on the HandRuntime and returns the next street's
// entry, nil once the hand has settled.
type StateFn = statemachine.StateFn[HandRuntime]

// HandRuntime is the in-memory working set the Hand State Machine
// operates on for the lifetime of one hand: the persisted Hand and its
// players, the deck backing further deals, and the current street's
// BettingRound. pkg/manager constructs one per active hand, mutates it
// via ProcessAction/StartPreFlop, and persists the result after each
// call.
type HandRuntime struct {
	Hand       *Hand
	Players    []*HandPlayer // ACTIVE-at-start-of-hand room players, in seat order
	Deck       *cards.Deck
	Betting    *BettingRound
	ButtonSeat int
	NumSeats   int

	// Awards is populated once the hand reaches SETTLEMENT; Award is
	// defined in showdown.go, shared between the normal-showdown and
	// fast-forward settlement paths.
	Awards []Award

	// clock and seq are injected so tests can control timestamps and
	// sequence numbering deterministically.
	clock func() time.Time
	seq   func() int64

	sm *statemachine.StateMachine[HandRuntime]

	// pending accumulates hand actions emitted by dealer events (blind
	// posts, deals, showdown, settle) during the most recent call into
	// the state machine; the caller drains it after each call.
	pending []*HandAction
}

// NewHandRuntime builds the runtime for a hand about to enter PRE_FLOP.
// buttonSeat is the dealer seat; numSeats is the room's configured seat
// count, used for showdown odd-chip ordering.
func NewHandRuntime(h *Hand, players []*HandPlayer, deck *cards.Deck, buttonSeat, numSeats int, clock func() time.Time, seq func() int64) *HandRuntime {
	r := &HandRuntime{
		Hand:       h,
		Players:    players,
		Deck:       deck,
		ButtonSeat: buttonSeat,
		NumSeats:   numSeats,
		clock:      clock,
		seq:        seq,
	}
	r.sm = statemachine.New(r, stateFlopEntry)
	return r
}

// DrainPending returns and clears the hand actions emitted since the
// last call, for the caller to persist.
func (r *HandRuntime) DrainPending() []*HandAction {
	out := r.pending
	r.pending = nil
	return out
}

func (r *HandRuntime) emit(userID ID, actionType ActionType, amount int64) {
	r.pending = append(r.pending, &HandAction{
		HandID:      r.Hand.ID,
		UserID:      userID,
		ActionType:  actionType,
		Amount:      amount,
		HandState:   r.Hand.State,
		SequenceNum: r.seq(),
		CreatedAt:   r.clock(),
	})
}

// PlayerByUserID finds a hand player by user id.
func (r *HandRuntime) PlayerByUserID(userID ID) *HandPlayer {
	for _, p := range r.Players {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

// SeatOf implements the SeatOf type needed by the showdown resolver.
func (r *HandRuntime) SeatOf(userID ID) int {
	if p := r.PlayerByUserID(userID); p != nil {
		return p.Seat
	}
	return -1
}

func (r *HandRuntime) seatStatuses() []SeatStatus {
	out := make([]SeatStatus, len(r.Players))
	for i, p := range r.Players {
		out[i] = SeatStatus{
			UserID: p.UserID,
			Seat:   p.Seat,
			Folded: p.Status == HandPlayerFolded,
			AllIn:  p.Status == HandPlayerAllIn,
		}
	}
	return out
}

// seatAfter returns the index into r.Players of the first seat after
// fromSeat (clockwise) that is neither folded nor all-in. If none
// qualify it returns -1.
func (r *HandRuntime) seatAfter(fromSeat int) int {
	n := len(r.Players)
	if n == 0 {
		return -1
	}
	// Players are stored in ascending seat order but seat numbers may
	// skip empty seats, so search by relative position, not arithmetic
	// on seat number.
	startIdx := 0
	for i, p := range r.Players {
		if p.Seat > fromSeat {
			startIdx = i
			break
		}
		startIdx = (i + 1) % n
	}
	for i := 0; i < n; i++ {
		idx := (startIdx + i) % n
		p := r.Players[idx]
		if p.Status != HandPlayerFolded && p.Status != HandPlayerAllIn {
			return idx
		}
	}
	return -1
}

// StartPreFlop runs the PRE_FLOP entry transition: deals hole
// cards, posts blinds, and opens the first betting round. Called once
// by pkg/manager immediately after constructing the HandRuntime; it is
// not reached via Step because no earlier street precedes it.
func (r *HandRuntime) StartPreFlop() error {
	r.Hand.State = HandPreFlop

	for _, p := range r.Players {
		dealt, err := r.Deck.Deal(2)
		if err != nil {
			return err
		}
		p.HoleCards[0] = dealt[0]
		p.HoleCards[1] = dealt[1]
	}

	sbIdx := r.seatAfter(r.ButtonSeat)
	if len(r.Players) == 2 {
		// Heads-up: the button posts the small blind and acts first
		// pre-flop.
		sbIdx = -1
		for i, p := range r.Players {
			if p.Seat == r.ButtonSeat {
				sbIdx = i
				break
			}
		}
	}
	if sbIdx < 0 {
		sbIdx = 0
	}
	bbIdx := (sbIdx + 1) % len(r.Players)

	r.postBlind(r.Players[sbIdx], ActionSmallBlind, r.Hand.SmallBlind)
	r.postBlind(r.Players[bbIdx], ActionBigBlind, r.Hand.BigBlind)

	firstToAct := (bbIdx + 1) % len(r.Players)
	if len(r.Players) == 2 {
		firstToAct = sbIdx
	}

	r.Betting = NewBettingRound(r.seatStatuses(), r.Hand.BigBlind, r.Hand.BigBlind)
	r.rotateBettingTo(firstToAct)
	return nil
}

func (r *HandRuntime) postBlind(p *HandPlayer, actionType ActionType, amount int64) {
	committed := amount
	if committed > p.Stack {
		committed = p.Stack
	}
	p.Stack -= committed
	p.StreetBet += committed
	p.BetTotal += committed
	r.Hand.PotTotal += committed
	if committed < amount {
		p.Status = HandPlayerAllIn
	}
	r.emit(p.UserID, actionType, committed)
}

// rotateBettingTo repositions the betting round's current seat to the
// Players-index idx by walking BettingRound's internal cursor there.
func (r *HandRuntime) rotateBettingTo(idx int) {
	if idx < 0 || idx >= len(r.Players) {
		return
	}
	r.Betting.currentIdx = idx
}

// ProcessAction validates and applies one player action, returning the
// Applied bookkeeping. Advancing the state machine afterward is the
// caller's responsibility: check RoundEnded and call Advance in a loop
// so one processAction call can chain through an arbitrary number of
// auto-dealt streets when every remaining player is all-in.
func (r *HandRuntime) ProcessAction(req ActionRequest) (*Applied, error) {
	player := r.PlayerByUserID(req.UserID)
	if player == nil {
		return nil, NewError(CodeNotInRoom, "user %s is not in this hand", req.UserID)
	}

	current := r.Betting.CurrentUserID()
	snapshot := PlayerSnapshot{
		UserID:    player.UserID,
		Status:    player.Status,
		StreetBet: player.StreetBet,
		Stack:     player.Stack,
	}
	if err := Validate(req, current, snapshot, r.Betting.BetToMatch(), r.Betting.LastRaiseSize(), r.Hand.BigBlind); err != nil {
		return nil, err
	}

	applied := r.Betting.Apply(player.UserID, req.Type, req.Amount, player.StreetBet, player.Stack)

	player.Stack -= applied.Committed
	player.StreetBet = applied.NewStreetBet
	player.BetTotal += applied.Committed
	r.Hand.PotTotal += applied.Committed
	if applied.BecameAllIn {
		player.Status = HandPlayerAllIn
	}
	if req.Type == ActionFold {
		player.Status = HandPlayerFolded
	}

	// Log the chips that actually moved: a CALL or ALL_IN request carries
	// no meaningful amount of its own, and CHECK/FOLD move nothing.
	logged := req.Amount
	switch req.Type {
	case ActionCall, ActionAllIn:
		logged = applied.Committed
	case ActionCheck, ActionFold:
		logged = 0
	}
	r.emit(player.UserID, req.Type, logged)
	return &applied, nil
}

// CurrentUserID returns whose turn it is, or the zero ID if no one
// needs to act right now.
func (r *HandRuntime) CurrentUserID() ID {
	if r.Hand.State.IsTerminal() || r.Betting == nil {
		return ""
	}
	if r.Betting.ActiveNonFolded() <= 1 {
		return ""
	}
	return r.Betting.CurrentUserID()
}

// RoundEnded reports whether the current street's betting is over.
func (r *HandRuntime) RoundEnded() bool {
	return r.Betting.RoundEnded(func(id ID) int64 {
		if p := r.PlayerByUserID(id); p != nil {
			return p.StreetBet
		}
		return 0
	})
}

// Advance drives the state machine forward one street (or straight to
// settlement, on a fast-forward or post-showdown tail call). The
// caller loops: apply one action, and while RoundEnded() holds, call
// Advance and re-check RoundEnded on the resulting street, to auto-run
// remaining streets when every live player is all-in.
func (r *HandRuntime) Advance() {
	r.sm.Step(nil)
}

func stateFlopEntry(r *HandRuntime, cb func(string, statemachine.StateEvent)) StateFn {
	if done := r.settleIfFastForward(); done {
		return nil
	}
	r.dealStreet(HandFlop, 3, ActionDealFlop)
	if cb != nil {
		cb("FLOP", statemachine.StateEntered)
	}
	return stateTurnEntry
}

func stateTurnEntry(r *HandRuntime, cb func(string, statemachine.StateEvent)) StateFn {
	if done := r.settleIfFastForward(); done {
		return nil
	}
	r.dealStreet(HandTurn, 1, ActionDealTurn)
	if cb != nil {
		cb("TURN", statemachine.StateEntered)
	}
	return stateRiverEntry
}

func stateRiverEntry(r *HandRuntime, cb func(string, statemachine.StateEvent)) StateFn {
	if done := r.settleIfFastForward(); done {
		return nil
	}
	r.dealStreet(HandRiver, 1, ActionDealRiver)
	if cb != nil {
		cb("RIVER", statemachine.StateEntered)
	}
	return stateShowdownEntry
}

func stateShowdownEntry(r *HandRuntime, cb func(string, statemachine.StateEvent)) StateFn {
	if done := r.settleIfFastForward(); done {
		return nil
	}
	r.Hand.State = HandShowdown
	r.runShowdown()
	r.emit("", ActionShowdown, 0)
	if cb != nil {
		cb("SHOWDOWN", statemachine.StateEntered)
	}
	return stateSettlementEntry(r, cb)
}

func stateSettlementEntry(r *HandRuntime, cb func(string, statemachine.StateEvent)) StateFn {
	r.Hand.State = HandSettlement
	r.Hand.SettledAt = r.clock()
	r.emit("", ActionSettle, 0)
	if cb != nil {
		cb("SETTLEMENT", statemachine.StateEntered)
	}
	return nil
}

// dealStreet deals n community cards, resets street bets, and opens a
// fresh BettingRound starting with the first non-folded, non-all-in
// seat after the button.
func (r *HandRuntime) dealStreet(state HandState, n int, actionType ActionType) {
	r.Hand.State = state
	dealt, err := r.Deck.Deal(n)
	if err != nil {
		// The deck holds 52 cards minus at most 2*9 hole cards (18) and
		// up to 5 community cards; dealing the river can never exhaust
		// it for a legally-sized room, so this indicates a programming
		// error upstream rather than a recoverable condition.
		panic(err)
	}
	r.Hand.CommunityCards = append(r.Hand.CommunityCards, dealt...)
	r.emit("", actionType, 0)

	for _, p := range r.Players {
		p.StreetBet = 0
	}
	startIdx := r.seatAfter(r.ButtonSeat)
	r.Betting = NewBettingRound(r.seatStatuses(), 0, r.Hand.BigBlind)
	if startIdx >= 0 {
		r.rotateBettingTo(startIdx)
	}
}

// settleIfFastForward implements the fast-forward rule: if at most
// one player remains un-folded, that player wins the pot outright and
// the hand jumps straight to SETTLEMENT without a showdown, their hole
// cards staying hidden.
func (r *HandRuntime) settleIfFastForward() bool {
	var remaining []*HandPlayer
	for _, p := range r.Players {
		if p.Status != HandPlayerFolded {
			remaining = append(remaining, p)
		}
	}
	if len(remaining) > 1 {
		return false
	}

	var winner *HandPlayer
	if len(remaining) == 1 {
		winner = remaining[0]
	} else {
		// Every player folded is not reachable in normal play (folding
		// to zero means the hand already settled one fold earlier),
		// but guard deterministically anyway.
		winner = r.firstAfterButton()
	}
	if winner != nil {
		winner.WonAmount = r.Hand.PotTotal
		r.Awards = []Award{{UserID: winner.UserID, Amount: r.Hand.PotTotal}}
	}
	stateSettlementEntry(r, nil)
	return true
}

func (r *HandRuntime) firstAfterButton() *HandPlayer {
	idx := r.seatAfter(r.ButtonSeat)
	if idx < 0 {
		return nil
	}
	return r.Players[idx]
}

// runShowdown resolves the showdown: compute pots from each player's
// BetTotal, evaluate every non-folded hand, and resolve each pot to
// its eligible winner(s).
func (r *HandRuntime) runShowdown() {
	contributions := make([]Contribution, len(r.Players))
	results := make(map[ID]evaluator.Result)
	folded := make(map[ID]bool)

	for i, p := range r.Players {
		folded[p.UserID] = p.Status == HandPlayerFolded
		contributions[i] = Contribution{UserID: p.UserID, BetTotal: p.BetTotal, Folded: folded[p.UserID]}

		if !folded[p.UserID] {
			all := append([]cards.Card{p.HoleCards[0], p.HoleCards[1]}, r.Hand.CommunityCards...)
			result, err := evaluator.Evaluate(all)
			if err != nil {
				panic(err)
			}
			results[p.UserID] = result
			p.BestHandCategory = result.Category.String()
			p.BestHandCards = append([]cards.Card(nil), result.Best[:]...)
		}
	}

	pots := ComputePots(contributions)
	awards := Resolve(pots, results, folded, r.SeatOf, r.ButtonSeat, r.NumSeats)
	r.Awards = awards

	byUser := make(map[ID]int64, len(awards))
	for _, a := range awards {
		byUser[a.UserID] = a.Amount
	}
	for _, p := range r.Players {
		p.WonAmount = byUser[p.UserID]
	}
}
