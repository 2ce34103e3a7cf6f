package engine

import (
	"time"

	"github.com/vctt94/holdemcore/pkg/cards"
)

// RoomStatus is the lifecycle state of a Room.
type RoomStatus string

const (
	RoomWaiting RoomStatus = "WAITING"
	RoomPlaying RoomStatus = "PLAYING"
	RoomClosed  RoomStatus = "CLOSED"
)

// Room is the configuration for a table.
type Room struct {
	ID              ID
	Name            string
	OwnerID         ID
	MaxSeats        int
	SmallBlind      int64
	BigBlind        int64
	MinBuyIn        int64
	MaxBuyIn        int64
	Status          RoomStatus
	InviteCode      string // case-insensitive, unique among non-CLOSED rooms
	AutoStartDelay  time.Duration
	CreatedAt       time.Time
}

// Validate checks the Room configuration invariants.
func (r *Room) Validate() error {
	if r.BigBlind != 2*r.SmallBlind {
		return NewError(CodeInvalidBlindRatio, "big blind %d must equal 2x small blind %d", r.BigBlind, r.SmallBlind)
	}
	if r.MinBuyIn <= 0 || r.MaxBuyIn < r.MinBuyIn {
		return NewError(CodeInvalidBuyInRange, "buy-in range [%d,%d] is empty or invalid", r.MinBuyIn, r.MaxBuyIn)
	}
	if r.MaxSeats < 2 || r.MaxSeats > 9 {
		return NewError(CodeInvalidBuyInRange, "max seats %d must be in [2,9]", r.MaxSeats)
	}
	return nil
}

// RoomPlayerStatus is the membership state of a seated player.
type RoomPlayerStatus string

const (
	RoomPlayerActive     RoomPlayerStatus = "ACTIVE"
	RoomPlayerLeft       RoomPlayerStatus = "LEFT"
	RoomPlayerSittingOut RoomPlayerStatus = "SITTING_OUT"
)

// RoomPlayer is a membership at a seat.
type RoomPlayer struct {
	RoomID ID
	UserID ID
	Seat   int
	Status RoomPlayerStatus
	Stack  int64
}

// HandState is a phase in the hand lifecycle.
type HandState string

const (
	HandWaiting    HandState = "WAITING"
	HandPreFlop    HandState = "PRE_FLOP"
	HandFlop       HandState = "FLOP"
	HandTurn       HandState = "TURN"
	HandRiver      HandState = "RIVER"
	HandShowdown   HandState = "SHOWDOWN"
	HandSettlement HandState = "SETTLEMENT"
)

// IsTerminal reports whether no further streets or betting can occur.
func (s HandState) IsTerminal() bool {
	return s == HandSettlement
}

// Hand is one dealt round.
type Hand struct {
	ID             ID
	RoomID         ID
	HandNumber     int64
	DealerSeat     int
	SmallBlind     int64
	BigBlind       int64
	CommunityCards []cards.Card
	PotTotal       int64
	State          HandState
	CreatedAt      time.Time
	SettledAt      time.Time
}

// HandPlayerStatus is a player's per-hand participation state.
type HandPlayerStatus string

const (
	HandPlayerActive HandPlayerStatus = "ACTIVE"
	HandPlayerFolded HandPlayerStatus = "FOLDED"
	HandPlayerAllIn  HandPlayerStatus = "ALL_IN"
)

// HandPlayer is one player's per-hand participation.
type HandPlayer struct {
	HandID    ID
	UserID    ID
	Seat      int
	HoleCards [2]cards.Card
	Status    HandPlayerStatus
	BetTotal  int64 // chips committed to this hand across all streets
	WonAmount int64 // credited at settlement

	// Per-street bookkeeping, reset at the start of each street. Not
	// part of the persisted snapshot's identity, but carried on the
	// same row because a hand only ever has one active street at a
	// time.
	StreetBet int64

	// Stack is the Room Player's chip stack not yet committed to this
	// hand. It mirrors the persisted RoomPlayer.Stack minus BetTotal and
	// is not itself a column: pkg/manager seeds it from the Room Player
	// row when building a HandRuntime and re-derives RoomPlayer.Stack
	// from it at settlement.
	Stack int64

	// BestHandCategory and BestHandCards are populated at showdown for
	// players who did not fold; empty otherwise.
	BestHandCategory string
	BestHandCards    []cards.Card
}

// ActionType is one entry kind in the hand's append-only action log.
type ActionType string

const (
	ActionSmallBlind ActionType = "SMALL_BLIND"
	ActionBigBlind   ActionType = "BIG_BLIND"
	ActionCheck      ActionType = "CHECK"
	ActionCall       ActionType = "CALL"
	ActionRaise      ActionType = "RAISE"
	ActionFold       ActionType = "FOLD"
	ActionAllIn      ActionType = "ALL_IN"
	ActionDealFlop   ActionType = "DEAL_FLOP"
	ActionDealTurn   ActionType = "DEAL_TURN"
	ActionDealRiver  ActionType = "DEAL_RIVER"
	ActionShowdown   ActionType = "SHOWDOWN"
	ActionSettle     ActionType = "SETTLE"
)

// IsPlayerAction reports whether a is something a player chooses to do,
// as opposed to a dealer/state-machine event.
func (a ActionType) IsPlayerAction() bool {
	switch a {
	case ActionCheck, ActionCall, ActionRaise, ActionFold, ActionAllIn:
		return true
	default:
		return false
	}
}

// HandAction is one append-only log entry. UserID is the zero ID
// for dealer events.
type HandAction struct {
	HandID      ID
	UserID      ID
	ActionType  ActionType
	Amount      int64
	HandState   HandState
	SequenceNum int64
	CreatedAt   time.Time
}
