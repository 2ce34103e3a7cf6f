package engine

// SeatStatus is the subset of a player's state the betting round needs
// to reason about turn order.
type SeatStatus struct {
	UserID ID
	Seat   int
	Folded bool
	AllIn  bool
}

// BettingRound tracks one street's action: the bet every player must
// match, the size of the last raise (for minimum-raise enforcement),
// whose turn it is, who has acted, and each player's street bet.
type BettingRound struct {
	seats          []SeatStatus // seat order, clockwise
	betToMatch     int64
	lastRaiseSize  int64
	currentIdx     int // index into seats of the player to act
	actedThisRound map[ID]bool
}

// NewBettingRound starts a street with seats in clockwise order, the
// turn cursor on the first of them (HandRuntime then moves it to the
// player who should act first), and the bet-to-match / minimum-raise
// already set (e.g. BB at pre-flop entry, 0 post-flop).
func NewBettingRound(seats []SeatStatus, betToMatch, lastRaiseSize int64) *BettingRound {
	return &BettingRound{
		seats:          seats,
		betToMatch:     betToMatch,
		lastRaiseSize:  lastRaiseSize,
		actedThisRound: make(map[ID]bool),
	}
}

// BetToMatch returns the current street's bet to match.
func (b *BettingRound) BetToMatch() int64 { return b.betToMatch }

// LastRaiseSize returns the size of the last raise this street, used
// to enforce the minimum raise increment.
func (b *BettingRound) LastRaiseSize() int64 { return b.lastRaiseSize }

// CurrentUserID returns whose turn it is, or the zero ID if no seat
// remains to act (every remaining seat is folded or all-in).
func (b *BettingRound) CurrentUserID() ID {
	if idx := b.findNextActable(b.currentIdx, true); idx >= 0 {
		return b.seats[idx].UserID
	}
	return ""
}

// findNextActable finds the next seat index (optionally including the
// current one) that is neither folded nor all-in.
func (b *BettingRound) findNextActable(from int, includeSelf bool) int {
	if len(b.seats) == 0 {
		return -1
	}
	start := from
	if !includeSelf {
		start = from + 1
	}
	for i := 0; i < len(b.seats); i++ {
		idx := (start + i) % len(b.seats)
		s := b.seats[idx]
		if !s.Folded && !s.AllIn {
			return idx
		}
	}
	return -1
}

// ActiveNonFolded reports how many seats have not folded.
func (b *BettingRound) ActiveNonFolded() int {
	n := 0
	for _, s := range b.seats {
		if !s.Folded {
			n++
		}
	}
	return n
}

// setFolded/setAllIn update a seat's status after an action is applied.
func (b *BettingRound) setFolded(userID ID) {
	for i := range b.seats {
		if b.seats[i].UserID == userID {
			b.seats[i].Folded = true
		}
	}
}

func (b *BettingRound) setAllIn(userID ID) {
	for i := range b.seats {
		if b.seats[i].UserID == userID {
			b.seats[i].AllIn = true
		}
	}
}

// Applied describes the bookkeeping effect of one validated action,
// used by the caller to update the HandPlayer row and hand pot total.
type Applied struct {
	NewStreetBet int64
	Committed    int64 // chips that moved from stack to pot this action
	BecameAllIn  bool
	ReopensRound bool
}

// Apply records a validated action's effect on the betting round and
// advances or resets the turn/acted-tracking state. currentBet is the
// acting player's street bet before this action; stack is their chip
// stack before this action.
func (b *BettingRound) Apply(userID ID, action ActionType, amount, currentBet, stack int64) Applied {
	applied := Applied{NewStreetBet: currentBet}

	switch action {
	case ActionCheck:
		b.actedThisRound[userID] = true

	case ActionCall:
		committed := b.betToMatch - currentBet
		if committed > stack {
			committed = stack
			applied.BecameAllIn = true
		}
		applied.Committed = committed
		applied.NewStreetBet = currentBet + committed
		b.actedThisRound[userID] = true
		if applied.BecameAllIn {
			b.setAllIn(userID)
		}

	case ActionRaise:
		raiseSize := amount - b.betToMatch
		applied.Committed = amount - currentBet
		applied.NewStreetBet = amount
		applied.ReopensRound = true
		b.betToMatch = amount
		b.lastRaiseSize = raiseSize
		b.actedThisRound = map[ID]bool{userID: true}
		if applied.Committed >= stack {
			applied.BecameAllIn = true
			b.setAllIn(userID)
		}

	case ActionAllIn:
		applied.Committed = stack
		applied.NewStreetBet = currentBet + stack
		applied.BecameAllIn = true
		b.setAllIn(userID)
		if applied.NewStreetBet >= b.betToMatch+maxInt64(b.lastRaiseSize, 1) {
			applied.ReopensRound = true
			b.lastRaiseSize = applied.NewStreetBet - b.betToMatch
			b.betToMatch = applied.NewStreetBet
			b.actedThisRound = map[ID]bool{userID: true}
		} else {
			if applied.NewStreetBet > b.betToMatch {
				b.betToMatch = applied.NewStreetBet
			}
			b.actedThisRound[userID] = true
		}

	case ActionFold:
		b.setFolded(userID)
		b.actedThisRound[userID] = true
	}

	b.advanceCurrent(userID)
	return applied
}

// advanceCurrent moves CurrentUserID past userID, clockwise, skipping
// folded and all-in seats.
func (b *BettingRound) advanceCurrent(userID ID) {
	for i, s := range b.seats {
		if s.UserID == userID {
			b.currentIdx = i
			break
		}
	}
	if idx := b.findNextActable(b.currentIdx, false); idx >= 0 {
		b.currentIdx = idx
	}
}

// RoundEnded reports whether the street is over: every non-folded,
// non-all-in seat has acted and matches betToMatch (or folded), or only
// one non-folded seat remains.
func (b *BettingRound) RoundEnded(streetBetOf func(ID) int64) bool {
	if b.ActiveNonFolded() <= 1 {
		return true
	}
	for _, s := range b.seats {
		if s.Folded || s.AllIn {
			continue
		}
		if !b.actedThisRound[s.UserID] {
			return false
		}
		if streetBetOf(s.UserID) != b.betToMatch {
			return false
		}
	}
	return true
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
