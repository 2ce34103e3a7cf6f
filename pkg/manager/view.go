package manager

import (
	"time"

	"github.com/vctt94/holdemcore/pkg/cards"
	"github.com/vctt94/holdemcore/pkg/engine"
)

// PlayerView is one player's row in a HandView.
type PlayerView struct {
	UserID    engine.ID
	Nickname  string // no identity store exists in this core; echoes UserID
	Seat      int
	Stack     int64
	Status    engine.HandPlayerStatus
	BetTotal  int64
	WonAmount int64
	HoleCards []string // nil unless visible to the requester
}

// HandView is the external, card-visibility-filtered projection of a
// Hand. It is a plain value, never shared or mutated after
// construction, so a caller can safely hand it to the event bus and to
// an RPC response at the same time.
type HandView struct {
	HandID          engine.ID
	RoomID          engine.ID
	HandNumber      int64
	State           engine.HandState
	CommunityCards  []string
	PotTotal        int64
	CurrentPlayerID engine.ID
	Players         []PlayerView
}

// ActionView is one row of a hand's action log.
type ActionView struct {
	UserID      engine.ID
	ActionType  engine.ActionType
	Amount      int64
	HandState   engine.HandState
	SequenceNum int64
	CreatedAt   time.Time
}

// cardsVisibleTo implements the hole-card visibility rule: the requester always
// sees their own hole cards; anyone sees a non-folded player's cards
// once the hand reaches SHOWDOWN or SETTLEMENT; folded players' cards
// are never revealed to anyone but themselves. showedDown is false for
// a hand that settled on a walk-over: the uncontested winner's cards
// stay hidden even though the hand is SETTLEMENT.
func cardsVisibleTo(requestingUserID, ownerUserID engine.ID, state engine.HandState, folded, showedDown bool) bool {
	if requestingUserID != "" && requestingUserID == ownerUserID {
		return true
	}
	if folded || !showedDown {
		return false
	}
	return state == engine.HandShowdown || state == engine.HandSettlement
}

// buildLiveHandView projects an in-memory HandRuntime into a HandView,
// filtering hole cards for requestingUserID. requestingUserID may be ""
// for a system-internal call (e.g. feeding the event bus), which shows
// no one's cards except at SHOWDOWN/SETTLEMENT.
func (m *Manager) buildLiveHandView(runtime *engine.HandRuntime, requestingUserID engine.ID) *HandView {
	hand := runtime.Hand
	view := &HandView{
		HandID:          hand.ID,
		RoomID:          hand.RoomID,
		HandNumber:      hand.HandNumber,
		State:           hand.State,
		CommunityCards:  cards.Codes(hand.CommunityCards),
		PotTotal:        hand.PotTotal,
		CurrentPlayerID: runtime.CurrentUserID(),
		Players:         make([]PlayerView, len(runtime.Players)),
	}
	for i, p := range runtime.Players {
		view.Players[i] = m.playerView(p, hand.State, requestingUserID)
	}
	return view
}

// buildPersistedHandView projects a settled (no-longer-live) hand from
// the store, for getHand calls against a hand whose runtime has already
// been retired.
func (m *Manager) buildPersistedHandView(requestingUserID engine.ID, hand *engine.Hand, players []*engine.HandPlayer, roomPlayers map[engine.ID]*engine.RoomPlayer) *HandView {
	view := &HandView{
		HandID:          hand.ID,
		RoomID:          hand.RoomID,
		HandNumber:      hand.HandNumber,
		State:           hand.State,
		CommunityCards:  cards.Codes(hand.CommunityCards),
		PotTotal:        hand.PotTotal,
		CurrentPlayerID: "",
		Players:         make([]PlayerView, len(players)),
	}
	for i, p := range players {
		// HandPlayer.Stack is process-local and never persisted (types.go);
		// a hand loaded back from the store always takes its stack from
		// the Room Player row, post-credit and authoritative once settled.
		pv := m.playerView(p, hand.State, requestingUserID)
		pv.Stack = 0
		if rp, ok := roomPlayers[p.UserID]; ok {
			pv.Stack = rp.Stack
		}
		view.Players[i] = pv
	}
	return view
}

func (m *Manager) playerView(p *engine.HandPlayer, state engine.HandState, requestingUserID engine.ID) PlayerView {
	pv := PlayerView{
		UserID:    p.UserID,
		Nickname:  string(p.UserID),
		Seat:      p.Seat,
		Stack:     p.Stack,
		Status:    p.Status,
		BetTotal:  p.BetTotal,
		WonAmount: p.WonAmount,
	}
	showedDown := p.BestHandCategory != ""
	if cardsVisibleTo(requestingUserID, p.UserID, state, p.Status == engine.HandPlayerFolded, showedDown) {
		pv.HoleCards = cards.Codes(p.HoleCards[:])
	}
	return pv
}
