// Package events fans out typed game events to room and per-user
// subscribers. Delivery is buffered and best-effort, so a slow
// subscriber never stalls the hand transaction that produced the
// event, and each event type carries its own payload struct rather
// than an untyped map.
package events

import (
	"sync"
	"time"

	"github.com/decred/slog"

	"github.com/vctt94/holdemcore/pkg/engine"
)

// Type identifies one of the outbound event kinds.
type Type string

const (
	TypeHandStarted     Type = "HAND_STARTED"
	TypePlayerAction    Type = "PLAYER_ACTION"
	TypeStateChanged    Type = "STATE_CHANGED"
	TypeCommunityCards  Type = "COMMUNITY_CARDS"
	TypeShowdown        Type = "SHOWDOWN"
	TypeHandSettled     Type = "HAND_SETTLED"
	TypePlayerJoined    Type = "PLAYER_JOINED"
	TypePlayerLeft      Type = "PLAYER_LEFT"
	TypeYourTurn        Type = "YOUR_TURN"
)

// Event is one outbound broadcast: a typed payload plus the envelope
// fields every event carries.
type Event struct {
	Type      Type
	HandID    engine.ID
	RoomID    engine.ID
	Timestamp time.Time
	Payload   any // one of the Payload* types below, matching Type
}

// PayloadHandView is the shape carried by HAND_STARTED, STATE_CHANGED,
// SHOWDOWN and HAND_SETTLED; callers fill it from a manager.HandView.
type PayloadHandView struct {
	HandView any
}

// PayloadPlayerAction accompanies PLAYER_ACTION.
type PayloadPlayerAction struct {
	UserID     engine.ID
	ActionType engine.ActionType
	Amount     int64
	HandView   any
}

// PayloadCommunityCards accompanies COMMUNITY_CARDS.
type PayloadCommunityCards struct {
	Cards []string
}

// PayloadYourTurn accompanies YOUR_TURN, delivered to a single user's
// notifications queue.
type PayloadYourTurn struct {
	UserID engine.ID
}

// PayloadHoleCards is delivered to a single user's private cards queue
// on hand start.
type PayloadHoleCards struct {
	HandID engine.ID
	Cards  []string
}

// PayloadPlayerPresence accompanies PLAYER_JOINED / PLAYER_LEFT.
type PayloadPlayerPresence struct {
	UserID engine.ID
	Seat   int
}

// Subscriber receives events off a buffered channel. The publisher
// never blocks on a slow subscriber past the channel's buffer; once
// full, new events to that subscriber are dropped and logged.
type Subscriber struct {
	ch chan Event
}

// Events returns the channel to range over for delivery.
func (s *Subscriber) Events() <-chan Event { return s.ch }

// Bus is the process-wide event fan-out: one broadcast channel per
// room (game/chat/emoji collapse to a single typed stream here, since
// chat/emoji have no persistence of their own here) and one private
// queue per user for hole cards and turn notices.
type Bus struct {
	log slog.Logger

	mu          sync.Mutex
	roomSubs    map[engine.ID]map[*Subscriber]struct{}
	cardsSubs   map[engine.ID]map[*Subscriber]struct{}
	notifySubs  map[engine.ID]map[*Subscriber]struct{}
}

// NewBus creates an event bus. log may be logging.Disabled() in tests.
func NewBus(log slog.Logger) *Bus {
	return &Bus{
		log:        log,
		roomSubs:   make(map[engine.ID]map[*Subscriber]struct{}),
		cardsSubs:  make(map[engine.ID]map[*Subscriber]struct{}),
		notifySubs: make(map[engine.ID]map[*Subscriber]struct{}),
	}
}

const subscriberBuffer = 32

// SubscribeRoom registers a subscriber for every event published to
// roomID. Call Unsubscribe when the caller disconnects.
func (b *Bus) SubscribeRoom(roomID engine.ID) *Subscriber {
	return b.subscribe(b.roomSubs, roomID)
}

// SubscribeCards registers a subscriber for userID's private hole-card
// deliveries.
func (b *Bus) SubscribeCards(userID engine.ID) *Subscriber {
	return b.subscribe(b.cardsSubs, userID)
}

// SubscribeNotifications registers a subscriber for userID's your-turn
// pings.
func (b *Bus) SubscribeNotifications(userID engine.ID) *Subscriber {
	return b.subscribe(b.notifySubs, userID)
}

func (b *Bus) subscribe(set map[engine.ID]map[*Subscriber]struct{}, key engine.ID) *Subscriber {
	b.mu.Lock()
	defer b.mu.Unlock()

	sub := &Subscriber{ch: make(chan Event, subscriberBuffer)}
	if set[key] == nil {
		set[key] = make(map[*Subscriber]struct{})
	}
	set[key][sub] = struct{}{}
	return sub
}

// UnsubscribeRoom removes sub from roomID's broadcast set.
func (b *Bus) UnsubscribeRoom(roomID engine.ID, sub *Subscriber) {
	b.unsubscribe(b.roomSubs, roomID, sub)
}

// UnsubscribeCards removes sub from userID's cards queue.
func (b *Bus) UnsubscribeCards(userID engine.ID, sub *Subscriber) {
	b.unsubscribe(b.cardsSubs, userID, sub)
}

// UnsubscribeNotifications removes sub from userID's notifications queue.
func (b *Bus) UnsubscribeNotifications(userID engine.ID, sub *Subscriber) {
	b.unsubscribe(b.notifySubs, userID, sub)
}

func (b *Bus) unsubscribe(set map[engine.ID]map[*Subscriber]struct{}, key engine.ID, sub *Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if m, ok := set[key]; ok {
		delete(m, sub)
	}
}

// PublishRoom broadcasts ev to every subscriber of ev.RoomID. Best
// effort: a full subscriber channel drops the event and logs;
// publishing never fails the operation that produced the event.
func (b *Bus) PublishRoom(ev Event) {
	b.mu.Lock()
	subs := make([]*Subscriber, 0, len(b.roomSubs[ev.RoomID]))
	for sub := range b.roomSubs[ev.RoomID] {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		b.deliver(sub, ev)
	}
}

// PublishHoleCards delivers a player's hole cards privately.
func (b *Bus) PublishHoleCards(userID engine.ID, ev Event) {
	b.publishPrivate(b.cardsSubs, userID, ev)
}

// PublishNotification delivers a your-turn ping privately.
func (b *Bus) PublishNotification(userID engine.ID, ev Event) {
	b.publishPrivate(b.notifySubs, userID, ev)
}

func (b *Bus) publishPrivate(set map[engine.ID]map[*Subscriber]struct{}, key engine.ID, ev Event) {
	b.mu.Lock()
	subs := make([]*Subscriber, 0, len(set[key]))
	for sub := range set[key] {
		subs = append(subs, sub)
	}
	b.mu.Unlock()

	for _, sub := range subs {
		b.deliver(sub, ev)
	}
}

func (b *Bus) deliver(sub *Subscriber, ev Event) {
	select {
	case sub.ch <- ev:
	default:
		if b.log != nil {
			b.log.Warnf("events: subscriber queue full, dropping %s for hand %s", ev.Type, ev.HandID)
		}
	}
}
