package cards

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
)

// Deck is a multiset of the 52 distinct cards plus a deal pointer.
// Cards before the pointer have been dealt; Shuffle resets the pointer
// to zero and reshuffles the full 52-card domain.
type Deck struct {
	cards []Card
	pos   int
	rng   *mrand.Rand
}

// NewDeck builds a deck seeded deterministically, for tests and for
// operators who pass --seed to reproduce a session.
func NewDeck(seed int64) *Deck {
	d := &Deck{rng: mrand.New(mrand.NewSource(seed))}
	d.reset()
	d.Shuffle()
	return d
}

// NewSecureDeck builds a deck seeded from a crypto-random source, the
// default for real play.
func NewSecureDeck() (*Deck, error) {
	var seedBytes [8]byte
	if _, err := rand.Read(seedBytes[:]); err != nil {
		return nil, fmt.Errorf("cards: seeding deck: %w", err)
	}
	seed := int64(binary.BigEndian.Uint64(seedBytes[:]))
	d := &Deck{rng: mrand.New(mrand.NewSource(seed))}
	d.reset()
	d.Shuffle()
	return d, nil
}

func (d *Deck) reset() {
	d.cards = make([]Card, 0, 52)
	for _, s := range AllSuits {
		for _, r := range AllRanks {
			d.cards = append(d.cards, Card{Rank: r, Suit: s})
		}
	}
	d.pos = 0
}

// Shuffle performs a uniform permutation of the full 52-card domain and
// resets the deal pointer to zero, discarding any prior deal/removeAll
// state.
func (d *Deck) Shuffle() {
	d.reset()
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Remaining returns how many undealt cards are left.
func (d *Deck) Remaining() int {
	return len(d.cards) - d.pos
}

// Deal returns n cards from the top of the deck and advances the deal
// pointer, failing if fewer than n cards remain.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 || d.Remaining() < n {
		return nil, fmt.Errorf("cards: cannot deal %d cards, %d remaining", n, d.Remaining())
	}
	out := make([]Card, n)
	copy(out, d.cards[d.pos:d.pos+n])
	d.pos += n
	return out, nil
}

// RemoveAll removes the given cards from the deck's domain and resets
// the deal pointer, used to set up known-card simulations (e.g. running
// out a board against a fixed set of hole cards).
func (d *Deck) RemoveAll(remove []Card) {
	excl := make(map[Card]struct{}, len(remove))
	for _, c := range remove {
		excl[c] = struct{}{}
	}

	kept := d.cards[d.pos:]
	filtered := make([]Card, 0, len(kept))
	for _, c := range kept {
		if _, skip := excl[c]; !skip {
			filtered = append(filtered, c)
		}
	}
	d.cards = filtered
	d.pos = 0
}
