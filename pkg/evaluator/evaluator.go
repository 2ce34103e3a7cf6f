// Package evaluator wraps the chehsunliu/poker 7-card hand evaluator,
// translating this project's Card type and producing a totally ordered
// Score suitable for showdown comparison.
package evaluator

import (
	"fmt"
	"sort"

	chehsunliu "github.com/chehsunliu/poker"
	"github.com/vctt94/holdemcore/pkg/cards"
)

// Category is one of the ten standard poker hand categories.
type Category int

const (
	HighCard Category = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

func (c Category) String() string {
	switch c {
	case HighCard:
		return "high card"
	case OnePair:
		return "one pair"
	case TwoPair:
		return "two pair"
	case ThreeOfAKind:
		return "three of a kind"
	case Straight:
		return "straight"
	case Flush:
		return "flush"
	case FullHouse:
		return "full house"
	case FourOfAKind:
		return "four of a kind"
	case StraightFlush:
		return "straight flush"
	case RoyalFlush:
		return "royal flush"
	default:
		return "unknown"
	}
}

// worstChehsunliuRank is the lowest-strength rank chehsunliu assigns
// (the 7462nd and final distinct 7-card hand strength, a seven-high).
const worstChehsunliuRank = 7462

// Result is one player's evaluated hand: its category, a score where
// larger always means better, and the 5 cards that produced it.
type Result struct {
	Category Category
	Score    int
	Best     [5]cards.Card
}

// Compare returns -1, 0, or 1 as a is worse than, ties, or beats b.
func Compare(a, b Result) int {
	switch {
	case a.Score < b.Score:
		return -1
	case a.Score > b.Score:
		return 1
	default:
		return 0
	}
}

// Evaluate scores the best 5-card hand from 5 to 7 cards (hole plus
// community). Any fewer than 5 or more than 7 cards is an error.
func Evaluate(cs []cards.Card) (Result, error) {
	if len(cs) < 5 || len(cs) > 7 {
		return Result{}, fmt.Errorf("evaluator: need 5-7 cards, got %d", len(cs))
	}

	libCards := make([]chehsunliu.Card, len(cs))
	for i, c := range cs {
		lc, err := toLib(c)
		if err != nil {
			return Result{}, err
		}
		libCards[i] = lc
	}

	rank := chehsunliu.Evaluate(libCards)
	score := worstChehsunliuRank + 1 - int(rank)
	category := categoryFor(rank)

	best, err := bestFive(cs, int32(rank))
	if err != nil {
		return Result{}, err
	}

	var out [5]cards.Card
	copy(out[:], best)
	return Result{Category: category, Score: score, Best: out}, nil
}

func categoryFor(rank int32) Category {
	if rank == 1 {
		return RoyalFlush
	}
	switch chehsunliu.RankClass(rank) {
	case 1:
		return StraightFlush
	case 2:
		return FourOfAKind
	case 3:
		return FullHouse
	case 4:
		return Flush
	case 5:
		return Straight
	case 6:
		return ThreeOfAKind
	case 7:
		return TwoPair
	case 8:
		return OnePair
	default:
		return HighCard
	}
}

func toLib(c cards.Card) (chehsunliu.Card, error) {
	var rankChar byte
	switch c.Rank {
	case cards.Two:
		rankChar = '2'
	case cards.Three:
		rankChar = '3'
	case cards.Four:
		rankChar = '4'
	case cards.Five:
		rankChar = '5'
	case cards.Six:
		rankChar = '6'
	case cards.Seven:
		rankChar = '7'
	case cards.Eight:
		rankChar = '8'
	case cards.Nine:
		rankChar = '9'
	case cards.Ten:
		rankChar = 'T'
	case cards.Jack:
		rankChar = 'J'
	case cards.Queen:
		rankChar = 'Q'
	case cards.King:
		rankChar = 'K'
	case cards.Ace:
		rankChar = 'A'
	default:
		return chehsunliu.Card(0), fmt.Errorf("evaluator: invalid rank %q", c.Rank)
	}

	var suitChar byte
	switch c.Suit {
	case cards.Spades:
		suitChar = 's'
	case cards.Hearts:
		suitChar = 'h'
	case cards.Diamonds:
		suitChar = 'd'
	case cards.Clubs:
		suitChar = 'c'
	default:
		return chehsunliu.Card(0), fmt.Errorf("evaluator: invalid suit %q", c.Suit)
	}

	return chehsunliu.NewCard(string([]byte{rankChar, suitChar})), nil
}

// bestFive finds which 5-card subset of cs produces the given rank.
// chehsunliu.Evaluate already maximizes over subsets internally but
// does not report which cards it used, so for 6- or 7-card inputs we
// replay every subset until one matches.
func bestFive(cs []cards.Card, wantRank int32) ([]cards.Card, error) {
	if len(cs) == 5 {
		return cs, nil
	}

	var best []cards.Card
	err := forEachCombination(cs, 5, func(combo []cards.Card) bool {
		libCombo := make([]chehsunliu.Card, 5)
		for i, c := range combo {
			lc, convErr := toLib(c)
			if convErr != nil {
				return true
			}
			libCombo[i] = lc
		}
		if chehsunliu.Evaluate(libCombo) == wantRank {
			best = append([]cards.Card(nil), combo...)
			return false
		}
		return true
	})
	if err != nil {
		return nil, err
	}
	if best == nil {
		return nil, fmt.Errorf("evaluator: no 5-card subset matched rank %d", wantRank)
	}
	return best, nil
}

// forEachCombination calls fn with every k-length combination of cs, in
// lexicographic index order, stopping early when fn returns false.
func forEachCombination(cs []cards.Card, k int, fn func([]cards.Card) bool) error {
	n := len(cs)
	if k > n || k <= 0 {
		return fmt.Errorf("evaluator: invalid combination size %d of %d", k, n)
	}

	indices := make([]int, k)
	for i := range indices {
		indices[i] = i
	}

	combo := make([]cards.Card, k)
	for {
		for i, idx := range indices {
			combo[i] = cs[idx]
		}
		if !fn(combo) {
			return nil
		}

		i := k - 1
		for i >= 0 && indices[i] == i+n-k {
			i--
		}
		if i < 0 {
			return nil
		}
		indices[i]++
		for j := i + 1; j < k; j++ {
			indices[j] = indices[j-1] + 1
		}
	}
}

// SortDescending sorts results best-first, used to rank multiple
// players' hands at showdown.
func SortDescending(results []Result) {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
}
