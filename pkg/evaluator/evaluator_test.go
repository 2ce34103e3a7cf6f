package evaluator

import (
	"testing"

	"github.com/vctt94/holdemcore/pkg/cards"
)

func mustCard(t *testing.T, rank cards.Rank, suit cards.Suit) cards.Card {
	t.Helper()
	c, err := cards.New(rank, suit)
	if err != nil {
		t.Fatalf("cards.New(%s, %s): %v", rank, suit, err)
	}
	return c
}

func TestEvaluateCategories(t *testing.T) {
	tests := []struct {
		name    string
		seven   []cards.Card
		wantCat Category
	}{
		{
			name: "royal flush",
			seven: []cards.Card{
				mustCard(t, cards.Ace, cards.Hearts), mustCard(t, cards.King, cards.Hearts),
				mustCard(t, cards.Queen, cards.Hearts), mustCard(t, cards.Jack, cards.Hearts),
				mustCard(t, cards.Ten, cards.Hearts), mustCard(t, cards.Three, cards.Clubs),
				mustCard(t, cards.Four, cards.Diamonds),
			},
			wantCat: RoyalFlush,
		},
		{
			name: "straight flush",
			seven: []cards.Card{
				mustCard(t, cards.Nine, cards.Spades), mustCard(t, cards.Eight, cards.Spades),
				mustCard(t, cards.Seven, cards.Spades), mustCard(t, cards.Six, cards.Spades),
				mustCard(t, cards.Five, cards.Spades), mustCard(t, cards.Two, cards.Hearts),
				mustCard(t, cards.Three, cards.Diamonds),
			},
			wantCat: StraightFlush,
		},
		{
			name: "wheel straight ranks as a straight",
			seven: []cards.Card{
				mustCard(t, cards.Ace, cards.Spades), mustCard(t, cards.Two, cards.Hearts),
				mustCard(t, cards.Three, cards.Diamonds), mustCard(t, cards.Four, cards.Clubs),
				mustCard(t, cards.Five, cards.Spades), mustCard(t, cards.Nine, cards.Hearts),
				mustCard(t, cards.King, cards.Diamonds),
			},
			wantCat: Straight,
		},
		{
			name: "four of a kind",
			seven: []cards.Card{
				mustCard(t, cards.Nine, cards.Spades), mustCard(t, cards.Nine, cards.Hearts),
				mustCard(t, cards.Nine, cards.Diamonds), mustCard(t, cards.Nine, cards.Clubs),
				mustCard(t, cards.Two, cards.Hearts), mustCard(t, cards.Three, cards.Diamonds),
				mustCard(t, cards.Four, cards.Clubs),
			},
			wantCat: FourOfAKind,
		},
		{
			name: "high card",
			seven: []cards.Card{
				mustCard(t, cards.Two, cards.Spades), mustCard(t, cards.Four, cards.Hearts),
				mustCard(t, cards.Seven, cards.Diamonds), mustCard(t, cards.Nine, cards.Clubs),
				mustCard(t, cards.Jack, cards.Spades), mustCard(t, cards.King, cards.Hearts),
				mustCard(t, cards.Three, cards.Clubs),
			},
			wantCat: HighCard,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Evaluate(tt.seven)
			if err != nil {
				t.Fatalf("Evaluate: %v", err)
			}
			if got.Category != tt.wantCat {
				t.Errorf("category = %s, want %s", got.Category, tt.wantCat)
			}
			if !cards.Unique(got.Best[:]) {
				t.Errorf("best-five contains duplicates: %v", cards.Codes(got.Best[:]))
			}
		})
	}
}

func TestWheelStraightRanksBelowSixHighStraight(t *testing.T) {
	wheel := []cards.Card{
		mustCard(t, cards.Ace, cards.Spades), mustCard(t, cards.Two, cards.Hearts),
		mustCard(t, cards.Three, cards.Diamonds), mustCard(t, cards.Four, cards.Clubs),
		mustCard(t, cards.Five, cards.Spades), mustCard(t, cards.Nine, cards.Hearts),
		mustCard(t, cards.King, cards.Diamonds),
	}
	sixHigh := []cards.Card{
		mustCard(t, cards.Two, cards.Spades), mustCard(t, cards.Three, cards.Hearts),
		mustCard(t, cards.Four, cards.Diamonds), mustCard(t, cards.Five, cards.Clubs),
		mustCard(t, cards.Six, cards.Spades), mustCard(t, cards.Nine, cards.Hearts),
		mustCard(t, cards.King, cards.Diamonds),
	}

	wheelResult, err := Evaluate(wheel)
	if err != nil {
		t.Fatalf("Evaluate(wheel): %v", err)
	}
	sixHighResult, err := Evaluate(sixHigh)
	if err != nil {
		t.Fatalf("Evaluate(sixHigh): %v", err)
	}

	if wheelResult.Category != Straight || sixHighResult.Category != Straight {
		t.Fatalf("expected both hands to be straights, got %s and %s", wheelResult.Category, sixHighResult.Category)
	}
	if Compare(wheelResult, sixHighResult) != -1 {
		t.Errorf("wheel straight should score below six-high straight")
	}

	highCard := []cards.Card{
		mustCard(t, cards.Two, cards.Spades), mustCard(t, cards.Four, cards.Hearts),
		mustCard(t, cards.Seven, cards.Diamonds), mustCard(t, cards.Nine, cards.Clubs),
		mustCard(t, cards.Jack, cards.Spades), mustCard(t, cards.King, cards.Hearts),
		mustCard(t, cards.Three, cards.Clubs),
	}
	highCardResult, err := Evaluate(highCard)
	if err != nil {
		t.Fatalf("Evaluate(highCard): %v", err)
	}
	if Compare(wheelResult, highCardResult) != 1 {
		t.Errorf("wheel straight should score above a high card hand")
	}
}

func TestIdenticalSevenCardHandsTie(t *testing.T) {
	a := []cards.Card{
		mustCard(t, cards.Ace, cards.Spades), mustCard(t, cards.King, cards.Spades),
		mustCard(t, cards.Two, cards.Hearts), mustCard(t, cards.Seven, cards.Diamonds),
		mustCard(t, cards.Nine, cards.Clubs), mustCard(t, cards.Jack, cards.Hearts),
		mustCard(t, cards.Four, cards.Diamonds),
	}
	b := append([]cards.Card(nil), a...)

	ra, err := Evaluate(a)
	if err != nil {
		t.Fatalf("Evaluate(a): %v", err)
	}
	rb, err := Evaluate(b)
	if err != nil {
		t.Fatalf("Evaluate(b): %v", err)
	}
	if Compare(ra, rb) != 0 {
		t.Errorf("identical hands should tie, got scores %d and %d", ra.Score, rb.Score)
	}
}

func TestEvaluateRejectsWrongCardCount(t *testing.T) {
	four := []cards.Card{
		mustCard(t, cards.Two, cards.Spades), mustCard(t, cards.Three, cards.Hearts),
		mustCard(t, cards.Four, cards.Diamonds), mustCard(t, cards.Five, cards.Clubs),
	}
	if _, err := Evaluate(four); err == nil {
		t.Fatal("expected error evaluating 4 cards")
	}
}
