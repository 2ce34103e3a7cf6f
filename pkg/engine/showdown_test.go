package engine

import (
	"testing"

	"github.com/vctt94/holdemcore/pkg/evaluator"
)

func seatMap(m map[ID]int) SeatOf {
	return func(userID ID) int { return m[userID] }
}

// TestResolveSidePotDifferentWinners covers the side-pot award
// property end to end: the short all-in stack can win the main pot
// while being shut out of the side pot a deeper stack wins.
func TestResolveSidePotDifferentWinners(t *testing.T) {
	pots := []Pot{
		{Amount: 300, Eligible: map[ID]bool{"short": true, "mid": true, "deep": true}},
		{Amount: 400, Eligible: map[ID]bool{"mid": true, "deep": true}},
	}
	results := map[ID]evaluator.Result{
		"short": {Category: evaluator.FullHouse, Score: 900},
		"mid":   {Category: evaluator.Flush, Score: 700},
		"deep":  {Category: evaluator.Straight, Score: 500},
	}
	seats := seatMap(map[ID]int{"short": 0, "mid": 1, "deep": 2})

	awards := Resolve(pots, results, map[ID]bool{}, seats, 0, 3)

	byUser := make(map[ID]int64)
	for _, a := range awards {
		byUser[a.UserID] = a.Amount
	}

	if byUser["short"] != 300 {
		t.Errorf("short stack's award = %d, want 300 (wins the main pot on the best hand, ineligible for the side pot)", byUser["short"])
	}
	if byUser["mid"] != 400 {
		t.Errorf("mid stack's award = %d, want 400 (best hand among those eligible for the side pot)", byUser["mid"])
	}
	if byUser["deep"] != 0 {
		t.Errorf("deep stack's award = %d, want 0 (loses both pots on hand strength)", byUser["deep"])
	}
}

// TestResolveSplitPotOddChip covers the odd-chip distribution rule:
// a tie splits the pot evenly, with the remainder going to the tied
// winner seated first clockwise from the button.
func TestResolveSplitPotOddChip(t *testing.T) {
	pots := []Pot{
		{Amount: 101, Eligible: map[ID]bool{"a": true, "b": true}},
	}
	results := map[ID]evaluator.Result{
		"a": {Category: evaluator.Flush, Score: 700},
		"b": {Category: evaluator.Flush, Score: 700},
	}
	// Button is seat 2; "a" sits at seat 0 (distance 1 from the button
	// going clockwise), "b" at seat 1 (distance 2), so "a" gets the odd
	// chip.
	seats := seatMap(map[ID]int{"a": 0, "b": 1})

	awards := Resolve(pots, results, map[ID]bool{}, seats, 2, 3)

	byUser := make(map[ID]int64)
	for _, a := range awards {
		byUser[a.UserID] = a.Amount
	}
	if byUser["a"] != 51 || byUser["b"] != 50 {
		t.Errorf("split = a:%d b:%d, want a:51 b:50", byUser["a"], byUser["b"])
	}
}

// TestResolveNoEligibleWinnerLeavesPotUnawarded exercises bestEligible's
// folded-eligibility guard: a pot whose only eligible player has since
// folded pays out nothing rather than crediting a folded hand.
func TestResolveNoEligibleWinnerLeavesPotUnawarded(t *testing.T) {
	pots := []Pot{
		{Amount: 50, Eligible: map[ID]bool{"a": true}},
	}
	results := map[ID]evaluator.Result{
		"a": {Category: evaluator.HighCard, Score: 100},
	}
	seats := seatMap(map[ID]int{"a": 0})

	awards := Resolve(pots, results, map[ID]bool{"a": true}, seats, 0, 2)
	if len(awards) != 0 {
		t.Errorf("awards = %+v, want none", awards)
	}
}
