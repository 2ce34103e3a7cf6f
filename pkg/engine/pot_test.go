package engine

import "testing"

func potAmount(pots []Pot, i int) int64 {
	if i >= len(pots) {
		return -1
	}
	return pots[i].Amount
}

// TestComputePotsSidePot covers the side-pot partition: a
// short all-in stack caps the main pot, and the overflow from deeper
// stacks forms a side pot the short stack is not eligible for.
func TestComputePotsSidePot(t *testing.T) {
	contributions := []Contribution{
		{UserID: "short", BetTotal: 100},
		{UserID: "mid", BetTotal: 300},
		{UserID: "deep", BetTotal: 300},
	}

	pots := ComputePots(contributions)
	if len(pots) != 2 {
		t.Fatalf("expected 2 pots, got %d: %+v", len(pots), pots)
	}

	if got := potAmount(pots, 0); got != 300 {
		t.Errorf("main pot = %d, want 300 (100 * 3 players)", got)
	}
	if !pots[0].Eligible["short"] || !pots[0].Eligible["mid"] || !pots[0].Eligible["deep"] {
		t.Errorf("main pot eligibility = %+v, want all three players", pots[0].Eligible)
	}

	if got := potAmount(pots, 1); got != 400 {
		t.Errorf("side pot = %d, want 400 (200 * 2 players)", got)
	}
	if pots[1].Eligible["short"] {
		t.Errorf("side pot eligibility includes the short all-in stack, want excluded")
	}
	if !pots[1].Eligible["mid"] || !pots[1].Eligible["deep"] {
		t.Errorf("side pot eligibility = %+v, want mid and deep", pots[1].Eligible)
	}

	var total int64
	for _, p := range pots {
		total += p.Amount
	}
	if want := int64(100 + 300 + 300); total != want {
		t.Errorf("total pot amount = %d, want %d", total, want)
	}
}

// TestComputePotsFoldedContributesButIsNeverEligible covers the
// rule that a folded player's chips still count toward pot size but
// never make them an eligible winner.
func TestComputePotsFoldedContributesButIsNeverEligible(t *testing.T) {
	contributions := []Contribution{
		{UserID: "folder", BetTotal: 50, Folded: true},
		{UserID: "a", BetTotal: 200},
		{UserID: "b", BetTotal: 200},
	}

	pots := ComputePots(contributions)
	var total int64
	for _, p := range pots {
		total += p.Amount
		if p.Eligible["folder"] {
			t.Errorf("folded player must never be pot-eligible: %+v", p)
		}
	}
	if want := int64(50 + 200 + 200); total != want {
		t.Errorf("total pot amount = %d, want %d", total, want)
	}
}

// TestComputePotsAllEqual covers the no-side-pot case: equal
// contributions produce exactly one pot with everyone eligible.
func TestComputePotsAllEqual(t *testing.T) {
	contributions := []Contribution{
		{UserID: "a", BetTotal: 100},
		{UserID: "b", BetTotal: 100},
		{UserID: "c", BetTotal: 100},
	}

	pots := ComputePots(contributions)
	if len(pots) != 1 {
		t.Fatalf("expected 1 pot, got %d: %+v", len(pots), pots)
	}
	if pots[0].Amount != 300 {
		t.Errorf("pot amount = %d, want 300", pots[0].Amount)
	}
	for _, id := range []ID{"a", "b", "c"} {
		if !pots[0].Eligible[id] {
			t.Errorf("player %s should be eligible for the only pot", id)
		}
	}
}
