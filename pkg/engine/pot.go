package engine

import "sort"

// Contribution is one player's cumulative bet this hand, the input to
// the Pot Calculator.
type Contribution struct {
	UserID     ID
	BetTotal   int64
	Folded     bool
}

// Pot is one main or side pot: an amount and the set of players
// eligible to win it. Folded players are never eligible, even though
// their chips may be included in the amount.
type Pot struct {
	Amount    int64
	Eligible  map[ID]bool
}

func newPot() *Pot {
	return &Pot{Eligible: make(map[ID]bool)}
}

// ComputePots partitions contributions into main and side pots:
// sort by betTotal ascending, and at each distinct contribution
// level form one pot from the chips between the previous level and
// this one, owned by every player who contributed at least this level.
// Folded players contribute their chips to whichever pots their bet
// level reaches, but are never marked eligible to win any pot.
func ComputePots(contributions []Contribution) []Pot {
	if len(contributions) == 0 {
		return nil
	}

	sorted := append([]Contribution(nil), contributions...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].BetTotal < sorted[j].BetTotal
	})

	var pots []*Pot
	var prevLevel int64

	for i, c := range sorted {
		level := c.BetTotal
		if level == prevLevel {
			continue
		}

		pot := newPot()
		for _, other := range sorted[i:] {
			// Every contribution at or above this level puts in the
			// slice (prevLevel, level] of its own stack.
			contribAtLevel := level - prevLevel
			pot.Amount += contribAtLevel
			if !other.Folded {
				pot.Eligible[other.UserID] = true
			}
		}
		if pot.Amount > 0 {
			pots = append(pots, pot)
		}
		prevLevel = level
	}

	out := make([]Pot, len(pots))
	for i, p := range pots {
		out[i] = *p
	}
	return out
}
