package engine

import (
	"sort"

	"github.com/vctt94/holdemcore/pkg/evaluator"
)

// SeatOf resolves a user id to its seat number, used to order tied
// winners clockwise from the button for odd-chip distribution and to
// sort the resulting awards by seat.
type SeatOf func(userID ID) int

// Award records a pot's payout, per eligible winner.
type Award struct {
	UserID ID
	Amount int64
}

// Resolve pays out each pot bottom-up to its best eligible, non-folded
// hand(s). results must contain an evaluator.Result for every
// user who did not fold; folded users need no entry. buttonSeat is the
// dealer seat, used as the clockwise reference point for odd-chip
// distribution. A pot with no eligible non-folded player is not
// awarded to anyone.
func Resolve(pots []Pot, results map[ID]evaluator.Result, folded map[ID]bool, seatOf SeatOf, buttonSeat, numSeats int) []Award {
	totals := make(map[ID]int64)

	for _, pot := range pots {
		winners := bestEligible(pot, results, folded, seatOf, buttonSeat, numSeats)
		if len(winners) == 0 {
			continue
		}

		share := pot.Amount / int64(len(winners))
		remainder := pot.Amount % int64(len(winners))

		for _, w := range winners {
			totals[w] += share
		}
		// Distribute the remainder one chip at a time to the tied
		// winners in ascending seat order from the button.
		ordered := orderFromButton(winners, seatOf, buttonSeat, numSeats)
		for i := int64(0); i < remainder; i++ {
			totals[ordered[i]]++
		}
	}

	out := make([]Award, 0, len(totals))
	for userID, amount := range totals {
		out = append(out, Award{UserID: userID, Amount: amount})
	}
	sort.Slice(out, func(i, j int) bool {
		return seatOf(out[i].UserID) < seatOf(out[j].UserID)
	})
	return out
}

// bestEligible finds the winner(s) of a single pot: the eligible,
// non-folded player(s) with the maximum evaluator score.
//
// The "every eligible player of a pot has folded" edge case cannot
// occur here: ComputePots is always invoked with the final folded
// state, so a folded player never enters a pot's eligibility set in
// the first place. The case it describes — only one contender left —
// is instead handled one level up, by the hand state machine's
// Fast-forward rule, which short-circuits straight to
// SETTLEMENT without ever calling Resolve.
func bestEligible(pot Pot, results map[ID]evaluator.Result, folded map[ID]bool, seatOf SeatOf, buttonSeat, numSeats int) []ID {
	var candidates []ID
	for userID := range pot.Eligible {
		if folded[userID] {
			continue
		}
		candidates = append(candidates, userID)
	}
	if len(candidates) == 0 {
		return nil
	}

	var best *evaluator.Result
	var winners []ID
	for _, userID := range candidates {
		r, ok := results[userID]
		if !ok {
			continue
		}
		switch {
		case best == nil || evaluator.Compare(r, *best) > 0:
			rv := r
			best = &rv
			winners = []ID{userID}
		case evaluator.Compare(r, *best) == 0:
			winners = append(winners, userID)
		}
	}
	return winners
}

// orderFromButton sorts userIDs by seat number measured clockwise from
// buttonSeat+1, so remainder chips go to the first tied winner after
// the button.
func orderFromButton(userIDs []ID, seatOf SeatOf, buttonSeat, numSeats int) []ID {
	ordered := append([]ID(nil), userIDs...)
	distance := func(id ID) int {
		seat := seatOf(id)
		d := seat - buttonSeat
		if d <= 0 {
			d += numSeats
		}
		return d
	}
	sort.Slice(ordered, func(i, j int) bool {
		return distance(ordered[i]) < distance(ordered[j])
	})
	return ordered
}
