package engine

// ActionRequest is a proposed action by a player, the input to the
// Action Validator.
type ActionRequest struct {
	UserID ActionUserID
	Type   ActionType
	Amount int64
}

// ActionUserID aliases ID to keep ActionRequest self-describing at call
// sites (engine.ActionRequest{UserID: ..., ...}).
type ActionUserID = ID

// PlayerSnapshot is the subset of a HandPlayer the validator needs.
type PlayerSnapshot struct {
	UserID    ID
	Status    HandPlayerStatus
	StreetBet int64
	Stack     int64 // current Room Player stack, i.e. chips not yet committed
}

// Validate decides whether req is legal right now.
// currentUserID is whoever BettingRound says should act; bigBlind is
// this hand's effective BB, used as the minimum raise floor.
func Validate(req ActionRequest, currentUserID ID, player PlayerSnapshot, betToMatch, lastRaiseSize, bigBlind int64) error {
	if req.Type == ActionFold {
		if player.Status != HandPlayerActive {
			return NewError(CodeIllegalAction, "player %s is not active", req.UserID)
		}
		if req.UserID != currentUserID {
			return NewError(CodeNotYourTurn, "it is not %s's turn", req.UserID)
		}
		return nil
	}

	if req.UserID != currentUserID {
		return NewError(CodeNotYourTurn, "it is not %s's turn", req.UserID)
	}
	if player.Status != HandPlayerActive {
		return NewError(CodeIllegalAction, "player %s is not active", req.UserID)
	}

	switch req.Type {
	case ActionCheck:
		if betToMatch != player.StreetBet {
			return NewError(CodeIllegalAction, "cannot check: bet to match is %d, street bet is %d", betToMatch, player.StreetBet)
		}
		return nil

	case ActionCall:
		if betToMatch <= player.StreetBet {
			return NewError(CodeIllegalAction, "cannot call: nothing to call")
		}
		if player.Stack <= 0 {
			return NewError(CodeInsufficientChips, "player %s has no chips to call", req.UserID)
		}
		return nil

	case ActionRaise:
		minRaise := betToMatch + maxInt64(lastRaiseSize, bigBlind)
		if req.Amount < minRaise {
			return NewError(CodeInvalidAmount, "raise to %d is below the minimum of %d", req.Amount, minRaise)
		}
		committed := req.Amount - player.StreetBet
		if committed > player.Stack {
			return NewError(CodeInsufficientChips, "player %s cannot commit %d with stack %d", req.UserID, committed, player.Stack)
		}
		return nil

	case ActionAllIn:
		if player.Stack <= 0 {
			return NewError(CodeIllegalAction, "player %s has no chips to push all-in", req.UserID)
		}
		return nil

	default:
		return NewError(CodeIllegalAction, "unknown action type %q", req.Type)
	}
}
