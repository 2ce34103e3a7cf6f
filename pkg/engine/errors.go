package engine

import "fmt"

// Code is a stable, client-facing error code.
type Code string

const (
	// Authorization / membership
	CodeNotInRoom             Code = "NOT_IN_ROOM"
	CodeNotRoomOwner          Code = "NOT_ROOM_OWNER"
	CodeAlreadyInRoom         Code = "ALREADY_IN_ROOM"
	CodeActiveHandInProgress  Code = "ACTIVE_HAND_IN_PROGRESS"
	CodeHandNotFound          Code = "HAND_NOT_FOUND"
	CodeRoomNotFound          Code = "ROOM_NOT_FOUND"

	// State / contract
	CodeRoomNotWaiting     Code = "ROOM_NOT_WAITING"
	CodeRoomNotJoinable    Code = "ROOM_NOT_JOINABLE"
	CodeRoomFull           Code = "ROOM_FULL"
	CodeSeatTaken          Code = "SEAT_TAKEN"
	CodeNoSeats            Code = "NO_SEATS"
	CodeNoActiveHand       Code = "NO_ACTIVE_HAND"
	CodeInsufficientPlayers Code = "INSUFFICIENT_PLAYERS"

	// Player input
	CodeIllegalAction Code = "ILLEGAL_ACTION"
	CodeNotYourTurn   Code = "NOT_YOUR_TURN"
	CodeInvalidAmount Code = "INVALID_AMOUNT"

	// Economic
	CodeInsufficientChips   Code = "INSUFFICIENT_CHIPS"
	CodeInvalidBuyIn        Code = "INVALID_BUY_IN"
	CodeInvalidBuyInRange   Code = "INVALID_BUY_IN_RANGE"
	CodeInvalidBlindRatio   Code = "INVALID_BLIND_RATIO"

	// Internal: database unavailability, serialization failure, and any
	// other fault that is not a business rejection.
	CodeInternal Code = "INTERNAL"
)

// Error is a business rejection carrying a stable code for clients.
// Internal faults are returned as plain wrapped errors, never as *Error,
// so callers can type-assert to distinguish "reject and show the user"
// from "retry or alert".
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds a business-rejection error with a formatted message.
func NewError(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// AsError reports whether err is a business rejection, returning it
// typed if so.
func AsError(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}

// CodeOf returns err's code if it is an *Error, or CodeInternal otherwise.
func CodeOf(err error) Code {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return CodeInternal
}
