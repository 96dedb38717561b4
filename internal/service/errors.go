package service

import "errors"

var (
	// ErrRoomFull rejects a third distinct user id joining a two-party room.
	ErrRoomFull = errors.New("room already has two participants")
	// ErrUnauthorizedRoomAccess rejects users that are not one of the two
	// parties on record for the consultation, before any signaling starts.
	ErrUnauthorizedRoomAccess = errors.New("user is not a party of this consultation")
	ErrConsultationEnded      = errors.New("consultation has ended")
	ErrForbidden              = errors.New("operation not allowed for this user")
	ErrEmptyMessage           = errors.New("chat message cannot be empty")
	ErrMessageTooLong         = errors.New("chat message is too long")
)
