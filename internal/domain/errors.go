package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrRoomNotFound     = errors.New("room not found")
	ErrNotAMember       = errors.New("not a member of this room")
	ErrAlreadyMember    = errors.New("already a member of this room")
	ErrOwnerCannotLeave = errors.New("owner cannot leave a room that still has other members")
	ErrDuplicateEmail   = errors.New("email already exists")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrInvalidInput     = errors.New("invalid input")

	// Room creation inserts the room row and the owner membership row inside
	// one transaction. The two sentinels let callers tell which step failed.
	ErrRoomCreationFailed       = errors.New("room creation failed")
	ErrMembershipCreationFailed = errors.New("membership creation failed")
)
