package conversation

import "errors"

var (
	// ErrInvalidArgument covers missing or malformed identifiers and
	// empty message bodies.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrAlreadyExists means a conversation between the two users exists.
	ErrAlreadyExists = errors.New("conversation already exists")
	// ErrForbidden means the caller is not a participant.
	ErrForbidden = errors.New("not a member of this conversation")
	// ErrInternal wraps persistence and other unexpected failures.
	ErrInternal = errors.New("internal error")
)
