package services

import (
	"errors"
	"fmt"
)

// Error kinds returned by the services. Handlers map them to status codes
// with errors.Is, so more specific errors wrap one of these.
var (
	ErrValidation       = errors.New("invalid input")
	ErrAlreadyFriends   = errors.New("already friends")
	ErrRequestPending   = errors.New("a friend request is already pending between these users")
	ErrNotAuthorized    = errors.New("not authorized")
	ErrAlreadyResponded = errors.New("friend request was already handled")
	ErrNotFound         = errors.New("not found")
	ErrNotFriends       = errors.New("users are not friends")
	ErrUnavailable      = errors.New("service temporarily unavailable")
)

var ErrSelfRequest = fmt.Errorf("%w: cannot send a friend request to yourself", ErrValidation)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrValidation, msg)
}

func notFound(what string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, what)
}

// unavailable marks a collaborator failure while keeping the cause in the chain.
func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}
