package domain

import "errors"

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidVideoID   = errors.New("invalid video id")
	ErrEmptyComment     = errors.New("comment text is empty")
	ErrCommentTooLong   = errors.New("comment text is too long")
	ErrRelayUnavailable = errors.New("relay unavailable")
)
