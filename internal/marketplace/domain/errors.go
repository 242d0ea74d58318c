package domain

import (
	"errors"

	"github.com/Abdurahmanit/merchsy/internal/marketplace/query"
)

var (
	ErrInvalidInput       = errors.New("invalid input data")
	ErrInvalidCursor      = query.ErrInvalidCursor
	ErrNotFound           = errors.New("entity not found")
	ErrUnauthenticated    = errors.New("authentication required")
	ErrForbidden          = errors.New("action forbidden")
	ErrUnavailable        = errors.New("upstream dependency unavailable")
	ErrDuplicateAccount   = errors.New("username or email already in use")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrAlreadyFollowing   = errors.New("already following this user")
	ErrNotFollowing       = errors.New("not following this user")
)
