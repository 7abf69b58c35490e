package authstore

import "errors"

// ErrIncompleteResponse is returned when the auth endpoint answered 2xx but
// without a user or token.
var ErrIncompleteResponse = errors.New("auth response missing user or token")
