package serviceerr

import "errors"

var ErrConflict = errors.New("already exists")
var ErrNotFound = errors.New("not found")
var ErrMissingCredential = errors.New("no session token")
var ErrMalformedToken = errors.New("malformed token")
var ErrSessionExpired = errors.New("session expired")
var ErrSessionEnded = errors.New("session ended by server")
