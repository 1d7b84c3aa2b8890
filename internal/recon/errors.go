package recon

import "errors"

// ErrNotFound marks a primary entity (position or deal) that does not exist.
// It is surfaced to callers as a not-found outcome and never retried.
// Secondary lookups that come back empty are resolved by documented
// fallbacks instead and never produce this error.
var ErrNotFound = errors.New("not found")
