package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Object stores and record stores
// return these (optionally wrapped) so services can translate them into
// domain errors:
//   - ErrNotFound: object or record does not exist
//   - ErrAlreadyExists: an object already occupies the destination path
//   - ErrUnavailable: backing service unreachable or not configured
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
	ErrUnavailable   = errors.New("unavailable")
)
