package driven

import (
	"context"
	"errors"
)

// ErrAccessDenied is returned by an Authenticator that refused the caller.
var ErrAccessDenied = errors.New("access denied")

// Authenticator gates security-sensitive vault operations. Driving adapters
// call it before any mutation that touches credentials or destroys groups;
// the vault engine itself never authenticates.
type Authenticator interface {
	// Authenticate returns nil when access is granted and ErrAccessDenied
	// (possibly wrapped) when it is refused.
	Authenticate(ctx context.Context) error
}
