package clipboard

import "github.com/Veraticus/clipkit/pkg/clipboard/cliperr"

// Error kinds re-exported from cliperr so callers only need this package.
var (
	ErrUnsupportedEnvironment = cliperr.ErrUnsupportedEnvironment
	ErrInvalidArgument        = cliperr.ErrInvalidArgument
	ErrMechanismFailure       = cliperr.ErrMechanismFailure
	ErrExitCode               = cliperr.ErrExitCode
	ErrSpawnFailure           = cliperr.ErrSpawnFailure
	ErrNetworkFetch           = cliperr.ErrNetworkFetch
	ErrTimeoutExceeded        = cliperr.ErrTimeoutExceeded
	ErrValidation             = cliperr.ErrValidation
)

// Error is the classified failure returned by every Client operation.
type Error = cliperr.Error
