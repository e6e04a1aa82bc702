package workflow

import "errors"

var (
	// ErrPollTimeout means no terminal status was observed within the
	// maximum poll duration. The remote workflow may still finish later;
	// callers should surface that, not a definite failure.
	ErrPollTimeout = errors.New("poll timeout")

	ErrUnknownKind = errors.New("unknown analysis kind")
)

// TimeoutMessage is shown when polling gives up. Kept distinct from remote
// failure messages so the UI can suggest checking back later.
const TimeoutMessage = "Analysis timed out. Please check back later."
