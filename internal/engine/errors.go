package engine

import "errors"

// ErrEngineStopped is returned for requests submitted after the engine
// stopped, and delivered to every pending verification outstanding when it
// stopped. The affected runs are not processed and may be resubmitted.
var ErrEngineStopped = errors.New("engine stopped")

// IsEngineStopped returns true if err is or wraps ErrEngineStopped.
func IsEngineStopped(err error) bool {
	return errors.Is(err, ErrEngineStopped)
}
