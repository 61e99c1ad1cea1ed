package controller

import (
	"errors"
	"fmt"
)

// ErrNoTarget is returned when an operation needs a target but none was
// given and no current target is selected.
var ErrNoTarget = errors.New("no target selected")

// ErrSelfKill is returned when a kill would destroy the pane the calling
// process itself runs in. Always rejected explicitly, never downgraded
// to a no-op.
var ErrSelfKill = errors.New("cannot kill own pane")

// ErrRemoteOnly is returned when a remote-backend operation (attach,
// session destruction) is invoked on the local backend.
var ErrRemoteOnly = errors.New("operation only available in remote mode")

// InvalidTargetError reports an identifier that resolved to nothing.
// Resolution never silently substitutes a default target.
type InvalidTargetError struct {
	Identifier string
}

func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("no target matches %q", e.Identifier)
}
