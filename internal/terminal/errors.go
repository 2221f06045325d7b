package terminal

import "errors"

// Sentinel errors for the pane subsystem. Callers classify with
// errors.Is; messages carry the pane id and underlying cause.
var (
	ErrSpawn          = errors.New("pane spawn failed")
	ErrWrite          = errors.New("pane write failed")
	ErrResize         = errors.New("pane resize failed")
	ErrPaneNotFound   = errors.New("pane not found")
	ErrPaneNotRunning = errors.New("pane not running")
	ErrPaneLimit      = errors.New("pane limit reached")
)
