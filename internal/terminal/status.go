package terminal

// Status is the lifecycle state of a pane. StatusError and StatusExited
// are terminal: a pane never leaves them, it only gets removed.
type Status int

const (
	StatusStarting Status = iota
	StatusRunning
	StatusError
	StatusExited
)

func (s Status) String() string {
	switch s {
	case StatusStarting:
		return "starting"
	case StatusRunning:
		return "running"
	case StatusError:
		return "error"
	case StatusExited:
		return "exited"
	}
	return "unknown"
}

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	return s == StatusError || s == StatusExited
}
