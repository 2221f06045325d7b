package terminal

// Sink receives pane output and lifecycle notifications. Implementations
// must be safe for concurrent use: the manager and the per-pane output
// pumps call into the sink from multiple goroutines.
type Sink interface {
	// PaneOutput delivers a chunk of raw terminal output. The slice is
	// owned by the callee and never mutated afterwards.
	PaneOutput(paneID string, data []byte)

	// PaneStatusChanged fires once per status transition. For
	// StatusError the detail is the failure message, for StatusExited
	// a short "exit N" description.
	PaneStatusChanged(paneID string, status Status, detail string)

	// PaneClosed fires when a pane is removed from the registry.
	PaneClosed(paneID string, exit ExitInfo)
}

// ExitInfo describes how a pane's process ended. A non-empty Err means
// the pane errored rather than exited; Code is -1 in that case.
type ExitInfo struct {
	Code int    `json:"code"`
	Err  string `json:"err,omitempty"`
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) PaneOutput(string, []byte)                {}
func (NopSink) PaneStatusChanged(string, Status, string) {}
func (NopSink) PaneClosed(string, ExitInfo)              {}
