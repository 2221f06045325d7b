package main

import (
	"context"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"github.com/grovekit/grove/internal/terminal"
)

// eventSink forwards pane events to the frontend over Wails runtime
// events. Output data is passed as a string so it survives the JSON
// bridge; the frontend feeds it straight into xterm.js.
type eventSink struct {
	ctx context.Context
}

type outputPayload struct {
	PaneID string `json:"pane_id"`
	Data   string `json:"data"`
}

type statusPayload struct {
	PaneID string `json:"pane_id"`
	Status string `json:"status"`
	Detail string `json:"detail,omitempty"`
}

type closedPayload struct {
	PaneID string `json:"pane_id"`
	Code   int    `json:"code"`
	Err    string `json:"err,omitempty"`
}

func (s *eventSink) PaneOutput(id string, data []byte) {
	runtime.EventsEmit(s.ctx, "pane:output", outputPayload{PaneID: id, Data: string(data)})
}

func (s *eventSink) PaneStatusChanged(id string, status terminal.Status, detail string) {
	runtime.EventsEmit(s.ctx, "pane:status", statusPayload{PaneID: id, Status: status.String(), Detail: detail})
}

func (s *eventSink) PaneClosed(id string, exit terminal.ExitInfo) {
	runtime.EventsEmit(s.ctx, "pane:closed", closedPayload{PaneID: id, Code: exit.Code, Err: exit.Err})
}
