package main

import (
	"context"
	"log"

	"github.com/grovekit/grove/internal/config"
	"github.com/grovekit/grove/internal/launch"
	"github.com/grovekit/grove/internal/terminal"
)

// App is the desktop shell bound to the frontend. All pane operations
// go through the embedded manager; output and lifecycle changes come
// back asynchronously as runtime events.
type App struct {
	ctx context.Context
	mgr *terminal.Manager
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	cfg, err := config.LoadDefault()
	if err != nil {
		log.Printf("config load failed, using defaults: %v", err)
		cfg = &config.UserConfig{}
	}

	a.mgr = terminal.NewManager(terminal.ManagerConfig{
		Resolver:        launch.NewResolver(cfg),
		Sink:            &eventSink{ctx: ctx},
		MaxPanes:        cfg.MaxPanes(),
		StopGrace:       cfg.StopGrace(),
		ScrollbackLimit: cfg.ScrollbackLimit(),
	})
}

func (a *App) shutdown(ctx context.Context) {
	if a.mgr == nil {
		return
	}
	if err := a.mgr.StopAll(); err != nil {
		log.Printf("stopping panes on shutdown: %v", err)
	}
}

// LaunchPane starts a tool session and returns the new pane id.
func (a *App) LaunchPane(req terminal.LaunchRequest) (string, error) {
	return a.mgr.Launch(req)
}

// WritePane sends input to a pane.
func (a *App) WritePane(id string, data string) error {
	return a.mgr.WriteInput(id, []byte(data))
}

// ResizePane propagates the frontend terminal size.
func (a *App) ResizePane(id string, cols, rows int) error {
	return a.mgr.Resize(id, uint16(cols), uint16(rows))
}

// CapturePane returns the tail of a pane's scrollback.
func (a *App) CapturePane(id string, maxBytes int) (string, error) {
	b, err := a.mgr.CaptureTail(id, maxBytes)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ListPanes returns pane summaries, optionally filtered by project
// root.
func (a *App) ListPanes(projectRoot string) []terminal.PaneSummary {
	return a.mgr.List(projectRoot)
}

// StopPane terminates a pane and removes it.
func (a *App) StopPane(id string) error {
	return a.mgr.Stop(id)
}
