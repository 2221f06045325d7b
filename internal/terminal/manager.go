package terminal

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultMaxPanes bounds concurrent panes when no limit is
	// configured.
	DefaultMaxPanes = 12

	// DefaultStopGrace is how long Stop waits after SIGTERM before
	// escalating to SIGKILL.
	DefaultStopGrace = 3 * time.Second

	readBufSize = 32 * 1024

	// exitSettle is how long the pump waits for a child to be reaped
	// after a read error before declaring the stream failed. A child
	// that exited makes the master read fail first, so the reap almost
	// always wins this race immediately.
	exitSettle = time.Second
)

// Pane is one live or recently terminated terminal session.
type Pane struct {
	ID          string
	Tool        string
	Branch      string
	ProjectRoot string
	Label       string

	pty        *PTY
	scrollback *Scrollback

	mu       sync.Mutex
	status   Status
	detail   string
	exitCode int

	stopped atomic.Bool
	done    chan struct{} // closed when the pump exits
}

// Status returns the pane's current status and detail message.
func (p *Pane) Status() (Status, string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.status, p.detail
}

// setStatus transitions the pane unless it is already terminal.
func (p *Pane) setStatus(st Status, detail string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.status.Terminal() || p.status == st {
		return false
	}
	p.status = st
	p.detail = detail
	return true
}

func (p *Pane) recordExit(code int) {
	p.mu.Lock()
	p.exitCode = code
	p.mu.Unlock()
}

func (p *Pane) snapshot() PaneSummary {
	p.mu.Lock()
	defer p.mu.Unlock()
	return PaneSummary{
		ID:          p.ID,
		Tool:        p.Tool,
		Branch:      p.Branch,
		ProjectRoot: p.ProjectRoot,
		Label:       p.Label,
		Status:      p.status.String(),
		Detail:      p.detail,
		ExitCode:    p.exitCode,
	}
}

// PaneSummary is a point-in-time view of a pane for listings.
type PaneSummary struct {
	ID          string `json:"id"`
	Tool        string `json:"tool"`
	Branch      string `json:"branch,omitempty"`
	ProjectRoot string `json:"project_root,omitempty"`
	Label       string `json:"label,omitempty"`
	Status      string `json:"status"`
	Detail      string `json:"detail,omitempty"`
	ExitCode    int    `json:"exit_code"`
}

// ManagerConfig configures a Manager. Zero values fall back to
// defaults; a nil Sink discards events.
type ManagerConfig struct {
	Resolver        Resolver
	Sink            Sink
	MaxPanes        int
	StopGrace       time.Duration
	ScrollbackLimit int
}

// Manager is the pane registry: it launches panes, routes input and
// resize calls, serves scrollback captures and coordinates shutdown.
// All methods are safe for concurrent use.
type Manager struct {
	mu    sync.RWMutex
	panes map[string]*Pane

	resolver Resolver
	sink     Sink

	maxPanes        int
	stopGrace       time.Duration
	scrollbackLimit int
}

func NewManager(cfg ManagerConfig) *Manager {
	if cfg.Sink == nil {
		cfg.Sink = NopSink{}
	}
	if cfg.MaxPanes <= 0 {
		cfg.MaxPanes = DefaultMaxPanes
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = DefaultStopGrace
	}
	if cfg.ScrollbackLimit <= 0 {
		cfg.ScrollbackLimit = DefaultScrollbackBytes
	}
	return &Manager{
		panes:           make(map[string]*Pane),
		resolver:        cfg.Resolver,
		sink:            cfg.Sink,
		maxPanes:        cfg.MaxPanes,
		stopGrace:       cfg.StopGrace,
		scrollbackLimit: cfg.ScrollbackLimit,
	}
}

func newPaneID() string {
	id := uuid.NewString()
	if i := strings.IndexByte(id, '-'); i > 0 {
		id = id[:i]
	}
	return "pane-" + id
}

// Launch resolves req, spawns the process under a new PTY and registers
// the pane. Resolution and spawn failures leave no pane behind.
func (m *Manager) Launch(req LaunchRequest) (string, error) {
	if m.resolver == nil {
		return "", errors.New("terminal: manager has no resolver")
	}

	m.mu.RLock()
	count := len(m.panes)
	m.mu.RUnlock()
	if count >= m.maxPanes {
		return "", fmt.Errorf("%w: %d panes already open", ErrPaneLimit, count)
	}

	cfg, err := m.resolver.Resolve(req)
	if err != nil {
		return "", err
	}

	id := newPaneID()
	cfg.PaneID = id
	if cfg.Branch == "" {
		cfg.Branch = req.Branch
	}
	if cfg.Cols == 0 {
		cfg.Cols = req.Cols
	}
	if cfg.Rows == 0 {
		cfg.Rows = req.Rows
	}

	p, err := Spawn(cfg)
	if err != nil {
		return "", err
	}

	pane := &Pane{
		ID:          id,
		Tool:        req.ToolID,
		Branch:      req.Branch,
		ProjectRoot: req.ProjectRoot,
		Label:       req.Label,
		pty:         p,
		scrollback:  NewScrollback(m.scrollbackLimit),
		status:      StatusStarting,
		done:        make(chan struct{}),
	}

	m.mu.Lock()
	if len(m.panes) >= m.maxPanes {
		m.mu.Unlock()
		_ = p.Kill()
		go p.Wait()
		_ = p.CloseFile()
		return "", fmt.Errorf("%w: %d panes already open", ErrPaneLimit, m.maxPanes)
	}
	m.panes[id] = pane
	m.mu.Unlock()

	go m.pump(pane)
	return id, nil
}

// pump is the per-pane output loop: it owns the PTY reads, the child
// reap and the master fd close.
func (m *Manager) pump(p *Pane) {
	defer close(p.done)
	defer p.pty.CloseFile()

	buf := make([]byte, readBufSize)
	for {
		n, err := p.pty.Read(buf)
		if p.stopped.Load() {
			exit := p.pty.Wait()
			p.recordExit(exit.Code)
			return
		}
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			p.scrollback.Append(chunk)
			if p.setStatus(StatusRunning, "") {
				m.sink.PaneStatusChanged(p.ID, StatusRunning, "")
			}
			m.sink.PaneOutput(p.ID, chunk)
		}
		if err != nil {
			m.finish(p, err)
			return
		}
	}
}

// finish classifies the end of the read loop. A child that exited is a
// normal close (EIO or EOF on the master after exit); a read failure
// while the child is still alive marks the pane errored.
func (m *Manager) finish(p *Pane, readErr error) {
	exitCh := make(chan ExitInfo, 1)
	go func() { exitCh <- p.pty.Wait() }()

	select {
	case exit := <-exitCh:
		p.recordExit(exit.Code)
		detail := fmt.Sprintf("exit %d", exit.Code)
		if p.setStatus(StatusExited, detail) {
			m.sink.PaneStatusChanged(p.ID, StatusExited, detail)
		}
	case <-time.After(exitSettle):
		msg := readErr.Error()
		p.scrollback.Append([]byte("\r\n[grove] output stream failed: " + msg + "\r\n"))
		if p.setStatus(StatusError, msg) {
			m.sink.PaneStatusChanged(p.ID, StatusError, msg)
		}
	}
}

func (m *Manager) pane(id string) (*Pane, error) {
	m.mu.RLock()
	p, ok := m.panes[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPaneNotFound, id)
	}
	return p, nil
}

// WriteInput sends keystrokes or pasted text to the pane's process.
func (m *Manager) WriteInput(id string, data []byte) error {
	p, err := m.pane(id)
	if err != nil {
		return err
	}
	if st, _ := p.Status(); st.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrPaneNotRunning, id, st)
	}
	return p.pty.Write(data)
}

// Resize propagates new terminal dimensions to the pane's PTY.
func (m *Manager) Resize(id string, cols, rows uint16) error {
	p, err := m.pane(id)
	if err != nil {
		return err
	}
	if st, _ := p.Status(); st.Terminal() {
		return fmt.Errorf("%w: %s is %s", ErrPaneNotRunning, id, st)
	}
	return p.pty.Resize(cols, rows)
}

// CaptureTail returns the most recent maxBytes bytes of the pane's
// scrollback. Read-only and idempotent; works for errored and exited
// panes too.
func (m *Manager) CaptureTail(id string, maxBytes int) ([]byte, error) {
	p, err := m.pane(id)
	if err != nil {
		return nil, err
	}
	return p.scrollback.Tail(maxBytes), nil
}

// List returns summaries of every pane, or of the panes under one
// project root. Errored and exited panes stay listed until stopped.
func (m *Manager) List(projectRoot string) []PaneSummary {
	m.mu.RLock()
	panes := make([]*Pane, 0, len(m.panes))
	for _, p := range m.panes {
		if projectRoot == "" || p.ProjectRoot == projectRoot {
			panes = append(panes, p)
		}
	}
	m.mu.RUnlock()

	out := make([]PaneSummary, 0, len(panes))
	for _, p := range panes {
		out = append(out, p.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Count is the number of registered panes.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.panes)
}

// Stop removes the pane and terminates its process: SIGTERM, a grace
// period for the pump to drain, then SIGKILL. Exactly one of N
// concurrent Stop calls wins; the others get ErrPaneNotFound.
func (m *Manager) Stop(id string) error {
	m.mu.Lock()
	p, ok := m.panes[id]
	if ok {
		delete(m.panes, id)
	}
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrPaneNotFound, id)
	}

	p.stopped.Store(true)
	_ = p.pty.Terminate()

	select {
	case <-p.done:
	case <-time.After(m.stopGrace):
		_ = p.pty.Kill()
		select {
		case <-p.done:
		case <-time.After(2 * time.Second):
		}
	}
	// A pane that errored earlier may still have a live child whose
	// pump is long gone.
	_ = p.pty.Kill()

	p.mu.Lock()
	exit := ExitInfo{Code: p.exitCode}
	if p.status == StatusError {
		exit = ExitInfo{Code: -1, Err: p.detail}
	}
	p.mu.Unlock()

	m.sink.PaneClosed(p.ID, exit)
	return nil
}

// StopAll stops every pane and joins the failures.
func (m *Manager) StopAll() error {
	m.mu.RLock()
	ids := make([]string, 0, len(m.panes))
	for id := range m.panes {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	var errs []error
	for _, id := range ids {
		if err := m.Stop(id); err != nil && !errors.Is(err, ErrPaneNotFound) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
