//go:build !windows

package terminal

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/creack/pty"
)

const (
	defaultCols = 80
	defaultRows = 24

	// DefaultWriteTimeout bounds how long a Write may block when the
	// child stops draining its input queue, e.g. a raw-mode TUI that
	// is busy. The pty input buffer is only a few tens of KiB, so a
	// large paste hits this fast.
	DefaultWriteTimeout = 5 * time.Second
)

// PTY owns one child process attached to a pseudo-terminal. Reads are
// driven by a single pump goroutine; writes and resizes may come from
// any goroutine. Writes are serialized on their own mutex so a stalled
// write cannot wedge resize or close.
type PTY struct {
	cmd  *exec.Cmd
	file *os.File

	writeMu      sync.Mutex
	writeTimeout time.Duration

	mu     sync.Mutex
	cols   uint16
	rows   uint16
	closed bool
}

// Spawn starts cfg.Command under a new PTY sized cfg.Cols x cfg.Rows.
func Spawn(cfg LaunchConfig) (*PTY, error) {
	cols, rows := cfg.Cols, cfg.Rows
	if cols == 0 {
		cols = defaultCols
	}
	if rows == 0 {
		rows = defaultRows
	}

	cmd := exec.Command(cfg.Command, cfg.Args...)
	cmd.Dir = cfg.Dir

	env := append(os.Environ(), "TERM=xterm-256color", "COLORTERM=truecolor")
	env = append(env, cfg.Env...)
	if cfg.PaneID != "" {
		env = append(env, "GROVE_PANE_ID="+cfg.PaneID)
	}
	if cfg.Branch != "" {
		env = append(env, "GROVE_BRANCH="+cfg.Branch)
	}
	if cfg.Tool != "" {
		env = append(env, "GROVE_TOOL="+cfg.Tool)
	}
	cmd.Env = env

	f, err := pty.StartWithSize(cmd, &pty.Winsize{Cols: cols, Rows: rows})
	if err != nil {
		return nil, fmt.Errorf("%w: starting %s: %v", ErrSpawn, cfg.Command, err)
	}
	return &PTY{cmd: cmd, file: f, cols: cols, rows: rows, writeTimeout: DefaultWriteTimeout}, nil
}

// Read blocks until the child produces output, the child exits, or the
// master side is closed.
func (p *PTY) Read(buf []byte) (int, error) {
	return p.file.Read(buf)
}

// Write sends input to the child. Concurrent writes cannot interleave
// inside a single call's bytes. A child that stops reading its input
// makes the call fail with an ErrWrite-wrapped timeout once the write
// deadline passes instead of blocking the caller indefinitely.
func (p *PTY) Write(data []byte) error {
	p.mu.Lock()
	closed := p.closed
	p.mu.Unlock()
	if closed {
		return fmt.Errorf("%w: pty closed", ErrWrite)
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	// The pty master is registered with the runtime poller, so file
	// deadlines work on it.
	if err := p.file.SetWriteDeadline(time.Now().Add(p.writeTimeout)); err == nil {
		defer p.file.SetWriteDeadline(time.Time{})
	}
	if _, err := p.file.Write(data); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return fmt.Errorf("%w: timed out after %s, child is not reading input", ErrWrite, p.writeTimeout)
		}
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}
	return nil
}

// Resize changes the PTY dimensions. A call with unchanged dimensions
// is a no-op. Valid immediately after Spawn, before any output.
func (p *PTY) Resize(cols, rows uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return fmt.Errorf("%w: pty closed", ErrResize)
	}
	if cols == p.cols && rows == p.rows {
		return nil
	}
	if err := pty.Setsize(p.file, &pty.Winsize{Cols: cols, Rows: rows}); err != nil {
		return fmt.Errorf("%w: %v", ErrResize, err)
	}
	p.cols, p.rows = cols, rows
	return nil
}

// Terminate asks the child to exit. Already-finished children are not
// an error.
func (p *PTY) Terminate() error {
	if err := p.cmd.Process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// Kill force-terminates the child.
func (p *PTY) Kill() error {
	if err := p.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return err
	}
	return nil
}

// Wait reaps the child and reports its exit. The pump calls it exactly
// once per pane.
func (p *PTY) Wait() ExitInfo {
	err := p.cmd.Wait()
	if err == nil {
		return ExitInfo{Code: 0}
	}
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ExitInfo{Code: ee.ExitCode()}
	}
	return ExitInfo{Code: -1, Err: err.Error()}
}

// CloseFile releases the master side of the PTY. Idempotent; safe once
// the pump has stopped reading.
func (p *PTY) CloseFile() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true
	return p.file.Close()
}
