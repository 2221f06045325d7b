//go:build windows

package terminal

import (
	"errors"
	"fmt"
)

// The pane subsystem targets macOS and Linux; there is no ConPTY
// backend yet. Launch resolution still produces Windows-shaped configs
// (launcher-script wrapping, hidden console window) so shared user
// configuration stays portable.
type PTY struct{}

var errUnsupported = errors.New("pty is not supported on windows")

func Spawn(cfg LaunchConfig) (*PTY, error) {
	return nil, fmt.Errorf("%w: %v", ErrSpawn, errUnsupported)
}

func (p *PTY) Read(buf []byte) (int, error)   { return 0, errUnsupported }
func (p *PTY) Write(data []byte) error        { return errUnsupported }
func (p *PTY) Resize(cols, rows uint16) error { return errUnsupported }
func (p *PTY) Terminate() error               { return errUnsupported }
func (p *PTY) Kill() error                    { return errUnsupported }
func (p *PTY) Wait() ExitInfo                 { return ExitInfo{Code: -1, Err: errUnsupported.Error()} }
func (p *PTY) CloseFile() error               { return nil }
