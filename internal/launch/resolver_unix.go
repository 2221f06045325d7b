//go:build !windows

package launch

import "github.com/grovekit/grove/internal/terminal"

func platformAdjust(cfg terminal.LaunchConfig) terminal.LaunchConfig {
	return cfg
}
