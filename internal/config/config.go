// Package config loads and saves grove's TOML configuration. The
// global file lives at ~/.grove/config.toml; a project may carry a
// .grove/config.toml overlay that wins field by field.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
)

// ToolDef declares a custom coding agent launchable in a pane.
//
// Example:
//
//	[tools.aider]
//	command = "aider"
//	default_args = ["--no-auto-commits"]
//	continue_args = ["--restore-chat-history"]
//	env = { AIDER_DARK_MODE = "true" }
type ToolDef struct {
	Command            string            `toml:"command"`
	DefaultArgs        []string          `toml:"default_args,omitempty"`
	ContinueArgs       []string          `toml:"continue_args,omitempty"`
	ResumeArgs         []string          `toml:"resume_args,omitempty"`
	PermissionSkipArgs []string          `toml:"permission_skip_args,omitempty"`
	ModelFlag          string            `toml:"model_flag,omitempty"`
	Models             []string          `toml:"models,omitempty"`
	Env                map[string]string `toml:"env,omitempty"`
}

// TerminalSettings tunes the pane subsystem. Zero values mean
// "use the default".
type TerminalSettings struct {
	ScrollbackLimitKB int `toml:"scrollback_limit_kb,omitempty"`
	MaxPanes          int `toml:"max_panes,omitempty"`
	StopGraceSeconds  int `toml:"stop_grace_seconds,omitempty"`
}

// ClaudeSettings overrides the built-in claude tool.
type ClaudeSettings struct {
	Command       string `toml:"command,omitempty"`
	DangerousMode bool   `toml:"dangerous_mode,omitempty"`
}

// GeminiSettings overrides the built-in gemini tool.
type GeminiSettings struct {
	Command  string `toml:"command,omitempty"`
	YoloMode bool   `toml:"yolo_mode,omitempty"`
}

// UserConfig is the root of the TOML document.
type UserConfig struct {
	DefaultTool string             `toml:"default_tool,omitempty"`
	Terminal    TerminalSettings   `toml:"terminal,omitempty"`
	Claude      ClaudeSettings     `toml:"claude,omitempty"`
	Gemini      GeminiSettings     `toml:"gemini,omitempty"`
	Tools       map[string]ToolDef `toml:"tools,omitempty"`
}

// ScrollbackLimit is the per-pane scrollback bound in bytes.
func (c *UserConfig) ScrollbackLimit() int {
	if c.Terminal.ScrollbackLimitKB > 0 {
		return c.Terminal.ScrollbackLimitKB * 1024
	}
	return 2 * 1024 * 1024
}

// MaxPanes is the concurrent pane limit.
func (c *UserConfig) MaxPanes() int {
	if c.Terminal.MaxPanes > 0 {
		return c.Terminal.MaxPanes
	}
	return 12
}

// StopGrace is how long a stop waits between SIGTERM and SIGKILL.
func (c *UserConfig) StopGrace() time.Duration {
	if c.Terminal.StopGraceSeconds > 0 {
		return time.Duration(c.Terminal.StopGraceSeconds) * time.Second
	}
	return 3 * time.Second
}

// Dir returns the global config directory (~/.grove).
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".grove"), nil
}

// Path returns the global config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// Load reads a config file. A missing file is not an error; it yields
// an empty config so first runs work without setup.
func Load(path string) (*UserConfig, error) {
	var cfg UserConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if os.IsNotExist(err) {
			return &UserConfig{}, nil
		}
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes cfg atomically: temp file in the target directory,
// fsync, then rename. The file is user-only (0600).
func Save(path string, cfg *UserConfig) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".config-*.toml")
	if err != nil {
		return fmt.Errorf("creating temp config: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("setting config mode: %w", err)
	}
	if err := toml.NewEncoder(tmp).Encode(cfg); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing config: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing config: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

var (
	cacheMu sync.RWMutex
	cached  *UserConfig
)

// LoadDefault loads the global config once and caches it.
func LoadDefault() (*UserConfig, error) {
	cacheMu.RLock()
	if cached != nil {
		c := cached
		cacheMu.RUnlock()
		return c, nil
	}
	cacheMu.RUnlock()

	cacheMu.Lock()
	defer cacheMu.Unlock()
	if cached != nil {
		return cached, nil
	}
	path, err := Path()
	if err != nil {
		return nil, err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}
	cached = cfg
	return cfg, nil
}

// ClearCache drops the cached global config. Tests use it after
// pointing HOME at a temp directory.
func ClearCache() {
	cacheMu.Lock()
	cached = nil
	cacheMu.Unlock()
}

// Merged returns the global config with the project overlay applied.
// Non-zero local fields win; tool definitions override per id.
func Merged(projectRoot string) (*UserConfig, error) {
	global, err := LoadDefault()
	if err != nil {
		return nil, err
	}
	if projectRoot == "" {
		return global, nil
	}
	localPath := filepath.Join(projectRoot, ".grove", "config.toml")
	if _, err := os.Stat(localPath); err != nil {
		return global, nil
	}
	local, err := Load(localPath)
	if err != nil {
		return nil, err
	}
	return merge(global, local), nil
}

func merge(global, local *UserConfig) *UserConfig {
	out := *global

	if local.DefaultTool != "" {
		out.DefaultTool = local.DefaultTool
	}
	if local.Terminal.ScrollbackLimitKB != 0 {
		out.Terminal.ScrollbackLimitKB = local.Terminal.ScrollbackLimitKB
	}
	if local.Terminal.MaxPanes != 0 {
		out.Terminal.MaxPanes = local.Terminal.MaxPanes
	}
	if local.Terminal.StopGraceSeconds != 0 {
		out.Terminal.StopGraceSeconds = local.Terminal.StopGraceSeconds
	}
	if local.Claude.Command != "" {
		out.Claude.Command = local.Claude.Command
	}
	if local.Claude.DangerousMode {
		out.Claude.DangerousMode = true
	}
	if local.Gemini.Command != "" {
		out.Gemini.Command = local.Gemini.Command
	}
	if local.Gemini.YoloMode {
		out.Gemini.YoloMode = true
	}

	if len(local.Tools) > 0 {
		tools := make(map[string]ToolDef, len(global.Tools)+len(local.Tools))
		for id, def := range global.Tools {
			tools[id] = def
		}
		for id, def := range local.Tools {
			tools[id] = def
		}
		out.Tools = tools
	}
	return &out
}
