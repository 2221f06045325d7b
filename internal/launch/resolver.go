// Package launch resolves a tool id and session mode into a runnable
// pane configuration. Resolution is pure lookup and validation: it
// never spawns anything.
package launch

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/grovekit/grove/internal/config"
	"github.com/grovekit/grove/internal/terminal"
)

var (
	ErrConfig             = errors.New("invalid tool configuration")
	ErrExecutableNotFound = errors.New("tool executable not found")
)

// Mode selects how an agent session starts.
type Mode string

const (
	ModeNormal   Mode = "normal"
	ModeContinue Mode = "continue"
	ModeResume   Mode = "resume"
)

// ParseMode maps a user-supplied mode string; empty means normal.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "normal":
		return ModeNormal, nil
	case "continue":
		return ModeContinue, nil
	case "resume":
		return ModeResume, nil
	}
	return "", fmt.Errorf("%w: unknown mode %q", ErrConfig, s)
}

// Tool describes how to start one coding agent.
type Tool struct {
	ID                 string
	Command            string
	DefaultArgs        []string
	ModeArgs           map[Mode][]string
	PermissionSkipArgs []string
	ModelFlag          string
	Models             []string
	Env                []string
}

func builtins() map[string]Tool {
	return map[string]Tool{
		"claude": {
			ID:      "claude",
			Command: "claude",
			ModeArgs: map[Mode][]string{
				ModeContinue: {"--continue"},
				ModeResume:   {"--resume"},
			},
			PermissionSkipArgs: []string{"--dangerously-skip-permissions"},
			ModelFlag:          "--model",
			Models:             []string{"sonnet", "opus", "haiku"},
		},
		"codex": {
			ID:      "codex",
			Command: "codex",
			ModeArgs: map[Mode][]string{
				ModeContinue: {"resume", "--last"},
				ModeResume:   {"resume"},
			},
			PermissionSkipArgs: []string{"--dangerously-bypass-approvals-and-sandbox"},
			ModelFlag:          "--model",
		},
		"gemini": {
			ID:      "gemini",
			Command: "gemini",
			ModeArgs: map[Mode][]string{
				ModeResume: {"--resume"},
			},
			PermissionSkipArgs: []string{"--yolo"},
			ModelFlag:          "--model",
		},
	}
}

// Resolver resolves launch requests against the built-in tool table and
// the user's configuration. Custom tools shadow built-ins of the same
// id.
type Resolver struct {
	cfg      *config.UserConfig
	lookPath func(string) (string, error)
}

func NewResolver(cfg *config.UserConfig) *Resolver {
	return &Resolver{cfg: cfg, lookPath: exec.LookPath}
}

// Resolve validates req and assembles the final command line. The
// argument order is fixed: default args, mode args, permission-skip
// args, model args, then request extras.
func (r *Resolver) Resolve(req terminal.LaunchRequest) (terminal.LaunchConfig, error) {
	var zero terminal.LaunchConfig

	mode, err := ParseMode(req.Mode)
	if err != nil {
		return zero, err
	}

	tool, err := r.lookup(req.ToolID)
	if err != nil {
		return zero, err
	}

	path, err := r.lookPath(tool.Command)
	if err != nil {
		return zero, fmt.Errorf("%w: %s (command %q)", ErrExecutableNotFound, tool.ID, tool.Command)
	}

	if req.Dir != "" {
		info, err := os.Stat(req.Dir)
		if err != nil || !info.IsDir() {
			return zero, fmt.Errorf("%w: working directory %q does not exist", ErrConfig, req.Dir)
		}
	}

	if req.Model != "" && len(tool.Models) > 0 && !contains(tool.Models, req.Model) {
		return zero, fmt.Errorf("%w: tool %s does not know model %q", ErrConfig, tool.ID, req.Model)
	}

	args := append([]string{}, tool.DefaultArgs...)
	args = append(args, tool.ModeArgs[mode]...)
	if mode == ModeResume && req.SessionID != "" {
		args = append(args, req.SessionID)
	}
	if req.Dangerous {
		args = append(args, tool.PermissionSkipArgs...)
	}
	if req.Model != "" && tool.ModelFlag != "" {
		args = append(args, tool.ModelFlag, req.Model)
	}
	args = append(args, req.ExtraArgs...)

	cfg := terminal.LaunchConfig{
		Command: path,
		Args:    args,
		Dir:     req.Dir,
		Env:     append(append([]string{}, tool.Env...), req.Env...),
		Cols:    req.Cols,
		Rows:    req.Rows,
		Branch:  req.Branch,
		Tool:    tool.ID,
	}
	return platformAdjust(cfg), nil
}

// Tools lists every resolvable tool, custom entries included, sorted by
// id.
func (r *Resolver) Tools() []Tool {
	byID := builtins()
	if r.cfg != nil {
		for id, def := range r.cfg.Tools {
			if t, err := toolFromConfig(id, def); err == nil {
				byID[id] = t
			}
		}
	}
	out := make([]Tool, 0, len(byID))
	for id := range byID {
		t, _ := r.lookup(id)
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *Resolver) lookup(id string) (Tool, error) {
	if !validToolID(id) {
		return Tool{}, fmt.Errorf("%w: invalid tool id %q", ErrConfig, id)
	}
	if r.cfg != nil {
		if def, ok := r.cfg.Tools[id]; ok {
			return toolFromConfig(id, def)
		}
	}
	t, ok := builtins()[id]
	if !ok {
		return Tool{}, fmt.Errorf("%w: unknown tool %q", ErrConfig, id)
	}
	r.applyOverrides(&t)
	return t, nil
}

// applyOverrides lets the config rename built-in commands, e.g. a
// claude wrapper script.
func (r *Resolver) applyOverrides(t *Tool) {
	if r.cfg == nil {
		return
	}
	switch t.ID {
	case "claude":
		if r.cfg.Claude.Command != "" {
			t.Command = r.cfg.Claude.Command
		}
	case "gemini":
		if r.cfg.Gemini.Command != "" {
			t.Command = r.cfg.Gemini.Command
		}
	}
}

func toolFromConfig(id string, def config.ToolDef) (Tool, error) {
	if strings.TrimSpace(def.Command) == "" {
		return Tool{}, fmt.Errorf("%w: tool %q has no command", ErrConfig, id)
	}
	env := make([]string, 0, len(def.Env))
	for k, v := range def.Env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return Tool{
		ID:          id,
		Command:     def.Command,
		DefaultArgs: def.DefaultArgs,
		ModeArgs: map[Mode][]string{
			ModeContinue: def.ContinueArgs,
			ModeResume:   def.ResumeArgs,
		},
		PermissionSkipArgs: def.PermissionSkipArgs,
		ModelFlag:          def.ModelFlag,
		Models:             def.Models,
		Env:                env,
	}, nil
}

// Tool ids are lowercase alphanumerics and hyphens.
func validToolID(id string) bool {
	if id == "" {
		return false
	}
	for _, r := range id {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '-' {
			return false
		}
	}
	return true
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// wrapScriptLauncher rewrites a .cmd/.bat command to run under cmd.exe
// with the console window hidden. The Windows console host cannot
// spawn launcher scripts directly.
func wrapScriptLauncher(cfg terminal.LaunchConfig) terminal.LaunchConfig {
	lower := strings.ToLower(cfg.Command)
	if strings.HasSuffix(lower, ".cmd") || strings.HasSuffix(lower, ".bat") {
		cfg.Args = append([]string{"/C", cfg.Command}, cfg.Args...)
		cfg.Command = "cmd.exe"
		cfg.HideWindow = true
	}
	return cfg
}
