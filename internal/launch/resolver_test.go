package launch

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grovekit/grove/internal/config"
	"github.com/grovekit/grove/internal/terminal"
)

// stubLookPath resolves every command under a fake bin dir and records
// what was asked for.
func stubLookPath(r *Resolver) *[]string {
	var asked []string
	r.lookPath = func(cmd string) (string, error) {
		asked = append(asked, cmd)
		return "/fake/bin/" + cmd, nil
	}
	return &asked
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    Mode
		wantErr bool
	}{
		{"", ModeNormal, false},
		{"normal", ModeNormal, false},
		{"continue", ModeContinue, false},
		{"Resume", ModeResume, false},
		{"replay", "", true},
	}
	for _, tt := range tests {
		t.Run("mode_"+tt.in, func(t *testing.T) {
			got, err := ParseMode(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveArgOrder(t *testing.T) {
	customCfg := &config.UserConfig{
		Tools: map[string]config.ToolDef{
			"aider": {
				Command:            "aider",
				DefaultArgs:        []string{"--no-auto-commits"},
				ContinueArgs:       []string{"--restore-chat-history"},
				PermissionSkipArgs: []string{"--yes-always"},
				ModelFlag:          "--model",
			},
		},
	}

	tests := []struct {
		name     string
		cfg      *config.UserConfig
		req      terminal.LaunchRequest
		wantCmd  string
		wantArgs []string
	}{
		{
			name:     "claude normal bare",
			req:      terminal.LaunchRequest{ToolID: "claude"},
			wantCmd:  "/fake/bin/claude",
			wantArgs: []string{},
		},
		{
			name:     "claude continue",
			req:      terminal.LaunchRequest{ToolID: "claude", Mode: "continue"},
			wantArgs: []string{"--continue"},
		},
		{
			name:     "claude resume with session",
			req:      terminal.LaunchRequest{ToolID: "claude", Mode: "resume", SessionID: "sess-42"},
			wantArgs: []string{"--resume", "sess-42"},
		},
		{
			name:     "claude resume without session",
			req:      terminal.LaunchRequest{ToolID: "claude", Mode: "resume"},
			wantArgs: []string{"--resume"},
		},
		{
			name: "claude full ordering",
			req: terminal.LaunchRequest{
				ToolID:    "claude",
				Mode:      "continue",
				Dangerous: true,
				Model:     "opus",
				ExtraArgs: []string{"--verbose"},
			},
			wantArgs: []string{"--continue", "--dangerously-skip-permissions", "--model", "opus", "--verbose"},
		},
		{
			name:     "codex continue",
			req:      terminal.LaunchRequest{ToolID: "codex", Mode: "continue"},
			wantArgs: []string{"resume", "--last"},
		},
		{
			name:     "codex dangerous",
			req:      terminal.LaunchRequest{ToolID: "codex", Dangerous: true},
			wantArgs: []string{"--dangerously-bypass-approvals-and-sandbox"},
		},
		{
			name:     "gemini dangerous",
			req:      terminal.LaunchRequest{ToolID: "gemini", Dangerous: true},
			wantArgs: []string{"--yolo"},
		},
		{
			name: "custom tool ordering",
			cfg:  customCfg,
			req: terminal.LaunchRequest{
				ToolID:    "aider",
				Mode:      "continue",
				Dangerous: true,
				Model:     "gpt-4o",
				ExtraArgs: []string{"main.go"},
			},
			wantCmd:  "/fake/bin/aider",
			wantArgs: []string{"--no-auto-commits", "--restore-chat-history", "--yes-always", "--model", "gpt-4o", "main.go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewResolver(tt.cfg)
			stubLookPath(r)

			got, err := r.Resolve(tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.wantArgs, got.Args)
			if tt.wantCmd != "" {
				assert.Equal(t, tt.wantCmd, got.Command)
			}
		})
	}
}

func TestResolveRejectsUnknownTool(t *testing.T) {
	r := NewResolver(nil)
	stubLookPath(r)
	_, err := r.Resolve(terminal.LaunchRequest{ToolID: "no-such-tool"})
	assert.ErrorIs(t, err, ErrConfig)
}

func TestResolveRejectsInvalidToolID(t *testing.T) {
	r := NewResolver(nil)
	stubLookPath(r)
	for _, id := range []string{"", "Bad_ID", "claude!", "UPPER"} {
		_, err := r.Resolve(terminal.LaunchRequest{ToolID: id})
		assert.ErrorIs(t, err, ErrConfig, "id %q", id)
	}
}

func TestResolveRejectsUnknownMode(t *testing.T) {
	r := NewResolver(nil)
	stubLookPath(r)
	_, err := r.Resolve(terminal.LaunchRequest{ToolID: "claude", Mode: "replay"})
	assert.ErrorIs(t, err, ErrConfig)
}

func TestResolveExecutableNotFound(t *testing.T) {
	r := NewResolver(nil)
	r.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	_, err := r.Resolve(terminal.LaunchRequest{ToolID: "claude"})
	assert.ErrorIs(t, err, ErrExecutableNotFound)
}

func TestResolveValidatesWorkingDir(t *testing.T) {
	r := NewResolver(nil)
	stubLookPath(r)

	missing := filepath.Join(t.TempDir(), "missing")
	_, err := r.Resolve(terminal.LaunchRequest{ToolID: "claude", Dir: missing})
	assert.ErrorIs(t, err, ErrConfig)

	got, err := r.Resolve(terminal.LaunchRequest{ToolID: "claude", Dir: t.TempDir()})
	require.NoError(t, err)
	assert.NotEmpty(t, got.Dir)
}

func TestResolveValidatesModel(t *testing.T) {
	r := NewResolver(nil)
	stubLookPath(r)

	_, err := r.Resolve(terminal.LaunchRequest{ToolID: "claude", Model: "gpt-4"})
	assert.ErrorIs(t, err, ErrConfig)

	got, err := r.Resolve(terminal.LaunchRequest{ToolID: "claude", Model: "opus"})
	require.NoError(t, err)
	assert.Equal(t, []string{"--model", "opus"}, got.Args)
}

func TestResolveCommandOverride(t *testing.T) {
	cfg := &config.UserConfig{Claude: config.ClaudeSettings{Command: "claude-wrapper"}}
	r := NewResolver(cfg)
	asked := stubLookPath(r)

	got, err := r.Resolve(terminal.LaunchRequest{ToolID: "claude"})
	require.NoError(t, err)
	assert.Equal(t, "/fake/bin/claude-wrapper", got.Command)
	assert.Equal(t, []string{"claude-wrapper"}, *asked)
}

func TestResolveCustomToolEnv(t *testing.T) {
	cfg := &config.UserConfig{
		Tools: map[string]config.ToolDef{
			"aider": {
				Command: "aider",
				Env:     map[string]string{"B_VAR": "2", "A_VAR": "1"},
			},
		},
	}
	r := NewResolver(cfg)
	stubLookPath(r)

	got, err := r.Resolve(terminal.LaunchRequest{ToolID: "aider", Env: []string{"REQ=x"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A_VAR=1", "B_VAR=2", "REQ=x"}, got.Env)
}

func TestResolveCustomToolWithoutCommand(t *testing.T) {
	cfg := &config.UserConfig{Tools: map[string]config.ToolDef{"broken": {}}}
	r := NewResolver(cfg)
	stubLookPath(r)
	_, err := r.Resolve(terminal.LaunchRequest{ToolID: "broken"})
	assert.ErrorIs(t, err, ErrConfig)
}

func TestWrapScriptLauncher(t *testing.T) {
	wrapped := wrapScriptLauncher(terminal.LaunchConfig{
		Command: `C:\tools\claude.CMD`,
		Args:    []string{"--continue"},
	})
	assert.Equal(t, "cmd.exe", wrapped.Command)
	assert.Equal(t, []string{"/C", `C:\tools\claude.CMD`, "--continue"}, wrapped.Args)
	assert.True(t, wrapped.HideWindow)

	batch := wrapScriptLauncher(terminal.LaunchConfig{Command: "run.bat"})
	assert.Equal(t, "cmd.exe", batch.Command)
	assert.True(t, batch.HideWindow)

	plain := wrapScriptLauncher(terminal.LaunchConfig{Command: "/usr/bin/claude", Args: []string{"-c"}})
	assert.Equal(t, "/usr/bin/claude", plain.Command)
	assert.Equal(t, []string{"-c"}, plain.Args)
	assert.False(t, plain.HideWindow)
}

func TestToolsListing(t *testing.T) {
	cfg := &config.UserConfig{
		Tools: map[string]config.ToolDef{
			"aider":  {Command: "aider"},
			"claude": {Command: "my-claude"},
		},
	}
	r := NewResolver(cfg)

	tools := r.Tools()
	ids := make([]string, len(tools))
	for i, tool := range tools {
		ids[i] = tool.ID
	}
	assert.Equal(t, []string{"aider", "claude", "codex", "gemini"}, ids)

	for _, tool := range tools {
		if tool.ID == "claude" {
			assert.Equal(t, "my-claude", tool.Command, "custom entries shadow built-ins")
		}
	}
}
