package terminal

// LaunchConfig is the fully resolved recipe for one pane process:
// executable path, final argument vector, working directory and extra
// environment. Produced by a Resolver, consumed by Spawn.
type LaunchConfig struct {
	Command string
	Args    []string
	Dir     string
	Env     []string // KEY=VALUE pairs appended to the inherited environment
	Cols    uint16
	Rows    uint16

	// HideWindow suppresses the console window for wrapped launcher
	// scripts. Only meaningful on Windows.
	HideWindow bool

	// Session metadata, injected into the child environment when set.
	PaneID string
	Branch string
	Tool   string
}

// LaunchRequest names a tool and how to start it. Mode is "", "normal",
// "continue" or "resume"; the empty string means a fresh session.
type LaunchRequest struct {
	ToolID    string   `json:"tool_id"`
	Mode      string   `json:"mode,omitempty"`
	SessionID string   `json:"session_id,omitempty"`
	Model     string   `json:"model,omitempty"`
	Dangerous bool     `json:"dangerous,omitempty"`
	ExtraArgs []string `json:"extra_args,omitempty"`
	Dir       string   `json:"dir,omitempty"`
	Env       []string `json:"env,omitempty"`

	ProjectRoot string `json:"project_root,omitempty"`
	Branch      string `json:"branch,omitempty"`
	Label       string `json:"label,omitempty"`

	Cols uint16 `json:"cols,omitempty"`
	Rows uint16 `json:"rows,omitempty"`
}

// Resolver turns a launch request into a runnable configuration.
type Resolver interface {
	Resolve(req LaunchRequest) (LaunchConfig, error)
}
