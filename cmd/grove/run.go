package main

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/grovekit/grove/internal/config"
	"github.com/grovekit/grove/internal/gitcli"
	"github.com/grovekit/grove/internal/launch"
	"github.com/grovekit/grove/internal/terminal"
)

// stdioSink streams a single pane to the attached terminal and signals
// when the pane reaches a terminal status.
type stdioSink struct {
	out io.Writer

	once   sync.Once
	ended  chan struct{}
	closed chan terminal.ExitInfo
}

func newStdioSink(out io.Writer) *stdioSink {
	return &stdioSink{
		out:    out,
		ended:  make(chan struct{}),
		closed: make(chan terminal.ExitInfo, 1),
	}
}

func (s *stdioSink) PaneOutput(_ string, data []byte) {
	s.out.Write(data)
}

func (s *stdioSink) PaneStatusChanged(_ string, status terminal.Status, detail string) {
	if status == terminal.StatusError {
		fmt.Fprintf(os.Stderr, "\ngrove: pane failed: %s\n", detail)
	}
	if status.Terminal() {
		s.once.Do(func() { close(s.ended) })
	}
}

func (s *stdioSink) PaneClosed(_ string, exit terminal.ExitInfo) {
	select {
	case s.closed <- exit:
	default:
	}
}

// makeRawStdin switches stdin to raw mode so keystrokes reach the pane
// unbuffered and unechoed. The returned restore func is always safe to
// call; it is a no-op when stdin is not a terminal.
func makeRawStdin() func() {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return func() {}
	}
	state, err := term.MakeRaw(fd)
	if err != nil {
		return func() {}
	}
	return func() { _ = term.Restore(fd, state) }
}

func newRunCmd() *cobra.Command {
	var (
		mode      string
		model     string
		dangerous bool
		dir       string
		session   string
	)

	cmd := &cobra.Command{
		Use:   "run [tool]",
		Short: "Run a coding agent in a new pane attached to this terminal",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			git := gitcli.Runner{}

			if dir == "" {
				wd, err := os.Getwd()
				if err != nil {
					return err
				}
				dir = wd
				if top, err := git.TopLevel(ctx, wd); err == nil {
					dir = top
				}
			}
			branch, _ := git.CurrentBranch(ctx, dir)

			cfg, err := config.Merged(dir)
			if err != nil {
				return err
			}

			toolID := cfg.DefaultTool
			if len(args) == 1 {
				toolID = args[0]
			}
			if toolID == "" {
				toolID = "claude"
			}
			if !dangerous {
				dangerous = toolID == "claude" && cfg.Claude.DangerousMode ||
					toolID == "gemini" && cfg.Gemini.YoloMode
			}

			cols, rows := uint16(80), uint16(24)
			if w, h, err := term.GetSize(int(os.Stdout.Fd())); err == nil {
				cols, rows = uint16(w), uint16(h)
			}

			sink := newStdioSink(cmd.OutOrStdout())
			mgr := terminal.NewManager(terminal.ManagerConfig{
				Resolver:        launch.NewResolver(cfg),
				Sink:            sink,
				MaxPanes:        cfg.MaxPanes(),
				StopGrace:       cfg.StopGrace(),
				ScrollbackLimit: cfg.ScrollbackLimit(),
			})

			restore := makeRawStdin()
			defer restore()

			id, err := mgr.Launch(terminal.LaunchRequest{
				ToolID:      toolID,
				Mode:        mode,
				SessionID:   session,
				Model:       model,
				Dangerous:   dangerous,
				Dir:         dir,
				ProjectRoot: dir,
				Branch:      branch,
				Cols:        cols,
				Rows:        rows,
			})
			if err != nil {
				return err
			}

			go func() {
				buf := make([]byte, 4096)
				for {
					n, err := os.Stdin.Read(buf)
					if n > 0 {
						if werr := mgr.WriteInput(id, buf[:n]); werr != nil {
							return
						}
					}
					if err != nil {
						return
					}
				}
			}()

			<-sink.ended
			if err := mgr.Stop(id); err != nil {
				return err
			}

			select {
			case exit := <-sink.closed:
				if exit.Err != "" {
					return fmt.Errorf("pane failed: %s", exit.Err)
				}
				if exit.Code != 0 {
					// os.Exit skips the deferred restore.
					restore()
					os.Exit(exit.Code)
				}
			case <-time.After(5 * time.Second):
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&mode, "mode", "", "session mode: normal, continue or resume")
	cmd.Flags().StringVar(&model, "model", "", "model to request from the tool")
	cmd.Flags().BoolVar(&dangerous, "dangerous", false, "skip the tool's permission prompts")
	cmd.Flags().StringVar(&dir, "dir", "", "working directory (defaults to the enclosing git worktree)")
	cmd.Flags().StringVar(&session, "session", "", "session id for --mode resume")
	return cmd
}
