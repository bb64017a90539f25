// File: cmd/run.go
package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/aiport/internal/activity"
	"github.com/xkilldash9x/aiport/internal/agent"
	"github.com/xkilldash9x/aiport/internal/capture"
	"github.com/xkilldash9x/aiport/internal/config"
	"github.com/xkilldash9x/aiport/internal/desktop"
	"github.com/xkilldash9x/aiport/internal/humanoid"
	"github.com/xkilldash9x/aiport/internal/llmclient"
	"github.com/xkilldash9x/aiport/internal/observability"
	"github.com/xkilldash9x/aiport/internal/speech"
	"github.com/xkilldash9x/aiport/internal/usage"
)

// platform is the desktop layer a session drives.
type platform struct {
	input  humanoid.Executor
	screen capture.Screen
	fs     afero.Fs
}

// newPlatform connects to the local display. Tests replace it.
var newPlatform = func(ctx context.Context, logger *zap.Logger) (platform, error) {
	robot := desktop.NewRobot(logger)
	if err := robot.Available(ctx); err != nil {
		return platform{}, fmt.Errorf("desktop input is not available: %w", err)
	}
	return platform{input: robot, screen: robot, fs: afero.NewOsFs()}, nil
}

// newProvider builds the model adapter. Tests replace it.
var newProvider = llmclient.NewProviderFromConfig

// flagBindings maps run flags onto config keys so flags override the file
// and the environment.
var flagBindings = map[string]string{
	"provider":       "agent.provider",
	"model":          "agent.model",
	"tutorial-url":   "agent.tutorial_url",
	"max-iterations": "agent.max_iterations",
	"cursor":         "capture.cursor_image",
	"api-key":        "providers.api_key",
}

func newRunCmd(v *viper.Viper) *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run [instruction...]",
		Short: "Start an agent session with the given instruction",
		Long: `Start an agent session. The model sees the screen, plans actions and
the agent performs them until the model replies with an empty plan.

While it runs, type "stop" and Enter to end the session after the current
step, "shot" to print the latest screenshot path or "status" for the loop state.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := getConfigFromContext(ctx)
			if err != nil {
				return err
			}
			instruction := strings.Join(args, " ")
			return runSession(ctx, cfg, instruction, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := runCmd.Flags()
	flags.StringP("provider", "p", "", "model provider (gemini, openrouter, openai, claude, ollama)")
	flags.StringP("model", "m", "", "model name, see 'aiport models'")
	flags.StringP("api-key", "k", "", "API key for the provider (or AIPORT_API_KEY)")
	flags.String("tutorial-url", "", "URL of the action protocol tutorial (built-in when empty)")
	flags.String("cursor", "", "PNG drawn over the pointer in screenshots")
	flags.Int("max-iterations", 0, "stop after this many iterations (0 is unbounded)")
	for flag, key := range flagBindings {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
	return runCmd
}

// runSession wires the components for one session, runs it and coordinates
// the operator console until it ends.
func runSession(ctx context.Context, cfg config.Interface, instruction string, in io.Reader, out io.Writer) error {
	logger := observability.GetLogger()
	agentCfg := cfg.Agent()
	// The activity log and the console share out from several goroutines.
	out = zapcore.Lock(zapcore.AddSync(out))

	providerCfg, _ := cfg.Providers().Get(agentCfg.Provider)
	session := agent.NewSession(agentCfg.Provider, agentCfg.Model, providerCfg.APIKey, instruction)
	if err := session.Validate(); err != nil {
		return err
	}

	plat, err := newPlatform(ctx, logger)
	if err != nil {
		return err
	}
	provider, err := newProvider(agentCfg.Provider, cfg, logger)
	if err != nil {
		return err
	}

	log := activity.New(logger, out)
	ctrl := humanoid.New(humanoid.ConfigFromSettings(cfg.Executor()), logger, plat.input)
	executor := agent.NewExecutor(logger, ctrl, speech.New(cfg.Speech(), plat.fs, logger), log, cfg.Executor().ActionDelay)

	a, err := agent.New(agentCfg, agent.Dependencies{
		Provider: provider,
		Capturer: capture.New(cfg.Capture(), plat.screen, plat.fs, logger),
		Executor: executor,
		Tutorial: &agent.RemoteTutorial{
			URL:        agentCfg.TutorialURL,
			MaxElapsed: agentCfg.TutorialMaxElapsed,
			Logger:     logger,
		},
		Activity: log,
		Ledger:   usage.NewLedger(plat.fs, cfg.Usage().LedgerPath, logger),
	}, logger)
	if err != nil {
		return err
	}

	if err := a.Start(ctx, session); err != nil {
		return err
	}
	return superviseSession(ctx, a, in, out)
}

// superviseSession waits for the session while relaying console commands and
// turning context cancellation into a stop request.
func superviseSession(ctx context.Context, a *agent.Agent, in io.Reader, out io.Writer) error {
	done := make(chan struct{})
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		res := a.Wait()
		close(done)
		fmt.Fprintln(out, res.String())
		fmt.Fprintf(out, "usage: %d requests, %d tokens in, %d tokens out, $%.4f (est. $%.4f/hour, $%.2f/day)\n",
			res.Usage.Requests, res.Usage.TokensIn, res.Usage.TokensOut,
			res.Costs.Current, res.Costs.Hourly, res.Costs.Daily)
		return res.Err
	})

	g.Go(func() error {
		select {
		case <-gctx.Done():
			a.Stop()
		case <-done:
		}
		return nil
	})

	lines := readLines(in, done)
	g.Go(func() error {
		for {
			select {
			case <-done:
				return nil
			case line, ok := <-lines:
				if !ok {
					lines = nil
					continue
				}
				handleConsoleCommand(a, line, out)
			}
		}
	})

	return g.Wait()
}

func handleConsoleCommand(a *agent.Agent, line string, out io.Writer) {
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "":
	case "stop", "q", "quit":
		if a.State().Terminal() {
			fmt.Fprintln(out, "session already ended")
			return
		}
		a.Stop()
		fmt.Fprintln(out, "stop requested, finishing the current step")
	case "shot", "screenshot":
		if p := a.LastScreenshot(); p != "" {
			fmt.Fprintln(out, p)
		} else {
			fmt.Fprintln(out, "no screenshot yet")
		}
	case "status", "state":
		fmt.Fprintln(out, a.State())
	default:
		fmt.Fprintf(out, "unknown command %q (stop, shot, status)\n", line)
	}
}

// readLines streams lines from r until EOF or until done closes.
func readLines(r io.Reader, done <-chan struct{}) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()
	return lines
}
