// File: cmd/cmd_test.go
package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/xkilldash9x/aiport/internal/action"
	"github.com/xkilldash9x/aiport/internal/activity"
	"github.com/xkilldash9x/aiport/internal/agent"
	"github.com/xkilldash9x/aiport/internal/capture"
	"github.com/xkilldash9x/aiport/internal/config"
	"github.com/xkilldash9x/aiport/internal/humanoid"
	"github.com/xkilldash9x/aiport/internal/usage"
)

const fastOllama = `agent:
  provider: ollama
  model: llama3
  pacing_interval: 10ms
  requests_per_minute: -1
speech:
  enabled: false
`

func TestRootCmd_VersionFlag(t *testing.T) {
	env := newTestEnv(t, "")
	out, err := env.execute(t, "", "--version")
	require.NoError(t, err)
	assert.Equal(t, Version+"\n", out)
}

func TestVersionCmd(t *testing.T) {
	env := newTestEnv(t, "")
	out, err := env.execute(t, "", "version")
	require.NoError(t, err)
	assert.Contains(t, out, "aiport "+Version)
}

func TestRootCmd_InvalidConfig(t *testing.T) {
	env := newTestEnv(t, "agent:\n  provider: skynet\n")
	_, err := env.execute(t, "", "models")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "agent.provider")
}

func TestModelsCmd(t *testing.T) {
	env := newTestEnv(t, "")

	out, err := env.execute(t, "", "models")
	require.NoError(t, err)
	assert.Contains(t, out, "gemini (API key required)")
	assert.Contains(t, out, "ollama (local, no key)")
	assert.Contains(t, out, "$5.00 in / $15.00 out per 1M tokens, 60 RPM")

	out, err = env.execute(t, "", "models", "Claude")
	require.NoError(t, err)
	assert.Contains(t, out, "claude-3-5-sonnet-20240620")
	assert.NotContains(t, out, "gpt-4o")

	_, err = env.execute(t, "", "models", "skynet")
	assert.Error(t, err)
}

func TestUsageCmd(t *testing.T) {
	env := newTestEnv(t, "")
	orig := appFs
	appFs = afero.NewMemMapFs()
	defer func() { appFs = orig }()

	out, err := env.execute(t, "", "usage")
	require.NoError(t, err)
	assert.Contains(t, out, "no usage recorded")

	ledger := usage.NewLedger(appFs, env.ledgerPath(), zap.NewNop())
	day := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)
	require.NoError(t, ledger.Record(day, usage.Entry{Model: "gpt-4o", TokensIn: 1000, TokensOut: 50, TotalRequests: 2, CurrentCostUSD: 0.0125}))
	require.NoError(t, ledger.Record(day.AddDate(0, 0, 1), usage.Entry{Model: "llama3", TotalRequests: 1}))

	out, err = env.execute(t, "", "usage")
	require.NoError(t, err)
	assert.Contains(t, out, "2026-03-14")
	assert.Contains(t, out, "gpt-4o")
	assert.Less(t, strings.Index(out, "2026-03-14"), strings.Index(out, "2026-03-15"), "entries are sorted by date")
	assert.Contains(t, out, "total: $0.0125")

	out, err = env.execute(t, "", "usage", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_requests": 2`)
}

func TestLogsCmd_RequiresLogFile(t *testing.T) {
	env := newTestEnv(t, "")
	_, err := env.execute(t, "", "logs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_file")
}

func TestStreamLogs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aiport.log")
	content := strings.Join([]string{
		`{"level":"DEBUG","ts":"2026-01-02T03:04:05.000Z","logger":"aiport.agent","msg":"tick"}`,
		`{"level":"INFO","ts":"2026-01-02T03:04:06.000Z","logger":"aiport.activity","msg":"AI response: []","state":"INFERRING"}`,
		`{"level":"ERROR","ts":"2026-01-02T03:04:07.000Z","logger":"aiport.activity","msg":"stopping agent","error":"openai auth error (HTTP 401)"}`,
		"",
	}, "\n")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	var buf bytes.Buffer
	require.NoError(t, streamLogs(context.Background(), path, false, zapcore.InfoLevel, &buf))

	out := buf.String()
	assert.NotContains(t, out, "tick")
	assert.Contains(t, out, "INFO  [aiport.activity] (INFERRING) AI response: []")
	assert.Contains(t, out, "stopping agent: openai auth error (HTTP 401)")
}

func TestStreamLogs_MissingFile(t *testing.T) {
	err := streamLogs(context.Background(), filepath.Join(t.TempDir(), "nope.log"), false, zapcore.DebugLevel, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestFormatLogLine(t *testing.T) {
	out, keep := formatLogLine("plain text from a crash", zapcore.ErrorLevel)
	assert.True(t, keep)
	assert.Equal(t, "plain text from a crash", out)

	_, keep = formatLogLine("   ", zapcore.DebugLevel)
	assert.False(t, keep)

	out, keep = formatLogLine(`{"level":"WARN","ts":"bad","msg":"falling back"}`, zapcore.DebugLevel)
	assert.True(t, keep)
	assert.Equal(t, "bad WARN  falling back", out)
}

func TestRunCmd_CompletesSession(t *testing.T) {
	provider := &cannedProvider{replies: []string{`[{"type":"scroll","dy":-2}]`}}
	input, fs := installFakes(t, provider)
	env := newTestEnv(t, fastOllama)

	out, err := env.execute(t, "", "run", "open", "the", "browser")
	require.NoError(t, err)

	assert.Contains(t, out, "task complete")
	assert.Contains(t, out, "usage: 2 requests, 2000 tokens in, 40 tokens out")
	require.Len(t, provider.seen, 2)
	assert.Equal(t, "open the browser", provider.seen[0].Instruction)
	assert.Equal(t, "llama3", provider.seen[0].Model)
	assert.Equal(t, agent.DefaultTutorial(), provider.seen[0].Tutorial)

	var wheel bool
	for _, ev := range input.mouseEvents() {
		if ev.Type == humanoid.MouseWheel {
			wheel = true
		}
	}
	assert.True(t, wheel, "scroll reached the desktop layer")

	exists, err := afero.Exists(fs, env.ledgerPath())
	require.NoError(t, err)
	assert.True(t, exists, "usage is recorded at session close")
}

func TestRunCmd_FlagsOverrideConfig(t *testing.T) {
	provider := &cannedProvider{}
	installFakes(t, provider)
	env := newTestEnv(t, fastOllama)

	_, err := env.execute(t, "", "run", "--model", "phi3", "do", "it")
	require.NoError(t, err)
	require.Len(t, provider.seen, 1)
	assert.Equal(t, "phi3", provider.seen[0].Model)
}

func TestRunCmd_MissingCredential(t *testing.T) {
	provider := &cannedProvider{}
	installFakes(t, provider)
	env := newTestEnv(t, fastOllama)

	_, err := env.execute(t, "", "run", "--provider", "gemini", "--model", "gemini-2.5-flash", "do", "it")
	assert.ErrorIs(t, err, agent.ErrMissingCredential)
	assert.Empty(t, provider.seen)
}

func TestRunCmd_RequiresInstruction(t *testing.T) {
	env := newTestEnv(t, fastOllama)
	_, err := env.execute(t, "", "run")
	assert.Error(t, err)
}

func TestRunCmd_ConsoleStop(t *testing.T) {
	provider := &cannedProvider{replies: []string{`[{"type":"scroll","dy":1}]`}}
	installFakes(t, provider)
	env := newTestEnv(t, strings.Replace(fastOllama, "10ms", "1h", 1))

	done := make(chan struct{})
	var (
		out string
		err error
	)
	go func() {
		out, err = env.execute(t, "status\nshot\nwhat\nstop\n", "run", "keep", "scrolling")
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("session did not stop on the console command")
	}

	require.NoError(t, err)
	assert.Contains(t, out, "stop requested")
	assert.Contains(t, out, `unknown command "what"`)
	assert.Contains(t, out, "STOPPED")
	assert.NotContains(t, out, "task complete")
}

type noopPlanExecutor struct{}

func (noopPlanExecutor) Execute(_ context.Context, plan action.Plan) (agent.ExecutionReport, error) {
	return agent.ExecutionReport{Executed: len(plan)}, nil
}

func TestHandleConsoleCommand_AfterSessionEnded(t *testing.T) {
	logger := zap.NewNop()
	a, err := agent.New(config.AgentConfig{PacingInterval: time.Millisecond, RequestsPerMinute: -1}, agent.Dependencies{
		Provider: &cannedProvider{},
		Capturer: capture.New(config.CaptureConfig{}, fakeScreen{}, afero.NewMemMapFs(), logger),
		Executor: noopPlanExecutor{},
		Tutorial: agent.StaticTutorial("tutorial"),
		Activity: activity.New(logger, nil),
	}, logger)
	require.NoError(t, err)

	res, err := a.Run(context.Background(), agent.NewSession(config.ProviderOllama, "llama3", "", "look around"))
	require.NoError(t, err)
	require.True(t, res.Completed)

	var buf bytes.Buffer
	handleConsoleCommand(a, "stop", &buf)
	handleConsoleCommand(a, "status", &buf)
	assert.Equal(t, "session already ended\nSTOPPED\n", buf.String())
}
