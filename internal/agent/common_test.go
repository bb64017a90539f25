package agent

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/xkilldash9x/aiport/internal/action"
	"github.com/xkilldash9x/aiport/internal/activity"
	"github.com/xkilldash9x/aiport/internal/capture"
	"github.com/xkilldash9x/aiport/internal/config"
	"github.com/xkilldash9x/aiport/internal/llmclient"
)

// leakOptions tolerates keep-alive connections the HTTP client is still
// tearing down when a test returns, and the stats worker that older Google
// auth transports start at init.
var leakOptions = []goleak.Option{
	goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
	goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	goleak.IgnoreTopFunction("go.opencensus.io/stats/view.(*worker).start"),
}

// waitTimeout waits for ch to close but gives up after timeout. It keeps
// tests from hanging indefinitely.
func waitTimeout(ch <-chan struct{}, timeout time.Duration) bool {
	select {
	case <-ch:
		return true
	case <-time.After(timeout):
		return false
	}
}

// scriptedProvider replays replies in order, then answers "[]".
type scriptedProvider struct {
	mu       sync.Mutex
	replies  []reply
	requests []llmclient.Request
}

type reply struct {
	text string
	err  error
}

func (p *scriptedProvider) Name() config.LLMProvider { return config.ProviderOpenAI }

func (p *scriptedProvider) Send(_ context.Context, req llmclient.Request) (*llmclient.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	r := reply{text: "[]"}
	if len(p.replies) > 0 {
		r, p.replies = p.replies[0], p.replies[1:]
	}
	if r.err != nil {
		return nil, r.err
	}
	return &llmclient.Response{Text: r.text, Usage: llmclient.Usage{PromptTokens: 100, CompletionTokens: 10}}, nil
}

func (p *scriptedProvider) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

// fakeCapturer hands out numbered shots. failOn makes that call (1-based)
// fail; err, when set, fails every call.
type fakeCapturer struct {
	mu       sync.Mutex
	n        int
	failOn   int
	err      error
	cleanups int
}

func (c *fakeCapturer) Capture(context.Context) (capture.Shot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n++
	if c.err != nil {
		return capture.Shot{}, c.err
	}
	if c.n == c.failOn {
		return capture.Shot{}, errors.New("display asleep")
	}
	return capture.Shot{
		PNG:    []byte("png-bytes"),
		Path:   fmt.Sprintf("/tmp/screenshot_%d.png", c.n),
		Cursor: image.Pt(10, 20),
	}, nil
}

func (c *fakeCapturer) Cleanup() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleanups++
	return nil
}

func (c *fakeCapturer) captures() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

// recordingExecutor stores each plan. hook, when set, runs inside Execute.
type recordingExecutor struct {
	mu    sync.Mutex
	plans []action.Plan
	err   error
	hook  func(ctx context.Context)
}

func (e *recordingExecutor) Execute(ctx context.Context, plan action.Plan) (ExecutionReport, error) {
	if e.hook != nil {
		e.hook(ctx)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.plans = append(e.plans, plan)
	if e.err != nil {
		return ExecutionReport{}, e.err
	}
	return ExecutionReport{Executed: len(plan)}, nil
}

func (e *recordingExecutor) executed() []action.Plan {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]action.Plan(nil), e.plans...)
}

type harness struct {
	agent    *Agent
	provider *scriptedProvider
	capturer *fakeCapturer
	executor *recordingExecutor
	activity *activity.Log
	logs     *observer.ObservedLogs
}

func newHarness(t *testing.T, replies ...reply) *harness {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	logger := zap.New(core)
	h := &harness{
		provider: &scriptedProvider{replies: replies},
		capturer: &fakeCapturer{},
		executor: &recordingExecutor{},
		activity: activity.New(logger, nil),
		logs:     logs,
	}
	h.agent = h.build(t, logger, Dependencies{})
	return h
}

// build assembles an agent from the harness fakes; non-nil fields of
// override replace them.
func (h *harness) build(t *testing.T, logger *zap.Logger, override Dependencies) *Agent {
	t.Helper()
	deps := Dependencies{
		Provider: h.provider,
		Capturer: h.capturer,
		Executor: h.executor,
		Tutorial: StaticTutorial("tutorial"),
		Activity: h.activity,
		Ledger:   override.Ledger,
	}
	if override.Provider != nil {
		deps.Provider = override.Provider
	}
	if override.Executor != nil {
		deps.Executor = override.Executor
	}
	if override.Tutorial != nil {
		deps.Tutorial = override.Tutorial
	}
	cfg := config.AgentConfig{PacingInterval: time.Millisecond, RequestsPerMinute: -1}
	a, err := New(cfg, deps, logger)
	require.NoError(t, err)
	return a
}

func testSession() Session {
	return NewSession(config.ProviderOpenAI, "gpt-4o", "sk-test", "open the browser")
}
