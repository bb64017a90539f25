// Package agent runs the capture, inference and execution loop that lets a
// vision model drive the desktop.
package agent

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/xkilldash9x/aiport/internal/action"
	"github.com/xkilldash9x/aiport/internal/activity"
	"github.com/xkilldash9x/aiport/internal/capture"
	"github.com/xkilldash9x/aiport/internal/config"
	"github.com/xkilldash9x/aiport/internal/humanoid"
	"github.com/xkilldash9x/aiport/internal/llmclient"
	"github.com/xkilldash9x/aiport/internal/llmutil"
	"github.com/xkilldash9x/aiport/internal/usage"
)

// Capturer produces the screenshot for each iteration.
type Capturer interface {
	Capture(ctx context.Context) (capture.Shot, error)
	Cleanup() error
}

// Dependencies are the collaborators the loop orchestrates.
type Dependencies struct {
	Provider llmclient.Provider
	Capturer Capturer
	Executor PlanExecutor
	Tutorial TutorialSource
	Activity *activity.Log
	// Ledger is optional. When set, usage is recorded at session close.
	Ledger *usage.Ledger
	// Prices defaults to usage.DefaultPrices.
	Prices usage.PriceTable
}

// Result describes how a session ended.
type Result struct {
	SessionID string
	State     State
	// Completed is set when the model declared the task done.
	Completed  bool
	Iterations int
	Err        error
	Usage      usage.Stats
	Costs      usage.Costs
}

// Agent owns at most one live session at a time.
type Agent struct {
	cfg    config.AgentConfig
	deps   Dependencies
	logger *zap.Logger
	now    func() time.Time

	mu      sync.Mutex
	state   State
	current *run

	shotMu   sync.RWMutex
	lastShot string
}

// run is the bookkeeping of one session.
type run struct {
	session  Session
	stop     chan struct{}
	stopOnce sync.Once
	finished chan struct{}
	result   Result
}

// New creates an agent. Provider, Capturer, Executor, Tutorial and Activity
// are required.
func New(cfg config.AgentConfig, deps Dependencies, logger *zap.Logger) (*Agent, error) {
	switch {
	case deps.Provider == nil:
		return nil, errors.New("agent: provider is required")
	case deps.Capturer == nil:
		return nil, errors.New("agent: capturer is required")
	case deps.Executor == nil:
		return nil, errors.New("agent: executor is required")
	case deps.Tutorial == nil:
		return nil, errors.New("agent: tutorial source is required")
	case deps.Activity == nil:
		return nil, errors.New("agent: activity log is required")
	}
	if deps.Prices == nil {
		deps.Prices = usage.DefaultPrices
	}
	if cfg.PacingInterval <= 0 {
		cfg.PacingInterval = 2 * time.Second
	}
	return &Agent{
		cfg:    cfg,
		deps:   deps,
		logger: logger.Named("agent"),
		now:    time.Now,
		state:  StateIdle,
	}, nil
}

// Run starts a session and blocks until it ends.
func (a *Agent) Run(ctx context.Context, s Session) (Result, error) {
	if err := a.Start(ctx, s); err != nil {
		return Result{SessionID: s.ID, State: StateFailed, Err: err}, err
	}
	res := a.Wait()
	return res, res.Err
}

// Start launches the session on a background goroutine.
func (a *Agent) Start(ctx context.Context, s Session) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.current != nil {
		select {
		case <-a.current.finished:
		default:
			return ErrAlreadyRunning
		}
	}
	r := &run{
		session:  s,
		stop:     make(chan struct{}),
		finished: make(chan struct{}),
	}
	a.current = r
	a.state = StateStarting
	go a.loop(ctx, r)
	return nil
}

// Stop asks the live session to end at the next iteration boundary. It does
// not interrupt a plan that is executing.
func (a *Agent) Stop() {
	a.mu.Lock()
	r := a.current
	a.mu.Unlock()
	if r != nil {
		r.stopOnce.Do(func() { close(r.stop) })
	}
}

// Wait blocks until the current session ends and returns its result. With no
// session it returns immediately.
func (a *Agent) Wait() Result {
	a.mu.Lock()
	r := a.current
	a.mu.Unlock()
	if r == nil {
		return Result{State: StateIdle}
	}
	<-r.finished
	return r.result
}

// State returns the loop's current state.
func (a *Agent) State() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// LastScreenshot is the path of the most recent capture, or "".
func (a *Agent) LastScreenshot() string {
	a.shotMu.RLock()
	defer a.shotMu.RUnlock()
	return a.lastShot
}

func (a *Agent) setState(s State) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// outcome tells the loop what to do after an iteration.
type outcome int

const (
	continueLoop outcome = iota
	taskComplete
	fatal
)

func (a *Agent) loop(ctx context.Context, r *run) {
	s := r.session
	logger := a.logger.With(zap.String("session_id", s.ID), zap.String("provider", string(s.Provider)), zap.String("model", s.Model))
	log := a.deps.Activity
	res := Result{SessionID: s.ID}

	defer func() {
		if err := a.deps.Capturer.Cleanup(); err != nil {
			logger.Warn("Screenshot cleanup failed", zap.Error(err))
		}
		a.setState(res.State)
		r.result = res
		close(r.finished)
	}()

	fail := func(err error, format string, args ...interface{}) {
		res.State = StateFailed
		res.Err = err
		log.Error(string(StateFailed), err, format, args...)
	}

	log.Info(string(StateStarting), "AI agent starting (session %s, %s/%s)", s.ID, s.Provider, s.Model)
	if err := s.Validate(); err != nil {
		fail(err, "session rejected")
		return
	}
	tutorial, err := a.deps.Tutorial.Load(ctx)
	if err != nil {
		fail(err, "failed to load tutorial, stopping agent")
		return
	}

	tracker := usage.NewTracker(s.Model, a.now())
	defer func() {
		res.Usage = tracker.Snapshot()
		res.Costs = res.Usage.Costs(a.deps.Prices, a.now())
		a.recordUsage(logger, res.Usage)
	}()
	limiter := a.limiterFor(s.Model)

	for {
		if a.stopRequested(ctx, r) {
			res.State = StateStopped
			log.Info(string(StateStopped), "AI stopped by user")
			return
		}
		if a.cfg.MaxIterations > 0 && res.Iterations >= a.cfg.MaxIterations {
			res.State = StateStopped
			log.Info(string(StateStopped), "iteration limit of %d reached", a.cfg.MaxIterations)
			return
		}
		res.Iterations++

		switch out, err := a.iterate(ctx, s, tutorial, tracker, res.Iterations); out {
		case taskComplete:
			res.State = StateStopped
			res.Completed = true
			log.Info(string(StateStopped), "AI thinks the task is complete, stopping")
			return
		case fatal:
			if hint := llmclient.Hint(err); hint != "" {
				fail(err, "stopping agent (%s)", hint)
			} else {
				fail(err, "stopping agent")
			}
			return
		}

		a.setState(StatePacing)
		if !a.pace(ctx, r, limiter) {
			res.State = StateStopped
			log.Info(string(StateStopped), "AI stopped by user")
			return
		}
	}
}

// iterate performs one capture, inference, parse and execute cycle.
func (a *Agent) iterate(ctx context.Context, s Session, tutorial string, tracker *usage.Tracker, n int) (outcome, error) {
	log := a.deps.Activity

	a.setState(StateCapturing)
	shot, err := a.deps.Capturer.Capture(ctx)
	if err != nil {
		if errors.Is(err, humanoid.ErrInputUnavailable) {
			return fatal, err
		}
		log.Error(string(StateCapturing), err, "iteration %d: screenshot failed, skipping", n)
		return continueLoop, err
	}
	a.shotMu.Lock()
	a.lastShot = shot.Path
	a.shotMu.Unlock()
	log.Info(string(StateCapturing), "iteration %d: screenshot %s, pointer at (%d, %d)", n, shot.Path, shot.Cursor.X, shot.Cursor.Y)

	a.setState(StateInferring)
	resp, err := a.deps.Provider.Send(ctx, llmclient.Request{
		Instruction: s.Instruction,
		Tutorial:    tutorial,
		ImageBase64: base64.StdEncoding.EncodeToString(shot.PNG),
		ImageMIME:   "image/png",
		Model:       s.Model,
		Credential:  s.Credential,
	})
	if err != nil {
		if llmclient.IsFatal(err) {
			return fatal, err
		}
		log.Error(string(StateInferring), err, "iteration %d: model request failed, retrying next iteration", n)
		return continueLoop, err
	}
	tracker.Add(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, resp.Usage.Estimated)
	log.Info(string(StateInferring), "AI response: %s", llmutil.Truncate(resp.Text, 500))

	a.setState(StateParsing)
	plan, rejected, err := action.Parse(resp.Text)
	if err != nil {
		log.Error(string(StateParsing), err, "iteration %d: reply is not an action plan", n)
		return continueLoop, err
	}
	for _, rej := range rejected {
		log.Error(string(StateParsing), nil, "%s", rej.String())
	}
	if len(plan) == 0 {
		if len(rejected) == 0 {
			return taskComplete, nil
		}
		return continueLoop, nil
	}

	a.setState(StateExecuting)
	// Stop requests never cut a plan short.
	report, err := a.deps.Executor.Execute(context.WithoutCancel(ctx), plan)
	if err != nil {
		if errors.Is(err, humanoid.ErrInputUnavailable) {
			return fatal, err
		}
		log.Error(string(StateExecuting), err, "iteration %d: plan aborted", n)
		return continueLoop, err
	}
	log.Info(string(StateExecuting), "iteration %d: %d of %d actions executed", n, report.Executed, len(plan))
	return continueLoop, nil
}

func (a *Agent) stopRequested(ctx context.Context, r *run) bool {
	select {
	case <-r.stop:
		return true
	case <-ctx.Done():
		return true
	default:
		return false
	}
}

// pace waits out the pacing interval or the rate limiter, whichever is
// longer. It returns false when a stop arrived meanwhile.
func (a *Agent) pace(ctx context.Context, r *run, limiter *rate.Limiter) bool {
	wait := a.cfg.PacingInterval
	var reservation *rate.Reservation
	if limiter != nil {
		reservation = limiter.Reserve()
		if d := reservation.Delay(); d > wait {
			wait = d
		}
	}
	t := time.NewTimer(wait)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-r.stop:
	case <-ctx.Done():
	}
	if reservation != nil {
		reservation.Cancel()
	}
	return false
}

// limiterFor builds the request limiter from the configured or listed RPM.
// It returns nil when limiting is disabled.
func (a *Agent) limiterFor(model string) *rate.Limiter {
	rpm := a.cfg.RequestsPerMinute
	if rpm < 0 {
		return nil
	}
	if rpm == 0 {
		rpm = a.deps.Prices.Lookup(model).RPM
	}
	if rpm <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
}

func (a *Agent) recordUsage(logger *zap.Logger, stats usage.Stats) {
	costs := stats.Costs(a.deps.Prices, a.now())
	logger.Info("Session usage",
		zap.Int64("tokens_in", stats.TokensIn),
		zap.Int64("tokens_out", stats.TokensOut),
		zap.Int64("requests", stats.Requests),
		zap.Float64("cost_usd", costs.Current),
	)
	if a.deps.Ledger == nil {
		return
	}
	now := a.now()
	if err := a.deps.Ledger.Record(now, usage.NewEntry(stats, a.deps.Prices, now)); err != nil {
		logger.Error("Failed to save usage ledger", zap.Error(err))
	}
}

// String renders a short summary of the result.
func (r Result) String() string {
	s := fmt.Sprintf("session %s %s after %d iteration(s)", r.SessionID, r.State, r.Iterations)
	if r.Completed {
		s += " (task complete)"
	}
	if r.Err != nil {
		s += ": " + r.Err.Error()
	}
	return s
}
