// internal/agent/executor.go
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/xkilldash9x/aiport/internal/action"
	"github.com/xkilldash9x/aiport/internal/activity"
	"github.com/xkilldash9x/aiport/internal/humanoid"
	"github.com/xkilldash9x/aiport/internal/speech"
)

// PlanExecutor runs a decoded plan against the desktop.
type PlanExecutor interface {
	Execute(ctx context.Context, plan action.Plan) (ExecutionReport, error)
}

// ExecutionReport summarizes one plan.
type ExecutionReport struct {
	Executed int
	Failed   []ActionFailure
}

// ActionFailure records why one action of a plan did not run.
type ActionFailure struct {
	Index int
	Kind  action.Kind
	Code  ErrorCode
	Err   error
}

// actionHandler defines the function signature for a specific action handler.
type actionHandler func(ctx context.Context, a action.Action) error

// Executor maps actions onto humanoid input primitives, one after another
// with a fixed delay between them.
type Executor struct {
	logger   *zap.Logger
	ctrl     humanoid.Controller
	speaker  speech.Speaker
	activity *activity.Log
	delay    time.Duration
	handlers map[action.Kind]actionHandler
}

var _ PlanExecutor = (*Executor)(nil) // Verify interface compliance.

// NewExecutor creates an executor. speaker may be nil, in which case speak
// actions fail with ErrCodeFeatureDisabled.
func NewExecutor(logger *zap.Logger, ctrl humanoid.Controller, speaker speech.Speaker, log *activity.Log, delay time.Duration) *Executor {
	e := &Executor{
		logger:   logger.Named("action_executor"),
		ctrl:     ctrl,
		speaker:  speaker,
		activity: log,
		delay:    delay,
		handlers: make(map[action.Kind]actionHandler),
	}
	e.registerHandlers()
	return e
}

// Execute runs plan in order. A failing action is logged and skipped; the
// only error returned is one wrapping humanoid.ErrInputUnavailable, which
// aborts the rest of the plan.
func (e *Executor) Execute(ctx context.Context, plan action.Plan) (ExecutionReport, error) {
	var report ExecutionReport
	for i, a := range plan {
		if i > 0 {
			if err := e.ctrl.Pause(ctx, e.delay); err != nil {
				return report, err
			}
		}

		e.activity.Info(string(StateExecuting), "action %d/%d: %s", i+1, len(plan), describe(a))
		err := e.run(ctx, a)
		if err == nil {
			report.Executed++
			continue
		}

		code := classifyActionError(err)
		report.Failed = append(report.Failed, ActionFailure{Index: i, Kind: a.Kind, Code: code, Err: err})
		e.activity.Error(string(StateExecuting), err, "action %d (%s) failed [%s]", i+1, a.Kind, code)
		if code == ErrCodeInputUnavailable {
			return report, fmt.Errorf("action %d (%s): %w", i+1, a.Kind, err)
		}
	}
	return report, nil
}

// run executes one action, converting a handler panic into an error.
func (e *Executor) run(ctx context.Context, a action.Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("Action handler panicked", zap.String("kind", string(a.Kind)), zap.Any("panic", r))
			err = &panicError{value: r}
		}
	}()

	handler, ok := e.handlers[a.Kind]
	if !ok {
		return &unknownActionError{kind: a.Kind}
	}
	return handler(ctx, a)
}

// registerHandlers populates the internal map of action kinds to their handler functions.
func (e *Executor) registerHandlers() {
	e.handlers[action.KindMove] = e.handleMove
	e.handlers[action.KindClick] = e.handleClick
	e.handlers[action.KindClickDown] = e.handleClickDown
	e.handlers[action.KindClickUp] = e.handleClickUp
	e.handlers[action.KindScroll] = e.handleScroll
	e.handlers[action.KindType] = e.handleType
	e.handlers[action.KindHotkey] = e.handleHotkey
	e.handlers[action.KindMultiClick] = e.handleMultiClick
	e.handlers[action.KindKeyHold] = e.handleKeyHold
	e.handlers[action.KindSpeak] = e.handleSpeak
}

func (e *Executor) handleMove(ctx context.Context, a action.Action) error {
	return e.ctrl.MoveTo(ctx, humanoid.Vector2D{X: a.X, Y: a.Y})
}

func (e *Executor) handleClick(ctx context.Context, a action.Action) error {
	return e.ctrl.Click(ctx, mouseButton(a.Button), a.Count)
}

func (e *Executor) handleClickDown(ctx context.Context, a action.Action) error {
	return e.ctrl.MouseDown(ctx, mouseButton(a.Button))
}

func (e *Executor) handleClickUp(ctx context.Context, a action.Action) error {
	return e.ctrl.MouseUp(ctx, mouseButton(a.Button))
}

func (e *Executor) handleScroll(ctx context.Context, a action.Action) error {
	return e.ctrl.Scroll(ctx, a.DY)
}

func (e *Executor) handleType(ctx context.Context, a action.Action) error {
	return e.ctrl.Type(ctx, a.Text)
}

func (e *Executor) handleHotkey(ctx context.Context, a action.Action) error {
	return e.ctrl.Hotkey(ctx, a.Keys...)
}

func (e *Executor) handleMultiClick(ctx context.Context, a action.Action) error {
	return e.ctrl.MultiClick(ctx, humanoid.Vector2D{X: a.X, Y: a.Y}, a.Count)
}

func (e *Executor) handleKeyHold(ctx context.Context, a action.Action) error {
	return e.ctrl.KeyHold(ctx, a.Key, a.Duration)
}

func (e *Executor) handleSpeak(ctx context.Context, a action.Action) error {
	if e.speaker == nil {
		return errSpeechDisabled
	}
	if err := e.speaker.Speak(ctx, a.Text); err != nil {
		return &speechError{err: err}
	}
	return nil
}

func mouseButton(b action.Button) humanoid.MouseButton {
	switch b {
	case action.ButtonRight:
		return humanoid.ButtonRight
	case action.ButtonMiddle:
		return humanoid.ButtonMiddle
	default:
		return humanoid.ButtonLeft
	}
}

var errSpeechDisabled = errors.New("speech is disabled")

type speechError struct{ err error }

func (e *speechError) Error() string { return "speak: " + e.err.Error() }
func (e *speechError) Unwrap() error { return e.err }

type unknownActionError struct{ kind action.Kind }

func (e *unknownActionError) Error() string {
	return fmt.Sprintf("handler not found for action type: %s", e.kind)
}

type panicError struct{ value interface{} }

func (e *panicError) Error() string { return fmt.Sprintf("handler panic: %v", e.value) }

// classifyActionError assigns the structured code for a failed action.
func classifyActionError(err error) ErrorCode {
	var (
		unknown *unknownActionError
		panicE  *panicError
		speechE *speechError
	)
	switch {
	case errors.Is(err, humanoid.ErrInputUnavailable):
		return ErrCodeInputUnavailable
	case errors.Is(err, humanoid.ErrInvalidCoordinate):
		return ErrCodeInvalidTarget
	case errors.Is(err, errSpeechDisabled):
		return ErrCodeFeatureDisabled
	case errors.As(err, &unknown):
		return ErrCodeUnknownAction
	case errors.As(err, &panicE):
		return ErrCodeExecutorPanic
	case errors.As(err, &speechE):
		return ErrCodeSpeechFailure
	}
	return ErrCodeExecutionFailure
}

// describe renders an action for the activity log.
func describe(a action.Action) string {
	switch a.Kind {
	case action.KindMove:
		return fmt.Sprintf("move to (%.0f, %.0f)", a.X, a.Y)
	case action.KindClick:
		return fmt.Sprintf("click %s x%d", a.Button, a.Count)
	case action.KindClickDown, action.KindClickUp:
		return fmt.Sprintf("%s %s", a.Kind, a.Button)
	case action.KindScroll:
		return fmt.Sprintf("scroll %d", a.DY)
	case action.KindType:
		return fmt.Sprintf("type %q", a.Text)
	case action.KindHotkey:
		return fmt.Sprintf("hotkey %v", a.Keys)
	case action.KindMultiClick:
		return fmt.Sprintf("multi_click (%.0f, %.0f) x%d", a.X, a.Y, a.Count)
	case action.KindKeyHold:
		return fmt.Sprintf("hold %q for %.2fs", a.Key, a.Duration)
	case action.KindSpeak:
		return fmt.Sprintf("speak %q", a.Text)
	}
	return string(a.Kind)
}
