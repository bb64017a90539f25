// internal/agent/errors.go
package agent

import "errors"

var (
	// ErrAlreadyRunning is returned by Start while a session is live.
	ErrAlreadyRunning = errors.New("agent: a session is already running")
	// ErrMissingCredential means the selected provider needs an API key and none was given.
	ErrMissingCredential = errors.New("agent: API key is required for this provider")
	// ErrEmptyInstruction means there is nothing to ask the model.
	ErrEmptyInstruction = errors.New("agent: instruction is empty")
	// ErrTutorialUnavailable wraps failures to obtain the tutorial text.
	ErrTutorialUnavailable = errors.New("agent: tutorial unavailable")
)

// ErrorCode is a string type used for structured error reporting from the
// action executor. Each failed action is tagged with one.
type ErrorCode string

const (
	ErrCodeExecutionFailure ErrorCode = "EXECUTION_FAILURE"
	ErrCodeUnknownAction    ErrorCode = "UNKNOWN_ACTION_TYPE"
	ErrCodeInvalidTarget    ErrorCode = "INVALID_TARGET"
	ErrCodeInputUnavailable ErrorCode = "INPUT_UNAVAILABLE"
	ErrCodeSpeechFailure    ErrorCode = "SPEECH_FAILURE"
	ErrCodeFeatureDisabled  ErrorCode = "FEATURE_DISABLED"

	// -- Internal System Errors --
	ErrCodeExecutorPanic ErrorCode = "EXECUTOR_PANIC"
)
