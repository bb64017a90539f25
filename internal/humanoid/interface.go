// Filename: internal/humanoid/interface.go
package humanoid

import (
	"context"
	"errors"
	"time"
)

// ErrInputUnavailable is returned by executors when the host cannot accept
// synthetic input at all (no display, missing accessibility permission).
// It is not recoverable by retrying.
var ErrInputUnavailable = errors.New("humanoid: platform input unavailable")

// ErrInvalidCoordinate rejects targets that are NaN or infinite.
var ErrInvalidCoordinate = errors.New("humanoid: coordinate is not finite")

// Controller is the set of input primitives the action executor drives.
type Controller interface {
	MoveTo(ctx context.Context, target Vector2D) error
	Click(ctx context.Context, button MouseButton, count int) error
	MultiClick(ctx context.Context, target Vector2D, count int) error
	MouseDown(ctx context.Context, button MouseButton) error
	MouseUp(ctx context.Context, button MouseButton) error
	Scroll(ctx context.Context, dy int) error
	Type(ctx context.Context, text string) error
	Hotkey(ctx context.Context, keys ...string) error
	KeyHold(ctx context.Context, key string, seconds float64) error
	Pause(ctx context.Context, d time.Duration) error
}

// Executor is the platform layer that actually delivers events. It is the
// seam that keeps this package testable without a display.
type Executor interface {
	// Sleep pauses execution, respecting context cancellation.
	Sleep(ctx context.Context, d time.Duration) error

	// DispatchMouseEvent sends a single pointer event.
	DispatchMouseEvent(ctx context.Context, data MouseEventData) error

	// DispatchKeyEvent sends a single keyboard event.
	DispatchKeyEvent(ctx context.Context, data KeyEventData) error

	// ScreenSize reports the primary display size in pixels.
	ScreenSize(ctx context.Context) (width, height int, err error)

	// CursorPosition reports where the pointer currently is.
	CursorPosition(ctx context.Context) (Vector2D, error)
}
