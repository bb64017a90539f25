package humanoid

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"
)

// Type enters text one character at a time at the configured interval.
func (h *Humanoid) Type(ctx context.Context, text string) error {
	first := true
	for _, r := range text {
		if !first {
			if err := h.Pause(ctx, h.cfg.TypeInterval); err != nil {
				return err
			}
		}
		first = false
		if err := h.executor.DispatchKeyEvent(ctx, KeyEventData{Type: KeyChar, Text: string(r)}); err != nil {
			return fmt.Errorf("humanoid: typing %q failed: %w", r, err)
		}
	}
	return nil
}

// Hotkey presses keys in order and releases them in reverse order. If a
// press fails, the keys already held are released before returning.
func (h *Humanoid) Hotkey(ctx context.Context, keys ...string) error {
	pressed := make([]string, 0, len(keys))
	var pressErr error
	for _, k := range keys {
		if err := h.executor.DispatchKeyEvent(ctx, KeyEventData{Type: KeyDown, Key: k}); err != nil {
			pressErr = fmt.Errorf("humanoid: pressing %q failed: %w", k, err)
			break
		}
		pressed = append(pressed, k)
	}

	releaseCtx := context.WithoutCancel(ctx)
	for i := len(pressed) - 1; i >= 0; i-- {
		if err := h.executor.DispatchKeyEvent(releaseCtx, KeyEventData{Type: KeyUp, Key: pressed[i]}); err != nil {
			if pressErr == nil {
				pressErr = fmt.Errorf("humanoid: releasing %q failed: %w", pressed[i], err)
			}
		}
	}
	return pressErr
}

// KeyHold presses key, waits seconds, and releases it. The hold time is
// clamped to [0, MaxKeyHold]; NaN and infinities are rejected.
func (h *Humanoid) KeyHold(ctx context.Context, key string, seconds float64) error {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Errorf("humanoid: key hold duration %v is not finite", seconds)
	}
	hold := h.clampHold(seconds)

	if err := h.executor.DispatchKeyEvent(ctx, KeyEventData{Type: KeyDown, Key: key}); err != nil {
		return fmt.Errorf("humanoid: pressing %q failed: %w", key, err)
	}
	sleepErr := h.Pause(ctx, hold)
	// The key is released even when the wait was interrupted.
	if err := h.executor.DispatchKeyEvent(context.WithoutCancel(ctx), KeyEventData{Type: KeyUp, Key: key}); err != nil {
		return fmt.Errorf("humanoid: releasing %q failed: %w", key, err)
	}
	return sleepErr
}

func (h *Humanoid) clampHold(seconds float64) time.Duration {
	limit := h.cfg.MaxKeyHold
	if seconds <= 0 {
		return 0
	}
	if limit > 0 && seconds >= limit.Seconds() {
		if seconds > limit.Seconds() {
			h.logger.Warn("Key hold clamped", zap.Float64("requested_seconds", seconds), zap.Duration("limit", limit))
		}
		return limit
	}
	return time.Duration(seconds * float64(time.Second))
}
