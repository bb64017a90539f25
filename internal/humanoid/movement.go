package humanoid

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// MoveTo glides the pointer to target over the configured move duration. The
// target is clamped to the screen; non-finite targets are rejected before any
// event is sent. The final event lands exactly on the (clamped) target.
func (h *Humanoid) MoveTo(ctx context.Context, target Vector2D) error {
	if !target.IsFinite() {
		return fmt.Errorf("%w: (%v, %v)", ErrInvalidCoordinate, target.X, target.Y)
	}

	w, ht, err := h.executor.ScreenSize(ctx)
	if err != nil {
		return fmt.Errorf("humanoid: failed to read screen size: %w", err)
	}
	target = target.Clamp(w, ht)
	start := h.syncPosition(ctx)

	numSteps := int(h.cfg.MoveDuration.Seconds() * float64(h.cfg.StepRate))
	if numSteps < 2 {
		numSteps = 2
	}
	path := h.generateIdealPath(start, target, numSteps)
	stepSleep := h.cfg.MoveDuration / time.Duration(len(path))

	h.mu.Lock()
	buttons := h.buttons
	h.mu.Unlock()

	last := len(path) - 1
	for i, p := range path {
		if i < last {
			p = h.perturb(p, float64(i)/float64(last)).Clamp(w, ht)
		}
		ev := MouseEventData{Type: MouseMove, X: p.X, Y: p.Y, Button: ButtonNone, Buttons: buttons}
		if err := h.executor.DispatchMouseEvent(ctx, ev); err != nil {
			return fmt.Errorf("humanoid: mouse move failed: %w", err)
		}
		h.mu.Lock()
		h.currentPos = p
		h.mu.Unlock()

		if last > 0 {
			if err := h.executor.Sleep(ctx, stepSleep); err != nil {
				return err
			}
		}
	}

	h.logger.Debug("Pointer moved",
		zap.Float64("from_x", start.X), zap.Float64("from_y", start.Y),
		zap.Float64("to_x", target.X), zap.Float64("to_y", target.Y),
		zap.Int("steps", len(path)))
	return nil
}

// syncPosition refreshes the tracked position from the platform, since the
// operator may have moved the mouse between actions.
func (h *Humanoid) syncPosition(ctx context.Context) Vector2D {
	pos, err := h.executor.CursorPosition(ctx)
	h.mu.Lock()
	defer h.mu.Unlock()
	if err != nil || !pos.IsFinite() {
		h.logger.Debug("Cursor position unavailable, using tracked position.", zap.Error(err))
		return h.currentPos
	}
	h.currentPos = pos
	return pos
}
