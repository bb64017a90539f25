package humanoid

import (
	"context"
	"fmt"
)

// Click presses and releases button count times at the current position.
func (h *Humanoid) Click(ctx context.Context, button MouseButton, count int) error {
	for i := 0; i < count; i++ {
		if err := h.clickOnce(ctx, button, i+1); err != nil {
			return err
		}
	}
	return nil
}

// MultiClick moves to target and then performs count discrete clicks
// separated by the multi-click gap.
func (h *Humanoid) MultiClick(ctx context.Context, target Vector2D, count int) error {
	if err := h.MoveTo(ctx, target); err != nil {
		return err
	}
	for i := 0; i < count; i++ {
		if i > 0 {
			if err := h.Pause(ctx, h.cfg.MultiClickGap); err != nil {
				return err
			}
		}
		if err := h.clickOnce(ctx, ButtonLeft, 1); err != nil {
			return err
		}
	}
	return nil
}

func (h *Humanoid) clickOnce(ctx context.Context, button MouseButton, clickCount int) error {
	if err := h.press(ctx, button, clickCount); err != nil {
		return err
	}
	if err := h.Pause(ctx, h.cfg.ClickHold); err != nil {
		// A button must never be left held because the wait was interrupted.
		_ = h.release(context.WithoutCancel(ctx), button, clickCount)
		return err
	}
	return h.release(ctx, button, clickCount)
}

// MouseDown presses button without releasing it.
func (h *Humanoid) MouseDown(ctx context.Context, button MouseButton) error {
	return h.press(ctx, button, 1)
}

// MouseUp releases button.
func (h *Humanoid) MouseUp(ctx context.Context, button MouseButton) error {
	return h.release(ctx, button, 1)
}

func (h *Humanoid) press(ctx context.Context, button MouseButton, clickCount int) error {
	h.mu.Lock()
	pos := h.currentPos
	held := h.buttons | buttonBit(button)
	h.mu.Unlock()

	ev := MouseEventData{Type: MousePress, X: pos.X, Y: pos.Y, Button: button, ClickCount: clickCount, Buttons: held}
	if err := h.executor.DispatchMouseEvent(ctx, ev); err != nil {
		return fmt.Errorf("humanoid: %s press failed: %w", button, err)
	}
	h.mu.Lock()
	h.buttons = held
	h.mu.Unlock()
	return nil
}

func (h *Humanoid) release(ctx context.Context, button MouseButton, clickCount int) error {
	h.mu.Lock()
	pos := h.currentPos
	held := h.buttons &^ buttonBit(button)
	h.mu.Unlock()

	ev := MouseEventData{Type: MouseRelease, X: pos.X, Y: pos.Y, Button: button, ClickCount: clickCount, Buttons: held}
	if err := h.executor.DispatchMouseEvent(ctx, ev); err != nil {
		return fmt.Errorf("humanoid: %s release failed: %w", button, err)
	}
	h.mu.Lock()
	h.buttons = held
	h.mu.Unlock()
	return nil
}
