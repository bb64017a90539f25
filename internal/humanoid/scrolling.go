package humanoid

import (
	"context"
	"fmt"
)

// Scroll turns the wheel by dy notches at the current position. Positive
// values scroll up, negative values scroll down.
func (h *Humanoid) Scroll(ctx context.Context, dy int) error {
	if dy == 0 {
		return nil
	}
	h.mu.Lock()
	pos := h.currentPos
	buttons := h.buttons
	h.mu.Unlock()

	ev := MouseEventData{Type: MouseWheel, X: pos.X, Y: pos.Y, Button: ButtonNone, Buttons: buttons, DeltaY: float64(dy)}
	if err := h.executor.DispatchMouseEvent(ctx, ev); err != nil {
		return fmt.Errorf("humanoid: scroll failed: %w", err)
	}
	return nil
}
