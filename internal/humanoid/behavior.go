package humanoid

import (
	"context"
	"time"
)

// Pause waits for d through the executor so tests observe it instead of sleeping.
func (h *Humanoid) Pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	return h.executor.Sleep(ctx, d)
}

// applyGaussianNoise adds high-frequency "tremor" to a coordinate, scaled by weight.
func (h *Humanoid) applyGaussianNoise(point Vector2D, weight float64) Vector2D {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Strength varies slightly around the configured value.
	strength := h.cfg.GaussianStrength * (0.5 + h.rng.Float64()) * weight
	return Vector2D{
		X: point.X + h.rng.NormFloat64()*strength,
		Y: point.Y + h.rng.NormFloat64()*strength,
	}
}

// buttonBit maps a button to its position in the held-buttons bitfield.
func buttonBit(b MouseButton) int64 {
	switch b {
	case ButtonLeft:
		return 1
	case ButtonRight:
		return 2
	case ButtonMiddle:
		return 4
	}
	return 0
}
