package humanoid

import (
	"math"
)

// computeEaseInOutCubic provides a smooth acceleration and deceleration profile for movement.
func computeEaseInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// bezier evaluates the cubic curve p0..p3 at t.
func bezier(p0, p1, p2, p3 Vector2D, t float64) Vector2D {
	omt := 1.0 - t
	omt2 := omt * omt
	t2 := t * t
	return p0.Mul(omt2 * omt).Add(p1.Mul(3 * omt2 * t)).Add(p2.Mul(3 * omt * t2)).Add(p3.Mul(t2 * t))
}

// generateIdealPath samples a gently bowed cubic Bezier from start to end at
// numSteps eased instants. The last point is exactly end.
func (h *Humanoid) generateIdealPath(start, end Vector2D, numSteps int) []Vector2D {
	mainVec := end.Sub(start)
	dist := mainVec.Mag()
	if dist < 1.0 || numSteps <= 1 {
		return []Vector2D{end}
	}

	normal := mainVec.Perp()
	h.mu.Lock()
	bow1 := (h.rng.Float64()*2 - 1) * h.cfg.Curvature * dist
	bow2 := (h.rng.Float64()*2 - 1) * h.cfg.Curvature * dist
	h.mu.Unlock()

	p1 := start.Add(mainVec.Mul(1.0 / 3.0)).Add(normal.Mul(bow1))
	p2 := start.Add(mainVec.Mul(2.0 / 3.0)).Add(normal.Mul(bow2))

	path := make([]Vector2D, numSteps)
	for i := 0; i < numSteps; i++ {
		t := computeEaseInOutCubic(float64(i) / float64(numSteps-1))
		path[i] = bezier(start, p1, p2, end, t)
	}
	path[numSteps-1] = end
	return path
}

// perturb layers Perlin drift and Gaussian tremor onto a path point. The
// envelope sin(pi*progress) keeps both ends of the path exact.
func (h *Humanoid) perturb(p Vector2D, progress float64) Vector2D {
	envelope := math.Sin(math.Pi * progress)
	if envelope <= 0 {
		return p
	}

	h.mu.Lock()
	h.noiseTime += 1.0 / float64(h.cfg.StepRate)
	at := h.noiseTime * h.cfg.PerlinFrequency
	amp := h.cfg.PerlinAmplitude
	h.mu.Unlock()

	drift := Vector2D{
		X: h.noiseX.Noise1D(at) * amp,
		Y: h.noiseY.Noise1D(at) * amp,
	}
	return h.applyGaussianNoise(p.Add(drift.Mul(envelope)), envelope)
}
