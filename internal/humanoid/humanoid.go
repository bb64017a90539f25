// internal/humanoid/humanoid.go
package humanoid

import (
	"math/rand"
	"sync"
	"time"

	"github.com/aquilax/go-perlin"
	"go.uber.org/zap"
)

// Humanoid turns input primitives into paced event sequences that resemble a
// person at the keyboard and mouse.
type Humanoid struct {
	cfg      Config
	executor Executor
	logger   *zap.Logger

	mu sync.Mutex
	// currentPos is the last position this Humanoid put the pointer at.
	currentPos Vector2D
	// buttons is the bitfield of mouse buttons currently held down.
	buttons int64

	rng *rand.Rand
	// noiseX and noiseY drive low-frequency drift; noiseTime keeps successive
	// movements from sampling the same stretch of the noise field.
	noiseX    *perlin.Perlin
	noiseY    *perlin.Perlin
	noiseTime float64
}

var _ Controller = (*Humanoid)(nil)

// New creates a Humanoid that dispatches through executor.
func New(cfg Config, logger *zap.Logger, executor Executor) *Humanoid {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := cfg.Rng
	if rng == nil {
		rng = rand.New(rand.NewSource(seed))
	}
	if cfg.StepRate <= 0 {
		cfg.StepRate = DefaultConfig().StepRate
	}
	if cfg.PerlinFrequency <= 0 {
		cfg.PerlinFrequency = DefaultConfig().PerlinFrequency
	}

	// Standard Perlin parameters.
	alpha, beta, n := 2.0, 2.0, int32(3)

	return &Humanoid{
		cfg:      cfg,
		executor: executor,
		logger:   logger.Named("humanoid"),
		rng:      rng,
		noiseX:   perlin.NewPerlin(alpha, beta, n, seed),
		noiseY:   perlin.NewPerlin(alpha, beta, n, seed+1),
	}
}

// Position returns the last known pointer position.
func (h *Humanoid) Position() Vector2D {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.currentPos
}
