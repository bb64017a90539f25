package humanoid

import (
	"math/rand"
	"time"

	"github.com/xkilldash9x/aiport/internal/config"
)

// Config holds the timing and motion parameters of a Humanoid.
type Config struct {
	MoveDuration  time.Duration
	ClickHold     time.Duration
	MultiClickGap time.Duration
	TypeInterval  time.Duration
	MaxKeyHold    time.Duration

	StepRate         int
	Curvature        float64
	PerlinAmplitude  float64
	PerlinFrequency  float64
	GaussianStrength float64

	// Rng, when set, replaces the clock-seeded source. Tests use it for determinism.
	Rng  *rand.Rand
	Seed int64
}

// DefaultConfig returns the timings of the action protocol with a mild motion model.
func DefaultConfig() Config {
	return Config{
		MoveDuration:     500 * time.Millisecond,
		ClickHold:        40 * time.Millisecond,
		MultiClickGap:    50 * time.Millisecond,
		TypeInterval:     50 * time.Millisecond,
		MaxKeyHold:       10 * time.Second,
		StepRate:         100,
		Curvature:        0.15,
		PerlinAmplitude:  2.5,
		PerlinFrequency:  0.8,
		GaussianStrength: 0.6,
	}
}

// ConfigFromSettings maps the executor section of the application config.
func ConfigFromSettings(ec config.ExecutorConfig) Config {
	return Config{
		MoveDuration:     ec.MoveDuration,
		ClickHold:        ec.ClickHold,
		MultiClickGap:    ec.MultiClickGap,
		TypeInterval:     ec.TypeInterval,
		MaxKeyHold:       ec.MaxKeyHold,
		StepRate:         ec.Humanoid.StepRate,
		Curvature:        ec.Humanoid.Curvature,
		PerlinAmplitude:  ec.Humanoid.PerlinAmplitude,
		PerlinFrequency:  ec.Humanoid.PerlinFrequency,
		GaussianStrength: ec.Humanoid.GaussianStrength,
		Seed:             ec.Humanoid.Seed,
	}
}
