// File: internal/config/humanoid_config.go
// HumanoidConfig tunes the motion model used for simulated pointer movement:
// how far the path bows away from a straight line, how much low-frequency
// drift and high-frequency jitter is layered on top, and how finely each
// movement is sampled. Timing that the action protocol fixes (move duration,
// click gaps, typing interval) lives in ExecutorConfig instead.
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

// HumanoidConfig holds the shape parameters of generated trajectories.
type HumanoidConfig struct {
	// Curvature scales the Bezier control point offset relative to the travel distance.
	Curvature float64 `mapstructure:"curvature" yaml:"curvature"`
	// PerlinAmplitude is the peak drift, in pixels, applied mid-path.
	PerlinAmplitude float64 `mapstructure:"perlin_amplitude" yaml:"perlin_amplitude"`
	PerlinFrequency float64 `mapstructure:"perlin_frequency" yaml:"perlin_frequency"`
	// GaussianStrength is the standard deviation, in pixels, of per-step jitter.
	GaussianStrength float64 `mapstructure:"gaussian_strength" yaml:"gaussian_strength"`
	// StepRate is the number of pointer events dispatched per second of movement.
	StepRate int `mapstructure:"step_rate" yaml:"step_rate"`
	// Seed fixes the random source. Zero seeds from the clock.
	Seed int64 `mapstructure:"seed" yaml:"seed"`
}

func setHumanoidDefaults(v *viper.Viper) {
	v.SetDefault("executor.humanoid.curvature", 0.15)
	v.SetDefault("executor.humanoid.perlin_amplitude", 2.5)
	v.SetDefault("executor.humanoid.perlin_frequency", 0.8)
	v.SetDefault("executor.humanoid.gaussian_strength", 0.6)
	v.SetDefault("executor.humanoid.step_rate", 100)
	v.SetDefault("executor.humanoid.seed", 0)
}

// Validate checks the motion parameters.
func (h HumanoidConfig) Validate() error {
	if h.StepRate <= 0 {
		return fmt.Errorf("step_rate must be a positive integer")
	}
	if h.Curvature < 0 || h.PerlinAmplitude < 0 || h.GaussianStrength < 0 {
		return fmt.Errorf("curvature, perlin_amplitude and gaussian_strength must not be negative")
	}
	return nil
}
