package percept

import (
	"fmt"
	"time"
)

// Pipeline defaults.
const (
	DefaultResultHistory       = 50
	DefaultPerformanceWindow   = 30
	DefaultLowBatteryThreshold = 20
	DefaultDuplicateDistance   = 4
)

// Config holds the orchestrator's tunable parameters. Use functional
// options (WithXxx) on New to set these values.
type Config struct {
	// Smoothing
	SmootherWindow int
	// StaticConfidenceThreshold gates static-sign emission.
	StaticConfidenceThreshold float64
	// DynamicConfidenceThreshold filters sequence-model output.
	DynamicConfidenceThreshold float64

	// Sequence windowing
	SequenceLength int
	TemporalWindow time.Duration

	// History
	ResultHistory     int
	PerformanceWindow int

	// Adaptive throttling
	AdaptiveInference   bool
	LowBatteryThreshold int

	// Duplicate-frame gate
	DuplicateGate     bool
	DuplicateDistance int

	// Alerting
	AudioAlerts    bool
	AlertCooldown  time.Duration
	AlertsPerFrame int
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		SmootherWindow:             5,
		StaticConfidenceThreshold:  0.85,
		DynamicConfidenceThreshold: 0.70,

		SequenceLength: 30,
		TemporalWindow: 2 * time.Second,

		ResultHistory:     DefaultResultHistory,
		PerformanceWindow: DefaultPerformanceWindow,

		AdaptiveInference:   true,
		LowBatteryThreshold: DefaultLowBatteryThreshold,

		DuplicateGate:     false,
		DuplicateDistance: DefaultDuplicateDistance,

		AudioAlerts:    true,
		AlertCooldown:  5 * time.Second,
		AlertsPerFrame: 3,
	}
}

// Validate checks configuration bounds. Violations are programming errors
// and surface synchronously as ErrInvalidConfig.
func (c Config) Validate() error {
	if c.StaticConfidenceThreshold < 0 || c.StaticConfidenceThreshold > 1 {
		return fmt.Errorf("%w: static confidence threshold %f outside [0,1]",
			ErrInvalidConfig, c.StaticConfidenceThreshold)
	}
	if c.DynamicConfidenceThreshold < 0 || c.DynamicConfidenceThreshold > 1 {
		return fmt.Errorf("%w: dynamic confidence threshold %f outside [0,1]",
			ErrInvalidConfig, c.DynamicConfidenceThreshold)
	}
	if c.SmootherWindow < 1 {
		return fmt.Errorf("%w: smoother window %d must be positive",
			ErrInvalidConfig, c.SmootherWindow)
	}
	if c.SequenceLength < 1 {
		return fmt.Errorf("%w: sequence length %d must be positive",
			ErrInvalidConfig, c.SequenceLength)
	}
	if c.TemporalWindow <= 0 {
		return fmt.Errorf("%w: temporal window %v must be positive",
			ErrInvalidConfig, c.TemporalWindow)
	}
	if c.ResultHistory < 1 {
		return fmt.Errorf("%w: result history %d must be positive",
			ErrInvalidConfig, c.ResultHistory)
	}
	if c.PerformanceWindow < 1 {
		return fmt.Errorf("%w: performance window %d must be positive",
			ErrInvalidConfig, c.PerformanceWindow)
	}
	if c.LowBatteryThreshold < 0 || c.LowBatteryThreshold > 100 {
		return fmt.Errorf("%w: low battery threshold %d outside [0,100]",
			ErrInvalidConfig, c.LowBatteryThreshold)
	}
	return nil
}
