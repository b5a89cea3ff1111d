package scoring

import (
	"fmt"

	"decihire/internal/model"
)

// LatencyThresholds buckets per-answer response times (milliseconds)
type LatencyThresholds struct {
	TooFastMs    int64 `json:"tooFastMs" yaml:"tooFastMs"`
	OptimalMinMs int64 `json:"optimalMinMs" yaml:"optimalMinMs"`
	OptimalMaxMs int64 `json:"optimalMaxMs" yaml:"optimalMaxMs"`

	// Share of answers in a bucket needed to label the whole session
	ImpulsiveShare float64 `json:"impulsiveShare" yaml:"impulsiveShare"`
	HesitantShare  float64 `json:"hesitantShare" yaml:"hesitantShare"`
}

// Config holds every tunable input of the engine
type Config struct {
	Rubric        model.Rubric      `json:"rubric" yaml:"rubric"`
	Latency       LatencyThresholds `json:"latency" yaml:"latency"`
	PassThreshold float64           `json:"passThreshold" yaml:"passThreshold"` // 0-100
}

// DefaultConfig returns the rubric and thresholds used when nothing is configured
func DefaultConfig() Config {
	return Config{
		Rubric: model.Rubric{
			model.GradeBest:       1,
			model.GradeAcceptable: 0.5,
			model.GradePoor:       0,
		},
		Latency: LatencyThresholds{
			TooFastMs:      15000,
			OptimalMinMs:   30000,
			OptimalMaxMs:   60000,
			ImpulsiveShare: 0.5,
			HesitantShare:  0.5,
		},
		PassThreshold: 75,
	}
}

// Validate rejects configurations the engine cannot bucket consistently
func (c Config) Validate() error {
	for g, v := range c.Rubric {
		if v < 0 || v > 1 {
			return fmt.Errorf("rubric grade %q: fraction %.2f outside [0,1]", g, v)
		}
	}
	l := c.Latency
	if l.TooFastMs < 0 || l.OptimalMinMs < l.TooFastMs || l.OptimalMaxMs < l.OptimalMinMs {
		return fmt.Errorf("latency thresholds must satisfy 0 <= tooFast <= optimalMin <= optimalMax (got %d, %d, %d)",
			l.TooFastMs, l.OptimalMinMs, l.OptimalMaxMs)
	}
	if l.ImpulsiveShare <= 0 || l.ImpulsiveShare > 1 || l.HesitantShare <= 0 || l.HesitantShare > 1 {
		return fmt.Errorf("latency shares must be in (0,1]")
	}
	if c.PassThreshold < 0 || c.PassThreshold > 100 {
		return fmt.Errorf("pass threshold %.2f outside [0,100]", c.PassThreshold)
	}
	return nil
}
