package scoring

import "fmt"

// Params holds the tunable constants of the scoring formula.
type Params struct {
	HighAgeThreshold    int     `yaml:"high_age_threshold"`
	AgeRiskMultiplier   float64 `yaml:"age_risk_multiplier"`
	LongStayDays        float64 `yaml:"long_stay_days"`
	MaxPenalty          float64 `yaml:"max_penalty"`
	FrequencyWindowDays int     `yaml:"frequency_window_days"`
	FrequencyDivisor    float64 `yaml:"frequency_divisor"`
}

// DefaultParams returns the production scoring constants.
func DefaultParams() Params {
	return Params{
		HighAgeThreshold:    80,
		AgeRiskMultiplier:   1.2,
		LongStayDays:        7,
		MaxPenalty:          5,
		FrequencyWindowDays: 60,
		FrequencyDivisor:    5,
	}
}

// Validate rejects parameter sets that would divide by zero or invert a penalty.
func (p Params) Validate() error {
	if p.LongStayDays <= 0 {
		return fmt.Errorf("long_stay_days must be positive, got %v", p.LongStayDays)
	}
	if p.FrequencyDivisor <= 0 {
		return fmt.Errorf("frequency_divisor must be positive, got %v", p.FrequencyDivisor)
	}
	if p.MaxPenalty < 0 {
		return fmt.Errorf("max_penalty must not be negative, got %v", p.MaxPenalty)
	}
	if p.FrequencyWindowDays < 0 {
		return fmt.Errorf("frequency_window_days must not be negative, got %d", p.FrequencyWindowDays)
	}
	if p.AgeRiskMultiplier <= 0 {
		return fmt.Errorf("age_risk_multiplier must be positive, got %v", p.AgeRiskMultiplier)
	}
	return nil
}
