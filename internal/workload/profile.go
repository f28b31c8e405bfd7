package workload

import (
	"fmt"
	"strings"
)

// Mode selects a Profile.
type Mode string

const (
	ModeNormal Mode = "normal"
	ModeStress Mode = "stress"
)

// Modes lists the supported modes in display order.
var Modes = []Mode{ModeNormal, ModeStress}

// ParseMode converts a mode name, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeNormal:
		return ModeNormal, nil
	case ModeStress:
		return ModeStress, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMode, s)
}

// TokenWeight is one row of the input-token distribution: with probability
// Prob the input size is uniform in [Min, Max].
type TokenWeight struct {
	Prob float64 `yaml:"prob"`
	Min  int     `yaml:"min"`
	Max  int     `yaml:"max"`
}

// Profile holds every tunable of the request model.
type Profile struct {
	Name Mode `yaml:"name"`

	// CancelProb and ErrorProb share one uniform draw: [0, cancel) is a
	// client cancel, [cancel, cancel+error) a server error.
	CancelProb float64 `yaml:"cancel_prob"`
	ErrorProb  float64 `yaml:"error_prob"`

	QueueErrorProb    float64 `yaml:"queue_error_prob"`
	FallbackErrorProb float64 `yaml:"fallback_error_prob"`
	RetryProb         float64 `yaml:"retry_prob"`

	// AvgTTFT is the mean time to first token, in seconds.
	AvgTTFT float64 `yaml:"avg_ttft"`
	// AvgOTPS is the median output tokens per second.
	AvgOTPS float64 `yaml:"avg_otps"`

	QueueCapacityPerSec float64 `yaml:"queue_capacity_per_sec"`
	// QueueWriteScale is the median queue write duration, in seconds.
	QueueWriteScale float64 `yaml:"queue_write_scale"`

	TokenWeights []TokenWeight `yaml:"token_weights"`
}

var normalProfile = Profile{
	Name:                ModeNormal,
	CancelProb:          0.03,
	ErrorProb:           0.01,
	QueueErrorProb:      0.002,
	FallbackErrorProb:   0.05,
	RetryProb:           0.05,
	AvgTTFT:             0.15,
	AvgOTPS:             60,
	QueueCapacityPerSec: 200,
	QueueWriteScale:     0.02,
	TokenWeights: []TokenWeight{
		{Prob: 0.55, Min: 20, Max: 400},
		{Prob: 0.35, Min: 400, Max: 1500},
		{Prob: 0.09, Min: 1500, Max: 4000},
		{Prob: 0.01, Min: 4000, Max: 8000},
	},
}

// stress favours long contexts and makes every failure path more likely.
var stressProfile = Profile{
	Name:                ModeStress,
	CancelProb:          0.08,
	ErrorProb:           0.10,
	QueueErrorProb:      0.05,
	FallbackErrorProb:   0.30,
	RetryProb:           0.30,
	AvgTTFT:             1.2,
	AvgOTPS:             12,
	QueueCapacityPerSec: 2,
	QueueWriteScale:     0.8,
	TokenWeights: []TokenWeight{
		{Prob: 0.30, Min: 20, Max: 400},
		{Prob: 0.40, Min: 400, Max: 1500},
		{Prob: 0.25, Min: 1500, Max: 4000},
		{Prob: 0.05, Min: 4000, Max: 8000},
	},
}

// ProfileFor returns a copy of the built-in profile for mode. Unknown modes
// get the normal profile.
func ProfileFor(mode Mode) Profile {
	p := normalProfile
	if mode == ModeStress {
		p = stressProfile
	}
	p.TokenWeights = append([]TokenWeight(nil), p.TokenWeights...)
	return p
}

// Profiles returns copies of all built-in profiles.
func Profiles() []Profile {
	out := make([]Profile, 0, len(Modes))
	for _, m := range Modes {
		out = append(out, ProfileFor(m))
	}
	return out
}
