package vehicle

import (
	"math"

	"github.com/zeusync/kartsim/internal/core/systems/physics"
)

// Input is the driver command for one frame. Thresholding an analog
// handbrake axis is left to the caller.
type Input struct {
	Throttle  float64 `json:"throttle" yaml:"throttle"`
	Steer     float64 `json:"steer" yaml:"steer"`
	Handbrake bool    `json:"handbrake" yaml:"handbrake"`
}

// Clamped limits throttle and steer to [-1, 1]. NaN axes read as released.
func (in Input) Clamped() Input {
	return Input{
		Throttle:  axis(in.Throttle),
		Steer:     axis(in.Steer),
		Handbrake: in.Handbrake,
	}
}

func axis(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return physics.Clamp(v, -1, 1)
}
