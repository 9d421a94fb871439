// Package weight computes static per-wheel normal loads. Loads do not shift
// under acceleration, braking or cornering.
package weight

// StaticLoads holds the normal force on each wheel in newtons.
type StaticLoads struct {
	FrontLeft  float64 `json:"front_left"`
	FrontRight float64 `json:"front_right"`
	RearLeft   float64 `json:"rear_left"`
	RearRight  float64 `json:"rear_right"`
}

// Total is the sum of all four loads.
func (l StaticLoads) Total() float64 {
	return l.FrontLeft + l.FrontRight + l.RearLeft + l.RearRight
}

// ComputeStaticLoads splits the vehicle weight between axles by
// frontAxleShare and evenly between the two wheels of each axle.
func ComputeStaticLoads(mass, gravity, frontAxleShare float64) StaticLoads {
	total := mass * gravity
	front := total * frontAxleShare
	rear := total * (1 - frontAxleShare)

	return StaticLoads{
		FrontLeft:  front * 0.5,
		FrontRight: front * 0.5,
		RearLeft:   rear * 0.5,
		RearRight:  rear * 0.5,
	}
}
