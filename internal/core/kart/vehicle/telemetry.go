package vehicle

// WheelTelemetry is the per-wheel part of a Snapshot.
type WheelTelemetry struct {
	Present     bool    `json:"present"`
	Driven      bool    `json:"driven"`
	NormalForce float64 `json:"normal_force"`
	Fx          float64 `json:"fx"`
	Fy          float64 `json:"fy"`
	SlipRatio   float64 `json:"slip_ratio"`
	VLong       float64 `json:"v_long"`
	VLat        float64 `json:"v_lat"`
	// LateralSign is +1 when the wheel slides toward its right axis, -1 otherwise.
	LateralSign int  `json:"lateral_sign"`
	Saturated   bool `json:"saturated"`
	Drifting    bool `json:"drifting"`
}

// Snapshot is the read-only telemetry of one vehicle after a fixed tick.
type Snapshot struct {
	VehicleID string `json:"vehicle_id"`
	Tick      uint64 `json:"tick"`

	Speed        float64 `json:"speed"`     // m/s
	SpeedKmh     float64 `json:"speed_kmh"` // km/h
	ForwardSpeed float64 `json:"forward_speed"`

	RPM              float64 `json:"rpm"`
	DriveTorque      float64 `json:"drive_torque"`
	FrictionTorque   float64 `json:"friction_torque"`
	LoadTorque       float64 `json:"load_torque"`
	NetTorque        float64 `json:"net_torque"`
	RevLimiterFactor float64 `json:"rev_limiter_factor"`

	Throttle   float64 `json:"throttle"` // smoothed engine throttle, [-1, 1]
	Steer      float64 `json:"steer"`    // [-1, 1]
	SteerAngle float64 `json:"steer_angle"`
	Handbrake  bool    `json:"handbrake"`

	RearSlipRatio float64 `json:"rear_slip_ratio"`
	// SlipAngle is vehicle level, in degrees, written by the last driven wheel of the tick.
	SlipAngle    float64 `json:"slip_angle"`
	TotalRearFx  float64 `json:"total_rear_fx"`
	TotalFrontFy float64 `json:"total_front_fy"`

	Wheels [WheelCount]WheelTelemetry `json:"wheels"`
}

// ThrottlePercent is the smoothed throttle as a percentage.
func (s Snapshot) ThrottlePercent() float64 { return s.Throttle * 100 }

// SteerPercent is the steering input as a percentage.
func (s Snapshot) SteerPercent() float64 { return s.Steer * 100 }

// Wheel returns the telemetry for one corner.
func (s Snapshot) Wheel(p WheelPosition) WheelTelemetry {
	if int(p) >= WheelCount {
		return WheelTelemetry{}
	}
	return s.Wheels[p]
}
