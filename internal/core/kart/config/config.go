package config

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// VehicleConfig is the immutable description of one kart. It is loaded once
// at startup and shared read-only by the engine, tire and vehicle models.
type VehicleConfig struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Chassis
	Mass           float64 `json:"mass" yaml:"mass"`                         // kg
	Gravity        float64 `json:"gravity" yaml:"gravity"`                   // m/s^2
	FrontAxleShare float64 `json:"front_axle_share" yaml:"front_axle_share"` // fraction of weight on the front axle

	// Tires
	FrictionCoefficient   float64 `json:"friction_coefficient" yaml:"friction_coefficient"`       // mu
	FrontLateralStiffness float64 `json:"front_lateral_stiffness" yaml:"front_lateral_stiffness"` // N/(m/s)
	RearLateralStiffness  float64 `json:"rear_lateral_stiffness" yaml:"rear_lateral_stiffness"`   // N/(m/s)
	RollingResistance     float64 `json:"rolling_resistance" yaml:"rolling_resistance"`           // N/(m/s)
	MaxSteerAngle         float64 `json:"max_steer_angle" yaml:"max_steer_angle"`                 // degrees

	// Drivetrain
	GearRatio            float64 `json:"gear_ratio" yaml:"gear_ratio"`
	DrivetrainEfficiency float64 `json:"drivetrain_efficiency" yaml:"drivetrain_efficiency"`
	WheelRadius          float64 `json:"wheel_radius" yaml:"wheel_radius"` // m

	// Engine
	IdleRPM             float64     `json:"idle_rpm" yaml:"idle_rpm"`
	RevLimiterRPM       float64     `json:"rev_limiter_rpm" yaml:"rev_limiter_rpm"`
	MaxRPM              float64     `json:"max_rpm" yaml:"max_rpm"`
	EngineInertia       float64     `json:"engine_inertia" yaml:"engine_inertia"`               // kg*m^2
	EngineFrictionCoeff float64     `json:"engine_friction_coeff" yaml:"engine_friction_coeff"` // N*m per rpm
	LoadTorqueCoeff     float64     `json:"load_torque_coeff" yaml:"load_torque_coeff"`         // N*m per m/s
	ThrottleResponse    float64     `json:"throttle_response" yaml:"throttle_response"`         // 1/s
	TorqueCurve         TorqueCurve `json:"torque_curve" yaml:"torque_curve"`

	// Handbrake
	HandbrakeForce             float64        `json:"handbrake_force" yaml:"handbrake_force"` // N
	HandbrakeLateralMultiplier float64        `json:"handbrake_lateral_multiplier" yaml:"handbrake_lateral_multiplier"`
	HandbrakeDriftAngle        float64        `json:"handbrake_drift_angle" yaml:"handbrake_drift_angle"` // degrees
	Handbrake                  HandbrakePaths `json:"handbrake" yaml:"handbrake"`

	Wheels WheelLayout `json:"wheels" yaml:"wheels"`
}

// HandbrakePaths toggles the two independent handbrake force paths. Both are
// on by default and act together; turning one off is for experiments only.
type HandbrakePaths struct {
	// TireBrake adds the braking and lateral grip loss terms inside the tire model.
	TireBrake bool `json:"tire_brake" yaml:"tire_brake"`
	// Impulse applies the separate braking impulse at the rear wheels.
	Impulse bool `json:"impulse" yaml:"impulse"`
	// DriftDirection applies longitudinal tire force along the drift-rotated
	// heading instead of the vehicle heading.
	DriftDirection bool `json:"drift_direction" yaml:"drift_direction"`
}

// WheelMount places a wheel relative to the body origin. A nil mount in the
// layout means the wheel is absent.
type WheelMount struct {
	Offset [3]float64 `json:"offset" yaml:"offset"`               // body-local metres, X right, Y up, Z forward
	Yaw    float64    `json:"yaw,omitempty" yaml:"yaw,omitempty"` // static toe, degrees
}

func (m WheelMount) Vec() mgl64.Vec3 { return mgl64.Vec3(m.Offset) }

type WheelLayout struct {
	FrontLeft  *WheelMount `json:"front_left" yaml:"front_left"`
	FrontRight *WheelMount `json:"front_right" yaml:"front_right"`
	RearLeft   *WheelMount `json:"rear_left" yaml:"rear_left"`
	RearRight  *WheelMount `json:"rear_right" yaml:"rear_right"`
}

// Default returns the reference kart.
func Default() VehicleConfig {
	return VehicleConfig{
		Name: "kart",

		Mass:           80,
		Gravity:        9.81,
		FrontAxleShare: 0.5,

		FrictionCoefficient:   4.0,
		FrontLateralStiffness: 1000,
		RearLateralStiffness:  1000,
		RollingResistance:     0.5,
		MaxSteerAngle:         30,

		GearRatio:            8,
		DrivetrainEfficiency: 0.9,
		WheelRadius:          0.3,

		IdleRPM:             1000,
		RevLimiterRPM:       7500,
		MaxRPM:              8000,
		EngineInertia:       0.2,
		EngineFrictionCoeff: 0.02,
		LoadTorqueCoeff:     5,
		ThrottleResponse:    5,
		TorqueCurve: TorqueCurve{
			{RPM: 1000, Torque: 18},
			{RPM: 3000, Torque: 26},
			{RPM: 5500, Torque: 30},
			{RPM: 7500, Torque: 25},
			{RPM: 8000, Torque: 20},
		},

		HandbrakeForce:             2000,
		HandbrakeLateralMultiplier: 2,
		HandbrakeDriftAngle:        30,
		Handbrake: HandbrakePaths{
			TireBrake: true,
			Impulse:   true,
		},

		Wheels: WheelLayout{
			FrontLeft:  &WheelMount{Offset: [3]float64{-0.5, 0, 0.5}},
			FrontRight: &WheelMount{Offset: [3]float64{0.5, 0, 0.5}},
			RearLeft:   &WheelMount{Offset: [3]float64{-0.5, 0, -0.55}},
			RearRight:  &WheelMount{Offset: [3]float64{0.5, 0, -0.55}},
		},
	}
}

// Validate reports every configuration value that would make the simulation
// divide by zero or leave its documented ranges.
func (c *VehicleConfig) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
		}
	}

	check(c.Mass > 0, "mass must be positive, got %v", c.Mass)
	check(c.Gravity > 0, "gravity must be positive, got %v", c.Gravity)
	check(c.FrontAxleShare > 0 && c.FrontAxleShare < 1,
		"front_axle_share must be within (0, 1) so both axles carry load, got %v", c.FrontAxleShare)

	check(c.FrictionCoefficient > 0, "friction_coefficient must be positive, got %v", c.FrictionCoefficient)
	check(c.FrontLateralStiffness >= 0, "front_lateral_stiffness must not be negative, got %v", c.FrontLateralStiffness)
	check(c.RearLateralStiffness >= 0, "rear_lateral_stiffness must not be negative, got %v", c.RearLateralStiffness)
	check(c.RollingResistance >= 0, "rolling_resistance must not be negative, got %v", c.RollingResistance)
	check(c.MaxSteerAngle > 0, "max_steer_angle must be positive, got %v", c.MaxSteerAngle)

	check(c.GearRatio > 0, "gear_ratio must be positive, got %v", c.GearRatio)
	check(c.DrivetrainEfficiency > 0 && c.DrivetrainEfficiency <= 1,
		"drivetrain_efficiency must be within (0, 1], got %v", c.DrivetrainEfficiency)
	check(c.WheelRadius > 0, "wheel_radius must be positive, got %v", c.WheelRadius)

	check(c.IdleRPM >= 0, "idle_rpm must not be negative, got %v", c.IdleRPM)
	check(c.IdleRPM < c.MaxRPM, "idle_rpm (%v) must be below max_rpm (%v)", c.IdleRPM, c.MaxRPM)
	check(c.RevLimiterRPM >= c.IdleRPM && c.RevLimiterRPM <= c.MaxRPM,
		"rev_limiter_rpm (%v) must be within [idle_rpm, max_rpm] = [%v, %v]", c.RevLimiterRPM, c.IdleRPM, c.MaxRPM)
	check(c.EngineInertia > 0, "engine_inertia must be positive, got %v", c.EngineInertia)
	check(c.EngineFrictionCoeff >= 0, "engine_friction_coeff must not be negative, got %v", c.EngineFrictionCoeff)
	check(c.LoadTorqueCoeff >= 0, "load_torque_coeff must not be negative, got %v", c.LoadTorqueCoeff)
	check(c.ThrottleResponse >= 0, "throttle_response must not be negative, got %v", c.ThrottleResponse)

	if err := c.TorqueCurve.Validate(); err != nil {
		errs = append(errs, err)
	}

	check(c.HandbrakeForce >= 0, "handbrake_force must not be negative, got %v", c.HandbrakeForce)
	check(c.HandbrakeLateralMultiplier >= 0,
		"handbrake_lateral_multiplier must not be negative, got %v", c.HandbrakeLateralMultiplier)

	return errors.Join(errs...)
}

// Clone returns a deep copy, so callers can derive variants without sharing
// the torque curve or wheel mounts.
func (c VehicleConfig) Clone() VehicleConfig {
	out := c
	out.TorqueCurve = c.TorqueCurve.Clone()
	out.Wheels = WheelLayout{
		FrontLeft:  cloneMount(c.Wheels.FrontLeft),
		FrontRight: cloneMount(c.Wheels.FrontRight),
		RearLeft:   cloneMount(c.Wheels.RearLeft),
		RearRight:  cloneMount(c.Wheels.RearRight),
	}
	return out
}

func cloneMount(m *WheelMount) *WheelMount {
	if m == nil {
		return nil
	}
	cp := *m
	return &cp
}
