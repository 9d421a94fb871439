// Package tire computes per-wheel contact forces with a linear lateral slip
// model saturated by the friction circle.
package tire

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/kartsim/internal/core/kart/config"
	"github.com/zeusync/kartsim/internal/core/systems/physics"
)

const (
	// below this normal load the wheel is treated as unloaded
	minNormalForce = 1e-6
	// longitudinal speed below which slip ratio is reported as zero
	slipSpeedThreshold = 0.1
	// |steer| above which the handbrake drift heading is rotated
	driftSteerDeadzone = 0.1
	// handbrake force at which lateral grip loss saturates
	handbrakeGripReference = 1000.0
)

// Input is everything the tire needs for one wheel on one tick.
type Input struct {
	NormalForce float64
	Driven      bool
	DriveTorque float64 // engine output before gearing, N*m
	Steer       float64 // [-1, 1]
	Handbrake   bool

	Velocity mgl64.Vec3 // world velocity of the contact point
	Forward  mgl64.Vec3 // vehicle heading
	Right    mgl64.Vec3 // wheel lateral axis
}

// Result is the tire output in vehicle-relative axes plus the world force.
type Result struct {
	Fx float64 `json:"fx"` // along Forward
	Fy float64 `json:"fy"` // along Right

	Force mgl64.Vec3 `json:"-"`

	VLong     float64 `json:"v_long"`
	VLat      float64 `json:"v_lat"`
	SlipRatio float64 `json:"slip_ratio"`

	// Saturated is set when the friction circle scaled the force down.
	Saturated bool `json:"saturated"`
	// Drifting is set when the handbrake rotated the drift heading.
	Drifting     bool       `json:"drifting"`
	DriftForward mgl64.Vec3 `json:"-"`
}

// Model evaluates tire forces for one vehicle configuration. It has no
// per-wheel state and may be shared between wheels.
type Model struct {
	cfg *config.VehicleConfig
}

func New(cfg *config.VehicleConfig) *Model {
	return &Model{cfg: cfg}
}

// ComputeWheelForce returns the contact force for one wheel. An unloaded
// wheel produces no force and no slip.
func (m *Model) ComputeWheelForce(in Input) Result {
	cfg := m.cfg

	res := Result{
		VLong:        in.Velocity.Dot(in.Forward),
		VLat:         in.Velocity.Dot(in.Right),
		DriftForward: in.Forward,
	}
	if in.NormalForce <= minNormalForce {
		return res
	}

	var fx, fy float64

	if in.Driven && !in.Handbrake {
		wheelTorque := in.DriveTorque * cfg.GearRatio * cfg.DrivetrainEfficiency * 0.5
		fx += wheelTorque / cfg.WheelRadius
	}

	fx += -cfg.RollingResistance * res.VLong

	stiffness := cfg.FrontLateralStiffness
	if in.Driven {
		stiffness = cfg.RearLateralStiffness
	}
	fy += -stiffness * res.VLat

	if in.Handbrake && in.Driven && cfg.Handbrake.TireBrake {
		fx += -physics.Sign(res.VLong) * cfg.HandbrakeForce
		fy *= 1 - cfg.HandbrakeLateralMultiplier*physics.Clamp01(math.Abs(cfg.HandbrakeForce)/handbrakeGripReference)

		if math.Abs(in.Steer) > driftSteerDeadzone {
			driftDeg := in.Steer * cfg.HandbrakeDriftAngle / cfg.MaxSteerAngle
			res.DriftForward = physics.YawRotation(driftDeg).Rotate(in.Forward)
			res.Drifting = true
		}
	}

	limit := cfg.FrictionCoefficient * in.NormalForce
	if mag := math.Sqrt(fx*fx + fy*fy); mag > limit && mag > physics.Epsilon {
		scale := limit / mag
		fx *= scale
		fy *= scale
		res.Saturated = true
	}

	heading := in.Forward
	if cfg.Handbrake.DriftDirection {
		heading = res.DriftForward
	}

	res.Fx, res.Fy = fx, fy
	res.Force = heading.Mul(fx).Add(in.Right.Mul(fy))

	if math.Abs(res.VLong) > slipSpeedThreshold {
		res.SlipRatio = math.Abs(fx / (in.NormalForce * cfg.FrictionCoefficient))
	}
	return res
}
