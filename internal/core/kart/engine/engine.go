// Package engine models a single-speed kart engine: throttle smoothing, a
// torque curve, a linear rev limiter and flywheel RPM integration.
package engine

import (
	"math"

	"github.com/zeusync/kartsim/internal/core/kart/config"
	"github.com/zeusync/kartsim/internal/core/systems/physics"
)

// State is the engine's persistent state plus the torque breakdown of the
// most recent Simulate call. Only NetTorque feeds back into RPM.
type State struct {
	SmoothedThrottle float64 `json:"smoothed_throttle"`
	RPM              float64 `json:"rpm"`
	RevLimiterFactor float64 `json:"rev_limiter_factor"`

	DriveTorque    float64 `json:"drive_torque"`
	FrictionTorque float64 `json:"friction_torque"`
	LoadTorque     float64 `json:"load_torque"`
	NetTorque      float64 `json:"net_torque"`
}

// Model owns one engine's State. It is not safe for concurrent use.
type Model struct {
	cfg   *config.VehicleConfig
	state State

	// rpm change per N*m per second: 60 / (2*pi*J)
	invInertiaFactor float64
}

// New returns an engine idling at cfg.IdleRPM. cfg must already be validated.
func New(cfg *config.VehicleConfig) *Model {
	return &Model{
		cfg: cfg,
		state: State{
			RPM:              cfg.IdleRPM,
			RevLimiterFactor: 1,
		},
		invInertiaFactor: 60 / (2 * math.Pi * cfg.EngineInertia),
	}
}

// State returns a copy of the current state.
func (m *Model) State() State { return m.state }

// CurrentTorque is the drive torque delivered by the last Simulate call.
func (m *Model) CurrentTorque() float64 { return m.state.DriveTorque }

// Simulate advances the engine by dt seconds and returns the drive torque
// handed to the drivetrain. Friction and load torque only slow the flywheel.
func (m *Model) Simulate(throttleInput, forwardSpeed, dt float64) float64 {
	cfg := m.cfg
	s := &m.state

	target := physics.Clamp(throttleInput, -1, 1)
	s.SmoothedThrottle = physics.MoveTowards(s.SmoothedThrottle, target, cfg.ThrottleResponse*dt)

	s.RevLimiterFactor = RevLimiterFactor(s.RPM, cfg.RevLimiterRPM, cfg.MaxRPM)

	maxTorque := cfg.TorqueCurve.Evaluate(s.RPM)
	s.DriveTorque = maxTorque * s.SmoothedThrottle * s.RevLimiterFactor
	s.FrictionTorque = cfg.EngineFrictionCoeff * s.RPM
	s.LoadTorque = cfg.LoadTorqueCoeff * math.Abs(forwardSpeed)
	s.NetTorque = s.DriveTorque - s.FrictionTorque - s.LoadTorque

	s.RPM = physics.Clamp(s.RPM+s.NetTorque*m.invInertiaFactor*dt, cfg.IdleRPM, cfg.MaxRPM)

	return s.DriveTorque
}

// RevLimiterFactor is 1 up to revLimiterRPM, 0 from maxRPM, and linear between.
func RevLimiterFactor(rpm, revLimiterRPM, maxRPM float64) float64 {
	if rpm <= revLimiterRPM {
		return 1
	}
	if rpm >= maxRPM {
		return 0
	}
	return 1 - (rpm-revLimiterRPM)/(maxRPM-revLimiterRPM)
}
