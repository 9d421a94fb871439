// Package vehicle steps one kart per fixed tick: it advances the engine,
// evaluates every present wheel through the tire model, applies the
// resulting forces to the host rigid body and records a telemetry snapshot.
//
// A Vehicle has a single writer. Frame-rate work (SetInput, Steer) and
// fixed-rate work (FixedUpdate) must be called from the same goroutine.
package vehicle

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/zeusync/kartsim/internal/core/kart/config"
	"github.com/zeusync/kartsim/internal/core/kart/engine"
	"github.com/zeusync/kartsim/internal/core/kart/tire"
	"github.com/zeusync/kartsim/internal/core/kart/weight"
	"github.com/zeusync/kartsim/internal/core/observability/log"
	"github.com/zeusync/kartsim/internal/core/systems/physics"
)

const (
	// above this speed (m/s) the handbrake boosts steering
	driftSteerSpeed = 2.0
	driftSteerBoost = 1.5
)

type Vehicle struct {
	id     string
	cfg    *config.VehicleConfig
	body   physics.RigidBody
	engine *engine.Model // nil when built WithoutEngine
	tires  *tire.Model
	loads  weight.StaticLoads
	wheels [WheelCount]*Wheel

	input      Input
	steerAngle float64
	tick       uint64
	snapshot   Snapshot

	logger log.Log
}

type options struct {
	id            string
	logger        log.Log
	withoutEngine bool
}

type Option func(*options)

// WithID sets the vehicle ID reported in telemetry. Defaults to a random UUID.
func WithID(id string) Option {
	return func(o *options) { o.id = id }
}

func WithLogger(l log.Log) Option {
	return func(o *options) { o.logger = l }
}

// WithoutEngine builds a vehicle with no engine: driven wheels get no torque
// and engine telemetry stays zero.
func WithoutEngine() Option {
	return func(o *options) { o.withoutEngine = true }
}

// New validates cfg, computes static wheel loads from the body mass and
// builds the wheels named in cfg.Wheels.
func New(cfg *config.VehicleConfig, body physics.RigidBody, opts ...Option) (*Vehicle, error) {
	if cfg == nil {
		return nil, ErrNilConfig
	}
	if body == nil {
		return nil, ErrNilBody
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	mass := body.Mass()
	if !(mass > 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidBody, mass)
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == "" {
		o.id = uuid.NewString()
	}
	if o.logger == nil {
		o.logger = log.NewNop()
	}

	loads := weight.ComputeStaticLoads(mass, cfg.Gravity, cfg.FrontAxleShare)
	v := &Vehicle{
		id:     o.id,
		cfg:    cfg,
		body:   body,
		tires:  tire.New(cfg),
		loads:  loads,
		wheels: buildWheels(cfg.Wheels, loads),
		logger: o.logger.With(log.String("vehicle", o.id)),
	}
	if !o.withoutEngine {
		v.engine = engine.New(cfg)
	}
	v.snapshot = v.baseSnapshot(v.body.Velocity(), v.body.Rotation().Rotate(physics.Forward))

	v.logger.Info("vehicle created",
		log.String("config", cfg.Name),
		log.Float64("mass", mass),
		log.Int("wheels", v.wheelCount()),
		log.Bool("engine", v.engine != nil),
	)
	return v, nil
}

func (v *Vehicle) ID() string                      { return v.id }
func (v *Vehicle) Config() *config.VehicleConfig   { return v.cfg }
func (v *Vehicle) Body() physics.RigidBody         { return v.body }
func (v *Vehicle) StaticLoads() weight.StaticLoads { return v.loads }
func (v *Vehicle) Input() Input                    { return v.input }
func (v *Vehicle) SteerAngle() float64             { return v.steerAngle }
func (v *Vehicle) Snapshot() Snapshot              { return v.snapshot }

// Wheel returns the wheel mounted at p, or false when that corner is empty.
func (v *Vehicle) Wheel(p WheelPosition) (*Wheel, bool) {
	if int(p) >= WheelCount || v.wheels[p] == nil {
		return nil, false
	}
	return v.wheels[p], true
}

// EngineState returns the engine state, or false when the vehicle has no engine.
func (v *Vehicle) EngineState() (engine.State, bool) {
	if v.engine == nil {
		return engine.State{}, false
	}
	return v.engine.State(), true
}

// SetInput stores the driver command for the following frame and ticks.
func (v *Vehicle) SetInput(in Input) {
	v.input = in.Clamped()
}

// Steer turns the front wheels to match the current steering input. It runs
// at frame rate; the resulting wheel orientation is used by the next ticks.
func (v *Vehicle) Steer() {
	angle := v.cfg.MaxSteerAngle * v.input.Steer
	if v.input.Handbrake && v.body.Velocity().Len() > driftSteerSpeed {
		angle *= driftSteerBoost
	}
	v.steerAngle = angle

	rot := physics.YawRotation(angle)
	for _, w := range v.wheels {
		if w == nil || !w.position.Steered() {
			continue
		}
		w.steer(rot)
	}
}

// FixedUpdate runs one physics tick of length dt and returns its telemetry.
// A non-positive dt leaves all state untouched.
func (v *Vehicle) FixedUpdate(dt float64) Snapshot {
	if !(dt > 0) {
		v.logger.Debug("skipping tick with non-positive dt", log.Float64("dt", dt))
		return v.snapshot
	}
	v.tick++

	bodyRot := v.body.Rotation()
	forward := bodyRot.Rotate(physics.Forward)
	bodyRight := bodyRot.Rotate(physics.Right)
	velocity := v.body.Velocity()

	var driveTorque float64
	if v.engine != nil {
		driveTorque = v.engine.Simulate(v.input.Throttle, velocity.Dot(forward), dt)
	}

	snap := v.baseSnapshot(velocity, forward)

	for i, w := range v.wheels {
		if w == nil {
			continue
		}
		w.sync(v.body)

		res := v.tires.ComputeWheelForce(tire.Input{
			NormalForce: w.normalForce,
			Driven:      w.Driven(),
			DriveTorque: driveTorque,
			Steer:       v.input.Steer,
			Handbrake:   v.input.Handbrake,
			Velocity:    v.body.VelocityAtPoint(w.worldPosition),
			Forward:     forward,
			Right:       w.right,
		})
		v.body.ApplyForceAtPosition(res.Force, w.worldPosition, physics.ForceModeForce)
		w.last = res

		snap.Wheels[i] = wheelTelemetry(w, res)
		if w.Driven() {
			snap.TotalRearFx += res.Fx
			snap.RearSlipRatio = res.SlipRatio
			snap.SlipAngle = slipAngle(velocity, forward, bodyRight)
		} else {
			snap.TotalFrontFy += res.Fy
		}
	}

	if v.input.Handbrake && v.cfg.Handbrake.Impulse {
		v.applyHandbrakeImpulse(velocity, dt)
	}

	v.snapshot = snap
	return snap
}

// applyHandbrakeImpulse brakes against the current velocity at both rear
// wheels. It acts in addition to the tire-level handbrake term.
func (v *Vehicle) applyHandbrakeImpulse(velocity mgl64.Vec3, dt float64) {
	brake := physics.SafeNormalize(velocity).Mul(-v.cfg.HandbrakeForce * dt * 0.5)
	for _, p := range [...]WheelPosition{RearLeft, RearRight} {
		w := v.wheels[p]
		if w == nil {
			continue
		}
		v.body.ApplyForceAtPosition(brake, w.worldPosition, physics.ForceModeImpulse)
	}
}

func (v *Vehicle) baseSnapshot(velocity, forward mgl64.Vec3) Snapshot {
	speed := velocity.Len()
	snap := Snapshot{
		VehicleID:    v.id,
		Tick:         v.tick,
		Speed:        speed,
		SpeedKmh:     speed * 3.6,
		ForwardSpeed: velocity.Dot(forward),
		Steer:        v.input.Steer,
		SteerAngle:   v.steerAngle,
		Handbrake:    v.input.Handbrake,
	}
	if v.engine != nil {
		s := v.engine.State()
		snap.RPM = s.RPM
		snap.DriveTorque = s.DriveTorque
		snap.FrictionTorque = s.FrictionTorque
		snap.LoadTorque = s.LoadTorque
		snap.NetTorque = s.NetTorque
		snap.RevLimiterFactor = s.RevLimiterFactor
		snap.Throttle = s.SmoothedThrottle
	}
	for i, w := range v.wheels {
		if w == nil {
			continue
		}
		snap.Wheels[i] = WheelTelemetry{
			Present:     true,
			Driven:      w.Driven(),
			NormalForce: w.normalForce,
			LateralSign: -1,
		}
	}
	return snap
}

func (v *Vehicle) wheelCount() int {
	n := 0
	for _, w := range v.wheels {
		if w != nil {
			n++
		}
	}
	return n
}

func wheelTelemetry(w *Wheel, res tire.Result) WheelTelemetry {
	sign := -1
	if res.VLat > 0 {
		sign = 1
	}
	return WheelTelemetry{
		Present:     true,
		Driven:      w.Driven(),
		NormalForce: w.normalForce,
		Fx:          res.Fx,
		Fy:          res.Fy,
		SlipRatio:   res.SlipRatio,
		VLong:       res.VLong,
		VLat:        res.VLat,
		LateralSign: sign,
		Saturated:   res.Saturated,
		Drifting:    res.Drifting,
	}
}

// slipAngle is the angle in degrees between the heading and the body
// velocity, positive when sliding toward the right.
func slipAngle(velocity, forward, right mgl64.Vec3) float64 {
	return mgl64.RadToDeg(math.Atan2(velocity.Dot(right), math.Abs(velocity.Dot(forward))))
}
