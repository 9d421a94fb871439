// Package replay plays scripted driver input through a fresh vehicle and
// fingerprints the exact sequence of forces it applies.
package replay

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/zeusync/kartsim/internal/core/events/bus"
	"github.com/zeusync/kartsim/internal/core/kart/config"
	"github.com/zeusync/kartsim/internal/core/kart/vehicle"
	"github.com/zeusync/kartsim/internal/core/observability/log"
	"github.com/zeusync/kartsim/internal/core/systems"
	"github.com/zeusync/kartsim/internal/core/systems/physics"
)

// DefaultYawInertia is the yaw inertia (kg*m^2) of the reference body.
const DefaultYawInertia = 14.0

// Result summarizes one replay.
type Result struct {
	RunID  string           `json:"run_id"`
	Script string           `json:"script"`
	Ticks  uint64           `json:"ticks"`
	Forces int              `json:"forces"`
	Digest uint64           `json:"digest"`
	Final  vehicle.Snapshot `json:"final"`
}

func (r Result) DigestHex() string { return strconv.FormatUint(r.Digest, 16) }

type options struct {
	yawInertia float64
	vehicleID  string
	logger     log.Log
	bus        bus.EventBus
}

type Option func(*options)

func WithYawInertia(i float64) Option {
	return func(o *options) { o.yawInertia = i }
}

// WithVehicleID fixes the vehicle ID. Defaults to the script name.
func WithVehicleID(id string) Option {
	return func(o *options) { o.vehicleID = id }
}

func WithLogger(l log.Log) Option {
	return func(o *options) { o.logger = l }
}

// WithBus publishes every tick's snapshot to b.
func WithBus(b bus.EventBus) Option {
	return func(o *options) { o.bus = b }
}

// Run builds a fresh body and vehicle at rest and plays the script with one
// frame phase and one fixed tick of dt per scripted tick.
func Run(ctx context.Context, cfg *config.VehicleConfig, script *Script, dt float64, opts ...Option) (Result, error) {
	if script == nil {
		return Result{}, fmt.Errorf("%w: nil script", ErrInvalidScript)
	}
	if err := script.Validate(); err != nil {
		return Result{}, err
	}
	if cfg == nil {
		return Result{}, vehicle.ErrNilConfig
	}

	o := options{yawInertia: DefaultYawInertia, vehicleID: script.Name}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = log.NewNop()
	}

	body := newRecordingBody(physics.NewBody(cfg.Mass, o.yawInertia))
	v, err := vehicle.New(cfg, body, vehicle.WithID(o.vehicleID), vehicle.WithLogger(o.logger))
	if err != nil {
		return Result{}, fmt.Errorf("build vehicle: %w", err)
	}

	vs := systems.NewVehicleSystem(o.bus, systems.WithWorkers(1), systems.WithSystemLogger(o.logger))
	if err = vs.Add(v, NewScriptInput(script)); err != nil {
		return Result{}, err
	}
	loop, err := systems.NewLoop(dt, []systems.System{vs}, systems.WithMaxSubsteps(1), systems.WithLoopLogger(o.logger))
	if err != nil {
		return Result{}, err
	}
	if err = loop.Initialize(ctx); err != nil {
		return Result{}, err
	}

	total := script.TotalTicks()
	for i := 0; i < total; i++ {
		if err = ctx.Err(); err != nil {
			break
		}
		if _, err = loop.Advance(ctx, dt); err != nil {
			break
		}
	}
	final := v.Snapshot()
	if shutErr := loop.Shutdown(ctx); shutErr != nil {
		err = errors.Join(err, shutErr)
	}
	if err != nil {
		return Result{}, fmt.Errorf("replay %q: %w", script.Name, err)
	}

	res := Result{
		RunID:  uuid.NewString(),
		Script: script.Name,
		Ticks:  loop.Ticks(),
		Forces: body.forces,
		Digest: body.Sum(),
		Final:  final,
	}
	o.logger.Info("replay finished",
		log.String("run_id", res.RunID),
		log.String("script", res.Script),
		log.Uint64("ticks", res.Ticks),
		log.String("digest", res.DigestHex()),
	)
	return res, nil
}

// Verify runs the script twice from identical initial state and fails with
// ErrNonDeterministic unless both runs applied bit-identical forces and
// ended in the same state.
func Verify(ctx context.Context, cfg *config.VehicleConfig, script *Script, dt float64, opts ...Option) (Result, error) {
	first, err := Run(ctx, cfg, script, dt, opts...)
	if err != nil {
		return Result{}, err
	}
	second, err := Run(ctx, cfg, script, dt, opts...)
	if err != nil {
		return Result{}, err
	}
	if first.Digest != second.Digest || first.Forces != second.Forces {
		return first, fmt.Errorf("%w: digest %s != %s", ErrNonDeterministic, first.DigestHex(), second.DigestHex())
	}
	if first.Final != second.Final {
		return first, fmt.Errorf("%w: final snapshots differ at tick %d", ErrNonDeterministic, first.Final.Tick)
	}
	return first, nil
}
