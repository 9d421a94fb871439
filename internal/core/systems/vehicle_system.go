package systems

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/zeusync/kartsim/internal/core/events/bus"
	"github.com/zeusync/kartsim/internal/core/kart/vehicle"
	"github.com/zeusync/kartsim/internal/core/observability/log"
	"github.com/zeusync/kartsim/pkg/concurrent"
)

// InputSource yields the driver command for the next frame.
type InputSource interface {
	Sample() vehicle.Input
}

// InputFunc adapts a plain function to InputSource.
type InputFunc func() vehicle.Input

func (f InputFunc) Sample() vehicle.Input { return f() }

// Integrator is implemented by host bodies that the system advances after
// each fixed tick. Bodies owned by an external physics engine need not
// implement it.
type Integrator interface {
	Integrate(dt float64)
}

type vehicleEntry struct {
	vehicle *vehicle.Vehicle
	input   InputSource
}

// VehicleSystem owns a set of vehicles and drives their frame and physics
// phases. Vehicles are stepped in parallel; each one is touched by a single
// goroutine per phase, and snapshots are published in registration order.
type VehicleSystem struct {
	mu      sync.RWMutex
	entries []vehicleEntry

	bus     bus.EventBus
	logger  log.Log
	workers int

	metricsMu sync.Mutex
	metrics   Metrics
}

type VehicleSystemOption func(*VehicleSystem)

// WithWorkers limits how many vehicles are stepped concurrently. Zero means
// one goroutine per vehicle.
func WithWorkers(n int) VehicleSystemOption {
	return func(s *VehicleSystem) { s.workers = n }
}

func WithSystemLogger(l log.Log) VehicleSystemOption {
	return func(s *VehicleSystem) { s.logger = l }
}

// NewVehicleSystem creates an empty system publishing to b. A nil bus
// disables publishing.
func NewVehicleSystem(b bus.EventBus, opts ...VehicleSystemOption) *VehicleSystem {
	s := &VehicleSystem{bus: b}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.NewNop()
	}
	s.logger = s.logger.With(log.String("system", s.Name()))
	return s
}

func (s *VehicleSystem) Name() string { return "vehicles" }

func (s *VehicleSystem) Initialize(context.Context) error {
	s.logger.Info("vehicle system initialized", log.Int("vehicles", s.Len()))
	return nil
}

func (s *VehicleSystem) Shutdown(context.Context) error {
	s.mu.Lock()
	n := len(s.entries)
	s.entries = nil
	s.mu.Unlock()
	s.logger.Info("vehicle system shut down", log.Int("vehicles", n))
	return nil
}

// Add registers a vehicle. A nil input source leaves the vehicle's input
// unchanged between frames.
func (s *VehicleSystem) Add(v *vehicle.Vehicle, in InputSource) error {
	if v == nil {
		return ErrNilVehicle
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if slices.ContainsFunc(s.entries, func(e vehicleEntry) bool { return e.vehicle.ID() == v.ID() }) {
		return fmt.Errorf("%w: %s", ErrDuplicateVehicle, v.ID())
	}
	s.entries = append(s.entries, vehicleEntry{vehicle: v, input: in})
	s.logger.Debug("vehicle added", log.String("vehicle", v.ID()))
	return nil
}

func (s *VehicleSystem) Remove(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := len(s.entries)
	s.entries = slices.DeleteFunc(s.entries, func(e vehicleEntry) bool { return e.vehicle.ID() == id })
	if len(s.entries) == before {
		return fmt.Errorf("%w: %s", ErrVehicleNotFound, id)
	}
	return nil
}

// Vehicle looks up a registered vehicle by ID.
func (s *VehicleSystem) Vehicle(id string) (*vehicle.Vehicle, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.entries {
		if e.vehicle.ID() == id {
			return e.vehicle, true
		}
	}
	return nil, false
}

func (s *VehicleSystem) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Update samples every input source and steers the front wheels.
func (s *VehicleSystem) Update(float64) error {
	for _, e := range s.snapshotEntries() {
		if e.input != nil {
			e.vehicle.SetInput(e.input.Sample())
		}
		e.vehicle.Steer()
	}
	return nil
}

// FixedUpdate steps every vehicle, integrates the bodies that support it and
// publishes one telemetry event per vehicle.
func (s *VehicleSystem) FixedUpdate(dt float64) error {
	start := time.Now()
	entries := s.snapshotEntries()

	snaps, err := concurrent.ParallelMap(entries, s.workers, func(_ int, e vehicleEntry) (vehicle.Snapshot, error) {
		snap := e.vehicle.FixedUpdate(dt)
		if body, ok := e.vehicle.Body().(Integrator); ok && dt > 0 {
			body.Integrate(dt)
		}
		return snap, nil
	})
	if err == nil && s.bus != nil {
		events := make([]bus.Event, len(snaps))
		for i, snap := range snaps {
			events[i] = bus.NewEvent(bus.TypeVehicleTelemetry, snap.VehicleID, snap)
		}
		if err = s.bus.PublishBatch(events...); err != nil {
			s.logger.Warn("telemetry delivery failed", log.Error(err))
		}
	}

	s.metricsMu.Lock()
	s.metrics.record(start, len(entries), err)
	s.metricsMu.Unlock()
	return err
}

func (s *VehicleSystem) GetMetrics() Metrics {
	s.metricsMu.Lock()
	defer s.metricsMu.Unlock()
	return s.metrics
}

func (s *VehicleSystem) snapshotEntries() []vehicleEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.entries)
}
