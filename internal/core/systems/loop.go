package systems

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/zeusync/kartsim/internal/core/observability/log"
)

const DefaultMaxSubsteps = 8

// Loop drives systems with a variable frame step and a fixed physics step.
// Leftover frame time carries over in an accumulator; when a frame would need
// more than maxSubsteps physics ticks the excess is dropped.
type Loop struct {
	systems     []System
	fixedDt     float64
	maxSubsteps int
	accumulator float64
	ticks       uint64
	frames      uint64

	logger log.Log
	meter  metric.Meter

	fixedSteps   metric.Int64Counter
	droppedTime  metric.Float64Counter
	phaseSeconds metric.Float64Histogram
}

type LoopOption func(*Loop)

func WithMaxSubsteps(n int) LoopOption {
	return func(l *Loop) { l.maxSubsteps = n }
}

func WithLoopLogger(logger log.Log) LoopOption {
	return func(l *Loop) { l.logger = logger }
}

// WithMeter overrides the global otel meter.
func WithMeter(m metric.Meter) LoopOption {
	return func(l *Loop) { l.meter = m }
}

// NewLoop creates a loop stepping physics at fixedDt seconds.
func NewLoop(fixedDt float64, systems []System, opts ...LoopOption) (*Loop, error) {
	if !(fixedDt > 0) || math.IsInf(fixedDt, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidTimestep, fixedDt)
	}
	for _, s := range systems {
		if s == nil {
			return nil, ErrNilSystem
		}
	}

	l := &Loop{
		systems:     systems,
		fixedDt:     fixedDt,
		maxSubsteps: DefaultMaxSubsteps,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.maxSubsteps < 1 {
		l.maxSubsteps = 1
	}
	if l.logger == nil {
		l.logger = log.NewNop()
	}
	if l.meter == nil {
		l.meter = meter()
	}

	var err error
	l.fixedSteps, err = l.meter.Int64Counter(
		"kartsim.loop.fixed_steps",
		metric.WithDescription("Total fixed physics ticks executed"),
	)
	if err != nil {
		return nil, fmt.Errorf("create fixed_steps counter: %w", err)
	}
	l.droppedTime, err = l.meter.Float64Counter(
		"kartsim.loop.dropped_time",
		metric.WithDescription("Simulation time discarded because a frame exceeded the substep cap"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create dropped_time counter: %w", err)
	}
	l.phaseSeconds, err = l.meter.Float64Histogram(
		"kartsim.loop.phase_duration",
		metric.WithDescription("Wall time spent per system phase"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("create phase_duration histogram: %w", err)
	}
	return l, nil
}

func (l *Loop) FixedDelta() float64  { return l.fixedDt }
func (l *Loop) Ticks() uint64        { return l.ticks }
func (l *Loop) Frames() uint64       { return l.frames }
func (l *Loop) Accumulator() float64 { return l.accumulator }

// Initialize initializes systems in order and stops at the first failure.
func (l *Loop) Initialize(ctx context.Context) error {
	for _, s := range l.systems {
		if err := s.Initialize(ctx); err != nil {
			return fmt.Errorf("initialize %s: %w", s.Name(), err)
		}
	}
	return nil
}

// Shutdown shuts systems down in reverse order and joins their errors.
func (l *Loop) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(l.systems) - 1; i >= 0; i-- {
		if err := l.systems[i].Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown %s: %w", l.systems[i].Name(), err))
		}
	}
	return errors.Join(errs...)
}

// Advance runs one frame phase and then as many fixed ticks as the
// accumulated time allows. It returns the number of fixed ticks executed.
func (l *Loop) Advance(ctx context.Context, frameDt float64) (int, error) {
	if !(frameDt >= 0) || math.IsInf(frameDt, 0) {
		return 0, fmt.Errorf("invalid frame delta %v", frameDt)
	}
	l.frames++

	for _, s := range l.systems {
		if err := l.run(ctx, s, PhaseUpdate, func() error { return s.Update(frameDt) }); err != nil {
			return 0, err
		}
	}

	l.accumulator += frameDt
	steps := 0
	for l.accumulator >= l.fixedDt && steps < l.maxSubsteps {
		for _, s := range l.systems {
			if err := l.run(ctx, s, PhaseFixedUpdate, func() error { return s.FixedUpdate(l.fixedDt) }); err != nil {
				return steps, err
			}
		}
		l.accumulator -= l.fixedDt
		l.ticks++
		steps++
	}
	if steps > 0 {
		l.fixedSteps.Add(ctx, int64(steps))
	}

	if l.accumulator >= l.fixedDt {
		dropped := l.accumulator - math.Mod(l.accumulator, l.fixedDt)
		l.accumulator -= dropped
		l.droppedTime.Add(ctx, dropped)
		l.logger.Warn("frame exceeded substep cap, dropping simulation time",
			log.Float64("frame_dt", frameDt),
			log.Float64("dropped", dropped),
			log.Int("max_substeps", l.maxSubsteps),
		)
	}
	return steps, nil
}

// Run advances the loop in real time every frameInterval until ctx is done.
func (l *Loop) Run(ctx context.Context, frameInterval time.Duration) error {
	if frameInterval <= 0 {
		frameInterval = time.Duration(l.fixedDt * float64(time.Second))
	}
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	l.logger.Info("loop started",
		log.Float64("fixed_dt", l.fixedDt),
		log.Duration("frame_interval", frameInterval),
	)
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("loop stopped", log.Uint64("ticks", l.ticks), log.Uint64("frames", l.frames))
			return nil
		case now := <-ticker.C:
			frameDt := now.Sub(last).Seconds()
			last = now
			if _, err := l.Advance(ctx, frameDt); err != nil {
				return err
			}
		}
	}
}

func (l *Loop) run(ctx context.Context, s System, phase ExecutionPhase, fn func() error) error {
	start := time.Now()
	err := fn()
	l.phaseSeconds.Record(ctx, time.Since(start).Seconds(), metric.WithAttributes(
		attribute.String("system", s.Name()),
		attribute.String("phase", phase.String()),
	))
	if err != nil {
		return fmt.Errorf("%s %s: %w", s.Name(), phase, err)
	}
	return nil
}
