package systems

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
)

type recordingSystem struct {
	name     string
	calls    *[]string
	fixedErr error
	shutErr  error
	fixedDts []float64
	frameDts []float64
}

func (r *recordingSystem) Name() string { return r.name }

func (r *recordingSystem) Initialize(context.Context) error {
	*r.calls = append(*r.calls, r.name+".init")
	return nil
}

func (r *recordingSystem) Shutdown(context.Context) error {
	*r.calls = append(*r.calls, r.name+".shutdown")
	return r.shutErr
}

func (r *recordingSystem) Update(dt float64) error {
	*r.calls = append(*r.calls, r.name+".update")
	r.frameDts = append(r.frameDts, dt)
	return nil
}

func (r *recordingSystem) FixedUpdate(dt float64) error {
	*r.calls = append(*r.calls, r.name+".fixed")
	r.fixedDts = append(r.fixedDts, dt)
	return r.fixedErr
}

func (r *recordingSystem) GetMetrics() Metrics { return Metrics{} }

func newTestLoop(t *testing.T, fixedDt float64, opts ...LoopOption) (*Loop, *recordingSystem, *[]string) {
	t.Helper()
	var calls []string
	sys := &recordingSystem{name: "rec", calls: &calls}
	opts = append([]LoopOption{WithMeter(noop.NewMeterProvider().Meter("test"))}, opts...)
	l, err := NewLoop(fixedDt, []System{sys}, opts...)
	require.NoError(t, err)
	return l, sys, &calls
}

func TestNewLoopValidation(t *testing.T) {
	for _, dt := range []float64{0, -0.1} {
		_, err := NewLoop(dt, nil)
		assert.ErrorIs(t, err, ErrInvalidTimestep)
	}
	_, err := NewLoop(0.02, []System{nil})
	assert.ErrorIs(t, err, ErrNilSystem)
}

func TestAdvanceAccumulates(t *testing.T) {
	l, sys, calls := newTestLoop(t, 0.25)
	ctx := context.Background()

	steps, err := l.Advance(ctx, 0.125)
	require.NoError(t, err)
	assert.Equal(t, 0, steps)
	assert.Equal(t, 0.125, l.Accumulator())

	steps, err = l.Advance(ctx, 0.125)
	require.NoError(t, err)
	assert.Equal(t, 1, steps)
	assert.Equal(t, 0.0, l.Accumulator())

	steps, err = l.Advance(ctx, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 2, steps)

	assert.Equal(t, uint64(3), l.Ticks())
	assert.Equal(t, uint64(3), l.Frames())
	assert.Equal(t, []float64{0.25, 0.25, 0.25}, sys.fixedDts)
	assert.Equal(t, []float64{0.125, 0.125, 0.5}, sys.frameDts)
	assert.Equal(t, []string{
		"rec.update",
		"rec.update", "rec.fixed",
		"rec.update", "rec.fixed", "rec.fixed",
	}, *calls)
}

func TestAdvanceDropsExcessTime(t *testing.T) {
	l, sys, _ := newTestLoop(t, 0.25, WithMaxSubsteps(2))

	steps, err := l.Advance(context.Background(), 1.125)
	require.NoError(t, err)
	assert.Equal(t, 2, steps)
	assert.Len(t, sys.fixedDts, 2)
	assert.InDelta(t, 0.125, l.Accumulator(), 1e-12)
}

func TestAdvanceRejectsBadFrameDelta(t *testing.T) {
	l, _, _ := newTestLoop(t, 0.25)
	_, err := l.Advance(context.Background(), -1)
	assert.Error(t, err)
	assert.Equal(t, uint64(0), l.Frames())
}

func TestAdvancePropagatesErrors(t *testing.T) {
	l, sys, _ := newTestLoop(t, 0.25)
	boom := errors.New("boom")
	sys.fixedErr = boom

	steps, err := l.Advance(context.Background(), 0.5)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, steps)
	assert.Contains(t, err.Error(), "rec fixed_update")
}

func TestInitializeAndShutdownOrder(t *testing.T) {
	var calls []string
	a := &recordingSystem{name: "a", calls: &calls}
	b := &recordingSystem{name: "b", calls: &calls, shutErr: errors.New("b failed")}
	l, err := NewLoop(0.02, []System{a, b}, WithMeter(noop.NewMeterProvider().Meter("test")))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, l.Initialize(ctx))
	err = l.Shutdown(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shutdown b")
	assert.Equal(t, []string{"a.init", "b.init", "b.shutdown", "a.shutdown"}, calls)
}

func TestRunStopsOnCancel(t *testing.T) {
	l, _, _ := newTestLoop(t, 0.001)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Millisecond)
	defer cancel()

	require.NoError(t, l.Run(ctx, 2*time.Millisecond))
	assert.Greater(t, l.Frames(), uint64(0))
}
