package systems

import (
	"context"
	"time"
)

// System is a simulation processor driven by a Loop.
//
// Update runs once per rendered frame with the frame delta; FixedUpdate runs
// zero or more times per frame with the fixed physics step.
type System interface {
	Name() string

	Initialize(ctx context.Context) error
	Shutdown(ctx context.Context) error

	Update(deltaTime float64) error
	FixedUpdate(fixedDeltaTime float64) error

	GetMetrics() Metrics
}

// ExecutionPhase identifies when a system callback runs.
type ExecutionPhase uint8

const (
	PhaseUpdate ExecutionPhase = iota
	PhaseFixedUpdate
)

func (p ExecutionPhase) String() string {
	switch p {
	case PhaseUpdate:
		return "update"
	case PhaseFixedUpdate:
		return "fixed_update"
	default:
		return "unknown"
	}
}

// Metrics provides runtime metrics for a system
type Metrics struct {
	ExecutionCount       uint64
	TotalExecutionTime   time.Duration
	AverageExecutionTime time.Duration
	MaxExecutionTime     time.Duration
	ErrorCount           uint64
	LastError            error
	LastExecutionTime    time.Time
	EntitiesProcessed    uint64
}

// record folds one FixedUpdate execution into m.
func (m *Metrics) record(start time.Time, entities int, err error) {
	elapsed := time.Since(start)
	m.ExecutionCount++
	m.TotalExecutionTime += elapsed
	m.AverageExecutionTime = m.TotalExecutionTime / time.Duration(m.ExecutionCount)
	if elapsed > m.MaxExecutionTime {
		m.MaxExecutionTime = elapsed
	}
	m.LastExecutionTime = start
	m.EntitiesProcessed += uint64(entities)
	if err != nil {
		m.ErrorCount++
		m.LastError = err
	}
}
