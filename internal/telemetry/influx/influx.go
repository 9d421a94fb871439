// Package influx writes vehicle telemetry to InfluxDB as time series.
package influx

import (
	"fmt"
	"sync/atomic"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	influxdb2_write "github.com/influxdata/influxdb-client-go/v2/api/write"

	"github.com/zeusync/kartsim/internal/core/events/bus"
	"github.com/zeusync/kartsim/internal/core/kart/vehicle"
	"github.com/zeusync/kartsim/internal/core/observability/log"
)

const (
	MeasurementVehicle = "kart_telemetry"
	MeasurementWheel   = "kart_wheel"
)

// PointWriter is the subset of the influx non-blocking WriteAPI the sink needs.
type PointWriter interface {
	WritePoint(point *influxdb2_write.Point)
	Flush()
}

// Sink converts snapshots to points. Point timestamps are derived from the
// tick number, so a replay produces identical series every run.
type Sink struct {
	writer  PointWriter
	logger  log.Log
	start   time.Time
	fixedDt time.Duration
	written atomic.Uint64
}

func NewSink(w PointWriter, start time.Time, fixedDt float64, logger log.Log) *Sink {
	if logger == nil {
		logger = log.NewNop()
	}
	return &Sink{
		writer:  w,
		logger:  logger.With(log.String("component", "influx_sink")),
		start:   start,
		fixedDt: time.Duration(fixedDt * float64(time.Second)),
	}
}

// Timestamp is the simulated time of a tick.
func (s *Sink) Timestamp(tick uint64) time.Time {
	return s.start.Add(time.Duration(tick) * s.fixedDt)
}

// Points returns the vehicle point followed by one point per present wheel.
func (s *Sink) Points(snap vehicle.Snapshot) []*influxdb2_write.Point {
	ts := s.Timestamp(snap.Tick)
	points := make([]*influxdb2_write.Point, 0, 1+vehicle.WheelCount)

	points = append(points, influxdb2_write.NewPoint(
		MeasurementVehicle,
		map[string]string{"vehicle": snap.VehicleID},
		map[string]interface{}{
			"tick":               int64(snap.Tick),
			"speed":              snap.Speed,
			"speed_kmh":          snap.SpeedKmh,
			"forward_speed":      snap.ForwardSpeed,
			"rpm":                snap.RPM,
			"drive_torque":       snap.DriveTorque,
			"friction_torque":    snap.FrictionTorque,
			"load_torque":        snap.LoadTorque,
			"net_torque":         snap.NetTorque,
			"rev_limiter_factor": snap.RevLimiterFactor,
			"throttle":           snap.Throttle,
			"steer":              snap.Steer,
			"steer_angle":        snap.SteerAngle,
			"handbrake":          snap.Handbrake,
			"rear_slip_ratio":    snap.RearSlipRatio,
			"slip_angle":         snap.SlipAngle,
			"total_rear_fx":      snap.TotalRearFx,
			"total_front_fy":     snap.TotalFrontFy,
		},
		ts,
	))

	for i, w := range snap.Wheels {
		if !w.Present {
			continue
		}
		points = append(points, influxdb2_write.NewPoint(
			MeasurementWheel,
			map[string]string{
				"vehicle": snap.VehicleID,
				"wheel":   vehicle.WheelPosition(i).String(),
			},
			map[string]interface{}{
				"normal_force": w.NormalForce,
				"fx":           w.Fx,
				"fy":           w.Fy,
				"slip_ratio":   w.SlipRatio,
				"v_long":       w.VLong,
				"v_lat":        w.VLat,
				"lateral_sign": int64(w.LateralSign),
				"saturated":    w.Saturated,
				"drifting":     w.Drifting,
			},
			ts,
		))
	}
	return points
}

// Write queues every point for snap. The underlying writer batches and
// sends asynchronously.
func (s *Sink) Write(snap vehicle.Snapshot) {
	for _, p := range s.Points(snap) {
		s.writer.WritePoint(p)
		s.written.Add(1)
	}
}

// Attach subscribes the sink to vehicle telemetry on b.
func (s *Sink) Attach(b bus.EventBus) (bus.Subscription, error) {
	return b.Subscribe(bus.TypeVehicleTelemetry, func(e bus.Event) error {
		snap, ok := e.Data().(vehicle.Snapshot)
		if !ok {
			return fmt.Errorf("influx sink: unexpected event payload %T", e.Data())
		}
		s.Write(snap)
		return nil
	})
}

func (s *Sink) Written() uint64 { return s.written.Load() }

// Flush forces pending points out.
func (s *Sink) Flush() {
	s.writer.Flush()
	s.logger.Debug("flushed", log.Uint64("points", s.written.Load()))
}

// ClientConfig locates an InfluxDB v2 bucket.
type ClientConfig struct {
	URL    string
	Token  string
	Org    string
	Bucket string
}

// NewClientSink connects to InfluxDB and returns a sink plus a close function
// that flushes and releases the client. Write errors are logged.
func NewClientSink(cfg ClientConfig, start time.Time, fixedDt float64, logger log.Log) (*Sink, func(), error) {
	if cfg.URL == "" || cfg.Org == "" || cfg.Bucket == "" {
		return nil, nil, fmt.Errorf("influx: url, org and bucket are required")
	}
	if logger == nil {
		logger = log.NewNop()
	}

	client := influxdb2.NewClientWithOptions(
		cfg.URL,
		cfg.Token,
		influxdb2.DefaultOptions().
			SetBatchSize(2500).
			SetFlushInterval(1000),
	)
	writeAPI := client.WriteAPI(cfg.Org, cfg.Bucket)

	errorsCh := writeAPI.Errors()
	go func() {
		for writeErr := range errorsCh {
			logger.Error("error sending data to InfluxDB",
				log.Error(writeErr),
				log.String("bucket", cfg.Bucket),
			)
		}
	}()

	sink := NewSink(writeAPI, start, fixedDt, logger)
	closeFn := func() {
		sink.Flush()
		client.Close()
	}
	logger.Info("influx sink ready", log.String("url", cfg.URL), log.String("bucket", cfg.Bucket))
	return sink, closeFn, nil
}
