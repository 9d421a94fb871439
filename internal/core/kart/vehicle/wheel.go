package vehicle

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/zeusync/kartsim/internal/core/kart/config"
	"github.com/zeusync/kartsim/internal/core/kart/tire"
	"github.com/zeusync/kartsim/internal/core/kart/weight"
	"github.com/zeusync/kartsim/internal/core/systems/physics"
)

// WheelPosition identifies a corner of the kart.
type WheelPosition uint8

const (
	FrontLeft WheelPosition = iota
	FrontRight
	RearLeft
	RearRight

	WheelCount = 4
)

func (p WheelPosition) String() string {
	switch p {
	case FrontLeft:
		return "front_left"
	case FrontRight:
		return "front_right"
	case RearLeft:
		return "rear_left"
	case RearRight:
		return "rear_right"
	default:
		return "unknown"
	}
}

// Driven reports whether the engine drives this corner. Karts are rear-driven.
func (p WheelPosition) Driven() bool { return p == RearLeft || p == RearRight }

// Steered reports whether the corner turns with the steering input.
func (p WheelPosition) Steered() bool { return p == FrontLeft || p == FrontRight }

// Wheel is one contact point owned by a Vehicle. Its normal force is fixed at
// construction; the rest is refreshed every fixed tick.
type Wheel struct {
	position    WheelPosition
	mount       mgl64.Vec3
	normalForce float64

	initialRotation mgl64.Quat // body-local attachment orientation
	localRotation   mgl64.Quat // attachment orientation with steering applied

	worldPosition mgl64.Vec3
	forward       mgl64.Vec3
	right         mgl64.Vec3
	last          tire.Result
}

func newWheel(pos WheelPosition, mount *config.WheelMount, normalForce float64) *Wheel {
	if mount == nil {
		return nil
	}
	rot := physics.YawRotation(mount.Yaw)
	return &Wheel{
		position:        pos,
		mount:           mount.Vec(),
		normalForce:     normalForce,
		initialRotation: rot,
		localRotation:   rot,
		forward:         rot.Rotate(physics.Forward),
		right:           rot.Rotate(physics.Right),
	}
}

func (w *Wheel) Position() WheelPosition   { return w.position }
func (w *Wheel) Mount() mgl64.Vec3         { return w.mount }
func (w *Wheel) NormalForce() float64      { return w.normalForce }
func (w *Wheel) Driven() bool              { return w.position.Driven() }
func (w *Wheel) WorldPosition() mgl64.Vec3 { return w.worldPosition }
func (w *Wheel) Forward() mgl64.Vec3       { return w.forward }
func (w *Wheel) Right() mgl64.Vec3         { return w.right }
func (w *Wheel) LocalRotation() mgl64.Quat { return w.localRotation }
func (w *Wheel) Last() tire.Result         { return w.last }

func (w *Wheel) steer(rot mgl64.Quat) {
	w.localRotation = w.initialRotation.Mul(rot)
}

// sync refreshes the world-space pose from the body transform.
func (w *Wheel) sync(body physics.RigidBody) {
	bodyRot := body.Rotation()
	rot := bodyRot.Mul(w.localRotation)
	w.worldPosition = body.Position().Add(bodyRot.Rotate(w.mount))
	w.forward = rot.Rotate(physics.Forward)
	w.right = rot.Rotate(physics.Right)
}

func buildWheels(layout config.WheelLayout, loads weight.StaticLoads) [WheelCount]*Wheel {
	return [WheelCount]*Wheel{
		FrontLeft:  newWheel(FrontLeft, layout.FrontLeft, loads.FrontLeft),
		FrontRight: newWheel(FrontRight, layout.FrontRight, loads.FrontRight),
		RearLeft:   newWheel(RearLeft, layout.RearLeft, loads.RearLeft),
		RearRight:  newWheel(RearRight, layout.RearRight, loads.RearRight),
	}
}
