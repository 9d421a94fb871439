package physics

import "github.com/go-gl/mathgl/mgl64"

// ForceMode selects how ApplyForceAtPosition changes the body.
type ForceMode uint8

const (
	// ForceModeForce accumulates a continuous force integrated over the next step.
	ForceModeForce ForceMode = iota
	// ForceModeImpulse changes velocity immediately.
	ForceModeImpulse
)

func (m ForceMode) String() string {
	switch m {
	case ForceModeForce:
		return "force"
	case ForceModeImpulse:
		return "impulse"
	default:
		return "unknown"
	}
}

// RigidBody is the host physics body a vehicle drives. The vehicle only
// reads kinematic state and submits forces; integration belongs to the host.
type RigidBody interface {
	Position() mgl64.Vec3
	Rotation() mgl64.Quat
	Velocity() mgl64.Vec3
	VelocityAtPoint(point mgl64.Vec3) mgl64.Vec3
	Mass() float64
	ApplyForceAtPosition(force, point mgl64.Vec3, mode ForceMode)
}
