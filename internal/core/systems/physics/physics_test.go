package physics

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
)

func TestScalarHelpers(t *testing.T) {
	assert.Equal(t, -1.0, Clamp(-3, -1, 1))
	assert.Equal(t, 1.0, Clamp(3, -1, 1))
	assert.Equal(t, 0.25, Clamp(0.25, -1, 1))
	assert.Equal(t, 0.0, Clamp01(-0.5))
	assert.Equal(t, 1.0, Clamp01(2))

	assert.Equal(t, 1.0, Sign(0))
	assert.Equal(t, 1.0, Sign(5))
	assert.Equal(t, -1.0, Sign(-0.001))

	assert.Equal(t, 0.5, MoveTowards(0, 1, 0.5))
	assert.Equal(t, 1.0, MoveTowards(0.9, 1, 0.5))
	assert.Equal(t, -0.5, MoveTowards(0, -1, 0.5))
}

func TestSafeNormalize(t *testing.T) {
	assert.Equal(t, mgl64.Vec3{}, SafeNormalize(mgl64.Vec3{}))
	n := SafeNormalize(mgl64.Vec3{3, 0, 4})
	assert.InDelta(t, 1.0, n.Len(), 1e-12)
	assert.InDelta(t, 0.6, n.X(), 1e-12)
}

func TestYawRotationTurnsForwardTowardRight(t *testing.T) {
	f := YawRotation(90).Rotate(Forward)
	assert.InDelta(t, 1.0, f.X(), 1e-9)
	assert.InDelta(t, 0.0, f.Z(), 1e-9)

	r := YawRotation(90).Rotate(Right)
	assert.InDelta(t, -1.0, r.Z(), 1e-9)
}

func TestBodyContinuousForce(t *testing.T) {
	b := NewBody(10, 1)
	b.ApplyForceAtPosition(mgl64.Vec3{0, 0, 20}, b.Position(), ForceModeForce)

	assert.Equal(t, mgl64.Vec3{}, b.Velocity(), "force must not act before Integrate")

	b.Integrate(0.5)
	assert.InDelta(t, 1.0, b.Velocity().Z(), 1e-12)
	assert.InDelta(t, 0.5, b.Position().Z(), 1e-12)
	assert.Equal(t, mgl64.Vec3{}, b.PendingForce())
}

func TestBodyImpulseIsImmediate(t *testing.T) {
	b := NewBody(4, 1)
	b.ApplyForceAtPosition(mgl64.Vec3{8, 0, 0}, b.Position(), ForceModeImpulse)
	assert.InDelta(t, 2.0, b.Velocity().X(), 1e-12)
	assert.Equal(t, mgl64.Vec3{}, b.PendingForce())
}

func TestBodyOffsetForceProducesYaw(t *testing.T) {
	b := NewBody(1, 2)
	// A rightward push at the nose turns the body to the right.
	b.ApplyForceAtPosition(mgl64.Vec3{1, 0, 0}, mgl64.Vec3{0, 0, 1}, ForceModeForce)
	assert.InDelta(t, 1.0, b.PendingTorque(), 1e-12)

	b.Integrate(1)
	assert.InDelta(t, 0.5, b.YawRate(), 1e-12)

	nose := b.VelocityAtPoint(b.TransformPoint(Forward))
	assert.Greater(t, nose.X(), b.Velocity().X())
}

func TestBodyStaysPlanar(t *testing.T) {
	b := NewBody(1, 1)
	b.ApplyForceAtPosition(mgl64.Vec3{0, 50, 0}, b.Position(), ForceModeForce)
	b.Integrate(1)
	assert.Equal(t, 0.0, b.Velocity().Y())

	b.SetVelocity(mgl64.Vec3{1, 3, 2})
	assert.Equal(t, mgl64.Vec3{1, 0, 2}, b.Velocity())
}

func TestImmovableBody(t *testing.T) {
	b := NewBody(0, 0)
	b.ApplyForceAtPosition(mgl64.Vec3{100, 0, 0}, mgl64.Vec3{0, 0, 1}, ForceModeImpulse)
	b.Integrate(1)
	assert.Equal(t, mgl64.Vec3{}, b.Velocity())
	assert.Equal(t, 0.0, b.YawRate())
}
