package physics

import "github.com/go-gl/mathgl/mgl64"

var _ RigidBody = (*Body)(nil)

// Body is a planar rigid body: it translates in the horizontal plane and
// rotates only about the vertical axis. It integrates accumulated forces
// with semi-implicit Euler and has no collision handling.
type Body struct {
	mass          float64
	invMass       float64
	invYawInertia float64

	position mgl64.Vec3
	rotation mgl64.Quat
	velocity mgl64.Vec3
	yawRate  float64 // rad/s about Up

	force  mgl64.Vec3
	torque float64 // about Up
}

// NewBody creates a body at the origin facing Forward. A non-positive mass
// or inertia makes the body immovable along that degree of freedom.
func NewBody(mass, yawInertia float64) *Body {
	b := &Body{
		mass:     mass,
		rotation: mgl64.QuatIdent(),
	}
	if mass > 0 {
		b.invMass = 1 / mass
	}
	if yawInertia > 0 {
		b.invYawInertia = 1 / yawInertia
	}
	return b
}

func (b *Body) Mass() float64        { return b.mass }
func (b *Body) Position() mgl64.Vec3 { return b.position }
func (b *Body) Rotation() mgl64.Quat { return b.rotation }
func (b *Body) Velocity() mgl64.Vec3 { return b.velocity }
func (b *Body) YawRate() float64     { return b.yawRate }

func (b *Body) SetPosition(p mgl64.Vec3) { b.position = p }
func (b *Body) SetRotation(q mgl64.Quat) { b.rotation = q.Normalize() }
func (b *Body) SetVelocity(v mgl64.Vec3) { b.velocity = planar(v) }
func (b *Body) SetYawRate(w float64)     { b.yawRate = w }

// PendingForce returns the continuous force accumulated since the last Integrate.
func (b *Body) PendingForce() mgl64.Vec3 { return b.force }

// PendingTorque returns the yaw torque accumulated since the last Integrate.
func (b *Body) PendingTorque() float64 { return b.torque }

// TransformPoint maps a body-local point to world space.
func (b *Body) TransformPoint(local mgl64.Vec3) mgl64.Vec3 {
	return b.position.Add(b.rotation.Rotate(local))
}

func (b *Body) VelocityAtPoint(point mgl64.Vec3) mgl64.Vec3 {
	r := point.Sub(b.position)
	return b.velocity.Add(Up.Mul(b.yawRate).Cross(r))
}

func (b *Body) ApplyForceAtPosition(force, point mgl64.Vec3, mode ForceMode) {
	yaw := point.Sub(b.position).Cross(force).Y()
	switch mode {
	case ForceModeImpulse:
		b.velocity = b.velocity.Add(planar(force).Mul(b.invMass))
		b.yawRate += yaw * b.invYawInertia
	default:
		b.force = b.force.Add(force)
		b.torque += yaw
	}
}

// Integrate advances the body by dt and clears accumulated forces.
func (b *Body) Integrate(dt float64) {
	if dt <= 0 {
		return
	}

	b.velocity = planar(b.velocity.Add(b.force.Mul(b.invMass * dt)))
	b.yawRate += b.torque * b.invYawInertia * dt

	b.position = b.position.Add(b.velocity.Mul(dt))
	b.rotation = mgl64.QuatRotate(b.yawRate*dt, Up).Mul(b.rotation).Normalize()

	b.force = mgl64.Vec3{}
	b.torque = 0
}

func planar(v mgl64.Vec3) mgl64.Vec3 { return mgl64.Vec3{v.X(), 0, v.Z()} }
