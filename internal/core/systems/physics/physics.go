package physics

import "github.com/go-gl/mathgl/mgl64"

// Axes follow a Y-up frame with Z forward and X to the right.
var (
	Up      = mgl64.Vec3{0, 1, 0}
	Forward = mgl64.Vec3{0, 0, 1}
	Right   = mgl64.Vec3{1, 0, 0}
)

// Epsilon is the magnitude below which vectors are treated as zero.
const Epsilon = 1e-6

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Clamp01(v float64) float64 { return Clamp(v, 0, 1) }

// Sign returns -1 for negative values and +1 otherwise, including zero.
func Sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}

// MoveTowards moves current toward target by at most maxDelta.
func MoveTowards(current, target, maxDelta float64) float64 {
	return current + Clamp(target-current, -maxDelta, maxDelta)
}

// SafeNormalize returns the unit vector of v, or the zero vector when v is ~0.
func SafeNormalize(v mgl64.Vec3) mgl64.Vec3 {
	l := v.Len()
	if l < Epsilon {
		return mgl64.Vec3{}
	}
	return v.Mul(1 / l)
}

// YawRotation returns a rotation of deg degrees about the vertical axis.
func YawRotation(deg float64) mgl64.Quat {
	return mgl64.QuatRotate(mgl64.DegToRad(deg), Up)
}
