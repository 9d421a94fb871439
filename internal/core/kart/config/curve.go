package config

import (
	"fmt"
	"math"
	"sort"
)

// CurvePoint is one control point of a torque curve.
type CurvePoint struct {
	RPM    float64 `json:"rpm" yaml:"rpm"`
	Torque float64 `json:"torque" yaml:"torque"`
}

// TorqueCurve maps engine RPM to full-throttle torque (N*m). Points must be
// ordered by strictly increasing RPM. Between points the curve is linear;
// outside the domain it holds the nearest endpoint value.
type TorqueCurve []CurvePoint

// Evaluate returns the torque at rpm.
func (c TorqueCurve) Evaluate(rpm float64) float64 {
	n := len(c)
	switch {
	case n == 0:
		return 0
	case rpm <= c[0].RPM:
		return c[0].Torque
	case rpm >= c[n-1].RPM:
		return c[n-1].Torque
	}

	// first point strictly beyond rpm; 1 <= i <= n-1 given the guards above
	i := sort.Search(n, func(i int) bool { return c[i].RPM > rpm })
	a, b := c[i-1], c[i]
	t := (rpm - a.RPM) / (b.RPM - a.RPM)
	return a.Torque + (b.Torque-a.Torque)*t
}

// Validate checks that the curve is non-empty, finite and ordered.
func (c TorqueCurve) Validate() error {
	if len(c) == 0 {
		return fmt.Errorf("%w: torque curve needs at least one point", ErrInvalidConfig)
	}
	for i, p := range c {
		if !finite(p.RPM) || !finite(p.Torque) {
			return fmt.Errorf("%w: torque curve point %d is not finite", ErrInvalidConfig, i)
		}
		if i > 0 && p.RPM <= c[i-1].RPM {
			return fmt.Errorf("%w: torque curve rpm must strictly increase (point %d: %v after %v)",
				ErrInvalidConfig, i, p.RPM, c[i-1].RPM)
		}
	}
	return nil
}

// Clone returns an independent copy.
func (c TorqueCurve) Clone() TorqueCurve {
	if c == nil {
		return nil
	}
	out := make(TorqueCurve, len(c))
	copy(out, c)
	return out
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
