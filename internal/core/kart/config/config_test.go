package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
}

func TestValidateRejectsDegenerateValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*VehicleConfig)
		want   string
	}{
		{"zero wheel radius", func(c *VehicleConfig) { c.WheelRadius = 0 }, "wheel_radius"},
		{"zero engine inertia", func(c *VehicleConfig) { c.EngineInertia = 0 }, "engine_inertia"},
		{"all weight on rear", func(c *VehicleConfig) { c.FrontAxleShare = 0 }, "front_axle_share"},
		{"all weight on front", func(c *VehicleConfig) { c.FrontAxleShare = 1 }, "front_axle_share"},
		{"zero mass", func(c *VehicleConfig) { c.Mass = 0 }, "mass"},
		{"zero steer angle", func(c *VehicleConfig) { c.MaxSteerAngle = 0 }, "max_steer_angle"},
		{"limiter above max", func(c *VehicleConfig) { c.RevLimiterRPM = 9000 }, "rev_limiter_rpm"},
		{"idle above max", func(c *VehicleConfig) { c.IdleRPM = 8500 }, "idle_rpm"},
		{"empty curve", func(c *VehicleConfig) { c.TorqueCurve = nil }, "torque curve"},
		{"unordered curve", func(c *VehicleConfig) {
			c.TorqueCurve = TorqueCurve{{RPM: 2000, Torque: 10}, {RPM: 1000, Torque: 12}}
		}, "strictly increase"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(&c)
			err := c.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestValidateReportsEveryViolation(t *testing.T) {
	c := Default()
	c.WheelRadius = 0
	c.EngineInertia = -1
	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wheel_radius")
	assert.Contains(t, err.Error(), "engine_inertia")
}

func TestTorqueCurveEvaluate(t *testing.T) {
	curve := TorqueCurve{
		{RPM: 1000, Torque: 10},
		{RPM: 3000, Torque: 30},
		{RPM: 5000, Torque: 20},
	}

	assert.Equal(t, 10.0, curve.Evaluate(0), "clamps below domain")
	assert.Equal(t, 10.0, curve.Evaluate(1000))
	assert.InDelta(t, 20.0, curve.Evaluate(2000), 1e-12)
	assert.Equal(t, 30.0, curve.Evaluate(3000))
	assert.InDelta(t, 25.0, curve.Evaluate(4000), 1e-12)
	assert.Equal(t, 20.0, curve.Evaluate(9000), "clamps above domain")

	assert.Equal(t, 0.0, TorqueCurve(nil).Evaluate(1234))
	assert.Equal(t, 7.0, TorqueCurve{{RPM: 100, Torque: 7}}.Evaluate(5000))
}

func TestCloneIsDeep(t *testing.T) {
	a := Default()
	b := a.Clone()
	b.TorqueCurve[0].Torque = 999
	b.Wheels.FrontLeft.Offset[0] = 42

	assert.NotEqual(t, 999.0, a.TorqueCurve[0].Torque)
	assert.NotEqual(t, 42.0, a.Wheels.FrontLeft.Offset[0])
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	src := `
name: heavy
mass: 120
front_axle_share: 0.4
torque_curve:
  - {rpm: 1000, torque: 40}
  - {rpm: 8000, torque: 30}
handbrake:
  tire_brake: true
  impulse: false
wheels:
  rear_left: null
`
	c, err := LoadYAML(strings.NewReader(src))
	require.NoError(t, err)

	assert.Equal(t, "heavy", c.Name)
	assert.Equal(t, 120.0, c.Mass)
	assert.Equal(t, 0.4, c.FrontAxleShare)
	assert.Equal(t, 9.81, c.Gravity, "unset fields keep defaults")
	assert.Len(t, c.TorqueCurve, 2)
	assert.False(t, c.Handbrake.Impulse)
	assert.Nil(t, c.Wheels.RearLeft)
	assert.NotNil(t, c.Wheels.RearRight)
}

func TestLoadYAMLRejectsUnknownAndInvalid(t *testing.T) {
	_, err := LoadYAML(strings.NewReader("mas: 10\n"))
	require.Error(t, err)

	_, err = LoadYAML(strings.NewReader("wheel_radius: 0\n"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestLoadYAMLEmptyDocumentIsDefault(t *testing.T) {
	c, err := LoadYAML(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default().Mass, c.Mass)
}

func TestLoadJSON(t *testing.T) {
	c, err := LoadJSON(strings.NewReader(`{"gear_ratio": 10, "wheels": {"front_left": null}}`))
	require.NoError(t, err)
	assert.Equal(t, 10.0, c.GearRatio)
	assert.Nil(t, c.Wheels.FrontLeft)
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "kart.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("mass: 90\n"), 0o644))
	c, err := LoadFile(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, 90.0, c.Mass)

	jsonPath := filepath.Join(dir, "kart.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"mass": 95}`), 0o644))
	c, err = LoadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, 95.0, c.Mass)

	tomlPath := filepath.Join(dir, "kart.toml")
	require.NoError(t, os.WriteFile(tomlPath, []byte(""), 0o644))
	_, err = LoadFile(tomlPath)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))

	_, err = LoadFile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
