package injector

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zeusync/kartsim/internal/core/kart/config"
	"github.com/zeusync/kartsim/internal/core/observability/log"
)

func TestInitializeAppDefaults(t *testing.T) {
	app, err := InitializeApp("")
	require.NoError(t, err)

	assert.Equal(t, log.LevelInfo, app.Logger.GetLevel())
	assert.Equal(t, config.Default().Mass, app.Vehicle.Mass)
	assert.NotNil(t, app.Bus)
	assert.NotNil(t, app.Hub)
}

func TestInitializeAppLoadsVehicleAsset(t *testing.T) {
	dir := t.TempDir()
	asset := filepath.Join(dir, "heavy.yaml")
	require.NoError(t, os.WriteFile(asset, []byte("name: heavy\nmass: 120\n"), 0644))
	settingsPath := filepath.Join(dir, "kartsim.yaml")
	require.NoError(t, os.WriteFile(settingsPath, []byte("log_level: debug\nvehicle:\n  config: "+asset+"\n"), 0644))

	app, err := InitializeApp(SettingsPath(settingsPath))
	require.NoError(t, err)
	assert.Equal(t, "heavy", app.Vehicle.Name)
	assert.Equal(t, 120.0, app.Vehicle.Mass)
	assert.Equal(t, log.LevelDebug, app.Logger.GetLevel())
}

func TestInitializeAppRejectsBadAsset(t *testing.T) {
	dir := t.TempDir()
	asset := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(asset, []byte("wheel_radius: 0\n"), 0644))
	settingsPath := filepath.Join(dir, "kartsim.yaml")
	require.NoError(t, os.WriteFile(settingsPath, []byte("vehicle:\n  config: "+asset+"\n"), 0644))

	_, err := InitializeApp(SettingsPath(settingsPath))
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}
