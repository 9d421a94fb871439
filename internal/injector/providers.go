package injector

import (
	"github.com/google/wire"

	"github.com/zeusync/kartsim/internal/core/events/bus"
	"github.com/zeusync/kartsim/internal/core/kart/config"
	"github.com/zeusync/kartsim/internal/core/observability/log"
	"github.com/zeusync/kartsim/internal/server"
	"github.com/zeusync/kartsim/internal/settings"
)

// SettingsPath is the optional settings file location.
type SettingsPath string

// App is the wired object graph shared by the kartsim commands.
type App struct {
	Settings *settings.Settings
	Logger   *log.Logger
	Vehicle  *config.VehicleConfig
	Bus      bus.EventBus
	Hub      *server.TelemetryHub
}

var ProviderSet = wire.NewSet(
	ProvideSettings,
	ProvideLogger,
	ProvideVehicleConfig,
	ProvideBus,
	ProvideTelemetryHub,
	wire.Struct(new(App), "*"),
)

func ProvideSettings(path SettingsPath) (*settings.Settings, error) {
	return settings.Load(string(path))
}

func ProvideLogger(s *settings.Settings) *log.Logger {
	return log.New(log.ParseLevel(s.LogLevel))
}

// ProvideVehicleConfig loads the configured vehicle asset, or the built-in
// kart when none is set.
func ProvideVehicleConfig(s *settings.Settings, logger *log.Logger) (*config.VehicleConfig, error) {
	if s.Vehicle.Config == "" {
		cfg := config.Default()
		return &cfg, nil
	}
	cfg, err := config.LoadFile(s.Vehicle.Config)
	if err != nil {
		logger.Error("vehicle config rejected", log.String("path", s.Vehicle.Config), log.Error(err))
		return nil, err
	}
	return cfg, nil
}

func ProvideBus() bus.EventBus {
	return bus.New()
}

func ProvideTelemetryHub(logger *log.Logger) *server.TelemetryHub {
	return server.NewTelemetryHub(server.DefaultConfig(), logger)
}
