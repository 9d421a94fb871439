package main

import (
	"context"
	_ "embed"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/zeusync/kartsim/internal/core/kart/vehicle"
	"github.com/zeusync/kartsim/internal/core/observability/log"
	"github.com/zeusync/kartsim/internal/core/replay"
	"github.com/zeusync/kartsim/internal/core/systems"
	"github.com/zeusync/kartsim/internal/core/systems/physics"
	"github.com/zeusync/kartsim/internal/injector"
	"github.com/zeusync/kartsim/internal/telemetry/influx"
)

//go:embed demo.yaml
var demoScript string

func main() {
	settingsPath := flag.String("settings", "", "path to a settings file (yaml or json)")
	flag.Parse()

	app, err := injector.InitializeApp(injector.SettingsPath(*settingsPath))
	if err != nil {
		fmt.Fprintln(os.Stderr, "kartsim:", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	if app.Settings.Server.Enabled {
		err = runLive(ctx, app)
	} else {
		err = runHeadless(ctx, app)
	}
	stop()

	if err != nil {
		app.Logger.Error("kartsim failed", log.Error(err))
	}
	_ = app.Logger.Sync()
	if err != nil {
		os.Exit(1)
	}
}

func loadScript(path string) (*replay.Script, error) {
	if path == "" {
		return replay.LoadScript(strings.NewReader(demoScript))
	}
	return replay.LoadScriptFile(path)
}

// attachInflux wires the optional influx sink to the bus and returns its
// close function.
func attachInflux(app *injector.App, start time.Time) (func(), error) {
	s := app.Settings.Influx
	if !s.Enabled {
		return func() {}, nil
	}
	sink, closeFn, err := influx.NewClientSink(influx.ClientConfig{
		URL:    s.URL,
		Token:  s.Token,
		Org:    s.Org,
		Bucket: s.Bucket,
	}, start, app.Settings.Sim.FixedDelta, app.Logger)
	if err != nil {
		return nil, err
	}
	sub, err := sink.Attach(app.Bus)
	if err != nil {
		closeFn()
		return nil, err
	}
	return func() {
		_ = sub.Cancel()
		closeFn()
	}, nil
}

// runHeadless replays the script twice, checks that both runs match and
// logs the result.
func runHeadless(ctx context.Context, app *injector.App) error {
	script, err := loadScript(app.Settings.Sim.Script)
	if err != nil {
		return err
	}
	closeInflux, err := attachInflux(app, time.Now().Truncate(time.Second))
	if err != nil {
		return err
	}
	defer closeInflux()

	res, err := replay.Verify(ctx, app.Vehicle, script, app.Settings.Sim.FixedDelta,
		replay.WithLogger(app.Logger),
		replay.WithBus(app.Bus),
	)
	if err != nil {
		return err
	}

	app.Logger.Info("deterministic replay verified",
		log.String("script", res.Script),
		log.Uint64("ticks", res.Ticks),
		log.Int("forces", res.Forces),
		log.String("digest", res.DigestHex()),
		log.Float64("speed_kmh", res.Final.SpeedKmh),
		log.Float64("rpm", res.Final.RPM),
		log.Float64("slip_angle", res.Final.SlipAngle),
	)
	return nil
}

// loopingInput replays a script forever.
type loopingInput struct {
	script *replay.Script
	in     *replay.ScriptInput
}

func (l *loopingInput) Sample() vehicle.Input {
	if l.in == nil || l.in.Done() {
		l.in = replay.NewScriptInput(l.script)
	}
	return l.in.Sample()
}

// runLive steps the configured karts in real time and streams telemetry
// until ctx is cancelled.
func runLive(ctx context.Context, app *injector.App) error {
	cfg := app.Settings
	script, err := loadScript(cfg.Sim.Script)
	if err != nil {
		return err
	}

	vs := systems.NewVehicleSystem(app.Bus,
		systems.WithWorkers(cfg.Sim.Workers),
		systems.WithSystemLogger(app.Logger),
	)
	for i := 1; i <= cfg.Vehicle.Count; i++ {
		body := physics.NewBody(app.Vehicle.Mass, replay.DefaultYawInertia)
		v, err := vehicle.New(app.Vehicle, body,
			vehicle.WithID(fmt.Sprintf("kart-%d", i)),
			vehicle.WithLogger(app.Logger),
		)
		if err != nil {
			return err
		}
		if err = vs.Add(v, &loopingInput{script: script}); err != nil {
			return err
		}
	}

	loop, err := systems.NewLoop(cfg.Sim.FixedDelta, []systems.System{vs},
		systems.WithMaxSubsteps(cfg.Sim.MaxSubsteps),
		systems.WithLoopLogger(app.Logger),
	)
	if err != nil {
		return err
	}

	closeInflux, err := attachInflux(app, time.Now())
	if err != nil {
		return err
	}
	defer closeInflux()

	sub, err := app.Hub.Attach(app.Bus)
	if err != nil {
		return err
	}
	defer func() { _ = sub.Cancel() }()

	if err = app.Hub.Start(ctx, cfg.Server.Addr); err != nil {
		return err
	}
	if err = loop.Initialize(ctx); err != nil {
		return err
	}

	frame := time.Duration(cfg.Sim.FrameDelta * float64(time.Second))
	runErr := loop.Run(ctx, frame)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return errors.Join(runErr, loop.Shutdown(shutdownCtx), app.Hub.Stop(shutdownCtx))
}
