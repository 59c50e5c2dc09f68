// cmd/ambu/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/Tubbz-alt/pabv-control/internal/alarm"
	"github.com/Tubbz-alt/pabv-control/internal/channel"
	"github.com/Tubbz-alt/pabv-control/internal/config"
	"github.com/Tubbz-alt/pabv-control/internal/controller"
	"github.com/Tubbz-alt/pabv-control/internal/history"
	"github.com/Tubbz-alt/pabv-control/internal/identity"
	"github.com/Tubbz-alt/pabv-control/internal/logging"
	"github.com/Tubbz-alt/pabv-control/internal/metrics"
	"github.com/Tubbz-alt/pabv-control/internal/params"
	"github.com/Tubbz-alt/pabv-control/internal/poller"
	"github.com/Tubbz-alt/pabv-control/internal/protocol"
	"github.com/Tubbz-alt/pabv-control/internal/relay"
	"github.com/Tubbz-alt/pabv-control/internal/runner"
	"github.com/Tubbz-alt/pabv-control/internal/writer"
)

// version is set at build time: -ldflags "-X main.version=..."
var version = "unknown"

func main() {
	cfgPath := flag.String("config", "", "path to the YAML config file")
	printCfg := flag.Bool("print-config", false, "print the effective config and exit")
	showVersion := flag.Bool("version", false, "print the build version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	// --------------------
	// Load + validate config
	// --------------------

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}
	if err := config.Validate(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "config validation failed: %v\n", err)
		os.Exit(1)
	}
	config.Normalize(cfg)

	if *printCfg {
		out, err := config.Marshal(cfg)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
		return
	}

	log, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup failed: %v\n", err)
		os.Exit(1)
	}
	defer closeLog.Close()

	if err := run(cfg, log); err != nil {
		log.WithError(err).Error("ambu stopped")
		closeLog.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, log *logrus.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(logrus.Fields{
		"version": version,
		"device":  cfg.Device.Name,
	}).Info("ambu starting")

	// ---- identity ----
	id, err := identityProvider(cfg.Device).Read()
	if err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	log.WithField("id", id.String()).Info("device identity")

	// ---- parameter store ----
	medium, err := paramMedium(cfg.Params, log)
	if err != nil {
		return err
	}

	m := metrics.New()
	var rn *runner.Runner
	store := params.NewStore(medium, log.WithField("component", "params"),
		params.WithWarnInterval(time.Duration(cfg.Params.WarnIntervalMs)*time.Millisecond),
		params.WithSaveHook(func(err error) {
			m.ObserveSave(err)
			if rn != nil {
				rn.ObserveSave(err)
			}
		}),
	)

	// ---- channels ----
	primary, closePrimary, err := openChannel(controller.SourcePrimary, cfg.Channels.Primary, log)
	if err != nil {
		return err
	}
	defer closePrimary()

	display, closeDisplay, err := openChannel(controller.SourceDisplay, cfg.Channels.Display, log)
	if err != nil {
		return err
	}
	defer closeDisplay()

	// ---- modbus endpoints (shared per endpoint) ----
	clients, closeClients, err := writer.BuildEndpointClients(
		[]string{cfg.Relay.Coil.Endpoint, cfg.Sensor.Endpoint, cfg.Status.Endpoint},
		time.Duration(config.ModbusTimeoutMs)*time.Millisecond,
		0,
	)
	if err != nil {
		return err
	}
	defer closeClients()

	var wg sync.WaitGroup
	defer wg.Wait()

	// Early returns stop the workers before waiting on them.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// ---- pressure sensor ----
	var sensor relay.PressureSensor = poller.Fixed(0)
	var sensorHealth runner.HealthSource
	if ep := cfg.Sensor.Endpoint; ep != "" {
		p, ps, err := poller.BuildPressure(cfg.Sensor, clients[ep])
		if err != nil {
			return fmt.Errorf("sensor: %w", err)
		}
		wg.Add(1)
		go func() { defer wg.Done(); p.Run(ctx, ps.Observe) }()
		sensor, sensorHealth = ps, ps
	} else {
		log.Warn("no pressure sensor configured: the stall watchdog cycles the relay in run mode")
	}

	// ---- relay actuator ----
	var act relay.Actuator = &relay.MemoryActuator{}
	if ep := cfg.Relay.Coil.Endpoint; ep != "" {
		act = relay.NewCoilActuator(clients[ep], cfg.Relay.Coil.UnitID, cfg.Relay.Coil.Address)
	} else {
		log.Warn("no relay coil configured: relay output is simulated")
	}

	// ---- alarm, dispatch, observers ----
	silencer := alarm.NewSilencer(time.Duration(cfg.Alarm.MuteMs)*time.Millisecond, log.WithField("component", "alarm"))
	dispatch := protocol.NewDispatcher(store, silencer, log.WithField("component", "protocol"))

	opts := []controller.Option{controller.WithObserver(m)}
	if cfg.History.DSN != "" {
		rec, err := history.NewPostgresRecorder(ctx, cfg.History.DSN)
		if err != nil {
			return err
		}
		hist := history.NewAsync(rec, id.String(), cfg.History.Queue, log.WithField("component", "history"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			hist.Run(ctx)
			rec.Close()
		}()
		opts = append(opts, controller.WithObserver(hist))
	}

	ctrl := controller.New(
		store, dispatch, primary, display, version, id,
		controller.Config{ConfigMillis: uint32(cfg.Timing.ConfigMillis)},
		log.WithField("component", "controller"),
		opts...,
	)

	mach := relay.New(relay.Config{
		MinOffMillis:     uint32(cfg.Relay.MinOffMs),
		StallMillis:      uint32(cfg.Relay.StallMs),
		ActivityPressure: cfg.Relay.ActivityPressure,
	}, store, sensor, act, display, log.WithField("component", "relay"))

	runOpts := []runner.Option{runner.WithAlarm(silencer)}
	if sensorHealth != nil {
		runOpts = append(runOpts, runner.WithSensor(sensorHealth))
	}
	rn = runner.New(runner.Config{
		Tick:         time.Duration(cfg.Timing.TickMs) * time.Millisecond,
		ReportMillis: uint32(cfg.Relay.ReportMs),
	}, ctrl, mach, store, log.WithField("component", "runner"), runOpts...)

	rn.Setup()
	if err := store.Check(); err != nil {
		log.WithError(err).Warn("parameter storage readback failed")
	}

	// ---- metrics ----
	m.WatchRelay(mach)
	m.WatchParams(store)
	if cfg.Metrics.Listen != "" {
		reg := prometheus.NewRegistry()
		if err := m.Register(reg); err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		srv := metricsServer(cfg.Metrics.Listen, reg)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.WithError(err).Error("metrics server failed")
			}
		}()
		defer shutdown(srv)
	}

	// ---- status mirror ----
	plan := writer.BuildStatusPlan(cfg.Status, cfg.Device.Name)
	sw, ok, err := writer.BuildStatusWriter(plan, clients, time.Duration(config.ModbusTimeoutMs)*time.Millisecond)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}
	if ok {
		mirror := writer.NewMirror(sw, rn.Status,
			time.Duration(cfg.Status.IntervalMs)*time.Millisecond,
			log.WithField("component", "status"))
		wg.Add(1)
		go func() { defer wg.Done(); mirror.Run(ctx) }()
	}

	// ---- tick loop ----
	rn.Run(ctx)
	log.Info("ambu stopping")
	return nil
}

func identityProvider(d config.DeviceConfig) identity.Provider {
	switch d.Identity {
	case config.IdentityPlatform:
		return identity.Platform()
	case config.IdentityStatic:
		var s identity.Static
		copy(s[:], d.StaticID)
		return s
	default:
		return identity.FileProvider{Path: d.IdentityFile}
	}
}

func paramMedium(c config.ParamsConfig, log logrus.FieldLogger) (params.Medium, error) {
	if c.Path == "" {
		log.Warn("no parameter path configured: parameters are not persisted")
		return &params.MemoryMedium{}, nil
	}
	fm, err := params.NewFileMedium(c.Path)
	if err != nil {
		return nil, err
	}
	return fm, nil
}

func openChannel(name string, c config.SerialConfig, log logrus.FieldLogger) (channel.Channel, func() error, error) {
	if c.Port == "" {
		log.WithField("channel", name).Info("channel disabled")
		return channel.Null{}, func() error { return nil }, nil
	}
	s, err := channel.OpenSerial(channel.SerialConfig{
		Name:    name,
		Port:    c.Port,
		Baud:    c.Baud,
		Timeout: time.Duration(c.TimeoutMs) * time.Millisecond,
		Queue:   c.Queue,
	}, log)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

func metricsServer(addr string, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler(reg))
	return &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = srv.Shutdown(ctx)
}
