// Command offboardd is the offboard bridge service: it loads the
// deployment config, opens the operator DB, wires the FCU driver to
// the telemetry cache and setpoint engine, and serves the HTTP/WS
// command and telemetry API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io/ioutil"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v2"

	"github.com/skyward-robotics/offboard-bridge/internal/auth"
	"github.com/skyward-robotics/offboard-bridge/internal/command"
	"github.com/skyward-robotics/offboard-bridge/internal/config"
	"github.com/skyward-robotics/offboard-bridge/internal/fcu"
	"github.com/skyward-robotics/offboard-bridge/internal/frames"
	"github.com/skyward-robotics/offboard-bridge/internal/logging"
	"github.com/skyward-robotics/offboard-bridge/internal/service"
	"github.com/skyward-robotics/offboard-bridge/internal/setpoint"
	"github.com/skyward-robotics/offboard-bridge/internal/telemetry"
)

func openDB(path string) (*storm.DB, error) {
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return storm.Open(path)
}

func main() {
	simulate := flag.Bool("sim", false, "run against a simulated FCU driver")
	configFile := flag.String("config", "bridge_config.yaml", "path to the bridge YAML config, relative to CONFIG_DIR")
	flag.Parse()

	var env_ config.EnvConfig
	if err := env.Parse(&env_); err != nil {
		log.Fatalf("parsing environment: %v", err)
	}

	db, err := openDB(env_.DBPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	yamlPath, err := filepath.Abs(filepath.Join(env_.ConfigDir, *configFile))
	if err != nil {
		log.Fatalf("resolving config path: %v", err)
	}
	yamlBytes, err := ioutil.ReadFile(yamlPath)
	if err != nil {
		log.Fatalf("reading config %s: %v", yamlPath, err)
	}

	var cfg config.BridgeConfig
	if err := yaml.Unmarshal(yamlBytes, &cfg); err != nil {
		log.Fatalf("parsing config %s: %v", yamlPath, err)
	}
	cfg.ApplyDefaults()

	now := time.Now

	graph := frames.NewGraph()
	for _, st := range cfg.StaticTransforms {
		graph.SetStatic(st.From, st.To, frames.Pose{
			Position: st.Translation,
			Rotation: frames.YawOnly(st.YawRadians),
		})
	}
	framesSvc := frames.NewService(graph)
	broadcaster := frames.NewBroadcaster(graph, cfg.LocalFrame, cfg.BodyFrame, cfg.TargetFrame, cfg.Timeouts.Transform())
	geodesic := &frames.Geodesic{LocalFrame: cfg.LocalFrame}

	cache := telemetry.New(telemetry.Timeouts{
		State:          cfg.Timeouts.State(),
		LocalPosition:  cfg.Timeouts.LocalPosition(),
		Velocity:       cfg.Timeouts.Velocity(),
		GlobalPosition: cfg.Timeouts.GlobalPosition(),
		Battery:        cfg.Timeouts.Battery(),
	})
	cache.OnLocalPose = broadcaster.OnLocalPose

	var driver fcu.Driver
	if *simulate || env_.Simulate {
		fmt.Println("Running against a simulated FCU driver.")
		driver = fcu.NewSimDriver(cfg.LocalFrame, cfg.FCUFrame, "1.0.0", cfg.SetpointRate())
	} else {
		log.Fatal("no production FCU driver wired yet; run with -sim")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sim, ok := driver.(*fcu.SimDriver); ok {
		go sim.Run(ctx)
	}
	go fcu.Pump(ctx, driver.Telemetry(), cache, now)

	if err := waitAndCheckVersion(ctx, driver, cfg.FCUVersionConstraint); err != nil {
		log.Fatalf("FCU version check failed: %v", err)
	}

	engine := &setpoint.Engine{
		Frames:        framesSvc,
		Broadcaster:   broadcaster,
		Publisher:     driver,
		Logger:        &logging.Throttled{Interval: time.Second},
		LocalFrame:    cfg.LocalFrame,
		FCUFrame:      cfg.FCUFrame,
		TickTolerance: 50 * time.Millisecond,
		StaleAfter:    200 * time.Millisecond,
	}

	handshake := &fcu.Handshake{
		Driver: driver,
		Cache:  cache,
		Timeouts: fcu.Timeouts{
			Offboard: cfg.Timeouts.Offboard(),
			Arming:   cfg.Timeouts.Arming(),
			Land:     cfg.Timeouts.Land(),
		},
		Now: now,
	}

	validator := &command.Validator{
		LocalFrame:       cfg.LocalFrame,
		ReferenceFrames:  cfg.ReferenceFrames,
		DefaultSpeed:     cfg.DefaultSpeed,
		TransformTimeout: cfg.Timeouts.Transform(),
		SetpointRate:     cfg.SetpointRate(),
		Cache:            cache,
		Frames:           framesSvc,
		Geodesic:         geodesic,
		Engine:           engine,
		Handshake:        handshake,
		Now:              now,
	}

	authSvc := &auth.Service{
		DB: db,
		Config: auth.Config{
			Issuer:   env_.JWTIssuer,
			Secret:   []byte(env_.JWTSecret),
			Lifespan: time.Hour,
		},
	}

	router := &service.Router{
		Auth: authSvc,
		Commands: &service.Commands{
			Validator:          validator,
			LandOnlyInOffboard: cfg.LandOnlyInOffboard,
		},
		Telemetry: &service.Telemetry{
			Cache:      cache,
			Frames:     framesSvc,
			LocalFrame: cfg.LocalFrame,
			Now:        now,
		},
		DebugNoAuth: env_.Debug,
	}

	fmt.Println("Listening on", env_.Listen)
	if err := http.ListenAndServe(env_.Listen, router.Build()); err != nil {
		log.Fatal(err)
	}
}

// waitAndCheckVersion blocks (with the same 10 Hz cadence the rest of
// the bridge polls at) until the driver reports a protocol version,
// then checks it against constraint before the bridge starts serving
// commands.
func waitAndCheckVersion(ctx context.Context, driver fcu.Driver, constraint string) error {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	deadline := time.Now().Add(5 * time.Second)
	for {
		if v := driver.ProtocolVersion(); v != "" {
			return fcu.CheckVersion(v, constraint)
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("timed out waiting for FCU to report a protocol version")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
