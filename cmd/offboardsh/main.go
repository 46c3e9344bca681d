// Command offboardsh is an interactive operator shell (github.com/
// abiosoft/ishell) for exercising the bridge against a simulated FCU:
// navigate, set_position, land and get_telemetry (FCU state only),
// plus createsuperuser for provisioning an operator account.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/abiosoft/ishell"
	"github.com/asdine/storm/v3"

	"github.com/skyward-robotics/offboard-bridge/internal/auth"
	"github.com/skyward-robotics/offboard-bridge/internal/command"
	"github.com/skyward-robotics/offboard-bridge/internal/config"
	"github.com/skyward-robotics/offboard-bridge/internal/fcu"
	"github.com/skyward-robotics/offboard-bridge/internal/frames"
	"github.com/skyward-robotics/offboard-bridge/internal/logging"
	"github.com/skyward-robotics/offboard-bridge/internal/setpoint"
	"github.com/skyward-robotics/offboard-bridge/internal/telemetry"
)

func atof(s string) float64 {
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

func main() {
	dbPath := flag.String("db", "./tmp/offboardsh.db", "operator DB path")
	flag.Parse()

	dir := filepath.Dir(*dbPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		os.MkdirAll(dir, 0755)
	}
	db, err := storm.Open(*dbPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	var cfg config.BridgeConfig
	cfg.ApplyDefaults()

	now := time.Now
	graph := frames.NewGraph()
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

	sim := fcu.NewSimDriver(cfg.LocalFrame, cfg.FCUFrame, "1.0.0", cfg.SetpointRate())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go sim.Run(ctx)
	go fcu.Pump(ctx, sim.Telemetry(), cache, now)

	engine := &setpoint.Engine{
		Frames:        framesSvc,
		Broadcaster:   broadcaster,
		Publisher:     sim,
		Logger:        &logging.Throttled{Interval: time.Second},
		LocalFrame:    cfg.LocalFrame,
		FCUFrame:      cfg.FCUFrame,
		TickTolerance: 50 * time.Millisecond,
		StaleAfter:    200 * time.Millisecond,
	}

	handshake := &fcu.Handshake{
		Driver: sim,
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

	shell := ishell.New()
	shell.Println("Offboard bridge development shell (simulated FCU)")
	shell.ShowPrompt(true)

	shell.AddCmd(&ishell.Cmd{
		Name: "createsuperuser",
		Help: "createsuperuser <email> <password>",
		Func: func(c *ishell.Context) {
			c.ShowPrompt(false)
			defer c.ShowPrompt(true)

			var email string
			if len(c.Args) >= 1 {
				email = c.Args[0]
			} else {
				c.Print("Email: ")
				email = c.ReadLine()
			}
			var password string
			if len(c.Args) >= 2 {
				password = c.Args[1]
			} else {
				c.Print("Password: ")
				password = c.ReadPassword()
			}

			user := &auth.User{Email: email, Name: email, Admin: true}
			user.SetPassword([]byte(password))
			if err := db.Save(user); err != nil {
				c.Err(err)
				return
			}
			c.Println("Superuser created")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "navigate",
		Help: "navigate <x> <y> <z> <speed> [auto_arm]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 4 {
				c.Err(fmt.Errorf("usage: navigate <x> <y> <z> <speed> [auto_arm]"))
				return
			}
			autoArm := len(c.Args) >= 5 && c.Args[4] == "true"
			ok, msg := validator.Validate(context.Background(), command.Request{
				Kind: command.KindNavigate,
				X:    atof(c.Args[0]), Y: atof(c.Args[1]), Z: atof(c.Args[2]),
				Yaw: math.Inf(1), Speed: atof(c.Args[3]),
				FrameID: cfg.LocalFrame, AutoArm: autoArm,
			})
			c.Printf("success=%v message=%q\n", ok, msg)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "set_position",
		Help: "set_position <x> <y> <z> <yaw> [auto_arm]",
		Func: func(c *ishell.Context) {
			if len(c.Args) < 4 {
				c.Err(fmt.Errorf("usage: set_position <x> <y> <z> <yaw> [auto_arm]"))
				return
			}
			autoArm := len(c.Args) >= 5 && c.Args[4] == "true"
			ok, msg := validator.Validate(context.Background(), command.Request{
				Kind: command.KindPosition,
				X:    atof(c.Args[0]), Y: atof(c.Args[1]), Z: atof(c.Args[2]),
				Yaw: atof(c.Args[3]), YawRate: math.NaN(),
				FrameID: cfg.LocalFrame, AutoArm: autoArm,
			})
			c.Printf("success=%v message=%q\n", ok, msg)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "land",
		Help: "land",
		Func: func(c *ishell.Context) {
			ok, msg := validator.Land(context.Background(), cfg.LandOnlyInOffboard)
			c.Printf("success=%v message=%q\n", ok, msg)
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "get_telemetry",
		Help: "get_telemetry",
		Func: func(c *ishell.Context) {
			state, ok := cache.StateFresh(now())
			c.Printf("fresh=%v connected=%v armed=%v mode=%s\n", ok, state.Connected, state.Armed, state.Mode)
		},
	})

	shell.Run()
}
