package fcu

import (
	"context"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/skyward-robotics/offboard-bridge/internal/setpoint"
	"github.com/skyward-robotics/offboard-bridge/internal/telemetry"
)

// SimDriver is a physics-free simulated FCU: mode/armed live behind a
// mutex, and a background goroutine publishes telemetry at a fixed
// rate.
type SimDriver struct {
	mu      sync.Mutex
	mode    string
	armed   bool
	pose    telemetry.Pose
	version string

	stateOut  chan telemetry.State
	poseOut   chan telemetry.Pose
	velOut    chan telemetry.Velocity
	fixOut    chan telemetry.GlobalFix
	battOut   chan telemetry.Battery
	statusOut chan telemetry.StatusText

	rate time.Duration

	lastPose         setpoint.PoseMessage
	lastPoseChannel  setpoint.Channel
	lastPositionRaw  setpoint.PositionRawMessage
	lastAttitudeRaw  setpoint.AttitudeRawMessage
	lastThrust       setpoint.ThrustMessage
}

// NewSimDriver builds a simulated FCU parked at the origin in
// localFrame, reporting mode "POSCTL" and disarmed.
func NewSimDriver(localFrame, fcuFrame, version string, publishRate time.Duration) *SimDriver {
	state := make(chan telemetry.State, 1)
	pose := make(chan telemetry.Pose, 1)
	vel := make(chan telemetry.Velocity, 1)
	fix := make(chan telemetry.GlobalFix, 1)
	batt := make(chan telemetry.Battery, 1)
	status := make(chan telemetry.StatusText, 1)

	d := &SimDriver{
		mode:    "POSCTL",
		armed:   false,
		version: version,
		pose: telemetry.Pose{
			Frame:    localFrame,
			Rotation: mgl64.QuatIdent(),
		},
		rate:      publishRate,
		stateOut:  state,
		poseOut:   pose,
		velOut:    vel,
		fixOut:    fix,
		battOut:   batt,
		statusOut: status,
	}
	return d
}

func (d *SimDriver) ProtocolVersion() string { return d.version }

func (d *SimDriver) Telemetry() *Streams {
	return &Streams{
		State:      d.stateOut,
		LocalPose:  d.poseOut,
		Velocity:   d.velOut,
		GlobalFix:  d.fixOut,
		Battery:    d.battOut,
		StatusText: d.statusOut,
	}
}

// Arm accepts the request unconditionally and immediately, the way a
// simulator can afford to.
func (d *SimDriver) Arm(ctx context.Context, arm bool) error {
	d.mu.Lock()
	d.armed = arm
	d.mu.Unlock()
	return nil
}

// SetMode accepts any mode string unconditionally.
func (d *SimDriver) SetMode(ctx context.Context, mode string) error {
	d.mu.Lock()
	d.mode = mode
	d.mu.Unlock()
	return nil
}

// SetLocalPose lets a test or the dev shell move the simulated vehicle
// directly, bypassing any control loop — this driver has none.
func (d *SimDriver) SetLocalPose(p telemetry.Pose) {
	d.mu.Lock()
	d.pose = p
	d.mu.Unlock()
}

// PublishPose records the latest "position"/"attitude" setpoint and,
// for the position channel, drives the simulated vehicle straight to
// it — this driver has no control loop to converge over time.
func (d *SimDriver) PublishPose(ch setpoint.Channel, msg setpoint.PoseMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastPoseChannel = ch
	d.lastPose = msg
	if ch == setpoint.ChannelPosition {
		d.pose = telemetry.Pose{Frame: msg.Frame, Position: msg.Position, Rotation: msg.Rotation}
	}
}

// PublishPositionRaw records the latest "position-raw" setpoint and
// applies whichever position axes Mask leaves un-ignored to the
// simulated pose. Velocity, acceleration and yaw fields are recorded
// only.
func (d *SimDriver) PublishPositionRaw(msg setpoint.PositionRawMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastPositionRaw = msg
	if msg.Mask&setpoint.IgnorePX == 0 {
		d.pose.Position[0] = msg.Position[0]
	}
	if msg.Mask&setpoint.IgnorePY == 0 {
		d.pose.Position[1] = msg.Position[1]
	}
	if msg.Mask&setpoint.IgnorePZ == 0 {
		d.pose.Position[2] = msg.Position[2]
	}
	d.pose.Frame = msg.Frame
}

// PublishAttitudeRaw records the latest body-rate setpoint.
func (d *SimDriver) PublishAttitudeRaw(msg setpoint.AttitudeRawMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastAttitudeRaw = msg
}

// PublishThrust records the latest standalone thrust setpoint.
func (d *SimDriver) PublishThrust(msg setpoint.ThrustMessage) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastThrust = msg
}

// Run publishes state and local pose on a fixed schedule until ctx is
// canceled, standing in for mavros's own telemetry topics.
func (d *SimDriver) Run(ctx context.Context) {
	ticker := time.NewTicker(d.rate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.mu.Lock()
			state := telemetry.State{Connected: true, Armed: d.armed, Mode: d.mode}
			pose := d.pose
			d.mu.Unlock()

			select {
			case d.stateOut <- state:
			default:
			}
			select {
			case d.poseOut <- pose:
			default:
			}
		}
	}
}
