package setpoint

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/skyward-robotics/offboard-bridge/internal/frames"
	"github.com/skyward-robotics/offboard-bridge/internal/logging"
)

type recordingPublisher struct {
	poseChannel Channel
	pose        PoseMessage
	positionRaw PositionRawMessage
	attitudeRaw AttitudeRawMessage
	thrust      ThrustMessage

	poseCalls, positionRawCalls, attitudeRawCalls, thrustCalls int
}

func (r *recordingPublisher) PublishPose(ch Channel, msg PoseMessage) {
	r.poseChannel, r.pose = ch, msg
	r.poseCalls++
}
func (r *recordingPublisher) PublishPositionRaw(msg PositionRawMessage) {
	r.positionRaw = msg
	r.positionRawCalls++
}
func (r *recordingPublisher) PublishAttitudeRaw(msg AttitudeRawMessage) {
	r.attitudeRaw = msg
	r.attitudeRawCalls++
}
func (r *recordingPublisher) PublishThrust(msg ThrustMessage) {
	r.thrust = msg
	r.thrustCalls++
}

func newTestEngine() (*Engine, *recordingPublisher) {
	g := frames.NewGraph()
	svc := frames.NewService(g)
	pub := &recordingPublisher{}
	e := &Engine{
		Frames:        svc,
		Broadcaster:   frames.NewBroadcaster(g, "map", "", "navigate_target", 50*time.Millisecond),
		Publisher:     pub,
		Logger:        &logging.Throttled{Interval: time.Second},
		LocalFrame:    "map",
		FCUFrame:      "base_link",
		TickTolerance: 50 * time.Millisecond,
		StaleAfter:    200 * time.Millisecond,
	}
	return e, pub
}

func TestEngineTickChannelSelection(t *testing.T) {
	now := time.Unix(0, 0)

	Convey("position mode with absolute yaw publishes on the position channel", t, func() {
		e, pub := newTestEngine()
		e.Commit(State{
			Mode: ModePosition, YawPolicy: YawAbsolute,
			SetpointPosition: mgl64.Vec3{1, 2, 3}, SetpointOrientation: mgl64.QuatIdent(),
			SetpointPositionFrame: "map",
		})
		e.Tick(now)
		So(pub.poseCalls, ShouldEqual, 1)
		So(pub.poseChannel, ShouldEqual, ChannelPosition)
		So(pub.positionRawCalls, ShouldEqual, 0)
	})

	Convey("position mode with yaw_rate publishes on position-raw with yaw ignored", t, func() {
		e, pub := newTestEngine()
		e.Commit(State{
			Mode: ModePosition, YawPolicy: YawRate, YawRate: 0.5,
			SetpointPosition: mgl64.Vec3{1, 2, 3}, SetpointOrientation: mgl64.QuatIdent(),
			SetpointPositionFrame: "map",
		})
		e.Tick(now)
		So(pub.positionRawCalls, ShouldEqual, 1)
		So(pub.positionRaw.Mask&IgnoreYaw, ShouldNotEqual, 0)
		So(pub.positionRaw.YawRate, ShouldEqual, 0.5)
	})

	Convey("velocity mode always publishes position-raw", t, func() {
		e, pub := newTestEngine()
		e.Commit(State{
			Mode: ModeVelocity, YawPolicy: YawAbsolute,
			SetpointPosition: mgl64.Vec3{0, 0, 0}, SetpointOrientation: mgl64.QuatIdent(),
			SetpointPositionFrame: "map",
			SetpointVelocity:      mgl64.Vec3{1, 0, 0},
			SetpointVelocityFrame: "map",
		})
		e.Tick(now)
		So(pub.positionRawCalls, ShouldEqual, 1)
		So(pub.positionRaw.Mask&IgnorePX, ShouldNotEqual, 0)
		So(pub.positionRaw.Mask&IgnoreYawRate, ShouldNotEqual, 0)
	})

	Convey("attitude mode publishes a pose plus a thrust message", t, func() {
		e, pub := newTestEngine()
		e.Commit(State{
			Mode: ModeAttitude, YawPolicy: YawAbsolute,
			SetpointPosition: mgl64.Vec3{}, SetpointOrientation: mgl64.QuatIdent(),
			SetpointPositionFrame: "map", Thrust: 0.6,
		})
		e.Tick(now)
		So(pub.poseCalls, ShouldEqual, 1)
		So(pub.poseChannel, ShouldEqual, ChannelAttitude)
		So(pub.thrustCalls, ShouldEqual, 1)
		So(pub.thrust.Thrust, ShouldEqual, 0.6)
	})

	Convey("rates mode publishes attitude-raw with attitude ignored", t, func() {
		e, pub := newTestEngine()
		e.Commit(State{Mode: ModeRates, Rates: mgl64.Vec3{0.1, 0.2, 0.3}, Thrust: 0.7})
		e.Tick(now)
		So(pub.attitudeRawCalls, ShouldEqual, 1)
		So(pub.attitudeRaw.Mask, ShouldEqual, IgnoreAttitude)
		So(pub.attitudeRaw.Thrust, ShouldEqual, 0.7)
	})

	Convey("none mode publishes nothing", t, func() {
		e, pub := newTestEngine()
		e.Tick(now)
		So(pub.poseCalls+pub.positionRawCalls+pub.attitudeRawCalls+pub.thrustCalls, ShouldEqual, 0)
	})
}

func TestEngineNavigateInterpolation(t *testing.T) {
	start := time.Unix(0, 0)

	Convey("navigate interpolates position monotonically from 0 to 1", t, func() {
		e, pub := newTestEngine()
		e.Commit(State{
			Mode: ModeNavigate, YawPolicy: YawAbsolute,
			SetpointPosition: mgl64.Vec3{10, 0, 0}, SetpointOrientation: mgl64.QuatIdent(),
			SetpointPositionFrame: "map",
			NavStartPosition:      mgl64.Vec3{0, 0, 0},
			NavStartStamp:         start,
			NavSpeed:              1.0, // 10m at 1m/s => 10s total
		})

		e.Tick(start)
		So(pub.pose.Position[0], ShouldAlmostEqual, 0)

		e.Tick(start.Add(5 * time.Second))
		So(pub.pose.Position[0], ShouldAlmostEqual, 5, 0.001)

		e.Tick(start.Add(20 * time.Second))
		So(pub.pose.Position[0], ShouldAlmostEqual, 10, 0.001)
	})

	Convey("wait_armed holds the interpolation at nav_start until cleared", t, func() {
		e, pub := newTestEngine()
		e.Commit(State{
			Mode: ModeNavigate, YawPolicy: YawAbsolute, WaitArmed: true,
			SetpointPosition: mgl64.Vec3{10, 0, 0}, SetpointOrientation: mgl64.QuatIdent(),
			SetpointPositionFrame: "map",
			NavStartPosition:      mgl64.Vec3{0, 0, 0},
			NavSpeed:              1.0,
		})

		// While wait_armed holds, nav_start slides with "now" every tick,
		// so the interpolation fraction never advances off zero.
		e.Tick(start.Add(5 * time.Second))
		So(pub.pose.Position[0], ShouldAlmostEqual, 0)

		e.Tick(start.Add(10 * time.Second))
		So(pub.pose.Position[0], ShouldAlmostEqual, 0)

		// Clearing wait_armed freezes nav_start at the last slide (10s);
		// interpolation then advances from there.
		e.SetWaitArmed(false)
		e.Tick(start.Add(15 * time.Second))
		So(pub.pose.Position[0], ShouldAlmostEqual, 5, 0.001)

		e.Tick(start.Add(20 * time.Second))
		So(pub.pose.Position[0], ShouldAlmostEqual, 10, 0.001)
	})

	Convey("towards yaw policy faces the direction of travel", t, func() {
		e, pub := newTestEngine()
		e.Commit(State{
			Mode: ModeNavigate, YawPolicy: YawTowards,
			SetpointPosition: mgl64.Vec3{0, 10, 0}, SetpointOrientation: mgl64.QuatIdent(),
			SetpointPositionFrame: "map",
			NavStartPosition:      mgl64.Vec3{0, 0, 0},
			NavStartStamp:         start,
			NavSpeed:              1.0,
		})
		e.Tick(start.Add(5 * time.Second))
		yaw, _, _ := frames.YawPitchRoll(pub.pose.Rotation)
		So(yaw, ShouldAlmostEqual, math.Pi/2, 0.01)
	})
}

func TestEngineBusy(t *testing.T) {
	Convey("TryBegin serializes command acceptance", t, func() {
		e, _ := newTestEngine()
		So(e.TryBegin(), ShouldBeTrue)
		So(e.TryBegin(), ShouldBeFalse)
		e.EndCommand()
		So(e.TryBegin(), ShouldBeTrue)
	})
}
