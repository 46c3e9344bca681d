package service

import (
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/skyward-robotics/offboard-bridge/internal/frames"
	"github.com/skyward-robotics/offboard-bridge/internal/telemetry"
)

func TestTelemetryGet(t *testing.T) {
	now := func() time.Time { return time.Unix(3000, 0) }

	g := frames.NewGraph()
	svc := frames.NewService(g)
	cache := telemetry.New(telemetry.Timeouts{
		State: time.Second, LocalPosition: time.Second, Velocity: time.Second,
		GlobalPosition: time.Second, Battery: time.Second,
	})

	tel := &Telemetry{Cache: cache, Frames: svc, LocalFrame: "map", Now: now}

	Convey("an empty cache reports NaN for every numeric field", t, func() {
		snap := tel.Get("")
		So(snap.X.IsNaN(), ShouldBeTrue)
		So(snap.Lat.IsNaN(), ShouldBeTrue)
		So(snap.BatteryVoltage.IsNaN(), ShouldBeTrue)
		So(snap.Connected, ShouldBeFalse)
		So(snap.FrameID, ShouldEqual, "map")
	})

	Convey("a fresh local pose fills position and orientation", t, func() {
		cache.SetLocalPose(telemetry.Pose{Frame: "map", Position: mgl64.Vec3{1, 2, 3}, Rotation: mgl64.QuatIdent()}, now())
		snap := tel.Get("")
		So(float64(snap.X), ShouldEqual, 1)
		So(float64(snap.Y), ShouldEqual, 2)
		So(float64(snap.Z), ShouldEqual, 3)
	})

	Convey("a stale local pose falls back to NaN", t, func() {
		cache.SetLocalPose(telemetry.Pose{Frame: "map", Position: mgl64.Vec3{1, 2, 3}}, now().Add(-10*time.Second))
		snap := tel.Get("")
		So(snap.X.IsNaN(), ShouldBeTrue)
	})

	Convey("state and battery fields pass through when fresh", t, func() {
		cache.SetState(telemetry.State{Connected: true, Armed: true, Mode: "OFFBOARD"}, now())
		cache.SetBattery(telemetry.Battery{Voltage: 15.8, CellVoltages: []float64{3.95, 3.96, 3.94, 3.95}}, now())
		snap := tel.Get("")
		So(snap.Connected, ShouldBeTrue)
		So(snap.Mode, ShouldEqual, "OFFBOARD")
		So(float64(snap.BatteryVoltage), ShouldEqual, 15.8)
		So(float64(snap.CellVoltage), ShouldEqual, 3.95)
	})

	Convey("an explicit frame_id is echoed back in the response", t, func() {
		snap := tel.Get("odom")
		So(snap.FrameID, ShouldEqual, "odom")
	})
}
