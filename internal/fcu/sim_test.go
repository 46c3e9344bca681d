package fcu

import (
	"context"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/skyward-robotics/offboard-bridge/internal/setpoint"
	"github.com/skyward-robotics/offboard-bridge/internal/telemetry"
)

func TestSimDriverArmAndMode(t *testing.T) {
	Convey("Arm and SetMode accept unconditionally", t, func() {
		d := NewSimDriver("map", "base_link", "DEV", time.Second)
		So(d.Arm(context.Background(), true), ShouldBeNil)
		So(d.SetMode(context.Background(), "OFFBOARD"), ShouldBeNil)
		So(d.armed, ShouldBeTrue)
		So(d.mode, ShouldEqual, "OFFBOARD")
	})
}

func TestSimDriverPublishPoseDrivesSimulatedPose(t *testing.T) {
	Convey("PublishPose on the position channel snaps the simulated pose to the setpoint", t, func() {
		d := NewSimDriver("map", "base_link", "DEV", time.Second)
		d.PublishPose(setpoint.ChannelPosition, setpoint.PoseMessage{
			Frame: "map", Position: mgl64.Vec3{1, 2, 3}, Rotation: mgl64.QuatIdent(),
		})
		So(d.pose.Position, ShouldResemble, mgl64.Vec3{1, 2, 3})
	})

	Convey("PublishPose on the attitude channel leaves position untouched", t, func() {
		d := NewSimDriver("map", "base_link", "DEV", time.Second)
		d.SetLocalPose(telemetry.Pose{Frame: "map", Position: mgl64.Vec3{9, 9, 9}, Rotation: mgl64.QuatIdent()})
		d.PublishPose(setpoint.ChannelAttitude, setpoint.PoseMessage{
			Frame: "map", Position: mgl64.Vec3{1, 2, 3}, Rotation: mgl64.QuatIdent(),
		})
		So(d.pose.Position, ShouldResemble, mgl64.Vec3{9, 9, 9})
	})
}

func TestSimDriverPublishPositionRawRespectsMask(t *testing.T) {
	Convey("masked axes are left untouched, unmasked axes are applied", t, func() {
		d := NewSimDriver("map", "base_link", "DEV", time.Second)
		d.SetLocalPose(telemetry.Pose{Frame: "map", Position: mgl64.Vec3{1, 1, 1}, Rotation: mgl64.QuatIdent()})

		d.PublishPositionRaw(setpoint.PositionRawMessage{
			Frame:    "map",
			Position: mgl64.Vec3{5, 5, 5},
			Mask:     setpoint.IgnorePY,
		})

		So(d.pose.Position[0], ShouldEqual, 5)
		So(d.pose.Position[1], ShouldEqual, 1)
		So(d.pose.Position[2], ShouldEqual, 5)
	})
}

func TestSimDriverRunPublishesState(t *testing.T) {
	Convey("Run periodically publishes state and pose until canceled", t, func() {
		d := NewSimDriver("map", "base_link", "DEV", 10*time.Millisecond)
		streams := d.Telemetry()

		ctx, cancel := context.WithCancel(context.Background())
		go d.Run(ctx)
		defer cancel()

		select {
		case s := <-streams.State:
			So(s.Connected, ShouldBeTrue)
		case <-time.After(200 * time.Millisecond):
			t.Fatal("timed out waiting for simulated state")
		}

		select {
		case p := <-streams.LocalPose:
			So(p.Frame, ShouldEqual, "map")
		case <-time.After(200 * time.Millisecond):
			t.Fatal("timed out waiting for simulated pose")
		}
	})
}
