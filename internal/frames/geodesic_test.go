package frames

import (
	"math"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/skyward-robotics/offboard-bridge/internal/telemetry"
)

func TestGeodesicGlobalToLocal(t *testing.T) {
	Convey("a target north of the fix offsets the vehicle's local position northward", t, func() {
		g := &Geodesic{LocalFrame: "map"}
		vehicle := mgl64.Vec3{10, 20, 0}

		p := g.GlobalToLocal(55.75, 37.62, 55.751, 37.62, vehicle)

		So(p.Position[1], ShouldBeGreaterThan, vehicle[1])
		So(p.Position[0], ShouldAlmostEqual, vehicle[0], 0.5)
		So(p.Rotation, ShouldResemble, mgl64.QuatIdent())
	})

	Convey("the same fix as the target leaves the vehicle's position unchanged", t, func() {
		g := &Geodesic{LocalFrame: "map"}
		vehicle := mgl64.Vec3{3, 4, 0}
		p := g.GlobalToLocal(55.75, 37.62, 55.75, 37.62, vehicle)
		So(p.Position[0], ShouldAlmostEqual, vehicle[0], 1e-6)
		So(p.Position[1], ShouldAlmostEqual, vehicle[1], 1e-6)
	})
}

func TestBroadcasterOnLocalPose(t *testing.T) {
	Convey("OnLocalPose republishes body_frame with a yaw-only rotation", t, func() {
		g := NewGraph()
		b := NewBroadcaster(g, "map", "body_frame", "target_frame", 50*time.Millisecond)

		now := time.Unix(500, 0)
		full := mgl64.AnglesToQuat(0.3, 0.2, 0.1, mgl64.ZYX)
		b.OnLocalPose(telemetry.Pose{Frame: "map", Position: mgl64.Vec3{1, 2, 3}, Rotation: full}, now)

		p, err := g.Resolve("map", "body_frame", now)
		So(err, ShouldBeNil)
		So(p.Position, ShouldResemble, mgl64.Vec3{1, 2, 3})

		yaw, pitch, roll := YawPitchRoll(p.Rotation)
		wantYaw, _, _ := YawPitchRoll(full)
		So(yaw, ShouldAlmostEqual, wantYaw, 1e-9)
		So(pitch, ShouldAlmostEqual, 0, 1e-9)
		So(roll, ShouldAlmostEqual, 0, 1e-9)
	})

	Convey("an empty body frame name disables the broadcast", t, func() {
		g := NewGraph()
		b := NewBroadcaster(g, "map", "", "target_frame", 50*time.Millisecond)
		b.OnLocalPose(telemetry.Pose{Frame: "map", Rotation: mgl64.QuatIdent()}, time.Unix(0, 0))
		So(g.CanTransform("map", "body_frame", time.Unix(0, 0)), ShouldBeFalse)
	})

	Convey("PublishTarget republishes target_frame at the given pose", t, func() {
		g := NewGraph()
		b := NewBroadcaster(g, "map", "body_frame", "target_frame", 50*time.Millisecond)
		now := time.Unix(700, 0)
		b.PublishTarget(Pose{Position: mgl64.Vec3{5, 6, 7}, Rotation: mgl64.QuatIdent()}, now)

		p, err := g.Resolve("map", "target_frame", now)
		So(err, ShouldBeNil)
		So(p.Position, ShouldResemble, mgl64.Vec3{5, 6, 7})
	})
}

func TestYawPitchRollRoundTrip(t *testing.T) {
	Convey("YawOnly followed by YawPitchRoll recovers the same yaw", t, func() {
		for _, yaw := range []float64{0, 0.5, -1.2, math.Pi / 2} {
			q := YawOnly(yaw)
			got, pitch, roll := YawPitchRoll(q)
			So(got, ShouldAlmostEqual, yaw, 1e-9)
			So(pitch, ShouldAlmostEqual, 0, 1e-9)
			So(roll, ShouldAlmostEqual, 0, 1e-9)
		}
	})
}
