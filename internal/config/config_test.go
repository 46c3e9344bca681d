package config

import (
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v2"
)

const testYaml = `
local_frame: map
fcu_frame: base_link
reference_frames:
  camera: base_link
static_transforms:
- from: gimbal
  to: base_link
  translation: [0.1, 0, -0.05]
  yaw_deg: 90
default_speed: 1.5
timeouts:
  state: 5
`

func TestBridgeConfigParsing(t *testing.T) {
	var config BridgeConfig

	Convey("parsing is successful", t, func() {
		err := yaml.Unmarshal([]byte(testYaml), &config)
		So(err, ShouldBeNil)

		Convey("scalar fields are set", func() {
			So(config.LocalFrame, ShouldEqual, "map")
			So(config.FCUFrame, ShouldEqual, "base_link")
			So(config.DefaultSpeed, ShouldEqual, 1.5)
		})

		Convey("reference frame aliases are set", func() {
			So(config.ReferenceFrames["camera"], ShouldEqual, "base_link")
		})

		Convey("static transform translation decodes into a Vec3", func() {
			st := config.StaticTransforms[0]
			So(st.From, ShouldEqual, "gimbal")
			So(st.Translation, ShouldResemble, mgl64.Vec3{0.1, 0, -0.05})
			So(st.YawRadians, ShouldAlmostEqual, mgl64.DegToRad(90))
		})

		Convey("defaults fill in everything left unset", func() {
			config.ApplyDefaults()
			So(config.TargetFrame, ShouldEqual, "navigate_target")
			So(config.BodyFrame, ShouldEqual, "body")
			So(config.SetpointRateHz, ShouldEqual, float64(30))
			So(config.Timeouts.State().Seconds(), ShouldEqual, 5)
			So(config.Timeouts.Arming().Seconds(), ShouldEqual, 4)
		})
	})
}

func TestSetpointRate(t *testing.T) {
	Convey("30Hz default yields a ~33ms tick period", t, func() {
		var c BridgeConfig
		c.ApplyDefaults()
		So(c.SetpointRate().Milliseconds(), ShouldEqual, 33)
	})
}
