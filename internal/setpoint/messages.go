package setpoint

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Ignore-mask bits for PositionRawMessage.Mask, mirroring
// mavros_msgs/PositionTarget.
const (
	IgnorePX      uint16 = 1 << 0
	IgnorePY      uint16 = 1 << 1
	IgnorePZ      uint16 = 1 << 2
	IgnoreVX      uint16 = 1 << 3
	IgnoreVY      uint16 = 1 << 4
	IgnoreVZ      uint16 = 1 << 5
	IgnoreAFX     uint16 = 1 << 6
	IgnoreAFY     uint16 = 1 << 7
	IgnoreAFZ     uint16 = 1 << 8
	IgnoreYaw     uint16 = 1 << 10
	IgnoreYawRate uint16 = 1 << 11
)

// FrameLocalNED matches PositionTarget.FRAME_LOCAL_NED, the mandated
// coordinate_frame for position-raw.
const FrameLocalNED uint8 = 1

// IgnoreAttitude matches AttitudeTarget.IGNORE_ATTITUDE, the mandated
// mask for attitude-raw.
const IgnoreAttitude uint8 = 1 << 7

// Channel names one of the five outbound setpoint channels.
type Channel string

const (
	ChannelPosition    Channel = "position"
	ChannelPositionRaw Channel = "position-raw"
	ChannelAttitude    Channel = "attitude"
	ChannelAttitudeRaw Channel = "attitude-raw"
	ChannelThrust      Channel = "thrust"
)

// PoseMessage is the wire shape for the "position" and "attitude"
// channels: a stamped pose in a named frame.
type PoseMessage struct {
	Stamp     time.Time
	Frame     string
	Position  mgl64.Vec3
	Rotation  mgl64.Quat
}

// PositionRawMessage is the wire shape for "position-raw": position,
// velocity, acceleration, yaw and yaw-rate fields, gated by Mask.
type PositionRawMessage struct {
	Stamp          time.Time
	Frame          string
	CoordinateFrame uint8
	Mask           uint16
	Position       mgl64.Vec3
	Velocity       mgl64.Vec3
	Acceleration   mgl64.Vec3
	Yaw            float64
	YawRate        float64
}

// AttitudeRawMessage is the wire shape for "attitude-raw": body rates
// plus thrust, gated by Mask (always IgnoreAttitude here).
type AttitudeRawMessage struct {
	Stamp     time.Time
	Frame     string
	Mask      uint8
	BodyRate  mgl64.Vec3 // roll, pitch, yaw rates
	Thrust    float64
}

// ThrustMessage is the wire shape for the standalone "thrust" channel.
type ThrustMessage struct {
	Stamp  time.Time
	Thrust float64
}

// Publisher is where the engine's tick emits exactly one message per
// call. In production this fans out to the FCU driver; in tests it is
// a recorder.
type Publisher interface {
	PublishPose(ch Channel, msg PoseMessage)
	PublishPositionRaw(msg PositionRawMessage)
	PublishAttitudeRaw(msg AttitudeRawMessage)
	PublishThrust(msg ThrustMessage)
}
