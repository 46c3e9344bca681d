package setpoint

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Mode is one of the seven mutually exclusive setpoint modes. The zero
// value is ModeNone: no active command.
type Mode int

const (
	ModeNone Mode = iota
	ModeNavigate
	ModeNavigateGlobal
	ModePosition
	ModeVelocity
	ModeAttitude
	ModeRates
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "NONE"
	case ModeNavigate:
		return "NAVIGATE"
	case ModeNavigateGlobal:
		return "NAVIGATE_GLOBAL"
	case ModePosition:
		return "POSITION"
	case ModeVelocity:
		return "VELOCITY"
	case ModeAttitude:
		return "ATTITUDE"
	case ModeRates:
		return "RATES"
	default:
		return "UNKNOWN"
	}
}

// IsNavigate reports whether m is one of the two navigate modes.
func (m Mode) IsNavigate() bool { return m == ModeNavigate || m == ModeNavigateGlobal }

// HasPositionalComponent reports whether m carries a positional
// setpoint that must be re-transformed each tick.
func (m Mode) HasPositionalComponent() bool {
	switch m {
	case ModeNavigate, ModeNavigateGlobal, ModePosition, ModeVelocity, ModeAttitude:
		return true
	default:
		return false
	}
}

// BroadcastsTarget reports whether m broadcasts target_frame.
func (m Mode) BroadcastsTarget() bool {
	return m == ModeNavigate || m == ModeNavigateGlobal || m == ModePosition
}

// YawPolicy is the decoded, tagged form of the wire-level NaN/+Inf
// sentinels: Absolute (YAW), Rate (YAW_RATE), or Towards.
type YawPolicy int

const (
	YawAbsolute YawPolicy = iota
	YawRate
	YawTowards
)

// DecodeYaw implements the wire sentinel convention: NaN means "use
// yaw_rate", +Inf means "face the navigation target", any other finite
// value is an absolute yaw in radians.
func DecodeYaw(yaw, yawRate float64) (policy YawPolicy, absolute, rate float64) {
	switch {
	case isNaN(yaw):
		return YawRate, 0, yawRate
	case isPosInf(yaw):
		return YawTowards, 0, 0
	default:
		return YawAbsolute, yaw, 0
	}
}

func isNaN(f float64) bool    { return f != f }
func isPosInf(f float64) bool { return f > maxFloat }

const maxFloat = 1.7976931348623157e+308

// State is the engine's mutable core. It is only ever replaced
// wholesale by the validator (command.Validate) while the tick briefly
// holds the same lock, or read (and, for the wait_armed nav_start
// slide, minimally mutated) by the tick itself.
type State struct {
	Mode Mode

	YawPolicy YawPolicy
	YawRate   float64 // valid iff YawPolicy == YawRate

	// SetpointPosition is stamped in ReferenceFrame; it carries target
	// yaw (via Rotation) for attitude too.
	SetpointPosition      mgl64.Vec3
	SetpointOrientation   mgl64.Quat
	SetpointPositionFrame string
	SetpointPositionStamp time.Time

	SetpointVelocity      mgl64.Vec3
	SetpointVelocityFrame string
	SetpointVelocityStamp time.Time

	Thrust float64
	Rates  mgl64.Vec3 // roll, pitch, yaw rates, body frame

	// NavStart/NavSpeed are only meaningful when Mode.IsNavigate().
	NavStartPosition mgl64.Vec3
	NavStartStamp    time.Time
	NavSpeed         float64

	// WaitArmed holds the navigate interpolation at fraction 0 until
	// the arming handshake completes.
	WaitArmed bool

	// Busy is not read or written by Engine; command acceptance across
	// all six command services and land is serialized by
	// Engine.TryBegin/EndCommand instead.
	Busy bool
}
