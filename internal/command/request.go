package command

// Kind is which of the six command services (or land, handled
// separately in fcu.Handshake.Land) produced this Request.
type Kind int

const (
	KindNavigate Kind = iota
	KindNavigateGlobal
	KindPosition
	KindVelocity
	KindAttitude
	KindRates
)

// Request is the tagged command record: a mode plus every field any
// command kind might need, frame_id, and auto_arm. Each command
// service (internal/service) fills only the fields relevant to its
// Kind and leaves the rest zero.
type Request struct {
	Kind Kind

	X, Y, Z float64
	Lat, Lon float64 // navigate_global only

	VX, VY, VZ float64 // velocity only

	Roll, Pitch float64 // attitude only
	RollRate, PitchRate float64 // rates only

	Yaw     float64 // NaN => use YawRate; +Inf => TOWARDS; else absolute radians
	YawRate float64

	Thrust float64 // attitude, rates

	Speed float64 // navigate, navigate_global

	FrameID string
	AutoArm bool
}
