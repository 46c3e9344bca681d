// Package fcu is the boundary around the FCU driver that owns the
// arming/mode services and consumes setpoints — an external
// collaborator this bridge only talks to through a narrow interface.
// Driver is that interface; SimDriver is a self-contained stand-in
// used by the dev shell and by tests.
package fcu

import (
	"context"
	"time"

	"github.com/skyward-robotics/offboard-bridge/internal/setpoint"
	"github.com/skyward-robotics/offboard-bridge/internal/telemetry"
)

// Driver is everything this bridge needs from the FCU side: the two
// services (arming, set_mode), a reported protocol version for the
// startup compatibility check, the six inbound telemetry streams, and
// the outbound setpoint channels (setpoint.Publisher) the engine's
// tick emits on — the same node handles both directions, as mavros
// itself does.
type Driver interface {
	Arm(ctx context.Context, arm bool) error
	SetMode(ctx context.Context, mode string) error
	ProtocolVersion() string
	Telemetry() *Streams
	setpoint.Publisher
}

// Streams bundles the six inbound telemetry channels: FCU state, local
// pose, velocity, global fix, battery, status text. A wiring goroutine
// drains these into a telemetry.Cache.
type Streams struct {
	State      <-chan telemetry.State
	LocalPose  <-chan telemetry.Pose
	Velocity   <-chan telemetry.Velocity
	GlobalFix  <-chan telemetry.GlobalFix
	Battery    <-chan telemetry.Battery
	StatusText <-chan telemetry.StatusText
}

// Pump drains a Driver's Streams into cache until ctx is canceled. This
// is the only place telemetry.Cache is written from outside the bridge
// itself.
func Pump(ctx context.Context, streams *Streams, cache *telemetry.Cache, now func() time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case v := <-streams.State:
			cache.SetState(v, now())
		case v := <-streams.LocalPose:
			cache.SetLocalPose(v, now())
		case v := <-streams.Velocity:
			cache.SetVelocity(v, now())
		case v := <-streams.GlobalFix:
			cache.SetGlobalFix(v, now())
		case v := <-streams.Battery:
			cache.SetBattery(v, now())
		case v := <-streams.StatusText:
			cache.SetStatusText(v, now())
		}
	}
}
