package fcu

import (
	"context"
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/skyward-robotics/offboard-bridge/internal/setpoint"
	"github.com/skyward-robotics/offboard-bridge/internal/telemetry"
)

// echoDriver writes SetMode/Arm straight back into the shared cache,
// the way a real FCU's own state topic would echo an accepted request.
type echoDriver struct {
	mu    sync.Mutex
	cache *telemetry.Cache
	now   func() time.Time
	state telemetry.State

	failMode bool
}

func (d *echoDriver) Arm(ctx context.Context, arm bool) error {
	d.mu.Lock()
	d.state.Armed = arm
	s := d.state
	d.mu.Unlock()
	d.cache.SetState(s, d.now())
	return nil
}

// SetMode is accepted but, when failMode is set, never actually takes
// effect — simulating an FCU stuck on a precondition (e.g. EKF not
// ready) that silently refuses the mode switch.
func (d *echoDriver) SetMode(ctx context.Context, mode string) error {
	d.mu.Lock()
	if d.failMode {
		d.mu.Unlock()
		return nil
	}
	d.state.Mode = mode
	s := d.state
	d.mu.Unlock()
	d.cache.SetState(s, d.now())
	return nil
}

func (d *echoDriver) ProtocolVersion() string { return "DEV" }
func (d *echoDriver) Telemetry() *Streams     { return &Streams{} }
func (d *echoDriver) PublishPose(setpoint.Channel, setpoint.PoseMessage)     {}
func (d *echoDriver) PublishPositionRaw(setpoint.PositionRawMessage)         {}
func (d *echoDriver) PublishAttitudeRaw(setpoint.AttitudeRawMessage)         {}
func (d *echoDriver) PublishThrust(setpoint.ThrustMessage)                   {}

func TestHandshakeOffboardAndArm(t *testing.T) {
	Convey("OffboardAndArm succeeds immediately when the FCU echoes both changes", t, func() {
		now := func() time.Time { return time.Unix(1, 0) }
		cache := telemetry.New(telemetry.Timeouts{State: time.Second})
		cache.SetState(telemetry.State{Connected: true, Mode: "POSCTL"}, now())
		driver := &echoDriver{cache: cache, now: now, state: telemetry.State{Connected: true, Mode: "POSCTL"}}

		h := &Handshake{Driver: driver, Cache: cache, Timeouts: Timeouts{Offboard: time.Second, Arming: time.Second}, Now: now}
		err := h.OffboardAndArm(context.Background())
		So(err, ShouldBeNil)

		state, _ := cache.StateFresh(now())
		So(state.Mode, ShouldEqual, "OFFBOARD")
		So(state.Armed, ShouldBeTrue)
	})

	Convey("OffboardAndArm skips the mode switch when already OFFBOARD", t, func() {
		now := func() time.Time { return time.Unix(1, 0) }
		cache := telemetry.New(telemetry.Timeouts{State: time.Second})
		cache.SetState(telemetry.State{Connected: true, Mode: "OFFBOARD", Armed: true}, now())
		driver := &echoDriver{cache: cache, now: now, state: telemetry.State{Connected: true, Mode: "OFFBOARD", Armed: true}}

		h := &Handshake{Driver: driver, Cache: cache, Timeouts: Timeouts{Offboard: time.Second, Arming: time.Second}, Now: now}
		So(h.OffboardAndArm(context.Background()), ShouldBeNil)
	})

	Convey("OffboardAndArm times out and augments the error with a status text", t, func() {
		start := time.Unix(1000, 0)
		nowT := start
		var mu sync.Mutex
		now := func() time.Time {
			mu.Lock()
			defer mu.Unlock()
			return nowT
		}

		cache := telemetry.New(telemetry.Timeouts{State: time.Hour})
		cache.SetState(telemetry.State{Connected: true, Mode: "POSCTL"}, now())
		cache.SetStatusText(telemetry.StatusText{Text: "PreArm: EKF not ready"}, now().Add(time.Millisecond))
		driver := &echoDriver{cache: cache, now: now, failMode: true}

		h := &Handshake{Driver: driver, Cache: cache, Timeouts: Timeouts{Offboard: 50 * time.Millisecond, Arming: time.Second}, Now: now}

		go func() {
			time.Sleep(20 * time.Millisecond)
			mu.Lock()
			nowT = start.Add(200 * time.Millisecond)
			mu.Unlock()
		}()

		err := h.OffboardAndArm(context.Background())
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "OFFBOARD timed out")
		So(err.Error(), ShouldContainSubstring, "PreArm: EKF not ready")
	})
}

func TestHandshakeLand(t *testing.T) {
	Convey("Land succeeds once the FCU reports AUTO.LAND", t, func() {
		now := func() time.Time { return time.Unix(1, 0) }
		cache := telemetry.New(telemetry.Timeouts{State: time.Second})
		cache.SetState(telemetry.State{Connected: true, Mode: "OFFBOARD"}, now())
		driver := &echoDriver{cache: cache, now: now, state: telemetry.State{Connected: true, Mode: "OFFBOARD"}}

		h := &Handshake{Driver: driver, Cache: cache, Timeouts: Timeouts{Land: time.Second}, Now: now}
		So(h.Land(context.Background()), ShouldBeNil)

		state, _ := cache.StateFresh(now())
		So(state.Mode, ShouldEqual, "AUTO.LAND")
	})
}
