// Package setpoint implements the state machine and periodic publisher
// that turns one active command into the continuous stream of
// messages an FCU needs while in OFFBOARD mode.
package setpoint

import (
	"math"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/skyward-robotics/offboard-bridge/internal/frames"
	"github.com/skyward-robotics/offboard-bridge/internal/logging"
)

// Engine holds the active setpoint mode and its prepared payload and
// drives the periodic tick.
type Engine struct {
	mu    sync.Mutex
	state State
	busy  bool

	Frames      *frames.Service
	Broadcaster *frames.Broadcaster
	Publisher   Publisher
	Logger      *logging.Throttled

	LocalFrame string
	FCUFrame   string

	// TickTolerance is not consulted by Tick: how far from "now" a
	// dynamic edge may be and still resolve is set by that edge's own
	// Publish tolerance (see frames.NewPublish).
	TickTolerance time.Duration

	// StaleAfter is how long the tick keeps publishing a previously
	// good transformed value after re-transforms start failing before
	// it gives up entirely.
	StaleAfter time.Duration

	lastGoodPos   frames.Pose
	lastGoodPosOK bool
	lastGoodPosAt time.Time

	lastGoodVel   mgl64.Vec3
	lastGoodVelOK bool
	lastGoodVelAt time.Time

	ticker  *time.Ticker
	stop    chan struct{}
	running bool
}

// TryBegin atomically checks and sets Busy, returning false if a
// command is already in flight.
func (e *Engine) TryBegin() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.busy {
		return false
	}
	e.busy = true
	return true
}

// EndCommand clears Busy.
func (e *Engine) EndCommand() {
	e.mu.Lock()
	e.busy = false
	e.mu.Unlock()
}

// Snapshot returns a copy of the current engine state for a command
// handler to inspect (e.g. the current mode, for diagnostics).
func (e *Engine) Snapshot() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Commit atomically replaces the engine state. Busy is untouched; the
// caller still owns clearing it via EndCommand.
func (e *Engine) Commit(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// SetWaitArmed updates only the wait_armed flag, used by the arming
// handshake to clear it on success.
func (e *Engine) SetWaitArmed(v bool) {
	e.mu.Lock()
	e.state.WaitArmed = v
	e.mu.Unlock()
}

// Start begins the periodic tick at rate. It is idempotent.
func (e *Engine) Start(rate time.Duration, now func() time.Time) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	e.ticker = time.NewTicker(rate)
	e.stop = make(chan struct{})
	ticker, stop := e.ticker, e.stop
	e.mu.Unlock()

	go func() {
		for {
			select {
			case <-stop:
				return
			case t := <-ticker.C:
				if now != nil {
					t = now()
				}
				e.Tick(t)
			}
		}
	}()
}

// Stop halts the periodic tick. It is idempotent.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.running {
		return
	}
	e.running = false
	e.ticker.Stop()
	close(e.stop)
}

// Tick re-transforms the active setpoint into local_frame, interpolates
// navigate progress, broadcasts target_frame, and emits on the channel
// the mode/yaw-policy pair prescribes: one message, or for attitude
// mode a pose plus a thrust message.
func (e *Engine) Tick(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()

	st := e.state
	mode := st.Mode

	if mode == ModeNone {
		return
	}

	if mode == ModeRates {
		// Rates never touch the frame graph: stamped in fcu_frame,
		// body rates copied through verbatim.
		e.Publisher.PublishAttitudeRaw(AttitudeRawMessage{
			Stamp:    now,
			Frame:    e.FCUFrame,
			Mask:     IgnoreAttitude,
			BodyRate: st.Rates,
			Thrust:   st.Thrust,
		})
		return
	}

	var transformedPose frames.Pose
	gotPose := false
	if mode.HasPositionalComponent() {
		p, err := e.Frames.TransformPose(
			st.SetpointPositionFrame, e.LocalFrame,
			frames.Pose{Position: st.SetpointPosition, Rotation: st.SetpointOrientation},
			now,
		)
		if err == nil {
			e.lastGoodPos, e.lastGoodPosOK, e.lastGoodPosAt = p, true, now
			transformedPose, gotPose = p, true
		} else {
			e.Logger.Throttledf("setpoint tick: can't transform setpoint position %s -> %s: %v",
				st.SetpointPositionFrame, e.LocalFrame, err)
			if e.lastGoodPosOK && now.Sub(e.lastGoodPosAt) <= e.StaleAfter {
				transformedPose, gotPose = e.lastGoodPos, true
			}
		}
	}
	if !gotPose {
		// Nothing usable to publish this tick: the re-transform has
		// failed for longer than StaleAfter.
		return
	}

	var transformedVel mgl64.Vec3
	if mode == ModeVelocity {
		v, err := e.Frames.TransformVector(st.SetpointVelocityFrame, e.LocalFrame, st.SetpointVelocity, now)
		if err == nil {
			e.lastGoodVel, e.lastGoodVelOK, e.lastGoodVelAt = v, true, now
			transformedVel = v
		} else {
			e.Logger.Throttledf("setpoint tick: can't transform setpoint velocity %s -> %s: %v",
				st.SetpointVelocityFrame, e.LocalFrame, err)
			if e.lastGoodVelOK && now.Sub(e.lastGoodVelAt) <= e.StaleAfter {
				transformedVel = e.lastGoodVel
			} else {
				return
			}
		}
	}

	if mode.BroadcastsTarget() {
		e.Broadcaster.PublishTarget(transformedPose, now)
	}

	outPosition := transformedPose.Position
	outOrientation := transformedPose.Rotation

	if mode.IsNavigate() {
		if st.WaitArmed {
			st.NavStartStamp = now
			e.state.NavStartStamp = now // persist the slide across ticks
		}

		d := transformedPose.Position.Sub(st.NavStartPosition).Len()
		u := 1.0
		if st.NavSpeed > 0 {
			total := d / st.NavSpeed
			if total > 0 {
				u = clamp(now.Sub(st.NavStartStamp).Seconds()/total, 0, 1)
			}
		}
		outPosition = lerp(st.NavStartPosition, transformedPose.Position, u)

		if st.YawPolicy == YawTowards {
			yaw := math.Atan2(outPosition[1]-st.NavStartPosition[1], outPosition[0]-st.NavStartPosition[0])
			outOrientation = frames.YawOnly(yaw)
		}
	}

	switch mode {
	case ModeNavigate, ModeNavigateGlobal, ModePosition:
		if st.YawPolicy == YawRate {
			e.Publisher.PublishPositionRaw(PositionRawMessage{
				Stamp:           now,
				Frame:           e.LocalFrame,
				CoordinateFrame: FrameLocalNED,
				Mask:            IgnoreVX | IgnoreVY | IgnoreVZ | IgnoreAFX | IgnoreAFY | IgnoreAFZ | IgnoreYaw,
				Position:        outPosition,
				YawRate:         st.YawRate,
			})
		} else {
			e.Publisher.PublishPose(ChannelPosition, PoseMessage{
				Stamp: now, Frame: e.LocalFrame, Position: outPosition, Rotation: outOrientation,
			})
		}

	case ModeVelocity:
		mask := IgnorePX | IgnorePY | IgnorePZ | IgnoreAFX | IgnoreAFY | IgnoreAFZ
		if st.YawPolicy == YawAbsolute {
			mask |= IgnoreYawRate
		} else {
			mask |= IgnoreYaw
		}
		yaw, _, _ := frames.YawPitchRoll(transformedPose.Rotation)
		e.Publisher.PublishPositionRaw(PositionRawMessage{
			Stamp:           now,
			Frame:           e.LocalFrame,
			CoordinateFrame: FrameLocalNED,
			Mask:            mask,
			Velocity:        transformedVel,
			Yaw:             yaw,
			YawRate:         st.YawRate,
		})

	case ModeAttitude:
		e.Publisher.PublishPose(ChannelAttitude, PoseMessage{
			Stamp: now, Frame: e.LocalFrame, Position: transformedPose.Position, Rotation: transformedPose.Rotation,
		})
		e.Publisher.PublishThrust(ThrustMessage{Stamp: now, Thrust: st.Thrust})
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func lerp(a, b mgl64.Vec3, u float64) mgl64.Vec3 {
	return mgl64.Vec3{
		a[0] + (b[0]-a[0])*u,
		a[1] + (b[1]-a[1])*u,
		a[2] + (b[2]-a[2])*u,
	}
}
