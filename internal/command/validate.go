package command

import (
	"context"
	"math"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/skyward-robotics/offboard-bridge/internal/fcu"
	"github.com/skyward-robotics/offboard-bridge/internal/frames"
	"github.com/skyward-robotics/offboard-bridge/internal/setpoint"
	"github.com/skyward-robotics/offboard-bridge/internal/telemetry"
)

// Validator bundles every collaborator the ten-step validate/prepare
// sequence needs, wired once and shared by all six command services
// (internal/service).
type Validator struct {
	LocalFrame      string
	ReferenceFrames map[string]string
	DefaultSpeed    float64
	TransformTimeout time.Duration
	SetpointRate    time.Duration

	Cache     *telemetry.Cache
	Frames    *frames.Service
	Geodesic  *frames.Geodesic
	Engine    *setpoint.Engine
	Handshake *fcu.Handshake
	Now       func() time.Time
}

func (m Kind) mode() setpoint.Mode {
	switch m {
	case KindNavigate:
		return setpoint.ModeNavigate
	case KindNavigateGlobal:
		return setpoint.ModeNavigateGlobal
	case KindPosition:
		return setpoint.ModePosition
	case KindVelocity:
		return setpoint.ModeVelocity
	case KindAttitude:
		return setpoint.ModeAttitude
	case KindRates:
		return setpoint.ModeRates
	default:
		return setpoint.ModeNone
	}
}

func needsYawExclusivity(k Kind) bool {
	switch k {
	case KindNavigate, KindNavigateGlobal, KindPosition, KindVelocity:
		return true
	default:
		return false
	}
}

// Validate runs the ten-step validate/prepare sequence in order and
// returns the (success, message) pair every command service reports
// back.
func (v *Validator) Validate(ctx context.Context, req Request) (success bool, message string) {
	// Step 1: reentrancy guard.
	if !v.Engine.TryBegin() {
		return false, ErrBusy
	}
	defer v.Engine.EndCommand()

	now := v.Now()
	mode := req.Kind.mode()

	// Step 2: connectivity.
	state, fresh := v.Cache.StateFresh(now)
	if !fresh {
		return false, ErrStateTimeout
	}
	if !state.Connected {
		return false, ErrDisconnected
	}

	// Step 3: mode-specific preconditions.
	speed := req.Speed
	var localPose telemetry.Pose
	if mode.IsNavigate() {
		p, ok := v.Cache.LocalPoseFresh(now)
		if !ok {
			return false, ErrNoLocalPosition
		}
		localPose = p

		if speed < 0 {
			return false, errNegativeSpeed(speed)
		}
		if speed == 0 {
			speed = v.DefaultSpeed
		}
	}

	if needsYawExclusivity(req.Kind) {
		if !math.IsNaN(req.YawRate) && req.YawRate != 0 && !math.IsNaN(req.Yaw) {
			return false, ErrYawRateWithYaw
		}
		if math.IsNaN(req.YawRate) && math.IsNaN(req.Yaw) {
			return false, ErrBothYawNaN
		}
	}

	if mode == setpoint.ModeNavigateGlobal {
		if _, ok := v.Cache.GlobalFixFresh(now); !ok {
			return false, ErrNoGlobalPosition
		}
	}

	// Step 4: frame resolution.
	frameID := req.FrameID
	if frameID == "" {
		frameID = v.LocalFrame
	}
	referenceFrame := frameID
	if rf, ok := v.ReferenceFrames[frameID]; ok {
		referenceFrame = rf
	}

	if mode.HasPositionalComponent() {
		if !v.Frames.WaitTransform(ctx, referenceFrame, frameID, now, v.TransformTimeout) {
			return false, errTransform(frameID, referenceFrame)
		}
		if !v.Frames.WaitTransform(ctx, v.LocalFrame, referenceFrame, now, v.TransformTimeout) {
			return false, errTransform(referenceFrame, v.LocalFrame)
		}
	}

	// Step 5: global -> local. localPose is the FCU's own current
	// position in LocalFrame, already fetched in step 3 (there is no
	// frame-graph edge for it — it moves with the vehicle).
	x, y, z := req.X, req.Y, req.Z
	if mode == setpoint.ModeNavigateGlobal {
		fix, _ := v.Cache.GlobalFixFresh(now)
		localFromGlobal := v.Geodesic.GlobalToLocal(fix.Lat, fix.Lon, req.Lat, req.Lon, localPose.Position)
		inFrame, err := v.Frames.TransformPose(v.LocalFrame, frameID, localFromGlobal, now)
		if err != nil {
			return false, errTransform(v.LocalFrame, frameID)
		}
		x, y = inFrame.Position[0], inFrame.Position[1]
	}

	// Step 6: commit.
	var newState setpoint.State
	newState.Mode = mode

	if mode.IsNavigate() {
		newState.NavStartPosition = localPose.Position
		newState.NavStartStamp = now
		newState.NavSpeed = speed
	}

	if mode.HasPositionalComponent() {
		policy, absYaw, yawRate := setpoint.DecodeYaw(req.Yaw, req.YawRate)
		newState.YawPolicy = policy
		newState.YawRate = yawRate

		orientation := mgl64.QuatIdent()
		if policy == setpoint.YawAbsolute {
			orientation = frames.FromRollPitchYaw(req.Roll, req.Pitch, absYaw)
		}

		stamped := frames.Pose{Position: mgl64.Vec3{x, y, z}, Rotation: orientation}
		transformed, err := v.Frames.TransformPose(frameID, referenceFrame, stamped, now)
		if err != nil {
			return false, errTransform(frameID, referenceFrame)
		}
		newState.SetpointPosition = transformed.Position
		newState.SetpointOrientation = transformed.Rotation
		newState.SetpointPositionFrame = referenceFrame
		newState.SetpointPositionStamp = now
	}

	if mode == setpoint.ModeVelocity {
		transformedVel, err := v.Frames.TransformVector(frameID, referenceFrame, mgl64.Vec3{req.VX, req.VY, req.VZ}, now)
		if err != nil {
			return false, errTransform(frameID, referenceFrame)
		}
		newState.SetpointVelocity = transformedVel
		newState.SetpointVelocityFrame = referenceFrame
		newState.SetpointVelocityStamp = now
	}

	if mode == setpoint.ModeAttitude || mode == setpoint.ModeRates {
		newState.Thrust = req.Thrust
	}
	if mode == setpoint.ModeRates {
		newState.Rates = mgl64.Vec3{req.RollRate, req.PitchRate, req.YawRate}
	}

	// Step 7: wait_armed.
	newState.WaitArmed = req.AutoArm

	v.Engine.Commit(newState)

	// Step 8: publish once now, then start the periodic timer.
	v.Engine.Tick(now)
	v.Engine.Start(v.SetpointRate, v.Now)

	// Step 9: handshake or precondition check.
	if req.AutoArm {
		if err := v.Handshake.OffboardAndArm(ctx); err != nil {
			return false, err.Error()
		}
		v.Engine.SetWaitArmed(false)
	} else {
		st, _ := v.Cache.StateFresh(v.Now())
		if st.Mode != "OFFBOARD" {
			v.Engine.Stop()
			return false, ErrNotOffboardNoArm
		}
		if !st.Armed {
			v.Engine.Stop()
			return false, ErrNotArmedNoArm
		}
	}

	// Step 10.
	return true, ""
}
