package frames

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// YawPitchRoll decodes q as Tait-Bryan angles under Z-Y-X intrinsic
// rotations: yaw about Z, then pitch about the rotated Y, then roll
// about the twice-rotated X.
func YawPitchRoll(q mgl64.Quat) (yaw, pitch, roll float64) {
	w, x, y, z := q.W, q.V[0], q.V[1], q.V[2]

	yaw = math.Atan2(2*(w*z+x*y), 1-2*(y*y+z*z))

	sinp := 2 * (w*y - z*x)
	sinp = math.Max(-1, math.Min(1, sinp))
	pitch = math.Asin(sinp)

	roll = math.Atan2(2*(w*x+y*z), 1-2*(x*x+y*y))
	return
}

// YawOnly builds the quaternion for a rotation about Z alone by yaw
// radians — used for the body-frame broadcast and for the "towards"
// yaw policy's per-tick orientation.
func YawOnly(yaw float64) mgl64.Quat {
	return mgl64.AnglesToQuat(yaw, 0, 0, mgl64.ZYX)
}

// FromRollPitchYaw builds the full attitude quaternion the way
// simple_offboard.cpp's tf::createQuaternionMsgFromRollPitchYaw does.
func FromRollPitchYaw(roll, pitch, yaw float64) mgl64.Quat {
	return mgl64.AnglesToQuat(yaw, pitch, roll, mgl64.ZYX)
}
