// Package command implements the single validator/preparer that every
// command service and land funnels through: look up preconditions,
// validate, mutate engine state, report a plain error string.
package command

import "fmt"

// Exact, stable error strings, carried over from the source system's
// serve() so operators used to its wording see the same text.
// ErrDisconnected omits the support URL the original message carried.
const (
	ErrBusy              = "Busy"
	ErrStateTimeout      = "State timeout, check mavros settings"
	ErrDisconnected      = "No connection to FCU"
	ErrNoLocalPosition   = "No local position, check settings"
	ErrNoGlobalPosition  = "No global position"
	ErrBothYawNaN        = "Both yaw and yaw_rate cannot be NaN"
	ErrYawRateWithYaw    = "Yaw value should be NaN for setting yaw rate"
	ErrNotOffboardNoArm  = "Not in OFFBOARD mode, use auto_arm?"
	ErrNotArmedNoArm     = "Not armed, use auto_arm?"
	ErrLandNotOffboard   = "Not in OFFBOARD mode"
	ErrLandTimeout       = "Land request timed out"
)

func errNegativeSpeed(speed float64) string {
	return fmt.Sprintf("Navigate speed must be positive, %v passed", speed)
}

func errTransform(from, to string) string {
	return fmt.Sprintf("Can't transform from %s to %s", from, to)
}

func errFCUService(action string, err error) string {
	return fmt.Sprintf("error calling %s: %v", action, err)
}
