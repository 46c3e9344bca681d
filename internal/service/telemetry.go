// Package service is the HTTP/WS facade: it turns each exposed
// operation (get_telemetry, the six command services, land) into a
// small JSON handler, following the request/response idiom (Bind +
// render.JSON) and chi router wiring conventional for chi-based
// services.
package service

import (
	"math"
	"time"

	"github.com/skyward-robotics/offboard-bridge/internal/frames"
	"github.com/skyward-robotics/offboard-bridge/internal/telemetry"
)

// Snapshot is get_telemetry's consolidated response. Missing or stale
// numeric fields report as NaN, carried across the wire as JSON null
// by NullFloat64 rather than the bare Go NaN that both render.JSON and
// a plain json.Marshal reject outright.
type Snapshot struct {
	Connected bool   `json:"connected"`
	Armed     bool   `json:"armed"`
	Mode      string `json:"mode"`
	FrameID   string `json:"frame_id"`

	X     NullFloat64 `json:"x"`
	Y     NullFloat64 `json:"y"`
	Z     NullFloat64 `json:"z"`
	Yaw   NullFloat64 `json:"yaw"`
	Pitch NullFloat64 `json:"pitch"`
	Roll  NullFloat64 `json:"roll"`

	VX        NullFloat64 `json:"vx"`
	VY        NullFloat64 `json:"vy"`
	VZ        NullFloat64 `json:"vz"`
	RollRate  NullFloat64 `json:"roll_rate"`
	PitchRate NullFloat64 `json:"pitch_rate"`
	YawRate   NullFloat64 `json:"yaw_rate"`

	Lat NullFloat64 `json:"lat"`
	Lon NullFloat64 `json:"lon"`
	Alt NullFloat64 `json:"alt"`

	BatteryVoltage NullFloat64 `json:"battery_voltage"`
	CellVoltage    NullFloat64 `json:"cell_voltage"`
}

// Telemetry serves get_telemetry.
type Telemetry struct {
	Cache      *telemetry.Cache
	Frames     *frames.Service
	LocalFrame string
	Now        func() time.Time
}

func nan6() (a, b, c, d, e, f NullFloat64) {
	n := NullFloat64(math.NaN())
	return n, n, n, n, n, n
}

// Get builds a Snapshot in frameID (defaulting to LocalFrame),
// resolving each telemetry field independently against its own
// freshness timeout and reporting NaN for anything missing or stale.
// The response carries back the frameID it was actually computed in.
func (t *Telemetry) Get(frameID string) Snapshot {
	now := t.Now()
	if frameID == "" {
		frameID = t.LocalFrame
	}

	var snap Snapshot
	snap.FrameID = frameID
	snap.X, snap.Y, snap.Z, snap.Yaw, snap.Pitch, snap.Roll = nan6()
	snap.VX, snap.VY, snap.VZ, snap.RollRate, snap.PitchRate, snap.YawRate = nan6()
	nan := NullFloat64(math.NaN())
	snap.Lat, snap.Lon, snap.Alt = nan, nan, nan
	snap.BatteryVoltage, snap.CellVoltage = nan, nan

	if st, ok := t.Cache.StateFresh(now); ok {
		snap.Connected, snap.Armed, snap.Mode = st.Connected, st.Armed, st.Mode
	}

	if pose, ok := t.Cache.LocalPoseFresh(now); ok {
		if tp, err := t.Frames.TransformPose(pose.Frame, frameID, frames.Pose{Position: pose.Position, Rotation: pose.Rotation}, now); err == nil {
			snap.X, snap.Y, snap.Z = NullFloat64(tp.Position[0]), NullFloat64(tp.Position[1]), NullFloat64(tp.Position[2])
			yaw, pitch, roll := frames.YawPitchRoll(tp.Rotation)
			snap.Yaw, snap.Pitch, snap.Roll = NullFloat64(yaw), NullFloat64(pitch), NullFloat64(roll)
		}
	}

	if vel, ok := t.Cache.VelocityFresh(now); ok {
		if tv, err := t.Frames.TransformVector(vel.Frame, frameID, vel.Linear, now); err == nil {
			snap.VX, snap.VY, snap.VZ = NullFloat64(tv[0]), NullFloat64(tv[1]), NullFloat64(tv[2])
		}
		snap.RollRate = NullFloat64(vel.Angular[0])
		snap.PitchRate = NullFloat64(vel.Angular[1])
		snap.YawRate = NullFloat64(vel.Angular[2])
	}

	if fix, ok := t.Cache.GlobalFixFresh(now); ok {
		snap.Lat, snap.Lon, snap.Alt = NullFloat64(fix.Lat), NullFloat64(fix.Lon), NullFloat64(fix.Alt)
	}

	if batt, ok := t.Cache.BatteryFresh(now); ok {
		snap.BatteryVoltage = NullFloat64(batt.Voltage)
		if len(batt.CellVoltages) > 0 {
			snap.CellVoltage = NullFloat64(batt.CellVoltages[0])
		}
	}

	return snap
}
