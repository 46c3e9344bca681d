package frames

import (
	"math"

	"github.com/StefanSchroeder/Golang-Ellipsoid/ellipsoid"
	"github.com/go-gl/mathgl/mgl64"
)

// wgs84 is shared across calls; ellipsoid.Init is cheap but there is
// no reason to redo it per request.
var wgs84 = ellipsoid.Init(
	"WGS84",
	ellipsoid.Degrees,
	ellipsoid.Meter,
	ellipsoid.LongitudeIsSymmetric,
	ellipsoid.BearingIsSymmetric,
)

// Geodesic converts a WGS-84 (lat, lon) target into a pose in
// local_frame. It needs the vehicle's current global fix and its pose
// in local_frame; both are supplied by the caller (the validator,
// which already holds them from telemetry) so this type stays a pure
// function of its inputs.
type Geodesic struct {
	// LocalFrame names the frame GlobalToLocal's result is expressed
	// in.
	LocalFrame string
}

// GlobalToLocal computes azimuth + distance from the current fix to
// (lat, lon), decomposed into a local-frame (dx, dy) offset added to
// vehicleLocalPosition — the FCU's own current position in
// local_frame, as already read from telemetry by the caller. There is
// no static graph edge for a frame that moves with the vehicle, so
// this takes that position directly rather than resolving it through
// the frame graph. z is left to the caller. Orientation is identity,
// matching simple_offboard.cpp's globalToLocal (pose.pose.orientation.w
// = 1).
func (g *Geodesic) GlobalToLocal(fromLat, fromLon, toLat, toLon float64, vehicleLocalPosition mgl64.Vec3) Pose {
	distance, azimuthDeg := wgs84.To(fromLat, fromLon, toLat, toLon)

	azimuth := azimuthDeg * math.Pi / 180
	dx := distance * math.Sin(azimuth)
	dy := distance * math.Cos(azimuth)

	return Pose{
		Position: mgl64.Vec3{
			vehicleLocalPosition[0] + dx,
			vehicleLocalPosition[1] + dy,
			0,
		},
		Rotation: mgl64.QuatIdent(),
	}
}
