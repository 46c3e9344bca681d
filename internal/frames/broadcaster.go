package frames

import (
	"time"

	"github.com/skyward-robotics/offboard-bridge/internal/telemetry"
)

// Broadcaster owns the two frames this bridge publishes itself:
// body_frame (refreshed on every local-pose arrival) and target_frame
// (refreshed on every tick while a positional setpoint mode is
// active). Both are just Publish edges registered into the shared
// graph.
type Broadcaster struct {
	graph *Graph

	localFrame  string
	bodyFrame   string
	targetFrame string

	body   *Publish
	target *Publish
}

// NewBroadcaster wires body_frame and target_frame into g as children
// of localFrame. An empty frame name disables that broadcast, matching
// the original's "if (body.child_frame_id.empty()) return."
func NewBroadcaster(g *Graph, localFrame, bodyFrame, targetFrame string, tolerance time.Duration) *Broadcaster {
	b := &Broadcaster{
		graph:       g,
		localFrame:  localFrame,
		bodyFrame:   bodyFrame,
		targetFrame: targetFrame,
		body:        NewPublish(tolerance),
		target:      NewPublish(tolerance),
	}
	if bodyFrame != "" {
		g.SetDynamic(bodyFrame, localFrame, b.body.At)
	}
	if targetFrame != "" {
		g.SetDynamic(targetFrame, localFrame, b.target.At)
	}
	return b
}

// OnLocalPose matches telemetry.Cache's OnLocalPose hook signature: it
// re-broadcasts body_frame with the pose's translation and a yaw-only
// rotation extracted from the pose's full orientation.
func (b *Broadcaster) OnLocalPose(p telemetry.Pose, now time.Time) {
	if b.bodyFrame == "" {
		return
	}
	yaw, _, _ := YawPitchRoll(p.Rotation)
	b.body.Set(Pose{Position: p.Position, Rotation: YawOnly(yaw)}, now)
}

// PublishTarget re-broadcasts target_frame at the given pose. Called
// from the tick for navigate/navigate_global/position modes only.
func (b *Broadcaster) PublishTarget(p Pose, now time.Time) {
	if b.targetFrame == "" {
		return
	}
	b.target.Set(p, now)
}
