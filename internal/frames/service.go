package frames

import (
	"context"
	"time"
)

// pollInterval is the rate every blocking wait in this system polls
// at, so the tick loop, running independently, is never starved.
const pollInterval = 100 * time.Millisecond

// Service is the read side of the transform graph: the validator, the
// setpoint tick and the telemetry service call WaitTransform/Transform*
// on it. Edges are registered on the Graph directly (static transforms
// at startup, and the Broadcaster).
type Service struct {
	Graph *Graph
}

// NewService wraps a graph.
func NewService(g *Graph) *Service {
	return &Service{Graph: g}
}

// WaitTransform polls at 10 Hz until target<-source is available at
// stamp, or timeout elapses. It never blocks the setpoint tick: the
// caller runs this in its own goroutine/command path while the tick
// continues to fire on its own timer.
func (s *Service) WaitTransform(ctx context.Context, target, source string, stamp time.Time, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	if s.Graph.CanTransform(target, source, stamp) {
		return true
	}

	for {
		select {
		case <-ctx.Done():
			return false
		case <-ticker.C:
			if s.Graph.CanTransform(target, source, stamp) {
				return true
			}
			if time.Now().After(deadline) {
				return false
			}
		}
	}
}

// TransformPose resolves the pose of p (given in fromFrame) expressed in
// intoFrame at atStamp. Tolerance is honored by whichever dynamic edges
// were registered with a Publish (see NewPublish) — a stale broadcast
// simply fails to resolve, so a caller re-transforming into local_frame
// with a short tolerance sees the failure instead of a stale pose.
func (s *Service) TransformPose(fromFrame, intoFrame string, p Pose, atStamp time.Time) (Pose, error) {
	return s.Graph.TransformPose(fromFrame, intoFrame, p, atStamp)
}

func (s *Service) TransformVector(fromFrame, intoFrame string, v [3]float64, atStamp time.Time) ([3]float64, error) {
	out, err := s.Graph.TransformVector(fromFrame, intoFrame, v, atStamp)
	if err != nil {
		return [3]float64{}, err
	}
	return out, nil
}

func (s *Service) TransformPoint(fromFrame, intoFrame string, pt [3]float64, atStamp time.Time) ([3]float64, error) {
	out, err := s.Graph.TransformPoint(fromFrame, intoFrame, pt, atStamp)
	if err != nil {
		return [3]float64{}, err
	}
	return out, nil
}
