// Package frames resolves named coordinate frames against one another
// using github.com/go-gl/mathgl/mgl64 Mat4 composition, generalized
// into a small named transform graph in place of an external transform
// library.
package frames

import (
	"fmt"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// Pose is a position + orientation, unstamped — the graph stamps edges
// itself via the provider functions below.
type Pose struct {
	Position mgl64.Vec3
	Rotation mgl64.Quat
}

// Identity is the zero-translation, zero-rotation pose.
func Identity() Pose { return Pose{Rotation: mgl64.QuatIdent()} }

// Mat4 renders the pose as a homogeneous transform matrix.
func (p Pose) Mat4() mgl64.Mat4 {
	return mgl64.Translate3D(p.Position[0], p.Position[1], p.Position[2]).Mul4(p.Rotation.Mat4())
}

func fromMat4(m mgl64.Mat4) Pose {
	return Pose{
		Position: m.Col(3).Vec3(),
		Rotation: mgl64.Mat4ToQuat(m),
	}
}

func (p Pose) inverse() Pose {
	return fromMat4(p.Mat4().Inv())
}

// providerFunc returns the transform from the edge's "from" frame into
// its "to" frame at t, and whether that transform is known at t.
type providerFunc func(t time.Time) (Pose, bool)

type edge struct {
	to       string
	provider providerFunc
}

// TransformError names the two frames that could not be related.
type TransformError struct {
	Target, Source string
}

func (e *TransformError) Error() string {
	return fmt.Sprintf("can't transform from %s to %s", e.Source, e.Target)
}

// Graph is a small undirected transform tree. Frames are named nodes;
// edges carry a time-varying (or constant) pose from one frame to the
// other. It is safe for concurrent readers and writers.
type Graph struct {
	mu    sync.RWMutex
	edges map[string][]edge
}

// NewGraph returns an empty transform graph.
func NewGraph() *Graph {
	return &Graph{edges: make(map[string][]edge)}
}

func (g *Graph) addEdge(from, to string, p providerFunc) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edges[from] = append(g.edges[from], edge{to: to, provider: p})
	g.edges[to] = append(g.edges[to], edge{to: from, provider: func(t time.Time) (Pose, bool) {
		pose, ok := p(t)
		if !ok {
			return Pose{}, false
		}
		return pose.inverse(), true
	}})
}

// SetStatic registers a fixed transform from "from" into "to".
// Registering the same pair again adds a further edge rather than
// replacing the first; resolution uses the earliest-registered edge
// that resolves. Used for
// reference_frames aliases (when absent, a reference frame equals the
// frame itself — an implicit identity edge) and other fixed offsets a
// deployment configures.
func (g *Graph) SetStatic(from, to string, pose Pose) {
	g.addEdge(from, to, func(time.Time) (Pose, bool) { return pose, true })
}

// SetDynamic registers a time-varying transform from "from" into "to".
// Used for the frames this bridge itself broadcasts (body_frame,
// target_frame); no edge is registered for fcu_frame.
func (g *Graph) SetDynamic(from, to string, at func(t time.Time) (Pose, bool)) {
	g.addEdge(from, to, at)
}

// Publish is a convenience for SetDynamic backed by a single
// last-known pose plus its own stamp and a tolerance window: a
// broadcaster stamps a frame with "now" each time it fires, and the
// tick loop later re-transforms with a tolerance.
type Publish struct {
	mu       sync.RWMutex
	pose     Pose
	stamp    time.Time
	set      bool
	tolerance time.Duration
}

// NewPublish creates a broadcastable, pollable dynamic edge.
func NewPublish(tolerance time.Duration) *Publish {
	return &Publish{tolerance: tolerance}
}

// Set stores the latest pose, stamped now.
func (p *Publish) Set(pose Pose, now time.Time) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.pose, p.stamp, p.set = pose, now, true
}

// At implements providerFunc: it is available at t iff a pose has been
// published within tolerance of t.
func (p *Publish) At(t time.Time) (Pose, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.set {
		return Pose{}, false
	}
	d := t.Sub(p.stamp)
	if d < 0 {
		d = -d
	}
	if d > p.tolerance {
		return Pose{}, false
	}
	return p.pose, true
}

// resolve finds a path from source to target via BFS over frame names
// and composes the edge transforms along it, returning the pose of
// source expressed in target.
func (g *Graph) resolve(target, source string, t time.Time) (Pose, bool) {
	if target == source {
		return Identity(), true
	}

	g.mu.RLock()
	defer g.mu.RUnlock()

	type step struct {
		frame string
		pose  Pose // source -> frame
	}

	visited := map[string]bool{source: true}
	queue := []step{{frame: source, pose: Identity()}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, e := range g.edges[cur.frame] {
			if visited[e.to] {
				continue
			}
			hop, ok := e.provider(t)
			if !ok {
				continue
			}
			// cur.pose: source -> cur.frame. hop: cur.frame -> e.to.
			// compose: source -> e.to
			composed := fromMat4(hop.Mat4().Mul4(cur.pose.Mat4()))
			if e.to == target {
				return composed, true
			}
			visited[e.to] = true
			queue = append(queue, step{frame: e.to, pose: composed})
		}
	}

	return Pose{}, false
}

// CanTransform reports whether target and source are related at t,
// without erroring — the primitive a wait_transform loop polls.
func (g *Graph) CanTransform(target, source string, t time.Time) bool {
	_, ok := g.resolve(target, source, t)
	return ok
}

// Resolve returns the pose of source expressed in target at t, or a
// *TransformError naming both frames.
func (g *Graph) Resolve(target, source string, t time.Time) (Pose, error) {
	p, ok := g.resolve(target, source, t)
	if !ok {
		return Pose{}, &TransformError{Target: target, Source: source}
	}
	return p, nil
}

// TransformPose transforms a full pose (position + orientation) given
// in "from" into "into".
func (g *Graph) TransformPose(from, into string, p Pose, t time.Time) (Pose, error) {
	edge, err := g.Resolve(into, from, t)
	if err != nil {
		return Pose{}, err
	}
	m := edge.Mat4().Mul4(p.Mat4())
	return fromMat4(m), nil
}

// TransformVector transforms a free vector (rotation only, no
// translation) given in "from" into "into".
func (g *Graph) TransformVector(from, into string, v mgl64.Vec3, t time.Time) (mgl64.Vec3, error) {
	edge, err := g.Resolve(into, from, t)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return mgl64.TransformNormal(v, edge.Mat4()), nil
}

// TransformPoint transforms a single point given in "from" into "into".
func (g *Graph) TransformPoint(from, into string, pt mgl64.Vec3, t time.Time) (mgl64.Vec3, error) {
	edge, err := g.Resolve(into, from, t)
	if err != nil {
		return mgl64.Vec3{}, err
	}
	return mgl64.TransformCoordinate(pt, edge.Mat4()), nil
}
