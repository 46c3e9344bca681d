// Package telemetry holds the last-value slots the bridge fills from
// the FCU driver's inbound streams and reads back from anywhere else in
// the process. There is no blocking wait here: a read either finds a
// fresh value or it doesn't.
package telemetry

import (
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// State mirrors the FCU's connection/mode/arm status.
type State struct {
	Connected bool
	Armed     bool
	Mode      string
}

// Pose is a stamped position + orientation in some named frame.
type Pose struct {
	Frame     string
	Position  mgl64.Vec3
	Rotation  mgl64.Quat
}

// Velocity carries the FCU's reported linear + angular body rates.
type Velocity struct {
	Frame    string
	Linear   mgl64.Vec3
	Angular  mgl64.Vec3 // roll, pitch, yaw rates
}

// GlobalFix is a WGS-84 fix.
type GlobalFix struct {
	Lat, Lon, Alt float64
}

// Battery mirrors a single-pack or per-cell battery reading.
type Battery struct {
	Voltage      float64
	CellVoltages []float64
}

// StatusText is a single status line from the FCU; its arrival time is
// the stamp of the slot that holds it.
type StatusText struct {
	Text string
}

// Slot pairs any telemetry value with the time it was written.
type Slot[T any] struct {
	mu     sync.RWMutex
	value  T
	stamp  time.Time
	filled bool
}

// Set stores value, stamping it with now.
func (s *Slot[T]) Set(value T, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = value
	s.stamp = now
	s.filled = true
}

// Get returns the stored value, its stamp, and whether the slot has
// ever been written.
func (s *Slot[T]) Get() (value T, stamp time.Time, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value, s.stamp, s.filled
}

// Fresh reports whether the slot was written within timeout of now.
// An unfilled slot is never fresh.
func (s *Slot[T]) Fresh(now time.Time, timeout time.Duration) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.filled {
		return false
	}
	return now.Sub(s.stamp) <= timeout
}

// Stamp returns the slot's last write time, zero if never written.
func (s *Slot[T]) Stamp() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.stamp
}

// Timeouts bundles the per-kind freshness windows: each telemetry
// stream ages out on its own schedule rather than a single global
// timeout.
type Timeouts struct {
	State          time.Duration
	LocalPosition  time.Duration
	Velocity       time.Duration
	GlobalPosition time.Duration
	Battery        time.Duration
}

// Cache is the process-wide set of last-value slots. One instance is
// shared by the FCU driver's subscriber goroutines (writers) and every
// reader in the process (validator, tick loop, telemetry service).
type Cache struct {
	Timeouts Timeouts

	StateSlot      Slot[State]
	LocalPose      Slot[Pose]
	VelocitySlot   Slot[Velocity]
	GlobalFixSlot  Slot[GlobalFix]
	BatterySlot    Slot[Battery]
	StatusTextSlot Slot[StatusText]

	// OnLocalPose fires synchronously after each local pose write, on
	// the writer's own goroutine, so the body-frame broadcaster can
	// react to arrival without an extra poll.
	OnLocalPose func(Pose, time.Time)
}

// New builds a Cache with the given per-kind freshness windows.
func New(t Timeouts) *Cache {
	return &Cache{Timeouts: t}
}

func (c *Cache) SetState(v State, now time.Time) { c.StateSlot.Set(v, now) }

func (c *Cache) SetLocalPose(v Pose, now time.Time) {
	c.LocalPose.Set(v, now)
	if c.OnLocalPose != nil {
		c.OnLocalPose(v, now)
	}
}

func (c *Cache) SetVelocity(v Velocity, now time.Time) { c.VelocitySlot.Set(v, now) }
func (c *Cache) SetGlobalFix(v GlobalFix, now time.Time) { c.GlobalFixSlot.Set(v, now) }
func (c *Cache) SetBattery(v Battery, now time.Time) { c.BatterySlot.Set(v, now) }
func (c *Cache) SetStatusText(v StatusText, now time.Time) { c.StatusTextSlot.Set(v, now) }

// StateFresh returns the current state and whether it is within the
// configured timeout of now.
func (c *Cache) StateFresh(now time.Time) (State, bool) {
	v, _, _ := c.StateSlot.Get()
	return v, c.StateSlot.Fresh(now, c.Timeouts.State)
}

func (c *Cache) LocalPoseFresh(now time.Time) (Pose, bool) {
	v, _, _ := c.LocalPose.Get()
	return v, c.LocalPose.Fresh(now, c.Timeouts.LocalPosition)
}

func (c *Cache) VelocityFresh(now time.Time) (Velocity, bool) {
	v, _, _ := c.VelocitySlot.Get()
	return v, c.VelocitySlot.Fresh(now, c.Timeouts.Velocity)
}

func (c *Cache) GlobalFixFresh(now time.Time) (GlobalFix, bool) {
	v, _, _ := c.GlobalFixSlot.Get()
	return v, c.GlobalFixSlot.Fresh(now, c.Timeouts.GlobalPosition)
}

func (c *Cache) BatteryFresh(now time.Time) (Battery, bool) {
	v, _, _ := c.BatterySlot.Get()
	return v, c.BatterySlot.Fresh(now, c.Timeouts.Battery)
}

// LatestStatusTextAfter returns the newest status text stamped after
// start, used to augment handshake-timeout error messages.
func (c *Cache) LatestStatusTextAfter(start time.Time) (StatusText, bool) {
	v, stamp, ok := c.StatusTextSlot.Get()
	if !ok || stamp.Before(start) || stamp.Equal(start) {
		return StatusText{}, false
	}
	return v, true
}
