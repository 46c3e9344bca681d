// Package config holds the bridge's YAML deployment schema: plain
// fields for scalars, a small custom (Un)MarshalYAML pair for the one
// shape gopkg.in/yaml.v2 can't decode into cleanly (a named 3-vector,
// used for static_transforms).
package config

import (
	"time"

	"github.com/go-gl/mathgl/mgl64"
)

// BridgeConfig is the on-disk deployment description: frame names,
// reference-frame aliases, static transforms, rates and timeouts.
type BridgeConfig struct {
	LocalFrame  string `yaml:"local_frame"`
	FCUFrame    string `yaml:"fcu_frame"`
	TargetFrame string `yaml:"target_frame"`
	BodyFrame   string `yaml:"body_frame"`

	ReferenceFrames  map[string]string `yaml:"reference_frames"`
	StaticTransforms []StaticTransform `yaml:"static_transforms"`

	DefaultSpeed       float64 `yaml:"default_speed"`
	SetpointRateHz     float64 `yaml:"setpoint_rate"`
	LandOnlyInOffboard bool    `yaml:"land_only_in_offboard"`

	// AutoRelease is accepted for compatibility but has no effect —
	// see DESIGN.md's resolution of the corresponding open question.
	AutoRelease bool `yaml:"auto_release"`

	FCUVersionConstraint string `yaml:"fcu_version_constraint"`

	Timeouts TimeoutsConfig `yaml:"timeouts"`
}

// TimeoutsConfig mirrors simple_offboard.cpp's *_timeout ROS params,
// expressed in fractional seconds on the wire and converted to
// time.Duration for use.
type TimeoutsConfig struct {
	StateSeconds              float64 `yaml:"state"`
	LocalPositionSeconds      float64 `yaml:"local_position"`
	VelocitySeconds           float64 `yaml:"velocity"`
	GlobalPositionSeconds     float64 `yaml:"global_position"`
	BatterySeconds            float64 `yaml:"battery"`
	TransformSeconds          float64 `yaml:"transform"`
	TelemetryTransformSeconds float64 `yaml:"telemetry_transform"`
	OffboardSeconds           float64 `yaml:"offboard"`
	ArmingSeconds             float64 `yaml:"arming"`
	LandSeconds               float64 `yaml:"land"`
}

func seconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }

func (t TimeoutsConfig) State() time.Duration              { return seconds(t.StateSeconds) }
func (t TimeoutsConfig) LocalPosition() time.Duration      { return seconds(t.LocalPositionSeconds) }
func (t TimeoutsConfig) Velocity() time.Duration           { return seconds(t.VelocitySeconds) }
func (t TimeoutsConfig) GlobalPosition() time.Duration     { return seconds(t.GlobalPositionSeconds) }
func (t TimeoutsConfig) Battery() time.Duration            { return seconds(t.BatterySeconds) }
func (t TimeoutsConfig) Transform() time.Duration          { return seconds(t.TransformSeconds) }
func (t TimeoutsConfig) TelemetryTransform() time.Duration { return seconds(t.TelemetryTransformSeconds) }
func (t TimeoutsConfig) Offboard() time.Duration           { return seconds(t.OffboardSeconds) }
func (t TimeoutsConfig) Arming() time.Duration             { return seconds(t.ArmingSeconds) }
func (t TimeoutsConfig) Land() time.Duration               { return seconds(t.LandSeconds) }

// SetpointRate converts the configured Hz into a tick period, falling
// back to a 30 Hz default.
func (c BridgeConfig) SetpointRate() time.Duration {
	hz := c.SetpointRateHz
	if hz <= 0 {
		hz = 30
	}
	return time.Duration(float64(time.Second) / hz)
}

// ApplyDefaults fills every zero-valued field with the default
// simple_offboard.cpp's main() registers for the equivalent ROS
// param, so an empty or partial YAML file still yields a usable
// configuration.
func (c *BridgeConfig) ApplyDefaults() {
	if c.LocalFrame == "" {
		c.LocalFrame = "map"
	}
	if c.FCUFrame == "" {
		c.FCUFrame = "base_link"
	}
	if c.TargetFrame == "" {
		c.TargetFrame = "navigate_target"
	}
	if c.BodyFrame == "" {
		c.BodyFrame = "body"
	}
	if c.DefaultSpeed == 0 {
		c.DefaultSpeed = 0.5
	}
	if c.SetpointRateHz == 0 {
		c.SetpointRateHz = 30
	}
	if c.FCUVersionConstraint == "" {
		c.FCUVersionConstraint = ">= 1.0.0"
	}

	t := &c.Timeouts
	if t.StateSeconds == 0 {
		t.StateSeconds = 3.0
	}
	if t.LocalPositionSeconds == 0 {
		t.LocalPositionSeconds = 2.0
	}
	if t.VelocitySeconds == 0 {
		t.VelocitySeconds = 2.0
	}
	if t.GlobalPositionSeconds == 0 {
		t.GlobalPositionSeconds = 10.0
	}
	if t.BatterySeconds == 0 {
		t.BatterySeconds = 2.0
	}
	if t.TransformSeconds == 0 {
		t.TransformSeconds = 0.5
	}
	if t.TelemetryTransformSeconds == 0 {
		t.TelemetryTransformSeconds = 0.5
	}
	if t.OffboardSeconds == 0 {
		t.OffboardSeconds = 3.0
	}
	if t.ArmingSeconds == 0 {
		t.ArmingSeconds = 4.0
	}
	if t.LandSeconds == 0 {
		t.LandSeconds = 3.0
	}
}

// StaticTransform names a fixed offset between two frames, for
// deployments whose reference_frame isn't supplied dynamically by the
// FCU driver (e.g. a fixed camera or gimbal mount).
type StaticTransform struct {
	From, To    string
	Translation mgl64.Vec3
	YawRadians  float64
}

type yamlStaticTransform struct {
	From        string    `yaml:"from"`
	To          string    `yaml:"to"`
	Translation []float64 `yaml:"translation,flow"`
	YawDeg      float64   `yaml:"yaw_deg"`
}

// MarshalYAML renders Translation as a flow sequence rather than a
// nested block, matching how the rest of this file's scalars read.
func (s StaticTransform) MarshalYAML() (interface{}, error) {
	return yamlStaticTransform{
		From:        s.From,
		To:          s.To,
		Translation: []float64{s.Translation[0], s.Translation[1], s.Translation[2]},
		YawDeg:      mgl64.RadToDeg(s.YawRadians),
	}, nil
}

// UnmarshalYAML decodes the flow-sequence translation into an
// mgl64.Vec3.
func (s *StaticTransform) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var y yamlStaticTransform
	if err := unmarshal(&y); err != nil {
		return err
	}
	s.From, s.To = y.From, y.To
	if len(y.Translation) == 3 {
		s.Translation = mgl64.Vec3{y.Translation[0], y.Translation[1], y.Translation[2]}
	}
	s.YawRadians = mgl64.DegToRad(y.YawDeg)
	return nil
}
