package service

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/skyward-robotics/offboard-bridge/internal/command"
	"github.com/skyward-robotics/offboard-bridge/internal/httputil"
	"github.com/skyward-robotics/offboard-bridge/internal/setpoint"
)

// Response is the uniform command reply every command service returns:
// success plus a human-readable message.
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (r *Response) Render(w http.ResponseWriter, req *http.Request) error { return nil }

func respond(w http.ResponseWriter, r *http.Request, success bool, message string) {
	render.JSON(w, r, &Response{Success: success, Message: message})
}

func bind(w http.ResponseWriter, r *http.Request, v render.Binder) bool {
	if err := render.Bind(r, v); err != nil {
		render.Render(w, r, httputil.ErrInvalidRequest(err))
		return false
	}
	return true
}

// Commands wires the validator and land handshake to HTTP, one method
// per exposed service.
type Commands struct {
	Validator          *command.Validator
	LandOnlyInOffboard bool
}

type navigatePayload struct {
	X       float64     `json:"x"`
	Y       float64     `json:"y"`
	Z       float64     `json:"z"`
	Yaw     setpoint.Yaw `json:"yaw"`
	YawRate float64     `json:"yaw_rate"`
	Speed   float64     `json:"speed"`
	FrameID string      `json:"frame_id"`
	AutoArm bool        `json:"auto_arm"`
}

func (p *navigatePayload) Bind(r *http.Request) error { return nil }

// Navigate serves navigate(x,y,z,yaw,yaw_rate,speed,frame_id,auto_arm).
func (c *Commands) Navigate(w http.ResponseWriter, r *http.Request) {
	p := &navigatePayload{}
	if !bind(w, r, p) {
		return
	}
	ok, msg := c.Validator.Validate(r.Context(), command.Request{
		Kind: command.KindNavigate, X: p.X, Y: p.Y, Z: p.Z,
		Yaw: p.Yaw.Float64(), YawRate: p.YawRate, Speed: p.Speed,
		FrameID: p.FrameID, AutoArm: p.AutoArm,
	})
	respond(w, r, ok, msg)
}

type navigateGlobalPayload struct {
	Lat     float64      `json:"lat"`
	Lon     float64      `json:"lon"`
	Z       float64      `json:"z"`
	Yaw     setpoint.Yaw `json:"yaw"`
	YawRate float64      `json:"yaw_rate"`
	Speed   float64      `json:"speed"`
	FrameID string       `json:"frame_id"`
	AutoArm bool         `json:"auto_arm"`
}

func (p *navigateGlobalPayload) Bind(r *http.Request) error { return nil }

// NavigateGlobal serves navigate_global(lat,lon,z,yaw,yaw_rate,speed,frame_id,auto_arm).
func (c *Commands) NavigateGlobal(w http.ResponseWriter, r *http.Request) {
	p := &navigateGlobalPayload{}
	if !bind(w, r, p) {
		return
	}
	ok, msg := c.Validator.Validate(r.Context(), command.Request{
		Kind: command.KindNavigateGlobal, Lat: p.Lat, Lon: p.Lon, Z: p.Z,
		Yaw: p.Yaw.Float64(), YawRate: p.YawRate, Speed: p.Speed,
		FrameID: p.FrameID, AutoArm: p.AutoArm,
	})
	respond(w, r, ok, msg)
}

type setPositionPayload struct {
	X       float64      `json:"x"`
	Y       float64      `json:"y"`
	Z       float64      `json:"z"`
	Yaw     setpoint.Yaw `json:"yaw"`
	YawRate float64      `json:"yaw_rate"`
	FrameID string       `json:"frame_id"`
	AutoArm bool         `json:"auto_arm"`
}

func (p *setPositionPayload) Bind(r *http.Request) error { return nil }

// SetPosition serves set_position(x,y,z,yaw,yaw_rate,frame_id,auto_arm).
func (c *Commands) SetPosition(w http.ResponseWriter, r *http.Request) {
	p := &setPositionPayload{}
	if !bind(w, r, p) {
		return
	}
	ok, msg := c.Validator.Validate(r.Context(), command.Request{
		Kind: command.KindPosition, X: p.X, Y: p.Y, Z: p.Z,
		Yaw: p.Yaw.Float64(), YawRate: p.YawRate,
		FrameID: p.FrameID, AutoArm: p.AutoArm,
	})
	respond(w, r, ok, msg)
}

type setVelocityPayload struct {
	VX      float64      `json:"vx"`
	VY      float64      `json:"vy"`
	VZ      float64      `json:"vz"`
	Yaw     setpoint.Yaw `json:"yaw"`
	YawRate float64      `json:"yaw_rate"`
	FrameID string       `json:"frame_id"`
	AutoArm bool         `json:"auto_arm"`
}

func (p *setVelocityPayload) Bind(r *http.Request) error { return nil }

// SetVelocity serves set_velocity(vx,vy,vz,yaw,yaw_rate,frame_id,auto_arm).
func (c *Commands) SetVelocity(w http.ResponseWriter, r *http.Request) {
	p := &setVelocityPayload{}
	if !bind(w, r, p) {
		return
	}
	ok, msg := c.Validator.Validate(r.Context(), command.Request{
		Kind: command.KindVelocity, VX: p.VX, VY: p.VY, VZ: p.VZ,
		Yaw: p.Yaw.Float64(), YawRate: p.YawRate,
		FrameID: p.FrameID, AutoArm: p.AutoArm,
	})
	respond(w, r, ok, msg)
}

type setAttitudePayload struct {
	Roll    float64 `json:"roll"`
	Pitch   float64 `json:"pitch"`
	Yaw     float64 `json:"yaw"`
	Thrust  float64 `json:"thrust"`
	FrameID string  `json:"frame_id"`
	AutoArm bool    `json:"auto_arm"`
}

func (p *setAttitudePayload) Bind(r *http.Request) error { return nil }

// SetAttitude serves set_attitude(roll,pitch,yaw,thrust,frame_id,auto_arm).
func (c *Commands) SetAttitude(w http.ResponseWriter, r *http.Request) {
	p := &setAttitudePayload{}
	if !bind(w, r, p) {
		return
	}
	ok, msg := c.Validator.Validate(r.Context(), command.Request{
		Kind: command.KindAttitude, Roll: p.Roll, Pitch: p.Pitch, Yaw: p.Yaw,
		Thrust: p.Thrust, FrameID: p.FrameID, AutoArm: p.AutoArm,
	})
	respond(w, r, ok, msg)
}

type setRatesPayload struct {
	RollRate  float64 `json:"roll_rate"`
	PitchRate float64 `json:"pitch_rate"`
	YawRate   float64 `json:"yaw_rate"`
	Thrust    float64 `json:"thrust"`
	AutoArm   bool    `json:"auto_arm"`
}

func (p *setRatesPayload) Bind(r *http.Request) error { return nil }

// SetRates serves set_rates(roll_rate,pitch_rate,yaw_rate,thrust,auto_arm).
func (c *Commands) SetRates(w http.ResponseWriter, r *http.Request) {
	p := &setRatesPayload{}
	if !bind(w, r, p) {
		return
	}
	ok, msg := c.Validator.Validate(r.Context(), command.Request{
		Kind: command.KindRates, RollRate: p.RollRate, PitchRate: p.PitchRate,
		YawRate: p.YawRate, Thrust: p.Thrust, AutoArm: p.AutoArm,
	})
	respond(w, r, ok, msg)
}

// Land serves land().
func (c *Commands) Land(w http.ResponseWriter, r *http.Request) {
	ok, msg := c.Validator.Land(r.Context(), c.LandOnlyInOffboard)
	respond(w, r, ok, msg)
}
