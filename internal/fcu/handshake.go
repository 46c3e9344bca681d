package fcu

import (
	"context"
	"fmt"
	"time"

	"github.com/skyward-robotics/offboard-bridge/internal/telemetry"
)

// pollInterval is the handshake's polling cadence, the same one
// frames.Service uses for wait_transform.
const pollInterval = 100 * time.Millisecond

// Timeouts bundles the handshake-related durations.
type Timeouts struct {
	Offboard time.Duration
	Arming   time.Duration
	Land     time.Duration
}

// Handshake drives the FCU through the OFFBOARD + arm sequence, in the
// same shape as simple_offboard.cpp's offboardAndArm(): same polling
// cadence, same timeout-plus-statustext error message.
type Handshake struct {
	Driver   Driver
	Cache    *telemetry.Cache
	Timeouts Timeouts
	Now      func() time.Time
}

// augment appends the newest status-text line stamped after start, if
// any, to msg.
func (h *Handshake) augment(msg string, start time.Time) string {
	st, ok := h.Cache.LatestStatusTextAfter(start)
	if !ok {
		return msg
	}
	return fmt.Sprintf("%s: %s", msg, st.Text)
}

func (h *Handshake) sleep(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(pollInterval):
		return nil
	}
}

// OffboardAndArm requests OFFBOARD mode (if not already in it) then
// arms (if not already armed), each bounded by its own timeout. The
// setpoint tick keeps running on its own goroutine throughout — this
// function only polls telemetry, it never touches engine state.
func (h *Handshake) OffboardAndArm(ctx context.Context) error {
	now := h.Now
	start := now()

	if state, _ := h.Cache.StateFresh(start); state.Mode != "OFFBOARD" {
		if err := h.Driver.SetMode(ctx, "OFFBOARD"); err != nil {
			return fmt.Errorf("error calling set_mode service: %w", err)
		}

		for {
			if state, _ := h.Cache.StateFresh(now()); state.Mode == "OFFBOARD" {
				break
			}
			if now().Sub(start) > h.Timeouts.Offboard {
				return fmt.Errorf("%s", h.augment("OFFBOARD timed out", start))
			}
			if err := h.sleep(ctx); err != nil {
				return err
			}
		}
	}

	if state, _ := h.Cache.StateFresh(now()); !state.Armed {
		armStart := now()
		if err := h.Driver.Arm(ctx, true); err != nil {
			return fmt.Errorf("error calling arming service: %w", err)
		}

		for {
			if state, _ := h.Cache.StateFresh(now()); state.Armed {
				break
			}
			if now().Sub(armStart) > h.Timeouts.Arming {
				return fmt.Errorf("%s", h.augment("Arming timed out", armStart))
			}
			if err := h.sleep(ctx); err != nil {
				return err
			}
		}
	}

	return nil
}

// Land requests "AUTO.LAND", then polls until the reported mode
// matches it or land_timeout elapses, augmenting the timeout error the
// same way OffboardAndArm does. It never touches engine state.
func (h *Handshake) Land(ctx context.Context) error {
	if err := h.Driver.SetMode(ctx, "AUTO.LAND"); err != nil {
		return fmt.Errorf("can't call set_mode service: %w", err)
	}

	start := h.Now()
	for {
		if state, _ := h.Cache.StateFresh(h.Now()); state.Mode == "AUTO.LAND" {
			return nil
		}
		if h.Now().Sub(start) > h.Timeouts.Land {
			return fmt.Errorf("%s", h.augment("Land request timed out", start))
		}
		if err := h.sleep(ctx); err != nil {
			return err
		}
	}
}
