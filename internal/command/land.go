package command

import (
	"context"
)

// Land requests AUTO.LAND and, when landOnlyInOffboard is set, first
// requires the current mode be OFFBOARD, guarding against landing from
// an autonomous mode by accident.
func (v *Validator) Land(ctx context.Context, landOnlyInOffboard bool) (success bool, message string) {
	if !v.Engine.TryBegin() {
		return false, ErrBusy
	}
	defer v.Engine.EndCommand()

	now := v.Now()

	state, fresh := v.Cache.StateFresh(now)
	if !fresh {
		return false, ErrStateTimeout
	}
	if !state.Connected {
		return false, ErrDisconnected
	}

	if landOnlyInOffboard && state.Mode != "OFFBOARD" {
		return false, ErrLandNotOffboard
	}

	if err := v.Handshake.Land(ctx); err != nil {
		return false, err.Error()
	}

	return true, ""
}
