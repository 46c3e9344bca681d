package setpoint

import (
	"encoding/json"
	"fmt"
	"math"
)

// Yaw carries the yaw sentinel convention across encoding/json, which
// has no way to write a bare NaN or +Inf numeric literal (both fail
// Marshal, and neither is valid JSON syntax for Unmarshal to accept).
// A JSON null decodes to NaN ("use yaw_rate"); the string "towards"
// decodes to +Inf ("face the navigation target"); any other value must
// be a finite JSON number, the absolute yaw in radians.
type Yaw float64

// Float64 is the sentinel-carrying value DecodeYaw expects.
func (y Yaw) Float64() float64 { return float64(y) }

func (y Yaw) MarshalJSON() ([]byte, error) {
	switch {
	case isNaN(float64(y)):
		return []byte("null"), nil
	case isPosInf(float64(y)):
		return []byte(`"towards"`), nil
	default:
		return json.Marshal(float64(y))
	}
}

func (y *Yaw) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*y = Yaw(math.NaN())
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != "towards" {
			return fmt.Errorf("setpoint: unrecognized yaw sentinel %q, want \"towards\"", s)
		}
		*y = Yaw(math.Inf(1))
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*y = Yaw(f)
	return nil
}
