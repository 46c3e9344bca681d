package service

import (
	"encoding/json"
	"math"
)

// NullFloat64 carries a possibly-NaN telemetry value across
// encoding/json, which rejects NaN outright (render.JSON and a plain
// json.Marshal both error on it). NaN marshals as JSON null; anything
// else marshals as the number itself.
type NullFloat64 float64

func (f NullFloat64) MarshalJSON() ([]byte, error) {
	if math.IsNaN(float64(f)) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(f))
}

func (f *NullFloat64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = NullFloat64(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = NullFloat64(v)
	return nil
}

func (f NullFloat64) IsNaN() bool { return math.IsNaN(float64(f)) }
