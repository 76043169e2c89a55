package handlers

import (
	"encoding/json"
	"fmt"
	"math"
)

// OptionalInt tells an absent JSON field from an explicit null. Any whole
// JSON number is accepted, so 7 and 7.0 decode alike.
type OptionalInt struct {
	Set   bool // the field was present
	Valid bool // the field was present and not null
	Value int
}

func (o *OptionalInt) UnmarshalJSON(data []byte) error {
	o.Set = true
	if string(data) == "null" {
		o.Valid = false
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("expected a whole number, got %s", data)
	}
	o.Value = int(f)
	o.Valid = true
	return nil
}
