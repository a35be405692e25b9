package evaluator

import (
	"math"

	"github.com/goccy/go-json"
)

// ValueToJSON marshals a Value to JSON bytes. None becomes null; non-finite
// floats, which JSON cannot represent, become their printed form.
func ValueToJSON(v Value) ([]byte, error) {
	return json.Marshal(valueToRaw(v))
}

// ValueToJSONString is a convenience that returns a string.
func ValueToJSONString(v Value) string {
	b, err := ValueToJSON(v)
	if err != nil {
		return "null"
	}
	return string(b)
}

func valueToRaw(v Value) any {
	switch val := v.(type) {
	case IntValue:
		return val.Value
	case FloatValue:
		if math.IsNaN(val.Value) || math.IsInf(val.Value, 0) {
			return val.String()
		}
		return val.Value
	case StringValue:
		return val.Value
	case BoolValue:
		return val.Value
	}
	return nil
}
