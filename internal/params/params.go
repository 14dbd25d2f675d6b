// Package params sanitizes raw, user-supplied model parameters into
// validated per-family parameter sets. Each family recognizes a fixed set
// of optional fields; anything else is rejected. Construction merges the
// family's baseline stop sequences from the model defaults and injects the
// default temperature when the user supplied none.
package params

import (
	"encoding/json"
	"sort"
	"strconv"

	"github.com/mikey/llm-chat-backend/internal/core"
	"github.com/mikey/llm-chat-backend/internal/defaults"
)

// ModelParams is a sanitized, family-specific parameter set. ToMap with
// popNull=true omits nil fields and an empty stop-sequence list; with
// popNull=false every declared field is present.
type ModelParams interface {
	ToMap(popNull bool) map[string]any
}

// Sanitizer builds a sanitized parameter set from raw user parameters and
// the stored model defaults.
type Sanitizer func(raw map[string]any, md *defaults.ModelDefaults) (ModelParams, error)

// MergeStopSequences returns the sorted, de-duplicated union of the default
// and user stop sequences. The result is never nil.
func MergeStopSequences(defaultStops, userStops []string) []string {
	set := make(map[string]struct{}, len(defaultStops)+len(userStops))
	for _, s := range defaultStops {
		set[s] = struct{}{}
	}
	for _, s := range userStops {
		set[s] = struct{}{}
	}
	merged := make([]string, 0, len(set))
	for s := range set {
		merged = append(merged, s)
	}
	sort.Strings(merged)
	return merged
}

func unrecognized(family core.BedrockModelFamily, key string) error {
	return core.NewValidationError(
		"unrecognized model parameter %q for the %s model family", key, family)
}

// floatValue coerces a raw value to *float64. A nil value stays nil.
func floatValue(key string, v any) (*float64, error) {
	if v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case float64:
		return &val, nil
	case float32:
		f := float64(val)
		return &f, nil
	case int:
		f := float64(val)
		return &f, nil
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return nil, core.NewValidationError("model parameter %q is not numeric: %v", key, v)
		}
		return &f, nil
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, core.NewValidationError("model parameter %q is not numeric: %v", key, v)
		}
		return &f, nil
	default:
		return nil, core.NewValidationError("model parameter %q is not numeric: %v", key, v)
	}
}

// intValue coerces a raw value to *int. A nil value stays nil.
func intValue(key string, v any) (*int, error) {
	if v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case int:
		return &val, nil
	case float64:
		i := int(val)
		return &i, nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return nil, core.NewValidationError("model parameter %q is not an integer: %v", key, v)
		}
		i := int(n)
		return &i, nil
	case string:
		i, err := strconv.Atoi(val)
		if err != nil {
			return nil, core.NewValidationError("model parameter %q is not an integer: %v", key, v)
		}
		return &i, nil
	default:
		return nil, core.NewValidationError("model parameter %q is not an integer: %v", key, v)
	}
}

// stringValue coerces a raw value to *string. A nil value stays nil.
func stringValue(key string, v any) (*string, error) {
	if v == nil {
		return nil, nil
	}
	s, ok := v.(string)
	if !ok {
		return nil, core.NewValidationError("model parameter %q is not a string: %v", key, v)
	}
	return &s, nil
}

// stringSliceValue coerces a raw value to []string. A nil value stays nil.
func stringSliceValue(key string, v any) ([]string, error) {
	if v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case []string:
		return val, nil
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			s, ok := item.(string)
			if !ok {
				return nil, core.NewValidationError("model parameter %q must be a list of strings: %v", key, v)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, core.NewValidationError("model parameter %q must be a list of strings: %v", key, v)
	}
}

// mapValue coerces a raw value to a JSON object. A nil value stays nil.
func mapValue(key string, v any) (map[string]any, error) {
	if v == nil {
		return nil, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, core.NewValidationError("model parameter %q must be an object: %v", key, v)
	}
	return m, nil
}

func putFloat(m map[string]any, key string, v *float64, popNull bool) {
	if v == nil {
		if !popNull {
			m[key] = nil
		}
		return
	}
	m[key] = *v
}

func putInt(m map[string]any, key string, v *int, popNull bool) {
	if v == nil {
		if !popNull {
			m[key] = nil
		}
		return
	}
	m[key] = *v
}

func putString(m map[string]any, key string, v *string, popNull bool) {
	if v == nil {
		if !popNull {
			m[key] = nil
		}
		return
	}
	m[key] = *v
}

func putMap(m map[string]any, key string, v map[string]any, popNull bool) {
	if v == nil {
		if !popNull {
			m[key] = nil
		}
		return
	}
	m[key] = v
}

// putStops writes the stop-sequence field. An empty list is omitted when
// popNull is set, included otherwise.
func putStops(m map[string]any, key string, stops []string, popNull bool) {
	if len(stops) == 0 {
		if !popNull {
			m[key] = stops
		}
		return
	}
	m[key] = stops
}

// defaultTemperature returns the user's temperature, or the recorded
// default when the user supplied none.
func defaultTemperature(t *float64, md *defaults.ModelDefaults) *float64 {
	if t != nil {
		return t
	}
	d := md.DefaultTemperature
	return &d
}
