package catalog

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
)

// Check validates v against the field and returns it in canonical form:
// numbers as float64, nested maps as map[string]any.
func (f FieldSpec) Check(v any) (any, error) {
	switch k := f.Kind.(type) {
	case Select:
		s, ok := v.(string)
		if !ok {
			return nil, apperr.Invalid(f.Name, "expected one of %v, got %T", k.Options, v)
		}
		if !k.Has(s) {
			return nil, apperr.Invalid(f.Name, "%q is not one of %v", s, k.Options)
		}
		return s, nil

	case Number:
		n, ok := ToFloat(v)
		if !ok {
			return nil, apperr.Invalid(f.Name, "expected a number, got %T", v)
		}
		if k.Min != nil && n < *k.Min {
			return nil, apperr.Invalid(f.Name, "%g is below the minimum %g", n, *k.Min)
		}
		if k.Max != nil && n > *k.Max {
			return nil, apperr.Invalid(f.Name, "%g is above the maximum %g", n, *k.Max)
		}
		return n, nil

	case NestedMap:
		m, ok := v.(map[string]any)
		if !ok {
			return nil, apperr.Invalid(f.Name, "expected an object, got %T", v)
		}
		out := make(map[string]any, len(m))
		for key, sub := range m {
			spec, ok := k.Field(key)
			if !ok {
				return nil, apperr.Invalid(f.Name+"."+key, "unknown sub-field")
			}
			spec.Name = f.Name + "." + key
			cv, err := spec.Check(sub)
			if err != nil {
				return nil, err
			}
			out[key] = cv
		}
		return out, nil

	default:
		panic(fmt.Sprintf("catalog: unhandled field kind %T", f.Kind))
	}
}

// DefaultValue returns the declared default. A nested map's default is the
// defaults of its sub-fields overlaid with the field's own default map, so
// every sub-field is present.
func (f FieldSpec) DefaultValue() any {
	switch k := f.Kind.(type) {
	case Select:
		if f.Default != nil {
			return f.Default
		}
		if len(k.Options) > 0 {
			return k.Options[0]
		}
		return ""

	case Number:
		if n, ok := ToFloat(f.Default); ok {
			return n
		}
		if k.Min != nil {
			return *k.Min
		}
		return 0.0

	case NestedMap:
		out := make(map[string]any, len(k.Fields))
		for _, sub := range k.Fields {
			out[sub.Name] = sub.DefaultValue()
		}
		if m, ok := f.Default.(map[string]any); ok {
			for key, v := range m {
				if n, ok := ToFloat(v); ok {
					v = n
				}
				out[key] = v
			}
		}
		return out

	default:
		panic(fmt.Sprintf("catalog: unhandled field kind %T", f.Kind))
	}
}

// ToFloat converts the numeric types produced by JSON and YAML decoding.
func ToFloat(v any) (float64, bool) {
	var n float64
	switch x := v.(type) {
	case float64:
		n = x
	case float32:
		n = float64(x)
	case int:
		n = float64(x)
	case int64:
		n = float64(x)
	case int32:
		n = float64(x)
	case uint64:
		n = float64(x)
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return 0, false
		}
		n = f
	case string:
		// form posts send numbers as strings
		f, err := strconv.ParseFloat(x, 64)
		if err != nil {
			return 0, false
		}
		n = f
	default:
		return 0, false
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return 0, false
	}
	return n, true
}
