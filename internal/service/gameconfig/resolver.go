package gameconfig

import (
	"maps"
	"slices"

	"github.com/Alijeyrad/playcare_backend/internal/repo"
	"github.com/Alijeyrad/playcare_backend/internal/service/catalog"
	"github.com/Alijeyrad/playcare_backend/pkg/apperr"
)

// BubbleGame is the one game with a richer built-in baseline.
const BubbleGame = "bubble_game"

const (
	KeyEnabled    = "enabled"
	KeyDifficulty = "difficulty"
)

// Difficulties is the difficulty enum used when a game does not declare its own.
var Difficulties = []string{"easy", "medium", "hard"}

// Values is a fully resolved configuration: every declared field is present.
type Values map[string]any

// Enabled reports the enabled flag; a missing or malformed flag counts as on.
func (v Values) Enabled() bool {
	b, ok := v[KeyEnabled].(bool)
	return !ok || b
}

// Baseline returns the built-in seed for a game.
func Baseline(game string) Values {
	base := Values{
		KeyEnabled:    true,
		KeyDifficulty: "medium",
	}
	if game == BubbleGame {
		base["targetScore"] = 100.0
		base["bubbleSpeed"] = 2.0
		base["bubbleLifetime"] = 5.0
		base["bubbleSize"] = 60.0
		base["bubbleCount"] = 8.0
		base["spawnArea"] = map[string]any{"width": 800.0, "height": 600.0}
	}
	return base
}

// Resolve merges the baseline, the definition's defaults and the stored
// overrides, in that order. Nested maps merge per sub-key. Stored keys that
// are neither declared nor part of the baseline are dropped. Any stored value
// that violates its field's constraints fails with a ValidationError.
func Resolve(def *catalog.GameDefinition, stored map[string]any) (Values, error) {
	out := Baseline(def.Name)

	for _, f := range def.Fields {
		cur, set := out[f.Name]
		if !set {
			out[f.Name] = f.DefaultValue()
			continue
		}
		out[f.Name] = fitBaseline(f, cur)
	}

	for _, key := range slices.Sorted(maps.Keys(stored)) {
		v := stored[key]

		f, declared := def.Field(key)
		if !declared {
			if _, inBase := out[key]; !inBase {
				continue
			}
			cv, err := checkBaseline(key, v)
			if err != nil {
				return nil, err
			}
			out[key] = cv
			continue
		}

		cv, err := f.Check(v)
		if err != nil {
			return nil, err
		}
		if sub, ok := cv.(map[string]any); ok {
			merged := repo.CloneMap(asMap(out[key]))
			if merged == nil {
				merged = make(map[string]any, len(sub))
			}
			maps.Copy(merged, sub)
			cv = merged
		}
		out[key] = cv
	}

	return out, nil
}

// UnknownKeys lists submitted keys the game does not know about.
func UnknownKeys(def *catalog.GameDefinition, values map[string]any) []string {
	base := Baseline(def.Name)
	var out []string
	for key := range values {
		if _, ok := def.Field(key); ok {
			continue
		}
		if _, ok := base[key]; ok {
			continue
		}
		out = append(out, key)
	}
	slices.Sort(out)
	return out
}

// checkBaseline validates keys that come from the baseline but are not
// declared by the definition.
func checkBaseline(key string, v any) (any, error) {
	switch key {
	case KeyEnabled:
		b, ok := v.(bool)
		if !ok {
			return nil, apperr.Invalid(key, "expected true or false, got %T", v)
		}
		return b, nil
	case KeyDifficulty:
		s, ok := v.(string)
		if !ok || !slices.Contains(Difficulties, s) {
			return nil, apperr.Invalid(key, "expected one of %v, got %v", Difficulties, v)
		}
		return s, nil
	case "spawnArea":
		m, ok := v.(map[string]any)
		if !ok {
			return nil, apperr.Invalid(key, "expected an object, got %T", v)
		}
		out := map[string]any{"width": 800.0, "height": 600.0}
		for sub, sv := range m {
			n, ok := catalog.ToFloat(sv)
			if !ok || n <= 0 {
				return nil, apperr.Invalid(key+"."+sub, "expected a positive number, got %v", sv)
			}
			out[sub] = n
		}
		return out, nil
	default:
		n, ok := catalog.ToFloat(v)
		if !ok {
			return nil, apperr.Invalid(key, "expected a number, got %T", v)
		}
		return n, nil
	}
}

// fitBaseline keeps a baseline value only where the declared field accepts
// it. Rejected values and undeclared nested sub-keys give way to the
// field's defaults, so resolved output always passes Check.
func fitBaseline(f catalog.FieldSpec, base any) any {
	nested, ok := f.Kind.(catalog.NestedMap)
	if !ok {
		if cv, err := f.Check(base); err == nil {
			return cv
		}
		return f.DefaultValue()
	}

	merged := f.DefaultValue().(map[string]any)
	for key, v := range asMap(base) {
		spec, declared := nested.Field(key)
		if !declared {
			continue
		}
		if cv, err := spec.Check(v); err == nil {
			merged[key] = cv
		}
	}
	return merged
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}
