package catalog

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// rawField is the flat wire shape of a FieldSpec, shared by the YAML catalog
// file and the JSON API.
type rawField struct {
	Name    string     `yaml:"name" json:"name"`
	Label   string     `yaml:"label,omitempty" json:"label,omitempty"`
	Type    string     `yaml:"type" json:"type"`
	Default any        `yaml:"default,omitempty" json:"default,omitempty"`
	Options []string   `yaml:"options,omitempty" json:"options,omitempty"`
	Min     *float64   `yaml:"min,omitempty" json:"min,omitempty"`
	Max     *float64   `yaml:"max,omitempty" json:"max,omitempty"`
	Step    float64    `yaml:"step,omitempty" json:"step,omitempty"`
	Fields  []rawField `yaml:"fields,omitempty" json:"fields,omitempty"`
}

type rawGame struct {
	Name        string     `yaml:"name"`
	DisplayName string     `yaml:"displayName"`
	Description string     `yaml:"description"`
	Fields      []rawField `yaml:"fields"`
}

type rawCatalog struct {
	Games []rawGame `yaml:"games"`
}

// Decode reads a YAML catalog and checks every declared default against its
// own constraints.
func Decode(r io.Reader) ([]GameDefinition, error) {
	var raw rawCatalog
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	seen := make(map[string]struct{}, len(raw.Games))
	out := make([]GameDefinition, 0, len(raw.Games))
	for _, g := range raw.Games {
		if g.Name == "" {
			return nil, fmt.Errorf("catalog: game without a name")
		}
		if _, dup := seen[g.Name]; dup {
			return nil, fmt.Errorf("catalog: duplicate game %q", g.Name)
		}
		seen[g.Name] = struct{}{}

		fields, err := convertFields(g.Name, g.Fields)
		if err != nil {
			return nil, err
		}
		out = append(out, GameDefinition{
			Name:        g.Name,
			DisplayName: g.DisplayName,
			Description: g.Description,
			Fields:      fields,
		})
	}
	return out, nil
}

func convertFields(path string, in []rawField) ([]FieldSpec, error) {
	out := make([]FieldSpec, 0, len(in))
	for _, rf := range in {
		f, err := rf.toSpec(path)
		if err != nil {
			return nil, err
		}
		if f.Default != nil {
			if _, err := f.Check(f.DefaultValue()); err != nil {
				return nil, fmt.Errorf("catalog: %s: bad default: %w", path, err)
			}
		}
		out = append(out, f)
	}
	return out, nil
}

func (rf rawField) toSpec(path string) (FieldSpec, error) {
	f := FieldSpec{Name: rf.Name, Label: rf.Label, Default: normalize(rf.Default)}
	if rf.Name == "" {
		return f, fmt.Errorf("catalog: %s: field without a name", path)
	}

	switch rf.Type {
	case KindSelect:
		if len(rf.Options) == 0 {
			return f, fmt.Errorf("catalog: %s.%s: select needs options", path, rf.Name)
		}
		f.Kind = Select{Options: rf.Options}
	case KindNumber:
		if rf.Min != nil && rf.Max != nil && *rf.Min > *rf.Max {
			return f, fmt.Errorf("catalog: %s.%s: min above max", path, rf.Name)
		}
		f.Kind = Number{Min: rf.Min, Max: rf.Max, Step: rf.Step}
	case KindNestedMap:
		subs, err := convertFields(path+"."+rf.Name, rf.Fields)
		if err != nil {
			return f, err
		}
		f.Kind = NestedMap{Fields: subs}
	default:
		return f, fmt.Errorf("catalog: %s.%s: unknown field type %q", path, rf.Name, rf.Type)
	}
	return f, nil
}

func (f FieldSpec) toRaw() rawField {
	rf := rawField{Name: f.Name, Label: f.Label, Type: KindName(f.Kind), Default: f.Default}
	switch k := f.Kind.(type) {
	case Select:
		rf.Options = k.Options
	case Number:
		rf.Min, rf.Max, rf.Step = k.Min, k.Max, k.Step
	case NestedMap:
		for _, sub := range k.Fields {
			rf.Fields = append(rf.Fields, sub.toRaw())
		}
	}
	return rf
}

// MarshalJSON flattens the kind into a "type" tag plus its constraints.
func (f FieldSpec) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.toRaw())
}

// normalize converts YAML-decoded defaults to the JSON shapes the resolver
// works with.
func normalize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, sub := range x {
			out[k] = normalize(sub)
		}
		return out
	case int, int64, float32:
		n, _ := ToFloat(x)
		return n
	default:
		return v
	}
}
