package catalog

// GameDefinition describes one game and the fields a therapist may tune.
// Definitions are immutable once loaded.
type GameDefinition struct {
	Name        string      `json:"name"`
	DisplayName string      `json:"displayName"`
	Description string      `json:"description"`
	Fields      []FieldSpec `json:"fields"`
}

// Field returns the declared field with the given name.
func (d *GameDefinition) Field(name string) (FieldSpec, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}

// FieldSpec is one configurable field. Kind is one of Select, Number or
// NestedMap; there is no other kind.
type FieldSpec struct {
	Name    string `json:"name"`
	Label   string `json:"label,omitempty"`
	Default any    `json:"default,omitempty"`
	Kind    Kind   `json:"kind"`
}

// Kind is the closed set of field kinds. Switches over it should handle every
// case and panic on anything else.
type Kind interface {
	kind() string
}

type Select struct {
	Options []string `json:"options"`
}

type Number struct {
	Min  *float64 `json:"min,omitempty"`
	Max  *float64 `json:"max,omitempty"`
	Step float64  `json:"step,omitempty"`
}

type NestedMap struct {
	Fields []FieldSpec `json:"fields"`
}

func (Select) kind() string    { return KindSelect }
func (Number) kind() string    { return KindNumber }
func (NestedMap) kind() string { return KindNestedMap }

const (
	KindSelect    = "select"
	KindNumber    = "number"
	KindNestedMap = "nested"
)

// KindName returns the wire name of k.
func KindName(k Kind) string {
	if k == nil {
		return ""
	}
	return k.kind()
}

// Has reports whether v is one of the options.
func (s Select) Has(v string) bool {
	for _, o := range s.Options {
		if o == v {
			return true
		}
	}
	return false
}

// Field returns the sub-field with the given name.
func (n NestedMap) Field(name string) (FieldSpec, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldSpec{}, false
}
