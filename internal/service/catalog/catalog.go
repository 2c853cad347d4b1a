// Package catalog holds the game definitions therapists configure per patient.
package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"sort"
)

//go:embed default_catalog.yaml
var defaultCatalog []byte

// Service is the read-only game catalog.
type Service interface {
	List() []GameDefinition
	Get(name string) (*GameDefinition, error)
}

type catalogService struct {
	games []GameDefinition
	index map[string]int
}

// New builds a catalog from already-decoded definitions.
func New(games []GameDefinition) Service {
	sorted := make([]GameDefinition, len(games))
	copy(sorted, games)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	idx := make(map[string]int, len(sorted))
	for i, g := range sorted {
		idx[g.Name] = i
	}
	return &catalogService{games: sorted, index: idx}
}

// Load reads the catalog at path, or the embedded default when path is empty.
func Load(path string) (Service, error) {
	data := defaultCatalog
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read catalog %q: %w", path, err)
		}
		data = b
	}
	games, err := Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return New(games), nil
}

func (s *catalogService) List() []GameDefinition {
	out := make([]GameDefinition, len(s.games))
	copy(out, s.games)
	return out
}

func (s *catalogService) Get(name string) (*GameDefinition, error) {
	i, ok := s.index[name]
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrGameNotFound)
	}
	g := s.games[i]
	return &g, nil
}
