package fragment

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ohler55/ojg/jp"
	"gopkg.in/yaml.v3"

	"github.com/starford/umwelt/internal/models"
)

// DefaultSelector picks the fragment list out of a phase document.
const DefaultSelector = "$.fragments[*]"

var phaseExts = []string{".json", ".yaml", ".yml"}

// ErrPhaseNotFound is returned when no file exists for a phase.
var ErrPhaseNotFound = errors.New("phase not found")

// Restorer reads the fragments of a phase from a project directory.
type Restorer struct {
	dir      string
	selector jp.Expr
	mapper   *Mapper
}

// NewRestorer creates a Restorer for the project directory dir. An empty
// selector means DefaultSelector.
func NewRestorer(dir, selector string) (*Restorer, error) {
	if selector == "" {
		selector = DefaultSelector
	}
	x, err := jp.ParseString(selector)
	if err != nil {
		return nil, fmt.Errorf("fragment: invalid selector %q: %w", selector, err)
	}
	return &Restorer{dir: dir, selector: x, mapper: NewMapper()}, nil
}

// PhasePath returns the file holding the given phase.
func (r *Restorer) PhasePath(phase string) (string, error) {
	if phase == "" || phase != filepath.Base(phase) {
		return "", fmt.Errorf("fragment: invalid phase name %q", phase)
	}
	for _, ext := range phaseExts {
		p := filepath.Join(r.dir, "phases", phase+ext)
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", fmt.Errorf("fragment: %w: %s", ErrPhaseNotFound, phase)
}

// Restore reads and maps the fragments of phase, keeping document order.
func (r *Restorer) Restore(phase string) ([]models.Fragment, error) {
	p, err := r.PhasePath(phase)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return nil, fmt.Errorf("fragment: read %s: %w", p, err)
	}
	doc, err := decode(p, data)
	if err != nil {
		return nil, err
	}
	return r.mapper.MapAll(r.selector.Get(doc))
}

func decode(path string, data []byte) (any, error) {
	var doc any
	switch filepath.Ext(path) {
	case ".json":
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("fragment: parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("fragment: parse %s: %w", path, err)
		}
	}
	return doc, nil
}
