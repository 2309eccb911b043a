// Package project reads and writes the project files kept in the umwelt
// directory (project.json, history.json).
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/umwelt/internal/apperr"
	"github.com/starford/umwelt/internal/models"
	"github.com/starford/umwelt/internal/storage"
)

const (
	projectFile = "project.json"
	historyFile = "history.json"
)

// Dir is an umwelt project directory.
type Dir struct {
	path string
}

// Open returns the project directory at path. The directory is created on
// the first write.
func Open(path string) *Dir {
	return &Dir{path: path}
}

// Path returns the directory path.
func (d *Dir) Path() string {
	return d.path
}

// Restore reads project.json.
func (d *Dir) Restore() (*models.Project, error) {
	fs, err := storage.NewFS(d.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("project: %s: %w", d.path, apperr.ErrNotFound)
		}
		return nil, err
	}
	data, err := fs.Read(projectFile)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("project: %s: %w", projectFile, apperr.ErrNotFound)
		}
		return nil, err
	}

	var p models.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("project: parse %s: %w", projectFile, err)
	}
	if err := validation.ValidateStruct(&p,
		validation.Field(&p.Name, validation.Required),
	); err != nil {
		return nil, fmt.Errorf("project: invalid %s: %w", projectFile, err)
	}
	return &p, nil
}

// StoreProject writes project.json.
func (d *Dir) StoreProject(p models.Project) (*storage.Ledger, error) {
	return d.store(projectFile, p)
}

// StoreHistory writes history.json as indented JSON and returns the ledger
// of the write.
func (d *Dir) StoreHistory(h models.History) (*storage.Ledger, error) {
	if h.Phases == nil {
		h.Phases = []models.Phase{}
	}
	return d.store(historyFile, h)
}

// StorePhase writes the fragments of a phase to phases/<phase>.json.
func (d *Dir) StorePhase(phase string, fragments []models.Fragment) (*storage.Ledger, error) {
	if phase == "" || phase != filepath.Base(phase) {
		return nil, fmt.Errorf("project: invalid phase name %q", phase)
	}
	if fragments == nil {
		fragments = []models.Fragment{}
	}
	doc := struct {
		Fragments []models.Fragment `json:"fragments"`
	}{Fragments: fragments}
	return d.store(filepath.Join("phases", phase+".json"), doc)
}

func (d *Dir) store(name string, v any) (*storage.Ledger, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("project: encode %s: %w", name, err)
	}

	fs, err := storage.EnsureFS(d.path)
	if err != nil {
		return nil, err
	}
	n, err := fs.Write(name, data)
	if err != nil {
		return nil, err
	}
	abs, err := fs.Abs(name)
	if err != nil {
		return nil, err
	}

	ledger := storage.NewLedger()
	ledger.Record(abs, n)
	return ledger, nil
}

// RestoreHistory reads history.json. A missing file yields an empty history
// for the given project.
func (d *Dir) RestoreHistory(p models.Project) (*models.History, error) {
	data, err := os.ReadFile(d.historyPath())
	if errors.Is(err, os.ErrNotExist) {
		return &models.History{Project: p, Phases: []models.Phase{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("project: read %s: %w", historyFile, err)
	}
	var h models.History
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("project: parse %s: %w", historyFile, err)
	}
	return &h, nil
}

func (d *Dir) historyPath() string {
	return filepath.Join(d.path, historyFile)
}
