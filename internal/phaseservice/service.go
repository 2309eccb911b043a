// Package phaseservice coordinates project files, fragment restore, tree
// imprinting and the journal. It is shared by the CLI and the MCP server.
package phaseservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/starford/umwelt/internal/apperr"
	"github.com/starford/umwelt/internal/fragment"
	"github.com/starford/umwelt/internal/journal"
	"github.com/starford/umwelt/internal/models"
	"github.com/starford/umwelt/internal/node"
	"github.com/starford/umwelt/internal/project"
	"github.com/starford/umwelt/internal/storage"
	"github.com/starford/umwelt/internal/tree"
)

// FirstPhase is the phase created by Init.
const FirstPhase = "1"

// NodeItem is the flat representation of a node.
type NodeItem struct {
	ID       int      `json:"id"`
	ParentID *int     `json:"parent_id"`
	Kind     string   `json:"kind"`
	Label    string   `json:"label"`
	Note     string   `json:"note,omitempty"`
	Ancestry []string `json:"ancestry"`
	Childs   int      `json:"childs"`
}

// ImprintRequest selects what to imprint and where.
type ImprintRequest struct {
	Phase    string
	Semantic string
	// Target overrides the default output directory when set.
	Target string
}

// ImprintResult is a finished, journaled imprint.
type ImprintResult struct {
	ID       string                `json:"id"`
	Phase    string                `json:"phase"`
	Semantic string                `json:"semantic"`
	Root     string                `json:"root"`
	Files    []journal.WrittenFile `json:"files"`
	Bytes    int                   `json:"bytes"`
}

// Option configures a Service.
type Option func(*Service)

// WithWorkdir sets the directory relative targets are resolved against.
func WithWorkdir(dir string) Option {
	return func(s *Service) {
		s.workdir = dir
	}
}

// WithWorkers sets the render concurrency of imprints.
func WithWorkers(n int) Option {
	return func(s *Service) {
		s.workers = n
	}
}

// WithTarget sets the default imprint target.
func WithTarget(target string) Option {
	return func(s *Service) {
		s.target = target
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Service runs phase operations against one project directory.
type Service struct {
	dir      *project.Dir
	restorer *fragment.Restorer
	journal  journal.Journal
	workdir  string
	workers  int
	target   string
	logger   *slog.Logger
}

// NewService creates a Service for the project directory dir. selector is
// the JSONPath picking fragments out of phase files; empty means the default.
func NewService(dir string, selector string, j journal.Journal, opts ...Option) (*Service, error) {
	restorer, err := fragment.NewRestorer(dir, selector)
	if err != nil {
		return nil, err
	}
	s := &Service{
		dir:      project.Open(dir),
		restorer: restorer,
		journal:  j,
		workers:  1,
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Init creates project.json, an empty history and a first phase holding a
// single root fragment named after the project.
func (s *Service) Init(_ context.Context, name, note string) (*storage.Ledger, error) {
	if _, err := s.dir.Restore(); err == nil {
		return nil, fmt.Errorf("phaseservice: project in %s: %w", s.dir.Path(), apperr.ErrAlreadyExists)
	} else if !errors.Is(err, apperr.ErrNotFound) {
		return nil, err
	}

	root := models.Fragment{ID: 1, Kind: models.KindRoot, Body: name, Note: note}
	if err := fragment.Validate(root); err != nil {
		return nil, fmt.Errorf("phaseservice: project name %q: %w", name, err)
	}

	p := models.Project{Name: name, Note: note}
	ledger := storage.NewLedger()
	steps := []func() (*storage.Ledger, error){
		func() (*storage.Ledger, error) { return s.dir.StoreProject(p) },
		func() (*storage.Ledger, error) {
			return s.dir.StoreHistory(models.History{
				Project: p,
				Phases:  []models.Phase{{ID: 1, Note: "initial", Created: time.Now().UTC()}},
			})
		},
		func() (*storage.Ledger, error) { return s.dir.StorePhase(FirstPhase, []models.Fragment{root}) },
	}
	for _, step := range steps {
		l, err := step()
		if err != nil {
			return nil, err
		}
		for _, path := range l.Paths() {
			n, _ := l.Bytes(path)
			ledger.Record(path, n)
		}
	}

	s.logger.Info("project initialised",
		slog.String("dir", s.dir.Path()),
		slog.String("name", name),
		slog.Int("files", ledger.Len()))
	return ledger, nil
}

// Project returns the project description and its history.
func (s *Service) Project(_ context.Context) (*models.History, error) {
	p, err := s.dir.Restore()
	if err != nil {
		return nil, err
	}
	return s.dir.RestoreHistory(*p)
}

// Trunk restores and fills the given phase.
func (s *Service) Trunk(_ context.Context, phase string) (*tree.Trunk, error) {
	fragments, err := s.restorer.Restore(phase)
	if err != nil {
		return nil, err
	}
	return tree.Fill(fragments)
}

// Outline renders a phase as an indented tree, one node per line, parents
// before children.
func (s *Service) Outline(ctx context.Context, phase string) (string, error) {
	trunk, err := s.Trunk(ctx, phase)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	trunk.Walk(func(n node.Node, depth int) bool {
		fmt.Fprintf(&b, "%s%s [%s #%d]\n", strings.Repeat("  ", depth), n.Label(), n.Kind(), n.ID())
		return true
	})
	return b.String(), nil
}

// Nodes lists every node of a phase in ingestion order.
func (s *Service) Nodes(ctx context.Context, phase string) ([]NodeItem, error) {
	trunk, err := s.Trunk(ctx, phase)
	if err != nil {
		return nil, err
	}
	return items(trunk, trunk.Nodes())
}

// Childs lists the direct children of node id in a phase.
func (s *Service) Childs(ctx context.Context, phase string, id int) ([]NodeItem, error) {
	trunk, err := s.Trunk(ctx, phase)
	if err != nil {
		return nil, err
	}
	childs, err := trunk.Childs(id)
	if err != nil {
		return nil, err
	}
	return items(trunk, childs)
}

// Imprint restores a phase, imprints it and records the run in the journal.
func (s *Service) Imprint(ctx context.Context, req ImprintRequest) (*ImprintResult, error) {
	if !node.IsSemantic(req.Semantic) {
		return nil, &node.UnknownSemanticError{Name: req.Semantic}
	}
	target := req.Target
	if target == "" {
		target = s.target
	}

	trunk, err := s.Trunk(ctx, req.Phase)
	if err != nil {
		return nil, err
	}

	res, err := tree.NewImprint(trunk,
		tree.WithLocation(target),
		tree.WithWorkdir(s.workdir),
		tree.WithWorkers(s.workers),
		tree.WithLogger(s.logger),
	).Call(ctx, req.Semantic)
	if err != nil {
		return nil, err
	}

	files, err := journal.Collect(res.WrittenPaths)
	if err != nil {
		return nil, err
	}
	id, err := s.journal.Record(journal.Entry{
		Phase:    req.Phase,
		Semantic: req.Semantic,
		Root:     res.Root,
	}, files)
	if err != nil {
		return nil, err
	}

	s.logger.Info("imprint recorded",
		slog.String("id", id),
		slog.String("phase", req.Phase),
		slog.String("root", res.Root))

	return &ImprintResult{
		ID:       id,
		Phase:    req.Phase,
		Semantic: req.Semantic,
		Root:     res.Root,
		Files:    files,
		Bytes:    res.WrittenPaths.Total(),
	}, nil
}

// Imprints lists recent journal entries.
func (s *Service) Imprints(_ context.Context, limit int) ([]journal.Entry, error) {
	return s.journal.List(limit)
}

// Verify checks a journaled imprint against the disk.
func (s *Service) Verify(_ context.Context, id string) (*journal.Report, error) {
	return s.journal.Verify(id)
}

// Clean removes the files of a journaled imprint that are still unchanged,
// then removes the directories they leave empty. Changed files, files the
// imprint did not write, other directories and the root itself are kept.
func (s *Service) Clean(ctx context.Context, id string) (*journal.Report, error) {
	r, err := s.journal.Verify(id)
	if err != nil {
		return nil, err
	}
	fsys, err := storage.NewFS(r.Entry.Root)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, err
	}
	var removed []string
	for _, p := range r.Intact {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(fsys.Root(), p)
		if err != nil {
			return nil, fmt.Errorf("phaseservice: clean %s: %w", p, err)
		}
		if err := fsys.Delete(filepath.ToSlash(rel)); err != nil {
			return nil, err
		}
		removed = append(removed, p)
		s.logger.Debug("removed", slog.String("path", p))
	}
	if err := pruneDirs(fsys.Root(), removed); err != nil {
		return nil, err
	}
	return r, nil
}

// pruneDirs removes the directories that held removed files, and their
// parents, once they are empty. Directories nothing was removed from and
// root itself are kept.
func pruneDirs(root string, removed []string) error {
	seen := make(map[string]struct{})
	var dirs []string
	for _, p := range removed {
		for dir := filepath.Dir(p); dir != root && strings.HasPrefix(dir, root+string(os.PathSeparator)); dir = filepath.Dir(dir) {
			if _, ok := seen[dir]; ok {
				break
			}
			seen[dir] = struct{}{}
			dirs = append(dirs, dir)
		}
	}
	// Deepest first, so parents are checked after their children.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })

	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("phaseservice: read %s: %w", dir, err)
		}
		if len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil {
			return fmt.Errorf("phaseservice: remove %s: %w", dir, err)
		}
	}
	return nil
}

func items(trunk *tree.Trunk, nodes []node.Node) ([]NodeItem, error) {
	out := make([]NodeItem, 0, len(nodes))
	for _, n := range nodes {
		childs, err := trunk.Childs(n.ID())
		if err != nil {
			return nil, err
		}
		item := NodeItem{
			ID:       n.ID(),
			Kind:     n.Kind(),
			Label:    n.Label(),
			Note:     n.Note(),
			Ancestry: nonNilSlice(n.Ancestry()),
			Childs:   len(childs),
		}
		if pid, ok := n.ParentID(); ok {
			item.ParentID = models.IntPtr(pid)
		}
		out = append(out, item)
	}
	return out, nil
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
