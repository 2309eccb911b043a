package tree

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"github.com/starford/umwelt/internal/node"
	"github.com/starford/umwelt/internal/storage"
)

// Result is the outcome of one imprint run.
type Result struct {
	Success bool
	// Root is the absolute imprint root.
	Root string
	// WrittenPaths maps every absolute path written to its byte count.
	WrittenPaths *storage.Ledger
}

// ImprintOption configures an Imprint.
type ImprintOption func(*Imprint)

// WithLocation sets the output directory relative to the working directory.
// An absolute location is used as-is.
func WithLocation(location string) ImprintOption {
	return func(im *Imprint) {
		im.location = location
	}
}

// WithWorkdir overrides the working directory the location is resolved
// against. The process working directory is used by default.
func WithWorkdir(dir string) ImprintOption {
	return func(im *Imprint) {
		im.workdir = dir
	}
}

// WithWorkers sets how many nodes are rendered concurrently. Writes are
// always sequential.
func WithWorkers(n int) ImprintOption {
	return func(im *Imprint) {
		if n > 0 {
			im.workers = n
		}
	}
}

// WithLogger sets the logger used for per-file debug output.
func WithLogger(logger *slog.Logger) ImprintOption {
	return func(im *Imprint) {
		if logger != nil {
			im.logger = logger
		}
	}
}

// Imprint writes the semantic artifacts of every node of a Trunk to disk.
type Imprint struct {
	trunk    *Trunk
	location string
	workdir  string
	workers  int
	logger   *slog.Logger
}

// NewImprint creates an Imprint for trunk.
func NewImprint(trunk *Trunk, opts ...ImprintOption) *Imprint {
	im := &Imprint{
		trunk:   trunk,
		workers: 1,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// Root returns the absolute imprint root: workdir joined with location.
func (im *Imprint) Root() (string, error) {
	if filepath.IsAbs(im.location) {
		return filepath.Clean(im.location), nil
	}
	wd := im.workdir
	if wd == "" {
		var err error
		if wd, err = os.Getwd(); err != nil {
			return "", fmt.Errorf("tree: working directory: %w", err)
		}
	}
	return filepath.Abs(filepath.Join(wd, im.location))
}

// Call imprints the trunk for the given semantic.
//
// The imprint root is created when missing and must be empty; otherwise a
// LocationNotCleanError is returned before anything is written. Every node
// is rendered first, then artifacts are written in ingestion order. A write
// failure aborts the run; files written before it stay on disk.
func (im *Imprint) Call(ctx context.Context, semantic string) (*Result, error) {
	root, err := im.Root()
	if err != nil {
		return nil, err
	}
	fs, err := storage.EnsureFS(root)
	if err != nil {
		return nil, err
	}
	clean, err := fs.Empty()
	if err != nil {
		return nil, err
	}
	if !clean {
		return nil, &LocationNotCleanError{Dir: fs.Root()}
	}

	artifacts, err := im.render(ctx, semantic)
	if err != nil {
		return nil, err
	}
	paths, err := im.resolve(fs, artifacts)
	if err != nil {
		return nil, err
	}

	nodes := im.trunk.Nodes()
	ledger := storage.NewLedger()
	for i, a := range artifacts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		n, err := fs.Write(a.Rel, a.Code)
		if err != nil {
			return nil, err
		}
		ledger.Record(paths[i], n)
		im.logger.Debug("imprint: written",
			slog.Int("node", nodes[i].ID()),
			slog.String("path", paths[i]),
			slog.Int("bytes", n))
	}

	im.logger.Info("imprint: done",
		slog.String("root", fs.Root()),
		slog.String("semantic", semantic),
		slog.Int("files", ledger.Len()),
		slog.Int("bytes", ledger.Total()))

	return &Result{Success: true, Root: fs.Root(), WrittenPaths: ledger}, nil
}

// render asks every node for its artifact. Results keep ingestion order
// regardless of how many workers run.
func (im *Imprint) render(ctx context.Context, semantic string) ([]node.Artifact, error) {
	nodes := im.trunk.Nodes()
	out := make([]node.Artifact, len(nodes))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(im.workers)
	for i, n := range nodes {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			a, err := n.Semantic(semantic)
			if err != nil {
				return fmt.Errorf("tree: render node %d: %w", n.ID(), err)
			}
			out[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// resolve returns the absolute path of every artifact. Paths escaping the
// root and paths claimed by two nodes are rejected here, before any write.
func (im *Imprint) resolve(fs *storage.FS, artifacts []node.Artifact) ([]string, error) {
	nodes := im.trunk.Nodes()
	paths := make([]string, len(artifacts))
	owner := make(map[string]int, len(artifacts))
	for i, a := range artifacts {
		abs, err := fs.Abs(a.Rel)
		if err != nil {
			return nil, fmt.Errorf("tree: node %d: %w", nodes[i].ID(), err)
		}
		if abs == fs.Root() {
			return nil, fmt.Errorf("tree: node %d: artifact path is the imprint root", nodes[i].ID())
		}
		if first, ok := owner[abs]; ok {
			return nil, &PathConflictError{Path: path.Clean(a.Rel), First: first, Second: nodes[i].ID()}
		}
		owner[abs] = nodes[i].ID()
		paths[i] = abs
	}
	return paths, nil
}
