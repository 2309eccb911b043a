// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/starford/umwelt/internal/checksum"
	"github.com/starford/umwelt/internal/journal"
	"github.com/starford/umwelt/internal/mcpserver"
	"github.com/starford/umwelt/internal/phaseservice"
)

// ErrImprintModified is returned by Verify when files of an imprint were
// changed, removed or joined by others since it was written.
var ErrImprintModified = errors.New("imprint modified on disk")

// App runs umwelt commands.
type App struct {
	config  *Config
	logger  *slog.Logger
	out     io.Writer
	workdir string
}

// ImprintParams overrides the imprint configuration for one run. Zero
// values fall back to the configuration.
type ImprintParams struct {
	Phase    string
	Semantic string
	Target   string
	Workers  int
}

// New creates an App with the given options.
func New(opts ...Option) (*App, error) {
	app := &App{out: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	if app.logger == nil {
		// Structured JSON logger on stderr; stdout carries command output
		// and the MCP stream.
		app.logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
			Level: app.config.App.LogLevel,
		}))
		slog.SetDefault(app.logger)
	}

	app.logger.Debug("Configuration loaded",
		slog.String("project_path", app.config.Project.Path),
		slog.String("journal_path", app.config.Journal.Path),
		slog.String("semantic", app.config.Imprint.Semantic),
		slog.String("target", app.config.Imprint.Target),
		slog.Int("workers", app.config.Imprint.Workers),
		slog.String("log_level", app.config.App.LogLevel.String()))

	return app, nil
}

// service opens the journal and builds a phase service. The returned close
// function releases the journal.
func (a *App) service(workers int) (*phaseservice.Service, func() error, error) {
	if dir := filepath.Dir(a.config.Journal.Path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	db, err := journal.Open(a.config.Journal.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("init journal: %w", err)
	}

	if workers <= 0 {
		workers = a.config.Imprint.Workers
	}
	svc, err := phaseservice.NewService(a.config.Project.Path, a.config.Project.Select, db,
		phaseservice.WithWorkdir(a.workdir),
		phaseservice.WithTarget(a.config.Imprint.Target),
		phaseservice.WithWorkers(workers),
		phaseservice.WithLogger(a.logger),
	)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return svc, db.Close, nil
}

// Init creates a new project named name.
func (a *App) Init(ctx context.Context, name, note string) error {
	svc, closeFn, err := a.service(0)
	if err != nil {
		return err
	}
	defer closeFn()

	ledger, err := svc.Init(ctx, name, note)
	if err != nil {
		return err
	}
	for _, p := range ledger.Paths() {
		fmt.Fprintln(a.out, p)
	}
	return nil
}

// Imprint writes a phase to disk and prints the written paths.
func (a *App) Imprint(ctx context.Context, p ImprintParams) error {
	if p.Semantic == "" {
		p.Semantic = a.config.Imprint.Semantic
	}
	if p.Workers > MaxWorkers {
		return fmt.Errorf("workers must be between 1 and %d", MaxWorkers)
	}

	svc, closeFn, err := a.service(p.Workers)
	if err != nil {
		return err
	}
	defer closeFn()

	res, err := svc.Imprint(ctx, phaseservice.ImprintRequest{
		Phase:    p.Phase,
		Semantic: p.Semantic,
		Target:   p.Target,
	})
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	for _, f := range res.Files {
		fmt.Fprintf(w, "%d\t%s\t%s\n", f.Bytes, checksum.Short(f.Checksum), f.Path)
	}
	fmt.Fprintf(w, "%d\t\t%d files, imprint %s\n", res.Bytes, len(res.Files), res.ID)
	return w.Flush()
}

// Tree prints the nodes of a phase as an indented tree.
func (a *App) Tree(ctx context.Context, phase string) error {
	svc, closeFn, err := a.service(0)
	if err != nil {
		return err
	}
	defer closeFn()

	outline, err := svc.Outline(ctx, phase)
	if err != nil {
		return err
	}
	_, err = io.WriteString(a.out, outline)
	return err
}

// History prints recent imprints, newest first.
func (a *App) History(ctx context.Context, limit int) error {
	svc, closeFn, err := a.service(0)
	if err != nil {
		return err
	}
	defer closeFn()

	entries, err := svc.Imprints(ctx, limit)
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(a.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tPHASE\tSEMANTIC\tFILES\tBYTES\tROOT")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%s\n",
			e.ID, e.CreatedAt.Local().Format("2006-01-02 15:04:05"), e.Phase, e.Semantic, e.Files, e.Bytes, e.Root)
	}
	return w.Flush()
}

// Verify prints the state of every file of an imprint. It returns
// ErrImprintModified when the imprint no longer matches the disk.
func (a *App) Verify(ctx context.Context, id string) error {
	svc, closeFn, err := a.service(0)
	if err != nil {
		return err
	}
	defer closeFn()

	r, err := svc.Verify(ctx, id)
	if err != nil {
		return err
	}
	a.printReport(r)
	if !r.Clean() {
		return fmt.Errorf("imprint %s: %w", id, ErrImprintModified)
	}
	return nil
}

// Clean removes the unchanged files of an imprint so its target can be
// imprinted again.
func (a *App) Clean(ctx context.Context, id string) error {
	svc, closeFn, err := a.service(0)
	if err != nil {
		return err
	}
	defer closeFn()

	r, err := svc.Clean(ctx, id)
	if err != nil {
		return err
	}
	for _, p := range r.Intact {
		fmt.Fprintf(a.out, "removed  %s\n", p)
	}
	for _, p := range r.Changed {
		fmt.Fprintf(a.out, "kept     %s\n", p)
	}
	for _, p := range r.Extra {
		fmt.Fprintf(a.out, "kept     %s\n", p)
	}
	return nil
}

// ServeMCP serves the MCP tools over stdin/stdout until ctx is cancelled.
func (a *App) ServeMCP(ctx context.Context, version string) error {
	svc, closeFn, err := a.service(0)
	if err != nil {
		return err
	}
	defer closeFn()

	a.logger.Info("MCP server starting", slog.String("project_path", a.config.Project.Path))
	if err := mcpserver.New(svc, version).Serve(ctx, os.Stdin, a.out); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	a.logger.Info("MCP server stopped")
	return nil
}

func (a *App) printReport(r *journal.Report) {
	for _, p := range r.Intact {
		fmt.Fprintf(a.out, "ok       %s\n", p)
	}
	for _, p := range r.Changed {
		fmt.Fprintf(a.out, "changed  %s\n", p)
	}
	for _, p := range r.Missing {
		fmt.Fprintf(a.out, "missing  %s\n", p)
	}
	for _, p := range r.Extra {
		fmt.Fprintf(a.out, "extra    %s\n", p)
	}
}
