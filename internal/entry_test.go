package internal

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/umwelt/internal/apperr"
	"github.com/starford/umwelt/internal/tree"
)

func testApp(t *testing.T) (*App, *bytes.Buffer, string) {
	t.Helper()
	wd := t.TempDir()
	cfg := NewDefaultConfig()
	cfg.Project.Path = filepath.Join(wd, ".umwelt")
	cfg.Journal.Path = filepath.Join(wd, "state", "umwelt.db")

	var out bytes.Buffer
	app, err := New(
		WithConfig(cfg),
		WithOutput(&out),
		WithLogger(slog.New(slog.DiscardHandler)),
		WithWorkdir(wd),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return app, &out, wd
}

func TestNew_RequiresConfig(t *testing.T) {
	if _, err := New(); err == nil {
		t.Fatal("expected error without config")
	}
}

func TestInitTreeImprint(t *testing.T) {
	app, out, wd := testApp(t)
	ctx := context.Background()

	if err := app.Init(ctx, "Shop", "A small shop."); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if !strings.Contains(out.String(), filepath.Join(wd, ".umwelt", "project.json")) {
		t.Errorf("init output = %q", out.String())
	}
	if err := app.Init(ctx, "Shop", ""); !errors.Is(err, apperr.ErrAlreadyExists) {
		t.Errorf("second Init error = %v", err)
	}

	out.Reset()
	if err := app.Tree(ctx, "1"); err != nil {
		t.Fatalf("Tree: %v", err)
	}
	if got := out.String(); got != "Shop [root #1]\n" {
		t.Errorf("tree = %q", got)
	}

	out.Reset()
	if err := app.Imprint(ctx, ImprintParams{Phase: "1"}); err != nil {
		t.Fatalf("Imprint: %v", err)
	}
	want := filepath.Join(wd, "umwelt_out", "shop", "doc.go")
	if _, err := os.Stat(want); err != nil {
		t.Errorf("expected %s: %v", want, err)
	}
	if !strings.Contains(out.String(), "1 files, imprint ") {
		t.Errorf("imprint output = %q", out.String())
	}

	err := app.Imprint(ctx, ImprintParams{Phase: "1"})
	if !errors.Is(err, tree.ErrLocationNotClean) {
		t.Errorf("second Imprint error = %v", err)
	}
	if err := app.Imprint(ctx, ImprintParams{Phase: "1", Workers: MaxWorkers + 1}); err == nil {
		t.Error("expected error for too many workers")
	}
}

func TestHistoryVerifyClean(t *testing.T) {
	app, out, wd := testApp(t)
	ctx := context.Background()

	if err := app.Init(ctx, "Shop", ""); err != nil {
		t.Fatalf("Init: %v", err)
	}
	if err := app.Imprint(ctx, ImprintParams{Phase: "1", Semantic: "markdown", Target: "docs"}); err != nil {
		t.Fatalf("Imprint: %v", err)
	}

	out.Reset()
	if err := app.History(ctx, 5); err != nil {
		t.Fatalf("History: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[0], "ID") {
		t.Fatalf("history = %q", out.String())
	}
	id := strings.Fields(lines[1])[0]

	out.Reset()
	if err := app.Verify(ctx, id); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !strings.HasPrefix(out.String(), "ok ") {
		t.Errorf("verify output = %q", out.String())
	}

	readme := filepath.Join(wd, "docs", "shop", "README.md")
	if err := os.WriteFile(readme, []byte("# Edited\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	out.Reset()
	if err := app.Verify(ctx, id); !errors.Is(err, ErrImprintModified) {
		t.Errorf("Verify after edit = %v", err)
	}
	if !strings.Contains(out.String(), "changed  "+readme) {
		t.Errorf("verify output = %q", out.String())
	}

	out.Reset()
	if err := app.Clean(ctx, id); err != nil {
		t.Fatalf("Clean: %v", err)
	}
	if !strings.Contains(out.String(), "kept     "+readme) {
		t.Errorf("clean output = %q", out.String())
	}
	if _, err := os.Stat(readme); err != nil {
		t.Errorf("changed file removed: %v", err)
	}

	if err := app.Verify(ctx, "unknown"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("Verify unknown = %v", err)
	}
}
