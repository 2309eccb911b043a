// Package testutil provides shared test helpers for setting up projects and journals.
package testutil

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/starford/umwelt/internal/journal"
	"github.com/starford/umwelt/internal/models"
)

// TestJournal creates a temporary SQLite journal that is automatically closed.
func TestJournal(t *testing.T) *journal.DB {
	t.Helper()
	db, err := journal.Open(filepath.Join(t.TempDir(), "umwelt-test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Family returns a small four node phase: a root with two spaces, one of
// which holds a member.
func Family() []models.Fragment {
	return []models.Fragment{
		{ID: 1, Kind: models.KindRoot, Body: "Project_root", Note: "The project."},
		{ID: 2, ParentID: models.IntPtr(1), Kind: models.KindSpace, Body: "Parent"},
		{ID: 3, ParentID: models.IntPtr(1), Kind: models.KindSpace, Body: "Uncle"},
		{ID: 4, ParentID: models.IntPtr(2), Kind: models.KindMember, Body: "Member", Note: "A leaf."},
	}
}

// TestProject creates a temporary project directory holding phase as
// phases/<phase>.json and returns the directory.
func TestProject(t *testing.T, phase string, fragments []models.Fragment) string {
	t.Helper()
	dir := t.TempDir()
	phases := filepath.Join(dir, "phases")
	if err := os.MkdirAll(phases, 0o755); err != nil {
		t.Fatal(err)
	}
	data, err := json.Marshal(map[string]any{"fragments": fragments})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(phases, phase+".json"), data, 0o644); err != nil {
		t.Fatal(err)
	}
	return dir
}
