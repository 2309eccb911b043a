package journal

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/starford/umwelt/internal/checksum"
	"github.com/starford/umwelt/internal/storage"
)

// Report compares the files of a recorded imprint with the disk.
type Report struct {
	Entry   Entry    `json:"entry"`
	Intact  []string `json:"intact"`
	Changed []string `json:"changed"`
	Missing []string `json:"missing"`
	// Extra lists files under the root that the imprint did not write.
	Extra []string `json:"extra"`
}

// Clean reports whether every recorded file is still on disk unchanged and
// nothing else was added under the root.
func (r *Report) Clean() bool {
	return len(r.Changed) == 0 && len(r.Missing) == 0 && len(r.Extra) == 0
}

// Verify re-reads every file recorded for id and classifies it by checksum.
func (db *DB) Verify(id string) (*Report, error) {
	e, err := db.Get(id)
	if err != nil {
		return nil, err
	}
	files, err := db.WrittenPaths(id)
	if err != nil {
		return nil, err
	}

	r := &Report{Entry: *e, Intact: []string{}, Changed: []string{}, Missing: []string{}, Extra: []string{}}
	recorded := make(map[string]struct{}, len(files))
	for _, f := range files {
		recorded[f.Path] = struct{}{}

		data, err := os.ReadFile(f.Path)
		switch {
		case errors.Is(err, os.ErrNotExist):
			r.Missing = append(r.Missing, f.Path)
		case err != nil:
			return nil, fmt.Errorf("journal: verify %s: %w", f.Path, err)
		case checksum.Sum(data) != f.Checksum:
			r.Changed = append(r.Changed, f.Path)
		default:
			r.Intact = append(r.Intact, f.Path)
		}
	}

	if r.Extra, err = extras(e.Root, recorded); err != nil {
		return nil, err
	}
	return r, nil
}

// extras lists absolute paths under root missing from recorded. A missing
// root has no extras.
func extras(root string, recorded map[string]struct{}) ([]string, error) {
	out := []string{}
	fsys, err := storage.NewFS(root)
	if errors.Is(err, os.ErrNotExist) {
		return out, nil
	}
	if err != nil {
		return nil, err
	}
	var store storage.Provider = fsys
	metas, err := store.List("")
	if err != nil {
		return nil, fmt.Errorf("journal: list %s: %w", root, err)
	}
	for _, m := range metas {
		p := filepath.Join(store.Root(), filepath.FromSlash(m.Path))
		if _, ok := recorded[p]; !ok {
			out = append(out, p)
		}
	}
	return out, nil
}

// Collect turns a ledger of written paths into journal files, reading each
// file back to compute its checksum.
func Collect(ledger *storage.Ledger) ([]WrittenFile, error) {
	out := make([]WrittenFile, 0, ledger.Len())
	for _, p := range ledger.Paths() {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("journal: collect %s: %w", p, err)
		}
		n, _ := ledger.Bytes(p)
		out = append(out, WrittenFile{Path: p, Bytes: n, Checksum: checksum.Sum(data)})
	}
	return out, nil
}
