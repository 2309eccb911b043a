package phaseservice_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/umwelt/internal/apperr"
	"github.com/starford/umwelt/internal/fragment"
	"github.com/starford/umwelt/internal/node"
	"github.com/starford/umwelt/internal/phaseservice"
	"github.com/starford/umwelt/internal/testutil"
	"github.com/starford/umwelt/internal/tree"
)

func newService(t *testing.T) (*phaseservice.Service, string) {
	t.Helper()
	dir := testutil.TestProject(t, "1", testutil.Family())
	wd := t.TempDir()
	svc, err := phaseservice.NewService(dir, "", testutil.TestJournal(t),
		phaseservice.WithWorkdir(wd),
		phaseservice.WithTarget("out"),
		phaseservice.WithWorkers(4),
	)
	require.NoError(t, err)
	return svc, wd
}

func TestNewService_BadSelector(t *testing.T) {
	_, err := phaseservice.NewService(t.TempDir(), "$.fragments[", testutil.TestJournal(t))
	assert.Error(t, err)
}

func TestNodes(t *testing.T) {
	svc, _ := newService(t)
	got, err := svc.Nodes(context.Background(), "1")
	require.NoError(t, err)
	require.Len(t, got, 4)

	assert.Equal(t, 1, got[0].ID)
	assert.Nil(t, got[0].ParentID)
	assert.Equal(t, []string{}, got[0].Ancestry)
	assert.Equal(t, 2, got[0].Childs)

	assert.Equal(t, "Member", got[3].Label)
	require.NotNil(t, got[3].ParentID)
	assert.Equal(t, 2, *got[3].ParentID)
	assert.Equal(t, []string{"Project_root", "Parent"}, got[3].Ancestry)
	assert.Equal(t, 0, got[3].Childs)
}

func TestOutline(t *testing.T) {
	svc, _ := newService(t)
	got, err := svc.Outline(context.Background(), "1")
	require.NoError(t, err)
	assert.Equal(t, "Project_root [root #1]\n  Parent [space #2]\n    Member [member #4]\n  Uncle [space #3]\n", got)

	_, err = svc.Outline(context.Background(), "9")
	assert.True(t, errors.Is(err, fragment.ErrPhaseNotFound))
}

func TestChilds(t *testing.T) {
	svc, _ := newService(t)
	got, err := svc.Childs(context.Background(), "1", 1)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Parent", got[0].Label)
	assert.Equal(t, "Uncle", got[1].Label)

	_, err = svc.Childs(context.Background(), "1", 99)
	assert.True(t, errors.Is(err, tree.ErrNotFound))

	_, err = svc.Childs(context.Background(), "2", 1)
	assert.True(t, errors.Is(err, fragment.ErrPhaseNotFound))
}

func TestImprint_RecordsJournal(t *testing.T) {
	svc, wd := newService(t)
	ctx := context.Background()

	res, err := svc.Imprint(ctx, phaseservice.ImprintRequest{Phase: "1", Semantic: node.SemanticMarkdown})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "out"), res.Root)
	require.Len(t, res.Files, 4)
	assert.Equal(t, filepath.Join(wd, "out", "project_root", "README.md"), res.Files[0].Path)

	sum := 0
	for _, f := range res.Files {
		sum += f.Bytes
	}
	assert.Equal(t, sum, res.Bytes)

	entries, err := svc.Imprints(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.ID, entries[0].ID)
	assert.Equal(t, 4, entries[0].Files)

	r, err := svc.Verify(ctx, res.ID)
	require.NoError(t, err)
	assert.True(t, r.Clean())
}

func TestImprint_Errors(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Imprint(ctx, phaseservice.ImprintRequest{Phase: "1", Semantic: "cobol"})
	assert.True(t, errors.Is(err, node.ErrUnknownSemantic))

	_, err = svc.Imprint(ctx, phaseservice.ImprintRequest{Phase: "1", Semantic: node.SemanticPlain})
	require.NoError(t, err)
	_, err = svc.Imprint(ctx, phaseservice.ImprintRequest{Phase: "1", Semantic: node.SemanticPlain})
	assert.True(t, errors.Is(err, tree.ErrLocationNotClean))

	entries, err := svc.Imprints(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestImprint_TargetOverride(t *testing.T) {
	svc, wd := newService(t)
	res, err := svc.Imprint(context.Background(), phaseservice.ImprintRequest{
		Phase: "1", Semantic: node.SemanticHTML, Target: "site",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "site"), res.Root)
}

func TestClean_AllowsReimprint(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	req := phaseservice.ImprintRequest{Phase: "1", Semantic: node.SemanticPlain}

	first, err := svc.Imprint(ctx, req)
	require.NoError(t, err)

	_, err = svc.Clean(ctx, first.ID)
	require.NoError(t, err)
	entries, err := os.ReadDir(first.Root)
	require.NoError(t, err)
	assert.Empty(t, entries)

	second, err := svc.Imprint(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.Files, second.Files)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestClean_KeepsChangedFiles(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	res, err := svc.Imprint(ctx, phaseservice.ImprintRequest{Phase: "1", Semantic: node.SemanticPlain})
	require.NoError(t, err)
	edited := res.Files[3].Path
	require.NoError(t, os.WriteFile(edited, []byte("package parent\n\n// edited\n"), 0o644))

	r, err := svc.Clean(ctx, res.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{edited}, r.Changed)
	assert.FileExists(t, edited)
	assert.NoFileExists(t, res.Files[0].Path)
	assert.NoDirExists(t, filepath.Dir(res.Files[2].Path))

	_, err = svc.Clean(ctx, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestClean_KeepsOperatorDirectories(t *testing.T) {
	svc, wd := newService(t)
	ctx := context.Background()

	target := filepath.Join(wd, "out")
	require.NoError(t, os.MkdirAll(target, 0o755))

	res, err := svc.Imprint(ctx, phaseservice.ImprintRequest{Phase: "1", Semantic: node.SemanticMarkdown})
	require.NoError(t, err)
	require.Equal(t, target, res.Root)

	notes := filepath.Join(target, "my_notes")
	require.NoError(t, os.Mkdir(notes, 0o755))
	inside := filepath.Join(target, "project_root", "parent", "scratch")
	require.NoError(t, os.Mkdir(inside, 0o755))

	_, err = svc.Clean(ctx, res.ID)
	require.NoError(t, err)

	assert.DirExists(t, target)
	assert.DirExists(t, notes)
	assert.DirExists(t, inside)
	assert.NoDirExists(t, filepath.Join(target, "project_root", "uncle"))
	for _, f := range res.Files {
		assert.NoFileExists(t, f.Path)
	}
}

func TestInit(t *testing.T) {
	dir := filepath.Join(t.TempDir(), ".umwelt")
	svc, err := phaseservice.NewService(dir, "", testutil.TestJournal(t))
	require.NoError(t, err)
	ctx := context.Background()

	ledger, err := svc.Init(ctx, "Shop", "A small shop.")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "project.json"),
		filepath.Join(dir, "history.json"),
		filepath.Join(dir, "phases", "1.json"),
	}, ledger.Paths())

	h, err := svc.Project(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Shop", h.Project.Name)
	require.Len(t, h.Phases, 1)

	nodes, err := svc.Nodes(ctx, phaseservice.FirstPhase)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "Shop", nodes[0].Label)
	assert.Equal(t, "A small shop.", nodes[0].Note)

	_, err = svc.Init(ctx, "Shop", "")
	assert.True(t, errors.Is(err, apperr.ErrAlreadyExists))
}

func TestInit_InvalidName(t *testing.T) {
	svc, err := phaseservice.NewService(t.TempDir(), "", testutil.TestJournal(t))
	require.NoError(t, err)
	_, err = svc.Init(context.Background(), "my shop", "")
	assert.Error(t, err)
}
