package tree_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/umwelt/internal/models"
	"github.com/starford/umwelt/internal/node"
	"github.com/starford/umwelt/internal/tree"
)

// family is the four node fixture: a root with two spaces, one of which
// holds a member.
func family() []models.Fragment {
	return []models.Fragment{
		{ID: 1, Kind: models.KindRoot, Body: "Project_root", Note: "The project."},
		{ID: 2, ParentID: models.IntPtr(1), Kind: models.KindSpace, Body: "Parent"},
		{ID: 3, ParentID: models.IntPtr(1), Kind: models.KindSpace, Body: "Uncle"},
		{ID: 4, ParentID: models.IntPtr(2), Kind: models.KindMember, Body: "Member", Note: "A leaf."},
	}
}

func fill(t *testing.T, fragments []models.Fragment) *tree.Trunk {
	t.Helper()
	trunk, err := tree.Fill(fragments)
	require.NoError(t, err)
	return trunk
}

func ids(nodes []node.Node) []int {
	out := make([]int, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID()
	}
	return out
}

func TestTrunk_NodesKeepIngestionOrder(t *testing.T) {
	trunk := fill(t, family())

	nodes := trunk.Nodes()
	require.Len(t, nodes, 4)
	for i, id := range []int{1, 2, 3, 4} {
		n, err := trunk.Node(id)
		require.NoError(t, err)
		assert.Same(t, n, nodes[i])
	}

	// Child listed before its parent keeps its position too.
	shuffled := []models.Fragment{family()[3], family()[1], family()[0], family()[2]}
	trunk = fill(t, shuffled)
	assert.Equal(t, []int{4, 2, 1, 3}, ids(trunk.Nodes()))
}

func TestTrunk_NodesReturnsCopy(t *testing.T) {
	trunk := fill(t, family())
	nodes := trunk.Nodes()
	nodes[0] = nil
	assert.NotNil(t, trunk.Nodes()[0])
}

func TestTrunk_NodeVariants(t *testing.T) {
	trunk := fill(t, family())

	n, err := trunk.Node(4)
	require.NoError(t, err)
	assert.IsType(t, &node.Member{}, n)
	assert.Equal(t, []string{"Project_root", "Parent"}, n.Ancestry())

	n, err = trunk.Node(3)
	require.NoError(t, err)
	assert.IsType(t, &node.Space{}, n)

	n, err = trunk.Node(1)
	require.NoError(t, err)
	assert.IsType(t, &node.Root{}, n)
	assert.Empty(t, n.Ancestry())
}

func TestTrunk_NodeNotFound(t *testing.T) {
	trunk := fill(t, family())

	for _, id := range []int{0, 5, -1} {
		_, err := trunk.Node(id)
		require.Error(t, err)
		assert.True(t, errors.Is(err, tree.ErrNotFound))

		var nf *tree.NotFoundError
		require.True(t, errors.As(err, &nf))
		assert.Equal(t, id, nf.ID)
	}
}

func TestTrunk_Childs(t *testing.T) {
	trunk := fill(t, family())

	childs, err := trunk.Childs(1)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, ids(childs))

	childs, err = trunk.Childs(2)
	require.NoError(t, err)
	assert.Equal(t, []int{4}, ids(childs))

	childs, err = trunk.Childs(4)
	require.NoError(t, err)
	assert.NotNil(t, childs)
	assert.Empty(t, childs)

	_, err = trunk.Childs(42)
	assert.True(t, errors.Is(err, tree.ErrNotFound))
}

func TestTrunk_ParentChildConsistency(t *testing.T) {
	trunk := fill(t, family())

	for _, n := range trunk.Nodes() {
		if pid, ok := n.ParentID(); ok {
			childs, err := trunk.Childs(pid)
			require.NoError(t, err)
			assert.Contains(t, childs, n)
		}

		childs, err := trunk.Childs(n.ID())
		require.NoError(t, err)
		for _, c := range childs {
			pid, ok := c.ParentID()
			require.True(t, ok)
			assert.Equal(t, n.ID(), pid)
		}
	}
}

func TestTrunk_RootsAndWalk(t *testing.T) {
	trunk := fill(t, family())

	assert.Equal(t, []int{1}, ids(trunk.Roots()))

	var visited []int
	var depths []int
	trunk.Walk(func(n node.Node, depth int) bool {
		visited = append(visited, n.ID())
		depths = append(depths, depth)
		return true
	})
	assert.Equal(t, []int{1, 2, 4, 3}, visited)
	assert.Equal(t, []int{0, 1, 2, 1}, depths)

	visited = nil
	trunk.Walk(func(n node.Node, _ int) bool {
		visited = append(visited, n.ID())
		return n.ID() != 2
	})
	assert.Equal(t, []int{1, 2, 3}, visited)
}
