// Package tree builds the project tree from flat fragment records and
// imprints it onto the filesystem.
package tree

import "github.com/starford/umwelt/internal/node"

// Trunk is the immutable set of nodes of one project tree. Parent and child
// relations are kept as id indices; nodes never point at each other.
type Trunk struct {
	nodes  []node.Node
	byID   map[int]node.Node
	childs map[int][]int
	roots  []int
}

// Nodes returns every node in ingestion order.
func (t *Trunk) Nodes() []node.Node {
	out := make([]node.Node, len(t.nodes))
	copy(out, t.nodes)
	return out
}

// Len returns the number of nodes.
func (t *Trunk) Len() int {
	return len(t.nodes)
}

// Node returns the node with the given id.
func (t *Trunk) Node(id int) (node.Node, error) {
	n, ok := t.byID[id]
	if !ok {
		return nil, &NotFoundError{ID: id}
	}
	return n, nil
}

// Childs returns the direct children of id in ingestion order. A known node
// without children yields an empty slice.
func (t *Trunk) Childs(id int) ([]node.Node, error) {
	if _, ok := t.byID[id]; !ok {
		return nil, &NotFoundError{ID: id}
	}
	return t.resolve(t.childs[id]), nil
}

// Roots returns the nodes without a parent in ingestion order.
func (t *Trunk) Roots() []node.Node {
	return t.resolve(t.roots)
}

// Walk visits every node depth-first, parents before children, starting
// from the roots. depth is 0 for roots. Returning false from fn skips the
// node's subtree.
func (t *Trunk) Walk(fn func(n node.Node, depth int) bool) {
	var visit func(ids []int, depth int)
	visit = func(ids []int, depth int) {
		for _, id := range ids {
			if fn(t.byID[id], depth) {
				visit(t.childs[id], depth+1)
			}
		}
	}
	visit(t.roots, 0)
}

func (t *Trunk) resolve(ids []int) []node.Node {
	out := make([]node.Node, 0, len(ids))
	for _, id := range ids {
		out = append(out, t.byID[id])
	}
	return out
}
