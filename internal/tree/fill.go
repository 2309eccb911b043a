package tree

import (
	"slices"

	"github.com/starford/umwelt/internal/models"
	"github.com/starford/umwelt/internal/node"
)

// Fill builds a Trunk from fragments. Fragment order is kept: it is the
// order of Trunk.Nodes, of every child list and of the imprint walk.
//
// Fill fails on duplicate ids, parent ids missing from the input, parent
// chains that loop and unknown kinds.
func Fill(fragments []models.Fragment) (*Trunk, error) {
	records := make(map[int]models.Fragment, len(fragments))
	for _, f := range fragments {
		if _, dup := records[f.ID]; dup {
			return nil, &DuplicateIDError{ID: f.ID}
		}
		records[f.ID] = f
	}

	t := &Trunk{
		nodes:  make([]node.Node, 0, len(fragments)),
		byID:   make(map[int]node.Node, len(fragments)),
		childs: make(map[int][]int),
	}

	for _, f := range fragments {
		if f.ParentID == nil {
			t.roots = append(t.roots, f.ID)
			continue
		}
		pid := *f.ParentID
		if _, ok := records[pid]; !ok {
			return nil, &DanglingParentError{ID: f.ID, ParentID: pid}
		}
		t.childs[pid] = append(t.childs[pid], f.ID)
	}

	for _, f := range fragments {
		anc, err := ancestry(records, f)
		if err != nil {
			return nil, err
		}
		n, err := node.New(f, anc)
		if err != nil {
			return nil, err
		}
		t.nodes = append(t.nodes, n)
		t.byID[f.ID] = n
	}

	return t, nil
}

// ancestry returns the labels of f's ancestors, outermost first.
// All parent ids are known to resolve at this point.
func ancestry(records map[int]models.Fragment, f models.Fragment) ([]string, error) {
	var labels []string
	seen := map[int]struct{}{f.ID: {}}
	for p := f.ParentID; p != nil; {
		if _, loop := seen[*p]; loop {
			return nil, &CycleError{ID: f.ID}
		}
		seen[*p] = struct{}{}
		parent := records[*p]
		labels = append(labels, parent.Body)
		p = parent.ParentID
	}
	slices.Reverse(labels)
	return labels, nil
}
