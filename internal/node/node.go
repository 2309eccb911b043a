// Package node defines the polymorphic tree elements of a project and the
// semantic artifacts they render into.
//
// A Node never references other nodes. Everything it needs to render itself,
// including the labels of its ancestors, is captured when it is built, so
// rendering depends only on the node and the requested semantic name.
package node

import (
	"errors"
	"fmt"

	"github.com/starford/umwelt/internal/models"
)

var (
	ErrUnknownKind     = errors.New("unknown node kind")
	ErrUnknownSemantic = errors.New("unknown semantic")
	ErrInvalidGo       = errors.New("generated go source does not parse")
)

// UnknownKindError is returned when a record carries a kind no variant handles.
type UnknownKindError struct {
	ID   int
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("node %d: unknown kind %q", e.ID, e.Kind)
}

func (e *UnknownKindError) Unwrap() error { return ErrUnknownKind }

// UnknownSemanticError is returned by Semantic for names without a renderer.
type UnknownSemanticError struct {
	Name string
}

func (e *UnknownSemanticError) Error() string {
	return fmt.Sprintf("unknown semantic %q", e.Name)
}

func (e *UnknownSemanticError) Unwrap() error { return ErrUnknownSemantic }

// InvalidGoError is returned by the plain semantic when the generated source
// is not valid Go.
type InvalidGoError struct {
	Err error
}

func (e *InvalidGoError) Error() string {
	return fmt.Sprintf("%s: %v", ErrInvalidGo, e.Err)
}

func (e *InvalidGoError) Unwrap() []error { return []error{ErrInvalidGo, e.Err} }

// Artifact is the generated content of one node for one semantic, together
// with the slash-separated path it belongs at relative to the imprint root.
type Artifact struct {
	Code []byte
	Rel  string
}

// Node is one element of the project tree.
type Node interface {
	ID() int
	// ParentID returns the parent id and false for nodes without a parent.
	ParentID() (int, bool)
	Kind() string
	Label() string
	Note() string
	// Ancestry returns the labels of all ancestors, outermost first.
	Ancestry() []string
	// Semantic renders the node for the named semantic.
	Semantic(name string) (Artifact, error)
}

type base struct {
	id       int
	parentID *int
	label    string
	note     string
	ancestry []string
}

func (b *base) ID() int { return b.id }

func (b *base) ParentID() (int, bool) {
	if b.parentID == nil {
		return 0, false
	}
	return *b.parentID, true
}

func (b *base) Label() string { return b.label }

func (b *base) Note() string { return b.note }

func (b *base) Ancestry() []string {
	out := make([]string, len(b.ancestry))
	copy(out, b.ancestry)
	return out
}

// segments returns the directory segments of the node's ancestors.
func (b *base) segments() []string {
	out := make([]string, len(b.ancestry))
	for i, a := range b.ancestry {
		out[i] = Snake(a)
	}
	return out
}

// trail is the human-readable position of the node, e.g. "Project / Space / Member".
func (b *base) trail() string {
	s := ""
	for _, a := range b.ancestry {
		s += a + " / "
	}
	return s + b.label
}

// New builds the variant matching f.Kind. ancestry holds the labels of the
// node's ancestors, outermost first.
func New(f models.Fragment, ancestry []string) (Node, error) {
	b := base{
		id:       f.ID,
		label:    f.Body,
		note:     f.Note,
		ancestry: append([]string(nil), ancestry...),
	}
	if f.ParentID != nil {
		pid := *f.ParentID
		b.parentID = &pid
	}

	switch f.Kind {
	case models.KindRoot:
		return &Root{base: b}, nil
	case models.KindSpace:
		return &Space{base: b}, nil
	case models.KindMember:
		return &Member{base: b}, nil
	default:
		return nil, &UnknownKindError{ID: f.ID, Kind: f.Kind}
	}
}
