// Package models defines the domain types for Umwelt.
package models

import "time"

// Node kinds understood by the tree builder.
const (
	KindRoot   = "root"
	KindSpace  = "space"
	KindMember = "member"
)

// Fragment is one raw node record of a phase, as stored in the project files.
type Fragment struct {
	ID       int    `json:"id"`
	ParentID *int   `json:"parent_id"`
	Kind     string `json:"kind"`
	Body     string `json:"body"`
	Note     string `json:"note,omitempty"`
}

// HasParent reports whether the fragment references a parent.
func (f Fragment) HasParent() bool {
	return f.ParentID != nil
}

// Project describes the documented project.
type Project struct {
	Name string `json:"name"`
	Note string `json:"note,omitempty"`
}

// Phase is one step of the project history. Fragments of a phase live in
// their own file under phases/.
type Phase struct {
	ID       int       `json:"id"`
	ParentID *int      `json:"parent_id"`
	MergeID  *int      `json:"merge_id"`
	Note     string    `json:"note,omitempty"`
	Created  time.Time `json:"created_at"`
}

// History is the persisted project history.
type History struct {
	Project Project `json:"project"`
	Phases  []Phase `json:"phases"`
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}

// FileMetadata is a lightweight description of a file under a storage root.
type FileMetadata struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	Checksum  string    `json:"checksum"`
	UpdatedAt time.Time `json:"updated_at"`
}
