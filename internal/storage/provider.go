// Package storage defines the file-system abstraction imprints and project
// files are written through.
package storage

import "github.com/starford/umwelt/internal/models"

// Provider is the interface for file operations under one root directory.
type Provider interface {
	// Root returns the absolute root directory.
	Root() string
	// Empty reports whether the root directory has no entries.
	Empty() (bool, error)
	// List returns metadata for every regular file under dir (relative to root).
	List(dir string) ([]models.FileMetadata, error)
	// Read returns the raw bytes of the file at path (relative to root).
	Read(path string) ([]byte, error)
	// Write atomically writes content to path (relative to root) and returns
	// the number of bytes written.
	Write(path string, content []byte) (int, error)
	// Delete removes the file at path (relative to root).
	Delete(path string) error
}
