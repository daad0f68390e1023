// Package storage defines the file-system abstraction for corpus and knowledge files.
package storage

import "time"

// FileMetadata describes one stored file.
type FileMetadata struct {
	Path      string
	Checksum  string
	UpdatedAt time.Time
}

// Provider is the interface for data-directory file operations.
// Paths are relative to the provider root; implementations must reject
// paths that escape it.
type Provider interface {
	// List returns metadata for every file under dir with the given extension.
	List(dir, ext string) ([]FileMetadata, error)
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
}
