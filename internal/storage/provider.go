// Package storage defines the content-root file-system abstraction.
package storage

import "time"

// FileInfo is a directory listing entry.
type FileInfo struct {
	Name    string
	ModTime time.Time
}

// Provider is the interface for content file operations. All paths are
// relative to the content root.
type Provider interface {
	// ListDir returns the .md files directly inside dir. A missing directory
	// is not an error: it returns an empty listing.
	ListDir(dir string) ([]FileInfo, error)
	// Exists reports whether a regular file exists at path.
	Exists(path string) bool
	// Read returns the raw bytes of the file at path.
	Read(path string) ([]byte, error)
	// Write atomically writes content to path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// Move renames oldPath to newPath.
	Move(oldPath, newPath string) error
	// Root returns the absolute content root directory.
	Root() string
}
