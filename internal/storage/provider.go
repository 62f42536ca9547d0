// Package storage defines the handoff document store abstraction.
package storage

// Provider is the capability the engine uses to persist documents.
// Paths are slash-separated and relative to the store root.
type Provider interface {
	// Read returns the raw bytes at path. Missing files wrap os.ErrNotExist.
	Read(path string) ([]byte, error)
	// Write creates or overwrites path, creating parent directories.
	Write(path string, content []byte) error
	// Delete removes the file at path.
	Delete(path string) error
	// List returns the names of regular files directly under dir, sorted.
	// A missing directory wraps os.ErrNotExist.
	List(dir string) ([]string, error)
	// EnsureDir creates dir and any parents.
	EnsureDir(dir string) error
	// Exists reports whether a file or directory exists at path.
	Exists(path string) (bool, error)
	// Move renames oldPath to newPath in one step.
	Move(oldPath, newPath string) error
}
