package storage

import (
	"errors"

	"shorts/internal/models"
)

var (
	// ErrDestinationExists is returned by Rename instead of overwriting.
	ErrDestinationExists = errors.New("destination already exists")
	// ErrOutsideRoot is returned for paths that resolve above the root.
	ErrOutsideRoot = errors.New("path escapes storage root")
	// ErrNotDirectory is returned when a directory was expected.
	ErrNotDirectory = errors.New("not a directory")
)

// Defines the interface for the media tree backend. Paths are slash-separated
// and relative to the root. No method deletes a file.
type StorageProvider interface {
	ReadDir(relativePath string) ([]models.FileMetadata, error)
	GetMetadata(relativePath string) (models.FileMetadata, error)
	Exists(relativePath string) (bool, error)
	EnsureDir(relativePath string) (bool, error)
	Rename(oldPath, newPath string) error
	RemoveDir(relativePath string) error
	AbsPath(relativePath string) (string, error)
	GetPath() string
}
