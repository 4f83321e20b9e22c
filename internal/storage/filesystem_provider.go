package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"shorts/internal/models"
)

type FileSystemProvider struct {
	rootPath string
}

func NewFileSystemProvider(rootPath string) (*FileSystemProvider, error) {
	absPath, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve path %s: %w", rootPath, err)
	}
	return &FileSystemProvider{rootPath: absPath}, nil
}

// AbsPath maps a slash-separated relative path onto the filesystem.
func (p *FileSystemProvider) AbsPath(relativePath string) (string, error) {
	rel := filepath.ToSlash(relativePath)
	if strings.Contains(rel, "\x00") {
		return "", fmt.Errorf("%q: %w", relativePath, ErrOutsideRoot)
	}
	for _, segment := range strings.Split(rel, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%q: %w", relativePath, ErrOutsideRoot)
		}
	}
	return filepath.Join(p.rootPath, filepath.FromSlash(rel)), nil
}

func (p *FileSystemProvider) ReadDir(relativePath string) ([]models.FileMetadata, error) {
	dirPath, err := p.AbsPath(relativePath)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dirPath, err)
	}

	out := make([]models.FileMetadata, 0, len(entries))
	for _, entry := range entries {
		fullPath := filepath.Join(dirPath, entry.Name())
		meta, err := p.metadataForAbsolute(fullPath)
		if err != nil {
			// Entry vanished between listing and stat.
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return nil, err
		}
		out = append(out, meta)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (p *FileSystemProvider) GetMetadata(relativePath string) (models.FileMetadata, error) {
	fullPath, err := p.AbsPath(relativePath)
	if err != nil {
		return models.FileMetadata{}, err
	}
	return p.metadataForAbsolute(fullPath)
}

func (p *FileSystemProvider) Exists(relativePath string) (bool, error) {
	fullPath, err := p.AbsPath(relativePath)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(fullPath); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("error stating %s: %w", fullPath, err)
	}
	return true, nil
}

// EnsureDir creates the directory and its parents, reporting whether the
// leaf directory was missing.
func (p *FileSystemProvider) EnsureDir(relativePath string) (bool, error) {
	fullPath, err := p.AbsPath(relativePath)
	if err != nil {
		return false, err
	}
	info, err := os.Stat(fullPath)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s: %w", fullPath, ErrNotDirectory)
		}
		return false, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("error stating %s: %w", fullPath, err)
	}
	if err := os.MkdirAll(fullPath, 0o755); err != nil {
		return false, fmt.Errorf("failed to ensure directory %s: %w", fullPath, err)
	}
	return true, nil
}

// Rename moves an entry within the root. It never replaces an existing
// destination.
func (p *FileSystemProvider) Rename(oldPath, newPath string) error {
	src, err := p.AbsPath(oldPath)
	if err != nil {
		return err
	}
	dst, err := p.AbsPath(newPath)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(src); err != nil {
		return fmt.Errorf("failed to stat source %s: %w", src, err)
	}
	if _, err := os.Lstat(dst); err == nil {
		return fmt.Errorf("%s: %w", dst, ErrDestinationExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to stat destination %s: %w", dst, err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("failed to rename %s to %s: %w", src, dst, err)
	}
	return nil
}

// RemoveDir removes an empty directory.
func (p *FileSystemProvider) RemoveDir(relativePath string) error {
	fullPath, err := p.AbsPath(relativePath)
	if err != nil {
		return err
	}
	if fullPath == p.rootPath {
		return fmt.Errorf("refusing to remove storage root %s", fullPath)
	}
	info, err := os.Lstat(fullPath)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", fullPath, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %w", fullPath, ErrNotDirectory)
	}
	if err := os.Remove(fullPath); err != nil {
		return fmt.Errorf("failed to remove directory %s: %w", fullPath, err)
	}
	return nil
}

func (p *FileSystemProvider) GetPath() string {
	return p.rootPath
}

func (p *FileSystemProvider) metadataForAbsolute(fullPath string) (models.FileMetadata, error) {
	info, err := os.Stat(fullPath)
	if err != nil {
		return models.FileMetadata{}, fmt.Errorf("error stating file %s: %w", fullPath, err)
	}
	relPath, err := filepath.Rel(p.rootPath, fullPath)
	if err != nil {
		return models.FileMetadata{}, fmt.Errorf("error getting relative path for file %s: %w", fullPath, err)
	}
	return models.FileMetadata{
		Name:         info.Name(),
		RelativePath: filepath.ToSlash(relPath),
		Size:         info.Size(),
		ModTime:      info.ModTime(),
		IsDir:        info.IsDir(),
		IsRegular:    info.Mode().IsRegular(),
	}, nil
}
