package engine

import (
	"errors"
	"fmt"
	"path"
	"time"

	"shorts/internal/storage"
)

// maxNumberedAttempts bounds the "name (n).ext" search during relocation.
const maxNumberedAttempts = 1000

// relocate moves the entry at src into dstDir under name, picking a numbered
// variant when name is taken. It returns the name actually used. Names
// returned to downloads are exempt from auto-sort on detection.
func (o *Organizer) relocate(src, dstDir, name string) (string, error) {
	for n := 0; n < maxNumberedAttempts; n++ {
		candidate := numberedName(name, n)
		if dstDir == o.downloadsDir {
			o.returned.add(candidate, time.Now())
		}
		err := o.store.Rename(src, path.Join(dstDir, candidate))
		if err == nil {
			return candidate, nil
		}
		if dstDir == o.downloadsDir {
			o.returned.take(candidate, time.Now())
		}
		if !errors.Is(err, storage.ErrDestinationExists) {
			return "", fmt.Errorf("failed to move %s: %w", src, err)
		}
	}
	return "", fmt.Errorf("%w: no free name for %s in %s", ErrConflict, name, dstDir)
}
