package engine

import (
	"fmt"
	"net/url"
	"path"
	"strings"

	"golang.org/x/text/unicode/norm"

	"shorts/internal/models"
)

// MediaURLPrefix is where the media tree is served over HTTP.
const MediaURLPrefix = "/media"

// NormalizeName trims a category name, converts it to NFC so names typed on
// macOS (NFD Hangul) and elsewhere land in the same directory, and validates
// it as a single visible path segment.
func NormalizeName(name string) (string, error) {
	name = norm.NFC.String(strings.TrimSpace(name))
	if err := validateName(name); err != nil {
		return "", err
	}
	return name, nil
}

// validateName checks a name used as one path segment. File names are
// validated but not normalized since they must match what is on disk.
func validateName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidName)
	case name == "." || name == "..":
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	case strings.ContainsAny(name, "/\\\x00"):
		return fmt.Errorf("%w: %q must not contain path separators", ErrInvalidName, name)
	case isHidden(name):
		return fmt.Errorf("%w: %q is hidden", ErrInvalidName, name)
	}
	return nil
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

func buildKinds(images, videos []string) map[string]models.MediaKind {
	kinds := make(map[string]models.MediaKind, len(images)+len(videos))
	for _, ext := range images {
		kinds[strings.ToLower(ext)] = models.KindImage
	}
	for _, ext := range videos {
		kinds[strings.ToLower(ext)] = models.KindVideo
	}
	return kinds
}

// kindOf classifies a file name by its lower-cased extension.
func (o *Organizer) kindOf(name string) (models.MediaKind, bool) {
	kind, ok := o.kinds[strings.ToLower(path.Ext(name))]
	return kind, ok
}

// mediaURL joins escaped segments under MediaURLPrefix.
func mediaURL(segments ...string) string {
	escaped := make([]string, 0, len(segments)+1)
	escaped = append(escaped, MediaURLPrefix)
	for _, s := range segments {
		escaped = append(escaped, url.PathEscape(s))
	}
	return strings.Join(escaped, "/")
}

// numberedName returns "name (n).ext" for n > 0.
func numberedName(name string, n int) string {
	if n == 0 {
		return name
	}
	ext := path.Ext(name)
	base := strings.TrimSuffix(name, ext)
	return fmt.Sprintf("%s (%d)%s", base, n, ext)
}
