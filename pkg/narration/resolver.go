package narration

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

var (
	errUnsupportedScheme = errors.New("unsupported narration url scheme")
	errOutsideRoot       = errors.New("narration path escapes media root")
)

// Resolver maps narration URLs onto files below the media root.
type Resolver struct {
	root string
}

// NewResolver creates a resolver rooted at dir.
func NewResolver(dir string) *Resolver {
	return &Resolver{root: dir}
}

// Root returns the media root directory.
func (r *Resolver) Root() string { return r.root }

// Resolve accepts relative paths ("audio/hero.mp3", "/audio/hero.mp3") and file:// URLs.
// The file must exist.
func (r *Resolver) Resolve(raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("invalid narration url %q: %w", raw, err)
	}

	var path string
	switch u.Scheme {
	case "":
		rel := filepath.Clean(filepath.FromSlash(strings.TrimLeft(u.Path, "/")))
		if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return "", fmt.Errorf("%w: %s", errOutsideRoot, raw)
		}
		path = filepath.Join(r.root, rel)
	case "file":
		path = filepath.FromSlash(u.Path)
	default:
		return "", fmt.Errorf("%w: %s", errUnsupportedScheme, u.Scheme)
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("narration file unavailable: %w", err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("narration path is a directory: %s", path)
	}
	return path, nil
}
