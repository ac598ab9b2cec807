package api

import (
	"net/http"
	"os"
	"strings"
)

// spaFileSystem implements http.FileSystem and falls back to index.html for
// client-side routes such as /story/{id}.
type spaFileSystem struct {
	root http.FileSystem
}

// Open opens the named file. If the file does not exist, it falls back to index.html.
// Missing paths under /api/ and /media/ stay missing.
func (s *spaFileSystem) Open(name string) (http.File, error) {
	f, err := s.root.Open(name)
	if os.IsNotExist(err) {
		if strings.HasPrefix(name, "/api/") || strings.HasPrefix(name, "/media/") {
			return nil, err
		}
		return s.root.Open("index.html")
	}
	if err != nil {
		return nil, err
	}
	return f, nil
}
