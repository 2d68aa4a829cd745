/*
photo.go - Photo attachment storage

PURPOSE:
  Saves uploaded delivery photos to a local directory. Filenames are
  prefixed with a UUID so concurrent uploads of identically-named files
  never collide, and the original name is sanitized to a safe subset.

The stored path (relative to the upload dir) is what gets attached to
every movement of the batch.
*/
package api

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// PhotoStore saves attachments under a single directory.
type PhotoStore struct {
	Dir string
}

func NewPhotoStore(dir string) (*PhotoStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &PhotoStore{Dir: dir}, nil
}

// Save writes the upload to disk and returns the stored filename.
func (p *PhotoStore) Save(originalName string, r io.Reader) (string, error) {
	name := uuid.NewString() + "_" + sanitizeFilename(originalName)

	f, err := os.Create(filepath.Join(p.Dir, name))
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(f, r); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return name, nil
}

// sanitizeFilename keeps the base name and replaces anything outside a
// conservative character set.
func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "upload"
	}
	return b.String()
}
