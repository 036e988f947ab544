package catalog

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/example/restaurant/pkg/apperrors"
	"github.com/spf13/afero"
)

// ImageStore persists uploaded menu images and returns the path to record.
// Remove takes a path previously returned by Save.
type ImageStore interface {
	Save(filename string, r io.Reader) (string, error)
	Remove(imagePath string) error
}

// FileImageStore writes uploads into dir on fs. Names get a random prefix so
// two uploads of "dosa.jpg" never overwrite each other.
type FileImageStore struct {
	fs        afero.Fs
	dir       string
	urlPrefix string
}

func NewFileImageStore(fs afero.Fs, dir, urlPrefix string) *FileImageStore {
	return &FileImageStore{fs: fs, dir: dir, urlPrefix: urlPrefix}
}

func (s *FileImageStore) Save(filename string, r io.Reader) (string, error) {
	base := sanitizeFilename(filename)
	if base == "" {
		return "", apperrors.Validation("image file name is empty")
	}

	prefix, err := randomHex(8)
	if err != nil {
		return "", apperrors.Storage(err, "failed to name image")
	}
	name := prefix + "_" + base

	if err := s.fs.MkdirAll(s.dir, 0o755); err != nil {
		return "", apperrors.Storage(err, "failed to create image directory")
	}

	f, err := s.fs.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", apperrors.Storage(err, "failed to store image")
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		_ = s.fs.Remove(filepath.Join(s.dir, name))
		return "", apperrors.Storage(err, "failed to store image")
	}
	if err := f.Close(); err != nil {
		return "", apperrors.Storage(err, "failed to store image")
	}

	return path.Join(s.urlPrefix, name), nil
}

func (s *FileImageStore) Remove(imagePath string) error {
	name := path.Base(imagePath)
	if name == "." || name == "/" || name == ".." {
		return apperrors.Validation("invalid image path %q", imagePath)
	}
	if err := s.fs.Remove(filepath.Join(s.dir, name)); err != nil {
		return apperrors.Storage(err, "failed to remove image")
	}
	return nil
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" || name == ".." {
		return ""
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("read random: %w", err)
	}
	return hex.EncodeToString(b), nil
}
