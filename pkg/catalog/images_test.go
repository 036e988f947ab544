package catalog

import (
	"errors"
	"io"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/example/restaurant/pkg/apperrors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileImageStoreSave(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewFileImageStore(fs, "static/images", "images")

	p1, err := store.Save("dosa.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	p2, err := store.Save("dosa.jpg", strings.NewReader("other-bytes"))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^images/[0-9a-f]{16}_dosa\.jpg$`), p1)
	assert.NotEqual(t, p1, p2)

	data, err := afero.ReadFile(fs, filepath.Join("static/images", filepath.Base(p1)))
	require.NoError(t, err)
	assert.Equal(t, "jpeg-bytes", string(data))
}

func TestFileImageStoreSanitizesNames(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewFileImageStore(fs, "up", "images")

	p, err := store.Save("../../etc/pass wd.png", strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p, "_pass_wd.png"), p)

	p, err = store.Save(`C:\Users\me\photo.jpg`, strings.NewReader("x"))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(p, "_photo.jpg"), p)

	_, err = store.Save("..", strings.NewReader("x"))
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestFileImageStoreReadFailureIsStorageError(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewFileImageStore(fs, "up", "images")

	_, err := store.Save("a.jpg", brokenReader{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStorage))
	assert.True(t, errors.Is(err, io.ErrUnexpectedEOF))

	files, err := afero.ReadDir(fs, "up")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFileImageStoreReadOnlyFs(t *testing.T) {
	store := NewFileImageStore(afero.NewReadOnlyFs(afero.NewMemMapFs()), "up", "images")

	_, err := store.Save("a.jpg", strings.NewReader("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrStorage))
}

func TestFileImageStoreRemove(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewFileImageStore(fs, "up", "images")

	p, err := store.Save("idli.jpg", strings.NewReader("x"))
	require.NoError(t, err)
	require.NoError(t, store.Remove(p))

	files, err := afero.ReadDir(fs, "up")
	require.NoError(t, err)
	assert.Empty(t, files)

	err = store.Remove(p)
	assert.True(t, errors.Is(err, apperrors.ErrStorage))
}
