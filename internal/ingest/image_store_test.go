package ingest

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/price-tracker/internal/common"
)

func TestImageStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	s := NewImageStore(dir)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC) }

	rel, err := s.Save("shelf tag.JPG", []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(dir)+"/product_20240501_093015_shelf_tag.JPG", rel)

	got, err := os.ReadFile(filepath.FromSlash(rel))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, got)
}

func TestImageStore_SaveSameSecondKeepsBoth(t *testing.T) {
	dir := t.TempDir()
	s := NewImageStore(dir)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 9, 30, 15, 0, time.UTC) }

	first, err := s.Save("tag.png", []byte("first"))
	require.NoError(t, err)
	second, err := s.Save("tag.png", []byte("second"))
	require.NoError(t, err)
	third, err := s.Save("tag.png", []byte("third"))
	require.NoError(t, err)

	assert.Equal(t, filepath.ToSlash(dir)+"/product_20240501_093015_tag.png", first)
	assert.Equal(t, filepath.ToSlash(dir)+"/product_20240501_093015_1_tag.png", second)
	assert.Equal(t, filepath.ToSlash(dir)+"/product_20240501_093015_2_tag.png", third)

	for rel, want := range map[string]string{first: "first", second: "second", third: "third"} {
		got, err := os.ReadFile(filepath.FromSlash(rel))
		require.NoError(t, err)
		assert.Equal(t, want, string(got))
	}
}

func TestImageStore_SaveStripsDirectories(t *testing.T) {
	dir := t.TempDir()
	s := NewImageStore(dir)

	rel, err := s.Save("../../etc/tag.png", []byte{1})
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(dir), filepath.ToSlash(filepath.Dir(filepath.FromSlash(rel))))
}

func TestImageStore_SaveRejects(t *testing.T) {
	s := NewImageStore(t.TempDir())
	tests := []struct {
		name string
		file string
		data []byte
	}{
		{"no name", "", []byte{1}},
		{"pdf", "receipt.pdf", []byte{1}},
		{"empty data", "tag.jpg", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Save(tt.file, tt.data)
			assert.ErrorIs(t, err, common.ErrInvalidInput)
		})
	}
}
