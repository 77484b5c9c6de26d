package ingest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/joseph-ayodele/price-tracker/constants"
	"github.com/joseph-ayodele/price-tracker/internal/common"
)

const (
	uploadTimeLayout = "20060102_150405"
	maxNameAttempts  = 100
)

// ImageStore writes uploaded images under one directory.
type ImageStore struct {
	dir string
	now func() time.Time
}

func NewImageStore(dir string) *ImageStore {
	if strings.TrimSpace(dir) == "" {
		dir = "uploads"
	}
	return &ImageStore{dir: dir, now: time.Now}
}

// Dir is the upload directory.
func (s *ImageStore) Dir() string { return s.dir }

// Save writes data as <dir>/product_<yyyyMMdd_HHmmss>_<name> and returns that
// path with forward slashes. Only the base of name is used. A name already
// taken within the same second gets a counter: product_<ts>_1_<name>.
func (s *ImageStore) Save(name string, data []byte) (string, error) {
	base := sanitizeName(name)
	if base == "" {
		return "", common.InvalidInputf("file name is required")
	}
	if !AllowedExt(base) {
		return "", common.InvalidInputf("unsupported image type %q", filepath.Ext(base))
	}
	if len(data) == 0 {
		return "", common.InvalidInputf("image is empty")
	}
	if len(data) > constants.MaxImageBytes {
		return "", common.InvalidInputf("image is %d bytes, limit is %d", len(data), constants.MaxImageBytes)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create upload dir: %w", err)
	}
	stamp := "product_" + s.now().Format(uploadTimeLayout)
	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		fname := stamp + "_" + base
		if attempt > 0 {
			fname = fmt.Sprintf("%s_%d_%s", stamp, attempt, base)
		}
		rel := path.Join(filepath.ToSlash(s.dir), fname)
		if len(rel) > constants.MaxImagePathLen {
			return "", common.InvalidInputf("image path longer than %d characters", constants.MaxImagePathLen)
		}
		err := writeNew(filepath.Join(s.dir, fname), data)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("write image: %w", err)
		}
		return rel, nil
	}
	return "", fmt.Errorf("write image: no free name for %s after %d attempts", base, maxNameAttempts)
}

// writeNew fails with fs.ErrExist instead of replacing an earlier upload.
func writeNew(name string, data []byte) error {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		_ = os.Remove(name)
		return err
	}
	return f.Close()
}

func sanitizeName(name string) string {
	name = strings.ReplaceAll(strings.TrimSpace(name), "\\", "/")
	base := path.Base(name)
	if base == "." || base == "/" || base == ".." {
		return ""
	}
	return strings.ReplaceAll(base, " ", "_")
}
