package llm

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joseph-ayodele/price-tracker/constants"
	"github.com/joseph-ayodele/price-tracker/internal/common"
)

// ReadImage loads an image file for extraction, enforcing the extension allow-list and size cap.
func ReadImage(path string) ([]byte, error) {
	if !constants.IsImageExt(filepath.Ext(path)) {
		return nil, common.InvalidInputf("unsupported image type %q", filepath.Ext(path))
	}
	st, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}
	if st.Size() > constants.MaxImageBytes {
		return nil, common.InvalidInputf("image %s is %d bytes, limit is %d", filepath.Base(path), st.Size(), constants.MaxImageBytes)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return b, nil
}
