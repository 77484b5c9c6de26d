package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/price-tracker/constants"
	"github.com/joseph-ayodele/price-tracker/internal/entity"
	"github.com/joseph-ayodele/price-tracker/internal/ingest"
	"github.com/joseph-ayodele/price-tracker/internal/pipeline"
	"github.com/joseph-ayodele/price-tracker/internal/repository/repotest"
)

type fakeProc struct {
	mu       sync.Mutex
	requests []pipeline.ExtractRequest
	failFor  string
}

func (f *fakeProc) ExtractAndSave(_ context.Context, req pipeline.ExtractRequest) ([]entity.ExtractedRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if req.OriginalFilename == f.failFor {
		return nil, errors.New("boom")
	}
	return []entity.ExtractedRecord{
		{ProductName: "Milk", Status: constants.StatusAutoApproved},
		{ProductName: "Eggs", Status: constants.StatusPendingReview},
	}, nil
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xd8}, 0o644))
}

func TestDirectory_Run(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.jpg"))
	writeFile(t, filepath.Join(root, "nested", "b.png"))
	writeFile(t, filepath.Join(root, "notes.txt"))
	writeFile(t, filepath.Join(root, ".hidden", "c.jpg"))
	writeFile(t, filepath.Join(root, "bad.webp"))

	proc := &fakeProc{failFor: "bad.webp"}
	storeID := uuid.New()
	d := ingest.NewDirectory(proc, nil, repotest.Logger())

	results, stats, err := d.Run(context.Background(), root, ingest.Options{
		StoreID:    &storeID,
		Location:   "Seoul",
		SkipHidden: true,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 3, stats.Matched)
	assert.EqualValues(t, 2, stats.Succeeded)
	assert.EqualValues(t, 1, stats.Failed)
	assert.EqualValues(t, 4, stats.Records)
	assert.EqualValues(t, 2, stats.Pending)
	assert.Len(t, results, 3)

	require.Len(t, proc.requests, 3)
	for _, req := range proc.requests {
		assert.Equal(t, &storeID, req.StoreID)
		assert.Equal(t, "Seoul", req.Location)
		assert.NotEmpty(t, req.Image)
		assert.NotContains(t, req.ImagePath, ".hidden")
	}
}

func TestDirectory_RunCopiesIntoStore(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tag.jpg"))
	uploads := filepath.Join(t.TempDir(), "uploads")

	proc := &fakeProc{}
	d := ingest.NewDirectory(proc, ingest.NewImageStore(uploads), repotest.Logger())
	results, _, err := d.Run(context.Background(), root, ingest.Options{})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results[0].ImagePath, "/product_")
	assert.Equal(t, "tag.jpg", proc.requests[0].OriginalFilename)

	entries, err := os.ReadDir(uploads)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestDirectory_RunCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "tag.jpg"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	proc := &fakeProc{}
	_, _, err := ingest.NewDirectory(proc, nil, repotest.Logger()).Run(ctx, root, ingest.Options{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, proc.requests)
}

func TestDirectory_RunRequiresRoot(t *testing.T) {
	_, _, err := ingest.NewDirectory(&fakeProc{}, nil, nil).Run(context.Background(), " ", ingest.Options{})
	assert.Error(t, err)
}
