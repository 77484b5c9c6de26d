// Package ingest stores uploaded price-tag images and feeds image files from
// disk into the extraction pipeline.
package ingest

import (
	"context"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/price-tracker/internal/entity"
	"github.com/joseph-ayodele/price-tracker/internal/pipeline"
)

// Extractor is the pipeline behavior ingest depends on.
type Extractor interface {
	ExtractAndSave(ctx context.Context, req pipeline.ExtractRequest) ([]entity.ExtractedRecord, error)
}

// FileResult is the per-file outcome of a directory run.
type FileResult struct {
	SourcePath string
	ImagePath  string
	Records    int
	Pending    int
	Err        string
}

// DirStats summarizes a directory run.
type DirStats struct {
	Scanned   uint32
	Matched   uint32
	Succeeded uint32
	Failed    uint32
	Records   uint32
	Pending   uint32
}

// Options apply to every file of a run.
type Options struct {
	StoreID    *uuid.UUID
	Location   string
	SkipHidden bool
}
