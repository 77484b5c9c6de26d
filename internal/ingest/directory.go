package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/joseph-ayodele/price-tracker/constants"
	"github.com/joseph-ayodele/price-tracker/internal/llm"
	"github.com/joseph-ayodele/price-tracker/internal/pipeline"
)

// Directory runs image files through the pipeline one at a time.
type Directory struct {
	proc   Extractor
	store  *ImageStore
	logger *slog.Logger
}

// NewDirectory copies each image into store before extraction when store is
// non-nil; otherwise records point at the source path.
func NewDirectory(proc Extractor, store *ImageStore, logger *slog.Logger) *Directory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Directory{proc: proc, store: store, logger: logger}
}

// Run walks root and extracts every image it finds. A failing file is
// recorded and the walk continues; a cancelled context stops it.
func (d *Directory) Run(ctx context.Context, root string, opts Options) ([]FileResult, DirStats, error) {
	if strings.TrimSpace(root) == "" {
		return nil, DirStats{}, errors.New("root path is required")
	}

	var results []FileResult
	var stats DirStats

	err := filepath.WalkDir(root, func(path string, de fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		stats.Scanned++
		if walkErr != nil {
			results = append(results, FileResult{SourcePath: path, Err: walkErr.Error()})
			stats.Failed++
			return nil
		}
		if opts.SkipHidden && path != root && IsHidden(path) {
			if de.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if de.IsDir() || !AllowedExt(path) {
			return nil
		}
		stats.Matched++

		r := d.Process(ctx, path, opts)
		results = append(results, r)
		if r.Err != "" {
			stats.Failed++
			return nil
		}
		stats.Succeeded++
		stats.Records += uint32(r.Records)
		stats.Pending += uint32(r.Pending)
		return nil
	})
	if err != nil {
		return results, stats, fmt.Errorf("walk: %w", err)
	}

	d.logger.Info("ingest.dir.done",
		"root", root,
		"matched", stats.Matched,
		"succeeded", stats.Succeeded,
		"failed", stats.Failed,
		"records", stats.Records,
	)
	return results, stats, nil
}

// Process extracts a single image file.
func (d *Directory) Process(ctx context.Context, path string, opts Options) FileResult {
	res := FileResult{SourcePath: path}
	data, err := llm.ReadImage(path)
	if err != nil {
		d.logger.Warn("ingest.file.read_failed", "path", path, "error", err)
		res.Err = err.Error()
		return res
	}

	imagePath := filepath.ToSlash(path)
	if d.store != nil {
		if imagePath, err = d.store.Save(filepath.Base(path), data); err != nil {
			d.logger.Warn("ingest.file.save_failed", "path", path, "error", err)
			res.Err = err.Error()
			return res
		}
	}
	if len(imagePath) > constants.MaxImagePathLen {
		res.Err = fmt.Sprintf("image path longer than %d characters", constants.MaxImagePathLen)
		return res
	}
	res.ImagePath = imagePath

	recs, err := d.proc.ExtractAndSave(ctx, pipeline.ExtractRequest{
		Image:            data,
		ImagePath:        imagePath,
		StoreID:          opts.StoreID,
		Location:         opts.Location,
		OriginalFilename: filepath.Base(path),
	})
	if err != nil {
		d.logger.Warn("ingest.file.extract_failed", "path", path, "error", err)
		res.Err = err.Error()
		return res
	}
	res.Records = len(recs)
	res.Pending = pipeline.CountPending(recs)
	return res
}
