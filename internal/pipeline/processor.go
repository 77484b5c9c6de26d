// Package pipeline turns price-tag images into stored price records and
// applies reviewer decisions to them.
package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/price-tracker/constants"
	"github.com/joseph-ayodele/price-tracker/internal/common"
	"github.com/joseph-ayodele/price-tracker/internal/entity"
	"github.com/joseph-ayodele/price-tracker/internal/events"
	"github.com/joseph-ayodele/price-tracker/internal/llm"
	"github.com/joseph-ayodele/price-tracker/internal/metrics"
	"github.com/joseph-ayodele/price-tracker/internal/repository"
)

// Processor coordinates vision extraction, normalization, triage and storage.
type Processor struct {
	extractor  llm.Extractor
	records    repository.RecordRepository
	stores     repository.StoreRepository
	normalizer *Normalizer
	publisher  events.Publisher
	metrics    *metrics.PipelineMetrics
	logger     *slog.Logger
}

type Option func(*Processor)

func WithPublisher(p events.Publisher) Option {
	return func(pr *Processor) {
		if p != nil {
			pr.publisher = p
		}
	}
}

func WithMetrics(m *metrics.PipelineMetrics) Option {
	return func(pr *Processor) { pr.metrics = m }
}

func WithNormalizer(n *Normalizer) Option {
	return func(pr *Processor) {
		if n != nil {
			pr.normalizer = n
		}
	}
}

func NewProcessor(extractor llm.Extractor, records repository.RecordRepository, stores repository.StoreRepository, logger *slog.Logger, opts ...Option) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Processor{
		extractor:  extractor,
		records:    records,
		stores:     stores,
		normalizer: NewNormalizer(logger),
		publisher:  events.NopPublisher{},
		logger:     logger,
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// ExtractRequest describes one uploaded image.
type ExtractRequest struct {
	Image            []byte
	ImagePath        string
	StoreID          *uuid.UUID
	Location         string
	OriginalFilename string
}

// ExtractAndSave runs one image through the pipeline and stores every
// surviving record in a single transaction. An extraction failure is not an
// error: it yields zero records. An unknown store is ErrNotFound.
func (p *Processor) ExtractAndSave(ctx context.Context, req ExtractRequest) ([]entity.ExtractedRecord, error) {
	ctx, rid := common.EnsureRequestID(ctx)
	start := time.Now()

	if len(req.Image) == 0 {
		return nil, common.InvalidInputf("image is empty")
	}
	if req.StoreID != nil {
		ok, err := p.stores.Exists(ctx, *req.StoreID)
		if err != nil {
			return nil, common.WrapError(err, "check store")
		}
		if !ok {
			return nil, common.NotFoundf("store %s", *req.StoreID)
		}
	}

	p.logger.Info("pipeline.extract.start",
		"req_id", rid,
		"image_path", req.ImagePath,
		"image_bytes", len(req.Image),
		"has_store", req.StoreID != nil,
	)

	callStart := time.Now()
	res := p.extractor.Extract(ctx, req.Image)
	p.metrics.ObserveExtraction(outcome(res), time.Since(callStart))
	if !res.OK() {
		p.logger.Warn("pipeline.extract.no_candidates",
			"req_id", rid,
			"kind", string(res.Failure),
			"error", res.Err,
		)
	}

	recs := p.normalizer.Normalize(res.Seq(), req.ImagePath, buildMetadata(req))
	for i := range recs {
		recs[i].Status = Classify(recs[i].ConfidenceScore)
		recs[i].StoreID = req.StoreID
	}

	if err := p.records.CreateBatch(ctx, recs); err != nil {
		p.logger.Error("pipeline.extract.save_failed", "req_id", rid, "records", len(recs), "error", err)
		return nil, common.WrapError(err, "save records")
	}

	pending := CountPending(recs)
	p.metrics.AddRecords(string(constants.StatusAutoApproved), len(recs)-pending)
	p.metrics.AddRecords(string(constants.StatusPendingReview), pending)

	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID.String())
	}
	p.publisher.Publish(ctx, constants.EventPricesExtracted, events.PricesExtracted{
		Type:               constants.EventPricesExtracted,
		RequestID:          rid,
		ImagePath:          req.ImagePath,
		StoreID:            req.StoreID,
		Count:              len(recs),
		PendingReviewCount: pending,
		RecordIDs:          ids,
	})

	p.logger.Info("pipeline.extract.ok",
		"req_id", rid,
		"candidates", len(res.Candidates),
		"records", len(recs),
		"pending_review", pending,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return recs, nil
}

// ReviewRecord applies a reviewer's edit atomically. Unknown ids are
// ErrNotFound and leave storage untouched. Concurrent reviews of the same
// record are last-write-wins.
func (p *Processor) ReviewRecord(ctx context.Context, id uuid.UUID, cmd ReviewCommand) (*entity.ExtractedRecord, error) {
	var before constants.RecordStatus
	rec, err := p.records.Review(ctx, id, func(r *entity.ExtractedRecord) error {
		before = r.Status
		ApplyReview(r, cmd)
		return nil
	})
	if err != nil {
		return nil, err
	}

	p.metrics.ObserveReview(cmd.Action.Label())
	p.publisher.Publish(ctx, constants.EventRecordReviewed, events.RecordReviewed{
		Type:     constants.EventRecordReviewed,
		RecordID: rec.ID.String(),
		Action:   string(cmd.Action),
		Status:   rec.Status,
	})
	p.logger.Info("pipeline.review.ok",
		"record_id", id,
		"action", string(cmd.Action),
		"from", string(before),
		"to", string(rec.Status),
		"name_changed", cmd.Name != nil,
		"price_changed", cmd.Price != nil,
	)
	return rec, nil
}

// ListRecords returns one page of records matching filter, newest first.
func (p *Processor) ListRecords(ctx context.Context, filter entity.RecordFilter, page entity.Page) (entity.RecordPage, error) {
	page = page.Normalize()
	items, total, err := p.records.List(ctx, filter, page)
	if err != nil {
		return entity.RecordPage{}, err
	}
	return entity.NewRecordPage(items, total, page), nil
}

// ListPendingReview is ListRecords restricted to PENDING_REVIEW.
func (p *Processor) ListPendingReview(ctx context.Context, page entity.Page) (entity.RecordPage, error) {
	return p.ListRecords(ctx, entity.RecordFilter{Status: constants.StatusPendingReview}, page)
}

// RecordsByStore lists a store's records, optionally limited to one UTC day.
func (p *Processor) RecordsByStore(ctx context.Context, storeID uuid.UUID, day *time.Time) ([]entity.ExtractedRecord, error) {
	ok, err := p.stores.Exists(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, common.NotFoundf("store %s", storeID)
	}
	filter := entity.RecordFilter{StoreID: &storeID}
	if day != nil {
		from, to := DayBounds(*day)
		filter.From, filter.To = &from, &to
	}
	return p.records.ListAll(ctx, filter)
}

// Stats summarizes totals for dashboards.
func (p *Processor) Stats(ctx context.Context) (entity.Stats, error) {
	products, err := p.records.Count(ctx, entity.RecordFilter{})
	if err != nil {
		return entity.Stats{}, err
	}
	pending, err := p.records.Count(ctx, entity.RecordFilter{Status: constants.StatusPendingReview})
	if err != nil {
		return entity.Stats{}, err
	}
	stores, err := p.stores.Count(ctx)
	if err != nil {
		return entity.Stats{}, err
	}
	return entity.Stats{TotalProducts: products, TotalStores: stores, PendingReviews: pending}, nil
}

// CountPending counts records waiting for review.
func CountPending(recs []entity.ExtractedRecord) int {
	n := 0
	for _, r := range recs {
		if r.Status == constants.StatusPendingReview {
			n++
		}
	}
	return n
}

// DayBounds returns [start of day, start of next day) in UTC.
func DayBounds(day time.Time) (time.Time, time.Time) {
	d := day.UTC()
	from := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 0, 1)
}

func buildMetadata(req ExtractRequest) map[string]any {
	m := map[string]any{}
	if loc := strings.TrimSpace(req.Location); loc != "" {
		m["location"] = loc
	}
	if fn := strings.TrimSpace(req.OriginalFilename); fn != "" {
		m["original_filename"] = fn
	}
	return m
}

func outcome(res llm.Result) string {
	if res.OK() {
		return string(llm.FailureNone)
	}
	return string(res.Failure)
}
