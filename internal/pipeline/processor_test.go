package pipeline_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/price-tracker/constants"
	"github.com/joseph-ayodele/price-tracker/internal/common"
	"github.com/joseph-ayodele/price-tracker/internal/entity"
	"github.com/joseph-ayodele/price-tracker/internal/events"
	"github.com/joseph-ayodele/price-tracker/internal/llm"
	"github.com/joseph-ayodele/price-tracker/internal/metrics"
	"github.com/joseph-ayodele/price-tracker/internal/pipeline"
	"github.com/joseph-ayodele/price-tracker/internal/repository"
	"github.com/joseph-ayodele/price-tracker/internal/repository/repotest"
)

type fakeExtractor struct {
	result llm.Result
	calls  int
}

func (f *fakeExtractor) Extract(context.Context, []byte) llm.Result {
	f.calls++
	return f.result
}

type recordedEvent struct {
	channel string
	payload any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) Publish(_ context.Context, channel string, payload any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{channel: channel, payload: payload})
}

type failingRecords struct {
	repository.RecordRepository
}

func (failingRecords) CreateBatch(context.Context, []entity.ExtractedRecord) error {
	return common.WrapError(errors.New("disk full"), "insert")
}

type fixture struct {
	proc      *pipeline.Processor
	extractor *fakeExtractor
	records   repository.RecordRepository
	stores    repository.StoreRepository
	publisher *recordingPublisher
	metrics   *metrics.PipelineMetrics
}

func newFixture(t *testing.T, result llm.Result) *fixture {
	t.Helper()
	db := repotest.NewDB(t)
	logger := repotest.Logger()
	m, err := metrics.NewPipelineMetrics(prometheus.NewRegistry())
	require.NoError(t, err)

	f := &fixture{
		extractor: &fakeExtractor{result: result},
		records:   repository.NewRecordRepository(db, logger),
		stores:    repository.NewStoreRepository(db, logger),
		publisher: &recordingPublisher{},
		metrics:   m,
	}
	f.proc = pipeline.NewProcessor(f.extractor, f.records, f.stores, logger,
		pipeline.WithPublisher(f.publisher),
		pipeline.WithMetrics(m),
	)
	return f
}

var tagImage = []byte{0xff, 0xd8, 0xff, 0xe0}

func TestExtractAndSave_MixedCandidates(t *testing.T) {
	f := newFixture(t, llm.Succeeded([]llm.RawCandidate{
		cand("Milk", ptr(1500.0)),
		cand("", ptr(900.0)),
		cand("Bread", ptr(-5.0)),
	}))
	ctx := context.Background()

	recs, err := f.proc.ExtractAndSave(ctx, pipeline.ExtractRequest{
		Image:            tagImage,
		ImagePath:        "uploads/product_20240501_093000_tag.jpg",
		Location:         "Seoul",
		OriginalFilename: "tag.jpg",
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Milk", recs[0].ProductName)
	assert.Equal(t, constants.StatusAutoApproved, recs[0].Status)
	assert.Equal(t, "Seoul", recs[0].Location())
	assert.Equal(t, "tag.jpg", recs[0].Metadata["original_filename"])

	stored, err := f.records.GetByID(ctx, recs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusAutoApproved, stored.Status)
	assert.Equal(t, "uploads/product_20240501_093000_tag.jpg", stored.ImagePath)

	n, err := f.records.Count(ctx, entity.RecordFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.ExtractionsTotal.WithLabelValues("none")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.RecordsTotal.WithLabelValues(string(constants.StatusAutoApproved))), 0)

	require.Len(t, f.publisher.events, 1)
	assert.Equal(t, constants.EventPricesExtracted, f.publisher.events[0].channel)
	ev, ok := f.publisher.events[0].payload.(events.PricesExtracted)
	require.True(t, ok)
	assert.Equal(t, 1, ev.Count)
	assert.Zero(t, ev.PendingReviewCount)
	assert.Equal(t, []string{recs[0].ID.String()}, ev.RecordIDs)
	assert.NotEmpty(t, ev.RequestID)
}

func TestExtractAndSave_FailureYieldsNoRecords(t *testing.T) {
	f := newFixture(t, llm.Failed(llm.FailureEnvelope, errors.New("choices absent")))
	ctx := context.Background()

	recs, err := f.proc.ExtractAndSave(ctx, pipeline.ExtractRequest{Image: tagImage})
	require.NoError(t, err)
	assert.Empty(t, recs)

	n, err := f.records.Count(ctx, entity.RecordFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.ExtractionsTotal.WithLabelValues(string(llm.FailureEnvelope))), 0)
}

func TestExtractAndSave_EmptyImage(t *testing.T) {
	f := newFixture(t, llm.Succeeded(nil))
	_, err := f.proc.ExtractAndSave(context.Background(), pipeline.ExtractRequest{})
	assert.ErrorIs(t, err, common.ErrInvalidInput)
	assert.Zero(t, f.extractor.calls)
}

func TestExtractAndSave_UnknownStore(t *testing.T) {
	f := newFixture(t, llm.Succeeded([]llm.RawCandidate{cand("Milk", ptr(1500.0))}))
	missing := uuid.New()

	_, err := f.proc.ExtractAndSave(context.Background(), pipeline.ExtractRequest{Image: tagImage, StoreID: &missing})
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.Zero(t, f.extractor.calls, "vision call must not happen for an unknown store")
}

func TestExtractAndSave_AttachesStore(t *testing.T) {
	f := newFixture(t, llm.Succeeded([]llm.RawCandidate{cand("Milk", ptr(1500.0))}))
	ctx := context.Background()
	store, _, err := f.stores.Create(ctx, entity.Store{StoreName: "Mart One"})
	require.NoError(t, err)

	recs, err := f.proc.ExtractAndSave(ctx, pipeline.ExtractRequest{Image: tagImage, StoreID: &store.ID})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.NotNil(t, recs[0].StoreID)
	assert.Equal(t, store.ID, *recs[0].StoreID)

	byStore, err := f.proc.RecordsByStore(ctx, store.ID, nil)
	require.NoError(t, err)
	require.Len(t, byStore, 1)
	assert.Equal(t, recs[0].ID, byStore[0].ID)
}

func TestExtractAndSave_SaveIsAtomic(t *testing.T) {
	db := repotest.NewDB(t)
	logger := repotest.Logger()
	records := repository.NewRecordRepository(db, logger)
	ext := &fakeExtractor{result: llm.Succeeded([]llm.RawCandidate{
		cand("Milk", ptr(1500.0)),
		cand("Bread", ptr(2500.0)),
	})}
	proc := pipeline.NewProcessor(ext, failingRecords{records}, repository.NewStoreRepository(db, logger), logger)

	recs, err := proc.ExtractAndSave(context.Background(), pipeline.ExtractRequest{Image: tagImage})
	require.Error(t, err)
	assert.Nil(t, recs)

	n, err := records.Count(context.Background(), entity.RecordFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestReviewRecord_ApproveWithPriceEdit(t *testing.T) {
	f := newFixture(t, llm.Succeeded([]llm.RawCandidate{cand("Milk", ptr(1500.0))}))
	ctx := context.Background()

	recs, err := f.proc.ExtractAndSave(ctx, pipeline.ExtractRequest{Image: tagImage})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, constants.StatusAutoApproved, recs[0].Status)

	got, err := f.proc.ReviewRecord(ctx, recs[0].ID, pipeline.ReviewCommand{
		Price:  ptr(1600.0),
		Action: constants.ActionApprove,
	})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusApproved, got.Status)
	assert.InDelta(t, 1600, got.Price, 1e-9)

	stored, err := f.records.GetByID(ctx, recs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusApproved, stored.Status)
	assert.InDelta(t, 1600, stored.Price, 1e-9)
	assert.Equal(t, "Milk", stored.ProductName)

	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.ReviewsTotal.WithLabelValues("approve")), 0)
	require.Len(t, f.publisher.events, 2)
	ev, ok := f.publisher.events[1].payload.(events.RecordReviewed)
	require.True(t, ok)
	assert.Equal(t, constants.StatusApproved, ev.Status)
}

func TestReviewRecord_RejectEditsOnly(t *testing.T) {
	f := newFixture(t, llm.Succeeded([]llm.RawCandidate{cand("Milk", ptr(1500.0))}))
	ctx := context.Background()

	recs, err := f.proc.ExtractAndSave(ctx, pipeline.ExtractRequest{Image: tagImage})
	require.NoError(t, err)

	got, err := f.proc.ReviewRecord(ctx, recs[0].ID, pipeline.ReviewCommand{
		Name:   ptr("Whole Milk"),
		Action: constants.ActionReject,
	})
	require.NoError(t, err)
	assert.Equal(t, "Whole Milk", got.ProductName)
	assert.Equal(t, constants.StatusAutoApproved, got.Status)
}

func TestReviewRecord_UnknownID(t *testing.T) {
	f := newFixture(t, llm.Succeeded(nil))
	ctx := context.Background()

	_, err := f.proc.ReviewRecord(ctx, uuid.New(), pipeline.ReviewCommand{Action: constants.ActionApprove})
	assert.ErrorIs(t, err, common.ErrNotFound)

	n, err := f.records.Count(ctx, entity.RecordFilter{})
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.publisher.events)
}

func TestListPendingReview(t *testing.T) {
	f := newFixture(t, llm.Succeeded(nil))
	ctx := context.Background()
	lowConfidence := pipeline.NewNormalizer(repotest.Logger())
	lowConfidence.Confidence = 0.5

	proc := pipeline.NewProcessor(
		&fakeExtractor{result: llm.Succeeded([]llm.RawCandidate{cand("Milk", ptr(1500.0)), cand("Eggs", ptr(4000.0))})},
		f.records, f.stores, repotest.Logger(),
		pipeline.WithNormalizer(lowConfidence),
	)
	recs, err := proc.ExtractAndSave(ctx, pipeline.ExtractRequest{Image: tagImage})
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, 2, pipeline.CountPending(recs))

	page, err := f.proc.ListPendingReview(ctx, entity.Page{Number: 1, Size: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.Equal(t, 2, page.TotalPages)
	assert.Len(t, page.Items, 1)

	stats, err := f.proc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, entity.Stats{TotalProducts: 2, TotalStores: 0, PendingReviews: 2}, stats)
}

func TestRecordsByStore_UnknownStore(t *testing.T) {
	f := newFixture(t, llm.Succeeded(nil))
	_, err := f.proc.RecordsByStore(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, common.ErrNotFound)
}

func TestDayBounds(t *testing.T) {
	kst := time.FixedZone("KST", 9*60*60)
	from, to := pipeline.DayBounds(time.Date(2024, 5, 2, 3, 0, 0, 0, kst))
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), from)
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC), to)
}
