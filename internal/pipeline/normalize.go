package pipeline

import (
	"iter"
	"log/slog"
	"maps"
	"math"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/price-tracker/constants"
	"github.com/joseph-ayodele/price-tracker/internal/entity"
	"github.com/joseph-ayodele/price-tracker/internal/llm"
)

// Normalizer turns raw candidates into records, dropping the ones that
// cannot be stored.
type Normalizer struct {
	// Confidence is assigned to every record.
	Confidence float64

	logger *slog.Logger
	now    func() time.Time
	newID  func() uuid.UUID
}

// NormalizerOption configures a Normalizer.
type NormalizerOption func(*Normalizer)

// WithClock sets the source of ExtractedAt.
func WithClock(now func() time.Time) NormalizerOption {
	return func(n *Normalizer) { n.now = now }
}

// WithIDGenerator sets the source of record ids.
func WithIDGenerator(newID func() uuid.UUID) NormalizerOption {
	return func(n *Normalizer) { n.newID = newID }
}

func NewNormalizer(logger *slog.Logger, opts ...NormalizerOption) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	n := &Normalizer{
		Confidence: constants.DefaultConfidence,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.New,
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize keeps input order and never merges duplicates. Records carry no
// status; the caller classifies them.
func (n *Normalizer) Normalize(cands iter.Seq[llm.RawCandidate], imagePath string, metadata map[string]any) []entity.ExtractedRecord {
	extractedAt := n.now()
	out := make([]entity.ExtractedRecord, 0)
	idx := 0
	for c := range cands {
		rec, reason, ok := n.normalizeOne(c, imagePath, metadata, extractedAt)
		if !ok {
			n.logger.Debug("pipeline.normalize.dropped", "index", idx, "reason", reason)
		} else {
			out = append(out, rec)
		}
		idx++
	}
	return out
}

func (n *Normalizer) normalizeOne(c llm.RawCandidate, imagePath string, metadata map[string]any, at time.Time) (entity.ExtractedRecord, string, bool) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return entity.ExtractedRecord{}, "empty_name", false
	}
	if c.Price == nil {
		return entity.ExtractedRecord{}, "missing_price", false
	}
	price := *c.Price
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return entity.ExtractedRecord{}, "invalid_price", false
	}
	if price < 0 {
		return entity.ExtractedRecord{}, "negative_price", false
	}
	if price > constants.MaxPrice {
		return entity.ExtractedRecord{}, "price_out_of_range", false
	}

	confidence := n.Confidence
	return entity.ExtractedRecord{
		ID:              n.newID(),
		ProductName:     truncateRunes(name, constants.MaxProductNameLen),
		Price:           price,
		ImagePath:       imagePath,
		ConfidenceScore: &confidence,
		ExtractedAt:     at,
		Metadata:        maps.Clone(metadata),
	}, "", true
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:n]))
}
