package events

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joseph-ayodele/price-tracker/constants"
)

func TestNewRedisPublisher_BadURL(t *testing.T) {
	_, err := NewRedisPublisher("http://not-redis", nil)
	assert.Error(t, err)
}

func TestRedisPublisher_UnreachableIsNonFatal(t *testing.T) {
	p, err := NewRedisPublisher("redis://127.0.0.1:1/0?dial_timeout=50ms&max_retries=-1", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	assert.NotPanics(t, func() {
		p.Publish(ctx, constants.EventRecordReviewed, RecordReviewed{Type: constants.EventRecordReviewed})
	})
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	assert.NotPanics(t, func() { p.Publish(context.Background(), "x", nil) })
}

func TestPayloadShape(t *testing.T) {
	b, err := json.Marshal(PricesExtracted{
		Type:               constants.EventPricesExtracted,
		ImagePath:          "uploads/a.jpg",
		Count:              2,
		PendingReviewCount: 1,
		RecordIDs:          []string{"a", "b"},
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"PRICES_EXTRACTED","imagePath":"uploads/a.jpg","count":2,"pendingReviewCount":1,"recordIds":["a","b"]}`, string(b))
}
