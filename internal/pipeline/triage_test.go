package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/price-tracker/constants"
	"github.com/joseph-ayodele/price-tracker/internal/pipeline"
)

func ptr[T any](v T) *T { return &v }

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		confidence *float64
		want       constants.RecordStatus
	}{
		{"default confidence", ptr(0.9), constants.StatusAutoApproved},
		{"threshold is inclusive", ptr(0.8), constants.StatusAutoApproved},
		{"just below threshold", ptr(0.79), constants.StatusPendingReview},
		{"zero", ptr(0.0), constants.StatusPendingReview},
		{"absent", nil, constants.StatusPendingReview},
		{"full", ptr(1.0), constants.StatusAutoApproved},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pipeline.Classify(tt.confidence))
		})
	}
}
