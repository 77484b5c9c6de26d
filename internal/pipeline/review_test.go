package pipeline_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/joseph-ayodele/price-tracker/constants"
	"github.com/joseph-ayodele/price-tracker/internal/entity"
	"github.com/joseph-ayodele/price-tracker/internal/pipeline"
)

func TestApplyReview(t *testing.T) {
	base := func() entity.ExtractedRecord {
		return entity.ExtractedRecord{ProductName: "Milk", Price: 1500, Status: constants.StatusPendingReview}
	}

	tests := []struct {
		name       string
		cmd        pipeline.ReviewCommand
		wantName   string
		wantPrice  float64
		wantStatus constants.RecordStatus
	}{
		{
			name:       "approve with price edit",
			cmd:        pipeline.ReviewCommand{Price: ptr(1600.0), Action: constants.ActionApprove},
			wantName:   "Milk",
			wantPrice:  1600,
			wantStatus: constants.StatusApproved,
		},
		{
			name:       "reject only edits fields",
			cmd:        pipeline.ReviewCommand{Name: ptr("Whole Milk"), Action: constants.ActionReject},
			wantName:   "Whole Milk",
			wantPrice:  1500,
			wantStatus: constants.StatusPendingReview,
		},
		{
			name:       "approve is case sensitive",
			cmd:        pipeline.ReviewCommand{Action: "approve"},
			wantName:   "Milk",
			wantPrice:  1500,
			wantStatus: constants.StatusPendingReview,
		},
		{
			name:       "no action no edits",
			cmd:        pipeline.ReviewCommand{},
			wantName:   "Milk",
			wantPrice:  1500,
			wantStatus: constants.StatusPendingReview,
		},
		{
			name:       "empty name is taken as given",
			cmd:        pipeline.ReviewCommand{Name: ptr("")},
			wantName:   "",
			wantPrice:  1500,
			wantStatus: constants.StatusPendingReview,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := base()
			pipeline.ApplyReview(&rec, tt.cmd)
			assert.Equal(t, tt.wantName, rec.ProductName)
			assert.InDelta(t, tt.wantPrice, rec.Price, 1e-9)
			assert.Equal(t, tt.wantStatus, rec.Status)
		})
	}
}
