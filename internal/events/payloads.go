package events

import (
	"github.com/google/uuid"

	"github.com/joseph-ayodele/price-tracker/constants"
)

// PricesExtracted is published after an extraction has been saved.
type PricesExtracted struct {
	Type               string     `json:"type"`
	RequestID          string     `json:"requestId,omitempty"`
	ImagePath          string     `json:"imagePath"`
	StoreID            *uuid.UUID `json:"storeId,omitempty"`
	Count              int        `json:"count"`
	PendingReviewCount int        `json:"pendingReviewCount"`
	RecordIDs          []string   `json:"recordIds"`
}

// RecordReviewed is published after a review has been applied.
type RecordReviewed struct {
	Type     string                 `json:"type"`
	RecordID string                 `json:"recordId"`
	Action   string                 `json:"action"`
	Status   constants.RecordStatus `json:"status"`
}
