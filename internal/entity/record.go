package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/price-tracker/constants"
)

// ExtractedRecord is one product/price pair read from a price-tag image.
type ExtractedRecord struct {
	ID              uuid.UUID              `json:"id"`
	ProductName     string                 `json:"product_name"`
	Price           float64                `json:"price"`
	ImagePath       string                 `json:"image_path"`
	ConfidenceScore *float64               `json:"confidence_score,omitempty"`
	Status          constants.RecordStatus `json:"status"`
	ExtractedAt     time.Time              `json:"extracted_at"`
	Metadata        map[string]any         `json:"metadata,omitempty"`
	StoreID         *uuid.UUID             `json:"store_id,omitempty"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// Location returns the capture location stored in metadata, if any.
func (r *ExtractedRecord) Location() string {
	if r.Metadata == nil {
		return ""
	}
	if s, ok := r.Metadata["location"].(string); ok {
		return s
	}
	return ""
}

// RecordFilter narrows record listings. Zero values mean "no filter".
type RecordFilter struct {
	ProductName string
	StoreID     *uuid.UUID
	Status      constants.RecordStatus
	From        *time.Time
	To          *time.Time
}

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page into sane bounds.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > constants.MaxPageNumber {
		p.Number = constants.MaxPageNumber
	}
	if p.Size <= 0 {
		p.Size = constants.DefaultPageSize
	}
	if p.Size > constants.MaxPageSize {
		p.Size = constants.MaxPageSize
	}
	return p
}

// Offset is the row offset for the page.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// RecordPage is one page of records plus totals.
type RecordPage struct {
	Items      []ExtractedRecord `json:"items"`
	Total      int               `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// NewRecordPage fills in the page arithmetic.
func NewRecordPage(items []ExtractedRecord, total int, p Page) RecordPage {
	pages := 0
	if p.Size > 0 {
		pages = (total + p.Size - 1) / p.Size
	}
	if items == nil {
		items = []ExtractedRecord{}
	}
	return RecordPage{Items: items, Total: total, Page: p.Number, PageSize: p.Size, TotalPages: pages}
}

// Stats is the dashboard summary.
type Stats struct {
	TotalProducts  int `json:"total_products"`
	TotalStores    int `json:"total_stores"`
	PendingReviews int `json:"pending_reviews"`
}
