package constants

const (
	// AutoApproveThreshold is the inclusive confidence at which a record skips review.
	AutoApproveThreshold = 0.8

	// DefaultConfidence is assigned to every extracted record.
	// The model does not report a per-item score.
	DefaultConfidence = 0.9

	MaxProductNameLen = 200
	MaxImagePathLen   = 500
	MaxStoreNameLen   = 200
	MaxStoreFieldLen  = 100

	// MaxPrice is the largest value a numeric(10,2) price column holds.
	MaxPrice = 99_999_999.99

	DefaultPageSize = 20
	MaxPageSize     = 200
	MaxPageNumber   = 1<<31 - 1
)

// Event channels published after pipeline operations.
const (
	EventPricesExtracted = "PRICES_EXTRACTED"
	EventRecordReviewed  = "RECORD_REVIEWED"
)
