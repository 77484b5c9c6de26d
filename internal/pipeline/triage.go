package pipeline

import "github.com/joseph-ayodele/price-tracker/constants"

// Classify picks the initial status from a confidence score. The threshold is inclusive.
func Classify(confidence *float64) constants.RecordStatus {
	if confidence != nil && *confidence >= constants.AutoApproveThreshold {
		return constants.StatusAutoApproved
	}
	return constants.StatusPendingReview
}
