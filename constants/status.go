package constants

import (
	"fmt"
	"strings"
)

// RecordStatus is the canonical status for rows in product_price.
type RecordStatus string

// Stable values (store these exact strings in DB).
const (
	StatusAutoApproved  RecordStatus = "AUTO_APPROVED"  // confidence met the threshold at creation
	StatusPendingReview RecordStatus = "PENDING_REVIEW" // waiting for a human
	StatusApproved      RecordStatus = "APPROVED"       // approved by a reviewer
	StatusRejected      RecordStatus = "REJECTED"       // reserved; no transition produces it
)

var allStatuses = []RecordStatus{
	StatusAutoApproved,
	StatusPendingReview,
	StatusApproved,
	StatusRejected,
}

// ParseStatus converts a raw string into a RecordStatus.
func ParseStatus(s string) (RecordStatus, error) {
	v := RecordStatus(strings.ToUpper(strings.TrimSpace(s)))
	for _, st := range allStatuses {
		if st == v {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown record status %q", s)
}

func (s RecordStatus) String() string { return string(s) }

// ReviewAction is the reviewer's decision. Only ActionApprove changes status;
// any other value, including empty, edits fields only.
type ReviewAction string

const (
	ActionApprove ReviewAction = "APPROVE"
	ActionReject  ReviewAction = "REJECT"
)

// Label is used for metrics and logs; unknown actions collapse to "other".
func (a ReviewAction) Label() string {
	switch a {
	case ActionApprove:
		return "approve"
	case ActionReject:
		return "reject"
	case "":
		return "none"
	default:
		return "other"
	}
}
