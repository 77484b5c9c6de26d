package pipeline

import (
	"github.com/joseph-ayodele/price-tracker/constants"
	"github.com/joseph-ayodele/price-tracker/internal/entity"
)

// ReviewCommand is a reviewer's edit. Nil fields are left untouched.
type ReviewCommand struct {
	Name   *string
	Price  *float64
	Action constants.ReviewAction
}

// ApplyReview overwrites the supplied fields and approves when the action is
// exactly APPROVE. Any other action edits fields only; nothing moves a record
// to REJECTED. Edited values are taken as given.
func ApplyReview(rec *entity.ExtractedRecord, cmd ReviewCommand) {
	if cmd.Name != nil {
		rec.ProductName = *cmd.Name
	}
	if cmd.Price != nil {
		rec.Price = *cmd.Price
	}
	if cmd.Action == constants.ActionApprove {
		rec.Status = constants.StatusApproved
	}
}
