package booking

import (
	"fmt"

	"github.com/clinicbook/booking-api/internal/model"
	"github.com/clinicbook/booking-api/pkg/apperror"
)

// Effects describes what a status transition must do besides writing the new
// status. Queue allocation and queue clearing are mutually exclusive.
type Effects struct {
	Target        model.BookingStatus
	AllocateQueue bool
	ClearQueue    bool
	Notify        bool
}

// Decide maps (current, requested) to the transition's side effects. Any
// requested status inside the enum is reachable from any current status; a
// queue position is allocated only on entry into Approved, and re-approving
// an already approved booking keeps its position.
func Decide(current, requested model.BookingStatus) (Effects, error) {
	if !model.ValidStatus(requested) {
		return Effects{}, apperror.Validation(fmt.Sprintf("invalid status %q", requested), nil)
	}

	effects := Effects{Target: requested, Notify: true}

	if requested == model.BookingStatusApproved {
		effects.AllocateQueue = current != model.BookingStatusApproved
	} else {
		// Leaving (or never having entered) Approved: both queue fields are
		// cleared so a non-approved booking never carries a queue position.
		effects.ClearQueue = true
	}

	return effects, nil
}
