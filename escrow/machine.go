package escrow

import (
	"fmt"

	models "github.com/fundverse/escrow-service/models"
)

// Legal escrow transitions. RELEASED and REFUNDED are terminal; no call site
// sets a contribution status without going through CheckTransition plus the
// store's compare-and-swap, so no two code paths can disagree on what is
// legal.
var transitions = map[string][]string{
	models.StatusPending: {models.StatusHeld, models.StatusRefunded},
	models.StatusHeld:    {models.StatusReleased, models.StatusRefunded},
}

// CheckTransition returns ErrInvalidState unless from -> to is a legal escrow
// transition.
func CheckTransition(from, to string) error {
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot move contribution from %s to %s", ErrInvalidState, from, to)
}
