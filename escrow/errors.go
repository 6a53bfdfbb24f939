package escrow

import "errors"

// Sentinel errors returned by the escrow service. All are recoverable and
// surface to the caller as typed results; none abort the process. Wrap with
// fmt.Errorf("%w: ...") and test with errors.Is.
var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrNotFound             = errors.New("not found")
	ErrInvalidState         = errors.New("invalid state")
	ErrTransferNotConfirmed = errors.New("transfer not confirmed")
	ErrCampaignNotEnded     = errors.New("campaign not ended")
	ErrCampaignEnded        = errors.New("campaign ended")
	ErrGoalNotReached       = errors.New("goal not reached")
	ErrUpstreamUnavailable  = errors.New("upstream unavailable")
)
