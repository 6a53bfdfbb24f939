package campaigns

import (
	"context"
	"errors"

	models "github.com/fundverse/escrow-service/models"
)

var (
	// ErrNotFound means the authority does not know the campaign id.
	ErrNotFound = errors.New("campaigns: campaign not found")
	// ErrUnavailable means the authority could not be reached or answered
	// with a server error. Callers must not commit local mutations that
	// depended on the failed call.
	ErrUnavailable = errors.New("campaigns: upstream unavailable")
)

// Client talks to the external campaign-metadata authority. Meta snapshots
// are fetched per call and never cached here: the authority owns goal,
// raised amount and deadline and they can change between calls.
type Client interface {
	CampaignMeta(ctx context.Context, campaignID uint64) (*models.CampaignMeta, error)

	// NotifyPayout tells the authority to execute the payout for a released
	// campaign. At-least-once idempotent on the receiving side.
	NotifyPayout(ctx context.Context, campaignID, totalAmount uint64) error

	// NotifyContribution credits a single confirmed contribution against the
	// campaign's raised amount.
	NotifyContribution(ctx context.Context, campaignID, amount uint64) error
}
