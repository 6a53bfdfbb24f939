package store

import (
	"context"
	"errors"
	"time"

	models "github.com/fundverse/escrow-service/models"
)

// ErrNotFound is returned by lookups for ids or identities with no record.
var ErrNotFound = errors.New("store: not found")

// Store is the durable keyed storage behind the escrow service: registered
// users, the contribution ledger and the transfer tracker records. Ids are
// monotonically assigned and never reused; no record is ever physically
// deleted.
//
// SetContributionStatus is the only way any caller mutates a contribution's
// status, and it is a compare-and-swap: the write applies only if the status
// still equals from, so a scan that went stale across a suspension point can
// never double-move an entry.
type Store interface {
	PutUser(ctx context.Context, u models.RegisteredUser) error
	UserByIdentity(ctx context.Context, identity string) (*models.RegisteredUser, error)
	UserByEmail(ctx context.Context, email string) (*models.RegisteredUser, error)

	NextContributionID(ctx context.Context) (uint64, error)
	InsertContribution(ctx context.Context, c models.Contribution) error
	Contribution(ctx context.Context, id uint64) (*models.Contribution, error)
	ContributionsByBacker(ctx context.Context, identity string) ([]models.Contribution, error)
	ContributionsByCampaign(ctx context.Context, campaignID uint64) ([]models.Contribution, error)
	SetContributionStatus(ctx context.Context, id uint64, from, to string, confirmedAt *time.Time) (bool, error)
	SetReceiptURL(ctx context.Context, id uint64, url string) error

	NextTransferID(ctx context.Context) (uint64, error)
	InsertTransfer(ctx context.Context, t models.Transfer) error
	Transfer(ctx context.Context, id uint64) (*models.Transfer, error)
	TransfersBySender(ctx context.Context, identity string) ([]models.Transfer, error)
	SetTransferStatus(ctx context.Context, id uint64, status string, blockRef *uint64, confirmedAt *time.Time) error

	Close(ctx context.Context) error
}
