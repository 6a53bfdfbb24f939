package transfers

import (
	"context"

	models "github.com/fundverse/escrow-service/models"
)

// Receipt is the rail's proof that a movement completed.
type Receipt struct {
	BlockRef uint64
}

// Rail executes a native-coin value movement. Execute returns a Receipt when
// the movement completed synchronously, (nil, nil) when it was submitted but
// confirmation will arrive asynchronously (the transfer stays PENDING), or
// an error when the movement failed. Swapping in a production rail does not
// change callers.
type Rail interface {
	Execute(ctx context.Context, t models.Transfer) (*Receipt, error)
}

// SimulatedRail confirms every movement immediately with a placeholder block
// reference. Real settlement against the coin ledger is out of scope.
type SimulatedRail struct{}

func (SimulatedRail) Execute(context.Context, models.Transfer) (*Receipt, error) {
	return &Receipt{BlockRef: 12345}, nil
}
