package transfers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	models "github.com/fundverse/escrow-service/models"
	store "github.com/fundverse/escrow-service/store"
)

// ErrNotFound is returned by StatusOf for unknown transfer ids.
var ErrNotFound = errors.New("transfers: not found")

// Tracker records attempted native-coin movements and their lifecycle. A rail
// failure is recorded as a FAILED transfer rather than surfaced as an error,
// so callers branch on status instead of unwinding.
type Tracker struct {
	store store.Store
	rail  Rail
	now   func() time.Time
}

func NewTracker(s store.Store, r Rail) *Tracker {
	return &Tracker{store: s, rail: r, now: time.Now}
}

// Initiate creates a PENDING transfer record, hands it to the rail and
// records the outcome. The transfer id is returned even when the rail fails.
func (tr *Tracker) Initiate(ctx context.Context, from, to string, amount, memo uint64) (uint64, error) {
	id, err := tr.store.NextTransferID(ctx)
	if err != nil {
		return 0, err
	}
	t := models.Transfer{
		ID:        id,
		From:      from,
		To:        to,
		Amount:    amount,
		Memo:      memo,
		Status:    models.TransferPending,
		CreatedAt: tr.now(),
	}
	if err := tr.store.InsertTransfer(ctx, t); err != nil {
		return 0, err
	}

	receipt, railErr := tr.rail.Execute(ctx, t)
	if railErr != nil {
		slog.Warn("coin transfer failed", "transfer_id", id, "error", railErr)
		if err := tr.store.SetTransferStatus(ctx, id, models.TransferFailed, nil, nil); err != nil {
			return 0, err
		}
		return id, nil
	}
	if receipt == nil {
		// Submitted to an asynchronous rail; stays PENDING until the rail's
		// confirmation arrives.
		return id, nil
	}

	confirmedAt := tr.now()
	if err := tr.store.SetTransferStatus(ctx, id, models.TransferConfirmed, &receipt.BlockRef, &confirmedAt); err != nil {
		return 0, err
	}
	return id, nil
}

// StatusOf reports the lifecycle status of a transfer.
func (tr *Tracker) StatusOf(ctx context.Context, id uint64) (string, error) {
	t, err := tr.store.Transfer(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return t.Status, nil
}
