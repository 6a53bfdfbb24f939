package transfers

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/fundverse/escrow-service/models"
	store "github.com/fundverse/escrow-service/store"
)

type failingRail struct{}

func (failingRail) Execute(context.Context, models.Transfer) (*Receipt, error) {
	return nil, errors.New("rail rejected the movement")
}

type asyncRail struct{}

func (asyncRail) Execute(context.Context, models.Transfer) (*Receipt, error) {
	return nil, nil
}

func TestInitiateConfirmed(t *testing.T) {
	mem := store.NewMemory()
	tr := NewTracker(mem, SimulatedRail{})
	ctx := context.Background()

	id, err := tr.Initiate(ctx, "alice", "escrow", 500, 7)
	require.NoError(t, err)

	status, err := tr.StatusOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.TransferConfirmed, status)

	rec, err := mem.Transfer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", rec.From)
	assert.Equal(t, "escrow", rec.To)
	assert.Equal(t, uint64(7), rec.Memo, "memo carries the campaign id")
	require.NotNil(t, rec.BlockRef)
	require.NotNil(t, rec.ConfirmedAt)
}

func TestInitiateRailFailureRecordsFailed(t *testing.T) {
	mem := store.NewMemory()
	tr := NewTracker(mem, failingRail{})
	ctx := context.Background()

	// the rail error is recorded, not surfaced
	id, err := tr.Initiate(ctx, "alice", "escrow", 500, 7)
	require.NoError(t, err)

	status, err := tr.StatusOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.TransferFailed, status)

	rec, err := mem.Transfer(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, rec.BlockRef)
}

func TestInitiateAsyncRailStaysPending(t *testing.T) {
	mem := store.NewMemory()
	tr := NewTracker(mem, asyncRail{})
	ctx := context.Background()

	id, err := tr.Initiate(ctx, "alice", "escrow", 500, 7)
	require.NoError(t, err)

	status, err := tr.StatusOf(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.TransferPending, status)
}

func TestStatusOfUnknown(t *testing.T) {
	tr := NewTracker(store.NewMemory(), SimulatedRail{})
	_, err := tr.StatusOf(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransferIDsMonotonic(t *testing.T) {
	mem := store.NewMemory()
	tr := NewTracker(mem, SimulatedRail{})
	ctx := context.Background()

	var prev uint64
	for range 5 {
		id, err := tr.Initiate(ctx, "alice", "escrow", 10, 1)
		require.NoError(t, err)
		assert.Greater(t, id, prev)
		prev = id
	}
}
