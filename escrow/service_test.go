package escrow

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	campaigns "github.com/fundverse/escrow-service/campaigns"
	models "github.com/fundverse/escrow-service/models"
	store "github.com/fundverse/escrow-service/store"
	transfers "github.com/fundverse/escrow-service/transfers"
)

const operator = "operator-1"

// fakeAuthority is an in-test campaign metadata authority.
type fakeAuthority struct {
	mu          sync.Mutex
	metas       map[uint64]models.CampaignMeta
	unavailable bool
	failPayout  bool
	failCredit  bool
	payouts     []uint64 // totals, in call order
	credits     []uint64 // amounts, in call order
}

func (f *fakeAuthority) CampaignMeta(_ context.Context, id uint64) (*models.CampaignMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.unavailable {
		return nil, campaigns.ErrUnavailable
	}
	meta, ok := f.metas[id]
	if !ok {
		return nil, campaigns.ErrNotFound
	}
	return &meta, nil
}

func (f *fakeAuthority) NotifyPayout(_ context.Context, id, total uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPayout {
		return campaigns.ErrUnavailable
	}
	f.payouts = append(f.payouts, total)
	return nil
}

func (f *fakeAuthority) NotifyContribution(_ context.Context, id, amount uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCredit {
		return campaigns.ErrUnavailable
	}
	f.credits = append(f.credits, amount)
	return nil
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

type fixture struct {
	svc       *Service
	store     *store.Memory
	authority *fakeAuthority
	clock     *clock
}

func newFixture(t *testing.T, metas map[uint64]models.CampaignMeta) *fixture {
	t.Helper()
	mem := store.NewMemory()
	authority := &fakeAuthority{metas: metas}
	clk := &clock{t: time.Unix(1_700_000_000, 0)}
	svc := NewService(mem, authority, transfers.NewTracker(mem, transfers.SimulatedRail{}), Config{
		Operators:     []string{operator},
		EscrowAccount: "escrow",
		Now:           clk.now,
	})
	return &fixture{svc: svc, store: mem, authority: authority, clock: clk}
}

func (f *fixture) registerBacker(t *testing.T, identity string) {
	t.Helper()
	err := f.svc.Register(context.Background(), models.RegisteredUser{
		Identity: identity,
		Name:     "Backer " + identity,
		Email:    identity + "@example.com",
	})
	require.NoError(t, err)
}

// activeCampaign returns metas for one campaign ending an hour from the
// fixture's start time.
func activeCampaign(id, goal uint64) map[uint64]models.CampaignMeta {
	return map[uint64]models.CampaignMeta{
		id: {CampaignID: id, Goal: goal, EndDate: 1_700_000_000 + 3600},
	}
}

func TestRegisterValidation(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	err := f.svc.Register(ctx, models.RegisteredUser{Identity: "a", Name: "", Email: "a@example.com"})
	assert.ErrorIs(t, err, ErrInvalidInput)
	err = f.svc.Register(ctx, models.RegisteredUser{Identity: "a", Name: "A", Email: "  "})
	assert.ErrorIs(t, err, ErrInvalidInput)

	require.NoError(t, f.svc.Register(ctx, models.RegisteredUser{Identity: "a", Name: "A", Email: "a@example.com"}))
	ok, err := f.svc.IsRegistered(ctx, "a")
	require.NoError(t, err)
	assert.True(t, ok)

	// idempotent by identity
	require.NoError(t, f.svc.Register(ctx, models.RegisteredUser{Identity: "a", Name: "A2", Email: "a2@example.com"}))
	u, err := f.svc.ProfileOf(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "A2", u.Name)
}

func TestContributeUnregistered(t *testing.T) {
	f := newFixture(t, activeCampaign(1, 1000))
	ctx := context.Background()

	_, err := f.svc.Contribute(ctx, "nobody", 1, 100, models.MethodBankTransfer, "")
	assert.ErrorIs(t, err, ErrUnauthorized)

	list, err := f.svc.ContributionsByCampaign(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestContributeValidation(t *testing.T) {
	f := newFixture(t, activeCampaign(1, 1000))
	ctx := context.Background()
	f.registerBacker(t, "alice")

	_, err := f.svc.Contribute(ctx, "alice", 1, 0, models.MethodBankTransfer, "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Contribute(ctx, "alice", 1, 100, "CHEQUE", "")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = f.svc.Contribute(ctx, "alice", 99, 100, models.MethodBankTransfer, "")
	assert.ErrorIs(t, err, ErrNotFound)

	f.clock.advance(2 * time.Hour)
	_, err = f.svc.Contribute(ctx, "alice", 1, 100, models.MethodBankTransfer, "")
	assert.ErrorIs(t, err, ErrCampaignEnded)
}

func TestContributeUpstreamDown(t *testing.T) {
	f := newFixture(t, activeCampaign(1, 1000))
	f.registerBacker(t, "alice")
	f.authority.unavailable = true

	_, err := f.svc.Contribute(context.Background(), "alice", 1, 100, models.MethodFawry, "")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
}

func TestCoinContributionConfirm(t *testing.T) {
	f := newFixture(t, activeCampaign(1, 1000))
	ctx := context.Background()
	f.registerBacker(t, "alice")

	id, err := f.svc.ContributeCoin(ctx, "alice", 1, 600)
	require.NoError(t, err)

	c, err := f.store.Contribution(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPending, c.Status)
	require.NotNil(t, c.TransferID)

	require.NoError(t, f.svc.Confirm(ctx, operator, id))

	c, err = f.store.Contribution(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, models.StatusHeld, c.Status)
	require.NotNil(t, c.ConfirmedAt)
	assert.Equal(t, []uint64{600}, f.authority.credits)
}

func TestConfirmRequiresOperator(t *testing.T) {
	f := newFixture(t, activeCampaign(1, 1000))
	ctx := context.Background()
	f.registerBacker(t, "alice")

	id, err := f.svc.Contribute(ctx, "alice", 1, 100, models.MethodPayMob, "")
	require.NoError(t, err)

	err = f.svc.Confirm(ctx, "alice", id)
	assert.ErrorIs(t, err, ErrUnauthorized)

	c, _ := f.store.Contribution(ctx, id)
	assert.Equal(t, models.StatusPending, c.Status)
}

func TestConfirmAlreadyHeld(t *testing.T) {
	f := newFixture(t, activeCampaign(1, 1000))
	ctx := context.Background()
	f.registerBacker(t, "alice")

	id, err := f.svc.Contribute(ctx, "alice", 1, 100, models.MethodBankTransfer, "")
	require.NoError(t, err)
	require.NoError(t, f.svc.Confirm(ctx, operator, id))

	err = f.svc.Confirm(ctx, operator, id)
	assert.ErrorIs(t, err, ErrInvalidState)

	c, _ := f.store.Contribution(ctx, id)
	assert.Equal(t, models.StatusHeld, c.Status)
	// the credit notification went out exactly once
	assert.Len(t, f.authority.credits, 1)
}

func TestConfirmPendingTransfer(t *testing.T) {
	f := newFixture(t, activeCampaign(1, 1000))
	ctx := context.Background()
	f.registerBacker(t, "alice")

	// A rail that never completes leaves the transfer PENDING.
	mem := store.NewMemory()
	f = &fixture{
		svc: NewService(mem, f.authority, transfers.NewTracker(mem, stuckRail{}), Config{
			Operators: []string{operator},
			Now:       f.clock.now,
		}),
		store:     mem,
		authority: f.authority,
		clock:     f.clock,
	}
	f.registerBacker(t, "alice")

	id, err := f.svc.ContributeCoin(ctx, "alice", 1, 100)
	require.NoError(t, err)

	err = f.svc.Confirm(ctx, operator, id)
	assert.ErrorIs(t, err, ErrTransferNotConfirmed)

	c, _ := f.store.Contribution(ctx, id)
	assert.Equal(t, models.StatusPending, c.Status)
}

func TestConfirmCreditFailureKeepsPending(t *testing.T) {
	f := newFixture(t, activeCampaign(1, 1000))
	ctx := context.Background()
	f.registerBacker(t, "alice")

	id, err := f.svc.Contribute(ctx, "alice", 1, 100, models.MethodBankTransfer, "")
	require.NoError(t, err)

	f.authority.failCredit = true
	err = f.svc.Confirm(ctx, operator, id)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	c, _ := f.store.Contribution(ctx, id)
	assert.Equal(t, models.StatusPending, c.Status)

	// retryable once upstream recovers
	f.authority.failCredit = false
	require.NoError(t, f.svc.Confirm(ctx, operator, id))
}

// Scenario: two coin contributions totalling 1100 against a goal of 1000,
// both held, campaign ended; release moves both and pays out 1100.
func TestReleaseGoalReached(t *testing.T) {
	f := newFixture(t, activeCampaign(7, 1000))
	ctx := context.Background()
	f.registerBacker(t, "alice")
	f.registerBacker(t, "bob")

	id1, err := f.svc.ContributeCoin(ctx, "alice", 7, 600)
	require.NoError(t, err)
	id2, err := f.svc.ContributeCoin(ctx, "bob", 7, 500)
	require.NoError(t, err)
	require.NoError(t, f.svc.Confirm(ctx, operator, id1))
	require.NoError(t, f.svc.Confirm(ctx, operator, id2))

	f.clock.advance(2 * time.Hour)

	moved, err := f.svc.Release(ctx, operator, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), moved)
	assert.Equal(t, []uint64{1100}, f.authority.payouts)

	for _, id := range []uint64{id1, id2} {
		c, _ := f.store.Contribution(ctx, id)
		assert.Equal(t, models.StatusReleased, c.Status)
	}
}

func TestReleaseIdempotent(t *testing.T) {
	f := newFixture(t, activeCampaign(7, 1000))
	ctx := context.Background()
	f.registerBacker(t, "alice")

	id, err := f.svc.ContributeCoin(ctx, "alice", 7, 1200)
	require.NoError(t, err)
	require.NoError(t, f.svc.Confirm(ctx, operator, id))
	f.clock.advance(2 * time.Hour)

	moved, err := f.svc.Release(ctx, operator, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), moved)

	moved, err = f.svc.Release(ctx, operator, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), moved)
	assert.Len(t, f.authority.payouts, 1, "second release must not notify payout again")
}

func TestReleaseGoalNotReached(t *testing.T) {
	f := newFixture(t, activeCampaign(7, 1000))
	ctx := context.Background()
	f.registerBacker(t, "alice")

	id, err := f.svc.ContributeCoin(ctx, "alice", 7, 300)
	require.NoError(t, err)
	require.NoError(t, f.svc.Confirm(ctx, operator, id))
	f.clock.advance(2 * time.Hour)

	_, err = f.svc.Release(ctx, operator, 7)
	assert.ErrorIs(t, err, ErrGoalNotReached)
	assert.Empty(t, f.authority.payouts)

	c, _ := f.store.Contribution(ctx, id)
	assert.Equal(t, models.StatusHeld, c.Status)
}

func TestReleaseBeforeEnd(t *testing.T) {
	f := newFixture(t, activeCampaign(7, 1000))
	ctx := context.Background()
	f.registerBacker(t, "alice")

	id, err := f.svc.ContributeCoin(ctx, "alice", 7, 1500)
	require.NoError(t, err)
	require.NoError(t, f.svc.Confirm(ctx, operator, id))

	_, err = f.svc.Release(ctx, operator, 7)
	assert.ErrorIs(t, err, ErrCampaignNotEnded)
}

func TestReleasePayoutFailureKeepsHeld(t *testing.T) {
	f := newFixture(t, activeCampaign(7, 1000))
	ctx := context.Background()
	f.registerBacker(t, "alice")

	id, err := f.svc.ContributeCoin(ctx, "alice", 7, 1500)
	require.NoError(t, err)
	require.NoError(t, f.svc.Confirm(ctx, operator, id))
	f.clock.advance(2 * time.Hour)

	f.authority.failPayout = true
	_, err = f.svc.Release(ctx, operator, 7)
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)

	c, _ := f.store.Contribution(ctx, id)
	assert.Equal(t, models.StatusHeld, c.Status, "no release may commit without a successful payout")

	f.authority.failPayout = false
	moved, err := f.svc.Release(ctx, operator, 7)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), moved)
}

// Scenario: a single held contribution of 300 against a goal of 1000 after
// the deadline; the refund path moves it to REFUNDED without a payout.
func TestRefundGoalMissed(t *testing.T) {
	f := newFixture(t, activeCampaign(3, 1000))
	ctx := context.Background()
	f.registerBacker(t, "alice")

	held, err := f.svc.ContributeCoin(ctx, "alice", 3, 300)
	require.NoError(t, err)
	require.NoError(t, f.svc.Confirm(ctx, operator, held))

	pending, err := f.svc.Contribute(ctx, "alice", 3, 50, models.MethodFawry, "")
	require.NoError(t, err)

	f.clock.advance(2 * time.Hour)

	moved, err := f.svc.Refund(ctx, operator, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), moved)
	assert.Empty(t, f.authority.payouts)

	for _, id := range []uint64{held, pending} {
		c, _ := f.store.Contribution(ctx, id)
		assert.Equal(t, models.StatusRefunded, c.Status)
	}

	// terminal: refunding again moves nothing
	moved, err = f.svc.Refund(ctx, operator, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), moved)
}

func TestSettlementRequiresOperator(t *testing.T) {
	f := newFixture(t, activeCampaign(3, 1000))
	ctx := context.Background()
	f.registerBacker(t, "alice")

	_, err := f.svc.Release(ctx, "alice", 3)
	assert.ErrorIs(t, err, ErrUnauthorized)
	_, err = f.svc.Refund(ctx, "alice", 3)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

// Conservation: summary totals across all statuses always equal the sum of
// every amount ever inserted, through confirm, release and refund.
func TestConservation(t *testing.T) {
	metas := activeCampaign(1, 1000)
	metas[2] = models.CampaignMeta{CampaignID: 2, Goal: 5000, EndDate: 1_700_000_000 + 3600}
	f := newFixture(t, metas)
	ctx := context.Background()
	f.registerBacker(t, "alice")
	f.registerBacker(t, "bob")

	var inserted uint64
	mustContribute := func(backer string, campaign, amount uint64, coin bool) uint64 {
		var id uint64
		var err error
		if coin {
			id, err = f.svc.ContributeCoin(ctx, backer, campaign, amount)
		} else {
			id, err = f.svc.Contribute(ctx, backer, campaign, amount, models.MethodBankTransfer, "")
		}
		require.NoError(t, err)
		inserted += amount
		return id
	}

	total := func() uint64 {
		var sum uint64
		for _, campaign := range []uint64{1, 2} {
			s, err := f.svc.Summary(ctx, campaign)
			require.NoError(t, err)
			sum += s.TotalPending + s.TotalHeld + s.TotalReleased + s.TotalRefunded
		}
		return sum
	}

	a := mustContribute("alice", 1, 700, true)
	b := mustContribute("bob", 1, 400, true)
	mustContribute("alice", 2, 900, false)
	c2 := mustContribute("bob", 2, 150, true)
	assert.Equal(t, inserted, total())

	require.NoError(t, f.svc.Confirm(ctx, operator, a))
	require.NoError(t, f.svc.Confirm(ctx, operator, b))
	require.NoError(t, f.svc.Confirm(ctx, operator, c2))
	assert.Equal(t, inserted, total())

	f.clock.advance(2 * time.Hour)
	_, err := f.svc.Release(ctx, operator, 1)
	require.NoError(t, err)
	_, err = f.svc.Refund(ctx, operator, 2)
	require.NoError(t, err)
	assert.Equal(t, inserted, total())
}

func TestSummary(t *testing.T) {
	f := newFixture(t, activeCampaign(1, 1000))
	ctx := context.Background()
	f.registerBacker(t, "alice")

	held, err := f.svc.ContributeCoin(ctx, "alice", 1, 250)
	require.NoError(t, err)
	require.NoError(t, f.svc.Confirm(ctx, operator, held))
	_, err = f.svc.Contribute(ctx, "alice", 1, 75, models.MethodOther, "cash drop")
	require.NoError(t, err)

	s, err := f.svc.Summary(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, uint64(75), s.TotalPending)
	assert.Equal(t, uint64(250), s.TotalHeld)
	assert.Zero(t, s.TotalReleased)
	assert.Zero(t, s.TotalRefunded)
}

func TestConcurrentReleaseSinglePayout(t *testing.T) {
	f := newFixture(t, activeCampaign(7, 1000))
	ctx := context.Background()
	f.registerBacker(t, "alice")

	id, err := f.svc.ContributeCoin(ctx, "alice", 7, 1500)
	require.NoError(t, err)
	require.NoError(t, f.svc.Confirm(ctx, operator, id))
	f.clock.advance(2 * time.Hour)

	var wg sync.WaitGroup
	var totalMoved uint64
	var mu sync.Mutex
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			moved, err := f.svc.Release(ctx, operator, 7)
			assert.NoError(t, err)
			mu.Lock()
			totalMoved += moved
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, uint64(1), totalMoved)
	assert.Len(t, f.authority.payouts, 1, "exactly one payout notification")
}

// stuckRail submits asynchronously and never confirms.
type stuckRail struct{}

func (stuckRail) Execute(context.Context, models.Transfer) (*transfers.Receipt, error) {
	return nil, nil
}
