package escrow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	campaigns "github.com/fundverse/escrow-service/campaigns"
	models "github.com/fundverse/escrow-service/models"
	store "github.com/fundverse/escrow-service/store"
	transfers "github.com/fundverse/escrow-service/transfers"
)

// ReceiptNotifier is told when a contribution reaches HELD so the backer can
// get a receipt. Delivery is best effort and never blocks the transition.
type ReceiptNotifier interface {
	ConfirmationReceipt(user models.RegisteredUser, c models.Contribution) error
}

// Config wires the escrow service.
type Config struct {
	// Operators are the identities allowed to confirm payments and settle
	// campaigns. Confirm/settle from anyone else fails ErrUnauthorized.
	Operators []string
	// EscrowAccount receives native-coin transfers.
	EscrowAccount string
	// Notifier may be nil.
	Notifier ReceiptNotifier
	// Now defaults to time.Now; tests pin it.
	Now func() time.Time
}

// Service owns the contribution ledger: eligibility checks, the escrow state
// machine and the release/refund settlement engine. All status mutation goes
// through CheckTransition plus the store's compare-and-swap.
type Service struct {
	store     store.Store
	campaigns campaigns.Client
	tracker   *transfers.Tracker
	notifier  ReceiptNotifier
	operators map[string]bool
	escrowAcc string
	now       func() time.Time
	locks     *campaignLocks
}

func NewService(s store.Store, c campaigns.Client, t *transfers.Tracker, cfg Config) *Service {
	ops := make(map[string]bool, len(cfg.Operators))
	for _, id := range cfg.Operators {
		ops[id] = true
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:     s,
		campaigns: c,
		tracker:   t,
		notifier:  cfg.Notifier,
		operators: ops,
		escrowAcc: cfg.EscrowAccount,
		now:       now,
		locks:     newCampaignLocks(),
	}
}

// IsOperator reports whether identity may confirm payments and settle
// campaigns.
func (s *Service) IsOperator(identity string) bool {
	return s.operators[identity]
}

// ---------------- Identity registry ----------------

// Register inserts or overwrites the user record keyed by identity.
// Idempotent by identity.
func (s *Service) Register(ctx context.Context, u models.RegisteredUser) error {
	if strings.TrimSpace(u.Name) == "" || strings.TrimSpace(u.Email) == "" {
		return fmt.Errorf("%w: name and email required", ErrInvalidInput)
	}
	if u.RegisteredAt.IsZero() {
		u.RegisteredAt = s.now()
	}
	return s.store.PutUser(ctx, u)
}

func (s *Service) IsRegistered(ctx context.Context, identity string) (bool, error) {
	_, err := s.store.UserByIdentity(ctx, identity)
	if errors.Is(err, store.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Service) ProfileOf(ctx context.Context, identity string) (*models.RegisteredUser, error) {
	u, err := s.store.UserByIdentity(ctx, identity)
	if errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("%w: user %s", ErrNotFound, identity)
	}
	return u, err
}

// ---------------- Contributions ----------------

// Contribute records a PENDING pledge toward an active campaign. The
// campaign must exist and not have ended according to the external
// authority's snapshot at this moment; it is not re-validated afterwards.
func (s *Service) Contribute(ctx context.Context, backer string, campaignID, amount uint64, method, methodLabel string) (uint64, error) {
	if !models.ValidMethod(method) {
		return 0, fmt.Errorf("%w: unknown payment method %q", ErrInvalidInput, method)
	}
	if err := s.checkPledge(ctx, backer, campaignID, amount); err != nil {
		return 0, err
	}
	return s.insertPending(ctx, backer, campaignID, amount, method, methodLabel, nil)
}

// ContributeCoin records a pledge paid on the native-coin rail: a transfer
// from the backer to the escrow account is initiated and linked to the
// contribution. The transfer outcome is checked at confirm time, not here.
func (s *Service) ContributeCoin(ctx context.Context, backer string, campaignID, amount uint64) (uint64, error) {
	if err := s.checkPledge(ctx, backer, campaignID, amount); err != nil {
		return 0, err
	}
	transferID, err := s.tracker.Initiate(ctx, backer, s.escrowAcc, amount, campaignID)
	if err != nil {
		return 0, err
	}
	return s.insertPending(ctx, backer, campaignID, amount, models.MethodCoin, "", &transferID)
}

func (s *Service) checkPledge(ctx context.Context, backer string, campaignID, amount uint64) error {
	if amount == 0 {
		return fmt.Errorf("%w: amount must be > 0", ErrInvalidInput)
	}
	registered, err := s.IsRegistered(ctx, backer)
	if err != nil {
		return err
	}
	if !registered {
		return fmt.Errorf("%w: only registered users can contribute", ErrUnauthorized)
	}
	meta, err := s.campaignMeta(ctx, campaignID)
	if err != nil {
		return err
	}
	if s.now().Unix() > meta.EndDate {
		return fmt.Errorf("%w: campaign %d", ErrCampaignEnded, campaignID)
	}
	return nil
}

func (s *Service) insertPending(ctx context.Context, backer string, campaignID, amount uint64, method, methodLabel string, transferID *uint64) (uint64, error) {
	id, err := s.store.NextContributionID(ctx)
	if err != nil {
		return 0, err
	}
	now := s.now()
	c := models.Contribution{
		ID:          id,
		CampaignID:  campaignID,
		Backer:      backer,
		Amount:      amount,
		Method:      method,
		MethodLabel: methodLabel,
		Status:      models.StatusPending,
		TransferID:  transferID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.InsertContribution(ctx, c); err != nil {
		return 0, err
	}
	slog.Info("contribution created",
		"contribution_id", id, "campaign_id", campaignID, "amount", amount, "method", method)
	return id, nil
}

// Confirm moves a contribution PENDING -> HELD. Only an operator may call
// it. For native-coin contributions the linked transfer must already be
// CONFIRMED. The external authority is credited before the local transition
// commits; if the credit call fails the contribution stays PENDING and the
// call is retryable.
func (s *Service) Confirm(ctx context.Context, caller string, contributionID uint64) error {
	if !s.IsOperator(caller) {
		return fmt.Errorf("%w: only a settlement operator can confirm payments", ErrUnauthorized)
	}
	c, err := s.store.Contribution(ctx, contributionID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: contribution %d", ErrNotFound, contributionID)
	}
	if err != nil {
		return err
	}
	if err := CheckTransition(c.Status, models.StatusHeld); err != nil {
		return err
	}

	if c.Method == models.MethodCoin && c.TransferID != nil {
		status, err := s.tracker.StatusOf(ctx, *c.TransferID)
		if errors.Is(err, transfers.ErrNotFound) {
			return fmt.Errorf("%w: transfer %d", ErrNotFound, *c.TransferID)
		}
		if err != nil {
			return err
		}
		if status != models.TransferConfirmed {
			return fmt.Errorf("%w: transfer %d is %s", ErrTransferNotConfirmed, *c.TransferID, status)
		}
	}

	if err := s.notifyCampaign(ctx, c.CampaignID, c.Amount); err != nil {
		return err
	}

	confirmedAt := s.now()
	swapped, err := s.store.SetContributionStatus(ctx, c.ID, models.StatusPending, models.StatusHeld, &confirmedAt)
	if err != nil {
		return err
	}
	if !swapped {
		// Someone else moved it while we were notifying upstream.
		return fmt.Errorf("%w: contribution %d is no longer pending", ErrInvalidState, c.ID)
	}
	slog.Info("contribution held", "contribution_id", c.ID, "campaign_id", c.CampaignID, "amount", c.Amount)

	s.sendReceipt(ctx, *c, confirmedAt)
	return nil
}

func (s *Service) sendReceipt(ctx context.Context, c models.Contribution, confirmedAt time.Time) {
	if s.notifier == nil {
		return
	}
	u, err := s.store.UserByIdentity(ctx, c.Backer)
	if err != nil {
		slog.Warn("receipt skipped, backer lookup failed", "contribution_id", c.ID, "error", err)
		return
	}
	c.Status = models.StatusHeld
	c.ConfirmedAt = &confirmedAt
	if err := s.notifier.ConfirmationReceipt(*u, c); err != nil {
		slog.Warn("receipt delivery failed", "contribution_id", c.ID, "error", err)
	}
}

// AttachReceipt stores the uploaded receipt URL on a contribution. Only the
// backer who made the pledge may attach a receipt.
func (s *Service) AttachReceipt(ctx context.Context, caller string, contributionID uint64, url string) error {
	c, err := s.store.Contribution(ctx, contributionID)
	if errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("%w: contribution %d", ErrNotFound, contributionID)
	}
	if err != nil {
		return err
	}
	if c.Backer != caller {
		return fmt.Errorf("%w: not your contribution", ErrUnauthorized)
	}
	return s.store.SetReceiptURL(ctx, contributionID, url)
}

// ---------------- Queries ----------------

func (s *Service) ContributionsByBacker(ctx context.Context, identity string) ([]models.Contribution, error) {
	return s.store.ContributionsByBacker(ctx, identity)
}

func (s *Service) ContributionsByCampaign(ctx context.Context, campaignID uint64) ([]models.Contribution, error) {
	return s.store.ContributionsByCampaign(ctx, campaignID)
}

func (s *Service) TransfersBySender(ctx context.Context, identity string) ([]models.Transfer, error) {
	return s.store.TransfersBySender(ctx, identity)
}

// Summary recomputes the per-campaign totals by status from the ledger.
func (s *Service) Summary(ctx context.Context, campaignID uint64) (models.EscrowSummary, error) {
	sum := models.EscrowSummary{CampaignID: campaignID}
	list, err := s.store.ContributionsByCampaign(ctx, campaignID)
	if err != nil {
		return sum, err
	}
	for _, c := range list {
		switch c.Status {
		case models.StatusPending:
			sum.TotalPending += c.Amount
		case models.StatusHeld:
			sum.TotalHeld += c.Amount
		case models.StatusReleased:
			sum.TotalReleased += c.Amount
		case models.StatusRefunded:
			sum.TotalRefunded += c.Amount
		}
	}
	return sum, nil
}

// ---------------- Helpers ----------------

func (s *Service) campaignMeta(ctx context.Context, campaignID uint64) (*models.CampaignMeta, error) {
	meta, err := s.campaigns.CampaignMeta(ctx, campaignID)
	if errors.Is(err, campaigns.ErrNotFound) {
		return nil, fmt.Errorf("%w: campaign %d", ErrNotFound, campaignID)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return meta, nil
}

func (s *Service) notifyCampaign(ctx context.Context, campaignID, amount uint64) error {
	err := s.campaigns.NotifyContribution(ctx, campaignID, amount)
	if errors.Is(err, campaigns.ErrNotFound) {
		return fmt.Errorf("%w: campaign %d", ErrNotFound, campaignID)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}
	return nil
}
