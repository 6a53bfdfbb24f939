package escrow

import (
	"context"
	"fmt"
	"log/slog"

	models "github.com/fundverse/escrow-service/models"
)

// Release settles a campaign that reached its goal: every HELD contribution
// becomes RELEASED and the authority's payout sink is told the pooled total.
// Returns the number of contributions moved.
//
// Ordering: the campaign lock is taken before the metadata fetch and held
// through the mutation, the payout notification goes out before any local
// transition commits, and each transition re-checks the contribution is
// still HELD. A second Release on an already-released campaign returns 0
// without notifying the payout sink again.
func (s *Service) Release(ctx context.Context, caller string, campaignID uint64) (uint64, error) {
	if !s.IsOperator(caller) {
		return 0, fmt.Errorf("%w: only a settlement operator can release funds", ErrUnauthorized)
	}
	unlock := s.locks.acquire(campaignID)
	defer unlock()

	meta, err := s.campaignMeta(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	if s.now().Unix() <= meta.EndDate {
		return 0, fmt.Errorf("%w: campaign %d ends at %d", ErrCampaignNotEnded, campaignID, meta.EndDate)
	}

	list, err := s.store.ContributionsByCampaign(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	var (
		heldIDs         []uint64
		totalHeld       uint64
		alreadyReleased bool
	)
	for _, c := range list {
		switch c.Status {
		case models.StatusHeld:
			heldIDs = append(heldIDs, c.ID)
			totalHeld += c.Amount
		case models.StatusReleased:
			alreadyReleased = true
		}
	}

	if len(heldIDs) == 0 && alreadyReleased {
		// Re-settled campaign: nothing to move, no second payout.
		return 0, nil
	}
	if totalHeld < meta.Goal {
		return 0, fmt.Errorf("%w: held %d of goal %d", ErrGoalNotReached, totalHeld, meta.Goal)
	}

	// Payout first: if the sink is unreachable nothing below commits and the
	// campaign stays releasable.
	if err := s.campaigns.NotifyPayout(ctx, campaignID, totalHeld); err != nil {
		return 0, fmt.Errorf("%w: payout notification: %v", ErrUpstreamUnavailable, err)
	}

	var moved uint64
	for _, id := range heldIDs {
		swapped, err := s.store.SetContributionStatus(ctx, id, models.StatusHeld, models.StatusReleased, nil)
		if err != nil {
			return moved, err
		}
		if swapped {
			moved++
		}
	}
	slog.Info("campaign released",
		"campaign_id", campaignID, "total_held", totalHeld, "contributions", moved)
	return moved, nil
}

// Refund moves every PENDING or HELD contribution for the campaign to
// REFUNDED and returns the count. This is the failed-goal path and also an
// administrative override: it does not check the campaign deadline, so
// callers needing deadline enforcement must check upstream first. The actual
// money movement back to backers happens off-chain.
func (s *Service) Refund(ctx context.Context, caller string, campaignID uint64) (uint64, error) {
	if !s.IsOperator(caller) {
		return 0, fmt.Errorf("%w: only a settlement operator can refund", ErrUnauthorized)
	}
	unlock := s.locks.acquire(campaignID)
	defer unlock()

	list, err := s.store.ContributionsByCampaign(ctx, campaignID)
	if err != nil {
		return 0, err
	}

	var moved, total uint64
	for _, c := range list {
		if c.Status != models.StatusPending && c.Status != models.StatusHeld {
			continue
		}
		swapped, err := s.store.SetContributionStatus(ctx, c.ID, c.Status, models.StatusRefunded, nil)
		if err != nil {
			return moved, err
		}
		if swapped {
			moved++
			total += c.Amount
		}
	}
	slog.Info("campaign refunded", "campaign_id", campaignID, "total", total, "contributions", moved)
	return moved, nil
}
