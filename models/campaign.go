package models

// CampaignMeta is the external authority's snapshot of a campaign. It is
// fetched per call and never cached: goal, raised amount and deadline are
// owned by the campaign service and can change between calls.
type CampaignMeta struct {
	CampaignID   uint64 `json:"campaign_id"`
	Goal         uint64 `json:"goal"`
	AmountRaised uint64 `json:"amount_raised"`
	EndDate      int64  `json:"end_date"` // unix seconds
}

// EscrowSummary is the per-campaign total by status, recomputed on demand
// from the contribution ledger.
type EscrowSummary struct {
	CampaignID    uint64 `json:"campaign_id"`
	TotalPending  uint64 `json:"total_pending"`
	TotalHeld     uint64 `json:"total_held"`
	TotalReleased uint64 `json:"total_released"`
	TotalRefunded uint64 `json:"total_refunded"`
}
