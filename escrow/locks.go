package escrow

import "sync"

// campaignLocks serializes settlement per campaign. The lock is held across
// the upstream payout call and the ledger mutation, so two concurrent settle
// attempts for the same campaign cannot both scan the same Held entries and
// both notify the payout sink.
type campaignLocks struct {
	mu    sync.Mutex
	locks map[uint64]*sync.Mutex
}

func newCampaignLocks() *campaignLocks {
	return &campaignLocks{locks: make(map[uint64]*sync.Mutex)}
}

// acquire locks the mutex for campaignID and returns its unlock func. Lock
// entries are kept for the life of the process; campaigns number far fewer
// than contributions.
func (l *campaignLocks) acquire(campaignID uint64) func() {
	l.mu.Lock()
	m, ok := l.locks[campaignID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[campaignID] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
