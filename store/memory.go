package store

import (
	"context"
	"sort"
	"sync"
	"time"

	models "github.com/fundverse/escrow-service/models"
)

// Memory is an in-memory Store used in tests and local development. Same
// semantics as the Mongo store, including the compare-and-swap on status.
type Memory struct {
	mu             sync.Mutex
	users          map[string]models.RegisteredUser
	contributions  map[uint64]models.Contribution
	transfers      map[uint64]models.Transfer
	contributionID uint64
	transferID     uint64
}

func NewMemory() *Memory {
	return &Memory{
		users:         make(map[string]models.RegisteredUser),
		contributions: make(map[uint64]models.Contribution),
		transfers:     make(map[uint64]models.Transfer),
	}
}

func (m *Memory) PutUser(_ context.Context, u models.RegisteredUser) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.Identity] = u
	return nil
}

func (m *Memory) UserByIdentity(_ context.Context, identity string) (*models.RegisteredUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[identity]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (m *Memory) UserByEmail(_ context.Context, email string) (*models.RegisteredUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, ErrNotFound
}

func (m *Memory) NextContributionID(_ context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contributionID++
	return m.contributionID, nil
}

func (m *Memory) InsertContribution(_ context.Context, c models.Contribution) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contributions[c.ID] = c
	return nil
}

func (m *Memory) Contribution(_ context.Context, id uint64) (*models.Contribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contributions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}

func (m *Memory) scanContributions(match func(models.Contribution) bool) []models.Contribution {
	var res []models.Contribution
	for _, c := range m.contributions {
		if match(c) {
			res = append(res, c)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res
}

func (m *Memory) ContributionsByBacker(_ context.Context, identity string) ([]models.Contribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanContributions(func(c models.Contribution) bool { return c.Backer == identity }), nil
}

func (m *Memory) ContributionsByCampaign(_ context.Context, campaignID uint64) ([]models.Contribution, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.scanContributions(func(c models.Contribution) bool { return c.CampaignID == campaignID }), nil
}

func (m *Memory) SetContributionStatus(_ context.Context, id uint64, from, to string, confirmedAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contributions[id]
	if !ok || c.Status != from {
		return false, nil
	}
	c.Status = to
	c.UpdatedAt = time.Now()
	if confirmedAt != nil {
		c.ConfirmedAt = confirmedAt
	}
	m.contributions[id] = c
	return true, nil
}

func (m *Memory) SetReceiptURL(_ context.Context, id uint64, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.contributions[id]
	if !ok {
		return ErrNotFound
	}
	c.ReceiptURL = url
	c.UpdatedAt = time.Now()
	m.contributions[id] = c
	return nil
}

func (m *Memory) NextTransferID(_ context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transferID++
	return m.transferID, nil
}

func (m *Memory) InsertTransfer(_ context.Context, t models.Transfer) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.transfers[t.ID] = t
	return nil
}

func (m *Memory) Transfer(_ context.Context, id uint64) (*models.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transfers[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &t, nil
}

func (m *Memory) TransfersBySender(_ context.Context, identity string) ([]models.Transfer, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var res []models.Transfer
	for _, t := range m.transfers {
		if t.From == identity {
			res = append(res, t)
		}
	}
	sort.Slice(res, func(i, j int) bool { return res[i].ID < res[j].ID })
	return res, nil
}

func (m *Memory) SetTransferStatus(_ context.Context, id uint64, status string, blockRef *uint64, confirmedAt *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transfers[id]
	if !ok {
		return ErrNotFound
	}
	t.Status = status
	if blockRef != nil {
		t.BlockRef = blockRef
	}
	if confirmedAt != nil {
		t.ConfirmedAt = confirmedAt
	}
	m.transfers[id] = t
	return nil
}

func (m *Memory) Close(context.Context) error { return nil }
