package campaigns

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	models "github.com/fundverse/escrow-service/models"
)

// HTTPClient is the Client implementation against the FundVerse campaign
// backend REST API.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *HTTPClient) CampaignMeta(ctx context.Context, campaignID uint64) (*models.CampaignMeta, error) {
	url := fmt.Sprintf("%s/campaigns/%d/meta", c.baseURL, campaignID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: campaign API returned %s", ErrUnavailable, resp.Status)
	}

	var meta models.CampaignMeta
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("%w: decode meta: %v", ErrUnavailable, err)
	}
	return &meta, nil
}

func (c *HTTPClient) NotifyPayout(ctx context.Context, campaignID, totalAmount uint64) error {
	url := fmt.Sprintf("%s/campaigns/%d/payout", c.baseURL, campaignID)
	return c.post(ctx, url, map[string]uint64{"total_amount": totalAmount})
}

func (c *HTTPClient) NotifyContribution(ctx context.Context, campaignID, amount uint64) error {
	url := fmt.Sprintf("%s/campaigns/%d/contributions", c.baseURL, campaignID)
	return c.post(ctx, url, map[string]uint64{"amount": amount})
}

func (c *HTTPClient) post(ctx context.Context, url string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: campaign API returned %s", ErrUnavailable, resp.Status)
	}
	return nil
}
