package sources

import (
	"context"
	"fmt"
	"os"
	"time"

	"IPOPulse/internal/domain/models"
	"IPOPulse/internal/service/quota"
	"IPOPulse/pkg/config"
	"IPOPulse/pkg/fetch"
	"IPOPulse/pkg/logger"
	"IPOPulse/pkg/util"
)

// marketAPI wraps the quota-constrained structured source. The external
// API enforces limit<=1 per request, so every page fetch retrieves one
// item, and the daily budget is checked before each page.
type marketAPI struct {
	base

	baseURL string
	apiKey  string
	client  *fetch.Client
	gate    *quota.Gate
}

// apiMeta and apiItem mirror the external response envelope.
type apiMeta struct {
	TotalPages int `json:"totalPages"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
}

type apiItem struct {
	Symbol            string   `json:"symbol"`
	Name              string   `json:"name"`
	OpenDate          string   `json:"bidding_start_date"`
	CloseDate         string   `json:"bidding_end_date"`
	ListingDate       string   `json:"listing_date"`
	MinPrice          *float64 `json:"min_price"`
	MaxPrice          *float64 `json:"max_price"`
	LotSize           int      `json:"lot_size"`
	IssueSize         string   `json:"issue_size"`
	Status            string   `json:"status"`
	QIBSubscription   *float64 `json:"qib_subscription_rate"`
	NIISubscription   *float64 `json:"nii_subscription_rate"`
	RetailSubscript   *float64 `json:"retail_subscription_rate"`
	TotalSubscription *float64 `json:"total_subscription_rate"`
}

type apiResponse struct {
	Meta  apiMeta   `json:"meta"`
	Items []apiItem `json:"items"`
}

func newMarketAPI(sc config.SourceConfig, b base, client *fetch.Client, gate *quota.Gate) *marketAPI {
	return &marketAPI{
		base:    b,
		baseURL: sc.BaseURL,
		apiKey:  os.Getenv(sc.APIKeyEnv),
		client:  client,
		gate:    gate,
	}
}

func (m *marketAPI) Offerings(ctx context.Context) models.SourceResult {
	start := time.Now()
	recs, err := m.paginate(ctx, "open")
	return m.wrap(ctx, models.OpOfferings, start, recs, err)
}

func (m *marketAPI) DemandFigures(ctx context.Context) models.SourceResult {
	start := time.Now()
	recs, err := m.paginate(ctx, "open")
	if err == nil {
		// keep only rows where the API actually published demand data
		kept := recs[:0]
		for _, r := range recs {
			if r.TotalSubscription != nil || r.QIBSubscription != nil ||
				r.NIISubscription != nil || r.RetailSubscription != nil {
				kept = append(kept, r)
			}
		}
		recs = kept
	}
	return m.wrap(ctx, models.OpDemand, start, recs, err)
}

// SentimentSignals succeeds with zero records: this source publishes no
// grey-market data, and an unsupported operation is absence, not
// failure.
func (m *marketAPI) SentimentSignals(ctx context.Context) models.SourceResult {
	start := time.Now()
	return m.wrap(ctx, models.OpSentiment, start, nil, nil)
}

// FetchByType runs the scheduled window fetch for one lifecycle status.
func (m *marketAPI) FetchByType(ctx context.Context, t quota.FetchType) models.SourceResult {
	start := time.Now()
	recs, err := m.paginate(ctx, string(t))
	return m.wrap(ctx, models.OpOfferings, start, recs, err)
}

// HealthRead makes the cheapest possible read against the source: one
// page-1 request, one quota unit, no pagination.
func (m *marketAPI) HealthRead(ctx context.Context) models.SourceResult {
	start := time.Now()
	recs, err := m.fetchSinglePage(ctx, "open")
	return m.wrap(ctx, models.OpOfferings, start, recs, err)
}

func (m *marketAPI) fetchSinglePage(ctx context.Context, status string) ([]models.Offering, error) {
	if m.apiKey == "" {
		return nil, models.ErrCredentialMissing
	}
	if m.gate != nil && !m.gate.Consume() {
		return nil, nil
	}
	resp, err := m.fetchPage(ctx, status, 1)
	if err != nil {
		return nil, err
	}
	out := make([]models.Offering, 0, len(resp.Items))
	for _, item := range resp.Items {
		out = append(out, item.toOffering())
	}
	return out, nil
}

// paginate walks the API's pages for one status. Quota is checked
// before every page and consumed per attempted request, whether or not
// the response is usable. Running out of budget at any point, even
// before the first page, returns the pages collected so far as a
// successful partial result.
func (m *marketAPI) paginate(ctx context.Context, status string) ([]models.Offering, error) {
	if m.apiKey == "" {
		return nil, models.ErrCredentialMissing
	}

	var out []models.Offering
	page := 1
	totalPages := 1

	for page <= totalPages {
		if m.gate != nil && !m.gate.Consume() {
			m.log.Info("quota exhausted, returning partial result",
				logger.String("source", m.name),
				logger.Int("pages_fetched", page-1),
			)
			return out, nil
		}

		resp, err := m.fetchPage(ctx, status, page)
		if err != nil {
			return nil, err
		}

		for _, item := range resp.Items {
			out = append(out, item.toOffering())
		}

		if resp.Meta.TotalPages > 0 {
			totalPages = resp.Meta.TotalPages
		}
		page++
	}
	return out, nil
}

func (m *marketAPI) fetchPage(ctx context.Context, status string, page int) (*apiResponse, error) {
	url := fmt.Sprintf("%s/api/v1/offerings?status=%s&limit=1&page=%d", m.baseURL, status, page)
	var resp apiResponse
	if err := m.client.GetJSON(ctx, url, map[string]string{"X-Api-Key": m.apiKey}, &resp); err != nil {
		return nil, fmt.Errorf("page %d: %w", page, err)
	}
	return &resp, nil
}

func (it apiItem) toOffering() models.Offering {
	rec := models.Offering{
		Symbol:             it.Symbol,
		CompanyName:        it.Name,
		OpenDate:           util.ParseListingDatePtr(it.OpenDate),
		CloseDate:          util.ParseListingDatePtr(it.CloseDate),
		ListingDate:        util.ParseListingDatePtr(it.ListingDate),
		LotSize:            it.LotSize,
		IssueSize:          it.IssueSize,
		Status:             models.Status(it.Status),
		QIBSubscription:    it.QIBSubscription,
		NIISubscription:    it.NIISubscription,
		RetailSubscription: it.RetailSubscript,
		TotalSubscription:  it.TotalSubscription,
	}
	if it.MinPrice != nil && it.MaxPrice != nil {
		rec.PriceRange = fmt.Sprintf("₹%g-%g", *it.MinPrice, *it.MaxPrice)
	}
	return rec
}
