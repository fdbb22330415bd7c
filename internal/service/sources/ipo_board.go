package sources

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"

	"IPOPulse/internal/domain/models"
	"IPOPulse/internal/service/ratelimit"
	"IPOPulse/pkg/config"
	"IPOPulse/pkg/fetch"
	"IPOPulse/pkg/util"
)

// renderer is the rendered-fetch primitive surface.
type renderer interface {
	Render(ctx context.Context, url, waitSelector string) (*goquery.Document, error)
}

// ipoBoard scrapes a dashboard whose tables only exist after the page's
// own scripts run, so every fetch renders the page in a headless
// browser. The aggregator's concurrency cap bounds how many of these
// run at once.
type ipoBoard struct {
	base

	baseURL      string
	waitSelector string
	renderer     renderer
	client       *fetch.Client
	limiter      *ratelimit.Limiter
}

func newIPOBoard(sc config.SourceConfig, b base, r renderer, client *fetch.Client, limiter *ratelimit.Limiter) *ipoBoard {
	wait := sc.WaitSelector
	if wait == "" {
		wait = "table tbody tr"
	}
	return &ipoBoard{
		base:         b,
		baseURL:      sc.BaseURL,
		waitSelector: wait,
		renderer:     r,
		client:       client,
		limiter:      limiter,
	}
}

func (p *ipoBoard) Offerings(ctx context.Context) models.SourceResult {
	start := time.Now()
	recs, err := p.scrapeBoard(ctx, "/ipo/dashboard")
	return p.wrap(ctx, models.OpOfferings, start, recs, err)
}

func (p *ipoBoard) DemandFigures(ctx context.Context) models.SourceResult {
	start := time.Now()
	recs, err := p.scrapeBoard(ctx, "/ipo/live-subscription")
	if err == nil {
		kept := recs[:0]
		for _, r := range recs {
			if r.TotalSubscription != nil {
				kept = append(kept, r)
			}
		}
		recs = kept
	}
	return p.wrap(ctx, models.OpDemand, start, recs, err)
}

// SentimentSignals succeeds empty: the board publishes no grey-market
// figures.
func (p *ipoBoard) SentimentSignals(ctx context.Context) models.SourceResult {
	start := time.Now()
	return p.wrap(ctx, models.OpSentiment, start, nil, nil)
}

func (p *ipoBoard) scrapeBoard(ctx context.Context, path string) ([]models.Offering, error) {
	if p.limiter != nil {
		if err := p.limiter.Wait(ctx, p.name, 1, 0.2); err != nil {
			return nil, err
		}
	}

	// Navigation failures retry under the shared contract; a page that
	// renders but parses badly is structural and fails immediately.
	url := p.baseURL + path
	var doc *goquery.Document
	err := p.client.Retry(ctx, url, func(actx context.Context) error {
		rendered, rerr := p.renderer.Render(actx, url, p.waitSelector)
		if rerr != nil {
			return rerr
		}
		doc = rendered
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p.parseBoardTable(doc)
}

// parseBoardTable reads the rendered dashboard table. Column order:
// company, open, close, price band, lot size, total subscription,
// status.
func (p *ipoBoard) parseBoardTable(doc *goquery.Document) ([]models.Offering, error) {
	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, &models.ParseError{Source: p.name, Detail: "board table not found"}
	}

	var out []models.Offering
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}

		name := cellText(cells.Eq(0).Text())
		rec := models.Offering{
			Symbol:      symbolFromName(name),
			CompanyName: name,
			OpenDate:    util.ParseListingDatePtr(cellText(cells.Eq(1).Text())),
			CloseDate:   util.ParseListingDatePtr(cellText(cells.Eq(2).Text())),
			PriceRange:  cellText(cells.Eq(3).Text()),
		}
		if cells.Length() > 4 {
			rec.LotSize = util.ParseIntDefault(cellText(cells.Eq(4).Text()), 0)
		}
		if cells.Length() > 5 {
			rec.TotalSubscription = util.ParseFloatLoose(cells.Eq(5).Text())
		}
		if cells.Length() > 6 {
			rec.Status = parseStatus(cells.Eq(6).Text())
		}
		out = append(out, rec)
	})

	if len(out) == 0 {
		return nil, &models.ParseError{Source: p.name, Detail: "no rows in board table"}
	}
	return out, nil
}
