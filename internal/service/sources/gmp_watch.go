package sources

import (
	"context"
	"fmt"
	"time"

	"github.com/PuerkitoBio/goquery"

	"IPOPulse/internal/domain/models"
	"IPOPulse/internal/service/ratelimit"
	"IPOPulse/pkg/config"
	"IPOPulse/pkg/fetch"
	"IPOPulse/pkg/util"
)

// gmpWatch scrapes a static HTML site publishing grey-market premiums
// and subscription tables. Parsing is optimistic per cell: a cell that
// does not parse leaves the field unset rather than failing the row.
type gmpWatch struct {
	base

	baseURL string
	client  *fetch.Client
	limiter *ratelimit.Limiter
}

func newGMPWatch(sc config.SourceConfig, b base, client *fetch.Client, limiter *ratelimit.Limiter) *gmpWatch {
	return &gmpWatch{base: b, baseURL: sc.BaseURL, client: client, limiter: limiter}
}

func (g *gmpWatch) Offerings(ctx context.Context) models.SourceResult {
	start := time.Now()
	recs, err := g.scrapeGMPTable(ctx)
	return g.wrap(ctx, models.OpOfferings, start, recs, err)
}

func (g *gmpWatch) SentimentSignals(ctx context.Context) models.SourceResult {
	start := time.Now()
	recs, err := g.scrapeGMPTable(ctx)
	if err == nil {
		kept := recs[:0]
		for _, r := range recs {
			if r.GMP != nil {
				kept = append(kept, r)
			}
		}
		recs = kept
	}
	return g.wrap(ctx, models.OpSentiment, start, recs, err)
}

func (g *gmpWatch) DemandFigures(ctx context.Context) models.SourceResult {
	start := time.Now()
	recs, err := g.scrapeSubscriptionTable(ctx)
	return g.wrap(ctx, models.OpDemand, start, recs, err)
}

func (g *gmpWatch) fetchDoc(ctx context.Context, url string) (*goquery.Document, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx, g.name, 2, 0.5); err != nil {
			return nil, err
		}
	}
	return g.client.GetDocument(ctx, url, nil)
}

// scrapeGMPTable parses the live GMP page. Column order observed:
// company, price band, GMP, est. listing gain, open, close, status.
func (g *gmpWatch) scrapeGMPTable(ctx context.Context) ([]models.Offering, error) {
	url := g.baseURL + "/ipo-gmp"
	doc, err := g.fetchDoc(ctx, url)
	if err != nil {
		return nil, err
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, &models.ParseError{Source: g.name, Detail: "gmp table not found"}
	}

	var out []models.Offering
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 3 {
			return
		}

		name := cellText(cells.Eq(0).Text())
		rec := models.Offering{
			Symbol:      symbolFromName(name),
			CompanyName: name,
			PriceRange:  cellText(cells.Eq(1).Text()),
			GMP:         util.ParseFloatLoose(cells.Eq(2).Text()),
		}
		if cells.Length() > 3 {
			rec.EstListingGain = util.ParseFloatLoose(cells.Eq(3).Text())
		}
		if cells.Length() > 5 {
			rec.OpenDate = util.ParseListingDatePtr(cellText(cells.Eq(4).Text()))
			rec.CloseDate = util.ParseListingDatePtr(cellText(cells.Eq(5).Text()))
		}
		if cells.Length() > 6 {
			rec.Status = parseStatus(cells.Eq(6).Text())
		}
		out = append(out, rec)
	})

	if len(out) == 0 {
		return nil, &models.ParseError{Source: g.name, Detail: fmt.Sprintf("no rows in gmp table at %s", url)}
	}
	return out, nil
}

// scrapeSubscriptionTable parses the demand page. Column order:
// company, QIB, NII, retail, total.
func (g *gmpWatch) scrapeSubscriptionTable(ctx context.Context) ([]models.Offering, error) {
	url := g.baseURL + "/subscription-status"
	doc, err := g.fetchDoc(ctx, url)
	if err != nil {
		return nil, err
	}

	table := doc.Find("table").First()
	if table.Length() == 0 {
		return nil, &models.ParseError{Source: g.name, Detail: "subscription table not found"}
	}

	var out []models.Offering
	table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 5 {
			return
		}

		name := cellText(cells.Eq(0).Text())
		out = append(out, models.Offering{
			Symbol:             symbolFromName(name),
			CompanyName:        name,
			QIBSubscription:    util.ParseFloatLoose(cells.Eq(1).Text()),
			NIISubscription:    util.ParseFloatLoose(cells.Eq(2).Text()),
			RetailSubscription: util.ParseFloatLoose(cells.Eq(3).Text()),
			TotalSubscription:  util.ParseFloatLoose(cells.Eq(4).Text()),
		})
	})

	if len(out) == 0 {
		return nil, &models.ParseError{Source: g.name, Detail: fmt.Sprintf("no rows in subscription table at %s", url)}
	}
	return out, nil
}
