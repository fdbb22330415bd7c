package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"IPOPulse/internal/domain/models"
	"IPOPulse/internal/domain/repository"
)

const listingSchema = `
CREATE TABLE IF NOT EXISTS listings (
	id BIGSERIAL PRIMARY KEY,
	symbol TEXT NOT NULL UNIQUE,
	company_name TEXT NOT NULL,
	open_date TIMESTAMPTZ,
	close_date TIMESTAMPTZ,
	listing_date TIMESTAMPTZ,
	price_range TEXT,
	lot_size INT,
	issue_size TEXT,
	status TEXT,
	qib_subscription DOUBLE PRECISION,
	nii_subscription DOUBLE PRECISION,
	retail_subscription DOUBLE PRECISION,
	total_subscription DOUBLE PRECISION,
	pe_ratio DOUBLE PRECISION,
	revenue_growth DOUBLE PRECISION,
	profit_growth DOUBLE PRECISION,
	gmp DOUBLE PRECISION,
	est_listing_gain DOUBLE PRECISION,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// upsertListing applies the prefer-incoming-unless-null policy: a fresh
// scrape overwrites stored values, but never erases a stored value with
// an unknown. This is deliberately the inverse of the in-memory
// aggregation merge, which keeps the first known-good value in a pass.
const upsertListing = `
INSERT INTO listings (
	symbol, company_name, open_date, close_date, listing_date,
	price_range, lot_size, issue_size, status,
	qib_subscription, nii_subscription, retail_subscription, total_subscription,
	pe_ratio, revenue_growth, profit_growth, gmp, est_listing_gain, updated_at
) VALUES (
	:symbol, :company_name, :open_date, :close_date, :listing_date,
	:price_range, :lot_size, :issue_size, :status,
	:qib_subscription, :nii_subscription, :retail_subscription, :total_subscription,
	:pe_ratio, :revenue_growth, :profit_growth, :gmp, :est_listing_gain, now()
)
ON CONFLICT (symbol) DO UPDATE SET
	company_name = CASE WHEN EXCLUDED.company_name <> '' THEN EXCLUDED.company_name ELSE listings.company_name END,
	open_date = COALESCE(EXCLUDED.open_date, listings.open_date),
	close_date = COALESCE(EXCLUDED.close_date, listings.close_date),
	listing_date = COALESCE(EXCLUDED.listing_date, listings.listing_date),
	price_range = CASE WHEN EXCLUDED.price_range <> '' THEN EXCLUDED.price_range ELSE listings.price_range END,
	lot_size = CASE WHEN EXCLUDED.lot_size <> 0 THEN EXCLUDED.lot_size ELSE listings.lot_size END,
	issue_size = CASE WHEN EXCLUDED.issue_size <> '' THEN EXCLUDED.issue_size ELSE listings.issue_size END,
	status = CASE WHEN EXCLUDED.status <> '' THEN EXCLUDED.status ELSE listings.status END,
	qib_subscription = COALESCE(EXCLUDED.qib_subscription, listings.qib_subscription),
	nii_subscription = COALESCE(EXCLUDED.nii_subscription, listings.nii_subscription),
	retail_subscription = COALESCE(EXCLUDED.retail_subscription, listings.retail_subscription),
	total_subscription = COALESCE(EXCLUDED.total_subscription, listings.total_subscription),
	pe_ratio = COALESCE(EXCLUDED.pe_ratio, listings.pe_ratio),
	revenue_growth = COALESCE(EXCLUDED.revenue_growth, listings.revenue_growth),
	profit_growth = COALESCE(EXCLUDED.profit_growth, listings.profit_growth),
	gmp = COALESCE(EXCLUDED.gmp, listings.gmp),
	est_listing_gain = COALESCE(EXCLUDED.est_listing_gain, listings.est_listing_gain),
	updated_at = now()
RETURNING id`

type listingRow struct {
	Symbol             string     `db:"symbol"`
	CompanyName        string     `db:"company_name"`
	OpenDate           *time.Time `db:"open_date"`
	CloseDate          *time.Time `db:"close_date"`
	ListingDate        *time.Time `db:"listing_date"`
	PriceRange         string     `db:"price_range"`
	LotSize            int        `db:"lot_size"`
	IssueSize          string     `db:"issue_size"`
	Status             string     `db:"status"`
	QIBSubscription    *float64   `db:"qib_subscription"`
	NIISubscription    *float64   `db:"nii_subscription"`
	RetailSubscription *float64   `db:"retail_subscription"`
	TotalSubscription  *float64   `db:"total_subscription"`
	PERatio            *float64   `db:"pe_ratio"`
	RevenueGrowth      *float64   `db:"revenue_growth"`
	ProfitGrowth       *float64   `db:"profit_growth"`
	GMP                *float64   `db:"gmp"`
	EstListingGain     *float64   `db:"est_listing_gain"`
}

func toRow(rec models.Offering) listingRow {
	return listingRow{
		Symbol:             rec.Symbol,
		CompanyName:        rec.CompanyName,
		OpenDate:           rec.OpenDate,
		CloseDate:          rec.CloseDate,
		ListingDate:        rec.ListingDate,
		PriceRange:         rec.PriceRange,
		LotSize:            rec.LotSize,
		IssueSize:          rec.IssueSize,
		Status:             string(rec.Status),
		QIBSubscription:    rec.QIBSubscription,
		NIISubscription:    rec.NIISubscription,
		RetailSubscription: rec.RetailSubscription,
		TotalSubscription:  rec.TotalSubscription,
		PERatio:            rec.PERatio,
		RevenueGrowth:      rec.RevenueGrowth,
		ProfitGrowth:       rec.ProfitGrowth,
		GMP:                rec.GMP,
		EstListingGain:     rec.EstListingGain,
	}
}

// PostgresListingStore implements the persistence collaborator boundary.
type PostgresListingStore struct {
	db *sqlx.DB
}

func NewPostgresListingStore(ctx context.Context, dsn string) (repository.ListingStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if _, err := db.ExecContext(ctx, listingSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("listings schema: %w", err)
	}
	return &PostgresListingStore{db: db}, nil
}

func (s *PostgresListingStore) UpsertRecord(ctx context.Context, rec models.Offering) (int64, error) {
	rows, err := s.db.NamedQueryContext(ctx, upsertListing, toRow(rec))
	if err != nil {
		return 0, fmt.Errorf("upsert %s: %w", rec.Symbol, err)
	}
	defer rows.Close()

	var id int64
	if rows.Next() {
		if err := rows.Scan(&id); err != nil {
			return 0, fmt.Errorf("scan upsert id: %w", err)
		}
	}
	return id, rows.Err()
}

func (s *PostgresListingStore) BulkUpsert(ctx context.Context, recs []models.Offering) ([]models.Offering, error) {
	stored := make([]models.Offering, 0, len(recs))
	for _, rec := range recs {
		if _, err := s.UpsertRecord(ctx, rec); err != nil {
			return stored, err
		}
		stored = append(stored, rec)
	}
	return stored, nil
}

func (s *PostgresListingStore) ExistingSymbols(ctx context.Context) (map[string]struct{}, error) {
	var symbols []string
	if err := s.db.SelectContext(ctx, &symbols, "SELECT symbol FROM listings"); err != nil {
		return nil, fmt.Errorf("select symbols: %w", err)
	}
	out := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		out[s] = struct{}{}
	}
	return out, nil
}

func (s *PostgresListingStore) Close() error { return s.db.Close() }
