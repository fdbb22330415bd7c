package repository

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"IPOPulse/internal/domain/models"
	"IPOPulse/internal/domain/repository"
	pkgch "IPOPulse/pkg/clickhouse"
)

const activityTable = "source_activity"

var activitySchema = []string{
	`CREATE TABLE IF NOT EXISTS source_activity (
		id String,
		source String,
		operation String,
		outcome String,
		records Int32,
		latency_ms Int64,
		error String,
		at DateTime
	) ENGINE = MergeTree ORDER BY (source, at)`,
}

// ClickHouseActivityLog is the durable activity sink.
type ClickHouseActivityLog struct {
	client *pkgch.Client
}

// NewClickHouseActivityLog ensures the activity table exists and
// returns the sink.
func NewClickHouseActivityLog(ctx context.Context, client *pkgch.Client) (repository.ActivitySink, error) {
	if err := client.InitSchema(ctx, activitySchema); err != nil {
		return nil, fmt.Errorf("activity schema: %w", err)
	}
	return &ClickHouseActivityLog{client: client}, nil
}

func (l *ClickHouseActivityLog) Record(ctx context.Context, e models.ActivityEntry) error {
	q, args, err := sq.Insert(activityTable).
		Columns("id", "source", "operation", "outcome", "records", "latency_ms", "error", "at").
		Values(e.ID, e.Source, string(e.Operation), e.Outcome, int32(e.Records), e.LatencyMs, e.Error, e.At).
		ToSql()
	if err != nil {
		return fmt.Errorf("build activity insert: %w", err)
	}
	if _, err := l.client.DB().ExecContext(ctx, q, args...); err != nil {
		return fmt.Errorf("insert activity: %w", err)
	}
	return nil
}

// Recent returns the newest rows first.
func (l *ClickHouseActivityLog) Recent(ctx context.Context, limit int) ([]models.ActivityEntry, error) {
	if limit <= 0 {
		limit = 50
	}
	q, args, err := sq.Select("id", "source", "operation", "outcome", "records", "latency_ms", "error", "at").
		From(activityTable).
		OrderBy("at DESC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build activity select: %w", err)
	}

	rows, err := l.client.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("query activity: %w", err)
	}
	defer rows.Close()

	var out []models.ActivityEntry
	for rows.Next() {
		var e models.ActivityEntry
		var records int32
		var op string
		if err := rows.Scan(&e.ID, &e.Source, &op, &e.Outcome, &records, &e.LatencyMs, &e.Error, &e.At); err != nil {
			return nil, fmt.Errorf("scan activity row: %w", err)
		}
		e.Operation = models.Operation(op)
		e.Records = int(records)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (l *ClickHouseActivityLog) Close() error { return l.client.Close() }
