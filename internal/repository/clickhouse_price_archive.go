package repository

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"time"

	"CoinStrat/internal/domain/models"
	pkgch "CoinStrat/pkg/clickhouse"
	applogger "CoinStrat/pkg/logger"
	"CoinStrat/pkg/util"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// CHPriceArchive implements PriceArchive backed by a ReplacingMergeTree table.
// Rows are keyed by (symbol, day); the newest updated_at wins on merge.
type CHPriceArchive struct {
	ch       *pkgch.Client
	database string
	table    string
	l        *applogger.Logger
}

// NewCHPriceArchive stores closes in database.table; both are created by Init.
func NewCHPriceArchive(ch *pkgch.Client, database, table string, l *applogger.Logger) (*CHPriceArchive, error) {
	if !identRe.MatchString(database) {
		return nil, fmt.Errorf("invalid database name %q", database)
	}
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &CHPriceArchive{ch: ch, database: database, table: database + "." + table, l: l}, nil
}

func (s *CHPriceArchive) schema() []string {
	return archiveSchema(s.database, s.table)
}

func archiveSchema(database, table string) []string {
	return []string{
		fmt.Sprintf(`CREATE DATABASE IF NOT EXISTS %s`, database),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
            symbol     LowCardinality(String),
            day        Date,
            close      Float64,
            updated_at DateTime64(3, 'UTC')
        ) ENGINE = ReplacingMergeTree(updated_at)
        ORDER BY (symbol, day)`, table),
	}
}

func (s *CHPriceArchive) Init(ctx context.Context) error {
	return s.ch.InitSchema(ctx, s.schema())
}

func (s *CHPriceArchive) Range(ctx context.Context, symbol string, from, to time.Time) ([]models.Observation, error) {
	start := time.Now()
	q := fmt.Sprintf(`
        SELECT day, argMax(close, updated_at) AS close
        FROM %s
        WHERE symbol = ? AND day >= ? AND day <= ?
        GROUP BY day
        ORDER BY day ASC
    `, s.table)
	rows, err := s.ch.DB().QueryContext(ctx, q, symbol, util.Day(from), util.Day(to))
	if err != nil {
		s.l.Error("clickhouse range query error", applogger.String("symbol", symbol), applogger.Error(err))
		return nil, fmt.Errorf("archive range: %w", err)
	}
	defer rows.Close()

	out := make([]models.Observation, 0, 4096)
	for rows.Next() {
		var (
			d time.Time
			v float64
		)
		if err := rows.Scan(&d, &v); err != nil {
			return nil, fmt.Errorf("scan close: %w", err)
		}
		out = append(out, models.Observation{Date: util.Day(d), Value: v})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	s.l.Debug("clickhouse range ok",
		applogger.String("symbol", symbol),
		applogger.Int("rows", len(out)),
		applogger.Duration("duration_ms", time.Since(start)),
	)
	return out, nil
}

func (s *CHPriceArchive) LastDate(ctx context.Context, symbol string) (time.Time, bool, error) {
	q := fmt.Sprintf(`SELECT max(day), count() FROM %s WHERE symbol = ?`, s.table)
	var (
		d time.Time
		n uint64
	)
	if err := s.ch.DB().QueryRowContext(ctx, q, symbol).Scan(&d, &n); err != nil {
		if err == sql.ErrNoRows {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("archive last date: %w", err)
	}
	if n == 0 {
		return time.Time{}, false, nil
	}
	return util.Day(d), true, nil
}

func (s *CHPriceArchive) Upsert(ctx context.Context, symbol string, obs []models.Observation) error {
	if len(obs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	rows := make([][]any, 0, len(obs))
	for _, o := range obs {
		if !o.Valid() {
			continue
		}
		rows = append(rows, []any{symbol, util.Day(o.Date), o.Value, now})
	}
	q := fmt.Sprintf(`INSERT INTO %s (symbol, day, close, updated_at)`, s.table)
	if err := s.ch.InsertBatch(ctx, q, rows); err != nil {
		s.l.Error("clickhouse upsert error", applogger.String("symbol", symbol), applogger.Int("rows", len(rows)), applogger.Error(err))
		return fmt.Errorf("archive upsert: %w", err)
	}
	s.l.Info("clickhouse upsert ok", applogger.String("symbol", symbol), applogger.Int("rows", len(rows)))
	return nil
}

func (s *CHPriceArchive) Health(ctx context.Context) error {
	return s.ch.Health(ctx)
}

func (s *CHPriceArchive) Close() error {
	return s.ch.Close()
}
