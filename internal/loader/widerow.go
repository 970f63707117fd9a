package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/wiroj/stocketl/internal/metrics"
	"github.com/wiroj/stocketl/internal/storage"
)

// WideTableName is the denormalized per-day table.
const WideTableName = "raw_most_active_stocks"

const createWideTable = `
	CREATE TABLE IF NOT EXISTS ` + WideTableName + ` (
		date DATE PRIMARY KEY,
		most_active JSONB,
		price1 JSONB, price2 JSONB, price3 JSONB,
		new1 JSONB, new2 JSONB, new3 JSONB
	)`

// wideColumns is the column order used for deterministic SQL.
var wideColumns = []string{
	"most_active",
	"price1", "price2", "price3",
	"new1", "new2", "new3",
}

// WideRow merges one day's artifacts into a single row of the wide
// table.
type WideRow struct {
	gw          storage.Gateway
	db          Execer
	bucket      string
	concurrency int
	logger      *slog.Logger
}

// NewWideRow creates the aggregator. concurrency bounds parallel
// artifact reads; the upsert itself stays single-threaded.
func NewWideRow(gw storage.Gateway, db Execer, bucket string, concurrency int, logger *slog.Logger) *WideRow {
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WideRow{
		gw:          gw,
		db:          db,
		bucket:      bucket,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Load scans the day prefix, maps artifacts to columns, and upserts one
// row keyed by date. Columns with no artifact this pass are left out of
// the conflict SET list so a prior value is never reset to null.
func (w *WideRow) Load(ctx context.Context, prefix string) error {
	objects, err := w.gw.ListObjects(ctx, w.bucket, prefix+"/", true)
	if err != nil {
		return fmt.Errorf("list day artifacts: %w", err)
	}

	var keys []string
	for _, obj := range objects {
		if strings.HasSuffix(obj.Key, ".json") && columnFor(obj.Key) != "" {
			keys = append(keys, obj.Key)
		}
	}
	w.logger.Info("aggregating day", "prefix", prefix, "artifacts", len(keys))

	cols := w.fetchColumns(ctx, keys)

	if err := w.upsert(ctx, prefix, cols); err != nil {
		return err
	}
	metrics.RowsUpserted.WithLabelValues(WideTableName).Inc()
	w.logger.Info("upserted wide row", "date", prefix, "columns", len(cols))
	return nil
}

// fetchColumns reads artifacts in parallel and returns the populated
// column map. A missing or corrupt artifact is logged and skipped.
func (w *WideRow) fetchColumns(ctx context.Context, keys []string) map[string][]byte {
	type result struct {
		column string
		data   []byte
	}

	sem := make(chan struct{}, w.concurrency)
	results := make(chan result, len(keys))
	var wg sync.WaitGroup

	for _, key := range keys {
		wg.Add(1)
		go func(key string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			data, err := storage.ReadObject(ctx, w.gw, w.bucket, key)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					w.logger.Warn("artifact vanished during aggregation", "key", key)
				} else {
					w.logger.Warn("artifact read failed", "key", key, "error", err)
				}
				return
			}
			if !json.Valid(data) {
				w.logger.Warn("artifact is not valid json, skipping", "key", key)
				return
			}
			results <- result{column: columnFor(key), data: data}
		}(key)
	}

	wg.Wait()
	close(results)

	cols := make(map[string][]byte)
	for r := range results {
		cols[r.column] = r.data
	}
	return cols
}

// upsert writes the row. The SET clause covers only columns present in
// this pass.
func (w *WideRow) upsert(ctx context.Context, date string, cols map[string][]byte) error {
	if _, err := w.db.Exec(ctx, createWideTable); err != nil {
		return fmt.Errorf("ensure wide table: %w", err)
	}

	sql, args := buildWideUpsert(date, cols)
	if _, err := w.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert wide row %s: %w", date, err)
	}
	return nil
}

// buildWideUpsert renders the partial upsert statement. Exposed within
// the package for direct testing.
func buildWideUpsert(date string, cols map[string][]byte) (string, []any) {
	// Canonical column order keeps the statement deterministic across
	// runs.
	present := make([]string, 0, len(cols))
	for _, c := range wideColumns {
		if _, ok := cols[c]; ok {
			present = append(present, c)
		}
	}

	insertCols := []string{"date"}
	placeholders := []string{"$1"}
	args := []any{date}
	for i, c := range present {
		insertCols = append(insertCols, c)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+2))
		args = append(args, cols[c])
	}

	var sets []string
	for _, c := range present {
		sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", c, c))
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s) ON CONFLICT (date) DO ",
		WideTableName,
		strings.Join(insertCols, ", "),
		strings.Join(placeholders, ", "),
	)
	if len(sets) == 0 {
		sql += "NOTHING"
	} else {
		sql += "UPDATE SET " + strings.Join(sets, ", ")
	}
	return sql, args
}

// columnFor maps an artifact key to its wide-table column. Empty string
// means the key does not feed the wide row.
func columnFor(key string) string {
	switch {
	case strings.HasSuffix(key, "most_active_stocks.json"):
		return "most_active"
	case strings.Contains(key, "/price/0_"):
		return "price1"
	case strings.Contains(key, "/price/1_"):
		return "price2"
	case strings.Contains(key, "/price/2_"):
		return "price3"
	case strings.Contains(key, "/news/0_"):
		return "new1"
	case strings.Contains(key, "/news/1_"):
		return "new2"
	case strings.Contains(key, "/news/2_"):
		return "new3"
	default:
		return ""
	}
}
