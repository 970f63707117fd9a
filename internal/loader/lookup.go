package loader

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/wiroj/stocketl/internal/metrics"
	"github.com/wiroj/stocketl/internal/storage"
)

// Lookup loads business-info artifacts into the per-symbol lookup
// table.
type Lookup struct {
	gw     storage.Gateway
	db     Execer
	bucket string
	logger *slog.Logger
}

// NewLookup creates the lookup loader.
func NewLookup(gw storage.Gateway, db Execer, bucket string, logger *slog.Logger) *Lookup {
	if logger == nil {
		logger = slog.Default()
	}
	return &Lookup{gw: gw, db: db, bucket: bucket, logger: logger}
}

// Load scans the day's business-info artifacts, normalizes every record
// into the fixed schema, and batch-upserts them keyed on Symbol. A
// record missing its Symbol is excluded with a warning; the rest of the
// batch still loads.
func (l *Lookup) Load(ctx context.Context, prefix string) error {
	objects, err := l.gw.ListObjects(ctx, l.bucket, prefix+"/business_info/", true)
	if err != nil {
		return fmt.Errorf("list business info artifacts: %w", err)
	}

	var rows [][]any
	for _, obj := range objects {
		if !strings.HasSuffix(obj.Key, ".json") {
			continue
		}
		data, err := storage.ReadObject(ctx, l.gw, l.bucket, obj.Key)
		if err != nil {
			l.logger.Warn("artifact read failed", "key", obj.Key, "error", err)
			continue
		}
		rows = append(rows, l.normalizeArtifact(obj.Key, data)...)
	}

	if len(rows) == 0 {
		l.logger.Info("no lookup records for day", "prefix", prefix)
		return nil
	}
	rows = dedupeBySymbol(rows)

	if err := l.upsert(ctx, rows); err != nil {
		return err
	}
	metrics.RowsUpserted.WithLabelValues(LookupTableName).Add(float64(len(rows)))
	l.logger.Info("upserted lookup rows", "prefix", prefix, "rows", len(rows))
	return nil
}

// normalizeArtifact parses one artifact, which may hold a single record
// or a list, and returns the normalized rows.
func (l *Lookup) normalizeArtifact(key string, data []byte) [][]any {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		l.logger.Warn("artifact is not valid json, skipping", "key", key, "error", err)
		return nil
	}

	var records []any
	switch v := parsed.(type) {
	case []any:
		records = v
	default:
		records = []any{v}
	}

	var rows [][]any
	for _, rec := range records {
		obj, ok := rec.(map[string]any)
		if !ok {
			l.logger.Warn("record is not an object, skipping", "key", key)
			continue
		}
		// Symbol only has to be present; a non-string value is
		// normalized like any other field.
		if sym, ok := obj["Symbol"]; !ok || sym == nil || sym == "" {
			l.logger.Warn("record missing Symbol, skipping", "key", key)
			continue
		}

		row := make([]any, len(lookupColumns))
		for i, col := range lookupColumns {
			row[i] = normalizeValue(obj[col])
		}
		rows = append(rows, row)
	}
	return rows
}

// dedupeBySymbol collapses repeated symbols to their last occurrence.
// Postgres rejects a multi-row ON CONFLICT statement that touches the
// same key twice.
func dedupeBySymbol(rows [][]any) [][]any {
	seen := make(map[any]int, len(rows))
	out := make([][]any, 0, len(rows))
	for _, row := range rows {
		if i, ok := seen[row[0]]; ok {
			out[i] = row
			continue
		}
		seen[row[0]] = len(out)
		out = append(out, row)
	}
	return out
}

// upsert writes all rows in one multi-row statement.
func (l *Lookup) upsert(ctx context.Context, rows [][]any) error {
	if _, err := l.db.Exec(ctx, buildLookupDDL()); err != nil {
		return fmt.Errorf("ensure lookup table: %w", err)
	}

	sql, args := buildLookupUpsert(rows)
	if _, err := l.db.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("upsert lookup rows: %w", err)
	}
	return nil
}

// buildLookupDDL renders the CREATE TABLE statement for the fixed
// schema. Column names are quoted: they are mixed case and some start
// with a digit.
func buildLookupDDL() string {
	cols := make([]string, len(lookupColumns))
	for i, c := range lookupColumns {
		cols[i] = fmt.Sprintf("%q TEXT", c)
	}
	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s, PRIMARY KEY (%q))",
		LookupTableName,
		strings.Join(cols, ", "),
		"Symbol",
	)
}

// buildLookupUpsert renders the multi-row upsert. Conflict resolution
// overwrites every non-key column with the incoming value.
func buildLookupUpsert(rows [][]any) (string, []any) {
	quoted := make([]string, len(lookupColumns))
	for i, c := range lookupColumns {
		quoted[i] = strconv.Quote(c)
	}

	var args []any
	values := make([]string, 0, len(rows))
	for _, row := range rows {
		placeholders := make([]string, len(row))
		for i := range row {
			placeholders[i] = fmt.Sprintf("$%d", len(args)+i+1)
		}
		args = append(args, row...)
		values = append(values, "("+strings.Join(placeholders, ", ")+")")
	}

	var sets []string
	for _, c := range lookupColumns[1:] {
		sets = append(sets, fmt.Sprintf("%q = EXCLUDED.%q", c, c))
	}

	sql := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES %s ON CONFLICT (%q) DO UPDATE SET %s",
		LookupTableName,
		strings.Join(quoted, ", "),
		strings.Join(values, ", "),
		"Symbol",
		strings.Join(sets, ", "),
	)
	return sql, args
}

// normalizeValue flattens a decoded JSON value into the TEXT schema.
// Composite values become their JSON serialization; nil stays NULL.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case string:
		return val
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case map[string]any, []any:
		data, err := json.Marshal(val)
		if err != nil {
			return fmt.Sprint(val)
		}
		return string(data)
	default:
		return fmt.Sprint(val)
	}
}
