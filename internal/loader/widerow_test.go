package loader

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/wiroj/stocketl/internal/storage"
)

// execCall records one statement issued against the fake database.
type execCall struct {
	sql  string
	args []any
}

type fakeExecer struct {
	calls []execCall
	err   error
}

func (f *fakeExecer) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.calls = append(f.calls, execCall{sql: sql, args: args})
	return pgconn.CommandTag{}, f.err
}

func TestColumnFor(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"2023-10-26/most_active_stocks.json", "most_active"},
		{"2023-10-26/price/0_AAPL_stocks_price.json", "price1"},
		{"2023-10-26/price/1_GOOGL_stocks_price.json", "price2"},
		{"2023-10-26/price/2_MSFT_stocks_price.json", "price3"},
		{"2023-10-26/news/0_AAPL_stocks_news.json", "new1"},
		{"2023-10-26/news/1_GOOGL_stocks_news.json", "new2"},
		{"2023-10-26/news/2_MSFT_stocks_news.json", "new3"},
		{"2023-10-26/business_info/0_AAPL_stocks_business_info.json", ""},
		{"2023-10-26/price/3_TSLA_stocks_price.json", ""},
		{"2023-10-26/", ""},
	}
	for _, tt := range tests {
		if got := columnFor(tt.key); got != tt.want {
			t.Errorf("columnFor(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestBuildWideUpsert(t *testing.T) {
	t.Run("all columns present", func(t *testing.T) {
		cols := map[string][]byte{}
		for _, c := range wideColumns {
			cols[c] = []byte(`{}`)
		}
		sql, args := buildWideUpsert("2023-10-26", cols)

		if !strings.HasPrefix(sql, "INSERT INTO raw_most_active_stocks (date, most_active, price1, price2, price3, new1, new2, new3)") {
			t.Errorf("unexpected insert list: %s", sql)
		}
		if !strings.Contains(sql, "ON CONFLICT (date) DO UPDATE SET") {
			t.Errorf("missing conflict clause: %s", sql)
		}
		if len(args) != 8 {
			t.Errorf("got %d args, want 8", len(args))
		}
		if args[0] != "2023-10-26" {
			t.Errorf("first arg = %v, want the date", args[0])
		}
	})

	t.Run("partial pass never touches absent columns", func(t *testing.T) {
		cols := map[string][]byte{
			"price1": []byte(`{"a":1}`),
			"price3": []byte(`{"c":3}`),
		}
		sql, args := buildWideUpsert("2023-10-26", cols)

		if !strings.Contains(sql, "(date, price1, price3)") {
			t.Errorf("insert list should cover only present columns: %s", sql)
		}
		if !strings.Contains(sql, "UPDATE SET price1 = EXCLUDED.price1, price3 = EXCLUDED.price3") {
			t.Errorf("set list should cover only present columns: %s", sql)
		}
		rest := strings.TrimPrefix(sql, "INSERT INTO "+WideTableName)
		for _, absent := range []string{"most_active", "price2", "new1", "new2", "new3"} {
			if strings.Contains(rest, absent) {
				t.Errorf("absent column %s leaked into statement: %s", absent, sql)
			}
		}
		if len(args) != 3 {
			t.Errorf("got %d args, want 3", len(args))
		}
	})

	t.Run("no columns upserts the key only", func(t *testing.T) {
		sql, args := buildWideUpsert("2023-10-26", nil)
		if !strings.Contains(sql, "ON CONFLICT (date) DO NOTHING") {
			t.Errorf("empty pass should DO NOTHING: %s", sql)
		}
		if len(args) != 1 {
			t.Errorf("got %d args, want 1", len(args))
		}
	})
}

func seedObject(t *testing.T, m *storage.Memory, key, body string) {
	t.Helper()
	if _, err := m.PutObject(context.Background(), "bronze", key, []byte(body)); err != nil {
		t.Fatalf("seed %s: %v", key, err)
	}
}

func TestWideRowLoad(t *testing.T) {
	m := storage.NewMemory()
	seedObject(t, m, "2023-10-26/most_active_stocks.json", `[{"ticker":"AAPL"}]`)
	for idx, sym := range []string{"AAPL", "GOOGL", "MSFT"} {
		seedObject(t, m, fmt.Sprintf("2023-10-26/price/%d_%s_stocks_price.json", idx, sym), `{"series":{}}`)
		seedObject(t, m, fmt.Sprintf("2023-10-26/news/%d_%s_stocks_news.json", idx, sym), `{"feed":[]}`)
	}
	seedObject(t, m, "2023-10-26/business_info/0_AAPL_stocks_business_info.json", `{"Symbol":"AAPL"}`)

	db := &fakeExecer{}
	w := NewWideRow(m, db, "bronze", 4, nil)

	if err := w.Load(context.Background(), "2023-10-26"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(db.calls) != 2 {
		t.Fatalf("got %d statements, want DDL + upsert", len(db.calls))
	}
	if !strings.Contains(db.calls[0].sql, "CREATE TABLE IF NOT EXISTS raw_most_active_stocks") {
		t.Errorf("first statement should ensure the table: %s", db.calls[0].sql)
	}

	up := db.calls[1]
	// Business-info artifacts feed the lookup table, not the wide row:
	// date + most_active + 3 price + 3 news.
	if len(up.args) != 8 {
		t.Errorf("got %d args, want 8", len(up.args))
	}
	if !strings.Contains(up.sql, "most_active") || !strings.Contains(up.sql, "new3") {
		t.Errorf("upsert missing expected columns: %s", up.sql)
	}
}

func TestWideRowLoadIdempotent(t *testing.T) {
	m := storage.NewMemory()
	seedObject(t, m, "2023-10-26/most_active_stocks.json", `[{"ticker":"AAPL"}]`)
	seedObject(t, m, "2023-10-26/price/0_AAPL_stocks_price.json", `{"series":{}}`)
	seedObject(t, m, "2023-10-26/news/0_AAPL_stocks_news.json", `{"feed":[]}`)

	db := &fakeExecer{}
	w := NewWideRow(m, db, "bronze", 2, nil)

	for i := 0; i < 2; i++ {
		if err := w.Load(context.Background(), "2023-10-26"); err != nil {
			t.Fatalf("Load pass %d failed: %v", i+1, err)
		}
	}

	first, second := db.calls[1], db.calls[3]
	if first.sql != second.sql {
		t.Errorf("statements differ across passes:\n%s\n%s", first.sql, second.sql)
	}
	if len(first.args) != len(second.args) {
		t.Fatalf("arg counts differ: %d vs %d", len(first.args), len(second.args))
	}
	for i := range first.args {
		a, _ := first.args[i].([]byte)
		b, _ := second.args[i].([]byte)
		if string(a) != string(b) {
			t.Errorf("arg %d differs across passes", i)
		}
	}
}

func TestWideRowLoadSkipsCorruptArtifacts(t *testing.T) {
	m := storage.NewMemory()
	seedObject(t, m, "2023-10-26/most_active_stocks.json", `[{"ticker":"AAPL"}]`)
	seedObject(t, m, "2023-10-26/price/0_AAPL_stocks_price.json", `{truncated`)

	db := &fakeExecer{}
	w := NewWideRow(m, db, "bronze", 2, nil)

	if err := w.Load(context.Background(), "2023-10-26"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	up := db.calls[len(db.calls)-1]
	if strings.Contains(up.sql, "price1") {
		t.Errorf("corrupt artifact should not populate its column: %s", up.sql)
	}
	if len(up.args) != 2 {
		t.Errorf("got %d args, want date + most_active", len(up.args))
	}
}

func TestWideRowLoadListFailure(t *testing.T) {
	m := storage.NewMemory()
	m.ListErr = storage.ErrUnavailable

	w := NewWideRow(m, &fakeExecer{}, "bronze", 2, nil)
	if err := w.Load(context.Background(), "2023-10-26"); err == nil {
		t.Fatal("expected list failure to propagate")
	}
}
