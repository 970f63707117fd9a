package loader

import (
	"context"
	"strconv"
	"strings"
	"testing"

	"github.com/wiroj/stocketl/internal/storage"
)

func TestNormalizeValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want any
	}{
		{"nil stays null", nil, nil},
		{"string passthrough", "Apple Inc", "Apple Inc"},
		{"float without exponent", float64(193000000000), "193000000000"},
		{"fractional float", 1.65, "1.65"},
		{"bool", true, "true"},
		{"map becomes json", map[string]any{"a": float64(1)}, `{"a":1}`},
		{"slice becomes json", []any{"x", "y"}, `["x","y"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeValue(tt.in); got != tt.want {
				t.Errorf("normalizeValue(%v) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestBuildLookupDDL(t *testing.T) {
	ddl := buildLookupDDL()

	if !strings.HasPrefix(ddl, "CREATE TABLE IF NOT EXISTS biz_info_lookup") {
		t.Errorf("unexpected DDL prefix: %s", ddl)
	}
	if !strings.Contains(ddl, `PRIMARY KEY ("Symbol")`) {
		t.Errorf("DDL missing primary key: %s", ddl)
	}
	// Digit-leading column names are only valid quoted.
	if !strings.Contains(ddl, `"52WeekHigh" TEXT`) {
		t.Errorf("DDL missing quoted numeric column: %s", ddl)
	}
	if got := strings.Count(ddl, " TEXT"); got != len(lookupColumns) {
		t.Errorf("DDL declares %d TEXT columns, want %d", got, len(lookupColumns))
	}
}

func TestBuildLookupUpsert(t *testing.T) {
	row1 := make([]any, len(lookupColumns))
	row2 := make([]any, len(lookupColumns))
	row1[0] = "AAPL"
	row2[0] = "GOOGL"

	sql, args := buildLookupUpsert([][]any{row1, row2})

	if want := 2 * len(lookupColumns); len(args) != want {
		t.Errorf("got %d args, want %d", len(args), want)
	}
	if !strings.Contains(sql, `ON CONFLICT ("Symbol") DO UPDATE SET`) {
		t.Errorf("missing conflict clause: %s", sql)
	}
	if strings.Contains(sql, `"Symbol" = EXCLUDED."Symbol"`) {
		t.Errorf("key column must not appear in the SET list: %s", sql)
	}
	if !strings.Contains(sql, `"AssetType" = EXCLUDED."AssetType"`) {
		t.Errorf("non-key column missing from SET list: %s", sql)
	}
	// Placeholders continue across rows.
	last := len(args)
	if !strings.Contains(sql, "$"+strconv.Itoa(last)) {
		t.Errorf("missing final placeholder $%d: %s", last, sql)
	}
}

func TestLookupLoad(t *testing.T) {
	m := storage.NewMemory()
	seedObject(t, m, "2023-10-26/business_info/0_AAPL_stocks_business_info.json",
		`{"Symbol":"AAPL","Name":"Apple Inc","MarketCapitalization":"2950000000000","52WeekHigh":"199.62"}`)
	seedObject(t, m, "2023-10-26/business_info/1_GOOGL_stocks_business_info.json",
		`{"Symbol":"GOOGL","Name":"Alphabet Inc"}`)
	// Wide-row artifacts under other prefixes are out of scope.
	seedObject(t, m, "2023-10-26/most_active_stocks.json", `[{"ticker":"AAPL"}]`)

	db := &fakeExecer{}
	l := NewLookup(m, db, "bronze", nil)

	if err := l.Load(context.Background(), "2023-10-26"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(db.calls) != 2 {
		t.Fatalf("got %d statements, want DDL + upsert", len(db.calls))
	}
	up := db.calls[1]
	if want := 2 * len(lookupColumns); len(up.args) != want {
		t.Errorf("got %d args, want %d for two rows", len(up.args), want)
	}
	if up.args[0] != "AAPL" {
		t.Errorf("first row key = %v, want AAPL", up.args[0])
	}
	// Fields absent from the payload land as NULL.
	if up.args[4] != nil {
		t.Errorf("absent CIK should be nil, got %v", up.args[4])
	}
}

func TestLookupLoadDropsMalformedRecords(t *testing.T) {
	m := storage.NewMemory()
	seedObject(t, m, "2023-10-26/business_info/0_AAPL_stocks_business_info.json",
		`{"Symbol":"AAPL","Name":"Apple Inc"}`)
	seedObject(t, m, "2023-10-26/business_info/1_GOOGL_stocks_business_info.json",
		`{"Name":"No Symbol Corp"}`)
	seedObject(t, m, "2023-10-26/business_info/2_MSFT_stocks_business_info.json",
		`"just a string"`)
	seedObject(t, m, "2023-10-26/business_info/3_TSLA_stocks_business_info.json",
		`{not json`)

	db := &fakeExecer{}
	l := NewLookup(m, db, "bronze", nil)

	if err := l.Load(context.Background(), "2023-10-26"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	up := db.calls[len(db.calls)-1]
	if want := len(lookupColumns); len(up.args) != want {
		t.Errorf("got %d args, want %d for the single good row", len(up.args), want)
	}
	if up.args[0] != "AAPL" {
		t.Errorf("surviving row key = %v, want AAPL", up.args[0])
	}
}

func TestLookupLoadNormalizesNonStringSymbol(t *testing.T) {
	m := storage.NewMemory()
	seedObject(t, m, "2023-10-26/business_info/0_X_stocks_business_info.json",
		`{"Symbol":123,"Name":"Numeric Ticker Corp"}`)

	db := &fakeExecer{}
	l := NewLookup(m, db, "bronze", nil)

	if err := l.Load(context.Background(), "2023-10-26"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(db.calls) != 2 {
		t.Fatalf("got %d statements, want DDL + upsert", len(db.calls))
	}
	up := db.calls[1]
	if want := len(lookupColumns); len(up.args) != want {
		t.Errorf("got %d args, want %d", len(up.args), want)
	}
	if up.args[0] != "123" {
		t.Errorf("symbol = %v, want normalized %q", up.args[0], "123")
	}
}

func TestLookupLoadDeduplicatesSymbols(t *testing.T) {
	m := storage.NewMemory()
	seedObject(t, m, "2023-10-26/business_info/0_AAPL_stocks_business_info.json",
		`{"Symbol":"AAPL","Name":"First"}`)
	seedObject(t, m, "2023-10-26/business_info/1_AAPL_stocks_business_info.json",
		`{"Symbol":"AAPL","Name":"Second"}`)

	db := &fakeExecer{}
	l := NewLookup(m, db, "bronze", nil)

	if err := l.Load(context.Background(), "2023-10-26"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	up := db.calls[len(db.calls)-1]
	if want := len(lookupColumns); len(up.args) != want {
		t.Fatalf("got %d args, want %d for a single deduplicated row", len(up.args), want)
	}
	// Later artifact wins, matching ON CONFLICT overwrite semantics.
	if up.args[2] != "Second" {
		t.Errorf("Name = %v, want the later record's value", up.args[2])
	}
}

func TestDedupeBySymbol(t *testing.T) {
	rows := [][]any{
		{"AAPL", "first"},
		{"GOOGL", "kept"},
		{"AAPL", "last"},
	}
	got := dedupeBySymbol(rows)
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[0][1] != "last" {
		t.Errorf("duplicate symbol kept %v, want the last occurrence", got[0][1])
	}
	if got[1][0] != "GOOGL" {
		t.Errorf("row order changed: %v", got[1][0])
	}
}

func TestLookupLoadListArtifact(t *testing.T) {
	m := storage.NewMemory()
	seedObject(t, m, "2023-10-26/business_info/0_AAPL_stocks_business_info.json",
		`[{"Symbol":"AAPL"},{"Symbol":"AAPL2"},{"Name":"dropped"}]`)

	db := &fakeExecer{}
	l := NewLookup(m, db, "bronze", nil)

	if err := l.Load(context.Background(), "2023-10-26"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	up := db.calls[len(db.calls)-1]
	if want := 2 * len(lookupColumns); len(up.args) != want {
		t.Errorf("got %d args, want %d for two rows", len(up.args), want)
	}
}

func TestLookupLoadNoRecords(t *testing.T) {
	db := &fakeExecer{}
	l := NewLookup(storage.NewMemory(), db, "bronze", nil)

	if err := l.Load(context.Background(), "2023-10-26"); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(db.calls) != 0 {
		t.Errorf("no statements expected for an empty day, got %d", len(db.calls))
	}
}
