package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/wiroj/stocketl/internal/api"
	"github.com/wiroj/stocketl/internal/storage"
)

// ErrMissingSymbols signals that a per-symbol stage was invoked without
// the ranked symbol list from the most-active stage. This is an
// out-of-order invocation, not an upstream failure.
var ErrMissingSymbols = errors.New("pipeline: top symbol list not available")

// Extractor runs the extraction stages against the upstream API and
// writes artifacts through the storage gateway.
//
// Every stage is all-or-nothing: the first upstream failure aborts it
// and the whole stage is re-attempted on the next run. Writes that
// already succeeded are harmless because keys are deterministic and a
// retry overwrites identical content.
type Extractor struct {
	gw     storage.Gateway
	client *api.Client
	bucket string
	topN   int
	pacer  *Pacer
	logger *slog.Logger
}

// NewExtractor creates an extractor writing into bucket.
func NewExtractor(gw storage.Gateway, client *api.Client, bucket string, topN int, pacer *Pacer, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		gw:     gw,
		client: client,
		bucket: bucket,
		topN:   topN,
		pacer:  pacer,
		logger: logger,
	}
}

// EnsureDay makes sure the bucket exists and writes the day's folder
// marker. Safe to call repeatedly.
func (e *Extractor) EnsureDay(ctx context.Context, prefix string) error {
	exists, err := e.gw.BucketExists(ctx, e.bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := e.gw.MakeBucket(ctx, e.bucket); err != nil {
			return err
		}
		e.logger.Info("created bucket", "bucket", e.bucket)
	}

	if _, err := e.gw.PutObject(ctx, e.bucket, prefix+"/", nil); err != nil {
		return fmt.Errorf("create day folder: %w", err)
	}
	return nil
}

// ExtractMostActive fetches the ranked movers list, persists it under
// the singleton key, and returns the top-N rank-ordered symbols for the
// downstream stages.
func (e *Extractor) ExtractMostActive(ctx context.Context, prefix string) ([]string, error) {
	e.logger.Info("extracting most active stocks", "prefix", prefix)

	movers, err := e.client.MostActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("most-active stage: %w", err)
	}

	info, err := e.gw.PutObject(ctx, e.bucket, MostActiveKey(prefix), movers.Raw)
	if err != nil {
		return nil, fmt.Errorf("most-active stage: %w", err)
	}
	e.logger.Info("stored ranked list", "bucket", info.Bucket, "key", info.Key)

	symbols := movers.Tickers
	if len(symbols) > e.topN {
		symbols = symbols[:e.topN]
	}
	return symbols, nil
}

// ExtractPrices fetches the daily price series for each ranked symbol.
func (e *Extractor) ExtractPrices(ctx context.Context, prefix string, symbols []string) error {
	return e.perSymbol(ctx, "price", symbols, func(ctx context.Context, idx int, symbol string) (string, json.RawMessage, error) {
		data, err := e.client.DailySeries(ctx, symbol)
		return PriceKey(prefix, idx, symbol), data, err
	})
}

// ExtractNews fetches news sentiment for each ranked symbol.
func (e *Extractor) ExtractNews(ctx context.Context, prefix string, symbols []string) error {
	return e.perSymbol(ctx, "news", symbols, func(ctx context.Context, idx int, symbol string) (string, json.RawMessage, error) {
		data, err := e.client.NewsSentiment(ctx, symbol)
		return NewsKey(prefix, idx, symbol), data, err
	})
}

// ExtractBizInfo fetches the company overview for each ranked symbol.
func (e *Extractor) ExtractBizInfo(ctx context.Context, prefix string, symbols []string) error {
	return e.perSymbol(ctx, "business-info", symbols, func(ctx context.Context, idx int, symbol string) (string, json.RawMessage, error) {
		data, err := e.client.Overview(ctx, symbol)
		return BizInfoKey(prefix, idx, symbol), data, err
	})
}

// perSymbol runs one fetch-and-store call per ranked symbol, strictly
// sequentially, pacing between calls.
func (e *Extractor) perSymbol(
	ctx context.Context,
	stage string,
	symbols []string,
	fetch func(ctx context.Context, idx int, symbol string) (string, json.RawMessage, error),
) error {
	if len(symbols) == 0 {
		return fmt.Errorf("%s stage: %w", stage, ErrMissingSymbols)
	}

	e.pacer.Reset()
	for idx, symbol := range symbols {
		if err := e.pacer.Wait(ctx); err != nil {
			return err
		}

		key, data, err := fetch(ctx, idx, symbol)
		if err != nil {
			return fmt.Errorf("%s stage, symbol %s: %w", stage, symbol, err)
		}

		info, err := e.gw.PutObject(ctx, e.bucket, key, data)
		if err != nil {
			return fmt.Errorf("%s stage, symbol %s: %w", stage, symbol, err)
		}
		e.logger.Info("stored artifact",
			"stage", stage,
			"symbol", symbol,
			"rank", idx,
			"key", info.Key,
		)
	}
	return nil
}

// StoredTopSymbols recovers the rank-ordered top-N symbol list from the
// persisted ranked-list artifact. Used when a resumed run skips the
// most-active stage but still needs to feed the per-symbol stages.
func (e *Extractor) StoredTopSymbols(ctx context.Context, prefix string) ([]string, error) {
	data, err := storage.ReadObject(ctx, e.gw, e.bucket, MostActiveKey(prefix))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s missing", ErrMissingSymbols, MostActiveKey(prefix))
		}
		return nil, fmt.Errorf("read ranked list: %w", err)
	}

	var ranked []api.RankedStock
	if err := json.Unmarshal(data, &ranked); err != nil {
		return nil, fmt.Errorf("parse ranked list: %w", err)
	}

	symbols := make([]string, 0, e.topN)
	for _, s := range ranked {
		if len(symbols) == e.topN {
			break
		}
		symbols = append(symbols, s.Ticker)
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("%w: ranked list empty", ErrMissingSymbols)
	}
	return symbols, nil
}
