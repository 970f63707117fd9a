package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// RankedStock is one entry of the ranked movers list.
type RankedStock struct {
	Ticker string `json:"ticker"`
}

// TopMovers holds the ranked most-actively-traded list. Raw preserves
// the upstream list verbatim for persistence; Tickers is the rank-ordered
// symbol list extracted from it.
type TopMovers struct {
	Raw     json.RawMessage
	Tickers []string
}

// MostActive fetches the ranked most-actively-traded list.
func (c *Client) MostActive(ctx context.Context) (*TopMovers, error) {
	body, err := c.get(ctx, FuncTopMovers, nil)
	if err != nil {
		return nil, fmt.Errorf("get most active: %w", err)
	}

	var envelope struct {
		MostActivelyTraded json.RawMessage `json:"most_actively_traded"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("unmarshal most active response: %w", err)
	}
	if len(envelope.MostActivelyTraded) == 0 {
		return nil, fmt.Errorf("most active response missing most_actively_traded field")
	}

	var ranked []RankedStock
	if err := json.Unmarshal(envelope.MostActivelyTraded, &ranked); err != nil {
		return nil, fmt.Errorf("unmarshal ranked list: %w", err)
	}

	tickers := make([]string, 0, len(ranked))
	for _, s := range ranked {
		tickers = append(tickers, s.Ticker)
	}

	return &TopMovers{Raw: envelope.MostActivelyTraded, Tickers: tickers}, nil
}

// DailySeries fetches the daily price series for one symbol.
func (c *Client) DailySeries(ctx context.Context, symbol string) (json.RawMessage, error) {
	body, err := c.get(ctx, FuncDailySeries, url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, fmt.Errorf("get daily series %s: %w", symbol, err)
	}
	return body, nil
}

// NewsSentiment fetches news sentiment for one ticker.
func (c *Client) NewsSentiment(ctx context.Context, ticker string) (json.RawMessage, error) {
	body, err := c.get(ctx, FuncNewsSentiment, url.Values{"tickers": {ticker}})
	if err != nil {
		return nil, fmt.Errorf("get news sentiment %s: %w", ticker, err)
	}
	return body, nil
}

// Overview fetches the company overview for one symbol.
func (c *Client) Overview(ctx context.Context, symbol string) (json.RawMessage, error) {
	body, err := c.get(ctx, FuncOverview, url.Values{"symbol": {symbol}})
	if err != nil {
		return nil, fmt.Errorf("get overview %s: %w", symbol, err)
	}
	return body, nil
}
