// Package api provides the client for the upstream market-data API.
//
// The API is a single HTTP GET endpoint selected by a "function" query
// parameter (ranked movers, daily price series, news sentiment, company
// overview). Responses are JSON documents; the client returns them raw
// so extraction can persist exactly what the upstream produced.
package api
