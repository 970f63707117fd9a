package pipeline

import (
	"fmt"
	"time"
)

// Object key layout, bucket-relative:
//
//	{date}/most_active_stocks.json
//	{date}/price/{idx}_{SYMBOL}_stocks_price.json
//	{date}/news/{idx}_{SYMBOL}_stocks_news.json
//	{date}/business_info/{idx}_{SYMBOL}_stocks_business_info.json
//
// idx is the rank among the top symbols; the aggregator's column mapping
// depends on it.
const (
	dateLayout     = "2006-01-02"
	artifactSuffix = ".json"

	mostActiveBase = "most_active_stocks.json"
)

// DayPrefix formats a run day as its object-key prefix segment.
func DayPrefix(day time.Time) string {
	return day.Format(dateLayout)
}

// MostActiveKey returns the singleton ranked-list key for a day prefix.
func MostActiveKey(prefix string) string {
	return prefix + "/" + mostActiveBase
}

// PriceKey returns the price artifact key for one ranked symbol.
func PriceKey(prefix string, idx int, symbol string) string {
	return fmt.Sprintf("%s/price/%d_%s_stocks_price.json", prefix, idx, symbol)
}

// NewsKey returns the news artifact key for one ranked symbol.
func NewsKey(prefix string, idx int, symbol string) string {
	return fmt.Sprintf("%s/news/%d_%s_stocks_news.json", prefix, idx, symbol)
}

// BizInfoKey returns the business-info artifact key for one ranked symbol.
func BizInfoKey(prefix string, idx int, symbol string) string {
	return fmt.Sprintf("%s/business_info/%d_%s_stocks_business_info.json", prefix, idx, symbol)
}
