package loader

// LookupTableName is the per-symbol business-info lookup table.
const LookupTableName = "biz_info_lookup"

// lookupColumns is the fixed schema of the lookup table, mirroring the
// upstream company-overview payload. Symbol is the primary key; every
// other column is TEXT.
var lookupColumns = []string{
	"Symbol",
	"AssetType",
	"Name",
	"Description",
	"CIK",
	"Exchange",
	"Currency",
	"Country",
	"Sector",
	"Industry",
	"Address",
	"OfficialSite",
	"FiscalYearEnd",
	"LatestQuarter",
	"MarketCapitalization",
	"EBITDA",
	"PERatio",
	"PEGRatio",
	"BookValue",
	"DividendPerShare",
	"DividendYield",
	"EPS",
	"RevenuePerShareTTM",
	"ProfitMargin",
	"OperatingMarginTTM",
	"ReturnOnAssetsTTM",
	"ReturnOnEquityTTM",
	"RevenueTTM",
	"GrossProfitTTM",
	"DilutedEPSTTM",
	"QuarterlyEarningsGrowthYOY",
	"QuarterlyRevenueGrowthYOY",
	"AnalystTargetPrice",
	"AnalystRatingStrongBuy",
	"AnalystRatingBuy",
	"AnalystRatingHold",
	"AnalystRatingSell",
	"AnalystRatingStrongSell",
	"TrailingPE",
	"ForwardPE",
	"PriceToSalesRatioTTM",
	"PriceToBookRatio",
	"EVToRevenue",
	"EVToEBITDA",
	"Beta",
	"52WeekHigh",
	"52WeekLow",
	"50DayMovingAverage",
	"200DayMovingAverage",
	"SharesOutstanding",
	"SharesFloat",
	"PercentInsiders",
	"PercentInstitutions",
	"DividendDate",
	"ExDividendDate",
}
