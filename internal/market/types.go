package market

// Asset is the list form of a tracked asset. Missing numeric fields from the
// provider are normalized to 0; market cap and volume stay optional.
type Asset struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Symbol         string   `json:"symbol"`
	Image          string   `json:"image"`
	CurrentPrice   float64  `json:"current_price"`
	PriceChange24h float64  `json:"price_change_percentage_24h"`
	MarketCap      *float64 `json:"market_cap"`
	Volume24h      *float64 `json:"volume_24h"`
}

// AssetPage is one page of the market-cap-ordered listing. HasMore is
// derived, not provider-supplied: a full page means more may follow.
type AssetPage struct {
	Assets  []Asset `json:"assets"`
	Page    int     `json:"page"`
	PerPage int     `json:"per_page"`
	HasMore bool    `json:"has_more"`
}

// AssetDetail is the single-asset superset of Asset.
type AssetDetail struct {
	Asset
	Rank              *int     `json:"rank"`
	CirculatingSupply float64  `json:"circulating_supply"`
	TotalSupply       *float64 `json:"total_supply"`
	MaxSupply         *float64 `json:"max_supply"`
	PriceChange7d     float64  `json:"price_change_percentage_7d"`
	PriceChange30d    float64  `json:"price_change_percentage_30d"`
	High24h           float64  `json:"high_24h"`
	Low24h            float64  `json:"low_24h"`
	ATH               float64  `json:"ath"`
	ATHChangePct      float64  `json:"ath_change_percentage"`
	ATHDate           string   `json:"ath_date"`
	ATL               float64  `json:"atl"`
	ATLChangePct      float64  `json:"atl_change_percentage"`
	ATLDate           string   `json:"atl_date"`
	Description       string   `json:"description"`
	Homepage          *string  `json:"homepage"`
	Explorer          *string  `json:"explorer"`
	Categories        []string `json:"categories"`
}

// PricePoint is one daily sample of the history series. Timestamp is Unix
// milliseconds as delivered by the provider.
type PricePoint struct {
	Timestamp int64   `json:"timestamp"`
	Price     float64 `json:"price"`
}
