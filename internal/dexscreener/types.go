package dexscreener

// Pair is one trading pair as returned by the tokens endpoint. Prices stay
// in upstream units; no conversion happens on this side.
type Pair struct {
	ChainID     string       `json:"chainId"`
	DexID       string       `json:"dexId"`
	URL         string       `json:"url,omitempty"`
	PairAddress string       `json:"pairAddress"`
	BaseToken   Token        `json:"baseToken"`
	QuoteToken  Token        `json:"quoteToken"`
	PriceNative string       `json:"priceNative,omitempty"`
	PriceUsd    string       `json:"priceUsd"`
	Volume      *PeriodStats `json:"volume,omitempty"`
	PriceChange *PeriodStats `json:"priceChange,omitempty"`
	Liquidity   *Liquidity   `json:"liquidity,omitempty"`
	FDV         *float64     `json:"fdv,omitempty"`
	MarketCap   *float64     `json:"marketCap,omitempty"`
}

type Token struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Symbol  string `json:"symbol"`
}

// PeriodStats carries windowed values keyed by lookback period.
type PeriodStats struct {
	M5  *float64 `json:"m5,omitempty"`
	H1  *float64 `json:"h1,omitempty"`
	H6  *float64 `json:"h6,omitempty"`
	H24 *float64 `json:"h24,omitempty"`
}

type Liquidity struct {
	USD   *float64 `json:"usd,omitempty"`
	Base  *float64 `json:"base,omitempty"`
	Quote *float64 `json:"quote,omitempty"`
}

// Profile is one entry from the latest token-profiles index.
type Profile struct {
	URL          string        `json:"url,omitempty"`
	ChainID      string        `json:"chainId,omitempty"`
	TokenAddress string        `json:"tokenAddress"`
	Name         string        `json:"name,omitempty"`
	Symbol       string        `json:"symbol,omitempty"`
	Icon         string        `json:"icon,omitempty"`
	Description  string        `json:"description,omitempty"`
	Links        []ProfileLink `json:"links,omitempty"`
}

type ProfileLink struct {
	Label string `json:"label,omitempty"`
	Type  string `json:"type,omitempty"`
	URL   string `json:"url"`
}
