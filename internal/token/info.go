package token

import (
	"github.com/pulsesignals/contract-relay/internal/dexscreener"
	"github.com/pulsesignals/contract-relay/internal/moralis"
)

// Info is the merged token record served from the enrichment cache. Fields
// stay as the providers reported them; absent data marshals away instead of
// zero-filling.
type Info struct {
	Address  string               `json:"address"`
	Pairs    []dexscreener.Pair   `json:"pairs"`
	BestPair *dexscreener.Pair    `json:"bestPair"`
	Profile  *dexscreener.Profile `json:"profile"`

	Name        string                    `json:"name,omitempty"`
	Symbol      string                    `json:"symbol,omitempty"`
	Icon        string                    `json:"icon,omitempty"`
	Description string                    `json:"description,omitempty"`
	Links       []dexscreener.ProfileLink `json:"links,omitempty"`

	Price          string   `json:"price,omitempty"`
	PriceChange24h *float64 `json:"priceChange24h,omitempty"`
	Volume24h      *float64 `json:"volume24h,omitempty"`
	Liquidity      *float64 `json:"liquidity,omitempty"`
	MarketCap      *float64 `json:"marketCap,omitempty"`
	DexID          string   `json:"dexId,omitempty"`
	ChainID        string   `json:"chainId,omitempty"`
	PairAddress    string   `json:"pairAddress,omitempty"`

	Moralis *SecondaryInfo `json:"moralis,omitempty"`
}

// SecondaryInfo is the sub-record contributed by the secondary metadata
// provider.
type SecondaryInfo struct {
	Mint          string `json:"mint,omitempty"`
	Name          string `json:"name,omitempty"`
	Symbol        string `json:"symbol,omitempty"`
	Logo          string `json:"logo,omitempty"`
	TokenStandard string `json:"tokenStandard,omitempty"`
}

// applyProfile copies the identity fields a profile record carries.
func (i *Info) applyProfile(p *dexscreener.Profile) {
	if p == nil {
		return
	}
	i.Profile = p
	i.Name = p.Name
	i.Symbol = p.Symbol
	i.Icon = p.Icon
	i.Description = p.Description
	i.Links = p.Links
}

// applyBestPair fills market fields from the main trading pair. Name and
// symbol only fall back to pair data when the profile had none. Market cap
// falls back to fully-diluted value.
func (i *Info) applyBestPair(p *dexscreener.Pair) {
	if p == nil {
		return
	}
	i.BestPair = p

	if i.Name == "" {
		i.Name = p.BaseToken.Name
	}
	if i.Symbol == "" {
		i.Symbol = p.BaseToken.Symbol
	}

	i.Price = p.PriceUsd
	if p.PriceChange != nil {
		i.PriceChange24h = p.PriceChange.H24
	}
	if p.Volume != nil {
		i.Volume24h = p.Volume.H24
	}
	if p.Liquidity != nil {
		i.Liquidity = p.Liquidity.USD
	}
	i.MarketCap = p.MarketCap
	if i.MarketCap == nil {
		i.MarketCap = p.FDV
	}
	i.DexID = p.DexID
	i.ChainID = p.ChainID
	i.PairAddress = p.PairAddress
}

// ApplyMetadata merges a secondary-provider record into the info. A logo
// overrides whatever icon the primary provider supplied. Also used by the
// deferred enrichment retry, which patches an already-cached entry.
func ApplyMetadata(info *Info, meta *moralis.TokenMetadata) {
	if meta == nil {
		return
	}
	info.Moralis = &SecondaryInfo{
		Mint:          meta.Mint,
		Name:          meta.Name,
		Symbol:        meta.Symbol,
		Logo:          meta.Logo,
		TokenStandard: meta.TokenStandard,
	}
	if meta.Logo != "" {
		info.Icon = meta.Logo
	}
}

// MintAddress returns the best-known on-chain mint for the token: the main
// pair's base token when present, since that one came from the indexer and
// is more likely canonical than whatever the caller passed.
func (i *Info) MintAddress() string {
	if i.BestPair != nil && i.BestPair.BaseToken.Address != "" {
		return i.BestPair.BaseToken.Address
	}
	return i.Address
}
