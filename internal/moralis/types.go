package moralis

// TokenMetadata is the metadata record for a mint from the Solana gateway.
type TokenMetadata struct {
	Mint          string `json:"mint"`
	Standard      string `json:"standard,omitempty"`
	Name          string `json:"name"`
	Symbol        string `json:"symbol"`
	Logo          string `json:"logo,omitempty"`
	Decimals      string `json:"decimals,omitempty"`
	TokenStandard string `json:"tokenStandard,omitempty"`
}
