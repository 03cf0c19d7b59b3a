package model

// TokenInfo is a catalog entry locating a token's price series.
type TokenInfo struct {
	Address  string `json:"address"`
	Decimals *uint8 `json:"decimals,omitempty"`
	Name     string `json:"name,omitempty"`
}
