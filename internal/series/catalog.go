package series

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"tokenPlotter/internal/model"
)

// DefaultReferenceSymbol is the chain's native asset.
const DefaultReferenceSymbol = "ETH"

// Catalog maps token symbols to their catalog entries. It is read-only after construction.
type Catalog struct {
	reference string
	tokens    map[string]model.TokenInfo
	symbols   []string
}

// NewCatalog validates the entries and builds a Catalog.
func NewCatalog(tokens map[string]model.TokenInfo, reference string) (*Catalog, error) {
	if reference == "" {
		reference = DefaultReferenceSymbol
	}

	copied := make(map[string]model.TokenInfo, len(tokens))
	symbols := make([]string, 0, len(tokens))
	for symbol, info := range tokens {
		if symbol == "" {
			return nil, &model.DataFormatError{Resource: "catalog", Reason: "empty symbol"}
		}
		if symbol == reference {
			return nil, &model.DataFormatError{Resource: "catalog", Reason: fmt.Sprintf("symbol %s collides with the reference asset", symbol)}
		}
		if !common.IsHexAddress(info.Address) {
			return nil, &model.DataFormatError{Resource: "catalog", Reason: fmt.Sprintf("invalid address for %s: %q", symbol, info.Address)}
		}
		copied[symbol] = info
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	return &Catalog{reference: reference, tokens: copied, symbols: symbols}, nil
}

// Reference returns the reference asset symbol.
func (c *Catalog) Reference() string {
	return c.reference
}

// Lookup returns the catalog entry for a symbol.
func (c *Catalog) Lookup(symbol string) (model.TokenInfo, bool) {
	info, ok := c.tokens[symbol]
	return info, ok
}

// Has reports whether symbol is a catalog token or the reference asset.
func (c *Catalog) Has(symbol string) bool {
	if symbol == c.reference {
		return true
	}
	_, ok := c.tokens[symbol]
	return ok
}

// Symbols returns the catalog symbols in sorted order, excluding the reference asset.
func (c *Catalog) Symbols() []string {
	out := make([]string, len(c.symbols))
	copy(out, c.symbols)
	return out
}

// BaseOptions lists the selectable base symbols, reference asset first.
func (c *Catalog) BaseOptions() []string {
	return append([]string{c.reference}, c.symbols...)
}

// QuoteOptions lists the selectable quote symbols, reference asset last.
func (c *Catalog) QuoteOptions() []string {
	return append(c.Symbols(), c.reference)
}

// ResourceKey returns the lower-cased address that names a token's series resource.
func ResourceKey(info model.TokenInfo) string {
	return strings.ToLower(info.Address)
}
