package erc20

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"tokenPlotter/internal/model"
)

// Finding is a disagreement between the catalog and the chain.
type Finding struct {
	Symbol  string
	Address string
	Problem string
}

// VerifyCatalog checks every catalog entry against its on-chain metadata.
// Symbols are compared case-insensitively; decimals only when the catalog records them.
func VerifyCatalog(ctx context.Context, caller Caller, tokens map[string]model.TokenInfo, logger *zap.Logger) ([]Finding, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var findings []Finding
	for symbol, info := range tokens {
		if err := ctx.Err(); err != nil {
			return findings, err
		}
		if !common.IsHexAddress(info.Address) {
			findings = append(findings, Finding{Symbol: symbol, Address: info.Address, Problem: "invalid address"})
			continue
		}
		addr := common.HexToAddress(info.Address)

		meta, err := FetchMeta(ctx, caller, addr)
		if err != nil {
			logger.Warn("token metadata fetch failed", zap.String("symbol", symbol), zap.String("token", addr.Hex()), zap.Error(err))
			findings = append(findings, Finding{Symbol: symbol, Address: addr.Hex(), Problem: fmt.Sprintf("metadata unavailable: %v", err)})
			continue
		}

		if meta.Symbol != "" && !strings.EqualFold(meta.Symbol, symbol) {
			findings = append(findings, Finding{Symbol: symbol, Address: addr.Hex(), Problem: fmt.Sprintf("on-chain symbol is %q", meta.Symbol)})
		}
		if info.Decimals != nil && *info.Decimals != meta.Decimals {
			findings = append(findings, Finding{Symbol: symbol, Address: addr.Hex(), Problem: fmt.Sprintf("catalog decimals %d, on-chain %d", *info.Decimals, meta.Decimals)})
		}
		logger.Debug("token verified", zap.String("symbol", symbol), zap.String("on_chain_symbol", meta.Symbol), zap.Uint8("decimals", meta.Decimals))
	}
	return findings, nil
}
