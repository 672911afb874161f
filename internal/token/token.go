// Package token
package token

import "strings"

// aliases maps common symbols and names to their canonical provider id
// and display symbol.
var aliases = map[string]struct {
	ID     string
	Symbol string
}{
	"btc":         {"bitcoin", "BTC"},
	"bitcoin":     {"bitcoin", "BTC"},
	"eth":         {"ethereum", "ETH"},
	"ethereum":    {"ethereum", "ETH"},
	"bnb":         {"binancecoin", "BNB"},
	"binancecoin": {"binancecoin", "BNB"},
	"sol":         {"solana", "SOL"},
	"solana":      {"solana", "SOL"},
	"ada":         {"cardano", "ADA"},
	"cardano":     {"cardano", "ADA"},
	"xrp":         {"ripple", "XRP"},
	"ripple":      {"ripple", "XRP"},
	"doge":        {"dogecoin", "DOGE"},
	"dogecoin":    {"dogecoin", "DOGE"},
	"trx":         {"tron", "TRX"},
	"tron":        {"tron", "TRX"},
	"matic":       {"polygon", "MATIC"},
	"polygon":     {"polygon", "MATIC"},
	"usdt":        {"tether", "USDT"},
	"tether":      {"tether", "USDT"},
	"usdc":        {"usd-coin", "USDC"},
	"usd-coin":    {"usd-coin", "USDC"},
	"avax":        {"avalanche-2", "AVAX"},
	"avalanche":   {"avalanche-2", "AVAX"},
	"dot":         {"polkadot", "DOT"},
	"polkadot":    {"polkadot", "DOT"},
	"link":        {"chainlink", "LINK"},
	"chainlink":   {"chainlink", "LINK"},
}

// Resolve normalizes a user-supplied token name or symbol into a
// canonical provider id and a display symbol. Unknown tokens pass
// through unchanged (lower-cased id, upper-cased symbol) and fail later
// at the provider boundary.
func Resolve(input string) (id, symbol string) {
	normalized := strings.ToLower(strings.TrimSpace(input))
	if alias, ok := aliases[normalized]; ok {
		return alias.ID, alias.Symbol
	}
	return normalized, strings.ToUpper(normalized)
}
