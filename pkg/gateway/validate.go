package gateway

import (
	"strings"

	"github.com/shopspring/decimal"
)

// validateOrderSize checks that an order is positively sized and, when a
// price is known, that its notional stays under maxOrderSize. A zero price
// (market or trigger-driven leg) yields a zero notional and is exempt from
// the notional check. A maxOrderSize of zero or less disables the check.
func validateOrderSize(size, price, maxOrderSize decimal.Decimal) error {
	if size.Sign() <= 0 {
		return validationErrorf("order size must be positive")
	}
	if price.Sign() < 0 {
		return validationErrorf("order price cannot be negative")
	}
	notional := decimal.Zero
	if price.Sign() > 0 {
		notional = size.Mul(price).Abs()
	}
	if maxOrderSize.Sign() > 0 && notional.GreaterThan(maxOrderSize) {
		return validationErrorf(
			"order notional $%s exceeds limit $%s; adjust max_order_size to change",
			notional.StringFixed(2), maxOrderSize.StringFixed(2))
	}
	return nil
}

// validateCoinName checks that coin names a tradable asset in the current
// metadata. It never triggers a metadata fetch itself.
func validateCoinName(coin string, validCoins coinSet) error {
	if strings.TrimSpace(coin) == "" {
		return validationErrorf("coin name cannot be empty")
	}
	if _, ok := validCoins[coin]; !ok {
		return validationErrorf("unknown coin %q; use the meta query to list tradable coins", coin)
	}
	return nil
}

// validateAssetIndex checks that asset is a valid index into the current
// universe.
func validateAssetIndex(asset, universeSize int) error {
	if asset < 0 || asset >= universeSize {
		return validationErrorf("asset index %d out of range [0, %d]", asset, universeSize-1)
	}
	return nil
}
