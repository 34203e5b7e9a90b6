package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Kobo is an NGN amount in minor units (10^-2 naira), stored as BIGINT to
// avoid floating point errors.
type Kobo int64

// KoboFromNaira converts a naira decimal into kobo, rounding down.
func KoboFromNaira(naira decimal.Decimal) Kobo {
	return Kobo(naira.Mul(decimal.NewFromInt(100)).IntPart())
}

// Naira returns the decimal naira value of the amount.
func (k Kobo) Naira() decimal.Decimal {
	return decimal.NewFromInt(int64(k)).Div(decimal.NewFromInt(100))
}

// Multiply scales the amount by a factor (e.g. a crypto rate) with decimal
// precision, rounding down.
func (k Kobo) Multiply(factor decimal.Decimal) Kobo {
	return KoboFromNaira(k.Naira().Mul(factor))
}

// NairaUnits returns the whole-naira value, truncating kobo. Aggregator
// purchase APIs take naira integers.
func (k Kobo) NairaUnits() int64 {
	return int64(k) / 100
}

func (k Kobo) String() string {
	return fmt.Sprintf("%s %s", k.Naira().StringFixed(2), DefaultCurrency)
}

// CryptoValueKobo prices a crypto quantity into kobo given the asset's USD
// rate and the naira/USD rate.
func CryptoValueKobo(quantity, usdRate, ngnPerUSD decimal.Decimal) Kobo {
	return KoboFromNaira(quantity.Mul(usdRate).Mul(ngnPerUSD))
}
