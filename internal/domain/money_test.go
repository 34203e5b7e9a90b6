package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestKoboNairaRoundTrip(t *testing.T) {
	k := KoboFromNaira(decimal.RequireFromString("1500.50"))
	require.Equal(t, Kobo(150050), k)
	require.Equal(t, "1500.5", k.Naira().String())
	require.Equal(t, "1500.50 NGN", k.String())
}

func TestKoboMultiplyRoundsDown(t *testing.T) {
	k := Kobo(1000).Multiply(decimal.RequireFromString("0.333"))
	require.Equal(t, Kobo(333), k)
}

func TestCryptoValueKobo(t *testing.T) {
	// 0.5 BTC at $60,000 with 1500 NGN/USD.
	got := CryptoValueKobo(
		decimal.RequireFromString("0.5"),
		decimal.NewFromInt(60000),
		decimal.NewFromInt(1500),
	)
	require.Equal(t, Kobo(4_500_000_000), got)
}
