package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDetectCarrier(t *testing.T) {
	cases := []struct {
		name    string
		phone   string
		carrier Carrier
		ok      bool
	}{
		{name: "mtn_prefix", phone: "08031234567", carrier: CarrierMTN, ok: true},
		{name: "glo_prefix", phone: "08051234567", carrier: CarrierGlo, ok: true},
		{name: "airtel_prefix", phone: "09021234567", carrier: CarrierAirtel, ok: true},
		{name: "etisalat_prefix", phone: "08091234567", carrier: CarrierEtisalat, ok: true},
		{name: "formatted_input", phone: "0803 123 4567", carrier: CarrierMTN, ok: true},
		{name: "too_short", phone: "070", ok: false},
		{name: "unknown_prefix", phone: "00000000000", ok: false},
		{name: "empty", phone: "", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			carrier, ok := DetectCarrier(tc.phone)
			require.Equal(t, tc.ok, ok)
			if tc.ok {
				require.Equal(t, tc.carrier, carrier)
			}
		})
	}
}

func TestNormalizeMSISDN(t *testing.T) {
	require.Equal(t, "2348031234567", NormalizeMSISDN("08031234567"))
	require.Equal(t, "2348031234567", NormalizeMSISDN("+2348031234567"))
	require.Equal(t, "2348031234567", NormalizeMSISDN(" 0803 123 4567 "))
	require.Equal(t, "2348031234567", NormalizeMSISDN("2348031234567"))
	require.Equal(t, "", NormalizeMSISDN("  "))
}

func TestCarrierNetworkCode(t *testing.T) {
	code, ok := CarrierMTN.NetworkCode()
	require.True(t, ok)
	require.Equal(t, "01", code)

	_, ok = Carrier("9mobile").NetworkCode()
	require.False(t, ok)
}
