package domain

import "strings"

// Carrier identifies a Nigerian mobile network operator.
type Carrier string

const (
	CarrierMTN      Carrier = "mtn"
	CarrierGlo      Carrier = "glo"
	CarrierAirtel   Carrier = "airtel"
	CarrierEtisalat Carrier = "etisalat"
)

// ClubKonnect MobileNetwork codes per the aggregator API.
var carrierNetworkCodes = map[Carrier]string{
	CarrierMTN:      "01",
	CarrierGlo:      "02",
	CarrierEtisalat: "03",
	CarrierAirtel:   "04",
}

// NetworkCode returns the aggregator wire code for the carrier.
func (c Carrier) NetworkCode() (string, bool) {
	code, ok := carrierNetworkCodes[c]
	return code, ok
}

func (c Carrier) Valid() bool {
	_, ok := carrierNetworkCodes[c]
	return ok
}

var carrierPrefixes = map[string]Carrier{
	"0803": CarrierMTN, "0806": CarrierMTN, "0703": CarrierMTN, "0706": CarrierMTN,
	"0813": CarrierMTN, "0816": CarrierMTN, "0810": CarrierMTN, "0814": CarrierMTN,
	"0903": CarrierMTN, "0906": CarrierMTN, "0913": CarrierMTN, "0916": CarrierMTN,
	"0705": CarrierGlo, "0805": CarrierGlo, "0807": CarrierGlo, "0811": CarrierGlo,
	"0815": CarrierGlo, "0905": CarrierGlo, "0915": CarrierGlo,
	"0701": CarrierAirtel, "0708": CarrierAirtel, "0802": CarrierAirtel,
	"0808": CarrierAirtel, "0812": CarrierAirtel, "0901": CarrierAirtel,
	"0902": CarrierAirtel, "0904": CarrierAirtel, "0907": CarrierAirtel,
	"0912": CarrierAirtel,
	"0809": CarrierEtisalat, "0817": CarrierEtisalat, "0818": CarrierEtisalat,
	"0908": CarrierEtisalat, "0909": CarrierEtisalat,
}

// DetectCarrier matches the first four digits of a cleaned phone number
// against the static prefix table. Numbers shorter than four digits or with
// an unknown prefix report no match.
func DetectCarrier(phone string) (Carrier, bool) {
	digits := cleanDigits(phone)
	if len(digits) < 4 {
		return "", false
	}
	carrier, ok := carrierPrefixes[digits[:4]]
	return carrier, ok
}

// NormalizeMSISDN converts a phone number to international 234 format:
// whitespace stripped, leading "+" dropped, leading national "0" replaced
// with the country code. SMS delivery silently fails without this.
func NormalizeMSISDN(phone string) string {
	digits := cleanDigits(phone)
	if digits == "" {
		return ""
	}
	if strings.HasPrefix(digits, "0") {
		return "234" + digits[1:]
	}
	return digits
}

func cleanDigits(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
