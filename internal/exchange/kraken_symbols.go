package exchange

import (
	"regexp"
	"strings"

	"cryptuff/internal/model"
)

// Kraken accepts the common asset codes in requests but answers with its own
// (XXBT, ZUSD...). These helpers convert between the two.

var prefixedAsset = regexp.MustCompile(`^[XZ][A-Z]{3}$`)

// ToKrakenAsset converts a common asset code to Kraken's request notation.
func ToKrakenAsset(asset string) string {
	switch asset {
	case "DOGE":
		return "XDG"
	case "BTC":
		return "XBT"
	}
	return asset
}

// ToCommonAsset converts a Kraken asset code to the common notation.
func ToCommonAsset(asset string) string {
	switch asset {
	case "XXDG", "XDG":
		return "DOGE"
	case "XXBT", "XBT":
		return "BTC"
	}
	if prefixedAsset.MatchString(asset) {
		return asset[1:]
	}
	return asset
}

// ToKrakenPair converts "BTC/USD" to "XBT/USD".
func ToKrakenPair(symbol string) string {
	token, quote, ok := strings.Cut(symbol, "/")
	if !ok {
		return symbol
	}
	return ToKrakenAsset(token) + "/" + ToKrakenAsset(quote)
}

// krakenInstrument builds the instrument for a subscribed symbol, keeping
// the exchange-native symbol and normalizing token and quote.
func krakenInstrument(symbol string) model.Instrument {
	inst := model.ParseInstrument(symbol)
	if inst.Token != "" {
		inst.Token = ToCommonAsset(inst.Token)
		inst.Quote = ToCommonAsset(inst.Quote)
	}
	return inst
}
