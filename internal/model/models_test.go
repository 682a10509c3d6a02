package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseInstrument(t *testing.T) {
	assert.Equal(t, Instrument{Token: "XBT", Quote: "USD", Symbol: "XBT/USD"}, ParseInstrument("XBT/USD"))
	assert.Equal(t, Instrument{Symbol: "XBTUSD"}, ParseInstrument("XBTUSD"))
}

func TestInstrument_Pair(t *testing.T) {
	assert.Equal(t, "BTC/USD", Instrument{Token: "BTC", Quote: "USD", Symbol: "XBT/USD"}.Pair())
	assert.Equal(t, "XBTUSD", Instrument{Symbol: "XBTUSD"}.Pair())
	assert.Equal(t, "", Instrument{}.Pair())
}
