package model

import (
	"strings"
	"time"
)

// Exchange identifies the venue a record came from.
type Exchange string

const (
	ExchangeKraken Exchange = "kraken"
)

// Side is the taker side of a trade.
type Side string

const (
	SideBuy     Side = "buy"
	SideSell    Side = "sell"
	SideUnknown Side = ""
)

// Instrument is a tradable pair. Symbol is set only when it is not a straight
// combination of Token and Quote.
type Instrument struct {
	Token  string
	Quote  string
	Symbol string
}

// ParseInstrument splits a "TOKEN/QUOTE" symbol.
func ParseInstrument(symbol string) Instrument {
	token, quote, ok := strings.Cut(symbol, "/")
	if !ok {
		return Instrument{Symbol: symbol}
	}
	return Instrument{Token: token, Quote: quote, Symbol: symbol}
}

// Pair returns the instrument in "TOKEN/QUOTE" form.
func (i Instrument) Pair() string {
	if i.Token == "" || i.Quote == "" {
		return i.Symbol
	}
	return i.Token + "/" + i.Quote
}

// OrderBookEntry is a single price level.
type OrderBookEntry struct {
	Level  float64
	Volume float64
}

// OrderBookDelta is a price level update. A zero Volume removes the level.
type OrderBookDelta struct {
	OrderBookEntry
	Timestamp time.Time
}

// OrderBookSnapshot is a full view of both sides of a book.
type OrderBookSnapshot struct {
	Exchange    Exchange
	Instrument  Instrument
	Asks        []OrderBookEntry
	Bids        []OrderBookEntry
	LastUpdated time.Time
}

// OrderBookDeltaSet is an incremental update. Either side may be empty.
type OrderBookDeltaSet struct {
	Exchange    Exchange
	Instrument  Instrument
	Asks        []OrderBookDelta
	Bids        []OrderBookDelta
	LastUpdated time.Time
}

// MarketTrade is a public trade printed by an exchange.
type MarketTrade struct {
	Exchange   Exchange
	Instrument Instrument
	Price      float64
	Volume     float64
	Side       Side
	Timestamp  time.Time
}

// PriceTick represents the top of an order book at a point in time.
type PriceTick struct {
	Exchange  string
	Pair      string
	Bid       float64
	Ask       float64
	Timestamp time.Time
}
