package feed

import (
	"time"

	"cryptuff/internal/model"
)

// Book is a local order book for a single instrument, kept in sync from
// snapshots and deltas. It is not safe for concurrent use.
type Book struct {
	exchange    model.Exchange
	instrument  model.Instrument
	asks        map[float64]float64
	bids        map[float64]float64
	lastUpdated time.Time
}

// NewBook returns an empty book.
func NewBook() *Book {
	return &Book{
		asks: make(map[float64]float64),
		bids: make(map[float64]float64),
	}
}

// ApplySnapshot replaces both sides of the book.
func (b *Book) ApplySnapshot(snap model.OrderBookSnapshot) {
	b.exchange = snap.Exchange
	b.instrument = snap.Instrument
	b.asks = make(map[float64]float64, len(snap.Asks))
	b.bids = make(map[float64]float64, len(snap.Bids))
	for _, e := range snap.Asks {
		setLevel(b.asks, e)
	}
	for _, e := range snap.Bids {
		setLevel(b.bids, e)
	}
	b.lastUpdated = snap.LastUpdated
}

// ApplyDelta updates the levels named in the delta set. A zero volume
// removes the level.
func (b *Book) ApplyDelta(delta model.OrderBookDeltaSet) {
	if b.exchange == "" {
		b.exchange = delta.Exchange
		b.instrument = delta.Instrument
	}
	for _, d := range delta.Asks {
		setLevel(b.asks, d.OrderBookEntry)
	}
	for _, d := range delta.Bids {
		setLevel(b.bids, d.OrderBookEntry)
	}
	b.lastUpdated = delta.LastUpdated
}

func setLevel(side map[float64]float64, e model.OrderBookEntry) {
	if e.Volume == 0 {
		delete(side, e.Level)
		return
	}
	side[e.Level] = e.Volume
}

// Depth returns the number of ask and bid levels.
func (b *Book) Depth() (asks, bids int) {
	return len(b.asks), len(b.bids)
}

// Top returns the best bid and best ask. It reports false while either side
// is empty.
func (b *Book) Top() (model.PriceTick, bool) {
	if len(b.asks) == 0 || len(b.bids) == 0 {
		return model.PriceTick{}, false
	}

	var bestAsk, bestBid float64
	first := true
	for level := range b.asks {
		if first || level < bestAsk {
			bestAsk = level
			first = false
		}
	}
	first = true
	for level := range b.bids {
		if first || level > bestBid {
			bestBid = level
			first = false
		}
	}

	return model.PriceTick{
		Exchange:  string(b.exchange),
		Pair:      b.instrument.Pair(),
		Bid:       bestBid,
		Ask:       bestAsk,
		Timestamp: b.lastUpdated,
	}, true
}
