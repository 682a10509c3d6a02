package exchange

import (
	"context"

	"cryptuff/internal/model"
)

// NoChannel is returned by the subscribe calls when no channel was assigned.
const NoChannel int64 = -1

// ConnectionStatus is the state of the underlying transport.
type ConnectionStatus int

const (
	StatusUnknown ConnectionStatus = iota
	StatusConnecting
	StatusConnected
	StatusClosing
	StatusClosed
)

func (s ConnectionStatus) String() string {
	switch s {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusClosing:
		return "closing"
	case StatusClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// FeedType names a subscription channel on the exchange.
type FeedType string

const (
	FeedTicker FeedType = "ticker"
	FeedOHLC   FeedType = "ohlc"
	FeedTrade  FeedType = "trade"
	FeedBook   FeedType = "book"
	FeedSpread FeedType = "spread"
	FeedAll    FeedType = "*"
)

// StreamingClient defines the standard interface for exchange streaming clients.
type StreamingClient interface {
	GetName() string
	Connect(ctx context.Context) error
	Disconnect() error
	ConnectionStatus() ConnectionStatus

	SubscribeToOrderBook(ctx context.Context, symbol string, onSnapshot func(model.OrderBookSnapshot), onDelta func(model.OrderBookDeltaSet)) (int64, error)
	UnsubscribeOrderBook(ctx context.Context, symbol string) (bool, error)
	SubscribeToTrades(ctx context.Context, symbol string, onTrades func([]model.MarketTrade)) (int64, error)
	UnsubscribeTrades(ctx context.Context, symbol string) (bool, error)
}
