package feed

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"cryptuff/internal/config"
	"cryptuff/internal/database"
	"cryptuff/internal/exchange"
	"cryptuff/internal/model"
)

const unsubscribeTimeout = 5 * time.Second

// event carries one callback from the client's read loop to the recorder.
type event struct {
	symbol   string
	snapshot *model.OrderBookSnapshot
	delta    *model.OrderBookDeltaSet
	trades   []model.MarketTrade
}

// Recorder subscribes to the configured pairs and persists what it sees:
// every trade, and the top of book whenever it changes.
type Recorder struct {
	logger    *slog.Logger
	repo      database.Repository
	client    exchange.StreamingClient
	cfg       config.FeedConfig
	sessionID uuid.UUID

	events  chan event
	dropped atomic.Int64

	books       map[string]*Book
	latestTicks map[string]model.PriceTick
}

// NewRecorder creates a new Recorder with a fresh session id. A nil logger
// falls back to slog.Default.
func NewRecorder(logger *slog.Logger, repo database.Repository, client exchange.StreamingClient, cfg config.FeedConfig) *Recorder {
	if logger == nil {
		logger = slog.Default()
	}
	size := cfg.BufferSize
	if size <= 0 {
		size = 1024
	}
	return &Recorder{
		logger:      logger.With("component", "recorder"),
		repo:        repo,
		client:      client,
		cfg:         cfg,
		sessionID:   uuid.New(),
		events:      make(chan event, size),
		books:       make(map[string]*Book),
		latestTicks: make(map[string]model.PriceTick),
	}
}

// SessionID identifies the rows written by this recorder.
func (r *Recorder) SessionID() uuid.UUID {
	return r.sessionID
}

// Dropped returns the number of events discarded because the buffer was full.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

// Run subscribes to every configured feed and records until ctx is done, then
// unsubscribes. It fails only if no subscription could be made.
func (r *Recorder) Run(ctx context.Context) error {
	subscribed := r.subscribe(ctx)
	if subscribed == 0 {
		return errors.New("no feeds subscribed")
	}
	r.logger.Info("recording", "session", r.sessionID, "feeds", subscribed)

	for {
		select {
		case <-ctx.Done():
			r.unsubscribe()
			return nil
		case ev := <-r.events:
			r.handle(ctx, ev)
		}
	}
}

func (r *Recorder) subscribe(ctx context.Context) int {
	subscribed := 0
	for _, pair := range r.cfg.Pairs {
		symbol := pair
		if r.cfg.OrderBook {
			channelID, err := r.client.SubscribeToOrderBook(ctx, symbol,
				func(snap model.OrderBookSnapshot) { r.enqueue(event{symbol: symbol, snapshot: &snap}) },
				func(delta model.OrderBookDeltaSet) { r.enqueue(event{symbol: symbol, delta: &delta}) },
			)
			if err != nil {
				r.logger.Error("Failed to subscribe to order book", "pair", symbol, "error", err)
			} else {
				r.logger.Info("subscribed", "pair", symbol, "feed", exchange.FeedBook, "channel", channelID)
				subscribed++
			}
		}
		if r.cfg.Trades {
			channelID, err := r.client.SubscribeToTrades(ctx, symbol,
				func(trades []model.MarketTrade) { r.enqueue(event{symbol: symbol, trades: trades}) },
			)
			if err != nil {
				r.logger.Error("Failed to subscribe to trades", "pair", symbol, "error", err)
			} else {
				r.logger.Info("subscribed", "pair", symbol, "feed", exchange.FeedTrade, "channel", channelID)
				subscribed++
			}
		}
	}
	return subscribed
}

func (r *Recorder) unsubscribe() {
	ctx, cancel := context.WithTimeout(context.Background(), unsubscribeTimeout)
	defer cancel()

	for _, symbol := range r.cfg.Pairs {
		if r.cfg.OrderBook {
			ok, err := r.client.UnsubscribeOrderBook(ctx, symbol)
			r.logUnsubscribe(symbol, exchange.FeedBook, ok, err)
		}
		if r.cfg.Trades {
			ok, err := r.client.UnsubscribeTrades(ctx, symbol)
			r.logUnsubscribe(symbol, exchange.FeedTrade, ok, err)
		}
	}
}

func (r *Recorder) logUnsubscribe(symbol string, feed exchange.FeedType, ok bool, err error) {
	switch {
	case err != nil:
		r.logger.Warn("Failed to unsubscribe", "pair", symbol, "feed", feed, "error", err)
	case !ok:
		r.logger.Warn("Unsubscribe not confirmed", "pair", symbol, "feed", feed)
	default:
		r.logger.Info("unsubscribed", "pair", symbol, "feed", feed)
	}
}

// enqueue runs on the client's read loop and must not block it.
func (r *Recorder) enqueue(ev event) {
	select {
	case r.events <- ev:
	default:
		n := r.dropped.Add(1)
		r.logger.Warn("Event buffer full, dropping update", "pair", ev.symbol, "dropped", n)
	}
}

func (r *Recorder) handle(ctx context.Context, ev event) {
	switch {
	case ev.snapshot != nil:
		r.book(ev.symbol).ApplySnapshot(*ev.snapshot)
		r.checkTop(ctx, ev.symbol)
	case ev.delta != nil:
		r.book(ev.symbol).ApplyDelta(*ev.delta)
		r.checkTop(ctx, ev.symbol)
	default:
		for _, trade := range ev.trades {
			if err := r.repo.LogTrade(ctx, r.sessionID, trade); err != nil {
				r.logger.Error("Failed to log trade", "pair", ev.symbol, "error", err)
			}
		}
	}
}

func (r *Recorder) book(symbol string) *Book {
	b, ok := r.books[symbol]
	if !ok {
		b = NewBook()
		r.books[symbol] = b
	}
	return b
}

// checkTop records the top of book when best bid or best ask moved.
func (r *Recorder) checkTop(ctx context.Context, symbol string) {
	tick, ok := r.books[symbol].Top()
	if !ok {
		return
	}
	if last, seen := r.latestTicks[symbol]; seen && last.Bid == tick.Bid && last.Ask == tick.Ask {
		return
	}
	r.latestTicks[symbol] = tick

	if tick.Bid >= tick.Ask {
		r.logger.Warn("crossed book", "pair", symbol, "bid", tick.Bid, "ask", tick.Ask)
	}
	if err := r.repo.LogPriceTick(ctx, r.sessionID, tick); err != nil {
		r.logger.Error("Failed to log price tick", "pair", symbol, "error", err)
	}
}
