package exchange

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"cryptuff/internal/config"
	"cryptuff/internal/metrics"
	"cryptuff/internal/model"
)

const (
	ProductionEndpoint = "wss://ws.kraken.com"
	SandboxEndpoint    = "wss://ws-sandbox.kraken.com"
)

type pendingRequest struct {
	event   string
	sentAt  time.Time
	replies chan Reply
	// onReply runs on the read loop before the reply is handed to the caller,
	// so registry changes are visible before the next frame is routed.
	onReply func(Reply)
}

type channelSubscription struct {
	channelID int64
	symbol    string
	spec      subscriptionSpec
	handle    func(dataFrame) error
}

// KrakenClient implements the StreamingClient interface for Kraken.
//
// All subscriber callbacks run on the connection's read goroutine. They must
// not block and must not call back into the client synchronously.
type KrakenClient struct {
	logger   *slog.Logger
	cfg      config.KrakenConfig
	endpoint string
	dialer   *websocket.Dialer
	limiter  *rate.Limiter
	metrics  *metrics.Metrics

	mu              sync.Mutex
	conn            *websocket.Conn
	status          ConnectionStatus
	connectDone     chan struct{}
	readDone        chan struct{}
	keepAliveStop   chan struct{}
	reconnectCancel context.CancelFunc
	// subscriptions cleared by a connection loss and not yet restored
	restore []*channelSubscription

	writeMu sync.Mutex

	// never reset, including across reconnects
	nextReqID atomic.Int64

	pendingMu sync.Mutex
	pending   map[int64]*pendingRequest

	subsMu sync.RWMutex
	subs   map[int64]*channelSubscription

	lastHeartbeat atomic.Int64
}

// NewKrakenClient creates a new KrakenClient. Zero durations in cfg fall back
// to the defaults; m may be nil.
func NewKrakenClient(logger *slog.Logger, cfg config.KrakenConfig, m *metrics.Metrics) *KrakenClient {
	if logger == nil {
		logger = slog.Default()
	}
	def := config.DefaultKrakenConfig()
	if cfg.KeepAliveInterval <= 0 {
		cfg.KeepAliveInterval = def.KeepAliveInterval
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = def.RequestTimeout
	}
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = def.HandshakeTimeout
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = def.WriteTimeout
	}
	if cfg.ReconnectBaseWait <= 0 {
		cfg.ReconnectBaseWait = def.ReconnectBaseWait
	}
	if cfg.ReconnectMaxWait < cfg.ReconnectBaseWait {
		cfg.ReconnectMaxWait = cfg.ReconnectBaseWait
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = ProductionEndpoint
		if cfg.Sandbox {
			endpoint = SandboxEndpoint
		}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	burst := cfg.RequestBurst
	if burst < 1 {
		burst = 1
	}

	return &KrakenClient{
		logger:   logger,
		cfg:      cfg,
		endpoint: endpoint,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: cfg.HandshakeTimeout,
		},
		limiter: rate.NewLimiter(limit, burst),
		metrics: m,
		pending: make(map[int64]*pendingRequest),
		subs:    make(map[int64]*channelSubscription),
	}
}

func (k *KrakenClient) GetName() string {
	return string(model.ExchangeKraken)
}

// Endpoint returns the URL the client dials.
func (k *KrakenClient) Endpoint() string {
	return k.endpoint
}

func (k *KrakenClient) ConnectionStatus() ConnectionStatus {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.status
}

// LastHeartbeat returns when the last heartbeat frame arrived.
func (k *KrakenClient) LastHeartbeat() time.Time {
	ns := k.lastHeartbeat.Load()
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}

// Connect opens the WebSocket. It returns immediately when already connected
// and waits for an in-flight attempt instead of dialing a second transport.
func (k *KrakenClient) Connect(ctx context.Context) error {
	for {
		k.mu.Lock()
		switch k.status {
		case StatusConnected:
			k.mu.Unlock()
			return nil
		case StatusConnecting, StatusClosing:
			wait := k.connectDone
			if k.status == StatusClosing {
				wait = k.readDone
			}
			k.mu.Unlock()
			select {
			case <-wait:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		done := make(chan struct{})
		k.status = StatusConnecting
		k.connectDone = done
		k.mu.Unlock()

		err := k.dial(ctx)
		close(done)
		return err
	}
}

func (k *KrakenClient) dial(ctx context.Context) error {
	k.logger.Info("KrakenClient: connecting to WebSocket", "url", k.endpoint)
	conn, _, err := k.dialer.DialContext(ctx, k.endpoint, nil)
	if err != nil {
		k.mu.Lock()
		k.status = StatusClosed
		k.mu.Unlock()
		k.logger.Error("KrakenClient: WebSocket connection failed", "error", err)
		return &ConnectionError{Op: "dial", Err: err}
	}
	return k.attach(ctx, conn)
}

// attach makes conn the live transport. A ctx cancelled while dialing, such
// as a reconnect stopped by Disconnect, closes conn instead.
func (k *KrakenClient) attach(ctx context.Context, conn *websocket.Conn) error {
	k.mu.Lock()
	if err := ctx.Err(); err != nil {
		k.status = StatusClosed
		k.mu.Unlock()
		conn.Close()
		k.logger.Info("KrakenClient: connection abandoned", "error", err)
		return &ConnectionError{Op: "dial", Err: err}
	}
	readDone := make(chan struct{})
	k.conn = conn
	k.status = StatusConnected
	k.readDone = readDone
	// started before the read loop so a teardown always finds it
	k.startKeepAliveLocked()
	k.mu.Unlock()

	k.lastHeartbeat.Store(time.Now().UnixNano())
	k.metrics.SetConnected(true)

	go k.readLoop(conn, readDone)

	k.logger.Info("KrakenClient: connected successfully")
	return nil
}

// Disconnect closes the transport and waits for teardown to finish. It also
// cancels a running reconnect loop. No reconnection follows a Disconnect.
func (k *KrakenClient) Disconnect() error {
	k.mu.Lock()
	if k.reconnectCancel != nil {
		k.reconnectCancel()
		k.reconnectCancel = nil
	}
	k.restore = nil
	if k.status != StatusConnected || k.conn == nil {
		st := k.status
		k.mu.Unlock()
		return fmt.Errorf("disconnect while %s: %w", st, ErrNotConnected)
	}
	conn := k.conn
	done := k.readDone
	k.status = StatusClosing
	k.stopKeepAliveLocked()
	k.mu.Unlock()

	k.logger.Info("KrakenClient: closing connection")
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second)); err != nil {
		k.logger.Debug("KrakenClient: failed to send close frame", "error", err)
	}
	conn.Close()
	<-done
	return nil
}

func (k *KrakenClient) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer close(done)
	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			k.teardown(conn, err)
			return
		}
		k.handleFrame(message)
	}
}

func (k *KrakenClient) handleFrame(message []byte) {
	frame, err := decodeFrame(message)
	if err != nil {
		k.metrics.FrameMalformed()
		k.logger.Warn("KrakenClient: failed to parse message", "error", err)
		return
	}
	k.metrics.Frame(frame.kind.String())

	switch frame.kind {
	case frameHeartbeat:
		k.lastHeartbeat.Store(time.Now().UnixNano())
	case frameReply:
		k.resolve(frame.reply)
	case frameEvent:
		k.logger.Debug("KrakenClient: event received", "event", frame.event)
	case frameData:
		k.route(frame.data)
	}
}

// teardown runs on the read goroutine once the transport is gone.
func (k *KrakenClient) teardown(conn *websocket.Conn, cause error) {
	k.mu.Lock()
	if k.conn != conn {
		k.mu.Unlock()
		return
	}
	manual := k.status == StatusClosing
	k.conn = nil
	k.status = StatusClosed
	k.stopKeepAliveLocked()
	k.mu.Unlock()

	conn.Close()
	k.metrics.SetConnected(false)
	dropped := k.clearSubscriptions()
	reconnect := !manual && k.cfg.Reconnect
	if reconnect {
		// must be queued before failPending wakes a running replay
		k.mu.Lock()
		k.restore = append(k.restore, dropped...)
		k.mu.Unlock()
	}
	k.failPending()

	if manual {
		k.logger.Info("KrakenClient: connection closed")
		return
	}
	k.logger.Error("KrakenClient: connection lost", "error", cause, "subscriptions", len(dropped))
	if reconnect {
		k.startReconnect()
	}
}

// startReconnect starts the reconnect loop unless one is already running, in
// which case that loop picks up the queued subscriptions.
func (k *KrakenClient) startReconnect() {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.reconnectCancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	k.reconnectCancel = cancel

	go k.reconnectLoop(ctx, cancel)
}

// reconnectLoop runs until the client is connected with every queued
// subscription restored, or until Disconnect cancels ctx.
func (k *KrakenClient) reconnectLoop(ctx context.Context, cancel context.CancelFunc) {
	defer cancel()

	backoff := k.cfg.ReconnectBaseWait
	for {
		k.logger.Info("KrakenClient: reconnecting", "backoff", backoff)
		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		if err := k.Connect(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			k.logger.Error("KrakenClient: reconnection failed", "error", err)
			backoff *= 2
			if backoff > k.cfg.ReconnectMaxWait {
				backoff = k.cfg.ReconnectMaxWait
			}
			continue
		}
		backoff = k.cfg.ReconnectBaseWait

		k.mu.Lock()
		subs := k.restore
		k.restore = nil
		k.mu.Unlock()

		k.metrics.Reconnected()
		k.logger.Info("KrakenClient: reconnected", "subscriptions", len(subs))
		remaining := k.replay(ctx, subs)

		k.mu.Lock()
		if ctx.Err() != nil {
			k.mu.Unlock()
			return
		}
		// a teardown during replay queued its channels here instead of
		// starting a second loop
		k.restore = append(k.restore, remaining...)
		if len(k.restore) == 0 && k.status == StatusConnected {
			k.reconnectCancel = nil
			k.mu.Unlock()
			return
		}
		k.mu.Unlock()
	}
}

// replay restores subs in order. If the transport goes away part way it
// returns the subscriptions that still need restoring.
func (k *KrakenClient) replay(ctx context.Context, subs []*channelSubscription) []*channelSubscription {
	for i, sub := range subs {
		if ctx.Err() != nil {
			return nil
		}
		id, err := k.subscribe(ctx, sub.symbol, sub.spec, sub.handle)
		if err != nil {
			if transportLost(err) {
				k.logger.Warn("KrakenClient: connection lost while restoring subscriptions", "pending", len(subs)-i)
				return subs[i:]
			}
			k.logger.Error("KrakenClient: failed to restore subscription",
				"symbol", sub.symbol,
				"feed", sub.spec.Name,
				"error", err,
			)
			continue
		}
		k.logger.Info("KrakenClient: subscription restored",
			"symbol", sub.symbol,
			"feed", sub.spec.Name,
			"oldChannelID", sub.channelID,
			"channelID", id,
		)
	}
	return nil
}

func transportLost(err error) bool {
	var connErr *ConnectionError
	return errors.Is(err, ErrNotConnected) || errors.Is(err, ErrConnectionClosed) || errors.As(err, &connErr)
}

func (k *KrakenClient) startKeepAliveLocked() {
	if k.keepAliveStop != nil {
		return
	}
	stop := make(chan struct{})
	k.keepAliveStop = stop

	go k.keepAliveLoop(stop)
}

// StopKeepAlive stops the keep-alive loop. Safe to call repeatedly.
func (k *KrakenClient) StopKeepAlive() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.stopKeepAliveLocked()
}

func (k *KrakenClient) stopKeepAliveLocked() {
	if k.keepAliveStop != nil {
		close(k.keepAliveStop)
		k.keepAliveStop = nil
	}
}

// keepAliveLoop pings on a fixed interval. Failures are logged and the loop
// keeps going; only stop ends it.
func (k *KrakenClient) keepAliveLoop(stop chan struct{}) {
	ticker := time.NewTicker(k.cfg.KeepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}

		if k.ConnectionStatus() != StatusConnected {
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), k.cfg.RequestTimeout)
		rtt, err := k.Ping(ctx)
		cancel()
		if err != nil {
			k.logger.Warn("KrakenClient: keep-alive ping failed", "error", err)
			continue
		}
		k.logger.Debug("KrakenClient: ponged", "latency", rtt)
	}
}

// Ping round-trips a ping through the correlator and returns the latency.
func (k *KrakenClient) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	reply, err := k.request(ctx, outboundRequest{Event: "ping"}, nil)
	if err != nil {
		return 0, err
	}
	if reply.Event != "pong" {
		return 0, &ProtocolError{Reason: fmt.Sprintf("expected pong, got %q", reply.Event), Frame: reply.Raw}
	}
	rtt := time.Since(start)
	k.metrics.Pong(rtt)
	return rtt, nil
}

// request sends req with a fresh reqid and waits for the matching reply,
// the request timeout, ctx, or connection loss, whichever comes first.
func (k *KrakenClient) request(ctx context.Context, req outboundRequest, onReply func(Reply)) (Reply, error) {
	k.mu.Lock()
	conn := k.conn
	connected := k.status == StatusConnected
	k.mu.Unlock()
	if !connected || conn == nil {
		return Reply{}, ErrNotConnected
	}

	if err := k.limiter.Wait(ctx); err != nil {
		return Reply{}, err
	}

	req.ReqID = k.nextReqID.Add(1)
	p := &pendingRequest{
		event:   req.Event,
		sentAt:  time.Now(),
		replies: make(chan Reply, 1),
		onReply: onReply,
	}
	k.pendingMu.Lock()
	k.pending[req.ReqID] = p
	k.pendingMu.Unlock()

	if err := k.write(conn, req); err != nil {
		k.dropPending(req.ReqID)
		return Reply{}, &ConnectionError{Op: "send", Err: err}
	}
	k.metrics.RequestSent(req.Event)

	timer := time.NewTimer(k.cfg.RequestTimeout)
	defer timer.Stop()

	select {
	case reply, ok := <-p.replies:
		return settle(reply, ok)
	case <-timer.C:
		if k.dropPending(req.ReqID) {
			k.metrics.RequestTimedOut(req.Event)
			return Reply{}, fmt.Errorf("%s reqid %d: %w", req.Event, req.ReqID, ErrRequestTimeout)
		}
	case <-ctx.Done():
		if k.dropPending(req.ReqID) {
			return Reply{}, ctx.Err()
		}
	}

	// The read loop took the entry first; its result is already on the way.
	reply, ok := <-p.replies
	return settle(reply, ok)
}

func settle(reply Reply, ok bool) (Reply, error) {
	if !ok {
		return Reply{}, ErrConnectionClosed
	}
	if reply.Status == "error" {
		return reply, &ReplyError{Reply: reply}
	}
	return reply, nil
}

func (k *KrakenClient) write(conn *websocket.Conn, v any) error {
	k.writeMu.Lock()
	defer k.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(k.cfg.WriteTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(v)
}

// dropPending removes a pending request and reports whether it was still there.
func (k *KrakenClient) dropPending(id int64) bool {
	k.pendingMu.Lock()
	defer k.pendingMu.Unlock()
	_, ok := k.pending[id]
	delete(k.pending, id)
	return ok
}

func (k *KrakenClient) resolve(reply Reply) {
	k.pendingMu.Lock()
	p, ok := k.pending[reply.ReqID]
	if ok {
		delete(k.pending, reply.ReqID)
	}
	k.pendingMu.Unlock()

	if !ok {
		k.orphanReply(reply)
		return
	}

	k.metrics.ReplyReceived(p.event, reply.Status, time.Since(p.sentAt))
	if p.onReply != nil {
		p.onReply(reply)
	}
	p.replies <- reply
}

// orphanReply handles a reply whose request was abandoned. A late subscribe
// confirmation is undone so the exchange does not keep a channel nobody reads.
func (k *KrakenClient) orphanReply(reply Reply) {
	k.logger.Debug("KrakenClient: reply without pending request", "reqid", reply.ReqID, "event", reply.Event)
	if reply.Status != "subscribed" || !reply.HasChannel() {
		return
	}
	go func(channelID int64) {
		ctx, cancel := context.WithTimeout(context.Background(), k.cfg.RequestTimeout)
		defer cancel()
		if _, err := k.UnsubscribeByChannel(ctx, channelID); err != nil {
			k.logger.Warn("KrakenClient: failed to release abandoned channel", "channelID", channelID, "error", err)
		}
	}(reply.ChannelID)
}

func (k *KrakenClient) failPending() {
	k.pendingMu.Lock()
	defer k.pendingMu.Unlock()
	for id, p := range k.pending {
		close(p.replies)
		delete(k.pending, id)
	}
}

func (k *KrakenClient) route(df dataFrame) {
	k.subsMu.RLock()
	sub := k.subs[df.ChannelID]
	k.subsMu.RUnlock()

	if sub == nil {
		k.metrics.FrameUnrouted()
		k.logger.Debug("KrakenClient: no subscriber for channel", "channelID", df.ChannelID)
		return
	}
	if err := sub.handle(df); err != nil {
		k.metrics.FrameMalformed()
		k.logger.Warn("KrakenClient: failed to decode channel data",
			"channelID", df.ChannelID,
			"feed", sub.spec.Name,
			"error", err,
		)
	}
}

func (k *KrakenClient) addSubscription(sub *channelSubscription) {
	k.subsMu.Lock()
	k.subs[sub.channelID] = sub
	n := len(k.subs)
	k.subsMu.Unlock()
	k.metrics.SetSubscriptions(n)
}

func (k *KrakenClient) removeSubscription(channelID int64) {
	k.subsMu.Lock()
	delete(k.subs, channelID)
	n := len(k.subs)
	k.subsMu.Unlock()
	k.metrics.SetSubscriptions(n)
}

func (k *KrakenClient) findSubscription(symbol string, feed FeedType) (int64, bool) {
	k.subsMu.RLock()
	defer k.subsMu.RUnlock()
	for id, sub := range k.subs {
		if sub.symbol == symbol && sub.spec.Name == feed {
			return id, true
		}
	}
	return NoChannel, false
}

func (k *KrakenClient) clearSubscriptions() []*channelSubscription {
	k.subsMu.Lock()
	subs := make([]*channelSubscription, 0, len(k.subs))
	for _, sub := range k.subs {
		subs = append(subs, sub)
	}
	k.subs = make(map[int64]*channelSubscription)
	k.subsMu.Unlock()
	k.metrics.SetSubscriptions(0)

	sort.Slice(subs, func(i, j int) bool { return subs[i].channelID < subs[j].channelID })
	return subs
}

// ActiveChannels returns the registered channel ids in ascending order.
func (k *KrakenClient) ActiveChannels() []int64 {
	k.subsMu.RLock()
	ids := make([]int64, 0, len(k.subs))
	for id := range k.subs {
		ids = append(ids, id)
	}
	k.subsMu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (k *KrakenClient) subscribe(ctx context.Context, symbol string, spec subscriptionSpec, handle func(dataFrame) error) (int64, error) {
	req := outboundRequest{
		Event:        "subscribe",
		Pair:         []string{symbol},
		Subscription: &spec,
	}
	register := func(reply Reply) {
		if reply.Status == "error" || !reply.HasChannel() {
			return
		}
		k.addSubscription(&channelSubscription{
			channelID: reply.ChannelID,
			symbol:    symbol,
			spec:      spec,
			handle:    handle,
		})
	}

	reply, err := k.request(ctx, req, register)
	if err != nil {
		var replyErr *ReplyError
		if errors.As(err, &replyErr) {
			err = &SubscriptionError{Symbol: symbol, Feed: spec.Name, Err: err}
		}
		k.logger.Warn("KrakenClient: subscription failed", "symbol", symbol, "feed", spec.Name, "error", err)
		return NoChannel, err
	}
	if !reply.HasChannel() {
		err := &SubscriptionError{
			Symbol: symbol,
			Feed:   spec.Name,
			Err:    &ProtocolError{Reason: "subscribe confirmation without channelID", Frame: reply.Raw},
		}
		k.logger.Warn("KrakenClient: subscription failed", "symbol", symbol, "feed", spec.Name, "error", err)
		return NoChannel, err
	}

	k.logger.Info("KrakenClient: subscription confirmed",
		"symbol", symbol,
		"feed", spec.Name,
		"channelID", reply.ChannelID,
	)
	return reply.ChannelID, nil
}

func (k *KrakenClient) unsubscribe(ctx context.Context, req outboundRequest, symbol string, feed FeedType) (bool, error) {
	remove := func(reply Reply) {
		if reply.Status != "unsubscribed" {
			return
		}
		switch {
		case reply.HasChannel():
			k.removeSubscription(reply.ChannelID)
		case req.ChannelID != nil:
			k.removeSubscription(*req.ChannelID)
		default:
			if id, ok := k.findSubscription(symbol, feed); ok {
				k.removeSubscription(id)
			}
		}
	}

	reply, err := k.request(ctx, req, remove)
	if err != nil {
		var replyErr *ReplyError
		if errors.As(err, &replyErr) {
			err = &SubscriptionError{Symbol: symbol, Feed: feed, Err: err}
		}
		k.logger.Warn("KrakenClient: unsubscribe failed", "symbol", symbol, "feed", feed, "error", err)
		return false, err
	}
	if reply.Status != "unsubscribed" {
		k.logger.Warn("KrakenClient: unsubscribe not confirmed", "symbol", symbol, "feed", feed, "status", reply.Status)
		return false, nil
	}

	k.logger.Info("KrakenClient: unsubscribed", "symbol", symbol, "feed", feed, "channelID", reply.ChannelID)
	return true, nil
}

// UnsubscribeByChannel releases a channel by the id the exchange assigned.
func (k *KrakenClient) UnsubscribeByChannel(ctx context.Context, channelID int64) (bool, error) {
	var symbol string
	var feed FeedType
	k.subsMu.RLock()
	if sub, ok := k.subs[channelID]; ok {
		symbol, feed = sub.symbol, sub.spec.Name
	}
	k.subsMu.RUnlock()

	id := channelID
	return k.unsubscribe(ctx, outboundRequest{Event: "unsubscribe", ChannelID: &id}, symbol, feed)
}

// UnsubscribeByPayload releases the subscription for symbol and feed.
func (k *KrakenClient) UnsubscribeByPayload(ctx context.Context, symbol string, feed FeedType) (bool, error) {
	req := outboundRequest{
		Event:        "unsubscribe",
		Pair:         []string{symbol},
		Subscription: &subscriptionSpec{Name: feed},
	}
	return k.unsubscribe(ctx, req, symbol, feed)
}

// SubscribeToOrderBook subscribes to the book feed for symbol and returns the
// channel id, or NoChannel and an error.
func (k *KrakenClient) SubscribeToOrderBook(ctx context.Context, symbol string, onSnapshot func(model.OrderBookSnapshot), onDelta func(model.OrderBookDeltaSet)) (int64, error) {
	handle := func(df dataFrame) error {
		snapshot, delta, err := decodeBook(symbol, df, time.Now())
		if err != nil {
			return err
		}
		if snapshot != nil {
			if onSnapshot != nil {
				onSnapshot(*snapshot)
			}
			return nil
		}
		if onDelta != nil {
			onDelta(*delta)
		}
		return nil
	}
	return k.subscribe(ctx, symbol, subscriptionSpec{Name: FeedBook}, handle)
}

func (k *KrakenClient) UnsubscribeOrderBook(ctx context.Context, symbol string) (bool, error) {
	return k.UnsubscribeByPayload(ctx, symbol, FeedBook)
}

// SubscribeToTrades subscribes to the trade feed for symbol.
func (k *KrakenClient) SubscribeToTrades(ctx context.Context, symbol string, onTrades func([]model.MarketTrade)) (int64, error) {
	handle := func(df dataFrame) error {
		trades, err := decodeTrades(symbol, df)
		if err != nil {
			return err
		}
		if onTrades != nil {
			onTrades(trades)
		}
		return nil
	}
	return k.subscribe(ctx, symbol, subscriptionSpec{Name: FeedTrade}, handle)
}

func (k *KrakenClient) UnsubscribeTrades(ctx context.Context, symbol string) (bool, error) {
	return k.UnsubscribeByPayload(ctx, symbol, FeedTrade)
}
