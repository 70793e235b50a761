// Package deribit implements the venue.Venue session for the Deribit
// exchange: websocket connect, set_heartbeat negotiation, channel
// subscription, test-request answering, and frame demultiplexing into
// normalized records (spec §4.1-§4.3).
package deribit

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/sawpanic/mdcollector/internal/breaker"
	"github.com/sawpanic/mdcollector/internal/errs"
	"github.com/sawpanic/mdcollector/internal/venue"
)

const (
	defaultHeartbeatInterval = 10 * time.Second
	defaultDialTimeout       = 10 * time.Second
	apiRateLimit             = 20 // requests/sec on the api channel
)

// Session is a single Deribit websocket connection. The api and
// subscription channels described in spec §3 are two logical halves of the
// one underlying connection; outbound writes to either serialize through
// writeMu (the "writer-exclusion guard").
type Session struct {
	url    string
	logger zerolog.Logger

	writeMu sync.Mutex
	conn    *websocket.Conn

	symbolsMu sync.RWMutex
	symbols   map[string]struct{}

	pendingMu sync.Mutex
	pending   map[int64]chan wireMessage
	nextID    int64

	orderbookCh chan venue.Result
	tradesCh    chan venue.Result
	tickerCh    chan venue.Result

	// symbolUpdateInbox is a bounded, single-consumer inbox (spec §3's
	// symbol_update_inbox): drainSymbolUpdates is its only reader, and the
	// send half is handed out at most once by SymbolUpdateInbox.
	symbolUpdateInbox chan []string
	inboxConsumed     atomic.Bool

	done      chan struct{}
	closeOnce sync.Once

	limiter *rate.Limiter
	breaker *breaker.Breaker
}

// New builds a Session against the given websocket URL (mainnet or testnet
// per config) without connecting yet.
func New(url string, logger zerolog.Logger) *Session {
	return &Session{
		url:               url,
		logger:            logger.With().Str("venue", "deribit").Logger(),
		symbols:           make(map[string]struct{}),
		pending:           make(map[int64]chan wireMessage),
		symbolUpdateInbox: make(chan []string, 100),
		done:              make(chan struct{}),
		limiter:           rate.NewLimiter(rate.Limit(apiRateLimit), apiRateLimit),
		breaker:           breaker.New("deribit-reconnect"),
	}
}

func (s *Session) Name() string { return "deribit" }

// Connect opens the websocket, negotiates the heartbeat, and starts the
// demultiplexing read loop. Call once before any Connect* stream opener.
func (s *Session) Connect(ctx context.Context) error {
	result, err := s.breaker.Execute(func() (any, error) {
		dialCtx, cancel := context.WithTimeout(ctx, defaultDialTimeout)
		defer cancel()
		conn, _, dialErr := websocket.DefaultDialer.DialContext(dialCtx, s.url, nil)
		if dialErr != nil {
			return nil, dialErr
		}
		return conn, nil
	})
	if err != nil {
		return errs.Wrap(errs.ErrConnection, err)
	}
	s.conn = result.(*websocket.Conn)

	go s.readLoop()
	go s.drainSymbolUpdates()

	if err := s.setHeartbeat(ctx, defaultHeartbeatInterval); err != nil {
		return errs.Wrap(errs.ErrConnection, err)
	}
	s.logger.Info().Str("url", s.url).Msg("session connected")
	return nil
}

// Subscribe adds symbols to the subscription set. It does not by itself
// issue a websocket subscribe; ConnectOrderBook/ConnectTrades/ConnectTicker
// subscribe to the channels for the current set when first opened.
func (s *Session) Subscribe(symbols []string) {
	s.symbolsMu.Lock()
	defer s.symbolsMu.Unlock()
	for _, sym := range symbols {
		s.symbols[sym] = struct{}{}
	}
}

// Unsubscribe removes symbols from the subscription set.
func (s *Session) Unsubscribe(symbols []string) {
	s.symbolsMu.Lock()
	defer s.symbolsMu.Unlock()
	for _, sym := range symbols {
		delete(s.symbols, sym)
	}
}

// SymbolUpdateInbox returns the send half of the bounded symbol-update
// channel; the receive half stays with the session's drainSymbolUpdates
// goroutine. It may be called at most once; a second call panics.
func (s *Session) SymbolUpdateInbox() chan<- []string {
	if !s.inboxConsumed.CompareAndSwap(false, true) {
		panic("deribit: symbol update inbox already consumed")
	}
	return s.symbolUpdateInbox
}

// drainSymbolUpdates merges every batch received on the inbox into the
// subscribed set. No websocket action follows: this is the "record-only"
// behavior spec §9 says to preserve rather than guess at (dynamic
// subscribe/unsubscribe diffing is an open follow-up, not implemented here).
func (s *Session) drainSymbolUpdates() {
	for {
		select {
		case <-s.done:
			return
		case batch, ok := <-s.symbolUpdateInbox:
			if !ok {
				return
			}
			s.Subscribe(batch)
		}
	}
}

func (s *Session) currentSymbols() []string {
	s.symbolsMu.RLock()
	defer s.symbolsMu.RUnlock()
	out := make([]string, 0, len(s.symbols))
	for sym := range s.symbols {
		out = append(out, sym)
	}
	return out
}

// ConnectOrderBook subscribes the grouped-book channel for every currently
// subscribed symbol and returns the order book result stream.
func (s *Session) ConnectOrderBook(ctx context.Context) (<-chan venue.Result, error) {
	symbols := s.currentSymbols()
	if len(symbols) == 0 {
		return nil, errs.Wrap(errs.ErrConfig, fmt.Errorf("no subscribed symbols"))
	}
	channels := make([]string, len(symbols))
	for i, sym := range symbols {
		channels[i] = orderBookChannel(sym)
	}
	if err := s.subscribeChannels(ctx, channels); err != nil {
		return nil, err
	}
	s.orderbookCh = make(chan venue.Result, 256)
	return s.orderbookCh, nil
}

// ConnectTrades subscribes the trades channel for every currently
// subscribed symbol and returns the trade result stream.
func (s *Session) ConnectTrades(ctx context.Context) (<-chan venue.Result, error) {
	symbols := s.currentSymbols()
	if len(symbols) == 0 {
		return nil, errs.Wrap(errs.ErrConfig, fmt.Errorf("no subscribed symbols"))
	}
	channels := make([]string, len(symbols))
	for i, sym := range symbols {
		channels[i] = tradesChannel(sym)
	}
	if err := s.subscribeChannels(ctx, channels); err != nil {
		return nil, err
	}
	s.tradesCh = make(chan venue.Result, 256)
	return s.tradesCh, nil
}

// ConnectTicker subscribes the ticker channel for every currently
// subscribed symbol and returns the ticker result stream.
func (s *Session) ConnectTicker(ctx context.Context) (<-chan venue.Result, error) {
	symbols := s.currentSymbols()
	if len(symbols) == 0 {
		return nil, errs.Wrap(errs.ErrConfig, fmt.Errorf("no subscribed symbols"))
	}
	channels := make([]string, len(symbols))
	for i, sym := range symbols {
		channels[i] = tickerChannel(sym)
	}
	if err := s.subscribeChannels(ctx, channels); err != nil {
		return nil, err
	}
	s.tickerCh = make(chan venue.Result, 256)
	return s.tickerCh, nil
}

func (s *Session) subscribeChannels(ctx context.Context, channels []string) error {
	_, err := s.request(ctx, "public/subscribe", map[string]any{"channels": channels})
	if err != nil {
		return errs.Wrap(errs.ErrConnection, err)
	}
	return nil
}

func (s *Session) setHeartbeat(ctx context.Context, interval time.Duration) error {
	_, err := s.request(ctx, "public/set_heartbeat", map[string]any{
		"interval": int(interval.Seconds()),
	})
	return err
}

// request sends a JSON-RPC request on the api channel and blocks for its
// matching response, serializing the write through writeMu and the
// api-channel rate limiter.
func (s *Session) request(ctx context.Context, method string, params map[string]any) (json.RawMessage, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	id := atomic.AddInt64(&s.nextID, 1)
	respCh := make(chan wireMessage, 1)

	s.pendingMu.Lock()
	s.pending[id] = respCh
	s.pendingMu.Unlock()
	defer func() {
		s.pendingMu.Lock()
		delete(s.pending, id)
		s.pendingMu.Unlock()
	}()

	req := wireRequest{JSONRPC: "2.0", ID: id, Method: method, Params: params}
	traceID := uuid.NewString()
	s.logger.Debug().Str("trace_id", traceID).Str("method", method).Int64("id", id).Msg("sending request")

	if err := s.writeJSON(req); err != nil {
		return nil, err
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case resp := <-respCh:
		if resp.Error != nil {
			return nil, fmt.Errorf("deribit error %d: %s", resp.Error.Code, resp.Error.Message)
		}
		return resp.Result, nil
	}
}

func (s *Session) writeJSON(v any) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.conn.WriteJSON(v)
}

// answerTestRequest replies to a heartbeat test_request on the api channel.
// Per spec §4.2, failures here are logged and swallowed, not surfaced as a
// stream error: a missed heartbeat response degrades the connection but
// must not interrupt already-flowing records.
func (s *Session) answerTestRequest() {
	id := atomic.AddInt64(&s.nextID, 1)
	req := wireRequest{JSONRPC: "2.0", ID: id, Method: "public/test", Params: map[string]any{}}
	if err := s.writeJSON(req); err != nil {
		s.logger.Warn().Err(err).Msg("failed to answer heartbeat test_request")
	}
}

// readLoop is the central demultiplexer (spec §4.2): frames matching a
// pending request id are delivered to the waiting caller; heartbeat
// test_request frames are answered; subscription frames are converted and
// routed to the matching output channel; a frame that fails to decode is
// reported as an error record on every open output channel; anything else
// is discarded. The loop, and every open output channel, ends only when the
// underlying connection read fails.
func (s *Session) readLoop() {
	defer s.closeOutputs()

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			s.logger.Warn().Err(err).Msg("connection read failed, stream ending")
			return
		}
		var msg wireMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			decodeErr := errs.Wrap(errs.ErrProtocol, err)
			for _, ch := range []chan venue.Result{s.orderbookCh, s.tradesCh, s.tickerCh} {
				if ch != nil {
					ch <- venue.Result{Err: decodeErr}
				}
			}
			continue
		}

		if msg.ID != 0 {
			s.pendingMu.Lock()
			ch, ok := s.pending[msg.ID]
			s.pendingMu.Unlock()
			if ok {
				ch <- msg
			}
			continue
		}

		if msg.Method == "heartbeat" {
			if msg.Params != nil && msg.Params.Type == "test_request" {
				s.answerTestRequest()
			}
			continue
		}

		if msg.Method == "subscription" && msg.Params != nil {
			s.routeSubscription(msg.Params.Channel, msg.Params.Data)
			continue
		}
		// Anything else (stray notification types, unmatched subtypes) is
		// silently discarded per spec §4.2.
	}
}

func (s *Session) routeSubscription(channel string, data json.RawMessage) {
	switch {
	case matchesPrefix(channel, "book."):
		s.deliverOrderBook(data)
	case matchesPrefix(channel, "trades."):
		s.deliverTrades(data)
	case matchesPrefix(channel, "ticker."):
		s.deliverTicker(data)
	}
}

func matchesPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

func (s *Session) deliverOrderBook(data json.RawMessage) {
	if s.orderbookCh == nil {
		return
	}
	var w wireOrderBook
	if err := json.Unmarshal(data, &w); err != nil {
		s.orderbookCh <- venue.Result{Err: errs.Wrap(errs.ErrProtocol, err)}
		return
	}
	s.orderbookCh <- venue.Result{Record: convertOrderBook(s.Name(), w)}
}

func (s *Session) deliverTrades(data json.RawMessage) {
	if s.tradesCh == nil {
		return
	}
	var w []wireTrade
	if err := json.Unmarshal(data, &w); err != nil {
		s.tradesCh <- venue.Result{Err: errs.Wrap(errs.ErrProtocol, err)}
		return
	}
	for _, trade := range convertTrades(s.Name(), w) {
		s.tradesCh <- venue.Result{Record: trade}
	}
}

func (s *Session) deliverTicker(data json.RawMessage) {
	if s.tickerCh == nil {
		return
	}
	var w wireTicker
	if err := json.Unmarshal(data, &w); err != nil {
		s.tickerCh <- venue.Result{Err: errs.Wrap(errs.ErrProtocol, err)}
		return
	}
	s.tickerCh <- venue.Result{Record: convertTicker(s.Name(), w)}
}

func (s *Session) closeOutputs() {
	if s.orderbookCh != nil {
		close(s.orderbookCh)
	}
	if s.tradesCh != nil {
		close(s.tradesCh)
	}
	if s.tickerCh != nil {
		close(s.tickerCh)
	}
}

// Close tears down the connection. Safe to call once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		close(s.done)
		if s.conn != nil {
			err = s.conn.Close()
		}
	})
	return err
}
