package deribit

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

// fakeServer speaks just enough Deribit JSON-RPC to exercise Session: it
// acknowledges set_heartbeat and public/subscribe, and can push arbitrary
// notification frames on demand.
type fakeServer struct {
	t        *testing.T
	upgrader websocket.Upgrader
	connCh   chan *websocket.Conn
}

func newFakeServer(t *testing.T) (*httptest.Server, *fakeServer) {
	fs := &fakeServer{t: t, connCh: make(chan *websocket.Conn, 1)}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := fs.upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		fs.connCh <- conn
		go fs.serve(conn)
	}))
	return srv, fs
}

func (fs *fakeServer) serve(conn *websocket.Conn) {
	for {
		var msg wireMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.ID == 0 {
			continue
		}
		resp := wireMessage{JSONRPC: "2.0", ID: msg.ID, Result: json.RawMessage(`"ok"`)}
		if err := conn.WriteJSON(resp); err != nil {
			return
		}
	}
}

func wsURL(httpURL string) string {
	return "ws" + strings.TrimPrefix(httpURL, "http")
}

func TestSession_ConnectAndSubscribe(t *testing.T) {
	srv, fs := newFakeServer(t)
	defer srv.Close()

	s := New(wsURL(srv.URL), zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Connect(ctx))
	defer s.Close()

	select {
	case <-fs.connCh:
	case <-time.After(time.Second):
		t.Fatal("server never saw a connection")
	}

	s.Subscribe([]string{"BTC-PERPETUAL"})
	stream, err := s.ConnectOrderBook(ctx)
	require.NoError(t, err)
	require.NotNil(t, stream)
}

func TestSession_ConnectWithoutSymbols_Errors(t *testing.T) {
	srv, _ := newFakeServer(t)
	defer srv.Close()

	s := New(wsURL(srv.URL), zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Connect(ctx))
	defer s.Close()

	_, err := s.ConnectOrderBook(ctx)
	require.Error(t, err)
}

func TestSession_DeliversOrderBookRecord(t *testing.T) {
	srv, fs := newFakeServer(t)
	defer srv.Close()

	s := New(wsURL(srv.URL), zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Connect(ctx))
	defer s.Close()

	var serverConn *websocket.Conn
	select {
	case serverConn = <-fs.connCh:
	case <-time.After(time.Second):
		t.Fatal("server never saw a connection")
	}

	s.Subscribe([]string{"BTC-PERPETUAL"})
	stream, err := s.ConnectOrderBook(ctx)
	require.NoError(t, err)

	notification := wireMessage{
		JSONRPC: "2.0",
		Method:  "subscription",
		Params: &wireParams{
			Channel: orderBookChannel("BTC-PERPETUAL"),
			Data:    json.RawMessage(`{"instrument_name":"BTC-PERPETUAL","change_id":1,"timestamp":1700000000000,"bids":[[100,1]],"asks":[[101,1]]}`),
		},
	}
	require.NoError(t, serverConn.WriteJSON(notification))

	select {
	case res := <-stream:
		require.NoError(t, res.Err)
		require.Equal(t, "BTC-PERPETUAL", res.Record.GetSymbol())
	case <-time.After(time.Second):
		t.Fatal("order book record never arrived")
	}
}

func TestSession_AnswersTestRequestHeartbeat(t *testing.T) {
	srv, fs := newFakeServer(t)
	defer srv.Close()

	s := New(wsURL(srv.URL), zerolog.Nop())
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, s.Connect(ctx))
	defer s.Close()

	var serverConn *websocket.Conn
	select {
	case serverConn = <-fs.connCh:
	case <-time.After(time.Second):
		t.Fatal("server never saw a connection")
	}

	heartbeat := wireMessage{
		JSONRPC: "2.0",
		Method:  "heartbeat",
		Params:  &wireParams{Type: "test_request"},
	}
	require.NoError(t, serverConn.WriteJSON(heartbeat))

	serverConn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var reply wireMessage
	require.NoError(t, serverConn.ReadJSON(&reply))
	require.Equal(t, "public/test", reply.Method)
}

func TestSession_SymbolUpdateInbox_ConsumedOnce(t *testing.T) {
	s := New("ws://unused", zerolog.Nop())
	_ = s.SymbolUpdateInbox()
	require.Panics(t, func() { s.SymbolUpdateInbox() })
}
