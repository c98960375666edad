package binance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseKline(t *testing.T) {
	tick, ok := parseKline([]byte(`{"e":"kline","E":1704110400000,"s":"BTCUSDT","k":{"t":1704067200000,"c":"42500.10","x":false}}`))
	require.True(t, ok)
	assert.Equal(t, "BTCUSDT", tick.Symbol)
	assert.InDelta(t, 42500.10, tick.Price, 1e-9)
	assert.Equal(t, time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC), tick.Time)
	assert.False(t, tick.Closed)

	_, ok = parseKline([]byte(`{"result":null,"id":1}`))
	assert.False(t, ok)
	_, ok = parseKline([]byte(`{"e":"kline","k":{"c":"abc"}}`))
	assert.False(t, ok)
}

func TestStreamEndToEnd(t *testing.T) {
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := up.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer c.Close()
		var req subscribeRequest
		if err := c.ReadJSON(&req); err != nil {
			return
		}
		_ = c.WriteJSON(map[string]any{"result": nil, "id": req.ID})
		_ = c.WriteMessage(websocket.TextMessage, []byte(`{"e":"kline","E":1704110400000,"s":"BTCUSDT","k":{"t":1704067200000,"c":"42000","x":false}}`))
		time.Sleep(200 * time.Millisecond)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	s := New("ws"+strings.TrimPrefix(srv.URL, "http"), "BTCUSDT", time.Millisecond, time.Second, nil)
	require.NoError(t, s.Connect(ctx))
	require.NoError(t, s.Subscribe(ctx))
	assert.True(t, s.IsConnected())

	ticks, _ := s.Read(ctx)
	select {
	case tick := <-ticks:
		require.NotNil(t, tick)
		assert.Equal(t, 42000.0, tick.Price)
	case <-ctx.Done():
		t.Fatal("no tick received")
	}
	require.NoError(t, s.Close())
	assert.False(t, s.IsConnected())
}
