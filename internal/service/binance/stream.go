package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"CoinStrat/internal/domain/models"
	drepo "CoinStrat/internal/domain/repository"
	applogger "CoinStrat/pkg/logger"

	"github.com/gorilla/websocket"
)

// Stream implements a PriceStream backed by the Binance daily kline websocket.
type Stream struct {
	websocketURL   string
	symbol         string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *applogger.Logger

	mu        sync.Mutex
	conn      *websocket.Conn
	connected bool
	nextID    int
}

// New creates a new Binance PriceStream for one symbol (e.g. btcusdt).
func New(websocketURL, symbol string, reconnectDelay, pingInterval time.Duration, l *applogger.Logger) drepo.PriceStream {
	if l == nil {
		l = applogger.Nop()
	}
	if pingInterval <= 0 {
		pingInterval = 30 * time.Second
	}
	return &Stream{
		websocketURL:   websocketURL,
		symbol:         strings.ToLower(symbol),
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            l,
	}
}

func (s *Stream) streamName() string { return s.symbol + "@kline_1d" }

// Connect establishes the WebSocket connection.
func (s *Stream) Connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, s.websocketURL, nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}
	s.mu.Lock()
	s.conn = conn
	s.connected = true
	s.mu.Unlock()
	s.log.Info("binance stream connected", applogger.String("url", s.websocketURL))
	return nil
}

type subscribeRequest struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
	ID     int      `json:"id"`
}

// Subscribe subscribes to the daily kline stream of the symbol.
func (s *Stream) Subscribe(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conn == nil || !s.connected {
		return fmt.Errorf("binance not connected")
	}
	s.nextID++
	req := subscribeRequest{Method: "SUBSCRIBE", Params: []string{s.streamName()}, ID: s.nextID}
	if err := s.conn.WriteJSON(req); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.streamName(), err)
	}
	s.log.Info("binance stream subscribed", applogger.String("stream", s.streamName()))
	return nil
}

type klineEvent struct {
	Event  string `json:"e"`
	Time   int64  `json:"E"`
	Symbol string `json:"s"`
	Kline  struct {
		Open   int64  `json:"t"`
		Close  string `json:"c"`
		Closed bool   `json:"x"`
	} `json:"k"`
}

// parseKline decodes a kline frame. ok is false for acks and other frames.
func parseKline(b []byte) (*models.PriceTick, bool) {
	var ev klineEvent
	if err := json.Unmarshal(b, &ev); err != nil || ev.Event != "kline" {
		return nil, false
	}
	price, err := strconv.ParseFloat(ev.Kline.Close, 64)
	if err != nil || price <= 0 {
		return nil, false
	}
	return &models.PriceTick{
		Symbol: ev.Symbol,
		Price:  price,
		Time:   time.UnixMilli(ev.Time).UTC(),
		Closed: ev.Kline.Closed,
	}, true
}

// Read streams ticks and errors until ctx ends or the connection fails.
func (s *Stream) Read(ctx context.Context) (<-chan *models.PriceTick, <-chan error) {
	ticks := make(chan *models.PriceTick, 256)
	errs := make(chan error, 1)
	done := make(chan struct{})

	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()

	// ping loop
	go func() {
		ticker := time.NewTicker(s.pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				s.mu.Lock()
				if conn != nil {
					_ = conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
				}
				s.mu.Unlock()
			}
		}
	}()

	// read loop
	go func() {
		defer close(done)
		defer close(ticks)
		defer close(errs)
		if conn == nil {
			errs <- fmt.Errorf("binance conn nil")
			return
		}
		for {
			if ctx.Err() != nil {
				return
			}
			_, b, err := conn.ReadMessage()
			if err != nil {
				if ctx.Err() == nil {
					errs <- fmt.Errorf("binance read: %w", err)
				}
				return
			}
			tick, ok := parseKline(b)
			if !ok {
				continue
			}
			select {
			case ticks <- tick:
			case <-ctx.Done():
				return
			default:
				// drop on backpressure
			}
		}
	}()

	return ticks, errs
}

// Reconnect closes and reconnects.
func (s *Stream) Reconnect(ctx context.Context) error {
	_ = s.Close()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(s.reconnectDelay):
	}
	if err := s.Connect(ctx); err != nil {
		return err
	}
	return s.Subscribe(ctx)
}

// Close closes the WS connection.
func (s *Stream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.connected = false
	if s.conn != nil {
		err := s.conn.Close()
		s.conn = nil
		return err
	}
	return nil
}

// IsConnected indicates status.
func (s *Stream) IsConnected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connected
}
