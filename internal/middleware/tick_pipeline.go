package middleware

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"CoinStrat/internal/domain/models"
	domrepo "CoinStrat/internal/domain/repository"
)

// TickPipeline sits between the exchange websocket and the live price collector.
// It validates ticks, throttles them per symbol and drops anything the collector
// must never see. Connection management is delegated to the wrapped stream.
type TickPipeline struct {
	next    domrepo.PriceStream
	metrics domrepo.Metrics
	maxRPS  int
	maxSkew time.Duration
	now     func() time.Time

	mu       sync.Mutex
	lastSeen map[string]time.Time // per-symbol last accepted tick
}

type PipelineOption func(*TickPipeline)

// WithMaxRPS sets the max ticks per second per symbol. Zero disables throttling.
func WithMaxRPS(n int) PipelineOption {
	return func(p *TickPipeline) {
		if n >= 0 {
			p.maxRPS = n
		}
	}
}

// WithMaxSkew rejects ticks stamped further than d into the future.
func WithMaxSkew(d time.Duration) PipelineOption {
	return func(p *TickPipeline) {
		if d > 0 {
			p.maxSkew = d
		}
	}
}

// WithPipelineClock overrides time.Now.
func WithPipelineClock(now func() time.Time) PipelineOption {
	return func(p *TickPipeline) { p.now = now }
}

// NewTickPipeline wraps next.
func NewTickPipeline(next domrepo.PriceStream, metrics domrepo.Metrics, opts ...PipelineOption) *TickPipeline {
	p := &TickPipeline{
		next:     next,
		metrics:  metrics,
		maxRPS:   5,
		maxSkew:  time.Minute,
		now:      time.Now,
		lastSeen: make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *TickPipeline) Connect(ctx context.Context) error   { return p.next.Connect(ctx) }
func (p *TickPipeline) Subscribe(ctx context.Context) error { return p.next.Subscribe(ctx) }
func (p *TickPipeline) Reconnect(ctx context.Context) error { return p.next.Reconnect(ctx) }
func (p *TickPipeline) Close() error                        { return p.next.Close() }
func (p *TickPipeline) IsConnected() bool                   { return p.next.IsConnected() }

// Read forwards the accepted ticks of the wrapped stream. Errors pass through untouched.
func (p *TickPipeline) Read(ctx context.Context) (<-chan *models.PriceTick, <-chan error) {
	in, errCh := p.next.Read(ctx)
	out := make(chan *models.PriceTick, cap(in))

	go func() {
		defer close(out)
		for t := range in {
			if !p.Accept(t) {
				continue
			}
			select {
			case out <- t:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, errCh
}

// Accept reports whether t passes validation and the throttle.
func (p *TickPipeline) Accept(t *models.PriceTick) bool {
	now := p.now()
	if err := validateTick(t, now, p.maxSkew); err != nil {
		p.metrics.RecordError("pipeline_validate")
		return false
	}
	// a closed candle is the authoritative daily close and is never throttled
	if t.Closed {
		p.mark(t.Symbol, now)
		return true
	}
	if !p.allow(t.Symbol, now) {
		p.metrics.RecordError("pipeline_throttle")
		return false
	}
	return true
}

var errTickNil = errors.New("tick nil")

func validateTick(t *models.PriceTick, now time.Time, maxSkew time.Duration) error {
	if t == nil {
		return errTickNil
	}
	if t.Symbol == "" {
		return fmt.Errorf("symbol empty")
	}
	if t.Time.IsZero() {
		return fmt.Errorf("timestamp invalid")
	}
	if t.Time.After(now.Add(maxSkew)) {
		return fmt.Errorf("timestamp %s ahead of clock", t.Time.Format(time.RFC3339))
	}
	if t.Price <= 0 {
		return fmt.Errorf("non-positive price %v", t.Price)
	}
	return nil
}

func (p *TickPipeline) mark(symbol string, now time.Time) {
	p.mu.Lock()
	p.lastSeen[symbol] = now
	p.mu.Unlock()
}

func (p *TickPipeline) allow(symbol string, now time.Time) bool {
	if p.maxRPS <= 0 {
		return true
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	last := p.lastSeen[symbol]
	if !last.IsZero() && now.Sub(last) < time.Second/time.Duration(p.maxRPS) {
		return false
	}
	p.lastSeen[symbol] = now
	return true
}

var _ domrepo.PriceStream = (*TickPipeline)(nil)
