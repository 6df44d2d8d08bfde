package marketdata

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/hahaandwawa/portfolio-app-sub000/internal/errors"
)

// GatewayConfig tunes caching, throttling and retry behavior.
type GatewayConfig struct {
	CacheTTL    time.Duration // how long responses are reused
	MinInterval time.Duration // minimum gap between upstream calls
	MaxRetries  int           // retries per provider on rate limits
	BaseBackoff time.Duration // first backoff step, doubled per retry
}

// DefaultGatewayConfig returns the production defaults.
func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		CacheTTL:    30 * time.Second,
		MinInterval: 200 * time.Millisecond,
		MaxRetries:  3,
		BaseBackoff: 500 * time.Millisecond,
	}
}

type cacheEntry struct {
	value   interface{}
	expires time.Time
}

// Gateway fronts one or more providers with short-TTL caching,
// minimum-interval throttling, rate-limit aware retry, and per-call
// fallback down the provider list. It owns all of that state explicitly
// and is injected into the valuation path; nothing here is package-level.
type Gateway struct {
	providers []Provider
	config    GatewayConfig
	logger    *zap.Logger

	mu       sync.Mutex
	cache    map[string]cacheEntry
	lastCall time.Time
}

// NewGateway creates a gateway over the given providers. The first
// provider is primary; the rest are fallbacks in order.
func NewGateway(config GatewayConfig, logger *zap.Logger, providers ...Provider) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		providers: providers,
		config:    config,
		logger:    logger,
		cache:     make(map[string]cacheEntry),
	}
}

func (g *Gateway) Name() string { return "gateway" }

func (g *Gateway) GetQuote(ctx context.Context, symbol string) (*Quote, error) {
	key := "quote:" + symbol
	if v, ok := g.cached(key); ok {
		return v.(*Quote), nil
	}
	v, err := g.call(ctx, symbol, time.Time{}, func(p Provider) (interface{}, error) {
		return p.GetQuote(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	g.store(key, v)
	return v.(*Quote), nil
}

func (g *Gateway) GetQuotes(ctx context.Context, symbols []string) (map[string]*Quote, error) {
	key := "quotes:" + strings.Join(symbols, ",")
	if v, ok := g.cached(key); ok {
		return v.(map[string]*Quote), nil
	}
	v, err := g.call(ctx, strings.Join(symbols, ","), time.Time{}, func(p Provider) (interface{}, error) {
		return p.GetQuotes(ctx, symbols)
	})
	if err != nil {
		return nil, err
	}
	g.store(key, v)
	return v.(map[string]*Quote), nil
}

func (g *Gateway) GetHistoricalRange(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	key := fmt.Sprintf("range:%s:%s:%s", symbol, from.Format("20060102"), to.Format("20060102"))
	if v, ok := g.cached(key); ok {
		return v.([]Bar), nil
	}
	v, err := g.call(ctx, symbol, to, func(p Provider) (interface{}, error) {
		return p.GetHistoricalRange(ctx, symbol, from, to)
	})
	if err != nil {
		return nil, err
	}
	g.store(key, v)
	return v.([]Bar), nil
}

func (g *Gateway) GetHistoricalOpenClose(ctx context.Context, symbol string, date time.Time) (*Bar, error) {
	key := fmt.Sprintf("oc:%s:%s", symbol, date.Format("20060102"))
	if v, ok := g.cached(key); ok {
		return v.(*Bar), nil
	}
	v, err := g.call(ctx, symbol, date, func(p Provider) (interface{}, error) {
		return p.GetHistoricalOpenClose(ctx, symbol, date)
	})
	if err != nil {
		return nil, err
	}
	g.store(key, v)
	return v.(*Bar), nil
}

// call runs fn against each provider in order. Rate-limit errors are
// retried with exponential backoff before moving on; any other error
// falls through to the next provider immediately. Only when every
// provider is exhausted does the caller see an error, and exhaustion on
// rate limits alone escalates to data unavailability.
func (g *Gateway) call(ctx context.Context, symbol string, date time.Time, fn func(Provider) (interface{}, error)) (interface{}, error) {
	if len(g.providers) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}

	var lastErr error
	for _, provider := range g.providers {
		backoff := g.config.BaseBackoff
		for attempt := 0; ; attempt++ {
			if err := g.throttle(ctx); err != nil {
				return nil, err
			}
			v, err := fn(provider)
			if err == nil {
				return v, nil
			}
			lastErr = err

			var rl *apperrors.ErrRateLimited
			if errors.As(err, &rl) && attempt < g.config.MaxRetries {
				g.logger.Warn("provider rate limited, backing off",
					zap.String("provider", provider.Name()),
					zap.Duration("backoff", backoff),
					zap.Int("attempt", attempt+1))
				if err := sleepCtx(ctx, backoff); err != nil {
					return nil, err
				}
				backoff *= 2
				continue
			}

			g.logger.Warn("provider call failed, trying next",
				zap.String("provider", provider.Name()), zap.Error(err))
			break
		}
	}

	var rl *apperrors.ErrRateLimited
	if errors.As(lastErr, &rl) {
		// Every provider stayed rate limited through its retry budget;
		// to the caller the data is simply unavailable.
		return nil, &apperrors.ErrDataUnavailable{Symbol: symbol, Date: date, Err: lastErr}
	}
	return nil, lastErr
}

// throttle enforces the minimum interval between upstream calls.
func (g *Gateway) throttle(ctx context.Context) error {
	g.mu.Lock()
	wait := g.config.MinInterval - time.Since(g.lastCall)
	if wait < 0 {
		wait = 0
	}
	g.lastCall = time.Now().Add(wait)
	g.mu.Unlock()

	if wait == 0 {
		return nil
	}
	return sleepCtx(ctx, wait)
}

func (g *Gateway) cached(key string) (interface{}, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	entry, ok := g.cache[key]
	if !ok || time.Now().After(entry.expires) {
		return nil, false
	}
	return entry.value, true
}

func (g *Gateway) store(key string, v interface{}) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cache[key] = cacheEntry{value: v, expires: time.Now().Add(g.config.CacheTTL)}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
