// Package currency supplies multiplicative exchange rates to the comparator.
//
// The network fetch itself lives outside this module; callers inject a
// Fetcher. What lives here is the policy around it: a TTL cache, single-flight
// de-duplication of concurrent fetches, and a deterministic static fallback so
// a comparison pipeline never blocks on a dead rate source. A stale rate is
// always preferred over no rate.
package currency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// ErrUnknownCurrency is returned when neither the live source nor the static
// table knows a currency code. Inventing a rate would be silently wrong.
var ErrUnknownCurrency = errors.New("currency: no rate available for code")

// DefaultTTL is how long a fetched rate is considered fresh.
const DefaultTTL = time.Hour

// Fetcher is the external collaborator that retrieves a live rate.
type Fetcher interface {
	FetchRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc func(ctx context.Context, from, to string) (decimal.Decimal, error)

func (f FetcherFunc) FetchRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	return f(ctx, from, to)
}

// Provider is what the comparison pipeline consumes.
type Provider interface {
	GetRate(ctx context.Context, from, to string) (decimal.Decimal, error)
}

// fallbackEUR holds static per-unit rates against EUR, keyed by ISO 4217 code.
// rate(from→to) = fallbackEUR[from] / fallbackEUR[to]. Values are a pinned
// snapshot: degraded-mode accuracy, not market accuracy.
var fallbackEUR = map[string]decimal.Decimal{
	"EUR": decimal.NewFromFloat(1.0),
	"USD": decimal.NewFromFloat(0.92),
	"GBP": decimal.NewFromFloat(1.17),
	"CHF": decimal.NewFromFloat(1.04),
	"SEK": decimal.NewFromFloat(0.087),
	"NOK": decimal.NewFromFloat(0.086),
	"DKK": decimal.NewFromFloat(0.134),
	"PLN": decimal.NewFromFloat(0.23),
	"CZK": decimal.NewFromFloat(0.04),
	"HUF": decimal.NewFromFloat(0.0025),
	"RON": decimal.NewFromFloat(0.20),
	"BGN": decimal.NewFromFloat(0.51),
	"TRY": decimal.NewFromFloat(0.028),
	"UAH": decimal.NewFromFloat(0.022),
	"RUB": decimal.NewFromFloat(0.010),
	"JPY": decimal.NewFromFloat(0.0061),
	"CNY": decimal.NewFromFloat(0.13),
	"CAD": decimal.NewFromFloat(0.67),
	"AUD": decimal.NewFromFloat(0.60),
}

// FallbackRate resolves a pair from the static table alone.
func FallbackRate(from, to string) (decimal.Decimal, error) {
	f, ok := fallbackEUR[canon(from)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, from)
	}
	t, ok := fallbackEUR[canon(to)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrency, to)
	}
	return f.Div(t), nil
}

type entry struct {
	rate      decimal.Decimal
	fetchedAt time.Time
}

// CachedProvider is a read-through rate cache over an optional Fetcher.
// Safe for concurrent use. With a nil Fetcher it serves the static table only.
type CachedProvider struct {
	fetcher Fetcher
	ttl     time.Duration
	log     zerolog.Logger
	now     func() time.Time // test hook

	group singleflight.Group

	mu    sync.RWMutex
	cache map[string]entry // "FROM/TO" -> last fetched rate, kept past TTL for stale fallback
}

// NewCachedProvider builds a provider. fetcher may be nil; ttl <= 0 means
// DefaultTTL.
func NewCachedProvider(fetcher Fetcher, ttl time.Duration, log zerolog.Logger) *CachedProvider {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedProvider{
		fetcher: fetcher,
		ttl:     ttl,
		log:     log,
		now:     time.Now,
		cache:   make(map[string]entry),
	}
}

// GetRate resolves from→to. Resolution order: identity (1.0 for equal codes),
// fresh cache, live fetch (single-flight per pair), stale cache, static table.
// Only an entirely unknown currency yields an error.
func (p *CachedProvider) GetRate(ctx context.Context, from, to string) (decimal.Decimal, error) {
	fromC, toC := canon(from), canon(to)
	if fromC == toC {
		return decimal.NewFromInt(1), nil
	}
	key := fromC + "/" + toC

	if e, ok := p.lookup(key); ok && p.now().Sub(e.fetchedAt) < p.ttl {
		return e.rate, nil
	}

	if p.fetcher != nil {
		v, err, _ := p.group.Do(key, func() (any, error) {
			rate, err := p.fetcher.FetchRate(ctx, fromC, toC)
			if err != nil {
				return decimal.Zero, err
			}
			p.store(key, rate)
			return rate, nil
		})
		if err == nil {
			return v.(decimal.Decimal), nil
		}
		p.log.Warn().Err(err).Str("pair", key).Msg("rate fetch failed, degrading")
	}

	// stale beats static: it was at least once a real market rate
	if e, ok := p.lookup(key); ok {
		p.log.Warn().Str("pair", key).Time("fetched_at", e.fetchedAt).Msg("serving stale rate")
		return e.rate, nil
	}

	rate, err := FallbackRate(fromC, toC)
	if err != nil {
		return decimal.Zero, err
	}
	p.log.Warn().Str("pair", key).Msg("serving static fallback rate")
	return rate, nil
}

func (p *CachedProvider) lookup(key string) (entry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	e, ok := p.cache[key]
	return e, ok
}

func (p *CachedProvider) store(key string, rate decimal.Decimal) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cache[key] = entry{rate: rate, fetchedAt: p.now()}
}

func canon(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
