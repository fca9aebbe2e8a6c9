// Package ratelimit provides token-bucket admission control for outbound
// provider calls, combining a global bucket with per-apex-domain buckets.
package ratelimit

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// Config holds the refill rates and burst capacities for both scopes.
type Config struct {
	GlobalRPS   float64 `yaml:"global_rps" mapstructure:"global_rps"`
	GlobalBurst int     `yaml:"global_burst" mapstructure:"global_burst"`
	DomainRPS   float64 `yaml:"domain_rps" mapstructure:"domain_rps"`
	DomainBurst int     `yaml:"domain_burst" mapstructure:"domain_burst"`
}

// DefaultConfig mirrors the production quota split: a wide global budget and
// a polite one-request-per-second ceiling against any single company site.
func DefaultConfig() Config {
	return Config{
		GlobalRPS:   100,
		GlobalBurst: 100,
		DomainRPS:   1,
		DomainBurst: 1,
	}
}

// Limiter gates outbound calls on two token buckets: one global, one keyed by
// apex domain. Both tokens must be acquired before a call proceeds. Buckets
// refill lazily on acquire (rate.Limiter semantics); waiting is abortable via
// context without consuming a token.
type Limiter struct {
	cfg    Config
	global *rate.Limiter

	mu      sync.Mutex
	domains map[string]*rate.Limiter
}

// New creates a Limiter from cfg, applying defaults for zero values.
func New(cfg Config) *Limiter {
	def := DefaultConfig()
	if cfg.GlobalRPS <= 0 {
		cfg.GlobalRPS = def.GlobalRPS
	}
	if cfg.GlobalBurst <= 0 {
		cfg.GlobalBurst = def.GlobalBurst
	}
	if cfg.DomainRPS <= 0 {
		cfg.DomainRPS = def.DomainRPS
	}
	if cfg.DomainBurst <= 0 {
		cfg.DomainBurst = def.DomainBurst
	}
	return &Limiter{
		cfg:     cfg,
		global:  rate.NewLimiter(rate.Limit(cfg.GlobalRPS), cfg.GlobalBurst),
		domains: make(map[string]*rate.Limiter),
	}
}

// AcquireGlobal blocks until a global token is available or ctx is done.
func (l *Limiter) AcquireGlobal(ctx context.Context) error {
	return l.global.Wait(ctx)
}

// AcquireDomain blocks until a token for the domain's bucket is available or
// ctx is done. The bucket is created on first use.
func (l *Limiter) AcquireDomain(ctx context.Context, domain string) error {
	return l.domainLimiter(domain).Wait(ctx)
}

// AcquireBoth acquires the global token first, then the per-domain token.
// Both must be held before any outbound call for the domain proceeds.
func (l *Limiter) AcquireBoth(ctx context.Context, domain string) error {
	if err := l.AcquireGlobal(ctx); err != nil {
		return err
	}
	return l.AcquireDomain(ctx, domain)
}

func (l *Limiter) domainLimiter(domain string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.domains[domain]
	if !ok {
		lim = rate.NewLimiter(rate.Limit(l.cfg.DomainRPS), l.cfg.DomainBurst)
		l.domains[domain] = lim
	}
	return lim
}

// ApexDomain returns the registrable root domain used as the per-domain scope
// key: "https://foo.example.co.jp/x" → "example.co.jp". Returns "" for
// unparseable input.
func ApexDomain(rawURL string) string {
	host := Host(rawURL)
	if host == "" {
		return ""
	}
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host
	}
	// Keep three labels for two-level public suffixes like co.jp / or.jp.
	last := parts[len(parts)-1]
	second := parts[len(parts)-2]
	if len(parts) >= 3 && last == "jp" && len(second) == 2 {
		return strings.Join(parts[len(parts)-3:], ".")
	}
	return strings.Join(parts[len(parts)-2:], ".")
}

// Host extracts the lowercase hostname from a URL, tolerating missing schemes.
func Host(rawURL string) string {
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "https://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return ""
	}
	host := strings.ToLower(u.Host)
	if idx := strings.Index(host, ":"); idx > 0 {
		host = host[:idx]
	}
	return host
}
