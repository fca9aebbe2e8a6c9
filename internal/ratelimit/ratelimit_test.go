package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApexDomain(t *testing.T) {
	cases := map[string]string{
		"https://www.example.co.jp/company": "example.co.jp",
		"https://example.co.jp":             "example.co.jp",
		"http://sub.deep.example.com/x":     "example.com",
		"example.com":                       "example.com",
		"https://example.jp/about":          "example.jp",
		"https://www.pref.or.jp":            "pref.or.jp",
		"localhost":                         "localhost",
		"":                                  "",
		"://bad":                            "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ApexDomain(in), "input %q", in)
	}
}

func TestHost(t *testing.T) {
	assert.Equal(t, "example.co.jp", Host("https://Example.co.jp:8443/x"))
	assert.Equal(t, "example.com", Host("example.com/path"))
	assert.Equal(t, "", Host(""))
}

func TestAcquireBothWithinBurst(t *testing.T) {
	lim := New(Config{GlobalRPS: 100, GlobalBurst: 10, DomainRPS: 100, DomainBurst: 10})

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	for i := 0; i < 5; i++ {
		require.NoError(t, lim.AcquireBoth(ctx, "example.co.jp"))
	}
}

func TestAcquireDomainBlocksPerDomain(t *testing.T) {
	// One token per domain, near-zero refill: second acquire on the same
	// domain must block until the context gives up.
	lim := New(Config{GlobalRPS: 1000, GlobalBurst: 1000, DomainRPS: 0.001, DomainBurst: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	require.NoError(t, lim.AcquireBoth(ctx, "slow.example.jp"))
	err := lim.AcquireBoth(ctx, "slow.example.jp")
	require.Error(t, err)

	// A different domain has its own bucket and is not affected.
	ctx2, cancel2 := context.WithTimeout(context.Background(), time.Second)
	defer cancel2()
	require.NoError(t, lim.AcquireBoth(ctx2, "other.example.jp"))
}

func TestAcquireAbortsOnCancel(t *testing.T) {
	lim := New(Config{GlobalRPS: 0.001, GlobalBurst: 1, DomainRPS: 1000, DomainBurst: 1000})

	ctx := context.Background()
	require.NoError(t, lim.AcquireGlobal(ctx))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	assert.Error(t, lim.AcquireGlobal(cancelled))
}

func TestNewAppliesDefaults(t *testing.T) {
	lim := New(Config{})
	assert.Equal(t, DefaultConfig(), lim.cfg)
}
