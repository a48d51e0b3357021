package querycache

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestKeyIgnoresParamOrder(t *testing.T) {
	a := url.Values{}
	a.Set("page", "1")
	a.Set("status", "draft")
	b := url.Values{}
	b.Set("status", "draft")
	b.Set("page", "1")

	require.Equal(t, Key("rfqs", a), Key("rfqs", b))
	require.Equal(t, "rfqs", Key("rfqs", nil))
}

func TestFetchCachesUntilExpiry(t *testing.T) {
	c := New(time.Minute)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	loads := 0
	load := func(ctx context.Context) (int, error) {
		loads++
		return loads, nil
	}

	v, err := Fetch(context.Background(), c, "rfqs", nil, load)
	require.NoError(t, err)
	require.Equal(t, 1, v)

	v, _ = Fetch(context.Background(), c, "rfqs", nil, load)
	require.Equal(t, 1, v)

	now = now.Add(time.Minute)
	v, _ = Fetch(context.Background(), c, "rfqs", nil, load)
	require.Equal(t, 2, v)
}

func TestFetchDoesNotCacheErrors(t *testing.T) {
	c := New(time.Minute)
	calls := 0
	load := func(ctx context.Context) (string, error) {
		calls++
		return "", errors.New("boom")
	}

	_, err := Fetch(context.Background(), c, "rfqs", nil, load)
	require.Error(t, err)
	_, err = Fetch(context.Background(), c, "rfqs", nil, load)
	require.Error(t, err)
	require.Equal(t, 2, calls)
	require.Zero(t, c.Len())
}

func TestInvalidateByPrefix(t *testing.T) {
	c := New(time.Minute)
	page2 := url.Values{"page": {"2"}}

	c.Set("rfqs", nil, 1)
	c.Set("rfqs", page2, 2)
	c.Set("rfqs/r1", nil, 3)
	c.Set("rfqs/r1/quotations", page2, 4)
	c.Set("rfqs/r10", nil, 5)
	c.Set("rfqsx", nil, 6)
	c.Set("suppliers", nil, 7)

	require.Equal(t, 2, c.Invalidate("rfqs/r1"))
	_, ok := c.Get("rfqs/r10", nil)
	require.True(t, ok)

	require.Equal(t, 3, c.Invalidate("rfqs"))
	_, ok = c.Get("rfqsx", nil)
	require.True(t, ok)
	_, ok = c.Get("suppliers", nil)
	require.True(t, ok)
	require.Equal(t, 2, c.Len())
}

func TestZeroTTLDisablesCaching(t *testing.T) {
	c := New(0)
	c.Set("rfqs", nil, 1)
	_, ok := c.Get("rfqs", nil)
	require.False(t, ok)
}

func TestPruneDropsOnlyExpired(t *testing.T) {
	c := New(time.Minute)
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	c.Set("rfqs", nil, 1)
	now = now.Add(30 * time.Second)
	c.Set("suppliers", nil, 2)
	now = now.Add(45 * time.Second)

	require.Equal(t, 1, c.Prune())
	require.Equal(t, 1, c.Len())
	_, ok := c.Get("suppliers", nil)
	require.True(t, ok)
}
