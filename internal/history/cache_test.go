package history

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/cybercaja/cybercaja/internal/bizdate"
	"github.com/cybercaja/cybercaja/internal/dailylog"
	"github.com/cybercaja/cybercaja/internal/reconcile"
)

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Hour), mr
}

func TestCacheVersionInitialises(t *testing.T) {
	cache, _ := newTestCache(t)
	ver, err := cache.Version(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, ver)
}

func TestBumpChangesMonthKey(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	before, err := cache.MonthKey(ctx, 2024, time.March, "register")
	require.NoError(t, err)

	require.NoError(t, cache.Bump(ctx))

	after, err := cache.MonthKey(ctx, 2024, time.March, "register")
	require.NoError(t, err)
	require.NotEqual(t, before, after)
}

func TestFetchJSONPopulatesOnceThenServesCached(t *testing.T) {
	cache, _ := newTestCache(t)
	ctx := context.Background()

	key, err := cache.MonthKey(ctx, 2024, time.March, "register")
	require.NoError(t, err)

	loads := 0
	loader := func(context.Context) (any, error) {
		loads++
		return &MonthView{Year: 2024, Month: 3, Policy: "register"}, nil
	}

	var first, second MonthView
	require.NoError(t, cache.FetchJSON(ctx, key, &first, loader))
	require.NoError(t, cache.FetchJSON(ctx, key, &second, loader))
	require.Equal(t, 1, loads)
	require.Equal(t, first, second)
}

func TestServiceServesStaleUntilBump(t *testing.T) {
	cache, _ := newTestCache(t)
	m := &memoryStores{
		logs: []dailylog.Log{{Date: bizdate.MustParse("2024-04-02"), CashIncome: 100}},
	}
	svc := NewService(m, memoryExpenseStore{m}, memoryDebtStore{m}, reconcile.RegisterPolicy{}, cache)
	ctx := context.Background()

	view, err := svc.Aggregate(ctx, 2024, time.April)
	require.NoError(t, err)
	require.InDelta(t, 100, view.Totals.CashIncome, 1e-9)

	// A new log lands but the cache still holds the old month.
	m.logs = append(m.logs, dailylog.Log{Date: bizdate.MustParse("2024-04-03"), CashIncome: 50})
	view, err = svc.Aggregate(ctx, 2024, time.April)
	require.NoError(t, err)
	require.InDelta(t, 100, view.Totals.CashIncome, 1e-9)

	// The mutation path bumps the version; the next read recomputes.
	require.NoError(t, cache.Bump(ctx))
	view, err = svc.Aggregate(ctx, 2024, time.April)
	require.NoError(t, err)
	require.InDelta(t, 150, view.Totals.CashIncome, 1e-9)
}
