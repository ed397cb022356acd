package catalogcache

import (
	"context"
	"errors"
	"testing"
	"time"

	"cowin-slot-mailer/internal/cowin"

	"github.com/alicebob/miniredis/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingCatalog struct {
	stateCalls    int
	districtCalls int
	err           error
}

func (c *countingCatalog) States(ctx context.Context) (*cowin.CowinStates, error) {
	c.stateCalls++
	if c.err != nil {
		return nil, c.err
	}
	return &cowin.CowinStates{States: []cowin.States{{StateID: 21, StateName: "Maharashtra"}}, TTL: 24}, nil
}

func (c *countingCatalog) Districts(ctx context.Context, stateID int) (*cowin.CowinDistricts, error) {
	c.districtCalls++
	if c.err != nil {
		return nil, c.err
	}
	return &cowin.CowinDistricts{Districts: []cowin.Districts{
		{DistrictID: 363, DistrictName: "Pune"},
		{DistrictID: 999, DistrictName: "Purnia"},
	}}, nil
}

func setup(t *testing.T) (*miniredis.Miniredis, *countingCatalog, *Cache) {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	rdb := NewRedisClient(Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })

	upstream := &countingCatalog{}
	return mr, upstream, New(rdb, upstream, time.Hour, logrus.New())
}

func TestCache_StatesServedFromRedis(t *testing.T) {
	mr, upstream, cache := setup(t)
	ctx := context.Background()

	first, err := cache.States(ctx)
	require.NoError(t, err)
	second, err := cache.States(ctx)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, upstream.stateCalls)
	assert.True(t, mr.Exists(keyPrefix+"states"))
	assert.Equal(t, time.Hour, mr.TTL(keyPrefix+"states"))
}

func TestCache_DistrictsKeepOrderAndExpire(t *testing.T) {
	mr, upstream, cache := setup(t)
	ctx := context.Background()

	_, err := cache.Districts(ctx, 21)
	require.NoError(t, err)
	cached, err := cache.Districts(ctx, 21)
	require.NoError(t, err)
	assert.Equal(t, 1, upstream.districtCalls)
	require.Len(t, cached.Districts, 2)
	assert.Equal(t, "Pune", cached.Districts[0].DistrictName)
	assert.Equal(t, "Purnia", cached.Districts[1].DistrictName)

	mr.FastForward(2 * time.Hour)
	_, err = cache.Districts(ctx, 21)
	require.NoError(t, err)
	assert.Equal(t, 2, upstream.districtCalls)
}

func TestCache_UpstreamErrorIsNotCached(t *testing.T) {
	mr, upstream, cache := setup(t)
	upstream.err = &cowin.FetchError{URL: "states", StatusCode: 403}

	_, err := cache.States(context.Background())
	var fe *cowin.FetchError
	assert.True(t, errors.As(err, &fe))
	assert.False(t, mr.Exists(keyPrefix+"states"))
}

func TestCache_CorruptEntryFallsThrough(t *testing.T) {
	mr, upstream, cache := setup(t)
	require.NoError(t, mr.Set(keyPrefix+"states", "{not json"))

	states, err := cache.States(context.Background())
	require.NoError(t, err)
	assert.Len(t, states.States, 1)
	assert.Equal(t, 1, upstream.stateCalls)
}

func TestCache_RedisDownFallsThrough(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	rdb := NewRedisClient(Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	log, hook := test.NewNullLogger()
	upstream := &countingCatalog{}
	cache := New(rdb, upstream, time.Hour, log)

	states, err := cache.States(context.Background())
	require.NoError(t, err)
	assert.Len(t, states.States, 1)
	assert.NotEmpty(t, hook.Entries)
}
