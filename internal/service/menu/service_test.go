package menu

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Additional-Code/brewbar/internal/cache"
	"github.com/Additional-Code/brewbar/internal/config"
	"github.com/Additional-Code/brewbar/internal/entity"
	"github.com/Additional-Code/brewbar/internal/provision"
	repo "github.com/Additional-Code/brewbar/internal/repository/menu"
	"github.com/Additional-Code/brewbar/internal/testutil"
)

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errors.New("redis down") }
func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("redis down")
}
func (brokenStore) Delete(context.Context, string) error { return nil }

func newService(t *testing.T, store cache.Store) *Service {
	t.Helper()
	conns := testutil.NewConnections(t)
	return NewService(Params{
		Repository:  repo.NewRepository(conns),
		Provisioner: provision.New(conns.Writer, provision.Options{}, nil, nil),
		Cache:       store,
		Config:      config.Config{Ledger: config.Ledger{MenuCacheTTL: time.Minute}},
	})
}

func TestList_ProvisionsAndCaches(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	svc := newService(t, store)

	items, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, items, len(provision.FallbackMenu()))

	raw, err := store.Get(ctx, cacheKey)
	require.NoError(t, err)
	assert.NotEmpty(t, raw)

	cached, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, cached, len(items))
	assert.Equal(t, items[0].Name, cached[0].Name)
	assert.True(t, items[0].Price.Equal(cached[0].Price))
}

func TestList_ServedFromCache(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	svc := newService(t, store)
	require.NoError(t, store.Set(ctx, cacheKey, []byte(`[{"id":99,"name":"Cached","category":"X","price":"1.00"}]`), time.Minute))

	items, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Cached", items[0].Name)
}

func TestList_CacheFailuresFallBackToStorage(t *testing.T) {
	svc := newService(t, brokenStore{})

	items, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, items)
	assert.IsType(t, &entity.MenuItem{}, items[0])
}
