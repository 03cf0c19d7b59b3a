package postgres

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"tokenPlotter/internal/model"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()
	container, err := tcpostgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		tcpostgres.WithDatabase("testdb"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	store, err := NewStore(ctx, dsn, 2)
	require.NoError(t, err)
	t.Cleanup(store.Close)

	require.NoError(t, store.Migrate(ctx))
	require.NoError(t, store.Migrate(ctx), "migrations must be idempotent")
	return store
}

func TestStorePutAndLoadTrace(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	trace := &model.Trace{
		Name:       "ETH",
		Timestamps: []int64{1100, 1200, 1300},
		Values:     []float64{2, math.Inf(1), 4},
	}
	require.NoError(t, store.PutTraces(ctx, "DAI", []*model.Trace{trace}))

	loaded, err := store.LoadTrace(ctx, "DAI", "ETH")
	require.NoError(t, err)
	assert.Equal(t, []int64{1100, 1200, 1300}, loaded.Timestamps)
	assert.Equal(t, 2.0, loaded.Values[0])
	assert.True(t, math.IsNaN(loaded.Values[1]))
	assert.Equal(t, 4.0, loaded.Values[2])
	require.NoError(t, store.VerifyTraces(ctx, "DAI", []*model.Trace{trace}))
}

func TestStorePutReplacesShorterTrace(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	full := &model.Trace{Name: "ETH", Timestamps: []int64{1100, 1200, 1300}, Values: []float64{2, 3, 4}}
	require.NoError(t, store.PutTraces(ctx, "DAI", []*model.Trace{full}))

	shorter := &model.Trace{Name: "ETH", Timestamps: []int64{1100}, Values: []float64{8}}
	require.NoError(t, store.PutTraces(ctx, "DAI", []*model.Trace{shorter}))

	loaded, err := store.LoadTrace(ctx, "DAI", "ETH")
	require.NoError(t, err)
	assert.Equal(t, []int64{1100}, loaded.Timestamps)
	assert.Equal(t, []float64{8}, loaded.Values)

	require.NoError(t, store.VerifyTraces(ctx, "DAI", []*model.Trace{shorter}))
	assert.Error(t, store.VerifyTraces(ctx, "DAI", []*model.Trace{full}))
}

func TestStoreLoadMissing(t *testing.T) {
	store := setupStore(t)
	_, err := store.LoadTrace(context.Background(), "DAI", "NOPE")
	assert.True(t, errors.Is(err, model.ErrNotFound))
}

func TestSameRatio(t *testing.T) {
	assert.True(t, sameRatio(1.5, 1.5))
	assert.False(t, sameRatio(1.5, 2))
	assert.True(t, sameRatio(math.NaN(), math.Inf(1)))
	assert.False(t, sameRatio(math.NaN(), 0))
}
