package apikeys

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/userdirectory/internal/common"
	"github.com/dmitrijs2005/userdirectory/internal/server/models"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator(t *testing.T, store CredentialStore, opts ...Option) (*Validator, *Cache) {
	t.Helper()
	cache, err := NewCache(16)
	require.NoError(t, err)
	return NewValidator(store, cache, opts...), cache
}

func TestValidate_EmptyKeyNeverTouchesStoreOrCache(t *testing.T) {
	store := newFakeStore(seedClient())
	v, cache := newTestValidator(t, store)

	for _, key := range []string{"", " ", "\t\n"} {
		res, err := v.Validate(context.Background(), key)
		assert.ErrorIs(t, err, common.ErrMissingCredential)
		assert.False(t, res.Valid)
	}

	assert.Zero(t, store.calls.Load())
	assert.Zero(t, cache.Len())
}

func TestValidate_MissThenHit(t *testing.T) {
	store := newFakeStore(seedClient())
	v, cache := newTestValidator(t, store)

	res, err := v.Validate(context.Background(), seedAPIKey)
	require.NoError(t, err)
	assert.Equal(t, Result{Valid: true, ClientID: seedClientID, ClientName: seedName}, res)
	assert.EqualValues(t, 1, store.calls.Load())
	assert.Equal(t, 1, cache.Len())

	res, err = v.Validate(context.Background(), seedAPIKey)
	require.NoError(t, err)
	assert.True(t, res.Valid)
	assert.EqualValues(t, 1, store.calls.Load(), "second validation must be served from cache")
}

func TestValidate_CacheIsCaseSensitive(t *testing.T) {
	store := newFakeStore(seedClient())
	v, _ := newTestValidator(t, store)

	_, err := v.Validate(context.Background(), seedAPIKey)
	require.NoError(t, err)

	res, err := v.Validate(context.Background(), "1abeceda2razreda3klopi4dni5sinov6kolov?")
	assert.ErrorIs(t, err, common.ErrInvalidCredential)
	assert.False(t, res.Valid)
	assert.EqualValues(t, 2, store.calls.Load())
}

func TestValidate_UnknownKeyIsNotCached(t *testing.T) {
	store := newFakeStore()
	v, cache := newTestValidator(t, store)

	res, err := v.Validate(context.Background(), "Wrong!")
	assert.ErrorIs(t, err, common.ErrInvalidCredential)
	assert.False(t, res.Valid)
	assert.Zero(t, cache.Len())

	_, err = v.Validate(context.Background(), "Wrong!")
	assert.ErrorIs(t, err, common.ErrInvalidCredential)
	assert.EqualValues(t, 2, store.calls.Load(), "misses must not be cached")
}

func TestValidate_KeyProvisionedAfterMissBecomesValid(t *testing.T) {
	store := newFakeStore()
	v, _ := newTestValidator(t, store)

	_, err := v.Validate(context.Background(), seedAPIKey)
	require.ErrorIs(t, err, common.ErrInvalidCredential)

	store.put(seedClient())

	res, err := v.Validate(context.Background(), seedAPIKey)
	require.NoError(t, err)
	assert.True(t, res.Valid)
}

func TestValidate_StoreFailureIsDistinguishable(t *testing.T) {
	store := newFakeStore(seedClient())
	store.err = errors.New("connection refused")
	v, cache := newTestValidator(t, store)

	res, err := v.Validate(context.Background(), seedAPIKey)
	assert.False(t, res.Valid)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
	assert.NotErrorIs(t, err, common.ErrInvalidCredential)
	assert.ErrorContains(t, err, "connection refused")
	assert.Zero(t, cache.Len())
}

func TestValidate_StorePanicIsStoreFailure(t *testing.T) {
	store := newFakeStore(seedClient())
	store.hook = func(context.Context, int32) error { panic("driver bug") }
	v, _ := newTestValidator(t, store)

	res, err := v.Validate(context.Background(), seedAPIKey)
	assert.False(t, res.Valid)
	assert.ErrorIs(t, err, common.ErrStoreUnavailable)
}

func TestValidate_ConcurrentMissesShareOneLookup(t *testing.T) {
	release := make(chan struct{})
	store := newFakeStore(seedClient())
	store.hook = func(context.Context, int32) error {
		<-release
		return nil
	}
	v, _ := newTestValidator(t, store)

	const workers = 50
	results := make([]Result, workers)
	errs := make([]error, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = v.Validate(context.Background(), seedAPIKey)
		}(i)
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.True(t, results[i].Valid)
		assert.Equal(t, seedClientID, results[i].ClientID)
	}
	assert.EqualValues(t, 1, store.calls.Load())
}

func TestValidate_CancelledContextDoesNotCache(t *testing.T) {
	store := newFakeStore(seedClient())
	v, cache := newTestValidator(t, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := v.Validate(ctx, seedAPIKey)
	assert.False(t, res.Valid)
	assert.ErrorIs(t, err, context.Canceled)

	// the shared lookup may still be finishing in the background
	assert.Never(t, func() bool { return cache.Len() > 0 }, 50*time.Millisecond, 5*time.Millisecond)
}

func TestValidate_CancelWhileStoreBlocks(t *testing.T) {
	store := newFakeStore(seedClient())
	store.hook = func(ctx context.Context, _ int32) error {
		<-ctx.Done()
		return ctx.Err()
	}
	v, cache := newTestValidator(t, store)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := v.Validate(ctx, seedAPIKey)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.NotErrorIs(t, err, common.ErrStoreUnavailable)
	assert.Zero(t, cache.Len())
}

func TestValidate_FollowerRetriesWhenLeaderCancels(t *testing.T) {
	entered := make(chan struct{})
	store := newFakeStore(seedClient())
	store.hook = func(ctx context.Context, call int32) error {
		if call == 1 {
			close(entered)
			<-ctx.Done()
			return ctx.Err()
		}
		return nil
	}
	v, _ := newTestValidator(t, store)

	leaderCtx, cancelLeader := context.WithCancel(context.Background())
	leaderDone := make(chan error, 1)
	go func() {
		_, err := v.Validate(leaderCtx, seedAPIKey)
		leaderDone <- err
	}()
	<-entered

	followerDone := make(chan Result, 1)
	go func() {
		res, _ := v.Validate(context.Background(), seedAPIKey)
		followerDone <- res
	}()

	time.Sleep(20 * time.Millisecond)
	cancelLeader()

	assert.ErrorIs(t, <-leaderDone, context.Canceled)
	select {
	case res := <-followerDone:
		assert.True(t, res.Valid)
	case <-time.After(time.Second):
		t.Fatal("follower did not finish")
	}
}

func TestValidate_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics("test", reg)
	m.Init()

	store := newFakeStore(seedClient())
	v, _ := newTestValidator(t, store, WithMetrics(m))

	_, _ = v.Validate(context.Background(), "")
	_, _ = v.Validate(context.Background(), seedAPIKey)
	_, _ = v.Validate(context.Background(), seedAPIKey)
	_, _ = v.Validate(context.Background(), "unknown")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheHits))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.cacheMisses))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheEntries))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.validationTotal.WithLabelValues(statusSuccess, reasonValid)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationTotal.WithLabelValues(statusError, reasonEmptyKey)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.validationTotal.WithLabelValues(statusError, reasonNotFound)))
	assert.Zero(t, testutil.ToFloat64(m.validationTotal.WithLabelValues(statusError, reasonStoreError)))
}

func TestNewMetrics_NilRegistererAndDefaults(t *testing.T) {
	m := NewMetrics("", nil)
	require.NotNil(t, m)
	m.Init()

	var nilMetrics *Metrics
	assert.NotPanics(t, func() {
		nilMetrics.recordCacheHit()
		nilMetrics.recordCacheMiss()
		nilMetrics.recordValidation(statusError, reasonNotFound, time.Millisecond)
		nilMetrics.setCacheEntries(1)
	})
}

func TestValidate_CachesUnderRecordKey(t *testing.T) {
	store := newFakeStore()
	store.hook = func(context.Context, int32) error { return nil }
	store.put(&models.Client{ID: uuid.New(), APIKey: "k1", Name: "one"})
	v, cache := newTestValidator(t, store)

	_, err := v.Validate(context.Background(), "k1")
	require.NoError(t, err)

	got, ok := cache.Get("k1")
	require.True(t, ok)
	assert.Equal(t, "one", got.Name)
}
