package apikeys

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/userdirectory/internal/common"
	"github.com/dmitrijs2005/userdirectory/internal/logging"
	"github.com/dmitrijs2005/userdirectory/internal/server/models"
	"golang.org/x/sync/singleflight"
)

// CredentialStore is the persistent client registry. FindByAPIKey must
// return common.ErrorNotFound when no client owns the key.
type CredentialStore interface {
	FindByAPIKey(ctx context.Context, apiKey string) (*models.Client, error)
}

// Validator checks API keys against the cache and the store.
type Validator struct {
	store   CredentialStore
	cache   *Cache
	group   singleflight.Group
	logger  logging.Logger
	metrics *Metrics
	now     func() time.Time
}

// Option configures a Validator.
type Option func(*Validator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(v *Validator) {
		v.logger = l
	}
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(v *Validator) {
		v.metrics = m
	}
}

// NewValidator returns a Validator that resolves misses through store and
// remembers hits in cache.
func NewValidator(store CredentialStore, cache *Cache, opts ...Option) *Validator {
	v := &Validator{
		store:  store,
		cache:  cache,
		logger: logging.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.logger = v.logger.With("module", "apikeys")
	return v
}

// Validate resolves apiKey to a client.
//
// The returned error explains an invalid result: common.ErrMissingCredential
// for a blank key, common.ErrInvalidCredential for an unknown key, an error
// wrapping common.ErrStoreUnavailable when the store failed, or ctx.Err()
// when the caller gave up. Only successful store lookups are cached.
func (v *Validator) Validate(ctx context.Context, apiKey string) (Result, error) {
	start := v.now()

	if strings.TrimSpace(apiKey) == "" {
		v.metrics.recordValidation(statusError, reasonEmptyKey, v.now().Sub(start))
		return Result{}, common.ErrMissingCredential
	}

	if id, ok := v.cache.Get(apiKey); ok {
		v.metrics.recordCacheHit()
		v.metrics.recordValidation(statusSuccess, reasonValid, v.now().Sub(start))
		return validResult(id), nil
	}
	v.metrics.recordCacheMiss()

	id, err := v.resolve(ctx, apiKey)
	if err != nil {
		reason := reasonStoreError
		switch {
		case errors.Is(err, common.ErrorNotFound):
			reason, err = reasonNotFound, common.ErrInvalidCredential
		case ctx.Err() != nil:
			reason, err = reasonCanceled, ctx.Err()
		default:
			v.logger.Error(ctx, "credential store lookup failed", "error", err)
			err = fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
		}
		v.metrics.recordValidation(statusError, reason, v.now().Sub(start))
		return Result{}, err
	}

	v.metrics.recordValidation(statusSuccess, reasonValid, v.now().Sub(start))
	return validResult(id), nil
}

// resolve performs the store lookup, sharing it between concurrent callers
// asking for the same key. A caller whose shared lookup failed only because
// another caller's context ended retries on its own context.
func (v *Validator) resolve(ctx context.Context, apiKey string) (ClientIdentity, error) {
	ch := v.group.DoChan(apiKey, func() (any, error) {
		return v.lookup(ctx, apiKey)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return ClientIdentity{}, ctx.Err()
	case res = <-ch:
	}

	if res.Err != nil {
		if res.Shared && isContextErr(res.Err) && ctx.Err() == nil {
			return v.lookup(ctx, apiKey)
		}
		return ClientIdentity{}, res.Err
	}
	return res.Val.(ClientIdentity), nil
}

// lookup queries the store and fills the cache. Nothing is cached once ctx
// is done. A panicking store is reported as a store failure.
func (v *Validator) lookup(ctx context.Context, apiKey string) (id ClientIdentity, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("credential store panic: %v", r)
		}
	}()

	client, err := v.store.FindByAPIKey(ctx, apiKey)
	if err != nil {
		return ClientIdentity{}, err
	}
	if err := ctx.Err(); err != nil {
		return ClientIdentity{}, err
	}

	id = ClientIdentity{ID: client.ID, Name: client.Name}
	v.cache.Add(client.APIKey, id)
	v.metrics.setCacheEntries(v.cache.Len())
	v.logger.Debug(ctx, "api key cached", "client", client.Name)

	return id, nil
}

func isContextErr(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
