package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/userdirectory/internal/common"
	"github.com/dmitrijs2005/userdirectory/internal/logging"
	"github.com/dmitrijs2005/userdirectory/internal/server/apikeys"
)

// unauthorizedMessage is the body of every rejection; callers cannot tell
// a missing key from an unknown one or a store outage.
const unauthorizedMessage = "unauthorized"

// KeyValidator resolves API keys. *apikeys.Validator satisfies it.
type KeyValidator interface {
	Validate(ctx context.Context, apiKey string) (apikeys.Result, error)
}

// APIKeyMiddleware admits a request only when it carries exactly one
// X-Api-Key header whose value resolves to a client. The client identity is
// placed in the request context. Any client headers supplied by the caller
// are removed before the request is forwarded.
func APIKeyMiddleware(v KeyValidator, l logging.Logger) func(http.Handler) http.Handler {
	logger := l.With("module", "auth")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			r.Header.Del(common.LegacyClientIDHeaderName)
			r.Header.Del(common.LegacyClientHeaderName)

			values := r.Header.Values(common.APIKeyHeaderName)
			if len(values) != 1 {
				logger.Info(ctx, "request rejected", "reason", "api key header count", "count", len(values))
				rejectUnauthorized(w)
				return
			}

			res, err := safeValidate(ctx, v, values[0])
			if err != nil || !res.Valid {
				logRejection(ctx, logger, err)
				rejectUnauthorized(w)
				return
			}

			id := res.Identity()
			annotateClient(ctx, id.Name)
			next.ServeHTTP(w, r.WithContext(apikeys.WithClient(ctx, id)))
		})
	}
}

// safeValidate turns a panic inside the validator into an error so the
// request is rejected rather than forwarded.
func safeValidate(ctx context.Context, v KeyValidator, key string) (res apikeys.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = apikeys.Result{}, fmt.Errorf("validator panic: %v", p)
		}
	}()
	return v.Validate(ctx, key)
}

func logRejection(ctx context.Context, logger logging.Logger, err error) {
	switch {
	case err == nil:
		logger.Info(ctx, "request rejected", "reason", "invalid")
	case errors.Is(err, common.ErrMissingCredential), errors.Is(err, common.ErrInvalidCredential):
		logger.Info(ctx, "request rejected", "reason", err.Error())
	default:
		logger.Error(ctx, "request rejected", "reason", "validation failed", "error", err)
	}
}

func rejectUnauthorized(w http.ResponseWriter) {
	http.Error(w, unauthorizedMessage, http.StatusUnauthorized)
}
