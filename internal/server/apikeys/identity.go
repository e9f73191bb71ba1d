package apikeys

import (
	"context"

	"github.com/google/uuid"
)

// ClientIdentity is the trusted identity of an authenticated caller.
type ClientIdentity struct {
	ID   uuid.UUID
	Name string
}

// Result is the outcome of validating a key. The zero value is invalid.
type Result struct {
	Valid      bool
	ClientID   uuid.UUID
	ClientName string
}

func validResult(id ClientIdentity) Result {
	return Result{Valid: true, ClientID: id.ID, ClientName: id.Name}
}

// Identity returns the client carried by a valid result.
func (r Result) Identity() ClientIdentity {
	return ClientIdentity{ID: r.ClientID, Name: r.ClientName}
}

type ctxKey struct{}

// WithClient returns a copy of ctx carrying id.
func WithClient(ctx context.Context, id ClientIdentity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// ClientFromContext returns the identity stored by WithClient.
func ClientFromContext(ctx context.Context) (ClientIdentity, bool) {
	id, ok := ctx.Value(ctxKey{}).(ClientIdentity)
	return id, ok
}
