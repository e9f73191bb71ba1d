package grpc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/userdirectory/internal/common"
	"github.com/dmitrijs2005/userdirectory/internal/server/apikeys"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

const healthServicePrefix = "/grpc.health.v1.Health/"

var apiKeyMetadataName = strings.ToLower(common.APIKeyHeaderName)

func isPublicMethod(fullMethod string) bool {
	return strings.HasPrefix(fullMethod, healthServicePrefix)
}

func (s *GRPCServer) loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	s.logger.Debug(ctx, "grpc call",
		"method", info.FullMethod,
		"code", status.Code(err).String(),
		"duration", time.Since(start),
	)
	return resp, err
}

func (s *GRPCServer) apiKeyInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	if isPublicMethod(info.FullMethod) {
		return handler(ctx, req)
	}

	ctx, err := s.authenticate(ctx)
	if err != nil {
		return nil, err
	}

	return handler(ctx, req)
}

func (s *GRPCServer) apiKeyStreamInterceptor(srv interface{}, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	if isPublicMethod(info.FullMethod) {
		return handler(srv, ss)
	}

	ctx, err := s.authenticate(ss.Context())
	if err != nil {
		return err
	}

	return handler(srv, &identityStream{ServerStream: ss, ctx: ctx})
}

// identityStream overrides the stream context with the authenticated one.
type identityStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *identityStream) Context() context.Context {
	return s.ctx
}

// authenticate resolves the x-api-key metadata entry and returns a context
// carrying the client identity. Every failure is the same Unauthenticated
// status.
func (s *GRPCServer) authenticate(ctx context.Context) (context.Context, error) {
	var values []string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		values = md.Get(apiKeyMetadataName)
	}
	if len(values) != 1 {
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	res, err := s.validate(ctx, values[0])
	if err != nil || !res.Valid {
		if err != nil {
			s.logger.Info(ctx, "grpc call rejected", "reason", err.Error())
		}
		return nil, status.Error(codes.Unauthenticated, "unauthorized")
	}

	return apikeys.WithClient(ctx, res.Identity()), nil
}

func (s *GRPCServer) validate(ctx context.Context, key string) (res apikeys.Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			res, err = apikeys.Result{}, fmt.Errorf("validator panic: %v", p)
		}
	}()
	return s.validator.Validate(ctx, key)
}
