package grpc

import (
	"context"
	"net/http"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/sku-codemong/codemong-Backend-02/internal/common"
	"github.com/sku-codemong/codemong-Backend-02/internal/server/auth"
)

type ctxKey string

const (
	userIDKey    ctxKey = "userID"
	expiresAtKey ctxKey = "expiresAt"
)

// ClaimsResolver verifies an access token. auth.Codec implements it.
type ClaimsResolver interface {
	ResolveAccessClaims(token string) (*auth.Claims, error)
}

// UserIDFromContext returns the identity the stream guard attached.
func UserIDFromContext(ctx context.Context) (int64, bool) {
	uid, ok := ctx.Value(userIDKey).(int64)
	return uid, ok
}

func expiresAtFromContext(ctx context.Context) (time.Time, bool) {
	t, ok := ctx.Value(expiresAtKey).(time.Time)
	return t, ok
}

type authedStream struct {
	grpc.ServerStream
	ctx context.Context
}

func (s *authedStream) Context() context.Context { return s.ctx }

// accessTokenStreamInterceptor rejects a stream before the handler runs
// unless an access token resolves. Sources in order: the access_token
// metadata, an authorization bearer, then the access cookie.
func (s *GRPCServer) accessTokenStreamInterceptor(srv any, ss grpc.ServerStream, info *grpc.StreamServerInfo, handler grpc.StreamHandler) error {
	ctx := ss.Context()

	token := accessTokenFromMetadata(ctx)
	if token == "" {
		s.logger.Info(ctx, "realtime connection rejected", "method", info.FullMethod, "reason", "missing token")
		return status.Error(codes.Unauthenticated, "missing token")
	}

	claims, err := s.resolver.ResolveAccessClaims(token)
	if err != nil {
		s.logger.Info(ctx, "realtime connection rejected", "method", info.FullMethod, "reason", "invalid token")
		return status.Error(codes.Unauthenticated, common.ErrInvalidOrExpiredToken.Error())
	}

	ctx = context.WithValue(ctx, userIDKey, claims.UserID)
	ctx = context.WithValue(ctx, expiresAtKey, claims.ExpiresAt)
	return handler(srv, &authedStream{ServerStream: ss, ctx: ctx})
}

func accessTokenFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}

	if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 && values[0] != "" {
		return values[0]
	}

	for _, v := range md.Get(common.AuthorizationHeader) {
		if t := auth.BearerToken(v); t != "" {
			return t
		}
	}

	for _, line := range md.Get("cookie") {
		cookies, err := http.ParseCookie(line)
		if err != nil {
			continue
		}
		for _, c := range cookies {
			if c.Name == common.AccessCookieName && c.Value != "" {
				return c.Value
			}
		}
	}
	return ""
}
