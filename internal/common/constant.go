package common

// AccessTokenHeaderName is the gRPC metadata key that carries the access
// token as part of the realtime handshake payload.
const AccessTokenHeaderName = "access_token"

// Cookie names used for the token pair.
const (
	AccessCookieName  = "at"
	RefreshCookieName = "rt"
)

// AuthorizationHeader is the HTTP header (and gRPC metadata key, lower-cased
// by grpc) that carries "Bearer <token>".
const AuthorizationHeader = "Authorization"

// BearerPrefix precedes the token in the Authorization header.
const BearerPrefix = "Bearer "
