package common

const (
	// AccessTokenHeaderName is the gRPC metadata key carrying the identity
	// token on calls to the AccessControl service.
	AccessTokenHeaderName = "access_token"

	// AuthorizationHeader is the HTTP header carrying "Bearer <token>".
	AuthorizationHeader = "Authorization"
)
