package common

// AuthorizationHeaderName carries the bearer token on HTTP requests and in
// gRPC metadata (lower-cased there).
const AuthorizationHeaderName = "Authorization"

// BearerScheme is the only accepted authorization scheme.
const BearerScheme = "Bearer"
