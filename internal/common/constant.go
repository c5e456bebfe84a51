// Package common contains shared constants and sentinel errors used across
// boardpass components.
package common

// AuthorizationHeaderName is the HTTP header used to carry the bearer token
// on authenticated requests.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix prefixes the token value in the Authorization header.
const BearerPrefix = "Bearer "
