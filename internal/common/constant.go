// Package common contains constants and sentinel errors shared by the
// client transport and the session engine.
package common

// AccessTokenHeaderName is the gRPC metadata key carrying the access token
// on outbound requests.
const AccessTokenHeaderName = "authorization"
