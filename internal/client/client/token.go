package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/profilesync/internal/client/models"
	"github.com/dmitrijs2005/profilesync/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"google.golang.org/grpc/metadata"
)

// expiryLeeway refreshes a little before the token actually expires.
const expiryLeeway = 10 * time.Second

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

// accessTokenExpiry reads exp from the token without verifying it; the
// signature is the backend's business. A zero time means unknown.
func accessTokenExpiry(token string) time.Time {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}
	}
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

func sessionExpired(s *models.Session, now time.Time) bool {
	exp := accessTokenExpiry(s.AccessToken)
	if exp.IsZero() {
		exp = s.ExpiresAt
	}
	if exp.IsZero() {
		return false
	}
	return !now.Add(expiryLeeway).Before(exp)
}
