package api

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoSubject is returned when a token carries no "sub" claim.
var ErrNoSubject = errors.New("token has no subject")

// TokenInfo is what the client can learn from its access token locally.
type TokenInfo struct {
	// Subject is the "sub" claim; the chat server puts the user's email there.
	Subject   string
	ExpiresAt time.Time
}

// Expired reports whether the token has an expiry that lies before now.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && now.After(t.ExpiresAt)
}

// InspectToken reads the claims of a JWT access token. The signature is not
// verified; only the server can do that.
func InspectToken(token string) (TokenInfo, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("parse token: %w", err)
	}

	var info TokenInfo
	sub, err := claims.GetSubject()
	if err != nil {
		return TokenInfo{}, fmt.Errorf("parse token: %w", err)
	}
	info.Subject = sub

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return TokenInfo{}, fmt.Errorf("parse token: %w", err)
	}
	if exp != nil {
		info.ExpiresAt = exp.Time
	}
	return info, nil
}

// ResolveSelf finds the current user. It asks /users/me first and falls back
// to matching the token subject against the user directory.
func (c *Client) ResolveSelf(ctx context.Context) (User, error) {
	me, err := c.Me(ctx)
	if err == nil {
		return me, nil
	}
	if c.token == "" {
		return User{}, err
	}

	info, terr := InspectToken(c.token)
	if terr != nil {
		return User{}, errors.Join(err, terr)
	}
	if info.Subject == "" {
		return User{}, errors.Join(err, ErrNoSubject)
	}

	users, derr := c.Users(ctx)
	if derr != nil {
		return User{}, errors.Join(err, derr)
	}
	if u, ok := NewRoster(nil, users).FindByEmail(info.Subject); ok {
		c.logger.Debug("resolved current user from token subject", "user", u.ID)
		return u, nil
	}
	return User{}, fmt.Errorf("no user with email %q: %w", info.Subject, err)
}
