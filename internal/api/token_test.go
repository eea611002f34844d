package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("not-the-server-secret"))
	require.NoError(t, err)
	return token
}

func TestInspectToken(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	info, err := InspectToken(signToken(t, jwt.MapClaims{"sub": "ann@example.com", "exp": exp.Unix()}))
	require.NoError(t, err)

	assert.Equal(t, "ann@example.com", info.Subject)
	assert.True(t, exp.Equal(info.ExpiresAt))
	assert.False(t, info.Expired(time.Now()))
	assert.True(t, info.Expired(exp.Add(time.Second)))
}

func TestInspectToken_NoExpiry(t *testing.T) {
	info, err := InspectToken(signToken(t, jwt.MapClaims{"sub": "ann@example.com"}))
	require.NoError(t, err)
	assert.True(t, info.ExpiresAt.IsZero())
	assert.False(t, info.Expired(time.Now()))
}

func TestInspectToken_Garbage(t *testing.T) {
	_, err := InspectToken("definitely.not.ajwt")
	assert.Error(t, err)
}

func TestResolveSelf_UsesMe(t *testing.T) {
	_, c := newFakeAPI(t, map[string]any{
		"/users/me": `{"id":7,"username":"ann","email":"ann@example.com"}`,
	})

	u, err := c.ResolveSelf(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ann", u.Username)
}

func TestResolveSelf_FallsBackToDirectory(t *testing.T) {
	token := signToken(t, jwt.MapClaims{"sub": "bob@example.com"})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/all":
			_, _ = w.Write([]byte(`[{"id":2,"email":"ann@example.com"},{"id":3,"email":"bob@example.com"}]`))
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL, WithToken(token))
	require.NoError(t, err)

	u, err := c.ResolveSelf(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "3", u.ID.String())
}

func TestResolveSelf_WithoutTokenFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	t.Cleanup(srv.Close)

	c, err := NewClient(srv.URL)
	require.NoError(t, err)

	_, err = c.ResolveSelf(context.Background())
	var serr *StatusError
	assert.ErrorAs(t, err, &serr)
}
