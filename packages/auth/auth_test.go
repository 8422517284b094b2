package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	storyhttp "github.com/abdul-hamid-achik/storyspoiler/packages/http"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "/api/User/Authentication", r.URL.Path)

		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		assert.Equal(t, "vasi456", creds.Username)
		assert.Equal(t, "secret", creds.Password)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAuthenticate(t *testing.T) {
	server := loginServer(t, http.StatusOK, `{"username":"vasi456","accessToken":"opaque-token"}`)
	client := storyhttp.NewClient(storyhttp.WithBaseURL(server.URL))

	token, err := Authenticate(context.Background(), client, Credentials{Username: "vasi456", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "opaque-token", token.AccessToken)
	assert.True(t, token.ExpiresAt.IsZero())
	assert.False(t, token.IsExpired())
}

func TestAuthenticate_JWTExpiry(t *testing.T) {
	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "vasi456",
		"exp": exp.Unix(),
	}).SignedString([]byte("k"))
	require.NoError(t, err)

	server := loginServer(t, http.StatusOK, `{"accessToken":"`+signed+`"}`)
	client := storyhttp.NewClient(storyhttp.WithBaseURL(server.URL))

	token, err := Authenticate(context.Background(), client, Credentials{Username: "vasi456", Password: "secret"})
	require.NoError(t, err)
	assert.Equal(t, signed, token.AccessToken)
	assert.True(t, exp.Equal(token.ExpiresAt))
	assert.False(t, token.IsExpired())
}

func TestAuthenticate_FailsFast(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{"missing field", http.StatusOK, `{"username":"vasi456"}`},
		{"empty token", http.StatusOK, `{"accessToken":""}`},
		{"not json", http.StatusOK, `Welcome!`},
		{"rejected", http.StatusUnauthorized, `{"accessToken":"ignored"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := loginServer(t, tt.status, tt.body)
			client := storyhttp.NewClient(storyhttp.WithBaseURL(server.URL))

			token, err := Authenticate(context.Background(), client, Credentials{Username: "vasi456", Password: "secret"})
			assert.Nil(t, token)
			assert.ErrorIs(t, err, ErrNoAccessToken)
		})
	}
}

func TestAuthenticate_MissingCredentials(t *testing.T) {
	client := storyhttp.NewClient(storyhttp.WithBaseURL("http://127.0.0.1:1"))
	_, err := Authenticate(context.Background(), client, Credentials{Username: "vasi456"})
	assert.ErrorIs(t, err, ErrMissingCredentials)
}

func TestAuthenticate_TransportError(t *testing.T) {
	client := storyhttp.NewClient(storyhttp.WithBaseURL("http://127.0.0.1:1"), storyhttp.WithTimeout(time.Second))
	_, err := Authenticate(context.Background(), client, Credentials{Username: "u", Password: "p"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoAccessToken)
}

func TestToken_IsExpired(t *testing.T) {
	assert.True(t, (&Token{ExpiresAt: time.Now().Add(10 * time.Second)}).IsExpired())
	assert.False(t, (&Token{ExpiresAt: time.Now().Add(time.Minute)}).IsExpired())
}
