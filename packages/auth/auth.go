// Package auth obtains the bearer token the Story Spoiler API expects on
// every story request.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/abdul-hamid-achik/storyspoiler/packages/http"
	"github.com/abdul-hamid-achik/storyspoiler/packages/story"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrNoAccessToken is returned when the login call does not yield a token.
	ErrNoAccessToken = errors.New("no access token")
	// ErrMissingCredentials is returned when username or password is empty.
	ErrMissingCredentials = errors.New("missing credentials")
)

// Credentials are used once to obtain a token.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Token is the bearer credential returned by the login endpoint.
type Token struct {
	AccessToken string
	// ExpiresAt is read from the token's exp claim when it is a JWT; zero otherwise.
	ExpiresAt time.Time
}

// IsExpired checks if the token is expired
func (t *Token) IsExpired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	// Add a small buffer (30 seconds) to account for clock skew
	return time.Now().Add(30 * time.Second).After(t.ExpiresAt)
}

// Authenticate posts creds to the login endpoint and returns the token from
// the accessToken field. A non-2xx status, an unparsable body, or a missing
// or empty accessToken all yield an error wrapping ErrNoAccessToken.
func Authenticate(ctx context.Context, client *http.Client, creds Credentials) (*Token, error) {
	if creds.Username == "" || creds.Password == "" {
		return nil, ErrMissingCredentials
	}

	resp, err := client.Post(ctx, story.AuthenticationPath, creds)
	if err != nil {
		return nil, fmt.Errorf("authentication request: %w", err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: authentication returned status %d: %s",
			ErrNoAccessToken, resp.StatusCode, truncate(resp.BodyString(), 200))
	}

	accessToken, ok := story.AccessToken(resp.Body)
	if !ok {
		return nil, fmt.Errorf("%w: accessToken missing from response: %s",
			ErrNoAccessToken, truncate(resp.BodyString(), 200))
	}

	return &Token{
		AccessToken: accessToken,
		ExpiresAt:   expiry(accessToken),
	}, nil
}

// expiry reads the exp claim without verifying the signature; the client has
// no key to verify with and only uses the value for diagnostics.
func expiry(accessToken string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max] + "..."
	}
	return s
}
