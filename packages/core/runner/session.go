package runner

import (
	"context"
	"fmt"

	"github.com/abdul-hamid-achik/storyspoiler/packages/auth"
	"github.com/abdul-hamid-achik/storyspoiler/packages/http"
	"go.uber.org/zap"
)

// Session is the authenticated client shared by every scenario in a run.
// It is not modified after OpenSession returns.
type Session struct {
	BaseURL string
	Token   *auth.Token
	Client  *http.Client
}

// OpenSession logs in with cfg.Credentials and returns a client that sends
// the bearer token on every request.
func OpenSession(ctx context.Context, cfg *Config) (*Session, error) {
	opts := clientOptions(cfg)

	login := http.NewClient(opts...)
	defer login.Close()

	token, err := auth.Authenticate(ctx, login, cfg.Credentials)
	if err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}

	logger(cfg).Debug("authenticated",
		zap.String("username", cfg.Credentials.Username),
		zap.Time("expiresAt", token.ExpiresAt))

	return &Session{
		BaseURL: cfg.BaseURL,
		Token:   token,
		Client:  http.NewClient(append(opts, http.WithBearerToken(token.AccessToken))...),
	}, nil
}

// Expired reports whether the token's exp claim has passed. Tokens without
// an exp claim never expire.
func (s *Session) Expired() bool {
	return s != nil && s.Token != nil && s.Token.IsExpired()
}

// Close releases the session's connections.
func (s *Session) Close() {
	if s != nil && s.Client != nil {
		s.Client.Close()
	}
}

func clientOptions(cfg *Config) []http.ClientOption {
	opts := []http.ClientOption{
		http.WithBaseURL(cfg.BaseURL),
		http.WithValidateSSL(!cfg.Insecure),
		http.WithLogger(cfg.Logger),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, http.WithTimeout(cfg.Timeout))
	}
	if cfg.Rate > 0 {
		opts = append(opts, http.WithRateLimit(cfg.Rate))
	}
	if cfg.Proxy != "" {
		opts = append(opts, http.WithProxy(cfg.Proxy))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, http.WithDefaultHeaders(cfg.Headers))
	}
	for _, o := range cfg.Observers {
		opts = append(opts, http.WithObserver(o))
	}
	return opts
}

func logger(cfg *Config) *zap.Logger {
	if cfg.Logger == nil {
		return zap.NewNop()
	}
	return cfg.Logger
}
