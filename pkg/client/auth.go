package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
)

const (
	// tokenPath is the workspace OIDC token endpoint.
	tokenPath = "/oidc/v1/token"

	// tokenScope requests access to all workspace APIs.
	tokenScope = "all-apis"

	// tokenRefreshSlack refreshes cached tokens ahead of their expiry so an
	// in-flight execution never polls with a token about to lapse.
	tokenRefreshSlack = time.Minute

	// tokenFallbackTTL is used when the token response carries no expiry at
	// all, neither expires_in nor an exp claim.
	tokenFallbackTTL = time.Hour
)

// tokenSource supplies a bearer token for API requests.
type tokenSource interface {
	BearerToken(ctx context.Context) (string, error)
}

// staticTokenSource returns a fixed personal access token.
type staticTokenSource struct {
	token string
}

func (s *staticTokenSource) BearerToken(_ context.Context) (string, error) {
	return s.token, nil
}

// oauthTokenSource exchanges service principal credentials for a workspace
// access token via the client-credentials grant, caching it until shortly
// before expiry. Safe for concurrent use.
type oauthTokenSource struct {
	endpoint     string
	clientID     string
	clientSecret string
	httpClient   *http.Client
	clock        clockwork.Clock

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func newOAuthTokenSource(host, clientID, clientSecret string, httpClient *http.Client, clock clockwork.Clock) *oauthTokenSource {
	return &oauthTokenSource{
		endpoint:     host + tokenPath,
		clientID:     clientID,
		clientSecret: clientSecret,
		httpClient:   httpClient,
		clock:        clock,
	}
}

func (s *oauthTokenSource) BearerToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.clock.Now().Before(s.expiry.Add(-tokenRefreshSlack)) {
		return s.token, nil
	}

	tok, expiry, err := s.fetch(ctx)
	if err != nil {
		return "", err
	}

	s.token = tok
	s.expiry = expiry
	return tok, nil
}

// fetch performs the client-credentials exchange.
func (s *oauthTokenSource) fetch(ctx context.Context) (string, time.Time, error) {
	form := url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {tokenScope},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.clientID, s.clientSecret)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("requesting oauth token: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("reading token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", time.Time{}, fmt.Errorf("oauth token request failed: status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", time.Time{}, fmt.Errorf("decoding token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", time.Time{}, fmt.Errorf("oauth token response contained no access_token")
	}

	return tr.AccessToken, s.tokenExpiry(tr), nil
}

// tokenExpiry resolves the token lifetime: expires_in when present, otherwise
// the token's own exp claim, otherwise a fixed fallback.
func (s *oauthTokenSource) tokenExpiry(tr tokenResponse) time.Time {
	if tr.ExpiresIn > 0 {
		return s.clock.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	if exp, ok := jwtExpiry(tr.AccessToken); ok {
		return exp
	}
	return s.clock.Now().Add(tokenFallbackTTL)
}

// jwtExpiry extracts the exp claim from an access token without verifying the
// signature. The token came straight from the issuer over TLS; the claim is
// only used to schedule the refresh.
func jwtExpiry(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
