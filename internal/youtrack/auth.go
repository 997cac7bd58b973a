package youtrack

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

	jwt "github.com/golang-jwt/jwt/v5"
)

// TokenSource supplies the bearer credential for API calls. The client
// calls Token before every request and never manages credential lifecycle
// itself.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource wraps a permanent YouTrack token ("perm:...").
type StaticTokenSource struct {
	token string
}

func NewStaticTokenSource(token string) *StaticTokenSource {
	return &StaticTokenSource{token: token}
}

func (s *StaticTokenSource) Token(_ context.Context) (string, error) {
	if s.token == "" {
		return "", fmt.Errorf("youtrack token is empty")
	}
	return s.token, nil
}

// HubTokenSource obtains service tokens from a YouTrack Hub via the OAuth2
// client-credentials flow. Tokens are cached and refreshed with a one-minute
// safety buffer before expiry.
type HubTokenSource struct {
	hubURL       string
	clientID     string
	clientSecret string
	scope        string
	httpClient   *http.Client

	mu    sync.Mutex
	token string
	expAt time.Time
}

func NewHubTokenSource(hubURL, clientID, clientSecret string) *HubTokenSource {
	return &HubTokenSource{
		hubURL:       strings.TrimRight(hubURL, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        "YouTrack",
		httpClient:   &http.Client{Timeout: 30 * time.Second},
	}
}

type hubTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

func (s *HubTokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && time.Now().Before(s.expAt.Add(-time.Minute)) {
		return s.token, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("scope", s.scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.hubURL+"/api/rest/oauth2/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(s.clientID, s.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request hub token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("hub token HTTP %d: %s", resp.StatusCode, body)
	}

	var tok hubTokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode hub token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("hub token response without access_token")
	}

	s.token = tok.AccessToken
	s.expAt = tokenExpiry(tok)
	return s.token, nil
}

// tokenExpiry prefers the expires_in hint; Hub access tokens are JWTs, so
// when the hint is absent the exp claim is read (unverified — Hub signed it,
// we only schedule refresh from it).
func tokenExpiry(tok hubTokenResponse) time.Time {
	if tok.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	}
	if exp, ok := jwtExpiry(tok.AccessToken); ok {
		return exp
	}
	// No usable expiry: refresh again in five minutes rather than hold a
	// token of unknown lifetime.
	return time.Now().Add(5 * time.Minute)
}

func jwtExpiry(raw string) (time.Time, bool) {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(raw, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
