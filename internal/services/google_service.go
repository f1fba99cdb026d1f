package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"daybook/internal/config"
)

var ErrInvalidExternalAssertion = errors.New("invalid external assertion")

const (
	googleAuthURL     = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL    = "https://oauth2.googleapis.com/token"
	googleTokenInfo   = "https://oauth2.googleapis.com/tokeninfo"
	googleUserInfoURL = "https://openidconnect.googleapis.com/v1/userinfo"
)

// GoogleIdentity is the externally verified claim this service hands back:
// Google vouched for the email, we only trust that verification.
type GoogleIdentity struct {
	Email    string
	Subject  string
	Verified bool
}

type GoogleService interface {
	AuthURL(state string) string
	ExchangeCode(ctx context.Context, code string) (*GoogleIdentity, error)
	VerifyIDToken(ctx context.Context, idToken string) (*GoogleIdentity, error)
}

type googleService struct {
	cfg    config.GoogleConfig
	client *http.Client

	// endpoint overrides for tests
	authURL     string
	tokenURL    string
	tokenInfo   string
	userInfoURL string
}

func NewGoogleService(cfg config.GoogleConfig) GoogleService {
	return &googleService{
		cfg: cfg,
		// provider calls must fail fast, never hang a request
		client:      &http.Client{Timeout: 10 * time.Second},
		authURL:     googleAuthURL,
		tokenURL:    googleTokenURL,
		tokenInfo:   googleTokenInfo,
		userInfoURL: googleUserInfoURL,
	}
}

func (s *googleService) AuthURL(state string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", s.cfg.ClientID)
	q.Set("redirect_uri", s.cfg.RedirectURL)
	q.Set("scope", "openid email profile")
	q.Set("state", state)
	return s.authURL + "?" + q.Encode()
}

// ExchangeCode trades an authorization code for tokens, then resolves the
// profile. A provider rejection (4xx) means the assertion is bad; anything
// else is a dependency failure and is wrapped for a 500.
func (s *googleService) ExchangeCode(ctx context.Context, code string) (*GoogleIdentity, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", s.cfg.ClientID)
	form.Set("client_secret", s.cfg.ClientSecret)
	form.Set("redirect_uri", s.cfg.RedirectURL)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("google token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google token exchange: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, ErrInvalidExternalAssertion
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google token exchange: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("google token decode: %w", err)
	}
	if payload.AccessToken == "" {
		return nil, ErrInvalidExternalAssertion
	}

	return s.fetchUserInfo(ctx, payload.AccessToken)
}

func (s *googleService) fetchUserInfo(ctx context.Context, accessToken string) (*GoogleIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("google userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google userinfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, ErrInvalidExternalAssertion
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google userinfo: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("google userinfo decode: %w", err)
	}
	if payload.Sub == "" || payload.Email == "" {
		return nil, ErrInvalidExternalAssertion
	}
	return &GoogleIdentity{Email: payload.Email, Subject: payload.Sub, Verified: payload.EmailVerified}, nil
}

// VerifyIDToken validates a client-supplied ID token against Google's
// tokeninfo endpoint and checks the audience.
func (s *googleService) VerifyIDToken(ctx context.Context, idToken string) (*GoogleIdentity, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.tokenInfo+"?id_token="+url.QueryEscape(idToken), nil)
	if err != nil {
		return nil, fmt.Errorf("google tokeninfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google tokeninfo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return nil, ErrInvalidExternalAssertion
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google tokeninfo: unexpected status %d", resp.StatusCode)
	}

	var payload struct {
		Aud           string `json:"aud"`
		Sub           string `json:"sub"`
		Email         string `json:"email"`
		EmailVerified string `json:"email_verified"` // tokeninfo returns it as a string
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("google tokeninfo decode: %w", err)
	}
	if payload.Aud != s.cfg.ClientID || payload.Sub == "" || payload.Email == "" {
		return nil, ErrInvalidExternalAssertion
	}
	return &GoogleIdentity{
		Email:    payload.Email,
		Subject:  payload.Sub,
		Verified: payload.EmailVerified == "true",
	}, nil
}
