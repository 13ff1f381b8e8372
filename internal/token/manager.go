package token

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/nicklaw5/helix/v2"
	"golang.org/x/exp/slog"
	"golang.org/x/sync/singleflight"

	"github.com/golden-vcr/ttvinfo/internal/credentials"
	"github.com/golden-vcr/ttvinfo/internal/metrics"
)

// BearerPrefix is the Authorization scheme label that every stored access token is
// prefixed with
const BearerPrefix = "Bearer "

type Manager struct {
	store         *credentials.Store
	newAuthClient NewAuthClientFunc
	logger        *slog.Logger
	metrics       *metrics.Metrics

	refreshGroup singleflight.Group
}

func NewManager(store *credentials.Store, clientId, clientSecret, redirectUri string, logger *slog.Logger, m *metrics.Metrics) *Manager {
	return &Manager{
		store: store,
		newAuthClient: func(ctx context.Context) (AuthClient, error) {
			return NewHelixClient(ctx, clientId, clientSecret, redirectUri, "")
		},
		logger:  logger,
		metrics: m,
	}
}

// Evaluate returns a valid access token, formatted as an Authorization header value.
// The stored token is returned unchanged if Twitch reports that it's still valid;
// otherwise it's refreshed. Returns ErrReauthorizationRequired if no valid token can
// be obtained.
func (m *Manager) Evaluate(ctx context.Context) (string, error) {
	record := m.store.Get()
	if record.HasToken() {
		c, err := m.newAuthClient(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to initialize Twitch API client: %w", err)
		}
		isValid, r, err := c.ValidateToken(strings.TrimPrefix(*record.Token, BearerPrefix))
		if err != nil {
			m.metrics.ObserveProviderFailure("validate")
			return "", &ProviderError{Op: "validate", Err: err}
		}
		if isValid {
			return *record.Token, nil
		}
		if r != nil {
			m.logger.Info("Stored Twitch access token is no longer valid",
				"status", r.StatusCode,
				"message", r.ErrorMessage,
			)
		}
	}
	return m.Refresh(ctx)
}

// Refresh exchanges the stored refresh token for a new access token, persists the new
// pair of tokens, and returns the new access token formatted as an Authorization
// header value. If Twitch rejects the refresh token, it's cleared from the store and
// ErrReauthorizationRequired is returned. Concurrent calls share a single request,
// which is not canceled if the caller that started it goes away; RequestTimeout still
// bounds it.
func (m *Manager) Refresh(ctx context.Context) (string, error) {
	v, err, _ := m.refreshGroup.Do("refresh", func() (interface{}, error) {
		return m.refresh(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (m *Manager) refresh(ctx context.Context) (string, error) {
	record := m.store.Get()
	if !record.HasRefresh() {
		m.metrics.ObserveRefresh(metrics.RefreshOutcomeExhausted)
		return "", ErrReauthorizationRequired
	}
	refreshToken := *record.Refresh

	c, err := m.newAuthClient(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to initialize Twitch API client: %w", err)
	}
	r, err := c.RefreshUserAccessToken(refreshToken)
	if err != nil {
		m.metrics.ObserveRefresh(metrics.RefreshOutcomeError)
		m.metrics.ObserveProviderFailure("refresh")
		return "", &ProviderError{Op: "refresh", Err: err}
	}

	// A 400 response indicates that our refresh token is no longer valid: discard it
	// rather than retrying with it later. If the stored refresh token was replaced
	// while our request was in flight, keep the replacement.
	if r.StatusCode == http.StatusBadRequest {
		m.metrics.ObserveRefresh(metrics.RefreshOutcomeExhausted)
		m.logger.Warn("Twitch rejected refresh token; reauthorization is required",
			"message", r.ErrorMessage,
		)
		err := m.store.Update(func(record *credentials.Record) {
			if record.Refresh != nil && *record.Refresh == refreshToken {
				record.Refresh = nil
			}
		})
		if err != nil {
			return "", fmt.Errorf("failed to clear refresh token: %w", err)
		}
		return "", ErrReauthorizationRequired
	}
	if r.StatusCode != http.StatusOK {
		m.metrics.ObserveRefresh(metrics.RefreshOutcomeError)
		m.metrics.ObserveProviderFailure("refresh")
		return "", &ProviderError{Op: "refresh", StatusCode: r.StatusCode, Message: r.ErrorMessage}
	}
	if r.Data.AccessToken == "" {
		m.metrics.ObserveRefresh(metrics.RefreshOutcomeError)
		return "", ErrMissingAccessToken
	}

	if err := m.save(&r.Data); err != nil {
		m.metrics.ObserveRefresh(metrics.RefreshOutcomeError)
		return "", err
	}
	m.metrics.ObserveRefresh(metrics.RefreshOutcomeSuccess)
	m.logger.Info("Refreshed Twitch access token")
	return BearerPrefix + r.Data.AccessToken, nil
}

// ExchangeCode completes an authorization code grant flow, exchanging the code for an
// access token and refresh token, which are persisted for later use
func (m *Manager) ExchangeCode(ctx context.Context, code string) error {
	c, err := m.newAuthClient(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize Twitch API client: %w", err)
	}
	r, err := c.RequestUserAccessToken(code)
	if err != nil {
		m.metrics.ObserveProviderFailure("exchange")
		return &ProviderError{Op: "exchange", Err: err}
	}
	if r.StatusCode != http.StatusOK {
		m.metrics.ObserveProviderFailure("exchange")
		return &ProviderError{Op: "exchange", StatusCode: r.StatusCode, Message: r.ErrorMessage}
	}
	if r.Data.AccessToken == "" {
		return ErrMissingAccessToken
	}
	return m.save(&r.Data)
}

// Clear discards all stored credentials
func (m *Manager) Clear() error {
	return m.store.Update(func(record *credentials.Record) {
		record.Token = nil
		record.Refresh = nil
	})
}

// save persists the access token (as an Authorization header value) and refresh token
// from the given credentials in a single update; absent values are stored as null
func (m *Manager) save(creds *helix.AccessCredentials) error {
	var token, refresh *string
	if creds.AccessToken != "" {
		v := BearerPrefix + creds.AccessToken
		token = &v
	}
	if creds.RefreshToken != "" {
		v := creds.RefreshToken
		refresh = &v
	}
	err := m.store.Update(func(record *credentials.Record) {
		record.Token = token
		record.Refresh = refresh
	})
	if err != nil {
		return fmt.Errorf("failed to save Twitch credentials: %w", err)
	}
	return nil
}
