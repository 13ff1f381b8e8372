package userauth

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/golden-vcr/ttvinfo/internal/credentials"
	"github.com/golden-vcr/ttvinfo/internal/csrf"
)

func Test_Server_handleStartAuth(t *testing.T) {
	state := csrf.NewState(clockwork.NewFakeClock(), csrf.DefaultTTL)
	s := NewServer("https://example.com/", "my-client-id", state, &mockTokenManager{}, &mockCredentials{})

	req := httptest.NewRequest(http.MethodGet, "/ttv/auth/start", nil)
	res := httptest.NewRecorder()
	s.handleStartAuth(res, req)

	assert.Equal(t, http.StatusSeeOther, res.Code)
	u, err := url.Parse(res.Header().Get("location"))
	require.NoError(t, err)
	assert.Equal(t, "id.twitch.tv", u.Host)
	assert.Equal(t, "/oauth2/authorize", u.Path)
	assert.Equal(t, "code", u.Query().Get("response_type"))
	assert.Equal(t, "my-client-id", u.Query().Get("client_id"))
	assert.Equal(t, "https://example.com/ttv/auth", u.Query().Get("redirect_uri"))

	nonce := u.Query().Get("state")
	assert.Len(t, nonce, 40)
	assert.True(t, state.Check(nonce))
}

func Test_Server_handleFinishAuth(t *testing.T) {
	tests := []struct {
		name          string
		query         func(nonce string) string
		exchangeErr   error
		wantStatus    int
		wantBody      string
		wantCodes     []string
		wantNonceLive bool
	}{
		{
			"missing state is rejected",
			func(nonce string) string { return "code=abc" },
			nil,
			400,
			"'state' value not found in URL query params",
			nil,
			true,
		},
		{
			"mismatched state is rejected",
			func(nonce string) string { return "code=abc&state=deadbeef" },
			nil,
			400,
			"CSRF token verification failed",
			nil,
			true,
		},
		{
			"missing code is rejected",
			func(nonce string) string { return "state=" + nonce },
			nil,
			400,
			"'code' value not found in URL query params",
			nil,
			true,
		},
		{
			"declined authorization reports Twitch's error",
			func(nonce string) string {
				return "error=access_denied&error_description=The+user+denied+you+access&state=" + nonce
			},
			nil,
			400,
			"The user denied you access",
			nil,
			true,
		},
		{
			"failed exchange is a 502",
			func(nonce string) string { return "code=abc&state=" + nonce },
			errors.New("twitch exchange request failed with status 400"),
			502,
			"failed to exchange authorization code",
			[]string{"abc"},
			true,
		},
		{
			"successful exchange consumes nonce",
			func(nonce string) string { return "code=abc&scope=&state=" + nonce },
			nil,
			200,
			"<!DOCTYPE html><html><head><title>OK</title></head><body><h1>Success!</h1><p>Access granted. You may close this window.</p></body></html>",
			[]string{"abc"},
			false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			state := csrf.NewState(clockwork.NewFakeClock(), csrf.DefaultTTL)
			nonce := state.Generate()
			tokens := &mockTokenManager{exchangeErr: tt.exchangeErr}
			s := NewServer("https://example.com/", "my-client-id", state, tokens, &mockCredentials{})

			req := httptest.NewRequest(http.MethodGet, "/ttv/auth?"+tt.query(nonce), nil)
			res := httptest.NewRecorder()
			s.handleFinishAuth(res, req)

			b, err := io.ReadAll(res.Body)
			assert.NoError(t, err)
			assert.Equal(t, tt.wantStatus, res.Code)
			assert.Equal(t, tt.wantBody, strings.TrimSuffix(string(b), "\n"))
			assert.Equal(t, tt.wantCodes, tokens.exchangedCodes)
			assert.Equal(t, tt.wantNonceLive, state.Check(nonce))
		})
	}
}

func Test_Server_handleGetCredentials(t *testing.T) {
	token := "Bearer abc"
	tests := []struct {
		name     string
		record   credentials.Record
		wantBody string
	}{
		{
			"no credentials",
			credentials.Record{},
			`{"hasToken":false,"hasRefresh":false}`,
		},
		{
			"token without refresh token",
			credentials.Record{Token: &token},
			`{"hasToken":true,"hasRefresh":false}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Server{credentials: &mockCredentials{record: tt.record}}
			req := httptest.NewRequest(http.MethodGet, "/ttv/credentials", nil)
			res := httptest.NewRecorder()
			s.handleGetCredentials(res, req)

			b, err := io.ReadAll(res.Body)
			assert.NoError(t, err)
			assert.Equal(t, http.StatusOK, res.Code)
			assert.Equal(t, tt.wantBody, strings.TrimSuffix(string(b), "\n"))
		})
	}
}

func Test_Server_handleDeleteCredentials(t *testing.T) {
	tokens := &mockTokenManager{}
	s := &Server{tokens: tokens}
	req := httptest.NewRequest(http.MethodDelete, "/ttv/credentials", nil)
	res := httptest.NewRecorder()
	s.handleDeleteCredentials(res, req)
	assert.Equal(t, http.StatusNoContent, res.Code)
	assert.True(t, tokens.cleared)
}

type mockTokenManager struct {
	exchangeErr    error
	exchangedCodes []string
	cleared        bool
}

func (m *mockTokenManager) ExchangeCode(ctx context.Context, code string) error {
	m.exchangedCodes = append(m.exchangedCodes, code)
	return m.exchangeErr
}

func (m *mockTokenManager) Clear() error {
	m.cleared = true
	return nil
}

type mockCredentials struct {
	record credentials.Record
}

func (m *mockCredentials) Get() credentials.Record {
	return m.record
}
