package userauth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/golden-vcr/auth"
	"github.com/golden-vcr/server-common/entry"
	"github.com/gorilla/mux"

	"github.com/golden-vcr/ttvinfo/internal/credentials"
)

const authorizeUrl = "https://id.twitch.tv/oauth2/authorize"

// StateHelper generates and checks the CSRF nonce carried in the 'state' parameter
type StateHelper interface {
	Generate() string
	Check(candidate string) bool
	Invalidate()
}

// TokenManager exchanges authorization codes for persisted user credentials
type TokenManager interface {
	ExchangeCode(ctx context.Context, code string) error
	Clear() error
}

// CredentialsReader exposes the currently-stored credentials
type CredentialsReader interface {
	Get() credentials.Record
}

// CredentialsStatus summarizes the stored credentials without revealing them
type CredentialsStatus struct {
	HasToken   bool `json:"hasToken"`
	HasRefresh bool `json:"hasRefresh"`
}

type Server struct {
	redirectUri    string
	twitchClientId string
	state          StateHelper
	tokens         TokenManager
	credentials    CredentialsReader
}

// RedirectURI returns the URL that Twitch sends the user back to once they've
// completed the authorization flow, given the configured callback base URL (which
// should include a trailing slash)
func RedirectURI(callback string) string {
	return callback + "ttv/auth"
}

func NewServer(callback, twitchClientId string, state StateHelper, tokens TokenManager, credentials CredentialsReader) *Server {
	return &Server{
		redirectUri:    RedirectURI(callback),
		twitchClientId: twitchClientId,
		state:          state,
		tokens:         tokens,
		credentials:    credentials,
	}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Path("/ttv/auth/start").Methods("GET").HandlerFunc(s.handleStartAuth)
	r.Path("/ttv/auth").Methods("GET").HandlerFunc(s.handleFinishAuth)
}

// RegisterAdminRoutes registers endpoints that can only be called by the broadcaster
func (s *Server) RegisterAdminRoutes(c auth.Client, r *mux.Router) {
	creds := r.Path("/ttv/credentials").Subrouter()
	creds.Use(func(next http.Handler) http.Handler {
		return auth.RequireAccess(c, auth.RoleBroadcaster, next)
	})
	creds.Methods("GET").HandlerFunc(s.handleGetCredentials)
	creds.Methods("DELETE").HandlerFunc(s.handleDeleteCredentials)
}

// handleStartAuth (GET /ttv/auth/start) redirects the user to Twitch in order to
// start the authorization flow
func (s *Server) handleStartAuth(res http.ResponseWriter, req *http.Request) {
	u, err := url.Parse(authorizeUrl)
	if err != nil {
		panic(err)
	}
	q := u.Query()
	q.Add("response_type", "code")
	q.Add("client_id", s.twitchClientId)
	q.Add("redirect_uri", s.redirectUri)
	q.Add("scope", "")
	q.Add("state", s.state.Generate())
	u.RawQuery = q.Encode()

	res.Header().Set("location", u.String())
	res.WriteHeader(http.StatusSeeOther)
}

// handleFinishAuth (GET /ttv/auth) is the redirect_uri for our authorization flow:
// Twitch sends the user here with an authorization code once they've granted access
func (s *Server) handleFinishAuth(res http.ResponseWriter, req *http.Request) {
	logger := entry.Log(req)

	// Verify the CSRF token carried in the 'state' parameter
	stateValue := req.URL.Query().Get("state")
	if stateValue == "" {
		http.Error(res, "'state' value not found in URL query params", http.StatusBadRequest)
		return
	}
	if !s.state.Check(stateValue) {
		logger.Warn("Rejected authorization callback with invalid state")
		http.Error(res, "CSRF token verification failed", http.StatusBadRequest)
		return
	}

	// If the user declined, Twitch sends them back with an error and no code
	code := req.URL.Query().Get("code")
	if code == "" {
		errorDescription := req.URL.Query().Get("error_description")
		if errorDescription == "" {
			errorDescription = "'code' value not found in URL query params"
		}
		http.Error(res, errorDescription, http.StatusBadRequest)
		return
	}

	if err := s.tokens.ExchangeCode(req.Context(), code); err != nil {
		logger.Error("Failed to exchange authorization code", "error", err)
		http.Error(res, "failed to exchange authorization code", http.StatusBadGateway)
		return
	}
	s.state.Invalidate()
	logger.Info("Connected Twitch account")

	res.Header().Set("Content-Type", "text/html; charset=utf-8")
	res.Write([]byte("<!DOCTYPE html><html><head><title>OK</title></head><body><h1>Success!</h1><p>Access granted. You may close this window.</p></body></html>"))
}

// handleGetCredentials (GET /ttv/credentials) reports whether we currently hold
// Twitch credentials
func (s *Server) handleGetCredentials(res http.ResponseWriter, req *http.Request) {
	record := s.credentials.Get()
	status := CredentialsStatus{
		HasToken:   record.HasToken(),
		HasRefresh: record.HasRefresh(),
	}
	res.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(res).Encode(status); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
	}
}

// handleDeleteCredentials (DELETE /ttv/credentials) discards all stored Twitch
// credentials, requiring the authorization flow to be run again
func (s *Server) handleDeleteCredentials(res http.ResponseWriter, req *http.Request) {
	logger := entry.Log(req)
	if err := s.tokens.Clear(); err != nil {
		logger.Error("Failed to clear Twitch credentials", "error", err)
		http.Error(res, err.Error(), http.StatusInternalServerError)
		return
	}
	logger.Info("Cleared Twitch credentials")
	res.WriteHeader(http.StatusNoContent)
}
