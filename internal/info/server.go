// Package info serves a summary of the broadcaster's current stream: title, game, and
// box art
package info

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/golden-vcr/server-common/entry"
	"github.com/gorilla/mux"

	"github.com/golden-vcr/ttvinfo/internal/channel"
)

// Fetcher resolves the current state of the channel, returning nil if we're not yet
// authorized to query the Twitch API
type Fetcher interface {
	Fetch(ctx context.Context) (*channel.Snapshot, error)
}

type Server struct {
	fetcher Fetcher
}

func NewServer(fetcher Fetcher) *Server {
	return &Server{
		fetcher: fetcher,
	}
}

func (s *Server) RegisterRoutes(r *mux.Router) {
	r.Path("/ttv/info").Methods("GET").HandlerFunc(s.handleGetInfo)
}

// handleGetInfo (GET /ttv/info) responds with a channel.Snapshot as JSON, or with
// null if the broadcaster has not connected their Twitch account
func (s *Server) handleGetInfo(res http.ResponseWriter, req *http.Request) {
	logger := entry.Log(req)

	snapshot, err := s.fetcher.Fetch(req.Context())
	if err != nil {
		logger.Error("Failed to fetch channel info", "error", err)
		http.Error(res, "failed to fetch channel info", http.StatusBadGateway)
		return
	}
	if snapshot == nil {
		logger.Warn("Twitch reauthorization is required to fetch channel info")
	}

	res.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(res).Encode(snapshot); err != nil {
		http.Error(res, err.Error(), http.StatusInternalServerError)
	}
}
