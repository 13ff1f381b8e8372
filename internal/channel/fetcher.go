// Package channel resolves a summary of what's currently live on the broadcaster's
// Twitch channel: the stream title, the game (i.e. category) name, and a URL for that
// game's box art.
package channel

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/nicklaw5/helix/v2"

	"github.com/golden-vcr/ttvinfo/internal/metrics"
	"github.com/golden-vcr/ttvinfo/internal/token"
)

// boxArtSizePlaceholder is the portion of a box art URL template that Twitch expects
// us to replace with the desired image dimensions
const boxArtSizePlaceholder = "-{width}x{height}"

// ErrNoData indicates that Twitch responded successfully but returned no results
var ErrNoData = errors.New("no data returned")

// Snapshot describes the current state of the channel
type Snapshot struct {
	Title string `json:"title"`
	Game  string `json:"game"`
	Art   string `json:"art"`
}

type Fetcher struct {
	broadcasterId   string
	tokens          TokenSource
	newTwitchClient NewTwitchClientFunc
	metrics         *metrics.Metrics
}

func NewFetcher(broadcasterId, clientId string, tokens TokenSource, m *metrics.Metrics) *Fetcher {
	return &Fetcher{
		broadcasterId: broadcasterId,
		tokens:        tokens,
		newTwitchClient: func(ctx context.Context, accessToken string) (TwitchClient, error) {
			return token.NewHelixClient(ctx, clientId, "", "", strings.TrimPrefix(accessToken, token.BearerPrefix))
		},
		metrics: m,
	}
}

// Fetch returns the current title, game, and box art for the channel. If we're not
// authorized to query the Twitch API, returns nil with no error.
func (f *Fetcher) Fetch(ctx context.Context) (*Snapshot, error) {
	accessToken, err := f.tokens.Evaluate(ctx)
	if err != nil {
		if errors.Is(err, token.ErrReauthorizationRequired) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get Twitch access token: %w", err)
	}

	c, err := f.newTwitchClient(ctx, accessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Twitch API client: %w", err)
	}

	// Look up the channel's current title and game
	channelRes, err := c.GetChannelInformation(&helix.GetChannelInformationParams{
		BroadcasterIDs: []string{f.broadcasterId},
	})
	if err != nil {
		f.metrics.ObserveProviderFailure("channels")
		return nil, &token.ProviderError{Op: "channels", Err: err}
	}
	if channelRes.StatusCode != http.StatusOK {
		f.metrics.ObserveProviderFailure("channels")
		return nil, &token.ProviderError{Op: "channels", StatusCode: channelRes.StatusCode, Message: channelRes.ErrorMessage}
	}
	if len(channelRes.Data.Channels) == 0 {
		return nil, fmt.Errorf("channel %s: %w", f.broadcasterId, ErrNoData)
	}
	info := channelRes.Data.Channels[0]

	// Look up the box art for that game
	gamesRes, err := c.GetGames(&helix.GamesParams{
		IDs: []string{info.GameID},
	})
	if err != nil {
		f.metrics.ObserveProviderFailure("games")
		return nil, &token.ProviderError{Op: "games", Err: err}
	}
	if gamesRes.StatusCode != http.StatusOK {
		f.metrics.ObserveProviderFailure("games")
		return nil, &token.ProviderError{Op: "games", StatusCode: gamesRes.StatusCode, Message: gamesRes.ErrorMessage}
	}
	if len(gamesRes.Data.Games) == 0 {
		return nil, fmt.Errorf("game %s: %w", info.GameID, ErrNoData)
	}

	return &Snapshot{
		Title: info.Title,
		Game:  info.GameName,
		Art:   FormatBoxArtURL(gamesRes.Data.Games[0].BoxArtURL),
	}, nil
}

// FormatBoxArtURL converts a box art URL template, e.g.
// "https://example.com/42-{width}x{height}.jpg", into a concrete URL for the
// full-size image, e.g. "https://example.com/42.jpg"
func FormatBoxArtURL(template string) string {
	prefix, _, _ := strings.Cut(template, boxArtSizePlaceholder)
	return prefix + ".jpg"
}
