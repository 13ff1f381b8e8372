package channel

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/nicklaw5/helix/v2"
	"github.com/stretchr/testify/assert"

	"github.com/golden-vcr/ttvinfo/internal/token"
)

func Test_Fetcher_Fetch(t *testing.T) {
	tests := []struct {
		name            string
		tokens          *mockTokenSource
		c               *mockTwitchClient
		want            *Snapshot
		wantErr         error
		wantProviderErr bool
	}{
		{
			"channel and game are resolved into a snapshot",
			&mockTokenSource{token: "Bearer abc"},
			&mockTwitchClient{
				channels: []helix.ChannelInformation{
					{BroadcasterID: "1337", Title: "T", GameName: "G", GameID: "42"},
				},
				games: []helix.Game{
					{ID: "42", Name: "G", BoxArtURL: "https://x/42-{width}x{height}.jpg"},
				},
			},
			&Snapshot{Title: "T", Game: "G", Art: "https://x/42.jpg"},
			nil,
			false,
		},
		{
			"no token yields nil without error",
			&mockTokenSource{err: token.ErrReauthorizationRequired},
			&mockTwitchClient{},
			nil,
			nil,
			false,
		},
		{
			"token failure is an error",
			&mockTokenSource{err: &token.ProviderError{Op: "validate", Err: errors.New("timeout")}},
			&mockTwitchClient{},
			nil,
			nil,
			true,
		},
		{
			"empty channel data is ErrNoData",
			&mockTokenSource{token: "Bearer abc"},
			&mockTwitchClient{},
			nil,
			ErrNoData,
			false,
		},
		{
			"empty game data is ErrNoData",
			&mockTokenSource{token: "Bearer abc"},
			&mockTwitchClient{
				channels: []helix.ChannelInformation{
					{BroadcasterID: "1337", Title: "T", GameName: "G", GameID: "42"},
				},
			},
			nil,
			ErrNoData,
			false,
		},
		{
			"error status from channels endpoint is a provider error",
			&mockTokenSource{token: "Bearer abc"},
			&mockTwitchClient{channelsStatus: http.StatusUnauthorized},
			nil,
			nil,
			true,
		},
		{
			"error status from games endpoint is a provider error",
			&mockTokenSource{token: "Bearer abc"},
			&mockTwitchClient{
				channels: []helix.ChannelInformation{
					{BroadcasterID: "1337", Title: "T", GameName: "G", GameID: "42"},
				},
				gamesStatus: http.StatusServiceUnavailable,
			},
			nil,
			nil,
			true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &Fetcher{
				broadcasterId: "1337",
				tokens:        tt.tokens,
				newTwitchClient: func(ctx context.Context, accessToken string) (TwitchClient, error) {
					tt.c.accessToken = accessToken
					return tt.c, nil
				},
			}
			got, err := f.Fetch(context.Background())
			assert.Equal(t, tt.want, got)
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.wantProviderErr:
				var providerErr *token.ProviderError
				assert.ErrorAs(t, err, &providerErr)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func Test_Fetcher_Fetch_requests(t *testing.T) {
	c := &mockTwitchClient{
		channels: []helix.ChannelInformation{
			{BroadcasterID: "1337", Title: "T", GameName: "G", GameID: "42"},
		},
		games: []helix.Game{
			{ID: "42", Name: "G", BoxArtURL: "https://x/42-{width}x{height}.jpg"},
		},
	}
	f := &Fetcher{
		broadcasterId: "1337",
		tokens:        &mockTokenSource{token: "Bearer abc"},
		newTwitchClient: func(ctx context.Context, accessToken string) (TwitchClient, error) {
			c.accessToken = accessToken
			return c, nil
		},
	}
	_, err := f.Fetch(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, "Bearer abc", c.accessToken)
	assert.Equal(t, []string{"1337"}, c.requestedBroadcasterIds)
	assert.Equal(t, []string{"42"}, c.requestedGameIds)
}

func Test_FormatBoxArtURL(t *testing.T) {
	tests := []struct {
		template string
		want     string
	}{
		{"https://x/42-{width}x{height}.jpg", "https://x/42.jpg"},
		{"https://static-cdn.jtvnw.net/ttv-boxart/509658-{width}x{height}.jpg", "https://static-cdn.jtvnw.net/ttv-boxart/509658.jpg"},
		{"https://x/a-{width}x{height}-{width}x{height}.jpg", "https://x/a.jpg"},
		{"https://x/no-placeholder", "https://x/no-placeholder.jpg"},
		{"", ".jpg"},
	}
	for _, tt := range tests {
		t.Run(tt.template, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatBoxArtURL(tt.template))
		})
	}
}

type mockTokenSource struct {
	token string
	err   error
}

func (m *mockTokenSource) Evaluate(ctx context.Context) (string, error) {
	return m.token, m.err
}

type mockTwitchClient struct {
	channels       []helix.ChannelInformation
	channelsStatus int
	games          []helix.Game
	gamesStatus    int

	accessToken             string
	requestedBroadcasterIds []string
	requestedGameIds        []string
}

func (m *mockTwitchClient) GetChannelInformation(params *helix.GetChannelInformationParams) (*helix.GetChannelInformationResponse, error) {
	m.requestedBroadcasterIds = append(m.requestedBroadcasterIds, params.BroadcasterIDs...)
	status := m.channelsStatus
	if status == 0 {
		status = http.StatusOK
	}
	return &helix.GetChannelInformationResponse{
		ResponseCommon: helix.ResponseCommon{StatusCode: status},
		Data: helix.ManyChannelInformation{
			Channels: m.channels,
		},
	}, nil
}

func (m *mockTwitchClient) GetGames(params *helix.GamesParams) (*helix.GamesResponse, error) {
	m.requestedGameIds = append(m.requestedGameIds, params.IDs...)
	status := m.gamesStatus
	if status == 0 {
		status = http.StatusOK
	}
	return &helix.GamesResponse{
		ResponseCommon: helix.ResponseCommon{StatusCode: status},
		Data: helix.ManyGames{
			Games: m.games,
		},
	}, nil
}
