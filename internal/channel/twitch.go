package channel

import (
	"context"

	"github.com/nicklaw5/helix/v2"
)

// TwitchClient represents the subset of Twitch API client functionality used to look
// up the current state of a channel
type TwitchClient interface {
	GetChannelInformation(params *helix.GetChannelInformationParams) (*helix.GetChannelInformationResponse, error)
	GetGames(params *helix.GamesParams) (*helix.GamesResponse, error)
}

// NewTwitchClientFunc initializes a TwitchClient that authorizes its requests with the
// given user access token
type NewTwitchClientFunc func(ctx context.Context, accessToken string) (TwitchClient, error)

// TokenSource supplies a valid user access token, formatted as an Authorization
// header value
type TokenSource interface {
	Evaluate(ctx context.Context) (string, error)
}
