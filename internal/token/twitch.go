package token

import (
	"context"
	"net/http"
	"time"

	"github.com/nicklaw5/helix/v2"
)

// RequestTimeout bounds every request made to the Twitch API
const RequestTimeout = 10 * time.Second

// AuthClient represents the subset of Twitch API client functionality used to
// validate, refresh, and obtain user access tokens
type AuthClient interface {
	ValidateToken(accessToken string) (bool, *helix.ValidateTokenResponse, error)
	RefreshUserAccessToken(refreshToken string) (*helix.RefreshTokenResponse, error)
	RequestUserAccessToken(code string) (*helix.UserAccessTokenResponse, error)
}

// NewAuthClientFunc initializes an AuthClient whose requests are bound to ctx
type NewAuthClientFunc func(ctx context.Context) (AuthClient, error)

// NewHelixClient initializes a Twitch API client for the given app credentials,
// making requests with the given context and RequestTimeout. userAccessToken may be
// empty if the client is only used for OAuth endpoints.
func NewHelixClient(ctx context.Context, clientId, clientSecret, redirectUri, userAccessToken string) (*helix.Client, error) {
	return helix.NewClient(&helix.Options{
		ClientID:        clientId,
		ClientSecret:    clientSecret,
		RedirectURI:     redirectUri,
		UserAccessToken: userAccessToken,
		HTTPClient: &contextClient{
			ctx: ctx,
			c:   &http.Client{Timeout: RequestTimeout},
		},
	})
}

// contextClient satisfies helix.HTTPClient, binding every outgoing request to a
// context so that requests are abandoned once the caller gives up
type contextClient struct {
	ctx context.Context
	c   *http.Client
}

func (c *contextClient) Do(req *http.Request) (*http.Response, error) {
	return c.c.Do(req.WithContext(c.ctx))
}
