// Package twitchapi contains minimal helpers to interact with Twitch Helix
// (stream liveness) and the followage lookup API, using an app access token.
package twitchapi

import (
	"context"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/twitch"
)

// AppTokenSource returns a cached, auto-refreshing client-credentials token
// source for Helix requests.
// NOTE: this token CANNOT be used for IRC chat; chat requires a user (bot)
// OAuth token with chat:read/chat:edit scopes.
func AppTokenSource(clientID, clientSecret string) oauth2.TokenSource {
	cfg := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     twitch.Endpoint.TokenURL,
	}
	return cfg.TokenSource(context.Background())
}
