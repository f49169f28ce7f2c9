package twitchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

const defaultFollowBaseURL = "https://api.ocgineer.com/twitch/followage"

// FollowClient checks whether a user follows a channel via the public
// followage lookup API. The API answers {"status":200} for followers and a
// non-200 status field otherwise.
type FollowClient struct {
	BaseURL    string // override in tests
	HTTPClient *http.Client
}

func (fc *FollowClient) http() *http.Client {
	if fc.HTTPClient != nil {
		return fc.HTTPClient
	}
	return http.DefaultClient
}

func (fc *FollowClient) baseURL() string {
	if fc.BaseURL != "" {
		return fc.BaseURL
	}
	return defaultFollowBaseURL
}

// IsFollower reports whether user follows channel. Lookup failures are
// returned as errors so callers can decide whether to fail open or closed.
func (fc *FollowClient) IsFollower(ctx context.Context, channel, user string) (bool, error) {
	if channel == "" || user == "" {
		return false, fmt.Errorf("channel/user empty")
	}
	url := fmt.Sprintf("%s/%s/%s", fc.baseURL(), channel, user)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := fc.http().Do(req)
	if err != nil {
		return false, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	var body struct {
		Status int `json:"status"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("decode followage response: %w", err)
	}
	return body.Status == http.StatusOK, nil
}
