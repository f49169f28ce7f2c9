package twitchapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const defaultHelixBaseURL = "https://api.twitch.tv/helix"

// Stream describes a currently-live broadcast.
type Stream struct {
	Title     string
	StartedAt time.Time
}

// HelixClient provides the minimal Helix surface the session engine needs.
type HelixClient struct {
	TokenSource oauth2.TokenSource
	ClientID    string
	BaseURL     string // override in tests; defaults to the public Helix API
	HTTPClient  *http.Client
}

func (hc *HelixClient) http() *http.Client {
	if hc.HTTPClient != nil {
		return hc.HTTPClient
	}
	return http.DefaultClient
}

func (hc *HelixClient) baseURL() string {
	if hc.BaseURL != "" {
		return hc.BaseURL
	}
	return defaultHelixBaseURL
}

// GetStream returns the live stream for a channel login, or nil when the
// channel is offline.
func (hc *HelixClient) GetStream(ctx context.Context, login string) (*Stream, error) {
	if login == "" {
		return nil, fmt.Errorf("login empty")
	}
	tok, err := hc.TokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("fetch app token: %w", err)
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, hc.baseURL()+"/streams", nil)
	q := req.URL.Query()
	q.Set("user_login", login)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Client-Id", hc.ClientID)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	resp, err := hc.http().Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("helix streams: unexpected status %d", resp.StatusCode)
	}
	var body struct {
		Data []struct {
			Title     string    `json:"title"`
			StartedAt time.Time `json:"started_at"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	if len(body.Data) == 0 {
		return nil, nil
	}
	return &Stream{Title: body.Data[0].Title, StartedAt: body.Data[0].StartedAt}, nil
}

// GetUserID resolves a login name to its user ID.
func (hc *HelixClient) GetUserID(ctx context.Context, login string) (string, error) {
	if login == "" {
		return "", fmt.Errorf("login empty")
	}
	tok, err := hc.TokenSource.Token()
	if err != nil {
		return "", fmt.Errorf("fetch app token: %w", err)
	}
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, hc.baseURL()+"/users", nil)
	q := req.URL.Query()
	q.Set("login", login)
	req.URL.RawQuery = q.Encode()
	req.Header.Set("Client-Id", hc.ClientID)
	req.Header.Set("Authorization", "Bearer "+tok.AccessToken)
	resp, err := hc.http().Do(req)
	if err != nil {
		return "", err
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			slog.Warn("failed to close response body", slog.Any("err", err))
		}
	}()
	var body struct {
		Data []struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", err
	}
	if len(body.Data) == 0 {
		return "", fmt.Errorf("user not found")
	}
	return body.Data[0].ID, nil
}

// LivenessProbe adapts HelixClient to the session engine's Liveness interface.
type LivenessProbe struct {
	Client  *HelixClient
	Channel string
}

func (p *LivenessProbe) IsLive(ctx context.Context) (bool, error) {
	s, err := p.Client.GetStream(ctx, p.Channel)
	if err != nil {
		return false, err
	}
	return s != nil, nil
}
