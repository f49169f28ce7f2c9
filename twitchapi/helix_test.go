package twitchapi

import (
	"context"
	"net/http"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/mi-thom/birthday-herald/testutil"
)

func testHelixClient(baseURL string) *HelixClient {
	return &HelixClient{
		TokenSource: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "test-token"}),
		ClientID:    "test-client-id",
		BaseURL:     baseURL,
	}
}

func TestHelixClient_GetStream(t *testing.T) {
	tests := []struct {
		name      string
		streams   []map[string]interface{}
		wantLive  bool
		wantTitle string
	}{
		{
			name: "channel live",
			streams: []map[string]interface{}{
				{"title": "birthday stream", "started_at": "2024-03-05T19:00:00Z"},
			},
			wantLive:  true,
			wantTitle: "birthday stream",
		},
		{
			name:     "channel offline",
			streams:  []map[string]interface{}{},
			wantLive: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := testutil.NewMockTwitchServer(t)
			mock.MockStreamsResponse(tt.streams)

			hc := testHelixClient(mock.URL)
			s, err := hc.GetStream(context.Background(), "streamer")
			if err != nil {
				t.Fatalf("GetStream: %v", err)
			}
			if (s != nil) != tt.wantLive {
				t.Fatalf("live = %v, want %v", s != nil, tt.wantLive)
			}
			if tt.wantLive {
				if s.Title != tt.wantTitle {
					t.Errorf("title = %q, want %q", s.Title, tt.wantTitle)
				}
				want := time.Date(2024, 3, 5, 19, 0, 0, 0, time.UTC)
				if !s.StartedAt.Equal(want) {
					t.Errorf("started_at = %v, want %v", s.StartedAt, want)
				}
			}
		})
	}
}

func TestHelixClient_GetStreamEmptyLogin(t *testing.T) {
	hc := testHelixClient("http://unused")
	if _, err := hc.GetStream(context.Background(), ""); err == nil {
		t.Fatal("expected error for empty login")
	}
}

func TestHelixClient_GetStreamServerError(t *testing.T) {
	mock := testutil.NewMockTwitchServer(t)
	// No /streams handler registered, so the mock answers 404.
	hc := testHelixClient(mock.URL)
	if _, err := hc.GetStream(context.Background(), "streamer"); err == nil {
		t.Fatal("expected error on non-200 response")
	}
}

func TestHelixClient_GetUserID(t *testing.T) {
	mock := testutil.NewMockTwitchServer(t)
	mock.Handlers["/users"] = func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("login") != "viewer" {
			t.Errorf("login query param = %q, want viewer", r.URL.Query().Get("login"))
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"12345","login":"viewer"}]}`))
	}

	hc := testHelixClient(mock.URL)
	id, err := hc.GetUserID(context.Background(), "viewer")
	if err != nil {
		t.Fatalf("GetUserID: %v", err)
	}
	if id != "12345" {
		t.Fatalf("id = %q, want 12345", id)
	}
}

func TestHelixClient_GetUserIDNotFound(t *testing.T) {
	mock := testutil.NewMockTwitchServer(t)
	mock.Handlers["/users"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}

	hc := testHelixClient(mock.URL)
	if _, err := hc.GetUserID(context.Background(), "ghost"); err == nil {
		t.Fatal("expected error for unknown login")
	}
}

func TestLivenessProbe(t *testing.T) {
	mock := testutil.NewMockTwitchServer(t)
	mock.MockStreamsResponse([]map[string]interface{}{
		{"title": "live now", "started_at": "2024-03-05T19:00:00Z"},
	})

	probe := &LivenessProbe{Client: testHelixClient(mock.URL), Channel: "streamer"}
	live, err := probe.IsLive(context.Background())
	if err != nil {
		t.Fatalf("IsLive: %v", err)
	}
	if !live {
		t.Fatal("want live = true")
	}

	mock.MockStreamsResponse([]map[string]interface{}{})
	live, err = probe.IsLive(context.Background())
	if err != nil {
		t.Fatalf("IsLive: %v", err)
	}
	if live {
		t.Fatal("want live = false when no streams returned")
	}
}
