package services_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	. "github.com/desertthunder/spotitransfer/internal/services"
	"github.com/desertthunder/spotitransfer/internal/shared"
	ytest "github.com/desertthunder/spotitransfer/internal/testing"
	"golang.org/x/oauth2"
)

// authedService returns a SpotifyService with a static token and the given transport installed.
func authedService(t *testing.T, transport http.RoundTripper) *SpotifyService {
	t.Helper()

	srv, err := NewSpotifyService(map[string]string{
		"client_id":     "test_client_id",
		"client_secret": "test_client_secret",
	})
	if err != nil {
		t.Fatalf("failed to create service: %v", err)
	}

	srv.AuthenticateToken(context.Background(), &oauth2.Token{
		AccessToken: "test_token",
		Expiry:      time.Now().Add(time.Hour),
	})
	srv.SetHTTPClient(&http.Client{Transport: transport})

	return srv
}

func TestSpotifyService(t *testing.T) {
	t.Run("NewSpotifyService", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			credentials := map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
				"redirect_uri":  "http://127.0.0.1:9999/callback",
			}

			srv, err := NewSpotifyService(credentials)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if srv == nil {
				t.Fatal("expected service to be created")
			}

			if srv.Name() != "Spotify" {
				t.Errorf("expected service name 'Spotify', got %s", srv.Name())
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_secret": "test_client_secret"})
			if err == nil {
				t.Error("expected error for missing client_id")
			}
		})

		t.Run("Missing Client Secret", func(t *testing.T) {
			_, err := NewSpotifyService(map[string]string{"client_id": "test_client_id"})
			if err == nil {
				t.Error("expected error for missing client_secret")
			}
		})

		t.Run("Default Scopes", func(t *testing.T) {
			srv, err := NewSpotifyService(map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(srv.ConfigScopes()) != 1 || srv.ConfigScopes()[0] != "user-library-read" {
				t.Errorf("expected source scopes by default, got %v", srv.ConfigScopes())
			}
		})

		t.Run("Destination Scopes", func(t *testing.T) {
			srv, err := NewSpotifyService(map[string]string{
				"client_id":     "test_client_id",
				"client_secret": "test_client_secret",
			}, DestScopes...)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			found := false
			for _, scope := range srv.ConfigScopes() {
				if scope == "user-library-modify" {
					found = true
				}
			}
			if !found {
				t.Errorf("expected user-library-modify scope, got %v", srv.ConfigScopes())
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		authURL := srv.GetAuthURL("test_state")
		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Errorf("expected auth URL to point at Spotify, got %s", authURL)
		}
		if !strings.Contains(authURL, "state=test_state") {
			t.Errorf("expected state parameter in auth URL, got %s", authURL)
		}
		if !strings.Contains(authURL, "show_dialog=true") {
			t.Errorf("expected show_dialog to force the account chooser, got %s", authURL)
		}
	})

	t.Run("Not Authenticated", func(t *testing.T) {
		srv, err := NewSpotifyService(map[string]string{
			"client_id":     "test_client_id",
			"client_secret": "test_client_secret",
		})
		if err != nil {
			t.Fatalf("failed to create service: %v", err)
		}

		if _, err := srv.SavedTracks(context.Background(), 50, 0); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})

	t.Run("SavedTracks", func(t *testing.T) {
		t.Run("Parses Page", func(t *testing.T) {
			body := `{
				"items": [
					{"added_at": "2024-03-01T10:00:00Z", "track": {"id": "t1", "name": "First", "artists": [{"id": "a1", "name": "Artist One"}], "album": {"id": "al1", "name": "Album One"}}},
					{"added_at": "2024-02-01T10:00:00Z", "track": null},
					{"added_at": "2024-01-01T10:00:00Z", "track": {"id": "t2", "name": "Second", "artists": [], "album": {"id": "al2", "name": ""}}}
				],
				"total": 120, "limit": 50, "offset": 0, "next": "https://api.spotify.com/v1/me/tracks?offset=50&limit=50"
			}`

			srv := authedService(t, ytest.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
				if req.Method != http.MethodGet {
					t.Errorf("expected GET, got %s", req.Method)
				}
				if !strings.Contains(req.URL.Path, "/me/tracks") {
					t.Errorf("unexpected path %s", req.URL.Path)
				}
				return ytest.JSONResponse(http.StatusOK, body), nil
			}))

			page, err := srv.SavedTracks(context.Background(), 50, 0)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if len(page.Items) != 2 {
				t.Fatalf("expected null track entry to be skipped, got %d items", len(page.Items))
			}
			if page.Total != 120 || !page.Next {
				t.Errorf("pagination metadata lost: total=%d next=%v", page.Total, page.Next)
			}
			if page.Items[0].ID != "t1" || page.Items[0].Artist != "Artist One" {
				t.Errorf("unexpected first item: %+v", page.Items[0])
			}
			want := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
			if !page.Items[0].AddedAt.Equal(want) {
				t.Errorf("expected added_at %v, got %v", want, page.Items[0].AddedAt)
			}
		})

		t.Run("Surfaces APIError", func(t *testing.T) {
			srv := authedService(t, ytest.NewMockRoundTripper(ytest.JSONResponse(http.StatusInternalServerError, `{}`), nil))

			_, err := srv.SavedTracks(context.Background(), 50, 0)
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if !apiErr.Retryable() {
				t.Error("expected 500 to be retryable")
			}
		})
	})

	t.Run("SaveTrack", func(t *testing.T) {
		t.Run("Sends Single ID", func(t *testing.T) {
			var gotMethod, gotBody string

			srv := authedService(t, ytest.RoundTripFunc(func(req *http.Request) (*http.Response, error) {
				gotMethod = req.Method
				data, _ := io.ReadAll(req.Body)
				gotBody = string(data)
				return ytest.JSONResponse(http.StatusOK, ``), nil
			}))

			if err := srv.SaveTrack(context.Background(), "track123"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if gotMethod != http.MethodPut {
				t.Errorf("expected PUT, got %s", gotMethod)
			}
			if !strings.Contains(gotBody, `"ids":["track123"]`) {
				t.Errorf("expected single-id body, got %s", gotBody)
			}
		})

		t.Run("Empty ID", func(t *testing.T) {
			srv := authedService(t, ytest.NewMockRoundTripper(nil, errors.New("should not be called")))
			if err := srv.SaveTrack(context.Background(), ""); err == nil {
				t.Error("expected error for empty track ID")
			}
		})

		t.Run("Rate Limit Carries Retry-After", func(t *testing.T) {
			resp := ytest.JSONResponse(http.StatusTooManyRequests, `{}`)
			resp.Header.Set("Retry-After", "7")

			srv := authedService(t, ytest.NewMockRoundTripper(resp, nil))

			err := srv.SaveTrack(context.Background(), "track123")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if !apiErr.RateLimited() {
				t.Error("expected 429 to report RateLimited")
			}
			if apiErr.RetryAfter != 7*time.Second {
				t.Errorf("expected retry-after 7s, got %v", apiErr.RetryAfter)
			}
		})

		t.Run("Unauthorized", func(t *testing.T) {
			srv := authedService(t, ytest.NewMockRoundTripper(ytest.JSONResponse(http.StatusUnauthorized, `{}`), nil))

			err := srv.SaveTrack(context.Background(), "track123")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if !apiErr.AuthFailure() {
				t.Error("expected 401 to report AuthFailure")
			}
			if apiErr.Retryable() {
				t.Error("401 must never be retryable")
			}
		})
	})

	t.Run("CurrentUser", func(t *testing.T) {
		srv := authedService(t, ytest.NewMockRoundTripper(
			ytest.JSONResponse(http.StatusOK, `{"id": "user1", "display_name": ""}`), nil))

		profile, err := srv.CurrentUser(context.Background())
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if profile.DisplayName != "user1" {
			t.Errorf("expected display name fallback to ID, got %s", profile.DisplayName)
		}
	})
}

func TestAPIError(t *testing.T) {
	cases := []struct {
		name      string
		status    int
		retryable bool
		auth      bool
	}{
		{"Server Error", http.StatusInternalServerError, true, false},
		{"Bad Gateway", http.StatusBadGateway, true, false},
		{"Timeout", http.StatusRequestTimeout, true, false},
		{"Too Many Requests", http.StatusTooManyRequests, true, false},
		{"Unauthorized", http.StatusUnauthorized, false, true},
		{"Forbidden", http.StatusForbidden, false, true},
		{"Not Found", http.StatusNotFound, false, false},
		{"Bad Request", http.StatusBadRequest, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := &APIError{StatusCode: tc.status, Endpoint: "/me/tracks"}
			if err.Retryable() != tc.retryable {
				t.Errorf("status %d: expected retryable=%v", tc.status, tc.retryable)
			}
			if err.AuthFailure() != tc.auth {
				t.Errorf("status %d: expected auth=%v", tc.status, tc.auth)
			}
			if err.Error() == "" {
				t.Error("expected non-empty error string")
			}
		})
	}
}
