// Spotify API implementation of [LibraryService]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/spotitransfer/internal/models"
	"github.com/desertthunder/spotitransfer/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// Scope sets per account role. The source account only ever reads its
// library; the destination additionally writes to it.
var (
	SourceScopes = []string{"user-library-read"}
	DestScopes   = []string{"user-library-read", "user-library-modify"}
)

type followers struct {
	Total int `json:"total"`
}

// SpotifyUser represents a Spotify user profile.
type SpotifyUser struct {
	ID          string         `json:"id"`
	DisplayName string         `json:"display_name"`
	Email       string         `json:"email"`
	Country     string         `json:"country"`
	Followers   followers      `json:"followers"`
	Images      []SpotifyImage `json:"images"`
}

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	Album   SpotifyAlbum    `json:"album"`
	URI     string          `json:"uri"`
}

// SpotifySavedTrack represents a track saved in the user's library.
//
// Track is a pointer because Spotify returns null entries for tracks
// removed from the catalog since they were saved.
type SpotifySavedTrack struct {
	AddedAt string        `json:"added_at"`
	Track   *SpotifyTrack `json:"track"`
}

// SpotifyPaginatedTracks represents a paginated response of saved tracks.
type SpotifyPaginatedTracks struct {
	Items    []SpotifySavedTrack `json:"items"`
	Total    int                 `json:"total"`
	Limit    int                 `json:"limit"`
	Offset   int                 `json:"offset"`
	Next     *string             `json:"next"`
	Previous *string             `json:"previous"`
}

// SpotifyService implements the LibraryService interface for Spotify API interactions.
// Uses [oauth2] for authentication with transparent token refresh.
type SpotifyService struct {
	config      *oauth2.Config
	tokenSource oauth2.TokenSource
	httpClient  *http.Client
	credentials map[string]string
}

// NewSpotifyService creates a new Spotify service with the given OAuth2
// credentials and scopes. Scopes default to [SourceScopes].
func NewSpotifyService(credentials map[string]string, scopes ...string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("missing client_id in credentials")
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("missing client_secret in credentials")
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://127.0.0.1:8080/callback"
	}

	if len(scopes) == 0 {
		scopes = SourceScopes
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes:       scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:      config,
		httpClient:  http.DefaultClient,
		credentials: credentials,
	}, nil
}

// Authenticate performs OAuth2 authentication with Spotify.
//
// Accepts either an "access_token" (with optional "refresh_token" and
// RFC3339 "expiry" for transparent refresh) or an "auth_code" to exchange.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		token := &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
		}
		if expiry, err := time.Parse(time.RFC3339, credentials["expiry"]); err == nil {
			token.Expiry = expiry
		}
		s.AuthenticateToken(ctx, token)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("failed to exchange auth code: %w", err)
		}
		s.AuthenticateToken(ctx, token)
		return nil
	}

	return fmt.Errorf("missing access_token or auth_code in credentials")
}

// AuthenticateToken installs an existing [oauth2.Token].
//
// The token source refreshes expired tokens before each request; a failed
// refresh surfaces from API calls as [shared.ErrTokenExpired].
func (s *SpotifyService) AuthenticateToken(ctx context.Context, token *oauth2.Token) {
	s.tokenSource = s.config.TokenSource(ctx, token)
	s.httpClient = oauth2.NewClient(ctx, s.tokenSource)
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
//
// show_dialog forces the account chooser so a second account can be
// connected without logging the first one out.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("show_dialog", "true"),
	)
}

// GetOAuthConfig returns the underlying OAuth2 configuration.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// CurrentToken returns the current token from the token source, including
// any refresh that happened since authentication.
func (s *SpotifyService) CurrentToken() (*oauth2.Token, error) {
	if s.tokenSource == nil {
		return nil, shared.ErrNotAuthenticated
	}
	token, err := s.tokenSource.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	}
	return token, nil
}

// doRequest performs an authenticated HTTP request to the Spotify API.
//
// Non-2xx responses are returned as [*APIError]; a failed token refresh is
// wrapped in [shared.ErrTokenExpired].
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body any, result any) error {
	if s.tokenSource == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	apiURL := spotifyBaseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return fmt.Errorf("%w: %v", shared.ErrTokenExpired, retrieveErr)
		}
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Endpoint: endpoint}
		if resp.StatusCode == http.StatusTooManyRequests {
			if seconds, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
				apiErr.RetryAfter = time.Duration(seconds) * time.Second
			}
		}
		return apiErr
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*UserProfile, error) {
	var user SpotifyUser
	if err := s.doRequest(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}

	profile := &UserProfile{ID: user.ID, DisplayName: user.DisplayName}
	if profile.DisplayName == "" {
		profile.DisplayName = user.ID
	}
	return profile, nil
}

// SavedTracks retrieves one page of the user's saved tracks.
func (s *SpotifyService) SavedTracks(ctx context.Context, limit, offset int) (*SavedTrackPage, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/tracks?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedTracks
	if err := s.doRequest(ctx, http.MethodGet, endpoint, nil, &response); err != nil {
		return nil, err
	}

	page := &SavedTrackPage{
		Total:  response.Total,
		Limit:  response.Limit,
		Offset: response.Offset,
		Next:   response.Next != nil,
		Items:  make([]models.SavedTrack, 0, len(response.Items)),
	}

	for _, item := range response.Items {
		if item.Track == nil {
			continue
		}

		track := models.SavedTrack{
			ID:    item.Track.ID,
			Title: item.Track.Name,
			Album: item.Track.Album.Name,
		}
		if len(item.Track.Artists) > 0 {
			track.Artist = item.Track.Artists[0].Name
		}
		if addedAt, err := time.Parse(time.RFC3339, item.AddedAt); err == nil {
			track.AddedAt = addedAt
		}

		page.Items = append(page.Items, track)
	}

	return page, nil
}

// SaveTrack adds a single track to the user's saved list.
//
// One ID per call on purpose: Spotify gives no ordering guarantee within a
// batch, and the pipeline relies on insertion order.
func (s *SpotifyService) SaveTrack(ctx context.Context, trackID string) error {
	if trackID == "" {
		return fmt.Errorf("%w: empty track ID", shared.ErrInvalidArgument)
	}

	body := map[string][]string{"ids": {trackID}}
	return s.doRequest(ctx, http.MethodPut, "/me/tracks", body, nil)
}
