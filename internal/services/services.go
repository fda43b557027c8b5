// package services defines interface LibraryService for interacting with HTTP APIs
package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/spotitransfer/internal/models"
	"golang.org/x/oauth2"
)

// LibraryService defines the operations the transfer pipeline needs from a
// streaming service account.
type LibraryService interface {
	// Authenticate performs OAuth or token-based authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// CurrentUser retrieves the authenticated user's profile.
	CurrentUser(ctx context.Context) (*UserProfile, error)

	// SavedTracks retrieves one page of the user's saved tracks.
	// Pages are returned in the service's order (newest first).
	SavedTracks(ctx context.Context, limit, offset int) (*SavedTrackPage, error)

	// SaveTrack adds a single track to the user's saved list.
	SaveTrack(ctx context.Context, trackID string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends LibraryService for providers using the OAuth2 authorization code flow.
type OAuthService interface {
	LibraryService

	// GetAuthURL returns the authorization URL for user login.
	GetAuthURL(state string) string

	// GetOAuthConfig returns the underlying OAuth2 configuration for token exchange.
	GetOAuthConfig() *oauth2.Config

	// CurrentToken returns the current token, including any transparent refresh.
	CurrentToken() (*oauth2.Token, error)
}

// UserProfile identifies an authenticated account.
type UserProfile struct {
	ID          string
	DisplayName string
}

// SavedTrackPage is one page of a saved-track listing.
type SavedTrackPage struct {
	Items  []models.SavedTrack
	Total  int
	Limit  int
	Offset int
	Next   bool // whether the service reports a further page
}

// APIError represents a non-2xx response from a service endpoint.
//
// StatusCode drives the caller's retry-vs-abort decision; RetryAfter is
// populated from the Retry-After header on 429 responses.
type APIError struct {
	StatusCode int
	Endpoint   string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("API error: status %d on %s (retry after %s)", e.StatusCode, e.Endpoint, e.RetryAfter)
	}
	return fmt.Sprintf("API error: status %d on %s", e.StatusCode, e.Endpoint)
}

// Retryable reports whether the failure is transient: rate limiting,
// server errors, or a request timeout.
func (e *APIError) Retryable() bool {
	switch {
	case e.StatusCode == http.StatusTooManyRequests:
		return true
	case e.StatusCode == http.StatusRequestTimeout:
		return true
	case e.StatusCode >= 500:
		return true
	}
	return false
}

// AuthFailure reports whether the failure means the account's credential
// is no longer usable. These are never retried.
func (e *APIError) AuthFailure() bool {
	return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
}

// RateLimited reports whether the service rejected the call with a 429.
func (e *APIError) RateLimited() bool {
	return e.StatusCode == http.StatusTooManyRequests
}
