package services

import "net/http"

// SetHTTPClient swaps the underlying HTTP client so external tests can
// install round-tripper doubles.
func (s *SpotifyService) SetHTTPClient(c *http.Client) { s.httpClient = c }

// ConfigScopes exposes the configured OAuth scopes to external tests.
func (s *SpotifyService) ConfigScopes() []string { return s.config.Scopes }
