// Package services contains HTTP API clients for the streaming catalog.
//
// The [LibraryService] interface is the narrow surface the transfer
// pipeline depends on: authenticate, page through saved tracks, add one
// track to the saved list. Both the source and destination accounts are
// accessed through it; they differ only in credentials and scopes.
//
// The [OAuthService] interface extends [LibraryService] for OAuth providers
// so the CLI can run the authorization-code flow against a local callback
// server.
//
// Failed API calls surface as [*APIError] carrying the HTTP status, which
// callers use to separate transient failures (retry) from systemic ones
// (abort the whole job).
package services
