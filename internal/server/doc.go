// Package server hosts the short-lived localhost HTTP server used during
// account authorization.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
// [Middleware] wraps handlers in reverse order (last added executes first),
// following the standard Go pattern. [BasicRouter] uses [http.ServeMux]
// internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback for one
// account at a time. Because the tool authorizes two accounts (the source
// being read from and the destination being written to), the handler carries
// an account role so the success page can tell the user which account they
// just connected. The handler validates the state parameter, exchanges the
// authorization code for tokens, and delivers the result through a channel.
// It processes exactly one callback; repeats are rejected.
//
// The server starts when the user runs an auth command, serves the single
// callback, and is shut down by the caller once the result arrives.
package server
