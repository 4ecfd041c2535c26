// Package server provides HTTP routing, middleware, and OAuth handling for CLI and web interfaces.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering, so path patterns may
// use wildcards such as /convert/{id} and the exact-match suffix {$}.
//
// # Middleware
//
//   - [Logger] logs method, uri, status, size and duration of every request
//   - [Recover] turns a panicking handler into a 500
//   - [RateLimit] throttles a route per client address and answers 429 once the budget is spent
//
// # OAuth Callback Handler
//
// OAuthHandler implements the OAuth2 authorization code callback flow for `ytexport auth`.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks. A temporary HTTP server on the configured redirect
// address handles the callback and shuts down after receiving the token.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
