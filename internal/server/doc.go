// Package server provides HTTP routing, middleware, and the login flow handlers.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support. [Middleware] wraps handlers in reverse
// order (last added executes first) and only wraps handlers registered after it was added.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method patterns.
//
// # Login Flow
//
// [AuthHandler] issues the login state cookie on GET /login, checks it on GET /callback and swaps it for a
// signed session cookie. Both endpoints are rate limited per client address by [RateLimiter].
//
// # Sessions
//
// [Sessions] parses the session cookie (or a bearer token), resolves the stored credential with a bounded
// timeout and binds the resulting principal to the request. Handlers read it with [PrincipalFromContext].
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
