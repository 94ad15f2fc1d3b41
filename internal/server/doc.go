// Package server provides HTTP routing, middleware, sessions, and OAuth handling for the web interface.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method-qualified patterns,
// so GET / and POST / are separate routes and other methods get 405.
//
// # Sessions
//
// [SessionManager] keeps an opaque token in a signed cookie and the token to account mapping in a
// [repositories.SessionStore] (SQLite or Redis). Its middleware reloads the account on every request;
// handlers read it with [UserFrom]. Stale sessions are treated as anonymous.
//
// # OAuth Handler
//
// [OAuthHandler] implements the OAuth2 authorization code flow for one provider.
//
// The begin route stores a random state in a signed cookie (CSRF protection) and redirects to the consent page.
// The callback validates the state, resolves the code through the provider and starts a session.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
