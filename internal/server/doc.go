// Package server provides HTTP routing, middleware, and the authorization and discovery endpoints.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
// [Server.Run] closes the listener first, then waits on [Router.Wait] so playlists still being filled can settle.
//
// # Endpoints
//
//	GET /login             → sets the state cookie, redirects to the authorization endpoint
//	GET /callback          → validates state, exchanges the code, redirects to /#access_token=...&refresh_token=...
//	GET /refresh_token     → {"access_token": ...}
//	GET /related_artists   → runs the discovery pipeline, responds once the playlist exists
//	GET /healthz           → liveness
//
// Callback failures redirect to /#error=state_mismatch or /#error=invalid_token.
// JSON endpoints answer failures with {"error": code, "message": text} using shared.ErrorCode and shared.ErrorMessage.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
