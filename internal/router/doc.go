// Package router implements the application's route table and the navigation guard that gates it.
//
// # Route Table
//
// Each [Route] carries an [Access] class. The default table ([DefaultRoutes]) is:
//   - /login, /register : guest-only
//   - /, /projects, /editor/:projectId? : authentication required
//   - anything else : redirect to /
//
// Patterns are slash-separated: literal segments, ":name" parameters, an optional trailing ":name?" and the
// catch-all "*". The table is compiled into a chi routing tree and paths are resolved with [chi.Mux.Find], so a
// literal segment beats a parameter and a parameter beats the catch-all regardless of table order.
//
// # Guards
//
// A [GuardFunc] decides whether a resolved route may be entered. [Guard] is the authentication guard and is
// always installed first; [Router.Use] appends more. Guards are evaluated in the order added and the first
// redirect wins, the same way middleware wraps handlers.
//
// Guards are pure: they never mutate session state.
//
// # Navigation
//
// [Router.Navigate] follows route and guard redirects until it reaches a route it may enter.
// [Router.ForceRedirect] skips the guards; it is what a forced logout uses.
package router
