// Package session owns the in-memory authentication state and keeps it in step with the persisted
// session store.
//
// # State
//
// A [Controller] is either authenticated (a token is held and has not been invalidated) or not. It starts
// from whatever the store holds, so a restart with a persisted token comes up authenticated.
//
// # Operations
//
//   - [Controller.Login] : on success, holds and persists token and user; on failure, changes nothing
//   - [Controller.Register] : creates an account; never changes authentication state
//   - [Controller.Logout] : clears memory and store; idempotent
//   - [Controller.CheckAuth] : verifies a held token against the backend, logging out when it is rejected
//
// Login and Register never return Go errors. They return a [Result] whose Error field carries the backend's
// message, or a default one.
//
// The controller satisfies [services.Session], so the gateway's outbound interceptor reads the bearer token
// from it and the 401 handler calls [Controller.Invalidate].
package session
