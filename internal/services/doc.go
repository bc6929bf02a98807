// Package services implements the request gateway for the iVideo backend.
//
// # Gateway
//
// [Gateway] owns a single [http.Client] configured with the backend base address and a fixed timeout
// (30s by default). Every backend endpoint is one method: parameters become query parameters (multipart
// form data for uploads), the request goes through the configured client, and the decoded body comes back.
// There is no retry or fallback anywhere in the package.
//
// # Interceptors
//
// Two [http.RoundTripper] layers wrap the base transport, always in this order:
//   - bearerTransport : before send, asks the bound [Session] for a token and sets
//     "Authorization: Bearer <token>" when one exists. No token is not an error.
//   - unauthorizedTransport : after receive, a 401 clears the persisted session
//     ([storage.ClearSession]), invalidates the bound in-memory session, and publishes
//     [events.ForceLogout] for the shells to redirect to the login surface.
//
// Interceptors observe and react; the caller still receives the error.
//
// # Error Handling
//
// Gateway methods return errors from the shared package, or an [*APIError]:
//   - [shared.ErrAPIRequest] : transport failure, or any non-2xx status
//   - [shared.ErrTimeout] : the client timeout or the context deadline elapsed
//   - [shared.ErrNotAuthenticated] : the backend answered 401
//
// [*APIError] carries the status code and the backend's "detail" message; [Detail] extracts it from any error.
//
// # Metrics
//
// Request counts by method and status, and forced logouts, are exported through a per-gateway
// Prometheus registry ([Gateway.Registry]).
package services
