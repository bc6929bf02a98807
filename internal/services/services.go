package services

import (
	"golang.org/x/oauth2"
)

// Session is the in-memory session the gateway is bound to.
//
// The outbound interceptor reads the current token from it, and the 401 handler invalidates it so the
// in-memory state never outlives the persisted one.
type Session interface {
	oauth2.TokenSource

	// Invalidate drops in-memory credentials without touching persisted storage.
	Invalidate()
}

// Float returns a pointer to v, for optional numeric fields whose zero value is meaningful.
func Float(v float64) *float64 {
	return &v
}
