// Package storage implements the persisted session store: a small string-keyed key/value store with
// browser local storage semantics (synchronous, survives restarts, scoped to one backend origin).
//
// Two implementations satisfy [KeyValueStore]:
//   - [MemoryStore] : map-backed, for tests and the "memory" session driver
//   - [SQLiteStore] : a local_storage table in a SQLite file
//
// The session occupies two keys, [TokenKey] and [UserInfoKey]. They are written together on login and must
// be removed together; [ClearSession] does so in one step.
package storage

import (
	"errors"
	"fmt"
)

const (
	TokenKey    = "access_token"
	UserInfoKey = "user_info"
)

// ErrNotFound is returned by [KeyValueStore.Get] when the key is absent.
var ErrNotFound = errors.New("key not found")

// KeyValueStore is the get/set/remove contract over string keys.
type KeyValueStore interface {
	Get(key string) (string, error) // Get returns [ErrNotFound] when key is absent
	Set(key, value string) error    // Set stores value under key, replacing any previous value
	Remove(key string) error        // Remove deletes key; removing an absent key is not an error
}

// BatchRemover is implemented by stores that can remove several keys atomically.
type BatchRemover interface {
	RemoveAll(keys ...string) error
}

// ClearSession removes both session keys as a single logical step.
func ClearSession(s KeyValueStore) error {
	if br, ok := s.(BatchRemover); ok {
		if err := br.RemoveAll(TokenKey, UserInfoKey); err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		return nil
	}

	var errs []error
	for _, k := range []string{TokenKey, UserInfoKey} {
		if err := s.Remove(k); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Lookup is [KeyValueStore.Get] with absence reported as ok=false instead of an error.
func Lookup(s KeyValueStore, key string) (string, bool, error) {
	v, err := s.Get(key)
	switch {
	case errors.Is(err, ErrNotFound):
		return "", false, nil
	case err != nil:
		return "", false, err
	}
	return v, true, nil
}
