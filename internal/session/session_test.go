package session

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/desertthunder/ivx/internal/events"
	"github.com/desertthunder/ivx/internal/models"
	"github.com/desertthunder/ivx/internal/services"
	"github.com/desertthunder/ivx/internal/shared"
	"github.com/desertthunder/ivx/internal/storage"
	tu "github.com/desertthunder/ivx/internal/testing"
)

type fakeBackend struct {
	loginResp *models.LoginResponse
	loginErr  error
	user      *models.UserInfo
	userErr   error
	regErr    error

	loginCalls int
	meCalls    int
	regCalls   int
}

func (f *fakeBackend) Login(ctx context.Context, username, password string) (*models.LoginResponse, error) {
	f.loginCalls++
	return f.loginResp, f.loginErr
}

func (f *fakeBackend) Register(ctx context.Context, username, email, password string) (*models.UserInfo, error) {
	f.regCalls++
	if f.regErr != nil {
		return nil, f.regErr
	}
	return &models.UserInfo{ID: 9, Username: username, Email: email}, nil
}

func (f *fakeBackend) CurrentUser(ctx context.Context) (*models.UserInfo, error) {
	f.meCalls++
	return f.user, f.userErr
}

// flakyStore fails writes to one key.
type flakyStore struct {
	*storage.MemoryStore
	failKey string
}

func (f *flakyStore) Set(key, value string) error {
	if key == f.failKey {
		return errors.New("quota exceeded")
	}
	return f.MemoryStore.Set(key, value)
}

func persisted(t *testing.T, s storage.KeyValueStore) (token, user bool) {
	t.Helper()
	_, token, _ = storage.Lookup(s, storage.TokenKey)
	_, user, _ = storage.Lookup(s, storage.UserInfoKey)
	return token, user
}

func TestNew(t *testing.T) {
	t.Run("Empty Store", func(t *testing.T) {
		c := New(&fakeBackend{}, storage.NewMemoryStore())

		if c.IsAuthenticated() {
			t.Error("expected unauthenticated session")
		}
		if c.User() != nil {
			t.Error("expected no user")
		}
	})

	t.Run("Restores Token And User", func(t *testing.T) {
		store := storage.NewMemoryStore()
		store.Set(storage.TokenKey, "tok")
		store.Set(storage.UserInfoKey, `{"id":4,"username":"erin","email":"erin@example.com"}`)

		c := New(&fakeBackend{}, store)

		if !c.IsAuthenticated() {
			t.Fatal("expected authenticated session")
		}
		if u := c.User(); u == nil || u.Username != "erin" {
			t.Errorf("expected restored user erin, got %+v", u)
		}
	})

	t.Run("Token Without User", func(t *testing.T) {
		store := storage.NewMemoryStore()
		store.Set(storage.TokenKey, "tok")

		c := New(&fakeBackend{}, store)

		if !c.IsAuthenticated() {
			t.Error("expected token alone to authenticate")
		}
		if c.User() != nil {
			t.Error("expected no user")
		}
	})

	t.Run("Unreadable User Info", func(t *testing.T) {
		store := storage.NewMemoryStore()
		store.Set(storage.TokenKey, "tok")
		store.Set(storage.UserInfoKey, "{not json")

		c := New(&fakeBackend{}, store)

		if !c.IsAuthenticated() || c.User() != nil {
			t.Error("expected authenticated session with no user")
		}
	})

	t.Run("Reads Expiry From Token", func(t *testing.T) {
		fb := tu.NewFakeBackend(t)
		token := fb.IssueToken(1)
		store := storage.NewMemoryStore()
		store.Set(storage.TokenKey, token)

		c := New(&fakeBackend{}, store)

		want := time.Now().Add(tu.TokenLifetime)
		if got := c.Expiry(); got.Before(want.Add(-time.Minute)) || got.After(want.Add(time.Minute)) {
			t.Errorf("expected expiry near %v, got %v", want, got)
		}
	})

	t.Run("Opaque Token Has No Expiry", func(t *testing.T) {
		store := storage.NewMemoryStore()
		store.Set(storage.TokenKey, "opaque")

		if c := New(&fakeBackend{}, store); !c.Expiry().IsZero() {
			t.Errorf("expected zero expiry, got %v", c.Expiry())
		}
	})
}

func TestLogin(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		store := storage.NewMemoryStore()
		bus := events.NewBus(nil)
		ch, unsubscribe := bus.Subscribe()
		defer unsubscribe()

		backend := &fakeBackend{loginResp: &models.LoginResponse{
			AccessToken: "tok",
			TokenType:   "bearer",
			ExpiresIn:   3600,
			User:        models.UserInfo{ID: 1, Username: "alice"},
		}}
		c := New(backend, store, WithBus(bus), WithClock(func() time.Time { return now }))

		result := c.Login(context.Background(), "alice", "pw")

		if !result.Success || result.Error != "" {
			t.Fatalf("expected success, got %+v", result)
		}
		if result.User == nil || result.User.Username != "alice" {
			t.Errorf("expected user alice, got %+v", result.User)
		}
		if !c.IsAuthenticated() {
			t.Error("expected authenticated session")
		}
		if !c.Expiry().Equal(now.Add(time.Hour)) {
			t.Errorf("expected expiry from expires_in, got %v", c.Expiry())
		}

		token, _ := store.Get(storage.TokenKey)
		if token != "tok" {
			t.Errorf("expected persisted token, got %q", token)
		}
		raw, _ := store.Get(storage.UserInfoKey)
		var user models.UserInfo
		if err := json.Unmarshal([]byte(raw), &user); err != nil || user.Username != "alice" {
			t.Errorf("expected persisted user alice, got %q", raw)
		}

		select {
		case e := <-ch:
			if e.Kind != events.LoggedIn {
				t.Errorf("expected logged-in event, got %s", e.Kind)
			}
		default:
			t.Error("expected logged-in event")
		}
	})

	t.Run("Failure Uses Backend Detail", func(t *testing.T) {
		store := storage.NewMemoryStore()
		backend := &fakeBackend{loginErr: &services.APIError{StatusCode: 401, Detail: "incorrect username or password"}}
		c := New(backend, store)

		result := c.Login(context.Background(), "alice", "wrong")

		if result.Success {
			t.Fatal("expected failure")
		}
		if result.Error != "incorrect username or password" {
			t.Errorf("expected backend detail, got %q", result.Error)
		}
		if c.IsAuthenticated() {
			t.Error("expected session to stay unauthenticated")
		}
		if store.Len() != 0 {
			t.Error("expected nothing persisted")
		}
	})

	t.Run("Failure Without Detail", func(t *testing.T) {
		backend := &fakeBackend{loginErr: shared.ErrTimeout}
		c := New(backend, storage.NewMemoryStore())

		if result := c.Login(context.Background(), "a", "b"); result.Error != DefaultLoginError {
			t.Errorf("expected default message, got %q", result.Error)
		}
	})

	t.Run("Failure Keeps Existing Session", func(t *testing.T) {
		store := storage.NewMemoryStore()
		store.Set(storage.TokenKey, "old")
		store.Set(storage.UserInfoKey, `{"id":1}`)
		backend := &fakeBackend{loginErr: errors.New("network down")}
		c := New(backend, store)

		c.Login(context.Background(), "a", "b")

		if !c.IsAuthenticated() || store.Len() != 2 {
			t.Error("expected failed login to leave the session alone")
		}
	})

	t.Run("Empty Token", func(t *testing.T) {
		backend := &fakeBackend{loginResp: &models.LoginResponse{}}
		c := New(backend, storage.NewMemoryStore())

		if result := c.Login(context.Background(), "a", "b"); result.Success || c.IsAuthenticated() {
			t.Error("expected a response without a token to fail")
		}
	})

	t.Run("Persist Failure Rolls Back", func(t *testing.T) {
		store := &flakyStore{MemoryStore: storage.NewMemoryStore(), failKey: storage.UserInfoKey}
		backend := &fakeBackend{loginResp: &models.LoginResponse{AccessToken: "tok", User: models.UserInfo{ID: 1}}}
		c := New(backend, store)

		result := c.Login(context.Background(), "a", "b")

		if result.Success {
			t.Fatal("expected failure when the store rejects a write")
		}
		if c.IsAuthenticated() {
			t.Error("expected unauthenticated session")
		}
		if token, user := persisted(t, store); token || user {
			t.Error("expected no half-written session")
		}
	})

	t.Run("Persist Failure Keeps Previous Session", func(t *testing.T) {
		mem := storage.NewMemoryStore()
		mem.Set(storage.TokenKey, "old")
		mem.Set(storage.UserInfoKey, `{"id":1,"username":"alice"}`)
		store := &flakyStore{MemoryStore: mem, failKey: storage.UserInfoKey}
		backend := &fakeBackend{loginResp: &models.LoginResponse{AccessToken: "new", User: models.UserInfo{ID: 2, Username: "bob"}}}
		c := New(backend, store)

		result := c.Login(context.Background(), "bob", "pw")

		if result.Success {
			t.Fatal("expected failure when the store rejects a write")
		}
		if !c.IsAuthenticated() {
			t.Fatal("expected the previous session to stay authenticated")
		}
		tok, err := c.Token()
		if err != nil || tok.AccessToken != "old" {
			t.Errorf("expected in-memory token old, got %v (%v)", tok, err)
		}
		if u := c.User(); u == nil || u.ID != 1 {
			t.Errorf("expected in-memory user 1, got %+v", u)
		}
		if v, _ := mem.Get(storage.TokenKey); v != "old" {
			t.Errorf("expected persisted token old, got %q", v)
		}
		if v, _ := mem.Get(storage.UserInfoKey); v != `{"id":1,"username":"alice"}` {
			t.Errorf("expected persisted user info untouched, got %q", v)
		}

		restarted := New(backend, mem)
		if !restarted.IsAuthenticated() || restarted.User() == nil || restarted.User().ID != 1 {
			t.Error("expected a restart to restore the previous session")
		}
	})
}

func TestRegister(t *testing.T) {
	t.Run("Success Does Not Log In", func(t *testing.T) {
		store := storage.NewMemoryStore()
		c := New(&fakeBackend{}, store)

		result := c.Register(context.Background(), "frank", "frank@example.com", "pw")

		if !result.Success || result.User == nil || result.User.Username != "frank" {
			t.Fatalf("expected success with user, got %+v", result)
		}
		if c.IsAuthenticated() || store.Len() != 0 {
			t.Error("expected registration not to authenticate")
		}
	})

	t.Run("Failure Messages", func(t *testing.T) {
		withDetail := New(&fakeBackend{regErr: &services.APIError{StatusCode: 400, Detail: "username already exists"}}, storage.NewMemoryStore())
		if r := withDetail.Register(context.Background(), "a", "b", "c"); r.Error != "username already exists" {
			t.Errorf("expected backend detail, got %q", r.Error)
		}

		without := New(&fakeBackend{regErr: errors.New("boom")}, storage.NewMemoryStore())
		if r := without.Register(context.Background(), "a", "b", "c"); r.Error != DefaultRegisterError || r.Success {
			t.Errorf("expected default message, got %+v", r)
		}
	})
}

func TestLogout(t *testing.T) {
	t.Run("Clears Memory And Store", func(t *testing.T) {
		store := storage.NewMemoryStore()
		store.Set(storage.TokenKey, "tok")
		store.Set(storage.UserInfoKey, `{"id":1}`)
		bus := events.NewBus(nil)
		ch, unsubscribe := bus.Subscribe()
		defer unsubscribe()
		c := New(&fakeBackend{}, store, WithBus(bus))

		c.Logout()

		if c.IsAuthenticated() || c.User() != nil {
			t.Error("expected cleared in-memory session")
		}
		if store.Len() != 0 {
			t.Error("expected cleared store")
		}
		if _, err := c.Token(); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated from Token, got %v", err)
		}

		c.Logout()
		c.Logout()

		n := 0
		for len(ch) > 0 {
			if e := <-ch; e.Kind == events.LoggedOut {
				n++
			}
		}
		if n != 1 {
			t.Errorf("expected one logged-out event, got %d", n)
		}
	})

	t.Run("Idempotent When Logged Out", func(t *testing.T) {
		store := storage.NewMemoryStore()
		c := New(&fakeBackend{}, store)

		c.Logout()

		if c.IsAuthenticated() || store.Len() != 0 {
			t.Error("expected state unchanged")
		}
	})
}

func TestCheckAuth(t *testing.T) {
	t.Run("No Token Skips Network", func(t *testing.T) {
		backend := &fakeBackend{}
		c := New(backend, storage.NewMemoryStore())

		if c.CheckAuth(context.Background()) {
			t.Error("expected false without token")
		}
		if backend.meCalls != 0 {
			t.Errorf("expected no backend call, got %d", backend.meCalls)
		}
	})

	t.Run("Valid Token Refreshes User", func(t *testing.T) {
		store := storage.NewMemoryStore()
		store.Set(storage.TokenKey, "tok")
		backend := &fakeBackend{user: &models.UserInfo{ID: 2, Username: "gina"}}
		c := New(backend, store)

		if !c.CheckAuth(context.Background()) {
			t.Fatal("expected true for valid token")
		}
		if u := c.User(); u == nil || u.Username != "gina" {
			t.Errorf("expected user gina, got %+v", u)
		}
	})

	t.Run("Rejected Token Logs Out", func(t *testing.T) {
		store := storage.NewMemoryStore()
		store.Set(storage.TokenKey, "tok")
		store.Set(storage.UserInfoKey, `{"id":1}`)
		backend := &fakeBackend{userErr: &services.APIError{StatusCode: 401}}
		c := New(backend, store)

		if c.CheckAuth(context.Background()) {
			t.Fatal("expected false for rejected token")
		}
		if c.IsAuthenticated() {
			t.Error("expected in-memory session cleared")
		}
		if token, user := persisted(t, store); token || user {
			t.Error("expected persisted session cleared")
		}
	})
}

func TestToken(t *testing.T) {
	store := storage.NewMemoryStore()
	store.Set(storage.TokenKey, "tok")
	c := New(&fakeBackend{}, store)

	tok, err := c.Token()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if tok.AccessToken != "tok" || tok.Type() != "Bearer" {
		t.Errorf("unexpected token %+v", tok)
	}

	c.Invalidate()

	if c.IsAuthenticated() {
		t.Error("expected Invalidate to clear the flag")
	}
	if v, _ := store.Get(storage.TokenKey); v != "tok" {
		t.Error("expected Invalidate to leave the store alone")
	}
}

func TestWithGateway(t *testing.T) {
	setup := func(t *testing.T, store storage.KeyValueStore) (*tu.FakeBackend, *Controller, <-chan events.Event) {
		t.Helper()
		fb := tu.NewFakeBackend(t)
		fb.AddUser("hana", "hana@example.com", "pw")

		bus := events.NewBus(nil)
		ch, unsubscribe := bus.Subscribe()
		t.Cleanup(unsubscribe)

		gw := services.NewGateway(services.GatewayOpts{BaseURL: fb.URL(), Store: store, Bus: bus})
		c := New(gw, store, WithBus(bus))
		gw.Bind(c)
		return fb, c, ch
	}

	t.Run("Login Then Authenticated Requests", func(t *testing.T) {
		store := storage.NewMemoryStore()
		fb, c, _ := setup(t, store)

		if r := c.Login(context.Background(), "hana", "pw"); !r.Success {
			t.Fatalf("expected login success, got %q", r.Error)
		}
		if !c.CheckAuth(context.Background()) {
			t.Fatal("expected session check to pass")
		}

		req, _ := fb.Last("/api/auth/me")
		token, _ := store.Get(storage.TokenKey)
		if req.Authorization != "Bearer "+token {
			t.Errorf("expected bearer header with persisted token, got %q", req.Authorization)
		}
	})

	t.Run("Rejected Credentials", func(t *testing.T) {
		store := storage.NewMemoryStore()
		_, c, _ := setup(t, store)

		r := c.Login(context.Background(), "hana", "nope")

		if r.Success || r.Error == "" {
			t.Fatalf("expected failure with message, got %+v", r)
		}
		if c.IsAuthenticated() || store.Len() != 0 {
			t.Error("expected nothing authenticated or persisted")
		}
	})

	t.Run("Revoked Token Forces Logout", func(t *testing.T) {
		store := storage.NewMemoryStore()
		fb, c, ch := setup(t, store)
		c.Login(context.Background(), "hana", "pw")
		token, _ := store.Get(storage.TokenKey)
		fb.Revoke(token)
		for len(ch) > 0 {
			<-ch
		}

		if c.CheckAuth(context.Background()) {
			t.Fatal("expected revoked token to fail the check")
		}
		if c.IsAuthenticated() {
			t.Error("expected in-memory session cleared")
		}
		if token, user := persisted(t, store); token || user {
			t.Error("expected persisted session cleared")
		}

		forced := 0
		for len(ch) > 0 {
			if e := <-ch; e.Kind == events.ForceLogout {
				forced++
			}
		}
		if forced != 1 {
			t.Errorf("expected exactly one forced logout, got %d", forced)
		}
	})

	t.Run("Restart Restores Session", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "ivx.db")
		store, err := storage.OpenSQLiteStore(path)
		if err != nil {
			t.Fatalf("failed to open store: %v", err)
		}
		_, c, _ := setup(t, store)
		c.Login(context.Background(), "hana", "pw")
		store.Close()

		reopened, err := storage.OpenSQLiteStore(path)
		if err != nil {
			t.Fatalf("failed to reopen store: %v", err)
		}
		defer reopened.Close()

		restored := New(&fakeBackend{}, reopened)
		if !restored.IsAuthenticated() {
			t.Error("expected restored session to be authenticated")
		}
		if u := restored.User(); u == nil || u.Username != "hana" {
			t.Errorf("expected restored user hana, got %+v", u)
		}

		restored.Logout()
		again := New(&fakeBackend{}, reopened)
		if again.IsAuthenticated() {
			t.Error("expected logged-out snapshot to restore unauthenticated")
		}
	})
}
