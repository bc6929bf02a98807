package services

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ivx/internal/events"
	"github.com/desertthunder/ivx/internal/shared"
	"github.com/desertthunder/ivx/internal/storage"
	tu "github.com/desertthunder/ivx/internal/testing"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"golang.org/x/oauth2"
)

type fakeSession struct {
	mu          sync.Mutex
	token       string
	err         error
	invalidated int
}

func (f *fakeSession) Token() (*oauth2.Token, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	if f.token == "" {
		return nil, nil
	}
	return &oauth2.Token{AccessToken: f.token, TokenType: "bearer"}, nil
}

func (f *fakeSession) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.token = ""
	f.invalidated++
}

type fixture struct {
	gw      *Gateway
	store   *storage.MemoryStore
	bus     *events.Bus
	events  <-chan events.Event
	session *fakeSession
}

func newFixture(t *testing.T, baseURL, token string) fixture {
	t.Helper()

	store := storage.NewMemoryStore()
	bus := events.NewBus(nil)
	ch, unsubscribe := bus.Subscribe()
	t.Cleanup(unsubscribe)

	gw := NewGateway(GatewayOpts{BaseURL: baseURL, Store: store, Bus: bus})
	s := &fakeSession{token: token}
	gw.Bind(s)

	return fixture{gw: gw, store: store, bus: bus, events: ch, session: s}
}

func drain(ch <-chan events.Event) []events.Event {
	var out []events.Event
	for {
		select {
		case e := <-ch:
			out = append(out, e)
		default:
			return out
		}
	}
}

func TestGateway(t *testing.T) {
	t.Run("NewGateway", func(t *testing.T) {
		t.Run("Applies Defaults", func(t *testing.T) {
			gw := NewGateway(GatewayOpts{})

			if gw.BaseURL() != "http://localhost:8001" {
				t.Errorf("expected default base URL, got %s", gw.BaseURL())
			}
			if gw.Timeout() != 30*time.Second {
				t.Errorf("expected 30s timeout, got %v", gw.Timeout())
			}
			if gw.Registry() == nil {
				t.Error("expected a metrics registry")
			}
			if gw.loginPath != "/login" {
				t.Errorf("expected login path /login, got %s", gw.loginPath)
			}
		})

		t.Run("Trims Trailing Slash", func(t *testing.T) {
			gw := NewGateway(GatewayOpts{BaseURL: "http://example.com/", Timeout: time.Second})

			if gw.BaseURL() != "http://example.com" {
				t.Errorf("expected trimmed base URL, got %s", gw.BaseURL())
			}
			if gw.Timeout() != time.Second {
				t.Errorf("expected 1s timeout, got %v", gw.Timeout())
			}
		})
	})

	t.Run("Bearer Interceptor", func(t *testing.T) {
		t.Run("Attaches Token When Present", func(t *testing.T) {
			fb := tu.NewFakeBackend(t)
			u := fb.AddUser("alice", "alice@example.com", "secret")
			token := fb.IssueToken(u.ID)
			f := newFixture(t, fb.URL(), token)

			user, err := f.gw.CurrentUser(context.Background())
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if user.Username != "alice" {
				t.Errorf("expected alice, got %s", user.Username)
			}

			req, _ := fb.Last("/api/auth/me")
			if req.Authorization != "Bearer "+token {
				t.Errorf("expected bearer header for token, got %q", req.Authorization)
			}
		})

		t.Run("Omits Header Without Token", func(t *testing.T) {
			fb := tu.NewFakeBackend(t)
			f := newFixture(t, fb.URL(), "")

			if _, err := f.gw.Health(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			req, _ := fb.Last("/api/health")
			if req.Authorization != "" {
				t.Errorf("expected no authorization header, got %q", req.Authorization)
			}
		})

		t.Run("Omits Header When Unbound", func(t *testing.T) {
			fb := tu.NewFakeBackend(t)
			gw := NewGateway(GatewayOpts{BaseURL: fb.URL()})

			if _, err := gw.Health(context.Background()); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			req, _ := fb.Last("/api/health")
			if req.Authorization != "" {
				t.Errorf("expected no authorization header, got %q", req.Authorization)
			}
		})

		t.Run("Token Source Error Is Not Fatal", func(t *testing.T) {
			fb := tu.NewFakeBackend(t)
			f := newFixture(t, fb.URL(), "")
			f.session.err = errors.New("keychain locked")

			if _, err := f.gw.Health(context.Background()); err != nil {
				t.Fatalf("expected request to proceed unauthenticated, got %v", err)
			}
			if fb.Calls("/api/health") != 1 {
				t.Errorf("expected one request, got %d", fb.Calls("/api/health"))
			}
		})

		t.Run("Stamps Request ID Without Mutating Caller Request", func(t *testing.T) {
			mock := tu.NewMockRoundTripper(tu.JSONResponse(http.StatusOK, "{}"), nil)
			bt := &bearerTransport{next: mock, source: oauth2.StaticTokenSource(&oauth2.Token{AccessToken: "abc"})}

			req, _ := http.NewRequest(http.MethodGet, "http://example.com/api/health", nil)
			if _, err := bt.RoundTrip(req); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if req.Header.Get("Authorization") != "" {
				t.Error("expected caller request to be left untouched")
			}
			if mock.Last.Header.Get(requestIDHeader) == "" {
				t.Error("expected request id header on outgoing request")
			}
			if mock.Last.Header.Get("Authorization") != "Bearer abc" {
				t.Errorf("expected bearer header, got %q", mock.Last.Header.Get("Authorization"))
			}
		})
	})

	t.Run("Unauthorized Interceptor", func(t *testing.T) {
		t.Run("Clears Session And Forces Logout", func(t *testing.T) {
			fb := tu.NewFakeBackend(t)
			f := newFixture(t, fb.URL(), "revoked-token")
			f.store.Set(storage.TokenKey, "revoked-token")
			f.store.Set(storage.UserInfoKey, `{"id":1}`)

			_, err := f.gw.CurrentUser(context.Background())
			if err == nil {
				t.Fatal("expected error for rejected token")
			}
			if !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}

			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected 401 APIError, got %v", err)
			}
			if apiErr.Detail != "Could not validate credentials" {
				t.Errorf("expected backend detail, got %q", apiErr.Detail)
			}

			if f.store.Len() != 0 {
				t.Errorf("expected both session keys removed, %d remain", f.store.Len())
			}
			if f.session.invalidated != 1 {
				t.Errorf("expected session invalidated once, got %d", f.session.invalidated)
			}

			got := drain(f.events)
			if len(got) != 1 {
				t.Fatalf("expected exactly one event, got %d", len(got))
			}
			if got[0].Kind != events.ForceLogout || got[0].Path != "/login" {
				t.Errorf("expected force-logout to /login, got %s to %s", got[0].Kind, got[0].Path)
			}
			if !errors.Is(got[0].Cause, shared.ErrNotAuthenticated) {
				t.Errorf("expected cause to wrap ErrNotAuthenticated, got %v", got[0].Cause)
			}
			if v := testutil.ToFloat64(f.gw.metrics.forcedLogouts); v != 1 {
				t.Errorf("expected forced logout counter 1, got %v", v)
			}
		})

		t.Run("Fires For Any Operation", func(t *testing.T) {
			fb := tu.NewFakeBackend(t)
			f := newFixture(t, fb.URL(), "")

			calls := []func() error{
				func() error { _, err := f.gw.UserProjects(context.Background(), 1); return err },
				func() error { _, err := f.gw.MergeVideos(context.Background(), MergeOpts{Filenames: []string{"a.mp4"}}); return err },
				func() error { _, err := f.gw.UploadVideo(context.Background(), "a.mp4", strings.NewReader("x")); return err },
			}
			for i, call := range calls {
				if err := call(); !errors.Is(err, shared.ErrNotAuthenticated) {
					t.Errorf("call %d: expected ErrNotAuthenticated, got %v", i, err)
				}
			}

			if got := drain(f.events); len(got) != len(calls) {
				t.Errorf("expected one event per 401, got %d", len(got))
			}
		})

		t.Run("Ignores Other Statuses", func(t *testing.T) {
			fb := tu.NewFakeBackend(t)
			u := fb.AddUser("bob", "bob@example.com", "pw")
			f := newFixture(t, fb.URL(), fb.IssueToken(u.ID))
			f.store.Set(storage.TokenKey, "t")
			f.store.Set(storage.UserInfoKey, "{}")

			_, err := f.gw.Project(context.Background(), 404)
			if err == nil {
				t.Fatal("expected error for missing project")
			}
			if errors.Is(err, shared.ErrNotAuthenticated) {
				t.Error("expected 404 not to be an authentication error")
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if f.store.Len() != 2 {
				t.Errorf("expected persisted session untouched, got %d keys", f.store.Len())
			}
			if got := drain(f.events); len(got) != 0 {
				t.Errorf("expected no events, got %d", len(got))
			}
			if f.session.invalidated != 0 {
				t.Error("expected session to stay valid")
			}
		})

		t.Run("Works Without Store Or Bus", func(t *testing.T) {
			fb := tu.NewFakeBackend(t)
			gw := NewGateway(GatewayOpts{BaseURL: fb.URL()})

			if _, err := gw.CurrentUser(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
				t.Errorf("expected ErrNotAuthenticated, got %v", err)
			}
		})
	})

	t.Run("Errors", func(t *testing.T) {
		t.Run("Timeout", func(t *testing.T) {
			fb := tu.NewFakeBackend(t)
			fb.SetDelay(500 * time.Millisecond)
			gw := NewGateway(GatewayOpts{BaseURL: fb.URL(), Timeout: 20 * time.Millisecond})

			_, err := gw.Health(context.Background())
			if !errors.Is(err, shared.ErrTimeout) {
				t.Fatalf("expected ErrTimeout, got %v", err)
			}
			if v := testutil.ToFloat64(gw.metrics.requests.WithLabelValues(http.MethodGet, "timeout")); v != 1 {
				t.Errorf("expected timeout counter 1, got %v", v)
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			mock := tu.NewMockRoundTripper(nil, errors.New("connection refused"))
			gw := NewGateway(GatewayOpts{BaseURL: "http://example.com", Transport: mock})

			_, err := gw.SystemStatus(context.Background())
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			if errors.Is(err, shared.ErrTimeout) {
				t.Error("expected transport failure not to be a timeout")
			}
			if mock.Calls() != 1 {
				t.Errorf("expected a single attempt, got %d", mock.Calls())
			}
		})

		t.Run("Body Read Failure", func(t *testing.T) {
			mock := tu.NewMockRoundTripper(&http.Response{
				StatusCode: http.StatusOK,
				Body:       &tu.FailingBody{},
				Header:     make(http.Header),
			}, nil)
			gw := NewGateway(GatewayOpts{BaseURL: "http://example.com", Transport: mock})

			_, err := gw.Health(context.Background())
			if err == nil || !strings.Contains(err.Error(), "failed to read response") {
				t.Errorf("expected read failure, got %v", err)
			}
		})

		t.Run("Invalid JSON", func(t *testing.T) {
			mock := tu.NewMockRoundTripper(tu.JSONResponse(http.StatusOK, "not json"), nil)
			gw := NewGateway(GatewayOpts{BaseURL: "http://example.com", Transport: mock})

			_, err := gw.Health(context.Background())
			if err == nil || !strings.Contains(err.Error(), "failed to decode response") {
				t.Errorf("expected decode failure, got %v", err)
			}
		})

		t.Run("Detail Extraction", func(t *testing.T) {
			tests := []struct {
				name string
				body string
				want string
			}{
				{"String", `{"detail":"username already exists"}`, "username already exists"},
				{"Validation List", `{"detail":[{"loc":["query"],"msg":"field required"}]}`, "field required"},
				{"Empty List", `{"detail":[]}`, ""},
				{"Missing", `{"error":"x"}`, ""},
				{"Not JSON", `<html>`, ""},
			}
			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					if got := parseDetail([]byte(tt.body)); got != tt.want {
						t.Errorf("expected %q, got %q", tt.want, got)
					}
				})
			}
		})

		t.Run("APIError Message", func(t *testing.T) {
			withDetail := &APIError{StatusCode: 400, Detail: "bad"}
			if withDetail.Error() != "API error (status 400): bad" {
				t.Errorf("unexpected message %q", withDetail.Error())
			}

			bare := &APIError{StatusCode: 502}
			if bare.Error() != "API error: status 502" {
				t.Errorf("unexpected message %q", bare.Error())
			}

			if Detail(errors.New("plain")) != "" {
				t.Error("expected empty detail for non-API error")
			}
		})
	})

	t.Run("Operations", func(t *testing.T) {
		fb := tu.NewFakeBackend(t)
		u := fb.AddUser("carol", "carol@example.com", "pw")
		f := newFixture(t, fb.URL(), fb.IssueToken(u.ID))
		ctx := context.Background()

		t.Run("Login", func(t *testing.T) {
			resp, err := f.gw.Login(ctx, "carol", "pw")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.AccessToken == "" || resp.User.Username != "carol" {
				t.Errorf("unexpected login response %+v", resp)
			}

			req, _ := fb.Last("/api/auth/login")
			if req.Method != http.MethodPost || req.Query.Get("username") != "carol" {
				t.Errorf("expected POST with username query, got %s %v", req.Method, req.Query)
			}
		})

		t.Run("Register", func(t *testing.T) {
			user, err := f.gw.Register(ctx, "dave", "dave@example.com", "pw")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if user.Username != "dave" || user.ID == 0 {
				t.Errorf("unexpected user %+v", user)
			}

			_, err = f.gw.Register(ctx, "dave", "dave@example.com", "pw")
			if Detail(err) != "username already exists" {
				t.Errorf("expected duplicate detail, got %v", err)
			}
		})

		t.Run("Projects", func(t *testing.T) {
			created, err := f.gw.CreateProject(ctx, "Holiday", "")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			req, _ := fb.Last("/api/projects/create")
			if _, ok := req.Query["description"]; !ok {
				t.Error("expected empty description to be sent")
			}

			list, err := f.gw.UserProjects(ctx, u.ID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if list.TotalProjects != 1 || list.Projects[0].Title != "Holiday" {
				t.Errorf("unexpected project list %+v", list)
			}

			if _, err := f.gw.UploadVideo(ctx, "beach.mp4", strings.NewReader("frames")); err != nil {
				t.Fatalf("expected upload to succeed, got %v", err)
			}
			added, err := f.gw.AddVideoToProject(ctx, created.ProjectID, "beach.mp4")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if added.VideoFile.Filename != "beach.mp4" {
				t.Errorf("unexpected video %+v", added.VideoFile)
			}

			videos, err := f.gw.ProjectVideos(ctx, created.ProjectID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if videos.TotalVideos != 1 {
				t.Errorf("expected 1 video, got %d", videos.TotalVideos)
			}

			detail, err := f.gw.Project(ctx, created.ProjectID)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(detail.VideoFiles) != 1 {
				t.Errorf("expected 1 video file, got %d", len(detail.VideoFiles))
			}
		})

		t.Run("Video Defaults", func(t *testing.T) {
			tests := []struct {
				name  string
				path  string
				call  func() error
				query map[string]string
			}{
				{
					name: "Convert",
					path: "/api/video/convert",
					call: func() error {
						_, err := f.gw.ConvertVideo(ctx, ConvertOpts{Filename: "a.mp4", TargetFormat: "webm"})
						return err
					},
					query: map[string]string{"quality": "medium", "target_format": "webm"},
				},
				{
					name: "Filter",
					path: "/api/video/filter",
					call: func() error {
						_, err := f.gw.ApplyFilter(ctx, FilterOpts{Filename: "a.mp4", FilterType: "blur"})
						return err
					},
					query: map[string]string{"intensity": "0.1", "filter_type": "blur"},
				},
				{
					name: "Filter Zero Intensity",
					path: "/api/video/filter",
					call: func() error {
						_, err := f.gw.ApplyFilter(ctx, FilterOpts{Filename: "a.mp4", FilterType: "blur", Intensity: Float(0)})
						return err
					},
					query: map[string]string{"intensity": "0"},
				},
				{
					name: "Watermark",
					path: "/api/video/watermark",
					call: func() error {
						_, err := f.gw.AddWatermark(ctx, WatermarkOpts{Filename: "a.mp4", Text: "ivx"})
						return err
					},
					query: map[string]string{"position": "bottom-right", "watermark_text": "ivx"},
				},
				{
					name: "Subtitle",
					path: "/api/video/add-subtitle",
					call: func() error {
						_, err := f.gw.AddSubtitle(ctx, SubtitleOpts{Filename: "a.mp4", Text: "hi", StartTime: 1.5})
						return err
					},
					query: map[string]string{"duration": "5", "start_time": "1.5", "subtitle_text": "hi"},
				},
				{
					name: "Merge",
					path: "/api/video/merge",
					call: func() error {
						_, err := f.gw.MergeVideos(ctx, MergeOpts{Filenames: []string{"a.mp4", "b.mp4"}})
						return err
					},
					query: map[string]string{"filenames": "a.mp4,b.mp4", "output_name": "merged_vlog"},
				},
				{
					name: "Clip",
					path: "/api/video/clip",
					call: func() error {
						_, err := f.gw.ClipVideo(ctx, ClipOpts{Filename: "a.mp4", StartTime: 0, EndTime: 2.25, ProjectID: 7})
						return err
					},
					query: map[string]string{"start_time": "0", "end_time": "2.25", "project_id": "7"},
				},
				{
					name: "Extract Audio",
					path: "/api/video/extract-audio",
					call: func() error {
						_, err := f.gw.ExtractAudio(ctx, ExtractAudioOpts{Filename: "a.mp4"})
						return err
					},
					query: map[string]string{"audio_format": "mp3"},
				},
				{
					name: "Thumbnail",
					path: "/api/video/thumbnail",
					call: func() error {
						_, err := f.gw.Thumbnail(ctx, ThumbnailOpts{Filename: "a.mp4"})
						return err
					},
					query: map[string]string{"time_point": "0", "width": "320"},
				},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					if err := tt.call(); err != nil {
						t.Fatalf("expected no error, got %v", err)
					}
					req, ok := fb.Last(tt.path)
					if !ok {
						t.Fatalf("expected request to %s", tt.path)
					}
					if req.Method != http.MethodPost {
						t.Errorf("expected POST, got %s", req.Method)
					}
					for k, want := range tt.query {
						if got := req.Query.Get(k); got != want {
							t.Errorf("%s: expected %q, got %q", k, want, got)
						}
					}
				})
			}
		})

		t.Run("Optional Parameters Omitted", func(t *testing.T) {
			if _, err := f.gw.ConvertVideo(ctx, ConvertOpts{Filename: "a.mp4", TargetFormat: "avi"}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			req, _ := fb.Last("/api/video/convert")
			if _, ok := req.Query["project_id"]; ok {
				t.Error("expected project_id to be omitted")
			}

			id := 3
			if _, err := f.gw.ConvertVideo(ctx, ConvertOpts{Filename: "a.mp4", TargetFormat: "avi", ProjectID: &id}); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			req, _ = fb.Last("/api/video/convert")
			if req.Query.Get("project_id") != "3" {
				t.Errorf("expected project_id 3, got %q", req.Query.Get("project_id"))
			}
		})

		t.Run("Process Result", func(t *testing.T) {
			result, err := f.gw.ClipVideo(ctx, ClipOpts{Filename: "a.mp4", EndTime: 1, ProjectID: 1})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.OutputFile() != "clip_a.mp4" {
				t.Errorf("expected clip_a.mp4, got %s", result.OutputFile())
			}
			if result.Message() != "clip complete" {
				t.Errorf("unexpected message %q", result.Message())
			}
		})

		t.Run("Missing Filename", func(t *testing.T) {
			before := len(fb.Requests())

			if _, err := f.gw.ClipVideo(ctx, ClipOpts{}); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
			if _, err := f.gw.MergeVideos(ctx, MergeOpts{}); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("expected ErrMissingArgument, got %v", err)
			}
			if len(fb.Requests()) != before {
				t.Error("expected no request for invalid input")
			}
		})

		t.Run("Upload", func(t *testing.T) {
			path := tu.MustWriteFile(t, t.TempDir(), "trip.MOV", "frames")

			result, err := f.gw.UploadFile(ctx, path)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Filename != "trip.MOV" || result.FileSize != int64(len("frames")) {
				t.Errorf("unexpected upload result %+v", result)
			}

			req, _ := fb.Last("/api/upload/video")
			if !strings.HasPrefix(req.ContentType, "multipart/form-data; boundary=") {
				t.Errorf("expected multipart content type, got %s", req.ContentType)
			}
			if !fb.Uploaded("trip.MOV") {
				t.Error("expected backend to store the file")
			}
		})

		t.Run("Upload Rejects Non Video", func(t *testing.T) {
			_, err := f.gw.UploadVideo(ctx, "notes.txt", strings.NewReader("text"))

			var apiErr *APIError
			if !errors.As(err, &apiErr) || apiErr.StatusCode != http.StatusBadRequest {
				t.Fatalf("expected 400 APIError, got %v", err)
			}
		})

		t.Run("Upload Missing File", func(t *testing.T) {
			_, err := f.gw.UploadFile(ctx, filepath.Join(t.TempDir(), "missing.mp4"))
			if !errors.Is(err, shared.ErrInvalidInput) || !errors.Is(err, os.ErrNotExist) {
				t.Errorf("expected ErrInvalidInput wrapping ErrNotExist, got %v", err)
			}
		})

		t.Run("Upload Reader Failure", func(t *testing.T) {
			_, err := f.gw.UploadVideo(ctx, "broken.mp4", &tu.FailingBody{})
			if err == nil {
				t.Error("expected error when the source cannot be read")
			}
		})

		t.Run("Video Info", func(t *testing.T) {
			info, err := f.gw.VideoInfo(ctx, "beach.mp4")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if info.Video == nil || info.Video.Width != 1280 {
				t.Errorf("unexpected info %+v", info)
			}
		})

		t.Run("System", func(t *testing.T) {
			status, err := f.gw.SystemStatus(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if status.Status != "running" || status.UsersCount < 1 {
				t.Errorf("unexpected status %+v", status)
			}

			health, err := f.gw.Health(ctx)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if health.Status != "healthy" {
				t.Errorf("expected healthy, got %s", health.Status)
			}
		})

		t.Run("Raw", func(t *testing.T) {
			resp, err := f.gw.Raw(ctx, http.MethodGet, "/api/auth/me", nil)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusOK || !resp.IsJSON {
				t.Errorf("unexpected raw response %d json=%v", resp.StatusCode, resp.IsJSON)
			}

			missing, err := f.gw.Raw(ctx, http.MethodGet, "/api/projects/999", nil)
			if err != nil {
				t.Fatalf("expected non-2xx to be returned as a response, got %v", err)
			}
			if missing.StatusCode != http.StatusNotFound {
				t.Errorf("expected 404, got %d", missing.StatusCode)
			}
		})

		t.Run("Request Metrics", func(t *testing.T) {
			if v := testutil.ToFloat64(f.gw.metrics.requests.WithLabelValues(http.MethodPost, "200")); v == 0 {
				t.Error("expected POST 200 requests to be counted")
			}
			if got := drain(f.events); len(got) != 0 {
				t.Errorf("expected no forced logouts for valid token, got %d", len(got))
			}
		})
	})
}

func TestContentType(t *testing.T) {
	tests := map[string]string{
		"clip.mp4":  "video/mp4",
		"clip.MOV":  "video/quicktime",
		"clip.mkv":  "video/x-matroska",
		"clip":      "application/octet-stream",
		"clip.webm": "video/webm",
	}
	for name, want := range tests {
		if got := ContentType(name); got != want {
			t.Errorf("%s: expected %s, got %s", name, want, got)
		}
	}
}
