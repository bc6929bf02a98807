package testing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/ivx/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// TokenLifetime matches the backend's seven day access tokens.
	TokenLifetime = 7 * 24 * time.Hour

	fakeSecret = "ivx-fake-backend"
)

// RecordedRequest is what [FakeBackend] saw for one request.
type RecordedRequest struct {
	Method        string
	Path          string
	Query         url.Values
	Authorization string
	ContentType   string
}

type fakeUser struct {
	info     models.UserInfo
	password string
}

// FakeBackend is an in-process iVideo backend served by [httptest.Server].
//
// It implements the auth, project, upload, video and system endpoints closely enough for client tests:
// bearer tokens are HS256 JWTs with "sub" and "exp" claims, unknown or revoked tokens get 401, and errors
// use the {"detail": "..."} envelope.
type FakeBackend struct {
	Server *httptest.Server

	mu        sync.Mutex
	users     map[string]*fakeUser
	tokens    map[string]int
	projects  map[int]*models.Project
	videos    map[int][]models.VideoFile
	uploads   map[string]int64
	requests  []RecordedRequest
	delay     time.Duration
	nextUser  int
	nextProj  int
	nextVideo int
	nextToken int
}

// NewFakeBackend starts a [FakeBackend] that is closed when the test ends.
func NewFakeBackend(t *testing.T) *FakeBackend {
	t.Helper()

	b := &FakeBackend{
		users:    make(map[string]*fakeUser),
		tokens:   make(map[string]int),
		projects: make(map[int]*models.Project),
		videos:   make(map[int][]models.VideoFile),
		uploads:  make(map[string]int64),
	}
	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(b.Server.Close)
	return b
}

// URL is the base address of the backend.
func (b *FakeBackend) URL() string {
	return b.Server.URL
}

func (b *FakeBackend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(b.record)

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, models.Health{Status: "healthy", Service: "iVideo Server"})
	})
	r.Get("/api/system/status", b.systemStatus)
	r.Post("/api/auth/register", b.register)
	r.Post("/api/auth/login", b.login)

	r.Group(func(r chi.Router) {
		r.Use(b.authenticate)

		r.Get("/api/auth/me", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, b.currentUser(r))
		})
		r.Post("/api/projects/create", b.createProject)
		r.Get("/api/users/{userID}/projects", b.userProjects)
		r.Get("/api/projects/{projectID}", b.project)
		r.Post("/api/projects/{projectID}/add-video", b.addVideo)
		r.Get("/api/projects/{projectID}/videos", b.projectVideos)
		r.Post("/api/upload/video", b.upload)
		r.Get("/api/video/info", b.videoInfo)
		r.Post("/api/video/{operation}", b.process)
	})

	return r
}

// record stores the request and applies the configured delay.
func (b *FakeBackend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.requests = append(b.requests, RecordedRequest{
			Method:        r.Method,
			Path:          r.URL.Path,
			Query:         r.URL.Query(),
			Authorization: r.Header.Get("Authorization"),
			ContentType:   r.Header.Get("Content-Type"),
		})
		delay := b.delay
		b.mu.Unlock()

		if delay > 0 {
			select {
			case <-time.After(delay):
			case <-r.Context().Done():
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

type userKey struct{}

func contextWithUser(r *http.Request, userID int) context.Context {
	return context.WithValue(r.Context(), userKey{}, userID)
}

func userFromContext(r *http.Request) int {
	id, _ := r.Context().Value(userKey{}).(int)
	return id
}

func (b *FakeBackend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok {
			writeDetail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}

		b.mu.Lock()
		userID, known := b.tokens[token]
		b.mu.Unlock()
		if !known {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		next.ServeHTTP(w, r.WithContext(contextWithUser(r, userID)))
	})
}

// AddUser registers an account directly, bypassing the HTTP surface.
func (b *FakeBackend) AddUser(username, email, password string) models.UserInfo {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addUserLocked(username, email, password)
}

func (b *FakeBackend) addUserLocked(username, email, password string) models.UserInfo {
	b.nextUser++
	u := &fakeUser{
		info: models.UserInfo{
			ID:        b.nextUser,
			Username:  username,
			Email:     email,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		},
		password: password,
	}
	b.users[username] = u
	return u.info
}

// IssueToken mints a valid access token for userID.
func (b *FakeBackend) IssueToken(userID int) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.issueTokenLocked(userID)
}

func (b *FakeBackend) issueTokenLocked(userID int) string {
	b.nextToken++
	claims := jwt.RegisteredClaims{
		Subject:   strconv.Itoa(userID),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(TokenLifetime)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ID:        strconv.Itoa(b.nextToken),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(fakeSecret))
	if err != nil {
		panic(fmt.Sprintf("failed to sign token: %v", err))
	}
	b.tokens[signed] = userID
	return signed
}

// Revoke makes token unknown so the next request carrying it gets 401.
func (b *FakeBackend) Revoke(token string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.tokens, token)
}

// AddProject creates a project for userID directly and returns its id.
func (b *FakeBackend) AddProject(userID int, title string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addProjectLocked(userID, title, "").ID
}

func (b *FakeBackend) addProjectLocked(userID int, title, description string) *models.Project {
	b.nextProj++
	now := time.Now().UTC().Format(time.RFC3339)
	p := &models.Project{
		ID:          b.nextProj,
		UserID:      userID,
		Title:       title,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	b.projects[p.ID] = p
	return p
}

// SetDelay holds every response for d, for timeout tests.
func (b *FakeBackend) SetDelay(d time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.delay = d
}

// Requests returns a copy of every request seen so far.
func (b *FakeBackend) Requests() []RecordedRequest {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]RecordedRequest(nil), b.requests...)
}

// Calls counts requests to path.
func (b *FakeBackend) Calls(path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Path == path {
			n++
		}
	}
	return n
}

// Last returns the most recent request to path.
func (b *FakeBackend) Last(path string) (RecordedRequest, bool) {
	reqs := b.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return RecordedRequest{}, false
}

// Uploaded reports whether a file with name was uploaded.
func (b *FakeBackend) Uploaded(name string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.uploads[name]
	return ok
}

func (b *FakeBackend) register(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	username, email, password := q.Get("username"), q.Get("email"), q.Get("password")
	if username == "" || email == "" || password == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"detail": []map[string]any{{"loc": []string{"query"}, "msg": "field required", "type": "value_error.missing"}},
		})
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.users[username]; exists {
		writeDetail(w, http.StatusBadRequest, "username already exists")
		return
	}
	writeJSON(w, http.StatusOK, b.addUserLocked(username, email, password))
}

func (b *FakeBackend) login(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	b.mu.Lock()
	defer b.mu.Unlock()
	u, ok := b.users[q.Get("username")]
	if !ok || u.password != q.Get("password") {
		writeDetail(w, http.StatusUnauthorized, "incorrect username or password")
		return
	}

	writeJSON(w, http.StatusOK, models.LoginResponse{
		AccessToken: b.issueTokenLocked(u.info.ID),
		TokenType:   "bearer",
		ExpiresIn:   int(TokenLifetime.Seconds()),
		User:        u.info,
	})
}

func (b *FakeBackend) currentUser(r *http.Request) models.UserInfo {
	id := userFromContext(r)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, u := range b.users {
		if u.info.ID == id {
			return u.info
		}
	}
	return models.UserInfo{ID: id}
}

func (b *FakeBackend) createProject(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if q.Get("title") == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "title is required")
		return
	}

	b.mu.Lock()
	p := b.addProjectLocked(userFromContext(r), q.Get("title"), q.Get("description"))
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, models.CreateProjectResult{
		Message:   "project created",
		ProjectID: p.ID,
		Title:     p.Title,
		CreatedAt: p.CreatedAt,
	})
}

func (b *FakeBackend) userProjects(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.Atoi(chi.URLParam(r, "userID"))
	if err != nil || userID != userFromContext(r) {
		writeDetail(w, http.StatusForbidden, "access denied")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	list := models.ProjectList{UserID: userID, Projects: []models.Project{}}
	for id := 1; id <= b.nextProj; id++ {
		if p, ok := b.projects[id]; ok && p.UserID == userID {
			list.Projects = append(list.Projects, *p)
		}
	}
	list.TotalProjects = len(list.Projects)
	writeJSON(w, http.StatusOK, list)
}

// ownedProject resolves {projectID} for the caller, writing 404 when it is missing or foreign.
func (b *FakeBackend) ownedProject(w http.ResponseWriter, r *http.Request) (*models.Project, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "projectID"))
	if err == nil {
		if p, ok := b.projects[id]; ok && p.UserID == userFromContext(r) {
			return p, true
		}
	}
	writeDetail(w, http.StatusNotFound, "project not found")
	return nil, false
}

func (b *FakeBackend) project(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.ownedProject(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, models.ProjectDetail{
		ProjectID:   p.ID,
		Title:       p.Title,
		Description: p.Description,
		VideoFiles:  append([]models.VideoFile{}, b.videos[p.ID]...),
		AudioFiles:  []any{},
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	})
}

func (b *FakeBackend) addVideo(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.ownedProject(w, r)
	if !ok {
		return
	}

	filename := r.URL.Query().Get("filename")
	size, uploaded := b.uploads[filename]
	if !uploaded {
		writeDetail(w, http.StatusNotFound, "video file not found")
		return
	}

	b.nextVideo++
	v := models.VideoFile{
		ID:        b.nextVideo,
		ProjectID: p.ID,
		Filename:  filename,
		FilePath:  "uploads/" + filename,
		FileSize:  size,
		AddedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	b.videos[p.ID] = append(b.videos[p.ID], v)
	writeJSON(w, http.StatusOK, models.AddVideoResult{Message: "video added", ProjectID: p.ID, VideoFile: v})
}

func (b *FakeBackend) projectVideos(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.ownedProject(w, r)
	if !ok {
		return
	}
	videos := append([]models.VideoFile{}, b.videos[p.ID]...)
	writeJSON(w, http.StatusOK, models.VideoList{ProjectID: p.ID, Videos: videos, TotalVideos: len(videos)})
}

func (b *FakeBackend) upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()

	if !strings.HasPrefix(header.Header.Get("Content-Type"), "video/") {
		writeDetail(w, http.StatusBadRequest, "only video files are accepted")
		return
	}

	b.mu.Lock()
	b.uploads[header.Filename] = header.Size
	b.mu.Unlock()

	writeJSON(w, http.StatusOK, models.UploadResult{
		Filename: header.Filename,
		FileSize: header.Size,
		Message:  "upload complete",
		FilePath: "uploads/" + header.Filename,
	})
}

func (b *FakeBackend) videoInfo(w http.ResponseWriter, r *http.Request) {
	filename := r.URL.Query().Get("filename")

	b.mu.Lock()
	size, ok := b.uploads[filename]
	b.mu.Unlock()
	if !ok {
		writeDetail(w, http.StatusNotFound, "video file not found")
		return
	}

	writeJSON(w, http.StatusOK, models.VideoInfo{
		Filename: filename,
		Format:   "mov,mp4,m4a,3gp,3g2,mj2",
		Duration: 12.5,
		Size:     size,
		BitRate:  800000,
		Video:    &models.VideoTrack{Codec: "h264", Width: 1280, Height: 720, FPS: 30},
		Audio:    &models.AudioTrack{Codec: "aac", Channels: 2},
	})
}

// process answers every /api/video/{operation} call with an output file derived from the input.
func (b *FakeBackend) process(w http.ResponseWriter, r *http.Request) {
	op := chi.URLParam(r, "operation")
	q := r.URL.Query()

	input := q.Get("filename")
	if op == "merge" {
		input = q.Get("output_name") + ".mp4"
	}
	if input == "" {
		writeDetail(w, http.StatusUnprocessableEntity, "filename is required")
		return
	}

	params := make(map[string]string, len(q))
	for k := range q {
		params[k] = q.Get(k)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":     op + " complete",
		"output_file": op + "_" + input,
		"params":      params,
	})
}

func (b *FakeBackend) systemStatus(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	defer b.mu.Unlock()

	videos := 0
	for _, vs := range b.videos {
		videos += len(vs)
	}
	writeJSON(w, http.StatusOK, models.SystemStatus{
		System:        "iVideo",
		Status:        "running",
		UsersCount:    len(b.users),
		ProjectsCount: len(b.projects),
		VideosCount:   videos,
		Storage: models.StorageStatus{
			TotalFiles: len(b.uploads),
			VideoFiles: len(b.uploads),
		},
		FeaturesAvailable: []string{"clip", "convert", "filter", "watermark", "merge", "subtitle"},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
