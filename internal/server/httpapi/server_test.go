package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/interntrack/internal/logging"
	"github.com/dmitrijs2005/interntrack/internal/server/auth"
	"github.com/dmitrijs2005/interntrack/internal/server/blobstore"
	"github.com/dmitrijs2005/interntrack/internal/server/models"
	"github.com/dmitrijs2005/interntrack/internal/server/repositories/memory"
	"github.com/dmitrijs2005/interntrack/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	srv   *httptest.Server
	mock  sqlmock.Sqlmock
	repos *memory.Manager
	store *blobstore.MemoryStore
}

type envOption func(*Deps)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	hasher, err := auth.NewPasswordHasher(bcrypt.MinCost)
	require.NoError(t, err)
	tokens, err := auth.NewTokenService([]byte("test-secret"), time.Hour)
	require.NoError(t, err)

	repos := memory.NewManager()
	store := blobstore.NewMemoryStore()
	log := logging.Nop()

	deps := Deps{
		Users:       services.NewUserService(db, repos, hasher, tokens, log),
		Internships: services.NewInternshipService(db, repos, log),
		Uploads:     services.NewUploadService(store, 64, log),
		Gateway:     auth.NewGateway(tokens, repos.Users(db)),
		Limiter:     NewMemoryRateLimiter(),
		Metrics:     NewMetrics(),
		DB:          db,
		Logger:      log,
		CORSOrigins: []string{"*"},
		RateWindow:  time.Minute,
	}
	for _, o := range opts {
		o(&deps)
	}

	s := NewServer(deps)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(func() {
		srv.Close()
		s.Close()
	})
	return &testEnv{srv: srv, mock: mock, repos: repos, store: store}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rdr)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return e.send(t, req)
}

func (e *testEnv) send(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func (e *testEnv) register(t *testing.T, name, email string) sessionResponse {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/auth/register", "",
		registerRequest{Name: name, Email: email, Password: "pw123456"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	var out sessionResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out
}

func message(t *testing.T, body []byte) string {
	t.Helper()
	var m messageResponse
	require.NoError(t, json.Unmarshal(body, &m))
	return m.Message
}

func TestRootAndHealth(t *testing.T) {
	e := newTestEnv(t)

	resp, body := e.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Welcome to Internship Tracker API", message(t, body))

	e.mock.ExpectPing()
	resp, _ = e.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	e.mock.ExpectPing().WillReturnError(errors.New("down"))
	resp, _ = e.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestUnknownRoute(t *testing.T) {
	e := newTestEnv(t)
	resp, body := e.do(t, http.MethodGet, "/api/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "route not found", message(t, body))
}

func TestMetricsEndpoint(t *testing.T) {
	e := newTestEnv(t)
	e.do(t, http.MethodGet, "/api/auth/profile", "", nil)

	resp, body := e.do(t, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `interntrack_api_http_requests_total{method="GET",route="/api/auth/profile",status="401"} 1`)
	assert.Contains(t, string(body), `interntrack_auth_rejected_requests_total{reason="missing_token"} 1`)
}

func TestCORSPreflight(t *testing.T) {
	e := newTestEnv(t)

	req, err := http.NewRequest(http.MethodOptions, e.srv.URL+"/api/internships", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	req.Header.Set("Access-Control-Request-Headers", "Authorization")

	resp, _ := e.send(t, req)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestRegisterLoginProfile(t *testing.T) {
	e := newTestEnv(t)

	reg := e.register(t, "Alice", "Alice@X.com")
	assert.Equal(t, "alice@x.com", reg.Email)
	assert.NotEmpty(t, reg.Token)

	resp, body := e.do(t, http.MethodPost, "/api/auth/register", "",
		registerRequest{Name: "Again", Email: "alice@x.com", Password: "pw123456"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "user already exists", message(t, body))

	resp, _ = e.do(t, http.MethodPost, "/api/auth/register", "",
		registerRequest{Name: "Bad", Email: "nope", Password: "pw123456"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = e.do(t, http.MethodPost, "/api/auth/login", "",
		loginRequest{Email: "alice@x.com", Password: "wrong-pw"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	wrongPw := message(t, body)

	resp, body = e.do(t, http.MethodPost, "/api/auth/login", "",
		loginRequest{Email: "ghost@x.com", Password: "pw123456"})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, wrongPw, message(t, body))

	resp, body = e.do(t, http.MethodPost, "/api/auth/login", "",
		loginRequest{Email: "alice@x.com", Password: "pw123456"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var login sessionResponse
	require.NoError(t, json.Unmarshal(body, &login))
	assert.Equal(t, reg.ID, login.ID)

	resp, body = e.do(t, http.MethodGet, "/api/auth/profile", login.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var prof profileResponse
	require.NoError(t, json.Unmarshal(body, &prof))
	assert.Equal(t, "Alice", prof.Name)
	assert.NotContains(t, string(body), "password")
}

func TestMalformedJSON(t *testing.T) {
	e := newTestEnv(t)
	req, err := http.NewRequest(http.MethodPost, e.srv.URL+"/api/auth/login", strings.NewReader("{"))
	require.NoError(t, err)
	resp, _ := e.send(t, req)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProtectedRejections(t *testing.T) {
	e := newTestEnv(t)
	reg := e.register(t, "Alice", "alice@x.com")

	resp, body := e.do(t, http.MethodGet, "/api/internships", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "not authorized, no token", message(t, body))

	resp, body = e.do(t, http.MethodGet, "/api/internships", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "not authorized, token failed", message(t, body))

	req, err := http.NewRequest(http.MethodGet, e.srv.URL+"/api/internships", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Basic "+reg.Token)
	resp, _ = e.send(t, req)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	e.repos.DeleteUser(reg.ID)
	resp, _ = e.do(t, http.MethodGet, "/api/internships", reg.Token, nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func createInternship(t *testing.T, e *testEnv, token string) models.Internship {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/internships", token, map[string]string{
		"companyName": "Acme",
		"role":        "Intern",
		"platform":    "LinkedIn",
		"appliedDate": "2025-02-01",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var it models.Internship
	require.NoError(t, json.Unmarshal(body, &it))
	return it
}

func TestInternshipCRUD(t *testing.T) {
	e := newTestEnv(t)
	alice := e.register(t, "Alice", "alice@x.com")

	it := createInternship(t, e, alice.Token)
	assert.Equal(t, models.StatusApplied, it.Status)

	resp, body := e.do(t, http.MethodPost, "/api/internships", alice.Token, map[string]string{"companyName": "X"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "please provide all required fields", message(t, body))

	resp, body = e.do(t, http.MethodGet, "/api/internships", alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []models.Internship
	require.NoError(t, json.Unmarshal(body, &list))
	require.Len(t, list, 1)

	e.mock.ExpectBegin()
	e.mock.ExpectCommit()
	resp, body = e.do(t, http.MethodPut, "/api/internships/"+it.ID, alice.Token, map[string]string{"status": "Shortlisted"})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))

	resp, body = e.do(t, http.MethodGet, "/api/internships/stats", alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var st models.InternshipStats
	require.NoError(t, json.Unmarshal(body, &st))
	assert.Equal(t, models.InternshipStats{Total: 1, Shortlisted: 1}, st)

	resp, body = e.do(t, http.MethodGet, "/api/internships/not-a-uuid", alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "internship not found", message(t, body))

	resp, _ = e.do(t, http.MethodDelete, "/api/internships/"+it.ID, alice.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = e.do(t, http.MethodGet, "/api/internships/"+it.ID, alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.NoError(t, e.mock.ExpectationsWereMet())
}

// A second user is refused every operation on the first user's record with
// 403, and the record is unchanged afterwards.
func TestOwnershipEndToEnd(t *testing.T) {
	e := newTestEnv(t)
	alice := e.register(t, "Alice", "alice@x.com")
	bob := e.register(t, "Bob", "bob@x.com")

	it := createInternship(t, e, alice.Token)

	resp, body := e.do(t, http.MethodGet, "/api/internships/"+it.ID, bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, "not authorized", message(t, body))

	e.mock.ExpectBegin()
	e.mock.ExpectRollback()
	resp, _ = e.do(t, http.MethodPut, "/api/internships/"+it.ID, bob.Token, map[string]string{"status": "Rejected"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = e.do(t, http.MethodDelete, "/api/internships/"+it.ID, bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = e.do(t, http.MethodGet, "/api/internships/"+it.ID, alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var after models.Internship
	require.NoError(t, json.Unmarshal(body, &after))
	assert.Equal(t, models.StatusApplied, after.Status)
	assert.True(t, it.UpdatedAt.Equal(after.UpdatedAt))

	resp, body = e.do(t, http.MethodGet, "/api/internships", bob.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(body))

	require.NoError(t, e.mock.ExpectationsWereMet())
}

func multipartRequest(t *testing.T, url, token, filename, contentType, content string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUploads(t *testing.T) {
	e := newTestEnv(t)
	alice := e.register(t, "Alice", "alice@x.com")
	bob := e.register(t, "Bob", "bob@x.com")

	resp, body := e.send(t, multipartRequest(t, e.srv.URL+"/api/upload", alice.Token, "cv.pdf", "application/pdf", "%PDF-1.7"))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var up struct {
		Message string            `json:"message"`
		File    models.StoredFile `json:"file"`
	}
	require.NoError(t, json.Unmarshal(body, &up))
	key := up.File.Key
	assert.True(t, strings.HasPrefix(key, alice.ID+"-"))
	assert.Equal(t, "cv.pdf", up.File.OriginalName)

	resp, _ = e.send(t, multipartRequest(t, e.srv.URL+"/api/upload", alice.Token, "run.exe", "application/x-msdownload", "MZ"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = e.send(t, multipartRequest(t, e.srv.URL+"/api/upload", alice.Token, "big.txt", "text/plain", strings.Repeat("x", 65)))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = e.do(t, http.MethodPost, "/api/upload", alice.Token, map[string]string{"not": "multipart"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, message(t, body), "please upload a file")

	resp, body = e.do(t, http.MethodGet, "/api/upload/files", alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var files []models.StoredFile
	require.NoError(t, json.Unmarshal(body, &files))
	require.Len(t, files, 1)
	assert.Equal(t, key, files[0].Key)

	resp, body = e.do(t, http.MethodGet, "/api/upload/files", bob.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.JSONEq(t, "[]", string(body))

	resp, _ = e.do(t, http.MethodGet, "/api/upload/"+key, bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = e.do(t, http.MethodDelete, "/api/upload/"+key, bob.Token, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	_, ok := e.store.Content(key)
	assert.True(t, ok)

	resp, body = e.do(t, http.MethodGet, "/api/upload/"+key, alice.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var dl downloadResponse
	require.NoError(t, json.Unmarshal(body, &dl))
	assert.Contains(t, dl.URL, key)

	resp, _ = e.do(t, http.MethodDelete, "/api/upload/"+key, alice.Token, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, body = e.do(t, http.MethodDelete, "/api/upload/"+key, alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "file not found", message(t, body))
}

func TestRegisterRateLimited(t *testing.T) {
	e := newTestEnv(t, func(d *Deps) { d.RegisterLimit = 2 })

	for i, email := range []string{"a@x.com", "b@x.com"} {
		resp, _ := e.do(t, http.MethodPost, "/api/auth/register", "",
			registerRequest{Name: "U", Email: email, Password: "pw123456"})
		require.Equal(t, http.StatusCreated, resp.StatusCode, "attempt %d", i)
		assert.Equal(t, "2", resp.Header.Get("X-RateLimit-Limit"))
	}

	resp, body := e.do(t, http.MethodPost, "/api/auth/register", "",
		registerRequest{Name: "U", Email: "c@x.com", Password: "pw123456"})
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "0", resp.Header.Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, message(t, body))

	resp, _ = e.do(t, http.MethodPost, "/api/auth/login", "",
		loginRequest{Email: "a@x.com", Password: "pw123456"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

type panicPinger struct{}

func (panicPinger) PingContext(context.Context) error { panic("boom") }

func TestRecoverer(t *testing.T) {
	e := newTestEnv(t, func(d *Deps) { d.DB = panicPinger{} })
	resp, _ := e.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
}

func TestServe_StopsOnCancel(t *testing.T) {
	s := NewServer(Deps{})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.serve(ctx, ln) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + ln.Addr().String() + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
