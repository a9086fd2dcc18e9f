// Package api is a small JSON/HTTP client for the Internship Tracker server.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/interntrack/internal/common"
)

// ErrUnavailable reports that the server could not be reached.
var ErrUnavailable = errors.New("server unavailable")

// Error is a non-2xx response from the server.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (%d)", e.Message, e.Status)
}

// IsUnauthorized reports whether err is a 401 from the server.
func IsUnauthorized(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusUnauthorized
}

type Session struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Token string `json:"token"`
}

type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type Internship struct {
	ID           string     `json:"id"`
	CompanyName  string     `json:"companyName"`
	Role         string     `json:"role"`
	Platform     string     `json:"platform"`
	AppliedDate  time.Time  `json:"appliedDate"`
	StartDate    *time.Time `json:"startDate,omitempty"`
	NextStepDate *time.Time `json:"nextStepDate,omitempty"`
	Status       string     `json:"status"`
	Notes        string     `json:"notes"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// InternshipInput mirrors the server's create/patch body. Nil fields are
// omitted.
type InternshipInput struct {
	CompanyName  *string `json:"companyName,omitempty"`
	Role         *string `json:"role,omitempty"`
	Platform     *string `json:"platform,omitempty"`
	AppliedDate  *string `json:"appliedDate,omitempty"`
	StartDate    *string `json:"startDate,omitempty"`
	NextStepDate *string `json:"nextStepDate,omitempty"`
	Status       *string `json:"status,omitempty"`
	Notes        *string `json:"notes,omitempty"`
}

type Stats struct {
	Total              int `json:"total"`
	Applied            int `json:"applied"`
	Shortlisted        int `json:"shortlisted"`
	InterviewScheduled int `json:"interviewScheduled"`
	Selected           int `json:"selected"`
	Completed          int `json:"completed"`
	Rejected           int `json:"rejected"`
}

type File struct {
	Key          string    `json:"filename"`
	OriginalName string    `json:"originalname,omitempty"`
	Size         int64     `json:"size"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

type Client struct {
	baseURL string
	http    *http.Client
	token   string
}

func New(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// SetToken sets the bearer token sent with every request.
func (c *Client) SetToken(token string) { c.token = token }

func (c *Client) Token() string { return c.token }

// Ping checks /healthz.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/healthz", nil, nil)
}

func (c *Client) Register(ctx context.Context, name, email string, password []byte) (*Session, error) {
	body := map[string]string{"name": name, "email": email, "password": string(password)}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", body, &s); err != nil {
		return nil, err
	}
	c.token = s.Token
	return &s, nil
}

func (c *Client) Login(ctx context.Context, email string, password []byte) (*Session, error) {
	body := map[string]string{"email": email, "password": string(password)}
	var s Session
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", body, &s); err != nil {
		return nil, err
	}
	c.token = s.Token
	return &s, nil
}

func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.do(ctx, http.MethodGet, "/api/auth/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *Client) ListInternships(ctx context.Context) ([]Internship, error) {
	var out []Internship
	if err := c.do(ctx, http.MethodGet, "/api/internships", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetInternship(ctx context.Context, id string) (*Internship, error) {
	var it Internship
	if err := c.do(ctx, http.MethodGet, "/api/internships/"+url.PathEscape(id), nil, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

func (c *Client) CreateInternship(ctx context.Context, in InternshipInput) (*Internship, error) {
	var it Internship
	if err := c.do(ctx, http.MethodPost, "/api/internships", in, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

func (c *Client) UpdateInternship(ctx context.Context, id string, in InternshipInput) (*Internship, error) {
	var it Internship
	if err := c.do(ctx, http.MethodPut, "/api/internships/"+url.PathEscape(id), in, &it); err != nil {
		return nil, err
	}
	return &it, nil
}

func (c *Client) DeleteInternship(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/internships/"+url.PathEscape(id), nil, nil)
}

func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	if err := c.do(ctx, http.MethodGet, "/api/internships/stats", nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (c *Client) ListFiles(ctx context.Context) ([]File, error) {
	var out []File
	if err := c.do(ctx, http.MethodGet, "/api/upload/files", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UploadFile sends the file at path as multipart field "file".
func (c *Client) UploadFile(ctx context.Context, path string) (*File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, f); err != nil {
		return nil, err
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}

	req, err := c.newRequest(ctx, http.MethodPost, "/api/upload", &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out struct {
		File File `json:"file"`
	}
	if err := c.send(req, &out); err != nil {
		return nil, err
	}
	return &out.File, nil
}

func (c *Client) DownloadURL(ctx context.Context, key string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/upload/"+url.PathEscape(key), nil, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

func (c *Client) DeleteFile(ctx context.Context, key string) error {
	return c.do(ctx, http.MethodDelete, "/api/upload/"+url.PathEscape(key), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}

	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, out)
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+c.token)
	}
	return req, nil
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var m struct {
			Message string `json:"message"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&m)
		return &Error{Status: resp.StatusCode, Message: m.Message}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
