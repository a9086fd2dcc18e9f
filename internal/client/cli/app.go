// Package cli implements the interactive terminal client.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/interntrack/internal/client/api"
	"github.com/dmitrijs2005/interntrack/internal/client/config"
	"github.com/dmitrijs2005/interntrack/internal/netx"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// apiClient is the part of *api.Client the commands use.
type apiClient interface {
	Ping(ctx context.Context) error
	SetToken(token string)
	Register(ctx context.Context, name, email string, password []byte) (*api.Session, error)
	Login(ctx context.Context, email string, password []byte) (*api.Session, error)
	Profile(ctx context.Context) (*api.Profile, error)
	ListInternships(ctx context.Context) ([]api.Internship, error)
	GetInternship(ctx context.Context, id string) (*api.Internship, error)
	CreateInternship(ctx context.Context, in api.InternshipInput) (*api.Internship, error)
	UpdateInternship(ctx context.Context, id string, in api.InternshipInput) (*api.Internship, error)
	DeleteInternship(ctx context.Context, id string) error
	Stats(ctx context.Context) (*api.Stats, error)
	ListFiles(ctx context.Context) ([]api.File, error)
	UploadFile(ctx context.Context, path string) (*api.File, error)
	DownloadURL(ctx context.Context, key string) (string, error)
	DeleteFile(ctx context.Context, key string) error
}

type App struct {
	config *config.Config
	api    apiClient
	reader *bufio.Reader
	out    io.Writer
	fetch  func(ctx context.Context, url string, w io.Writer) (int64, error)

	mu       sync.Mutex
	mode     Mode
	userName string
}

func NewApp(c *config.Config) *App {
	return newApp(c, api.New(c.ServerURL, c.RequestTimeout), os.Stdin, os.Stdout)
}

func newApp(c *config.Config, client apiClient, in io.Reader, out io.Writer) *App {
	httpClient := &http.Client{Timeout: 5 * time.Minute}
	return &App{
		config: c,
		api:    client,
		reader: bufio.NewReader(in),
		out:    out,
		fetch: func(ctx context.Context, url string, w io.Writer) (int64, error) {
			return netx.Download(ctx, httpClient, url, w)
		},
	}
}

func (a *App) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	fmt.Fprintln(a.out, "Welcome to Internship Tracker CLI (type 'help' for commands)")
	a.checkOnline(ctx)
	go a.StartOnlineStatusWatcher(ctx, a.config.OnlineCheckInterval)

	runREPL(ctx, a, a.getStatus, a.reader, a.out)
}

func (a *App) isLoggedIn() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.userName != ""
}

func (a *App) setUser(name string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.userName = name
}

func (a *App) setMode(mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()
	if changed {
		fmt.Fprintf(a.out, "Switched to %s mode\n", mode)
	}
}

func (a *App) getStatus() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	s := ""
	if a.userName != "" {
		s = a.userName + " "
	}
	s += string(a.mode)
	if s != "" {
		s = fmt.Sprintf("(%s)", s)
	}
	return s
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	err := a.api.Ping(ctx)
	if err != nil && errors.Is(err, api.ErrUnavailable) {
		a.setMode(ModeOffline)
		return
	}
	a.setMode(ModeOnline)
}

// StartOnlineStatusWatcher probes the server every interval until ctx ends.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// report prints a command failure. An expired session logs the user out.
func (a *App) report(err error) error {
	if api.IsUnauthorized(err) && a.isLoggedIn() {
		a.api.SetToken("")
		a.setUser("")
		fmt.Fprintln(a.out, "Session expired, please log in again")
		return err
	}
	fmt.Fprintln(a.out, "Error:", err)
	return err
}
