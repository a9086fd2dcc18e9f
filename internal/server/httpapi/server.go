// Package httpapi exposes the tracker over JSON/HTTP: routing, CORS, the
// bearer-token adapter, rate limiting and request metrics.
package httpapi

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/interntrack/internal/common"
	"github.com/dmitrijs2005/interntrack/internal/dbx"
	"github.com/dmitrijs2005/interntrack/internal/logging"
	"github.com/dmitrijs2005/interntrack/internal/server/auth"
	"github.com/dmitrijs2005/interntrack/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Deps are the collaborators a Server routes to. Limiter, Metrics and DB
// may be nil.
type Deps struct {
	Users       *services.UserService
	Internships *services.InternshipService
	Uploads     *services.UploadService
	Gateway     *auth.Gateway
	Limiter     RateLimiter
	Metrics     *Metrics
	DB          dbx.Pinger
	Logger      logging.Logger

	CORSOrigins   []string
	RegisterLimit int
	LoginLimit    int
	RateWindow    time.Duration
}

const shutdownTimeout = 10 * time.Second

type Server struct {
	users       *services.UserService
	internships *services.InternshipService
	uploads     *services.UploadService
	gateway     *auth.Gateway
	limiter     RateLimiter
	metrics     *Metrics
	db          dbx.Pinger
	logger      logging.Logger

	corsOrigins   []string
	registerLimit int
	loginLimit    int
	rateWindow    time.Duration
}

func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	return &Server{
		users:         d.Users,
		internships:   d.Internships,
		uploads:       d.Uploads,
		gateway:       d.Gateway,
		limiter:       d.Limiter,
		metrics:       d.Metrics,
		db:            d.DB,
		logger:        logger.With("module", "http"),
		corsOrigins:   d.CORSOrigins,
		registerLimit: d.RegisterLimit,
		loginLimit:    d.LoginLimit,
		rateWindow:    d.RateWindow,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.accessLog)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.corsOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, messageResponse{Message: "Welcome to Internship Tracker API"})
	})
	r.Get("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	r.Route("/api/auth", func(r chi.Router) {
		r.Post("/register", s.rateLimited("register", s.registerLimit, s.handleRegister))
		r.Post("/login", s.rateLimited("login", s.loginLimit, s.handleLogin))
		r.Get("/profile", s.protected(s.handleProfile))
	})

	r.Route("/api/internships", func(r chi.Router) {
		r.Get("/", s.protected(s.handleListInternships))
		r.Post("/", s.protected(s.handleCreateInternship))
		r.Get("/stats", s.protected(s.handleInternshipStats))
		r.Get("/{id}", s.protected(s.handleGetInternship))
		r.Put("/{id}", s.protected(s.handleUpdateInternship))
		r.Delete("/{id}", s.protected(s.handleDeleteInternship))
	})

	r.Route("/api/upload", func(r chi.Router) {
		r.Post("/", s.protected(s.handleUpload))
		r.Get("/files", s.protected(s.handleListFiles))
		r.Get("/{filename}", s.protected(s.handleDownloadURL))
		r.Delete("/{filename}", s.protected(s.handleDeleteFile))
	})

	return r
}

// Run serves on addr until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context, addr string) error {
	listen, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.serve(ctx, listen)
}

func (s *Server) serve(ctx context.Context, listen net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		<-ctx.Done()
		s.logger.Info(context.Background(), "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		done <- srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", listen.Addr().String())

	if err := srv.Serve(listen); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return <-done
}

// Close releases background resources held by the router.
func (s *Server) Close() {
	if s.limiter != nil {
		s.limiter.Close()
	}
}

type protectedHandler func(w http.ResponseWriter, r *http.Request, id auth.Identity)

// protected runs the auth gateway and hands the resolved identity to next.
// Rejected requests never reach next.
func (s *Server) protected(next protectedHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := s.gateway.Authenticate(r.Context(), r.Header.Get(common.AuthorizationHeaderName))
		if err != nil {
			s.metrics.authRejected(rejectReason(err))
			s.fail(w, r, err, "not found")
			return
		}
		r = r.WithContext(auth.WithIdentity(r.Context(), id))
		if rec, ok := w.(*identityRecorder); ok {
			rec.userID = id.UserID
		}
		next(w, r, id)
	}
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, common.ErrMissingToken):
		return "missing_token"
	case errors.Is(err, common.ErrTokenInvalid):
		return "invalid_token"
	case errors.Is(err, common.ErrUserNotFound):
		return "user_not_found"
	default:
		return "error"
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.db.PingContext(ctx); err != nil {
			s.logger.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// identityRecorder lets the access log report the authenticated user.
type identityRecorder struct {
	middleware.WrapResponseWriter
	userID string
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &identityRecorder{WrapResponseWriter: middleware.NewWrapResponseWriter(w, r.ProtoMajor)}
		start := time.Now()

		next.ServeHTTP(rec, r)

		status := rec.Status()
		if status == 0 {
			status = http.StatusOK
		}
		route := "unmatched"
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}
		elapsed := time.Since(start)
		s.metrics.observeRequest(r.Method, route, status, elapsed)

		args := []any{
			"method", r.Method,
			"route", route,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"request_id", middleware.GetReqID(r.Context()),
		}
		if rec.userID != "" {
			args = append(args, "user_id", rec.userID)
		}
		s.logger.Info(r.Context(), "request", args...)
	})
}
