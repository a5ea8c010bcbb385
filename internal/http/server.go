package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"slnotes/internal/auth"
	"slnotes/internal/config"
	"slnotes/internal/mail"
	"slnotes/internal/markdown"
	"slnotes/internal/repository"
	"slnotes/internal/storage"
)

type Server struct {
	cfg      config.Config
	store    *repository.Store
	uploads  *storage.Local
	mailer   mail.Mailer
	redis    *redis.Client
	logger   *slog.Logger
	renderer *markdown.Renderer
	validate *validator.Validate
}

func NewServer(cfg config.Config, store *repository.Store, uploads *storage.Local, mailer mail.Mailer, redisClient *redis.Client, logger *slog.Logger) *Server {
	return &Server{
		cfg:      cfg,
		store:    store,
		uploads:  uploads,
		mailer:   mailer,
		redis:    redisClient,
		logger:   logger,
		renderer: markdown.NewRenderer(),
		validate: validator.New(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{s.cfg.FrontendURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/auth", func(r chi.Router) {
		r.With(s.rateLimit("auth")).Post("/register", s.handleRegister)
		r.With(s.rateLimit("auth")).Post("/login", s.handleLogin)
		r.Get("/verify/{token}", s.handleVerifyEmail)
		r.With(s.authMiddleware).Get("/me", s.handleGetMe)
		r.With(s.authMiddleware).Put("/me", s.handleUpdateMe)
	})

	r.Route("/notes", func(r chi.Router) {
		r.Get("/", s.handleListNotes)
		r.With(s.authMiddleware).Get("/user/me", s.handleMyNotes)
		r.Get("/{noteID}", s.handleGetNote)
		r.With(s.authMiddleware).Post("/", s.handleCreateNote)
		r.With(s.authMiddleware).Put("/{noteID}", s.handleUpdateNote)
		r.With(s.authMiddleware).Delete("/{noteID}", s.handleDeleteNote)
	})

	r.Route("/subjects", func(r chi.Router) {
		r.Get("/", s.handleListSubjects)
		r.Get("/{subjectID}", s.handleGetSubject)
		r.With(s.authMiddleware, s.requireAdmin).Post("/", s.handleCreateSubject)
		r.With(s.authMiddleware, s.requireAdmin).Put("/{subjectID}", s.handleUpdateSubject)
		r.With(s.authMiddleware, s.requireAdmin).Delete("/{subjectID}", s.handleDeleteSubject)
	})

	r.With(s.rateLimit("search")).Get("/search", s.handleSearchNotes)
	r.With(s.rateLimit("search")).Get("/search/subjects", s.handleSearchSubjects)

	r.With(s.authMiddleware).Post("/upload", s.handleUpload)
	r.With(s.authMiddleware).Delete("/upload/{filename}", s.handleDeleteUpload)
	r.Get("/uploads/{filename}", s.handleServeUpload)

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.authMiddleware, s.requireAdmin)
		r.Get("/stats", s.handleAdminStats)
		r.Get("/users", s.handleAdminListUsers)
		r.Put("/users/{userID}", s.handleAdminUpdateUser)
		r.Delete("/users/{userID}", s.handleAdminDeleteUser)
		r.Get("/notes", s.handleAdminListNotes)
		r.Put("/notes/{noteID}/publish", s.handleAdminTogglePublish)
	})

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration", time.Since(start),
			"request_id", chimiddleware.GetReqID(r.Context()),
		)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.status = code
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(code)
}

// rateLimit caps requests per client IP per minute using a Redis counter.
// Pass-through when Redis is not configured or unavailable.
func (s *Server) rateLimit(bucket string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.redis == nil || s.cfg.RateLimitPerMinute <= 0 {
				next.ServeHTTP(w, r)
				return
			}

			ip := r.Header.Get("X-Forwarded-For")
			if ip == "" {
				ip = r.RemoteAddr
			}
			key := fmt.Sprintf("ratelimit:%s:%s", bucket, ip)

			pipe := s.redis.Pipeline()
			incr := pipe.Incr(r.Context(), key)
			pipe.Expire(r.Context(), key, time.Minute)
			if _, err := pipe.Exec(r.Context()); err != nil {
				next.ServeHTTP(w, r)
				return
			}

			if incr.Val() > int64(s.cfg.RateLimitPerMinute) {
				w.Header().Set("Retry-After", "60")
				writeDetail(w, http.StatusTooManyRequests, "Too many requests")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

type claimsKey struct{}

func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r.Header.Get("Authorization"))
		if token == "" {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		claims, err := auth.ParseToken(s.cfg.JWTSecret, token)
		if err != nil {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey{}, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.currentUser(w, r)
		if !ok {
			return
		}
		if !user.IsAdmin {
			writeDetail(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func claimsFromContext(ctx context.Context) (*auth.Claims, bool) {
	claims, ok := ctx.Value(claimsKey{}).(*auth.Claims)
	return claims, ok
}

func bearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimPrefix(header, "Bearer ")
}

func pathID(r *http.Request, name string) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, name), 10, 64)
}

func decodeJSON(r *http.Request, out any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(out)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}
