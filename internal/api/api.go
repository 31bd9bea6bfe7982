package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/cors"

	"github.com/joescharf/folio/internal/aggregate"
	"github.com/joescharf/folio/internal/auth"
	"github.com/joescharf/folio/internal/contact"
	"github.com/joescharf/folio/internal/metrics"
	"github.com/joescharf/folio/internal/models"
	"github.com/joescharf/folio/internal/portfolio"
	"github.com/joescharf/folio/internal/refresh"
)

// StatsSource provides profile statistics. *github.Client satisfies it.
type StatsSource interface {
	UserStats(ctx context.Context) *models.ProfileStats
}

// Deps are the collaborators of the API server.
type Deps struct {
	Config   *portfolio.ConfigStore
	Syncer   *refresh.Syncer
	Stats    StatsSource
	Sessions *auth.Sessions
	Contact  *contact.Notifier
	Logger   *slog.Logger

	// RateLimit is the per-IP requests per minute allowed on login and
	// contact. Zero uses DefaultRateLimit.
	RateLimit int
	// AllowedOrigins for CORS. Empty allows any origin.
	AllowedOrigins []string
	// UI serves every path the API does not. Optional.
	UI http.Handler
}

// DefaultRateLimit is the per-IP budget for login and contact, per minute.
const DefaultRateLimit = 10

// maxBodyBytes caps request bodies, imported configs included.
const maxBodyBytes = 1 << 20

// Server provides the REST API handlers.
type Server struct {
	cfg      *portfolio.ConfigStore
	syncer   *refresh.Syncer
	stats    StatsSource
	sessions *auth.Sessions
	contact  *contact.Notifier
	logger   *slog.Logger
	limiter  *ipLimiter
	origins  []string
	ui       http.Handler
}

// NewServer creates a new API server.
func NewServer(d Deps) *Server {
	logger := d.Logger
	if logger == nil {
		logger = slog.Default()
	}
	perMin := d.RateLimit
	if perMin <= 0 {
		perMin = DefaultRateLimit
	}
	notifier := d.Contact
	if notifier == nil {
		notifier = contact.NewNotifier("")
	}
	return &Server{
		cfg:      d.Config,
		syncer:   d.Syncer,
		stats:    d.Stats,
		sessions: d.Sessions,
		contact:  notifier,
		logger:   logger,
		limiter:  newIPLimiter(perMin),
		origins:  d.AllowedOrigins,
		ui:       d.UI,
	}
}

// Router returns an http.Handler for the API routes.
func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/projects", s.listProjects)
	mux.HandleFunc("GET /api/v1/projects/stats", s.projectStats)
	mux.HandleFunc("GET /api/v1/github/stats", s.githubStats)
	mux.HandleFunc("GET /api/v1/share/parse", s.parseShare)
	mux.Handle("POST /api/v1/contact", s.limiter.middleware(http.HandlerFunc(s.sendContact)))

	mux.Handle("POST /api/v1/auth/login", s.limiter.middleware(http.HandlerFunc(s.login)))
	mux.HandleFunc("POST /api/v1/auth/logout", s.logout)
	mux.HandleFunc("GET /api/v1/auth/status", s.authStatus)

	mux.HandleFunc("GET /api/v1/admin/config", s.requireAdmin(s.getConfig))
	mux.HandleFunc("GET /api/v1/admin/config/export", s.requireAdmin(s.exportConfig))
	mux.HandleFunc("POST /api/v1/admin/config/import", s.requireAdmin(s.importConfig))
	mux.HandleFunc("POST /api/v1/admin/config/reset", s.requireAdmin(s.resetConfig))
	mux.HandleFunc("POST /api/v1/admin/repos/selected/{name}", s.requireAdmin(s.selectRepo))
	mux.HandleFunc("DELETE /api/v1/admin/repos/selected/{name}", s.requireAdmin(s.unselectRepo))
	mux.HandleFunc("POST /api/v1/admin/repos/featured/{name}/toggle", s.requireAdmin(s.toggleFeatured))
	mux.HandleFunc("POST /api/v1/admin/repos/hidden/{name}/toggle", s.requireAdmin(s.toggleHidden))
	mux.HandleFunc("POST /api/v1/admin/categories/{name}/toggle", s.requireAdmin(s.toggleCategory))
	mux.HandleFunc("POST /api/v1/admin/custom", s.requireAdmin(s.addCustom))
	mux.HandleFunc("DELETE /api/v1/admin/custom/{id}", s.requireAdmin(s.removeCustom))
	mux.HandleFunc("PUT /api/v1/admin/display", s.requireAdmin(s.updateDisplay))
	mux.HandleFunc("GET /api/v1/admin/repos", s.requireAdmin(s.listRepos))
	mux.HandleFunc("GET /api/v1/admin/repos/{name}", s.requireAdmin(s.repoDetail))
	mux.HandleFunc("POST /api/v1/admin/auto-select", s.requireAdmin(s.autoSelect))
	mux.HandleFunc("POST /api/v1/admin/sync", s.requireAdmin(s.sync))
	mux.HandleFunc("GET /api/v1/admin/share-url", s.requireAdmin(s.shareURL))

	mux.Handle("GET /metrics", metrics.Handler())

	if s.ui != nil {
		mux.Handle("/", s.ui)
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
	})
	return c.Handler(s.withSession(instrument(mux)))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeBody decodes a JSON body into v. An empty body leaves v untouched
// when allowEmpty is set.
func decodeBody(w http.ResponseWriter, r *http.Request, v any, allowEmpty bool) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	writeError(w, http.StatusBadRequest, "invalid JSON")
	return false
}

// --- Projects ---

// viewQuery splits the featured=true filter flag off the view parameters so
// it is not read as a legacy list of featured names.
func viewQuery(r *http.Request) (q url.Values, featuredOnly bool) {
	q = r.URL.Query()
	if q.Get("featured") == "true" {
		q.Del("featured")
		featuredOnly = true
	}
	return q, featuredOnly
}

func (s *Server) listProjects(w http.ResponseWriter, r *http.Request) {
	q, featuredOnly := viewQuery(r)
	res, err := s.syncer.Projects(r.Context(), q, false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	if c := q.Get("category"); c != "" && c != "All" {
		res.Projects = aggregate.ByCategory(res.Projects, models.Category(c))
	}
	if featuredOnly {
		res.Projects = aggregate.Featured(res.Projects)
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) projectStats(w http.ResponseWriter, r *http.Request) {
	q, _ := viewQuery(r)
	res, err := s.syncer.Projects(r.Context(), q, false)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res.Stats)
}

func (s *Server) githubStats(w http.ResponseWriter, r *http.Request) {
	// A failed fetch is reported as null, like an empty profile.
	writeJSON(w, http.StatusOK, s.stats.UserStats(r.Context()))
}

func (s *Server) parseShare(w http.ResponseWriter, r *http.Request) {
	uc, err := portfolio.ParseURLConfig(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, uc)
}

// --- Contact ---

func (s *Server) sendContact(w http.ResponseWriter, r *http.Request) {
	var m contact.Message
	if !decodeBody(w, r, &m, false) {
		return
	}
	err := s.contact.Send(r.Context(), m)
	switch {
	case errors.Is(err, contact.ErrNotConfigured):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		s.logger.Error("contact webhook failed", "error", err)
		writeError(w, http.StatusBadGateway, "failed to send message")
	default:
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
	}
}

// clientIP prefers proxy headers over the socket address.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if i := strings.Index(xff, ","); i > 0 {
			return strings.TrimSpace(xff[:i])
		}
		return strings.TrimSpace(xff)
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	addr := r.RemoteAddr
	if i := strings.LastIndex(addr, ":"); i >= 0 {
		addr = addr[:i]
	}
	return strings.Trim(addr, "[]")
}
