// Package server is the local control API a UI shell drives the workout
// session through.
package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/fitcoach/internal/api"
	"github.com/claude/fitcoach/internal/dashboard"
	"github.com/claude/fitcoach/internal/metrics"
	"github.com/claude/fitcoach/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

// Remote is the backend surface used outside the session controller.
type Remote interface {
	GetProfile(ctx context.Context) (*api.ProfilePayload, error)
	UpdateProfile(ctx context.Context, p api.ProfilePayload) (*api.ProfilePayload, error)
}

var _ Remote = (*api.Client)(nil)

// Options holds the optional pieces of a Server.
type Options struct {
	APIKey      string
	CORSOrigins []string
	Metrics     *metrics.Manager
	Registry    *prometheus.Registry
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	ctrl      *session.Controller
	remote    Remote
	dash      *dashboard.Service
	log       *slog.Logger
	opts      Options
	tailscale WhoIser
	router    chi.Router
}

// New creates a new Server with all routes configured.
func New(ctrl *session.Controller, remote Remote, dash *dashboard.Service, log *slog.Logger, opts Options) *Server {
	s := &Server{
		ctrl:   ctrl,
		remote: remote,
		dash:   dash,
		log:    log,
		opts:   opts,
	}
	s.buildRouter()
	return s
}

// SetTailscale enables Tailscale identity resolution. Call before serving.
func (s *Server) SetTailscale(lc WhoIser) {
	s.tailscale = lc
	s.buildRouter()
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) buildRouter() {
	r := chi.NewRouter()
	r.Use(RequestLogging(s.log))
	if s.opts.Metrics != nil {
		r.Use(s.opts.Metrics.RequestMetrics)
	}
	r.Use(CORS(s.opts.CORSOrigins))
	if s.tailscale != nil {
		r.Use(TailscaleIdentity(s.tailscale, s.log))
	} else {
		r.Use(DevIdentity)
	}

	if s.opts.Registry != nil {
		r.Handle("/metrics", metrics.Handler(s.opts.Registry))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if s.opts.APIKey != "" {
			r.Use(APIKeyAuth(s.opts.APIKey))
		}
		r.Use(SessionContext(s.ctrl))

		r.Get("/me", s.handleMe)

		r.Route("/session", func(r chi.Router) {
			r.Get("/", s.handleSnapshot)
			r.Delete("/", s.handleReset)
			r.Get("/lifecycle", s.handleLifecycle)
			r.Post("/load", s.handleLoad)
			r.Post("/start", s.handleStart)
			r.Post("/pause", s.handlePause)
			r.Patch("/progress", s.handleProgress)
			r.Post("/sets", s.handleLogSet)
			r.Post("/complete", s.handleComplete)
			r.Post("/skip", s.handleSkip)
			r.Post("/finish", s.handleFinish)
			r.Route("/rest", func(r chi.Router) {
				r.Post("/start", s.handleRestStart)
				r.Post("/pause", s.handleRestPause)
				r.Post("/reset", s.handleRestReset)
				r.Post("/cancel", s.handleRestCancel)
			})
		})

		r.Post("/plan/regenerate", s.handleRegenerate)
		r.Get("/dashboard", s.handleDashboard)
		r.Get("/profile", s.handleGetProfile)
		r.Put("/profile", s.handlePutProfile)
	})

	s.router = r
}
