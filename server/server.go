package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/go-control-plane/auth"
	"github.com/jrsteele09/go-control-plane/entitlements"
	"github.com/jrsteele09/go-control-plane/internal/config"
	"github.com/jrsteele09/go-control-plane/internal/metrics"
	"github.com/jrsteele09/go-control-plane/internal/ratelimit"
	"github.com/jrsteele09/go-control-plane/licensing"
	"github.com/jrsteele09/go-control-plane/organizations"
	"github.com/jrsteele09/go-control-plane/users"
	"github.com/rs/zerolog/log"
)

// Services holds everything the HTTP layer calls into. Metrics and Limiter
// are created from the configuration when nil, the limiter honouring the
// configured trusted proxies; Ping is optional.
type Services struct {
	Auth          *auth.Service
	Organizations *organizations.Service
	Entitlements  *entitlements.Store
	Licenses      *licensing.Codec
	Metrics       *metrics.Metrics
	Limiter       *ratelimit.Limiter
	Ping          func(ctx context.Context) error
}

type Server struct {
	env      string
	router   chi.Router
	config   config.Config
	svc      Services
	validate *validator.Validate
}

func New(cfg config.Config, svc Services) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("[Server New] config is required")
	}
	if svc.Auth == nil || svc.Organizations == nil || svc.Entitlements == nil || svc.Licenses == nil {
		return nil, errors.New("[Server New] auth, organizations, entitlements and licenses services are required")
	}
	if svc.Metrics == nil {
		svc.Metrics = metrics.New()
	}
	if svc.Limiter == nil {
		proxies, err := ratelimit.ParseTrustedProxies(cfg.GetTrustedProxies())
		if err != nil {
			return nil, fmt.Errorf("[Server New] %w", err)
		}
		svc.Limiter = ratelimit.New(cfg.GetLoginRateLimit(), cfg.GetLoginRateWindow(), ratelimit.WithTrustedProxies(proxies))
	}

	s := &Server{
		env:      cfg.GetEnv(),
		router:   chi.NewRouter(),
		config:   cfg,
		svc:      svc,
		validate: validator.New(),
	}
	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Mount attaches a handler owned by another service behind the standard
// guards: a valid session, the given roles and, when feature is not empty, a
// license for the principal's organization that grants it.
func (s *Server) Mount(pattern string, h http.Handler, feature string, roles ...users.Role) {
	s.router.Group(func(r chi.Router) {
		r.Use(s.RequireAuth, s.RequireRoles(roles...))
		if feature != "" {
			r.Use(s.RequireFeature(feature))
		}
		r.Handle(pattern, h)
	})
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	_ = chi.Walk(s.router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		logRoute(method, route)
		return nil
	})
}

func logRoute(method, path string) {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	color, ok := methodColors[method]
	if !ok {
		color = Gray
	}
	log.Debug().Msgf("[%s] %s", color+paddedMethod+ResetColor, path)
}
