package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/greenbuddy/greenbuddy-backend/api/controllers"
	"github.com/greenbuddy/greenbuddy-backend/api/middleware"
	adsvc "github.com/greenbuddy/greenbuddy-backend/internal/ads"
	"github.com/greenbuddy/greenbuddy-backend/internal/auth"
	usersvc "github.com/greenbuddy/greenbuddy-backend/internal/users"
	"github.com/greenbuddy/greenbuddy-backend/pkg/auth/session"
	"github.com/greenbuddy/greenbuddy-backend/pkg/config"
	"github.com/greenbuddy/greenbuddy-backend/pkg/logger"
	"github.com/greenbuddy/greenbuddy-backend/pkg/metrics"
)

// RouterParams bundles everything the HTTP surface needs.
type RouterParams struct {
	Config      *config.Config
	Logger      *logger.Logger
	Sessions    session.AccessSessionChecker
	AuthService auth.Service
	UserService usersvc.Service
	AdService   adsvc.Service
	HTTPMetrics *metrics.HTTPMetrics
	Registry    *prometheus.Registry
	Pingers     map[string]controllers.Pinger
}

// NewRouter assembles the full route tree with the shared middleware chain.
func NewRouter(params RouterParams) http.Handler {
	cfg := params.Config
	logg := params.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
	)
	if params.HTTPMetrics != nil {
		r.Use(middleware.Metrics(params.HTTPMetrics))
	}
	r.Use(middleware.CORS(cfg.Service))

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, params.Pingers))
	})

	if params.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(params.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Post("/register", controllers.AuthRegister(params.AuthService, logg))
		r.Post("/login", controllers.AuthLogin(params.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, params.Sessions, logg))

			r.Route("/users", func(r chi.Router) {
				r.Get("/", controllers.ListUsers(params.UserService, logg))
				r.Get("/{userId}", controllers.GetUser(params.UserService, logg))
				r.Put("/{userId}", controllers.UpdateUser(params.UserService, logg))
				r.Delete("/{userId}", controllers.DeleteUser(params.UserService, logg))
				r.Get("/{userId}/ads", controllers.ListUserAds(params.AdService, logg))
			})
			r.Put("/update-image/{userId}", controllers.UpdateUserImage(params.UserService, cfg.Media, logg))

			r.Route("/ads", func(r chi.Router) {
				r.Post("/", controllers.CreateAd(params.AdService, cfg.Media, logg))
				r.Get("/", controllers.ListAds(params.AdService, logg))
				r.Get("/{adId}", controllers.GetAd(params.AdService, logg))
				r.Put("/{adId}", controllers.UpdateAd(params.AdService, logg))
				r.Delete("/{adId}", controllers.DeleteAd(params.AdService, logg))
				r.Post("/{adId}/save", controllers.SaveAd(params.AdService, logg))
				r.Delete("/{adId}/save", controllers.UnsaveAd(params.AdService, logg))
			})
			r.Get("/saved-ads", controllers.ListSavedAds(params.AdService, logg))
		})
	})

	return r
}
