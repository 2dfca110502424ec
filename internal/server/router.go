package server

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/ayush/megaqc-web/internal/auth"
	"github.com/ayush/megaqc-web/internal/middleware"
	"github.com/ayush/megaqc-web/internal/public"
)

// Deps bundles everything the router wires together.
type Deps struct {
	Log            *slog.Logger
	Users          auth.UserStore
	Sessions       *auth.SessionStore
	Flashes        *auth.FlashStore
	Pages          auth.Renderer
	Reports        public.ReportStore
	Files          public.FileStore
	Limiter        *middleware.RateLimiter
	AuthRateLimit  int
	RateWindow     time.Duration
	CORSOrigins    []string
	// TrustedProxies may set the client address via X-Forwarded-For/X-Real-IP.
	TrustedProxies []*net.IPNet
}

// NewRouter builds the HTTP routes.
func NewRouter(d Deps) http.Handler {
	authHandler := auth.NewHandler(d.Users, d.Sessions, d.Flashes, d.Pages, d.Log)
	publicHandler := public.NewHandler(d.Reports, d.Files, d.Pages, d.Log)
	requireAuth := middleware.RequireAuth(d.Flashes)

	r := chi.NewRouter()
	r.Use(middleware.TrustedRealIP(d.TrustedProxies))
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   d.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "access_token"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(d.Flashes.Middleware)
	r.Use(middleware.CurrentUser(d.Sessions, d.Users, d.Log))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/", publicHandler.Home)
	r.Get("/about/", publicHandler.About)

	r.Group(func(r chi.Router) {
		if d.Limiter != nil {
			r.Use(d.Limiter.LimitPosts("auth", d.AuthRateLimit, d.RateWindow))
		}
		r.Get("/login/", authHandler.Login)
		r.Post("/login/", authHandler.Login)
		r.Get("/register/", authHandler.Register)
		r.Post("/register/", authHandler.Register)
	})

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/logout/", authHandler.Logout)
		r.Get("/new_plot/", publicHandler.NewPlot)
		r.Get("/report_plot/", publicHandler.ReportPlotSelect)
		r.Get("/report_plot/plot/", publicHandler.ReportPlot)
		r.Get("/report/{id}/raw", publicHandler.DownloadRaw)
	})

	return r
}
