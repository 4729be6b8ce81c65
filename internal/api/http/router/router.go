package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/unrolled/secure"

	apiErrors "github.com/dtroode/encuentro-server/internal/api/errors"
	"github.com/dtroode/encuentro-server/internal/api/http/handler"
	"github.com/dtroode/encuentro-server/internal/api/http/middleware"
	"github.com/dtroode/encuentro-server/internal/api/http/response"
	"github.com/dtroode/encuentro-server/internal/logger"
	"github.com/dtroode/encuentro-server/internal/model"
	"github.com/dtroode/encuentro-server/internal/observability"
)

// Config holds the parameters of the REST router.
type Config struct {
	BasePath       string
	AllowedOrigins []string
	// RateLimit is the number of auth requests allowed per IP and minute. Zero disables it.
	RateLimit  int
	Production bool
	// TrustProxy takes the client IP from X-Forwarded-For and X-Real-IP.
	// Enable it only behind a proxy that overwrites those headers.
	TrustProxy bool
}

// Router builds the REST API.
type Router struct {
	config         Config
	authService    handler.AuthService
	verifier       middleware.TokenVerifier
	contextManager model.ContextManager
	store          model.Pinger
	metrics        *observability.Metrics
	logger         *logger.Logger
}

// New creates new REST Router instance.
func New(
	config Config,
	authService handler.AuthService,
	verifier middleware.TokenVerifier,
	contextManager model.ContextManager,
	store model.Pinger,
	metrics *observability.Metrics,
	logger *logger.Logger,
) *Router {
	return &Router{
		config:         config,
		authService:    authService,
		verifier:       verifier,
		contextManager: contextManager,
		store:          store,
		metrics:        metrics,
		logger:         logger,
	}
}

// Register wires middleware and routes.
func (r *Router) Register() http.Handler {
	logging := middleware.NewLogging(r.logger)
	authenticate := middleware.NewAuthenticate(r.verifier, r.contextManager, r.logger)
	authHandler := handler.NewAuth(r.authService, r.contextManager, r.logger)
	healthHandler := handler.NewHealth(r.store, r.logger)

	mux := chi.NewRouter()
	if r.config.TrustProxy {
		mux.Use(chimw.RealIP)
	}
	mux.Use(
		chimw.RequestID,
		logging.HandleHTTP,
		chimw.Recoverer,
		r.securityHeaders,
		cors.Handler(cors.Options{
			AllowedOrigins:   r.config.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}),
		r.metrics.Middleware,
	)

	mux.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.JSON(w, http.StatusNotFound, response.ErrorBody{Error: "route not found"})
	})

	mux.Handle("/metrics", r.metrics.Handler())

	mux.Route(basePath(r.config.BasePath), func(api chi.Router) {
		api.Get("/health", healthHandler.Check)

		api.Route("/auth", func(auth chi.Router) {
			if r.config.RateLimit > 0 {
				auth.Use(httprate.Limit(
					r.config.RateLimit,
					time.Minute,
					httprate.WithKeyFuncs(httprate.KeyByIP),
					httprate.WithLimitHandler(tooManyRequests),
				))
			}

			auth.Post("/register", authHandler.Register)
			auth.Post("/login", authHandler.Login)
			auth.Post("/forgot-password", authHandler.ForgotPassword)
			auth.Post("/reset-password", authHandler.ResetPassword)

			auth.With(authenticate.Optional).Get("/session", authHandler.Session)

			auth.Group(func(protected chi.Router) {
				protected.Use(authenticate.Required)
				protected.Get("/me", authHandler.Me)
				protected.Post("/change-password", authHandler.ChangePassword)
			})
		})
	})

	return mux
}

func (r *Router) securityHeaders(next http.Handler) http.Handler {
	sec := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !r.config.Production,
	})

	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if err := sec.Process(w, req); err != nil {
			r.logger.Warn("Router: secure headers blocked request", "error", err)
			response.Error(w, apiErrors.NewErrInvalidRequest("request blocked"))
			return
		}
		next.ServeHTTP(w, req)
	})
}

func tooManyRequests(w http.ResponseWriter, _ *http.Request) {
	response.JSON(w, http.StatusTooManyRequests, response.ErrorBody{Error: "too many requests"})
}

func basePath(p string) string {
	return "/" + strings.Trim(p, "/")
}
