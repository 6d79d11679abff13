package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/companion-labs/companion-api/internal/auth"
	"github.com/companion-labs/companion-api/internal/bot"
	"github.com/companion-labs/companion-api/internal/chat"
	"github.com/companion-labs/companion-api/internal/config"
	"github.com/companion-labs/companion-api/internal/httputil"
	"github.com/companion-labs/companion-api/internal/logging"
)

// NewRouter creates and configures the HTTP router
func NewRouter(
	cfg *config.Config,
	authHandler *auth.Handler,
	botHandler *bot.Handler,
	chatHandler *chat.Handler,
	logger *logging.Logger,
) *chi.Mux {
	r := chi.NewRouter()

	// CORS - must be first
	if len(cfg.Server.TrustedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.Server.TrustedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
			ExposedHeaders:   []string{"Content-Length"},
			AllowCredentials: true,
			MaxAge:           300, // 5 minutes
		}))
	}

	// Global middleware
	r.Use(SecurityHeaders)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger(logger))
	r.Use(middleware.Compress(5))

	r.Get("/", handleRoot)
	r.Get("/health", handleHealth)

	// Swagger UI only exists in development builds
	if cfg.Server.IsDevelopment() {
		logger.Info("swagger UI enabled at /swagger/")
		r.Get("/swagger/*", httpSwagger.WrapHandler)
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.Signup)
		r.Post("/login", authHandler.Login)
		r.Post("/forgot-password/request", authHandler.ForgotPasswordRequest)
		r.Post("/forgot-password/verify", authHandler.ForgotPasswordVerify)
		r.Post("/email-verification", authHandler.EmailVerification)
		r.Post("/email-verification/resend", authHandler.ResendVerification)
	})

	r.Route("/bots", func(r chi.Router) {
		r.Post("/createbot", botHandler.Create)
		r.Get("/public", botHandler.ListPublic)
		r.Get("/my", botHandler.ListMine)
		r.Get("/{bot_id}", botHandler.Get)
		r.Put("/{bot_id}", botHandler.Update)
		r.Delete("/{bot_id}", botHandler.Delete)
	})

	r.Route("/chat", func(r chi.Router) {
		r.Post("/ask", chatHandler.Ask)
		r.Get("/history", chatHandler.History)
		r.Delete("/restart", chatHandler.Restart)
	})

	return r
}

// handleRoot greets API consumers
// @Summary      Welcome
// @Tags         meta
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       / [get]
func handleRoot(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"message": "Welcome to AI Companion API"}, http.StatusOK)
}

// handleHealth is a simple health check endpoint
// @Summary      Health check
// @Tags         meta
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, map[string]string{"status": "api is running"}, http.StatusOK)
}
