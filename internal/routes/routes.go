package routes

import (
	"net/http"

	"github.com/xrequests/xrequests/internal/app"
	"github.com/xrequests/xrequests/internal/handler"
	"github.com/xrequests/xrequests/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	auth := handler.NewAuthHandler(app.AuthService)
	user := handler.NewUserHandler(app.UserService)
	request := handler.NewRequestHandler(app.RequestService)
	response := handler.NewResponseHandler(app.ResponseService)

	mux := http.NewServeMux()

	// Health
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Auth (rate limited)
	rateLimiter := middleware.RateLimitAuth()
	mux.HandleFunc("POST /api/users", rateLimiter(auth.Register))
	mux.HandleFunc("POST /api/auth/login", rateLimiter(auth.Login))
	mux.HandleFunc("POST /api/auth/forgot-password", rateLimiter(auth.ForgotPassword))
	mux.HandleFunc("POST /api/auth/reset-password", rateLimiter(auth.ResetPassword))

	// Users
	mux.HandleFunc("DELETE /api/users/{id}", user.Delete)

	// Requests
	mux.HandleFunc("GET /api/requests", request.List)
	mux.HandleFunc("POST /api/requests", request.Create)
	mux.HandleFunc("DELETE /api/requests/{id}", request.Delete)
	mux.HandleFunc("POST /api/requests/{id}/upvote", request.Upvote)

	// Responses
	mux.HandleFunc("GET /api/requests/{id}/responses", response.ListByRequest)
	mux.HandleFunc("POST /api/requests/{id}/responses", response.Create)
	mux.HandleFunc("DELETE /api/responses/{id}", response.Delete)
	mux.HandleFunc("POST /api/responses/{id}/upvote", response.Upvote)

	// Global middleware - executed in order (top to bottom)
	return middleware.Chain(
		mux,
		middleware.SecurityHeaders,
		middleware.RequestLogging,
	)
}
