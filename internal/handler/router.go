package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/BuzzLyutic/taskdesk/internal/service"
	"github.com/BuzzLyutic/taskdesk/pkg/respond"
)

// NewRouter собирает маршруты API.
func NewRouter(tasks *TaskHandler, auth *AuthHandler, authSvc *service.AuthService, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respond.JSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Post("/token", auth.Token)
		r.Post("/token/refresh", auth.Refresh)
		r.Post("/user/register", auth.Register)

		r.Group(func(r chi.Router) {
			r.Use(RequireAuth(authSvc, logger))

			r.Get("/tasks", tasks.List)
			r.Post("/tasks", tasks.Create)
			r.Get("/tasks/completed", tasks.Completed)
			r.Get("/tasks/dashboard", tasks.Dashboard)
			r.Post("/tasks/generate", tasks.Generate)
			r.Get("/tasks/{id}", tasks.Get)
			r.Put("/tasks/{id}", tasks.Update)
			r.Delete("/tasks/{id}", tasks.Delete)
		})
	})

	return r
}
