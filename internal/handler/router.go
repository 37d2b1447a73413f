package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/zhouzirui/whispers/backend/internal/app"
	"github.com/zhouzirui/whispers/backend/internal/handler/chat"
	"github.com/zhouzirui/whispers/backend/internal/handler/gamification"
	"github.com/zhouzirui/whispers/backend/internal/handler/journal"
	"github.com/zhouzirui/whispers/backend/internal/handler/memory"
	"github.com/zhouzirui/whispers/backend/internal/handler/notify"
	"github.com/zhouzirui/whispers/backend/internal/handler/persona"
	"github.com/zhouzirui/whispers/backend/internal/handler/stream"
	"github.com/zhouzirui/whispers/backend/internal/logger"
	middlewarePkg "github.com/zhouzirui/whispers/backend/internal/middleware"
	"github.com/zhouzirui/whispers/backend/pkg/utils"
)

// NewRouter wires HTTP routes to core services.
func NewRouter(a *app.App, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middlewarePkg.RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(api chi.Router) {
		persona.New(a.Personas).RegisterRoutes(api)
		chat.New(a.Chat, a.Companion, log).RegisterRoutes(api)
		stream.New(a.Chat, a.Companion, log).RegisterRoutes(api)
		memory.New(a.Memory).RegisterRoutes(api)
		journal.New(a.Journal, a.Companion).RegisterRoutes(api)
		gamification.New(a.Game, a.Memory, a.Journal, a.Hub, log).RegisterRoutes(api)
		notify.New(a.Hub, log).RegisterRoutes(api)
	})

	return r
}
