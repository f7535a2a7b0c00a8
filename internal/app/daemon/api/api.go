// Локальный API демона: его опрашивают поверхности, которые не держат
// хранилище сами.
//
//GET  /api/v1/health          # Состояние демона и хранилища
//GET  /api/v1/session         # Текущий экран
//POST /api/v1/session/lock    # Заблокировать сейчас
//POST /api/v1/session/unlock  # Разблокировать паролем
//POST /api/v1/session/migrate # Миграция счетов на собственные пароли

package api

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"

	healthAPI "walletlock/internal/app/daemon/api/http/health"
	"walletlock/internal/app/daemon/api/http/middleware"
	"walletlock/internal/app/daemon/api/http/middleware/logger"
	sessionAPI "walletlock/internal/app/daemon/api/http/session"
)

type Handlers struct {
	Health  *healthAPI.Handler
	Session *sessionAPI.Handler
}

// Deps - то, что нужно обработчикам.
type Deps struct {
	Origin  string
	Storage healthAPI.Pinger
	Session sessionAPI.Controller
}

// New создает *chi.Mux с ВСЕМИ операциями через huma.Register
func New(deps Deps, log *slog.Logger) *chi.Mux {
	mux := chi.NewMux()

	config := huma.DefaultConfig("walletlock daemon API", "1.0.0")
	API := humachi.New(mux, config)

	h := handlers(deps, log)
	h.Health.SetupRoutes(API)
	h.Session.SetupRoutes(API)

	return mux
}

func handlers(deps Deps, log *slog.Logger) *Handlers {
	loggerMW := logger.New(log)
	middlewares := middleware.NewContainer()

	middlewares.Add(loggerMW.Middleware())
	healthHandler := healthAPI.NewHandler(deps.Origin, deps.Storage, log, middlewares.GetAllAndClear())

	middlewares.Add(loggerMW.Middleware())
	sessionHandler := sessionAPI.NewHandler(deps.Session, log, middlewares.GetAllAndClear())

	return &Handlers{
		Health:  healthHandler,
		Session: sessionHandler,
	}
}
