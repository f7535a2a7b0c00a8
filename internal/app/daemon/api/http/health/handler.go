package health

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"
)

// Pinger проверяет доступность общего хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Handler struct {
	origin     string
	storage    Pinger
	log        *slog.Logger
	middleware huma.Middlewares
}

// NewHandler. storage может быть nil, если бэкенд не умеет ping.
func NewHandler(origin string, storage Pinger, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		origin:     origin,
		storage:    storage,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.healthCheckOp(), h.healthCheck)
}

func (h *Handler) healthCheck(ctx context.Context, _ *Input) (*Output, error) {
	h.log.Debug("health check request received")

	storage := "unchecked"
	if h.storage != nil {
		if err := h.storage.Ping(ctx); err != nil {
			h.log.Warn("storage ping failed", "error", err)
			return nil, huma.Error503ServiceUnavailable("storage unavailable")
		}
		storage = "OK"
	}

	return &Output{
		Body: Response{
			Status:  "OK",
			Origin:  h.origin,
			Storage: storage,
		},
	}, nil
}
