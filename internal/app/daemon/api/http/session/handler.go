package session

import (
	"context"
	"errors"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"walletlock/internal/domain/kv"
	"walletlock/internal/domain/lock"
	"walletlock/internal/domain/unlock"
)

// Controller - операции контроллера сессии, доступные через API.
type Controller interface {
	Evaluate(ctx context.Context) (lock.Step, error)
	Snapshot() lock.State
	OnLockNow(ctx context.Context) error
	OnPasswordSubmit(ctx context.Context, password string) (unlock.Result, error)
	OnMigrate(ctx context.Context, password string) error
}

type Handler struct {
	session    Controller
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(session Controller, log *slog.Logger, mws huma.Middlewares) *Handler {
	return &Handler{
		session:    session,
		log:        log,
		middleware: mws,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.getOp(), h.get)
	huma.Register(api, h.lockOp(), h.lock)
	huma.Register(api, h.unlockOp(), h.unlock)
	huma.Register(api, h.migrateOp(), h.migrate)
}

func (h *Handler) get(ctx context.Context, _ *struct{}) (*stateOutput, error) {
	if _, err := h.session.Evaluate(ctx); err != nil {
		return nil, h.mapError(err)
	}
	return &stateOutput{Body: toResponse(h.session.Snapshot())}, nil
}

func (h *Handler) lock(ctx context.Context, _ *struct{}) (*stateOutput, error) {
	if err := h.session.OnLockNow(ctx); err != nil {
		return nil, h.mapError(err)
	}
	return &stateOutput{Body: toResponse(h.session.Snapshot())}, nil
}

func (h *Handler) unlock(ctx context.Context, in *passwordInput) (*stateOutput, error) {
	res, err := h.session.OnPasswordSubmit(ctx, in.Body.Password)
	if err != nil {
		return nil, h.mapError(err)
	}

	switch res {
	case unlock.Unlocked:
		return &stateOutput{Body: toResponse(h.session.Snapshot())}, nil
	case unlock.NeedsMigration:
		return nil, huma.Error409Conflict("accounts need migration to own passwords")
	default:
		return nil, huma.Error401Unauthorized("wrong password")
	}
}

func (h *Handler) migrate(ctx context.Context, in *passwordInput) (*stateOutput, error) {
	if err := h.session.OnMigrate(ctx, in.Body.Password); err != nil {
		return nil, h.mapError(err)
	}
	return &stateOutput{Body: toResponse(h.session.Snapshot())}, nil
}

func (h *Handler) mapError(err error) error {
	switch {
	case errors.Is(err, unlock.ErrWrongPassword):
		return huma.Error401Unauthorized("wrong password")
	case errors.Is(err, lock.ErrUnlockInProgress):
		return huma.Error409Conflict(err.Error())
	case errors.Is(err, kv.ErrUnavailable):
		h.log.Error("storage unavailable", "error", err)
		return huma.Error503ServiceUnavailable("storage unavailable")
	case errors.Is(err, unlock.ErrMigrationFailed):
		h.log.Error("migration failed", "error", err)
		return huma.Error500InternalServerError(err.Error())
	default:
		h.log.Error("session request failed", "error", err)
		return huma.Error500InternalServerError("internal error")
	}
}
