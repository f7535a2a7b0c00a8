package session

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
)

func (h *Handler) getOp() huma.Operation {
	return huma.Operation{
		OperationID: "session-get",
		Method:      http.MethodGet,
		Path:        "/api/v1/session",
		Summary:     "Состояние сессии",
		Description: "Перечитывает общее хранилище и возвращает текущий экран.",
		Tags:        []string{"session"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) lockOp() huma.Operation {
	return huma.Operation{
		OperationID: "session-lock",
		Method:      http.MethodPost,
		Path:        "/api/v1/session/lock",
		Summary:     "Заблокировать сейчас",
		Description: "Блокирует все поверхности. Повторный вызов безопасен.",
		Tags:        []string{"session"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) unlockOp() huma.Operation {
	return huma.Operation{
		OperationID: "session-unlock",
		Method:      http.MethodPost,
		Path:        "/api/v1/session/unlock",
		Summary:     "Разблокировать паролем",
		Description: "401 - неверный пароль, 409 - требуется миграция счетов.",
		Tags:        []string{"session"},
		Middlewares: h.middleware,
	}
}

func (h *Handler) migrateOp() huma.Operation {
	return huma.Operation{
		OperationID: "session-migrate",
		Method:      http.MethodPost,
		Path:        "/api/v1/session/migrate",
		Summary:     "Перевести счета на собственные пароли",
		Tags:        []string{"session"},
		Middlewares: h.middleware,
	}
}
