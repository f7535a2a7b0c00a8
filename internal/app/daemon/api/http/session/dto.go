package session

import "walletlock/internal/domain/lock"

type stateOutput struct {
	Body stateResponse
}

type stateResponse struct {
	Locked        bool   `json:"locked" doc:"Сессия заблокирована"`
	Step          string `json:"step" example:"show-login" doc:"Экран, который должен показать интерфейс"`
	PasswordError bool   `json:"password_error" doc:"Последний введённый пароль не подошёл"`
}

func toResponse(s lock.State) stateResponse {
	return stateResponse{
		Locked:        s.Locked,
		Step:          s.Step.String(),
		PasswordError: s.PasswordError,
	}
}

type passwordInput struct {
	Body passwordRequest
}

type passwordRequest struct {
	Password string `json:"password" minLength:"1" doc:"Пароль кошелька"`
}
