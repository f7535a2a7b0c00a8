package lock

import (
	"time"

	"walletlock/internal/domain/forgotten"
	"walletlock/internal/domain/login"
)

type decision struct {
	locked bool
	step   Step
}

// decide сопоставляет запись входа с экраном. periodOK=false означает,
// что период бездействия неизвестен и сессию надо держать закрытой.
func decide(info login.Info, fi forgotten.Info, period time.Duration, periodOK bool, now time.Time) decision {
	switch info.Status {
	case login.StatusNoLogin:
		return decision{locked: false, step: StepNoLogin}

	case login.StatusMaybeLater:
		return decision{locked: false, step: StepAskToSetPassword}

	case login.StatusReset:
		if fi.InProgress() {
			return decision{locked: false, step: StepResetWizard}
		}
		return decision{locked: false, step: StepAskToSetPassword}

	case login.StatusForgot, login.StatusJustSet:
		return decision{locked: true, step: StepShowLogin}

	case login.StatusSet:
		if !periodOK {
			return decision{locked: true, step: StepShowLogin}
		}
		if now.Sub(info.LastLoginTime.Time()) > period {
			return decision{locked: true, step: StepShowLogin}
		}
		return decision{locked: false, step: StepNoLoginPeriod}
	}

	return decision{locked: true, step: StepShowLogin}
}
