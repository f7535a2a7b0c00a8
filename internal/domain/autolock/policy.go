// Package autolock вычисляет период бездействия, после которого требуется пароль.
package autolock

import (
	"math"
	"time"
)

// EffectiveLockPeriod возвращает допустимый период бездействия.
// false означает, что конфигурация ещё не прочитана или повреждена,
// и принимать решение о блокировке по ней нельзя.
func EffectiveLockPeriod(cfg *Config) (time.Duration, bool) {
	if cfg == nil {
		return 0, false
	}

	if !cfg.Enabled {
		return DefaultLockPeriod, true
	}

	perUnit, ok := cfg.Delay.Type.minutes()
	if !ok {
		return 0, false
	}

	d := cfg.Delay.Value * float64(perUnit) * float64(time.Minute)
	// за пределами int64 преобразование не определено
	if d >= math.MaxInt64 {
		return time.Duration(math.MaxInt64), true
	}
	return time.Duration(d), true
}
