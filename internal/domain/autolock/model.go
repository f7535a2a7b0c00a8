package autolock

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DefaultLockPeriod используется, когда автоблокировка выключена.
const DefaultLockPeriod = 30 * time.Minute

type Unit string

const (
	UnitMinute Unit = "minute"
	UnitHour   Unit = "hour"
	UnitDay    Unit = "day"
)

// ParseUnit принимает и короткие формы, которые встречаются в старых записях.
func ParseUnit(s string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "minute", "minutes", "min", "m":
		return UnitMinute, nil
	case "hour", "hours", "h":
		return UnitHour, nil
	case "day", "days", "d":
		return UnitDay, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, s)
	}
}

func (u *Unit) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}

	parsed, err := ParseUnit(s)
	if err != nil {
		// неизвестная единица сохраняется как есть, политика её отвергнет
		*u = Unit(s)
		return nil
	}
	*u = parsed
	return nil
}

// minutes возвращает количество минут в единице.
func (u Unit) minutes() (int64, bool) {
	switch u {
	case UnitMinute:
		return 1, true
	case UnitHour:
		return 60, true
	case UnitDay:
		return 1440, true
	default:
		return 0, false
	}
}

type Delay struct {
	Value float64 `json:"value"`
	Type  Unit    `json:"type"`
}

// Config - запись autoLock в хранилище.
type Config struct {
	Enabled bool  `json:"enabled"`
	Delay   Delay `json:"delay"`
}

// DefaultConfig - конфигурация новой установки.
func DefaultConfig() Config {
	return Config{
		Enabled: false,
		Delay:   Delay{Value: 30, Type: UnitMinute},
	}
}

// normalize приводит значение к допустимому диапазону. Ноль означал бы мгновенную блокировку.
func (c Config) normalize() Config {
	if c.Delay.Value < 1 {
		c.Delay.Value = 1
	}
	return c
}
