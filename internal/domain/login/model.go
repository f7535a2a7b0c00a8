package login

import (
	"encoding/json"
	"fmt"
	"time"
)

type Status string

const (
	StatusNoLogin    Status = "noLogin"
	StatusMaybeLater Status = "mayBeLater"
	StatusJustSet    Status = "justSet"
	StatusSet        Status = "set"
	StatusForgot     Status = "forgot"
	StatusReset      Status = "reset"
)

func (s Status) Valid() bool {
	switch s {
	case StatusNoLogin, StatusMaybeLater, StatusJustSet, StatusSet, StatusForgot, StatusReset:
		return true
	}
	return false
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if !Status(raw).Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownStatus, raw)
	}
	*s = Status(raw)
	return nil
}

// Millis - метка времени в миллисекундах unix, как она лежит в хранилище.
type Millis int64

func FromTime(t time.Time) Millis {
	if t.IsZero() {
		return 0
	}
	return Millis(t.UnixMilli())
}

func (m Millis) Time() time.Time {
	if m == 0 {
		return time.Time{}
	}
	return time.UnixMilli(int64(m))
}

// Info - запись loginInfo.
type Info struct {
	Status            Status   `json:"status"`
	LastLoginTime     Millis   `json:"lastLoginTime,omitempty"`
	LastEdit          Millis   `json:"lastEdit,omitempty"`
	HashedPassword    string   `json:"hashedPassword,omitempty"`
	AddressesToForget []string `json:"addressesToForget,omitempty"`
}

// IsLoginEnabled - пароль задан и блокировка по таймауту действует.
func (i Info) IsLoginEnabled() bool {
	return i.Status == StatusSet
}

func (i Info) HasLegacyPassword() bool {
	return i.HashedPassword != ""
}

// Record различает первую установку и существующую запись, чтобы не проверять nil.
type Record struct {
	info        Info
	initialized bool
}

func NotInitialized() Record {
	return Record{}
}

func Initialized(info Info) Record {
	return Record{info: info, initialized: true}
}

// Info возвращает запись и false, если её ещё нет.
func (r Record) Info() (Info, bool) {
	return r.info, r.initialized
}

func (r Record) IsInitialized() bool {
	return r.initialized
}
