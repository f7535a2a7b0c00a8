package autolock

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/exp/slog"

	"walletlock/internal/domain/kv"
)

type Repository interface {
	Load(ctx context.Context) (Config, error)
	Save(ctx context.Context, cfg Config) error
}

func NewRepo(store kv.Store, log *slog.Logger) *Repo {
	return &Repo{
		store: store,
		log:   log,
	}
}

type Repo struct {
	store kv.Store
	log   *slog.Logger
}

// Load возвращает сохранённую конфигурацию или значения по умолчанию, если её нет.
func (r *Repo) Load(ctx context.Context) (Config, error) {
	var cfg Config
	err := kv.GetJSON(ctx, r.store, kv.KeyAutoLock, &cfg)
	if errors.Is(err, kv.ErrNotFound) {
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("load auto-lock config: %w", err)
	}
	return cfg, nil
}

func (r *Repo) Save(ctx context.Context, cfg Config) error {
	if math.IsNaN(cfg.Delay.Value) || math.IsInf(cfg.Delay.Value, 0) {
		return ErrInvalidValue
	}
	if _, ok := cfg.Delay.Type.minutes(); !ok {
		return fmt.Errorf("%w: %q", ErrUnknownUnit, cfg.Delay.Type)
	}

	cfg = cfg.normalize()
	if err := kv.SetJSON(ctx, r.store, kv.KeyAutoLock, cfg); err != nil {
		return fmt.Errorf("save auto-lock config: %w", err)
	}

	r.log.Debug("auto-lock config saved", "enabled", cfg.Enabled, "value", cfg.Delay.Value, "unit", cfg.Delay.Type)
	return nil
}

// Enable включает автоблокировку с заданной задержкой.
func (r *Repo) Enable(ctx context.Context, value float64, unit string) (Config, error) {
	u, err := ParseUnit(unit)
	if err != nil {
		return Config{}, err
	}

	cfg := Config{Enabled: true, Delay: Delay{Value: value, Type: u}}.normalize()
	if err := r.Save(ctx, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Disable выключает автоблокировку, сохраняя последнюю выбранную задержку.
func (r *Repo) Disable(ctx context.Context) (Config, error) {
	cfg, err := r.Load(ctx)
	if err != nil {
		return Config{}, err
	}

	cfg.Enabled = false
	if _, ok := cfg.Delay.Type.minutes(); !ok {
		// повреждённую задержку не сохранить, возвращаем значение по умолчанию
		cfg.Delay = DefaultConfig().Delay
	}
	if err := r.Save(ctx, cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
