package login

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"walletlock/internal/domain/kv"
	"walletlock/internal/infrastructure/storage/memory"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) (*Manager, *memory.Storage) {
	t.Helper()
	store := memory.New("test")
	return NewManager(store, func() time.Time { return fixedNow }, slog.Default()), store
}

func TestManager_LoadMissingIsNotInitialized(t *testing.T) {
	m, _ := newTestManager(t)

	rec, err := m.Load(context.Background())
	require.NoError(t, err)
	assert.False(t, rec.IsInitialized())

	_, ok := rec.Info()
	assert.False(t, ok)
}

func TestManager_RoundTrip(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	want := Info{
		Status:         StatusSet,
		LastLoginTime:  FromTime(fixedNow.Add(-time.Hour)),
		LastEdit:       FromTime(fixedNow.Add(-24 * time.Hour)),
		HashedPassword: HashPassword("hunter2"),
	}
	require.NoError(t, m.Save(ctx, want))

	rec, err := m.Load(ctx)
	require.NoError(t, err)

	got, ok := rec.Info()
	require.True(t, ok)
	assert.Equal(t, want.Status, got.Status)
	assert.Equal(t, want.LastLoginTime, got.LastLoginTime)
	assert.Equal(t, want.HashedPassword, got.HashedPassword)
}

func TestManager_SaveRejectsUnknownStatus(t *testing.T) {
	m, _ := newTestManager(t)
	err := m.Save(context.Background(), Info{Status: "locked"})
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestManager_LoadRejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)
	require.NoError(t, store.Set(ctx, kv.KeyLoginInfo, []byte(`{"status":"sleeping"}`)))

	_, err := m.Load(ctx)
	assert.ErrorIs(t, err, ErrUnknownStatus)
}

func TestManager_StoredFormat(t *testing.T) {
	ctx := context.Background()
	m, store := newTestManager(t)

	_, err := m.InitFirstRun(ctx)
	require.NoError(t, err)

	raw, err := store.Get(ctx, kv.KeyLoginInfo)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, json.Unmarshal(raw, &doc))
	assert.Equal(t, "mayBeLater", doc["status"])
	assert.Equal(t, float64(fixedNow.UnixMilli()), doc["lastLoginTime"])
}

func TestManager_Transitions(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	info, err := m.SetPassword(ctx, "secret")
	require.NoError(t, err)
	assert.Equal(t, StatusJustSet, info.Status)
	assert.True(t, info.MatchesLegacy("secret"))
	assert.Equal(t, FromTime(fixedNow), info.LastEdit)

	info, err = m.Touch(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusSet, info.Status)
	assert.True(t, info.IsLoginEnabled())

	info, err = m.Expire(ctx, 30*time.Minute)
	require.NoError(t, err)
	assert.True(t, fixedNow.Sub(info.LastLoginTime.Time()) > 30*time.Minute)

	info, err = m.StageForget(ctx, []string{"5Grw", "5FHn"})
	require.NoError(t, err)
	assert.Equal(t, StatusForgot, info.Status)
	assert.Equal(t, []string{"5Grw", "5FHn"}, info.AddressesToForget)

	info, err = m.RestoreAfterCancel(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusSet, info.Status)
	assert.Empty(t, info.AddressesToForget)

	info, err = m.MarkReset(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusReset, info.Status)
	assert.False(t, info.HasLegacyPassword())
}

func TestManager_MarkMigratedClearsLegacyHash(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	_, err := m.SetPassword(ctx, "secret")
	require.NoError(t, err)

	info, err := m.MarkMigrated(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusSet, info.Status)
	assert.Empty(t, info.HashedPassword)
	assert.Equal(t, FromTime(fixedNow), info.LastLoginTime)
}

func TestManager_TouchRequiresRecord(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.Touch(context.Background())
	assert.ErrorIs(t, err, ErrNotInitialized)
}

func TestManager_SetPasswordEmpty(t *testing.T) {
	m, _ := newTestManager(t)
	_, err := m.SetPassword(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestManager_DeclineAndDefer(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestManager(t)

	info, err := m.Decline(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusNoLogin, info.Status)

	info, err = m.Defer(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusMaybeLater, info.Status)
}

func TestHashPassword(t *testing.T) {
	h := HashPassword("password")
	assert.Len(t, h, 66)
	assert.Equal(t, "0x", h[:2])
	assert.Equal(t, h, HashPassword("password"))
	assert.NotEqual(t, h, HashPassword("Password"))

	assert.False(t, Info{}.MatchesLegacy("password"))
	assert.True(t, Info{HashedPassword: h}.MatchesLegacy("password"))
}
