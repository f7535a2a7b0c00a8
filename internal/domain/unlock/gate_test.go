package unlock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"walletlock/internal/domain/forgotten"
	"walletlock/internal/domain/kv"
	"walletlock/internal/domain/login"
	"walletlock/internal/infrastructure/storage/memory"
)

// MockKeyring is a mock implementation of keyring.Keyring
type MockKeyring struct {
	mock.Mock
}

func (m *MockKeyring) VerifyAccountPassword(ctx context.Context, address, password string) (bool, error) {
	args := m.Called(ctx, address, password)
	return args.Bool(0), args.Error(1)
}

func (m *MockKeyring) AccountsPendingMigration(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockKeyring) MigratedAccounts(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockKeyring) HasAnyLocalAccounts(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

func (m *MockKeyring) MigrateAccount(ctx context.Context, address, password string) error {
	args := m.Called(ctx, address, password)
	return args.Error(0)
}

func (m *MockKeyring) ForgetAccount(ctx context.Context, address string) (bool, error) {
	args := m.Called(ctx, address)
	return args.Bool(0), args.Error(1)
}

func (m *MockKeyring) ForgetAllAccounts(ctx context.Context) (bool, error) {
	args := m.Called(ctx)
	return args.Bool(0), args.Error(1)
}

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store     *memory.Storage
	logins    *login.Manager
	forgotten *forgotten.Repo
	keyring   *MockKeyring
	gate      *Gate
}

func newFixture(t *testing.T, info *login.Info) *fixture {
	t.Helper()

	store := memory.New("test")
	logins := login.NewManager(store, func() time.Time { return fixedNow }, slog.Default())
	if info != nil {
		require.NoError(t, logins.Save(context.Background(), *info))
	}
	fr := forgotten.NewRepo(store)
	kr := new(MockKeyring)

	return &fixture{
		store:     store,
		logins:    logins,
		forgotten: fr,
		keyring:   kr,
		gate:      NewGate(logins, kr, fr, slog.Default()),
	}
}

func (f *fixture) accounts(pending, migrated []string) {
	f.keyring.On("AccountsPendingMigration", mock.Anything).Return(pending, nil)
	f.keyring.On("MigratedAccounts", mock.Anything).Return(migrated, nil)
}

func legacy(password string) *login.Info {
	return &login.Info{
		Status:         login.StatusSet,
		LastLoginTime:  login.FromTime(fixedNow.Add(-time.Hour)),
		HashedPassword: login.HashPassword(password),
	}
}

func TestGate_Resolve_LegacyMatchFullyMigrated(t *testing.T) {
	f := newFixture(t, legacy("correct horse"))
	f.accounts(nil, nil)

	res, err := f.gate.Resolve(context.Background(), "correct horse")
	require.NoError(t, err)
	assert.Equal(t, Unlocked, res)

	rec, err := f.logins.Load(context.Background())
	require.NoError(t, err)
	info, _ := rec.Info()
	assert.Equal(t, login.FromTime(fixedNow), info.LastLoginTime)
}

func TestGate_Resolve_LegacyMismatchFullyMigrated(t *testing.T) {
	f := newFixture(t, legacy("correct horse"))
	f.accounts(nil, nil)

	res, err := f.gate.Resolve(context.Background(), "battery staple")
	require.NoError(t, err)
	assert.Equal(t, WrongPassword, res)

	rec, _ := f.logins.Load(context.Background())
	info, _ := rec.Info()
	assert.Equal(t, login.FromTime(fixedNow.Add(-time.Hour)), info.LastLoginTime)
}

func TestGate_Resolve_LegacyDigestWithMigratedAccounts(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     Result
	}{
		{name: "digest matches", password: "correct horse", want: Unlocked},
		{name: "digest mismatch wins over account password", password: "battery staple", want: WrongPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, legacy("correct horse"))
			f.accounts(nil, []string{"5Grw"})
			f.keyring.On("VerifyAccountPassword", mock.Anything, "5Grw", mock.Anything).Return(true, nil).Maybe()

			res, err := f.gate.Resolve(context.Background(), tt.password)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)
			f.keyring.AssertNotCalled(t, "VerifyAccountPassword", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestGate_Resolve_LegacyMatchPendingMigration(t *testing.T) {
	f := newFixture(t, legacy("correct horse"))
	f.accounts([]string{"5Grw"}, nil)

	res, err := f.gate.Resolve(context.Background(), "correct horse")
	require.NoError(t, err)
	assert.Equal(t, NeedsMigration, res)
	f.keyring.AssertNotCalled(t, "VerifyAccountPassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestGate_Resolve_MigratedAccounts(t *testing.T) {
	tests := []struct {
		name     string
		verifyOK bool
		verifyEr error
		want     Result
	}{
		{name: "keyring accepts", verifyOK: true, want: Unlocked},
		{name: "keyring rejects", verifyOK: false, want: WrongPassword},
		{name: "keyring error fails closed", verifyEr: errors.New("boom"), want: WrongPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, &login.Info{Status: login.StatusSet})
			f.accounts(nil, []string{"5Grw"})
			f.keyring.On("VerifyAccountPassword", mock.Anything, "5Grw", "pw").Return(tt.verifyOK, tt.verifyEr)

			res, err := f.gate.Resolve(context.Background(), "pw")
			require.NoError(t, err)
			assert.Equal(t, tt.want, res)
		})
	}
}

func TestGate_Resolve_PartiallyMigrated(t *testing.T) {
	t.Run("legacy mismatch", func(t *testing.T) {
		f := newFixture(t, legacy("a"))
		f.accounts([]string{"5Pend"}, []string{"5Done"})

		res, err := f.gate.Resolve(context.Background(), "b")
		require.NoError(t, err)
		assert.Equal(t, WrongPassword, res)
	})

	t.Run("no legacy, migrated account verifies", func(t *testing.T) {
		f := newFixture(t, &login.Info{Status: login.StatusSet})
		f.accounts([]string{"5Pend"}, []string{"5Done"})
		f.keyring.On("VerifyAccountPassword", mock.Anything, "5Done", "pw").Return(true, nil)

		res, err := f.gate.Resolve(context.Background(), "pw")
		require.NoError(t, err)
		assert.Equal(t, NeedsMigration, res)
	})

	t.Run("no legacy, migrated account rejects", func(t *testing.T) {
		f := newFixture(t, &login.Info{Status: login.StatusSet})
		f.accounts([]string{"5Pend"}, []string{"5Done"})
		f.keyring.On("VerifyAccountPassword", mock.Anything, "5Done", "pw").Return(false, nil)

		res, err := f.gate.Resolve(context.Background(), "pw")
		require.NoError(t, err)
		assert.Equal(t, WrongPassword, res)
	})
}

func TestGate_Resolve_UnmigratedWithoutLegacy(t *testing.T) {
	f := newFixture(t, &login.Info{Status: login.StatusJustSet})
	f.accounts([]string{"5Grw"}, nil)

	res, err := f.gate.Resolve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, NeedsMigration, res)
}

func TestGate_Resolve_KeyringUnavailable(t *testing.T) {
	f := newFixture(t, legacy("pw"))
	f.keyring.On("AccountsPendingMigration", mock.Anything).Return(nil, errors.New("db locked"))

	res, err := f.gate.Resolve(context.Background(), "pw")
	require.NoError(t, err)
	assert.Equal(t, WrongPassword, res)
}

func TestGate_Resolve_EmptyPassword(t *testing.T) {
	f := newFixture(t, legacy("pw"))

	res, err := f.gate.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, WrongPassword, res)
	f.keyring.AssertExpectations(t)
}

func TestGate_Resolve_StorageUnavailable(t *testing.T) {
	f := newFixture(t, nil)
	require.NoError(t, f.store.Set(context.Background(), kv.KeyLoginInfo, []byte("{broken")))

	res, err := f.gate.Resolve(context.Background(), "pw")
	assert.ErrorIs(t, err, kv.ErrUnavailable)
	assert.Equal(t, WrongPassword, res)
}

func TestGate_Resolve_ClearsForgottenFlag(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, &login.Info{Status: login.StatusForgot, HashedPassword: login.HashPassword("pw"), AddressesToForget: []string{"5Grw"}})
	require.NoError(t, f.forgotten.Save(ctx, forgotten.Started([]string{"5Grw"})))
	f.accounts(nil, nil)

	res, err := f.gate.Resolve(ctx, "pw")
	require.NoError(t, err)
	assert.Equal(t, Unlocked, res)

	fi, err := f.forgotten.Load(ctx)
	require.NoError(t, err)
	assert.False(t, fi.InProgress())

	rec, _ := f.logins.Load(ctx)
	info, _ := rec.Info()
	assert.Equal(t, login.StatusSet, info.Status)
	assert.Empty(t, info.AddressesToForget)
}

func TestGate_Migrate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, legacy("pw"))
	f.accounts([]string{"5A", "5B"}, nil)
	f.keyring.On("MigrateAccount", mock.Anything, "5A", "pw").Return(nil)
	f.keyring.On("MigrateAccount", mock.Anything, "5B", "pw").Return(nil)

	require.NoError(t, f.gate.Migrate(ctx, "pw"))
	f.keyring.AssertExpectations(t)

	rec, _ := f.logins.Load(ctx)
	info, _ := rec.Info()
	assert.Equal(t, login.StatusSet, info.Status)
	assert.False(t, info.HasLegacyPassword())
}

func TestGate_Migrate_PartialFailure(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, legacy("pw"))
	f.accounts([]string{"5A", "5B"}, nil)
	f.keyring.On("MigrateAccount", mock.Anything, "5A", "pw").Return(nil)
	f.keyring.On("MigrateAccount", mock.Anything, "5B", "pw").Return(errors.New("disk full"))

	err := f.gate.Migrate(ctx, "pw")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMigrationFailed)

	var merr *MigrationError
	require.ErrorAs(t, err, &merr)
	assert.Equal(t, []string{"5B"}, merr.Failed)

	rec, _ := f.logins.Load(ctx)
	info, _ := rec.Info()
	assert.True(t, info.HasLegacyPassword(), "migration must not be marked complete")
}

func TestGate_Migrate_WrongPassword(t *testing.T) {
	f := newFixture(t, legacy("pw"))
	f.accounts([]string{"5A"}, nil)

	err := f.gate.Migrate(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrWrongPassword)
	f.keyring.AssertNotCalled(t, "MigrateAccount", mock.Anything, mock.Anything, mock.Anything)
}
