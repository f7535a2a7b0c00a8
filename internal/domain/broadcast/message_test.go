package broadcast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Message
		wantErr bool
	}{
		{
			name: "storage changed",
			raw:  `{"kind":"storage-changed","key":"loginInfo","origin":"popup"}`,
			want: StorageChanged("popup", "loginInfo"),
		},
		{
			name: "locked accounts expired",
			raw:  `{"kind":"locked-accounts-expired"}`,
			want: LockedAccountsExpired(""),
		},
		{
			name:    "storage changed without key",
			raw:     `{"kind":"storage-changed"}`,
			wantErr: true,
		},
		{
			name:    "unknown kind",
			raw:     `{"kind":"reboot"}`,
			wantErr: true,
		},
		{
			name:    "broken json",
			raw:     `{`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Decode([]byte(tt.raw))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_RejectsInvalid(t *testing.T) {
	_, err := Encode(Message{Kind: "nope"})
	assert.Error(t, err)

	raw, err := Encode(ForceReload("daemon"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"force-reload","origin":"daemon"}`, string(raw))
}
