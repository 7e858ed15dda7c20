package user

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextUserID(t *testing.T) {
	tests := []struct {
		name    string
		lastID  string
		want    string
		wantErr bool
	}{
		{name: "empty starts the sequence", lastID: "", want: "U-000001"},
		{name: "increments", lastID: "U-000001", want: "U-000002"},
		{name: "keeps zero padding", lastID: "U-000099", want: "U-000100"},
		{name: "grows past six digits", lastID: "U-999999", want: "U-1000000"},
		{name: "malformed suffix", lastID: "U-abc", wantErr: true},
		{name: "missing prefix is still numeric", lastID: "42", want: "U-000043"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NextUserID(tt.lastID)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateReferralCode(t *testing.T) {
	t.Run("uses the first four letters uppercased", func(t *testing.T) {
		code := GenerateReferralCode("Linda")
		require.Len(t, code, 7)
		assert.Equal(t, "LIND", code[:4])
		assert.Regexp(t, `^[A-Z]{4}[1-9][0-9]{2}$`, code)
	})

	t.Run("replaces non-letters with X", func(t *testing.T) {
		code := GenerateReferralCode("a1-b")
		assert.Equal(t, "AXXB", code[:4])
	})

	t.Run("short names yield short prefixes", func(t *testing.T) {
		code := GenerateReferralCode("Al")
		assert.Regexp(t, `^AL[1-9][0-9]{2}$`, code)
	})

	t.Run("suffix stays in the three-digit range", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			code := GenerateReferralCode("Morgan")
			assert.Regexp(t, `^MORG[1-9][0-9]{2}$`, code)
		}
	})
}
