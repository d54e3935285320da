package objectid

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsValid(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want bool
	}{
		{"lowercase hex", "65a1f0c2e4b0a1b2c3d4e5f6", true},
		{"uppercase hex", "65A1F0C2E4B0A1B2C3D4E5F6", true},
		{"too short", "65a1f0c2e4b0a1b2c3d4e5", false},
		{"too long", "65a1f0c2e4b0a1b2c3d4e5f6aa", false},
		{"not hex", "zza1f0c2e4b0a1b2c3d4e5f6", false},
		{"empty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, IsValid(tt.raw))
		})
	}
}

func TestConvert_CaseInsensitiveEquality(t *testing.T) {
	req := require.New(t)
	lower, err := Convert("65a1f0c2e4b0a1b2c3d4e5f6")
	req.NoError(err)
	upper, err := Convert("65A1F0C2E4B0A1B2C3D4E5F6")
	req.NoError(err)
	req.Equal(lower, upper)
	req.True(lower == upper)
}

func TestConvert_Invalid(t *testing.T) {
	_, err := Convert("not-an-id")
	require.ErrorIs(t, err, ErrInvalid)
}

func TestConvert_NormalizationIsStable(t *testing.T) {
	req := require.New(t)
	for _, raw := range []string{"65A1F0C2E4B0A1B2C3D4E5F6", New().String(), strings.ToUpper(New().String())} {
		id, err := Convert(raw)
		req.NoError(err)
		req.True(IsValid(id.String()))
		again, err := Convert(id.String())
		req.NoError(err)
		req.Equal(id, again)
		req.Equal(strings.ToLower(raw), id.String())
	}
}

func TestNew_Unique(t *testing.T) {
	seen := make(map[ID]struct{})
	for i := 0; i < 1000; i++ {
		id := New()
		require.False(t, id.IsZero())
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestCompare(t *testing.T) {
	a := MustConvert("000000000000000000000001")
	b := MustConvert("000000000000000000000002")
	require.Negative(t, a.Compare(b))
	require.Positive(t, b.Compare(a))
	require.Zero(t, a.Compare(a))
}

func TestJSONAndScan(t *testing.T) {
	req := require.New(t)
	id := New()

	data, err := json.Marshal(struct {
		ID ID `json:"id"`
	}{id})
	req.NoError(err)
	req.JSONEq(`{"id":"`+id.String()+`"}`, string(data))

	var decoded struct {
		ID ID `json:"id"`
	}
	req.NoError(json.Unmarshal(data, &decoded))
	req.Equal(id, decoded.ID)

	value, err := id.Value()
	req.NoError(err)
	var scanned ID
	req.NoError(scanned.Scan(value))
	req.Equal(id, scanned)
	req.NoError(scanned.Scan([]byte(id.String())))
	req.Equal(id, scanned)
	req.Error(scanned.Scan(42))
}
