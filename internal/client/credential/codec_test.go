package credential

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecode_RoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		creds []Credential
	}{
		{"empty", nil},
		{"single", []Credential{{ID: "cred-a", PublicKey: "pk-a"}}},
		{
			"multiple preserves registration order",
			[]Credential{
				{ID: "cred-a", PublicKey: "pk-a"},
				{ID: "cred-b", PublicKey: "pk-b"},
				{ID: "cred-c", PublicKey: "pk-c"},
			},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Decode(Encode(tc.creds))
			require.NoError(t, err)
			if len(tc.creds) == 0 {
				require.Empty(t, got)
				return
			}
			require.Equal(t, tc.creds, got)
		})
	}
}

func TestDecode_OrdersByIndexRegardlessOfRecordOrder(t *testing.T) {
	records := []string{
		"2;cred-c;pk-c",
		"0;cred-a;pk-a",
		"1;cred-b;pk-b",
	}

	got, err := Decode(records)
	require.NoError(t, err)
	require.Equal(t, []Credential{
		{ID: "cred-a", PublicKey: "pk-a"},
		{ID: "cred-b", PublicKey: "pk-b"},
		{ID: "cred-c", PublicKey: "pk-c"},
	}, got)
}

func TestDecode_MalformedRecords(t *testing.T) {
	tests := []struct {
		name    string
		records []string
	}{
		{"too few fields", []string{"0;cred-a"}},
		{"too many fields", []string{"0;cred-a;pk-a;extra"}},
		{"non-numeric index", []string{"x;cred-a;pk-a"}},
		{"empty record", []string{""}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.records)
			require.ErrorIs(t, err, ErrMalformedRecord)
		})
	}
}

func TestEncode_RecordFormat(t *testing.T) {
	records := Encode([]Credential{
		{ID: "cred-a", PublicKey: "pk-a"},
		{ID: "cred-b", PublicKey: "pk-b"},
	})
	require.Equal(t, []string{"0;cred-a;pk-a", "1;cred-b;pk-b"}, records)
}
