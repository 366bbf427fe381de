package noi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"150.00", 15000},
		{"150", 15000},
		{"150.5", 15050},
		{"0.01", 1},
		{"0", 0},
		{".50", 50},
		{" 12.34 ", 1234},
	}
	for _, c := range cases {
		got, err := ParseAmount(c.in)
		require.NoError(t, err, "input %q", c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
	}
}

func TestParseAmountRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "abc", "-5", "-0.50", "-0.01", "+1.00", "1.234", "1.2.3", "1,50"} {
		_, err := ParseAmount(in)
		assert.Error(t, err, "input %q", in)
	}
}

// Fractional-only negatives carry the sign on a "-0" whole part; the parser
// must not hand them back as positive cents.
func TestParseAmountKeepsNoSignedZeroFraction(t *testing.T) {
	got, err := ParseAmount("-0.50")
	require.Error(t, err)
	assert.Zero(t, got)
}

func TestFormatAmountRoundTrips(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 15000, 123456789} {
		s := FormatAmount(cents)
		back, err := ParseAmount(s)
		require.NoError(t, err, "formatted %q", s)
		assert.Equal(t, cents, back)
	}
	assert.Equal(t, "150.00", FormatAmount(15000))
	assert.Equal(t, "0.05", FormatAmount(5))
}

func TestValidNoteType(t *testing.T) {
	for _, nt := range NoteTypes {
		assert.True(t, ValidNoteType(string(nt)))
	}
	assert.False(t, ValidNoteType("Bribe"))
	assert.False(t, ValidNoteType(""))
}
