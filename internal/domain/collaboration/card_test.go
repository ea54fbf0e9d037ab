package collaboration

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCardID_RoundTrip(t *testing.T) {
	for i := 0; i < 50; i++ {
		suggested, seeking := uuid.New(), uuid.New()

		card := BuildCardID(suggested, seeking)
		require.True(t, IsCardIDFormat(card), card)

		gotSuggested, gotSeeking, err := ParseCardID(card)
		require.NoError(t, err)
		assert.Equal(t, suggested, gotSuggested)
		assert.Equal(t, seeking, gotSeeking)
	}
}

func TestCardID_OrderMatters(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	assert.NotEqual(t, BuildCardID(a, b), BuildCardID(b, a))
	assert.True(t, strings.HasPrefix(BuildCardID(a, b), a.String()+"_"))
}

func TestParseCardID_Rejects(t *testing.T) {
	valid := uuid.NewString()
	cases := map[string]string{
		"empty":            "",
		"single uuid":      valid,
		"wrong separator":  valid + "-" + valid,
		"short half":       valid + "_" + valid[:35],
		"non hex":          strings.Repeat("z", 36) + "_" + valid,
		"hyphens only":     strings.Repeat("-", 36) + "_" + valid,
		"trailing garbage": valid + "_" + valid + "x",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, _, err := ParseCardID(in)
			assert.ErrorIs(t, err, ErrInvalidCardID)
		})
	}
}

func TestCanonicalCardID_LowerCases(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	upper := strings.ToUpper(BuildCardID(a, b))

	got, err := CanonicalCardID(upper)
	require.NoError(t, err)
	assert.Equal(t, BuildCardID(a, b), got)
}
