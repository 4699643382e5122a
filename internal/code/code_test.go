package code

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	testCases := []struct {
		name        string
		length      int
		expectedLen int
	}{
		{name: "configured length", length: 8, expectedLen: 8},
		{name: "zero falls back to default", length: 0, expectedLen: DefaultLength},
		{name: "negative falls back to default", length: -3, expectedLen: DefaultLength},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Generate(tc.length)
			require.NoError(t, err)
			assert.Len(t, got, tc.expectedLen)

			for _, r := range got {
				assert.True(t, strings.ContainsRune(alphabet, r), "unexpected character %q", r)
			}
		})
	}
}

func TestPickIsUnbiased(t *testing.T) {
	counts := make(map[byte]int)
	rejected := 0
	for b := 0; b < 256; b++ {
		ch, ok := pick(byte(b))
		if !ok {
			rejected++
			assert.GreaterOrEqual(t, b, sampleLimit)
			continue
		}
		counts[ch]++
	}

	// Every accepted character must have the same number of byte preimages,
	// otherwise some codes are easier to guess than others.
	assert.Equal(t, 256-sampleLimit, rejected)
	assert.Len(t, counts, len(alphabet))
	for ch, n := range counts {
		assert.Equal(t, sampleLimit/len(alphabet), n, "character %q is over- or under-represented", ch)
	}
}

func TestGenerateVaries(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		c, err := Generate(6)
		require.NoError(t, err)
		seen[c] = true
	}
	// 50 draws from a 31^6 space colliding down to a handful would mean a
	// broken random source.
	assert.Greater(t, len(seen), 45)
}
