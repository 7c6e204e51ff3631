package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTierForScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score int
		want  Tier
	}{
		{100, TierA},
		{90, TierA},
		{89, TierB},
		{70, TierB},
		{69, TierC},
		{50, TierC},
		{49, TierD},
		{0, TierD},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, TierForScore(tt.score), "score %d", tt.score)
	}
}

func TestTier_Valid(t *testing.T) {
	t.Parallel()

	assert.True(t, TierA.Valid())
	assert.True(t, TierD.Valid())
	assert.False(t, Tier("E").Valid())
	assert.False(t, Tier("").Valid())
}

func TestParseBuyingStage(t *testing.T) {
	t.Parallel()

	st, ok := ParseBuyingStage(" evaluate ")
	assert.True(t, ok)
	assert.Equal(t, StageEvaluate, st)

	_, ok = ParseBuyingStage("Negotiate")
	assert.False(t, ok)
}

func TestNormalizeDomain(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"acme.io", "acme.io"},
		{"  ACME.io ", "acme.io"},
		{"https://www.acme.io/", "acme.io"},
		{"http://acme.io/pricing?x=1", "acme.io"},
		{"www.acme.io.", "acme.io"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, NormalizeDomain(tt.in))
		})
	}
}
