package persona

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIsDeterministic(t *testing.T) {
	seed := "AI:deadbeef:cafebabe"
	a := Generate(seed, LangEN)
	b := Generate(seed, LangEN)
	assert.Equal(t, a, b)
}

func TestGenerateDiffersAcrossSeeds(t *testing.T) {
	a := Generate("AI:hash1:nonce1", LangEN)
	b := Generate("AI:hash2:nonce2", LangEN)
	assert.NotEqual(t, a, b)
}

func TestGenerateHonorsLangPrefOverride(t *testing.T) {
	p := Generate("HUMAN:hash:nonce", LangDE)
	assert.Equal(t, LangDE, p.LangPref)
}

func TestGenerateFieldsWithinBounds(t *testing.T) {
	p := Generate("seed-x", LangAuto)
	require.GreaterOrEqual(t, p.ReplyWordCap, 9)
	require.LessOrEqual(t, p.ReplyWordCap, 15)
	require.GreaterOrEqual(t, p.TypoRate, 0.12)
	require.LessOrEqual(t, p.TypoRate, 0.20)
	require.NotEmpty(t, p.Name)
}
