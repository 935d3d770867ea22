package pool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinGeneratesTokenWhenEmpty(t *testing.T) {
	r := New()
	tok := r.Join("")
	assert.NotEmpty(t, tok)
	assert.Equal(t, 1, r.Count())
}

func TestJoinIsIdempotentForSameToken(t *testing.T) {
	r := New()
	tok := r.Join("fixed")
	again := r.Join(tok)
	assert.Equal(t, tok, again)
	assert.Equal(t, 1, r.Count())
}

func TestLeaveRemovesToken(t *testing.T) {
	r := New()
	tok := r.Join("")
	r.Leave(tok)
	assert.Equal(t, 0, r.Count())
	assert.False(t, r.Has(tok))
}

func TestLeaveAbsentTokenIsNoop(t *testing.T) {
	r := New()
	assert.NotPanics(t, func() { r.Leave("nope") })
	assert.Equal(t, 0, r.Count())
}

func TestJoinGeneratesDistinctTokens(t *testing.T) {
	r := New()
	a := r.Join("")
	b := r.Join("")
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, r.Count())
}
