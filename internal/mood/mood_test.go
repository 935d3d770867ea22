package mood

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAnalyzeStyleEmptyMessage(t *testing.T) {
	s := AnalyzeStyle("")
	assert.Equal(t, Style{}, s)
}

func TestAnalyzeStyleDetectsAggression(t *testing.T) {
	s := AnalyzeStyle("you're so stupid and dumb, shut up!!")
	assert.Greater(t, s.Aggressive, 0.0)
}

func TestAnalyzeStyleDetectsLogical(t *testing.T) {
	s := AnalyzeStyle("if this is true then therefore the argument is consistent")
	assert.Greater(t, s.Logical, 0.0)
}

func TestUpdateClampsAggressivenessRange(t *testing.T) {
	m := State{}
	for i := 0; i < 50; i++ {
		m = Update(m, Style{Aggressive: 1, Emotional: 1, Logical: 1}, 0.9)
	}
	assert.GreaterOrEqual(t, m.Aggressiveness, -1.0)
	assert.LessOrEqual(t, m.Aggressiveness, 1.0)
	assert.GreaterOrEqual(t, m.Empathy, 0.0)
	assert.LessOrEqual(t, m.Empathy, 1.0)
	assert.GreaterOrEqual(t, m.Playfulness, 0.0)
	assert.LessOrEqual(t, m.Playfulness, 1.0)
	assert.GreaterOrEqual(t, m.Analytical, 0.0)
	assert.LessOrEqual(t, m.Analytical, 1.0)
}

func TestBuildInstructionsEmptyWhenNeutral(t *testing.T) {
	assert.Equal(t, "", BuildInstructions(State{}))
}

func TestBuildInstructionsNonEmptyWhenAggressive(t *testing.T) {
	out := BuildInstructions(State{Aggressiveness: 0.5})
	assert.NotEmpty(t, out)
}

func TestParamsStaysWithinBounds(t *testing.T) {
	extremes := []State{
		{Aggressiveness: 1, Empathy: 1, Playfulness: 1, Analytical: 1},
		{Aggressiveness: -1, Empathy: 0, Playfulness: 0, Analytical: 0},
		{Aggressiveness: 0, Empathy: 0, Playfulness: 0, Analytical: 0},
	}
	for _, m := range extremes {
		p := Params(m, 0.7, 12, 0.22)
		assert.GreaterOrEqual(t, p.Temperature, 0.2)
		assert.LessOrEqual(t, p.Temperature, 1.5)
		assert.GreaterOrEqual(t, p.MaxWords, 8)
		assert.LessOrEqual(t, p.MaxWords, 30)
		assert.GreaterOrEqual(t, p.TypoRate, 0.0)
		assert.LessOrEqual(t, p.TypoRate, 0.5)
	}
}
