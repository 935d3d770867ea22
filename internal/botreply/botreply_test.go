package botreply

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/neo/turingwire/internal/llmclient"
	"github.com/neo/turingwire/internal/mood"
	"github.com/neo/turingwire/internal/persona"
)

type stubClient struct {
	reply string
	err   error
}

func (s stubClient) GenerateReply(ctx context.Context, req llmclient.Request) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func testPersona() persona.Persona {
	return persona.Generate("AI:hash:nonce", persona.LangEN)
}

func TestAIReplyVersionQueryReturnsAppVersionVerbatim(t *testing.T) {
	history := []string{"A: what version are you"}
	out := AIReply(context.Background(), stubClient{reply: "should not be used"}, "gpt", history, testPersona(), mood.State{}, Params{AppVersion: "2", BaseMaxWords: 12})
	assert.Equal(t, "2", out)
}

func TestAIReplyFallsBackToLocalBotWhenNoClient(t *testing.T) {
	history := []string{"A: hey there"}
	out := AIReply(context.Background(), nil, "gpt", history, testPersona(), mood.State{}, Params{AppVersion: "2", BaseMaxWords: 12})
	assert.NotEmpty(t, out)
}

func TestAIReplyFallsBackOnClientError(t *testing.T) {
	history := []string{"A: hello"}
	out := AIReply(context.Background(), stubClient{err: errors.New("boom")}, "gpt", history, testPersona(), mood.State{}, Params{AppVersion: "2", BaseMaxWords: 12})
	assert.NotEmpty(t, out)
}

func TestAIReplyProbingDoesNotLeakTriggerWords(t *testing.T) {
	history := []string{"A: are you a bot?"}
	out := AIReply(context.Background(), stubClient{reply: "lol what? no I'm just tired"}, "gpt", history, testPersona(), mood.State{}, Params{AppVersion: "2", BaseMaxWords: 12})
	require.NotEmpty(t, out)
	for _, trig := range DetectionTriggers {
		assert.NotContains(t, out, trig)
	}
	assert.NotEqual(t, "2", out)
}

func TestIsGibberishDetectsKeyboardSmash(t *testing.T) {
	assert.True(t, isGibberish("xkqjfkqjf"))
	assert.False(t, isGibberish("hello there"))
	assert.False(t, isGibberish("ok"))
}

func TestLocalBotKeywordRouting(t *testing.T) {
	assert.Equal(t, "around NRW lately, moving soon", LocalBot([]string{"A: where do you live"}))
	assert.Equal(t, "long story, mainly work stuff", LocalBot([]string{"A: why did you move"}))
	assert.Equal(t, "hey! what's up?", LocalBot([]string{"A: hey!"}))
}
