package responder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRules_FirstMatchWins(t *testing.T) {
	rules := &Rules{
		table: []Rule{
			{Keywords: []string{"sleep"}, Response: "first"},
			{Keywords: []string{"sleep", "tired"}, Response: "second"},
		},
		fallback: "fallback",
	}

	reply, err := rules.Reply(context.Background(), "I can't sleep and feel tired")
	require.NoError(t, err)
	assert.Equal(t, "first", reply)
}

func TestRules_Fallback(t *testing.T) {
	rules := NewRules()

	reply, err := rules.Reply(context.Background(), "what is the meaning of life")
	require.NoError(t, err)
	assert.Equal(t, rules.fallback, reply)
}

func TestRules_CaseInsensitive(t *testing.T) {
	rules := NewRules()

	lower, err := rules.Reply(context.Background(), "i have a headache")
	require.NoError(t, err)
	upper, err := rules.Reply(context.Background(), "I Have A HEADACHE")
	require.NoError(t, err)
	assert.Equal(t, lower, upper)
	assert.NotEqual(t, rules.fallback, lower)
}

func TestRules_Deterministic(t *testing.T) {
	rules := NewRules()

	first, err := rules.Reply(context.Background(), "fever and headache")
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := rules.Reply(context.Background(), "fever and headache")
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestRules_StreamReply(t *testing.T) {
	rules := NewRules()

	var chunks []string
	reply, err := rules.StreamReply(context.Background(), "how much water should I drink", func(chunk string) error {
		chunks = append(chunks, chunk)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, reply, chunks[0])
}
