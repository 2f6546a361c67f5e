package jobs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPayloadRoundTrip(t *testing.T) {
	p := Payload{PromptID: "prompt-123", Provider: "openai", Model: "gpt-4o-mini"}

	raw, err := EncodePayload(p)
	require.NoError(t, err)

	got, err := DecodePayload(raw)
	require.NoError(t, err)
	assert.Equal(t, p, got)
}

func TestPayloadOmitsEmptyModel(t *testing.T) {
	raw, err := EncodePayload(Payload{PromptID: "prompt-123", Provider: "openai"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "model")
}

func TestStatusTransitions(t *testing.T) {
	cases := []struct {
		from Status
		to   Status
		ok   bool
	}{
		{StatusPending, StatusRunning, true},
		{StatusRunning, StatusCompleted, true},
		{StatusRunning, StatusPending, true},
		{StatusRunning, StatusFailed, true},
		{StatusPending, StatusCompleted, false},
		{StatusPending, StatusFailed, false},
		{StatusCompleted, StatusRunning, false},
		{StatusCompleted, StatusPending, false},
		{StatusFailed, StatusRunning, false},
		{StatusFailed, StatusPending, false},
		{Status("bogus"), StatusRunning, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.ok, tc.from.CanTransition(tc.to), "%s->%s", tc.from, tc.to)
	}
}

func TestStatusTerminal(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusRunning.Terminal())
	assert.True(t, StatusCompleted.Terminal())
	assert.True(t, StatusFailed.Terminal())
}

func TestJobDue(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	j := Job{Status: StatusPending, ScheduledFor: now}
	assert.True(t, j.Due(now))
	assert.False(t, j.Due(now.Add(-time.Second)))

	j.Status = StatusRunning
	assert.False(t, j.Due(now))
}
