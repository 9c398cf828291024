package rules

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLifecycleTransitions(t *testing.T) {
	ctx := context.Background()
	var seen []GameState
	l := NewLifecycle(func(from, to GameState) {
		seen = append(seen, to)
	})

	assert.Equal(t, GameStateNotStarted, l.State())
	require.Error(t, l.Begin(ctx), "cannot begin before dealing")

	require.NoError(t, l.Deal(ctx))
	require.NoError(t, l.Begin(ctx))
	assert.Equal(t, GameStateInTurn, l.State())
	assert.False(t, l.IsOver())

	require.NoError(t, l.Finish(ctx))
	require.NoError(t, l.Finish(ctx))
	assert.True(t, l.IsOver())

	assert.Equal(t, []GameState{GameStateMulligan, GameStateInTurn, GameStateGameOver}, seen)
}
