package game

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func recordRandomGame(t *testing.T, dir string) (*Engine, *Game, *Replay) {
	t.Helper()
	lib := NewHarnessLibrary(t, "")
	e := NewEngine(zaptest.NewLogger(t), lib, DefaultRuleSet())
	e.SetRecorder(NewReplayRecorder(zaptest.NewLogger(t), dir))

	g, err := e.StartGame(context.Background(), "recorded", []PlayerSetup{
		{Name: "alice", Deck: mixedDeck, Provider: NewRandomProvider(5)},
		{Name: "bob", Deck: mixedDeck, Provider: NewRandomProvider(6)},
	})
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, g.Run(ctx))

	replay, ok := e.recorder.Replay("recorded")
	require.True(t, ok)
	require.NoError(t, e.EndGame("recorded"))
	return e, g, replay
}

func TestReplayReproducesGame(t *testing.T) {
	dir := t.TempDir()
	_, original, replay := recordRandomGame(t, dir)
	assert.NotZero(t, replay.Seed)
	assert.Equal(t, original.Seed(), replay.Seed)
	assert.Equal(t, original.Winner(), replay.Winner)
	assert.Equal(t, original.Checksum().Hash, replay.Checksum)
	assert.NotZero(t, replay.Size())

	loaded, err := LoadReplayFromFile(filepath.Join(dir, "recorded.replay"))
	require.NoError(t, err)
	assert.Equal(t, replay.Checksum, loaded.Checksum)
	assert.Equal(t, replay.Size(), loaded.Size())
	assert.Equal(t, [2]string{"alice", "bob"}, loaded.Players)

	fresh := NewEngine(zaptest.NewLogger(t), NewHarnessLibrary(t, ""), DefaultRuleSet())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	again, err := loaded.Play(ctx, fresh)
	require.NoError(t, err)
	assert.Equal(t, original.Winner(), again.Winner())
	assert.Equal(t, original.Turn(), again.Turn())
}

func TestTruncatedReplayDiverges(t *testing.T) {
	_, _, replay := recordRandomGame(t, "")
	require.Greater(t, replay.Size(), 2)
	replay.Decisions = replay.Decisions[:len(replay.Decisions)/2]

	fresh := NewEngine(zaptest.NewLogger(t), NewHarnessLibrary(t, ""), DefaultRuleSet())
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	g, err := replay.Play(ctx, fresh)
	assert.True(t, errors.Is(err, ErrReplayDiverged))
	require.NotNil(t, g)
	assert.True(t, g.IsOver())
	assert.Empty(t, g.Winner())
}

func TestRecordingMapsTargetsByPosition(t *testing.T) {
	replay := NewReplay("g", DefaultRuleSet(), nil)
	inner := &ScriptedProvider{}
	inner.QueueTargets("card:7", "card:nope")
	rec := &recordingProvider{seat: 1, inner: inner, replay: replay}

	req := TargetRequest{Count: 2, Candidates: []TargetOption{{Key: "card:3"}, {Key: "card:7"}}}
	_, err := rec.RequestTargets(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, replay.Decisions, 1)
	assert.Equal(t, []int{1, -1}, replay.Decisions[0].Picks)

	// the replayed game offers the same candidates under other indices
	rp := newReplayProvider(1, replay.Decisions)
	keys, err := rp.RequestTargets(context.Background(), TargetRequest{
		Count:      2,
		Candidates: []TargetOption{{Key: "card:40"}, {Key: "card:41"}},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"card:41", "invalid"}, keys)
}
