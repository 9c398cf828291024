package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/rules"
)

func TestObserveCountsEvents(t *testing.T) {
	c := NewCollector("test")

	c.Observe(rules.Event{Type: rules.EventGameStarted})
	c.Observe(rules.Event{Type: rules.EventCardPlayed})
	c.Observe(rules.Event{Type: rules.EventAttack})
	c.Observe(rules.Event{Type: rules.EventDamage, Amount: 3})
	c.Observe(rules.Event{Type: rules.EventDamage, Amount: 2})
	c.Observe(rules.Event{Type: rules.EventEffectResolved, Data: "Draw"})
	c.Observe(rules.Event{Type: rules.EventEffectResolved})
	c.Observe(rules.Event{Type: rules.EventCardDestroyed})
	c.Observe(rules.Event{Type: rules.EventActionRejected})

	assert.Equal(t, 1.0, testutil.ToFloat64(c.GamesStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.GamesActive))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Actions.WithLabelValues("play")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Actions.WithLabelValues("attack")))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.DamageDealt))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.EffectsResolved.WithLabelValues("Draw")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.EffectsResolved.WithLabelValues("unknown")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.CardsDestroyed))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.ActionsRejected))

	c.Observe(rules.Event{Type: rules.EventGameOver, SourceID: "alice", Turn: 9})
	assert.Equal(t, 1.0, testutil.ToFloat64(c.GamesFinished.WithLabelValues("win")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.GamesActive))
}

func TestCollectorFollowsEngine(t *testing.T) {
	c := NewCollector("test")
	rs := game.DefaultRuleSet()
	rs.Seed = 42
	e := game.NewEngine(zaptest.NewLogger(t), game.NewHarnessLibrary(t, ""), rs)
	e.Subscribe(c.Observe)

	deck := append(game.Repeat("Fighter", 10), game.Repeat("Bolt", 10)...)
	g, err := e.StartGame(context.Background(), "metrics", []game.PlayerSetup{
		{Name: "alice", Deck: deck, Provider: game.NewRandomProvider(1)},
		{Name: "bob", Deck: deck, Provider: game.NewRandomProvider(2)},
	})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, g.Run(ctx))

	assert.Equal(t, 1.0, testutil.ToFloat64(c.GamesStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.GamesFinished.WithLabelValues("win")))
	assert.Equal(t, 0.0, testutil.ToFloat64(c.GamesActive))
	assert.Greater(t, testutil.ToFloat64(c.Actions.WithLabelValues("end_turn")), 0.0)

	require.NoError(t, e.EndGame("metrics"))
	// already over, so no second outcome
	assert.Equal(t, 0.0, testutil.ToFloat64(c.GamesFinished.WithLabelValues("aborted")))
}

func TestHandlerServesMetrics(t *testing.T) {
	c := NewCollector("test")
	c.Observe(rules.Event{Type: rules.EventGameStarted})

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "shadowcraft_games_started_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
