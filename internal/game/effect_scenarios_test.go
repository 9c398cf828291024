package game

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/rules"
)

func sources(events []rules.Event) []string {
	out := make([]string, len(events))
	for i, evt := range events {
		out[i] = evt.SourceID
	}
	return out
}

func TestTargetedSpellAutoPicksSingleCandidate(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{})
	h.StartTurn()
	fighter := h.PutOnBoard(1, "Fighter", false)
	bolt := h.PutInHand(0, "Bolt")

	h.MustDo(0, Play(bolt.Index))
	assert.Equal(t, StateDestroyed, fighter.State)
	assert.Equal(t, StateDestroyed, bolt.State)
	assert.Empty(t, h.Providers[0].TargetRequests)
	// bob for the monster, alice for the spent spell
	assert.Equal(t, 1, h.Player(0).Shadows)
	assert.Equal(t, 1, h.Player(1).Shadows)
}

func TestTargetedSpellAsksAndRetries(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{})
	h.StartTurn()
	fighter := h.PutOnBoard(1, "Fighter", false)
	wall := h.PutOnBoard(1, "Wall", false)
	bolt := h.PutInHand(0, "Bolt")
	h.Providers[0].QueueTargets("card:0")
	h.Providers[0].QueueTargets(wall.Key())

	h.MustDo(0, Play(bolt.Index))
	require.Len(t, h.Providers[0].TargetRequests, 2)
	assert.Empty(t, h.Providers[0].TargetRequests[0].Rejected)
	assert.NotEmpty(t, h.Providers[0].TargetRequests[1].Rejected)
	assert.Len(t, h.Providers[0].TargetRequests[0].Candidates, 2)
	assert.Equal(t, 6, wall.Defense)
	assert.Equal(t, StatePlayed, fighter.State)
}

func TestTargetedSpellNeedsCandidates(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{})
	h.StartTurn()
	bolt := h.PutInHand(0, "Bolt")
	err := h.Do(0, Play(bolt.Index))
	assert.True(t, errors.Is(err, ErrNoTargets))
	assert.True(t, bolt.InHand())
}

func TestAccelerateSkipsBaseEffects(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{})
	h.StartTurn()
	minthe := h.PutInHand(0, "Minthe")
	alice := h.Player(0)
	handBefore := alice.Hand.Len()

	err := h.Do(0, Play(minthe.Index))
	assert.True(t, errors.Is(err, ErrInsufficientEnergy))

	h.MustDo(0, PlayAs(minthe.Index, ModeAccelerate))
	assert.Equal(t, StateDestroyed, minthe.State)
	assert.Zero(t, alice.Energy)
	assert.Zero(t, alice.Board.Len())
	// one shadow for the discard, none from the base fanfare
	assert.Equal(t, 1, alice.Shadows)
	// minthe left, the accelerate draw replaced it
	assert.Equal(t, handBefore, alice.Hand.Len())
}

func TestAccelerateUnavailableWhenAffordable(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{})
	h.StartTurn()
	h.SetEnergy(0, 3)
	minthe := h.PutInHand(0, "Minthe")
	err := h.Do(0, PlayAs(minthe.Index, ModeAccelerate))
	var illegalErr *IllegalActionError
	require.True(t, errors.As(err, &illegalErr))
	assert.Equal(t, rules.ReasonModeUnavailable, illegalErr.Reason)
}

func TestEnhanceOverridesStats(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{})
	h.StartTurn()
	h.SetEnergy(0, 5)
	minthe := h.PutInHand(0, "Minthe")
	alice := h.Player(0)
	handBefore := alice.Hand.Len()

	h.MustDo(0, PlayAs(minthe.Index, ModeEnhance))
	assert.Equal(t, StatePlayed, minthe.State)
	assert.Equal(t, 5, minthe.Attack)
	assert.Equal(t, 5, minthe.Defense)
	assert.Zero(t, alice.Energy)
	assert.Equal(t, 5, alice.Shadows)
	assert.Equal(t, handBefore-1+2, alice.Hand.Len())
}

func TestEvolveRules(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{})
	h.StartTurn()
	first := h.PutOnBoard(0, "Evolver", false)
	second := h.PutOnBoard(0, "Evolver", false)

	err := h.Do(0, Evolve(first.Index))
	assert.True(t, errors.Is(err, ErrCannotEvolve))

	h.With(func(g *Game) { g.Player(0).TurnsPlayed = 3 })
	h.MustDo(0, Evolve(first.Index))

	alice := h.Player(0)
	assert.True(t, first.Evolved)
	assert.Equal(t, StateEvolved, first.State)
	assert.True(t, first.OnBoard())
	assert.Equal(t, 4, first.Attack)
	assert.Equal(t, 4, first.Defense)
	assert.Equal(t, AttackRush, first.AttackState)
	assert.Equal(t, 2, alice.EvolutionPoints)
	assert.True(t, alice.HasEvolvedThisTurn)
	assert.Equal(t, 19, h.Player(1).Health)

	err = h.Do(0, Evolve(second.Index))
	assert.True(t, errors.Is(err, ErrCannotEvolve))
	err = h.Do(0, Evolve(first.Index))
	assert.True(t, errors.Is(err, ErrCannotEvolve))
}

func TestLimitedEffectStopsFiring(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{})
	h.StartTurn()
	h.PutOnBoard(0, "Watcher", false)
	for i := 0; i < 3; i++ {
		insight := h.PutInHand(0, "Insight")
		h.MustDo(0, Play(insight.Index))
	}
	// three spent spells plus two watcher activations
	assert.Equal(t, 5, h.Player(0).Shadows)
}

func TestGuardErrorCountsAsFalse(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{})
	h.StartTurn()
	oracle := h.PutInHand(0, "Oracle")
	alice := h.Player(0)
	handBefore := alice.Hand.Len()

	h.MustDo(0, Play(oracle.Index))
	assert.Equal(t, handBefore-1, alice.Hand.Len())
	assert.Empty(t, h.Events(rules.EventEffectResolved))
	assert.False(t, h.Game.IsOver())
}

func TestUnstackableRegistration(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{})
	h.StartTurn()
	for i := 0; i < 2; i++ {
		totem := h.PutInHand(0, "Totem")
		h.MustDo(0, Play(totem.Index))
	}
	alice := h.Player(0)
	assert.Equal(t, 1, alice.effects.Len())
	assert.Equal(t, 2, alice.Shadows)

	h.MustDo(0, EndTurn())
	assert.Equal(t, 3, alice.Shadows)
}

func TestCascadeResolvesDepthFirst(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{})
	h.StartTurn()
	herald := h.PutInHand(0, "Herald")

	h.MustDo(0, Play(herald.Index))
	assert.Equal(t, []string{"Squire", "Herald"}, sources(h.Events(rules.EventShadowsGained)))

	resolved := h.Events(rules.EventEffectResolved)
	require.Len(t, resolved, 3)
	assert.Equal(t, []string{"Squire", "Herald", "Herald"}, sources(resolved))
	assert.Equal(t, []string{"GainShadows", "Summon", "GainShadows"},
		[]string{resolved[0].Data, resolved[1].Data, resolved[2].Data})
	assert.Equal(t, 2, h.Player(0).Board.Len())
	assert.Len(t, h.Events(rules.EventCardSummoned), 1)
}

func TestNecromancyPaysOrFizzles(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{})
	h.StartTurn()
	h.SetEnergy(0, 4)

	h.SetShadows(0, 1)
	poor := h.PutInHand(0, "Reaper")
	h.MustDo(0, Play(poor.Index))
	assert.Equal(t, 2, poor.Attack)
	assert.Equal(t, 1, h.Player(0).Shadows)

	h.SetShadows(0, 3)
	rich := h.PutInHand(0, "Reaper")
	h.MustDo(0, Play(rich.Index))
	assert.Equal(t, 4, rich.Attack)
	assert.Equal(t, 4, rich.Defense)
	assert.Equal(t, 1, h.Player(0).Shadows)
	assert.Len(t, h.Events(rules.EventNecromancy), 1)
}

func TestInvocationFromDeck(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{})
	h.StartTurn()
	summoner := h.PutOnDeck(1, "Summoner")
	h.PutOnDeck(1, "Filler")
	h.SetShadows(1, 3)

	h.MustDo(0, EndTurn())
	bob := h.Player(1)
	assert.Equal(t, StatePlayed, summoner.State)
	assert.True(t, bob.Board.Contains(summoner))
	assert.Equal(t, []string{"Summoner"}, bob.Invoked)
	assert.Len(t, h.Events(rules.EventCardInvoked), 1)

	h.MustDo(1, EndTurn())
	assert.Empty(t, bob.Invoked)
}

func TestInvocationWaitsForGuard(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{})
	h.StartTurn()
	summoner := h.PutOnDeck(1, "Summoner")
	// bob draws two on his first turn
	h.PutOnDeck(1, "Filler")
	h.PutOnDeck(1, "Filler")

	h.MustDo(0, EndTurn())
	assert.Equal(t, StateInDeck, summoner.State)
	assert.Empty(t, h.Events(rules.EventCardInvoked))
}

func TestAmuletCountdown(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{})
	hourglass := h.PutOnBoard(0, "Hourglass", false)
	h.StartTurn()
	assert.Equal(t, 1, hourglass.Countdown.Count)

	alice := h.Player(0)
	h.MustDo(0, EndTurn())
	h.MustDo(1, EndTurn())
	assert.Equal(t, StateDestroyed, hourglass.State)
	assert.Zero(t, alice.Board.Len())
	assert.Equal(t, 1, alice.Shadows)
	// opening three, two turn draws and the last-word draw
	assert.Equal(t, 6, alice.Hand.Len())
}

const mournerLibrary = `{
  "Mourner": {
    "Cost": 2, "Type": "Monster",
    "Base": {
      "Attack": 1, "Defense": 5,
      "Effects": [{"Trigger": "onFriendlyCardDestroyed", "Effect": {"Op": "GainShadows", "Amount": 10}}]
    }
  }
}`

func TestExpiredAmuletSendsNoDestroyedBroadcast(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{Library: mournerLibrary})
	hourglass := h.PutOnBoard(0, "Hourglass", false)
	h.PutOnBoard(0, "Mourner", false)
	h.StartTurn()

	h.MustDo(0, EndTurn())
	h.MustDo(1, EndTurn())
	require.Equal(t, StateDestroyed, hourglass.State)
	// only the amulet's own shadow
	assert.Equal(t, 1, h.Player(0).Shadows)
}

func TestDestroyedMonsterBroadcasts(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{Library: mournerLibrary})
	h.PutOnBoard(0, "Mourner", false)
	glass := h.PutOnBoard(0, "Glass", false)
	h.StartTurn()

	h.With(func(g *Game) {
		g.schedule(g.destroy(glass))
		require.NoError(t, g.settle())
	})
	assert.Equal(t, StateDestroyed, glass.State)
	assert.Equal(t, 11, h.Player(0).Shadows)
}

const selfAwareLibrary = `{
  "Introspect": {
    "Cost": 0, "Type": "Spell",
    "Base": {"Effects": [
      {"Trigger": "onPlayed", "Test": "self.onBoard == true", "Effect": {"Op": "GainShadows", "Amount": 5}},
      {"Trigger": "onPlayed", "Test": "self.state == \"resolving\"", "Effect": {"Op": "GainShadows", "Amount": 1}}
    ]}
  },
  "Recycle": {
    "Cost": 0, "Type": "Spell",
    "Base": {
      "Targets": [{"Location": "inFriendlyHand"}],
      "Effects": [{"Trigger": "onTargetsChosen", "Effect": {"Op": "Discard", "Subject": "Targets"}}]
    }
  }
}`

func TestResolvingSpellIsOffTheBoard(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{Library: selfAwareLibrary})
	h.StartTurn()
	spell := h.PutInHand(0, "Introspect")

	h.MustDo(0, Play(spell.Index))
	// one from its resolving guard, one for being spent
	assert.Equal(t, 2, h.Player(0).Shadows)
	assert.Equal(t, StateDestroyed, spell.State)
	assert.False(t, h.Player(0).Board.Contains(spell))
}

func TestHandTargetingSpellIgnoresItself(t *testing.T) {
	h := NewGameHarness(t, HarnessOptions{Library: selfAwareLibrary})
	h.StartTurn()
	h.With(func(g *Game) {
		hand := g.Player(0).Hand
		for _, c := range hand.Cards() {
			hand.Remove(c)
		}
	})
	recycle := h.PutInHand(0, "Recycle")

	err := h.Do(0, Play(recycle.Index))
	assert.True(t, errors.Is(err, ErrNoTargets))
	assert.True(t, recycle.InHand())

	filler := h.PutInHand(0, "Filler")
	h.MustDo(0, Play(recycle.Index))
	assert.Equal(t, StateDestroyed, filler.State)
	assert.Zero(t, h.Player(0).Hand.Len())
}
