package carddef

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/effects"
)

const sampleDocument = `{
  "Ghost": {"Cost": 1, "Type": "Monster", "Abilities": ["Storm"], "Base": {"Attack": 1, "Defense": 1}},
  "SkullBeast": {"Cost": 2, "Type": "Monster", "Base": {"Attack": 2, "Defense": 2}},
  "SoulConversion": {
    "Cost": 1, "Type": "Spell",
    "Base": {
      "Targets": [{"Type": "Monster", "Location": "onFriendlyBoard"}],
      "Effects": [
        {"Trigger": "onTargetsChosen", "Effect": {"Op": "Destroy"}},
        {"Trigger": "onPlayed", "Effect": {"Op": "Draw", "Count": 2}}
      ]
    }
  },
  "Gremory": {
    "Cost": 2, "Type": "Monster",
    "Base": {
      "Attack": 2, "Defense": 2,
      "Effects": [{"Trigger": "onDestroyed", "Effect": {"Op": "AddCards", "Names": ["Ghost"]}}]
    },
    "Evolve": {"AttackChange": 1}
  }
}`

func TestSplitDocumentInjectsNames(t *testing.T) {
	entries, err := SplitDocument([]byte(sampleDocument))
	require.NoError(t, err)
	require.Len(t, entries, 4)

	lib, rejected := Build(entries, zaptest.NewLogger(t))
	require.Empty(t, rejected)
	assert.Equal(t, []string{"Ghost", "Gremory", "SkullBeast", "SoulConversion"}, lib.Names())

	ghost, err := lib.Lookup("Ghost")
	require.NoError(t, err)
	assert.True(t, ghost.HasAbility(AbilityStorm))

	gremory, err := lib.Lookup("Gremory")
	require.NoError(t, err)
	attack, defense := gremory.Evolve.Gains()
	assert.Equal(t, 1, attack)
	assert.Equal(t, DefaultEvolveChange, defense)

	spell, err := lib.Lookup("SoulConversion")
	require.NoError(t, err)
	assert.Equal(t, 1, spell.BaseTargetCount())
	draw, ok := spell.Base.Effects[1].Effect.(effects.Draw)
	require.True(t, ok)
	assert.Equal(t, 2, draw.Count)
	assert.Equal(t, effects.SubjectOwner, draw.Subject)
}

func TestLookupUnknownCard(t *testing.T) {
	lib, err := NewLibrary()
	require.NoError(t, err)
	_, err = lib.Lookup("Nobody")
	assert.True(t, errors.Is(err, ErrUnknownCard))
	assert.Error(t, lib.CheckDeck([]string{"Nobody"}))
}

func TestBuildSkipsMalformedEntries(t *testing.T) {
	entries := []json.RawMessage{
		json.RawMessage(`{"Name": "Ghost", "Cost": 1, "Type": "Monster", "Base": {"Attack": 1, "Defense": 1}}`),
		// unknown type
		json.RawMessage(`{"Name": "Relic", "Cost": 1, "Type": "Artifact"}`),
		// bad trigger
		json.RawMessage(`{"Name": "Cursed", "Cost": 1, "Type": "Spell", "Base": {"Effects": [{"Trigger": "onNever", "Effect": {"Op": "Draw"}}]}}`),
		// unknown op
		json.RawMessage(`{"Name": "Weird", "Cost": 1, "Type": "Spell", "Base": {"Effects": [{"Trigger": "onPlayed", "Effect": {"Op": "Explode"}}]}}`),
		// typo in a field
		json.RawMessage(`{"Name": "Typo", "Cost": 1, "Type": "Monster", "Bsae": {"Attack": 1, "Defense": 1}}`),
		// zero defense monster
		json.RawMessage(`{"Name": "Paper", "Cost": 1, "Type": "Monster", "Base": {"Attack": 1}}`),
		// duplicate
		json.RawMessage(`{"Name": "Ghost", "Cost": 2, "Type": "Monster", "Base": {"Attack": 1, "Defense": 1}}`),
		// bad guard
		json.RawMessage(`{"Name": "Guarded", "Cost": 1, "Type": "Spell", "Base": {"Effects": [{"Trigger": "onPlayed", "Test": "owner.shadows >=", "Effect": {"Op": "Draw"}}]}}`),
	}

	lib, rejected := Build(entries, zaptest.NewLogger(t))
	assert.Len(t, rejected, 7)
	assert.Equal(t, []string{"Ghost"}, lib.Names())
	for _, err := range rejected {
		assert.True(t, errors.Is(err, ErrInvalidDefinition), err.Error())
	}
}

func TestBuildDropsOrphanedReferences(t *testing.T) {
	entries := []json.RawMessage{
		json.RawMessage(`{"Name": "Caller", "Cost": 1, "Type": "Spell", "Base": {"Effects": [{"Trigger": "onPlayed", "Effect": {"Op": "Summon", "Names": ["Summoner"]}}]}}`),
		json.RawMessage(`{"Name": "Summoner", "Cost": 1, "Type": "Spell", "Base": {"Effects": [{"Trigger": "onPlayed", "Effect": {"Op": "AddCards", "Names": ["Missing"]}}]}}`),
	}
	lib, rejected := Build(entries, zaptest.NewLogger(t))
	assert.Len(t, rejected, 2)
	assert.Zero(t, lib.Len())
}

func TestValidateRules(t *testing.T) {
	cases := map[string]*Definition{
		"spell evolve":      {Name: "a", Type: TypeSpell, Evolve: &Evolution{}},
		"amulet accelerate": {Name: "b", Type: TypeAmulet, Accelerate: &Accelerate{Cost: 1}},
		"cheap enhance":     {Name: "c", Cost: 4, Type: TypeMonster, Base: Face{Attack: 1, Defense: 1}, Enhance: &Enhance{Cost: 2}},
		"unknown ability":   {Name: "d", Type: TypeMonster, Base: Face{Attack: 1, Defense: 1}, Abilities: []string{"Flying"}},
		"negative cost":     {Name: "e", Cost: -1, Type: TypeSpell},
		"no name":           {Type: TypeSpell},
	}
	for name, def := range cases {
		t.Run(name, func(t *testing.T) {
			err := def.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDefinition))
		})
	}

	ok := &Definition{Name: "Minthe", Cost: 3, Type: TypeMonster, Base: Face{Attack: 3, Defense: 2},
		Accelerate: &Accelerate{Cost: 1}, Enhance: &Enhance{Cost: 5}}
	require.NoError(t, ok.Validate())
	assert.Equal(t, 1, ok.AccelerateTargetCount())
}

func TestNewLibraryRejectsDanglingReference(t *testing.T) {
	spec := effects.On("onPlayed").Do(effects.AddCards{Subject: effects.SubjectOwner, Names: []string{"Ghost"}}).Build()
	_, err := NewLibrary(&Definition{Name: "Caller", Type: TypeSpell, Base: Face{Effects: []effects.Spec{spec}}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownCard))
}
