package effects

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeSpecAppliesDefaults(t *testing.T) {
	raw := `{
		"Trigger": "onPlayed",
		"Effect": {"Op": "All", "Ops": [
			{"Op": "Draw"},
			{"Op": "Buff", "Attack": 1, "Defense": 2},
			{"Op": "Damage", "Amount": 3}
		]},
		"Amount": 1,
		"Test": "owner.shadows >= 3"
	}`

	var spec Spec
	require.NoError(t, json.Unmarshal([]byte(raw), &spec))
	require.NoError(t, spec.Validate())

	all, ok := spec.Effect.(All)
	require.True(t, ok)
	require.Len(t, all.Ops, 3)
	assert.Equal(t, Draw{Subject: SubjectOwner, Count: 1}, all.Ops[0])
	assert.Equal(t, Buff{Subject: SubjectSelf, Attack: 1, Defense: 2}, all.Ops[1])
	assert.Equal(t, Damage{Subject: SubjectTargets, Amount: 3}, all.Ops[2])
	assert.Equal(t, 1, spec.MaxAmount())

	guard, err := spec.Guard()
	require.NoError(t, err)
	assert.Equal(t, "owner.shadows >= 3", guard.String())
}

func TestDecodeNestedRegistrationWithoutTag(t *testing.T) {
	raw := `{"Trigger": "onPlayed", "Effect": {"Trigger": "onFriendlyTurnStart", "Effect": {"Op": "GainShadows", "Amount": 2}, "Amount": 1}}`

	var spec Spec
	require.NoError(t, json.Unmarshal([]byte(raw), &spec))
	require.NoError(t, spec.Validate())

	reg, ok := spec.Effect.(Register)
	require.True(t, ok)
	assert.Equal(t, HolderOwner, reg.Holder)
	assert.Equal(t, "onFriendlyTurnStart", reg.Effect.Trigger)
	assert.Equal(t, []string{"onPlayed", "onFriendlyTurnStart"}, spec.Triggers())
}

func TestDecodeRejectsUnknownOp(t *testing.T) {
	var spec Spec
	err := json.Unmarshal([]byte(`{"Trigger": "onPlayed", "Effect": {"Op": "Teleport"}}`), &spec)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownOp))

	err = json.Unmarshal([]byte(`{"Trigger": "onPlayed", "Effect": {"Amount": 1}}`), &spec)
	require.Error(t, err)
}

func TestValidateCatchesBadFields(t *testing.T) {
	bad := []Spec{
		On("").Do(Draw{Subject: SubjectOwner, Count: 1}).Build(),
		On("onPlayed").Build(),
		On("onPlayed").Do(SetAttackState{Subject: SubjectSelf, State: "fly"}).Build(),
		On("onPlayed").Do(Heal{Subject: SubjectSelf, Amount: 1}).Build(),
		On("onPlayed").Do(AddCards{Subject: SubjectOwner}).Build(),
		On("onPlayed").Do(Necromancy{Shadows: 2}).Build(),
		On("onPlayed").Do(Draw{Subject: SubjectOwner, Count: 1}).When("owner.shadows >").Build(),
		On("onPlayed").Do(Draw{Subject: SubjectOwner, Count: 1}).Times(0).Build(),
	}
	for i := range bad {
		assert.Error(t, bad[i].Validate(), "case %d", i)
	}
}

func TestKeyDistinguishesOpKinds(t *testing.T) {
	destroy := On("onPlayed").Do(Destroy{Subject: SubjectTargets}).Build()
	banish := On("onPlayed").Do(Banish{Subject: SubjectTargets}).Build()

	k1, err := destroy.Key("Guilt")
	require.NoError(t, err)
	k2, err := banish.Key("Guilt")
	require.NoError(t, err)
	assert.NotEqual(t, k1, k2)

	again, err := On("onPlayed").Do(Destroy{Subject: SubjectTargets}).Build().Key("Guilt")
	require.NoError(t, err)
	assert.Equal(t, k1, again)

	other, err := destroy.Key("Minthe")
	require.NoError(t, err)
	assert.NotEqual(t, k1, other)
}

func TestEncodeRoundTripKeepsNestedTags(t *testing.T) {
	spec := On("onDestroyed").
		Do(Necromancy{Shadows: 4, Then: Summon{Subject: SubjectOwner, Names: []string{"Ghost"}}}).
		Times(1).
		Build()

	body, err := json.Marshal(spec)
	require.NoError(t, err)

	var back Spec
	require.NoError(t, json.Unmarshal(body, &back))
	assert.Equal(t, spec.Effect, back.Effect)
	assert.Equal(t, []string{"Ghost"}, back.CardNames())
}
