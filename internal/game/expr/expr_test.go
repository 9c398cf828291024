package expr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvalComparisons(t *testing.T) {
	env := MapEnv{
		"owner.shadows": 21,
		"self.evolved":  false,
		"target.type":   "Monster",
		"target.attack": 3,
	}

	cases := []struct {
		src  string
		want bool
	}{
		{"owner.shadows >= 20", true},
		{"owner.shadows < 20", false},
		{"!self.evolved", true},
		{"not self.evolved", true},
		{`target.type == "Monster"`, true},
		{`target.type != "Monster"`, false},
		{`target.type == "Monster" and target.attack > 2`, true},
		{`target.attack > 5 || owner.shadows == 21`, true},
		{`(target.attack > 5 or false) && true`, false},
		{"self.evolved == false", true},
		{"target.attack == -3", false},
	}

	for _, tc := range cases {
		e, err := Parse(tc.src)
		require.NoError(t, err, tc.src)
		got, err := e.Eval(env)
		require.NoError(t, err, tc.src)
		assert.Equal(t, tc.want, got, tc.src)
	}
}

func TestEvalShortCircuit(t *testing.T) {
	e := MustParse("owner.health > 0 or missing.path == 1")
	got, err := e.Eval(MapEnv{"owner.health": 4})
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvalErrors(t *testing.T) {
	env := MapEnv{"owner.health": 4, "self.name": "Guilt"}

	_, err := MustParse("nobody.health > 0").Eval(env)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownPath))

	_, err = MustParse("owner.health").Eval(env)
	require.Error(t, err, "non-bool result")

	_, err = MustParse(`owner.health == "four"`).Eval(env)
	require.Error(t, err, "type mismatch")

	_, err = MustParse(`self.name < "Z"`).Eval(env)
	require.Error(t, err, "ordering on strings")
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, src := range []string{"", "owner.health >", "(a == 1", "a = 1", "a == 1 &&"} {
		_, err := Parse(src)
		assert.Error(t, err, src)
	}
}

func TestNilExprIsTrue(t *testing.T) {
	var e *Expr
	ok, err := e.Eval(nil)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "", e.String())
}
