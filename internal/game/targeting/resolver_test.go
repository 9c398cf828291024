package targeting

import (
	"testing"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/expr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type fakeCandidate struct {
	key    string
	owner  string
	player bool
	typ    string
	board  bool
	hand   bool
	attack int
}

func (f *fakeCandidate) TargetKey() string   { return f.key }
func (f *fakeCandidate) TargetOwner() string { return f.owner }
func (f *fakeCandidate) IsPlayer() bool      { return f.player }
func (f *fakeCandidate) CardType() string    { return f.typ }
func (f *fakeCandidate) OnBoard() bool       { return f.board }
func (f *fakeCandidate) InHand() bool        { return f.hand }

type fakeState struct {
	boards  []Candidate
	hands   map[string][]Candidate
	players map[string]Candidate
}

func (s *fakeState) BoardCandidates() []Candidate          { return s.boards }
func (s *fakeState) HandCandidates(p string) []Candidate   { return s.hands[p] }
func (s *fakeState) PlayerCandidate(p string) Candidate    { return s.players[p] }
func (s *fakeState) OpponentOf(p string) string {
	if p == "Alice" {
		return "Bob"
	}
	return "Alice"
}
func (s *fakeState) TargetEnv(_ string, c Candidate) expr.Env {
	f := c.(*fakeCandidate)
	return expr.MapEnv{"target.attack": f.attack, "target.type": f.typ}
}

func newState() *fakeState {
	alice := &fakeCandidate{key: "Alice", owner: "Alice", player: true}
	bob := &fakeCandidate{key: "Bob", owner: "Bob", player: true}
	return &fakeState{
		boards: []Candidate{
			&fakeCandidate{key: "1", owner: "Alice", typ: "Monster", board: true, attack: 2},
			&fakeCandidate{key: "2", owner: "Alice", typ: "Amulet", board: true},
			&fakeCandidate{key: "3", owner: "Bob", typ: "Monster", board: true, attack: 5},
			&fakeCandidate{key: "4", owner: "Bob", typ: "Monster", board: true, attack: 1},
		},
		hands: map[string][]Candidate{
			"Alice": {&fakeCandidate{key: "5", owner: "Alice", typ: "Monster", hand: true, attack: 3}},
		},
		players: map[string]Candidate{"Alice": alice, "Bob": bob},
	}
}

func TestResolveFilters(t *testing.T) {
	r := NewResolver(zaptest.NewLogger(t))
	st := newState()

	cases := []struct {
		name     string
		criteria []Criteria
		want     []string
	}{
		{"enemy player replaces pool", []Criteria{{Type: TargetTypeEnemyPlayer}}, []string{"Bob"}},
		{"friendly player", []Criteria{{Type: TargetTypeFriendlyPlayer}}, []string{"Alice"}},
		{"enemy monsters", []Criteria{{Type: TargetTypeMonster, Location: LocationEnemyBoard}}, []string{"3", "4"}},
		{"friendly amulets", []Criteria{{Type: TargetTypeAmulet, Location: LocationFriendlyBoard}}, []string{"2"}},
		{"hand", []Criteria{{Location: LocationFriendlyHand}}, []string{"5"}},
		{"test filter", []Criteria{{Type: TargetTypeMonster, Test: "target.attack >= 3"}}, []string{"3", "5"}},
		{"union dedupes in first-seen order", []Criteria{
			{Type: TargetTypeMonster, Location: LocationEnemyBoard},
			{Type: TargetTypeEnemyPlayer},
			{Type: TargetTypeMonster, Test: "target.attack > 4"},
		}, []string{"3", "4", "Bob"}},
		{"no match", []Criteria{{Type: TargetTypeAmulet, Location: LocationEnemyBoard}}, nil},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Keys(r.Resolve("Alice", tc.criteria, st))
			if tc.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestResolveTestErrorsDropCandidate(t *testing.T) {
	r := NewResolver(zaptest.NewLogger(t))
	got := r.Resolve("Alice", []Criteria{{Type: TargetTypeMonster, Test: "target.defense > 0"}}, newState())
	assert.Empty(t, got)
}

func TestCriteriaValidate(t *testing.T) {
	ok := Criteria{Type: TargetTypeMonster, Location: LocationEnemyBoard, Test: "target.attack > 1"}
	require.NoError(t, ok.Validate())

	bad := []Criteria{
		{Type: "Dragon"},
		{Location: "inGraveyard"},
		{Test: "target.attack >"},
	}
	for _, c := range bad {
		assert.Error(t, c.Validate())
	}
}

func TestCheckSelection(t *testing.T) {
	st := newState()
	cands := st.BoardCandidates()

	got, err := CheckSelection(cands, []string{"3", "1"}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"3", "1"}, Keys(got))

	_, err = CheckSelection(cands, []string{"3"}, 2)
	assert.Error(t, err, "too few")
	_, err = CheckSelection(cands, []string{"3", "3"}, 2)
	assert.Error(t, err, "duplicate")
	_, err = CheckSelection(cands, []string{"9"}, 1)
	assert.Error(t, err, "unknown")

	got, err = CheckSelection(cands[:1], []string{"1"}, 3)
	require.NoError(t, err, "count clamps to candidates")
	assert.Len(t, got, 1)
}
