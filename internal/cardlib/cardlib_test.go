package cardlib

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/shadowcraft/shadowcraft-server-go/internal/config"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/carddef"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/effects"
)

const yamlLibrary = `
Ghost:
  Cost: 1
  Type: Monster
  Abilities: [Storm]
  Base: {Attack: 1, Defense: 1}
Gremory:
  Cost: 2
  Type: Monster
  Base:
    Attack: 2
    Defense: 2
    Effects:
      - Trigger: onDestroyed
        Effect: {Op: AddCards, Names: [Ghost]}
Broken:
  Cost: 1
  Type: Artifact
`

const jsonLibrary = `[
  {"Name": "Ghost", "Cost": 1, "Type": "Monster", "Base": {"Attack": 1, "Defense": 1}},
  {"Name": "Insight", "Cost": 0, "Type": "Spell", "Base": {"Effects": [{"Trigger": "onPlayed", "Effect": {"Op": "Draw"}}]}}
]`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestFileSourceYAML(t *testing.T) {
	path := writeFile(t, "cards.yaml", yamlLibrary)
	lib, err := FromSource(context.Background(), &FileSource{Path: path}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"Ghost", "Gremory"}, lib.Names())

	gremory, err := lib.Lookup("Gremory")
	require.NoError(t, err)
	require.Len(t, gremory.Base.Effects, 1)
	add, ok := gremory.Base.Effects[0].Effect.(effects.AddCards)
	require.True(t, ok)
	assert.Equal(t, []string{"Ghost"}, add.Names)
}

func TestFileSourceJSON(t *testing.T) {
	path := writeFile(t, "cards.json", jsonLibrary)
	lib, err := Load(context.Background(), config.LibraryConfig{Source: "file", Path: path}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, 2, lib.Len())
	assert.True(t, lib.Has("Insight"))
}

func TestFileSourceErrors(t *testing.T) {
	ctx := context.Background()

	_, err := (&FileSource{Path: filepath.Join(t.TempDir(), "missing.yaml")}).Entries(ctx)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	_, err = (&FileSource{Path: writeFile(t, "cards.toml", "x = 1")}).Entries(ctx)
	assert.Error(t, err)

	_, err = (&FileSource{Path: writeFile(t, "cards.yaml", "Ghost: [unclosed")}).Entries(ctx)
	assert.Error(t, err)

	_, err = FromSource(ctx, &FileSource{Path: writeFile(t, "empty.yaml", "")}, nil)
	assert.True(t, errors.Is(err, ErrEmptyLibrary))
}

func TestOpenRejectsUnknownSource(t *testing.T) {
	_, err := Open(context.Background(), config.LibraryConfig{Source: "s3"})
	assert.Error(t, err)
}

func TestStarterLibraryLoads(t *testing.T) {
	path := filepath.Join("..", "..", "data", "cards.yaml")
	lib, err := FromSource(context.Background(), &FileSource{Path: path}, zaptest.NewLogger(t))
	require.NoError(t, err)
	entries, err := (&FileSource{Path: path}).Entries(context.Background())
	require.NoError(t, err)
	// every starter card is valid
	assert.Equal(t, len(entries), lib.Len())

	dealer, err := lib.Lookup("Soul Dealer")
	require.NoError(t, err)
	assert.Equal(t, carddef.TypeMonster, dealer.Type)
	require.NotNil(t, dealer.Enhance)
	assert.Equal(t, 7, dealer.Enhance.Cost)
}

func TestWithNameInjectsRowName(t *testing.T) {
	raw := withName("Ghost", []byte(`{"Cost": 1, "Type": "Monster"}`))
	name, err := entryName(raw)
	require.NoError(t, err)
	assert.Equal(t, "Ghost", name)

	kept := withName("Other", []byte(`{"Name": "Ghost"}`))
	name, err = entryName(kept)
	require.NoError(t, err)
	assert.Equal(t, "Ghost", name)

	_, err = entryName([]byte(`{"Cost": 1}`))
	assert.Error(t, err)
}

// Runs against a live database when SHADOWCRAFT_TEST_DSN is set.
func TestPostgresRoundTrip(t *testing.T) {
	dsn := os.Getenv("SHADOWCRAFT_TEST_DSN")
	if dsn == "" {
		t.Skip("SHADOWCRAFT_TEST_DSN not set")
	}
	ctx := context.Background()
	src, err := OpenPostgres(ctx, dsn)
	require.NoError(t, err)
	defer src.Close()

	require.NoError(t, src.EnsureSchema(ctx))
	require.NoError(t, src.Truncate(ctx))

	entries, err := (&FileSource{Path: writeFile(t, "cards.json", jsonLibrary)}).Entries(ctx)
	require.NoError(t, err)
	n, err := src.Store(ctx, entries)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	lib, err := FromSource(ctx, src, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"Ghost", "Insight"}, lib.Names())
}
