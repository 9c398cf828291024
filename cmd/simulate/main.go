// Command simulate plays seeded self-play games between two random
// decision providers and reports the outcomes.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/shadowcraft/shadowcraft-server-go/internal/cardlib"
	"github.com/shadowcraft/shadowcraft-server-go/internal/config"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/carddef"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/rules"
	"github.com/shadowcraft/shadowcraft-server-go/internal/logging"
)

var (
	configPath = flag.String("config", "config.yaml", "path to configuration file")
	games      = flag.Int("games", 10, "number of games to play")
	seed       = flag.Uint64("seed", 1, "seed of the first game; game i uses seed+i")
	deckA      = flag.String("deck-a", "", "comma separated deck of the first player (default: whole library)")
	deckB      = flag.String("deck-b", "", "comma separated deck of the second player (default: whole library)")
	deckSize   = flag.Int("deck-size", 30, "size of generated default decks")
	timeout    = flag.Duration("timeout", time.Minute, "time limit per game")
	trace      = flag.Bool("trace", false, "log every game event")
	replayDir  = flag.String("replay-dir", "", "save a replay of every game to this directory")
	replayFile = flag.String("replay", "", "verify a saved replay instead of playing new games")
)

type result struct {
	winner   string
	reason   string
	turns    int
	checksum string
}

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	ctx := context.Background()
	library, err := cardlib.Load(ctx, cfg.Library, logger)
	if err != nil {
		logger.Fatal("failed to load card library", zap.Error(err))
	}

	first := parseDeck(*deckA, library, *deckSize)
	second := parseDeck(*deckB, library, *deckSize)
	for _, deck := range [][]string{first, second} {
		if err := library.CheckDeck(deck); err != nil {
			logger.Fatal("invalid deck", zap.Error(err))
		}
	}

	engine := game.NewEngine(logger.Named("engine"), library, game.RuleSetFromConfig(cfg.Rules))
	if *trace {
		engine.Subscribe(func(evt rules.Event) {
			logger.Info("event",
				zap.String("game_id", evt.GameID),
				zap.String("type", string(evt.Type)),
				zap.Int("turn", evt.Turn),
				zap.String("source", evt.SourceID),
				zap.String("target", evt.TargetID),
				zap.Int("amount", evt.Amount),
				zap.String("data", evt.Data),
			)
		})
	}

	if *replayFile != "" {
		if err := verify(ctx, engine, *replayFile); err != nil {
			logger.Fatal("replay failed", zap.String("file", *replayFile), zap.Error(err))
		}
		return
	}
	if *replayDir != "" {
		engine.SetRecorder(game.NewReplayRecorder(logger.Named("replay"), *replayDir))
	}

	wins := map[string]int{}
	totalTurns := 0
	for i := 0; i < *games; i++ {
		res, err := play(ctx, engine, *seed+uint64(i), first, second)
		if err != nil {
			logger.Error("game failed", zap.Int("game", i), zap.Error(err))
			continue
		}
		wins[res.winner]++
		totalTurns += res.turns
		fmt.Printf("game %3d seed %-6d winner %-6s turns %3d reason %-12s checksum %s\n",
			i, *seed+uint64(i), res.winner, res.turns, res.reason, short(res.checksum))
	}

	played := wins["first"] + wins["second"] + wins[""]
	if played == 0 {
		os.Exit(1)
	}
	fmt.Printf("\nplayed %d: first %d, second %d, undecided %d, average %.1f turns\n",
		played, wins["first"], wins["second"], wins[""], float64(totalTurns)/float64(played))
}

func play(ctx context.Context, engine *game.Engine, gameSeed uint64, first, second []string) (result, error) {
	rs := engine.Rules()
	rs.Seed = gameSeed

	id := fmt.Sprintf("sim-%d", gameSeed)
	g, err := engine.StartGameWithRules(ctx, id, rs, []game.PlayerSetup{
		{Name: "first", Deck: first, Provider: game.NewRandomProvider(gameSeed * 2)},
		{Name: "second", Deck: second, Provider: game.NewRandomProvider(gameSeed*2 + 1)},
	})
	if err != nil {
		return result{}, err
	}
	defer engine.EndGame(id)

	runCtx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	if err := g.Run(runCtx); err != nil {
		return result{}, err
	}
	view := g.View(game.SpectatorSeat)
	return result{
		winner:   view.Winner,
		reason:   view.Reason,
		turns:    view.Turn,
		checksum: g.Checksum().Hash,
	}, nil
}

// verify re-plays a saved game and reports whether it ended where the
// recording did.
func verify(ctx context.Context, engine *game.Engine, filename string) error {
	replay, err := game.LoadReplayFromFile(filename)
	if err != nil {
		return err
	}
	runCtx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()
	g, err := replay.Play(runCtx, engine)
	if g != nil {
		defer engine.EndGame(g.ID)
	}
	if err != nil {
		return err
	}
	fmt.Printf("replay %s: %d decisions, winner %s after %d turns, checksum %s verified\n",
		replay.GameID, replay.Size(), replay.Winner, replay.Turns, short(replay.Checksum))
	return nil
}

// parseDeck splits a comma separated list, or cycles through the library
// when the list is empty.
func parseDeck(list string, library *carddef.Library, size int) []string {
	if list != "" {
		var deck []string
		for _, name := range strings.Split(list, ",") {
			if name = strings.TrimSpace(name); name != "" {
				deck = append(deck, name)
			}
		}
		return deck
	}
	names := library.Names()
	deck := make([]string, 0, size)
	for i := 0; len(names) > 0 && i < size; i++ {
		deck = append(deck, names[i%len(names)])
	}
	return deck
}

func short(hash string) string {
	if len(hash) > 16 {
		return hash[:16]
	}
	return hash
}
