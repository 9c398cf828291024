package game

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shadowcraft/shadowcraft-server-go/internal/game/carddef"
	"github.com/shadowcraft/shadowcraft-server-go/internal/game/rules"
)

// Engine hosts concurrent games that share one card library and rule set.
type Engine struct {
	logger  *zap.Logger
	rules   RuleSet
	library *carddef.Library

	mu        sync.RWMutex
	games     map[string]*Game
	listeners []rules.Listener
	recorder  *ReplayRecorder
}

// NewEngine creates an engine. A nil logger is replaced with a no-op one.
func NewEngine(logger *zap.Logger, library *carddef.Library, rs RuleSet) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		logger:  logger,
		rules:   rs,
		library: library,
		games:   make(map[string]*Game),
	}
}

// Subscribe adds a listener attached to every game started afterwards.
// Listeners run under the game lock and must not call back into the game.
func (e *Engine) Subscribe(listener rules.Listener) {
	if listener == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.listeners = append(e.listeners, listener)
}

// SetRecorder records every game started afterwards; the recording is
// finished when the game is ended with EndGame.
func (e *Engine) SetRecorder(rr *ReplayRecorder) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.recorder = rr
}

// Library returns the card library the engine plays with.
func (e *Engine) Library() *carddef.Library { return e.library }

// Rules returns the engine's default rule set.
func (e *Engine) Rules() RuleSet { return e.rules }

// StartGame creates a game, deals the opening hands and runs the mulligan.
// An empty id is replaced with a fresh uuid.
func (e *Engine) StartGame(ctx context.Context, id string, seats []PlayerSetup) (*Game, error) {
	return e.StartGameWithRules(ctx, id, e.rules, seats)
}

// StartGameWithRules is StartGame with an explicit rule set, e.g. a fixed seed.
func (e *Engine) StartGameWithRules(ctx context.Context, id string, rs RuleSet, seats []PlayerSetup) (*Game, error) {
	if id == "" {
		id = uuid.New().String()
	}

	e.mu.Lock()
	if _, exists := e.games[id]; exists {
		e.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrGameExists, id)
	}
	rec := e.recorder
	if rec != nil {
		seats = rec.wrap(id, rs, seats)
	}
	g, err := newGame(id, e.logger, rs, e.library, seats)
	if err != nil {
		e.mu.Unlock()
		if rec != nil {
			rec.Discard(id)
		}
		return nil, fmt.Errorf("create game %s: %w", id, err)
	}
	if rec != nil {
		rec.bind(id, g.seed)
	}
	for _, l := range e.listeners {
		g.bus.Subscribe(l)
	}
	e.games[id] = g
	e.mu.Unlock()

	if err := g.deal(ctx); err != nil {
		e.mu.Lock()
		delete(e.games, id)
		e.mu.Unlock()
		if rec != nil {
			rec.Discard(id)
		}
		return nil, fmt.Errorf("start game %s: %w", id, err)
	}
	e.logger.Info("engine started game",
		zap.String("game_id", id),
		zap.Int("active_games", e.count()),
	)
	return g, nil
}

// Game looks a running or finished game up by id.
func (e *Engine) Game(id string) (*Game, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	g, ok := e.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return g, nil
}

// EndGame aborts the game if it is still running and forgets it.
func (e *Engine) EndGame(id string) error {
	e.mu.Lock()
	g, ok := e.games[id]
	delete(e.games, id)
	rec := e.recorder
	e.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}

	g.mu.Lock()
	g.abort("ended by server")
	winner := g.winner
	g.mu.Unlock()
	e.logger.Info("engine ended game", zap.String("game_id", id), zap.String("winner", winner))

	if rec != nil {
		if _, err := rec.Finish(g); err != nil {
			e.logger.Warn("failed to finish replay", zap.String("game_id", id), zap.Error(err))
		}
	}
	return nil
}

// Games lists the ids of the games the engine tracks, sorted.
func (e *Engine) Games() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.games))
	for id := range e.games {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (e *Engine) count() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.games)
}

// Concede makes player lose the game at once.
func (g *Game) Concede(player string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.PlayerByName(player)
	if !ok {
		return fmt.Errorf("no player %q", player)
	}
	if g.IsOver() {
		return ErrGameOver
	}
	g.lose(p, "conceded")
	return nil
}
