package game

import (
	"compress/gzip"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ReplayVersion is bumped whenever the replay encoding changes.
const ReplayVersion = 1

// ErrReplayDiverged is returned when a replayed game asks for a decision the
// recording does not hold, or ends in a different state.
var ErrReplayDiverged = errors.New("replay diverged from recording")

// DecisionKind names which provider call a decision answered.
type DecisionKind string

const (
	DecisionAction   DecisionKind = "action"
	DecisionTargets  DecisionKind = "targets"
	DecisionMulligan DecisionKind = "mulligan"
)

// Decision is one recorded provider answer. Choices are stored as positions
// in the options the engine offered, since card indices differ between a
// game and its replay.
type Decision struct {
	Seat   int
	Kind   DecisionKind
	Action ActionKind
	Mode   PlayMode
	// Option is the position in the offered plays, attacks or evolves; -1
	// when the answer matched none of them.
	Option int
	Target int
	Picks  []int
}

// Replay is the seed, decks and decision log of one game. Replaying it with
// the same library reproduces the game.
type Replay struct {
	GameID     string
	Seed       uint64
	Rules      RuleSet
	Players    [2]string
	Decks      [2][]string
	Decisions  []Decision
	Winner     string
	Turns      int
	Checksum   string
	RecordedAt time.Time

	mu sync.Mutex
}

// NewReplay creates an empty recording for gameID.
func NewReplay(gameID string, rs RuleSet, seats []PlayerSetup) *Replay {
	r := &Replay{GameID: gameID, Rules: rs, Seed: rs.Seed, RecordedAt: time.Now()}
	for i, seat := range seats {
		if i >= len(r.Players) {
			break
		}
		r.Players[i] = seat.Name
		r.Decks[i] = append([]string(nil), seat.Deck...)
	}
	return r
}

func (r *Replay) record(d Decision) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Decisions = append(r.Decisions, d)
}

// Size returns the number of recorded decisions.
func (r *Replay) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.Decisions)
}

// Play re-runs the recording on engine and checks that it ends in the
// recorded state. The engine must hold the library the game was played with.
func (r *Replay) Play(ctx context.Context, engine *Engine) (*Game, error) {
	r.mu.Lock()
	decisions := append([]Decision(nil), r.Decisions...)
	r.mu.Unlock()

	rs := r.Rules
	rs.Seed = r.Seed
	seats := make([]PlayerSetup, len(r.Players))
	for i := range r.Players {
		seats[i] = PlayerSetup{
			Name:     r.Players[i],
			Deck:     r.Decks[i],
			Provider: newReplayProvider(i, decisions),
		}
	}
	g, err := engine.StartGameWithRules(ctx, "", rs, seats)
	if err != nil {
		return nil, err
	}
	if err := g.Run(ctx); err != nil {
		return g, err
	}
	if r.Checksum != "" {
		if sum := g.Checksum().Hash; sum != r.Checksum {
			return g, fmt.Errorf("%w: checksum %s, recorded %s", ErrReplayDiverged, sum, r.Checksum)
		}
	}
	return g, nil
}

// SaveToFile writes the replay to <directory>/<game id>.replay as gzipped gob
// and returns the file name.
func (r *Replay) SaveToFile(directory string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.MkdirAll(directory, 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}
	filename := filepath.Join(directory, fmt.Sprintf("%s.replay", r.GameID))
	file, err := os.Create(filename)
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	gzipWriter := gzip.NewWriter(file)
	encoder := gob.NewEncoder(gzipWriter)
	if err := encoder.Encode(replayMetadata{Version: ReplayVersion, SavedAt: time.Now()}); err != nil {
		return "", fmt.Errorf("failed to encode metadata: %w", err)
	}
	if err := encoder.Encode(r); err != nil {
		return "", fmt.Errorf("failed to encode replay: %w", err)
	}
	if err := gzipWriter.Close(); err != nil {
		return "", fmt.Errorf("failed to flush replay: %w", err)
	}
	return filename, nil
}

// LoadReplayFromFile reads a replay written by SaveToFile.
func LoadReplayFromFile(filename string) (*Replay, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	gzipReader, err := gzip.NewReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to create gzip reader: %w", err)
	}
	defer gzipReader.Close()

	decoder := gob.NewDecoder(gzipReader)
	var metadata replayMetadata
	if err := decoder.Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode metadata: %w", err)
	}
	if metadata.Version != ReplayVersion {
		return nil, fmt.Errorf("unsupported replay version: %d", metadata.Version)
	}
	var r Replay
	if err := decoder.Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to decode replay: %w", err)
	}
	return &r, nil
}

type replayMetadata struct {
	Version int
	SavedAt time.Time
}

// recordingProvider passes decisions through to the seat's provider and logs
// the answers.
type recordingProvider struct {
	seat   int
	inner  DecisionProvider
	replay *Replay
}

func (p *recordingProvider) RequestAction(ctx context.Context, req ActionRequest) (Action, error) {
	a, err := p.inner.RequestAction(ctx, req)
	if err != nil {
		return a, err
	}
	d := Decision{Seat: p.seat, Kind: DecisionAction, Action: a.Kind, Mode: a.Mode, Option: -1}
	switch a.Kind {
	case ActionEndTurn:
		d.Option = 0
	case ActionPlay:
		mode := a.Mode
		if mode == "" {
			mode = ModeNormal
		}
		for i, opt := range req.Plays {
			if opt.Card == a.Card && opt.Mode == mode {
				d.Option = i
				break
			}
		}
	case ActionAttack:
		for i, opt := range req.Attacks {
			if opt.Card != a.Card {
				continue
			}
			for j, key := range opt.Targets {
				if key == a.Target {
					d.Option, d.Target = i, j
				}
			}
		}
	case ActionEvolve:
		for i, opt := range req.Evolves {
			if opt.Card == a.Card {
				d.Option = i
				break
			}
		}
	}
	p.replay.record(d)
	return a, nil
}

func (p *recordingProvider) RequestTargets(ctx context.Context, req TargetRequest) ([]string, error) {
	keys, err := p.inner.RequestTargets(ctx, req)
	if err != nil {
		return keys, err
	}
	d := Decision{Seat: p.seat, Kind: DecisionTargets}
	for _, key := range keys {
		pick := -1
		for i, cand := range req.Candidates {
			if cand.Key == key {
				pick = i
				break
			}
		}
		d.Picks = append(d.Picks, pick)
	}
	p.replay.record(d)
	return keys, nil
}

func (p *recordingProvider) RequestMulligan(ctx context.Context, req MulliganRequest) ([]uint64, error) {
	mp, ok := p.inner.(MulliganProvider)
	if !ok {
		return nil, nil
	}
	picks, err := mp.RequestMulligan(ctx, req)
	if err != nil {
		return picks, err
	}
	d := Decision{Seat: p.seat, Kind: DecisionMulligan}
	for _, index := range picks {
		for i, c := range req.Hand {
			if c.Index == index {
				d.Picks = append(d.Picks, i)
				break
			}
		}
	}
	p.replay.record(d)
	return picks, nil
}

// replayProvider answers one seat from a decision log.
type replayProvider struct {
	mu        sync.Mutex
	decisions []Decision
}

func newReplayProvider(seat int, log []Decision) *replayProvider {
	p := &replayProvider{}
	for _, d := range log {
		if d.Seat == seat {
			p.decisions = append(p.decisions, d)
		}
	}
	return p
}

func (p *replayProvider) next(kind DecisionKind) (Decision, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.decisions) == 0 {
		return Decision{}, fmt.Errorf("%w: no %s decision left", ErrReplayDiverged, kind)
	}
	d := p.decisions[0]
	if d.Kind != kind {
		return Decision{}, fmt.Errorf("%w: asked for %s, recorded %s", ErrReplayDiverged, kind, d.Kind)
	}
	p.decisions = p.decisions[1:]
	return d, nil
}

func (p *replayProvider) RequestAction(_ context.Context, req ActionRequest) (Action, error) {
	d, err := p.next(DecisionAction)
	if err != nil {
		return Action{}, err
	}
	if d.Option < 0 {
		// the recorded answer was illegal; replay an answer that is too
		return Action{Kind: d.Action, Mode: d.Mode, Target: "invalid"}, nil
	}
	diverged := fmt.Errorf("%w: %s option %d not offered", ErrReplayDiverged, d.Action, d.Option)
	switch d.Action {
	case ActionEndTurn:
		return EndTurn(), nil
	case ActionPlay:
		if d.Option >= len(req.Plays) {
			return Action{}, diverged
		}
		opt := req.Plays[d.Option]
		return PlayAs(opt.Card, opt.Mode), nil
	case ActionAttack:
		if d.Option >= len(req.Attacks) || d.Target >= len(req.Attacks[d.Option].Targets) {
			return Action{}, diverged
		}
		opt := req.Attacks[d.Option]
		return Attack(opt.Card, opt.Targets[d.Target]), nil
	case ActionEvolve:
		if d.Option >= len(req.Evolves) {
			return Action{}, diverged
		}
		return Evolve(req.Evolves[d.Option].Card), nil
	}
	return Action{Kind: d.Action}, nil
}

func (p *replayProvider) RequestTargets(_ context.Context, req TargetRequest) ([]string, error) {
	d, err := p.next(DecisionTargets)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(d.Picks))
	for _, pick := range d.Picks {
		if pick < 0 || pick >= len(req.Candidates) {
			keys = append(keys, "invalid")
			continue
		}
		keys = append(keys, req.Candidates[pick].Key)
	}
	return keys, nil
}

func (p *replayProvider) RequestMulligan(_ context.Context, req MulliganRequest) ([]uint64, error) {
	p.mu.Lock()
	pending := len(p.decisions) > 0 && p.decisions[0].Kind == DecisionMulligan
	p.mu.Unlock()
	if !pending {
		// the seat's provider took no part in the mulligan
		return nil, nil
	}
	d, err := p.next(DecisionMulligan)
	if err != nil {
		return nil, err
	}
	out := make([]uint64, 0, len(d.Picks))
	for _, pick := range d.Picks {
		if pick >= 0 && pick < len(req.Hand) {
			out = append(out, req.Hand[pick].Index)
		}
	}
	return out, nil
}

// ReplayRecorder records the games an engine starts and stores them when
// they end.
type ReplayRecorder struct {
	logger  *zap.Logger
	mu      sync.Mutex
	replays map[string]*Replay
	saveDir string
}

// NewReplayRecorder creates a recorder. An empty saveDir keeps finished
// replays in memory only.
func NewReplayRecorder(logger *zap.Logger, saveDir string) *ReplayRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReplayRecorder{
		logger:  logger,
		replays: make(map[string]*Replay),
		saveDir: saveDir,
	}
}

// wrap starts recording gameID and returns seats whose providers log their
// answers.
func (rr *ReplayRecorder) wrap(gameID string, rs RuleSet, seats []PlayerSetup) []PlayerSetup {
	replay := NewReplay(gameID, rs, seats)
	out := make([]PlayerSetup, len(seats))
	for i, seat := range seats {
		out[i] = seat
		if seat.Provider != nil {
			out[i].Provider = &recordingProvider{seat: i, inner: seat.Provider, replay: replay}
		}
	}
	rr.mu.Lock()
	rr.replays[gameID] = replay
	rr.mu.Unlock()
	return out
}

// bind stores the seed a game actually uses.
func (rr *ReplayRecorder) bind(gameID string, seed uint64) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	if r, ok := rr.replays[gameID]; ok {
		r.Seed = seed
	}
}

// Discard drops the recording of gameID.
func (rr *ReplayRecorder) Discard(gameID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	delete(rr.replays, gameID)
}

// Replay returns the recording of gameID while the game is tracked.
func (rr *ReplayRecorder) Replay(gameID string) (*Replay, bool) {
	rr.mu.Lock()
	defer rr.mu.Unlock()
	r, ok := rr.replays[gameID]
	return r, ok
}

// Finish stamps the final state of g into its recording, saves it when the
// recorder has a directory, and forgets it.
func (rr *ReplayRecorder) Finish(g *Game) (*Replay, error) {
	rr.mu.Lock()
	replay, ok := rr.replays[g.ID]
	delete(rr.replays, g.ID)
	rr.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no replay recorded for game %s", g.ID)
	}

	sum := g.Checksum()
	replay.mu.Lock()
	replay.Checksum = sum.Hash
	replay.Turns = sum.Turn
	replay.Winner = g.Winner()
	replay.mu.Unlock()

	if rr.saveDir == "" {
		return replay, nil
	}
	filename, err := replay.SaveToFile(rr.saveDir)
	if err != nil {
		return replay, fmt.Errorf("failed to save replay: %w", err)
	}
	rr.logger.Info("saved replay to disk",
		zap.String("game_id", g.ID),
		zap.Int("decisions", replay.Size()),
		zap.String("file", filename),
	)
	return replay, nil
}
