// Package server runs the authoritative game: an Engine folds staged intents
// into turns, a Scheduler actor owns the Engine and drives it from a ticker,
// and TCP or websocket sessions feed intents in and receive the broadcasts.
package server

import (
	"maps"
	"slices"

	"robots/internal/game"
	"robots/internal/protocol"
	"robots/internal/shared/logger"
)

type Phase int

const (
	PhaseLobby Phase = iota
	PhaseRunning
)

func (p Phase) String() string {
	if p == PhaseRunning {
		return "running"
	}
	return "lobby"
}

type EngineConfig struct {
	ServerName    string
	PlayersCount  uint8
	Rules         game.Rules
	InitialBlocks uint16
	Seed          uint32
}

// Intent is a client message tagged with the session it came from.
type Intent struct {
	SessionID string
	Address   string
	Message   protocol.ClientMessage
}

type pendingJoin struct {
	sessionID string
	player    game.Player
}

type stagedIntent struct {
	player  game.PlayerID
	message protocol.ClientMessage
}

// Engine is the authoritative game. It is not safe for concurrent use; the
// Scheduler goroutine is its only caller.
type Engine struct {
	cfg        EngineConfig
	phase      Phase
	state      *game.State
	rng        *game.Random
	nextBombID game.BombID
	sessions   map[string]game.PlayerID
	joins      []pendingJoin
	staged     []stagedIntent
	history    []game.Turn
}

func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{
		cfg:      cfg,
		phase:    PhaseLobby,
		state:    game.NewState(cfg.Rules),
		rng:      game.NewRandom(cfg.Seed),
		sessions: make(map[string]game.PlayerID),
	}
}

func (e *Engine) Phase() Phase {
	return e.phase
}

func (e *Engine) State() *game.State {
	return e.state
}

func (e *Engine) Hello() protocol.Hello {
	return protocol.Hello{
		ServerName:   e.cfg.ServerName,
		PlayersCount: e.cfg.PlayersCount,
		Rules:        e.cfg.Rules,
	}
}

// CatchUp is what a new session receives before any broadcast: Hello, then
// either the accepted players of the lobby or the whole running game.
func (e *Engine) CatchUp() []protocol.ServerMessage {
	msgs := []protocol.ServerMessage{e.Hello()}
	if e.phase == PhaseRunning {
		msgs = append(msgs, protocol.GameStarted{Players: maps.Clone(e.state.Players)})
		for _, t := range e.history {
			msgs = append(msgs, protocol.Turn{Turn: t})
		}
		return msgs
	}
	for _, id := range game.SortedKeys(e.state.Players) {
		msgs = append(msgs, protocol.AcceptedPlayer{ID: id, Player: e.state.Players[id]})
	}
	return msgs
}

// Submit stages an intent for the next tick.
func (e *Engine) Submit(in Intent) {
	if join, ok := in.Message.(protocol.Join); ok {
		e.stageJoin(in, join)
		return
	}
	id, ok := e.sessions[in.SessionID]
	if !ok {
		logger.Tracef("session %s sent %T before joining", in.SessionID, in.Message)
		return
	}
	if e.phase != PhaseRunning {
		return
	}
	e.staged = slices.DeleteFunc(e.staged, func(s stagedIntent) bool { return s.player == id })
	e.staged = append(e.staged, stagedIntent{player: id, message: in.Message})
}

func (e *Engine) stageJoin(in Intent, join protocol.Join) {
	if e.phase != PhaseLobby {
		logger.Debugf("join from %s dropped, game running", in.SessionID)
		return
	}
	if _, ok := e.sessions[in.SessionID]; ok {
		logger.Debugf("repeated join from %s dropped", in.SessionID)
		return
	}
	for _, j := range e.joins {
		if j.sessionID == in.SessionID {
			logger.Debugf("repeated join from %s dropped", in.SessionID)
			return
		}
	}
	e.joins = append(e.joins, pendingJoin{
		sessionID: in.SessionID,
		player:    game.Player{Name: join.Name, Address: in.Address},
	})
}

// Leave forgets a session and whatever it staged. A robot that already
// joined stays on the board.
func (e *Engine) Leave(sessionID string) {
	e.joins = slices.DeleteFunc(e.joins, func(j pendingJoin) bool { return j.sessionID == sessionID })
	if id, ok := e.sessions[sessionID]; ok {
		e.staged = slices.DeleteFunc(e.staged, func(s stagedIntent) bool { return s.player == id })
		delete(e.sessions, sessionID)
	}
}

// Tick advances the game by one period and returns the messages to
// broadcast, in order. It may return nothing.
func (e *Engine) Tick() []protocol.ServerMessage {
	if e.phase == PhaseLobby {
		return e.tickLobby()
	}
	return e.tickRunning()
}

func (e *Engine) tickLobby() []protocol.ServerMessage {
	var msgs []protocol.ServerMessage
	for _, j := range e.joins {
		if len(e.state.Players) >= int(e.cfg.PlayersCount) {
			logger.Debugf("join from %s dropped, lobby full", j.sessionID)
			continue
		}
		id := game.PlayerID(len(e.state.Players))
		e.state.AddPlayer(id, j.player)
		e.sessions[j.sessionID] = id
		logger.Infof("player %d (%s) joined from %s", id, j.player.Name, j.player.Address)
		msgs = append(msgs, protocol.AcceptedPlayer{ID: id, Player: j.player})
	}
	e.joins = nil

	if len(e.state.Players) == int(e.cfg.PlayersCount) {
		e.phase = PhaseRunning
		e.staged = nil
		msgs = append(msgs, protocol.GameStarted{Players: maps.Clone(e.state.Players)})
		logger.Infof("game started with %d players", len(e.state.Players))
	}
	return msgs
}

func (e *Engine) tickRunning() []protocol.ServerMessage {
	var turn game.Turn
	if len(e.history) == 0 {
		turn = e.firstTurn()
	} else {
		turn = e.nextTurn()
	}
	e.history = append(e.history, turn)
	msgs := []protocol.ServerMessage{protocol.Turn{Turn: turn}}

	if turn.Number >= e.cfg.Rules.GameLength {
		msgs = append(msgs, protocol.GameEnded{Scores: maps.Clone(e.state.Scores)})
		logger.Infof("game ended after turn %d", turn.Number)
		e.reset()
	}
	return msgs
}

func (e *Engine) firstTurn() game.Turn {
	e.staged = nil
	e.state.BeginTurn(0)
	turn := game.Turn{Number: 0}
	for _, id := range game.SortedKeys(e.state.Players) {
		turn.Events = append(turn.Events, game.PlayerMoved{ID: id, Position: e.rng.Position(e.cfg.Rules)})
	}
	for i := uint16(0); i < e.cfg.InitialBlocks; i++ {
		turn.Events = append(turn.Events, game.BlockPlaced{Position: e.rng.Position(e.cfg.Rules)})
	}
	for _, ev := range turn.Events {
		e.state.Apply(ev)
	}
	return turn
}

func (e *Engine) nextTurn() game.Turn {
	s := e.state
	turn := game.Turn{Number: s.Turn + 1}
	s.BeginTurn(turn.Number)

	var explosions []game.BombExploded
	for _, id := range game.SortedKeys(s.Bombs) {
		if s.Bombs[id].Timer == 0 {
			explosions = append(explosions, s.Detonate(id))
		}
	}
	ctx := s.ApplyExplosions(explosions)
	for _, ex := range explosions {
		turn.Events = append(turn.Events, ex)
	}

	for _, id := range game.SortedKeys(ctx.RobotsDestroyed) {
		ev := game.PlayerMoved{ID: id, Position: e.rng.Position(e.cfg.Rules)}
		s.Apply(ev)
		turn.Events = append(turn.Events, ev)
	}

	for _, in := range e.staged {
		if ctx.Destroyed(in.player) {
			continue
		}
		if ev, ok := e.resolve(in); ok {
			s.Apply(ev)
			turn.Events = append(turn.Events, ev)
		}
	}
	e.staged = nil
	return turn
}

// resolve turns an intent into its event against the current board, or
// reports false when the intent is illegal.
func (e *Engine) resolve(in stagedIntent) (game.Event, bool) {
	s := e.state
	pos, ok := s.Positions[in.player]
	if !ok {
		return nil, false
	}
	switch msg := in.message.(type) {
	case protocol.PlaceBomb:
		id := e.nextBombID
		e.nextBombID++
		return game.BombPlaced{ID: id, Position: pos}, true
	case protocol.PlaceBlock:
		if s.Blocks.Has(pos) {
			logger.Debugf("player %d placed a block on a block", in.player)
			return nil, false
		}
		return game.BlockPlaced{Position: pos}, true
	case protocol.Move:
		next, ok := s.Rules.Step(pos, msg.Direction)
		if !ok || s.Blocks.Has(next) {
			logger.Debugf("player %d cannot move %d from %v", in.player, msg.Direction, pos)
			return nil, false
		}
		return game.PlayerMoved{ID: in.player, Position: next}, true
	}
	return nil, false
}

// reset clears everything that belongs to one game. The random generator
// and the bomb counter carry over.
func (e *Engine) reset() {
	e.phase = PhaseLobby
	e.state.Reset()
	e.sessions = make(map[string]game.PlayerID)
	e.joins = nil
	e.staged = nil
	e.history = nil
}

// RandomState and NextBombID expose what survives a reset.
func (e *Engine) RandomState() uint32 {
	return e.rng.Last()
}

func (e *Engine) NextBombID() game.BombID {
	return e.nextBombID
}

type StatusPlayer struct {
	ID      game.PlayerID `json:"id"`
	Name    string        `json:"name"`
	Address string        `json:"address"`
	Score   uint32        `json:"score"`
}

type Status struct {
	ServerName   string         `json:"server_name"`
	Phase        string         `json:"phase"`
	Turn         uint16         `json:"turn"`
	PlayersCount uint8          `json:"players_count"`
	Players      []StatusPlayer `json:"players"`
	Sessions     int            `json:"sessions"`
}

func (e *Engine) Status() Status {
	st := Status{
		ServerName:   e.cfg.ServerName,
		Phase:        e.phase.String(),
		Turn:         e.state.Turn,
		PlayersCount: e.cfg.PlayersCount,
		Players:      []StatusPlayer{},
	}
	for _, id := range game.SortedKeys(e.state.Players) {
		p := e.state.Players[id]
		st.Players = append(st.Players, StatusPlayer{ID: id, Name: p.Name, Address: p.Address, Score: e.state.Scores[id]})
	}
	return st
}
