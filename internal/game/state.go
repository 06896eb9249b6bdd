package game

import "fmt"

// State is the board as seen at a turn boundary. The server and the client
// mirror apply turns through the same methods, so a mirror that replays the
// whole history ends up equal to the server's copy.
type State struct {
	Rules     Rules
	Players   map[PlayerID]Player
	Positions map[PlayerID]Position
	Bombs     map[BombID]Bomb
	Blocks    PositionSet
	Scores    map[PlayerID]uint32
	Turn      uint16
}

func NewState(rules Rules) *State {
	s := &State{Rules: rules}
	s.Reset()
	return s
}

// Reset drops everything that belongs to a single game.
func (s *State) Reset() {
	s.Players = make(map[PlayerID]Player)
	s.Positions = make(map[PlayerID]Position)
	s.Bombs = make(map[BombID]Bomb)
	s.Blocks = make(PositionSet)
	s.Scores = make(map[PlayerID]uint32)
	s.Turn = 0
}

func (s *State) AddPlayer(id PlayerID, p Player) {
	s.Players[id] = p
	s.Scores[id] = 0
}

// TurnContext collects what the explosions of one turn destroyed, so that
// overlapping blasts remove a block and score a robot only once.
type TurnContext struct {
	RobotsDestroyed map[PlayerID]struct{}
	BlocksDestroyed PositionSet
	Cells           PositionSet
}

func NewTurnContext() *TurnContext {
	return &TurnContext{
		RobotsDestroyed: make(map[PlayerID]struct{}),
		BlocksDestroyed: make(PositionSet),
		Cells:           make(PositionSet),
	}
}

func (c *TurnContext) Destroyed(id PlayerID) bool {
	_, ok := c.RobotsDestroyed[id]
	return ok
}

// BeginTurn moves the state to turn n and ticks every bomb down by one.
func (s *State) BeginTurn(n uint16) {
	s.Turn = n
	for id, b := range s.Bombs {
		if b.Timer > 0 {
			b.Timer--
		}
		s.Bombs[id] = b
	}
}

// ApplyExplosions applies all explosions of a turn against the board as it
// was before any of them, then removes the destroyed blocks and scores the
// destroyed robots once each.
func (s *State) ApplyExplosions(explosions []BombExploded) *TurnContext {
	ctx := NewTurnContext()
	for _, ex := range explosions {
		s.explode(ex, ctx)
	}
	for p := range ctx.BlocksDestroyed {
		delete(s.Blocks, p)
	}
	for id := range ctx.RobotsDestroyed {
		s.Scores[id]++
	}
	return ctx
}

func (s *State) explode(ex BombExploded, ctx *TurnContext) {
	if bomb, ok := s.Bombs[ex.ID]; ok {
		for p := range Blast(s.Rules, s.Blocks, bomb.Position) {
			ctx.Cells.Add(p)
		}
		delete(s.Bombs, ex.ID)
	}
	for _, p := range ex.BlocksDestroyed {
		ctx.BlocksDestroyed.Add(p)
	}
	for _, id := range ex.RobotsDestroyed {
		ctx.RobotsDestroyed[id] = struct{}{}
	}
}

// Apply mutates the state for a single non-explosion event. A lone
// explosion is applied as a turn of its own.
func (s *State) Apply(ev Event) {
	switch e := ev.(type) {
	case BombPlaced:
		s.Bombs[e.ID] = Bomb{Position: e.Position, Timer: s.Rules.BombTimer}
	case PlayerMoved:
		s.Positions[e.ID] = e.Position
	case BlockPlaced:
		s.Blocks.Add(e.Position)
	case BombExploded:
		s.ApplyExplosions([]BombExploded{e})
	default:
		panic(fmt.Sprintf("game: unknown event %T", ev))
	}
}

// ApplyTurn replays a committed turn.
func (s *State) ApplyTurn(t Turn) *TurnContext {
	s.BeginTurn(t.Number)
	explosions, others := t.Split()
	ctx := s.ApplyExplosions(explosions)
	for _, ev := range others {
		s.Apply(ev)
	}
	return ctx
}
