package server

import (
	"testing"

	"robots/internal/game"
	"robots/internal/protocol"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func join(e *Engine, session, name string) {
	e.Submit(Intent{SessionID: session, Address: session + ":1", Message: protocol.Join{Name: name}})
}

func act(e *Engine, session string, msg protocol.ClientMessage) {
	e.Submit(Intent{SessionID: session, Message: msg})
}

func turnOf(t *testing.T, msgs []protocol.ServerMessage) game.Turn {
	t.Helper()
	require.NotEmpty(t, msgs)
	turn, ok := msgs[0].(protocol.Turn)
	require.True(t, ok, "expected a turn, got %T", msgs[0])
	return turn.Turn
}

// startGame joins two players and plays turn 0.
func startGame(t *testing.T, e *Engine) game.Turn {
	t.Helper()
	join(e, "s0", "naruto")
	join(e, "s1", "sasuke")
	msgs := e.Tick()
	require.Len(t, msgs, 3)
	require.Equal(t, PhaseRunning, e.Phase())
	return turnOf(t, e.Tick())
}

func testConfig() EngineConfig {
	return EngineConfig{
		ServerName:    "konoha",
		PlayersCount:  2,
		Rules:         game.Rules{SizeX: 5, SizeY: 5, GameLength: 20, ExplosionRadius: 1, BombTimer: 2},
		InitialBlocks: 4,
		Seed:          1234,
	}
}

func TestLobby(t *testing.T) {
	t.Parallel()
	e := NewEngine(testConfig())

	assert.Empty(t, e.Tick())

	join(e, "s0", "naruto")
	join(e, "s0", "naruto again")
	act(e, "s0", protocol.PlaceBomb{})
	msgs := e.Tick()
	assert.Equal(t, []protocol.ServerMessage{
		protocol.AcceptedPlayer{ID: 0, Player: game.Player{Name: "naruto", Address: "s0:1"}},
	}, msgs)
	assert.Equal(t, PhaseLobby, e.Phase())

	join(e, "s0", "repeat")
	join(e, "s1", "sasuke")
	join(e, "s2", "sakura")
	msgs = e.Tick()
	players := map[game.PlayerID]game.Player{
		0: {Name: "naruto", Address: "s0:1"},
		1: {Name: "sasuke", Address: "s1:1"},
	}
	assert.Equal(t, []protocol.ServerMessage{
		protocol.AcceptedPlayer{ID: 1, Player: players[1]},
		protocol.GameStarted{Players: players},
	}, msgs)
	assert.Equal(t, PhaseRunning, e.Phase())

	join(e, "s3", "late")
	turn := turnOf(t, e.Tick())
	assert.Len(t, turn.Events, 2+4)
	assert.Len(t, e.State().Players, 2)
}

func TestFirstTurn(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	e := NewEngine(cfg)
	join(e, "s0", "naruto")
	join(e, "s1", "sasuke")
	e.Tick()
	act(e, "s0", protocol.PlaceBomb{})

	turn := turnOf(t, e.Tick())

	rng := game.NewRandom(cfg.Seed)
	expected := []game.Event{
		game.PlayerMoved{ID: 0, Position: rng.Position(cfg.Rules)},
		game.PlayerMoved{ID: 1, Position: rng.Position(cfg.Rules)},
	}
	for i := 0; i < int(cfg.InitialBlocks); i++ {
		expected = append(expected, game.BlockPlaced{Position: rng.Position(cfg.Rules)})
	}
	assert.Equal(t, game.Turn{Number: 0, Events: expected}, turn)
	assert.Empty(t, e.State().Bombs, "intents staged before turn 0 are discarded")
	assert.Equal(t, rng.Last(), e.RandomState())
}

func TestBombScenario(t *testing.T) {
	t.Parallel()
	e := NewEngine(testConfig())
	first := startGame(t, e)
	spawn := first.Events[0].(game.PlayerMoved).Position

	act(e, "s0", protocol.PlaceBomb{})
	turn := turnOf(t, e.Tick())
	assert.Equal(t, []game.Event{game.BombPlaced{ID: 0, Position: spawn}}, turn.Events)

	turn = turnOf(t, e.Tick())
	assert.Empty(t, turn.Events)
	assert.Equal(t, uint16(1), e.State().Bombs[0].Timer)

	blocksBefore := game.NewPositionSet(e.State().Blocks.Sorted()...)
	turn = turnOf(t, e.Tick())
	assert.Equal(t, uint16(3), turn.Number)

	var explosions []game.BombExploded
	for _, ev := range turn.Events {
		if ex, ok := ev.(game.BombExploded); ok {
			explosions = append(explosions, ex)
		}
	}
	require.Len(t, explosions, 1)
	ex := explosions[0]
	assert.Equal(t, game.BombID(0), ex.ID)
	assert.Equal(t, ex, turn.Events[0])

	near := func(p game.Position) bool {
		dx := int(p.X) - int(spawn.X)
		dy := int(p.Y) - int(spawn.Y)
		return (dx == 0 && dy >= -1 && dy <= 1) || (dy == 0 && dx >= -1 && dx <= 1)
	}
	for _, p := range ex.BlocksDestroyed {
		assert.True(t, near(p), "block %v outside the radius 1 cross of %v", p, spawn)
		assert.True(t, blocksBefore.Has(p))
	}
	assert.Contains(t, ex.RobotsDestroyed, game.PlayerID(0))
	assert.Empty(t, e.State().Bombs)
	assert.Equal(t, uint32(1), e.State().Scores[0])

	// the destroyed robot respawns right after the explosion
	require.Greater(t, len(turn.Events), 1)
	moved, ok := turn.Events[1].(game.PlayerMoved)
	require.True(t, ok)
	assert.Equal(t, game.PlayerID(0), moved.ID)
}

func TestIllegalMoves(t *testing.T) {
	t.Parallel()
	e := NewEngine(testConfig())
	startGame(t, e)
	s := e.State()
	s.Positions[0] = game.Position{X: 0, Y: 0}
	s.Positions[1] = game.Position{X: 4, Y: 4}
	s.Blocks = game.NewPositionSet(game.Position{X: 1, Y: 0})

	testCases := []struct {
		desc     string
		intent   protocol.ClientMessage
		expected []game.Event
		position game.Position
	}{
		{desc: "Into the left edge", intent: protocol.Move{Direction: game.Left}, position: game.Position{X: 0, Y: 0}},
		{desc: "Into the bottom edge", intent: protocol.Move{Direction: game.Down}, position: game.Position{X: 0, Y: 0}},
		{desc: "Into a block", intent: protocol.Move{Direction: game.Right}, position: game.Position{X: 0, Y: 0}},
		{
			desc:     "Up is free",
			intent:   protocol.Move{Direction: game.Up},
			expected: []game.Event{game.PlayerMoved{ID: 0, Position: game.Position{X: 0, Y: 1}}},
			position: game.Position{X: 0, Y: 1},
		},
		{
			desc:     "Block under the robot",
			intent:   protocol.PlaceBlock{},
			expected: []game.Event{game.BlockPlaced{Position: game.Position{X: 0, Y: 1}}},
			position: game.Position{X: 0, Y: 1},
		},
		{desc: "Second block on the same cell", intent: protocol.PlaceBlock{}, position: game.Position{X: 0, Y: 1}},
	}
	for _, tc := range testCases {
		act(e, "s0", tc.intent)
		turn := turnOf(t, e.Tick())
		assert.Equal(t, tc.expected, turn.Events, tc.desc)
		assert.Equal(t, tc.position, s.Positions[0], tc.desc)
	}
}

func TestLatestIntentWins(t *testing.T) {
	t.Parallel()
	e := NewEngine(testConfig())
	startGame(t, e)
	s := e.State()
	s.Blocks = game.NewPositionSet()
	s.Positions[0] = game.Position{X: 2, Y: 2}
	s.Positions[1] = game.Position{X: 3, Y: 3}

	act(e, "s0", protocol.Move{Direction: game.Up})
	act(e, "s1", protocol.PlaceBlock{})
	act(e, "s0", protocol.Move{Direction: game.Left})
	act(e, "nobody", protocol.PlaceBomb{})
	turn := turnOf(t, e.Tick())

	assert.Equal(t, []game.Event{
		game.BlockPlaced{Position: game.Position{X: 3, Y: 3}},
		game.PlayerMoved{ID: 0, Position: game.Position{X: 1, Y: 2}},
	}, turn.Events)
}

func TestLeaveDropsStagedIntent(t *testing.T) {
	t.Parallel()
	e := NewEngine(testConfig())
	startGame(t, e)
	s := e.State()
	s.Blocks = game.NewPositionSet()
	s.Positions[0] = game.Position{X: 2, Y: 2}
	s.Positions[1] = game.Position{X: 3, Y: 3}

	act(e, "s0", protocol.Move{Direction: game.Up})
	act(e, "s1", protocol.PlaceBlock{})
	e.Leave("s0")
	turn := turnOf(t, e.Tick())

	assert.Equal(t, []game.Event{
		game.BlockPlaced{Position: game.Position{X: 3, Y: 3}},
	}, turn.Events)
	assert.Equal(t, game.Position{X: 2, Y: 2}, s.Positions[0], "robot stays on the board")

	act(e, "s0", protocol.Move{Direction: game.Up})
	assert.Empty(t, turnOf(t, e.Tick()).Events)
}

func TestGameEndsAndResets(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Rules.GameLength = 3
	e := NewEngine(cfg)
	startGame(t, e)

	act(e, "s1", protocol.PlaceBomb{})
	assert.Equal(t, uint16(1), turnOf(t, e.Tick()).Number)
	assert.Equal(t, uint16(2), turnOf(t, e.Tick()).Number)

	msgs := e.Tick()
	require.Len(t, msgs, 2)
	assert.Equal(t, uint16(3), turnOf(t, msgs).Number)
	ended, ok := msgs[1].(protocol.GameEnded)
	require.True(t, ok)
	assert.Len(t, ended.Scores, 2)
	assert.Equal(t, PhaseLobby, e.Phase())
	assert.Empty(t, e.State().Players)
	assert.Empty(t, e.State().Bombs)
	assert.Empty(t, e.State().Blocks)
	assert.Empty(t, e.State().Scores)
	assert.Equal(t, []protocol.ServerMessage{e.Hello()}, e.CatchUp())

	// a second game keeps drawing from the same generator and bomb counter
	assert.NotEqual(t, cfg.Seed, e.RandomState())
	assert.Equal(t, game.BombID(1), e.NextBombID())
	lastDraw := e.RandomState()
	turn := startGame(t, e)
	continued := game.NewRandom(lastDraw)
	assert.Equal(t, game.PlayerMoved{ID: 0, Position: continued.Position(cfg.Rules)}, turn.Events[0])

	act(e, "s0", protocol.PlaceBomb{})
	placed := turnOf(t, e.Tick()).Events[0].(game.BombPlaced)
	assert.Equal(t, game.BombID(1), placed.ID)
}

func TestTurnsAreContiguous(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Rules.GameLength = 6
	e := NewEngine(cfg)
	join(e, "s0", "naruto")
	join(e, "s1", "sasuke")
	e.Tick()

	for want := uint16(0); want <= cfg.Rules.GameLength; want++ {
		act(e, "s0", protocol.PlaceBomb{})
		act(e, "s1", protocol.Move{Direction: game.Direction(want % 4)})
		assert.Equal(t, want, turnOf(t, e.Tick()).Number)
	}
	assert.Equal(t, PhaseLobby, e.Phase())
}

// replay rebuilds a board from a catch-up stream the way a client does.
func replay(t *testing.T, msgs []protocol.ServerMessage) *game.State {
	t.Helper()
	hello, ok := msgs[0].(protocol.Hello)
	require.True(t, ok)
	s := game.NewState(hello.Rules)
	for _, m := range msgs[1:] {
		switch msg := m.(type) {
		case protocol.AcceptedPlayer:
			s.AddPlayer(msg.ID, msg.Player)
		case protocol.GameStarted:
			for id, p := range msg.Players {
				s.AddPlayer(id, p)
			}
		case protocol.Turn:
			s.ApplyTurn(msg.Turn)
		}
	}
	return s
}

func TestCatchUpReplaysToTheSameState(t *testing.T) {
	t.Parallel()
	cfg := testConfig()
	cfg.Rules.ExplosionRadius = 2
	e := NewEngine(cfg)

	lobbyJoiner := e.CatchUp()
	join(e, "s0", "naruto")
	join(e, "s1", "sasuke")
	msgs := e.Tick()
	lobbyJoiner = append(lobbyJoiner, msgs...)

	dirs := []game.Direction{game.Up, game.Right, game.Down, game.Left}
	for i := 0; i < 12; i++ {
		switch i % 3 {
		case 0:
			act(e, "s0", protocol.PlaceBomb{})
		case 1:
			act(e, "s1", protocol.PlaceBlock{})
		}
		act(e, "s1", protocol.Move{Direction: dirs[i%4]})
		act(e, "s0", protocol.Move{Direction: dirs[(i+1)%4]})
		lobbyJoiner = append(lobbyJoiner, e.Tick()...)
	}

	lateJoiner := replay(t, e.CatchUp())
	early := replay(t, lobbyJoiner)

	if diff := cmp.Diff(e.State(), lateJoiner); diff != "" {
		t.Errorf("late joiner differs (-server +replay):\n%s", diff)
	}
	if diff := cmp.Diff(e.State(), early); diff != "" {
		t.Errorf("lobby joiner differs (-server +replay):\n%s", diff)
	}
}

func TestStatus(t *testing.T) {
	t.Parallel()
	e := NewEngine(testConfig())
	join(e, "s0", "naruto")
	e.Tick()

	assert.Equal(t, Status{
		ServerName:   "konoha",
		Phase:        "lobby",
		PlayersCount: 2,
		Players:      []StatusPlayer{{ID: 0, Name: "naruto", Address: "s0:1"}},
	}, e.Status())
}
