package protocol

import (
	"fmt"

	"robots/internal/game"
	"robots/internal/wire"

	"github.com/pkg/errors"
)

const (
	displayLobby uint8 = iota
	displayGame
)

const (
	inputPlaceBomb uint8 = iota
	inputPlaceBlock
	inputMove
)

// DisplayMessage is what the client publishes to the display: Lobby or Game.
type DisplayMessage interface {
	displayMessage()
}

type Lobby struct {
	ServerName   string
	PlayersCount uint8
	Rules        game.Rules
	Players      map[game.PlayerID]game.Player
}

// Game carries a full snapshot of the board. Bombs are listed in ascending
// bomb id order.
type Game struct {
	ServerName string
	Rules      game.Rules
	Turn       uint16
	Players    map[game.PlayerID]game.Player
	Positions  map[game.PlayerID]game.Position
	Blocks     game.PositionSet
	Bombs      []game.Bomb
	Explosions game.PositionSet
	Scores     map[game.PlayerID]uint32
}

func (Lobby) displayMessage() {}
func (Game) displayMessage()  {}

func MarshalDisplay(m DisplayMessage) ([]byte, error) {
	w := wire.NewWriter()
	switch msg := m.(type) {
	case Lobby:
		w.U8(displayLobby)
		w.String(msg.ServerName)
		w.U8(msg.PlayersCount)
		writeRules(w, msg.Rules)
		writePlayers(w, msg.Players)
	case Game:
		w.U8(displayGame)
		w.String(msg.ServerName)
		w.U16(msg.Rules.SizeX)
		w.U16(msg.Rules.SizeY)
		w.U16(msg.Rules.GameLength)
		w.U16(msg.Turn)
		writePlayers(w, msg.Players)
		w.Count(len(msg.Positions))
		for _, id := range game.SortedKeys(msg.Positions) {
			w.U8(uint8(id))
			writePosition(w, msg.Positions[id])
		}
		writePositions(w, msg.Blocks.Sorted())
		w.Count(len(msg.Bombs))
		for _, b := range msg.Bombs {
			writePosition(w, b.Position)
			w.U16(b.Timer)
		}
		writePositions(w, msg.Explosions.Sorted())
		writeScores(w, msg.Scores)
	default:
		panic(fmt.Sprintf("protocol: unknown display message %T", m))
	}
	return w.Bytes()
}

// NewGameView snapshots a board for the display.
func NewGameView(serverName string, s *game.State, explosions game.PositionSet) Game {
	bombs := make([]game.Bomb, 0, len(s.Bombs))
	for _, id := range game.SortedKeys(s.Bombs) {
		bombs = append(bombs, s.Bombs[id])
	}
	return Game{
		ServerName: serverName,
		Rules:      s.Rules,
		Turn:       s.Turn,
		Players:    s.Players,
		Positions:  s.Positions,
		Blocks:     s.Blocks,
		Bombs:      bombs,
		Explosions: explosions,
		Scores:     s.Scores,
	}
}

// ParseInput decodes a display datagram into the message to relay to the
// server. Datagrams of the wrong length, unknown codes and directions out of
// range are rejected.
func ParseInput(datagram []byte) (ClientMessage, bool) {
	switch len(datagram) {
	case 1:
		switch datagram[0] {
		case inputPlaceBomb:
			return PlaceBomb{}, true
		case inputPlaceBlock:
			return PlaceBlock{}, true
		}
	case 2:
		dir := game.Direction(datagram[1])
		if datagram[0] == inputMove && dir.Valid() {
			return Move{Direction: dir}, true
		}
	}
	return nil, false
}

// EncodeInput is the inverse of ParseInput, used by display simulators.
func EncodeInput(m ClientMessage) []byte {
	switch msg := m.(type) {
	case PlaceBomb:
		return []byte{inputPlaceBomb}
	case PlaceBlock:
		return []byte{inputPlaceBlock}
	case Move:
		return []byte{inputMove, uint8(msg.Direction)}
	}
	return nil
}

// ReadDisplay decodes a datagram produced by MarshalDisplay.
func ReadDisplay(r *wire.Reader) (DisplayMessage, error) {
	code, err := r.Code()
	if err != nil {
		return nil, err
	}
	switch code {
	case displayLobby:
		h, err := readHello(r)
		if err != nil {
			return nil, errors.Wrap(err, "lobby")
		}
		players, err := readPlayers(r)
		if err != nil {
			return nil, errors.Wrap(err, "lobby players")
		}
		return Lobby{ServerName: h.ServerName, PlayersCount: h.PlayersCount, Rules: h.Rules, Players: players}, nil
	case displayGame:
		g, err := readGame(r)
		return g, errors.Wrap(err, "game")
	}
	return nil, errors.Wrapf(ErrUnknownMessageCode, "display code %d", code)
}

func readGame(r *wire.Reader) (Game, error) {
	var (
		g   Game
		err error
	)
	if g.ServerName, err = r.String(); err != nil {
		return g, err
	}
	for _, field := range []*uint16{&g.Rules.SizeX, &g.Rules.SizeY, &g.Rules.GameLength, &g.Turn} {
		if *field, err = r.U16(); err != nil {
			return g, err
		}
	}
	if g.Players, err = readPlayers(r); err != nil {
		return g, err
	}
	n, err := r.U32()
	if err != nil {
		return g, err
	}
	g.Positions = make(map[game.PlayerID]game.Position)
	for i := uint32(0); i < n; i++ {
		id, err := r.U8()
		if err != nil {
			return g, err
		}
		if g.Positions[game.PlayerID(id)], err = readPosition(r); err != nil {
			return g, err
		}
	}
	blocks, err := readPositions(r)
	if err != nil {
		return g, err
	}
	g.Blocks = game.NewPositionSet(blocks...)
	if n, err = r.U32(); err != nil {
		return g, err
	}
	g.Bombs = make([]game.Bomb, 0, n)
	for i := uint32(0); i < n; i++ {
		pos, err := readPosition(r)
		if err != nil {
			return g, err
		}
		timer, err := r.U16()
		if err != nil {
			return g, err
		}
		g.Bombs = append(g.Bombs, game.Bomb{Position: pos, Timer: timer})
	}
	explosions, err := readPositions(r)
	if err != nil {
		return g, err
	}
	g.Explosions = game.NewPositionSet(explosions...)
	g.Scores = make(map[game.PlayerID]uint32)
	if n, err = r.U32(); err != nil {
		return g, err
	}
	for i := uint32(0); i < n; i++ {
		id, err := r.U8()
		if err != nil {
			return g, err
		}
		if g.Scores[game.PlayerID(id)], err = r.U32(); err != nil {
			return g, err
		}
	}
	return g, nil
}
