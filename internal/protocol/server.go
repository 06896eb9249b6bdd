// Package protocol defines the messages exchanged over the server TCP stream
// and the display UDP socket, on top of the primitives in package wire.
package protocol

import (
	"fmt"

	"robots/internal/game"
	"robots/internal/wire"

	"github.com/pkg/errors"
)

const (
	codeHello uint8 = iota
	codeAcceptedPlayer
	codeGameStarted
	codeTurn
	codeGameEnded
)

// ServerMessage is one of Hello, AcceptedPlayer, GameStarted, Turn or
// GameEnded.
type ServerMessage interface {
	serverMessage()
}

type Hello struct {
	ServerName   string
	PlayersCount uint8
	Rules        game.Rules
}

type AcceptedPlayer struct {
	ID     game.PlayerID
	Player game.Player
}

type GameStarted struct {
	Players map[game.PlayerID]game.Player
}

type Turn struct {
	game.Turn
}

type GameEnded struct {
	Scores map[game.PlayerID]uint32
}

func (Hello) serverMessage()          {}
func (AcceptedPlayer) serverMessage() {}
func (GameStarted) serverMessage()    {}
func (Turn) serverMessage()           {}
func (GameEnded) serverMessage()      {}

func writePlayer(w *wire.Writer, p game.Player) {
	w.String(p.Name)
	w.String(p.Address)
}

func readPlayer(r *wire.Reader) (game.Player, error) {
	name, err := r.String()
	if err != nil {
		return game.Player{}, err
	}
	addr, err := r.String()
	if err != nil {
		return game.Player{}, err
	}
	return game.Player{Name: name, Address: addr}, nil
}

func writePlayers(w *wire.Writer, players map[game.PlayerID]game.Player) {
	w.Count(len(players))
	for _, id := range game.SortedKeys(players) {
		w.U8(uint8(id))
		writePlayer(w, players[id])
	}
}

func readPlayers(r *wire.Reader) (map[game.PlayerID]game.Player, error) {
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	players := make(map[game.PlayerID]game.Player)
	for i := uint32(0); i < n; i++ {
		id, err := r.U8()
		if err != nil {
			return nil, err
		}
		p, err := readPlayer(r)
		if err != nil {
			return nil, err
		}
		players[game.PlayerID(id)] = p
	}
	return players, nil
}

func writeScores(w *wire.Writer, scores map[game.PlayerID]uint32) {
	w.Count(len(scores))
	for _, id := range game.SortedKeys(scores) {
		w.U8(uint8(id))
		w.U32(scores[id])
	}
}

func writeRules(w *wire.Writer, rules game.Rules) {
	w.U16(rules.SizeX)
	w.U16(rules.SizeY)
	w.U16(rules.GameLength)
	w.U16(rules.ExplosionRadius)
	w.U16(rules.BombTimer)
}

func EncodeServer(w *wire.Writer, m ServerMessage) {
	switch msg := m.(type) {
	case Hello:
		w.U8(codeHello)
		w.String(msg.ServerName)
		w.U8(msg.PlayersCount)
		writeRules(w, msg.Rules)
	case AcceptedPlayer:
		w.U8(codeAcceptedPlayer)
		w.U8(uint8(msg.ID))
		writePlayer(w, msg.Player)
	case GameStarted:
		w.U8(codeGameStarted)
		writePlayers(w, msg.Players)
	case Turn:
		w.U8(codeTurn)
		w.U16(msg.Number)
		w.Count(len(msg.Events))
		for _, ev := range msg.Events {
			EncodeEvent(w, ev)
		}
	case GameEnded:
		w.U8(codeGameEnded)
		writeScores(w, msg.Scores)
	default:
		panic(fmt.Sprintf("protocol: unknown server message %T", m))
	}
}

// MarshalServer encodes a batch of messages back to back, the way they are
// written to a TCP stream.
func MarshalServer(msgs ...ServerMessage) ([]byte, error) {
	w := wire.NewWriter()
	for _, m := range msgs {
		EncodeServer(w, m)
	}
	return w.Bytes()
}

// ReadServer blocks until one whole server message has been read. A stream
// closed between messages yields io.EOF.
func ReadServer(r *wire.Reader) (ServerMessage, error) {
	code, err := r.Code()
	if err != nil {
		return nil, err
	}
	switch code {
	case codeHello:
		return readHello(r)
	case codeAcceptedPlayer:
		id, err := r.U8()
		if err != nil {
			return nil, errors.Wrap(err, "accepted player")
		}
		p, err := readPlayer(r)
		if err != nil {
			return nil, errors.Wrap(err, "accepted player")
		}
		return AcceptedPlayer{ID: game.PlayerID(id), Player: p}, nil
	case codeGameStarted:
		players, err := readPlayers(r)
		if err != nil {
			return nil, errors.Wrap(err, "game started")
		}
		return GameStarted{Players: players}, nil
	case codeTurn:
		return readTurn(r)
	case codeGameEnded:
		return readGameEnded(r)
	}
	return nil, errors.Wrapf(ErrUnknownMessageCode, "server code %d", code)
}

func readHello(r *wire.Reader) (Hello, error) {
	var (
		h   Hello
		err error
	)
	if h.ServerName, err = r.String(); err != nil {
		return h, errors.Wrap(err, "hello server name")
	}
	if h.PlayersCount, err = r.U8(); err != nil {
		return h, errors.Wrap(err, "hello players count")
	}
	for _, field := range []*uint16{
		&h.Rules.SizeX,
		&h.Rules.SizeY,
		&h.Rules.GameLength,
		&h.Rules.ExplosionRadius,
		&h.Rules.BombTimer,
	} {
		if *field, err = r.U16(); err != nil {
			return h, errors.Wrap(err, "hello rules")
		}
	}
	return h, nil
}

func readTurn(r *wire.Reader) (Turn, error) {
	var t Turn
	number, err := r.U16()
	if err != nil {
		return t, errors.Wrap(err, "turn number")
	}
	n, err := r.U32()
	if err != nil {
		return t, errors.Wrap(err, "turn events")
	}
	t.Number = number
	for i := uint32(0); i < n; i++ {
		ev, err := DecodeEvent(r)
		if err != nil {
			return t, errors.Wrapf(err, "turn %d event %d", number, i)
		}
		t.Events = append(t.Events, ev)
	}
	return t, nil
}

func readGameEnded(r *wire.Reader) (GameEnded, error) {
	n, err := r.U32()
	if err != nil {
		return GameEnded{}, errors.Wrap(err, "game ended")
	}
	scores := make(map[game.PlayerID]uint32)
	for i := uint32(0); i < n; i++ {
		id, err := r.U8()
		if err != nil {
			return GameEnded{}, errors.Wrap(err, "game ended")
		}
		score, err := r.U32()
		if err != nil {
			return GameEnded{}, errors.Wrap(err, "game ended")
		}
		scores[game.PlayerID(id)] = score
	}
	return GameEnded{Scores: scores}, nil
}
