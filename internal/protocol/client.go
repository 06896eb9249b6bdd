package protocol

import (
	"fmt"

	"robots/internal/game"
	"robots/internal/wire"

	"github.com/pkg/errors"
)

const (
	codeJoin uint8 = iota
	codePlaceBomb
	codePlaceBlock
	codeMove
)

// ClientMessage is one of Join, PlaceBomb, PlaceBlock or Move.
type ClientMessage interface {
	clientMessage()
}

type Join struct {
	Name string
}

type PlaceBomb struct{}

type PlaceBlock struct{}

type Move struct {
	Direction game.Direction
}

func (Join) clientMessage()       {}
func (PlaceBomb) clientMessage()  {}
func (PlaceBlock) clientMessage() {}
func (Move) clientMessage()       {}

func EncodeClient(w *wire.Writer, m ClientMessage) {
	switch msg := m.(type) {
	case Join:
		w.U8(codeJoin)
		w.String(msg.Name)
	case PlaceBomb:
		w.U8(codePlaceBomb)
	case PlaceBlock:
		w.U8(codePlaceBlock)
	case Move:
		w.U8(codeMove)
		w.U8(uint8(msg.Direction))
	default:
		panic(fmt.Sprintf("protocol: unknown client message %T", m))
	}
}

func MarshalClient(m ClientMessage) ([]byte, error) {
	w := wire.NewWriter()
	EncodeClient(w, m)
	return w.Bytes()
}

// ReadClient blocks until one whole client message has been read. Unknown
// codes and directions are protocol errors.
func ReadClient(r *wire.Reader) (ClientMessage, error) {
	code, err := r.Code()
	if err != nil {
		return nil, err
	}
	switch code {
	case codeJoin:
		name, err := r.String()
		if err != nil {
			return nil, errors.Wrap(err, "join")
		}
		return Join{Name: name}, nil
	case codePlaceBomb:
		return PlaceBomb{}, nil
	case codePlaceBlock:
		return PlaceBlock{}, nil
	case codeMove:
		d, err := r.U8()
		if err != nil {
			return nil, errors.Wrap(err, "move")
		}
		dir := game.Direction(d)
		if !dir.Valid() {
			return nil, errors.Wrapf(ErrBadDirection, "direction %d", d)
		}
		return Move{Direction: dir}, nil
	}
	return nil, errors.Wrapf(ErrUnknownMessageCode, "client code %d", code)
}
