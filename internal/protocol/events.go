package protocol

import (
	"fmt"

	"robots/internal/game"
	"robots/internal/wire"

	"github.com/pkg/errors"
)

const (
	eventBombPlaced uint8 = iota
	eventBombExploded
	eventPlayerMoved
	eventBlockPlaced
)

func writePosition(w *wire.Writer, p game.Position) {
	w.U16(p.X)
	w.U16(p.Y)
}

func readPosition(r *wire.Reader) (game.Position, error) {
	x, err := r.U16()
	if err != nil {
		return game.Position{}, err
	}
	y, err := r.U16()
	if err != nil {
		return game.Position{}, err
	}
	return game.Position{X: x, Y: y}, nil
}

func writePositions(w *wire.Writer, ps []game.Position) {
	w.Count(len(ps))
	for _, p := range ps {
		writePosition(w, p)
	}
}

func readPositions(r *wire.Reader) ([]game.Position, error) {
	n, err := r.U32()
	if err != nil {
		return nil, err
	}
	var ps []game.Position
	for i := uint32(0); i < n; i++ {
		p, err := readPosition(r)
		if err != nil {
			return nil, err
		}
		ps = append(ps, p)
	}
	return ps, nil
}

// EncodeEvent writes the event code followed by its payload.
func EncodeEvent(w *wire.Writer, ev game.Event) {
	switch e := ev.(type) {
	case game.BombPlaced:
		w.U8(eventBombPlaced)
		w.U32(uint32(e.ID))
		writePosition(w, e.Position)
	case game.BombExploded:
		w.U8(eventBombExploded)
		w.U32(uint32(e.ID))
		w.Count(len(e.RobotsDestroyed))
		for _, id := range e.RobotsDestroyed {
			w.U8(uint8(id))
		}
		writePositions(w, e.BlocksDestroyed)
	case game.PlayerMoved:
		w.U8(eventPlayerMoved)
		w.U8(uint8(e.ID))
		writePosition(w, e.Position)
	case game.BlockPlaced:
		w.U8(eventBlockPlaced)
		writePosition(w, e.Position)
	default:
		panic(fmt.Sprintf("protocol: unknown event %T", ev))
	}
}

func DecodeEvent(r *wire.Reader) (game.Event, error) {
	code, err := r.U8()
	if err != nil {
		return nil, errors.Wrap(err, "event code")
	}
	switch code {
	case eventBombPlaced:
		id, err := r.U32()
		if err != nil {
			return nil, errors.Wrap(err, "bomb placed")
		}
		pos, err := readPosition(r)
		if err != nil {
			return nil, errors.Wrap(err, "bomb placed")
		}
		return game.BombPlaced{ID: game.BombID(id), Position: pos}, nil
	case eventBombExploded:
		id, err := r.U32()
		if err != nil {
			return nil, errors.Wrap(err, "bomb exploded")
		}
		n, err := r.U32()
		if err != nil {
			return nil, errors.Wrap(err, "bomb exploded robots")
		}
		ev := game.BombExploded{ID: game.BombID(id)}
		for i := uint32(0); i < n; i++ {
			pid, err := r.U8()
			if err != nil {
				return nil, errors.Wrap(err, "bomb exploded robots")
			}
			ev.RobotsDestroyed = append(ev.RobotsDestroyed, game.PlayerID(pid))
		}
		if ev.BlocksDestroyed, err = readPositions(r); err != nil {
			return nil, errors.Wrap(err, "bomb exploded blocks")
		}
		return ev, nil
	case eventPlayerMoved:
		id, err := r.U8()
		if err != nil {
			return nil, errors.Wrap(err, "player moved")
		}
		pos, err := readPosition(r)
		if err != nil {
			return nil, errors.Wrap(err, "player moved")
		}
		return game.PlayerMoved{ID: game.PlayerID(id), Position: pos}, nil
	case eventBlockPlaced:
		pos, err := readPosition(r)
		if err != nil {
			return nil, errors.Wrap(err, "block placed")
		}
		return game.BlockPlaced{Position: pos}, nil
	}
	return nil, errors.Wrapf(ErrUnknownEventCode, "code %d", code)
}
