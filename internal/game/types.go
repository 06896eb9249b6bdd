// Package game models the board shared by the authoritative server and the
// client mirror, and the rules for applying a turn's events to it.
package game

import (
	"cmp"
	"slices"
)

type PlayerID uint8

type BombID uint32

type Position struct {
	X uint16
	Y uint16
}

func (p Position) Compare(o Position) int {
	if c := cmp.Compare(p.X, o.X); c != 0 {
		return c
	}
	return cmp.Compare(p.Y, o.Y)
}

type Player struct {
	Name    string
	Address string
}

type Bomb struct {
	Position Position
	Timer    uint16
}

type Direction uint8

const (
	Up Direction = iota
	Right
	Down
	Left
)

func (d Direction) Valid() bool {
	return d <= Left
}

// Rules are the parameters announced in Hello; they stay fixed for the
// lifetime of a server process.
type Rules struct {
	SizeX           uint16
	SizeY           uint16
	GameLength      uint16
	ExplosionRadius uint16
	BombTimer       uint16
}

func (r Rules) Inside(p Position) bool {
	return p.X < r.SizeX && p.Y < r.SizeY
}

// Step returns the neighbouring cell in direction d, or false when it would
// leave the board. Up grows y.
func (r Rules) Step(p Position, d Direction) (Position, bool) {
	switch d {
	case Up:
		if int(p.Y)+1 >= int(r.SizeY) {
			return p, false
		}
		p.Y++
	case Right:
		if int(p.X)+1 >= int(r.SizeX) {
			return p, false
		}
		p.X++
	case Down:
		if p.Y == 0 {
			return p, false
		}
		p.Y--
	case Left:
		if p.X == 0 {
			return p, false
		}
		p.X--
	default:
		return p, false
	}
	return p, true
}

// PositionSet is a set of cells that iterates in (x, y) order.
type PositionSet map[Position]struct{}

func NewPositionSet(ps ...Position) PositionSet {
	s := make(PositionSet, len(ps))
	for _, p := range ps {
		s[p] = struct{}{}
	}
	return s
}

func (s PositionSet) Add(p Position) {
	s[p] = struct{}{}
}

func (s PositionSet) Has(p Position) bool {
	_, ok := s[p]
	return ok
}

func (s PositionSet) Sorted() []Position {
	out := make([]Position, 0, len(s))
	for p := range s {
		out = append(out, p)
	}
	slices.SortFunc(out, Position.Compare)
	return out
}

// SortedKeys returns the keys of an id keyed map in ascending order.
func SortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
