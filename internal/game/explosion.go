package game

// Blast returns the cells hit by a bomb at origin. Four rays of at most
// ExplosionRadius cells leave the origin; each stops on the first block, which is hit
// too. A block on the origin absorbs the whole blast.
func Blast(rules Rules, blocks PositionSet, origin Position) PositionSet {
	cells := NewPositionSet(origin)
	if blocks.Has(origin) {
		return cells
	}
	for _, d := range []Direction{Up, Down, Right, Left} {
		at := origin
		for i := uint16(0); i < rules.ExplosionRadius; i++ {
			next, ok := rules.Step(at, d)
			if !ok {
				break
			}
			cells.Add(next)
			if blocks.Has(next) {
				break
			}
			at = next
		}
	}
	return cells
}

// Detonate builds the explosion event for a live bomb against the current
// board. It does not change the state.
func (s *State) Detonate(id BombID) BombExploded {
	ev := BombExploded{ID: id}
	bomb, ok := s.Bombs[id]
	if !ok {
		return ev
	}
	cells := Blast(s.Rules, s.Blocks, bomb.Position)
	for _, p := range cells.Sorted() {
		if s.Blocks.Has(p) {
			ev.BlocksDestroyed = append(ev.BlocksDestroyed, p)
		}
	}
	for _, pid := range SortedKeys(s.Positions) {
		if cells.Has(s.Positions[pid]) {
			ev.RobotsDestroyed = append(ev.RobotsDestroyed, pid)
		}
	}
	return ev
}
