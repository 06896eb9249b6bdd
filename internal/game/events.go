package game

// Event is one of BombPlaced, BombExploded, PlayerMoved or BlockPlaced. The
// set is closed; consumers switch over the concrete types.
type Event interface {
	event()
}

type BombPlaced struct {
	ID       BombID
	Position Position
}

type BombExploded struct {
	ID              BombID
	RobotsDestroyed []PlayerID
	BlocksDestroyed []Position
}

type PlayerMoved struct {
	ID       PlayerID
	Position Position
}

type BlockPlaced struct {
	Position Position
}

func (BombPlaced) event()   {}
func (BombExploded) event() {}
func (PlayerMoved) event()  {}
func (BlockPlaced) event()  {}

// Turn is the unit of state transition. Explosions come before every other
// event kind.
type Turn struct {
	Number uint16
	Events []Event
}

// Split separates the explosions from the rest, keeping relative order.
func (t Turn) Split() (explosions []BombExploded, others []Event) {
	for _, ev := range t.Events {
		if ex, ok := ev.(BombExploded); ok {
			explosions = append(explosions, ex)
			continue
		}
		others = append(others, ev)
	}
	return explosions, others
}
