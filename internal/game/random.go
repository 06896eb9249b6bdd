package game

const (
	lcgMultiplier = 48271
	lcgModulus    = 2147483647
)

// Random is the minimal standard linear congruential generator. Its state
// survives from one game to the next on the same process.
type Random struct {
	last uint32
}

func NewRandom(seed uint32) *Random {
	return &Random{last: seed}
}

func (r *Random) Next() uint32 {
	r.last = uint32(uint64(r.last) * lcgMultiplier % lcgModulus)
	return r.last
}

func (r *Random) Last() uint32 {
	return r.last
}

// Position draws x then y.
func (r *Random) Position(rules Rules) Position {
	x := r.Next() % uint32(rules.SizeX)
	y := r.Next() % uint32(rules.SizeY)
	return Position{X: uint16(x), Y: uint16(y)}
}
