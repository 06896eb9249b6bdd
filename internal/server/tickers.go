package server

import "time"

// PeriodicTickerChannelCreator hands out a tick channel and the func that
// stops it.
type PeriodicTickerChannelCreator interface {
	Create(duration time.Duration) (<-chan time.Time, func())
}

type TickerGen struct{}

func (TickerGen) Create(duration time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(duration)
	return t.C, t.Stop
}
