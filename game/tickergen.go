package game

import "time"

// TickerFactory abstracts periodic ticker creation so tests can feed ticks
// by hand. The returned stop function releases the ticker and is safe to
// call exactly once.
type TickerFactory interface {
	Create(d time.Duration) (<-chan time.Time, func())
}

type realTickers struct{}

func (realTickers) Create(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

func NewTickerFactory() TickerFactory {
	return realTickers{}
}
