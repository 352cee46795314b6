package core

import "time"

// Clock supplies milliseconds since the unix epoch. Rooms never read
// the wall clock directly so tests can drive time by hand.
type Clock interface {
	NowMillis() int64
}

// systemClock anchors to the wall clock once and advances monotonically,
// so ordering survives wall-clock jumps.
type systemClock struct {
	base  int64
	start time.Time
}

func NewSystemClock() Clock {
	return &systemClock{base: time.Now().UnixMilli(), start: time.Now()}
}

func (c *systemClock) NowMillis() int64 {
	return c.base + time.Since(c.start).Milliseconds()
}
