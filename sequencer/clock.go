package sequencer

import "time"

// Clock maps between document ticks and wall time at a fixed tempo. The
// document's own tempo events are not applied.
type Clock struct {
	Tempo  int       // BPM
	PPQ    int       // ticks per quarter note
	T0     time.Time // wall time of Origin
	Origin uint32    // tick playing at T0
}

// TickDuration is the length of one tick
func (c Clock) TickDuration() time.Duration {
	if c.Tempo <= 0 || c.PPQ <= 0 {
		return 0
	}
	return time.Minute / time.Duration(c.Tempo*c.PPQ)
}

// TickToTime returns the wall time at which tick plays
func (c Clock) TickToTime(tick uint32) time.Time {
	delta := int64(tick) - int64(c.Origin)
	return c.T0.Add(c.ticksToDuration(delta))
}

// TimeToTick returns the tick playing at t (never before Origin)
func (c Clock) TimeToTick(t time.Time) uint32 {
	elapsed := t.Sub(c.T0)
	if elapsed <= 0 || c.Tempo <= 0 || c.PPQ <= 0 {
		return c.Origin
	}
	ticks := int64(elapsed) * int64(c.Tempo) * int64(c.PPQ) / int64(time.Minute)
	return c.Origin + uint32(ticks)
}

func (c Clock) ticksToDuration(ticks int64) time.Duration {
	if c.Tempo <= 0 || c.PPQ <= 0 {
		return 0
	}
	return time.Duration(ticks * int64(time.Minute) / int64(c.Tempo*c.PPQ))
}

// Rebase returns a clock that keeps the current position but starts
// counting from now, e.g. after a tempo change
func (c Clock) Rebase(now time.Time, tick uint32) Clock {
	c.T0 = now
	c.Origin = tick
	return c
}
