package live

import "time"

// Clock is the output device clock, as an offset from its start.
type Clock interface {
	Now() time.Duration
}

// Scheduler lays audio chunks end to end. A chunk starts at the later of the
// current clock time and the end of the previously scheduled chunk.
type Scheduler struct {
	clock Clock
	next  time.Duration
}

func NewScheduler(clock Clock) *Scheduler {
	return &Scheduler{clock: clock}
}

// Schedule reserves d of playback time and returns its start.
func (s *Scheduler) Schedule(d time.Duration) time.Duration {
	start := s.Peek()
	s.Commit(start, d)
	return start
}

// Peek returns where the next chunk would start without reserving it.
func (s *Scheduler) Peek() time.Duration {
	start := s.clock.Now()
	if s.next > start {
		start = s.next
	}
	return start
}

// Commit reserves d of playback time from start.
func (s *Scheduler) Commit(start, d time.Duration) {
	s.next = start + d
}

// Reset forgets the previous end time.
func (s *Scheduler) Reset() {
	s.next = 0
}
