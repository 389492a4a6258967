package live

import (
	"context"
	"errors"
	"sync"
	"time"
)

type fakeMic struct {
	samples chan []float32
	mu      sync.Mutex
	closes  int
}

func newFakeMic() *fakeMic {
	return &fakeMic{samples: make(chan []float32, 16)}
}

func (m *fakeMic) Samples() <-chan []float32 { return m.samples }

func (m *fakeMic) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closes++
	return nil
}

func (m *fakeMic) closeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

type fakePlayback struct {
	done    chan struct{}
	once    sync.Once
	stopped bool
	mu      sync.Mutex
}

func newFakePlayback() *fakePlayback { return &fakePlayback{done: make(chan struct{})} }

func (p *fakePlayback) Done() <-chan struct{} { return p.done }

func (p *fakePlayback) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
	p.finish()
}

func (p *fakePlayback) finish() { p.once.Do(func() { close(p.done) }) }

func (p *fakePlayback) wasStopped() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stopped
}

type played struct {
	chunk Chunk
	at    time.Duration
	pb    *fakePlayback
}

type fakeOut struct {
	mu     sync.Mutex
	now    time.Duration
	played []played
	closes int
	// failPlays makes the next n Play calls fail.
	failPlays int
}

func (o *fakeOut) Now() time.Duration {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.now
}

func (o *fakeOut) advance(d time.Duration) {
	o.mu.Lock()
	o.now += d
	o.mu.Unlock()
}

func (o *fakeOut) Play(c Chunk, at time.Duration) (Playback, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failPlays > 0 {
		o.failPlays--
		return nil, errors.New("device busy")
	}
	pb := newFakePlayback()
	o.played = append(o.played, played{chunk: c, at: at, pb: pb})
	return pb, nil
}

func (o *fakeOut) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closes++
	return nil
}

func (o *fakeOut) snapshot() []played {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]played(nil), o.played...)
}

func (o *fakeOut) closeCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closes
}

type fakeDevices struct {
	mic    *fakeMic
	out    *fakeOut
	micErr error
}

func (d *fakeDevices) OpenMicrophone(context.Context) (Microphone, error) {
	if d.micErr != nil {
		return nil, d.micErr
	}
	return d.mic, nil
}

func (d *fakeDevices) OpenAudioOut(context.Context, int) (AudioOut, error) {
	return d.out, nil
}

type fakeChannel struct {
	events chan Event

	mu       sync.Mutex
	sent     []Frame
	attempts int
	sendErr  func(attempt int) error
	closes   int
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{events: make(chan Event, 16)}
}

func (c *fakeChannel) Send(_ context.Context, f Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.attempts++
	if c.sendErr != nil {
		if err := c.sendErr(c.attempts); err != nil {
			return err
		}
	}
	c.sent = append(c.sent, f)
	return nil
}

func (c *fakeChannel) Events() <-chan Event { return c.events }

func (c *fakeChannel) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closes++
	if c.closes == 1 {
		close(c.events)
	}
	return nil
}

func (c *fakeChannel) stats() (sent, attempts, closes int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent), c.attempts, c.closes
}

type fakeConnector struct {
	ch    *fakeChannel
	err   error
	calls int
}

func (c *fakeConnector) ConnectLive(context.Context, Config) (Channel, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	return c.ch, nil
}

type recordingObserver struct {
	mu         sync.Mutex
	statuses   []Status
	transcript []TranscriptEntry
	notices    []string
}

func (o *recordingObserver) StatusChanged(s Status) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.statuses = append(o.statuses, s)
}

func (o *recordingObserver) TranscriptChanged(e []TranscriptEntry) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.transcript = e
}

func (o *recordingObserver) QuotaExceeded(notice string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.notices = append(o.notices, notice)
}

func (o *recordingObserver) states() []State {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]State, len(o.statuses))
	for i, s := range o.statuses {
		out[i] = s.State
	}
	return out
}

func (o *recordingObserver) noticeCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.notices)
}

var errBoom = errors.New("boom")
