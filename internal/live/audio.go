package live

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"
)

var ErrPipelineClosed = errors.New("audio pipeline closed")

// Frame is one encoded capture block ready to send.
type Frame struct {
	Data     []byte
	MIMEType string
}

// PCMMimeType is the MIME type of raw PCM16 at the given rate.
func PCMMimeType(rate int) string {
	return fmt.Sprintf("audio/pcm;rate=%d", rate)
}

// EncodePCM16 converts samples in [-1, 1] to little-endian signed 16-bit PCM.
// Out-of-range samples are clipped.
func EncodePCM16(samples []float32) []byte {
	out := make([]byte, 2*len(samples))
	for i, s := range samples {
		v := math.Max(-1, math.Min(1, float64(s)))
		binary.LittleEndian.PutUint16(out[2*i:], uint16(int16(math.Round(v*math.MaxInt16))))
	}
	return out
}

// DecodePCM16 converts little-endian signed 16-bit PCM to samples in [-1, 1).
// A trailing odd byte is ignored.
func DecodePCM16(data []byte) []float32 {
	out := make([]float32, len(data)/2)
	for i := range out {
		out[i] = float32(int16(binary.LittleEndian.Uint16(data[2*i:]))) / 32768
	}
	return out
}

// CapturePipeline re-blocks microphone samples into fixed-size frames at the
// input sample rate.
type CapturePipeline struct {
	rate      int
	blockSize int
	mime      string

	mu      sync.Mutex
	pending []float32
	closed  bool
}

func NewCapturePipeline(rate, blockSize int) *CapturePipeline {
	return &CapturePipeline{
		rate:      rate,
		blockSize: blockSize,
		mime:      PCMMimeType(rate),
		pending:   make([]float32, 0, blockSize),
	}
}

func (p *CapturePipeline) SampleRate() int { return p.rate }

// Push buffers samples and returns every complete block, in order.
func (p *CapturePipeline) Push(samples []float32) ([]Frame, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil, ErrPipelineClosed
	}

	p.pending = append(p.pending, samples...)

	var frames []Frame
	for len(p.pending) >= p.blockSize {
		frames = append(frames, Frame{Data: EncodePCM16(p.pending[:p.blockSize]), MIMEType: p.mime})
		p.pending = p.pending[p.blockSize:]
	}
	// Compact so the backing array does not grow without bound.
	p.pending = append(make([]float32, 0, p.blockSize), p.pending...)

	return frames, nil
}

// Close drops buffered samples. Safe to call more than once.
func (p *CapturePipeline) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.closed = true
	p.pending = nil
	return nil
}

// Chunk is one decoded block of model audio.
type Chunk struct {
	PCM      []byte
	Samples  []float32
	Duration time.Duration
}

// Playback is a chunk handed to the output device.
type Playback interface {
	Done() <-chan struct{}
	Stop()
}

// AudioOut is an output device at a fixed sample rate.
type AudioOut interface {
	Clock
	Play(c Chunk, at time.Duration) (Playback, error)
	Close() error
}

// PlaybackPipeline decodes model audio, schedules it gaplessly on the output
// device and tracks every chunk that has not finished playing.
type PlaybackPipeline struct {
	rate int
	out  AudioOut

	mu      sync.Mutex
	sched   *Scheduler
	playing map[Playback]struct{}
	closed  bool
}

func NewPlaybackPipeline(rate int, out AudioOut) *PlaybackPipeline {
	return &PlaybackPipeline{
		rate:    rate,
		out:     out,
		sched:   NewScheduler(out),
		playing: make(map[Playback]struct{}),
	}
}

func (p *PlaybackPipeline) SampleRate() int { return p.rate }

// Enqueue decodes pcm and schedules it right after the previous chunk.
// It returns the scheduled start time.
func (p *PlaybackPipeline) Enqueue(pcm []byte) (time.Duration, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return 0, ErrPipelineClosed
	}

	samples := DecodePCM16(pcm)
	if len(samples) == 0 {
		return 0, nil
	}
	chunk := Chunk{
		PCM:      pcm[:2*len(samples)],
		Samples:  samples,
		Duration: time.Duration(len(samples)) * time.Second / time.Duration(p.rate),
	}

	start := p.sched.Peek()
	pb, err := p.out.Play(chunk, start)
	if err != nil {
		return 0, fmt.Errorf("failed to play audio chunk: %w", err)
	}
	p.sched.Commit(start, chunk.Duration)

	p.playing[pb] = struct{}{}
	go func() {
		<-pb.Done()
		p.mu.Lock()
		delete(p.playing, pb)
		p.mu.Unlock()
	}()

	return start, nil
}

// Pending returns the number of chunks scheduled or playing.
func (p *PlaybackPipeline) Pending() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.playing)
}

// Close stops every in-flight chunk and releases the output device.
// Safe to call more than once.
func (p *PlaybackPipeline) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	playing := p.playing
	p.playing = make(map[Playback]struct{})
	p.mu.Unlock()

	for pb := range playing {
		pb.Stop()
	}
	if err := p.out.Close(); err != nil {
		return fmt.Errorf("failed to close audio output: %w", err)
	}
	return nil
}
