package live

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"ReplyDesk/internal/apierror"
)

var (
	ErrAlreadyStarted = errors.New("live session already started")
	ErrStopped        = errors.New("live session stopped while starting")
)

// Microphone delivers captured mono samples in [-1, 1] at the input rate.
// The channel is closed when the device goes away.
type Microphone interface {
	Samples() <-chan []float32
	Close() error
}

// Devices opens the operator's audio hardware. OpenMicrophone returns
// apierror.ErrPermissionDenied when access is refused.
type Devices interface {
	OpenMicrophone(ctx context.Context) (Microphone, error)
	OpenAudioOut(ctx context.Context, sampleRate int) (AudioOut, error)
}

// Channel is an open realtime connection to the model. Events is closed
// after the channel has been closed or failed.
type Channel interface {
	Send(ctx context.Context, f Frame) error
	Events() <-chan Event
	Close() error
}

// Connector opens realtime channels.
type Connector interface {
	ConnectLive(ctx context.Context, cfg Config) (Channel, error)
}

// Observer is notified of every visible change. Calls are made with the
// session lock held and must not call back into the Session.
type Observer interface {
	StatusChanged(Status)
	TranscriptChanged([]TranscriptEntry)
	QuotaExceeded(notice string)
}

// run holds what one Start acquired; Stop releases all of it.
type run struct {
	ctx       context.Context
	cancel    context.CancelFunc
	group     *errgroup.Group
	mic       Microphone
	capture   *CapturePipeline
	playback  *PlaybackPipeline
	channel   Channel
	capturing bool
}

// Session orchestrates one operator's voice conversation.
type Session struct {
	cfg       Config
	devices   Devices
	connector Connector
	observer  Observer
	logger    *slog.Logger

	mu         sync.Mutex
	status     Status
	transcript Transcript
	run        *run
	last       *errgroup.Group
}

func NewSession(cfg Config, devices Devices, connector Connector, observer Observer, logger *slog.Logger) *Session {
	return &Session{
		cfg:       cfg,
		devices:   devices,
		connector: connector,
		observer:  observer,
		logger:    logger,
		status:    Status{State: StateIdle, Message: MessageIdle},
	}
}

func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

func (s *Session) Transcript() []TranscriptEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transcript.Entries()
}

// Start acquires the microphone, opens both audio pipelines and connects.
// It is only valid from the idle state.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.status.State != StateIdle {
		s.mu.Unlock()
		return ErrAlreadyStarted
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)
	r := &run{ctx: groupCtx, cancel: cancel, group: group}
	s.run = r
	s.transcript.Reset()
	s.observer.TranscriptChanged(nil)
	s.setStatusLocked(StateRequestingPermission, MessageRequestingPermission)
	s.mu.Unlock()

	mic, err := s.devices.OpenMicrophone(r.ctx)

	s.mu.Lock()
	if s.run != r {
		s.mu.Unlock()
		if mic != nil {
			mic.Close()
		}
		return ErrStopped
	}
	if err != nil {
		if errors.Is(err, apierror.ErrPermissionDenied) {
			s.stopLocked(MessagePermissionDenied)
		} else {
			s.stopLocked(errorMessage(err))
		}
		s.mu.Unlock()
		return fmt.Errorf("failed to open microphone: %w", err)
	}
	r.mic = mic
	r.capture = NewCapturePipeline(s.cfg.InputSampleRate, s.cfg.BlockSize)
	s.setStatusLocked(StateConnecting, MessageConnecting)
	s.mu.Unlock()

	out, err := s.devices.OpenAudioOut(r.ctx, s.cfg.OutputSampleRate)
	if err != nil {
		s.abort(r, err)
		return fmt.Errorf("failed to open audio output: %w", err)
	}

	s.mu.Lock()
	if s.run != r {
		s.mu.Unlock()
		out.Close()
		return ErrStopped
	}
	r.playback = NewPlaybackPipeline(s.cfg.OutputSampleRate, out)
	s.mu.Unlock()

	ch, err := s.connector.ConnectLive(r.ctx, s.cfg)
	if err != nil {
		s.abort(r, err)
		return fmt.Errorf("failed to connect live session: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != r {
		ch.Close()
		return ErrStopped
	}
	r.channel = ch

	events := ch.Events()
	r.group.Go(func() error {
		for ev := range events {
			s.dispatch(r, ev)
		}
		return nil
	})

	s.logger.Info("live session connecting", "model", s.cfg.Model)
	return nil
}

// abort surfaces err and stops r if it is still current.
func (s *Session) abort(r *run, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != r {
		return
	}
	s.failLocked(err)
}

func (s *Session) dispatch(r *run, ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run != r {
		return
	}
	s.handleLocked(ev)
}

// Handle applies one channel event to the session. Events arriving while
// no run is active are ignored.
func (s *Session) Handle(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run == nil {
		return
	}
	s.handleLocked(ev)
}

func (s *Session) handleLocked(ev Event) {
	r := s.run

	switch ev.Kind {
	case EventOpened:
		s.setStatusLocked(StateActive, MessageConnected)
		if !r.capturing && r.mic != nil && r.channel != nil {
			r.capturing = true
			r.group.Go(func() error { return s.capture(r) })
		}

	case EventTranscriptFragment:
		s.transcript.Fragment(ev.Speaker, ev.Text)
		s.observer.TranscriptChanged(s.transcript.Entries())

	case EventTurnComplete:
		s.transcript.CompleteTurn()
		s.observer.TranscriptChanged(s.transcript.Entries())

	case EventAudioChunk:
		if r.playback == nil {
			return
		}
		if _, err := r.playback.Enqueue(ev.Audio); err != nil {
			s.logger.Warn("failed to schedule audio chunk", "error", err)
		}

	case EventClosed:
		s.logger.Info("live session closed by remote")
		s.stopLocked(MessageIdle)

	case EventError:
		s.failLocked(ev.Err)

	default:
		s.logger.Warn("ignoring unknown live event", "kind", ev.Kind.String())
	}
}

func (s *Session) failLocked(err error) {
	if apierror.IsQuota(err) {
		s.logger.Warn("live session quota exceeded", "error", err)
		s.observer.QuotaExceeded(apierror.LiveQuotaNotice)
		s.stopLocked(MessageIdle)
		return
	}
	s.logger.Error("live session failed", "error", err)
	s.stopLocked(errorMessage(err))
}

// capture forwards microphone blocks to the channel in capture order.
// A failed send is logged and the next block is still attempted.
func (s *Session) capture(r *run) error {
	samples := r.mic.Samples()
	for {
		select {
		case <-r.ctx.Done():
			return nil
		case block, ok := <-samples:
			if !ok {
				return nil
			}
			frames, err := r.capture.Push(block)
			if err != nil {
				return nil
			}
			for _, f := range frames {
				if err := r.channel.Send(r.ctx, f); err != nil {
					if r.ctx.Err() != nil {
						return nil
					}
					s.logger.Warn("failed to send audio frame", "error", err)
				}
			}
		}
	}
}

// Stop releases everything the session holds. It is safe to call at any
// time and more than once; the transcript log is kept.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopLocked(MessageIdle)
}

func (s *Session) stopLocked(message string) {
	if r := s.run; r != nil {
		s.run = nil
		r.cancel()
		if r.channel != nil {
			if err := r.channel.Close(); err != nil {
				s.logger.Warn("failed to close live channel", "error", err)
			}
		}
		if r.mic != nil {
			if err := r.mic.Close(); err != nil {
				s.logger.Warn("failed to close microphone", "error", err)
			}
		}
		if r.capture != nil {
			r.capture.Close()
		}
		if r.playback != nil {
			if err := r.playback.Close(); err != nil {
				s.logger.Warn("failed to close playback", "error", err)
			}
		}
		s.last = r.group
	}
	s.transcript.DiscardTurns()
	s.setStatusLocked(StateIdle, message)
}

// Wait blocks until the duty goroutines of the current or last run exit.
func (s *Session) Wait() error {
	s.mu.Lock()
	g := s.last
	if s.run != nil {
		g = s.run.group
	}
	s.mu.Unlock()

	if g == nil {
		return nil
	}
	return g.Wait()
}

func (s *Session) setStatusLocked(state State, message string) {
	next := Status{State: state, Message: message}
	if next == s.status {
		return
	}
	s.status = next
	s.observer.StatusChanged(next)
}
