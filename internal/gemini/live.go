package gemini

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"
	"google.golang.org/genai"

	"ReplyDesk/internal/live"
)

var errChannelClosed = errors.New("live channel closed")

func liveConnectConfig(cfg live.Config) *genai.LiveConnectConfig {
	return &genai.LiveConnectConfig{
		ResponseModalities: []genai.Modality{genai.ModalityAudio},
		SpeechConfig: &genai.SpeechConfig{
			VoiceConfig: &genai.VoiceConfig{
				PrebuiltVoiceConfig: &genai.PrebuiltVoiceConfig{VoiceName: cfg.Voice},
			},
		},
		InputAudioTranscription:  &genai.AudioTranscriptionConfig{},
		OutputAudioTranscription: &genai.AudioTranscriptionConfig{},
		SystemInstruction:        genai.NewContentFromText(cfg.SystemInstruction, genai.RoleUser),
	}
}

// ConnectLive opens a realtime audio session.
func (c *Client) ConnectLive(ctx context.Context, cfg live.Config) (live.Channel, error) {
	ctx, done := c.instrument(ctx, "live_connect")

	sess, err := c.dial(ctx, cfg.Model, liveConnectConfig(cfg))
	if err != nil {
		err = classify("live connect", err)
		done(err)
		return nil, err
	}
	done(nil)

	ch := newLiveChannel(sess, c.logger)
	go ch.receive()
	return ch, nil
}

// liveChannel adapts a genai live session to live.Channel.
type liveChannel struct {
	sess   liveSession
	logger *slog.Logger
	events chan live.Event

	mu        sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
}

func newLiveChannel(sess liveSession, logger *slog.Logger) *liveChannel {
	return &liveChannel{
		sess:   sess,
		logger: logger,
		events: make(chan live.Event, 32),
		done:   make(chan struct{}),
	}
}

func (ch *liveChannel) Events() <-chan live.Event { return ch.events }

func (ch *liveChannel) Send(ctx context.Context, f live.Frame) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	ch.mu.Lock()
	defer ch.mu.Unlock()

	select {
	case <-ch.done:
		return errChannelClosed
	default:
	}

	return ch.sess.SendRealtimeInput(genai.LiveRealtimeInput{
		Audio: &genai.Blob{Data: f.Data, MIMEType: f.MIMEType},
	})
}

func (ch *liveChannel) Close() error {
	var err error
	ch.closeOnce.Do(func() {
		ch.mu.Lock()
		close(ch.done)
		err = ch.sess.Close()
		ch.mu.Unlock()
	})
	return err
}

func (ch *liveChannel) emit(ev live.Event) bool {
	select {
	case ch.events <- ev:
		return true
	case <-ch.done:
		return false
	}
}

func (ch *liveChannel) receive() {
	defer close(ch.events)

	if !ch.emit(live.Opened()) {
		return
	}

	for {
		msg, err := ch.sess.Receive()
		if err != nil {
			select {
			case <-ch.done:
				return
			default:
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				ch.emit(live.Closed())
			} else {
				ch.emit(live.Failed(classify("live receive", err)))
			}
			return
		}

		for _, ev := range translate(msg) {
			if !ch.emit(ev) {
				return
			}
		}
	}
}

// translate turns one server message into channel events: transcription
// fragments first, then turn completion, then audio.
func translate(msg *genai.LiveServerMessage) []live.Event {
	if msg == nil || msg.ServerContent == nil {
		return nil
	}
	sc := msg.ServerContent

	var evs []live.Event
	if sc.OutputTranscription != nil && sc.OutputTranscription.Text != "" {
		evs = append(evs, live.Fragment(live.SpeakerModel, sc.OutputTranscription.Text))
	}
	if sc.InputTranscription != nil && sc.InputTranscription.Text != "" {
		evs = append(evs, live.Fragment(live.SpeakerUser, sc.InputTranscription.Text))
	}
	if sc.TurnComplete {
		evs = append(evs, live.TurnComplete())
	}
	if sc.ModelTurn != nil {
		for _, p := range sc.ModelTurn.Parts {
			if p != nil && p.InlineData != nil && len(p.InlineData.Data) > 0 {
				evs = append(evs, live.AudioChunk(p.InlineData.Data))
			}
		}
	}
	return evs
}
