package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"ReplyDesk/internal/live"
)

// ErrLiveUnavailable is returned by the offline gateway for voice sessions.
var ErrLiveUnavailable = errors.New("live sessions require GEMINI_API_KEY")

// Offline answers without a backend after a short simulated delay.
type Offline struct {
	delay  time.Duration
	logger *slog.Logger
}

func NewOffline(delay time.Duration, logger *slog.Logger) *Offline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Offline{delay: delay, logger: logger}
}

func (o *Offline) wait(ctx context.Context) error {
	if o.delay <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(o.delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (o *Offline) AnalyzeMessage(ctx context.Context, text string, _ []string) (Suggestion, error) {
	if err := o.wait(ctx); err != nil {
		return Suggestion{}, err
	}
	if IsAppointmentRequest(text) {
		return Suggestion{Suggestion: AppointmentReply, IsAppointment: true}, nil
	}
	return Suggestion{Suggestion: fmt.Sprintf(offlineReplyFormat, text)}, nil
}

func (o *Offline) NewChat() *ChatSession {
	open := func(context.Context) (chatSender, error) { return offlineChat{o}, nil }
	instrument := func(ctx context.Context, _ string) (context.Context, func(error)) {
		return ctx, func(error) {}
	}
	return newChatSession(open, instrument, o.logger)
}

func (o *Offline) CompetitorNews(ctx context.Context, _ string) (string, error) {
	if err := o.wait(ctx); err != nil {
		return "", err
	}
	return NewsUnavailable, nil
}

func (o *Offline) ConnectLive(context.Context, live.Config) (live.Channel, error) {
	return nil, ErrLiveUnavailable
}

type offlineChat struct{ o *Offline }

func (c offlineChat) SendMessage(ctx context.Context, _ ...genai.Part) (*genai.GenerateContentResponse, error) {
	if err := c.o.wait(ctx); err != nil {
		return nil, err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(OfflineChatReply, genai.RoleModel)}},
	}, nil
}
