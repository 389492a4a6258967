package gemini

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"google.golang.org/genai"
)

type chatSender interface {
	SendMessage(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

type chatOpener func(ctx context.Context) (chatSender, error)

type instrumentFunc func(ctx context.Context, op string) (context.Context, func(error))

// ChatSession is one multi-turn conversation with the model. The
// underlying chat is opened lazily and discarded after any failure, so the
// next message starts a fresh conversation.
type ChatSession struct {
	open       chatOpener
	instrument instrumentFunc
	logger     *slog.Logger

	mu   sync.Mutex
	chat chatSender
}

func newChatSession(open chatOpener, instrument instrumentFunc, logger *slog.Logger) *ChatSession {
	return &ChatSession{open: open, instrument: instrument, logger: logger}
}

// Send delivers one user turn and returns the model's reply. Quota errors
// are returned; any other failure yields GenericApology.
func (s *ChatSession) Send(ctx context.Context, text string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, done := s.instrument(ctx, "chat_message")

	reply, err := s.send(ctx, text)
	if err == nil {
		done(nil)
		return reply, nil
	}

	s.chat = nil
	err = classify("chat message", err)
	done(err)
	if isQuota(err) {
		return "", err
	}

	s.logger.Warn("chat message failed, session reset", "error", err)
	return GenericApology, nil
}

func (s *ChatSession) send(ctx context.Context, text string) (string, error) {
	if s.chat == nil {
		chat, err := s.open(ctx)
		if err != nil {
			return "", err
		}
		s.chat = chat
	}

	res, err := s.chat.SendMessage(ctx, genai.Part{Text: text})
	if err != nil {
		return "", err
	}
	reply, err := responseText(res)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// Reset drops the conversation so the next Send starts over.
func (s *ChatSession) Reset() {
	s.mu.Lock()
	s.chat = nil
	s.mu.Unlock()
}
