package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"ReplyDesk/internal/apierror"
	"ReplyDesk/internal/gemini"
	"ReplyDesk/internal/model"
)

const (
	QuotaErrorText   = "Erro: Cota da API excedida."
	GenericErrorText = "Desculpe, ocorreu um erro ao gerar a sugestão."
)

// Analyzer drafts a suggestion for one message.
type Analyzer interface {
	AnalyzeMessage(ctx context.Context, text string, customResponses []string) (gemini.Suggestion, error)
}

// Notifier surfaces a global, dismissible notice.
type Notifier interface {
	RaiseNotice(msg string)
}

// Pipeline produces one suggestion per message. Batches run one at a time
// and each message is analyzed at most once unless retried.
type Pipeline struct {
	analyzer Analyzer
	notifier Notifier
	logger   *slog.Logger

	batch sync.Mutex

	mu     sync.RWMutex
	states map[string]model.SuggestionState
}

func NewPipeline(analyzer Analyzer, notifier Notifier, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		analyzer: analyzer,
		notifier: notifier,
		logger:   logger,
		states:   make(map[string]model.SuggestionState),
	}
}

// Process analyzes every message without a state, oldest first. A quota
// error marks the current message, raises the notice once and abandons the
// rest of the batch, which stays unprocessed; the wrapped quota error is
// returned. Other errors only affect their own message.
func (p *Pipeline) Process(ctx context.Context, messages []model.Message, customResponses []string) error {
	p.batch.Lock()
	defer p.batch.Unlock()

	pending := p.unseen(messages)
	for i, msg := range pending {
		p.set(msg.ID, model.SuggestionState{IsLoading: true})

		s, err := p.analyzer.AnalyzeMessage(ctx, msg.Text, customResponses)
		switch {
		case err == nil:
			p.set(msg.ID, model.SuggestionState{Suggestion: s.Suggestion, IsAppointment: s.IsAppointment})

		case ctx.Err() != nil:
			p.clear(msg.ID)
			return ctx.Err()

		case apierror.IsQuota(err):
			p.set(msg.ID, model.SuggestionState{Error: QuotaErrorText})
			p.notifier.RaiseNotice(apierror.QuotaNotice)
			p.logger.Warn("quota exceeded, abandoning suggestion batch",
				"message_id", msg.ID, "skipped", len(pending)-i-1)
			return fmt.Errorf("analyze message %s: %w", msg.ID, apierror.ErrQuotaExceeded)

		default:
			p.set(msg.ID, model.SuggestionState{Error: GenericErrorText})
			p.logger.Error("failed to analyze message", "message_id", msg.ID, "error", err)
		}
	}
	return nil
}

// unseen returns the messages without a state in arrival order.
func (p *Pipeline) unseen(messages []model.Message) []model.Message {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []model.Message
	for _, m := range messages {
		if _, ok := p.states[m.ID]; !ok {
			out = append(out, m)
		}
	}
	slices.SortStableFunc(out, func(a, b model.Message) int {
		return a.Timestamp.Compare(b.Timestamp)
	})
	return out
}

func (p *Pipeline) set(id string, st model.SuggestionState) {
	p.mu.Lock()
	p.states[id] = st
	p.mu.Unlock()
}

func (p *Pipeline) clear(id string) {
	p.mu.Lock()
	delete(p.states, id)
	p.mu.Unlock()
}

// State returns the state for id, if the message has been seen.
func (p *Pipeline) State(id string) (model.SuggestionState, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	st, ok := p.states[id]
	return st, ok
}

// States returns a snapshot of every known state.
func (p *Pipeline) States() map[string]model.SuggestionState {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]model.SuggestionState, len(p.states))
	for k, v := range p.states {
		out[k] = v
	}
	return out
}

var ErrNotRetryable = errors.New("suggestion is not resolved")

// Retry forgets a resolved state so the next batch analyzes the message again.
func (p *Pipeline) Retry(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	st, ok := p.states[id]
	if !ok {
		return model.ErrNotFound
	}
	if st.IsLoading {
		return ErrNotRetryable
	}
	delete(p.states, id)
	return nil
}
