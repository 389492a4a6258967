package desk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"ReplyDesk/internal/calendar"
	"ReplyDesk/internal/clipboard"
	"ReplyDesk/internal/inbox"
	"ReplyDesk/internal/model"
	"ReplyDesk/internal/report"
	"ReplyDesk/internal/suggest"
)

// MessageSource is the customer messaging backend.
type MessageSource interface {
	Subscribe(ctx context.Context, fn func(model.Message)) (unsubscribe func())
}

// Deps wires a Desk.
type Deps struct {
	Analyzer       suggest.Analyzer
	QuickResponses model.QuickResponseStore
	History        model.HistoryStore
	Calendar       *calendar.Generator
	Copier         *clipboard.Copier
	Notices        *NoticeBoard
	Logger         *slog.Logger
}

// Desk is the state shared by every view: the inbox feed with its
// suggestions, quick responses, reply history, calendar slots and the
// global notice.
type Desk struct {
	feed     *inbox.Feed
	quick    model.QuickResponseStore
	history  model.HistoryStore
	pipeline *suggest.Pipeline
	calendar *calendar.Generator
	copier   *clipboard.Copier
	notices  *NoticeBoard
	logger   *slog.Logger
	now      func() time.Time

	kick chan struct{}

	mu    sync.RWMutex
	slots map[string]model.CalendarSlot
}

func New(d Deps) *Desk {
	if d.Notices == nil {
		d.Notices = &NoticeBoard{}
	}
	return &Desk{
		feed:     inbox.NewFeed(),
		quick:    d.QuickResponses,
		history:  d.History,
		pipeline: suggest.NewPipeline(d.Analyzer, d.Notices, d.Logger),
		calendar: d.Calendar,
		copier:   d.Copier,
		notices:  d.Notices,
		logger:   d.Logger,
		now:      time.Now,
		kick:     make(chan struct{}, 1),
		slots:    make(map[string]model.CalendarSlot),
	}
}

func (d *Desk) Notices() *NoticeBoard { return d.notices }

func (d *Desk) QuickResponses() model.QuickResponseStore { return d.quick }

func (d *Desk) Copier() *clipboard.Copier { return d.copier }

// Start subscribes to src. Every message lands in the feed and schedules a
// suggestion batch; batches requested while one runs are coalesced. The
// returned function unsubscribes and waits for the batch worker.
func (d *Desk) Start(ctx context.Context, src MessageSource) (stop func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for {
			select {
			case <-ctx.Done():
				return
			case <-d.kick:
				d.runBatch(ctx)
			}
		}
	}()

	unsubscribe := src.Subscribe(ctx, func(msg model.Message) {
		d.feed.Add(msg)
		d.logger.Info("message received", "message_id", msg.ID, "sender", msg.Sender)
		d.requestBatch()
	})

	return func() {
		unsubscribe()
		cancel()
		<-done
	}
}

func (d *Desk) requestBatch() {
	select {
	case d.kick <- struct{}{}:
	default:
	}
}

func (d *Desk) runBatch(ctx context.Context) {
	custom, err := d.customTexts(ctx)
	if err != nil {
		d.logger.Warn("failed to load quick responses, analyzing without them", "error", err)
	}
	if err := d.pipeline.Process(ctx, d.feed.List(), custom); err != nil && !errors.Is(err, context.Canceled) {
		d.logger.Warn("suggestion batch stopped", "error", err)
	}
}

func (d *Desk) customTexts(ctx context.Context) ([]string, error) {
	qrs, err := d.quick.List(ctx)
	if err != nil {
		return nil, err
	}
	texts := make([]string, len(qrs))
	for i, qr := range qrs {
		texts[i] = qr.Text
	}
	return texts, nil
}

// MessageView is a feed entry with its suggestion, if one was started.
type MessageView struct {
	model.Message
	Suggestion *model.SuggestionState `json:"suggestion,omitempty"`
}

// Messages lists the feed newest first.
func (d *Desk) Messages() []MessageView {
	msgs := d.feed.List()
	states := d.pipeline.States()

	out := make([]MessageView, len(msgs))
	for i, m := range msgs {
		out[i] = MessageView{Message: m}
		if st, ok := states[m.ID]; ok {
			out[i].Suggestion = &st
		}
	}
	return out
}

// RetrySuggestion forgets a resolved suggestion and schedules a new batch.
func (d *Desk) RetrySuggestion(id string) error {
	if _, ok := d.feed.Get(id); !ok {
		return model.ErrNotFound
	}
	if err := d.pipeline.Retry(id); err != nil {
		return err
	}
	d.requestBatch()
	return nil
}

// CopyResult reports the copy outcome and the recorded history item.
type CopyResult struct {
	Status clipboard.Status  `json:"status"`
	Item   model.HistoryItem `json:"item"`
}

// CopySuggestion copies text as the reply to message id and records it as
// responded. The item is recorded even when the clipboard write fails.
func (d *Desk) CopySuggestion(ctx context.Context, id, text string) (CopyResult, error) {
	text, err := model.NormalizeText(text)
	if err != nil {
		return CopyResult{}, err
	}
	msg, ok := d.feed.Get(id)
	if !ok {
		return CopyResult{}, model.ErrNotFound
	}

	received := msg.Timestamp
	return d.copyAndRecord(ctx, msg.Text, text, &received)
}

// Slots loads the free calendar slots and remembers them for OfferSlot.
func (d *Desk) Slots(ctx context.Context) ([]model.CalendarSlot, error) {
	slots, err := d.calendar.Slots(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load calendar slots: %w", err)
	}

	d.mu.Lock()
	d.slots = make(map[string]model.CalendarSlot, len(slots))
	for _, s := range slots {
		d.slots[s.ID] = s
	}
	d.mu.Unlock()
	return slots, nil
}

// OfferSlot copies the offer text for a slot from the last Slots call and
// records it as a responded scheduling request.
func (d *Desk) OfferSlot(ctx context.Context, id string) (CopyResult, error) {
	d.mu.RLock()
	slot, ok := d.slots[id]
	d.mu.RUnlock()
	if !ok {
		return CopyResult{}, model.ErrNotFound
	}
	return d.copyAndRecord(ctx, calendar.OfferOrigin, calendar.OfferText(slot), nil)
}

func (d *Desk) copyAndRecord(ctx context.Context, original, response string, received *time.Time) (CopyResult, error) {
	status, err := d.copier.Copy(ctx, response)
	if err != nil {
		d.logger.Warn("clipboard write failed", "error", err)
	}

	item := model.HistoryItem{
		ID:              uuid.NewString(),
		OriginalMessage: original,
		Response:        response,
		Timestamp:       d.now(),
		Status:          model.StatusResponded,
		ReceivedAt:      received,
	}
	if err := d.history.Append(ctx, item); err != nil {
		return CopyResult{}, fmt.Errorf("failed to record reply: %w", err)
	}
	return CopyResult{Status: status, Item: item}, nil
}

// History lists sent replies newest first.
func (d *Desk) History(ctx context.Context) ([]model.HistoryItem, error) {
	items, err := d.history.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	return items, nil
}

// Report summarizes the history.
func (d *Desk) Report(ctx context.Context) (report.Stats, error) {
	items, err := d.History(ctx)
	if err != nil {
		return report.Stats{}, err
	}
	return report.Build(items), nil
}
