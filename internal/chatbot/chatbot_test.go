package chatbot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ReplyDesk/internal/apierror"
	"ReplyDesk/internal/model"
	"ReplyDesk/internal/session"
	"ReplyDesk/internal/storage/memory"
)

type fakeConversation struct {
	mu     sync.Mutex
	sent   []string
	err    error
	resets int
}

func (f *fakeConversation) Send(_ context.Context, text string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	if f.err != nil {
		return "", f.err
	}
	return "resposta: " + text, nil
}

func (f *fakeConversation) Reset() {
	f.mu.Lock()
	f.resets++
	f.mu.Unlock()
}

type fakeNews struct {
	queries []string
	err     error
}

func (f *fakeNews) CompetitorNews(_ context.Context, businessType string) (string, error) {
	f.queries = append(f.queries, businessType)
	if f.err != nil {
		return "", f.err
	}
	return "notícias sobre " + businessType, nil
}

type noticeRecorder struct{ notices []string }

func (n *noticeRecorder) RaiseNotice(msg string) { n.notices = append(n.notices, msg) }

type fixture struct {
	bot      *ChatBot
	conv     *fakeConversation
	news     *fakeNews
	store    *memory.SessionStore
	notifier *noticeRecorder
}

func newFixture() *fixture {
	f := &fixture{
		conv:     &fakeConversation{},
		news:     &fakeNews{},
		store:    memory.NewSessionStore(),
		notifier: &noticeRecorder{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.bot = NewChatBot(f.conv, f.news, f.store, f.notifier, logger)
	return f
}

func roles(s session.Session) []string {
	var out []string
	for _, m := range s.Messages {
		out = append(out, m.Role)
	}
	return out
}

func TestNewChatBot_StartsWithGreeting(t *testing.T) {
	t.Parallel()

	tr := newFixture().bot.Transcript()
	require.Len(t, tr.Messages, 1)
	assert.Equal(t, session.RoleModel, tr.Messages[0].Role)
	assert.Equal(t, session.Greeting, tr.Messages[0].Text)
}

func TestSend_ChatRoundTrip(t *testing.T) {
	t.Parallel()

	f := newFixture()
	reply, err := f.bot.Send(context.Background(), "  Como aumentar vendas?  ")
	require.NoError(t, err)
	assert.Equal(t, "resposta: Como aumentar vendas?", reply)

	tr := f.bot.Transcript()
	assert.Equal(t, []string{session.RoleModel, session.RoleUser, session.RoleModel}, roles(tr))
	assert.Equal(t, "Como aumentar vendas?", tr.Messages[1].Text)

	stored, err := f.store.Load(context.Background(), tr.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 3)
}

func TestSend_RejectsBlank(t *testing.T) {
	t.Parallel()

	f := newFixture()
	_, err := f.bot.Send(context.Background(), "   ")
	assert.ErrorIs(t, err, model.ErrEmptyText)
	assert.Len(t, f.bot.Transcript().Messages, 1)
}

func TestSend_QuotaRaisesNotice(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.conv.err = fmt.Errorf("chat message: %w", apierror.ErrQuotaExceeded)

	reply, err := f.bot.Send(context.Background(), "oi")
	require.NoError(t, err)
	assert.Equal(t, ChatErrorReply, reply)
	assert.Equal(t, []string{apierror.QuotaNotice}, f.notifier.notices)
}

func TestSend_OtherErrorNoNotice(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.conv.err = errors.New("boom")

	reply, err := f.bot.Send(context.Background(), "oi")
	require.NoError(t, err)
	assert.Equal(t, ChatErrorReply, reply)
	assert.Empty(t, f.notifier.notices)
}

func TestCompetitorAnalysisFlow(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.bot.RequestCompetitorAnalysis()
	assert.True(t, f.bot.AwaitingBusinessType())

	tr := f.bot.Transcript()
	require.Len(t, tr.Messages, 3)
	assert.Equal(t, CompetitorRequest, tr.Messages[1].Text)
	assert.Equal(t, BusinessTypeAsk, tr.Messages[2].Text)

	reply, err := f.bot.Send(context.Background(), "padaria")
	require.NoError(t, err)
	assert.Equal(t, "notícias sobre padaria", reply)
	assert.Equal(t, []string{"padaria"}, f.news.queries)
	assert.Empty(t, f.conv.sent)
	assert.False(t, f.bot.AwaitingBusinessType())

	_, err = f.bot.Send(context.Background(), "obrigado")
	require.NoError(t, err)
	assert.Equal(t, []string{"obrigado"}, f.conv.sent)
}

func TestCompetitorAnalysis_QuotaFailure(t *testing.T) {
	t.Parallel()

	f := newFixture()
	f.news.err = apierror.ErrQuotaExceeded
	f.bot.RequestCompetitorAnalysis()

	reply, err := f.bot.Send(context.Background(), "salão de beleza")
	require.NoError(t, err)
	assert.Equal(t, AnalysisErrorReply, reply)
	assert.Equal(t, []string{apierror.QuotaNotice}, f.notifier.notices)
	assert.False(t, f.bot.AwaitingBusinessType())
}

func TestNewSession_SavesAndResets(t *testing.T) {
	t.Parallel()

	f := newFixture()
	_, err := f.bot.Send(context.Background(), "oi")
	require.NoError(t, err)
	f.bot.RequestCompetitorAnalysis()
	old := f.bot.Transcript().ID

	f.bot.now = func() time.Time { return time.Now().Add(time.Second) }
	id := f.bot.NewSession(context.Background())
	assert.NotEqual(t, old, id)
	assert.False(t, f.bot.AwaitingBusinessType())
	assert.Equal(t, 1, f.conv.resets)
	assert.Len(t, f.bot.Transcript().Messages, 1)

	stored, err := f.store.Load(context.Background(), old)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 5)

	require.NoError(t, f.bot.Resume(context.Background(), old))
	assert.Equal(t, old, f.bot.Transcript().ID)
	assert.Error(t, f.bot.Resume(context.Background(), "missing"))
}

func TestRun_Console(t *testing.T) {
	t.Parallel()

	f := newFixture()
	in := strings.NewReader("/help\nolá\n/concorrentes\npadaria\n/quit\nignored\n")
	var out bytes.Buffer

	require.NoError(t, f.bot.Run(context.Background(), in, &out))

	text := out.String()
	assert.Contains(t, text, session.Greeting)
	assert.Contains(t, text, "/concorrentes")
	assert.Contains(t, text, "Assistente: resposta: olá")
	assert.Contains(t, text, "Assistente: notícias sobre padaria")
	assert.Contains(t, text, "Até logo!")
	assert.Equal(t, []string{"olá"}, f.conv.sent)

	_, err := f.store.Load(context.Background(), f.bot.Transcript().ID)
	assert.NoError(t, err)
}
