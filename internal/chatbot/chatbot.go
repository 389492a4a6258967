package chatbot

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"ReplyDesk/internal/apierror"
	"ReplyDesk/internal/model"
	"ReplyDesk/internal/session"
)

// Canned texts of the competitor analysis flow and the error replies.
const (
	CompetitorRequest  = "Pode analisar as últimas notícias dos meus concorrentes?"
	BusinessTypeAsk    = "Com certeza! Para fazer a análise, por favor, me diga qual é o seu ramo de atividade. (ex: restaurante, salão de beleza, loja de roupas)"
	ChatErrorReply     = "Desculpe, algo deu errado. Tente novamente."
	AnalysisErrorReply = "Desculpe, algo deu errado ao analisar a concorrência. Tente novamente."
)

// Conversation is a multi-turn chat with the model.
type Conversation interface {
	Send(ctx context.Context, text string) (string, error)
	Reset()
}

// NewsSource answers competitor analysis queries.
type NewsSource interface {
	CompetitorNews(ctx context.Context, businessType string) (string, error)
}

// Notifier surfaces a global, dismissible notice.
type Notifier interface {
	RaiseNotice(msg string)
}

// ChatBot drives the text chat view: one session, one conversation, and
// the competitor analysis side flow.
type ChatBot struct {
	conv     Conversation
	news     NewsSource
	store    session.Store
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time

	// send serializes exchanges; mu guards the fields below.
	send sync.Mutex

	mu                   sync.RWMutex
	session              *session.Session
	awaitingBusinessType bool
}

// NewChatBot creates a ChatBot with a fresh session.
func NewChatBot(conv Conversation, news NewsSource, store session.Store, notifier Notifier, logger *slog.Logger) *ChatBot {
	cb := &ChatBot{
		conv:     conv,
		news:     news,
		store:    store,
		notifier: notifier,
		logger:   logger,
		now:      time.Now,
	}
	cb.session = session.New(cb.now())
	return cb
}

// Resume replaces the current session with a stored one.
func (cb *ChatBot) Resume(ctx context.Context, id string) error {
	sess, err := cb.store.Load(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", id, err)
	}

	cb.send.Lock()
	defer cb.send.Unlock()
	cb.mu.Lock()
	cb.session = sess
	cb.awaitingBusinessType = false
	cb.mu.Unlock()
	cb.conv.Reset()

	cb.logger.Info("loaded existing session", "session_id", sess.ID, "message_count", len(sess.Messages))
	return nil
}

// Send handles one operator message and returns the model's reply. While a
// business type is awaited the text is routed to the competitor analysis,
// otherwise to the chat. Failures are answered with an apology; a quota
// failure also raises the quota notice.
func (cb *ChatBot) Send(ctx context.Context, text string) (string, error) {
	text, err := model.NormalizeText(text)
	if err != nil {
		return "", err
	}

	cb.send.Lock()
	defer cb.send.Unlock()

	cb.mu.Lock()
	analysis := cb.awaitingBusinessType
	cb.awaitingBusinessType = false
	cb.appendLocked(session.RoleUser, text)
	cb.mu.Unlock()

	var reply string
	if analysis {
		reply, err = cb.news.CompetitorNews(ctx, text)
		if err != nil {
			reply = cb.failed("competitor analysis failed", err, AnalysisErrorReply)
		}
	} else {
		reply, err = cb.conv.Send(ctx, text)
		if err != nil {
			reply = cb.failed("chat message failed", err, ChatErrorReply)
		}
	}

	cb.mu.Lock()
	cb.appendLocked(session.RoleModel, reply)
	cb.mu.Unlock()

	cb.save(ctx)
	return reply, nil
}

func (cb *ChatBot) failed(msg string, err error, reply string) string {
	if apierror.IsQuota(err) {
		cb.notifier.RaiseNotice(apierror.QuotaNotice)
	}
	cb.logger.Warn(msg, "error", err)
	return reply
}

// RequestCompetitorAnalysis posts the canned request and question, then
// waits for the business type in the next Send.
func (cb *ChatBot) RequestCompetitorAnalysis() {
	cb.send.Lock()
	defer cb.send.Unlock()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.appendLocked(session.RoleUser, CompetitorRequest)
	cb.appendLocked(session.RoleModel, BusinessTypeAsk)
	cb.awaitingBusinessType = true
}

func (cb *ChatBot) appendLocked(role, text string) {
	cb.session.Messages = append(cb.session.Messages, session.Message{Role: role, Text: text, Timestamp: cb.now()})
}

// AwaitingBusinessType reports whether the next Send goes to the analysis.
func (cb *ChatBot) AwaitingBusinessType() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.awaitingBusinessType
}

// Transcript returns a copy of the current session.
func (cb *ChatBot) Transcript() session.Session {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	cp := *cb.session
	cp.Messages = slices.Clone(cb.session.Messages)
	return cp
}

// NewSession saves the current session and starts over.
func (cb *ChatBot) NewSession(ctx context.Context) string {
	cb.send.Lock()
	defer cb.send.Unlock()

	cb.save(ctx)

	cb.mu.Lock()
	cb.session = session.New(cb.now())
	cb.awaitingBusinessType = false
	id := cb.session.ID
	cb.mu.Unlock()

	cb.conv.Reset()
	cb.logger.Info("created new session", "session_id", id)
	return id
}

// save persists the current session. Failures are only logged.
func (cb *ChatBot) save(ctx context.Context) {
	snapshot := cb.Transcript()
	if err := cb.store.Save(ctx, &snapshot); err != nil {
		cb.logger.Warn("failed to save session", "session_id", snapshot.ID, "error", err)
	}
}

// handleCommand runs a console command and reports whether to quit.
func (cb *ChatBot) handleCommand(ctx context.Context, cmd string, out io.Writer) bool {
	parts := strings.Fields(cmd)
	if len(parts) == 0 {
		return false
	}

	switch parts[0] {
	case "/quit", "/exit":
		return true

	case "/new-session":
		id := cb.NewSession(ctx)
		fmt.Fprintln(out, "Nova sessão:", id)
		fmt.Fprintf(out, "Assistente: %s\n\n", session.Greeting)

	case "/concorrentes":
		cb.RequestCompetitorAnalysis()
		fmt.Fprintf(out, "Você: %s\n", CompetitorRequest)
		fmt.Fprintf(out, "Assistente: %s\n\n", BusinessTypeAsk)

	case "/help":
		fmt.Fprintln(out, "Comandos disponíveis:")
		fmt.Fprintln(out, "  /quit, /exit    - Sair")
		fmt.Fprintln(out, "  /new-session    - Iniciar uma nova sessão")
		fmt.Fprintln(out, "  /concorrentes   - Analisar últimas notícias dos concorrentes")
		fmt.Fprintln(out, "  /help           - Mostrar esta ajuda")

	default:
		fmt.Fprintf(out, "Comando desconhecido: %s\n", parts[0])
	}
	return false
}

// Run is the console front end of the chat view. It reads lines from in
// until EOF, /quit or ctx cancellation and saves the session on the way out.
func (cb *ChatBot) Run(ctx context.Context, in io.Reader, out io.Writer) error {
	sess := cb.Transcript()
	fmt.Fprintln(out, "=== Assistente IA ===")
	fmt.Fprintf(out, "Sessão: %s\n", sess.ID)
	fmt.Fprintln(out, "Digite /help para ver os comandos, /quit para sair")
	fmt.Fprintln(out)
	for _, m := range sess.Messages {
		fmt.Fprintf(out, "%s: %s\n", speakerLabel(m.Role), m.Text)
	}
	fmt.Fprintln(out)

	scanner := bufio.NewScanner(in)
	for ctx.Err() == nil {
		fmt.Fprint(out, "Você: ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if strings.HasPrefix(input, "/") {
			if cb.handleCommand(ctx, input, out) {
				break
			}
			continue
		}

		reply, err := cb.Send(ctx, input)
		if err != nil {
			fmt.Fprintf(out, "Erro: %v\n", err)
			cb.logger.Error("failed to send message", "error", err)
			continue
		}
		fmt.Fprintf(out, "Assistente: %s\n\n", reply)
	}

	cb.save(context.WithoutCancel(ctx))
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	fmt.Fprintln(out, "Até logo!")
	return nil
}

func speakerLabel(role string) string {
	if role == session.RoleUser {
		return "Você"
	}
	return "Assistente"
}
