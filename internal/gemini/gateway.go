package gemini

import (
	"context"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"ReplyDesk/internal/live"
)

// Suggestion is the drafted reply for one customer message.
type Suggestion struct {
	Suggestion    string `json:"suggestion"`
	IsAppointment bool   `json:"isAppointment"`
}

// Gateway is the single entry point to the generative backend.
//
// Calls that hit a rate or quota limit return an error wrapping
// apierror.ErrQuotaExceeded. Other failures degrade to a usable answer and
// are only logged.
type Gateway interface {
	AnalyzeMessage(ctx context.Context, text string, customResponses []string) (Suggestion, error)
	NewChat() *ChatSession
	CompetitorNews(ctx context.Context, businessType string) (string, error)
	ConnectLive(ctx context.Context, cfg live.Config) (live.Channel, error)
}

// User-facing texts.
const (
	AppointmentReply   = "Olá! Tenho um horário disponível para você. Podemos confirmar?"
	AnalyzeApology     = "Desculpe, não consegui processar sua mensagem. Poderia tentar novamente?"
	GenericApology     = "Desculpe, ocorreu um erro. Por favor, tente novamente."
	OfflineChatReply   = "Olá! Como posso ajudar você hoje?"
	NewsUnavailable    = "O modo de análise de concorrentes não está disponível no momento. Verifique sua chave de API."
	ChatInstruction    = "Você é um assistente prestativo para pequenos empreendedores. Responda a perguntas sobre negócios, marketing, atendimento ao cliente e outros tópicos relevantes de forma clara e concisa em português do Brasil."
	offlineReplyFormat = "Obrigado por sua mensagem! Em breve retornaremos. Mensagem recebida: \"%s\""
)

var appointmentKeywords = []string{"agendar", "marcar", "horário", "disponível", "atendimento"}

// IsAppointmentRequest is the keyword heuristic used whenever the model
// cannot classify a message.
func IsAppointmentRequest(text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range appointmentKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

type options struct {
	logger *slog.Logger
	tracer trace.Tracer
	meter  metric.Meter
}

// Option configures a gateway.
type Option func(*options)

func WithLogger(l *slog.Logger) Option { return func(o *options) { o.logger = l } }

func WithTracer(t trace.Tracer) Option { return func(o *options) { o.tracer = t } }

func WithMeter(m metric.Meter) Option { return func(o *options) { o.meter = m } }

func buildOptions(opts []Option) options {
	o := options{
		logger: slog.Default(),
		tracer: tracenoop.NewTracerProvider().Tracer("gemini"),
		meter:  metricnoop.NewMeterProvider().Meter("gemini"),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
