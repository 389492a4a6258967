package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/genai"

	"ReplyDesk/internal/cache"
	"ReplyDesk/internal/config"
)

// generator is the slice of genai.Models the gateway uses.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// liveSession is the slice of genai.Session the live adapter uses.
type liveSession interface {
	SendRealtimeInput(input genai.LiveRealtimeInput) error
	Receive() (*genai.LiveServerMessage, error)
	Close() error
}

type liveDialer func(ctx context.Context, model string, cfg *genai.LiveConnectConfig) (liveSession, error)

// Client is the Gemini-backed gateway.
type Client struct {
	model    string
	models   generator
	openChat chatOpener
	dial     liveDialer
	news     *cache.Cache

	logger    *slog.Logger
	tracer    trace.Tracer
	duration  metric.Float64Histogram
	quotaHits metric.Int64Counter
}

// New returns the Gemini-backed gateway, or the offline one when no API key
// is configured.
func New(ctx context.Context, cfg config.GeminiConfig, opts ...Option) (Gateway, error) {
	o := buildOptions(opts)

	if cfg.APIKey == "" {
		o.logger.Warn("GEMINI_API_KEY not set, using offline responses")
		return NewOffline(cfg.OfflineDelay, o.logger), nil
	}

	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	openChat := func(ctx context.Context) (chatSender, error) {
		return gc.Chats.Create(ctx, cfg.Model, &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(ChatInstruction, genai.RoleUser),
		}, nil)
	}
	dial := func(ctx context.Context, model string, lc *genai.LiveConnectConfig) (liveSession, error) {
		return gc.Live.Connect(ctx, model, lc)
	}

	return newClient(cfg.Model, gc.Models, openChat, dial, cache.New(cfg.NewsCacheTTL), o), nil
}

func newClient(model string, models generator, openChat chatOpener, dial liveDialer, news *cache.Cache, o options) *Client {
	c := &Client{
		model:    model,
		models:   models,
		openChat: openChat,
		dial:     dial,
		news:     news,
		logger:   o.logger,
		tracer:   o.tracer,
	}

	var err error
	c.duration, err = o.meter.Float64Histogram(
		"gemini.request.duration",
		metric.WithDescription("Gemini request duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		c.logger.Warn("failed to create histogram", "error", err)
	}
	c.quotaHits, err = o.meter.Int64Counter(
		"gemini.quota_exceeded",
		metric.WithDescription("Gemini calls rejected for rate or quota reasons"),
	)
	if err != nil {
		c.logger.Warn("failed to create counter", "error", err)
	}

	return c
}

// instrument starts a span for op and returns the function that ends it.
func (c *Client) instrument(ctx context.Context, op string) (context.Context, func(error)) {
	ctx, span := c.tracer.Start(ctx, "gemini_"+op)
	start := time.Now()

	return ctx, func(err error) {
		defer span.End()

		attrs := metric.WithAttributes(attribute.String("operation", op))
		if c.duration != nil {
			c.duration.Record(ctx, float64(time.Since(start).Milliseconds()), attrs)
		}
		if err == nil {
			return
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if isQuota(err) && c.quotaHits != nil {
			c.quotaHits.Add(ctx, 1, attrs)
		}
	}
}

func (c *Client) NewChat() *ChatSession {
	return newChatSession(c.openChat, c.instrument, c.logger)
}

var errEmptyResponse = errors.New("empty response")

func responseText(res *genai.GenerateContentResponse) (string, error) {
	if res == nil {
		return "", errEmptyResponse
	}
	text := res.Text()
	if text == "" {
		return "", errEmptyResponse
	}
	return text, nil
}
