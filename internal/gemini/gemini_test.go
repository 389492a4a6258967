package gemini

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"ReplyDesk/internal/apierror"
	"ReplyDesk/internal/cache"
	"ReplyDesk/internal/live"
)

type fakeGenerator struct {
	mu       sync.Mutex
	calls    int
	contents []*genai.Content
	config   *genai.GenerateContentConfig
	fn       func(call int) (*genai.GenerateContentResponse, error)
}

func (g *fakeGenerator) GenerateContent(_ context.Context, _ string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	g.mu.Lock()
	g.calls++
	call := g.calls
	g.contents = contents
	g.config = cfg
	g.mu.Unlock()
	return g.fn(call)
}

type fakeChat struct {
	fn func(text string) (*genai.GenerateContentResponse, error)
}

func (c *fakeChat) SendMessage(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	return c.fn(parts[0].Text)
}

func textResponse(text string) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: genai.NewContentFromText(text, genai.RoleModel)}},
	}
}

func newTestClient(gen generator, open chatOpener, dial liveDialer) *Client {
	return newClient("gemini-test", gen, open, dial, cache.New(time.Minute), buildOptions(nil))
}

func promptText(contents []*genai.Content) string {
	if len(contents) == 0 || len(contents[0].Parts) == 0 {
		return ""
	}
	return contents[0].Parts[0].Text
}

func TestIsAppointmentRequest(t *testing.T) {
	t.Parallel()

	assert.True(t, IsAppointmentRequest("Gostaria de AGENDAR um corte"))
	assert.True(t, IsAppointmentRequest("Qual o HORÁRIO de vocês?"))
	assert.True(t, IsAppointmentRequest("Vocês têm atendimento no sábado?"))
	assert.False(t, IsAppointmentRequest("Aceitam cartão?"))
}

func TestAnalyzeMessage_Success(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{fn: func(int) (*genai.GenerateContentResponse, error) {
		return textResponse(`{"suggestion":"Claro! Temos horário às 15h.","isAppointment":true}`), nil
	}}
	c := newTestClient(gen, nil, nil)

	got, err := c.AnalyzeMessage(context.Background(), "Quero marcar", []string{"Aceitamos PIX."})
	require.NoError(t, err)
	assert.Equal(t, Suggestion{Suggestion: "Claro! Temos horário às 15h.", IsAppointment: true}, got)

	prompt := promptText(gen.contents)
	assert.Contains(t, prompt, `Mensagem do Cliente: "Quero marcar"`)
	assert.Contains(t, prompt, "- Aceitamos PIX.")
	assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	assert.ElementsMatch(t, []string{"suggestion", "isAppointment"}, gen.config.ResponseSchema.Required)
}

func TestAnalyzeMessage_NoCustomResponsesOmitsSection(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{fn: func(int) (*genai.GenerateContentResponse, error) {
		return textResponse(`{"suggestion":"Oi","isAppointment":false}`), nil
	}}
	c := newTestClient(gen, nil, nil)

	_, err := c.AnalyzeMessage(context.Background(), "Oi", nil)
	require.NoError(t, err)
	assert.NotContains(t, promptText(gen.contents), "respostas personalizadas")
}

func TestAnalyzeMessage_DegradesOnFailure(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		err  error
	}{
		{name: "transport error", err: errors.New("connection reset")},
		{name: "not json", resp: textResponse("Olá!")},
		{name: "missing field", resp: textResponse(`{"suggestion":"Olá"}`)},
		{name: "blank suggestion", resp: textResponse(`{"suggestion":"  ","isAppointment":false}`)},
		{name: "empty response", resp: &genai.GenerateContentResponse{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := &fakeGenerator{fn: func(int) (*genai.GenerateContentResponse, error) { return tt.resp, tt.err }}
			c := newTestClient(gen, nil, nil)

			got, err := c.AnalyzeMessage(context.Background(), "Posso agendar amanhã?", nil)
			require.NoError(t, err)
			assert.Equal(t, AnalyzeApology, got.Suggestion)
			assert.True(t, got.IsAppointment)
		})
	}
}

func TestAnalyzeMessage_Quota(t *testing.T) {
	t.Parallel()

	for _, quotaErr := range []error{
		genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"},
		errors.New("rpc error: RESOURCE_EXHAUSTED"),
	} {
		gen := &fakeGenerator{fn: func(int) (*genai.GenerateContentResponse, error) { return nil, quotaErr }}
		c := newTestClient(gen, nil, nil)

		_, err := c.AnalyzeMessage(context.Background(), "Oi", nil)
		assert.ErrorIs(t, err, apierror.ErrQuotaExceeded)
	}
}

func TestChatSession_ResetsAfterFailure(t *testing.T) {
	t.Parallel()

	opened := 0
	failNext := true
	open := func(context.Context) (chatSender, error) {
		opened++
		return &fakeChat{fn: func(text string) (*genai.GenerateContentResponse, error) {
			if failNext {
				failNext = false
				return nil, errors.New("stream broken")
			}
			return textResponse("  Resposta para " + text + "  "), nil
		}}, nil
	}
	c := newTestClient(nil, open, nil)
	chat := c.NewChat()

	reply, err := chat.Send(context.Background(), "primeira")
	require.NoError(t, err)
	assert.Equal(t, GenericApology, reply)

	reply, err = chat.Send(context.Background(), "segunda")
	require.NoError(t, err)
	assert.Equal(t, "Resposta para segunda", reply)
	assert.Equal(t, 2, opened)

	_, err = chat.Send(context.Background(), "terceira")
	require.NoError(t, err)
	assert.Equal(t, 2, opened, "a healthy chat is reused")
}

func TestChatSession_Quota(t *testing.T) {
	t.Parallel()

	open := func(context.Context) (chatSender, error) {
		return &fakeChat{fn: func(string) (*genai.GenerateContentResponse, error) {
			return nil, errors.New("Error 429, Message: quota")
		}}, nil
	}
	chat := newTestClient(nil, open, nil).NewChat()

	_, err := chat.Send(context.Background(), "oi")
	assert.ErrorIs(t, err, apierror.ErrQuotaExceeded)
}

func TestCompetitorNews_SourcesAndCache(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{fn: func(int) (*genai.GenerateContentResponse, error) {
		res := textResponse("## Notícias\n")
		res.Candidates[0].GroundingMetadata = &genai.GroundingMetadata{
			GroundingChunks: []*genai.GroundingChunk{
				{Web: &genai.GroundingChunkWeb{URI: "https://a.example"}},
				{Web: &genai.GroundingChunkWeb{URI: "https://b.example"}},
				{Web: &genai.GroundingChunkWeb{URI: "https://a.example"}},
				{},
			},
		}
		return res, nil
	}}
	c := newTestClient(gen, nil, nil)

	got, err := c.CompetitorNews(context.Background(), "Padaria")
	require.NoError(t, err)
	assert.Equal(t, "## Notícias\n\n---\n\n**Fontes:**\n- https://a.example\n- https://b.example\n", got)
	require.Len(t, gen.config.Tools, 1)
	assert.NotNil(t, gen.config.Tools[0].GoogleSearch)
	assert.Contains(t, promptText(gen.contents), `"Padaria"`)

	again, err := c.CompetitorNews(context.Background(), "  padaria ")
	require.NoError(t, err)
	assert.Equal(t, got, again)
	assert.Equal(t, 1, gen.calls)
}

func TestCompetitorNews_Failures(t *testing.T) {
	t.Parallel()

	gen := &fakeGenerator{fn: func(call int) (*genai.GenerateContentResponse, error) {
		if call == 1 {
			return nil, errors.New("timeout")
		}
		return nil, genai.APIError{Code: 429}
	}}
	c := newTestClient(gen, nil, nil)

	got, err := c.CompetitorNews(context.Background(), "salão")
	require.NoError(t, err)
	assert.Equal(t, GenericApology, got)

	_, err = c.CompetitorNews(context.Background(), "salão")
	assert.ErrorIs(t, err, apierror.ErrQuotaExceeded)
}

func TestAppendSources_None(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "texto", AppendSources("texto", nil))
}

func TestTranslate(t *testing.T) {
	t.Parallel()

	msg := &genai.LiveServerMessage{ServerContent: &genai.LiveServerContent{
		OutputTranscription: &genai.Transcription{Text: "Olá"},
		InputTranscription:  &genai.Transcription{Text: "Oi"},
		TurnComplete:        true,
		ModelTurn: &genai.Content{Parts: []*genai.Part{
			{InlineData: &genai.Blob{Data: []byte{1, 2}, MIMEType: "audio/pcm;rate=24000"}},
			{Text: "ignored"},
		}},
	}}

	evs := translate(msg)
	require.Len(t, evs, 4)
	assert.Equal(t, live.Fragment(live.SpeakerModel, "Olá"), evs[0])
	assert.Equal(t, live.Fragment(live.SpeakerUser, "Oi"), evs[1])
	assert.Equal(t, live.EventTurnComplete, evs[2].Kind)
	assert.Equal(t, []byte{1, 2}, evs[3].Audio)

	assert.Empty(t, translate(&genai.LiveServerMessage{}))
}

type fakeLiveSession struct {
	msgs   chan *genai.LiveServerMessage
	final  error
	mu     sync.Mutex
	inputs []genai.LiveRealtimeInput
	closed bool
}

func (s *fakeLiveSession) SendRealtimeInput(in genai.LiveRealtimeInput) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inputs = append(s.inputs, in)
	return nil
}

func (s *fakeLiveSession) Receive() (*genai.LiveServerMessage, error) {
	msg, ok := <-s.msgs
	if !ok {
		return nil, s.final
	}
	return msg, nil
}

func (s *fakeLiveSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func collect(t *testing.T, ch live.Channel) []live.Event {
	t.Helper()
	var evs []live.Event
	timeout := time.After(time.Second)
	for {
		select {
		case ev, ok := <-ch.Events():
			if !ok {
				return evs
			}
			evs = append(evs, ev)
		case <-timeout:
			t.Fatalf("events channel not closed, got %v", evs)
		}
	}
}

func TestConnectLive_Stream(t *testing.T) {
	t.Parallel()

	sess := &fakeLiveSession{msgs: make(chan *genai.LiveServerMessage, 2), final: &websocket.CloseError{Code: websocket.CloseNormalClosure}}
	var gotModel string
	var gotCfg *genai.LiveConnectConfig
	dial := func(_ context.Context, model string, cfg *genai.LiveConnectConfig) (liveSession, error) {
		gotModel, gotCfg = model, cfg
		return sess, nil
	}
	c := newTestClient(nil, nil, dial)

	ch, err := c.ConnectLive(context.Background(), live.DefaultConfig())
	require.NoError(t, err)

	assert.Equal(t, "gemini-2.5-flash-native-audio-preview-09-2025", gotModel)
	assert.Equal(t, []genai.Modality{genai.ModalityAudio}, gotCfg.ResponseModalities)
	assert.Equal(t, "Zephyr", gotCfg.SpeechConfig.VoiceConfig.PrebuiltVoiceConfig.VoiceName)
	assert.NotNil(t, gotCfg.InputAudioTranscription)
	assert.NotNil(t, gotCfg.OutputAudioTranscription)

	require.NoError(t, ch.Send(context.Background(), live.Frame{Data: []byte{0, 1}, MIMEType: "audio/pcm;rate=16000"}))

	sess.msgs <- &genai.LiveServerMessage{ServerContent: &genai.LiveServerContent{OutputTranscription: &genai.Transcription{Text: "Oi"}}}
	close(sess.msgs)

	evs := collect(t, ch)
	require.Len(t, evs, 3)
	assert.Equal(t, live.EventOpened, evs[0].Kind)
	assert.Equal(t, live.EventTranscriptFragment, evs[1].Kind)
	assert.Equal(t, live.EventClosed, evs[2].Kind)

	require.Len(t, sess.inputs, 1)
	assert.Equal(t, "audio/pcm;rate=16000", sess.inputs[0].Audio.MIMEType)

	require.NoError(t, ch.Close())
	require.NoError(t, ch.Close())
	assert.Error(t, ch.Send(context.Background(), live.Frame{}))
}

func TestConnectLive_ReceiveQuota(t *testing.T) {
	t.Parallel()

	sess := &fakeLiveSession{msgs: make(chan *genai.LiveServerMessage), final: errors.New("websocket: close 1011 (internal server error): RESOURCE_EXHAUSTED")}
	close(sess.msgs)
	dial := func(context.Context, string, *genai.LiveConnectConfig) (liveSession, error) { return sess, nil }

	ch, err := newTestClient(nil, nil, dial).ConnectLive(context.Background(), live.DefaultConfig())
	require.NoError(t, err)

	evs := collect(t, ch)
	require.Len(t, evs, 2)
	assert.Equal(t, live.EventError, evs[1].Kind)
	assert.ErrorIs(t, evs[1].Err, apierror.ErrQuotaExceeded)
}

func TestConnectLive_DialQuota(t *testing.T) {
	t.Parallel()

	dial := func(context.Context, string, *genai.LiveConnectConfig) (liveSession, error) {
		return nil, genai.APIError{Code: 429}
	}
	_, err := newTestClient(nil, nil, dial).ConnectLive(context.Background(), live.DefaultConfig())
	assert.ErrorIs(t, err, apierror.ErrQuotaExceeded)
}

func TestOffline(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	o := NewOffline(0, nil)

	s, err := o.AnalyzeMessage(ctx, "Quero marcar um horário", nil)
	require.NoError(t, err)
	assert.Equal(t, Suggestion{Suggestion: AppointmentReply, IsAppointment: true}, s)

	s, err = o.AnalyzeMessage(ctx, "Aceitam cartão?", nil)
	require.NoError(t, err)
	assert.Equal(t, `Obrigado por sua mensagem! Em breve retornaremos. Mensagem recebida: "Aceitam cartão?"`, s.Suggestion)
	assert.False(t, s.IsAppointment)

	reply, err := o.NewChat().Send(ctx, "oi")
	require.NoError(t, err)
	assert.Equal(t, OfflineChatReply, reply)

	news, err := o.CompetitorNews(ctx, "padaria")
	require.NoError(t, err)
	assert.Equal(t, NewsUnavailable, news)

	_, err = o.ConnectLive(ctx, live.DefaultConfig())
	assert.ErrorIs(t, err, ErrLiveUnavailable)
}

func TestOffline_HonoursCancellation(t *testing.T) {
	t.Parallel()

	o := NewOffline(time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := o.AnalyzeMessage(ctx, "oi", nil)
	assert.ErrorIs(t, err, context.Canceled)
}
