package inbox

import (
	"context"
	"time"

	"github.com/google/uuid"

	"ReplyDesk/internal/model"
)

// Script is one scripted customer message.
type Script struct {
	Sender string
	Text   string
}

// DefaultScript is what the simulated messaging backend sends.
var DefaultScript = []Script{
	{Sender: "Ana Silva", Text: "Olá, qual o horário de funcionamento de vocês?"},
	{Sender: "Carlos Souza", Text: "Gostaria de agendar um corte de cabelo para amanhã."},
	{Sender: "Mariana Lima", Text: "Vocês aceitam cartão de crédito?"},
	{Sender: "Pedro Costa", Text: "Qual o endereço?"},
	{Sender: "Juliana Alves", Text: "Oi, tudo bem? Tem horário disponível para sábado de manhã?"},
	{Sender: "Rafael Martins", Text: "Quanto custa o serviço de manicure?"},
}

// Source emits a fixed script of messages: the first after initialDelay,
// then one every interval until the script runs out.
type Source struct {
	script       []Script
	initialDelay time.Duration
	interval     time.Duration
	now          func() time.Time
}

func NewSource(script []Script, initialDelay, interval time.Duration) *Source {
	return &Source{script: script, initialDelay: initialDelay, interval: interval, now: time.Now}
}

// Subscribe delivers messages to fn from a single goroutine, in script
// order. The returned function stops delivery; so does cancelling ctx.
func (s *Source) Subscribe(ctx context.Context, fn func(model.Message)) (unsubscribe func()) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		if len(s.script) == 0 {
			return
		}

		first := time.NewTimer(s.initialDelay)
		defer first.Stop()
		select {
		case <-ctx.Done():
			return
		case <-first.C:
		}
		fn(s.message(0))

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()
		for i := 1; i < len(s.script); i++ {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			fn(s.message(i))
		}
	}()

	return func() {
		cancel()
		<-done
	}
}

func (s *Source) message(i int) model.Message {
	return model.Message{
		ID:        uuid.NewString(),
		Sender:    s.script[i].Sender,
		Text:      s.script[i].Text,
		Timestamp: s.now(),
	}
}
