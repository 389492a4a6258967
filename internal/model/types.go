package model

import "time"

// Message is an inbound customer message from the (simulated) messaging backend.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// QuickResponse is an operator-owned canned reply.
type QuickResponse struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

type HistoryStatus string

const (
	StatusResponded HistoryStatus = "responded"
	StatusPending   HistoryStatus = "pending"
)

// HistoryItem records one reply that left the desk. ReceivedAt is the time
// the original message arrived, when known.
type HistoryItem struct {
	ID              string        `json:"id"`
	OriginalMessage string        `json:"original_message"`
	Response        string        `json:"response"`
	Timestamp       time.Time     `json:"timestamp"`
	Status          HistoryStatus `json:"status"`
	ReceivedAt      *time.Time    `json:"received_at,omitempty"`
}

// CalendarSlot is a bookable interval offered by the calendar backend.
type CalendarSlot struct {
	ID        string    `json:"id"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// SuggestionState tracks the AI draft for one message.
type SuggestionState struct {
	Suggestion    string `json:"suggestion,omitempty"`
	IsAppointment bool   `json:"is_appointment"`
	IsLoading     bool   `json:"is_loading"`
	Error         string `json:"error,omitempty"`
}

// Resolved reports whether the state reached success or error.
func (s SuggestionState) Resolved() bool {
	return !s.IsLoading && (s.Suggestion != "" || s.Error != "")
}

// DefaultQuickResponses seeds a fresh quick-response store.
func DefaultQuickResponses() []QuickResponse {
	return []QuickResponse{
		{ID: "1", Text: "Nosso endereço é Rua Exemplo, 123, Bairro Modelo."},
		{ID: "2", Text: "Aceitamos PIX, cartão de crédito e débito."},
		{ID: "3", Text: "Olá! Agradecemos seu contato. Como podemos ajudar?"},
	}
}
