package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

var errMalformedSuggestion = errors.New("malformed suggestion payload")

var suggestionSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"suggestion": {
			Type:        genai.TypeString,
			Description: "A resposta curta, amigável e profissional para a mensagem do cliente em português do Brasil.",
		},
		"isAppointment": {
			Type:        genai.TypeBoolean,
			Description: "True se a mensagem for um pedido de agendamento, false caso contrário.",
		},
	},
	Required: []string{"suggestion", "isAppointment"},
}

func suggestionPrompt(text string, customResponses []string) string {
	var b strings.Builder
	b.WriteString("Analise a seguinte mensagem de um cliente para um pequeno negócio.\n")
	b.WriteString("Gere uma resposta curta, amigável e profissional para a mensagem, em português do Brasil.\n")
	b.WriteString("Determine também se a mensagem é um pedido para marcar ou agendar um horário.\n\n")
	fmt.Fprintf(&b, "Mensagem do Cliente: \"%s\"\n", text)

	if len(customResponses) > 0 {
		b.WriteString("\nConsidere estas respostas personalizadas como base, se aplicável:\n")
		for _, r := range customResponses {
			fmt.Fprintf(&b, "- %s\n", r)
		}
	}
	return b.String()
}

// parseSuggestion decodes the structured reply. Both fields are required and
// the suggestion must not be blank.
func parseSuggestion(raw string) (Suggestion, error) {
	var payload struct {
		Suggestion    *string `json:"suggestion"`
		IsAppointment *bool   `json:"isAppointment"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return Suggestion{}, fmt.Errorf("%w: %v", errMalformedSuggestion, err)
	}
	if payload.Suggestion == nil || payload.IsAppointment == nil || strings.TrimSpace(*payload.Suggestion) == "" {
		return Suggestion{}, errMalformedSuggestion
	}
	return Suggestion{Suggestion: *payload.Suggestion, IsAppointment: *payload.IsAppointment}, nil
}

// AnalyzeMessage drafts a reply and flags appointment requests.
func (c *Client) AnalyzeMessage(ctx context.Context, text string, customResponses []string) (Suggestion, error) {
	ctx, done := c.instrument(ctx, "analyze_message")

	res, err := c.models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(suggestionPrompt(text, customResponses), genai.RoleUser)},
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   suggestionSchema,
		},
	)
	if err == nil {
		var raw string
		if raw, err = responseText(res); err == nil {
			var s Suggestion
			if s, err = parseSuggestion(raw); err == nil {
				done(nil)
				return s, nil
			}
		}
	}

	err = classify("analyze message", err)
	done(err)
	if isQuota(err) {
		return Suggestion{}, err
	}

	c.logger.Warn("failed to analyze message, using heuristic", "error", err)
	return Suggestion{Suggestion: AnalyzeApology, IsAppointment: IsAppointmentRequest(text)}, nil
}
