package gemini

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"ReplyDesk/internal/cache"
)

func newsPrompt(businessType string) string {
	return fmt.Sprintf(`Atue como um analista de negócios para um pequeno empreendedor no Brasil.
Pesquise na web usando o Google Search por 3 a 5 notícias ou atualizações recentes e relevantes sobre concorrentes na área de "%s".
Para cada notícia encontrada, forneça:
1. O nome do concorrente.
2. Um resumo claro da notícia.
3. Uma sugestão de "plano de ação" que o pequeno empreendedor pode tomar com base nessa informação.

Formate a resposta final de forma clara e organizada usando markdown (títulos, listas, negrito).
Liste todas as fontes consultadas no final.`, businessType)
}

// groundingSources returns the web URIs cited by the first candidate,
// deduplicated in first-appearance order.
func groundingSources(res *genai.GenerateContentResponse) []string {
	if res == nil || len(res.Candidates) == 0 || res.Candidates[0] == nil || res.Candidates[0].GroundingMetadata == nil {
		return nil
	}

	var sources []string
	seen := make(map[string]bool)
	for _, chunk := range res.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" || seen[chunk.Web.URI] {
			continue
		}
		seen[chunk.Web.URI] = true
		sources = append(sources, chunk.Web.URI)
	}
	return sources
}

// AppendSources adds the markdown source list to text. No sources, no list.
func AppendSources(text string, sources []string) string {
	if len(sources) == 0 {
		return text
	}
	var b strings.Builder
	b.WriteString(text)
	b.WriteString("\n\n---\n\n**Fontes:**\n")
	for _, uri := range sources {
		fmt.Fprintf(&b, "- %s\n", uri)
	}
	return b.String()
}

// CompetitorNews runs a web-grounded query about competitors in
// businessType. Successful answers are cached per normalized business type.
func (c *Client) CompetitorNews(ctx context.Context, businessType string) (string, error) {
	key := cache.GenerateCacheKey("competitor_news", strings.ToLower(strings.TrimSpace(businessType)))
	if cached, ok := c.news.Load(key); ok {
		c.logger.Info("cache hit", "key", key[:16])
		return cached, nil
	}

	ctx, done := c.instrument(ctx, "competitor_news")

	res, err := c.models.GenerateContent(ctx, c.model,
		[]*genai.Content{genai.NewContentFromText(newsPrompt(businessType), genai.RoleUser)},
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		},
	)
	var text string
	if err == nil {
		text, err = responseText(res)
	}
	if err != nil {
		err = classify("competitor news", err)
		done(err)
		if isQuota(err) {
			return "", err
		}
		c.logger.Warn("competitor news failed", "business_type", businessType, "error", err)
		return GenericApology, nil
	}
	done(nil)

	out := AppendSources(strings.TrimSpace(text), groundingSources(res))
	c.news.Store(key, out)
	c.logger.Info("cached response", "key", key[:16])
	return out, nil
}
