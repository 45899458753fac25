package enrich

import (
	"context"
	"strings"

	"github.com/carlmjohnson/requests"
)

const summaryPrompt = "공지문을 2~3문장으로 간결하게 요약해 주세요."

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (e *Enricher) summarize(ctx context.Context, text string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	body := chatRequest{
		Model: e.cfg.OpenAI.Model,
		Messages: []chatMessage{
			{Role: "system", Content: summaryPrompt},
			{Role: "user", Content: text},
		},
		Temperature: 0.5,
		MaxTokens:   120,
	}

	var resp chatResponse
	err := requests.URL(e.cfg.OpenAI.Endpoint).
		Bearer(e.cfg.OpenAI.APIKey).
		Transport(e.transport).
		BodyJSON(&body).
		ToJSON(&resp).
		Fetch(ctx)
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
