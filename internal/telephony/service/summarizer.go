package service

import (
	"context"
	"fmt"
	"strings"

	"medicore_backend/platform/ai/openaiapi"
)

const summaryPrompt = `You are an assistant for a dental clinic call center.
Summarize the phone call available at the following recording URL in 2-3
sentences, focusing on the caller's intent, any treatment mentioned, and the
agreed next step. Recording: %s`

// AISummarizer backs the Summarizer contract with the OpenAI-compatible
// completion client.
type AISummarizer struct {
	client *openaiapi.Client
}

func NewAISummarizer(client *openaiapi.Client) *AISummarizer {
	return &AISummarizer{client: client}
}

func (s *AISummarizer) Summarize(ctx context.Context, recordingURL string) (string, error) {
	out, err := s.client.Complete(ctx, fmt.Sprintf(summaryPrompt, recordingURL), false)
	if err != nil {
		return "", err
	}

	summary := strings.TrimSpace(out)
	if summary == "" {
		return "", fmt.Errorf("empty summary returned")
	}
	return summary, nil
}
