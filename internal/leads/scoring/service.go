// Package scoring enriches candidate leads with a quality score, an
// explanation, and a suggested next action. The external model is the
// primary source; a deterministic rule-based fallback guarantees that
// scoring never blocks lead creation.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"

	"medicore_backend/platform/logger"
)

// Candidate is the subset of lead data the scorer looks at.
type Candidate struct {
	Name   string
	Email  string
	Phone  string
	Source string
}

// Result is a scoring outcome. Score is always within [1,100].
type Result struct {
	Score       int    `json:"score"`
	Explanation string `json:"explanation"`
	NextAction  string `json:"next_action"`
}

// Completer is the external model collaborator.
type Completer interface {
	Complete(ctx context.Context, prompt string, jsonMode bool) (string, error)
}

// Service scores candidate leads. A nil model skips straight to the fallback.
type Service struct {
	model Completer
	log   *logger.Logger
}

func New(model Completer, log *logger.Logger) *Service {
	return &Service{model: model, log: log}
}

const promptTemplate = `You are an expert lead scoring system for a high-end dental clinic specializing in cosmetic dentistry and implants.
Analyze the following lead information and return a JSON object with three keys: "score", "explanation", and "next_action".
- "score": An integer from 1 to 100 indicating the lead's quality.
- "explanation": A brief, one-sentence explanation for the score.
- "next_action": A concrete, actionable next step for the call center.
Scoring criteria:
- High Score (80-100): Referrals, professional email domains (e.g., company emails), interest in high-value services.
- Medium Score (40-79): Website or Social Media sources, generic email domains (gmail, yahoo).
- Low Score (1-39): Vague interest, temporary email domains, advertisement sources which often have lower intent.
Lead Data:
- Name: %s
- Email: %s
- Phone: %s
- Source: %s
Return ONLY the JSON object.`

// Score asks the model for a score and falls back to the rule-based
// heuristic on any failure or malformed output. It never returns an error.
func (s *Service) Score(ctx context.Context, candidate Candidate) Result {
	if s.model == nil {
		return Fallback(candidate)
	}

	phone := candidate.Phone
	if phone == "" {
		phone = "Not provided"
	}
	prompt := fmt.Sprintf(promptTemplate, candidate.Name, candidate.Email, phone, candidate.Source)

	raw, err := s.model.Complete(ctx, prompt, true)
	if err != nil {
		s.log.Warn("lead scoring degraded to fallback", "email", candidate.Email, "error", err)
		return Fallback(candidate)
	}

	var result Result
	if err := json.Unmarshal([]byte(raw), &result); err != nil {
		s.log.Warn("lead scoring returned malformed output", "email", candidate.Email, "error", err)
		return Fallback(candidate)
	}
	if result.Score < 1 || result.Score > 100 || result.Explanation == "" || result.NextAction == "" {
		s.log.Warn("lead scoring returned out-of-contract output", "email", candidate.Email, "score", result.Score)
		return Fallback(candidate)
	}

	return result
}
