package scoring

import "strings"

var genericEmailDomains = []string{"@gmail", "@yahoo", "@hotmail"}

// Fallback is the deterministic rule-based scorer used when the model is
// unavailable or returns garbage. The result is always within [1,100].
func Fallback(candidate Candidate) Result {
	score := 50
	explanation := "Standard lead from an automated source."
	nextAction := "Add to standard call queue for qualification."

	switch candidate.Source {
	case "Referral":
		score += 30
		explanation = "High-quality referral lead."
		nextAction = "Prioritize for immediate call-back."
	case "Website":
		score += 10
	case "Chatbot":
		score += 5
	case "Advertisement":
		score -= 10
	}

	if !hasGenericDomain(candidate.Email) {
		// Potentially professional email
		score += 15
	}

	if score < 1 {
		score = 1
	}
	if score > 100 {
		score = 100
	}

	return Result{Score: score, Explanation: explanation, NextAction: nextAction}
}

func hasGenericDomain(email string) bool {
	for _, domain := range genericEmailDomains {
		if strings.Contains(email, domain) {
			return true
		}
	}
	return false
}
