package responder

import (
	"context"
	"strings"
)

// Rule pairs a keyword predicate with a canned response. Rules are evaluated
// in declaration order and the first match wins.
type Rule struct {
	Keywords []string
	Response string
}

func (r Rule) matches(message string) bool {
	for _, keyword := range r.Keywords {
		if strings.Contains(message, keyword) {
			return true
		}
	}
	return false
}

// Rules is the local fallback responder used when no vendor API key is
// configured.
type Rules struct {
	table    []Rule
	fallback string
}

// NewRules builds the default keyword table.
func NewRules() *Rules {
	return &Rules{
		table: []Rule{
			{
				Keywords: []string{"hello", "hi ", "hey"},
				Response: "Hello! I'm HealthQ, your AI health assistant. How can I help you today?",
			},
			{
				Keywords: []string{"headache", "migraine"},
				Response: "For headaches, try resting in a quiet dark room, staying hydrated and limiting screen time. If headaches are severe or persistent, please see a doctor.",
			},
			{
				Keywords: []string{"fever", "temperature"},
				Response: "For a mild fever, rest and drink plenty of fluids. Seek medical care if the fever is high, lasts more than three days, or comes with other worrying symptoms.",
			},
			{
				Keywords: []string{"cold", "cough", "flu", "sore throat"},
				Response: "Rest, warm fluids and honey can ease cold and flu symptoms. See a doctor if symptoms last more than a week or you have trouble breathing.",
			},
			{
				Keywords: []string{"sleep", "insomnia", "tired"},
				Response: "Good sleep hygiene helps: keep a regular schedule, avoid screens before bed and limit caffeine in the afternoon. Most adults need 7 to 9 hours.",
			},
			{
				Keywords: []string{"stress", "anxiety", "anxious"},
				Response: "Deep breathing, regular exercise and talking to someone you trust can help with stress. If it interferes with daily life, consider speaking with a mental health professional.",
			},
			{
				Keywords: []string{"diet", "nutrition", "eat"},
				Response: "A balanced diet with plenty of vegetables, fruits, whole grains and water is a great foundation. For personal dietary advice, a registered dietitian can help.",
			},
			{
				Keywords: []string{"exercise", "workout"},
				Response: "Aim for about 150 minutes of moderate activity per week, plus strength training twice a week. Start small and build up gradually.",
			},
			{
				Keywords: []string{"water", "hydration", "drink"},
				Response: "Most people do well with 6 to 8 glasses of water a day, more when exercising or in hot weather.",
			},
		},
		fallback: "I can help with general health and wellness questions like sleep, diet, exercise or common symptoms. What would you like to know?",
	}
}

func (r *Rules) Reply(_ context.Context, message string) (string, error) {
	lowered := strings.ToLower(message)
	for _, rule := range r.table {
		if rule.matches(lowered) {
			return rule.Response, nil
		}
	}
	return r.fallback, nil
}

func (r *Rules) StreamReply(ctx context.Context, message string, fn func(chunk string) error) (string, error) {
	reply, err := r.Reply(ctx, message)
	if err != nil {
		return "", err
	}
	if err := fn(reply); err != nil {
		return reply, err
	}
	return reply, nil
}
