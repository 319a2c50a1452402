package chat

import (
	"strings"
	"time"
)

// Alert levels.
const (
	LevelCritical = "CRITICAL"
	LevelUrgent   = "URGENT"
)

// SafetyReply is returned for critical messages without consulting the
// responder.
const SafetyReply = "If this is a medical emergency, please call your local emergency number " +
	"(for example 911) or go to the nearest emergency room right now. " +
	"I'm an AI assistant and cannot help in an emergency."

// Disclaimer is appended when the message touches medical topics.
const Disclaimer = "\n\n⚠️ Note: I am not a doctor. Please consult a healthcare professional for serious concerns."

// screenRule pairs a severity level with its keyword predicate. Rules are
// evaluated in order; the first hit decides the level.
type screenRule struct {
	level    string
	keywords []string
}

var screeningTable = []screenRule{
	{
		level: LevelCritical,
		keywords: []string{
			"heart attack", "chest pain", "stroke", "cannot breathe", "can't breathe",
			"difficulty breathing", "severe pain", "bleeding heavily",
			"unconscious", "suicide", "self harm", "dying", "emergency",
			"ambulance", "911", "emergency room",
		},
	},
	{
		level: LevelUrgent,
		keywords: []string{
			"high fever", "broken bone", "severe headache", "allergic reaction",
			"burn", "poison", "overdose", "severe vomiting", "severe diarrhea",
		},
	},
}

var disclaimerKeywords = []string{
	"symptom", "treatment", "medicine", "medication", "diagnosis",
	"dose", "drug", "side effect", "prescription",
}

// screen returns the alert level for a message, or "" when nothing matched.
func screen(message string) string {
	lowered := strings.ToLower(message)
	for _, rule := range screeningTable {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return rule.level
			}
		}
	}
	return ""
}

func needsDisclaimer(message string) bool {
	lowered := strings.ToLower(message)
	for _, keyword := range disclaimerKeywords {
		if strings.Contains(lowered, keyword) {
			return true
		}
	}
	return false
}

// Alert is the payload published to the bus when screening trips.
type Alert struct {
	UserID          string    `json:"user_id"`
	AlertLevel      string    `json:"alert_level"`
	Message         string    `json:"message"`
	Response        string    `json:"response"`
	Timestamp       time.Time `json:"timestamp"`
	ActionRequired  bool      `json:"action_required"`
	SuggestedAction string    `json:"suggested_action"`
}

func newAlert(userID, level, message, response string, at time.Time) Alert {
	action := "SEEK_MEDICAL_ADVICE_SOON"
	if level == LevelCritical {
		action = "IMMEDIATE_MEDICAL_ATTENTION"
	}
	return Alert{
		UserID:          userID,
		AlertLevel:      level,
		Message:         message,
		Response:        response,
		Timestamp:       at,
		ActionRequired:  true,
		SuggestedAction: action,
	}
}
