package triage

import "strings"

// FeatureNames is the order-sensitive feature vector contract shared with the
// trained risk model. Features produces values in exactly this order.
var FeatureNames = []string{
	"age_normalized",
	"chest_pain",
	"breathing_difficulty",
	"fever",
	"headache",
	"emergency_keywords",
}

var emergencyKeywords = []string{
	"heart attack", "stroke", "unconscious", "bleeding", "seizure",
	"overdose", "poisoning", "trauma", "fracture", "cardiac arrest",
	"respiratory failure", "coma",
}

var severityWords = []string{
	"severe", "extreme", "intense", "unbearable", "excruciating",
	"critical", "acute", "sudden",
}

// Features builds the model feature vector from raw text plus the structured
// extraction. Symptom terms from the extraction are folded into the searched
// text so the model sees both sources.
func Features(rawText string, structured *Symptoms) []float64 {
	text := strings.ToLower(rawText)
	if structured != nil {
		text += " " + strings.ToLower(strings.Join(structured.Symptoms, " "))
	}

	return []float64{
		float64(structured.AgeOrDefault()) / 100,
		boolFeature(containsAny(text, "chest", "heart", "cardiac")),
		boolFeature(containsAny(text, "breath", "breathing", "shortness")),
		boolFeature(containsAny(text, "fever", "temperature")),
		boolFeature(containsAny(text, "headache", "migraine")),
		boolFeature(containsAny(text, emergencyKeywords...) || containsAny(text, severityWords...)),
	}
}

func containsAny(text string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(text, w) {
			return true
		}
	}
	return false
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
