package triage

import (
	"context"
	"strings"
	"time"
)

// RiskModel predicts the probability of high risk from a feature vector.
// Implementations must treat the vector as order-sensitive (see FeatureNames).
type RiskModel interface {
	Predict(ctx context.Context, features []float64) (float64, error)
}

// Heuristic scoring constants. Every matched keyword contributes; the sum is
// clamped to 1.0.
const (
	baseScore           = 0.3
	highRiskIncrement   = 0.3
	mediumRiskIncrement = 0.15
)

var highRiskKeywords = []string{
	"chest pain", "heart attack", "stroke", "unconscious",
	"severe bleeding", "head injury", "can't breathe", "difficulty breathing",
}

var mediumRiskKeywords = []string{
	"high fever", "vomiting", "severe pain", "dizzy", "fainted",
}

// Scorer computes a severity score in [0,1] from patient-reported symptoms.
// A Scorer is immutable after construction and safe for concurrent use.
type Scorer struct {
	model   RiskModel
	timeout time.Duration
}

// NewScorer returns a Scorer backed by model. model may be nil, in which case
// every score comes from the keyword heuristic. timeout bounds each model
// prediction; zero or negative means no deadline.
func NewScorer(model RiskModel, timeout time.Duration) *Scorer {
	return &Scorer{model: model, timeout: timeout}
}

// Score maps symptom input to a severity score in [0,1]. The model path is
// used when a model is loaded and structured data is present; any model
// failure falls back to the heuristic. Score never fails and never blocks
// past the configured model timeout.
func (s *Scorer) Score(ctx context.Context, rawText string, structured *Symptoms) float64 {
	if s.model != nil && structured != nil {
		if s.timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.timeout)
			defer cancel()
		}
		p, err := s.model.Predict(ctx, Features(rawText, structured))
		if err == nil {
			return clamp01(p)
		}
	}
	return HeuristicScore(rawText)
}

// HeuristicScore is the deterministic keyword fallback. Case-insensitive
// substring search; all matching keywords contribute, capped at 1.0.
func HeuristicScore(rawText string) float64 {
	text := strings.ToLower(rawText)
	score := baseScore
	for _, kw := range highRiskKeywords {
		if strings.Contains(text, kw) {
			score += highRiskIncrement
		}
	}
	for _, kw := range mediumRiskKeywords {
		if strings.Contains(text, kw) {
			score += mediumRiskIncrement
		}
	}
	if score > 1.0 {
		return 1.0
	}
	return score
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
