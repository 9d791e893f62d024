package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// LogisticModel is a logistic-regression risk model with weights loaded from
// a JSON file. It implements RiskModel. The weight vector must match
// FeatureNames in length and order.
type LogisticModel struct {
	Weights []float64 `json:"weights"`
	Bias    float64   `json:"bias"`
}

// LoadModel reads a LogisticModel from the JSON file at path. Returns an
// error for a missing or malformed file; callers treat that as "no model"
// and rely on the heuristic scorer.
func LoadModel(path string) (*LogisticModel, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model file: %w", err)
	}
	var m LogisticModel
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse model file %s: %w", path, err)
	}
	if len(m.Weights) != len(FeatureNames) {
		return nil, fmt.Errorf("model has %d weights, want %d", len(m.Weights), len(FeatureNames))
	}
	return &m, nil
}

// Predict returns the probability of high risk for the given feature vector.
func (m *LogisticModel) Predict(ctx context.Context, features []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if len(features) != len(m.Weights) {
		return 0, fmt.Errorf("feature vector has %d values, want %d", len(features), len(m.Weights))
	}
	z := m.Bias
	for i, w := range m.Weights {
		z += w * features[i]
	}
	return 1 / (1 + math.Exp(-z)), nil
}
