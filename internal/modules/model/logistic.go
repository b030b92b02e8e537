package model

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Model is a trained logistic classifier with its feature scaler. Instances
// are immutable after training; swapping in a new model replaces the whole
// value.
type Model struct {
	Weights   []float64
	Bias      float64
	Means     []float64
	Stds      []float64
	TrainedAt time.Time
	Samples   int
}

// TrainOptions control the gradient-descent fit.
type TrainOptions struct {
	Epochs       int
	LearningRate float64
	L2           float64
}

// DefaultTrainOptions returns the settings used by scheduled retrains.
func DefaultTrainOptions() TrainOptions {
	return TrainOptions{
		Epochs:       400,
		LearningRate: 0.05,
		L2:           0.001,
	}
}

// Predict returns the win probability for one feature vector.
func (m *Model) Predict(features []float64) (float64, error) {
	if len(features) != len(m.Weights) {
		return 0, fmt.Errorf("feature vector length %d does not match model dimension %d",
			len(features), len(m.Weights))
	}

	scaled := m.scale(features)
	return sigmoid(floats.Dot(m.Weights, scaled) + m.Bias), nil
}

// scale standardizes a feature vector with the model's stored scaler.
func (m *Model) scale(features []float64) []float64 {
	scaled := make([]float64, len(features))
	for i, v := range features {
		if m.Stds[i] > 0 {
			scaled[i] = (v - m.Means[i]) / m.Stds[i]
		} else {
			scaled[i] = v - m.Means[i]
		}
	}
	return scaled
}

// Train fits a logistic model on the labeled examples with batch gradient
// descent. X rows must all share one dimension; y entries are 0 or 1.
func Train(x [][]float64, y []float64, opts TrainOptions) (*Model, error) {
	if len(x) == 0 || len(x) != len(y) {
		return nil, fmt.Errorf("training set empty or mismatched: %d rows, %d labels", len(x), len(y))
	}

	dim := len(x[0])
	for i, row := range x {
		if len(row) != dim {
			return nil, fmt.Errorf("row %d has dimension %d, expected %d", i, len(row), dim)
		}
	}

	// Column-wise scaler
	means := make([]float64, dim)
	stds := make([]float64, dim)
	col := make([]float64, len(x))
	for j := 0; j < dim; j++ {
		for i := range x {
			col[i] = x[i][j]
		}
		means[j] = stat.Mean(col, nil)
		if len(col) > 1 {
			stds[j] = stat.StdDev(col, nil)
		}
	}

	m := &Model{
		Weights:   make([]float64, dim),
		Means:     means,
		Stds:      stds,
		TrainedAt: time.Now().UTC(),
		Samples:   len(x),
	}

	scaled := make([][]float64, len(x))
	for i, row := range x {
		scaled[i] = m.scale(row)
	}

	n := float64(len(x))
	gradW := make([]float64, dim)
	for epoch := 0; epoch < opts.Epochs; epoch++ {
		for j := range gradW {
			gradW[j] = 0
		}
		gradB := 0.0

		for i, row := range scaled {
			p := sigmoid(floats.Dot(m.Weights, row) + m.Bias)
			diff := p - y[i]
			for j, v := range row {
				gradW[j] += diff * v
			}
			gradB += diff
		}

		for j := range m.Weights {
			m.Weights[j] -= opts.LearningRate * (gradW[j]/n + opts.L2*m.Weights[j])
		}
		m.Bias -= opts.LearningRate * gradB / n
	}

	return m, nil
}

func sigmoid(z float64) float64 {
	return 1.0 / (1.0 + math.Exp(-z))
}
