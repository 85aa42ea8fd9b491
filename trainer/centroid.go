package trainer

import (
	"fmt"
	"math"

	"github.com/Bhuvana2605/agrismart-backend/dataset"
	"github.com/Bhuvana2605/agrismart-backend/federation"
)

// CentroidTrainer is a nearest-centroid classifier over a fixed class list.
// Its parameter vector is the flattened class-centroid table: for C classes
// and F features, C*F elements with row c holding the mean feature vector of
// class c. The shape depends only on the run configuration, so vectors from
// independently trained workers can be averaged element-wise.
type CentroidTrainer struct {
	classes     []string
	numFeatures int
	classIndex  map[string]int
}

// NewCentroidTrainer creates a trainer over the canonical class ordering
// shared by all workers in a run.
func NewCentroidTrainer(classes []string, numFeatures int) (*CentroidTrainer, error) {
	if len(classes) == 0 {
		return nil, fmt.Errorf("class list cannot be empty")
	}
	if numFeatures < 1 {
		return nil, fmt.Errorf("feature count must be positive, got %d", numFeatures)
	}

	index := make(map[string]int, len(classes))
	for i, c := range classes {
		if _, dup := index[c]; dup {
			return nil, fmt.Errorf("duplicate class %q", c)
		}
		index[c] = i
	}

	return &CentroidTrainer{
		classes:     classes,
		numFeatures: numFeatures,
		classIndex:  index,
	}, nil
}

// Shape returns the parameter vector length this trainer produces.
func (t *CentroidTrainer) Shape() int {
	return len(t.classes) * t.numFeatures
}

// Fit computes per-class mean feature vectors from the given rows. Classes
// with no local samples keep the incoming global centroid row, so the
// returned vector always has the full shape. Returns the training accuracy
// of the new parameters on the same rows.
func (t *CentroidTrainer) Fit(params federation.ParameterVector, rows []dataset.Row, _ federation.Hyperparameters) (federation.ParameterVector, float64, error) {
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("training slice is empty")
	}
	if err := t.checkShape(params); err != nil {
		return nil, 0, err
	}

	sums := make([]float64, t.Shape())
	counts := make([]int, len(t.classes))

	for _, row := range rows {
		class, ok := t.classIndex[row.Label]
		if !ok {
			return nil, 0, fmt.Errorf("label %q not in class list", row.Label)
		}
		if len(row.Features) != t.numFeatures {
			return nil, 0, fmt.Errorf("row has %d features, expected %d", len(row.Features), t.numFeatures)
		}
		base := class * t.numFeatures
		for i, v := range row.Features {
			sums[base+i] += v
		}
		counts[class]++
	}

	updated := params.Clone()
	for class, n := range counts {
		if n == 0 {
			continue
		}
		base := class * t.numFeatures
		for i := 0; i < t.numFeatures; i++ {
			updated[base+i] = sums[base+i] / float64(n)
		}
	}

	accuracy := t.accuracy(updated, rows)
	return updated, accuracy, nil
}

// Evaluate scores the parameters by nearest-centroid classification of the
// given rows. Loss is 1 - accuracy.
func (t *CentroidTrainer) Evaluate(params federation.ParameterVector, rows []dataset.Row) (float64, float64, error) {
	if len(rows) == 0 {
		return 0, 0, fmt.Errorf("evaluation slice is empty")
	}
	if err := t.checkShape(params); err != nil {
		return 0, 0, err
	}

	accuracy := t.accuracy(params, rows)
	return 1 - accuracy, accuracy, nil
}

// Predict returns the class whose centroid is nearest to the feature vector
// by squared Euclidean distance. Ties resolve to the lower class index.
func (t *CentroidTrainer) Predict(params federation.ParameterVector, features []float64) (string, error) {
	if err := t.checkShape(params); err != nil {
		return "", err
	}
	if len(features) != t.numFeatures {
		return "", fmt.Errorf("got %d features, expected %d", len(features), t.numFeatures)
	}

	best := 0
	bestDist := math.Inf(1)
	for class := range t.classes {
		base := class * t.numFeatures
		dist := 0.0
		for i, v := range features {
			d := v - params[base+i]
			dist += d * d
		}
		if dist < bestDist {
			best = class
			bestDist = dist
		}
	}
	return t.classes[best], nil
}

func (t *CentroidTrainer) accuracy(params federation.ParameterVector, rows []dataset.Row) float64 {
	correct := 0
	for _, row := range rows {
		predicted, err := t.Predict(params, row.Features)
		if err == nil && predicted == row.Label {
			correct++
		}
	}
	return float64(correct) / float64(len(rows))
}

func (t *CentroidTrainer) checkShape(params federation.ParameterVector) error {
	if len(params) != t.Shape() {
		return &federation.ShapeMismatchError{Want: t.Shape(), Got: len(params)}
	}
	return nil
}
