// Package trainer defines the swappable local-training capability used by
// workers and provides the nearest-centroid implementation whose parameters
// have the shape-stable flattened form the coordination protocol requires.
package trainer

import (
	"github.com/Bhuvana2605/agrismart-backend/dataset"
	"github.com/Bhuvana2605/agrismart-backend/federation"
)

// Trainer is the opaque local-training capability. Given a labeled partition
// slice it produces an updated parameter vector, and given a parameter
// vector and a held-out slice it produces a loss and accuracy metric. The
// coordination protocol does not care how it is implemented.
type Trainer interface {
	// Fit trains from the given global parameters using only the provided
	// rows and returns the updated parameter vector and the training
	// accuracy.
	Fit(params federation.ParameterVector, rows []dataset.Row, hp federation.Hyperparameters) (federation.ParameterVector, float64, error)

	// Evaluate scores the given parameters against the provided rows
	// without mutating any state. Loss is in [0, 1].
	Evaluate(params federation.ParameterVector, rows []dataset.Row) (loss, metric float64, err error)
}
