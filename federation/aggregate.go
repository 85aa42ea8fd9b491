package federation

import "fmt"

// WeightedVector pairs a worker's returned parameter vector with its sample
// count for aggregation.
type WeightedVector struct {
	Vector ParameterVector
	Weight int
}

// WeightedScalar pairs a scalar metric with its sample count.
type WeightedScalar struct {
	Value  float64
	Weight int
}

// AggregateVectors computes the element-wise sample-weighted mean of the
// given parameter vectors. The result is invariant to the order of results.
// All vectors must share the first vector's shape and all weights must be
// positive.
func AggregateVectors(results []WeightedVector) (ParameterVector, error) {
	if len(results) == 0 {
		return nil, ErrNoResults
	}

	shape := len(results[0].Vector)
	sum := make(ParameterVector, shape)
	totalWeight := 0

	for _, r := range results {
		if len(r.Vector) != shape {
			return nil, &ShapeMismatchError{Want: shape, Got: len(r.Vector)}
		}
		if r.Weight <= 0 {
			return nil, fmt.Errorf("aggregation weight must be positive, got %d", r.Weight)
		}
		w := float64(r.Weight)
		for i, v := range r.Vector {
			sum[i] += v * w
		}
		totalWeight += r.Weight
	}

	norm := float64(totalWeight)
	for i := range sum {
		sum[i] /= norm
	}
	return sum, nil
}

// AggregateScalars computes the sample-weighted mean of scalar metrics.
func AggregateScalars(results []WeightedScalar) (float64, error) {
	if len(results) == 0 {
		return 0, ErrNoResults
	}

	sum := 0.0
	totalWeight := 0
	for _, r := range results {
		if r.Weight <= 0 {
			return 0, fmt.Errorf("aggregation weight must be positive, got %d", r.Weight)
		}
		sum += r.Value * float64(r.Weight)
		totalWeight += r.Weight
	}
	return sum / float64(totalWeight), nil
}

// AggregateFitResults combines successful fit results into the next global
// parameter vector and the round's aggregated train metric.
func AggregateFitResults(results []FitResult) (ParameterVector, float64, error) {
	vectors := make([]WeightedVector, 0, len(results))
	metrics := make([]WeightedScalar, 0, len(results))
	for _, r := range results {
		vectors = append(vectors, WeightedVector{Vector: r.Parameters, Weight: r.SampleCount})
		metrics = append(metrics, WeightedScalar{Value: r.TrainMetric, Weight: r.SampleCount})
	}

	params, err := AggregateVectors(vectors)
	if err != nil {
		return nil, 0, err
	}
	metric, err := AggregateScalars(metrics)
	if err != nil {
		return nil, 0, err
	}
	return params, metric, nil
}

// AggregateEvalResults combines successful eval results into the round's
// reported loss and evaluation metric.
func AggregateEvalResults(results []EvalResult) (loss, metric float64, err error) {
	losses := make([]WeightedScalar, 0, len(results))
	metrics := make([]WeightedScalar, 0, len(results))
	for _, r := range results {
		losses = append(losses, WeightedScalar{Value: r.Loss, Weight: r.SampleCount})
		metrics = append(metrics, WeightedScalar{Value: r.EvalMetric, Weight: r.SampleCount})
	}

	loss, err = AggregateScalars(losses)
	if err != nil {
		return 0, 0, err
	}
	metric, err = AggregateScalars(metrics)
	if err != nil {
		return 0, 0, err
	}
	return loss, metric, nil
}
