package federation

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAggregateVectorsWeightedMean(t *testing.T) {
	results := []WeightedVector{
		{Vector: ParameterVector{1, 2}, Weight: 3},
		{Vector: ParameterVector{4, 6}, Weight: 1},
	}

	got, err := AggregateVectors(results)
	require.NoError(t, err)
	require.Equal(t, ParameterVector{1.75, 3.0}, got)
}

func TestAggregateVectorsSingleResult(t *testing.T) {
	got, err := AggregateVectors([]WeightedVector{
		{Vector: ParameterVector{2.5, -1, 0}, Weight: 7},
	})
	require.NoError(t, err)
	require.Equal(t, ParameterVector{2.5, -1, 0}, got)
}

func TestAggregateVectorsOrderIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	results := make([]WeightedVector, 5)
	for i := range results {
		vec := make(ParameterVector, 6)
		for j := range vec {
			vec[j] = rng.NormFloat64()
		}
		results[i] = WeightedVector{Vector: vec, Weight: 1 + rng.Intn(50)}
	}

	want, err := AggregateVectors(results)
	require.NoError(t, err)

	for trial := 0; trial < 10; trial++ {
		shuffled := make([]WeightedVector, len(results))
		copy(shuffled, results)
		rng.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})

		got, err := AggregateVectors(shuffled)
		require.NoError(t, err)
		for i := range want {
			require.InDelta(t, want[i], got[i], 1e-9)
		}
	}
}

func TestAggregateVectorsEmpty(t *testing.T) {
	_, err := AggregateVectors(nil)
	require.ErrorIs(t, err, ErrNoResults)
}

func TestAggregateVectorsShapeMismatch(t *testing.T) {
	_, err := AggregateVectors([]WeightedVector{
		{Vector: ParameterVector{1, 2}, Weight: 1},
		{Vector: ParameterVector{1, 2, 3}, Weight: 1},
	})

	var shapeErr *ShapeMismatchError
	require.ErrorAs(t, err, &shapeErr)
	require.Equal(t, 2, shapeErr.Want)
	require.Equal(t, 3, shapeErr.Got)
}

func TestAggregateVectorsRejectsNonPositiveWeight(t *testing.T) {
	_, err := AggregateVectors([]WeightedVector{
		{Vector: ParameterVector{1}, Weight: 0},
	})
	require.Error(t, err)
}

func TestAggregateScalars(t *testing.T) {
	got, err := AggregateScalars([]WeightedScalar{
		{Value: 1.0, Weight: 1},
		{Value: 0.0, Weight: 3},
	})
	require.NoError(t, err)
	require.InDelta(t, 0.25, got, 1e-9)
}

func TestAggregateFitResults(t *testing.T) {
	results := []FitResult{
		{WorkerID: "a", Parameters: ParameterVector{1, 2}, SampleCount: 3, TrainMetric: 0.9},
		{WorkerID: "b", Parameters: ParameterVector{4, 6}, SampleCount: 1, TrainMetric: 0.5},
	}

	params, metric, err := AggregateFitResults(results)
	require.NoError(t, err)
	require.Equal(t, ParameterVector{1.75, 3.0}, params)
	require.InDelta(t, 0.8, metric, 1e-9)
}

func TestAggregateEvalResults(t *testing.T) {
	results := []EvalResult{
		{WorkerID: "a", SampleCount: 2, Loss: 0.2, EvalMetric: 0.8},
		{WorkerID: "b", SampleCount: 2, Loss: 0.4, EvalMetric: 0.6},
	}

	loss, metric, err := AggregateEvalResults(results)
	require.NoError(t, err)
	require.InDelta(t, 0.3, loss, 1e-9)
	require.InDelta(t, 0.7, metric, 1e-9)
}
