package coordinator

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Bhuvana2605/agrismart-backend/dataset"
	"github.com/Bhuvana2605/agrismart-backend/federation"
	"github.com/Bhuvana2605/agrismart-backend/testutil"
	"github.com/Bhuvana2605/agrismart-backend/trainer"
	"github.com/Bhuvana2605/agrismart-backend/worker"
)

// fakeWorker is a scriptable WorkerHandle for lifecycle tests.
type fakeWorker struct {
	id      string
	params  federation.ParameterVector
	weight  int
	fitErr  error
	evalErr error
	delay   time.Duration
}

func (f *fakeWorker) ID() string { return f.id }

func (f *fakeWorker) Fit(ctx context.Context, cfg federation.RoundConfig) (*federation.FitResult, error) {
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.fitErr != nil {
		return nil, f.fitErr
	}
	return &federation.FitResult{
		WorkerID:    f.id,
		Parameters:  f.params.Clone(),
		SampleCount: f.weight,
		TrainMetric: 1.0,
	}, nil
}

func (f *fakeWorker) Evaluate(ctx context.Context, round int, params federation.ParameterVector) (*federation.EvalResult, error) {
	if f.evalErr != nil {
		return nil, f.evalErr
	}
	return &federation.EvalResult{
		WorkerID:    f.id,
		SampleCount: f.weight,
		Loss:        0.25,
		EvalMetric:  0.75,
	}, nil
}

func newTestCoordinator(t *testing.T, opts ...testutil.ConfigOption) *Coordinator {
	t.Helper()
	c, err := New(testutil.NewTestConfig(opts...), nil)
	require.NoError(t, err)
	return c
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	_, err := New(testutil.NewTestConfig(testutil.WithTotalRounds(0)), nil)
	require.Error(t, err)
}

func TestRunWaitsForQuorum(t *testing.T) {
	c := newTestCoordinator(t)

	done := make(chan error, 1)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { done <- c.Run(ctx) }()

	_, err := c.Register(&fakeWorker{id: "w0", params: federation.ParameterVector{1, 1, 1, 1, 1, 1}, weight: 1})
	require.NoError(t, err)

	// One of two required workers: the run must not start.
	require.Never(t, func() bool {
		return c.Phase() != federation.AwaitingQuorum
	}, 200*time.Millisecond, 20*time.Millisecond)
	require.False(t, c.QuorumReached())

	_, err = c.Register(&fakeWorker{id: "w1", params: federation.ParameterVector{3, 3, 3, 3, 3, 3}, weight: 1})
	require.NoError(t, err)
	require.True(t, c.QuorumReached())

	require.NoError(t, <-done)
	require.Equal(t, federation.Terminated, c.Phase())
}

func TestRunCompletesAndAggregates(t *testing.T) {
	c := newTestCoordinator(t)

	// Weighted mean of [1,...] weight 3 and [5,...] weight 1 is [2,...].
	shape := 6
	w0 := &fakeWorker{id: "w0", weight: 3, params: filled(shape, 1)}
	w1 := &fakeWorker{id: "w1", weight: 1, params: filled(shape, 5)}
	c.Register(w0)
	c.Register(w1)

	var summaries []federation.RoundSummary
	summaryCh := make(chan federation.RoundSummary, 4)
	c.SetRoundCallback(func(s federation.RoundSummary) { summaryCh <- s })

	require.NoError(t, c.Run(context.Background()))

	require.Equal(t, 2, c.CurrentRound())
	require.NoError(t, c.RunError())
	require.Equal(t, filled(shape, 2), c.GlobalParameters())

	history := c.History()
	require.Len(t, history, 2)
	for i, summary := range history {
		require.Equal(t, i, summary.RoundNumber)
		require.Equal(t, 2, summary.ParticipantCount)
		require.Equal(t, 1.0, summary.TrainMetric)
		require.InDelta(t, 0.25, summary.Loss, 1e-9)
	}

	for len(summaries) < 2 {
		select {
		case s := <-summaryCh:
			summaries = append(summaries, s)
		case <-time.After(time.Second):
			t.Fatal("round callback not invoked")
		}
	}
}

func TestRunExcludesFailingWorker(t *testing.T) {
	c := newTestCoordinator(t, testutil.WithTotalRounds(1))

	shape := 6
	c.Register(&fakeWorker{id: "w0", weight: 1, params: filled(shape, 2)})
	c.Register(&fakeWorker{id: "w1", weight: 1, params: filled(shape, 4)})
	c.Register(&fakeWorker{id: "broken", weight: 1, fitErr: errors.New("disk on fire")})

	require.NoError(t, c.Run(context.Background()))

	history := c.History()
	require.Len(t, history, 1)
	require.Equal(t, 2, history[0].ParticipantCount)
	require.Equal(t, filled(shape, 3), c.GlobalParameters())
}

func TestRunAbortsAfterRetriesExhausted(t *testing.T) {
	c := newTestCoordinator(t,
		testutil.WithMaxRoundRetries(1),
		testutil.WithPerRoundTimeout(100*time.Millisecond),
	)

	c.Register(&fakeWorker{id: "w0", weight: 1, fitErr: errors.New("down")})
	c.Register(&fakeWorker{id: "w1", weight: 1, fitErr: errors.New("down")})

	err := c.Run(context.Background())

	var abortErr *federation.RunAbortedError
	require.ErrorAs(t, err, &abortErr)
	require.Equal(t, 0, abortErr.Round)
	require.Equal(t, 1, abortErr.Retries)

	var quorumErr *federation.QuorumTimeoutError
	require.ErrorAs(t, err, &quorumErr)

	// The last good parameters stay readable after the abort.
	require.Equal(t, federation.Terminated, c.Phase())
	require.ErrorAs(t, c.RunError(), &abortErr)
	require.Equal(t, federation.NewParameterVector(6), c.GlobalParameters())
	require.Empty(t, c.History())
	require.Equal(t, 0, c.CurrentRound())
}

func TestRunDiscardsStragglers(t *testing.T) {
	c := newTestCoordinator(t,
		testutil.WithTotalRounds(1),
		testutil.WithMinParticipants(2),
		testutil.WithPerRoundTimeout(150*time.Millisecond),
	)

	shape := 6
	c.Register(&fakeWorker{id: "w0", weight: 1, params: filled(shape, 2)})
	c.Register(&fakeWorker{id: "w1", weight: 1, params: filled(shape, 4)})
	c.Register(&fakeWorker{id: "slow", weight: 1, params: filled(shape, 100), delay: time.Minute})

	require.NoError(t, c.Run(context.Background()))
	require.Equal(t, 2, c.History()[0].ParticipantCount)
	require.Equal(t, filled(shape, 3), c.GlobalParameters())
}

func TestRegisterAfterTerminationRejected(t *testing.T) {
	c := newTestCoordinator(t, testutil.WithMinParticipants(1), testutil.WithWorkerCount(1))

	c.Register(&fakeWorker{id: "w0", weight: 1, params: filled(6, 1)})
	require.NoError(t, c.Run(context.Background()))

	resp, err := c.Register(&fakeWorker{id: "late", weight: 1})
	require.NoError(t, err)
	require.False(t, resp.Accepted)
}

func TestRegisterReplacesDuplicateID(t *testing.T) {
	c := newTestCoordinator(t)

	c.Register(&fakeWorker{id: "w0", weight: 1})
	c.Register(&fakeWorker{id: "w0", weight: 1})
	require.Equal(t, 1, c.ConnectedWorkers())

	c.Deregister("w0")
	require.Equal(t, 0, c.ConnectedWorkers())
}

func TestRunCancelledWhileAwaitingQuorum(t *testing.T) {
	c := newTestCoordinator(t)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Run(ctx) }()

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

// TestRunWithRealWorkers trains real nearest-centroid workers over a
// partitioned synthetic dataset and checks the run converges to a perfect
// split of the separable clusters.
func TestRunWithRealWorkers(t *testing.T) {
	config := testutil.NewTestConfig(
		testutil.WithTotalRounds(3),
		testutil.WithWorkerCount(3),
		testutil.WithMinParticipants(3),
	)
	ds := testutil.DatasetFor(config, 30)

	c, err := New(config, nil)
	require.NoError(t, err)

	for i := 0; i < config.WorkerCount; i++ {
		partition, err := dataset.NewPartition(ds, i, config.WorkerCount, config.SplitRatio)
		require.NoError(t, err)

		tr, err := trainer.NewCentroidTrainer(config.Classes, len(config.FeatureNames))
		require.NoError(t, err)

		w, err := worker.New(fmt.Sprintf("w%d", i), partition, tr, nil)
		require.NoError(t, err)
		c.Register(w)
	}

	require.NoError(t, c.Run(context.Background()))

	history := c.History()
	require.Len(t, history, 3)
	for _, summary := range history {
		require.Equal(t, 3, summary.ParticipantCount)
		require.InDelta(t, 0.0, summary.Loss, 1e-9)
	}
	require.Len(t, c.GlobalParameters(), config.ParameterShape())
}

func filled(n int, v float64) federation.ParameterVector {
	p := make(federation.ParameterVector, n)
	for i := range p {
		p[i] = v
	}
	return p
}
