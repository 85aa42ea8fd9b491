// Package worker implements the participant side of the federated training
// protocol: one autonomous process holding an exclusive dataset partition,
// responding to the coordinator's fit and evaluate requests. A worker is a
// pure responder; it never initiates aggregation logic.
package worker

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/go-hclog"

	"github.com/Bhuvana2605/agrismart-backend/dataset"
	"github.com/Bhuvana2605/agrismart-backend/federation"
	"github.com/Bhuvana2605/agrismart-backend/trainer"
)

// Worker owns one data partition and a local trainer. It keeps exactly one
// logical session with the coordinator for the run's duration.
type Worker struct {
	id        string
	partition *dataset.Partition
	trainer   trainer.Trainer
	logger    hclog.Logger

	mu sync.Mutex
	// lastFitRound is the highest round this worker has trained for.
	// Requests below it are stale retransmissions; equal numbers are
	// allowed because failed rounds are retried under the same number.
	lastFitRound int
}

// New creates a worker. The partition must be non-empty on both slices for
// the worker to be useful in every phase.
func New(id string, partition *dataset.Partition, tr trainer.Trainer, logger hclog.Logger) (*Worker, error) {
	if id == "" {
		return nil, fmt.Errorf("worker id cannot be empty")
	}
	if partition == nil || partition.TotalSize() == 0 {
		return nil, &federation.InsufficientDataError{Rows: 0, WorkerCount: 1}
	}
	if tr == nil {
		return nil, fmt.Errorf("trainer cannot be nil")
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Worker{
		id:           id,
		partition:    partition,
		trainer:      tr,
		logger:       logger.Named("worker").With("worker_id", id),
		lastFitRound: -1,
	}, nil
}

// ID returns the worker's unique identifier.
func (w *Worker) ID() string { return w.id }

// TrainSize returns the train-slice size, the worker's fit weight.
func (w *Worker) TrainSize() int { return len(w.partition.TrainRows) }

// EvalSize returns the held-out slice size, the worker's eval weight.
func (w *Worker) EvalSize() int { return len(w.partition.EvalRows) }

// LastFitRound returns the highest round this worker has trained for, or -1
// before the first fit.
func (w *Worker) LastFitRound() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastFitRound
}

// Fit trains the local predictor from the round's global parameters using
// only this worker's train slice. Training runs to completion synchronously
// within the call. The incoming parameter vector is cloned before training,
// so the coordinator's copy is never written to.
func (w *Worker) Fit(ctx context.Context, cfg federation.RoundConfig) (*federation.FitResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	if cfg.RoundNumber < w.lastFitRound {
		w.mu.Unlock()
		return nil, fmt.Errorf("round %d already served, at %d: %w", cfg.RoundNumber, w.lastFitRound, federation.ErrStaleRound)
	}
	w.lastFitRound = cfg.RoundNumber
	w.mu.Unlock()

	w.logger.Debug("starting local training", "round", cfg.RoundNumber, "train_samples", w.TrainSize())

	updated, metric, err := w.trainer.Fit(cfg.Parameters.Clone(), w.partition.TrainRows, cfg.Hyperparameters)
	if err != nil {
		return nil, &federation.LocalTrainingError{WorkerID: w.id, Round: cfg.RoundNumber, Err: err}
	}

	w.logger.Info("local training complete", "round", cfg.RoundNumber, "train_metric", metric)

	return &federation.FitResult{
		WorkerID:    w.id,
		Parameters:  updated,
		SampleCount: w.TrainSize(),
		TrainMetric: metric,
	}, nil
}

// Evaluate scores the aggregated global parameters against this worker's
// held-out slice only. It does not mutate local state.
func (w *Worker) Evaluate(ctx context.Context, round int, params federation.ParameterVector) (*federation.EvalResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	loss, metric, err := w.trainer.Evaluate(params.Clone(), w.partition.EvalRows)
	if err != nil {
		return nil, &federation.LocalTrainingError{WorkerID: w.id, Round: round, Err: err}
	}

	w.logger.Info("evaluation complete", "round", round, "loss", loss, "eval_metric", metric)

	return &federation.EvalResult{
		WorkerID:    w.id,
		SampleCount: w.EvalSize(),
		Loss:        loss,
		EvalMetric:  metric,
	}, nil
}
