// Package coordinator implements the single process owning the round
// lifecycle of a federated training run: worker membership, the quorum gate,
// concurrent fan-out of fit and evaluate requests with a per-round timeout,
// weighted aggregation of the returned results, and termination.
package coordinator

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/Bhuvana2605/agrismart-backend/federation"
)

// WorkerHandle is the coordinator's view of one connected worker. The
// in-process worker.Worker satisfies it directly; services.HTTPWorkerClient
// satisfies it over HTTP.
type WorkerHandle interface {
	ID() string
	Fit(ctx context.Context, cfg federation.RoundConfig) (*federation.FitResult, error)
	Evaluate(ctx context.Context, round int, params federation.ParameterVector) (*federation.EvalResult, error)
}

// RoundCallback is invoked after each round commits, with the round's
// history entry.
type RoundCallback func(federation.RoundSummary)

// RunState holds everything the coordinator mutates over a run's lifetime.
// It is an explicit object owned by one Coordinator instance; there is no
// process-wide registry.
type RunState struct {
	RunID            string
	CurrentRound     int
	GlobalParameters federation.ParameterVector
	History          []federation.RoundSummary
}

// Coordinator owns the round lifecycle for one run.
type Coordinator struct {
	config *federation.FederationConfig
	logger hclog.Logger

	mu      sync.RWMutex
	phase   federation.RoundPhase
	workers map[string]WorkerHandle
	state   *RunState
	runErr  error

	roundCallback RoundCallback

	// registered is signaled on every registration so the quorum gate can
	// re-check membership without polling.
	registered chan struct{}
}

// New creates a coordinator with a zero initial parameter vector of the
// configured shape.
func New(config *federation.FederationConfig, logger hclog.Logger) (*Coordinator, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Coordinator{
		config:  config,
		logger:  logger.Named("coordinator"),
		phase:   federation.AwaitingQuorum,
		workers: make(map[string]WorkerHandle),
		state: &RunState{
			RunID:            uuid.NewString(),
			GlobalParameters: federation.NewParameterVector(config.ParameterShape()),
		},
		registered: make(chan struct{}, 1),
	}, nil
}

// SetRoundCallback registers a callback invoked when rounds commit. Must be
// set before Run starts.
func (c *Coordinator) SetRoundCallback(cb RoundCallback) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.roundCallback = cb
}

// Register adds a worker to the connected set. A worker re-registering under
// the same ID replaces its previous handle. Returns the first round the
// worker will be selected for.
func (c *Coordinator) Register(w WorkerHandle) (*federation.RegisterResponse, error) {
	c.mu.Lock()
	if c.phase == federation.Terminated {
		c.mu.Unlock()
		return &federation.RegisterResponse{Accepted: false, Message: "run already terminated"}, nil
	}
	c.workers[w.ID()] = w
	startRound := c.state.CurrentRound
	connected := len(c.workers)
	c.mu.Unlock()

	metricConnectedWorkers.Set(float64(connected))
	c.logger.Info("worker registered", "worker_id", w.ID(), "connected", connected)

	select {
	case c.registered <- struct{}{}:
	default:
	}

	return &federation.RegisterResponse{Accepted: true, AcceptedRoundStart: startRound}, nil
}

// Deregister removes a worker from the connected set. An in-flight round
// still waits on the worker's result until the round timeout; the departure
// is observed as a delivery failure.
func (c *Coordinator) Deregister(workerID string) {
	c.mu.Lock()
	delete(c.workers, workerID)
	connected := len(c.workers)
	c.mu.Unlock()

	metricConnectedWorkers.Set(float64(connected))
	c.logger.Info("worker deregistered", "worker_id", workerID, "connected", connected)
}

// Phase returns the coordinator's current lifecycle phase.
func (c *Coordinator) Phase() federation.RoundPhase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.phase
}

// QuorumReached reports whether enough workers are connected to start a
// round.
func (c *Coordinator) QuorumReached() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.workers) >= c.config.MinParticipants
}

// ConnectedWorkers returns the current connected-worker count.
func (c *Coordinator) ConnectedWorkers() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.workers)
}

// RunID returns the unique identifier of this run.
func (c *Coordinator) RunID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.RunID
}

// CurrentRound returns the number of committed rounds.
func (c *Coordinator) CurrentRound() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.CurrentRound
}

// GlobalParameters returns a copy of the current global parameter vector.
// After an aborted run this is the last good vector.
func (c *Coordinator) GlobalParameters() federation.ParameterVector {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.GlobalParameters.Clone()
}

// History returns a copy of the per-round aggregated metrics recorded so
// far.
func (c *Coordinator) History() []federation.RoundSummary {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]federation.RoundSummary, len(c.state.History))
	copy(out, c.state.History)
	return out
}

// RunError returns the terminal error of an aborted run, nil otherwise.
func (c *Coordinator) RunError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.runErr
}

// Run executes the full round lifecycle: block until quorum, then run
// TotalRounds rounds, retrying failed rounds up to MaxRoundRetries. Returns
// nil on completion, a RunAbortedError when retries are exhausted, or the
// context error if the run is canceled. Global parameters and history stay
// readable in every case.
func (c *Coordinator) Run(ctx context.Context) error {
	if err := c.awaitQuorum(ctx); err != nil {
		return err
	}

	for round := 0; round < c.config.TotalRounds; round++ {
		summary, params, err := c.runRoundWithRetries(ctx, round)
		if err != nil {
			c.terminate(err)
			return err
		}
		c.commitRound(summary, params)
	}

	c.terminate(nil)
	c.logger.Info("run complete", "rounds", c.config.TotalRounds)
	return nil
}

// awaitQuorum blocks until MinParticipants workers are connected. This is a
// hard precondition: the coordinator waits, it does not abort.
func (c *Coordinator) awaitQuorum(ctx context.Context) error {
	for {
		if c.QuorumReached() {
			c.logger.Info("quorum reached", "connected", c.ConnectedWorkers(), "required", c.config.MinParticipants)
			return nil
		}
		c.logger.Info("awaiting quorum", "connected", c.ConnectedWorkers(), "required", c.config.MinParticipants)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.registered:
		}
	}
}

// runRoundWithRetries runs one round, retrying quorum failures under the
// same round number. Shape mismatches and context cancellation are not
// retried.
func (c *Coordinator) runRoundWithRetries(ctx context.Context, round int) (federation.RoundSummary, federation.ParameterVector, error) {
	var lastErr error
	for attempt := 0; attempt <= c.config.MaxRoundRetries; attempt++ {
		if attempt > 0 {
			c.logger.Warn("retrying round", "round", round, "attempt", attempt, "error", lastErr)
		}

		summary, params, err := c.runRound(ctx, round)
		if err == nil {
			return summary, params, nil
		}

		var quorumErr *federation.QuorumTimeoutError
		if !errors.As(err, &quorumErr) {
			return federation.RoundSummary{}, nil, err
		}

		metricRoundFailures.Inc()
		lastErr = err
	}

	return federation.RoundSummary{}, nil, &federation.RunAbortedError{
		Round:   round,
		Retries: c.config.MaxRoundRetries,
		Err:     lastErr,
	}
}

// runRound executes one fit+aggregate+evaluate cycle. It never mutates
// RunState: the caller commits the returned summary and parameters only
// after the whole round succeeds, so a failed attempt leaves the previous
// global parameters intact.
func (c *Coordinator) runRound(ctx context.Context, round int) (federation.RoundSummary, federation.ParameterVector, error) {
	started := time.Now()

	c.setPhase(federation.ConfiguringRound)
	participants := c.selectParticipants()
	if len(participants) < c.config.MinParticipants {
		return federation.RoundSummary{}, nil, &federation.QuorumTimeoutError{
			Round:     round,
			Collected: len(participants),
			Required:  c.config.MinParticipants,
		}
	}

	cfg := federation.RoundConfig{
		RoundNumber:     round,
		Parameters:      c.GlobalParameters(),
		Hyperparameters: c.config.Hyperparameters,
	}
	c.logger.Info("round starting", "round", round, "participants", len(participants))

	c.setPhase(federation.CollectingFit)
	fitResults := c.collectFit(ctx, participants, cfg)
	if len(fitResults) < c.config.MinParticipants {
		return federation.RoundSummary{}, nil, &federation.QuorumTimeoutError{
			Round:     round,
			Collected: len(fitResults),
			Required:  c.config.MinParticipants,
		}
	}

	c.setPhase(federation.Aggregating)
	newParams, trainMetric, err := federation.AggregateFitResults(fitResults)
	if err != nil {
		return federation.RoundSummary{}, nil, err
	}

	c.setPhase(federation.CollectingEval)
	evalResults := c.collectEval(ctx, participants, round, newParams)
	if len(evalResults) < c.config.MinParticipants {
		return federation.RoundSummary{}, nil, &federation.QuorumTimeoutError{
			Round:     round,
			Collected: len(evalResults),
			Required:  c.config.MinParticipants,
		}
	}

	loss, evalMetric, err := federation.AggregateEvalResults(evalResults)
	if err != nil {
		return federation.RoundSummary{}, nil, err
	}

	metricRoundDuration.Observe(time.Since(started).Seconds())
	c.logger.Info("round finished",
		"round", round,
		"participants", len(fitResults),
		"train_metric", trainMetric,
		"loss", loss,
		"eval_metric", evalMetric,
	)

	return federation.RoundSummary{
		RoundNumber:      round,
		TrainMetric:      trainMetric,
		Loss:             loss,
		ParticipantCount: len(fitResults),
	}, newParams, nil
}

// selectParticipants snapshots the connected worker set. This design selects
// all connected workers every round.
func (c *Coordinator) selectParticipants() []WorkerHandle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	participants := make([]WorkerHandle, 0, len(c.workers))
	for _, w := range c.workers {
		participants = append(participants, w)
	}
	return participants
}

// collectFit fans the round config out to every participant concurrently
// and gathers replies behind a barrier bounded by the per-round timeout.
// Individual failures are logged and excluded; stragglers past the timeout
// are discarded, not waited on.
func (c *Coordinator) collectFit(ctx context.Context, participants []WorkerHandle, cfg federation.RoundConfig) []federation.FitResult {
	rctx, cancel := context.WithTimeout(ctx, c.config.PerRoundTimeout)
	defer cancel()

	type reply struct {
		result *federation.FitResult
		err    error
		worker string
	}

	replies := make(chan reply, len(participants))
	for _, w := range participants {
		go func(w WorkerHandle) {
			result, err := w.Fit(rctx, cfg.Clone())
			replies <- reply{result: result, err: err, worker: w.ID()}
		}(w)
	}

	var results []federation.FitResult
	for range participants {
		select {
		case <-rctx.Done():
			c.logger.Warn("fit collection timed out", "round", cfg.RoundNumber, "collected", len(results))
			return results
		case r := <-replies:
			if r.err != nil {
				metricWorkerFailures.WithLabelValues("fit").Inc()
				c.logger.Warn("worker failed fit", "round", cfg.RoundNumber, "worker_id", r.worker, "error", r.err)
				continue
			}
			results = append(results, *r.result)
		}
	}
	return results
}

// collectEval mirrors collectFit for the evaluation phase, with its own
// timeout window.
func (c *Coordinator) collectEval(ctx context.Context, participants []WorkerHandle, round int, params federation.ParameterVector) []federation.EvalResult {
	rctx, cancel := context.WithTimeout(ctx, c.config.PerRoundTimeout)
	defer cancel()

	type reply struct {
		result *federation.EvalResult
		err    error
		worker string
	}

	replies := make(chan reply, len(participants))
	for _, w := range participants {
		go func(w WorkerHandle) {
			result, err := w.Evaluate(rctx, round, params.Clone())
			replies <- reply{result: result, err: err, worker: w.ID()}
		}(w)
	}

	var results []federation.EvalResult
	for range participants {
		select {
		case <-rctx.Done():
			c.logger.Warn("eval collection timed out", "round", round, "collected", len(results))
			return results
		case r := <-replies:
			if r.err != nil {
				metricWorkerFailures.WithLabelValues("evaluate").Inc()
				c.logger.Warn("worker failed evaluate", "round", round, "worker_id", r.worker, "error", r.err)
				continue
			}
			results = append(results, *r.result)
		}
	}
	return results
}

// commitRound is the single point where RunState advances: parameters are
// replaced, history is appended, and the round counter increments.
func (c *Coordinator) commitRound(summary federation.RoundSummary, params federation.ParameterVector) {
	c.mu.Lock()
	c.state.GlobalParameters = params
	c.state.History = append(c.state.History, summary)
	c.state.CurrentRound = summary.RoundNumber + 1
	c.phase = federation.RoundComplete
	cb := c.roundCallback
	c.mu.Unlock()

	metricRoundsCompleted.Inc()
	if cb != nil {
		go cb(summary)
	}
}

func (c *Coordinator) terminate(err error) {
	c.mu.Lock()
	c.phase = federation.Terminated
	c.runErr = err
	c.mu.Unlock()
	if err != nil {
		c.logger.Error("run aborted", "error", err)
	}
}

func (c *Coordinator) setPhase(p federation.RoundPhase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
}
