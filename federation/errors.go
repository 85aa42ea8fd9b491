package federation

import (
	"errors"
	"fmt"
)

// ErrStaleRound is returned by a worker receiving a request for a round it
// has already moved past. Requests for the current round number are accepted
// because the coordinator retries failed rounds under the same number.
var ErrStaleRound = errors.New("request for stale round")

// ErrNoResults is returned by the aggregation functions when called with an
// empty result set.
var ErrNoResults = errors.New("no results to aggregate")

// InsufficientDataError indicates a worker's shard would be empty: more
// workers than usable rows. Fatal at worker startup.
type InsufficientDataError struct {
	Rows        int
	WorkerCount int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: %d rows cannot be split across %d workers", e.Rows, e.WorkerCount)
}

// LocalTrainingError indicates a worker's trainer failed on its own shard.
// Recoverable at the round level: the worker is excluded from that round
// only.
type LocalTrainingError struct {
	WorkerID string
	Round    int
	Err      error
}

func (e *LocalTrainingError) Error() string {
	return fmt.Sprintf("worker %s: local training failed in round %d: %v", e.WorkerID, e.Round, e.Err)
}

func (e *LocalTrainingError) Unwrap() error { return e.Err }

// ShapeMismatchError indicates aggregation received parameter vectors of
// differing shape. Fatal for the run: a configuration bug, not transient.
type ShapeMismatchError struct {
	Want int
	Got  int
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("parameter shape mismatch: want %d elements, got %d", e.Want, e.Got)
}

// QuorumTimeoutError indicates a round failed to gather MinParticipants
// results within the per-round timeout. Triggers a bounded retry of the same
// round.
type QuorumTimeoutError struct {
	Round     int
	Collected int
	Required  int
}

func (e *QuorumTimeoutError) Error() string {
	return fmt.Sprintf("round %d: collected %d results, quorum requires %d", e.Round, e.Collected, e.Required)
}

// RunAbortedError indicates round retries were exhausted and the run
// terminated early. The last good global parameters and partial history
// remain readable from the coordinator.
type RunAbortedError struct {
	Round   int
	Retries int
	Err     error
}

func (e *RunAbortedError) Error() string {
	return fmt.Sprintf("run aborted at round %d after %d retries: %v", e.Round, e.Retries, e.Err)
}

func (e *RunAbortedError) Unwrap() error { return e.Err }
