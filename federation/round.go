package federation

// ParameterVector is the opaque global model state exchanged each round: the
// flattened class-centroid table, row c holding the mean feature vector of
// class c. Its shape is fixed by the run configuration. The coordinator owns
// its copy between rounds; workers receive clones and return new vectors.
type ParameterVector []float64

// Clone returns an independent copy of the vector.
func (p ParameterVector) Clone() ParameterVector {
	if p == nil {
		return nil
	}
	out := make(ParameterVector, len(p))
	copy(out, p)
	return out
}

// SameShape reports whether two vectors can be aggregated together.
func (p ParameterVector) SameShape(other ParameterVector) bool {
	return len(p) == len(other)
}

// NewParameterVector returns a zero vector of the given shape.
func NewParameterVector(shape int) ParameterVector {
	return make(ParameterVector, shape)
}

// RoundPhase identifies the coordinator's position in the round lifecycle.
type RoundPhase int

const (
	AwaitingQuorum RoundPhase = iota
	ConfiguringRound
	CollectingFit
	Aggregating
	CollectingEval
	RoundComplete
	Terminated
)

func (p RoundPhase) String() string {
	switch p {
	case AwaitingQuorum:
		return "awaiting_quorum"
	case ConfiguringRound:
		return "configuring_round"
	case CollectingFit:
		return "collecting_fit"
	case Aggregating:
		return "aggregating"
	case CollectingEval:
		return "collecting_eval"
	case RoundComplete:
		return "round_complete"
	case Terminated:
		return "terminated"
	}
	return "unknown"
}

// RoundConfig is broadcast to every selected worker at the start of a round's
// fit phase. Immutable once sent; Parameters is the worker's own copy.
type RoundConfig struct {
	RoundNumber     int             `json:"round_number"`
	Parameters      ParameterVector `json:"parameters"`
	Hyperparameters Hyperparameters `json:"hyperparameters"`
}

// Clone returns a RoundConfig whose parameter vector is independent of the
// original, so a worker can never write into the coordinator's copy.
func (c RoundConfig) Clone() RoundConfig {
	c.Parameters = c.Parameters.Clone()
	return c
}

// FitResult is produced by a worker's training step. SampleCount is the
// worker's train-slice size and serves as the aggregation weight.
type FitResult struct {
	WorkerID    string          `json:"worker_id"`
	Parameters  ParameterVector `json:"parameters"`
	SampleCount int             `json:"sample_count"`
	TrainMetric float64         `json:"train_metric"`
}

// EvalResult is produced by a worker's evaluation of the aggregated vector
// against its held-out slice.
type EvalResult struct {
	WorkerID    string  `json:"worker_id"`
	SampleCount int     `json:"sample_count"`
	Loss        float64 `json:"loss"`
	EvalMetric  float64 `json:"eval_metric"`
}

// RoundSummary is one entry of the run history, recorded when a round
// commits.
type RoundSummary struct {
	RoundNumber      int     `json:"round_number"`
	TrainMetric      float64 `json:"train_metric"`
	Loss             float64 `json:"loss"`
	ParticipantCount int     `json:"participant_count"`
}
