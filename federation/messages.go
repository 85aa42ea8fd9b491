package federation

// Wire message contracts between coordinator and workers. The transport
// itself (HTTP framing, serialization details) lives in the services
// package; these types define what is exchanged, not how.

// RegisterRequest is sent by a worker joining the run before the quorum
// check.
type RegisterRequest struct {
	WorkerID     string `json:"worker_id"`
	Endpoint     string `json:"endpoint"`
	TrainSamples int    `json:"train_samples"`
	EvalSamples  int    `json:"eval_samples"`
}

// RegisterResponse acknowledges a registration. AcceptedRoundStart is the
// first round the worker will be selected for.
type RegisterResponse struct {
	Accepted           bool   `json:"accepted"`
	AcceptedRoundStart int    `json:"accepted_round_start"`
	Message            string `json:"message,omitempty"`
}

// FitRequest asks a worker to train from the given global parameters.
type FitRequest struct {
	RoundNumber     int             `json:"round_number"`
	Parameters      ParameterVector `json:"parameters"`
	Hyperparameters Hyperparameters `json:"hyperparameters"`
}

// FitReply carries a worker's training result.
type FitReply struct {
	WorkerID    string          `json:"worker_id"`
	Parameters  ParameterVector `json:"parameters"`
	SampleCount int             `json:"sample_count"`
	TrainMetric float64         `json:"train_metric"`
}

// EvalRequest asks a worker to score the aggregated parameters against its
// held-out slice.
type EvalRequest struct {
	RoundNumber int             `json:"round_number"`
	Parameters  ParameterVector `json:"parameters"`
}

// EvalReply carries a worker's evaluation result.
type EvalReply struct {
	WorkerID    string  `json:"worker_id"`
	SampleCount int     `json:"sample_count"`
	Loss        float64 `json:"loss"`
	EvalMetric  float64 `json:"eval_metric"`
}

// ErrorKind labels protocol errors on the wire so the coordinator can map a
// worker's failure reply back to the error taxonomy.
type ErrorKind string

const (
	KindLocalTraining    ErrorKind = "local_training"
	KindInsufficientData ErrorKind = "insufficient_data"
	KindStaleRound       ErrorKind = "stale_round"
	KindInternal         ErrorKind = "internal"
)

// ErrorReply is returned by a worker in place of a fit or eval reply.
type ErrorReply struct {
	Kind    ErrorKind `json:"kind"`
	Message string    `json:"message"`
}
