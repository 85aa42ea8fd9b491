package services

import (
	"net/http"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/Bhuvana2605/agrismart-backend/federation"
)

// CoordinatorServiceConfig configures an HTTPCoordinator.
type CoordinatorServiceConfig struct {
	FederationConfig *federation.FederationConfig
	HTTPAddr         string
	Logger           hclog.Logger

	// Store, when non-nil, persists worker registrations.
	Store RegistryStore
}

// WorkerServiceConfig configures an HTTPWorker.
type WorkerServiceConfig struct {
	HTTPAddr       string
	CoordinatorURL string
	Logger         hclog.Logger
}

// RunStatusResponse reports the coordinator's observable state.
type RunStatusResponse struct {
	RunID            string `json:"run_id"`
	Phase            string `json:"phase"`
	CurrentRound     int    `json:"current_round"`
	TotalRounds      int    `json:"total_rounds"`
	ConnectedWorkers int    `json:"connected_workers"`
	Terminated       bool   `json:"terminated"`
	Aborted          bool   `json:"aborted"`
	AbortReason      string `json:"abort_reason,omitempty"`
}

// HistoryResponse carries the ordered per-round aggregated metrics.
type HistoryResponse struct {
	History []federation.RoundSummary `json:"history"`
}

// ParametersResponse carries the current global parameter vector.
type ParametersResponse struct {
	RunID      string                     `json:"run_id"`
	Parameters federation.ParameterVector `json:"parameters"`
}

// WorkerStatusResponse reports a worker's identity and partition sizes.
type WorkerStatusResponse struct {
	WorkerID     string `json:"worker_id"`
	Registered   bool   `json:"registered"`
	TrainSamples int    `json:"train_samples"`
	EvalSamples  int    `json:"eval_samples"`
	LastFitRound int    `json:"last_fit_round"`
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 60 * time.Second}
}
