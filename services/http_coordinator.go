package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/atomic"

	"github.com/Bhuvana2605/agrismart-backend/coordinator"
	"github.com/Bhuvana2605/agrismart-backend/federation"
)

// HTTPCoordinator exposes a coordinator over HTTP: worker registration, the
// run configuration workers bootstrap from, run status and history, a
// WebSocket stream of round completions, and Prometheus metrics.
type HTTPCoordinator struct {
	config     *CoordinatorServiceConfig
	coord      *coordinator.Coordinator
	logger     hclog.Logger
	httpClient *http.Client
	events     *eventHub
	started    *atomic.Bool
}

// NewHTTPCoordinator creates the coordinator service.
func NewHTTPCoordinator(config *CoordinatorServiceConfig) (*HTTPCoordinator, error) {
	logger := config.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	coord, err := coordinator.New(config.FederationConfig, logger)
	if err != nil {
		return nil, err
	}

	c := &HTTPCoordinator{
		config:     config,
		coord:      coord,
		logger:     logger.Named("coordinator-service"),
		httpClient: newHTTPClient(),
		events:     newEventHub(logger),
		started:    atomic.NewBool(false),
	}

	coord.SetRoundCallback(c.events.broadcast)
	return c, nil
}

// Coordinator returns the underlying coordinator for in-process access.
func (c *HTTPCoordinator) Coordinator() *coordinator.Coordinator {
	return c.coord
}

// RegisterRoutes registers the coordinator's HTTP routes.
func (c *HTTPCoordinator) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Recoverer)

	r.Post("/register", c.handleRegister)
	r.Get("/config", c.handleConfig)
	r.Get("/run", c.handleRunStatus)
	r.Get("/run/history", c.handleHistory)
	r.Get("/run/parameters", c.handleParameters)
	r.Get("/events", c.events.handleSubscribe)
	r.Handle("/metrics", promhttp.Handler())
}

// Start launches the run loop. The loop blocks in AwaitingQuorum until
// enough workers register over HTTP.
func (c *HTTPCoordinator) Start(ctx context.Context) {
	if c.started.Swap(true) {
		return
	}

	go func() {
		if err := c.coord.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			c.logger.Error("run ended with error", "error", err)
		}
		c.events.close()
	}()
}

func (c *HTTPCoordinator) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req federation.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if req.WorkerID == "" || req.Endpoint == "" {
		http.Error(w, "worker_id and endpoint are required", http.StatusBadRequest)
		return
	}

	handle := NewHTTPWorkerClient(req.WorkerID, req.Endpoint, c.httpClient)
	resp, err := c.coord.Register(handle)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	if c.config.Store != nil {
		if err := c.config.Store.SaveWorker(r.Context(), &req); err != nil {
			c.logger.Warn("failed to persist worker registration", "worker_id", req.WorkerID, "error", err)
		}
	}

	json.NewEncoder(w).Encode(resp)
}

func (c *HTTPCoordinator) handleConfig(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(c.config.FederationConfig)
}

func (c *HTTPCoordinator) handleRunStatus(w http.ResponseWriter, r *http.Request) {
	phase := c.coord.Phase()
	runErr := c.coord.RunError()

	status := &RunStatusResponse{
		RunID:            c.coord.RunID(),
		Phase:            phase.String(),
		CurrentRound:     c.coord.CurrentRound(),
		TotalRounds:      c.config.FederationConfig.TotalRounds,
		ConnectedWorkers: c.coord.ConnectedWorkers(),
		Terminated:       phase == federation.Terminated,
		Aborted:          runErr != nil,
	}
	if runErr != nil {
		status.AbortReason = runErr.Error()
	}

	json.NewEncoder(w).Encode(status)
}

func (c *HTTPCoordinator) handleHistory(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(&HistoryResponse{History: c.coord.History()})
}

func (c *HTTPCoordinator) handleParameters(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(&ParametersResponse{
		RunID:      c.coord.RunID(),
		Parameters: c.coord.GlobalParameters(),
	})
}

// FetchConfig retrieves the run configuration from a coordinator's /config
// endpoint. Workers call this at startup so every participant shares the
// same partitioning and class ordering.
func FetchConfig(coordinatorURL string) (*federation.FederationConfig, error) {
	resp, err := http.Get(coordinatorURL + "/config")
	if err != nil {
		return nil, fmt.Errorf("fetch config: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("coordinator returned status %d", resp.StatusCode)
	}

	var config federation.FederationConfig
	if err := json.NewDecoder(resp.Body).Decode(&config); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &config, nil
}
