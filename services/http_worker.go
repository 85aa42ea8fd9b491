package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/hashicorp/go-hclog"
	"go.uber.org/atomic"

	"github.com/Bhuvana2605/agrismart-backend/federation"
	"github.com/Bhuvana2605/agrismart-backend/worker"
)

// HTTPWorker exposes a worker's training and evaluation operations over HTTP
// and handles registration with the coordinator.
type HTTPWorker struct {
	config     *WorkerServiceConfig
	worker     *worker.Worker
	logger     hclog.Logger
	httpClient *http.Client
	started    *atomic.Bool
	registered *atomic.Bool
}

// NewHTTPWorker creates the worker service around an existing worker.
func NewHTTPWorker(config *WorkerServiceConfig, w *worker.Worker) *HTTPWorker {
	logger := config.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &HTTPWorker{
		config:     config,
		worker:     w,
		logger:     logger.Named("worker-service"),
		httpClient: newHTTPClient(),
		started:    atomic.NewBool(false),
		registered: atomic.NewBool(false),
	}
}

// RegisterRoutes registers the worker's HTTP routes.
func (s *HTTPWorker) RegisterRoutes(r chi.Router) {
	r.Use(middleware.Recoverer)

	r.Post("/fit", s.handleFit)
	r.Post("/evaluate", s.handleEvaluate)
	r.Get("/status", s.handleStatus)
}

// Start registers the worker with the coordinator, retrying until the
// context is cancelled. The HTTP routes must already be served at
// config.HTTPAddr so the coordinator can reach back.
func (s *HTTPWorker) Start(ctx context.Context) {
	if s.started.Swap(true) {
		return
	}

	go func() {
		for {
			err := s.register(ctx)
			if err == nil {
				s.registered.Store(true)
				s.logger.Info("registered with coordinator", "coordinator", s.config.CoordinatorURL)
				return
			}
			s.logger.Warn("registration failed, retrying", "error", err)

			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}()
}

// Registered reports whether the coordinator accepted this worker.
func (s *HTTPWorker) Registered() bool {
	return s.registered.Load()
}

func (s *HTTPWorker) register(ctx context.Context) error {
	req := &federation.RegisterRequest{
		WorkerID:     s.worker.ID(),
		Endpoint:     "http://" + s.config.HTTPAddr,
		TrainSamples: s.worker.TrainSize(),
		EvalSamples:  s.worker.EvalSize(),
	}

	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.CoordinatorURL+"/register", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	var regResp federation.RegisterResponse
	if err := json.NewDecoder(resp.Body).Decode(&regResp); err != nil {
		return err
	}
	if !regResp.Accepted {
		return errors.New("coordinator rejected registration: " + regResp.Message)
	}
	return nil
}

func (s *HTTPWorker) handleFit(w http.ResponseWriter, r *http.Request) {
	var req federation.FitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.worker.Fit(r.Context(), federation.RoundConfig{
		RoundNumber:     req.RoundNumber,
		Parameters:      req.Parameters,
		Hyperparameters: req.Hyperparameters,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(&federation.FitReply{
		WorkerID:    result.WorkerID,
		Parameters:  result.Parameters,
		SampleCount: result.SampleCount,
		TrainMetric: result.TrainMetric,
	})
}

func (s *HTTPWorker) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req federation.EvalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := s.worker.Evaluate(r.Context(), req.RoundNumber, req.Parameters)
	if err != nil {
		s.writeError(w, err)
		return
	}

	json.NewEncoder(w).Encode(&federation.EvalReply{
		WorkerID:    result.WorkerID,
		SampleCount: result.SampleCount,
		Loss:        result.Loss,
		EvalMetric:  result.EvalMetric,
	})
}

func (s *HTTPWorker) handleStatus(w http.ResponseWriter, r *http.Request) {
	json.NewEncoder(w).Encode(&WorkerStatusResponse{
		WorkerID:     s.worker.ID(),
		Registered:   s.registered.Load(),
		TrainSamples: s.worker.TrainSize(),
		EvalSamples:  s.worker.EvalSize(),
		LastFitRound: s.worker.LastFitRound(),
	})
}

func (s *HTTPWorker) writeError(w http.ResponseWriter, err error) {
	reply := &federation.ErrorReply{Kind: federation.KindInternal, Message: err.Error()}
	status := http.StatusInternalServerError

	var localErr *federation.LocalTrainingError
	switch {
	case errors.Is(err, federation.ErrStaleRound):
		reply.Kind = federation.KindStaleRound
		status = http.StatusConflict
	case errors.As(err, &localErr):
		reply.Kind = federation.KindLocalTraining
	}

	s.logger.Error("request failed", "kind", reply.Kind, "error", err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(reply)
}
