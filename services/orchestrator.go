package services

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hashicorp/go-hclog"

	"github.com/Bhuvana2605/agrismart-backend/dataset"
	"github.com/Bhuvana2605/agrismart-backend/federation"
	"github.com/Bhuvana2605/agrismart-backend/trainer"
	"github.com/Bhuvana2605/agrismart-backend/worker"
)

// OrchestratorConfig contains deployment configuration for an in-process
// training run.
type OrchestratorConfig struct {
	FederationConfig *federation.FederationConfig
	Dataset          dataset.Dataset

	BasePort int // Starting port for services
	Logger   hclog.Logger
}

// Orchestrator deploys a coordinator and one worker per dataset partition
// inside a single process, connected over loopback HTTP. It exists for
// simulations and end-to-end tests.
type Orchestrator struct {
	config *OrchestratorConfig
	logger hclog.Logger

	coordinator *DeployedService
	workers     []*DeployedService

	ctx    context.Context
	cancel context.CancelFunc
}

// DeployedService represents a running service instance.
type DeployedService struct {
	ServiceID  string
	HTTPAddr   string
	HTTPServer *http.Server

	Coordinator *HTTPCoordinator
	Worker      *HTTPWorker
}

// NewOrchestrator creates a deployment orchestrator.
func NewOrchestrator(config *OrchestratorConfig) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())

	logger := config.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	return &Orchestrator{
		config: config,
		logger: logger.Named("orchestrator"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Deploy starts the coordinator and all workers, partitioning the dataset
// across them. Workers register themselves; the run begins once the quorum
// is met.
func (o *Orchestrator) Deploy() error {
	if err := o.deployCoordinator(); err != nil {
		return fmt.Errorf("deploy coordinator: %w", err)
	}
	if err := o.deployWorkers(); err != nil {
		return fmt.Errorf("deploy workers: %w", err)
	}

	o.logger.Info("deployment complete", "workers", len(o.workers))
	return nil
}

// Coordinator returns the deployed coordinator service.
func (o *Orchestrator) Coordinator() *HTTPCoordinator {
	return o.coordinator.Coordinator
}

// CoordinatorURL returns the coordinator's base URL.
func (o *Orchestrator) CoordinatorURL() string {
	return o.coordinator.HTTPAddr
}

func (o *Orchestrator) deployCoordinator() error {
	addr := fmt.Sprintf("localhost:%d", o.config.BasePort)

	svc, err := NewHTTPCoordinator(&CoordinatorServiceConfig{
		FederationConfig: o.config.FederationConfig,
		HTTPAddr:         addr,
		Logger:           o.logger,
	})
	if err != nil {
		return err
	}

	deployed := &DeployedService{
		ServiceID:   "coordinator",
		HTTPAddr:    "http://" + addr,
		Coordinator: svc,
	}

	r := chi.NewRouter()
	svc.RegisterRoutes(r)
	if err := o.serve(deployed, addr, r); err != nil {
		return err
	}

	svc.Start(o.ctx)
	o.coordinator = deployed
	return nil
}

func (o *Orchestrator) deployWorkers() error {
	fc := o.config.FederationConfig

	for i := 0; i < fc.WorkerCount; i++ {
		partition, err := dataset.NewPartition(o.config.Dataset, i, fc.WorkerCount, fc.SplitRatio)
		if err != nil {
			return err
		}

		tr, err := trainer.NewCentroidTrainer(fc.Classes, len(fc.FeatureNames))
		if err != nil {
			return err
		}

		workerID := fmt.Sprintf("worker-%d", i)
		w, err := worker.New(workerID, partition, tr, o.logger)
		if err != nil {
			return err
		}

		addr := fmt.Sprintf("localhost:%d", o.config.BasePort+1+i)
		svc := NewHTTPWorker(&WorkerServiceConfig{
			HTTPAddr:       addr,
			CoordinatorURL: o.coordinator.HTTPAddr,
			Logger:         o.logger,
		}, w)

		deployed := &DeployedService{
			ServiceID: workerID,
			HTTPAddr:  "http://" + addr,
			Worker:    svc,
		}

		r := chi.NewRouter()
		svc.RegisterRoutes(r)
		if err := o.serve(deployed, addr, r); err != nil {
			return err
		}

		svc.Start(o.ctx)
		o.workers = append(o.workers, deployed)
	}

	return nil
}

// serve starts an HTTP server for a deployed service and waits briefly for
// the listener to come up.
func (o *Orchestrator) serve(service *DeployedService, addr string, handler http.Handler) error {
	service.HTTPServer = &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	go func() {
		o.logger.Info("starting service", "service_id", service.ServiceID, "addr", addr)
		if err := service.HTTPServer.ListenAndServe(); err != http.ErrServerClosed {
			o.logger.Error("service stopped", "service_id", service.ServiceID, "error", err)
		}
	}()

	time.Sleep(100 * time.Millisecond)
	return nil
}

// Shutdown stops every deployed service.
func (o *Orchestrator) Shutdown() {
	o.cancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, w := range o.workers {
		if w.HTTPServer != nil {
			w.HTTPServer.Shutdown(shutdownCtx)
		}
	}
	if o.coordinator != nil && o.coordinator.HTTPServer != nil {
		o.coordinator.HTTPServer.Shutdown(shutdownCtx)
	}
}
