// Command worker runs one training worker.
//
// The worker bootstraps from the coordinator's /config endpoint so every
// participant shares the same partitioning parameters and class ordering,
// loads the dataset CSV, takes the shard matching its --worker-index, and
// registers. Registration retries until the coordinator is reachable.
//
// # Usage
//
//	go run ./cmd/worker --coordinator=http://localhost:8080 --addr=:9101 \
//	    --data=crops.csv --worker-index=0
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Bhuvana2605/agrismart-backend/cmd/common"
	"github.com/Bhuvana2605/agrismart-backend/dataset"
	"github.com/Bhuvana2605/agrismart-backend/services"
	"github.com/Bhuvana2605/agrismart-backend/trainer"
	"github.com/Bhuvana2605/agrismart-backend/worker"
)

func main() {
	var (
		addr           = flag.String("addr", ":9101", "HTTP listen address")
		coordinatorURL = flag.String("coordinator", "", "Coordinator base URL")
		dataPath       = flag.String("data", "", "Dataset CSV file")
		workerIndex    = flag.Int("worker-index", 0, "This worker's shard ordinal")
		workerID       = flag.String("worker-id", "", "Worker identifier (defaults to worker-<index>)")
		logLevel       = flag.String("log-level", "info", "Log level")
	)
	flag.Parse()

	if *coordinatorURL == "" {
		fmt.Println("Error: --coordinator is required")
		os.Exit(1)
	}
	if *dataPath == "" {
		fmt.Println("Error: --data is required")
		os.Exit(1)
	}
	if *workerID == "" {
		*workerID = fmt.Sprintf("worker-%d", *workerIndex)
	}

	logger := common.NewLogger(*workerID, *logLevel)

	runConfig, err := services.FetchConfig(*coordinatorURL)
	if err != nil {
		fmt.Printf("Error fetching config: %v\n", err)
		os.Exit(1)
	}

	ds, _, err := dataset.LoadCSV(*dataPath)
	if err != nil {
		fmt.Printf("Dataset error: %v\n", err)
		os.Exit(1)
	}

	partition, err := dataset.NewPartition(ds, *workerIndex, runConfig.WorkerCount, runConfig.SplitRatio)
	if err != nil {
		fmt.Printf("Partition error: %v\n", err)
		os.Exit(1)
	}

	tr, err := trainer.NewCentroidTrainer(runConfig.Classes, len(runConfig.FeatureNames))
	if err != nil {
		fmt.Printf("Trainer error: %v\n", err)
		os.Exit(1)
	}

	w, err := worker.New(*workerID, partition, tr, logger)
	if err != nil {
		fmt.Printf("Create worker error: %v\n", err)
		os.Exit(1)
	}

	svc := services.NewHTTPWorker(&services.WorkerServiceConfig{
		HTTPAddr:       hostPort(*addr),
		CoordinatorURL: *coordinatorURL,
		Logger:         logger,
	}, w)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	svc.RegisterRoutes(r)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		fmt.Printf("Worker %s listening on %s (train=%d, eval=%d)\n",
			*workerID, *addr, w.TrainSize(), w.EvalSize())
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	time.Sleep(100 * time.Millisecond)
	svc.Start(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	fmt.Println("Shutting down worker...")
	cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("Shutdown error: %v\n", err)
	}
}

// hostPort turns a listen address like ":9101" into an address the
// coordinator can dial back.
func hostPort(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
