// Command coordinator runs the central coordinator of a federated training
// run.
//
// The coordinator owns the run lifecycle: it waits for the configured quorum
// of workers to register, then drives the rounds, aggregating the weighted
// parameter updates and evaluation metrics each round. Run status, history,
// and the current global parameters are readable over HTTP at any time, and
// round completions stream over the /events WebSocket.
//
// # Usage
//
//	go run ./cmd/coordinator --addr=:8080 --config=run.yaml
//	go run ./cmd/coordinator --addr=:8080 --config=run.yaml --postgres
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

	"github.com/caarlos0/env/v11"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/Bhuvana2605/agrismart-backend/cmd/common"
	"github.com/Bhuvana2605/agrismart-backend/services"
)

func main() {
	var (
		addr        = flag.String("addr", ":8080", "HTTP listen address")
		configPath  = flag.String("config", "", "Run configuration YAML file")
		logLevel    = flag.String("log-level", "info", "Log level")
		usePostgres = flag.Bool("postgres", false, "Persist worker registrations to PostgreSQL (POSTGRES_* env vars)")
	)
	flag.Parse()

	logger := common.NewLogger("agrismart", *logLevel)

	runConfig, err := common.LoadRunConfig(*configPath)
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}
	if err := runConfig.Validate(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}

	var store services.RegistryStore
	if *usePostgres {
		var pgConfig services.PostgresConfig
		if err := env.Parse(&pgConfig); err != nil {
			fmt.Printf("Postgres config error: %v\n", err)
			os.Exit(1)
		}
		pgStore, err := services.NewPostgresStore(&pgConfig)
		if err != nil {
			fmt.Printf("Postgres error: %v\n", err)
			os.Exit(1)
		}
		defer pgStore.Close()
		store = pgStore
	}

	svc, err := services.NewHTTPCoordinator(&services.CoordinatorServiceConfig{
		FederationConfig: runConfig,
		HTTPAddr:         *addr,
		Logger:           logger,
		Store:            store,
	})
	if err != nil {
		fmt.Printf("Create coordinator error: %v\n", err)
		os.Exit(1)
	}

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
		fmt.Printf("Coordinator listening on %s (rounds=%d, quorum=%d)\n",
			*addr, runConfig.TotalRounds, runConfig.MinParticipants)
		if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)
		}
	}()

	svc.Start(ctx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	fmt.Println("Shutting down coordinator...")
	cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		fmt.Printf("Shutdown error: %v\n", err)
	}
}
