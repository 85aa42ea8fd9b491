// Command simulation runs a complete federated training run in a single
// process: it deploys the coordinator and every worker over loopback HTTP,
// waits for the run to finish, and prints the per-round history.
//
// # Usage
//
//	go run ./cmd/simulation --data=crops.csv
//	go run ./cmd/simulation --data=crops.csv --config=run.yaml --rounds=5
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/Bhuvana2605/agrismart-backend/cmd/common"
	"github.com/Bhuvana2605/agrismart-backend/dataset"
	"github.com/Bhuvana2605/agrismart-backend/federation"
	"github.com/Bhuvana2605/agrismart-backend/services"
)

func main() {
	var (
		dataPath   = flag.String("data", "", "Dataset CSV file")
		configPath = flag.String("config", "", "Run configuration YAML file")
		rounds     = flag.Int("rounds", 0, "Override total rounds")
		workers    = flag.Int("workers", 0, "Override worker count")
		basePort   = flag.Int("base-port", 9100, "First port for deployed services")
		logLevel   = flag.String("log-level", "warn", "Log level")
	)
	flag.Parse()

	if *dataPath == "" {
		fmt.Println("Error: --data is required")
		os.Exit(1)
	}

	runConfig, err := common.LoadRunConfig(*configPath)
	if err != nil {
		fmt.Printf("Config error: %v\n", err)
		os.Exit(1)
	}
	if *rounds > 0 {
		runConfig.TotalRounds = *rounds
	}
	if *workers > 0 {
		runConfig.WorkerCount = *workers
	}

	ds, featureNames, err := dataset.LoadCSV(*dataPath)
	if err != nil {
		fmt.Printf("Dataset error: %v\n", err)
		os.Exit(1)
	}
	common.FillFromDataset(runConfig, ds, featureNames)

	if err := runConfig.Validate(); err != nil {
		fmt.Printf("Invalid config: %v\n", err)
		os.Exit(1)
	}

	orch := services.NewOrchestrator(&services.OrchestratorConfig{
		FederationConfig: runConfig,
		Dataset:          ds,
		BasePort:         *basePort,
		Logger:           common.NewLogger("simulation", *logLevel),
	})

	fmt.Printf("Simulating %d rounds across %d workers (%d rows)\n",
		runConfig.TotalRounds, runConfig.WorkerCount, len(ds))

	if err := orch.Deploy(); err != nil {
		fmt.Printf("Deploy error: %v\n", err)
		os.Exit(1)
	}
	defer orch.Shutdown()

	coord := orch.Coordinator().Coordinator()
	for coord.Phase() != federation.Terminated {
		time.Sleep(100 * time.Millisecond)
	}

	if err := coord.RunError(); err != nil {
		fmt.Printf("Run aborted: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nRound history:")
	for _, summary := range coord.History() {
		fmt.Printf("  round %d: participants=%d train_accuracy=%.4f loss=%.4f\n",
			summary.RoundNumber, summary.ParticipantCount, summary.TrainMetric, summary.Loss)
	}
}
