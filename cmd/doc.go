// Package cmd provides CLI commands for the federated training services.
//
// # Commands
//
// coordinator: Runs the central coordinator. Workers register against it and
// it drives the round lifecycle once the quorum is met.
//
//	go run ./cmd/coordinator --addr=:8080 --config=run.yaml
//
// worker: Runs one worker process. Fetches the run configuration from the
// coordinator, loads its dataset shard, and registers.
//
//	go run ./cmd/worker --coordinator=http://localhost:8080 --addr=:9101 \
//	    --data=crops.csv --worker-index=0
//
// simulation: Runs a complete training run in one process, deploying the
// coordinator and all workers over loopback HTTP and printing the per-round
// history when the run finishes.
//
//	go run ./cmd/simulation --data=crops.csv --rounds=3
//
// # Configuration
//
// The coordinator and simulation commands accept a YAML run configuration
// via --config; flags override file values. Workers never take a run
// configuration directly, they bootstrap from the coordinator's /config
// endpoint so every participant shares identical partitioning and class
// ordering.
//
// Example run configuration:
//
//	total_rounds: 3
//	min_participants: 2
//	per_round_timeout: 30s
//	max_round_retries: 2
//	worker_count: 3
//	split_ratio: 0.8
//	feature_names: [N, P, K, temperature, humidity, ph, rainfall]
//	classes: [maize, rice, wheat]
//	hyperparameters:
//	  learning_rate: 0.1
//	  epochs: 1
//	  batch_size: 16
package cmd
