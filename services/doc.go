// Package services provides the HTTP transport layer for the federated
// training protocol and the wiring that turns the pure coordinator and
// worker packages into network services.
//
// # Components
//
//   - HTTPCoordinator: exposes the coordinator over HTTP: worker
//     registration, the run configuration endpoint workers bootstrap from,
//     run status and history, a WebSocket stream of round completions, and
//     Prometheus metrics.
//
//   - HTTPWorker: exposes a worker's fit and evaluate operations and
//     registers the worker with the coordinator at startup.
//
//   - HTTPWorkerClient: the coordinator-side handle that forwards fit and
//     evaluate calls to a remote worker's endpoints, mapping error replies
//     back to the protocol error taxonomy.
//
//   - RegistryStore / PostgresStore: optional persistence of worker
//     registrations for membership auditing. Round history is deliberately
//     kept in memory only.
//
//   - Orchestrator: deploys a full federation (one coordinator plus N
//     workers) in-process on localhost ports, used by the simulation
//     command and the end-to-end tests.
//
// The protocol message contracts live in the federation package; this
// package only moves them over HTTP as JSON.
package services
