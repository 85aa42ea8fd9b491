// Package federation implements the round-based coordination protocol used to
// train the crop recommendation model across independent workers, each holding
// a private partition of the dataset. Raw feature rows never leave a worker;
// only parameter vectors and sample-weighted metrics are exchanged.
//
// # Protocol Workflow
//
// A run consists of a configured number of rounds, each a fit-then-evaluate
// cycle coordinated by a single coordinator process:
//
//  1. Workers register with the coordinator. No round starts until at least
//     MinParticipants workers are connected (the quorum).
//
//  2. ConfiguringRound: the coordinator snapshots the connected worker set
//     and broadcasts an identical RoundConfig (round number, a copy of the
//     global parameter vector, and hyperparameters) to every participant.
//
//  3. CollectingFit: each worker trains its local predictor on its own train
//     slice and returns a FitResult carrying the updated parameter vector and
//     its train-slice size as the aggregation weight. The coordinator waits
//     behind a fan-in barrier bounded by the per-round timeout.
//
//  4. Aggregating: successful fit results are combined with a sample-weighted
//     mean (federated averaging) to produce the next global parameter vector.
//
//  5. CollectingEval: the new vector is broadcast back to the same
//     participants for evaluation against their held-out slices; losses are
//     aggregated with the same weighted mean.
//
// A worker that times out or fails locally is excluded from that round only.
// If fewer than MinParticipants results arrive, the round itself fails and is
// retried under the same round number up to MaxRoundRetries times before the
// run aborts.
//
// # Package Contents
//
// This package defines the protocol's shared vocabulary and pure logic:
// configuration (FederationConfig, Hyperparameters), the parameter vector and
// per-round result types, the round phase enumeration, the wire message
// contracts exchanged between coordinator and workers, the error taxonomy,
// and the weighted-mean aggregation functions. The stateful halves of the
// protocol live in the coordinator and worker packages; HTTP transport lives
// in services.
//
// # Aggregation Semantics
//
// AggregateVectors computes an element-wise weighted mean over parameter
// vectors of identical shape. The result is independent of the order in which
// results arrived, so the coordinator never needs to sort or sequence worker
// replies within a round.
package federation
