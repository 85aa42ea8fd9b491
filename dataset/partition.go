package dataset

import (
	"fmt"
	"math/rand"

	"github.com/Bhuvana2605/agrismart-backend/federation"
)

// shuffleSeed fixes the within-shard shuffle so that a worker restarting
// with the same ordinal always reproduces its partition exactly.
const shuffleSeed = 42

// Partition is one worker's exclusive, non-overlapping slice of the dataset,
// split into a train slice and a held-out eval slice. Immutable after
// creation.
type Partition struct {
	WorkerIndex int
	TrainRows   []Row
	EvalRows    []Row
}

// TotalSize returns the number of rows in the partition.
func (p *Partition) TotalSize() int {
	return len(p.TrainRows) + len(p.EvalRows)
}

// NewPartition deterministically slices the dataset for the worker with the
// given ordinal. Worker i receives rows [i*shardSize, (i+1)*shardSize) with
// shardSize = len(dataset)/workerCount; the last worker also receives the
// remainder rows, so the union of all partitions covers the dataset exactly
// once. Within the shard, rows are shuffled with a fixed seed and then split
// splitRatio into train, remainder into eval. The split is not stratified by
// label.
func NewPartition(ds Dataset, workerIndex, workerCount int, splitRatio float64) (*Partition, error) {
	if workerCount < 1 {
		return nil, fmt.Errorf("worker count must be at least 1, got %d", workerCount)
	}
	if workerIndex < 0 || workerIndex >= workerCount {
		return nil, fmt.Errorf("worker index %d out of range [0, %d)", workerIndex, workerCount)
	}
	if splitRatio <= 0 || splitRatio >= 1 {
		return nil, fmt.Errorf("split ratio must be in (0, 1), got %v", splitRatio)
	}

	shardSize := len(ds) / workerCount
	if shardSize == 0 {
		return nil, &federation.InsufficientDataError{Rows: len(ds), WorkerCount: workerCount}
	}

	start := workerIndex * shardSize
	end := start + shardSize
	if workerIndex == workerCount-1 {
		end = len(ds)
	}

	shard := make([]Row, end-start)
	copy(shard, ds[start:end])

	rng := rand.New(rand.NewSource(shuffleSeed))
	rng.Shuffle(len(shard), func(i, j int) {
		shard[i], shard[j] = shard[j], shard[i]
	})

	trainCount := int(splitRatio * float64(len(shard)))
	return &Partition{
		WorkerIndex: workerIndex,
		TrainRows:   shard[:trainCount],
		EvalRows:    shard[trainCount:],
	}, nil
}
