// Package dataset provides the labeled feature table consumed by federated
// training and the deterministic partitioner that assigns each worker its
// exclusive shard.
package dataset

import "sort"

// Row is one labeled observation: a fixed-size numeric feature vector and a
// categorical crop label.
type Row struct {
	Features []float64 `json:"features"`
	Label    string    `json:"label"`
}

// Dataset is an ordered, immutable sequence of labeled rows. It is created
// once at run start and never mutated; partitions reference sub-slices of a
// shared copy.
type Dataset []Row

// Classes returns the sorted unique labels present in the dataset. This is
// the canonical class ordering shared by all workers in a run.
func (d Dataset) Classes() []string {
	seen := make(map[string]struct{})
	for _, row := range d {
		seen[row.Label] = struct{}{}
	}
	classes := make([]string, 0, len(seen))
	for label := range seen {
		classes = append(classes, label)
	}
	sort.Strings(classes)
	return classes
}

// NumFeatures returns the feature vector width, or 0 for an empty dataset.
func (d Dataset) NumFeatures() int {
	if len(d) == 0 {
		return 0
	}
	return len(d[0].Features)
}
