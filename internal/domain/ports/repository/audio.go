package repository

import "context"

// AudioChunkStore persists ordered binary chunks per (namespace, group).
// Append order is the order the store accepted the writes.
type AudioChunkStore interface {
	// Append stores data as the next chunk of the group and returns its 1-based sequence.
	Append(ctx context.Context, namespace string, group int, data []byte) (seq int, err error)
	// Chunks returns the group's chunks in append order; empty when the group has none.
	Chunks(ctx context.Context, namespace string, group int) ([][]byte, error)
	// LatestGroup returns the highest group index present, or 0 when none exists.
	LatestGroup(ctx context.Context, namespace string) (int, error)
	// EnsureGroup creates storage for a group so it counts as present.
	EnsureGroup(ctx context.Context, namespace string, group int) error
	WriteCombined(ctx context.Context, namespace string, group int, data []byte) (location string, err error)
	ReadCombined(ctx context.Context, location string) ([]byte, error)
}
