package storage

import (
	"encoding/json"
	"fmt"

	"toschain/core"
	"toschain/core/genesis"
	"toschain/core/types"
)

var latestKey = []byte("snapshot/latest")

func digestKey(digest [32]byte) []byte {
	return append([]byte("snapshot/"), digest[:]...)
}

// SnapshotStore persists state snapshots keyed by their canonical digest,
// plus a pointer to the most recently stored one. Replays that reach the
// same state always land on the same key, so storing is idempotent.
type SnapshotStore struct {
	db Database
}

// NewSnapshotStore wraps db.
func NewSnapshotStore(db Database) *SnapshotStore {
	return &SnapshotStore{db: db}
}

// Put stores the snapshot and advances the latest pointer. It returns the
// digest the state was stored under.
func (s *SnapshotStore) Put(st *types.ChainState) ([32]byte, error) {
	digest := core.ComputeStateDigest(st)
	raw, err := json.Marshal(genesis.FromState(st))
	if err != nil {
		return digest, fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.db.Put(digestKey(digest), raw); err != nil {
		return digest, fmt.Errorf("store snapshot: %w", err)
	}
	if err := s.db.Put(latestKey, digest[:]); err != nil {
		return digest, fmt.Errorf("store latest pointer: %w", err)
	}
	return digest, nil
}

// Get loads the snapshot stored under digest.
func (s *SnapshotStore) Get(digest [32]byte) (*types.ChainState, error) {
	raw, err := s.db.Get(digestKey(digest))
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	var snap genesis.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap.ToState()
}

// Latest loads the most recently stored snapshot and its digest.
func (s *SnapshotStore) Latest() (*types.ChainState, [32]byte, error) {
	var digest [32]byte
	raw, err := s.db.Get(latestKey)
	if err != nil {
		return nil, digest, fmt.Errorf("load latest pointer: %w", err)
	}
	if len(raw) != 32 {
		return nil, digest, fmt.Errorf("corrupt latest pointer: %d bytes", len(raw))
	}
	copy(digest[:], raw)
	st, err := s.Get(digest)
	return st, digest, err
}
