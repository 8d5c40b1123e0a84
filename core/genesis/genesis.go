// Package genesis loads and saves chain state snapshots. Snapshots are
// the only exchange schema the engine must stay compatible with: a JSON
// or YAML document carrying the network chain id, global totals and the
// visible account fields. Side tables are rebuilt by replaying
// transactions and are not part of the snapshot.
package genesis

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"gopkg.in/yaml.v3"

	"toschain/core/errors"
	"toschain/core/types"
)

// SnapshotAccount is the serialized form of one account.
type SnapshotAccount struct {
	Address hexutil.Bytes `json:"address" yaml:"address"`
	Balance uint64        `json:"balance" yaml:"balance"`
	Nonce   uint64        `json:"nonce" yaml:"nonce"`
	Frozen  uint64        `json:"frozen" yaml:"frozen"`
	Energy  uint64        `json:"energy" yaml:"energy"`
	Flags   uint64        `json:"flags" yaml:"flags"`
	Data    hexutil.Bytes `json:"data,omitempty" yaml:"data,omitempty"`
}

// SnapshotGlobal mirrors types.GlobalState.
type SnapshotGlobal struct {
	TotalSupply uint64 `json:"total_supply" yaml:"total_supply"`
	TotalBurned uint64 `json:"total_burned" yaml:"total_burned"`
	TotalEnergy uint64 `json:"total_energy" yaml:"total_energy"`
	BlockHeight uint64 `json:"block_height" yaml:"block_height"`
	Timestamp   uint64 `json:"timestamp" yaml:"timestamp"`
}

// Snapshot is the on-disk state document.
type Snapshot struct {
	NetworkChainID uint8             `json:"network_chain_id" yaml:"network_chain_id"`
	Global         SnapshotGlobal    `json:"global_state" yaml:"global_state"`
	Accounts       []SnapshotAccount `json:"accounts" yaml:"accounts"`
}

// FromState captures a snapshot of st. Accounts are sorted by address so
// the document is deterministic.
func FromState(st *types.ChainState) *Snapshot {
	snap := &Snapshot{
		NetworkChainID: st.NetworkChainID,
		Global: SnapshotGlobal{
			TotalSupply: st.Global.TotalSupply,
			TotalBurned: st.Global.TotalBurned,
			TotalEnergy: st.Global.TotalEnergy,
			BlockHeight: st.Global.BlockHeight,
			Timestamp:   st.Global.Timestamp,
		},
	}
	addrs := make([]types.Address, 0, len(st.Accounts))
	for addr := range st.Accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return string(addrs[i][:]) < string(addrs[j][:])
	})
	for _, addr := range addrs {
		acct := st.Accounts[addr]
		snap.Accounts = append(snap.Accounts, SnapshotAccount{
			Address: append(hexutil.Bytes(nil), addr[:]...),
			Balance: acct.Balance,
			Nonce:   acct.Nonce,
			Frozen:  acct.Frozen,
			Energy:  acct.Energy,
			Flags:   acct.Flags,
			Data:    append(hexutil.Bytes(nil), acct.Data...),
		})
	}
	return snap
}

// ToState materialises the snapshot into an engine state.
func (s *Snapshot) ToState() (*types.ChainState, error) {
	st := types.NewChainState(s.NetworkChainID)
	st.Global = types.GlobalState{
		TotalSupply: s.Global.TotalSupply,
		TotalBurned: s.Global.TotalBurned,
		TotalEnergy: s.Global.TotalEnergy,
		BlockHeight: s.Global.BlockHeight,
		Timestamp:   s.Global.Timestamp,
	}
	for i := range s.Accounts {
		sa := &s.Accounts[i]
		if len(sa.Address) != 32 {
			return nil, errors.Errorf(errors.CodeInvalidFormat,
				"account %d: address must be 32 bytes, got %d", i, len(sa.Address))
		}
		var addr types.Address
		copy(addr[:], sa.Address)
		if _, dup := st.Accounts[addr]; dup {
			return nil, errors.Errorf(errors.CodeInvalidFormat,
				"account %d: duplicate address %s", i, hexutil.Encode(sa.Address))
		}
		st.Accounts[addr] = &types.Account{
			Address: addr,
			Balance: sa.Balance,
			Nonce:   sa.Nonce,
			Frozen:  sa.Frozen,
			Energy:  sa.Energy,
			Flags:   sa.Flags,
			Data:    append([]byte(nil), sa.Data...),
		}
	}
	return st, nil
}

// Load reads a snapshot document. The format is chosen by extension:
// .yaml/.yml parse as YAML, everything else as JSON.
func Load(path string) (*types.ChainState, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &snap); err != nil {
			return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(raw, &snap); err != nil {
			return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
		}
	}
	return snap.ToState()
}

// Save writes st to path, JSON or YAML by extension.
func Save(path string, st *types.ChainState) error {
	snap := FromState(st)
	var raw []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		raw, err = yaml.Marshal(snap)
	default:
		raw, err = json.MarshalIndent(snap, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	return os.WriteFile(path, raw, 0o644)
}
