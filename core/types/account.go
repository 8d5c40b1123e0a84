package types

// Address is a raw 32-byte account key.
type Address [32]byte

// Hash is a 32-byte content hash.
type Hash [32]byte

var (
	ZeroAddress Address
	ZeroHash    Hash
)

// Account is the externally visible record for one address. All numeric
// fields are unsigned 64-bit; every mutation must be overflow-checked by the
// caller.
type Account struct {
	Address Address `json:"address"`
	Balance uint64  `json:"balance"`
	Nonce   uint64  `json:"nonce"`
	Frozen  uint64  `json:"frozen"`
	Energy  uint64  `json:"energy"`
	Flags   uint64  `json:"flags"`
	Data    []byte  `json:"data,omitempty"`
}

// Clone returns a deep copy.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	if a.Data != nil {
		cp.Data = append([]byte(nil), a.Data...)
	}
	return &cp
}

// FreezeRecord tracks one self-freeze of the primary coin.
type FreezeRecord struct {
	Amount       uint64 `json:"amount"`
	EnergyGained uint64 `json:"energyGained"`
	FreezeHeight uint64 `json:"freezeHeight"`
	UnlockHeight uint64 `json:"unlockHeight"`
}

// DelegatedFreezeRecord tracks a freeze whose energy accrues to a delegatee.
type DelegatedFreezeRecord struct {
	Delegatee    Address `json:"delegatee"`
	Amount       uint64  `json:"amount"`
	EnergyGained uint64  `json:"energyGained"`
	FreezeHeight uint64  `json:"freezeHeight"`
	UnlockHeight uint64  `json:"unlockHeight"`
}

// PendingUnfreeze is principal waiting out the unfreeze cooldown.
type PendingUnfreeze struct {
	Amount         uint64 `json:"amount"`
	FromDelegation bool   `json:"fromDelegation"`
	ExpireHeight   uint64 `json:"expireHeight"`
}

// EnergyResource is the per-account energy bookkeeping side record.
type EnergyResource struct {
	FreezeRecords    []FreezeRecord          `json:"freezeRecords,omitempty"`
	DelegatedRecords []DelegatedFreezeRecord `json:"delegatedRecords,omitempty"`
	PendingUnfreezes []PendingUnfreeze       `json:"pendingUnfreezes,omitempty"`
	FrozenTOS        uint64                  `json:"frozenTos"`
	Energy           uint64                  `json:"energy"`
}

// Clone returns a deep copy.
func (r *EnergyResource) Clone() *EnergyResource {
	if r == nil {
		return nil
	}
	cp := &EnergyResource{FrozenTOS: r.FrozenTOS, Energy: r.Energy}
	if r.FreezeRecords != nil {
		cp.FreezeRecords = append([]FreezeRecord(nil), r.FreezeRecords...)
	}
	if r.DelegatedRecords != nil {
		cp.DelegatedRecords = append([]DelegatedFreezeRecord(nil), r.DelegatedRecords...)
	}
	if r.PendingUnfreezes != nil {
		cp.PendingUnfreezes = append([]PendingUnfreeze(nil), r.PendingUnfreezes...)
	}
	return cp
}
