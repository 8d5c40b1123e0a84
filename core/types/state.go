package types

// GlobalState holds the chain-wide counters folded into the state digest.
type GlobalState struct {
	TotalSupply uint64 `json:"totalSupply"`
	TotalBurned uint64 `json:"totalBurned"`
	TotalEnergy uint64 `json:"totalEnergy"`
	BlockHeight uint64 `json:"blockHeight"`
	Timestamp   uint64 `json:"timestamp"`
}

// ChainState is a full ledger snapshot. The engine never retains one across
// calls; every entry point receives a snapshot and returns a new (or, on
// failure, the identical) snapshot, so callers own the lifetime.
type ChainState struct {
	NetworkChainID uint8               `json:"networkChainId"`
	Global         GlobalState         `json:"globalState"`
	Accounts       map[Address]*Account `json:"accounts"`

	EnergyResources    map[Address]*EnergyResource    `json:"energyResources,omitempty"`
	MultisigConfigs    map[Address]*MultisigConfig    `json:"multisigConfigs,omitempty"`
	AgentAccounts      map[Address]*AgentAccountMeta  `json:"agentAccounts,omitempty"`
	Committees         map[Hash]*Committee            `json:"committees,omitempty"`
	KYCRecords         map[Address]*KYCRecord         `json:"kycRecords,omitempty"`
	Escrows            map[Hash]*Escrow               `json:"escrows,omitempty"`
	Arbiters           map[Address]*Arbiter           `json:"arbiters,omitempty"`
	ArbitrationCommits map[Hash]*ArbitrationCommit    `json:"arbitrationCommits,omitempty"`
	Names              map[string]*NameRecord         `json:"names,omitempty"`
	NamesByOwner       map[Address]string             `json:"namesByOwner,omitempty"`
	Contracts          map[Hash]*ContractState        `json:"contracts,omitempty"`
	Referrals          map[Address]Address            `json:"referrals,omitempty"`
}

// NewChainState returns an empty snapshot for the given network.
func NewChainState(chainID uint8) *ChainState {
	return &ChainState{
		NetworkChainID:     chainID,
		Accounts:           make(map[Address]*Account),
		EnergyResources:    make(map[Address]*EnergyResource),
		MultisigConfigs:    make(map[Address]*MultisigConfig),
		AgentAccounts:      make(map[Address]*AgentAccountMeta),
		Committees:         make(map[Hash]*Committee),
		KYCRecords:         make(map[Address]*KYCRecord),
		Escrows:            make(map[Hash]*Escrow),
		Arbiters:           make(map[Address]*Arbiter),
		ArbitrationCommits: make(map[Hash]*ArbitrationCommit),
		Names:              make(map[string]*NameRecord),
		NamesByOwner:       make(map[Address]string),
		Contracts:          make(map[Hash]*ContractState),
		Referrals:          make(map[Address]Address),
	}
}

// EnsureMaps allocates any nil side-table maps. Snapshots built by hand in
// tests or decoded from JSON may omit tables entirely; apply paths call this
// once on their private copy so family code can write without nil checks.
func (s *ChainState) EnsureMaps() {
	if s.Accounts == nil {
		s.Accounts = make(map[Address]*Account)
	}
	if s.EnergyResources == nil {
		s.EnergyResources = make(map[Address]*EnergyResource)
	}
	if s.MultisigConfigs == nil {
		s.MultisigConfigs = make(map[Address]*MultisigConfig)
	}
	if s.AgentAccounts == nil {
		s.AgentAccounts = make(map[Address]*AgentAccountMeta)
	}
	if s.Committees == nil {
		s.Committees = make(map[Hash]*Committee)
	}
	if s.KYCRecords == nil {
		s.KYCRecords = make(map[Address]*KYCRecord)
	}
	if s.Escrows == nil {
		s.Escrows = make(map[Hash]*Escrow)
	}
	if s.Arbiters == nil {
		s.Arbiters = make(map[Address]*Arbiter)
	}
	if s.ArbitrationCommits == nil {
		s.ArbitrationCommits = make(map[Hash]*ArbitrationCommit)
	}
	if s.Names == nil {
		s.Names = make(map[string]*NameRecord)
	}
	if s.NamesByOwner == nil {
		s.NamesByOwner = make(map[Address]string)
	}
	if s.Contracts == nil {
		s.Contracts = make(map[Hash]*ContractState)
	}
	if s.Referrals == nil {
		s.Referrals = make(map[Address]Address)
	}
}

// Account returns the record for addr, or nil when absent.
func (s *ChainState) Account(addr Address) *Account {
	return s.Accounts[addr]
}

// EnsureAccount returns the record for addr, creating a zero-valued one when
// absent. Implicit creation mirrors the first-incoming-transfer rule.
func (s *ChainState) EnsureAccount(addr Address) *Account {
	if acct, ok := s.Accounts[addr]; ok {
		return acct
	}
	acct := &Account{Address: addr}
	s.Accounts[addr] = acct
	return acct
}

// EnsureEnergyResource returns the energy side record for addr, creating an
// empty one when absent.
func (s *ChainState) EnsureEnergyResource(addr Address) *EnergyResource {
	if res, ok := s.EnergyResources[addr]; ok {
		return res
	}
	res := &EnergyResource{}
	s.EnergyResources[addr] = res
	return res
}

// Clone returns a fully independent deep copy. Apply paths mutate a clone
// and discard it on failure so the caller's snapshot is never touched.
func (s *ChainState) Clone() *ChainState {
	if s == nil {
		return nil
	}
	cp := &ChainState{
		NetworkChainID: s.NetworkChainID,
		Global:         s.Global,
	}
	cp.Accounts = make(map[Address]*Account, len(s.Accounts))
	for addr, acct := range s.Accounts {
		cp.Accounts[addr] = acct.Clone()
	}
	cp.EnergyResources = make(map[Address]*EnergyResource, len(s.EnergyResources))
	for addr, res := range s.EnergyResources {
		cp.EnergyResources[addr] = res.Clone()
	}
	cp.MultisigConfigs = make(map[Address]*MultisigConfig, len(s.MultisigConfigs))
	for addr, cfg := range s.MultisigConfigs {
		cp.MultisigConfigs[addr] = cfg.Clone()
	}
	cp.AgentAccounts = make(map[Address]*AgentAccountMeta, len(s.AgentAccounts))
	for addr, meta := range s.AgentAccounts {
		cp.AgentAccounts[addr] = meta.Clone()
	}
	cp.Committees = make(map[Hash]*Committee, len(s.Committees))
	for id, committee := range s.Committees {
		cp.Committees[id] = committee.Clone()
	}
	cp.KYCRecords = make(map[Address]*KYCRecord, len(s.KYCRecords))
	for addr, rec := range s.KYCRecords {
		cp.KYCRecords[addr] = rec.Clone()
	}
	cp.Escrows = make(map[Hash]*Escrow, len(s.Escrows))
	for id, escrow := range s.Escrows {
		cp.Escrows[id] = escrow.Clone()
	}
	cp.Arbiters = make(map[Address]*Arbiter, len(s.Arbiters))
	for addr, arb := range s.Arbiters {
		cp.Arbiters[addr] = arb.Clone()
	}
	cp.ArbitrationCommits = make(map[Hash]*ArbitrationCommit, len(s.ArbitrationCommits))
	for id, commit := range s.ArbitrationCommits {
		cp.ArbitrationCommits[id] = commit.Clone()
	}
	cp.Names = make(map[string]*NameRecord, len(s.Names))
	for name, rec := range s.Names {
		cp.Names[name] = rec.Clone()
	}
	cp.NamesByOwner = make(map[Address]string, len(s.NamesByOwner))
	for addr, name := range s.NamesByOwner {
		cp.NamesByOwner[addr] = name
	}
	cp.Contracts = make(map[Hash]*ContractState, len(s.Contracts))
	for id, contract := range s.Contracts {
		cp.Contracts[id] = contract.Clone()
	}
	cp.Referrals = make(map[Address]Address, len(s.Referrals))
	for addr, referrer := range s.Referrals {
		cp.Referrals[addr] = referrer
	}
	return cp
}
