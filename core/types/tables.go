package types

// EscrowStatus is the escrow state machine position.
type EscrowStatus uint8

const (
	EscrowCreated EscrowStatus = iota
	EscrowFunded
	EscrowPendingRelease
	EscrowReleased
	EscrowRefunded
	EscrowChallenged
	EscrowResolved
)

// Valid reports whether the status is a known machine state.
func (s EscrowStatus) Valid() bool { return s <= EscrowResolved }

func (s EscrowStatus) String() string {
	switch s {
	case EscrowCreated:
		return "created"
	case EscrowFunded:
		return "funded"
	case EscrowPendingRelease:
		return "pending_release"
	case EscrowReleased:
		return "released"
	case EscrowRefunded:
		return "refunded"
	case EscrowChallenged:
		return "challenged"
	case EscrowResolved:
		return "resolved"
	default:
		return "unknown"
	}
}

// Escrow is a funded agreement between a payer and a payee.
type Escrow struct {
	ID                  Hash         `json:"id"`
	TaskID              string       `json:"taskId"`
	Payer               Address      `json:"payer"`
	Payee               Address      `json:"payee"`
	Asset               Hash         `json:"asset"`
	Amount              uint64       `json:"amount"`
	TotalAmount         uint64       `json:"totalAmount"`
	ReleasedAmount      uint64       `json:"releasedAmount"`
	RefundedAmount      uint64       `json:"refundedAmount"`
	ChallengeDeposit    uint64       `json:"challengeDeposit"`
	Status              EscrowStatus `json:"status"`
	TimeoutBlocks       uint64       `json:"timeoutBlocks"`
	ChallengeWindow     uint64       `json:"challengeWindow"`
	ChallengeDepositBPS uint32       `json:"challengeDepositBps"`
	OptimisticRelease   bool         `json:"optimisticRelease"`
	CreatedAt           uint64       `json:"createdAt"`
	UpdatedAt           uint64       `json:"updatedAt"`
	TimeoutAt           uint64       `json:"timeoutAt"`
}

// Clone returns a deep copy.
func (e *Escrow) Clone() *Escrow {
	if e == nil {
		return nil
	}
	cp := *e
	return &cp
}

// ArbiterStatus is the arbiter lifecycle position.
type ArbiterStatus uint8

const (
	ArbiterActive ArbiterStatus = iota
	ArbiterExiting
	ArbiterRemoved
	ArbiterSuspended
)

func (s ArbiterStatus) String() string {
	switch s {
	case ArbiterActive:
		return "active"
	case ArbiterExiting:
		return "exiting"
	case ArbiterRemoved:
		return "removed"
	case ArbiterSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// Arbiter is a staked dispute-resolution registrant.
type Arbiter struct {
	PublicKey      Address       `json:"publicKey"`
	Name           string        `json:"name"`
	Status         ArbiterStatus `json:"status"`
	Expertise      []string      `json:"expertise,omitempty"`
	StakeAmount    uint64        `json:"stakeAmount"`
	FeeBasisPoints uint32        `json:"feeBasisPoints"`
	MinEscrowValue uint64        `json:"minEscrowValue"`
	MaxEscrowValue uint64        `json:"maxEscrowValue"`
	TotalSlashed   uint64        `json:"totalSlashed"`
	ActiveCases    uint64        `json:"activeCases"`
	RegisteredAt   uint64        `json:"registeredAt"`
}

// Clone returns a deep copy.
func (a *Arbiter) Clone() *Arbiter {
	if a == nil {
		return nil
	}
	cp := *a
	if a.Expertise != nil {
		cp.Expertise = append([]string(nil), a.Expertise...)
	}
	return &cp
}

// ArbitrationCommit stores one opaque commit/reveal payload keyed by its
// content hash. Consistency across phases is resolved outside the engine.
type ArbitrationCommit struct {
	Sender      Address `json:"sender"`
	PayloadHash Hash    `json:"payloadHash"`
	Data        []byte  `json:"data,omitempty"`
}

// Clone returns a deep copy.
func (c *ArbitrationCommit) Clone() *ArbitrationCommit {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Data != nil {
		cp.Data = append([]byte(nil), c.Data...)
	}
	return &cp
}

// CommitteeMember is one committee seat.
type CommitteeMember struct {
	PublicKey Address `json:"publicKey"`
	Name      string  `json:"name"`
	Role      uint8   `json:"role"`
}

// Committee is a KYC governance body.
type Committee struct {
	ID           Hash              `json:"id"`
	Name         string            `json:"name"`
	Members      []CommitteeMember `json:"members"`
	Threshold    uint32            `json:"threshold"`
	KYCThreshold uint32            `json:"kycThreshold"`
	MaxKYCLevel  uint16            `json:"maxKycLevel"`
	Parent       Hash              `json:"parent,omitempty"`
}

// Clone returns a deep copy.
func (c *Committee) Clone() *Committee {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Members != nil {
		cp.Members = append([]CommitteeMember(nil), c.Members...)
	}
	return &cp
}

// KYCStatus is the verification state of a KYC record.
type KYCStatus uint8

const (
	KYCActive KYCStatus = iota
	KYCRevoked
	KYCSuspended
)

func (s KYCStatus) String() string {
	switch s {
	case KYCActive:
		return "active"
	case KYCRevoked:
		return "revoked"
	case KYCSuspended:
		return "suspended"
	default:
		return "unknown"
	}
}

// KYCRecord is the per-account verification record.
type KYCRecord struct {
	Level      uint16    `json:"level"`
	Status     KYCStatus `json:"status"`
	VerifiedAt uint64    `json:"verifiedAt"`
	DataHash   Hash      `json:"dataHash"`
	Committee  Hash      `json:"committee,omitempty"`
}

// Clone returns a deep copy.
func (k *KYCRecord) Clone() *KYCRecord {
	if k == nil {
		return nil
	}
	cp := *k
	return &cp
}

// MultisigConfig is a per-account signer set.
type MultisigConfig struct {
	Threshold    uint8     `json:"threshold"`
	Participants []Address `json:"participants"`
}

// Clone returns a deep copy.
func (m *MultisigConfig) Clone() *MultisigConfig {
	if m == nil {
		return nil
	}
	cp := *m
	if m.Participants != nil {
		cp.Participants = append([]Address(nil), m.Participants...)
	}
	return &cp
}

// AgentAccountMeta is the control metadata for an agent account.
type AgentAccountMeta struct {
	Owner          Address  `json:"owner"`
	Controller     Address  `json:"controller"`
	PolicyHash     Hash     `json:"policyHash"`
	Status         uint8    `json:"status"`
	EnergyPool     *Address `json:"energyPool,omitempty"`
	SessionKeyRoot *Hash    `json:"sessionKeyRoot,omitempty"`
}

// Clone returns a deep copy.
func (m *AgentAccountMeta) Clone() *AgentAccountMeta {
	if m == nil {
		return nil
	}
	cp := *m
	if m.EnergyPool != nil {
		pool := *m.EnergyPool
		cp.EnergyPool = &pool
	}
	if m.SessionKeyRoot != nil {
		root := *m.SessionKeyRoot
		cp.SessionKeyRoot = &root
	}
	return &cp
}

// NameRecord is a registered human-readable name.
type NameRecord struct {
	Name         string  `json:"name"`
	Owner        Address `json:"owner"`
	RegisteredAt uint64  `json:"registeredAt"`
}

// Clone returns a deep copy.
func (n *NameRecord) Clone() *NameRecord {
	if n == nil {
		return nil
	}
	cp := *n
	return &cp
}

// ContractState is a deployed contract module.
type ContractState struct {
	Deployer   Address `json:"deployer"`
	ModuleHash Hash    `json:"moduleHash"`
	Module     []byte  `json:"module,omitempty"`
}

// Clone returns a deep copy.
func (c *ContractState) Clone() *ContractState {
	if c == nil {
		return nil
	}
	cp := *c
	if c.Module != nil {
		cp.Module = append([]byte(nil), c.Module...)
	}
	return &cp
}
