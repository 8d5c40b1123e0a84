package types

// TxVersion is the transaction format version.
type TxVersion uint8

const TxVersionT1 TxVersion = 0x01

// FeeType selects which resource pays the transaction fee.
type FeeType uint8

const (
	FeeTOS    FeeType = 0x00
	FeeEnergy FeeType = 0x01
	FeeUNO    FeeType = 0x02
)

func (f FeeType) Valid() bool { return f <= FeeUNO }

// TxType tags the payload variant carried by a transaction.
type TxType uint8

const (
	TxBurn                      TxType = 0
	TxTransfers                 TxType = 1
	TxMultisig                  TxType = 2
	TxInvokeContract            TxType = 3
	TxDeployContract            TxType = 4
	TxEnergy                    TxType = 5
	TxBindReferrer              TxType = 7
	TxBatchReferralReward       TxType = 8
	TxSetKYC                    TxType = 9
	TxRevokeKYC                 TxType = 10
	TxRenewKYC                  TxType = 11
	TxBootstrapCommittee        TxType = 12
	TxRegisterCommittee         TxType = 13
	TxUpdateCommittee           TxType = 14
	TxEmergencySuspend          TxType = 15
	TxTransferKYC               TxType = 16
	TxAppealKYC                 TxType = 17
	TxUnoTransfers              TxType = 18
	TxShieldTransfers           TxType = 19
	TxUnshieldTransfers         TxType = 20
	TxRegisterName              TxType = 21
	TxEphemeralMessage          TxType = 22
	TxAgentAccount              TxType = 23
	TxCreateEscrow              TxType = 24
	TxDepositEscrow             TxType = 25
	TxReleaseEscrow             TxType = 26
	TxRefundEscrow              TxType = 27
	TxChallengeEscrow           TxType = 28
	TxSubmitVerdict             TxType = 29
	TxDisputeEscrow             TxType = 30
	TxAppealEscrow              TxType = 31
	TxSubmitVerdictByJuror      TxType = 32
	TxRegisterArbiter           TxType = 33
	TxUpdateArbiter             TxType = 34
	TxCommitArbitrationOpen     TxType = 35
	TxCommitVoteRequest         TxType = 36
	TxCommitSelectionCommitment TxType = 37
	TxCommitJurorVote           TxType = 38
	TxSlashArbiter              TxType = 44
	TxRequestArbiterExit        TxType = 45
	TxWithdrawArbiterStake      TxType = 46
	TxCancelArbiterExit         TxType = 47
)

// SignatureID is one participant signature inside a multisig envelope.
type SignatureID struct {
	SignerID  uint8    `json:"signerId"`
	Signature [64]byte `json:"signature"`
}

// MultiSig is the optional co-signature envelope.
type MultiSig struct {
	Signatures []SignatureID `json:"signatures"`
}

// Clone returns a deep copy.
func (m *MultiSig) Clone() *MultiSig {
	if m == nil {
		return nil
	}
	return &MultiSig{Signatures: append([]SignatureID(nil), m.Signatures...)}
}

// Payload is the closed set of family payloads. The tag on the transaction
// selects which concrete type is legal; the dispatcher rejects mismatches
// with INVALID_PAYLOAD before any family logic runs.
type Payload interface {
	isPayload()
}

// Transaction is the signed envelope the engine validates and applies.
// Signature bytes are carried opaquely; verification happens in an external
// signer layer and only shape is checked here.
type Transaction struct {
	Version             TxVersion
	ChainID             uint8
	Source              Address
	Type                TxType
	Payload             Payload
	Fee                 uint64
	FeeType             FeeType
	Nonce               uint64
	SourceCommitments   [][32]byte
	RangeProof          []byte
	ReferenceHash       Hash
	ReferenceTopoheight uint64
	MultiSig            *MultiSig
	Signature           [64]byte
}

// --- core transfers / burn ---

// TransferEntry is one output of a transfer transaction.
type TransferEntry struct {
	Asset       Hash
	Destination Address
	Amount      uint64
	ExtraData   []byte
}

type TransfersPayload struct {
	Transfers []TransferEntry
}

type BurnPayload struct {
	Asset  Hash
	Amount uint64
}

func (*TransfersPayload) isPayload() {}
func (*BurnPayload) isPayload()      {}

// --- energy ---

// EnergyOp is the nested tag for the energy family sub-variants.
type EnergyOp interface {
	isEnergyOp()
}

type FreezeDuration struct {
	Days uint32
}

type FreezeTOS struct {
	Amount   uint64
	Duration FreezeDuration
}

type DelegationEntry struct {
	Delegatee Address
	Amount    uint64
}

type FreezeTOSDelegate struct {
	Delegatees []DelegationEntry
	Duration   FreezeDuration
}

type UnfreezeTOS struct {
	Amount           uint64
	FromDelegation   bool
	RecordIndex      *uint32
	DelegateeAddress *Address
}

type WithdrawUnfrozen struct{}

func (*FreezeTOS) isEnergyOp()         {}
func (*FreezeTOSDelegate) isEnergyOp() {}
func (*UnfreezeTOS) isEnergyOp()       {}
func (*WithdrawUnfrozen) isEnergyOp()  {}

type EnergyPayload struct {
	Op EnergyOp
}

func (*EnergyPayload) isPayload() {}

// --- account: multisig / agent ---

type MultisigPayload struct {
	Threshold    uint8
	Participants []Address
}

func (*MultisigPayload) isPayload() {}

// AgentOp is the nested tag for the agent-account sub-variants.
type AgentOp interface {
	isAgentOp()
}

type AgentRegister struct {
	Controller     Address
	PolicyHash     Hash
	EnergyPool     *Address
	SessionKeyRoot *Hash
}

type AgentUpdatePolicy struct {
	PolicyHash Hash
}

type AgentRotateController struct {
	NewController Address
}

type AgentSetStatus struct {
	Status uint8
}

type AgentSetEnergyPool struct {
	EnergyPool *Address
}

type AgentSetSessionKeyRoot struct {
	SessionKeyRoot *Hash
}

func (*AgentRegister) isAgentOp()          {}
func (*AgentUpdatePolicy) isAgentOp()      {}
func (*AgentRotateController) isAgentOp()  {}
func (*AgentSetStatus) isAgentOp()         {}
func (*AgentSetEnergyPool) isAgentOp()     {}
func (*AgentSetSessionKeyRoot) isAgentOp() {}

type AgentAccountPayload struct {
	Op AgentOp
}

func (*AgentAccountPayload) isPayload() {}

// --- escrow ---

type CreateEscrowPayload struct {
	TaskID              string
	Provider            Address
	Asset               Hash
	Amount              uint64
	TimeoutBlocks       uint64
	ChallengeWindow     uint64
	ChallengeDepositBPS uint32
	OptimisticRelease   bool
}

type DepositEscrowPayload struct {
	EscrowID Hash
	Amount   uint64
}

type ReleaseEscrowPayload struct {
	EscrowID Hash
	Amount   uint64
}

type RefundEscrowPayload struct {
	EscrowID Hash
	Amount   uint64
	Reason   string
}

type ChallengeEscrowPayload struct {
	EscrowID Hash
	Reason   string
	Deposit  uint64
}

type DisputeEscrowPayload struct {
	EscrowID Hash
	Reason   string
}

type AppealEscrowPayload struct {
	EscrowID      Hash
	Reason        string
	AppealDeposit uint64
}

// VerdictSignature is one arbiter or juror endorsement of a verdict.
type VerdictSignature struct {
	Signer    Address
	Signature [64]byte
	Timestamp uint64
}

type SubmitVerdictPayload struct {
	EscrowID    Hash
	PayerAmount uint64
	PayeeAmount uint64
	Signatures  []VerdictSignature
}

func (*CreateEscrowPayload) isPayload()    {}
func (*DepositEscrowPayload) isPayload()   {}
func (*ReleaseEscrowPayload) isPayload()   {}
func (*RefundEscrowPayload) isPayload()    {}
func (*ChallengeEscrowPayload) isPayload() {}
func (*DisputeEscrowPayload) isPayload()   {}
func (*AppealEscrowPayload) isPayload()    {}
func (*SubmitVerdictPayload) isPayload()   {}

// --- arbitration ---

type RegisterArbiterPayload struct {
	Name           string
	Expertise      []string
	StakeAmount    uint64
	FeeBasisPoints uint32
	MinEscrowValue uint64
	MaxEscrowValue uint64
}

type UpdateArbiterPayload struct {
	Name           *string
	FeeBasisPoints *uint32
	MinEscrowValue *uint64
	MaxEscrowValue *uint64
	AddStake       *uint64
	Deactivate     bool
}

// ApprovalSignature is one committee-member approval.
type ApprovalSignature struct {
	MemberPubkey Address
	Signature    [64]byte
	Timestamp    uint64
}

type SlashArbiterPayload struct {
	ArbiterPubkey Address
	Amount        uint64
	ReasonHash    Hash
	Approvals     []ApprovalSignature
}

// ArbiterExitPayload covers request-exit, withdraw-stake and cancel-exit,
// none of which carry data.
type ArbiterExitPayload struct{}

// CommitRecordPayload is the shared shape of the four commit kinds; the
// transaction tag selects the size bound.
type CommitRecordPayload struct {
	PayloadHash Hash
	Data        []byte
}

func (*RegisterArbiterPayload) isPayload() {}
func (*UpdateArbiterPayload) isPayload()   {}
func (*SlashArbiterPayload) isPayload()    {}
func (*ArbiterExitPayload) isPayload()     {}
func (*CommitRecordPayload) isPayload()    {}

// --- KYC / committee ---

type SetKYCPayload struct {
	Account     Address
	Level       uint16
	DataHash    Hash
	VerifiedAt  uint64
	CommitteeID Hash
	Approvals   []ApprovalSignature
}

type RevokeKYCPayload struct {
	Account    Address
	ReasonHash Hash
	Approvals  []ApprovalSignature
}

type RenewKYCPayload struct {
	Account    Address
	DataHash   Hash
	VerifiedAt uint64
	Approvals  []ApprovalSignature
}

type TransferKYCPayload struct {
	Account           Address
	SourceCommitteeID Hash
	DestCommitteeID   Hash
	NewDataHash       Hash
	TransferredAt     uint64
	SourceApprovals   []ApprovalSignature
	DestApprovals     []ApprovalSignature
}

type AppealKYCPayload struct {
	Account             Address
	OriginalCommitteeID Hash
	ParentCommitteeID   Hash
	ReasonHash          Hash
	DocumentsHash       Hash
	SubmittedAt         uint64
}

// MemberDef describes one member in a committee creation payload.
type MemberDef struct {
	PublicKey Address
	Name      string
	Role      uint8
}

type BootstrapCommitteePayload struct {
	Name         string
	Members      []MemberDef
	Threshold    uint32
	KYCThreshold uint32
	MaxKYCLevel  uint16
}

type RegisterCommitteePayload struct {
	Name         string
	Members      []MemberDef
	Threshold    uint32
	KYCThreshold uint32
	MaxKYCLevel  uint16
	Approvals    []ApprovalSignature
}

// CommitteeUpdate is the nested tag for committee mutations.
type CommitteeUpdate interface {
	isCommitteeUpdate()
}

type AddMember struct {
	PublicKey Address
	Name      string
	Role      uint8
}

type RemoveMember struct {
	PublicKey Address
}

type UpdateThreshold struct {
	NewThreshold uint32
}

type UpdateKYCThreshold struct {
	NewKYCThreshold uint32
}

type UpdateName struct {
	NewName string
}

func (*AddMember) isCommitteeUpdate()          {}
func (*RemoveMember) isCommitteeUpdate()       {}
func (*UpdateThreshold) isCommitteeUpdate()    {}
func (*UpdateKYCThreshold) isCommitteeUpdate() {}
func (*UpdateName) isCommitteeUpdate()         {}

type UpdateCommitteePayload struct {
	CommitteeID Hash
	Update      CommitteeUpdate
	Approvals   []ApprovalSignature
}

type EmergencySuspendPayload struct {
	Account    Address
	ReasonHash Hash
	Approvals  []ApprovalSignature
}

func (*SetKYCPayload) isPayload()             {}
func (*RevokeKYCPayload) isPayload()          {}
func (*RenewKYCPayload) isPayload()           {}
func (*TransferKYCPayload) isPayload()        {}
func (*AppealKYCPayload) isPayload()          {}
func (*BootstrapCommitteePayload) isPayload() {}
func (*RegisterCommitteePayload) isPayload()  {}
func (*UpdateCommitteePayload) isPayload()    {}
func (*EmergencySuspendPayload) isPayload()   {}

// --- name service ---

type RegisterNamePayload struct {
	Name string
}

func (*RegisterNamePayload) isPayload() {}

// --- referral ---

type BindReferrerPayload struct {
	Referrer Address
}

type BatchReferralRewardPayload struct {
	FromUser    Address
	TotalAmount uint64
	Levels      uint8
	Ratios      []uint32
}

func (*BindReferrerPayload) isPayload()        {}
func (*BatchReferralRewardPayload) isPayload() {}

// --- privacy ---

// PrivacyTransfer is one output of a UNO, shield or unshield transfer.
// Amount is meaningful for shield/unshield only; UNO amounts stay inside the
// commitment. Proof contents are never verified here, only their shape.
type PrivacyTransfer struct {
	Asset          Hash
	Destination    Address
	Amount         uint64
	ExtraData      []byte
	Commitment     [32]byte
	SenderHandle   [32]byte
	ReceiverHandle [32]byte
	Proof          []byte
}

type PrivacyTransfersPayload struct {
	Transfers []PrivacyTransfer
}

func (*PrivacyTransfersPayload) isPayload() {}

// --- contracts ---

type ContractDeposit struct {
	Asset  Hash
	Amount uint64
}

type DeployContractPayload struct {
	Module []byte
}

type InvokeContractPayload struct {
	Contract   Hash
	MaxGas     uint64
	Deposits   []ContractDeposit
	ChunkID    uint16
	Parameters [][]byte
}

func (*DeployContractPayload) isPayload() {}
func (*InvokeContractPayload) isPayload() {}
