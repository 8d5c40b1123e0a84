package config

// Chain identifiers.
const (
	ChainIDMainnet  uint8 = 0
	ChainIDTestnet  uint8 = 1
	ChainIDStagenet uint8 = 2
	ChainIDDevnet   uint8 = 3
)

// Coin units.
const (
	CoinDecimals = 8
	CoinValue    = 100_000_000
	MaxSupply    = 184_000_000 * CoinValue
)

// Transaction limits.
const (
	ExtraDataLimitSize      = 128
	ExtraDataLimitSumSize   = ExtraDataLimitSize * 32
	MaxTransferCount        = 500
	MaxDepositPerInvokeCall = 255
	MaxMultisigParticipants = 255
	MaxNonceGap             = 64
	MaxDelegatees           = 500
)

// Energy and freeze limits.
const (
	MinFreezeTOSAmount    = CoinValue
	MinUnfreezeTOSAmount  = CoinValue
	MinFreezeDurationDays = 3
	MaxFreezeDurationDays = 365
	MaxFreezeRecords      = 32
	MaxPendingUnfreezes   = 32
	UnfreezeCooldownDays  = 14
)

// Privacy limits. Proof sizes are fixed by the ciphertext-validity proof
// format; the T1 transaction version widened the proof by one scalar pair.
const (
	MinShieldTOSAmount    = 100 * CoinValue
	CTValidityProofSize   = 160
	CTValidityProofSizeT0 = 128
	ShieldProofSize       = 96
)

// Name service limits.
const (
	MinNameLength   = 3
	MaxNameLength   = 64
	RegistrationFee = 10_000_000
)

// Escrow and arbitration limits.
const (
	MinArbiterStake             = 1000 * CoinValue
	MaxArbiterNameLen           = 128
	MaxFeeBPS                   = 10_000
	MaxTaskIDLen                = 256
	MaxReasonLen                = 1024
	MinTimeoutBlocks            = 10
	MaxTimeoutBlocks            = 525_600
	MaxBPS                      = 10_000
	MaxArbitrationOpenBytes     = 64 * 1024
	MaxVoteRequestBytes         = 64 * 1024
	MaxSelectionCommitmentBytes = 64 * 1024
	MaxJurorVoteBytes           = 8 * 1024
)

// Committee and KYC limits.
const (
	ApprovalFutureToleranceSeconds = 3600
	MaxCommitteeMembers            = 21
	MinCommitteeMembers            = 3
	MaxApprovals                   = 15
	EmergencySuspendMinApprovals   = 2
	MaxCommitteeNameLen            = 128
	MaxMemberNameLen               = 64
)

// Contract limits.
const (
	BurnPerContract = CoinValue
)

// ValidKYCLevels is the closed whitelist of KYC level bitmasks. Index in
// this list is the tier (0-8).
var ValidKYCLevels = []uint16{0, 7, 31, 63, 255, 2047, 8191, 16383, 32767}

// KYCLevelTier maps a level bitmask to its tier, or -1 when the level is
// not whitelisted.
func KYCLevelTier(level uint16) int {
	for tier, l := range ValidKYCLevels {
		if l == level {
			return tier
		}
	}
	return -1
}

// ReservedNames cannot be registered through the name service.
var ReservedNames = map[string]struct{}{
	"admin": {}, "administrator": {}, "system": {}, "root": {}, "null": {}, "undefined": {},
	"tos": {}, "tosnetwork": {}, "test": {}, "example": {}, "localhost": {},
	"postmaster": {}, "webmaster": {}, "hostmaster": {}, "abuse": {}, "support": {}, "info": {}, "contact": {},
	"validator": {}, "node": {}, "daemon": {}, "rpc": {}, "api": {}, "wallet": {}, "bridge": {},
	"oracle": {}, "governance": {}, "treasury": {}, "foundation": {}, "network": {},
	"mainnet": {}, "testnet": {}, "devnet": {}, "stagenet": {},
	"block": {}, "transaction": {}, "tx": {}, "hash": {}, "address": {},
	"security": {}, "cert": {}, "ssl": {}, "tls": {}, "www": {}, "ftp": {}, "mail": {},
	"smtp": {}, "imap": {}, "pop": {}, "dns": {}, "ntp": {}, "ssh": {}, "telnet": {}, "ldap": {},
	"official": {}, "verified": {}, "authentic": {}, "real": {}, "true": {},
	"team": {}, "staff": {}, "mod": {}, "moderator": {}, "developer": {}, "dev": {},
	"anonymous": {}, "unknown": {}, "nobody": {}, "anyone": {}, "everyone": {},
	"all": {}, "none": {}, "default": {}, "guest": {}, "user": {},
}

// PhishingKeywords flag a requested name as confusing when present anywhere
// in it.
var PhishingKeywords = []string{"official", "verified", "authentic", "support", "help"}

// Params bundles the per-network knobs the engine depends on. The engine
// never reads globals; callers pass a Params value into every entry point.
type Params struct {
	ChainID uint8

	// BlocksPerDay converts day-denominated durations (freeze terms, the
	// unfreeze cooldown) into block heights.
	BlocksPerDay uint64

	// BootstrapAddress is the only source allowed to bootstrap the global
	// committee. All-zero disables the authorization check.
	BootstrapAddress [32]byte
}

// MainnetParams returns the production parameter set.
func MainnetParams() *Params {
	return &Params{ChainID: ChainIDMainnet, BlocksPerDay: 28_800}
}

// TestnetParams returns the public test network parameter set.
func TestnetParams() *Params {
	return &Params{ChainID: ChainIDTestnet, BlocksPerDay: 28_800}
}

// StagenetParams returns the staging network parameter set.
func StagenetParams() *Params {
	return &Params{ChainID: ChainIDStagenet, BlocksPerDay: 28_800}
}

// DevnetParams returns the local development parameter set. Devnet runs at a
// far lower block rate, so its day length in blocks is shorter.
func DevnetParams() *Params {
	return &Params{ChainID: ChainIDDevnet, BlocksPerDay: 1_440}
}

// ParamsForChain resolves a chain id to its parameter set, defaulting to
// devnet-style parameters for unknown ids.
func ParamsForChain(chainID uint8) *Params {
	switch chainID {
	case ChainIDMainnet:
		return MainnetParams()
	case ChainIDTestnet:
		return TestnetParams()
	case ChainIDStagenet:
		return StagenetParams()
	case ChainIDDevnet:
		return DevnetParams()
	default:
		p := DevnetParams()
		p.ChainID = chainID
		return p
	}
}

// UnfreezeCooldownBlocks is the number of blocks a pending unfreeze waits
// before it becomes withdrawable.
func (p *Params) UnfreezeCooldownBlocks() uint64 {
	return p.BlocksPerDay * UnfreezeCooldownDays
}
