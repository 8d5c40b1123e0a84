// Package arbitration implements the arbiter registry lifecycle and the
// four commit/reveal record kinds. Commit payloads are opaque: only size
// bounds are checked here, cross-record consistency belongs to the dispute
// protocol layer outside the engine.
package arbitration

import (
	"math/bits"

	"toschain/config"
	"toschain/core/errors"
	"toschain/core/types"
)

// Verify checks an arbitration payload against the snapshot.
func Verify(st *types.ChainState, tx *types.Transaction) error {
	switch tx.Type {
	case types.TxRegisterArbiter:
		return verifyRegister(st, tx)
	case types.TxUpdateArbiter:
		return verifyUpdate(st, tx)
	case types.TxSlashArbiter:
		return verifySlash(tx)
	case types.TxRequestArbiterExit:
		return verifyRequestExit(st, tx)
	case types.TxWithdrawArbiterStake:
		return verifyWithdrawStake(st, tx)
	case types.TxCancelArbiterExit:
		return verifyCancelExit(st, tx)
	case types.TxCommitArbitrationOpen:
		return verifyCommit(tx, config.MaxArbitrationOpenBytes)
	case types.TxCommitVoteRequest:
		return verifyCommit(tx, config.MaxVoteRequestBytes)
	case types.TxCommitSelectionCommitment:
		return verifyCommit(tx, config.MaxSelectionCommitmentBytes)
	case types.TxCommitJurorVote:
		return verifyCommit(tx, config.MaxJurorVoteBytes)
	default:
		return errors.Errorf(errors.CodeInvalidType, "unsupported arbitration tx type %d", tx.Type)
	}
}

// Apply mutates st with the arbitration operation.
func Apply(st *types.ChainState, tx *types.Transaction) error {
	switch tx.Type {
	case types.TxRegisterArbiter:
		return applyRegister(st, tx)
	case types.TxUpdateArbiter:
		return applyUpdate(st, tx)
	case types.TxSlashArbiter:
		return applySlash(st, tx)
	case types.TxRequestArbiterExit:
		st.Arbiters[tx.Source].Status = types.ArbiterExiting
		return nil
	case types.TxWithdrawArbiterStake:
		return applyWithdrawStake(st, tx)
	case types.TxCancelArbiterExit:
		st.Arbiters[tx.Source].Status = types.ArbiterActive
		return nil
	case types.TxCommitArbitrationOpen, types.TxCommitVoteRequest,
		types.TxCommitSelectionCommitment, types.TxCommitJurorVote:
		return applyCommit(st, tx)
	default:
		return errors.Errorf(errors.CodeInvalidType, "unsupported arbitration tx type %d", tx.Type)
	}
}

func verifyRegister(st *types.ChainState, tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.RegisterArbiterPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "register_arbiter payload expected")
	}
	if p.Name == "" || len(p.Name) > config.MaxArbiterNameLen {
		return errors.New(errors.CodeInvalidPayload, "invalid arbiter name length")
	}
	if p.FeeBasisPoints > config.MaxFeeBPS {
		return errors.New(errors.CodeInvalidPayload, "invalid fee basis points")
	}
	if p.StakeAmount < config.MinArbiterStake {
		return errors.New(errors.CodeInvalidPayload, "stake below minimum")
	}
	if p.MinEscrowValue > p.MaxEscrowValue {
		return errors.New(errors.CodeInvalidPayload, "min_escrow_value exceeds max_escrow_value")
	}
	if _, exists := st.Arbiters[tx.Source]; exists {
		return errors.New(errors.CodeAccountExists, "arbiter already registered")
	}
	sender := st.Account(tx.Source)
	if sender == nil {
		return errors.New(errors.CodeAccountNotFound, "sender not found")
	}
	if sender.Balance < p.StakeAmount {
		return errors.New(errors.CodeInsufficientBalance, "insufficient balance for stake")
	}
	return nil
}

func applyRegister(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.RegisterArbiterPayload)
	sender := st.Account(tx.Source)
	if sender == nil {
		return errors.New(errors.CodeAccountNotFound, "sender not found")
	}
	if sender.Balance < p.StakeAmount {
		return errors.New(errors.CodeInsufficientBalance, "insufficient balance for stake")
	}
	sender.Balance -= p.StakeAmount

	st.Arbiters[tx.Source] = &types.Arbiter{
		PublicKey:      tx.Source,
		Name:           p.Name,
		Status:         types.ArbiterActive,
		Expertise:      append([]string(nil), p.Expertise...),
		StakeAmount:    p.StakeAmount,
		FeeBasisPoints: p.FeeBasisPoints,
		MinEscrowValue: p.MinEscrowValue,
		MaxEscrowValue: p.MaxEscrowValue,
		RegisteredAt:   st.Global.BlockHeight,
	}
	return nil
}

func verifyUpdate(st *types.ChainState, tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.UpdateArbiterPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "update_arbiter payload expected")
	}
	if p.Name != nil && (*p.Name == "" || len(*p.Name) > config.MaxArbiterNameLen) {
		return errors.New(errors.CodeInvalidPayload, "invalid arbiter name length")
	}
	if p.FeeBasisPoints != nil && *p.FeeBasisPoints > config.MaxFeeBPS {
		return errors.New(errors.CodeInvalidPayload, "invalid fee basis points")
	}
	arbiter, exists := st.Arbiters[tx.Source]
	if !exists {
		return errors.New(errors.CodeAccountNotFound, "arbiter not found")
	}
	if arbiter.Status == types.ArbiterRemoved {
		return errors.New(errors.CodeInvalidPayload, "arbiter already removed")
	}
	return nil
}

func applyUpdate(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.UpdateArbiterPayload)
	arbiter := st.Arbiters[tx.Source]
	if arbiter == nil {
		return errors.New(errors.CodeAccountNotFound, "arbiter not found")
	}

	if p.Name != nil {
		arbiter.Name = *p.Name
	}
	if p.FeeBasisPoints != nil {
		arbiter.FeeBasisPoints = *p.FeeBasisPoints
	}
	if p.MinEscrowValue != nil {
		arbiter.MinEscrowValue = *p.MinEscrowValue
	}
	if p.MaxEscrowValue != nil {
		arbiter.MaxEscrowValue = *p.MaxEscrowValue
	}
	if p.AddStake != nil && *p.AddStake > 0 {
		sender := st.Account(tx.Source)
		if sender == nil || sender.Balance < *p.AddStake {
			return errors.New(errors.CodeInsufficientBalance, "insufficient balance for stake")
		}
		stake, carry := bits.Add64(arbiter.StakeAmount, *p.AddStake, 0)
		if carry != 0 {
			return errors.New(errors.CodeOverflow, "stake overflow")
		}
		sender.Balance -= *p.AddStake
		arbiter.StakeAmount = stake
	}
	if p.Deactivate && arbiter.Status == types.ArbiterActive {
		arbiter.Status = types.ArbiterSuspended
	}
	return nil
}

func verifySlash(tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.SlashArbiterPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "slash_arbiter payload expected")
	}
	if p.Amount == 0 {
		return errors.New(errors.CodeInvalidAmount, "slash amount must be > 0")
	}
	if len(p.Approvals) == 0 {
		return errors.New(errors.CodeInvalidPayload, "approvals required")
	}
	if p.ReasonHash == types.ZeroHash {
		return errors.New(errors.CodeInvalidPayload, "reason_hash must not be zero")
	}
	return nil
}

func applySlash(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.SlashArbiterPayload)
	if arbiter := st.Arbiters[p.ArbiterPubkey]; arbiter != nil {
		slash := p.Amount
		if slash > arbiter.StakeAmount {
			slash = arbiter.StakeAmount
		}
		slashed, carry := bits.Add64(arbiter.TotalSlashed, slash, 0)
		if carry != 0 {
			return errors.New(errors.CodeOverflow, "total slashed overflow")
		}
		arbiter.StakeAmount -= slash
		arbiter.TotalSlashed = slashed
	}
	return nil
}

func verifyRequestExit(st *types.ChainState, tx *types.Transaction) error {
	arbiter, exists := st.Arbiters[tx.Source]
	if !exists {
		return errors.New(errors.CodeAccountNotFound, "arbiter not found")
	}
	if arbiter.Status != types.ArbiterActive {
		return errors.New(errors.CodeInvalidPayload, "arbiter must be active to request exit")
	}
	if arbiter.ActiveCases > 0 {
		return errors.New(errors.CodeInvalidPayload, "arbiter has active cases")
	}
	return nil
}

func verifyWithdrawStake(st *types.ChainState, tx *types.Transaction) error {
	arbiter, exists := st.Arbiters[tx.Source]
	if !exists {
		return errors.New(errors.CodeAccountNotFound, "arbiter not found")
	}
	if arbiter.Status != types.ArbiterExiting {
		return errors.New(errors.CodeInvalidPayload, "arbiter must be in exiting state")
	}
	if arbiter.StakeAmount == 0 {
		return errors.New(errors.CodeInvalidPayload, "no stake to withdraw")
	}
	return nil
}

func applyWithdrawStake(st *types.ChainState, tx *types.Transaction) error {
	arbiter := st.Arbiters[tx.Source]
	if arbiter == nil {
		return errors.New(errors.CodeAccountNotFound, "arbiter not found")
	}
	stake := arbiter.StakeAmount
	if sender := st.Account(tx.Source); sender != nil {
		sum, carry := bits.Add64(sender.Balance, stake, 0)
		if carry != 0 {
			return errors.New(errors.CodeOverflow, "balance overflow")
		}
		sender.Balance = sum
	}
	arbiter.StakeAmount = 0
	arbiter.Status = types.ArbiterRemoved
	return nil
}

func verifyCancelExit(st *types.ChainState, tx *types.Transaction) error {
	arbiter, exists := st.Arbiters[tx.Source]
	if !exists {
		return errors.New(errors.CodeAccountNotFound, "arbiter not found")
	}
	if arbiter.Status != types.ArbiterExiting {
		return errors.New(errors.CodeInvalidPayload, "arbiter not in exiting state")
	}
	return nil
}

func verifyCommit(tx *types.Transaction, maxBytes int) error {
	p, ok := tx.Payload.(*types.CommitRecordPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "commit payload expected")
	}
	if len(p.Data) > maxBytes {
		return errors.New(errors.CodeInvalidPayload, "commit payload too large")
	}
	return nil
}

func applyCommit(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.CommitRecordPayload)
	st.ArbitrationCommits[p.PayloadHash] = &types.ArbitrationCommit{
		Sender:      tx.Source,
		PayloadHash: p.PayloadHash,
		Data:        append([]byte(nil), p.Data...),
	}
	return nil
}
