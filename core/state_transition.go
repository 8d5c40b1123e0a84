// Package core hosts the transaction executor: common precondition
// checks, family dispatch, fee and nonce finalization, and the block
// executor. The engine is a pure function over snapshots; a failed apply
// returns the caller's state untouched.
package core

import (
	"math/bits"
	"time"

	"toschain/config"
	"toschain/core/errors"
	"toschain/core/types"
	"toschain/native/account"
	"toschain/native/arbitration"
	"toschain/native/bank"
	"toschain/native/contracts"
	"toschain/native/energy"
	"toschain/native/escrow"
	"toschain/native/kyc"
	"toschain/native/privacy"
	"toschain/native/referral"
	"toschain/native/tns"
)

// Executor evaluates transactions against chain state snapshots. Now is
// the wall-clock source for time-windowed checks; tests pin it for
// determinism.
type Executor struct {
	Params *config.Params
	Now    func() int64
}

// NewExecutor returns an executor for the given network parameters.
func NewExecutor(p *config.Params) *Executor {
	return &Executor{
		Params: p,
		Now:    func() int64 { return time.Now().Unix() },
	}
}

// tosFeeRequired lists the families that must carry a positive TOS fee.
func tosFeeRequired(tt types.TxType) bool {
	switch tt {
	case types.TxTransfers, types.TxBurn, types.TxMultisig,
		types.TxDeployContract, types.TxAgentAccount:
		return true
	}
	return false
}

// energyFeeEligible lists the transfer-shaped families that may declare
// an ENERGY fee type.
func energyFeeEligible(tt types.TxType) bool {
	switch tt {
	case types.TxTransfers, types.TxUnoTransfers,
		types.TxShieldTransfers, types.TxUnshieldTransfers:
		return true
	}
	return false
}

// transferOutputCount reports how many transfer-like outputs the payload
// produces, which sets the energy-fee cost.
func transferOutputCount(tx *types.Transaction) int {
	switch p := tx.Payload.(type) {
	case *types.TransfersPayload:
		return len(p.Transfers)
	case *types.PrivacyTransfersPayload:
		return len(p.Transfers)
	}
	return 0
}

func (e *Executor) verifyCommon(st *types.ChainState, tx *types.Transaction) error {
	if tx.ChainID != st.NetworkChainID {
		return errors.New(errors.CodeInvalidVersion, "chain_id mismatch")
	}
	sender := st.Account(tx.Source)
	if sender == nil {
		return errors.New(errors.CodeAccountNotFound, "sender not found")
	}
	if !tx.FeeType.Valid() {
		return errors.New(errors.CodeInvalidPayload, "unknown fee type")
	}
	if tx.Type == types.TxEnergy && tx.Fee != 0 {
		return errors.New(errors.CodeInvalidPayload, "energy transactions must carry zero fee")
	}
	switch tx.FeeType {
	case types.FeeTOS:
		if tosFeeRequired(tx.Type) && tx.Fee == 0 {
			return errors.New(errors.CodeInsufficientFee, "positive fee required")
		}
	case types.FeeEnergy:
		if !energyFeeEligible(tx.Type) {
			return errors.New(errors.CodeInvalidPayload, "energy fee only for transfer-shaped transactions")
		}
		if tx.Fee != 0 {
			return errors.New(errors.CodeInvalidPayload, "energy fee must be zero")
		}
	case types.FeeUNO:
		if tx.Type != types.TxUnoTransfers {
			return errors.New(errors.CodeInvalidPayload, "uno fee only for uno transfers")
		}
		if tx.Fee != 0 {
			return errors.New(errors.CodeInvalidPayload, "uno fee must be zero")
		}
	}
	if tx.Nonce < sender.Nonce {
		return errors.New(errors.CodeNonceTooLow, "nonce too low")
	}
	if tx.Nonce-sender.Nonce > config.MaxNonceGap {
		return errors.New(errors.CodeNonceTooHigh, "nonce too high")
	}
	return nil
}

// verifyFeeAffordability runs after family verification.
func (e *Executor) verifyFeeAffordability(st *types.ChainState, tx *types.Transaction) error {
	sender := st.Account(tx.Source)
	switch tx.FeeType {
	case types.FeeTOS:
		if sender.Balance < tx.Fee {
			return errors.New(errors.CodeInsufficientFee, "insufficient balance for fee")
		}
	case types.FeeEnergy:
		if transferOutputCount(tx) > 0 && sender.Energy < 1 {
			return errors.New(errors.CodeInsufficientEnergy, "insufficient energy for fee")
		}
	}
	return nil
}

func (e *Executor) dispatchVerify(st *types.ChainState, tx *types.Transaction) error {
	switch tx.Type {
	case types.TxTransfers:
		return bank.VerifyTransfers(st, tx)
	case types.TxBurn:
		return bank.VerifyBurn(st, tx)
	case types.TxEnergy:
		return energy.Verify(st, tx, e.Params)
	case types.TxUnoTransfers, types.TxShieldTransfers, types.TxUnshieldTransfers:
		return privacy.Verify(st, tx)
	case types.TxMultisig:
		return account.VerifyMultisig(st, tx)
	case types.TxAgentAccount:
		return account.VerifyAgentAccount(st, tx)
	case types.TxRegisterArbiter, types.TxUpdateArbiter, types.TxSlashArbiter,
		types.TxRequestArbiterExit, types.TxWithdrawArbiterStake, types.TxCancelArbiterExit,
		types.TxCommitArbitrationOpen, types.TxCommitVoteRequest,
		types.TxCommitSelectionCommitment, types.TxCommitJurorVote:
		return arbitration.Verify(st, tx)
	case types.TxDeployContract:
		return contracts.VerifyDeploy(st, tx)
	case types.TxInvokeContract:
		return contracts.VerifyInvoke(st, tx)
	case types.TxCreateEscrow, types.TxDepositEscrow, types.TxReleaseEscrow,
		types.TxRefundEscrow, types.TxChallengeEscrow, types.TxDisputeEscrow,
		types.TxAppealEscrow, types.TxSubmitVerdict, types.TxSubmitVerdictByJuror:
		return escrow.Verify(st, tx)
	case types.TxBindReferrer:
		return referral.VerifyBindReferrer(st, tx)
	case types.TxBatchReferralReward:
		return referral.VerifyBatchReward(st, tx)
	case types.TxRegisterName:
		return tns.VerifyRegisterName(st, tx)
	case types.TxEphemeralMessage:
		return tns.VerifyEphemeralMessage(tx)
	case types.TxSetKYC, types.TxRevokeKYC, types.TxRenewKYC, types.TxTransferKYC,
		types.TxAppealKYC, types.TxBootstrapCommittee, types.TxRegisterCommittee,
		types.TxUpdateCommittee, types.TxEmergencySuspend:
		return kyc.Verify(st, tx, e.Params, e.Now())
	}
	return errors.Errorf(errors.CodeNotImplemented, "verify not implemented for tx type %d", tx.Type)
}

func (e *Executor) dispatchApply(st *types.ChainState, tx *types.Transaction) error {
	switch tx.Type {
	case types.TxTransfers:
		return bank.ApplyTransfers(st, tx)
	case types.TxBurn:
		return bank.ApplyBurn(st, tx)
	case types.TxEnergy:
		return energy.Apply(st, tx, e.Params)
	case types.TxUnoTransfers, types.TxShieldTransfers, types.TxUnshieldTransfers:
		return privacy.Apply(st, tx)
	case types.TxMultisig:
		return account.ApplyMultisig(st, tx)
	case types.TxAgentAccount:
		return account.ApplyAgentAccount(st, tx)
	case types.TxRegisterArbiter, types.TxUpdateArbiter, types.TxSlashArbiter,
		types.TxRequestArbiterExit, types.TxWithdrawArbiterStake, types.TxCancelArbiterExit,
		types.TxCommitArbitrationOpen, types.TxCommitVoteRequest,
		types.TxCommitSelectionCommitment, types.TxCommitJurorVote:
		return arbitration.Apply(st, tx)
	case types.TxDeployContract:
		return contracts.ApplyDeploy(st, tx)
	case types.TxInvokeContract:
		return contracts.ApplyInvoke(st, tx)
	case types.TxCreateEscrow, types.TxDepositEscrow, types.TxReleaseEscrow,
		types.TxRefundEscrow, types.TxChallengeEscrow, types.TxDisputeEscrow,
		types.TxAppealEscrow, types.TxSubmitVerdict, types.TxSubmitVerdictByJuror:
		return escrow.Apply(st, tx)
	case types.TxBindReferrer:
		return referral.ApplyBindReferrer(st, tx)
	case types.TxBatchReferralReward:
		return referral.ApplyBatchReward(st, tx)
	case types.TxRegisterName:
		return tns.ApplyRegisterName(st, tx)
	case types.TxEphemeralMessage:
		return tns.VerifyEphemeralMessage(tx)
	case types.TxSetKYC, types.TxRevokeKYC, types.TxRenewKYC, types.TxTransferKYC,
		types.TxAppealKYC, types.TxBootstrapCommittee, types.TxRegisterCommittee,
		types.TxUpdateCommittee, types.TxEmergencySuspend:
		return kyc.Apply(st, tx)
	}
	return errors.Errorf(errors.CodeNotImplemented, "apply not implemented for tx type %d", tx.Type)
}

// VerifyTx checks a transaction against the snapshot without mutating it.
// The nonce check uses a bounded look-ahead window; exact nonce matching
// is enforced only at apply time.
func (e *Executor) VerifyTx(st *types.ChainState, tx *types.Transaction) error {
	if err := e.verifyCommon(st, tx); err != nil {
		return err
	}
	if err := e.dispatchVerify(st, tx); err != nil {
		return err
	}
	return e.verifyFeeAffordability(st, tx)
}

func requireStrictNonce(senderNonce, txNonce uint64) error {
	if txNonce < senderNonce {
		return errors.New(errors.CodeNonceTooLow, "nonce too low")
	}
	if txNonce > senderNonce {
		return errors.New(errors.CodeNonceTooHigh, "nonce too high")
	}
	return nil
}

// ApplyTx applies a single transaction. On any failure the input state is
// returned unchanged; on success a fresh snapshot with the payload
// effects, fee deduction and nonce advance is returned.
func (e *Executor) ApplyTx(st *types.ChainState, tx *types.Transaction) (*types.ChainState, error) {
	if err := e.verifyCommon(st, tx); err != nil {
		return st, err
	}
	sender := st.Account(tx.Source)
	if err := requireStrictNonce(sender.Nonce, tx.Nonce); err != nil {
		return st, err
	}
	if err := e.dispatchVerify(st, tx); err != nil {
		return st, err
	}
	if err := e.verifyFeeAffordability(st, tx); err != nil {
		return st, err
	}

	working := st.Clone()
	working.EnsureMaps()

	if err := e.dispatchApply(working, tx); err != nil {
		return st, err
	}
	if err := e.finalizeFeeAndNonce(working, tx); err != nil {
		return st, err
	}
	return working, nil
}

// finalizeFeeAndNonce deducts the declared fee and advances the sender
// nonce on the working copy. TOS fees are burned from the balance without
// entering total_burned; energy fees consume one energy unit, mirrored
// into the sender's energy resource when one exists.
func (e *Executor) finalizeFeeAndNonce(working *types.ChainState, tx *types.Transaction) error {
	sender := working.Account(tx.Source)
	if sender == nil {
		return errors.New(errors.CodeAccountNotFound, "sender not found")
	}
	switch tx.FeeType {
	case types.FeeTOS:
		if sender.Balance < tx.Fee {
			return errors.New(errors.CodeInsufficientFee, "insufficient balance for fee")
		}
		sender.Balance -= tx.Fee
	case types.FeeEnergy:
		if transferOutputCount(tx) > 0 {
			if sender.Energy < 1 {
				return errors.New(errors.CodeInsufficientEnergy, "insufficient energy for fee")
			}
			sender.Energy--
			if res := working.EnergyResources[tx.Source]; res != nil && res.Energy > 0 {
				res.Energy--
			}
		}
	}

	next, carry := bits.Add64(sender.Nonce, 1, 0)
	if carry != 0 {
		return errors.New(errors.CodeOverflow, "nonce overflow")
	}
	sender.Nonce = next
	return nil
}

// ApplyBlock applies transactions strictly in order. The block is atomic:
// the first failure returns the caller's state unchanged, discarding the
// effects of every earlier transaction in the block. On success the block
// height advances by one.
func (e *Executor) ApplyBlock(st *types.ChainState, txs []*types.Transaction) (*types.ChainState, error) {
	working := st
	for _, tx := range txs {
		next, err := e.ApplyTx(working, tx)
		if err != nil {
			return st, err
		}
		working = next
	}
	if working == st {
		working = st.Clone()
		working.EnsureMaps()
	}
	next, carry := bits.Add64(working.Global.BlockHeight, 1, 0)
	if carry != 0 {
		return st, errors.New(errors.CodeInvalidBlockHeight, "block height overflow")
	}
	working.Global.BlockHeight = next
	return working, nil
}
