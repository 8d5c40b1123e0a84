// Package escrow implements the escrow family: a funded agreement that
// moves CREATED -> FUNDED -> {RELEASED | REFUNDED | CHALLENGED} -> RESOLVED,
// with PENDING_RELEASE covering partial optimistic releases.
package escrow

import (
	"encoding/binary"
	"math/bits"

	"lukechampine.com/blake3"

	"toschain/config"
	"toschain/core/errors"
	"toschain/core/types"
)

// addChecked adds b to a, failing with OVERFLOW on wrap.
func addChecked(a, b uint64, what string) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, errors.Errorf(errors.CodeOverflow, "%s overflow", what)
	}
	return sum, nil
}

func creditBalance(acct *types.Account, amount uint64) error {
	sum, err := addChecked(acct.Balance, amount, "balance")
	if err != nil {
		return err
	}
	acct.Balance = sum
	return nil
}

// EscrowID derives the identifier of an escrow created by tx: the hash of
// the creator address and the creating nonce, so ids are unique per sender.
func EscrowID(source types.Address, nonce uint64) types.Hash {
	var buf [40]byte
	copy(buf[:32], source[:])
	binary.BigEndian.PutUint64(buf[32:], nonce)
	return blake3.Sum256(buf[:])
}

// Verify checks an escrow payload against the snapshot.
func Verify(st *types.ChainState, tx *types.Transaction) error {
	switch tx.Type {
	case types.TxCreateEscrow:
		return verifyCreate(st, tx)
	case types.TxDepositEscrow:
		return verifyDeposit(st, tx)
	case types.TxReleaseEscrow:
		return verifyRelease(st, tx)
	case types.TxRefundEscrow:
		return verifyRefund(st, tx)
	case types.TxChallengeEscrow:
		return verifyChallenge(tx)
	case types.TxDisputeEscrow:
		return verifyDispute(tx)
	case types.TxAppealEscrow:
		return verifyAppeal(tx)
	case types.TxSubmitVerdict, types.TxSubmitVerdictByJuror:
		return verifyVerdict(tx)
	default:
		return errors.Errorf(errors.CodeInvalidType, "unsupported escrow tx type %d", tx.Type)
	}
}

// Apply mutates st with the escrow operation.
func Apply(st *types.ChainState, tx *types.Transaction) error {
	switch tx.Type {
	case types.TxCreateEscrow:
		return applyCreate(st, tx)
	case types.TxDepositEscrow:
		return applyDeposit(st, tx)
	case types.TxReleaseEscrow:
		return applyRelease(st, tx)
	case types.TxRefundEscrow:
		return applyRefund(st, tx)
	case types.TxChallengeEscrow:
		return applyChallenge(st, tx)
	case types.TxDisputeEscrow:
		return applyDispute(st, tx)
	case types.TxAppealEscrow:
		return applyAppeal(st, tx)
	case types.TxSubmitVerdict, types.TxSubmitVerdictByJuror:
		return applyVerdict(st, tx)
	default:
		return errors.Errorf(errors.CodeInvalidType, "unsupported escrow tx type %d", tx.Type)
	}
}

func verifyCreate(st *types.ChainState, tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.CreateEscrowPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "create_escrow payload expected")
	}
	if p.Amount == 0 {
		return errors.New(errors.CodeInvalidAmount, "escrow amount must be > 0")
	}
	if p.TaskID == "" || len(p.TaskID) > config.MaxTaskIDLen {
		return errors.New(errors.CodeInvalidPayload, "invalid task_id")
	}
	if p.TimeoutBlocks < config.MinTimeoutBlocks || p.TimeoutBlocks > config.MaxTimeoutBlocks {
		return errors.New(errors.CodeInvalidPayload, "timeout_blocks out of range")
	}
	if p.ChallengeWindow == 0 {
		return errors.New(errors.CodeInvalidPayload, "challenge_window must be > 0")
	}
	if p.ChallengeDepositBPS > config.MaxBPS {
		return errors.New(errors.CodeInvalidPayload, "invalid challenge_deposit_bps")
	}
	if p.Provider == tx.Source {
		return errors.New(errors.CodeSelfOperation, "payer cannot be provider")
	}
	sender := st.Account(tx.Source)
	if sender == nil {
		return errors.New(errors.CodeAccountNotFound, "sender not found")
	}
	if sender.Balance < p.Amount {
		return errors.New(errors.CodeInsufficientBalance, "insufficient balance")
	}
	return nil
}

func applyCreate(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.CreateEscrowPayload)
	sender := st.Account(tx.Source)
	if sender == nil {
		return errors.New(errors.CodeAccountNotFound, "sender not found")
	}
	if sender.Balance < p.Amount {
		return errors.New(errors.CodeInsufficientBalance, "insufficient balance")
	}
	sender.Balance -= p.Amount

	id := EscrowID(tx.Source, tx.Nonce)
	height := st.Global.BlockHeight
	st.Escrows[id] = &types.Escrow{
		ID:                  id,
		TaskID:              p.TaskID,
		Payer:               tx.Source,
		Payee:               p.Provider,
		Asset:               p.Asset,
		Amount:              p.Amount,
		TotalAmount:         p.Amount,
		Status:              types.EscrowCreated,
		TimeoutBlocks:       p.TimeoutBlocks,
		ChallengeWindow:     p.ChallengeWindow,
		ChallengeDepositBPS: p.ChallengeDepositBPS,
		OptimisticRelease:   p.OptimisticRelease,
		CreatedAt:           height,
		UpdatedAt:           height,
		TimeoutAt:           height + p.TimeoutBlocks,
	}
	return nil
}

func verifyDeposit(st *types.ChainState, tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.DepositEscrowPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "deposit_escrow payload expected")
	}
	if p.Amount == 0 {
		return errors.New(errors.CodeInvalidAmount, "deposit amount must be > 0")
	}
	if escrow := st.Escrows[p.EscrowID]; escrow != nil {
		if escrow.Status != types.EscrowCreated && escrow.Status != types.EscrowFunded {
			return errors.New(errors.CodeEscrowWrongState, "escrow not in depositable state")
		}
	}
	return nil
}

func applyDeposit(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.DepositEscrowPayload)
	sender := st.Account(tx.Source)
	if sender == nil {
		return errors.New(errors.CodeAccountNotFound, "sender not found")
	}
	if sender.Balance < p.Amount {
		return errors.New(errors.CodeInsufficientBalance, "insufficient balance")
	}
	if escrow := st.Escrows[p.EscrowID]; escrow != nil {
		amount, err := addChecked(escrow.Amount, p.Amount, "escrow amount")
		if err != nil {
			return err
		}
		total, err := addChecked(escrow.TotalAmount, p.Amount, "escrow total")
		if err != nil {
			return err
		}
		sender.Balance -= p.Amount
		escrow.Amount = amount
		escrow.TotalAmount = total
		escrow.Status = types.EscrowFunded
		escrow.UpdatedAt = st.Global.BlockHeight
		return nil
	}
	sender.Balance -= p.Amount
	return nil
}

func verifyRelease(st *types.ChainState, tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.ReleaseEscrowPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "release_escrow payload expected")
	}
	if p.Amount == 0 {
		return errors.New(errors.CodeInvalidAmount, "release amount must be > 0")
	}
	if escrow := st.Escrows[p.EscrowID]; escrow != nil {
		if escrow.Status != types.EscrowFunded {
			return errors.New(errors.CodeEscrowWrongState, "escrow not funded")
		}
		if p.Amount > escrow.Amount {
			return errors.New(errors.CodeInvalidAmount, "release amount exceeds escrow balance")
		}
	}
	return nil
}

func applyRelease(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.ReleaseEscrowPayload)
	escrow := st.Escrows[p.EscrowID]
	if escrow == nil {
		return nil
	}
	if payee := st.Account(escrow.Payee); payee != nil {
		if err := creditBalance(payee, p.Amount); err != nil {
			return err
		}
	}
	escrow.Amount -= p.Amount
	escrow.ReleasedAmount += p.Amount
	if escrow.Amount == 0 {
		escrow.Status = types.EscrowReleased
	} else {
		escrow.Status = types.EscrowPendingRelease
	}
	escrow.UpdatedAt = st.Global.BlockHeight
	return nil
}

func verifyRefund(st *types.ChainState, tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.RefundEscrowPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "refund_escrow payload expected")
	}
	if p.Amount == 0 {
		return errors.New(errors.CodeInvalidAmount, "refund amount must be > 0")
	}
	if len(p.Reason) > config.MaxReasonLen {
		return errors.New(errors.CodeInvalidPayload, "reason too long")
	}
	if escrow := st.Escrows[p.EscrowID]; escrow != nil {
		if p.Amount > escrow.Amount {
			return errors.New(errors.CodeInvalidAmount, "refund amount exceeds escrow balance")
		}
	}
	return nil
}

func applyRefund(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.RefundEscrowPayload)
	escrow := st.Escrows[p.EscrowID]
	if escrow == nil {
		return nil
	}
	if payer := st.Account(escrow.Payer); payer != nil {
		if err := creditBalance(payer, p.Amount); err != nil {
			return err
		}
	}
	escrow.Amount -= p.Amount
	escrow.RefundedAmount += p.Amount
	if escrow.Amount == 0 {
		escrow.Status = types.EscrowRefunded
	}
	escrow.UpdatedAt = st.Global.BlockHeight
	return nil
}

func verifyChallenge(tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.ChallengeEscrowPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "challenge_escrow payload expected")
	}
	if p.Reason == "" || len(p.Reason) > config.MaxReasonLen {
		return errors.New(errors.CodeInvalidPayload, "invalid challenge reason")
	}
	if p.Deposit == 0 {
		return errors.New(errors.CodeInvalidAmount, "challenge deposit must be > 0")
	}
	return nil
}

func applyChallenge(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.ChallengeEscrowPayload)
	sender := st.Account(tx.Source)
	if sender == nil {
		return errors.New(errors.CodeAccountNotFound, "sender not found")
	}
	if sender.Balance < p.Deposit {
		return errors.New(errors.CodeInsufficientBalance, "insufficient balance for deposit")
	}
	if escrow := st.Escrows[p.EscrowID]; escrow != nil {
		deposit, err := addChecked(escrow.ChallengeDeposit, p.Deposit, "challenge deposit")
		if err != nil {
			return err
		}
		sender.Balance -= p.Deposit
		escrow.ChallengeDeposit = deposit
		escrow.Status = types.EscrowChallenged
		escrow.UpdatedAt = st.Global.BlockHeight
		return nil
	}
	sender.Balance -= p.Deposit
	return nil
}

func verifyDispute(tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.DisputeEscrowPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "dispute_escrow payload expected")
	}
	if p.Reason == "" || len(p.Reason) > config.MaxReasonLen {
		return errors.New(errors.CodeInvalidPayload, "invalid dispute reason")
	}
	return nil
}

func applyDispute(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.DisputeEscrowPayload)
	if escrow := st.Escrows[p.EscrowID]; escrow != nil {
		escrow.Status = types.EscrowChallenged
		escrow.UpdatedAt = st.Global.BlockHeight
	}
	return nil
}

func verifyAppeal(tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.AppealEscrowPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "appeal_escrow payload expected")
	}
	if p.Reason == "" || len(p.Reason) > config.MaxReasonLen {
		return errors.New(errors.CodeInvalidPayload, "invalid appeal reason")
	}
	if p.AppealDeposit == 0 {
		return errors.New(errors.CodeInvalidAmount, "appeal deposit must be > 0")
	}
	return nil
}

func applyAppeal(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.AppealEscrowPayload)
	sender := st.Account(tx.Source)
	if sender == nil {
		return errors.New(errors.CodeAccountNotFound, "sender not found")
	}
	if sender.Balance < p.AppealDeposit {
		return errors.New(errors.CodeInsufficientBalance, "insufficient balance for appeal")
	}
	sender.Balance -= p.AppealDeposit
	return nil
}

func verifyVerdict(tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.SubmitVerdictPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "submit_verdict payload expected")
	}
	if len(p.Signatures) == 0 {
		return errors.New(errors.CodeInvalidPayload, "signatures required")
	}
	return nil
}

func applyVerdict(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.SubmitVerdictPayload)
	escrow := st.Escrows[p.EscrowID]
	if escrow == nil {
		return nil
	}
	if p.PayerAmount > 0 {
		if payer := st.Account(escrow.Payer); payer != nil {
			if err := creditBalance(payer, p.PayerAmount); err != nil {
				return err
			}
		}
	}
	if p.PayeeAmount > 0 {
		if payee := st.Account(escrow.Payee); payee != nil {
			if err := creditBalance(payee, p.PayeeAmount); err != nil {
				return err
			}
		}
	}
	escrow.Amount = 0
	escrow.Status = types.EscrowResolved
	escrow.UpdatedAt = st.Global.BlockHeight
	return nil
}
