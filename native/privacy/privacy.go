// Package privacy implements the UNO, shield and unshield transfer
// families.
//
// Structural check only: commitments, handles and proofs are validated for
// shape and size, never for cryptographic content. Proof verification is
// delegated to an external prover and must not be added here.
package privacy

import (
	"math/bits"

	"toschain/config"
	"toschain/core/errors"
	"toschain/core/types"
)

func ctValidityProofSize(v types.TxVersion) int {
	if v >= types.TxVersionT1 {
		return config.CTValidityProofSize
	}
	return config.CTValidityProofSizeT0
}

// Verify checks a privacy transfer payload against the snapshot.
func Verify(st *types.ChainState, tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.PrivacyTransfersPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "privacy transfers payload expected")
	}
	if len(p.Transfers) == 0 {
		return errors.New(errors.CodeInvalidFormat, "transfer list must not be empty")
	}
	if len(p.Transfers) > config.MaxTransferCount {
		return errors.Errorf(errors.CodeInvalidFormat, "too many transfers (max %d)", config.MaxTransferCount)
	}

	switch tx.Type {
	case types.TxUnoTransfers:
		if len(tx.SourceCommitments) == 0 {
			return errors.New(errors.CodeInvalidPayload, "source_commitments required")
		}
		if len(tx.RangeProof) == 0 {
			return errors.New(errors.CodeInvalidPayload, "range_proof required")
		}
		for i := range p.Transfers {
			t := &p.Transfers[i]
			if len(t.ExtraData) > config.ExtraDataLimitSize {
				return errors.New(errors.CodeInvalidPayload, "extra_data too large")
			}
			if len(t.Proof) != ctValidityProofSize(tx.Version) {
				return errors.New(errors.CodeInvalidPayload, "bad ct_validity_proof size")
			}
		}
		return nil

	case types.TxShieldTransfers:
		var total uint64
		for i := range p.Transfers {
			t := &p.Transfers[i]
			if t.Amount < config.MinShieldTOSAmount {
				return errors.New(errors.CodeInvalidAmount, "shield amount below minimum")
			}
			if len(t.ExtraData) > config.ExtraDataLimitSize {
				return errors.New(errors.CodeInvalidPayload, "extra_data too large")
			}
			if len(t.Proof) != config.ShieldProofSize {
				return errors.New(errors.CodeInvalidPayload, "bad shield proof size")
			}
			sum, carry := bits.Add64(total, t.Amount, 0)
			if carry != 0 {
				return errors.New(errors.CodeOverflow, "shield total overflow")
			}
			total = sum
		}
		sender := st.Account(tx.Source)
		if sender == nil {
			return errors.New(errors.CodeAccountNotFound, "sender not found")
		}
		if sender.Balance < total {
			return errors.New(errors.CodeInsufficientBalance, "insufficient balance to shield")
		}
		return nil

	case types.TxUnshieldTransfers:
		for i := range p.Transfers {
			t := &p.Transfers[i]
			if t.Amount == 0 {
				return errors.New(errors.CodeInvalidAmount, "unshield amount must be > 0")
			}
			if len(t.ExtraData) > config.ExtraDataLimitSize {
				return errors.New(errors.CodeInvalidPayload, "extra_data too large")
			}
			if len(t.Proof) != ctValidityProofSize(tx.Version) {
				return errors.New(errors.CodeInvalidPayload, "bad ct_validity_proof size")
			}
		}
		return nil

	default:
		return errors.Errorf(errors.CodeInvalidType, "unsupported privacy tx type %d", tx.Type)
	}
}

// Apply mutates visible balances. UNO transfers move value only inside
// commitments, so the visible ledger is untouched. Shielding debits the
// sender's visible balance; unshielding credits each destination.
func Apply(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.PrivacyTransfersPayload)

	switch tx.Type {
	case types.TxUnoTransfers:
		return nil

	case types.TxShieldTransfers:
		sender := st.Account(tx.Source)
		if sender == nil {
			return errors.New(errors.CodeAccountNotFound, "sender not found")
		}
		for i := range p.Transfers {
			amount := p.Transfers[i].Amount
			if sender.Balance < amount {
				return errors.New(errors.CodeInsufficientBalance, "insufficient balance to shield")
			}
			sender.Balance -= amount
		}
		return nil

	case types.TxUnshieldTransfers:
		for i := range p.Transfers {
			t := &p.Transfers[i]
			dest := st.EnsureAccount(t.Destination)
			sum, carry := bits.Add64(dest.Balance, t.Amount, 0)
			if carry != 0 {
				return errors.New(errors.CodeOverflow, "destination balance overflow")
			}
			dest.Balance = sum
		}
		return nil

	default:
		return errors.Errorf(errors.CodeInvalidType, "unsupported privacy tx type %d", tx.Type)
	}
}
