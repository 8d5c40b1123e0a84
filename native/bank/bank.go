// Package bank implements the plain value-movement families: multi-output
// transfers and coin burns.
package bank

import (
	"math/bits"

	"toschain/config"
	"toschain/core/errors"
	"toschain/core/types"
)

// VerifyTransfers checks a transfer payload against the current snapshot
// without mutating it.
func VerifyTransfers(st *types.ChainState, tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.TransfersPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "transfers payload expected")
	}
	if len(p.Transfers) == 0 {
		return errors.New(errors.CodeInvalidFormat, "transfers list empty")
	}
	if len(p.Transfers) > config.MaxTransferCount {
		return errors.New(errors.CodeInvalidFormat, "too many transfers")
	}

	var totalAmount uint64
	var totalExtra int
	for i := range p.Transfers {
		t := &p.Transfers[i]
		if t.Destination == tx.Source {
			return errors.New(errors.CodeSelfOperation, "sender cannot be receiver")
		}
		sum, carry := bits.Add64(totalAmount, t.Amount, 0)
		if carry != 0 {
			return errors.New(errors.CodeInsufficientFee, "total transfer amount overflow")
		}
		totalAmount = sum
		if t.ExtraData != nil {
			if len(t.ExtraData) > config.ExtraDataLimitSize {
				return errors.New(errors.CodeInvalidPayload, "extra_data too large")
			}
			totalExtra += len(t.ExtraData)
		}
	}
	if totalExtra > config.ExtraDataLimitSumSize {
		return errors.New(errors.CodeInvalidPayload, "total extra_data too large")
	}

	spend, carry := bits.Add64(totalAmount, tx.Fee, 0)
	if carry != 0 {
		return errors.New(errors.CodeInsufficientFee, "total amount plus fee overflow")
	}
	if sender := st.Account(tx.Source); sender != nil && sender.Balance < spend {
		return errors.New(errors.CodeInsufficientBalance, "insufficient balance for transfers")
	}
	return nil
}

// ApplyTransfers mutates st, debiting the sender and crediting each
// destination. Receivers are created implicitly at zero.
func ApplyTransfers(st *types.ChainState, tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.TransfersPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "transfers payload expected")
	}
	sender := st.Account(tx.Source)
	if sender == nil {
		return errors.New(errors.CodeAccountNotFound, "sender not found")
	}

	for i := range p.Transfers {
		t := &p.Transfers[i]
		if sender.Balance < t.Amount {
			return errors.New(errors.CodeInsufficientBalance, "insufficient balance")
		}
		sender.Balance -= t.Amount
		receiver := st.EnsureAccount(t.Destination)
		sum, carry := bits.Add64(receiver.Balance, t.Amount, 0)
		if carry != 0 {
			return errors.New(errors.CodeOverflow, "receiver balance overflow")
		}
		receiver.Balance = sum
	}
	return nil
}

// VerifyBurn checks a burn payload.
func VerifyBurn(st *types.ChainState, tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.BurnPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "burn payload expected")
	}
	if p.Amount == 0 {
		return errors.New(errors.CodeInvalidAmount, "burn amount invalid")
	}
	// The wire codec rejects fee+amount overflow during deserialization, so
	// the coded failure matches it.
	if _, carry := bits.Add64(tx.Fee, p.Amount, 0); carry != 0 {
		return errors.New(errors.CodeInvalidFormat, "burn amount plus fee overflow")
	}
	return nil
}

// ApplyBurn debits the sender and bumps the global burn counter.
func ApplyBurn(st *types.ChainState, tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.BurnPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "burn payload expected")
	}
	sender := st.Account(tx.Source)
	if sender == nil {
		return errors.New(errors.CodeAccountNotFound, "sender not found")
	}
	if sender.Balance < p.Amount {
		return errors.New(errors.CodeInsufficientBalance, "insufficient balance")
	}
	sender.Balance -= p.Amount

	burned, carry := bits.Add64(st.Global.TotalBurned, p.Amount, 0)
	if carry != 0 {
		return errors.New(errors.CodeOverflow, "total_burned overflow")
	}
	st.Global.TotalBurned = burned
	return nil
}
