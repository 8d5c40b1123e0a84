// Package referral implements referrer bindings and multi-level reward
// distribution. Bindings are permanent: an account binds a referrer once
// and the edge never changes.
package referral

import (
	"math/bits"

	"toschain/config"
	"toschain/core/errors"
	"toschain/core/types"
)

// VerifyBindReferrer checks a referrer binding.
func VerifyBindReferrer(st *types.ChainState, tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.BindReferrerPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "bind_referrer payload expected")
	}
	if p.Referrer == tx.Source {
		return errors.New(errors.CodeSelfOperation, "cannot bind self as referrer")
	}
	if _, bound := st.Referrals[tx.Source]; bound {
		return errors.New(errors.CodeDelegationExists, "referrer already bound")
	}
	return nil
}

// ApplyBindReferrer records the binding.
func ApplyBindReferrer(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.BindReferrerPayload)
	st.Referrals[tx.Source] = p.Referrer
	return nil
}

// VerifyBatchReward checks a multi-level reward distribution.
func VerifyBatchReward(st *types.ChainState, tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.BatchReferralRewardPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "batch_referral_reward payload expected")
	}
	if p.TotalAmount == 0 {
		return errors.New(errors.CodeInvalidAmount, "total_amount must be > 0")
	}
	if len(p.Ratios) != int(p.Levels) {
		return errors.New(errors.CodeInvalidPayload, "ratios length must match levels")
	}
	var ratioSum uint64
	for _, r := range p.Ratios {
		ratioSum += uint64(r)
	}
	if ratioSum > config.MaxBPS {
		return errors.New(errors.CodeInvalidPayload, "ratios sum exceeds 10000 bps")
	}
	sender := st.Account(tx.Source)
	if sender == nil {
		return errors.New(errors.CodeAccountNotFound, "sender not found")
	}
	if sender.Balance < p.TotalAmount {
		return errors.New(errors.CodeInsufficientBalance, "insufficient balance for reward")
	}
	return nil
}

// ApplyBatchReward debits the sender and walks the referral chain upward
// from from_user, paying each level its ratio of the total. The walk stops
// at the first unbound account; any remainder stays debited.
func ApplyBatchReward(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.BatchReferralRewardPayload)
	sender := st.Account(tx.Source)
	if sender == nil {
		return errors.New(errors.CodeAccountNotFound, "sender not found")
	}
	if sender.Balance < p.TotalAmount {
		return errors.New(errors.CodeInsufficientBalance, "insufficient balance for reward")
	}
	sender.Balance -= p.TotalAmount

	current := p.FromUser
	for _, ratio := range p.Ratios {
		referrer, bound := st.Referrals[current]
		if !bound {
			break
		}
		hi, lo := bits.Mul64(p.TotalAmount, uint64(ratio))
		reward, _ := bits.Div64(hi, lo, config.MaxBPS)
		if reward > 0 {
			if acct := st.Account(referrer); acct != nil {
				sum, carry := bits.Add64(acct.Balance, reward, 0)
				if carry != 0 {
					return errors.New(errors.CodeOverflow, "referrer balance overflow")
				}
				acct.Balance = sum
			}
		}
		current = referrer
	}
	return nil
}
