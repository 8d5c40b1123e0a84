package referral

import (
	"testing"

	"toschain/config"
	"toschain/core/errors"
	"toschain/core/types"
)

func testAddr(b byte) types.Address {
	var a types.Address
	for i := range a {
		a[i] = b
	}
	return a
}

var (
	user   = testAddr(0x01)
	level1 = testAddr(0x02)
	level2 = testAddr(0x03)
	payer  = testAddr(0x0A)
)

func seededState() *types.ChainState {
	st := types.NewChainState(config.ChainIDDevnet)
	st.Accounts[user] = &types.Account{Address: user}
	st.Accounts[level1] = &types.Account{Address: level1}
	st.Accounts[level2] = &types.Account{Address: level2}
	st.Accounts[payer] = &types.Account{Address: payer, Balance: 1_000_000, Nonce: 5}
	return st
}

func TestBindReferrer(t *testing.T) {
	st := seededState()
	tx := &types.Transaction{
		Source:  user,
		Type:    types.TxBindReferrer,
		Payload: &types.BindReferrerPayload{Referrer: level1},
	}
	if err := VerifyBindReferrer(st, tx); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := ApplyBindReferrer(st, tx); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if st.Referrals[user] != level1 {
		t.Fatal("binding not recorded")
	}

	// Bindings are permanent.
	err := VerifyBindReferrer(st, &types.Transaction{
		Source:  user,
		Payload: &types.BindReferrerPayload{Referrer: level2},
	})
	if !errors.HasCode(err, errors.CodeDelegationExists) {
		t.Fatalf("code = %v, want DELEGATION_EXISTS", errors.CodeOf(err))
	}
}

func TestBindSelf(t *testing.T) {
	err := VerifyBindReferrer(seededState(), &types.Transaction{
		Source:  user,
		Payload: &types.BindReferrerPayload{Referrer: user},
	})
	if !errors.HasCode(err, errors.CodeSelfOperation) {
		t.Fatalf("code = %v, want SELF_OPERATION", errors.CodeOf(err))
	}
}

func batchTx(total uint64, ratios []uint32) *types.Transaction {
	return &types.Transaction{
		Source: payer,
		Type:   types.TxBatchReferralReward,
		Payload: &types.BatchReferralRewardPayload{
			FromUser:    user,
			TotalAmount: total,
			Levels:      uint8(len(ratios)),
			Ratios:      ratios,
		},
	}
}

func TestBatchRewardChainWalk(t *testing.T) {
	st := seededState()
	st.Referrals[user] = level1
	st.Referrals[level1] = level2

	tx := batchTx(100_000, []uint32{500, 300, 100})
	if err := VerifyBatchReward(st, tx); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := ApplyBatchReward(st, tx); err != nil {
		t.Fatalf("apply: %v", err)
	}

	// Full amount leaves the payer; the chain stops at the first unbound
	// account, so the third ratio pays nobody.
	if got := st.Account(payer).Balance; got != 900_000 {
		t.Fatalf("payer balance = %d, want 900000", got)
	}
	if got := st.Account(level1).Balance; got != 5_000 {
		t.Fatalf("level1 balance = %d, want 5000", got)
	}
	if got := st.Account(level2).Balance; got != 3_000 {
		t.Fatalf("level2 balance = %d, want 3000", got)
	}
}

func TestBatchRewardUnboundUser(t *testing.T) {
	st := seededState()
	tx := batchTx(100_000, []uint32{500})
	if err := ApplyBatchReward(st, tx); err != nil {
		t.Fatalf("apply: %v", err)
	}
	// No binding: the total is still debited, nothing is paid out.
	if got := st.Account(payer).Balance; got != 900_000 {
		t.Fatalf("payer balance = %d, want 900000", got)
	}
	if got := st.Account(level1).Balance; got != 0 {
		t.Fatalf("level1 balance = %d, want 0", got)
	}
}

func TestBatchRewardRejections(t *testing.T) {
	tests := []struct {
		name string
		tx   *types.Transaction
		code errors.Code
	}{
		{"zero total", batchTx(0, []uint32{500}), errors.CodeInvalidAmount},
		{"ratio sum above 10000", batchTx(100, []uint32{6_000, 5_000}), errors.CodeInvalidPayload},
		{"unaffordable", batchTx(10_000_000, []uint32{500}), errors.CodeInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyBatchReward(seededState(), tt.tx)
			if !errors.HasCode(err, tt.code) {
				t.Fatalf("code = %v, want %v", errors.CodeOf(err), tt.code)
			}
		})
	}
}

func TestBatchRewardLevelsMismatch(t *testing.T) {
	tx := batchTx(100, []uint32{500})
	tx.Payload.(*types.BatchReferralRewardPayload).Levels = 2
	err := VerifyBatchReward(seededState(), tx)
	if !errors.HasCode(err, errors.CodeInvalidPayload) {
		t.Fatalf("code = %v, want INVALID_PAYLOAD", errors.CodeOf(err))
	}
}

func TestBatchRewardCreditOverflowFailsClosed(t *testing.T) {
	st := seededState()
	st.Referrals[user] = level1
	st.Account(level1).Balance = ^uint64(0)

	tx := batchTx(1_000, []uint32{10_000})
	if err := VerifyBatchReward(st, tx); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := ApplyBatchReward(st, tx); !errors.HasCode(err, errors.CodeOverflow) {
		t.Fatalf("code = %v, want OVERFLOW", errors.CodeOf(err))
	}
	if got := st.Account(level1).Balance; got != ^uint64(0) {
		t.Fatalf("referrer balance = %d, want untouched", got)
	}
}
