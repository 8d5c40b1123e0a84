package bank

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
	sender   = testAddr(0x01)
	receiver = testAddr(0x02)
)

func seededState(balance uint64) *types.ChainState {
	st := types.NewChainState(config.ChainIDDevnet)
	st.Accounts[sender] = &types.Account{Address: sender, Balance: balance, Nonce: 5}
	return st
}

func transfersTx(entries ...types.TransferEntry) *types.Transaction {
	return &types.Transaction{
		Source:  sender,
		Type:    types.TxTransfers,
		Payload: &types.TransfersPayload{Transfers: entries},
		Fee:     1_000,
		FeeType: types.FeeTOS,
		Nonce:   5,
	}
}

func TestVerifyTransfers(t *testing.T) {
	tests := []struct {
		name    string
		balance uint64
		entries []types.TransferEntry
		code    errors.Code
	}{
		{
			name:    "ok",
			balance: 1_000_000,
			entries: []types.TransferEntry{{Destination: receiver, Amount: 100_000}},
		},
		{
			name:    "empty list",
			balance: 1_000_000,
			entries: nil,
			code:    errors.CodeInvalidFormat,
		},
		{
			name:    "self transfer",
			balance: 1_000_000,
			entries: []types.TransferEntry{{Destination: sender, Amount: 1}},
			code:    errors.CodeSelfOperation,
		},
		{
			name:    "amount plus fee unaffordable",
			balance: 100_000,
			entries: []types.TransferEntry{{Destination: receiver, Amount: 100_000}},
			code:    errors.CodeInsufficientBalance,
		},
		{
			name:    "extra_data too large",
			balance: 1_000_000,
			entries: []types.TransferEntry{{
				Destination: receiver,
				Amount:      1,
				ExtraData:   make([]byte, config.ExtraDataLimitSize+1),
			}},
			code: errors.CodeInvalidPayload,
		},
		{
			name:    "amount overflow",
			balance: 1_000_000,
			entries: []types.TransferEntry{
				{Destination: receiver, Amount: ^uint64(0)},
				{Destination: testAddr(0x03), Amount: 1},
			},
			code: errors.CodeInsufficientFee,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyTransfers(seededState(tt.balance), transfersTx(tt.entries...))
			if tt.code == 0 {
				if err != nil {
					t.Fatalf("verify: %v", err)
				}
				return
			}
			if !errors.HasCode(err, tt.code) {
				t.Fatalf("code = %v, want %v", errors.CodeOf(err), tt.code)
			}
		})
	}
}

func TestVerifyTransfersTooMany(t *testing.T) {
	entries := make([]types.TransferEntry, config.MaxTransferCount+1)
	for i := range entries {
		entries[i] = types.TransferEntry{Destination: receiver, Amount: 1}
	}
	err := VerifyTransfers(seededState(1_000_000), transfersTx(entries...))
	if !errors.HasCode(err, errors.CodeInvalidFormat) {
		t.Fatalf("code = %v, want INVALID_FORMAT", errors.CodeOf(err))
	}
}

func TestApplyTransfersCreatesReceiver(t *testing.T) {
	st := seededState(1_000_000)
	if err := ApplyTransfers(st, transfersTx(types.TransferEntry{Destination: receiver, Amount: 250_000})); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := st.Account(sender).Balance; got != 750_000 {
		t.Fatalf("sender balance = %d, want 750000", got)
	}
	acct := st.Account(receiver)
	if acct == nil {
		t.Fatal("receiver not created")
	}
	if acct.Balance != 250_000 {
		t.Fatalf("receiver balance = %d, want 250000", acct.Balance)
	}
	if acct.Nonce != 0 {
		t.Fatalf("new receiver nonce = %d, want 0", acct.Nonce)
	}
}

func TestApplyTransfersReceiverOverflow(t *testing.T) {
	st := seededState(1_000_000)
	st.Accounts[receiver] = &types.Account{Address: receiver, Balance: ^uint64(0)}
	err := ApplyTransfers(st, transfersTx(types.TransferEntry{Destination: receiver, Amount: 1}))
	if !errors.HasCode(err, errors.CodeOverflow) {
		t.Fatalf("code = %v, want OVERFLOW", errors.CodeOf(err))
	}
}

func TestBurn(t *testing.T) {
	st := seededState(1_000_000)
	tx := &types.Transaction{
		Source:  sender,
		Type:    types.TxBurn,
		Payload: &types.BurnPayload{Amount: 400_000},
		Fee:     1_000,
		FeeType: types.FeeTOS,
		Nonce:   5,
	}
	if err := VerifyBurn(st, tx); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := ApplyBurn(st, tx); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := st.Account(sender).Balance; got != 600_000 {
		t.Fatalf("sender balance = %d, want 600000", got)
	}
	if st.Global.TotalBurned != 400_000 {
		t.Fatalf("total_burned = %d, want 400000", st.Global.TotalBurned)
	}
}

func TestBurnRejections(t *testing.T) {
	st := seededState(1_000)

	t.Run("zero amount", func(t *testing.T) {
		err := VerifyBurn(st, &types.Transaction{
			Source:  sender,
			Payload: &types.BurnPayload{Amount: 0},
		})
		if !errors.HasCode(err, errors.CodeInvalidAmount) {
			t.Fatalf("code = %v, want INVALID_AMOUNT", errors.CodeOf(err))
		}
	})
	t.Run("fee plus amount overflow", func(t *testing.T) {
		err := VerifyBurn(st, &types.Transaction{
			Source:  sender,
			Payload: &types.BurnPayload{Amount: ^uint64(0)},
			Fee:     1,
		})
		if !errors.HasCode(err, errors.CodeInvalidFormat) {
			t.Fatalf("code = %v, want INVALID_FORMAT", errors.CodeOf(err))
		}
	})
	t.Run("unaffordable", func(t *testing.T) {
		err := ApplyBurn(st, &types.Transaction{
			Source:  sender,
			Payload: &types.BurnPayload{Amount: 1_000_000},
		})
		if !errors.HasCode(err, errors.CodeInsufficientBalance) {
			t.Fatalf("code = %v, want INSUFFICIENT_BALANCE", errors.CodeOf(err))
		}
	})
}
