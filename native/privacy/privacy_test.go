package privacy

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

func seededState() *types.ChainState {
	st := types.NewChainState(config.ChainIDDevnet)
	st.Accounts[sender] = &types.Account{Address: sender, Balance: 500 * config.CoinValue, Nonce: 5}
	return st
}

func privacyTx(txType types.TxType, transfers ...types.PrivacyTransfer) *types.Transaction {
	tx := &types.Transaction{
		Version: types.TxVersionT1,
		Source:  sender,
		Type:    txType,
		Payload: &types.PrivacyTransfersPayload{Transfers: transfers},
		Nonce:   5,
	}
	if txType == types.TxUnoTransfers {
		tx.SourceCommitments = [][32]byte{{0x01}}
		tx.RangeProof = make([]byte, 64)
	}
	return tx
}

func TestUnoTransfer(t *testing.T) {
	st := seededState()
	tx := privacyTx(types.TxUnoTransfers, types.PrivacyTransfer{
		Destination: receiver,
		Proof:       make([]byte, config.CTValidityProofSize),
	})
	if err := Verify(st, tx); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := Apply(st, tx); err != nil {
		t.Fatalf("apply: %v", err)
	}
	// Value moves only inside commitments.
	if got := st.Account(sender).Balance; got != 500*config.CoinValue {
		t.Fatalf("sender balance = %d, want unchanged", got)
	}
	if st.Account(receiver) != nil {
		t.Fatal("uno transfer must not create visible accounts")
	}
}

func TestUnoProofSizeByVersion(t *testing.T) {
	st := seededState()

	t1 := privacyTx(types.TxUnoTransfers, types.PrivacyTransfer{
		Destination: receiver,
		Proof:       make([]byte, config.CTValidityProofSizeT0),
	})
	if err := Verify(st, t1); !errors.HasCode(err, errors.CodeInvalidPayload) {
		t.Fatalf("code = %v, want INVALID_PAYLOAD", errors.CodeOf(err))
	}

	t0 := privacyTx(types.TxUnoTransfers, types.PrivacyTransfer{
		Destination: receiver,
		Proof:       make([]byte, config.CTValidityProofSizeT0),
	})
	t0.Version = 0
	if err := Verify(st, t0); err != nil {
		t.Fatalf("verify pre-T1 proof size: %v", err)
	}
}

func TestUnoRequiresCommitmentsAndRangeProof(t *testing.T) {
	st := seededState()

	tx := privacyTx(types.TxUnoTransfers, types.PrivacyTransfer{
		Destination: receiver,
		Proof:       make([]byte, config.CTValidityProofSize),
	})
	tx.SourceCommitments = nil
	if err := Verify(st, tx); !errors.HasCode(err, errors.CodeInvalidPayload) {
		t.Fatalf("code = %v, want INVALID_PAYLOAD", errors.CodeOf(err))
	}

	tx = privacyTx(types.TxUnoTransfers, types.PrivacyTransfer{
		Destination: receiver,
		Proof:       make([]byte, config.CTValidityProofSize),
	})
	tx.RangeProof = nil
	if err := Verify(st, tx); !errors.HasCode(err, errors.CodeInvalidPayload) {
		t.Fatalf("code = %v, want INVALID_PAYLOAD", errors.CodeOf(err))
	}
}

func TestShieldTransfer(t *testing.T) {
	st := seededState()
	tx := privacyTx(types.TxShieldTransfers, types.PrivacyTransfer{
		Destination: receiver,
		Amount:      config.MinShieldTOSAmount,
		Proof:       make([]byte, config.ShieldProofSize),
	})
	if err := Verify(st, tx); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := Apply(st, tx); err != nil {
		t.Fatalf("apply: %v", err)
	}
	want := 500*config.CoinValue - config.MinShieldTOSAmount
	if got := st.Account(sender).Balance; got != uint64(want) {
		t.Fatalf("sender balance = %d, want %d", got, want)
	}
}

func TestShieldRejections(t *testing.T) {
	tests := []struct {
		name     string
		transfer types.PrivacyTransfer
		code     errors.Code
	}{
		{"below minimum", types.PrivacyTransfer{
			Destination: receiver,
			Amount:      config.MinShieldTOSAmount - 1,
			Proof:       make([]byte, config.ShieldProofSize),
		}, errors.CodeInvalidAmount},
		{"bad proof size", types.PrivacyTransfer{
			Destination: receiver,
			Amount:      config.MinShieldTOSAmount,
			Proof:       make([]byte, config.ShieldProofSize-1),
		}, errors.CodeInvalidPayload},
		{"unaffordable", types.PrivacyTransfer{
			Destination: receiver,
			Amount:      1_000 * config.CoinValue,
			Proof:       make([]byte, config.ShieldProofSize),
		}, errors.CodeInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Verify(seededState(), privacyTx(types.TxShieldTransfers, tt.transfer))
			if !errors.HasCode(err, tt.code) {
				t.Fatalf("code = %v, want %v", errors.CodeOf(err), tt.code)
			}
		})
	}
}

func TestUnshieldTransfer(t *testing.T) {
	st := seededState()
	tx := privacyTx(types.TxUnshieldTransfers, types.PrivacyTransfer{
		Destination: receiver,
		Amount:      3 * config.CoinValue,
		Proof:       make([]byte, config.CTValidityProofSize),
	})
	if err := Verify(st, tx); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := Apply(st, tx); err != nil {
		t.Fatalf("apply: %v", err)
	}
	acct := st.Account(receiver)
	if acct == nil {
		t.Fatal("destination not created")
	}
	if acct.Balance != 3*config.CoinValue {
		t.Fatalf("destination balance = %d, want %d", acct.Balance, 3*config.CoinValue)
	}
	// Sender's visible balance is untouched.
	if got := st.Account(sender).Balance; got != 500*config.CoinValue {
		t.Fatalf("sender balance = %d, want unchanged", got)
	}
}

func TestUnshieldRejections(t *testing.T) {
	t.Run("zero amount", func(t *testing.T) {
		err := Verify(seededState(), privacyTx(types.TxUnshieldTransfers, types.PrivacyTransfer{
			Destination: receiver,
			Proof:       make([]byte, config.CTValidityProofSize),
		}))
		if !errors.HasCode(err, errors.CodeInvalidAmount) {
			t.Fatalf("code = %v, want INVALID_AMOUNT", errors.CodeOf(err))
		}
	})
	t.Run("destination overflow", func(t *testing.T) {
		st := seededState()
		st.Accounts[receiver] = &types.Account{Address: receiver, Balance: ^uint64(0)}
		err := Apply(st, privacyTx(types.TxUnshieldTransfers, types.PrivacyTransfer{
			Destination: receiver,
			Amount:      1,
			Proof:       make([]byte, config.CTValidityProofSize),
		}))
		if !errors.HasCode(err, errors.CodeOverflow) {
			t.Fatalf("code = %v, want OVERFLOW", errors.CodeOf(err))
		}
	})
}

func TestEmptyTransferList(t *testing.T) {
	err := Verify(seededState(), privacyTx(types.TxUnoTransfers))
	if !errors.HasCode(err, errors.CodeInvalidFormat) {
		t.Fatalf("code = %v, want INVALID_FORMAT", errors.CodeOf(err))
	}
}
