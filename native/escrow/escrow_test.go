package escrow

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
	payer = testAddr(0x01)
	payee = testAddr(0x02)
)

func seededState() *types.ChainState {
	st := types.NewChainState(config.ChainIDDevnet)
	st.Accounts[payer] = &types.Account{Address: payer, Balance: 100 * config.CoinValue, Nonce: 5}
	st.Accounts[payee] = &types.Account{Address: payee}
	return st
}

func escrowTx(txType types.TxType, payload types.Payload, nonce uint64) *types.Transaction {
	return &types.Transaction{
		Source:  payer,
		Type:    txType,
		Payload: payload,
		Fee:     1_000,
		FeeType: types.FeeTOS,
		Nonce:   nonce,
	}
}

func TestEscrowIDDeterministic(t *testing.T) {
	id1 := EscrowID(payer, 5)
	id2 := EscrowID(payer, 5)
	if id1 != id2 {
		t.Fatal("escrow id not deterministic")
	}
	if id1 == EscrowID(payer, 6) {
		t.Fatal("escrow id ignores nonce")
	}
	if id1 == EscrowID(payee, 5) {
		t.Fatal("escrow id ignores creator")
	}
}

func TestEscrowLifecycleFullRelease(t *testing.T) {
	st := seededState()

	create := escrowTx(types.TxCreateEscrow, &types.CreateEscrowPayload{
		TaskID:          "task-1",
		Provider:        payee,
		Amount:          4 * config.CoinValue,
		TimeoutBlocks:   100,
		ChallengeWindow: 10,
	}, 5)
	if err := Verify(st, create); err != nil {
		t.Fatalf("verify create: %v", err)
	}
	if err := Apply(st, create); err != nil {
		t.Fatalf("apply create: %v", err)
	}

	id := EscrowID(payer, 5)
	esc := st.Escrows[id]
	if esc == nil {
		t.Fatal("escrow not created")
	}
	if esc.Status != types.EscrowCreated {
		t.Fatalf("status = %v, want created", esc.Status)
	}
	if got := st.Account(payer).Balance; got != 96*config.CoinValue {
		t.Fatalf("payer balance = %d, want %d", got, 96*config.CoinValue)
	}

	deposit := escrowTx(types.TxDepositEscrow, &types.DepositEscrowPayload{
		EscrowID: id,
		Amount:   6 * config.CoinValue,
	}, 6)
	if err := Verify(st, deposit); err != nil {
		t.Fatalf("verify deposit: %v", err)
	}
	if err := Apply(st, deposit); err != nil {
		t.Fatalf("apply deposit: %v", err)
	}
	if esc.Status != types.EscrowFunded {
		t.Fatalf("status = %v, want funded", esc.Status)
	}
	if esc.Amount != 10*config.CoinValue {
		t.Fatalf("escrow amount = %d, want %d", esc.Amount, 10*config.CoinValue)
	}

	release := escrowTx(types.TxReleaseEscrow, &types.ReleaseEscrowPayload{
		EscrowID: id,
		Amount:   10 * config.CoinValue,
	}, 7)
	if err := Verify(st, release); err != nil {
		t.Fatalf("verify release: %v", err)
	}
	if err := Apply(st, release); err != nil {
		t.Fatalf("apply release: %v", err)
	}
	if esc.Status != types.EscrowReleased {
		t.Fatalf("status = %v, want released", esc.Status)
	}
	if esc.Amount != 0 {
		t.Fatalf("escrow amount = %d, want 0", esc.Amount)
	}
	if got := st.Account(payee).Balance; got != 10*config.CoinValue {
		t.Fatalf("payee balance = %d, want %d", got, 10*config.CoinValue)
	}
}

func TestEscrowPartialReleaseThenRefund(t *testing.T) {
	st := seededState()
	id := EscrowID(payer, 5)
	st.Escrows[id] = &types.Escrow{
		ID:     id,
		Payer:  payer,
		Payee:  payee,
		Amount: 10 * config.CoinValue,
		Status: types.EscrowFunded,
	}

	release := escrowTx(types.TxReleaseEscrow, &types.ReleaseEscrowPayload{
		EscrowID: id,
		Amount:   4 * config.CoinValue,
	}, 6)
	if err := Apply(st, release); err != nil {
		t.Fatalf("apply release: %v", err)
	}
	esc := st.Escrows[id]
	if esc.Status != types.EscrowPendingRelease {
		t.Fatalf("status = %v, want pending_release", esc.Status)
	}
	if esc.ReleasedAmount != 4*config.CoinValue {
		t.Fatalf("released = %d, want %d", esc.ReleasedAmount, 4*config.CoinValue)
	}

	refund := escrowTx(types.TxRefundEscrow, &types.RefundEscrowPayload{
		EscrowID: id,
		Amount:   6 * config.CoinValue,
		Reason:   "provider no-show",
	}, 7)
	if err := Verify(st, refund); err != nil {
		t.Fatalf("verify refund: %v", err)
	}
	if err := Apply(st, refund); err != nil {
		t.Fatalf("apply refund: %v", err)
	}
	if esc.Status != types.EscrowRefunded {
		t.Fatalf("status = %v, want refunded", esc.Status)
	}
	if got := st.Account(payer).Balance; got != 106*config.CoinValue {
		t.Fatalf("payer balance = %d, want %d", got, 106*config.CoinValue)
	}
}

func TestCreateEscrowRejections(t *testing.T) {
	base := func() *types.CreateEscrowPayload {
		return &types.CreateEscrowPayload{
			TaskID:          "task-1",
			Provider:        payee,
			Amount:          config.CoinValue,
			TimeoutBlocks:   100,
			ChallengeWindow: 10,
		}
	}
	tests := []struct {
		name   string
		mutate func(*types.CreateEscrowPayload)
		code   errors.Code
	}{
		{"zero amount", func(p *types.CreateEscrowPayload) { p.Amount = 0 }, errors.CodeInvalidAmount},
		{"empty task id", func(p *types.CreateEscrowPayload) { p.TaskID = "" }, errors.CodeInvalidPayload},
		{"timeout too small", func(p *types.CreateEscrowPayload) { p.TimeoutBlocks = 1 }, errors.CodeInvalidPayload},
		{"zero challenge window", func(p *types.CreateEscrowPayload) { p.ChallengeWindow = 0 }, errors.CodeInvalidPayload},
		{"bps out of range", func(p *types.CreateEscrowPayload) { p.ChallengeDepositBPS = config.MaxBPS + 1 }, errors.CodeInvalidPayload},
		{"self escrow", func(p *types.CreateEscrowPayload) { p.Provider = payer }, errors.CodeSelfOperation},
		{"unaffordable", func(p *types.CreateEscrowPayload) { p.Amount = 1_000 * config.CoinValue }, errors.CodeInsufficientBalance},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := base()
			tt.mutate(p)
			err := Verify(seededState(), escrowTx(types.TxCreateEscrow, p, 5))
			if !errors.HasCode(err, tt.code) {
				t.Fatalf("code = %v, want %v", errors.CodeOf(err), tt.code)
			}
		})
	}
}

func TestReleaseWrongState(t *testing.T) {
	st := seededState()
	id := EscrowID(payer, 5)
	st.Escrows[id] = &types.Escrow{ID: id, Payer: payer, Payee: payee, Status: types.EscrowCreated}

	err := Verify(st, escrowTx(types.TxReleaseEscrow, &types.ReleaseEscrowPayload{
		EscrowID: id,
		Amount:   config.CoinValue,
	}, 6))
	if !errors.HasCode(err, errors.CodeEscrowWrongState) {
		t.Fatalf("code = %v, want ESCROW_WRONG_STATE", errors.CodeOf(err))
	}
}

func TestChallengeAndVerdict(t *testing.T) {
	st := seededState()
	id := EscrowID(payer, 5)
	st.Escrows[id] = &types.Escrow{
		ID:     id,
		Payer:  payer,
		Payee:  payee,
		Amount: 10 * config.CoinValue,
		Status: types.EscrowFunded,
	}

	challenge := escrowTx(types.TxChallengeEscrow, &types.ChallengeEscrowPayload{
		EscrowID: id,
		Reason:   "deliverable rejected",
		Deposit:  config.CoinValue,
	}, 6)
	if err := Verify(st, challenge); err != nil {
		t.Fatalf("verify challenge: %v", err)
	}
	if err := Apply(st, challenge); err != nil {
		t.Fatalf("apply challenge: %v", err)
	}
	esc := st.Escrows[id]
	if esc.Status != types.EscrowChallenged {
		t.Fatalf("status = %v, want challenged", esc.Status)
	}
	if esc.ChallengeDeposit != config.CoinValue {
		t.Fatalf("challenge deposit = %d, want %d", esc.ChallengeDeposit, config.CoinValue)
	}

	verdict := escrowTx(types.TxSubmitVerdict, &types.SubmitVerdictPayload{
		EscrowID:    id,
		PayerAmount: 6 * config.CoinValue,
		PayeeAmount: 4 * config.CoinValue,
		Signatures:  []types.VerdictSignature{{Signer: testAddr(0x0A)}},
	}, 7)
	if err := Verify(st, verdict); err != nil {
		t.Fatalf("verify verdict: %v", err)
	}
	if err := Apply(st, verdict); err != nil {
		t.Fatalf("apply verdict: %v", err)
	}
	if esc.Status != types.EscrowResolved {
		t.Fatalf("status = %v, want resolved", esc.Status)
	}
	if esc.Amount != 0 {
		t.Fatalf("escrow amount = %d, want 0", esc.Amount)
	}
	if got := st.Account(payee).Balance; got != 4*config.CoinValue {
		t.Fatalf("payee balance = %d, want %d", got, 4*config.CoinValue)
	}
}

func TestVerdictWithoutSignatures(t *testing.T) {
	err := Verify(seededState(), escrowTx(types.TxSubmitVerdict, &types.SubmitVerdictPayload{
		EscrowID: EscrowID(payer, 5),
	}, 6))
	if !errors.HasCode(err, errors.CodeInvalidPayload) {
		t.Fatalf("code = %v, want INVALID_PAYLOAD", errors.CodeOf(err))
	}
}

func fundedEscrow(st *types.ChainState, amount uint64) *types.Escrow {
	id := EscrowID(payer, 5)
	esc := &types.Escrow{
		ID:          id,
		TaskID:      "task-1",
		Payer:       payer,
		Payee:       payee,
		Amount:      amount,
		TotalAmount: amount,
		Status:      types.EscrowFunded,
	}
	st.Escrows[id] = esc
	return esc
}

func TestCreditOverflowFailsClosed(t *testing.T) {
	const maxU64 = ^uint64(0)

	t.Run("release", func(t *testing.T) {
		st := seededState()
		esc := fundedEscrow(st, 10)
		st.Account(payee).Balance = maxU64

		rel := escrowTx(types.TxReleaseEscrow, &types.ReleaseEscrowPayload{
			EscrowID: esc.ID,
			Amount:   10,
		}, 6)
		if err := Verify(st, rel); err != nil {
			t.Fatalf("verify release: %v", err)
		}
		if err := Apply(st, rel); !errors.HasCode(err, errors.CodeOverflow) {
			t.Fatalf("code = %v, want OVERFLOW", errors.CodeOf(err))
		}
		if got := st.Account(payee).Balance; got != maxU64 {
			t.Fatalf("payee balance = %d, want untouched", got)
		}
		if esc.Amount != 10 || esc.Status != types.EscrowFunded {
			t.Fatalf("escrow mutated: amount=%d status=%v", esc.Amount, esc.Status)
		}
	})

	t.Run("refund", func(t *testing.T) {
		st := seededState()
		esc := fundedEscrow(st, 10)
		st.Account(payer).Balance = maxU64

		ref := escrowTx(types.TxRefundEscrow, &types.RefundEscrowPayload{
			EscrowID: esc.ID,
			Amount:   5,
		}, 6)
		if err := Apply(st, ref); !errors.HasCode(err, errors.CodeOverflow) {
			t.Fatalf("code = %v, want OVERFLOW", errors.CodeOf(err))
		}
		if esc.Amount != 10 || esc.RefundedAmount != 0 {
			t.Fatalf("escrow mutated: amount=%d refunded=%d", esc.Amount, esc.RefundedAmount)
		}
	})

	t.Run("verdict", func(t *testing.T) {
		st := seededState()
		esc := fundedEscrow(st, 10)
		st.Account(payee).Balance = maxU64

		verdict := escrowTx(types.TxSubmitVerdict, &types.SubmitVerdictPayload{
			EscrowID:    esc.ID,
			PayeeAmount: 1,
			Signatures:  []types.VerdictSignature{{Signer: testAddr(0x0A)}},
		}, 6)
		if err := Apply(st, verdict); !errors.HasCode(err, errors.CodeOverflow) {
			t.Fatalf("code = %v, want OVERFLOW", errors.CodeOf(err))
		}
		if esc.Status != types.EscrowFunded {
			t.Fatalf("status = %v, want funded", esc.Status)
		}
	})

	t.Run("deposit", func(t *testing.T) {
		st := seededState()
		esc := fundedEscrow(st, maxU64)

		dep := escrowTx(types.TxDepositEscrow, &types.DepositEscrowPayload{
			EscrowID: esc.ID,
			Amount:   1,
		}, 6)
		if err := Apply(st, dep); !errors.HasCode(err, errors.CodeOverflow) {
			t.Fatalf("code = %v, want OVERFLOW", errors.CodeOf(err))
		}
		if got := st.Account(payer).Balance; got != 100*config.CoinValue {
			t.Fatalf("payer balance = %d, want untouched", got)
		}
		if esc.Amount != maxU64 {
			t.Fatalf("escrow amount = %d, want untouched", esc.Amount)
		}
	})
}
