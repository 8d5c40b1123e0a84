package contracts

import (
	"testing"

	"lukechampine.com/blake3"

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

var deployer = testAddr(0x01)

func seededState() *types.ChainState {
	st := types.NewChainState(config.ChainIDDevnet)
	st.Accounts[deployer] = &types.Account{Address: deployer, Balance: 10 * config.CoinValue, Nonce: 5}
	return st
}

func TestDeploy(t *testing.T) {
	st := seededState()
	module := []byte("contract bytecode")
	tx := &types.Transaction{
		Source:  deployer,
		Type:    types.TxDeployContract,
		Payload: &types.DeployContractPayload{Module: module},
	}
	if err := VerifyDeploy(st, tx); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := ApplyDeploy(st, tx); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if got := st.Account(deployer).Balance; got != 9*config.CoinValue {
		t.Fatalf("balance = %d, want %d", got, 9*config.CoinValue)
	}
	hash := types.Hash(blake3.Sum256(module))
	contract := st.Contracts[hash]
	if contract == nil {
		t.Fatal("contract not stored")
	}
	if contract.Deployer != deployer {
		t.Fatal("deployer not recorded")
	}
	if string(contract.Module) != string(module) {
		t.Fatal("module bytes mismatch")
	}
}

func TestDeployRejections(t *testing.T) {
	t.Run("empty module", func(t *testing.T) {
		err := VerifyDeploy(seededState(), &types.Transaction{
			Source:  deployer,
			Payload: &types.DeployContractPayload{},
		})
		if !errors.HasCode(err, errors.CodeInvalidPayload) {
			t.Fatalf("code = %v, want INVALID_PAYLOAD", errors.CodeOf(err))
		}
	})
	t.Run("deployment cost unaffordable", func(t *testing.T) {
		st := seededState()
		st.Accounts[deployer].Balance = config.BurnPerContract - 1
		err := ApplyDeploy(st, &types.Transaction{
			Source:  deployer,
			Payload: &types.DeployContractPayload{Module: []byte{0x01}},
		})
		if !errors.HasCode(err, errors.CodeInsufficientBalance) {
			t.Fatalf("code = %v, want INSUFFICIENT_BALANCE", errors.CodeOf(err))
		}
	})
}

func TestInvoke(t *testing.T) {
	st := seededState()
	tx := &types.Transaction{
		Source: deployer,
		Type:   types.TxInvokeContract,
		Payload: &types.InvokeContractPayload{
			MaxGas: 10_000,
			Deposits: []types.ContractDeposit{
				{Amount: config.CoinValue},
				{Amount: 2 * config.CoinValue},
			},
		},
	}
	if err := VerifyInvoke(st, tx); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := ApplyInvoke(st, tx); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if got := st.Account(deployer).Balance; got != 7*config.CoinValue {
		t.Fatalf("balance = %d, want %d", got, 7*config.CoinValue)
	}
}

func TestInvokeRejections(t *testing.T) {
	tests := []struct {
		name string
		pl   *types.InvokeContractPayload
		code errors.Code
	}{
		{"zero max gas", &types.InvokeContractPayload{}, errors.CodeInvalidPayload},
		{"zero deposit", &types.InvokeContractPayload{
			MaxGas:   1,
			Deposits: []types.ContractDeposit{{Amount: 0}},
		}, errors.CodeInvalidAmount},
		{"too many deposits", &types.InvokeContractPayload{
			MaxGas:   1,
			Deposits: make([]types.ContractDeposit, config.MaxDepositPerInvokeCall+1),
		}, errors.CodeInvalidPayload},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifyInvoke(seededState(), &types.Transaction{
				Source:  deployer,
				Payload: tt.pl,
			})
			if !errors.HasCode(err, tt.code) {
				t.Fatalf("code = %v, want %v", errors.CodeOf(err), tt.code)
			}
		})
	}
}
