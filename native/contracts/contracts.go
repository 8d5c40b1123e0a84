// Package contracts implements contract deployment and invocation. The
// virtual machine itself lives outside the engine: deployment stores the
// module keyed by its content hash and invocation only accounts for the
// attached deposits.
package contracts

import (
	"toschain/config"
	"toschain/core/errors"
	"toschain/core/types"

	"lukechampine.com/blake3"
)

// VerifyDeploy checks a contract deployment.
func VerifyDeploy(st *types.ChainState, tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.DeployContractPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "deploy_contract payload expected")
	}
	if len(p.Module) == 0 {
		return errors.New(errors.CodeInvalidPayload, "module must not be empty")
	}
	return nil
}

// ApplyDeploy deducts the deployment cost and stores the module keyed by
// its content hash.
func ApplyDeploy(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.DeployContractPayload)

	sender := st.Account(tx.Source)
	if sender != nil {
		if sender.Balance < config.BurnPerContract {
			return errors.New(errors.CodeInsufficientBalance, "insufficient balance for deployment cost")
		}
		sender.Balance -= config.BurnPerContract
	}

	moduleHash := types.Hash(blake3.Sum256(p.Module))
	st.Contracts[moduleHash] = &types.ContractState{
		Deployer:   tx.Source,
		ModuleHash: moduleHash,
		Module:     append([]byte(nil), p.Module...),
	}
	return nil
}

// VerifyInvoke checks a contract invocation.
func VerifyInvoke(st *types.ChainState, tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.InvokeContractPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "invoke_contract payload expected")
	}
	if p.MaxGas == 0 {
		return errors.New(errors.CodeInvalidPayload, "max_gas must be > 0")
	}
	if len(p.Deposits) > config.MaxDepositPerInvokeCall {
		return errors.New(errors.CodeInvalidPayload, "too many deposits")
	}
	for _, d := range p.Deposits {
		if d.Amount == 0 {
			return errors.New(errors.CodeInvalidAmount, "deposit amount must be > 0")
		}
	}
	return nil
}

// ApplyInvoke debits the attached deposits from the sender.
func ApplyInvoke(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.InvokeContractPayload)

	sender := st.Account(tx.Source)
	if sender == nil {
		return errors.New(errors.CodeAccountNotFound, "sender not found")
	}
	for _, d := range p.Deposits {
		if sender.Balance < d.Amount {
			return errors.New(errors.CodeInsufficientBalance, "insufficient balance for deposit")
		}
		sender.Balance -= d.Amount
	}
	return nil
}
