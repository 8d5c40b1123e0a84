// Package account implements multisig configuration and agent account
// metadata operations.
package account

import (
	"toschain/config"
	"toschain/core/errors"
	"toschain/core/types"
)

// VerifyMultisig checks a multisig setup or clear payload. A zero
// threshold with no participants clears an existing configuration.
func VerifyMultisig(st *types.ChainState, tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.MultisigPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "multisig payload expected")
	}
	if p.Threshold == 0 && len(p.Participants) == 0 {
		if _, exists := st.MultisigConfigs[tx.Source]; !exists {
			return errors.New(errors.CodeInvalidPayload, "multisig not configured")
		}
		return nil
	}
	if p.Threshold == 0 {
		return errors.New(errors.CodeInvalidPayload, "threshold must be > 0 for setup")
	}
	if len(p.Participants) == 0 {
		return errors.New(errors.CodeInvalidFormat, "participants must not be empty")
	}
	if len(p.Participants) > config.MaxMultisigParticipants {
		return errors.New(errors.CodeInvalidPayload, "too many multisig participants")
	}
	seen := make(map[types.Address]struct{}, len(p.Participants))
	for _, pk := range p.Participants {
		if _, dup := seen[pk]; dup {
			return errors.New(errors.CodeInvalidSignature, "duplicate participant")
		}
		seen[pk] = struct{}{}
	}
	if int(p.Threshold) > len(p.Participants) {
		return errors.New(errors.CodeInvalidPayload, "threshold exceeds participant count")
	}
	return nil
}

// ApplyMultisig installs or clears the sender's multisig configuration.
func ApplyMultisig(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.MultisigPayload)
	if p.Threshold == 0 && len(p.Participants) == 0 {
		delete(st.MultisigConfigs, tx.Source)
		return nil
	}
	st.MultisigConfigs[tx.Source] = &types.MultisigConfig{
		Threshold:    p.Threshold,
		Participants: append([]types.Address(nil), p.Participants...),
	}
	return nil
}

// VerifyAgentAccount checks an agent account metadata operation.
func VerifyAgentAccount(st *types.ChainState, tx *types.Transaction) error {
	p, ok := tx.Payload.(*types.AgentAccountPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "agent_account payload expected")
	}
	switch op := p.Op.(type) {
	case *types.AgentRegister:
		if op.Controller == types.ZeroAddress {
			return errors.New(errors.CodeInvalidPayload, "controller must not be zero")
		}
		if op.Controller == tx.Source {
			return errors.New(errors.CodeInvalidPayload, "controller must differ from owner")
		}
		if op.PolicyHash == types.ZeroHash {
			return errors.New(errors.CodeAccountNotFound, "policy_hash must not be zero")
		}
		if _, exists := st.AgentAccounts[tx.Source]; exists {
			return errors.New(errors.CodeAccountExists, "agent account already registered")
		}
	case *types.AgentUpdatePolicy:
		if op.PolicyHash == types.ZeroHash {
			return errors.New(errors.CodeAccountNotFound, "policy_hash must not be zero")
		}
		if _, exists := st.AgentAccounts[tx.Source]; !exists {
			return errors.New(errors.CodeAccountNotFound, "agent account not registered")
		}
	case *types.AgentRotateController:
		meta, exists := st.AgentAccounts[tx.Source]
		if !exists {
			return errors.New(errors.CodeAccountNotFound, "agent account not registered")
		}
		if op.NewController == types.ZeroAddress {
			return errors.New(errors.CodeInvalidPayload, "new_controller must not be zero")
		}
		if op.NewController == tx.Source {
			return errors.New(errors.CodeInvalidPayload, "new_controller must differ from owner")
		}
		if op.NewController == meta.Controller {
			return errors.New(errors.CodeInvalidPayload, "new_controller same as current")
		}
	case *types.AgentSetStatus:
		if _, exists := st.AgentAccounts[tx.Source]; !exists {
			return errors.New(errors.CodeAccountNotFound, "agent account not registered")
		}
		if op.Status != 0 && op.Status != 1 {
			return errors.New(errors.CodeAccountNotFound, "invalid agent account parameter")
		}
	case *types.AgentSetEnergyPool:
		if _, exists := st.AgentAccounts[tx.Source]; !exists {
			return errors.New(errors.CodeAccountNotFound, "agent account not registered")
		}
	case *types.AgentSetSessionKeyRoot:
		if _, exists := st.AgentAccounts[tx.Source]; !exists {
			return errors.New(errors.CodeAccountNotFound, "agent account not registered")
		}
	default:
		return errors.New(errors.CodeInvalidPayload, "unknown agent_account variant")
	}
	return nil
}

// ApplyAgentAccount mutates the sender's agent metadata.
func ApplyAgentAccount(st *types.ChainState, tx *types.Transaction) error {
	p := tx.Payload.(*types.AgentAccountPayload)
	switch op := p.Op.(type) {
	case *types.AgentRegister:
		st.AgentAccounts[tx.Source] = &types.AgentAccountMeta{
			Owner:          tx.Source,
			Controller:     op.Controller,
			PolicyHash:     op.PolicyHash,
			EnergyPool:     copyAddr(op.EnergyPool),
			SessionKeyRoot: copyHash(op.SessionKeyRoot),
		}
	case *types.AgentUpdatePolicy:
		st.AgentAccounts[tx.Source].PolicyHash = op.PolicyHash
	case *types.AgentRotateController:
		st.AgentAccounts[tx.Source].Controller = op.NewController
	case *types.AgentSetStatus:
		st.AgentAccounts[tx.Source].Status = op.Status
	case *types.AgentSetEnergyPool:
		st.AgentAccounts[tx.Source].EnergyPool = copyAddr(op.EnergyPool)
	case *types.AgentSetSessionKeyRoot:
		st.AgentAccounts[tx.Source].SessionKeyRoot = copyHash(op.SessionKeyRoot)
	}
	return nil
}

func copyAddr(a *types.Address) *types.Address {
	if a == nil {
		return nil
	}
	cp := *a
	return &cp
}

func copyHash(h *types.Hash) *types.Hash {
	if h == nil {
		return nil
	}
	cp := *h
	return &cp
}
