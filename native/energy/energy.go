// Package energy implements the freeze/unfreeze resource family. Freezing
// the primary coin earns non-transferable energy; unfreezing routes the
// principal through a cooldown queue before it can be withdrawn.
package energy

import (
	"math/bits"

	"toschain/config"
	"toschain/core/errors"
	"toschain/core/types"
)

// EnergyFromFreeze converts a frozen amount and a day-denominated term into
// earned energy units: whole coins times twice the day count.
func EnergyFromFreeze(amount uint64, days uint32) (uint64, error) {
	coins := amount / config.CoinValue
	hi, lo := bits.Mul64(coins, 2*uint64(days))
	if hi != 0 {
		return 0, errors.New(errors.CodeOverflow, "energy gain overflow")
	}
	return lo, nil
}

func checkFreezeAmount(amount uint64) error {
	if amount == 0 {
		return errors.New(errors.CodeInvalidAmount, "freeze amount must be > 0")
	}
	if amount < config.MinFreezeTOSAmount {
		return errors.New(errors.CodeInvalidAmount, "freeze amount below minimum")
	}
	if amount%config.CoinValue != 0 {
		return errors.New(errors.CodeInvalidAmount, "freeze amount must be whole coins")
	}
	return nil
}

func checkDuration(d types.FreezeDuration) error {
	if d.Days < config.MinFreezeDurationDays || d.Days > config.MaxFreezeDurationDays {
		return errors.New(errors.CodeInvalidPayload, "freeze duration out of range")
	}
	return nil
}

// Verify checks an energy payload against the snapshot.
func Verify(st *types.ChainState, tx *types.Transaction, p *config.Params) error {
	payload, ok := tx.Payload.(*types.EnergyPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "energy payload expected")
	}
	sender := st.Account(tx.Source)
	if sender == nil {
		return errors.New(errors.CodeAccountNotFound, "sender not found")
	}

	switch op := payload.Op.(type) {
	case *types.FreezeTOS:
		if err := checkFreezeAmount(op.Amount); err != nil {
			return err
		}
		if err := checkDuration(op.Duration); err != nil {
			return err
		}
		if sender.Balance < op.Amount {
			return errors.New(errors.CodeInsufficientBalance, "insufficient balance to freeze")
		}
		if res := st.EnergyResources[tx.Source]; res != nil {
			if len(res.FreezeRecords)+len(res.DelegatedRecords) >= config.MaxFreezeRecords {
				return errors.New(errors.CodeInvalidPayload, "freeze record limit reached")
			}
		}
		return nil

	case *types.FreezeTOSDelegate:
		if len(op.Delegatees) == 0 {
			return errors.New(errors.CodeInvalidFormat, "delegatees list empty")
		}
		if len(op.Delegatees) > config.MaxDelegatees {
			return errors.New(errors.CodeInvalidPayload, "too many delegatees")
		}
		if err := checkDuration(op.Duration); err != nil {
			return err
		}
		seen := make(map[types.Address]struct{}, len(op.Delegatees))
		var total uint64
		for i := range op.Delegatees {
			entry := &op.Delegatees[i]
			if entry.Delegatee == tx.Source {
				return errors.New(errors.CodeSelfOperation, "cannot delegate to self")
			}
			if _, dup := seen[entry.Delegatee]; dup {
				return errors.New(errors.CodeInvalidPayload, "duplicate delegatee")
			}
			seen[entry.Delegatee] = struct{}{}
			if st.Account(entry.Delegatee) == nil {
				return errors.New(errors.CodeAccountNotFound, "delegatee not found")
			}
			if err := checkFreezeAmount(entry.Amount); err != nil {
				return err
			}
			sum, carry := bits.Add64(total, entry.Amount, 0)
			if carry != 0 {
				return errors.New(errors.CodeOverflow, "delegated total overflow")
			}
			total = sum
		}
		if sender.Balance < total {
			return errors.New(errors.CodeInsufficientBalance, "insufficient balance to freeze")
		}
		if res := st.EnergyResources[tx.Source]; res != nil {
			if len(res.FreezeRecords)+len(res.DelegatedRecords)+len(op.Delegatees) > config.MaxFreezeRecords {
				return errors.New(errors.CodeInvalidPayload, "freeze record limit reached")
			}
		}
		return nil

	case *types.UnfreezeTOS:
		if op.Amount == 0 {
			return errors.New(errors.CodeInvalidAmount, "unfreeze amount must be > 0")
		}
		if op.Amount < config.MinUnfreezeTOSAmount {
			return errors.New(errors.CodeInvalidAmount, "unfreeze amount below minimum")
		}
		if op.Amount%config.CoinValue != 0 {
			return errors.New(errors.CodeInvalidAmount, "unfreeze amount must be whole coins")
		}
		if sender.Frozen < op.Amount {
			return errors.New(errors.CodeInsufficientFrozen, "unfreeze amount exceeds frozen balance")
		}
		res := st.EnergyResources[tx.Source]
		if res != nil {
			if len(res.PendingUnfreezes) >= config.MaxPendingUnfreezes {
				return errors.New(errors.CodeInvalidPayload, "pending unfreeze limit reached")
			}
			unlocked, err := unlockedAmount(res, op, st.Global.BlockHeight)
			if err != nil {
				return err
			}
			if unlocked < op.Amount {
				return errors.New(errors.CodeInsufficientFrozen, "unfreeze amount exceeds unlocked frozen balance")
			}
		}
		return nil

	case *types.WithdrawUnfrozen:
		return nil

	default:
		return errors.New(errors.CodeInvalidPayload, "unknown energy variant")
	}
}

// unlockedAmount sums the records matching op whose unlock height has
// passed.
func unlockedAmount(res *types.EnergyResource, op *types.UnfreezeTOS, height uint64) (uint64, error) {
	var total uint64
	if op.FromDelegation {
		matched := false
		for i := range res.DelegatedRecords {
			rec := &res.DelegatedRecords[i]
			if op.DelegateeAddress != nil && rec.Delegatee != *op.DelegateeAddress {
				continue
			}
			matched = true
			if rec.UnlockHeight <= height {
				total += rec.Amount
			}
		}
		if op.DelegateeAddress != nil && !matched {
			return 0, errors.New(errors.CodeDelegationNotFound, "no delegated freeze for delegatee")
		}
		return total, nil
	}
	if op.RecordIndex != nil {
		idx := int(*op.RecordIndex)
		if idx >= len(res.FreezeRecords) {
			return 0, errors.New(errors.CodeInvalidPayload, "freeze record index out of range")
		}
		rec := &res.FreezeRecords[idx]
		if rec.UnlockHeight <= height {
			return rec.Amount, nil
		}
		return 0, nil
	}
	for i := range res.FreezeRecords {
		rec := &res.FreezeRecords[i]
		if rec.UnlockHeight <= height {
			total += rec.Amount
		}
	}
	return total, nil
}

// Apply mutates st with the energy operation.
func Apply(st *types.ChainState, tx *types.Transaction, p *config.Params) error {
	payload, ok := tx.Payload.(*types.EnergyPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "energy payload expected")
	}
	sender := st.Account(tx.Source)
	if sender == nil {
		return errors.New(errors.CodeAccountNotFound, "sender not found")
	}
	height := st.Global.BlockHeight

	switch op := payload.Op.(type) {
	case *types.FreezeTOS:
		gained, err := EnergyFromFreeze(op.Amount, op.Duration.Days)
		if err != nil {
			return err
		}
		if sender.Balance < op.Amount {
			return errors.New(errors.CodeInsufficientBalance, "insufficient balance to freeze")
		}
		sender.Balance -= op.Amount
		frozen, carry := bits.Add64(sender.Frozen, op.Amount, 0)
		if carry != 0 {
			return errors.New(errors.CodeOverflow, "frozen balance overflow")
		}
		sender.Frozen = frozen
		if err := creditEnergy(st, sender, gained); err != nil {
			return err
		}

		res := st.EnsureEnergyResource(tx.Source)
		resFrozen, carry := bits.Add64(res.FrozenTOS, op.Amount, 0)
		if carry != 0 {
			return errors.New(errors.CodeOverflow, "resource frozen overflow")
		}
		resEnergy, carry := bits.Add64(res.Energy, gained, 0)
		if carry != 0 {
			return errors.New(errors.CodeOverflow, "resource energy overflow")
		}
		res.FrozenTOS = resFrozen
		res.Energy = resEnergy
		res.FreezeRecords = append(res.FreezeRecords, types.FreezeRecord{
			Amount:       op.Amount,
			EnergyGained: gained,
			FreezeHeight: height,
			UnlockHeight: height + uint64(op.Duration.Days)*p.BlocksPerDay,
		})
		return nil

	case *types.FreezeTOSDelegate:
		for i := range op.Delegatees {
			entry := &op.Delegatees[i]
			gained, err := EnergyFromFreeze(entry.Amount, op.Duration.Days)
			if err != nil {
				return err
			}
			if sender.Balance < entry.Amount {
				return errors.New(errors.CodeInsufficientBalance, "insufficient balance to freeze")
			}
			sender.Balance -= entry.Amount
			frozen, carry := bits.Add64(sender.Frozen, entry.Amount, 0)
			if carry != 0 {
				return errors.New(errors.CodeOverflow, "frozen balance overflow")
			}
			sender.Frozen = frozen

			delegatee := st.Account(entry.Delegatee)
			if delegatee == nil {
				return errors.New(errors.CodeAccountNotFound, "delegatee not found")
			}
			if err := creditEnergy(st, delegatee, gained); err != nil {
				return err
			}
			deleRes := st.EnsureEnergyResource(entry.Delegatee)
			deleEnergy, carry := bits.Add64(deleRes.Energy, gained, 0)
			if carry != 0 {
				return errors.New(errors.CodeOverflow, "resource energy overflow")
			}
			deleRes.Energy = deleEnergy

			res := st.EnsureEnergyResource(tx.Source)
			resFrozen, carry := bits.Add64(res.FrozenTOS, entry.Amount, 0)
			if carry != 0 {
				return errors.New(errors.CodeOverflow, "resource frozen overflow")
			}
			res.FrozenTOS = resFrozen
			res.DelegatedRecords = append(res.DelegatedRecords, types.DelegatedFreezeRecord{
				Delegatee:    entry.Delegatee,
				Amount:       entry.Amount,
				EnergyGained: gained,
				FreezeHeight: height,
				UnlockHeight: height + uint64(op.Duration.Days)*p.BlocksPerDay,
			})
		}
		return nil

	case *types.UnfreezeTOS:
		if sender.Frozen < op.Amount {
			return errors.New(errors.CodeInsufficientFrozen, "unfreeze amount exceeds frozen balance")
		}
		sender.Frozen -= op.Amount
		res := st.EnergyResources[tx.Source]
		if res != nil {
			consumeRecords(res, op, st.Global.BlockHeight)
			if res.FrozenTOS >= op.Amount {
				res.FrozenTOS -= op.Amount
			} else {
				res.FrozenTOS = 0
			}
			res.PendingUnfreezes = append(res.PendingUnfreezes, types.PendingUnfreeze{
				Amount:         op.Amount,
				FromDelegation: op.FromDelegation,
				ExpireHeight:   height + p.UnfreezeCooldownBlocks(),
			})
		}
		return nil

	case *types.WithdrawUnfrozen:
		res := st.EnergyResources[tx.Source]
		if res == nil {
			// No bookkeeping record: release everything still frozen.
			released := sender.Frozen
			sender.Frozen = 0
			sum, carry := bits.Add64(sender.Balance, released, 0)
			if carry != 0 {
				return errors.New(errors.CodeOverflow, "balance overflow")
			}
			sender.Balance = sum
			return nil
		}
		var released uint64
		remaining := res.PendingUnfreezes[:0]
		for _, pending := range res.PendingUnfreezes {
			if pending.ExpireHeight <= height {
				released += pending.Amount
			} else {
				remaining = append(remaining, pending)
			}
		}
		res.PendingUnfreezes = remaining
		if released > 0 {
			sum, carry := bits.Add64(sender.Balance, released, 0)
			if carry != 0 {
				return errors.New(errors.CodeOverflow, "balance overflow")
			}
			sender.Balance = sum
		}
		return nil

	default:
		return errors.New(errors.CodeInvalidPayload, "unknown energy variant")
	}
}

// creditEnergy adds gained units to both the account and the global counter,
// each overflow-checked.
func creditEnergy(st *types.ChainState, acct *types.Account, gained uint64) error {
	sum, carry := bits.Add64(acct.Energy, gained, 0)
	if carry != 0 {
		return errors.New(errors.CodeOverflow, "account energy overflow")
	}
	total, carry := bits.Add64(st.Global.TotalEnergy, gained, 0)
	if carry != 0 {
		return errors.New(errors.CodeOverflow, "total_energy overflow")
	}
	acct.Energy = sum
	st.Global.TotalEnergy = total
	return nil
}

// consumeRecords walks the matching unlocked records oldest first, shrinking
// them by the unfrozen amount and dropping the ones fully consumed.
func consumeRecords(res *types.EnergyResource, op *types.UnfreezeTOS, height uint64) {
	left := op.Amount
	if op.FromDelegation {
		kept := res.DelegatedRecords[:0]
		for _, rec := range res.DelegatedRecords {
			if left > 0 && rec.UnlockHeight <= height &&
				(op.DelegateeAddress == nil || rec.Delegatee == *op.DelegateeAddress) {
				if rec.Amount <= left {
					left -= rec.Amount
					continue
				}
				rec.Amount -= left
				left = 0
			}
			kept = append(kept, rec)
		}
		res.DelegatedRecords = kept
		return
	}
	if op.RecordIndex != nil {
		idx := int(*op.RecordIndex)
		if idx < len(res.FreezeRecords) {
			rec := &res.FreezeRecords[idx]
			if rec.Amount <= left {
				res.FreezeRecords = append(res.FreezeRecords[:idx], res.FreezeRecords[idx+1:]...)
			} else {
				rec.Amount -= left
			}
		}
		return
	}
	kept := res.FreezeRecords[:0]
	for _, rec := range res.FreezeRecords {
		if left > 0 && rec.UnlockHeight <= height {
			if rec.Amount <= left {
				left -= rec.Amount
				continue
			}
			rec.Amount -= left
			left = 0
		}
		kept = append(kept, rec)
	}
	res.FreezeRecords = kept
}
