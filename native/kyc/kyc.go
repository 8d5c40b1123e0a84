// Package kyc implements KYC record lifecycle and committee governance.
//
// Approval signatures are validated structurally (count bounds, duplicate
// approvers); cryptographic verification of member signatures happens at
// the transaction envelope layer.
package kyc

import (
	"toschain/config"
	"toschain/core/errors"
	"toschain/core/types"

	"lukechampine.com/blake3"
)

// Verify checks a KYC or committee payload. now is the wall-clock unix
// time used for appeal submission windows; callers inject it so replays
// are deterministic.
func Verify(st *types.ChainState, tx *types.Transaction, p *config.Params, now int64) error {
	switch tx.Type {
	case types.TxSetKYC:
		return verifySetKYC(st, tx)
	case types.TxRevokeKYC:
		return verifyRevokeKYC(st, tx)
	case types.TxRenewKYC:
		return verifyRenewKYC(st, tx)
	case types.TxTransferKYC:
		return verifyTransferKYC(st, tx)
	case types.TxAppealKYC:
		return verifyAppealKYC(st, tx, now)
	case types.TxBootstrapCommittee:
		return verifyBootstrapCommittee(st, tx, p)
	case types.TxRegisterCommittee:
		return verifyRegisterCommittee(tx)
	case types.TxUpdateCommittee:
		return verifyUpdateCommittee(st, tx)
	case types.TxEmergencySuspend:
		return verifyEmergencySuspend(st, tx)
	default:
		return errors.Errorf(errors.CodeInvalidType, "unsupported kyc tx type %d", tx.Type)
	}
}

// Apply mutates st with the KYC or committee operation.
func Apply(st *types.ChainState, tx *types.Transaction) error {
	switch tx.Type {
	case types.TxSetKYC:
		applySetKYC(st, tx.Payload.(*types.SetKYCPayload))
	case types.TxRevokeKYC:
		applyRevokeKYC(st, tx.Payload.(*types.RevokeKYCPayload))
	case types.TxRenewKYC:
		applyRenewKYC(st, tx.Payload.(*types.RenewKYCPayload))
	case types.TxTransferKYC:
		applyTransferKYC(st, tx.Payload.(*types.TransferKYCPayload))
	case types.TxAppealKYC:
		// Appeals are recorded off-engine; the state is unchanged.
	case types.TxBootstrapCommittee:
		pl := tx.Payload.(*types.BootstrapCommitteePayload)
		storeCommittee(st, pl.Name, pl.Members, pl.Threshold, pl.KYCThreshold, pl.MaxKYCLevel)
	case types.TxRegisterCommittee:
		pl := tx.Payload.(*types.RegisterCommitteePayload)
		storeCommittee(st, pl.Name, pl.Members, pl.Threshold, pl.KYCThreshold, pl.MaxKYCLevel)
	case types.TxUpdateCommittee:
		applyUpdateCommittee(st, tx.Payload.(*types.UpdateCommitteePayload))
	case types.TxEmergencySuspend:
		applyEmergencySuspend(st, tx.Payload.(*types.EmergencySuspendPayload))
	default:
		return errors.Errorf(errors.CodeInvalidType, "unsupported kyc tx type %d", tx.Type)
	}
	return nil
}

// CommitteeID derives the committee identifier from the name and the
// member public keys, in member order.
func CommitteeID(name string, members []types.MemberDef) types.Hash {
	h := blake3.New(32, nil)
	h.Write([]byte(name))
	for _, m := range members {
		h.Write(m.PublicKey[:])
	}
	var id types.Hash
	h.Sum(id[:0])
	return id
}

func validateApprovals(approvals []types.ApprovalSignature) error {
	if len(approvals) > config.MaxApprovals {
		return errors.Errorf(errors.CodeInvalidPayload, "too many approvals (max %d)", config.MaxApprovals)
	}
	seen := make(map[types.Address]struct{}, len(approvals))
	for _, a := range approvals {
		if _, dup := seen[a.MemberPubkey]; dup {
			return errors.New(errors.CodeInvalidPayload, "duplicate approver")
		}
		seen[a.MemberPubkey] = struct{}{}
	}
	return nil
}

func verifySetKYC(st *types.ChainState, tx *types.Transaction) error {
	pl, ok := tx.Payload.(*types.SetKYCPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "set_kyc payload expected")
	}
	tier := config.KYCLevelTier(pl.Level)
	if tier < 0 {
		return errors.Errorf(errors.CodeInvalidPayload, "invalid KYC level %d", pl.Level)
	}
	if len(pl.Approvals) == 0 {
		return errors.New(errors.CodeInvalidPayload, "approvals required")
	}
	if err := validateApprovals(pl.Approvals); err != nil {
		return err
	}
	if pl.DataHash == types.ZeroHash {
		return errors.New(errors.CodeInvalidPayload, "data_hash must not be zero")
	}

	committee := st.Committees[pl.CommitteeID]
	if committee != nil && pl.Level > committee.MaxKYCLevel {
		return errors.Errorf(errors.CodeInvalidPayload,
			"level %d exceeds committee max_kyc_level %d", pl.Level, committee.MaxKYCLevel)
	}

	// Absent committees fall back to a threshold of one so that fixture
	// states without governance still admit basic records.
	required := uint32(1)
	if committee != nil {
		required = committee.KYCThreshold
	}
	if tier >= 5 {
		required++
	}
	if uint32(len(pl.Approvals)) < required {
		return errors.Errorf(errors.CodeInvalidPayload,
			"tier %d requires at least %d approvals", tier, required)
	}
	return nil
}

func applySetKYC(st *types.ChainState, pl *types.SetKYCPayload) {
	st.KYCRecords[pl.Account] = &types.KYCRecord{
		Level:      pl.Level,
		Status:     types.KYCActive,
		VerifiedAt: pl.VerifiedAt,
		DataHash:   pl.DataHash,
		Committee:  pl.CommitteeID,
	}
}

func verifyRevokeKYC(st *types.ChainState, tx *types.Transaction) error {
	pl, ok := tx.Payload.(*types.RevokeKYCPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "revoke_kyc payload expected")
	}
	if len(pl.Approvals) == 0 {
		return errors.New(errors.CodeInvalidPayload, "approvals required")
	}
	if err := validateApprovals(pl.Approvals); err != nil {
		return err
	}
	if pl.ReasonHash == types.ZeroHash {
		return errors.New(errors.CodeInvalidPayload, "reason_hash must not be zero")
	}
	if _, exists := st.KYCRecords[pl.Account]; !exists {
		return errors.New(errors.CodeAccountNotFound, "kyc record not found")
	}
	return nil
}

func applyRevokeKYC(st *types.ChainState, pl *types.RevokeKYCPayload) {
	if rec := st.KYCRecords[pl.Account]; rec != nil {
		rec.Status = types.KYCRevoked
	} else {
		st.KYCRecords[pl.Account] = &types.KYCRecord{Status: types.KYCRevoked}
	}
}

func verifyRenewKYC(st *types.ChainState, tx *types.Transaction) error {
	pl, ok := tx.Payload.(*types.RenewKYCPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "renew_kyc payload expected")
	}
	if len(pl.Approvals) == 0 {
		return errors.New(errors.CodeInvalidPayload, "approvals required")
	}
	if err := validateApprovals(pl.Approvals); err != nil {
		return err
	}
	if pl.DataHash == types.ZeroHash {
		return errors.New(errors.CodeInvalidPayload, "data_hash must not be zero")
	}
	if _, exists := st.KYCRecords[pl.Account]; !exists {
		return errors.New(errors.CodeAccountNotFound, "kyc record not found")
	}
	return nil
}

func applyRenewKYC(st *types.ChainState, pl *types.RenewKYCPayload) {
	if rec := st.KYCRecords[pl.Account]; rec != nil {
		rec.Status = types.KYCActive
		rec.VerifiedAt = pl.VerifiedAt
		rec.DataHash = pl.DataHash
	}
}

func verifyTransferKYC(st *types.ChainState, tx *types.Transaction) error {
	pl, ok := tx.Payload.(*types.TransferKYCPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "transfer_kyc payload expected")
	}
	if pl.SourceCommitteeID == pl.DestCommitteeID {
		return errors.New(errors.CodeInvalidPayload, "source and dest committee must differ")
	}
	combined := len(pl.SourceApprovals) + len(pl.DestApprovals)
	if combined > config.MaxApprovals*2 {
		return errors.Errorf(errors.CodeInvalidPayload,
			"combined approval count %d exceeds max %d", combined, config.MaxApprovals*2)
	}
	if len(pl.SourceApprovals) == 0 {
		return errors.New(errors.CodeInvalidPayload, "source_approvals required")
	}
	if len(pl.DestApprovals) == 0 {
		return errors.New(errors.CodeInvalidPayload, "dest_approvals required")
	}
	if pl.NewDataHash == types.ZeroHash {
		return errors.New(errors.CodeInvalidPayload, "new_data_hash must not be zero")
	}
	srcSeen := make(map[types.Address]struct{}, len(pl.SourceApprovals))
	for _, a := range pl.SourceApprovals {
		if _, dup := srcSeen[a.MemberPubkey]; dup {
			return errors.New(errors.CodeInvalidPayload, "duplicate approver")
		}
		srcSeen[a.MemberPubkey] = struct{}{}
	}
	for _, a := range pl.DestApprovals {
		if _, both := srcSeen[a.MemberPubkey]; both {
			return errors.New(errors.CodeInvalidPayload, "same member cannot approve for both source and dest")
		}
	}
	if _, exists := st.KYCRecords[pl.Account]; !exists {
		return errors.New(errors.CodeAccountNotFound, "kyc record not found")
	}
	return nil
}

func applyTransferKYC(st *types.ChainState, pl *types.TransferKYCPayload) {
	if rec := st.KYCRecords[pl.Account]; rec != nil {
		rec.DataHash = pl.NewDataHash
		rec.VerifiedAt = pl.TransferredAt
		rec.Committee = pl.DestCommitteeID
	}
}

func verifyAppealKYC(st *types.ChainState, tx *types.Transaction, now int64) error {
	pl, ok := tx.Payload.(*types.AppealKYCPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "appeal_kyc payload expected")
	}
	if pl.OriginalCommitteeID == pl.ParentCommitteeID {
		return errors.New(errors.CodeInvalidPayload, "original and parent committee must differ")
	}
	if pl.ReasonHash == types.ZeroHash {
		return errors.New(errors.CodeInvalidPayload, "reason_hash must not be zero")
	}
	if pl.DocumentsHash == types.ZeroHash {
		return errors.New(errors.CodeInvalidPayload, "documents_hash must not be zero")
	}
	submitted := int64(pl.SubmittedAt)
	if submitted > now+config.ApprovalFutureToleranceSeconds {
		return errors.New(errors.CodeInvalidPayload, "submitted_at too far in the future")
	}
	if submitted < now-config.ApprovalFutureToleranceSeconds {
		return errors.New(errors.CodeInvalidPayload, "submitted_at too far in the past")
	}
	rec := st.KYCRecords[pl.Account]
	if rec == nil {
		return errors.New(errors.CodeAccountNotFound, "kyc record not found")
	}
	if rec.Status != types.KYCRevoked && rec.Status != types.KYCSuspended {
		return errors.New(errors.CodeInvalidPayload, "can only appeal revoked or suspended KYC")
	}
	return nil
}

func verifyCommitteeDef(name string, members []types.MemberDef, threshold, kycThreshold uint32, maxLevel uint16) error {
	if name == "" || len(name) > config.MaxCommitteeNameLen {
		return errors.New(errors.CodeInvalidPayload, "invalid committee name length")
	}
	if len(members) < config.MinCommitteeMembers {
		return errors.Errorf(errors.CodeInvalidPayload, "need at least %d members", config.MinCommitteeMembers)
	}
	if len(members) > config.MaxCommitteeMembers {
		return errors.Errorf(errors.CodeInvalidPayload, "max %d members", config.MaxCommitteeMembers)
	}
	seen := make(map[types.Address]struct{}, len(members))
	for _, m := range members {
		if len(m.Name) > config.MaxMemberNameLen {
			return errors.New(errors.CodeInvalidPayload, "member name too long")
		}
		if _, dup := seen[m.PublicKey]; dup {
			return errors.New(errors.CodeInvalidPayload, "duplicate member public key")
		}
		seen[m.PublicKey] = struct{}{}
	}
	count := uint32(len(members))
	if threshold == 0 || threshold > count {
		return errors.New(errors.CodeInvalidPayload, "invalid threshold")
	}
	if threshold > config.MaxApprovals {
		return errors.New(errors.CodeInvalidPayload, "threshold exceeds max approvals")
	}
	if kycThreshold == 0 || kycThreshold > count {
		return errors.New(errors.CodeInvalidPayload, "invalid kyc_threshold")
	}
	if kycThreshold > config.MaxApprovals {
		return errors.New(errors.CodeInvalidPayload, "kyc_threshold exceeds max approvals")
	}
	if config.KYCLevelTier(maxLevel) < 0 {
		return errors.New(errors.CodeInvalidPayload, "invalid max_kyc_level")
	}
	return nil
}

func verifyBootstrapCommittee(st *types.ChainState, tx *types.Transaction, p *config.Params) error {
	pl, ok := tx.Payload.(*types.BootstrapCommitteePayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "bootstrap_committee payload expected")
	}
	if p != nil && p.BootstrapAddress != types.ZeroAddress && tx.Source != p.BootstrapAddress {
		return errors.New(errors.CodeUnauthorized, "only bootstrap address can create global committee")
	}
	if len(st.Committees) > 0 {
		return errors.New(errors.CodeAccountExists, "global committee already bootstrapped")
	}
	return verifyCommitteeDef(pl.Name, pl.Members, pl.Threshold, pl.KYCThreshold, pl.MaxKYCLevel)
}

func verifyRegisterCommittee(tx *types.Transaction) error {
	pl, ok := tx.Payload.(*types.RegisterCommitteePayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "register_committee payload expected")
	}
	if len(pl.Approvals) == 0 {
		return errors.New(errors.CodeInvalidPayload, "approvals required")
	}
	if err := validateApprovals(pl.Approvals); err != nil {
		return err
	}
	return verifyCommitteeDef(pl.Name, pl.Members, pl.Threshold, pl.KYCThreshold, pl.MaxKYCLevel)
}

func storeCommittee(st *types.ChainState, name string, members []types.MemberDef, threshold, kycThreshold uint32, maxLevel uint16) {
	id := CommitteeID(name, members)
	seats := make([]types.CommitteeMember, len(members))
	for i, m := range members {
		seats[i] = types.CommitteeMember{PublicKey: m.PublicKey, Name: m.Name, Role: m.Role}
	}
	st.Committees[id] = &types.Committee{
		ID:           id,
		Name:         name,
		Members:      seats,
		Threshold:    threshold,
		KYCThreshold: kycThreshold,
		MaxKYCLevel:  maxLevel,
	}
}

func verifyUpdateCommittee(st *types.ChainState, tx *types.Transaction) error {
	pl, ok := tx.Payload.(*types.UpdateCommitteePayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "update_committee payload expected")
	}
	if len(pl.Approvals) == 0 {
		return errors.New(errors.CodeInvalidPayload, "approvals required")
	}
	if err := validateApprovals(pl.Approvals); err != nil {
		return err
	}
	if _, exists := st.Committees[pl.CommitteeID]; !exists {
		return errors.New(errors.CodeAccountNotFound, "committee not found")
	}
	switch u := pl.Update.(type) {
	case *types.AddMember:
		if len(u.Name) > config.MaxMemberNameLen {
			return errors.New(errors.CodeInvalidPayload, "member name too long")
		}
	case *types.UpdateThreshold:
		if u.NewThreshold == 0 {
			return errors.New(errors.CodeInvalidPayload, "threshold must be > 0")
		}
	case *types.UpdateKYCThreshold:
		if u.NewKYCThreshold == 0 {
			return errors.New(errors.CodeInvalidPayload, "kyc_threshold must be > 0")
		}
	case *types.UpdateName:
		if u.NewName == "" || len(u.NewName) > config.MaxCommitteeNameLen {
			return errors.New(errors.CodeInvalidPayload, "invalid committee name length")
		}
	case *types.RemoveMember:
	default:
		return errors.New(errors.CodeInvalidPayload, "unknown committee update")
	}
	return nil
}

func applyUpdateCommittee(st *types.ChainState, pl *types.UpdateCommitteePayload) {
	committee := st.Committees[pl.CommitteeID]
	if committee == nil {
		return
	}
	switch u := pl.Update.(type) {
	case *types.AddMember:
		committee.Members = append(committee.Members, types.CommitteeMember{
			PublicKey: u.PublicKey,
			Name:      u.Name,
			Role:      u.Role,
		})
	case *types.RemoveMember:
		kept := committee.Members[:0]
		for _, m := range committee.Members {
			if m.PublicKey != u.PublicKey {
				kept = append(kept, m)
			}
		}
		committee.Members = kept
	case *types.UpdateThreshold:
		committee.Threshold = u.NewThreshold
	case *types.UpdateKYCThreshold:
		committee.KYCThreshold = u.NewKYCThreshold
	case *types.UpdateName:
		committee.Name = u.NewName
	}
}

func verifyEmergencySuspend(st *types.ChainState, tx *types.Transaction) error {
	pl, ok := tx.Payload.(*types.EmergencySuspendPayload)
	if !ok {
		return errors.New(errors.CodeInvalidPayload, "emergency_suspend payload expected")
	}
	if len(pl.Approvals) < config.EmergencySuspendMinApprovals {
		return errors.Errorf(errors.CodeInvalidPayload,
			"need at least %d approvals", config.EmergencySuspendMinApprovals)
	}
	if err := validateApprovals(pl.Approvals); err != nil {
		return err
	}
	if pl.ReasonHash == types.ZeroHash {
		return errors.New(errors.CodeInvalidPayload, "reason_hash must not be zero")
	}
	if _, exists := st.KYCRecords[pl.Account]; !exists {
		return errors.New(errors.CodeAccountNotFound, "kyc record not found")
	}
	return nil
}

func applyEmergencySuspend(st *types.ChainState, pl *types.EmergencySuspendPayload) {
	if rec := st.KYCRecords[pl.Account]; rec != nil {
		rec.Status = types.KYCSuspended
	} else {
		st.KYCRecords[pl.Account] = &types.KYCRecord{Status: types.KYCSuspended}
	}
}
