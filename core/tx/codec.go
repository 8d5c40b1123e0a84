// Package tx implements the canonical binary wire format for the
// transfers, burn and energy transaction subset, used to cross-validate
// against external codecs. All integers are big-endian. The layout is
// normative byte-for-byte: decode(encode(tx)) must reproduce tx exactly
// and any truncation or bad discriminant fails with INVALID_FORMAT.
package tx

import (
	"encoding/binary"

	"toschain/config"
	"toschain/core/errors"
	"toschain/core/types"
)

const (
	energyTagFreeze         = 0
	energyTagFreezeDelegate = 1
	energyTagUnfreeze       = 2
	energyTagWithdraw       = 3
)

type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8)     { w.buf = append(w.buf, v) }
func (w *writer) u16(v uint16)   { w.buf = binary.BigEndian.AppendUint16(w.buf, v) }
func (w *writer) u32(v uint32)   { w.buf = binary.BigEndian.AppendUint32(w.buf, v) }
func (w *writer) u64(v uint64)   { w.buf = binary.BigEndian.AppendUint64(w.buf, v) }
func (w *writer) bytes(b []byte) { w.buf = append(w.buf, b...) }

func (w *writer) bool(v bool) {
	if v {
		w.u8(1)
	} else {
		w.u8(0)
	}
}

type reader struct {
	buf []byte
	off int
}

func (r *reader) remaining() int { return len(r.buf) - r.off }

func (r *reader) u8() (uint8, error) {
	if r.remaining() < 1 {
		return 0, errors.New(errors.CodeInvalidFormat, "unexpected end of input")
	}
	v := r.buf[r.off]
	r.off++
	return v, nil
}

func (r *reader) u16() (uint16, error) {
	if r.remaining() < 2 {
		return 0, errors.New(errors.CodeInvalidFormat, "unexpected end of input")
	}
	v := binary.BigEndian.Uint16(r.buf[r.off:])
	r.off += 2
	return v, nil
}

func (r *reader) u32() (uint32, error) {
	if r.remaining() < 4 {
		return 0, errors.New(errors.CodeInvalidFormat, "unexpected end of input")
	}
	v := binary.BigEndian.Uint32(r.buf[r.off:])
	r.off += 4
	return v, nil
}

func (r *reader) u64() (uint64, error) {
	if r.remaining() < 8 {
		return 0, errors.New(errors.CodeInvalidFormat, "unexpected end of input")
	}
	v := binary.BigEndian.Uint64(r.buf[r.off:])
	r.off += 8
	return v, nil
}

func (r *reader) bytes(n int) ([]byte, error) {
	if r.remaining() < n {
		return nil, errors.New(errors.CodeInvalidFormat, "unexpected end of input")
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *reader) bool() (bool, error) {
	v, err := r.u8()
	if err != nil {
		return false, err
	}
	switch v {
	case 0:
		return false, nil
	case 1:
		return true, nil
	}
	return false, errors.New(errors.CodeInvalidFormat, "invalid boolean byte")
}

func (r *reader) addr() (types.Address, error) {
	var a types.Address
	b, err := r.bytes(32)
	if err != nil {
		return a, err
	}
	copy(a[:], b)
	return a, nil
}

func (r *reader) hash() (types.Hash, error) {
	var h types.Hash
	b, err := r.bytes(32)
	if err != nil {
		return h, err
	}
	copy(h[:], b)
	return h, nil
}

// EncodeTransaction serializes a transaction of the supported subset
// (transfers, burn, energy) in wire format.
func EncodeTransaction(t *types.Transaction) ([]byte, error) {
	if t.Version != types.TxVersionT1 {
		return nil, errors.New(errors.CodeInvalidVersion, "unsupported tx version")
	}

	w := &writer{}
	w.u8(uint8(t.Version))
	w.u8(t.ChainID)
	w.bytes(t.Source[:])
	w.u8(uint8(t.Type))

	if err := encodePayload(w, t); err != nil {
		return nil, err
	}

	w.u64(t.Fee)
	if !t.FeeType.Valid() {
		return nil, errors.New(errors.CodeInvalidPayload, "fee_type invalid")
	}
	w.u8(uint8(t.FeeType))
	w.u64(t.Nonce)
	w.bytes(t.ReferenceHash[:])
	w.u64(t.ReferenceTopoheight)

	if err := encodeMultisig(w, t.MultiSig); err != nil {
		return nil, err
	}
	w.bytes(t.Signature[:])

	return w.buf, nil
}

// DecodeTransaction parses a wire-format transaction of the supported
// subset. Trailing bytes are rejected.
func DecodeTransaction(b []byte) (*types.Transaction, error) {
	r := &reader{buf: b}

	version, err := r.u8()
	if err != nil {
		return nil, err
	}
	if types.TxVersion(version) != types.TxVersionT1 {
		return nil, errors.New(errors.CodeInvalidFormat, "unsupported tx version")
	}
	chainID, err := r.u8()
	if err != nil {
		return nil, err
	}
	source, err := r.addr()
	if err != nil {
		return nil, err
	}
	typeID, err := r.u8()
	if err != nil {
		return nil, err
	}

	t := &types.Transaction{
		Version: types.TxVersion(version),
		ChainID: chainID,
		Source:  source,
		Type:    types.TxType(typeID),
	}

	if err := decodePayload(r, t); err != nil {
		return nil, err
	}

	if t.Fee, err = r.u64(); err != nil {
		return nil, err
	}
	feeType, err := r.u8()
	if err != nil {
		return nil, err
	}
	t.FeeType = types.FeeType(feeType)
	if !t.FeeType.Valid() {
		return nil, errors.New(errors.CodeInvalidFormat, "invalid fee type")
	}
	if t.Nonce, err = r.u64(); err != nil {
		return nil, err
	}
	if t.ReferenceHash, err = r.hash(); err != nil {
		return nil, err
	}
	if t.ReferenceTopoheight, err = r.u64(); err != nil {
		return nil, err
	}
	if t.MultiSig, err = decodeMultisig(r); err != nil {
		return nil, err
	}
	sig, err := r.bytes(64)
	if err != nil {
		return nil, err
	}
	copy(t.Signature[:], sig)

	if r.remaining() != 0 {
		return nil, errors.New(errors.CodeInvalidFormat, "trailing bytes")
	}
	return t, nil
}

func encodePayload(w *writer, t *types.Transaction) error {
	switch t.Type {
	case types.TxTransfers:
		p, ok := t.Payload.(*types.TransfersPayload)
		if !ok {
			return errors.New(errors.CodeInvalidPayload, "transfers payload expected")
		}
		return encodeTransfers(w, p)
	case types.TxBurn:
		p, ok := t.Payload.(*types.BurnPayload)
		if !ok {
			return errors.New(errors.CodeInvalidPayload, "burn payload expected")
		}
		w.bytes(p.Asset[:])
		w.u64(p.Amount)
		return nil
	case types.TxEnergy:
		p, ok := t.Payload.(*types.EnergyPayload)
		if !ok {
			return errors.New(errors.CodeInvalidPayload, "energy payload expected")
		}
		return encodeEnergy(w, p)
	}
	return errors.Errorf(errors.CodeInvalidType, "unsupported tx type %d", t.Type)
}

func decodePayload(r *reader, t *types.Transaction) error {
	switch t.Type {
	case types.TxTransfers:
		p, err := decodeTransfers(r)
		if err != nil {
			return err
		}
		t.Payload = p
		return nil
	case types.TxBurn:
		asset, err := r.hash()
		if err != nil {
			return err
		}
		amount, err := r.u64()
		if err != nil {
			return err
		}
		t.Payload = &types.BurnPayload{Asset: asset, Amount: amount}
		return nil
	case types.TxEnergy:
		p, err := decodeEnergy(r)
		if err != nil {
			return err
		}
		t.Payload = p
		return nil
	}
	return errors.Errorf(errors.CodeInvalidFormat, "unsupported tx type %d", t.Type)
}

func encodeTransfers(w *writer, p *types.TransfersPayload) error {
	if len(p.Transfers) == 0 || len(p.Transfers) > config.MaxTransferCount {
		return errors.New(errors.CodeInvalidPayload, "invalid transfer count")
	}
	w.u16(uint16(len(p.Transfers)))
	extraSum := 0
	for i := range p.Transfers {
		t := &p.Transfers[i]
		if t.ExtraData != nil {
			if len(t.ExtraData) > config.ExtraDataLimitSize {
				return errors.New(errors.CodeInvalidPayload, "extra_data too large")
			}
			extraSum += 3 + len(t.ExtraData)
			if extraSum > config.ExtraDataLimitSumSize {
				return errors.New(errors.CodeInvalidPayload, "extra_data sum too large")
			}
		}
		w.bytes(t.Asset[:])
		w.bytes(t.Destination[:])
		w.u64(t.Amount)
		if t.ExtraData == nil {
			w.bool(false)
		} else {
			w.bool(true)
			w.u16(uint16(len(t.ExtraData)))
			w.bytes(t.ExtraData)
		}
	}
	return nil
}

func decodeTransfers(r *reader) (*types.TransfersPayload, error) {
	count, err := r.u16()
	if err != nil {
		return nil, err
	}
	if count == 0 || int(count) > config.MaxTransferCount {
		return nil, errors.New(errors.CodeInvalidFormat, "invalid transfer count")
	}
	entries := make([]types.TransferEntry, count)
	extraSum := 0
	for i := range entries {
		e := &entries[i]
		if e.Asset, err = r.hash(); err != nil {
			return nil, err
		}
		if e.Destination, err = r.addr(); err != nil {
			return nil, err
		}
		if e.Amount, err = r.u64(); err != nil {
			return nil, err
		}
		hasExtra, err := r.bool()
		if err != nil {
			return nil, err
		}
		if hasExtra {
			n, err := r.u16()
			if err != nil {
				return nil, err
			}
			if int(n) > config.ExtraDataLimitSize {
				return nil, errors.New(errors.CodeInvalidFormat, "extra_data too large")
			}
			extraSum += 3 + int(n)
			if extraSum > config.ExtraDataLimitSumSize {
				return nil, errors.New(errors.CodeInvalidFormat, "extra_data sum too large")
			}
			raw, err := r.bytes(int(n))
			if err != nil {
				return nil, err
			}
			e.ExtraData = append([]byte(nil), raw...)
		}
	}
	return &types.TransfersPayload{Transfers: entries}, nil
}

func encodeEnergy(w *writer, p *types.EnergyPayload) error {
	switch op := p.Op.(type) {
	case *types.FreezeTOS:
		w.u8(energyTagFreeze)
		w.u64(op.Amount)
		w.u32(op.Duration.Days)
	case *types.FreezeTOSDelegate:
		if len(op.Delegatees) > config.MaxDelegatees {
			return errors.New(errors.CodeInvalidPayload, "too many delegatees")
		}
		w.u8(energyTagFreezeDelegate)
		w.u64(uint64(len(op.Delegatees)))
		for _, d := range op.Delegatees {
			w.bytes(d.Delegatee[:])
			w.u64(d.Amount)
		}
		w.u32(op.Duration.Days)
	case *types.UnfreezeTOS:
		w.u8(energyTagUnfreeze)
		w.u64(op.Amount)
		w.bool(op.FromDelegation)
		if op.RecordIndex == nil {
			w.bool(false)
		} else {
			w.bool(true)
			w.u32(*op.RecordIndex)
		}
		if op.DelegateeAddress == nil {
			w.bool(false)
		} else {
			w.bool(true)
			w.bytes(op.DelegateeAddress[:])
		}
	case *types.WithdrawUnfrozen:
		w.u8(energyTagWithdraw)
	default:
		return errors.New(errors.CodeInvalidPayload, "unknown energy payload variant")
	}
	return nil
}

func decodeEnergy(r *reader) (*types.EnergyPayload, error) {
	tag, err := r.u8()
	if err != nil {
		return nil, err
	}
	switch tag {
	case energyTagFreeze:
		amount, err := r.u64()
		if err != nil {
			return nil, err
		}
		days, err := r.u32()
		if err != nil {
			return nil, err
		}
		return &types.EnergyPayload{Op: &types.FreezeTOS{
			Amount:   amount,
			Duration: types.FreezeDuration{Days: days},
		}}, nil
	case energyTagFreezeDelegate:
		count, err := r.u64()
		if err != nil {
			return nil, err
		}
		if count > config.MaxDelegatees {
			return nil, errors.New(errors.CodeInvalidFormat, "too many delegatees")
		}
		entries := make([]types.DelegationEntry, count)
		for i := range entries {
			if entries[i].Delegatee, err = r.addr(); err != nil {
				return nil, err
			}
			if entries[i].Amount, err = r.u64(); err != nil {
				return nil, err
			}
		}
		days, err := r.u32()
		if err != nil {
			return nil, err
		}
		return &types.EnergyPayload{Op: &types.FreezeTOSDelegate{
			Delegatees: entries,
			Duration:   types.FreezeDuration{Days: days},
		}}, nil
	case energyTagUnfreeze:
		amount, err := r.u64()
		if err != nil {
			return nil, err
		}
		fromDelegation, err := r.bool()
		if err != nil {
			return nil, err
		}
		op := &types.UnfreezeTOS{Amount: amount, FromDelegation: fromDelegation}
		hasIndex, err := r.bool()
		if err != nil {
			return nil, err
		}
		if hasIndex {
			idx, err := r.u32()
			if err != nil {
				return nil, err
			}
			op.RecordIndex = &idx
		}
		hasDelegatee, err := r.bool()
		if err != nil {
			return nil, err
		}
		if hasDelegatee {
			addr, err := r.addr()
			if err != nil {
				return nil, err
			}
			op.DelegateeAddress = &addr
		}
		return &types.EnergyPayload{Op: op}, nil
	case energyTagWithdraw:
		return &types.EnergyPayload{Op: &types.WithdrawUnfrozen{}}, nil
	}
	return nil, errors.New(errors.CodeInvalidFormat, "unknown energy payload variant")
}

func encodeMultisig(w *writer, m *types.MultiSig) error {
	if m == nil {
		w.bool(false)
		return nil
	}
	w.bool(true)
	if len(m.Signatures) > 0xFF {
		return errors.New(errors.CodeInvalidPayload, "multisig signature count too large")
	}
	seen := make(map[uint8]struct{}, len(m.Signatures))
	for _, sig := range m.Signatures {
		if _, dup := seen[sig.SignerID]; dup {
			return errors.New(errors.CodeInvalidPayload, "duplicate multisig signer_id")
		}
		seen[sig.SignerID] = struct{}{}
	}
	w.u8(uint8(len(m.Signatures)))
	for _, sig := range m.Signatures {
		w.u8(sig.SignerID)
		w.bytes(sig.Signature[:])
	}
	return nil
}

func decodeMultisig(r *reader) (*types.MultiSig, error) {
	present, err := r.bool()
	if err != nil {
		return nil, err
	}
	if !present {
		return nil, nil
	}
	count, err := r.u8()
	if err != nil {
		return nil, err
	}
	sigs := make([]types.SignatureID, count)
	seen := make(map[uint8]struct{}, count)
	for i := range sigs {
		id, err := r.u8()
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			return nil, errors.New(errors.CodeInvalidFormat, "duplicate multisig signer_id")
		}
		seen[id] = struct{}{}
		raw, err := r.bytes(64)
		if err != nil {
			return nil, err
		}
		sigs[i].SignerID = id
		copy(sigs[i].Signature[:], raw)
	}
	return &types.MultiSig{Signatures: sigs}, nil
}
