package core

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"sort"

	"lukechampine.com/blake3"

	"toschain/core/types"
)

// ComputeStateDigest hashes the externally visible portion of a snapshot
// into a 32-byte BLAKE3 digest. The serialization is canonical: global
// counters first, then every account sorted ascending by raw address bytes,
// so the result is independent of map iteration order.
func ComputeStateDigest(st *types.ChainState) [32]byte {
	var buf bytes.Buffer

	writeU64 := func(v uint64) {
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], v)
		buf.Write(b[:])
	}

	writeU64(st.Global.TotalSupply)
	writeU64(st.Global.TotalBurned)
	writeU64(st.Global.TotalEnergy)
	writeU64(st.Global.BlockHeight)
	writeU64(st.Global.Timestamp)

	addrs := make([]types.Address, 0, len(st.Accounts))
	for addr := range st.Accounts {
		addrs = append(addrs, addr)
	}
	sort.Slice(addrs, func(i, j int) bool {
		return bytes.Compare(addrs[i][:], addrs[j][:]) < 0
	})

	for _, addr := range addrs {
		acct := st.Accounts[addr]
		buf.Write(addr[:])
		writeU64(acct.Balance)
		writeU64(acct.Nonce)
		writeU64(acct.Frozen)
		writeU64(acct.Energy)
		writeU64(acct.Flags)
		writeU64(uint64(len(acct.Data)))
		buf.Write(acct.Data)
	}

	return blake3.Sum256(buf.Bytes())
}

// StateDigestHex returns the digest as a lowercase hex string.
func StateDigestHex(st *types.ChainState) string {
	digest := ComputeStateDigest(st)
	return hex.EncodeToString(digest[:])
}
