package core

import (
	"testing"

	"toschain/config"
	"toschain/core/types"
)

func TestStateDigestIndependentOfInsertionOrder(t *testing.T) {
	build := func(order []byte) *types.ChainState {
		st := types.NewChainState(config.ChainIDDevnet)
		st.Global.TotalSupply = 5_000
		st.Global.BlockHeight = 42
		for _, b := range order {
			a := addr(b)
			st.Accounts[a] = &types.Account{Address: a, Balance: uint64(b) * 100, Nonce: uint64(b)}
		}
		return st
	}

	d1 := ComputeStateDigest(build([]byte{1, 2, 3}))
	d2 := ComputeStateDigest(build([]byte{3, 1, 2}))
	if d1 != d2 {
		t.Fatal("digest depends on insertion order")
	}
}

func TestStateDigestSensitivity(t *testing.T) {
	st := types.NewChainState(config.ChainIDDevnet)
	st.Accounts[alice] = &types.Account{Address: alice, Balance: 1_000, Nonce: 1}
	base := ComputeStateDigest(st)

	t.Run("balance", func(t *testing.T) {
		mod := st.Clone()
		mod.Accounts[alice].Balance++
		if ComputeStateDigest(mod) == base {
			t.Fatal("balance change not reflected in digest")
		}
	})
	t.Run("nonce", func(t *testing.T) {
		mod := st.Clone()
		mod.Accounts[alice].Nonce++
		if ComputeStateDigest(mod) == base {
			t.Fatal("nonce change not reflected in digest")
		}
	})
	t.Run("global counter", func(t *testing.T) {
		mod := st.Clone()
		mod.Global.TotalBurned++
		if ComputeStateDigest(mod) == base {
			t.Fatal("global counter change not reflected in digest")
		}
	})
	t.Run("account data", func(t *testing.T) {
		mod := st.Clone()
		mod.Accounts[alice].Data = []byte{0x01}
		if ComputeStateDigest(mod) == base {
			t.Fatal("account data change not reflected in digest")
		}
	})
}

func TestStateDigestHex(t *testing.T) {
	st := types.NewChainState(config.ChainIDDevnet)
	got := StateDigestHex(st)
	if len(got) != 64 {
		t.Fatalf("digest hex length = %d, want 64", len(got))
	}
}
