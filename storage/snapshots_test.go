package storage

import (
	"testing"

	"github.com/stretchr/testify/require"

	"toschain/config"
	"toschain/core"
	"toschain/core/types"
)

func testState(t *testing.T, height uint64) *types.ChainState {
	t.Helper()
	st := types.NewChainState(config.ChainIDDevnet)
	st.Global.TotalSupply = 1_000_000
	st.Global.BlockHeight = height
	var addr types.Address
	addr[0] = 0x01
	st.Accounts[addr] = &types.Account{Address: addr, Balance: 500_000, Nonce: 3}
	return st
}

func TestSnapshotStorePutGet(t *testing.T) {
	store := NewSnapshotStore(NewMemDB())
	st := testState(t, 1)

	digest, err := store.Put(st)
	require.NoError(t, err)
	require.Equal(t, core.ComputeStateDigest(st), digest)

	loaded, err := store.Get(digest)
	require.NoError(t, err)
	require.Equal(t, digest, core.ComputeStateDigest(loaded))
	require.Equal(t, st.Global, loaded.Global)
	require.Len(t, loaded.Accounts, 1)
}

func TestSnapshotStorePutIdempotent(t *testing.T) {
	store := NewSnapshotStore(NewMemDB())
	st := testState(t, 1)

	first, err := store.Put(st)
	require.NoError(t, err)
	second, err := store.Put(st.Clone())
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestSnapshotStoreLatest(t *testing.T) {
	store := NewSnapshotStore(NewMemDB())

	_, err := store.Put(testState(t, 1))
	require.NoError(t, err)
	newer := testState(t, 2)
	want, err := store.Put(newer)
	require.NoError(t, err)

	loaded, digest, err := store.Latest()
	require.NoError(t, err)
	require.Equal(t, want, digest)
	require.Equal(t, uint64(2), loaded.Global.BlockHeight)
}

func TestSnapshotStoreLatestEmpty(t *testing.T) {
	store := NewSnapshotStore(NewMemDB())
	_, _, err := store.Latest()
	require.Error(t, err)
}

func TestSnapshotStoreGetMissing(t *testing.T) {
	store := NewSnapshotStore(NewMemDB())
	var digest [32]byte
	digest[0] = 0xFF
	_, err := store.Get(digest)
	require.Error(t, err)
}

func TestLevelDBRoundTrip(t *testing.T) {
	db, err := NewLevelDB(t.TempDir())
	require.NoError(t, err)
	defer db.Close()

	store := NewSnapshotStore(db)
	st := testState(t, 5)
	digest, err := store.Put(st)
	require.NoError(t, err)

	loaded, latest, err := store.Latest()
	require.NoError(t, err)
	require.Equal(t, digest, latest)
	require.Equal(t, st.Global, loaded.Global)
}
