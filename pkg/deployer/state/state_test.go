package state

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStateCodeIDs(t *testing.T) {
	st := NewState()
	require.False(t, st.Has(CodeKey(ContractVault)))

	_, err := st.CodeID(ContractVault)
	require.ErrorIs(t, err, ErrMissing)

	require.NoError(t, st.SetCodeID(ContractVault, 7))
	require.ErrorIs(t, st.SetCodeID(ContractVault, 8), ErrAlreadySet)

	id, err := st.CodeID(ContractVault)
	require.NoError(t, err)
	require.EqualValues(t, 7, id)
	require.True(t, st.Has(CodeKey(ContractVault)))
	require.Equal(t, map[ContractKind]uint64{ContractVault: 7}, st.CodeIDs())
}

func TestStateAddresses(t *testing.T) {
	st := NewState()
	require.NoError(t, st.SetAddress("vault", "osmo1vault"))
	require.ErrorIs(t, st.SetAddress("vault", "osmo1other"), ErrAlreadySet)
	require.Error(t, st.SetAddress("router", ""))

	addr, err := st.Address("vault")
	require.NoError(t, err)
	require.Equal(t, "osmo1vault", addr)

	_, err = st.Addresses("vault", "router")
	require.ErrorIs(t, err, ErrMissing)

	out := st.Output()
	out["vault"] = "mutated"
	addr, err = st.Address("vault")
	require.NoError(t, err)
	require.Equal(t, "osmo1vault", addr)
}

func TestStateMarks(t *testing.T) {
	st := NewState()
	require.NoError(t, st.Mark("price:btc"))
	require.ErrorIs(t, st.Mark("price:btc"), ErrAlreadySet)
	require.True(t, st.Has("price:btc"))
	require.False(t, st.Has("price:eth"))
	require.NotContains(t, st.Output(), "price:btc")
	require.Equal(t, []string{"price:btc"}, st.Marks())
}

func TestStateConcurrentWriters(t *testing.T) {
	st := NewState()
	names := []string{"btc", "eth", "osmo", "usdc", "atom", "busd"}

	var wg sync.WaitGroup
	for _, name := range names {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			require.NoError(t, st.SetAddress(name, "osmo1"+name))
			require.NoError(t, st.Mark("seeded:"+name))
		}(name)
	}
	wg.Wait()

	require.Len(t, st.Output(), len(names))
	require.Len(t, st.Marks(), len(names))
}
