package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() Order {
	return Order{
		OrderID:       "7",
		SourceChainID: 421614,
		Sender:        "0x90F79bf6EB2c4f870365E785982E1f101E93b906",
		TokenIn:       "0xaf88d065e77c8cC2239327C5EDb3A432268e5831",
		AmountIn:      big.NewInt(100_000000),
		TokenOut:      "0x0000000000000000000000000000000000000000",
		AmountOut:     new(big.Int).Mul(big.NewInt(1), big.NewInt(1e18)),
		Recipient:     "ST2JHG361ZXG51QTKY2NQCVBPPRRE2KZB1HR05NNC",
		FillDeadline:  1_900_000_000,
	}
}

// stores runs the same suite against the in-memory and sqlite backends.
func stores(t *testing.T) map[string]Store {
	t.Helper()

	sqlite, err := OpenSQLite(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { sqlite.Close() })

	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestInsertIsIdempotent(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			inserted, err := store.Insert(sampleOrder())
			require.NoError(t, err)
			assert.True(t, inserted)

			// A replayed event with different fields must not overwrite.
			dup := sampleOrder()
			dup.AmountOut = big.NewInt(1)
			inserted, err = store.Insert(dup)
			require.NoError(t, err)
			assert.False(t, inserted)

			got, err := store.Get(421614, "7")
			require.NoError(t, err)
			assert.Equal(t, StatusOpened, got.Status)
			assert.Equal(t, "1000000000000000000", got.AmountOut.String())

			all, err := store.All()
			require.NoError(t, err)
			assert.Len(t, all, 1)
		})
	}
}

func TestSameOrderIDOnTwoChains(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			first := sampleOrder()
			second := sampleOrder()
			second.SourceChainID = 84532

			inserted, err := store.Insert(first)
			require.NoError(t, err)
			require.True(t, inserted)
			inserted, err = store.Insert(second)
			require.NoError(t, err)
			assert.True(t, inserted)

			all, err := store.All()
			require.NoError(t, err)
			assert.Len(t, all, 2)

			// ID-only lookup returns the oldest record.
			found, err := store.FindByOrderID("7")
			require.NoError(t, err)
			assert.Equal(t, uint64(421614), found.SourceChainID)
		})
	}
}

func TestStatusTransitions(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Insert(sampleOrder())
			require.NoError(t, err)

			// OPENED cannot jump straight to SETTLED.
			err = store.SetStatus(421614, "7", StatusSettled)
			assert.ErrorIs(t, err, ErrBadTransition)

			require.NoError(t, store.SetStatus(421614, "7", StatusFilled))

			// A second fill report must not re-transition.
			err = store.SetStatus(421614, "7", StatusFilled)
			assert.ErrorIs(t, err, ErrBadTransition)

			require.NoError(t, store.SetStatus(421614, "7", StatusSettled))

			// SETTLED is terminal.
			for _, next := range []Status{StatusFilled, StatusSettled, StatusRefunded} {
				assert.ErrorIs(t, store.SetStatus(421614, "7", next), ErrBadTransition)
			}

			got, err := store.Get(421614, "7")
			require.NoError(t, err)
			assert.Equal(t, StatusSettled, got.Status)
			assert.False(t, got.FilledAt.IsZero())
			assert.False(t, got.SettledAt.IsZero())
		})
	}
}

func TestRefundIsTerminal(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Insert(sampleOrder())
			require.NoError(t, err)

			require.NoError(t, store.SetStatus(421614, "7", StatusRefunded))

			assert.ErrorIs(t, store.SetStatus(421614, "7", StatusFilled), ErrBadTransition)
			assert.ErrorIs(t, store.SetStatus(421614, "7", StatusSettled), ErrBadTransition)
		})
	}
}

func TestUnknownOrder(t *testing.T) {
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(1, "999")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = store.FindByOrderID("999")
			assert.ErrorIs(t, err, ErrNotFound)

			err = store.SetStatus(1, "999", StatusFilled)
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}
