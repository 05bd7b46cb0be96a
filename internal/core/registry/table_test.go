package registry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTable(t *testing.T) {
	t.Run("GrowsOnThirteenthInsert", func(t *testing.T) {
		tbl := New[int, string](IntHasher[int](), WithInitialCapacity(16))
		for k := 0; k < 12; k++ {
			tbl.Insert(k, fmt.Sprint(k))
		}
		require.Equal(t, 16, tbl.Capacity())
		require.Equal(t, 0.75, tbl.LoadFactor())

		tbl.Insert(12, "12")
		require.Equal(t, 32, tbl.Capacity())
		require.Equal(t, 1, tbl.Rehashes())
		require.Equal(t, 13, tbl.Len())

		for k := 0; k < 13; k++ {
			v, ok := tbl.Find(k)
			require.True(t, ok, "key %d", k)
			require.Equal(t, fmt.Sprint(k), v)
		}
	})

	t.Run("OverwriteInPlace", func(t *testing.T) {
		tbl := New[string, int](StringHasher())
		tbl.Insert("a", 1)
		tbl.Insert("a", 2)
		require.Equal(t, 1, tbl.Len())
		v, ok := tbl.Find("a")
		require.True(t, ok)
		require.Equal(t, 2, v)
	})

	t.Run("Remove", func(t *testing.T) {
		// small tables keep the keys chained in shared buckets
		tbl := New[int, int](IntHasher[int](), WithInitialCapacity(1), WithLoadFactor(1))
		tbl.Insert(1, 10)
		tbl.Insert(2, 20)
		tbl.Insert(3, 30)

		require.True(t, tbl.Remove(2))
		require.False(t, tbl.Remove(2))
		require.False(t, tbl.Contains(2))
		require.True(t, tbl.Contains(1))
		require.True(t, tbl.Contains(3))
		require.Equal(t, 2, tbl.Len())
	})

	t.Run("KeysValues", func(t *testing.T) {
		tbl := New[uint64, int](IntHasher[uint64]())
		for k := uint64(0); k < 40; k++ {
			tbl.Insert(k, int(k)*2)
		}
		require.Len(t, tbl.Keys(), 40)
		require.Len(t, tbl.Values(), 40)
		sum := 0
		for _, v := range tbl.Values() {
			sum += v
		}
		require.Equal(t, 2*(39*40/2), sum)
		require.LessOrEqual(t, tbl.LoadFactor(), DefaultLoadFactor)
	})

	t.Run("RangeStops", func(t *testing.T) {
		tbl := New[int, int](IntHasher[int]())
		for k := 0; k < 5; k++ {
			tbl.Insert(k, k)
		}
		seen := 0
		tbl.Range(func(int, int) bool {
			seen++
			return seen < 2
		})
		require.Equal(t, 2, seen)
	})

	t.Run("ClearIdempotent", func(t *testing.T) {
		tbl := New[int, int](IntHasher[int]())
		for k := 0; k < 20; k++ {
			tbl.Insert(k, k)
		}
		capacity := tbl.Capacity()
		tbl.Clear()
		tbl.Clear()
		require.True(t, tbl.IsEmpty())
		require.Equal(t, capacity, tbl.Capacity())
		require.Empty(t, tbl.Keys())
		_, ok := tbl.Find(3)
		require.False(t, ok)
	})

	t.Run("FindAfterInsert", func(t *testing.T) {
		tbl := New[string, int](StringHasher(), WithInitialCapacity(2))
		for i := 0; i < 200; i++ {
			tbl.Insert(fmt.Sprintf("k%d", i), i)
		}
		for i := 0; i < 200; i++ {
			v, ok := tbl.Find(fmt.Sprintf("k%d", i))
			require.True(t, ok)
			require.Equal(t, i, v)
		}
	})
}
