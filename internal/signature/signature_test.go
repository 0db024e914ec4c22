package signature

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEightPages(t *testing.T) {
	m, err := Resolve(8)
	require.NoError(t, err)

	// Logical slot -> physical index for one full two-sheet signature.
	assert.Equal(t, Mapping{1, 2, 5, 6, 7, 4, 3, 0}, m)
	assert.True(t, m.Complete())
}

func TestResolveEvenCountsAreBijections(t *testing.T) {
	for n := 2; n <= 64; n += 2 {
		m, err := Resolve(n)
		require.NoError(t, err)
		require.Len(t, m, n)

		seen := make(map[int]bool, n)
		for slot, phys := range m {
			require.NotEqual(t, Unresolved, phys, "n=%d slot %d unresolved", n, slot)
			require.GreaterOrEqual(t, phys, 0)
			require.Less(t, phys, n)
			require.False(t, seen[phys], "n=%d physical %d assigned twice", n, phys)
			seen[phys] = true
		}
	}
}

func TestResolveZeroPages(t *testing.T) {
	m, err := Resolve(0)
	require.NoError(t, err)
	assert.Empty(t, m)
	assert.True(t, m.Complete())
}

func TestResolveOddCountLeavesOneSlotUnresolved(t *testing.T) {
	for _, n := range []int{1, 3, 5, 7, 9, 21} {
		m, err := Resolve(n)
		require.NoError(t, err)
		require.Len(t, m, n)

		unresolved := m.UnresolvedSlots()
		assert.Len(t, unresolved, 1, "n=%d", n)
		assert.False(t, m.Complete())

		// The assigned slots must still be collision free.
		seen := make(map[int]bool, n)
		for _, phys := range m {
			if phys == Unresolved {
				continue
			}
			require.False(t, seen[phys], "n=%d physical %d assigned twice", n, phys)
			seen[phys] = true
		}
	}
}

func TestResolveFivePages(t *testing.T) {
	m, err := Resolve(5)
	require.NoError(t, err)

	// Physical 4 has no partner on its sheet; logical slot 2 stays empty.
	assert.Equal(t, Mapping{1, 2, Unresolved, 3, 0}, m)
	assert.Equal(t, []int{2}, m.UnresolvedSlots())
}

func TestResolveNegativeCount(t *testing.T) {
	_, err := Resolve(-1)
	assert.Error(t, err)
}
