package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Selection Tests
// ============================================================================

func TestSelection_ToggleAddsAndRemoves(t *testing.T) {
	var s Selection
	assert.Equal(t, SelectionAdded, s.Toggle(10))
	assert.Equal(t, SelectionAdded, s.Toggle(20))
	assert.True(t, s.Contains(10))

	assert.Equal(t, SelectionRemoved, s.Toggle(10))
	assert.False(t, s.Contains(10))
	assert.Equal(t, []int64{20}, s.IDs())
}

func TestSelection_NeverExceedsMax(t *testing.T) {
	var s Selection
	for _, id := range []int64{1, 2, 3, 4} {
		require.Equal(t, SelectionAdded, s.Toggle(id))
	}
	require.True(t, s.Full())

	before := s.IDs()
	assert.Equal(t, SelectionRejected, s.Toggle(5))
	assert.Equal(t, before, s.IDs())
	assert.Len(t, s.StoreIDs, MaxSelectedStores)
}

func TestSelection_KeepsInsertionOrder(t *testing.T) {
	var s Selection
	s.Toggle(3)
	s.Toggle(1)
	s.Toggle(2)
	s.Toggle(1)
	s.Toggle(1)
	assert.Equal(t, []int64{3, 2, 1}, s.IDs())
}

func TestSelection_IDsIsCopy(t *testing.T) {
	s := Selection{StoreIDs: []int64{1, 2}}
	ids := s.IDs()
	ids[0] = 99
	assert.Equal(t, int64(1), s.StoreIDs[0])
}

func TestSelection_RemoveDoesNotAliasCopies(t *testing.T) {
	s := Selection{StoreIDs: []int64{1, 2, 3}}
	snapshot := s.StoreIDs
	s.Toggle(1)
	assert.Equal(t, []int64{1, 2, 3}, snapshot)
	assert.Equal(t, []int64{2, 3}, s.StoreIDs)
}

// ============================================================================
// Store discovery Tests
// ============================================================================

func TestMergeStores_FirstPositionLastValue(t *testing.T) {
	prev := []Store{{ID: 1, StoreName: "old"}, {ID: 2, StoreName: "two"}}
	next := []Store{{ID: 3, StoreName: "three"}, {ID: 1, StoreName: "new"}}

	merged := MergeStores(prev, next)
	require.Len(t, merged, 3)
	assert.Equal(t, int64(1), merged[0].ID)
	assert.Equal(t, "new", merged[0].StoreName)
	assert.Equal(t, int64(2), merged[1].ID)
	assert.Equal(t, int64(3), merged[2].ID)
}

func TestMergeStores_DuplicatesWithinPage(t *testing.T) {
	merged := MergeStores(nil, []Store{{ID: 7, City: "Haifa"}, {ID: 7, City: "Tel Aviv"}})
	require.Len(t, merged, 1)
	assert.Equal(t, "Tel Aviv", merged[0].City)
}

func TestStoreBrowse_ApplyPage(t *testing.T) {
	b := NewStoreBrowse(30)
	assert.True(t, b.HasMore)
	assert.Equal(t, 0, b.NextPage)

	b.ApplyPage([]Store{{ID: 1}, {ID: 2}})
	assert.Equal(t, 1, b.NextPage)
	assert.True(t, b.HasMore)

	b.ApplyPage([]Store{{ID: 2}, {ID: 3}})
	assert.Equal(t, 2, b.NextPage)
	assert.Len(t, b.Stores, 3)

	b.ApplyPage(nil)
	assert.False(t, b.HasMore)
	assert.Equal(t, 2, b.NextPage, "an empty page does not advance the cursor")
	assert.Len(t, b.Stores, 3)
}

func TestStoreQuery_IsEmpty(t *testing.T) {
	assert.True(t, StoreQuery{}.IsEmpty())
	assert.False(t, StoreQuery{City: "Haifa"}.IsEmpty())
	assert.False(t, StoreQuery{Chain: "Shufersal"}.IsEmpty())
}
