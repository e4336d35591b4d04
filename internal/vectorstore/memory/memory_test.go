package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStorage_SearchOrdersByCosine(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Init(2))
	require.NoError(t, s.Upsert([]int{0, 1, 2}, [][]float64{
		{1, 0},
		{0, 1},
		{0.6, 0.8},
	}))

	hits, err := s.Search([]float64{0, 1}, 0)
	require.NoError(t, err)
	require.Len(t, hits, 3)
	assert.Equal(t, 1, hits[0].Index)
	assert.Equal(t, 2, hits[1].Index)
	assert.InDelta(t, 0.8, hits[1].Score, 1e-12)
	assert.Equal(t, 0, hits[2].Index)

	top, err := s.Search([]float64{0, 1}, 1)
	require.NoError(t, err)
	assert.Len(t, top, 1)
}

func TestStorage_UpsertReplacesExistingID(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Init(2))
	require.NoError(t, s.Upsert([]int{7}, [][]float64{{1, 0}}))
	require.NoError(t, s.Upsert([]int{7}, [][]float64{{0, 1}}))
	assert.Equal(t, 1, s.Len())

	hits, err := s.Search([]float64{0, 1}, 1)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-12)
}

func TestStorage_TiesKeepInsertionOrder(t *testing.T) {
	s := NewStorage()
	require.NoError(t, s.Init(1))
	require.NoError(t, s.Upsert([]int{3, 1, 2}, [][]float64{{0}, {0}, {0}}))

	hits, err := s.Search([]float64{1}, 0)
	require.NoError(t, err)
	assert.Equal(t, []int{3, 1, 2}, []int{hits[0].Index, hits[1].Index, hits[2].Index})
}

func TestStorage_Validation(t *testing.T) {
	s := NewStorage()
	assert.Error(t, s.Init(0))
	require.NoError(t, s.Init(2))
	assert.Error(t, s.Upsert([]int{0}, nil))
	assert.Error(t, s.Upsert([]int{0}, [][]float64{{1}}))
	_, err := s.Search([]float64{1}, 1)
	assert.Error(t, err)

	require.NoError(t, s.Upsert([]int{0}, [][]float64{{1, 0}}))
	require.NoError(t, s.Clear())
	assert.Zero(t, s.Len())
}
