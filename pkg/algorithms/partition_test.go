package algorithms

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartition_IDsAndGroups(t *testing.T) {
	p := Partition{5, 1, 5, 3, 1}

	assert.Equal(t, []int{1, 3, 5}, p.IDs())
	assert.Equal(t, 3, p.CommunityCount())
	assert.Equal(t, [][]int{{1, 4}, {3}, {0, 2}}, p.Groups())
	assert.Equal(t, Partition{0, 1, 0, 2, 1}, p.Canonical())
}

func TestPartition_CloneIsIndependent(t *testing.T) {
	p := Partition{0, 1}
	c := p.Clone()
	c[0] = 9

	assert.Equal(t, 0, p[0])
	assert.Nil(t, Partition(nil).Clone())
}

func TestFromAssignments(t *testing.T) {
	labels := []string{"600000.SH", "000001.SZ"}

	p, err := FromAssignments(labels, map[string]int{"000001.SZ": 2, "600000.SH": 0})
	require.NoError(t, err)
	assert.Equal(t, Partition{0, 2}, p)

	_, err = FromAssignments(labels, map[string]int{"600000.SH": 0})
	assert.ErrorIs(t, err, ErrPartitionCoverage)

	_, err = FromAssignments(labels, map[string]int{"600000.SH": 0, "000001.SZ": 1, "extra": 1})
	assert.ErrorIs(t, err, ErrPartitionCoverage)

	_, err = FromAssignments(labels, map[string]int{"600000.SH": 0, "000001.SZ": -1})
	assert.ErrorIs(t, err, ErrPartitionCoverage)
}
