package algorithms

import (
	"fmt"
	"sort"
)

// Unassigned marks a node without a community.
const Unassigned = -1

// Partition maps node index to community id. Ids are non-negative and
// need not be contiguous.
type Partition []int

// Clone returns an independent copy
func (p Partition) Clone() Partition {
	if p == nil {
		return nil
	}
	out := make(Partition, len(p))
	copy(out, p)
	return out
}

// Equal reports whether both partitions assign identical ids.
func (p Partition) Equal(q Partition) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}

// IDs returns the distinct community ids in ascending order.
func (p Partition) IDs() []int {
	seen := make(map[int]struct{}, 8)
	for _, id := range p {
		seen[id] = struct{}{}
	}
	ids := make([]int, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// CommunityCount returns the number of distinct ids in use.
func (p Partition) CommunityCount() int {
	return len(p.IDs())
}

// Validate checks that the partition assigns every one of n nodes.
func (p Partition) Validate(n int) error {
	if len(p) != n {
		return fmt.Errorf("%w: %d assignments for %d nodes", ErrPartitionCoverage, len(p), n)
	}
	for i, id := range p {
		if id < 0 {
			return fmt.Errorf("%w: node %d is unassigned", ErrPartitionCoverage, i)
		}
	}
	return nil
}

// Members groups node indices by community id.
func (p Partition) Members() map[int][]int {
	members := make(map[int][]int)
	for node, id := range p {
		members[id] = append(members[id], node)
	}
	return members
}

// Groups returns the node groups ordered by ascending community id.
func (p Partition) Groups() [][]int {
	members := p.Members()
	ids := p.IDs()
	groups := make([][]int, 0, len(ids))
	for _, id := range ids {
		groups = append(groups, members[id])
	}
	return groups
}

// Relabel applies mapping to every id; ids absent from mapping are kept.
func (p Partition) Relabel(mapping map[int]int) Partition {
	out := make(Partition, len(p))
	for i, id := range p {
		if to, ok := mapping[id]; ok {
			out[i] = to
			continue
		}
		out[i] = id
	}
	return out
}

// Canonical renumbers ids to 0..c-1 in order of first appearance.
func (p Partition) Canonical() Partition {
	mapping := make(map[int]int)
	out := make(Partition, len(p))
	for i, id := range p {
		to, ok := mapping[id]
		if !ok {
			to = len(mapping)
			mapping[id] = to
		}
		out[i] = to
	}
	return out
}

// FromAssignments builds a partition for the given node order from a
// label -> community map. Every label must be present.
func FromAssignments(labels []string, assignments map[string]int) (Partition, error) {
	p := make(Partition, len(labels))
	for i, label := range labels {
		id, ok := assignments[label]
		if !ok {
			return nil, fmt.Errorf("%w: node %q has no community", ErrPartitionCoverage, label)
		}
		if id < 0 {
			return nil, fmt.Errorf("%w: node %q has negative community %d", ErrPartitionCoverage, label, id)
		}
		p[i] = id
	}
	if len(assignments) != len(labels) {
		return nil, fmt.Errorf("%w: %d assignments for %d nodes", ErrPartitionCoverage, len(assignments), len(labels))
	}
	return p, nil
}
