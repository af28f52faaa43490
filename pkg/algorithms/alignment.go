package algorithms

import (
	"fmt"
)

// Alignment relabels a current partition's community ids so that they
// overlap as much as possible with a previous partition's ids.
type Alignment struct {
	// Mapping sends each current community id to its aligned id.
	Mapping map[int]int

	// Overlap is the number of nodes whose aligned id equals their
	// previous id, the maximised quantity.
	Overlap int

	// PartialMatch is set when a current id could not be matched and
	// kept its own id. A square cost matrix makes this unreachable.
	PartialMatch bool

	// reserved holds ids a fresh community must not take.
	reserved map[int]bool
}

// Align returns a relabelled copy of current whose community ids
// maximise overlap with previous.
func Align(previous, current Partition) (Partition, error) {
	a, err := Match(previous, current)
	if err != nil {
		return nil, err
	}
	return a.Apply(current), nil
}

// Match solves the alignment of current against previous. Both must
// cover the same nodes in the same order.
func Match(previous, current Partition) (*Alignment, error) {
	return match(previous, current, nil)
}

func match(previous, current Partition, reserved []int) (*Alignment, error) {
	if len(previous) != len(current) {
		return nil, fmt.Errorf("%w: previous has %d nodes, current has %d",
			ErrPartitionSizeMismatch, len(previous), len(current))
	}
	if err := previous.Validate(len(previous)); err != nil {
		return nil, fmt.Errorf("previous: %w", err)
	}
	if err := current.Validate(len(current)); err != nil {
		return nil, fmt.Errorf("current: %w", err)
	}

	a := &Alignment{
		Mapping:  make(map[int]int),
		reserved: make(map[int]bool),
	}
	for _, id := range reserved {
		a.reserved[id] = true
	}
	if len(current) == 0 {
		return a, nil
	}

	prevIDs := previous.IDs()
	curIDs := current.IDs()
	for _, id := range prevIDs {
		a.reserved[id] = true
	}

	size := len(prevIDs)
	if len(curIDs) > size {
		size = len(curIDs)
	}

	rowOf := make(map[int]int, len(prevIDs))
	for r, id := range prevIDs {
		rowOf[id] = r
	}
	colOf := make(map[int]int, len(curIDs))
	for c, id := range curIDs {
		colOf[id] = c
	}

	// Rows beyond prevIDs and columns beyond curIDs are zero padding.
	overlap := make([][]int, size)
	cost := make([][]int, size)
	for r := range overlap {
		overlap[r] = make([]int, size)
		cost[r] = make([]int, size)
	}
	for node := range current {
		overlap[rowOf[previous[node]]][colOf[current[node]]]++
	}
	for r := range overlap {
		for c := range overlap[r] {
			cost[r][c] = -overlap[r][c]
		}
	}

	rowToCol := solveAssignment(cost)
	colToRow := make([]int, size)
	for c := range colToRow {
		colToRow[c] = -1
	}
	for r, c := range rowToCol {
		colToRow[c] = r
	}

	taken := make(map[int]bool, len(curIDs))
	var newcomers []int
	for c, id := range curIDs {
		r := colToRow[c]
		switch {
		case r < 0:
			a.PartialMatch = true
			a.Mapping[id] = id
			taken[id] = true
		case r < len(prevIDs):
			a.Mapping[id] = prevIDs[r]
			a.Overlap += overlap[r][c]
			taken[prevIDs[r]] = true
		default:
			newcomers = append(newcomers, id)
		}
	}

	// More communities now than before: new ones get fresh ids.
	for _, id := range newcomers {
		fresh := a.freshID(taken)
		a.Mapping[id] = fresh
		taken[fresh] = true
	}

	return a, nil
}

// freshID returns the smallest non-negative id neither reserved nor taken.
func (a *Alignment) freshID(taken map[int]bool) int {
	for id := 0; ; id++ {
		if !a.reserved[id] && !taken[id] {
			return id
		}
	}
}

// Apply relabels p with the alignment. Ids the alignment has not seen
// (communities made only of nodes absent from the previous slice) are
// given fresh ids that collide neither with the previous partition nor
// with any mapped id.
func (a *Alignment) Apply(p Partition) Partition {
	mapping := make(map[int]int, len(a.Mapping))
	taken := make(map[int]bool, len(a.Mapping))
	for from, to := range a.Mapping {
		mapping[from] = to
		taken[to] = true
	}

	for _, id := range p {
		if _, ok := mapping[id]; !ok {
			to := a.freshID(taken)
			mapping[id] = to
			taken[to] = true
		}
	}
	return p.Relabel(mapping)
}

// MatchByLabel aligns a current partition against a previous one whose
// node sets may differ. Overlap is counted on nodes present in both
// slices; the resulting mapping is applied to the whole current
// partition and new communities never reuse an id of previous or any of
// the retired ids.
func MatchByLabel(prevLabels []string, previous Partition, curLabels []string, current Partition, retired ...int) (*Alignment, Partition, error) {
	if len(prevLabels) != len(previous) {
		return nil, nil, fmt.Errorf("previous: %w: %d labels for %d assignments",
			ErrPartitionSizeMismatch, len(prevLabels), len(previous))
	}
	if len(curLabels) != len(current) {
		return nil, nil, fmt.Errorf("current: %w: %d labels for %d assignments",
			ErrPartitionSizeMismatch, len(curLabels), len(current))
	}

	if err := previous.Validate(len(previous)); err != nil {
		return nil, nil, fmt.Errorf("previous: %w", err)
	}
	if err := current.Validate(len(current)); err != nil {
		return nil, nil, fmt.Errorf("current: %w", err)
	}

	prevIndex := make(map[string]int, len(prevLabels))
	for i, label := range prevLabels {
		prevIndex[label] = i
	}

	prevSub := make(Partition, 0, len(current))
	curSub := make(Partition, 0, len(current))
	for i, label := range curLabels {
		j, ok := prevIndex[label]
		if !ok {
			continue
		}
		prevSub = append(prevSub, previous[j])
		curSub = append(curSub, current[i])
	}

	a, err := match(prevSub, curSub, append(previous.IDs(), retired...))
	if err != nil {
		return nil, nil, err
	}
	return a, a.Apply(current), nil
}
