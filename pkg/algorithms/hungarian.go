package algorithms

import "math"

const assignmentInf = math.MaxInt / 4

// solveAssignment returns, for each row of the square cost matrix, the
// column it is matched to in a minimum-cost perfect matching. It is the
// shortest-augmenting-path Hungarian method with row/column potentials,
// O(n^3), and fully deterministic for a given matrix.
func solveAssignment(cost [][]int) []int {
	n := len(cost)
	if n == 0 {
		return nil
	}

	// 1-based arrays; column 0 is the virtual start of each augmentation.
	u := make([]int, n+1)
	v := make([]int, n+1)
	match := make([]int, n+1) // match[col] = row
	way := make([]int, n+1)
	minv := make([]int, n+1)
	used := make([]bool, n+1)

	for row := 1; row <= n; row++ {
		match[0] = row
		col0 := 0
		for j := range minv {
			minv[j] = assignmentInf
			used[j] = false
		}

		for {
			used[col0] = true
			row0 := match[col0]
			delta := assignmentInf
			col1 := 0

			for j := 1; j <= n; j++ {
				if used[j] {
					continue
				}
				cur := cost[row0-1][j-1] - u[row0] - v[j]
				if cur < minv[j] {
					minv[j] = cur
					way[j] = col0
				}
				if minv[j] < delta {
					delta = minv[j]
					col1 = j
				}
			}

			for j := 0; j <= n; j++ {
				if used[j] {
					u[match[j]] += delta
					v[j] -= delta
				} else {
					minv[j] -= delta
				}
			}

			col0 = col1
			if match[col0] == 0 {
				break
			}
		}

		// Flip the augmenting path
		for col0 != 0 {
			col1 := way[col0]
			match[col0] = match[col1]
			col0 = col1
		}
	}

	rowToCol := make([]int, n)
	for j := 1; j <= n; j++ {
		if match[j] > 0 {
			rowToCol[match[j]-1] = j - 1
		}
	}
	return rowToCol
}
