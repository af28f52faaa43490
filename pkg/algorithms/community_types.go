package algorithms

// Community represents a detected community
type Community struct {
	ID      int
	Members []int // Node indices
	Size    int
	Density float64 // Edge density within community
}
