package allocation

// Iteration is one solver pass tagged with its index. Later passes override
// earlier ones cell by cell during consolidation.
type Iteration struct {
	Index      int
	Assignment Assignment
}

// Consolidate merges an ordered sequence of iterations into a single
// assignment: for each (offer, period) cell the value from the highest
// iteration index that defines it wins; cells defined in no iteration stay
// absent (read as zero). Unsolved markers follow the same rule, except that
// a later iteration that solves the period clears the marker.
func Consolidate(iterations []Iteration) Assignment {
	order := append([]Iteration(nil), iterations...)
	for i := 1; i < len(order); i++ {
		for j := i; j > 0 && order[j].Index < order[j-1].Index; j-- {
			order[j], order[j-1] = order[j-1], order[j]
		}
	}

	out := NewAssignment()
	for _, it := range order {
		for offerID, cells := range it.Assignment.Cells {
			for p, c := range cells {
				out.set(offerID, p, c)
				delete(out.Unsolved, p)
			}
		}
		for p, reason := range it.Assignment.Unsolved {
			out.Unsolved[p] = reason
		}
	}
	return out
}
