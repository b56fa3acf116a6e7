package planner

// SortColumn is one column of a requested sort order.
type SortColumn struct {
	ID        int
	Direction SortDirection
}

// SortOrder is the sort a query requests, if any. A nil *SortOrder means no
// ordering is required.
type SortOrder struct {
	Columns []SortColumn
}

// prefixMatch returns the length of the leading prefix of the requested order
// that the index's leading columns match exactly, column and direction both.
func (s *SortOrder) prefixMatch(d *IndexDescriptor) int {
	n := len(s.Columns)
	if len(d.Columns) < n {
		n = len(d.Columns)
	}
	k := 0
	for i := 0; i < n; i++ {
		if d.Columns[i].ID != s.Columns[i].ID || d.Columns[i].Direction != s.Columns[i].Direction {
			break
		}
		k++
	}
	return k
}
