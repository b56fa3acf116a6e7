package planner

import (
	"math"
)

const (
	// costRowOffset keeps every estimate strictly positive; no index is ever
	// free, however small the table.
	costRowOffset = 1000

	// uniqueLookupCost is the flat cost of a point lookup through a fully
	// matched unique prefix. It is the floor of the whole cost model.
	uniqueLookupCost = 3
)

// EstimateCost scores one candidate index against the predicates, row count
// estimate, requested sort order, and needed columns of a query. Lower is
// better. The function is pure: it depends only on its arguments and the
// descriptor's static shape.
//
// joinedLater marks a table filter that is not first in the chosen join
// order; such a filter cannot provide the overall result order, so the
// sorting adjustment is skipped for it.
func EstimateCost(d *IndexDescriptor, masks []SearchMask, rowCount int64, sort *SortOrder, required ColumnSet, joinedLater bool) float64 {
	rowsCost := float64(rowCount) + costRowOffset
	totalSelectivity := 0
	consumed := 0

walk:
	for i, col := range d.Columns {
		m := maskFor(masks, col.ID)
		switch {
		case m.HasEquality():
			consumed = i + 1
			totalSelectivity = 100 - (100-totalSelectivity)*(100-col.Selectivity)/100
			distinctRows := math.Max(rowsCost*float64(totalSelectivity)/100, 1)
			rowsCost = 2 + math.Max(rowsCost/distinctRows, 1)
			if d.UniquePrefix > 0 && consumed == d.UniquePrefix {
				// The whole unique prefix is pinned by equalities: a point
				// lookup, and nothing cheaper exists.
				return uniqueLookupCost
			}
		case m.IsRange():
			consumed = i + 1
			rowsCost = 2 + rowsCost/4
			break walk
		case m.StartOnly():
			consumed = i + 1
			rowsCost = 2 + rowsCost/3
			break walk
		case m.EndOnly():
			consumed = i + 1
			rowsCost = rowsCost / 3
			break walk
		default:
			// No structured predicate on this column. Still reward trailing
			// columns that carry any predicate at all, since the index can
			// evaluate those predicates without visiting the row.
			for j := i; j < len(d.Columns) && maskFor(masks, d.Columns[j].ID) != 0; j++ {
				rowsCost--
			}
			break walk
		}
	}
	// Penalize unused trailing columns: a wider index costs more to keep in
	// cache for the same benefit.
	rowsCost += float64(len(d.Columns) - consumed)

	sortingCost := 0.0
	if sort != nil && !joinedLater {
		sortingCost = 100 + rowsCost/10
		if !d.Scan {
			if k := sort.prefixMatch(d); k > 0 {
				// Index order matches a prefix of the requested order; the
				// more columns matched, the less sorting remains.
				sortingCost = float64(100 - k)
			}
		}
	}

	switch {
	case d.Scan:
		return rowsCost + sortingCost + 20
	case d.Covers(required):
		return rowsCost + sortingCost + float64(len(d.Columns))
	default:
		// Not covering: every matched row costs an extra lookup into primary
		// row storage.
		return rowsCost + rowsCost + sortingCost + 20
	}
}
