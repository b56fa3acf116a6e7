package planner

// PlanItem is the chosen access path for one table access: the winning index
// and its cost, plus links to the plans of subsequent table accesses in the
// join order. It is created fresh per planning call and discarded once the
// physical access path is materialized.
type PlanItem struct {
	Cost  float64
	Masks []SearchMask
	Index *IndexDescriptor

	// Join is the plan for the next table access in the join order.
	Join *PlanItem

	// NestedJoin is the plan for a nested join subtree hanging off this
	// access, when the join shape requires one.
	NestedJoin *PlanItem
}

// TableAccess is one table's contribution to a query: the candidate indexes
// its catalog offers, the search masks visible at its position in the join
// order, and the storage layer's row count estimate.
type TableAccess struct {
	Name       string
	Candidates []*IndexDescriptor
	Masks      []SearchMask
	RowCount   int64

	// JoinedLater marks an access that is not first in the chosen join
	// order.
	JoinedLater bool
}

// ChoosePlan evaluates every candidate index for one table access, always
// including the full-table scan, and returns the cheapest as a PlanItem. On
// an exact cost tie a specific index beats the scan; the scan is always a
// valid answer but never the winner when an equally cheap index exists.
func ChoosePlan(access TableAccess, sort *SortOrder, required ColumnSet) *PlanItem {
	candidates := access.Candidates
	haveScan := false
	for _, d := range candidates {
		if d.Scan {
			haveScan = true
			break
		}
	}
	if !haveScan {
		candidates = append(append([]*IndexDescriptor{}, candidates...), NewScanDescriptor("scan:"+access.Name))
	}

	var best *PlanItem
	for _, d := range candidates {
		cost := EstimateCost(d, access.Masks, access.RowCount, sort, required, access.JoinedLater)
		switch {
		case best == nil, cost < best.Cost:
		case cost == best.Cost && best.Index.Scan && !d.Scan:
			// Tie against the scan: prefer the specific index.
		default:
			continue
		}
		best = &PlanItem{
			Cost:  cost,
			Masks: access.Masks,
			Index: d,
		}
	}
	return best
}

// ComposeJoin plans each table access of a join in the given (already chosen)
// order and links the per-access PlanItems into a chain. Only the first
// access can provide the requested sort order; required column sets are per
// access, parallel to accesses.
func ComposeJoin(accesses []TableAccess, sort *SortOrder, required []ColumnSet) *PlanItem {
	var head, tail *PlanItem
	for i, access := range accesses {
		access.JoinedLater = i > 0
		var req ColumnSet
		if i < len(required) {
			req = required[i]
		}
		var order *SortOrder
		if i == 0 {
			order = sort
		}
		item := ChoosePlan(access, order, req)
		if head == nil {
			head = item
		} else {
			tail.Join = item
		}
		tail = item
	}
	return head
}
