// Package planner implements cost-based single-index access planning: it
// describes candidate indexes, scores each one against the predicates a query
// supplies, and picks the cheapest access path per table.
package planner

// SortDirection is the direction of one indexed or requested sort column.
type SortDirection int

const (
	Ascending SortDirection = iota
	Descending
)

// NullsOrder says where an index places nulls relative to non-null values.
type NullsOrder int

const (
	NullsFirst NullsOrder = iota
	NullsLast
)

// Column describes one column of an index in index order. Selectivity is the
// per-column statistic (0-100) supplied by the storage layer, estimating
// distinct values relative to row count.
type Column struct {
	ID          int
	Direction   SortDirection
	Nulls       NullsOrder
	Selectivity int
}

// IndexDescriptor is the static description of one candidate index. It is
// immutable after creation; the table's index catalog owns it and the planner
// only reads it.
type IndexDescriptor struct {
	Name    string
	Columns []Column

	// UniquePrefix is the length of the leading column prefix guaranteed
	// unique by the index, 0 if the index is not unique.
	UniquePrefix int

	// Scan marks the full-table-scan pseudo index. Every table has one and
	// it is always a valid access path.
	Scan bool
}

// NewScanDescriptor returns the full-table-scan descriptor for a table.
func NewScanDescriptor(name string) *IndexDescriptor {
	return &IndexDescriptor{Name: name, Scan: true}
}

// HasColumn reports whether the index contains the column.
func (d *IndexDescriptor) HasColumn(columnID int) bool {
	for _, c := range d.Columns {
		if c.ID == columnID {
			return true
		}
	}
	return false
}

// Covers reports whether every column in required is present in the index.
// A nil set means the needed columns are unknown and the index is assumed
// not to cover them.
func (d *IndexDescriptor) Covers(required ColumnSet) bool {
	if required == nil {
		return false
	}
	for columnID := range required {
		if !d.HasColumn(columnID) {
			return false
		}
	}
	return true
}

// ColumnSet is the set of column ids a query actually needs.
type ColumnSet map[int]struct{}

// NewColumnSet builds a ColumnSet from column ids.
func NewColumnSet(columnIDs ...int) ColumnSet {
	s := make(ColumnSet, len(columnIDs))
	for _, id := range columnIDs {
		s[id] = struct{}{}
	}
	return s
}

// NullPolicy configures how nulls in a unique column prefix interact with
// uniqueness enforcement.
type NullPolicy int

const (
	// NullsDistinct exempts a row from the uniqueness check when any column
	// of the unique prefix is null.
	NullsDistinct NullPolicy = iota

	// NullsAllDistinct exempts a row only when every column of the unique
	// prefix is null.
	NullsAllDistinct

	// NullsNotDistinct makes nulls participate in uniqueness like any other
	// value; no row is exempt.
	NullsNotDistinct
)

// Row is the minimal row view needed to evaluate null exemptions. The storage
// layer supplies it.
type Row interface {
	// IsNull reports whether the value for columnID is null.
	IsNull(columnID int) bool
}

// MayHaveNullDuplicates reports whether row is exempt from the uniqueness
// check of this index under policy. The storage layer consults this before
// raising a uniqueness conflict; the planner itself never enforces
// uniqueness.
func (d *IndexDescriptor) MayHaveNullDuplicates(row Row, policy NullPolicy) bool {
	if d.UniquePrefix == 0 || policy == NullsNotDistinct {
		return false
	}
	switch policy {
	case NullsDistinct:
		for _, c := range d.Columns[:d.UniquePrefix] {
			if row.IsNull(c.ID) {
				return true
			}
		}
		return false
	default: // NullsAllDistinct
		for _, c := range d.Columns[:d.UniquePrefix] {
			if !row.IsNull(c.ID) {
				return false
			}
		}
		return true
	}
}
