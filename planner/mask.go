package planner

// SearchMask encodes which comparison operators a query predicate supplies
// against one column. Predicate analysis builds the masks; the planner only
// reads them.
type SearchMask uint8

const (
	// MaskEquality is an equality comparison (col = ?).
	MaskEquality SearchMask = 1 << iota

	// MaskStart is a lower bound (col >= ?).
	MaskStart

	// MaskEnd is an upper bound (col <= ?).
	MaskEnd

	// MaskSpatial is a spatial intersection predicate.
	MaskSpatial
)

// MaskRange is both bounds at once (start and end).
const MaskRange = MaskStart | MaskEnd

// HasEquality reports whether the column has an equality predicate.
func (m SearchMask) HasEquality() bool { return m&MaskEquality != 0 }

// IsRange reports whether the column is bounded on both ends.
func (m SearchMask) IsRange() bool { return m&MaskRange == MaskRange }

// StartOnly reports a lower bound with no upper bound.
func (m SearchMask) StartOnly() bool { return m&MaskRange == MaskStart }

// EndOnly reports an upper bound with no lower bound.
func (m SearchMask) EndOnly() bool { return m&MaskRange == MaskEnd }

// maskFor looks up the mask for a column id. Masks are indexed by column id;
// columns past the end of the slice carry no predicate.
func maskFor(masks []SearchMask, columnID int) SearchMask {
	if columnID < 0 || columnID >= len(masks) {
		return 0
	}
	return masks[columnID]
}
