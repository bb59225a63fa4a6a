// Package tableview derives the rendered page of a tabular dataset from
// filtering, sorting, pagination, column visibility and column order state.
//
// An Engine owns that state for one view. It never mutates the rows it is
// given; every derived view is recomputed from the source rows on each read.
// Engines are not safe for concurrent use.
package tableview

// ValueKind selects the comparator used when a column is sorted.
type ValueKind int

const (
	// KindText compares values with a locale-aware collator.
	KindText ValueKind = iota
	// KindNumber compares values numerically.
	KindNumber
	// KindTime compares values chronologically.
	KindTime
)

// FilterKind selects the predicate used by a per-column filter.
type FilterKind int

const (
	// FilterText keeps rows whose value contains the filter, ignoring case.
	FilterText FilterKind = iota
	// FilterSelect keeps rows whose value equals the filter exactly.
	FilterSelect
)

// String returns the name used in templates and JSON.
func (k FilterKind) String() string {
	if k == FilterSelect {
		return "select"
	}
	return "text"
}

// MarshalText encodes the kind by name.
func (k FilterKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// SortDirection is the sort state of a single column.
type SortDirection string

const (
	SortNone SortDirection = ""
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

// next walks the unsorted -> asc -> desc -> unsorted cycle.
func (d SortDirection) next() SortDirection {
	switch d {
	case SortAsc:
		return SortDesc
	case SortDesc:
		return SortNone
	default:
		return SortAsc
	}
}

func parseDirection(s string) SortDirection {
	switch s {
	case string(SortAsc):
		return SortAsc
	case string(SortDesc):
		return SortDesc
	default:
		return SortNone
	}
}

// Column describes how one field of a row is extracted, labelled, filtered
// and sorted. Columns are defined once per view.
type Column[R any] struct {
	ID     string
	Header string
	// Accessor extracts the raw cell value. A nil accessor, or one that
	// returns nil, yields an empty cell.
	Accessor func(R) any
	Kind     ValueKind
	Filter   FilterKind
	Sortable bool
	// Format renders the raw value for display. Defaults to the
	// stringified value.
	Format func(any) string
}

func (c Column[R]) value(row R) any {
	if c.Accessor == nil {
		return nil
	}
	return c.Accessor(row)
}

func (c Column[R]) text(row R) string {
	v := c.value(row)
	if c.Format != nil {
		return c.Format(v)
	}
	return Stringify(v)
}

// Field returns an accessor reading name from map-shaped rows. Missing
// fields yield nil.
func Field(name string) func(map[string]any) any {
	return func(row map[string]any) any {
		if row == nil {
			return nil
		}
		return row[name]
	}
}
