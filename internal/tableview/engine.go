package tableview

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// DefaultPageSize is the page size of a freshly mounted view.
const DefaultPageSize = 5

// Engine holds the view state of one table and derives its visible rows.
type Engine[R any] struct {
	columns []Column[R]
	byID    map[string]int
	rows    []R
	rowKey  func(R) string

	globalFilter  string
	columnFilters map[string]string
	sortColumn    string
	sortDir       SortDirection
	pageIndex     int
	pageSize      int
	hidden        map[string]bool
	order         []string

	fold     cases.Caser
	collator *collate.Collator
}

// Option customises an Engine at construction.
type Option[R any] func(*Engine[R])

// WithRowKey sets an explicit row identity. Rows are otherwise keyed by
// their index in the source collection.
func WithRowKey[R any](fn func(R) string) Option[R] {
	return func(e *Engine[R]) {
		e.rowKey = fn
	}
}

// WithPageSize overrides DefaultPageSize.
func WithPageSize[R any](n int) Option[R] {
	return func(e *Engine[R]) {
		if n > 0 {
			e.pageSize = n
		}
	}
}

// WithLanguage selects the collation used for text columns.
func WithLanguage[R any](tag language.Tag) Option[R] {
	return func(e *Engine[R]) {
		e.collator = collate.New(tag)
	}
}

// New mounts a view over rows with the default state: no sort, no
// filters, first page, DefaultPageSize.
func New[R any](columns []Column[R], rows []R, opts ...Option[R]) *Engine[R] {
	e := &Engine[R]{
		columns:       slices.Clone(columns),
		byID:          make(map[string]int, len(columns)),
		rows:          rows,
		columnFilters: make(map[string]string),
		hidden:        make(map[string]bool),
		pageSize:      DefaultPageSize,
		fold:          cases.Fold(),
		collator:      collate.New(language.Und),
	}
	for i, col := range e.columns {
		e.byID[col.ID] = i
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetRows replaces the dataset wholesale. The page index is re-clamped.
func (e *Engine[R]) SetRows(rows []R) {
	e.rows = rows
	e.clampPage()
}

// Columns returns the column definitions in definition order.
func (e *Engine[R]) Columns() []Column[R] {
	return slices.Clone(e.columns)
}

func (e *Engine[R]) column(id string) (Column[R], bool) {
	i, ok := e.byID[id]
	if !ok {
		return Column[R]{}, false
	}
	return e.columns[i], true
}

// GlobalFilter returns the current global filter text.
func (e *Engine[R]) GlobalFilter() string {
	return e.globalFilter
}

// SetGlobalFilter replaces the global filter and returns to the first page.
func (e *Engine[R]) SetGlobalFilter(text string) {
	e.globalFilter = text
	e.pageIndex = 0
}

// ColumnFilter returns the filter value of a column, or "" when unset.
func (e *Engine[R]) ColumnFilter(columnID string) string {
	return e.columnFilters[columnID]
}

// SetColumnFilter upserts one column filter and returns to the first page.
// An empty value removes the filter.
func (e *Engine[R]) SetColumnFilter(columnID, value string) {
	if value == "" {
		delete(e.columnFilters, columnID)
	} else {
		e.columnFilters[columnID] = value
	}
	e.pageIndex = 0
}

// CanSort reports whether the column exists and is sortable.
func (e *Engine[R]) CanSort(columnID string) bool {
	col, ok := e.column(columnID)
	return ok && col.Sortable
}

// SortDirection returns the column's current direction.
func (e *Engine[R]) SortDirection(columnID string) SortDirection {
	if columnID == "" || columnID != e.sortColumn {
		return SortNone
	}
	return e.sortDir
}

// NextSortDirection returns the direction ToggleSort would move the column
// to.
func (e *Engine[R]) NextSortDirection(columnID string) SortDirection {
	if !e.CanSort(columnID) {
		return SortNone
	}
	return e.SortDirection(columnID).next()
}

// ToggleSort cycles a column through unsorted, ascending and descending.
// Only one column is sorted at a time. The page index is kept.
func (e *Engine[R]) ToggleSort(columnID string) {
	if !e.CanSort(columnID) {
		return
	}
	next := e.NextSortDirection(columnID)
	if next == SortNone {
		e.sortColumn, e.sortDir = "", SortNone
	} else {
		e.sortColumn, e.sortDir = columnID, next
	}
	e.clampPage()
}

func (e *Engine[R]) setSort(columnID string, dir SortDirection) {
	if dir == SortNone || !e.CanSort(columnID) {
		e.sortColumn, e.sortDir = "", SortNone
		return
	}
	e.sortColumn, e.sortDir = columnID, dir
}

// PageIndex returns the 0-based index of the current page.
func (e *Engine[R]) PageIndex() int {
	return e.pageIndex
}

// PageSize returns the number of rows per page.
func (e *Engine[R]) PageSize() int {
	return e.pageSize
}

// PageCount returns ceil(FilteredCount / PageSize).
func (e *Engine[R]) PageCount() int {
	return pageCount(e.FilteredCount(), e.pageSize)
}

func pageCount(n, size int) int {
	if n <= 0 || size <= 0 {
		return 0
	}
	return (n-1)/size + 1
}

// SetPageIndex moves to page n, clamping into the valid range.
func (e *Engine[R]) SetPageIndex(n int) {
	e.pageIndex = clamp(n, e.PageCount())
}

// GoToPage interprets 1-based user input. Empty or non-numeric input
// selects the first page.
func (e *Engine[R]) GoToPage(input string) {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil {
		e.SetPageIndex(0)
		return
	}
	e.SetPageIndex(n - 1)
}

// SetPageSize replaces the page size and re-clamps the page index.
// Non-positive sizes are ignored.
func (e *Engine[R]) SetPageSize(n int) {
	if n <= 0 {
		return
	}
	e.pageSize = n
	e.clampPage()
}

// CanPreviousPage reports whether a previous page exists.
func (e *Engine[R]) CanPreviousPage() bool {
	return e.pageIndex > 0
}

// CanNextPage reports whether a following page exists.
func (e *Engine[R]) CanNextPage() bool {
	return e.pageIndex < e.PageCount()-1
}

// FirstPage moves to the first page.
func (e *Engine[R]) FirstPage() {
	e.SetPageIndex(0)
}

// PreviousPage moves back one page; no-op on the first page.
func (e *Engine[R]) PreviousPage() {
	if e.CanPreviousPage() {
		e.SetPageIndex(e.pageIndex - 1)
	}
}

// NextPage moves forward one page; no-op on the last page.
func (e *Engine[R]) NextPage() {
	if e.CanNextPage() {
		e.SetPageIndex(e.pageIndex + 1)
	}
}

// LastPage moves to the last page.
func (e *Engine[R]) LastPage() {
	e.SetPageIndex(e.PageCount() - 1)
}

func (e *Engine[R]) clampPage() {
	e.pageIndex = clamp(e.pageIndex, e.PageCount())
}

func clamp(n, count int) int {
	if n >= count {
		n = count - 1
	}
	if n < 0 {
		n = 0
	}
	return n
}

// SetColumnVisibility shows or hides a column at render time.
func (e *Engine[R]) SetColumnVisibility(columnID string, visible bool) {
	if visible {
		delete(e.hidden, columnID)
		return
	}
	e.hidden[columnID] = true
}

// ColumnVisible reports whether a column is rendered.
func (e *Engine[R]) ColumnVisible(columnID string) bool {
	return !e.hidden[columnID]
}

// SetColumnOrder sets the display order. Columns not listed follow in
// definition order.
func (e *Engine[R]) SetColumnOrder(ids []string) {
	e.order = slices.Clone(ids)
}

// VisibleColumns returns the rendered columns in display order.
func (e *Engine[R]) VisibleColumns() []Column[R] {
	out := make([]Column[R], 0, len(e.columns))
	seen := make(map[string]bool, len(e.columns))
	for _, id := range e.order {
		col, ok := e.column(id)
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		if e.ColumnVisible(id) {
			out = append(out, col)
		}
	}
	for _, col := range e.columns {
		if seen[col.ID] {
			continue
		}
		if e.ColumnVisible(col.ID) {
			out = append(out, col)
		}
	}
	return out
}

type indexedRow[R any] struct {
	index int
	row   R
}

type sortKey struct {
	empty bool
	text  string
	num   float64
	at    time.Time
}

// FilteredCount returns the number of rows passing all filters.
func (e *Engine[R]) FilteredCount() int {
	return len(e.filtered())
}

// FilteredRows returns the whole filtered and sorted set.
func (e *Engine[R]) FilteredRows() []R {
	return rowsOf(e.sorted(e.filtered()))
}

// VisibleRows returns the rows of the current page.
func (e *Engine[R]) VisibleRows() []R {
	return rowsOf(e.page())
}

func (e *Engine[R]) page() []indexedRow[R] {
	rows := e.sorted(e.filtered())
	start := e.pageIndex * e.pageSize
	if start >= len(rows) {
		return nil
	}
	end := min(start+e.pageSize, len(rows))
	return rows[start:end]
}

func rowsOf[R any](rows []indexedRow[R]) []R {
	out := make([]R, len(rows))
	for i, r := range rows {
		out[i] = r.row
	}
	return out
}

func (e *Engine[R]) filtered() []indexedRow[R] {
	needle := e.fold.String(e.globalFilter)
	out := make([]indexedRow[R], 0, len(e.rows))
	for i, row := range e.rows {
		if needle != "" && !e.matchesGlobal(row, needle) {
			continue
		}
		if !e.matchesColumns(row) {
			continue
		}
		out = append(out, indexedRow[R]{index: i, row: row})
	}
	return out
}

func (e *Engine[R]) matchesGlobal(row R, needle string) bool {
	for _, col := range e.columns {
		if strings.Contains(e.fold.String(Stringify(col.value(row))), needle) {
			return true
		}
	}
	return false
}

func (e *Engine[R]) matchesColumns(row R) bool {
	for id, want := range e.columnFilters {
		col, ok := e.column(id)
		if !ok {
			continue
		}
		got := Stringify(col.value(row))
		switch col.Filter {
		case FilterSelect:
			if got != want {
				return false
			}
		default:
			if !strings.Contains(e.fold.String(got), e.fold.String(want)) {
				return false
			}
		}
	}
	return true
}

func (e *Engine[R]) sorted(rows []indexedRow[R]) []indexedRow[R] {
	col, ok := e.column(e.sortColumn)
	if !ok || e.sortDir == SortNone {
		return rows
	}
	keys := make(map[int]sortKey, len(rows))
	for _, r := range rows {
		keys[r.index] = keyOf(col.Kind, col.value(r.row))
	}
	desc := e.sortDir == SortDesc
	out := slices.Clone(rows)
	slices.SortStableFunc(out, func(a, b indexedRow[R]) int {
		ka, kb := keys[a.index], keys[b.index]
		switch {
		case ka.empty && kb.empty:
			return 0
		case ka.empty:
			return 1
		case kb.empty:
			return -1
		}
		c := e.compare(col.Kind, ka, kb)
		if desc {
			return -c
		}
		return c
	})
	return out
}

func keyOf(kind ValueKind, v any) sortKey {
	switch kind {
	case KindNumber:
		n, ok := toNumber(v)
		return sortKey{empty: !ok, num: n}
	case KindTime:
		t, ok := toTime(v)
		return sortKey{empty: !ok, at: t}
	default:
		s := Stringify(v)
		return sortKey{empty: s == "", text: s}
	}
}

func (e *Engine[R]) compare(kind ValueKind, a, b sortKey) int {
	switch kind {
	case KindNumber:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		}
		return 0
	case KindTime:
		return a.at.Compare(b.at)
	default:
		return e.collator.CompareString(a.text, b.text)
	}
}

// FacetValues returns the distinct non-empty values of a column across the
// source rows, in the engine's collation order.
func (e *Engine[R]) FacetValues(columnID string) []string {
	col, ok := e.column(columnID)
	if !ok {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, row := range e.rows {
		v := Stringify(col.value(row))
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	e.collator.SortStrings(out)
	return out
}
