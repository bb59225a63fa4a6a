package tableview_test

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosha-admin/kosha/internal/tableview"
)

type opRow struct {
	At        string
	Table     string
	RecordID  int
	Operation string
	Actor     string
	Value     string
}

func opColumns() []tableview.Column[opRow] {
	return []tableview.Column[opRow]{
		{ID: "timestamp", Header: "Timestamp", Accessor: func(r opRow) any { return r.At }, Kind: tableview.KindTime, Sortable: true},
		{ID: "table_name", Header: "Table Name", Accessor: func(r opRow) any { return r.Table }, Sortable: true},
		{ID: "record_id", Header: "Record ID", Accessor: func(r opRow) any { return r.RecordID }, Kind: tableview.KindNumber, Sortable: true},
		{ID: "operation", Header: "Operation", Accessor: func(r opRow) any { return r.Operation }, Filter: tableview.FilterSelect, Sortable: true},
		{ID: "db_manager_email", Header: "DB Manager Email", Accessor: func(r opRow) any { return r.Actor }, Sortable: true},
		{ID: "affected_value", Header: "Affected Value", Accessor: func(r opRow) any { return r.Value }},
	}
}

func numberedRows(n int) []opRow {
	rows := make([]opRow, n)
	for i := range rows {
		rows[i] = opRow{
			At:        fmt.Sprintf("2024-04-%02dT10:00:00Z", i+1),
			Table:     "words",
			RecordID:  i + 1,
			Operation: "CREATE",
			Actor:     "editor@kosha.test",
			Value:     "value-" + strconv.Itoa(i+1),
		}
	}
	return rows
}

func recordIDs(rows []opRow) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.RecordID
	}
	return out
}

func TestDefaults(t *testing.T) {
	e := tableview.New(opColumns(), numberedRows(3))
	assert.Equal(t, 0, e.PageIndex())
	assert.Equal(t, tableview.DefaultPageSize, e.PageSize())
	assert.Equal(t, "", e.GlobalFilter())
	for _, col := range e.Columns() {
		assert.Equal(t, tableview.SortNone, e.SortDirection(col.ID))
	}
}

func TestPaginationTwelveRows(t *testing.T) {
	e := tableview.New(opColumns(), numberedRows(12))
	require.Equal(t, 3, e.PageCount())
	assert.Equal(t, []int{1, 2, 3, 4, 5}, recordIDs(e.VisibleRows()))
	assert.False(t, e.CanPreviousPage())

	e.NextPage()
	assert.Equal(t, 1, e.PageIndex())
	assert.Equal(t, []int{6, 7, 8, 9, 10}, recordIDs(e.VisibleRows()))

	e.NextPage()
	assert.Equal(t, []int{11, 12}, recordIDs(e.VisibleRows()))
	assert.False(t, e.CanNextPage())

	e.NextPage()
	assert.Equal(t, 2, e.PageIndex(), "next on the last page is a no-op")

	e.FirstPage()
	e.PreviousPage()
	assert.Equal(t, 0, e.PageIndex(), "previous on the first page is a no-op")

	e.LastPage()
	assert.Equal(t, 2, e.PageIndex())
}

func TestPagesPartitionFilteredRows(t *testing.T) {
	rows := numberedRows(13)
	for i := range rows {
		if i%3 == 0 {
			rows[i].Operation = "DELETE"
		}
	}
	for size := 1; size <= 15; size++ {
		e := tableview.New(opColumns(), rows, tableview.WithPageSize[opRow](size))
		e.SetColumnFilter("operation", "CREATE")
		filtered := e.FilteredCount()
		require.Equal(t, 8, filtered)
		require.Equal(t, (filtered+size-1)/size, e.PageCount(), "size %d", size)

		var seen []int
		for p := 0; p < e.PageCount(); p++ {
			e.SetPageIndex(p)
			page := e.VisibleRows()
			assert.LessOrEqual(t, len(page), size)
			assert.NotEmpty(t, page)
			seen = append(seen, recordIDs(page)...)
		}
		assert.Equal(t, recordIDs(e.FilteredRows()), seen, "size %d", size)
	}
}

func TestGlobalFilterIsCaseInsensitiveSubstring(t *testing.T) {
	rows := []opRow{
		{RecordID: 1, Table: "words", Operation: "CREATE", Actor: "a@kosha.test", Value: "rama"},
		{RecordID: 2, Table: "words", Operation: "UPDATE", Actor: "a@kosha.test", Value: "sita"},
		{RecordID: 3, Table: "meanings", Operation: "DELETE", Actor: "b@kosha.test", Value: "vana"},
		{RecordID: 4, Table: "meanings", Operation: "DELETE_ALL", Actor: "b@kosha.test", Value: "nadi"},
	}
	for _, text := range []string{"DELETE", "delete", "Delete"} {
		e := tableview.New(opColumns(), rows)
		e.SetGlobalFilter(text)
		assert.Equal(t, []int{3, 4}, recordIDs(e.VisibleRows()), text)
	}

	e := tableview.New(opColumns(), rows)
	e.SetGlobalFilter("")
	assert.Equal(t, 4, e.FilteredCount(), "empty filter is a no-op")
}

func TestSelectFilterMatchesExactly(t *testing.T) {
	rows := []opRow{
		{RecordID: 1, Operation: "DELETE"},
		{RecordID: 2, Operation: "DELETE_ALL"},
		{RecordID: 3, Operation: "delete"},
	}
	e := tableview.New(opColumns(), rows)
	e.SetColumnFilter("operation", "DELETE")
	assert.Equal(t, []int{1}, recordIDs(e.VisibleRows()))

	e.SetColumnFilter("operation", "")
	assert.Equal(t, 3, e.FilteredCount(), "empty value removes the filter")
}

func TestTextColumnFilterIsSubstring(t *testing.T) {
	rows := []opRow{
		{RecordID: 1, Actor: "Editor@kosha.test"},
		{RecordID: 2, Actor: "reviewer@kosha.test"},
	}
	e := tableview.New(opColumns(), rows)
	e.SetColumnFilter("db_manager_email", "editor")
	assert.Equal(t, []int{1}, recordIDs(e.VisibleRows()))

	e.SetColumnFilter("missing", "x")
	assert.Equal(t, []int{1}, recordIDs(e.VisibleRows()), "unknown columns are ignored")
}

func TestFilterCompositionIsOrderIndependent(t *testing.T) {
	rows := []opRow{
		{RecordID: 1, Table: "words", Operation: "CREATE", Value: "x-ray"},
		{RecordID: 2, Table: "words", Operation: "DELETE", Value: "xylem"},
		{RecordID: 3, Table: "meanings", Operation: "DELETE", Value: "plain"},
		{RecordID: 4, Table: "meanings", Operation: "DELETE", Value: "box"},
	}
	a := tableview.New(opColumns(), rows)
	a.SetGlobalFilter("x")
	a.SetColumnFilter("operation", "DELETE")

	b := tableview.New(opColumns(), rows)
	b.SetColumnFilter("operation", "DELETE")
	b.SetGlobalFilter("x")

	assert.Equal(t, []int{2, 4}, recordIDs(a.FilteredRows()))
	assert.Equal(t, recordIDs(a.FilteredRows()), recordIDs(b.FilteredRows()))
}

func TestFilterResetsPageIndex(t *testing.T) {
	e := tableview.New(opColumns(), numberedRows(12))
	e.LastPage()
	require.Equal(t, 2, e.PageIndex())
	e.SetGlobalFilter("words")
	assert.Equal(t, 0, e.PageIndex())

	e.LastPage()
	e.SetColumnFilter("operation", "CREATE")
	assert.Equal(t, 0, e.PageIndex())
}

func TestToggleSortCyclesBackToInsertionOrder(t *testing.T) {
	rows := []opRow{{RecordID: 3}, {RecordID: 1}, {RecordID: 2}}
	e := tableview.New(opColumns(), rows)

	e.ToggleSort("record_id")
	assert.Equal(t, tableview.SortAsc, e.SortDirection("record_id"))
	assert.Equal(t, []int{1, 2, 3}, recordIDs(e.VisibleRows()))

	e.ToggleSort("record_id")
	assert.Equal(t, tableview.SortDesc, e.SortDirection("record_id"))
	assert.Equal(t, []int{3, 2, 1}, recordIDs(e.VisibleRows()))

	e.ToggleSort("record_id")
	assert.Equal(t, tableview.SortNone, e.SortDirection("record_id"))
	assert.Equal(t, []int{3, 1, 2}, recordIDs(e.VisibleRows()))
}

func TestToggleSortKeepsSingleColumn(t *testing.T) {
	e := tableview.New(opColumns(), numberedRows(4))
	e.ToggleSort("record_id")
	e.ToggleSort("table_name")
	assert.Equal(t, tableview.SortNone, e.SortDirection("record_id"))
	assert.Equal(t, tableview.SortAsc, e.SortDirection("table_name"))
}

func TestToggleSortIgnoresUnsortableColumns(t *testing.T) {
	e := tableview.New(opColumns(), numberedRows(4))
	e.ToggleSort("affected_value")
	e.ToggleSort("nope")
	assert.False(t, e.CanSort("affected_value"))
	assert.Equal(t, tableview.SortNone, e.SortDirection("affected_value"))
	assert.Equal(t, tableview.SortNone, e.NextSortDirection("affected_value"))
}

func TestToggleSortKeepsPageIndex(t *testing.T) {
	e := tableview.New(opColumns(), numberedRows(12))
	e.NextPage()
	e.ToggleSort("record_id")
	e.ToggleSort("record_id")
	assert.Equal(t, 1, e.PageIndex())
	assert.Equal(t, []int{7, 6, 5, 4, 3}, recordIDs(e.VisibleRows()))
}

func TestSortIsStable(t *testing.T) {
	rows := []opRow{
		{RecordID: 1, Table: "words"},
		{RecordID: 2, Table: "meanings"},
		{RecordID: 3, Table: "words"},
		{RecordID: 4, Table: "meanings"},
		{RecordID: 5, Table: "words"},
	}
	e := tableview.New(opColumns(), rows)
	e.ToggleSort("table_name")
	assert.Equal(t, []int{2, 4, 1, 3, 5}, recordIDs(e.FilteredRows()))

	e.ToggleSort("table_name")
	assert.Equal(t, []int{1, 3, 5, 2, 4}, recordIDs(e.FilteredRows()))
}

func TestSortIsIdempotent(t *testing.T) {
	rows := []opRow{{RecordID: 5, Table: "b"}, {RecordID: 2, Table: "a"}, {RecordID: 9, Table: "b"}, {RecordID: 1, Table: "a"}}
	e := tableview.New(opColumns(), rows)
	e.ToggleSort("table_name")
	once := recordIDs(e.FilteredRows())

	again := tableview.New(opColumns(), e.FilteredRows())
	again.ToggleSort("table_name")
	assert.Equal(t, once, recordIDs(again.FilteredRows()))
}

func TestSortComparatorsFollowValueKind(t *testing.T) {
	rows := []opRow{
		{RecordID: 10, At: "2024-04-02T09:00:00Z", Table: "b"},
		{RecordID: 9, At: "2024-04-01T09:00:00Z", Table: "a"},
		{RecordID: 100, At: "2024-03-31T23:59:59Z", Table: "C"},
	}
	e := tableview.New(opColumns(), rows)

	e.ToggleSort("record_id")
	assert.Equal(t, []int{9, 10, 100}, recordIDs(e.FilteredRows()), "numeric, not lexicographic")

	e.ToggleSort("timestamp")
	assert.Equal(t, []int{100, 9, 10}, recordIDs(e.FilteredRows()))

	e.ToggleSort("table_name")
	assert.Equal(t, []int{9, 10, 100}, recordIDs(e.FilteredRows()), "collation ignores case differences at primary level")
}

func TestEmptyValuesSortLast(t *testing.T) {
	rows := []opRow{{RecordID: 1, At: ""}, {RecordID: 2, At: "2024-04-02T00:00:00Z"}, {RecordID: 3, At: "not a time"}, {RecordID: 4, At: "2024-04-01T00:00:00Z"}}
	e := tableview.New(opColumns(), rows)
	e.ToggleSort("timestamp")
	assert.Equal(t, []int{4, 2, 1, 3}, recordIDs(e.FilteredRows()))
	e.ToggleSort("timestamp")
	assert.Equal(t, []int{2, 4, 1, 3}, recordIDs(e.FilteredRows()))
}

func TestPageIndexClamping(t *testing.T) {
	e := tableview.New(opColumns(), numberedRows(12))

	e.SetPageIndex(99)
	assert.Equal(t, 2, e.PageIndex())

	e.SetPageIndex(-4)
	assert.Equal(t, 0, e.PageIndex())

	e.GoToPage("2")
	assert.Equal(t, 1, e.PageIndex())

	for _, input := range []string{"", "abc", "-1", "0"} {
		e.GoToPage("3")
		e.GoToPage(input)
		assert.Equal(t, 0, e.PageIndex(), "input %q", input)
	}

	e.GoToPage("40")
	assert.Equal(t, 2, e.PageIndex())
}

func TestSetPageSizeClampsDown(t *testing.T) {
	e := tableview.New(opColumns(), numberedRows(12))
	e.LastPage()
	e.SetPageSize(10)
	assert.Equal(t, 2, e.PageCount())
	assert.Equal(t, 1, e.PageIndex())
	assert.Equal(t, []int{11, 12}, recordIDs(e.VisibleRows()))

	e.SetPageSize(0)
	assert.Equal(t, 10, e.PageSize(), "non-positive sizes are ignored")

	e.SetPageSize(20)
	assert.Equal(t, 0, e.PageIndex())
}

func TestEmptyDataset(t *testing.T) {
	e := tableview.New(opColumns(), nil)
	assert.Equal(t, 0, e.PageCount())
	assert.Empty(t, e.VisibleRows())
	e.SetPageIndex(3)
	assert.Equal(t, 0, e.PageIndex())
	assert.False(t, e.CanNextPage())
	assert.False(t, e.CanPreviousPage())

	e = tableview.New(opColumns(), numberedRows(7))
	e.NextPage()
	e.SetColumnFilter("operation", "UPDATE")
	assert.Equal(t, 0, e.PageCount())
	assert.Equal(t, 0, e.PageIndex())
	assert.Empty(t, e.VisibleRows())
}

func TestSetRowsReplacesAndClamps(t *testing.T) {
	source := numberedRows(12)
	e := tableview.New(opColumns(), source)
	e.LastPage()
	e.SetRows(numberedRows(4))
	assert.Equal(t, 0, e.PageIndex())
	assert.Equal(t, []int{1, 2, 3, 4}, recordIDs(e.VisibleRows()))
	assert.Equal(t, 12, source[11].RecordID, "source rows are not mutated")
}

func TestSourceRowsAreNotReordered(t *testing.T) {
	rows := []opRow{{RecordID: 3}, {RecordID: 1}, {RecordID: 2}}
	e := tableview.New(opColumns(), rows)
	e.ToggleSort("record_id")
	_ = e.VisibleRows()
	assert.Equal(t, []int{3, 1, 2}, recordIDs(rows))
}

func TestMissingAccessorYieldsEmptyCell(t *testing.T) {
	cols := append(opColumns(), tableview.Column[opRow]{ID: "ghost", Header: "Ghost", Sortable: true})
	e := tableview.New(cols, numberedRows(2))
	e.ToggleSort("ghost")
	view := e.View()
	require.Len(t, view.Rows, 2)
	last := view.Rows[0].Cells[len(view.Rows[0].Cells)-1]
	assert.Equal(t, "ghost", last.ColumnID)
	assert.Equal(t, "", last.Text)
}

func TestMapRowsWithMissingField(t *testing.T) {
	cols := []tableview.Column[map[string]any]{
		{ID: "word", Header: "Word", Accessor: tableview.Field("word"), Sortable: true},
		{ID: "gloss", Header: "Gloss", Accessor: tableview.Field("glosss")},
	}
	rows := []map[string]any{{"word": "vana", "gloss": "forest"}, {"word": "agni"}}
	e := tableview.New(cols, rows)
	e.SetGlobalFilter("forest")
	assert.Equal(t, 0, e.FilteredCount(), "misspelled accessor never matches")
	e.SetGlobalFilter("")
	e.ToggleSort("word")
	assert.Equal(t, "agni", e.View().Rows[0].Cells[0].Text)
}

func TestVisibilityAndOrderOnlyAffectProjection(t *testing.T) {
	rows := []opRow{{RecordID: 1, Value: "hidden-match"}, {RecordID: 2, Value: "other"}}
	e := tableview.New(opColumns(), rows)
	e.SetColumnVisibility("affected_value", false)
	e.SetColumnOrder([]string{"operation", "record_id", "unknown"})
	e.SetGlobalFilter("hidden-match")

	view := e.View()
	ids := make([]string, len(view.Headers))
	for i, h := range view.Headers {
		ids[i] = h.ID
	}
	assert.Equal(t, []string{"operation", "record_id", "timestamp", "table_name", "db_manager_email"}, ids)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "1", view.Rows[0].Cells[1].Text)
	assert.False(t, e.ColumnVisible("affected_value"))

	e.SetColumnVisibility("affected_value", true)
	assert.Len(t, e.VisibleColumns(), 6)
}

func TestViewHeadersCarrySortState(t *testing.T) {
	e := tableview.New(opColumns(), numberedRows(6), tableview.WithRowKey(func(r opRow) string { return "op-" + strconv.Itoa(r.RecordID) }))
	e.ToggleSort("record_id")
	e.NextPage()
	view := e.View()

	byID := map[string]tableview.Header{}
	for _, h := range view.Headers {
		byID[h.ID] = h
	}
	assert.Equal(t, tableview.SortAsc, byID["record_id"].Sorted)
	assert.Equal(t, "Sort descending", byID["record_id"].SortTitle())
	assert.Equal(t, "Sort ascending", byID["timestamp"].SortTitle())
	assert.Equal(t, "", byID["affected_value"].SortTitle())
	assert.Equal(t, tableview.FilterSelect, byID["operation"].FilterKind)

	assert.Equal(t, 2, view.PageNumber())
	assert.Equal(t, 2, view.PageCount)
	assert.Equal(t, 6, view.TotalCount)
	assert.True(t, view.CanPreviousPage)
	assert.False(t, view.CanNextPage)
	require.Len(t, view.Rows, 1)
	assert.Equal(t, "op-6", view.Rows[0].Key)
}

func TestFacetValues(t *testing.T) {
	rows := []opRow{{Operation: "UPDATE"}, {Operation: "CREATE"}, {Operation: "UPDATE"}, {Operation: ""}}
	e := tableview.New(opColumns(), rows)
	assert.Equal(t, []string{"CREATE", "UPDATE"}, e.FacetValues("operation"))
	assert.Nil(t, e.FacetValues("missing"))
}

func TestFacetValuesFollowColumnCollation(t *testing.T) {
	rows := []opRow{{Table: "cherry"}, {Table: "Banana"}, {Table: "apple"}}
	e := tableview.New(opColumns(), rows)
	e.ToggleSort("table_name")

	sorted := make([]string, 0, len(rows))
	for _, r := range e.VisibleRows() {
		sorted = append(sorted, r.Table)
	}
	assert.Equal(t, []string{"apple", "Banana", "cherry"}, e.FacetValues("table_name"))
	assert.Equal(t, sorted, e.FacetValues("table_name"))
}

func TestHugePageSizeKeepsOnePage(t *testing.T) {
	e := tableview.New(opColumns(), numberedRows(12))
	e.SetPageSize(math.MaxInt)

	assert.Equal(t, 1, e.PageCount())
	assert.Len(t, e.VisibleRows(), 12)
	assert.False(t, e.CanNextPage())
	e.LastPage()
	assert.Equal(t, 0, e.PageIndex())

	q := url.Values{"size": {strconv.Itoa(math.MaxInt - 3)}, "page": {"4"}}
	e.Apply(tableview.ParseState(q))
	v := e.View()
	assert.Equal(t, 1, v.PageCount)
	assert.Equal(t, 0, v.PageIndex)
	assert.Len(t, v.Rows, 12)
}

func TestPageCountIsCeiling(t *testing.T) {
	for _, tc := range []struct{ rows, size, want int }{
		{0, 5, 0}, {1, 5, 1}, {5, 5, 1}, {6, 5, 2}, {12, 5, 3}, {12, 1, 12},
	} {
		e := tableview.New(opColumns(), numberedRows(tc.rows))
		e.SetPageSize(tc.size)
		assert.Equal(t, tc.want, e.PageCount(), "%d rows, size %d", tc.rows, tc.size)
	}
}

func TestRecordsFollowVisibleColumns(t *testing.T) {
	e := tableview.New(opColumns(), numberedRows(7))
	e.SetColumnVisibility("timestamp", false)
	e.SetColumnVisibility("affected_value", false)
	e.ToggleSort("record_id")
	e.ToggleSort("record_id")

	records := e.Records()
	require.Len(t, records, 8, "header plus every filtered row, not just the page")
	assert.Equal(t, []string{"Table Name", "Record ID", "Operation", "DB Manager Email"}, records[0])
	assert.Equal(t, "7", records[1][1])
}
