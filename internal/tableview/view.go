package tableview

import "strconv"

// Header is the render-ready metadata of one visible column.
type Header struct {
	ID          string        `json:"id"`
	Label       string        `json:"label"`
	CanSort     bool          `json:"can_sort"`
	Sorted      SortDirection `json:"sorted,omitempty"`
	NextSort    SortDirection `json:"next_sort,omitempty"`
	FilterKind  FilterKind    `json:"filter_kind"`
	FilterValue string        `json:"filter_value,omitempty"`
}

// SortTitle describes what clicking the header does.
func (h Header) SortTitle() string {
	if !h.CanSort {
		return ""
	}
	switch h.NextSort {
	case SortAsc:
		return "Sort ascending"
	case SortDesc:
		return "Sort descending"
	default:
		return "Clear sort"
	}
}

// Cell is one rendered value.
type Cell struct {
	ColumnID string `json:"column_id"`
	Text     string `json:"text"`
}

// Row is one rendered row of the current page.
type Row struct {
	Key   string `json:"key"`
	Cells []Cell `json:"cells"`
}

// View is the projection consumed by a rendering layer.
type View struct {
	Headers         []Header `json:"headers"`
	Rows            []Row    `json:"rows"`
	GlobalFilter    string   `json:"global_filter,omitempty"`
	PageIndex       int      `json:"page_index"`
	PageSize        int      `json:"page_size"`
	PageCount       int      `json:"page_count"`
	FilteredCount   int      `json:"filtered_count"`
	TotalCount      int      `json:"total_count"`
	CanPreviousPage bool     `json:"can_previous_page"`
	CanNextPage     bool     `json:"can_next_page"`
}

// PageNumber is the 1-based page index for display.
func (v View) PageNumber() int {
	return v.PageIndex + 1
}

// Empty reports whether the current page has no rows.
func (v View) Empty() bool {
	return len(v.Rows) == 0
}

// View projects the current state onto visible columns and the current
// page.
func (e *Engine[R]) View() View {
	cols := e.VisibleColumns()
	headers := make([]Header, len(cols))
	for i, col := range cols {
		headers[i] = Header{
			ID:          col.ID,
			Label:       col.Header,
			CanSort:     col.Sortable,
			Sorted:      e.SortDirection(col.ID),
			NextSort:    e.NextSortDirection(col.ID),
			FilterKind:  col.Filter,
			FilterValue: e.columnFilters[col.ID],
		}
	}
	page := e.page()
	rows := make([]Row, len(page))
	for i, r := range page {
		cells := make([]Cell, len(cols))
		for j, col := range cols {
			cells[j] = Cell{ColumnID: col.ID, Text: col.text(r.row)}
		}
		rows[i] = Row{Key: e.keyOf(r), Cells: cells}
	}
	filtered := e.FilteredCount()
	return View{
		Headers:         headers,
		Rows:            rows,
		GlobalFilter:    e.globalFilter,
		PageIndex:       e.pageIndex,
		PageSize:        e.pageSize,
		PageCount:       pageCount(filtered, e.pageSize),
		FilteredCount:   filtered,
		TotalCount:      len(e.rows),
		CanPreviousPage: e.CanPreviousPage(),
		CanNextPage:     e.CanNextPage(),
	}
}

func (e *Engine[R]) keyOf(r indexedRow[R]) string {
	if e.rowKey != nil {
		return e.rowKey(r.row)
	}
	return strconv.Itoa(r.index)
}

// Records renders the whole filtered and sorted set as text over the
// visible columns, headers first. Exports use it.
func (e *Engine[R]) Records() [][]string {
	cols := e.VisibleColumns()
	rows := e.sorted(e.filtered())
	out := make([][]string, 0, len(rows)+1)
	header := make([]string, len(cols))
	for i, col := range cols {
		header[i] = col.Header
	}
	out = append(out, header)
	for _, r := range rows {
		record := make([]string, len(cols))
		for i, col := range cols {
			record[i] = col.text(r.row)
		}
		out = append(out, record)
	}
	return out
}
