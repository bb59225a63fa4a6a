package tableview_test

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kosha-admin/kosha/internal/tableview"
)

func parseLink(t *testing.T, link string) url.Values {
	t.Helper()
	u, err := url.Parse(link)
	require.NoError(t, err)
	return u.Query()
}

func TestPageLinksPreserveHostParams(t *testing.T) {
	e := tableview.New(opColumns(), numberedRows(12))
	e.NextPage()
	p := tableview.NewPage(e, "/reports/db-operations", url.Values{"month": {"04_Apr"}}, nil)

	assert.Equal(t, []int{5, 10, 15, 20}, p.PageSizes)

	next := parseLink(t, p.NextURL())
	assert.Equal(t, "3", next.Get("page"))
	assert.Equal(t, "04_Apr", next.Get("month"))

	assert.Equal(t, "/reports/db-operations?month=04_Apr&size=5", p.FirstURL())
	assert.Equal(t, "3", parseLink(t, p.LastURL()).Get("page"))
	assert.Equal(t, "", parseLink(t, p.PreviousURL()).Get("page"))
}

func TestPageSortURLFollowsTriState(t *testing.T) {
	e := tableview.New(opColumns(), numberedRows(3))
	p := tableview.NewPage(e, "/logs", nil, nil)
	require.Equal(t, "timestamp", p.Headers[0].ID)

	q := parseLink(t, p.SortURL(p.Headers[0]))
	assert.Equal(t, "timestamp", q.Get("sort"))
	assert.Equal(t, "asc", q.Get("dir"))

	e.ToggleSort("timestamp")
	p = tableview.NewPage(e, "/logs", nil, nil)
	q = parseLink(t, p.SortURL(p.Headers[0]))
	assert.Equal(t, "desc", q.Get("dir"))

	e.ToggleSort("timestamp")
	p = tableview.NewPage(e, "/logs", nil, nil)
	assert.Equal(t, "/logs?size=5", p.SortURL(p.Headers[0]))
}

func TestPageTogglesAndFacets(t *testing.T) {
	rows := numberedRows(3)
	rows[1].Operation = "DELETE"
	e := tableview.New(opColumns(), rows)
	e.SetColumnVisibility("affected_value", false)
	p := tableview.NewPage(e, "/logs", nil, nil)

	require.Len(t, p.Toggles, 6)
	last := p.Toggles[5]
	assert.False(t, last.Visible)
	assert.Equal(t, "/logs?size=5", last.ToggleURL)
	assert.Equal(t, "affected_value,timestamp", parseLink(t, p.Toggles[0].ToggleURL).Get("hide"))

	assert.Equal(t, []string{"CREATE", "DELETE"}, p.Facets["operation"])
	_, hasText := p.Facets["table_name"]
	assert.False(t, hasText)
}

func TestPageFormFieldsDropFiltersAndPage(t *testing.T) {
	e := tableview.New(opColumns(), numberedRows(12))
	e.ToggleSort("record_id")
	e.SetPageSize(10)
	e.NextPage()
	e.SetColumnFilter("operation", "CREATE")
	e.SetPageIndex(1)
	p := tableview.NewPage(e, "/logs", url.Values{"month": {"04_Apr"}}, nil)

	assert.Equal(t, []tableview.HiddenField{
		{Name: "dir", Value: "asc"},
		{Name: "month", Value: "04_Apr"},
		{Name: "size", Value: "10"},
		{Name: "sort", Value: "record_id"},
	}, p.FormFields())
	assert.True(t, p.HasFilters())

	cleared := parseLink(t, p.ClearFiltersURL())
	assert.Empty(t, cleared.Get(tableview.FilterParam("operation")))
	assert.Equal(t, "record_id", cleared.Get("sort"))
	assert.Empty(t, cleared.Get("page"))
}

func TestPageExportLinkCarriesState(t *testing.T) {
	e := tableview.New(opColumns(), numberedRows(3))
	e.SetGlobalFilter("words")
	p := tableview.NewPage(e, "/logs", url.Values{"month": {"01_Jan"}}, nil)

	q := parseLink(t, p.Link("/logs/export.csv"))
	assert.Equal(t, "words", q.Get("q"))
	assert.Equal(t, "01_Jan", q.Get("month"))
}

func TestPageHiddenColumnFilters(t *testing.T) {
	e := tableview.New(opColumns(), numberedRows(3))
	e.SetColumnFilter("operation", "CREATE")
	e.SetColumnFilter("table_name", "words")
	e.SetColumnVisibility("operation", false)
	p := tableview.NewPage(e, "/logs", nil, nil)

	assert.Equal(t, []tableview.HiddenField{{Name: "f.operation", Value: "CREATE"}}, p.HiddenColumnFilters())
}
