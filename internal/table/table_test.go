package table

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type item struct {
	ID     string
	Name   string
	Status string
	Qty    int
	Secret string
}

func itemColumns() []Column[item] {
	return []Column[item]{
		{Key: "name", Label: "Name", Sortable: true, Value: func(i item) interface{} { return i.Name }},
		{Key: "status", Label: "Status", Sortable: true, Value: func(i item) interface{} { return i.Status }},
		{Key: "qty", Label: "Qty", Sortable: true, Value: func(i item) interface{} { return i.Qty }},
		{Key: "secret", Label: "Secret", Unsearchable: true, Value: func(i item) interface{} { return i.Secret }},
	}
}

func itemID(i item) string { return i.ID }

func sampleItems(n int) []item {
	out := make([]item, n)
	for i := range out {
		out[i] = item{ID: fmt.Sprintf("id%02d", i+1), Name: fmt.Sprintf("Item %02d", i+1), Status: "draft", Qty: i + 1}
	}
	return out
}

func names(rows []item) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Name
	}
	return out
}

func TestSearchMatchesSearchableColumnsOnly(t *testing.T) {
	rows := []item{
		{ID: "1", Name: "Laptop", Status: "Published", Qty: 50, Secret: "laptop-hidden"},
		{ID: "2", Name: "Desk", Status: "draft", Qty: 5, Secret: "laptop"},
		{ID: "3", Name: "Chair", Status: "Closed", Qty: 150},
	}
	tbl := NewClientTable(itemColumns(), itemID, rows)

	tbl.Search("LAP")
	require.Equal(t, []string{"Laptop"}, names(tbl.Filtered()))

	tbl.Search("publ")
	require.Equal(t, []string{"Laptop"}, names(tbl.Filtered()))

	tbl.Search("50")
	require.Equal(t, []string{"Laptop", "Chair"}, names(tbl.Filtered()))

	tbl.Search("")
	require.Len(t, tbl.Filtered(), 3)
}

func TestSortToggleRules(t *testing.T) {
	rows := []item{
		{ID: "1", Name: "b", Qty: 10},
		{ID: "2", Name: "a", Qty: 9},
		{ID: "3", Name: "c", Qty: 100},
	}
	tbl := NewClientTable(itemColumns(), itemID, rows)

	require.NoError(t, tbl.Sort("qty"))
	require.Equal(t, []string{"a", "b", "c"}, names(tbl.Filtered()))

	require.NoError(t, tbl.Sort("qty"))
	require.Equal(t, []string{"c", "b", "a"}, names(tbl.Filtered()))

	require.NoError(t, tbl.Sort("name"))
	require.Equal(t, "asc", tbl.Render().SortOrder)
	require.Equal(t, []string{"a", "b", "c"}, names(tbl.Filtered()))

	require.Error(t, tbl.Sort("secret"))
	require.Error(t, tbl.Sort("nope"))
}

func TestSortIsStable(t *testing.T) {
	rows := []item{
		{ID: "1", Name: "first", Status: "draft"},
		{ID: "2", Name: "second", Status: "closed"},
		{ID: "3", Name: "third", Status: "draft"},
	}
	tbl := NewClientTable(itemColumns(), itemID, rows)
	require.NoError(t, tbl.Sort("status"))
	require.Equal(t, []string{"second", "first", "third"}, names(tbl.Filtered()))
}

func TestPaginationRange(t *testing.T) {
	tbl := NewClientTable(itemColumns(), itemID, sampleItems(23))
	require.NoError(t, tbl.SetPerPage(5))
	tbl.SetPage(5)

	v := tbl.Render()
	require.Equal(t, int64(21), v.Pagination.From)
	require.Equal(t, int64(23), v.Pagination.To)
	require.Equal(t, 5, v.Pagination.LastPage)
	require.Len(t, v.Rows, 3)

	require.NoError(t, tbl.SetPerPage(20))
	require.Equal(t, 1, tbl.Page())
	require.Error(t, tbl.SetPerPage(7))
	require.Equal(t, 20, tbl.PerPage())

	tbl.SetPage(99)
	require.Equal(t, 2, tbl.Page())
}

func TestRangeFormula(t *testing.T) {
	from, to := Range(1, 10, 0)
	require.Zero(t, from)
	require.Zero(t, to)

	from, to = Range(3, 10, 25)
	require.Equal(t, int64(21), from)
	require.Equal(t, int64(25), to)

	from, to = Range(2, 50, 100)
	require.Equal(t, int64(51), from)
	require.Equal(t, int64(100), to)
}

func TestSelectionEmitsFullSet(t *testing.T) {
	tbl := NewClientTable(itemColumns(), itemID, sampleItems(12))
	require.NoError(t, tbl.SetPerPage(5))

	var emitted [][]string
	tbl.OnSelect = func(ids []string) { emitted = append(emitted, ids) }

	tbl.ToggleSelect("id02")
	tbl.ToggleSelect("id07")
	tbl.ToggleSelect("id02")
	require.Equal(t, [][]string{{"id02"}, {"id02", "id07"}, {"id07"}}, emitted)

	all := tbl.ToggleSelectAll()
	require.Equal(t, []string{"id01", "id02", "id03", "id04", "id05"}, all)
	require.True(t, tbl.Render().AllSelected)

	require.Empty(t, tbl.ToggleSelectAll())
}

func TestExpansionIsIndependent(t *testing.T) {
	tbl := NewClientTable(itemColumns(), itemID, sampleItems(3))
	tbl.ToggleSelect("id01")
	require.True(t, tbl.ToggleExpand("id02"))
	require.True(t, tbl.IsExpanded("id02"))
	require.False(t, tbl.IsExpanded("id01"))
	require.False(t, tbl.ToggleExpand("id02"))

	require.Equal(t, []string{"id01"}, tbl.Selected())
}

func TestRenderPlaceholderAndSpinner(t *testing.T) {
	tbl := NewClientTable(itemColumns(), itemID, sampleItems(3))
	tbl.Search("nothing matches this")

	v := tbl.Render()
	require.Len(t, v.Rows, 1)
	require.True(t, v.Rows[0].Placeholder)
	require.Equal(t, 4, v.Rows[0].Colspan)
	require.Zero(t, v.Pagination.From)
	require.Zero(t, v.Pagination.To)

	tbl.SetLoading(true)
	v = tbl.Render()
	require.Len(t, v.Rows, 1)
	require.True(t, v.Rows[0].Spinner)
	require.Nil(t, v.Pagination)
}

func TestServerTableDelegates(t *testing.T) {
	var pages, sizes []int
	var sorts [][2]string
	var searches []string
	cb := Callbacks{
		OnPageChange:    func(p int) { pages = append(pages, p) },
		OnPerPageChange: func(n int) { sizes = append(sizes, n) },
		OnSortChange:    func(k, o string) { sorts = append(sorts, [2]string{k, o}) },
		OnSearch:        func(q string) { searches = append(searches, q) },
	}
	state := ServerState{TotalItems: 42, CurrentPage: 2, ItemsPerPage: 10, SortKey: "name", SortOrder: "asc"}
	tbl := NewServerTable(itemColumns(), itemID, sampleItems(10), state, cb)

	require.NoError(t, tbl.SetPage(5))
	require.Error(t, tbl.SetPage(6))
	require.NoError(t, tbl.SetPerPage(50))
	require.NoError(t, tbl.Sort("name"))
	require.NoError(t, tbl.Sort("qty"))
	tbl.Search("lap")

	require.Equal(t, []int{5, 1}, pages)
	require.Equal(t, []int{50}, sizes)
	require.Equal(t, [][2]string{{"name", "desc"}, {"qty", "asc"}}, sorts)
	require.Equal(t, []string{"lap"}, searches)

	v := tbl.Render()
	require.Equal(t, int64(11), v.Pagination.From)
	require.Equal(t, int64(20), v.Pagination.To)
	require.Equal(t, "asc", v.Headers[0].SortOrder)
	require.Equal(t, "desc", v.Headers[0].NextOrder)
	require.Equal(t, "asc", v.Headers[2].NextOrder)
}

func TestWriteXLSX(t *testing.T) {
	tbl := NewClientTable(itemColumns(), itemID, sampleItems(3))
	require.NoError(t, tbl.Sort("qty"))
	require.NoError(t, tbl.Sort("qty"))
	headers, data := tbl.ExportRows()

	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, "RFQs", headers, data))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"RFQs"}, f.GetSheetList())
	v, err := f.GetCellValue("RFQs", "A1")
	require.NoError(t, err)
	require.Equal(t, "Name", v)
	v, err = f.GetCellValue("RFQs", "A2")
	require.NoError(t, err)
	require.Equal(t, "Item 03", v)
}
