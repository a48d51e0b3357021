package table

import (
	"fmt"
	"sort"
	"strings"
)

// ClientTable searches, sorts and paginates an in-memory slice
type ClientTable[T any] struct {
	columns []Column[T]
	id      func(T) string
	rows    []T

	search    string
	sortKey   string
	sortOrder string
	page      int
	perPage   int
	loading   bool

	selected map[string]bool
	expanded map[string]bool

	// OnSelect receives the full selected id set after every change
	OnSelect func(ids []string)
}

func NewClientTable[T any](columns []Column[T], id func(T) string, rows []T) *ClientTable[T] {
	return &ClientTable[T]{
		columns:  columns,
		id:       id,
		rows:     rows,
		page:     1,
		perPage:  PageSizes[1],
		selected: map[string]bool{},
		expanded: map[string]bool{},
	}
}

func (t *ClientTable[T]) SetRows(rows []T) {
	t.rows = rows
	t.loading = false
	t.clampPage()
}

func (t *ClientTable[T]) SetLoading(loading bool) { t.loading = loading }

// Search sets the query and returns to page 1
func (t *ClientTable[T]) Search(q string) {
	t.search = strings.TrimSpace(q)
	t.page = 1
}

// Sort handles a click on a column header
func (t *ClientTable[T]) Sort(key string) error {
	col, ok := t.column(key)
	if !ok || !col.Sortable {
		return fmt.Errorf("column %q is not sortable", key)
	}
	t.sortOrder = nextSort(t.sortKey, t.sortOrder, key)
	t.sortKey = key
	return nil
}

// SetPerPage changes the page size and returns to page 1
func (t *ClientTable[T]) SetPerPage(n int) error {
	if !ValidPageSize(n) {
		return fmt.Errorf("page size %d not in %v", n, PageSizes)
	}
	t.perPage = n
	t.page = 1
	return nil
}

func (t *ClientTable[T]) SetPage(n int) {
	t.page = n
	t.clampPage()
}

func (t *ClientTable[T]) Page() int    { return t.page }
func (t *ClientTable[T]) PerPage() int { return t.perPage }

func (t *ClientTable[T]) clampPage() {
	last := lastPage(int64(len(t.Filtered())), t.perPage)
	if t.page > last {
		t.page = last
	}
	if t.page < 1 {
		t.page = 1
	}
}

func (t *ClientTable[T]) column(key string) (Column[T], bool) {
	for _, c := range t.columns {
		if c.Key == key {
			return c, true
		}
	}
	return Column[T]{}, false
}

func (t *ClientTable[T]) matches(row T, q string) bool {
	for _, c := range t.columns {
		if c.Unsearchable {
			continue
		}
		if strings.Contains(strings.ToLower(Stringify(c.value(row))), q) {
			return true
		}
	}
	return false
}

// Filtered returns every row matching the search, in sort order
func (t *ClientTable[T]) Filtered() []T {
	q := strings.ToLower(t.search)
	out := make([]T, 0, len(t.rows))
	for _, r := range t.rows {
		if q == "" || t.matches(r, q) {
			out = append(out, r)
		}
	}
	if col, ok := t.column(t.sortKey); ok && col.Sortable {
		desc := t.sortOrder == "desc"
		sort.SliceStable(out, func(i, j int) bool {
			c := compare(col.value(out[i]), col.value(out[j]))
			if desc {
				return c > 0
			}
			return c < 0
		})
	}
	return out
}

// PageRows is the slice of Filtered shown on the current page
func (t *ClientTable[T]) PageRows() []T {
	all := t.Filtered()
	start := (t.page - 1) * t.perPage
	if start >= len(all) {
		return nil
	}
	end := start + t.perPage
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}

func (t *ClientTable[T]) pageIDs() []string {
	rows := t.PageRows()
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, t.id(r))
	}
	return ids
}

// ToggleSelect flips one row and emits the full selection
func (t *ClientTable[T]) ToggleSelect(id string) []string {
	if t.selected[id] {
		delete(t.selected, id)
	} else {
		t.selected[id] = true
	}
	return t.emit()
}

// ToggleSelectAll clears the selection when the whole current page is
// selected and otherwise selects exactly the current page.
func (t *ClientTable[T]) ToggleSelectAll() []string {
	if t.allPageSelected() {
		t.selected = map[string]bool{}
	} else {
		t.selected = map[string]bool{}
		for _, id := range t.pageIDs() {
			t.selected[id] = true
		}
	}
	return t.emit()
}

func (t *ClientTable[T]) allPageSelected() bool {
	ids := t.pageIDs()
	if len(ids) == 0 || len(ids) != len(t.selected) {
		return false
	}
	for _, id := range ids {
		if !t.selected[id] {
			return false
		}
	}
	return true
}

func (t *ClientTable[T]) Selected() []string {
	ids := make([]string, 0, len(t.selected))
	for id := range t.selected {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (t *ClientTable[T]) emit() []string {
	ids := t.Selected()
	if t.OnSelect != nil {
		t.OnSelect(ids)
	}
	return ids
}

// ToggleExpand flips a row's expansion and reports the new state
func (t *ClientTable[T]) ToggleExpand(id string) bool {
	if t.expanded[id] {
		delete(t.expanded, id)
		return false
	}
	t.expanded[id] = true
	return true
}

func (t *ClientTable[T]) IsExpanded(id string) bool { return t.expanded[id] }

func (t *ClientTable[T]) Render() View {
	v := View{
		Headers:   headers(t.columns, t.sortKey, t.sortOrder),
		Rows:      renderRows(t.columns, t.PageRows(), t.id, t.loading, t.selected, t.expanded),
		Search:    t.search,
		SortKey:   t.sortKey,
		SortOrder: t.sortOrder,
	}
	if t.loading {
		return v
	}
	total := int64(len(t.Filtered()))
	from, to := Range(t.page, t.perPage, total)
	v.Pagination = &Pagination{
		Page:      t.page,
		PerPage:   t.perPage,
		LastPage:  lastPage(total, t.perPage),
		Total:     total,
		From:      from,
		To:        to,
		PageSizes: PageSizes,
	}
	v.AllSelected = t.allPageSelected()
	return v
}

// ExportRows returns the filtered and sorted rows as export cells
func (t *ClientTable[T]) ExportRows() (labels []string, data [][]string) {
	return exportData(t.columns, t.Filtered())
}
