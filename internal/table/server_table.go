package table

import "fmt"

// ServerState is the page descriptor the caller fetched from the API
type ServerState struct {
	TotalItems   int64
	CurrentPage  int
	ItemsPerPage int
	SortKey      string
	SortOrder    string
	Search       string
	Loading      bool
}

// Callbacks receive every page, size, sort and search change of a ServerTable
type Callbacks struct {
	OnPageChange    func(page int)
	OnPerPageChange func(perPage int)
	OnSortChange    func(key, order string)
	OnSearch        func(q string)
}

// ServerTable only renders; the caller owns fetching and its state
type ServerTable[T any] struct {
	columns []Column[T]
	id      func(T) string
	rows    []T
	state   ServerState
	cb      Callbacks
}

func NewServerTable[T any](columns []Column[T], id func(T) string, rows []T, state ServerState, cb Callbacks) *ServerTable[T] {
	return &ServerTable[T]{columns: columns, id: id, rows: rows, state: state, cb: cb}
}

func (t *ServerTable[T]) SetPage(n int) error {
	last := lastPage(t.state.TotalItems, t.state.ItemsPerPage)
	if n < 1 || n > last {
		return fmt.Errorf("page %d out of range 1..%d", n, last)
	}
	if t.cb.OnPageChange != nil {
		t.cb.OnPageChange(n)
	}
	return nil
}

// SetPerPage reports the new size followed by a return to page 1
func (t *ServerTable[T]) SetPerPage(n int) error {
	if !ValidPageSize(n) {
		return fmt.Errorf("page size %d not in %v", n, PageSizes)
	}
	if t.cb.OnPerPageChange != nil {
		t.cb.OnPerPageChange(n)
	}
	if t.cb.OnPageChange != nil {
		t.cb.OnPageChange(1)
	}
	return nil
}

func (t *ServerTable[T]) Sort(key string) error {
	sortable := false
	for _, c := range t.columns {
		if c.Key == key && c.Sortable {
			sortable = true
		}
	}
	if !sortable {
		return fmt.Errorf("column %q is not sortable", key)
	}
	if t.cb.OnSortChange != nil {
		t.cb.OnSortChange(key, nextSort(t.state.SortKey, t.state.SortOrder, key))
	}
	return nil
}

func (t *ServerTable[T]) Search(q string) {
	if t.cb.OnSearch != nil {
		t.cb.OnSearch(q)
	}
}

func (t *ServerTable[T]) Render() View {
	v := View{
		Headers:   headers(t.columns, t.state.SortKey, t.state.SortOrder),
		Rows:      renderRows(t.columns, t.rows, t.id, t.state.Loading, nil, nil),
		Search:    t.state.Search,
		SortKey:   t.state.SortKey,
		SortOrder: t.state.SortOrder,
	}
	if t.state.Loading {
		return v
	}
	from, to := Range(t.state.CurrentPage, t.state.ItemsPerPage, t.state.TotalItems)
	v.Pagination = &Pagination{
		Page:      t.state.CurrentPage,
		PerPage:   t.state.ItemsPerPage,
		LastPage:  lastPage(t.state.TotalItems, t.state.ItemsPerPage),
		Total:     t.state.TotalItems,
		From:      from,
		To:        to,
		PageSizes: PageSizes,
	}
	return v
}
