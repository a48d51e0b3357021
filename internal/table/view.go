package table

// Header is a rendered column heading
type Header struct {
	Key       string `json:"key"`
	Label     string `json:"label"`
	Sortable  bool   `json:"sortable"`
	SortOrder string `json:"sort_order,omitempty"` // set on the active sort column
	NextOrder string `json:"next_order,omitempty"` // order a click would request
}

type Cell struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// Row is a data row, or a single full-width placeholder/spinner row
type Row struct {
	ID          string `json:"id,omitempty"`
	Cells       []Cell `json:"cells,omitempty"`
	Selected    bool   `json:"selected,omitempty"`
	Expanded    bool   `json:"expanded,omitempty"`
	Placeholder bool   `json:"placeholder,omitempty"`
	Spinner     bool   `json:"spinner,omitempty"`
	Colspan     int    `json:"colspan,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Pagination is omitted from a View while loading
type Pagination struct {
	Page      int   `json:"page"`
	PerPage   int   `json:"per_page"`
	LastPage  int   `json:"last_page"`
	Total     int64 `json:"total"`
	From      int64 `json:"from"`
	To        int64 `json:"to"`
	PageSizes []int `json:"page_sizes"`
}

type View struct {
	Headers     []Header    `json:"headers"`
	Rows        []Row       `json:"rows"`
	Search      string      `json:"search"`
	SortKey     string      `json:"sort_key,omitempty"`
	SortOrder   string      `json:"sort_order,omitempty"`
	Pagination  *Pagination `json:"pagination,omitempty"`
	AllSelected bool        `json:"all_selected,omitempty"`
}

const EmptyMessage = "No data found"

// Range returns the 1-based first and last row numbers of a page, 0/0 when empty
func Range(page, perPage int, total int64) (from, to int64) {
	if total <= 0 || page <= 0 || perPage <= 0 {
		return 0, 0
	}
	from = int64(page-1)*int64(perPage) + 1
	if from > total {
		return 0, 0
	}
	to = int64(page) * int64(perPage)
	if to > total {
		to = total
	}
	return from, to
}

func lastPage(total int64, perPage int) int {
	if total <= 0 || perPage <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}

func headers[T any](cols []Column[T], sortKey, sortOrder string) []Header {
	out := make([]Header, len(cols))
	for i, c := range cols {
		h := Header{Key: c.Key, Label: c.Label, Sortable: c.Sortable}
		if c.Sortable {
			if c.Key == sortKey {
				h.SortOrder = sortOrder
			}
			h.NextOrder = nextSort(sortKey, sortOrder, c.Key)
		}
		out[i] = h
	}
	return out
}

// renderRows builds data rows, or the placeholder/spinner row
func renderRows[T any](cols []Column[T], rows []T, id func(T) string, loading bool, selected, expanded map[string]bool) []Row {
	if loading {
		return []Row{{Spinner: true, Colspan: len(cols)}}
	}
	if len(rows) == 0 {
		return []Row{{Placeholder: true, Colspan: len(cols), Message: EmptyMessage}}
	}
	out := make([]Row, 0, len(rows))
	for _, r := range rows {
		rid := ""
		if id != nil {
			rid = id(r)
		}
		cells := make([]Cell, len(cols))
		for i, c := range cols {
			cells[i] = Cell{Key: c.Key, Text: c.text(r)}
		}
		out = append(out, Row{ID: rid, Cells: cells, Selected: selected[rid], Expanded: expanded[rid]})
	}
	return out
}
