// Package table renders paginated, sortable, searchable collections either
// from an in-memory slice (ClientTable) or from a page the caller fetched
// (ServerTable).
package table

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PageSizes are the selectable rows-per-page values
var PageSizes = []int{5, 10, 20, 50}

// ValidPageSize reports whether n is one of PageSizes
func ValidPageSize(n int) bool {
	for _, s := range PageSizes {
		if s == n {
			return true
		}
	}
	return false
}

// Column describes one column. Columns take part in search unless
// Unsearchable is set.
type Column[T any] struct {
	Key          string
	Label        string
	Sortable     bool
	Unsearchable bool
	// Value extracts the raw value used for search, sort and export
	Value func(T) interface{}
	// Render formats the cell; the stringified Value is used when nil
	Render func(T) string
}

func (c Column[T]) text(row T) string {
	if c.Render != nil {
		return c.Render(row)
	}
	return Stringify(c.value(row))
}

func (c Column[T]) value(row T) interface{} {
	if c.Value == nil {
		return nil
	}
	return c.Value(row)
}

// Stringify is the text used for matching and export
func Stringify(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		if x.IsZero() {
			return ""
		}
		return x.Format("2006-01-02 15:04")
	case *time.Time:
		if x == nil {
			return ""
		}
		return Stringify(*x)
	case decimal.Decimal:
		return x.String()
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

// compare orders two column values with < and >. Numbers, times and
// decimals compare by value; everything else by case-insensitive text.
func compare(a, b interface{}) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			switch {
			case ta.Before(tb):
				return -1
			case ta.After(tb):
				return 1
			}
			return 0
		}
	}
	if da, ok := a.(decimal.Decimal); ok {
		if db, ok := b.(decimal.Decimal); ok {
			return da.Cmp(db)
		}
	}
	sa, sb := strings.ToLower(Stringify(a)), strings.ToLower(Stringify(b))
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

func toFloat(v interface{}) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

// nextSort applies the header-click rule: a new column starts ascending,
// the same column flips direction.
func nextSort(currentKey, currentOrder, clicked string) string {
	if clicked == currentKey && currentOrder == "asc" {
		return "desc"
	}
	return "asc"
}
