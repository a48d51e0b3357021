package pagination

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage    = 1
	DefaultPerPage = 10
	MaxPerPage     = 100
	MinPerPage     = 1
)

// Params holds validated list query parameters
type Params struct {
	Page      int
	PerPage   int
	Offset    int
	Search    string
	SortBy    string
	SortOrder string // "asc" or "desc"
}

// Parse extracts and validates page/per_page/search/sort from query parameters
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", strconv.Itoa(DefaultPerPage)))

	return New(page, perPage, c.Query("search"), c.Query("sort_by"), c.Query("sort_order"))
}

// New clamps raw values into a valid Params
func New(page, perPage int, search, sortBy, sortOrder string) Params {
	if page < 1 {
		page = DefaultPage
	}
	if perPage < MinPerPage {
		perPage = DefaultPerPage
	}
	if perPage > MaxPerPage {
		perPage = MaxPerPage
	}

	order := strings.ToLower(sortOrder)
	if order != "asc" {
		order = "desc"
	}

	return Params{
		Page:      page,
		PerPage:   perPage,
		Offset:    (page - 1) * perPage,
		Search:    strings.TrimSpace(search),
		SortBy:    strings.TrimSpace(sortBy),
		SortOrder: order,
	}
}

// OrderClause returns "column dir" when sortBy is in the allowed column map,
// otherwise the fallback. allowed maps the public sort key to the SQL column.
func (p Params) OrderClause(allowed map[string]string, fallback string) string {
	col, ok := allowed[p.SortBy]
	if !ok {
		return fallback
	}
	return col + " " + strings.ToUpper(p.SortOrder)
}
