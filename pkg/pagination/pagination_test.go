package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestParseDefaultsAndClamps(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest("GET", "/?page=-3&per_page=1000&search=%20lap%20&sort_by=name&sort_order=ASC", nil)

	p := Parse(c)
	require.Equal(t, 1, p.Page)
	require.Equal(t, MaxPerPage, p.PerPage)
	require.Equal(t, 0, p.Offset)
	require.Equal(t, "lap", p.Search)
	require.Equal(t, "asc", p.SortOrder)
}

func TestOrderClause(t *testing.T) {
	allowed := map[string]string{"name": "name", "created_at": "created_at"}

	p := New(2, 20, "", "name", "asc")
	require.Equal(t, 20, p.Offset)
	require.Equal(t, "name ASC", p.OrderClause(allowed, "created_at DESC"))

	p = New(1, 20, "", "name; DROP TABLE users", "asc")
	require.Equal(t, "created_at DESC", p.OrderClause(allowed, "created_at DESC"))
}
