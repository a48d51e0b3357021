package access

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAllows(t *testing.T) {
	s := NewSet("read_rfq", "Create_Product")

	require.True(t, Allows(s, "read_rfq"))
	require.True(t, Allows(s, "create_product"))
	require.True(t, Allows(s))
	require.False(t, Allows(s, "read_rfq", "award_quotation"))
	require.False(t, Allows(NewSet(), "read_rfq"))
}

func TestSplit(t *testing.T) {
	a, r := Split("create_product")
	require.Equal(t, "create", a)
	require.Equal(t, "product", r)

	a, r = Split("manage_activity_log")
	require.Equal(t, "manage", a)
	require.Equal(t, "activity_log", r)

	a, r = Split("dashboard")
	require.Equal(t, "dashboard", a)
	require.Equal(t, "", r)
}

func TestGroupByResource(t *testing.T) {
	groups := GroupByResource([]string{"update_product", "read_rfq", "create_product", "read_activity_log"})

	require.Len(t, groups, 3)
	require.Equal(t, "activity_log", groups[0].Resource)
	require.Equal(t, "Activity Log", groups[0].Label)
	require.Equal(t, "product", groups[1].Resource)
	require.Equal(t, []string{"create", "update"}, groups[1].Actions)
	require.Equal(t, "Rfq", groups[2].Label)
}
