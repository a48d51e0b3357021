package dashboard

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"procurement/internal/client"
	"procurement/internal/form"
	"procurement/internal/table"

	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportPageSize and exportMaxPages bound one export to 5000 rows
const (
	exportPageSize = 100
	exportMaxPages = 50
)

var (
	supplierColumns = []table.Column[client.Supplier]{
		{Key: "legal_name", Label: "Legal Name", Sortable: true, Value: func(s client.Supplier) interface{} { return s.LegalName }},
		{Key: "trade_name", Label: "Trade Name", Sortable: true, Value: func(s client.Supplier) interface{} { return s.TradeName }},
		{Key: "tax_id", Label: "Tax ID", Value: func(s client.Supplier) interface{} { return s.TaxID }},
		{Key: "email", Label: "Email", Value: func(s client.Supplier) interface{} { return s.Email }},
		{Key: "phone", Label: "Phone", Value: func(s client.Supplier) interface{} { return s.Phone }},
		{Key: "status", Label: "Status", Sortable: true, Value: func(s client.Supplier) interface{} { return s.Status }},
	}
	productColumns = []table.Column[client.Product]{
		{Key: "sku", Label: "SKU", Sortable: true, Value: func(p client.Product) interface{} { return p.SKU }},
		{Key: "name", Label: "Name", Sortable: true, Value: func(p client.Product) interface{} { return p.Name }},
		{Key: "category_name", Label: "Category", Sortable: true, Value: func(p client.Product) interface{} { return p.CategoryName }},
		{Key: "uom", Label: "UOM", Value: func(p client.Product) interface{} { return p.UOM }},
		{Key: "is_active", Label: "Active", Sortable: true, Unsearchable: true, Value: func(p client.Product) interface{} { return p.IsActive }},
	}
	userColumns = []table.Column[client.User]{
		{Key: "name", Label: "Name", Sortable: true, Value: func(u client.User) interface{} { return u.Name }},
		{Key: "username", Label: "Username", Sortable: true, Value: func(u client.User) interface{} { return u.Username }},
		{Key: "email", Label: "Email", Value: func(u client.User) interface{} { return u.Email }},
		{Key: "roles", Label: "Roles", Value: func(u client.User) interface{} { return strings.Join(u.Roles, ", ") }},
		{Key: "is_active", Label: "Active", Unsearchable: true, Value: func(u client.User) interface{} { return u.IsActive }},
	}
)

// fetchAll walks the API pages of one list
func fetchAll[T any](ctx context.Context, list func(context.Context, client.ListParams) (client.Page[T], error)) ([]T, error) {
	var all []T
	for page := 1; page <= exportMaxPages; page++ {
		p, err := list(ctx, client.ListParams{Page: page, PerPage: exportPageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, p.Data...)
		if page >= p.LastPage {
			break
		}
	}
	return all, nil
}

// exportTable loads every row into a client table so the browser's current
// search and sort apply to the sheet
func exportTable[T any](c *gin.Context, cols []table.Column[T], id func(T) string, list func(context.Context, client.ListParams) (client.Page[T], error)) ([]string, [][]string, error) {
	rows, err := fetchAll(c.Request.Context(), list)
	if err != nil {
		return nil, nil, err
	}
	tbl := table.NewClientTable(cols, id, rows)
	tbl.Search(c.Query("search"))
	if key := c.Query("sort_by"); key != "" {
		if err := tbl.Sort(key); err != nil {
			return nil, nil, form.Errors{"sort_by": err.Error()}
		}
		if strings.EqualFold(c.Query("sort_order"), "desc") {
			_ = tbl.Sort(key)
		}
	}
	headers, data := tbl.ExportRows()
	return headers, data, nil
}

var exportPermissions = map[string]string{
	"rfqs":      "read_rfq",
	"suppliers": "read_supplier",
	"products":  "read_product",
	"users":     "read_user",
}

var exportSheets = map[string]string{
	"rfqs":      "RFQs",
	"suppliers": "Suppliers",
	"products":  "Products",
	"users":     "Users",
}

// Export writes the filtered and sorted rows of a list screen as XLSX
func (h *Handler) Export(c *gin.Context) {
	resource := c.Param("resource")
	perm, ok := exportPermissions[resource]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown export " + resource, "not_found": true})
		return
	}
	if !permsOf(c).Has(perm) {
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have permission to view this page", "forbidden": true, "required": []string{perm}})
		return
	}

	sess := session(c)
	var (
		headers []string
		data    [][]string
		err     error
	)
	switch resource {
	case "rfqs":
		headers, data, err = exportTable(c, rfqColumns, rfqID, sess.ListRFQs)
	case "suppliers":
		headers, data, err = exportTable(c, supplierColumns, func(s client.Supplier) string { return s.ID }, sess.ListSuppliers)
	case "products":
		headers, data, err = exportTable(c, productColumns, func(p client.Product) string { return p.ID }, sess.ListProducts)
	case "users":
		headers, data, err = exportTable(c, userColumns, func(u client.User) string { return u.ID }, sess.ListUsers)
	}
	if err != nil {
		fail(c, err)
		return
	}

	var buf bytes.Buffer
	if err := table.WriteXLSX(&buf, exportSheets[resource], headers, data); err != nil {
		fail(c, fmt.Errorf("write %s export: %w", resource, err))
		return
	}
	filename := fmt.Sprintf("%s_%s.xlsx", resource, h.now().Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}
