package response

// Response represents the standard API response envelope
type Response struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    interface{}       `json:"data,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"` // field -> message on validation failures
}

// Page is the paginated list body carried inside Response.Data
type Page struct {
	Data        interface{} `json:"data"`
	Total       int64       `json:"total"`
	CurrentPage int         `json:"current_page"`
	LastPage    int         `json:"last_page"`
	PerPage     int         `json:"per_page"`
}

// Success returns a standard success response wrapping the data
func Success(message string, data interface{}) Response {
	return Response{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// SuccessWithPagination wraps a page of items with its pagination counters
func SuccessWithPagination(message string, items interface{}, page, perPage int, total int64) Response {
	return Response{
		Success: true,
		Message: message,
		Data: Page{
			Data:        items,
			Total:       total,
			CurrentPage: page,
			LastPage:    LastPage(total, perPage),
			PerPage:     perPage,
		},
	}
}

// Error returns a standard error response wrapping the error message
func Error(message string) Response {
	return Response{
		Success: false,
		Message: message,
	}
}

// ValidationError carries per-field messages
func ValidationError(message string, fields map[string]string) Response {
	return Response{
		Success: false,
		Message: message,
		Errors:  fields,
	}
}

// LastPage is the number of the final page, at least 1
func LastPage(total int64, perPage int) int {
	if perPage <= 0 || total <= 0 {
		return 1
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
